package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/portmanteau/internal/compiler"
	"github.com/roach88/portmanteau/internal/harness"
)

// LoadMode controls how errors are handled while loading a directory.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadedScenario is a scenario together with the file it came from.
type LoadedScenario struct {
	Path     string
	Scenario *harness.Scenario
}

// LoadError represents an error that occurred while loading a scenario.
type LoadError struct {
	Path    string
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Line returns the CUE source line, or 0.
func (e *LoadError) Line() int {
	if e.Pos.IsValid() {
		return e.Pos.Line()
	}
	return 0
}

// Error code constants - unified across all CLI commands.
// Scenario problems use the compiler's E1xx codes.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No scenario files found
	ErrCodeLoadFailed  = "E004" // File unreadable or not YAML
	ErrCodeNotFound    = "E005" // Path, run or database not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeUnsupported = "E008" // Unknown scenario file extension
	ErrCodeStore       = "E009" // Ledger read or write failed
)

// LoadScenarioFile reads a YAML (.yaml, .yml) or CUE (.cue) scenario.
// Errors are *LoadError values.
func LoadScenarioFile(path string) (*harness.Scenario, error) {
	return loadScenarioFile(path, harness.LoadScenario)
}

// readScenarioFile is LoadScenarioFile without the harness rules for YAML,
// leaving them to compiler.Validate.
func readScenarioFile(path string) (*harness.Scenario, error) {
	return loadScenarioFile(path, harness.ReadScenario)
}

func loadScenarioFile(path string, loadYAML harness.Loader) (*harness.Scenario, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		s, err := loadYAML(path)
		if err != nil {
			code := ErrCodeLoadFailed
			switch {
			case errors.Is(err, os.ErrNotExist):
				code = ErrCodeNotFound
			case errors.Is(err, harness.ErrInvalidScenario):
				code = compiler.ErrScenarioStructure
			}
			return nil, &LoadError{Path: path, Code: code, Message: err.Error()}
		}
		return s, nil
	case ".cue":
		return loadCUEScenario(path)
	default:
		return nil, &LoadError{
			Path:    path,
			Code:    ErrCodeUnsupported,
			Message: fmt.Sprintf("unsupported scenario file extension %q", filepath.Ext(path)),
		}
	}
}

// loadCUEScenario compiles a single CUE file. The scenario is either the
// file's top-level value or its "scenario" field.
func loadCUEScenario(path string) (*harness.Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		code := ErrCodeLoadFailed
		if errors.Is(err, os.ErrNotExist) {
			code = ErrCodeNotFound
		}
		return nil, &LoadError{Path: path, Code: code, Message: err.Error()}
	}

	v := cuecontext.New().CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		loadErr := &LoadError{Path: path, Code: ErrCodeBuildFailed, Message: err.Error()}
		if pos := cueerrors.Positions(err); len(pos) > 0 {
			loadErr.Pos = pos[0]
		}
		return nil, loadErr
	}
	if sv := v.LookupPath(cue.ParsePath("scenario")); sv.Exists() {
		v = sv
	}

	s, err := compiler.CompileScenario(v)
	if err != nil {
		return nil, convertCompileError(err, path)
	}
	return s, nil
}

// LoadScenarios decodes every scenario under dir for validation. YAML
// files are not checked against the harness rules; run compiler.Validate
// on each result. In LoadModeFailFast it stops at the first file that
// fails. A nil slice with errors means the directory itself could not be
// used.
func LoadScenarios(dir string, mode LoadMode) ([]LoadedScenario, []error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("path not found: %s", dir)}}
	}
	paths, err := harness.FindScenarios(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(paths) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no scenario files found in %s", dir)}}
	}

	loaded := []LoadedScenario{}
	var errs []error
	for _, path := range paths {
		s, err := readScenarioFile(path)
		if err != nil {
			errs = append(errs, err)
			if mode == LoadModeFailFast {
				return loaded, errs
			}
			continue
		}
		loaded = append(loaded, LoadedScenario{Path: path, Scenario: s})
	}
	return loaded, errs
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, path string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Path:    path,
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	// CUE errors without a position
	return &LoadError{Path: path, Code: ErrCodeBuildFailed, Message: err.Error()}
}

// MapFieldToErrorCode maps a compiler error field to an error code.
// CUE unification errors carry the field "cue", harness rule violations
// "scenario"; any other field is the path of a rejected float literal.
func MapFieldToErrorCode(field string) string {
	switch field {
	case "":
		return ErrCodeGeneric
	case "cue":
		return ErrCodeBuildFailed
	case "scenario":
		return compiler.ErrScenarioStructure
	default:
		return compiler.ErrFloatLiteral
	}
}
