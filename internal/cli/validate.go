package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/portmanteau/internal/compiler"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	FailFast bool
}

// FileError is a validation error tied to a scenario file.
type FileError struct {
	File string `json:"file"`
	compiler.ValidationError
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool        `json:"valid"`
	Files  int         `json:"files"`
	Errors []FileError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <path>",
		Short: "Validate scenarios without running them",
		Long: `Validate scenario files without deriving any witnesses.

Checks every .yaml, .yml and .cue file under path: schema, set literals,
duplicate sets and measure construction. All problems are reported, not
only the first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.FailFast, "fail-fast", false, "stop at the first file that fails to load")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	mode := LoadModeCollectAll
	if opts.FailFast {
		mode = LoadModeFailFast
	}
	loaded, loadErrors := LoadScenarios(path, mode)

	// Directory-level problems (not found, no files)
	if loaded == nil && len(loadErrors) > 0 {
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return outputValidateError(formatter, loadErr.Code, loadErr.Message)
		}
		return outputValidateError(formatter, ErrCodeGeneric, loadErrors[0].Error())
	}

	result := ValidationResult{Files: len(loaded) + len(loadErrors)}
	for _, err := range loadErrors {
		result.Errors = append(result.Errors, loadFileError(err))
	}
	for _, l := range loaded {
		formatter.VerboseLog("Validating scenario: %s (%s)", l.Scenario.Name, l.Path)
		for _, verr := range compiler.Validate(l.Scenario) {
			result.Errors = append(result.Errors, FileError{File: l.Path, ValidationError: verr})
		}
	}

	if len(result.Errors) > 0 {
		return outputValidationErrors(formatter, result)
	}
	result.Valid = true
	return outputValidateSuccess(formatter, result)
}

func loadFileError(err error) FileError {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return FileError{File: loadErr.Path, ValidationError: compiler.ValidationError{
			Field:   "load",
			Message: loadErr.Message,
			Code:    loadErr.Code,
			Line:    loadErr.Line(),
		}}
	}
	return FileError{ValidationError: compiler.ValidationError{Field: "load", Message: err.Error(), Code: ErrCodeGeneric}}
}

func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ All %d scenario(s) valid\n", result.Files)
	return nil
}

// outputValidateError outputs a command-level error (exit code 2).
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs every validation error (exit code 1).
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	failed := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	if formatter.JSON() {
		first := result.Errors[0]
		if err := formatter.Failure(result, first.Code, first.Message); err != nil {
			return err
		}
		return failed
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, e := range result.Errors {
		writeFileError(formatter.Writer, e)
	}
	return failed
}

func writeFileError(w io.Writer, e FileError) {
	if e.Line > 0 {
		fmt.Fprintf(w, "%s:%d\n", e.File, e.Line)
	} else {
		fmt.Fprintln(w, e.File)
	}
	fmt.Fprintf(w, "  %s %s: %s\n\n", e.Code, e.Field, e.Message)
}
