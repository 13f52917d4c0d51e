package compiler

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/portmanteau/internal/harness"
	"github.com/roach88/portmanteau/internal/interval"
)

// Validation error codes (E100-E199)
const (
	ErrScenarioStructure = "E101" // missing or malformed field
	ErrSetLiteral        = "E102" // set text does not parse
	ErrDuplicateSet      = "E103" // same set listed twice in one family
	ErrModelBuild        = "E104" // measures or paths rejected at construction
	ErrFloatLiteral      = "E105" // unquoted decimal in a CUE scenario
)

// ValidationError represents a scenario validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"` // CUE source line, when known
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a scenario and returns every problem found
// (does not fail-fast). Structural problems stop the measure build,
// which would only repeat them.
func Validate(s *harness.Scenario) []ValidationError {
	errs := []ValidationError{}

	for _, fam := range []struct {
		field string
		list  []string
	}{{"sets", s.Sets}, {"opens", s.Opens}, {"closeds", s.Closeds}} {
		seen := map[string]int{}
		for i, text := range fam.list {
			field := fmt.Sprintf("%s[%d]", fam.field, i)
			set, err := interval.Parse(text)
			if err != nil {
				errs = append(errs, ValidationError{Field: field, Message: err.Error(), Code: ErrSetLiteral})
				continue
			}
			if j, dup := seen[set.String()]; dup {
				errs = append(errs, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("%s repeats %s[%d]", set, fam.field, j),
					Code:    ErrDuplicateSet,
				})
				continue
			}
			seen[set.String()] = i
		}
	}
	for i, a := range s.Assertions {
		if a.Set == "" {
			continue
		}
		if _, err := interval.Parse(a.Set); err != nil {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("assertions[%d].set", i),
				Message: err.Error(),
				Code:    ErrSetLiteral,
			})
		}
	}

	if err := s.Validate(); err != nil {
		errs = append(errs, ValidationError{Field: "scenario", Message: err.Error(), Code: ErrScenarioStructure})
		return errs
	}
	if len(errs) > 0 {
		return errs
	}

	if _, err := harness.Build(s, slog.New(slog.NewTextHandler(io.Discard, nil))); err != nil {
		errs = append(errs, ValidationError{Field: "scenario", Message: err.Error(), Code: ErrModelBuild})
	}
	return errs
}
