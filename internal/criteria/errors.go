package criteria

import (
	"errors"
	"fmt"
)

// CriterionError reports why a criterion could not be checked or derived.
//
// Two families of codes exist:
//   - Contract errors: the caller supplied a set that does not satisfy a
//     structural precondition (not open, not closed, not a continuity set,
//     not covered by the witness, wrong witness kind)
//   - Violations: the preconditions hold but the measures do not satisfy
//     the criterion, or the collaborators contradict each other
type CriterionError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Set is the canonical text of the offending set, if any.
	Set string

	// Details contains additional context.
	Details map[string]string
}

// ErrorCode categorizes criterion errors.
type ErrorCode string

const (
	// CodeNotOpen indicates a liminf check was given a set that is not open.
	CodeNotOpen ErrorCode = "NOT_OPEN"

	// CodeNotClosed indicates a limsup check was given a set that is not closed.
	CodeNotClosed ErrorCode = "NOT_CLOSED"

	// CodeNotContinuitySet indicates the limit measure charges the set's frontier.
	CodeNotContinuitySet ErrorCode = "NOT_CONTINUITY_SET"

	// CodeUncovered indicates a derivation needs a set the witness does not check.
	CodeUncovered ErrorCode = "UNCOVERED"

	// CodeWrongKind indicates a derivation was given a witness of another kind.
	CodeWrongKind ErrorCode = "WRONG_KIND"

	// CodeViolated indicates the measures do not satisfy the criterion.
	CodeViolated ErrorCode = "VIOLATED"

	// CodeInconsistentMeasure indicates the topology and measures contradict
	// a fact every derivation relies on.
	CodeInconsistentMeasure ErrorCode = "INCONSISTENT_MEASURE"
)

// Error implements the error interface.
func (e *CriterionError) Error() string {
	if e.Set != "" {
		return fmt.Sprintf("%s: %s (set=%s)", e.Code, e.Message, e.Set)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsViolation returns true if the measures fail the criterion itself.
func IsViolation(err error) bool {
	var ce *CriterionError
	if errors.As(err, &ce) {
		return ce.Code == CodeViolated
	}
	return false
}

// IsContractError returns true if the caller broke a structural
// precondition.
func IsContractError(err error) bool {
	var ce *CriterionError
	if !errors.As(err, &ce) {
		return false
	}
	switch ce.Code {
	case CodeNotOpen, CodeNotClosed, CodeNotContinuitySet, CodeUncovered, CodeWrongKind:
		return true
	}
	return false
}

// CodeOf returns the code of the first CriterionError in err's chain, or
// the empty code.
func CodeOf(err error) ErrorCode {
	var ce *CriterionError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

func newError(code ErrorCode, set, format string, args ...any) *CriterionError {
	return &CriterionError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Set:     set,
	}
}

func (e *CriterionError) with(key, value string) *CriterionError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}
