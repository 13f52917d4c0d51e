package compiler

import (
	"fmt"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileError is a scenario rejected by CUE or by the harness rules.
// Pos points into the CUE source when known.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if !e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Pos, e.Field, e.Message)
}

// Line returns the CUE source line, or 0 when unknown.
func (e *CompileError) Line() int {
	if !e.Pos.IsValid() {
		return 0
	}
	return e.Pos.Line()
}

// fromCUE keeps the first of CUE's errors, at the first position CUE
// reports for it.
func fromCUE(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	ce := &CompileError{Field: "cue", Message: errs[0].Error()}
	if pos := cueerrors.Positions(errs[0]); len(pos) > 0 {
		ce.Pos = pos[0]
	}
	return ce
}
