// Package compiler turns CUE scenario values into harness scenarios.
//
// A CUE scenario is unified with the embedded #Scenario schema, decoded
// and then validated with the same rules as YAML scenarios.
package compiler

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"

	"github.com/roach88/portmanteau/internal/harness"
)

//go:embed schema.cue
var schemaCUE string

// CompileScenario decodes a CUE value into a Scenario.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The value is the scenario struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`scenario: { name: "drift", ... }`)
//	s, err := CompileScenario(v.LookupPath(cue.ParsePath("scenario")))
func CompileScenario(v cue.Value) (*harness.Scenario, error) {
	if err := v.Err(); err != nil {
		return nil, fromCUE(err)
	}
	if !v.Exists() {
		return nil, &CompileError{Field: "scenario", Message: "value does not exist"}
	}
	if err := rejectFloats(v); err != nil {
		return nil, err
	}

	schema := v.Context().CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile embedded schema: %w", err)
	}
	unified := schema.LookupPath(cue.ParsePath("#Scenario")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fromCUE(err)
	}

	var s harness.Scenario
	if err := unified.Decode(&s); err != nil {
		return nil, fromCUE(err)
	}
	if err := s.Validate(); err != nil {
		return nil, &CompileError{Field: "scenario", Message: err.Error(), Pos: v.Pos()}
	}
	return &s, nil
}

// rejectFloats reports the first float literal in v. Decimals must be
// quoted so they are never rounded through binary floating point.
func rejectFloats(v cue.Value) error {
	var found *CompileError
	v.Walk(func(f cue.Value) bool {
		if found != nil {
			return false
		}
		if f.IncompleteKind() == cue.FloatKind {
			found = &CompileError{
				Field:   fieldPath(f),
				Message: "float literals are forbidden - quote decimals as strings",
				Pos:     f.Pos(),
			}
			return false
		}
		return true
	}, nil)
	if found != nil {
		return found
	}
	return nil
}

func fieldPath(v cue.Value) string {
	sels := v.Path().Selectors()
	parts := make([]string, len(sels))
	for i, s := range sels {
		parts[i] = s.String()
	}
	if len(parts) == 0 {
		return "value"
	}
	return strings.Join(parts, ".")
}
