package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/portmanteau/internal/continuity"
	"github.com/roach88/portmanteau/internal/criteria"
	"github.com/roach88/portmanteau/internal/interval"
	"github.com/roach88/portmanteau/internal/ir"
	"github.com/roach88/portmanteau/internal/store"
	"github.com/roach88/portmanteau/internal/unit"
)

// AssertionContext is everything an assertion may inspect.
type AssertionContext struct {
	Model *Model

	// Derived is nil when the scenario has no target sets or the
	// derivation failed.
	Derived *criteria.Derivation[interval.Set]

	// Witnesses are the rows read back from the ledger.
	Witnesses []store.Witness
}

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Set      string // Canonical set text, if any
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s", e.Type)
	if e.Set != "" {
		fmt.Fprintf(&buf, " on %s", e.Set)
	}
	fmt.Fprintf(&buf, "\n  Expected: %s\n  Actual: %s", e.Expected, e.Actual)
	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages
// in order. An empty slice means all assertions held.
func EvaluateAssertions(actx *AssertionContext, assertions []Assertion) []string {
	errs := []string{}
	for i, a := range assertions {
		if err := evaluate(actx, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(actx *AssertionContext, a Assertion) error {
	var set interval.Set
	if a.Set != "" {
		s, err := interval.Parse(a.Set)
		if err != nil {
			return err
		}
		set = s
	}

	switch a.Type {
	case AssertLiminfHolds:
		return assertLiminf(actx, a, set)
	case AssertLimsupHolds:
		return assertLimsup(actx, a, set)
	case AssertPointwiseLimit:
		return assertPointwise(actx, a, set)
	case AssertContinuity:
		return assertContinuity(actx, set, true)
	case AssertNotContinuity:
		return assertContinuity(actx, set, false)
	case AssertMass:
		return assertMass(actx, a, set)
	case AssertRoundTrip:
		return assertRoundTrip(actx)
	case AssertViolation:
		return assertViolation(actx, a, set)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

// expectValue compares got with the assertion's optional value.
func expectValue(a Assertion, set interval.Set, what string, got unit.Unit) error {
	if a.Value == "" {
		return nil
	}
	want, err := unit.Parse(a.Value)
	if err != nil {
		return fmt.Errorf("value: %w", err)
	}
	if !got.Equal(want) {
		return &AssertionError{
			Type:     a.Type,
			Set:      set.String(),
			Expected: fmt.Sprintf("%s = %s", what, want),
			Actual:   fmt.Sprintf("%s = %s", what, got),
		}
	}
	return nil
}

func assertLiminf(actx *AssertionContext, a Assertion, set interval.Set) error {
	w, err := criteria.CheckLiminf(actx.Model.Problem, []interval.Set{set})
	if err != nil {
		return &AssertionError{Type: a.Type, Set: set.String(), Expected: "liminf criterion holds", Actual: err.Error()}
	}
	return expectValue(a, set, "liminf", w.Checks[0].Liminf)
}

func assertLimsup(actx *AssertionContext, a Assertion, set interval.Set) error {
	w, err := criteria.CheckLimsup(actx.Model.Problem, []interval.Set{set})
	if err != nil {
		return &AssertionError{Type: a.Type, Set: set.String(), Expected: "limsup criterion holds", Actual: err.Error()}
	}
	return expectValue(a, set, "limsup", w.Checks[0].Limsup)
}

// assertPointwise derives the limit through the squeeze rather than by
// direct evaluation, so it fails for sets the derivation cannot reach.
func assertPointwise(actx *AssertionContext, a Assertion, set interval.Set) error {
	p := actx.Model.Problem
	lower, err := criteria.CheckLiminf(p, criteria.Cover[interval.Set](top, []interval.Set{set}))
	if err == nil {
		var w criteria.Witness[interval.Set]
		if w, err = criteria.PointwiseFromLiminf(p, lower, []interval.Set{set}); err == nil {
			return expectValue(a, set, "limit", w.Checks[0].Mass)
		}
	}
	return &AssertionError{Type: a.Type, Set: set.String(), Expected: "μₙ(S) -> μ(S)", Actual: err.Error()}
}

func assertContinuity(actx *AssertionContext, set interval.Set, want bool) error {
	p := actx.Model.Problem
	if continuity.IsContinuitySet[interval.Set](top, p.Limit, set) == want {
		return nil
	}
	typ, expected := AssertContinuity, "μ(frontier) = 0"
	if !want {
		typ, expected = AssertNotContinuity, "μ(frontier) > 0"
	}
	return &AssertionError{
		Type:     typ,
		Set:      set.String(),
		Expected: expected,
		Actual:   fmt.Sprintf("μ(%s) = %s", set.Frontier(), p.Limit.Mass(set.Frontier())),
	}
}

func assertMass(actx *AssertionContext, a Assertion, set interval.Set) error {
	return expectValue(a, set, "μ(S)", actx.Model.Problem.Limit.Mass(set))
}

func assertRoundTrip(actx *AssertionContext) error {
	if actx.Derived == nil {
		return &AssertionError{Type: AssertRoundTrip, Expected: "a derivation", Actual: "no derivation (no sets, or derive failed)"}
	}
	back, err := criteria.LiminfFromLimsup(actx.Model.Problem, actx.Derived.Limsup)
	if err != nil {
		return &AssertionError{Type: AssertRoundTrip, Expected: "limsup witness dualizes", Actual: err.Error()}
	}
	if !back.Equivalent(top, actx.Derived.Liminf) {
		return &AssertionError{
			Type:     AssertRoundTrip,
			Expected: fmt.Sprintf("liminf witness on %v", actx.Derived.Liminf.Sets()),
			Actual:   fmt.Sprintf("liminf witness on %v", back.Sets()),
		}
	}
	for _, w := range actx.Witnesses {
		id, err := ir.WitnessID(w.Payload)
		if err != nil {
			return err
		}
		if id != w.ID {
			return &AssertionError{Type: AssertRoundTrip, Expected: "stored id " + w.ID, Actual: "payload hashes to " + id}
		}
	}
	return nil
}

func assertViolation(actx *AssertionContext, a Assertion, set interval.Set) error {
	p := actx.Model.Problem
	sets := []interval.Set{set}

	var err error
	switch criteria.Kind(a.Kind) {
	case criteria.KindLiminf:
		_, err = criteria.CheckLiminf(p, sets)
	case criteria.KindLimsup:
		_, err = criteria.CheckLimsup(p, sets)
	case criteria.KindPointwise:
		_, err = criteria.CheckPointwise(p, sets)
	default:
		return fmt.Errorf("unknown criterion kind %q", a.Kind)
	}

	expected := "criterion violated"
	if a.Code != "" {
		expected = "error code " + a.Code
	}
	switch {
	case err == nil:
		return &AssertionError{Type: a.Type, Set: set.String(), Expected: expected, Actual: a.Kind + " holds"}
	case a.Code != "" && string(criteria.CodeOf(err)) != a.Code:
		return &AssertionError{Type: a.Type, Set: set.String(), Expected: expected, Actual: err.Error()}
	case a.Code == "" && !criteria.IsViolation(err):
		return &AssertionError{Type: a.Type, Set: set.String(), Expected: expected, Actual: err.Error()}
	}
	return nil
}
