// Package continuity classifies sets relative to a fixed measure and
// derives the two squeeze lemmas used by the convergence criteria:
//
//	μ(frontier S) = 0  =>  μ(interior S) = μ(closure S)
//	μ(frontier S) = 0  =>  μ(interior S) = μ(S) = μ(closure S)
//
// The predicate only needs a measure, not a probability: total mass plays
// no part in it.
package continuity

import (
	"errors"
	"fmt"

	"github.com/roach88/portmanteau/internal/space"
	"github.com/roach88/portmanteau/internal/unit"
)

var (
	// ErrNotContinuitySet is returned when a lemma is invoked on a set whose
	// frontier carries mass.
	ErrNotContinuitySet = errors.New("not a continuity set")

	// ErrInconsistentMeasure is returned when the collaborators contradict
	// the additivity or monotonicity facts the lemmas rely on.
	ErrInconsistentMeasure = errors.New("measure inconsistent with topology")
)

// Squeeze records the masses along interior S ⊆ S ⊆ closure S.
type Squeeze struct {
	Interior   unit.Unit
	Set        unit.Unit
	Closure    unit.Unit
	Frontier   unit.Unit
	Continuity bool
}

// Collapsed reports whether all three masses agree.
func (q Squeeze) Collapsed() bool {
	return q.Interior.Equal(q.Set) && q.Set.Equal(q.Closure)
}

func (q Squeeze) String() string {
	return fmt.Sprintf("μ(int)=%s <= μ(S)=%s <= μ(cl)=%s, μ(fr)=%s",
		q.Interior, q.Set, q.Closure, q.Frontier)
}

// IsContinuitySet reports whether μ(frontier S) = 0.
func IsContinuitySet[S any](top space.Topology[S], m space.Measure[S], s S) bool {
	return m.Mass(top.Frontier(s)).IsZero()
}

// Analyze evaluates every mass of the squeeze, continuity set or not, and
// checks them against monotonicity and additivity.
func Analyze[S any](top space.Topology[S], m space.Measure[S], s S) (Squeeze, error) {
	q := Squeeze{
		Interior: m.Mass(top.Interior(s)),
		Set:      m.Mass(s),
		Closure:  m.Mass(top.Closure(s)),
		Frontier: m.Mass(top.Frontier(s)),
	}
	q.Continuity = q.Frontier.IsZero()

	if !q.Interior.LessEq(q.Set) || !q.Set.LessEq(q.Closure) {
		return q, fmt.Errorf("%w: %s not monotone on %s", ErrInconsistentMeasure, q, top.Format(s))
	}
	sum, err := unit.Add(q.Interior, q.Frontier)
	if err != nil || !sum.Equal(q.Closure) {
		return q, fmt.Errorf("%w: %s not additive on %s", ErrInconsistentMeasure, q, top.Format(s))
	}
	return q, nil
}

// InteriorEqualsClosure derives μ(closure S) = μ(interior S) + μ(frontier S)
// = μ(interior S) and returns the common value.
func InteriorEqualsClosure[S any](top space.Topology[S], m space.Measure[S], s S) (unit.Unit, error) {
	q, err := Analyze(top, m, s)
	if err != nil {
		return unit.Unit{}, err
	}
	if !q.Continuity {
		return unit.Unit{}, notContinuity(top, s, q)
	}
	return q.Interior, nil
}

// EqualsInterior derives μ(S) = μ(interior S) by squeezing S between its
// interior and closure.
func EqualsInterior[S any](top space.Topology[S], m space.Measure[S], s S) (unit.Unit, error) {
	q, err := squeeze(top, m, s)
	if err != nil {
		return unit.Unit{}, err
	}
	return q.Interior, nil
}

// EqualsClosure derives μ(S) = μ(closure S).
func EqualsClosure[S any](top space.Topology[S], m space.Measure[S], s S) (unit.Unit, error) {
	q, err := squeeze(top, m, s)
	if err != nil {
		return unit.Unit{}, err
	}
	return q.Closure, nil
}

func squeeze[S any](top space.Topology[S], m space.Measure[S], s S) (Squeeze, error) {
	q, err := Analyze(top, m, s)
	if err != nil {
		return q, err
	}
	if !q.Continuity {
		return q, notContinuity(top, s, q)
	}
	// μ(int) = μ(cl) and monotonicity pin μ(S) between them.
	if !q.Collapsed() {
		return q, fmt.Errorf("%w: squeeze did not collapse: %s", ErrInconsistentMeasure, q)
	}
	return q, nil
}

func notContinuity[S any](top space.Topology[S], s S, q Squeeze) error {
	return fmt.Errorf("%w: μ(frontier %s) = %s", ErrNotContinuitySet, top.Format(s), q.Frontier)
}
