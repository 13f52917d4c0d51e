// Package space declares the collaborators the criteria engine consumes: a
// topology over some set type S and measures that assign a Unit mass to
// each S.
//
// The engine never computes interiors, closures or masses itself. It relies
// on these structural facts of any Topology implementation:
//
//   - Interior(s) ⊆ s ⊆ Closure(s)
//   - Closure(s) = Interior(s) ∪ Frontier(s), and the union is disjoint
//   - IsOpen(Complement(s)) iff IsClosed(s)
//
// and on these facts of any Measure: monotone under ⊆, additive on disjoint
// sets, and for a Probability, Mass(Universe) = 1 so that
// Mass(Complement(s)) = 1 - Mass(s).
package space

import (
	"errors"
	"fmt"

	"github.com/roach88/portmanteau/internal/unit"
)

// ErrNotProbability is returned when a measure does not have total mass 1.
var ErrNotProbability = errors.New("measure is not a probability measure")

// Topology is the capability set of a topological space whose subsets are
// represented by S.
type Topology[S any] interface {
	Universe() S
	Empty() S
	Complement(s S) S
	Interior(s S) S
	Closure(s S) S
	Frontier(s S) S
	IsOpen(s S) bool
	IsClosed(s S) bool
	Subset(a, b S) bool
	Equal(a, b S) bool
	// Format renders s canonically; equal sets format identically.
	Format(s S) string
}

// Measure assigns a mass in [0,1] to each measurable set.
type Measure[S any] interface {
	Mass(s S) unit.Unit
}

// MeasureFunc adapts a function to Measure.
type MeasureFunc[S any] func(s S) unit.Unit

// Mass implements Measure.
func (f MeasureFunc[S]) Mass(s S) unit.Unit { return f(s) }

// Probability is a measure whose total mass has been checked to be 1.
// Construct it with NewProbability; the zero value is not usable.
type Probability[S any] struct {
	name    string
	measure Measure[S]
}

// NewProbability validates m against top: the universe must have mass 1 and
// the empty set mass 0.
func NewProbability[S any](top Topology[S], name string, m Measure[S]) (Probability[S], error) {
	if m == nil {
		return Probability[S]{}, fmt.Errorf("%w: %s: nil measure", ErrNotProbability, name)
	}
	if total := m.Mass(top.Universe()); !total.IsOne() {
		return Probability[S]{}, fmt.Errorf("%w: %s: total mass %s", ErrNotProbability, name, total)
	}
	if empty := m.Mass(top.Empty()); !empty.IsZero() {
		return Probability[S]{}, fmt.Errorf("%w: %s: empty set has mass %s", ErrNotProbability, name, empty)
	}
	return Probability[S]{name: name, measure: m}, nil
}

// MustProbability is like NewProbability but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustProbability[S any](top Topology[S], name string, m Measure[S]) Probability[S] {
	p, err := NewProbability(top, name, m)
	if err != nil {
		panic(err)
	}
	return p
}

// Mass implements Measure.
func (p Probability[S]) Mass(s S) unit.Unit { return p.measure.Mass(s) }

// Name returns the label given at construction.
func (p Probability[S]) Name() string { return p.name }

// Valid reports whether p was built by NewProbability.
func (p Probability[S]) Valid() bool { return p.measure != nil }

// ComplementMass returns 1 - Mass(s), the mass of s's complement under
// total mass 1.
func (p Probability[S]) ComplementMass(s S) unit.Unit {
	return unit.SubTrunc(unit.One(), p.Mass(s))
}
