package measureseq

import (
	"fmt"

	"github.com/roach88/portmanteau/internal/limit"
	"github.com/roach88/portmanteau/internal/space"
	"github.com/roach88/portmanteau/internal/unit"
)

// Path is a one-parameter family k -> μ_k of probability measures whose
// mass on any fixed set is a limit.Branch.
type Path[S any] interface {
	// Term returns μ_k.
	Term(k int) space.Measure[S]
	// Branch returns k -> μ_k(s) in closed form.
	Branch(s S) (limit.Branch, error)
	// Limit returns the measure the path converges to setwise on the sets
	// where Branch has a limit equal to its mass.
	Limit() space.Measure[S]
	// Validate checks every term is a probability measure on top.
	Validate(top space.Topology[S]) error
	String() string
}

// Steady is the constant path μ_k = μ.
type Steady[S any] struct {
	M space.Probability[S]
}

// NewSteady returns the constant path at m.
func NewSteady[S any](m space.Probability[S]) Steady[S] { return Steady[S]{M: m} }

func (p Steady[S]) Term(int) space.Measure[S] { return p.M }

func (p Steady[S]) Branch(s S) (limit.Branch, error) {
	return limit.Constant(p.M.Mass(s)), nil
}

func (p Steady[S]) Limit() space.Measure[S] { return p.M }

func (p Steady[S]) Validate(space.Topology[S]) error {
	if !p.M.Valid() {
		return fmt.Errorf("%w: steady path has no measure", space.ErrNotProbability)
	}
	return nil
}

func (p Steady[S]) String() string { return "steady(" + p.M.Name() + ")" }

// Blend moves from one probability to another:
//
//	μ_k = To + (From - To)/(k+1)
//
// i.e. the mixture with weight 1/(k+1) on From. It converges to To in total
// variation.
type Blend[S any] struct {
	From space.Probability[S]
	To   space.Probability[S]
}

// NewBlend returns the path starting at from and converging to to.
func NewBlend[S any](from, to space.Probability[S]) Blend[S] {
	return Blend[S]{From: from, To: to}
}

func (p Blend[S]) Term(k int) space.Measure[S] {
	return space.MeasureFunc[S](func(s S) unit.Unit {
		return p.branch(s).At(k)
	})
}

func (p Blend[S]) branch(s S) limit.Branch {
	return limit.Approach(p.To.Mass(s), p.From.Mass(s))
}

func (p Blend[S]) Branch(s S) (limit.Branch, error) { return p.branch(s), nil }

func (p Blend[S]) Limit() space.Measure[S] { return p.To }

func (p Blend[S]) Validate(space.Topology[S]) error {
	if !p.From.Valid() || !p.To.Valid() {
		return fmt.Errorf("%w: blend endpoints must be probabilities", space.ErrNotProbability)
	}
	return nil
}

func (p Blend[S]) String() string {
	return "blend(" + p.From.Name() + " -> " + p.To.Name() + ")"
}
