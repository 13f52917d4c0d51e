package space

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/portmanteau/internal/unit"
)

// ErrWeights is returned when mixture weights do not sum to 1.
var ErrWeights = errors.New("mixture weights must sum to 1")

// Component is one weighted part of a Mixture.
type Component[S any] struct {
	Weight  unit.Unit
	Measure Probability[S]
}

// Mixture is the convex combination Σ wᵢ μᵢ of probability measures.
type Mixture[S any] struct {
	parts []Component[S]
}

// NewMixture checks that the weights sum to exactly 1.
func NewMixture[S any](parts ...Component[S]) (Mixture[S], error) {
	weights := make([]unit.Unit, len(parts))
	for i, p := range parts {
		if !p.Measure.Valid() {
			return Mixture[S]{}, fmt.Errorf("%w: component %d", ErrNotProbability, i)
		}
		weights[i] = p.Weight
	}
	total, err := unit.Sum(weights...)
	if err != nil || !total.IsOne() {
		return Mixture[S]{}, fmt.Errorf("%w: got %s", ErrWeights, describeWeights(weights))
	}
	return Mixture[S]{parts: append([]Component[S](nil), parts...)}, nil
}

// Mass implements Measure.
func (m Mixture[S]) Mass(s S) unit.Unit {
	terms := make([]unit.Unit, len(m.parts))
	for i, p := range m.parts {
		terms[i] = unit.Mul(p.Weight, p.Measure.Mass(s))
	}
	total, err := unit.Sum(terms...)
	if err != nil {
		// Σ wᵢ μᵢ(s) <= Σ wᵢ = 1; only rounding in Mul can overshoot.
		return unit.One()
	}
	return total
}

// Components returns a copy of the weighted parts.
func (m Mixture[S]) Components() []Component[S] {
	return append([]Component[S](nil), m.parts...)
}

func describeWeights(ws []unit.Unit) string {
	parts := make([]string, len(ws))
	for i, w := range ws {
		parts[i] = w.String()
	}
	return "[" + strings.Join(parts, " + ") + "]"
}
