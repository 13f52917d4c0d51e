package interval

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/portmanteau/internal/space"
	"github.com/roach88/portmanteau/internal/unit"
)

// ErrSupport is returned when a measure's support is degenerate or
// misordered.
var ErrSupport = errors.New("invalid measure support")

var (
	_ space.Measure[Set] = Uniform{}
	_ space.Measure[Set] = UniformOn{}
	_ space.Measure[Set] = Dirac{}
	_ space.Measure[Set] = Atoms{}
)

// Uniform is Lebesgue measure on [0,1].
type Uniform struct{}

// Mass returns the total length of s.
func (Uniform) Mass(s Set) unit.Unit { return s.Length() }

func (Uniform) String() string { return "uniform" }

// UniformOn is Lebesgue measure on [A,B] normalised to total mass 1.
type UniformOn struct {
	A, B unit.Unit
}

// NewUniformOn requires A < B.
func NewUniformOn(a, b unit.Unit) (UniformOn, error) {
	if !a.Less(b) {
		return UniformOn{}, fmt.Errorf("%w: uniform on [%s,%s] needs a < b", ErrSupport, a, b)
	}
	return UniformOn{A: a, B: b}, nil
}

// Mass returns |s ∩ [A,B]| / (B - A).
func (m UniformOn) Mass(s Set) unit.Unit {
	inside := Intersect(s, Closed(m.A, m.B)).Length()
	q, err := unit.Quo(inside, unit.SubTrunc(m.B, m.A))
	if err != nil {
		panic(fmt.Sprintf("interval: %s: %v", m, err))
	}
	return q
}

func (m UniformOn) String() string { return "uniform_on[" + m.A.String() + "," + m.B.String() + "]" }

// Dirac is the point mass at X.
type Dirac struct {
	X unit.Unit
}

// Mass is 1 when X ∈ s and 0 otherwise.
func (m Dirac) Mass(s Set) unit.Unit {
	if s.Contains(m.X) {
		return unit.One()
	}
	return unit.Zero()
}

func (m Dirac) String() string { return "dirac(" + m.X.String() + ")" }

// Atom is a weighted point of an Atoms measure.
type Atom struct {
	At     unit.Unit
	Weight unit.Unit
}

// Atoms is a finite discrete measure.
type Atoms struct {
	atoms []Atom
}

// NewAtoms merges repeated points and requires the weights to sum to 1.
func NewAtoms(atoms ...Atom) (Atoms, error) {
	if len(atoms) == 0 {
		return Atoms{}, fmt.Errorf("%w: no atoms", ErrSupport)
	}
	merged := make([]Atom, 0, len(atoms))
	for _, a := range atoms {
		i := slices.IndexFunc(merged, func(m Atom) bool { return m.At.Equal(a.At) })
		if i < 0 {
			merged = append(merged, a)
			continue
		}
		w, err := unit.Add(merged[i].Weight, a.Weight)
		if err != nil {
			return Atoms{}, fmt.Errorf("%w: weights at %s: %v", ErrSupport, a.At, err)
		}
		merged[i].Weight = w
	}
	slices.SortFunc(merged, func(a, b Atom) int { return a.At.Cmp(b.At) })

	weights := make([]unit.Unit, len(merged))
	for i, a := range merged {
		weights[i] = a.Weight
	}
	total, err := unit.Sum(weights...)
	if err != nil || !total.IsOne() {
		return Atoms{}, fmt.Errorf("%w: atom weights do not sum to 1", ErrSupport)
	}
	return Atoms{atoms: merged}, nil
}

// Mass sums the weights of the atoms inside s.
func (m Atoms) Mass(s Set) unit.Unit {
	var hit []unit.Unit
	for _, a := range m.atoms {
		if s.Contains(a.At) {
			hit = append(hit, a.Weight)
		}
	}
	total, err := unit.Sum(hit...)
	if err != nil {
		panic(fmt.Sprintf("interval: %s: %v", m, err))
	}
	return total
}

// Points returns the atoms sorted by position.
func (m Atoms) Points() []Atom { return append([]Atom(nil), m.atoms...) }

func (m Atoms) String() string {
	parts := make([]string, len(m.atoms))
	for i, a := range m.atoms {
		parts[i] = a.Weight.String() + "@" + a.At.String()
	}
	return "atoms(" + strings.Join(parts, ", ") + ")"
}
