// Package measureseq describes sequences of probability measures n -> μₙ by
// finite data: a head of explicit probabilities followed by a cycle of
// Paths interleaved round-robin, mirroring limit.Sequence. The mass of any
// set along the sequence is therefore a limit.Sequence whose liminf and
// limsup are decided exactly.
//
// Every term is checked to be a probability measure when the sequence is
// built; nothing downstream re-checks it.
package measureseq

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/portmanteau/internal/limit"
	"github.com/roach88/portmanteau/internal/space"
	"github.com/roach88/portmanteau/internal/unit"
)

// ErrEmptyCycle is returned when a sequence has no paths.
var ErrEmptyCycle = errors.New("measure sequence needs at least one path")

// Sequence is n -> μₙ. Index n < len(head) reads the head; larger indices
// read cycle[(n-h)%c] at term (n-h)/c.
type Sequence[S any] struct {
	head  []space.Probability[S]
	cycle []Path[S]
}

// New validates every head measure and path against top.
func New[S any](top space.Topology[S], head []space.Probability[S], cycle ...Path[S]) (Sequence[S], error) {
	if len(cycle) == 0 {
		return Sequence[S]{}, ErrEmptyCycle
	}
	for i, m := range head {
		if !m.Valid() {
			return Sequence[S]{}, fmt.Errorf("%w: head[%d]", space.ErrNotProbability, i)
		}
	}
	for i, p := range cycle {
		if p == nil {
			return Sequence[S]{}, fmt.Errorf("cycle[%d]: nil path", i)
		}
		if err := p.Validate(top); err != nil {
			return Sequence[S]{}, fmt.Errorf("cycle[%d] %s: %w", i, p, err)
		}
	}
	return Sequence[S]{
		head:  append([]space.Probability[S](nil), head...),
		cycle: append([]Path[S](nil), cycle...),
	}, nil
}

// MustNew is like New but panics on error.
func MustNew[S any](top space.Topology[S], head []space.Probability[S], cycle ...Path[S]) Sequence[S] {
	s, err := New(top, head, cycle...)
	if err != nil {
		panic(err)
	}
	return s
}

// At returns μₙ.
func (q Sequence[S]) At(n int) space.Measure[S] {
	if n < 0 {
		panic(fmt.Sprintf("measureseq: index %d < 0", n))
	}
	if n < len(q.head) {
		return q.head[n]
	}
	r := n - len(q.head)
	return q.cycle[r%len(q.cycle)].Term(r / len(q.cycle))
}

// Masses returns n -> μₙ(s).
func (q Sequence[S]) Masses(s S) (limit.Sequence, error) {
	head := make([]unit.Unit, len(q.head))
	for i, m := range q.head {
		head[i] = m.Mass(s)
	}
	branches := make([]limit.Branch, len(q.cycle))
	for i, p := range q.cycle {
		b, err := p.Branch(s)
		if err != nil {
			return limit.Sequence{}, fmt.Errorf("%s: %w", p, err)
		}
		branches[i] = b
	}
	return limit.New(head, branches...)
}

// Paths returns a copy of the tail paths.
func (q Sequence[S]) Paths() []Path[S] { return append([]Path[S](nil), q.cycle...) }

func (q Sequence[S]) String() string {
	var sb strings.Builder
	if len(q.head) > 0 {
		names := make([]string, len(q.head))
		for i, m := range q.head {
			names[i] = m.Name()
		}
		sb.WriteString("[" + strings.Join(names, ", ") + "] then ")
	}
	paths := make([]string, len(q.cycle))
	for i, p := range q.cycle {
		paths[i] = p.String()
	}
	sb.WriteString("cycle(" + strings.Join(paths, ", ") + ")")
	return sb.String()
}
