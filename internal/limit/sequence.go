// Package limit computes liminf and limsup of [0,1]-valued sequences.
//
// A Sequence is a total function of the index, described by finite data: a
// head of arbitrary values followed by a cycle of Branches that interleave
// round-robin. Each Branch ends in the closed form
//
//	limit + gap/(k+1)
//
// so every tail question ("eventually f(n) >= b", "eventually g(n) <= f(n)")
// is decided exactly from the description, never by iterating terms. The
// class is closed under n -> 1 - f(n), which is what the liminf/limsup
// duality needs.
//
// The only filter used anywhere is the tail filter over the naturals; it is
// exposed as explicit threshold helpers (EventuallyAtLeast, EventuallyAtMost,
// EventuallyBelow) rather than a general filter abstraction.
package limit

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/portmanteau/internal/unit"
)

// ErrEmptyCycle is returned when a sequence has no tail branches.
var ErrEmptyCycle = errors.New("sequence cycle must have at least one branch")

// ErrBranchRange is returned when a branch tail leaves [0,1].
var ErrBranchRange = errors.New("branch tail leaves [0,1]")

// Branch is a scalar sequence k -> value: an explicit prefix, then
// limit + gap/(k+1) for every k >= len(prefix).
type Branch struct {
	prefix []unit.Unit
	limit  unit.Unit
	gap    unit.Delta
}

// Constant returns the branch that is c at every index.
func Constant(c unit.Unit) Branch {
	return Branch{limit: c}
}

// Approach returns the branch from, ..., converging monotonically to limit:
// term k is limit + (from - limit)/(k+1).
func Approach(limit, from unit.Unit) Branch {
	return Branch{limit: limit, gap: unit.Diff(from, limit)}
}

// NewBranch validates that the tail stays inside [0,1]. The tail is
// monotone, so checking its first term is enough.
func NewBranch(prefix []unit.Unit, limit unit.Unit, gap unit.Delta) (Branch, error) {
	b := Branch{prefix: append([]unit.Unit(nil), prefix...), limit: limit, gap: gap}
	if !tailInRange(limit, gap, len(prefix)) {
		return Branch{}, fmt.Errorf("%w: limit %s gap %s from k=%d", ErrBranchRange, limit, gap, len(prefix))
	}
	return b, nil
}

// At returns the k-th term.
func (b Branch) At(k int) unit.Unit {
	if k < len(b.prefix) {
		return b.prefix[k]
	}
	return unit.Shift(b.limit, b.gap, k)
}

// Limit returns the value the branch converges to.
func (b Branch) Limit() unit.Unit { return b.limit }

// Gap returns the signed numerator of the tail correction.
func (b Branch) Gap() unit.Delta { return b.gap }

// Prefix returns a copy of the explicit prefix.
func (b Branch) Prefix() []unit.Unit { return append([]unit.Unit(nil), b.prefix...) }

func (b Branch) complement() Branch {
	c := Branch{limit: b.limit.Complement(), gap: b.gap.Neg()}
	if len(b.prefix) > 0 {
		c.prefix = make([]unit.Unit, len(b.prefix))
		for i, v := range b.prefix {
			c.prefix[i] = v.Complement()
		}
	}
	return c
}

func (b Branch) String() string {
	var sb strings.Builder
	if len(b.prefix) > 0 {
		sb.WriteString(joinUnits(b.prefix))
		sb.WriteString(" then ")
	}
	if b.gap.IsZero() {
		sb.WriteString(b.limit.String())
	} else {
		sign := ""
		if b.gap.Sign() > 0 {
			sign = "+"
		}
		fmt.Fprintf(&sb, "%s%s%s/(k+1)", b.limit, sign, b.gap)
	}
	return sb.String()
}

// Sequence is n -> value. Indices below len(head) read the head; the
// remaining indices cycle through the branches, so with head length h and
// cycle length c, index n >= h reads cycle[(n-h)%c] at k = (n-h)/c.
type Sequence struct {
	head  []unit.Unit
	cycle []Branch
}

// New builds a sequence from a head and at least one tail branch.
func New(head []unit.Unit, cycle ...Branch) (Sequence, error) {
	if len(cycle) == 0 {
		return Sequence{}, ErrEmptyCycle
	}
	return Sequence{
		head:  append([]unit.Unit(nil), head...),
		cycle: append([]Branch(nil), cycle...),
	}, nil
}

// MustNew is like New but panics on error.
func MustNew(head []unit.Unit, cycle ...Branch) Sequence {
	s, err := New(head, cycle...)
	if err != nil {
		panic(err)
	}
	return s
}

// Const returns the constant sequence c.
func Const(c unit.Unit) Sequence {
	return Sequence{cycle: []Branch{Constant(c)}}
}

// Alternating returns even, odd, even, odd, ...
func Alternating(even, odd unit.Unit) Sequence {
	return Sequence{cycle: []Branch{Constant(even), Constant(odd)}}
}

// At returns the n-th term.
func (s Sequence) At(n int) unit.Unit {
	if n < 0 {
		panic(fmt.Sprintf("limit: negative index %d", n))
	}
	if n < len(s.head) {
		return s.head[n]
	}
	m := n - len(s.head)
	return s.cycle[m%len(s.cycle)].At(m / len(s.cycle))
}

// Head returns a copy of the head values.
func (s Sequence) Head() []unit.Unit { return append([]unit.Unit(nil), s.head...) }

// Cycle returns a copy of the tail branches.
func (s Sequence) Cycle() []Branch { return append([]Branch(nil), s.cycle...) }

// Complement returns n -> 1 - s(n).
func (s Sequence) Complement() Sequence {
	c := Sequence{cycle: make([]Branch, len(s.cycle))}
	if len(s.head) > 0 {
		c.head = make([]unit.Unit, len(s.head))
		for i, v := range s.head {
			c.head[i] = v.Complement()
		}
	}
	for i, b := range s.cycle {
		c.cycle[i] = b.complement()
	}
	return c
}

// Take returns the first n terms.
func (s Sequence) Take(n int) []unit.Unit {
	out := make([]unit.Unit, n)
	for i := range out {
		out[i] = s.At(i)
	}
	return out
}

func (s Sequence) String() string {
	parts := make([]string, len(s.cycle))
	for i, b := range s.cycle {
		parts[i] = b.String()
	}
	body := "cycle[" + strings.Join(parts, "; ") + "]"
	if len(s.head) == 0 {
		return body
	}
	return "head[" + joinUnits(s.head) + "] " + body
}

func joinUnits(vals []unit.Unit) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}
