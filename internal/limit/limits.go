package limit

import (
	"errors"
	"fmt"

	"github.com/roach88/portmanteau/internal/unit"
)

// ErrNotDominated is returned when g(n) <= f(n) fails infinitely often.
var ErrNotDominated = errors.New("sequence is not eventually dominated")

// Liminf returns sup{b : eventually f(n) >= b}.
//
// Every branch converges, so the eventual infimum is the least branch limit.
func Liminf(f Sequence) unit.Unit {
	lo := f.cycle[0].limit
	for _, b := range f.cycle[1:] {
		lo = unit.Min(lo, b.limit)
	}
	return lo
}

// Limsup returns inf{b : eventually f(n) <= b}.
func Limsup(f Sequence) unit.Unit {
	hi := f.cycle[0].limit
	for _, b := range f.cycle[1:] {
		hi = unit.Max(hi, b.limit)
	}
	return hi
}

// Converges returns the limit of f when liminf f = limsup f.
func Converges(f Sequence) (unit.Unit, bool) {
	lo, hi := Liminf(f), Limsup(f)
	if !lo.Equal(hi) {
		return unit.Unit{}, false
	}
	return lo, true
}

// LiminfOfComplement returns liminf(1 - f) by duality: 1 - limsup f.
func LiminfOfComplement(f Sequence) unit.Unit {
	return unit.SubTrunc(unit.One(), Limsup(f))
}

// LimsupOfComplement returns limsup(1 - f) by duality: 1 - liminf f.
func LimsupOfComplement(f Sequence) unit.Unit {
	return unit.SubTrunc(unit.One(), Liminf(f))
}

// Dominance witnesses Lower(n) <= Upper(n) for every n >= From.
type Dominance struct {
	Lower Sequence
	Upper Sequence
	From  int
}

// Dominate builds the witness that lower is eventually below upper.
func Dominate(lower, upper Sequence) (Dominance, error) {
	n0, ok := EventuallyBelow(lower, upper)
	if !ok {
		return Dominance{}, fmt.Errorf("%w: %s vs %s", ErrNotDominated, lower, upper)
	}
	return Dominance{Lower: lower, Upper: upper, From: n0}, nil
}

// Liminf transports the bound through liminf: the first value never
// exceeds the second.
func (d Dominance) Liminf() (lower, upper unit.Unit) {
	return Liminf(d.Lower), Liminf(d.Upper)
}

// Limsup transports the bound through limsup: the first value never
// exceeds the second.
func (d Dominance) Limsup() (lower, upper unit.Unit) {
	return Limsup(d.Lower), Limsup(d.Upper)
}
