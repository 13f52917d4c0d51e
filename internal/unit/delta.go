package unit

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"
)

// Delta is a signed difference of two Units, so it lies in [-1,1].
//
// Delta only exists as a transient intermediate: the tail of a sequence is
// described as limit + gap/(k+1), and Shift folds the gap back into a Unit.
type Delta struct {
	d *apd.Decimal
}

// Diff returns a - b.
func Diff(a, b Unit) Delta {
	var d apd.Decimal
	if _, err := arith.Sub(&d, a.dec(), b.dec()); err != nil {
		panic(fmt.Sprintf("unit: diff %s - %s: %v", a, b, err))
	}
	return Delta{d: reduce(&d)}
}

// ParseDelta reads a signed decimal literal in [-1,1] with at most
// Precision fractional digits.
func ParseDelta(s string) (Delta, error) {
	d, err := parseExact(s)
	if err != nil {
		return Delta{}, err
	}
	var abs apd.Decimal
	abs.Abs(d)
	if abs.Cmp(decOne) > 0 {
		return Delta{}, fmt.Errorf("%w: |%s| > 1", ErrOutOfRange, s)
	}
	return Delta{d: reduce(d)}, nil
}

// MustParseDelta is like ParseDelta but panics on error.
func MustParseDelta(s string) Delta {
	d, err := ParseDelta(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Delta) dec() *apd.Decimal {
	if d.d == nil {
		return decZero
	}
	return d.d
}

// Decimal returns a copy of the underlying decimal.
func (d Delta) Decimal() *apd.Decimal {
	return new(apd.Decimal).Set(d.dec())
}

// Sign returns -1, 0 or +1.
func (d Delta) Sign() int { return d.dec().Sign() }

// IsZero reports whether d == 0.
func (d Delta) IsZero() bool { return d.Sign() == 0 }

// Neg returns -d.
func (d Delta) Neg() Delta {
	var n apd.Decimal
	n.Neg(d.dec())
	return Delta{d: reduce(&n)}
}

// Abs returns |d| as a Unit.
func (d Delta) Abs() Unit {
	var a apd.Decimal
	a.Abs(d.dec())
	return clamp(&a)
}

// String returns the canonical plain-decimal text.
func (d Delta) String() string { return d.dec().Text('f') }

// MarshalText implements encoding.TextMarshaler.
func (d Delta) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Delta) UnmarshalText(text []byte) error {
	v, err := ParseDelta(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Offset returns the exact sum u + d, or ErrOutOfRange.
func Offset(u Unit, d Delta) (Unit, error) {
	var s apd.Decimal
	if _, err := arith.Add(&s, u.dec(), d.dec()); err != nil {
		return Unit{}, fmt.Errorf("offset %s + %s: %w", u, d, err)
	}
	return fromDecimal(&s)
}

// Shift returns u + d/(k+1) re-bounded into [0,1].
//
// The division is rounded to Precision places, so for large k the result
// may equal u. Callers that need the exact position compare against
// d/(k+1) by cross-multiplying instead. A result that rounding pushes just
// past an end of the interval is clamped back onto it.
func Shift(u Unit, d Delta, k int) Unit {
	if k < 0 {
		panic(fmt.Sprintf("unit: shift index %d < 0", k))
	}
	if d.IsZero() {
		return u
	}
	var q, s apd.Decimal
	if _, err := arith.Quo(&q, d.dec(), apd.New(int64(k)+1, 0)); err != nil {
		panic(fmt.Sprintf("unit: %s/(%d+1): %v", d, k, err))
	}
	quantize(&q)
	if _, err := arith.Add(&s, u.dec(), &q); err != nil {
		panic(fmt.Sprintf("unit: %s + %s: %v", u, q.Text('f'), err))
	}
	return clamp(&s)
}
