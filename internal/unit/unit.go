// Package unit provides exact arithmetic over the closed unit interval [0,1].
//
// Every mass, liminf and limsup handled by portmanteau is a Unit. The type
// carries no infinite element: One() is an ordinary finite value, so the
// cancellation laws used by the criteria derivations hold without side
// conditions.
//
// Key design constraints:
//   - NO float types - values are apd decimals fixed at 34 fractional digits
//   - Sums and differences never round, so 1 - (1 - x) = x for every Unit
//   - A Unit is immutable once constructed; every operation returns a new value
//   - Values are reduced (no trailing zeros) so String() is canonical
//   - Signed intermediates live in Delta and are re-bounded before they
//     become a Unit again
package unit

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/apd/v3"
)

// Precision is the number of fractional decimal digits a Unit carries.
// Every Unit is a multiple of 10^-Precision. Add, SubTrunc and Complement
// are exact; Mul, Quo, Ratio and Shift round half to even at the last place.
const Precision = 34

// ErrOutOfRange is returned when a value falls outside [0,1].
var ErrOutOfRange = errors.New("value outside [0,1]")

// ErrMalformed is returned when text cannot be parsed as a decimal.
var ErrMalformed = errors.New("malformed decimal")

// ErrPrecision is returned for literals finer than 10^-Precision.
var ErrPrecision = fmt.Errorf("decimal has more than %d fractional digits", Precision)

// arith holds the product of two Units without rounding.
var arith = func() *apd.Context {
	c := apd.BaseContext.WithPrecision(2*Precision + 4)
	c.Rounding = apd.RoundHalfEven
	return c
}()

var (
	decZero = apd.New(0, 0)
	decOne  = apd.New(1, 0)
)

// Unit is a value in the closed interval [0,1].
// The zero value is 0.
type Unit struct {
	d *apd.Decimal
}

// Zero returns 0.
func Zero() Unit { return Unit{} }

// One returns 1. It is finite: there is no top sentinel in this type.
func One() Unit { return Unit{d: decOne} }

// Parse reads a decimal literal such as "0.25" or "1". Literals with more
// than Precision fractional digits are rejected, not rounded.
func Parse(s string) (Unit, error) {
	d, err := parseExact(s)
	if err != nil {
		return Unit{}, err
	}
	return fromDecimal(d)
}

// parseExact reads a finite literal that is a multiple of 10^-Precision.
func parseExact(s string) (*apd.Decimal, error) {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	if d.Form != apd.Finite {
		return nil, fmt.Errorf("%w: %s", ErrOutOfRange, s)
	}
	var r apd.Decimal
	r.Reduce(d)
	if !r.IsZero() && r.Exponent < -Precision {
		return nil, fmt.Errorf("%w: %q", ErrPrecision, s)
	}
	return d, nil
}

// MustParse is like Parse but panics on error.
// Use only in tests or for literals known to be valid.
func MustParse(s string) Unit {
	u, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return u
}

// Ratio returns num/den rounded to Precision places.
func Ratio(num, den int64) (Unit, error) {
	if den == 0 {
		return Unit{}, fmt.Errorf("%w: zero denominator", ErrOutOfRange)
	}
	var q apd.Decimal
	if _, err := arith.Quo(&q, apd.New(num, 0), apd.New(den, 0)); err != nil {
		return Unit{}, fmt.Errorf("ratio %d/%d: %w", num, den, err)
	}
	return fromDecimal(quantize(&q))
}

// quantize rounds d in place to a multiple of 10^-Precision.
func quantize(d *apd.Decimal) *apd.Decimal {
	if _, err := arith.Quantize(d, d, -Precision); err != nil {
		panic(fmt.Sprintf("unit: quantize %s: %v", d.Text('f'), err))
	}
	return d
}

// fromDecimal validates the range and reduces the representation. d must
// already be a multiple of 10^-Precision.
func fromDecimal(d *apd.Decimal) (Unit, error) {
	if d.Form != apd.Finite {
		return Unit{}, fmt.Errorf("%w: %s", ErrOutOfRange, d.String())
	}
	if d.Cmp(decZero) < 0 || d.Cmp(decOne) > 0 {
		return Unit{}, fmt.Errorf("%w: %s", ErrOutOfRange, d.Text('f'))
	}
	return Unit{d: reduce(d)}, nil
}

// clamp re-bounds an intermediate into [0,1].
func clamp(d *apd.Decimal) Unit {
	switch {
	case d.Cmp(decZero) <= 0:
		return Unit{}
	case d.Cmp(decOne) >= 0:
		return One()
	}
	return Unit{d: reduce(d)}
}

func reduce(d *apd.Decimal) *apd.Decimal {
	r := new(apd.Decimal)
	r.Reduce(d)
	if r.IsZero() {
		return nil
	}
	return r
}

// dec returns the decimal view of u. The result must not be mutated.
func (u Unit) dec() *apd.Decimal {
	if u.d == nil {
		return decZero
	}
	return u.d
}

// Decimal returns a copy of the underlying decimal.
func (u Unit) Decimal() *apd.Decimal {
	return new(apd.Decimal).Set(u.dec())
}

// IsZero reports whether u == 0.
func (u Unit) IsZero() bool { return u.d == nil || u.d.IsZero() }

// IsOne reports whether u == 1.
func (u Unit) IsOne() bool { return u.dec().Cmp(decOne) == 0 }

// Cmp compares u and v and returns -1, 0 or +1.
func (u Unit) Cmp(v Unit) int { return u.dec().Cmp(v.dec()) }

// Equal reports whether u and v denote the same number.
func (u Unit) Equal(v Unit) bool { return u.Cmp(v) == 0 }

// Less reports u < v.
func (u Unit) Less(v Unit) bool { return u.Cmp(v) < 0 }

// LessEq reports u <= v.
func (u Unit) LessEq(v Unit) bool { return u.Cmp(v) <= 0 }

// String returns the canonical plain-decimal text ("0", "0.5", "1").
func (u Unit) String() string { return u.dec().Text('f') }

// MarshalText implements encoding.TextMarshaler.
func (u Unit) MarshalText() ([]byte, error) { return []byte(u.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *Unit) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*u = v
	return nil
}

// Complement returns 1 - u. Exact, since u has at most Precision places.
func (u Unit) Complement() Unit {
	var d apd.Decimal
	if _, err := arith.Sub(&d, decOne, u.dec()); err != nil {
		panic(fmt.Sprintf("unit: complement of %s: %v", u, err))
	}
	return clamp(&d)
}

// SubTrunc returns max(a-b, 0).
//
// SubTrunc(One(), SubTrunc(One(), x)) == x for every x.
func SubTrunc(a, b Unit) Unit {
	var d apd.Decimal
	if _, err := arith.Sub(&d, a.dec(), b.dec()); err != nil {
		panic(fmt.Sprintf("unit: %s - %s: %v", a, b, err))
	}
	return clamp(&d)
}

// Add returns a + b, or ErrOutOfRange when the sum exceeds 1.
func Add(a, b Unit) (Unit, error) {
	var d apd.Decimal
	if _, err := arith.Add(&d, a.dec(), b.dec()); err != nil {
		return Unit{}, fmt.Errorf("add %s + %s: %w", a, b, err)
	}
	return fromDecimal(&d)
}

// Sum adds all values, failing as soon as the running total exceeds 1.
func Sum(vals ...Unit) (Unit, error) {
	total := Zero()
	for _, v := range vals {
		var err error
		if total, err = Add(total, v); err != nil {
			return Unit{}, err
		}
	}
	return total, nil
}

// Mul returns a * b, rounded to Precision places.
func Mul(a, b Unit) Unit {
	var d apd.Decimal
	if _, err := arith.Mul(&d, a.dec(), b.dec()); err != nil {
		panic(fmt.Sprintf("unit: %s * %s: %v", a, b, err))
	}
	return clamp(quantize(&d))
}

// Min returns the smaller of a and b.
func Min(a, b Unit) Unit {
	if b.Less(a) {
		return b
	}
	return a
}

// Max returns the larger of a and b.
func Max(a, b Unit) Unit {
	if a.Less(b) {
		return b
	}
	return a
}

// Quo returns a/b for 0 <= a <= b, b > 0, rounded to Precision places.
func Quo(a, b Unit) (Unit, error) {
	if b.IsZero() {
		return Unit{}, fmt.Errorf("%w: division by zero", ErrOutOfRange)
	}
	var q apd.Decimal
	if _, err := arith.Quo(&q, a.dec(), b.dec()); err != nil {
		return Unit{}, fmt.Errorf("quo %s / %s: %w", a, b, err)
	}
	return fromDecimal(quantize(&q))
}
