package interval

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/apd/v3"

	"github.com/roach88/portmanteau/internal/limit"
	"github.com/roach88/portmanteau/internal/measureseq"
	"github.com/roach88/portmanteau/internal/space"
	"github.com/roach88/portmanteau/internal/unit"
)

// MaxDriftPrefix bounds how many explicit terms a Drift branch may need
// before its membership settles.
const MaxDriftPrefix = 1 << 16

// ErrDriftTooSlow is returned when a moving point needs more than
// MaxDriftPrefix steps to settle relative to a set.
var ErrDriftTooSlow = errors.New("drift settles too slowly")

// exact holds (Point - e)*(k+1) + Offset and dist/reach without rounding.
var exact = apd.BaseContext.WithPrecision(3 * unit.Precision)

var (
	_ measureseq.Path[Set] = Drift{}
	_ space.Measure[Set]   = driftTerm{}
)

// Drift is the path of point masses at x_k = Point + Offset/(k+1). It
// converges weakly to the point mass at Point but not setwise on sets
// whose frontier contains Point.
type Drift struct {
	Point  unit.Unit
	Offset unit.Delta
}

// NewDrift requires the starting point Point+Offset to lie in [0,1]; every
// later x_k lies between it and Point.
func NewDrift(x unit.Unit, d unit.Delta) (Drift, error) {
	if _, err := unit.Offset(x, d); err != nil {
		return Drift{}, fmt.Errorf("%w: drift start %s + %s: %v", ErrSupport, x, d, err)
	}
	return Drift{Point: x, Offset: d}, nil
}

// At returns x_k rounded to unit.Precision places. Once Offset/(k+1) drops
// below the last place this is Point itself; membership tests use the
// exact position instead.
func (p Drift) At(k int) unit.Unit { return unit.Shift(p.Point, p.Offset, k) }

// Term is the point mass at the exact x_k.
func (p Drift) Term(k int) space.Measure[Set] { return driftTerm{path: p, k: k} }

func (p Drift) Limit() space.Measure[Set] { return Dirac{X: p.Point} }

func (p Drift) Validate(space.Topology[Set]) error {
	_, err := NewDrift(p.Point, p.Offset)
	return err
}

func (p Drift) String() string {
	return "drift(" + p.Point.String() + ", " + p.Offset.String() + ")"
}

// Branch decides k -> [x_k ∈ s] from the one-sided germ of s at Point:
// the points approach from the side Offset points to, so eventual
// membership depends only on whether s contains an interval ending at
// Point on that side. The prefix covers the terms that have not yet
// crossed into or out of that interval.
func (p Drift) Branch(s Set) (limit.Branch, error) {
	if p.Offset.IsZero() {
		return limit.Constant(indicator(s.Contains(p.Point))), nil
	}

	inside, reach, ok := p.germ(s)
	if !ok {
		return limit.Constant(unit.Zero()), nil
	}
	k0, err := settle(p.Offset.Abs(), reach)
	if err != nil {
		return limit.Branch{}, fmt.Errorf("%s on %s: %w", p, s, err)
	}
	prefix := make([]unit.Unit, k0)
	for k := range prefix {
		prefix[k] = indicator(p.contains(s, k))
	}
	return limit.NewBranch(prefix, indicator(inside), unit.Delta{})
}

// germ reports whether points just beside Point on the approach side are
// in s, and how far that stretch reaches. ok is false when no part of s
// lies on that side at all.
func (p Drift) germ(s Set) (inside bool, reach unit.Unit, ok bool) {
	x := p.Point
	if p.Offset.Sign() > 0 {
		for _, part := range s.parts {
			if part.Lo.LessEq(x) && x.Less(part.Hi) {
				return true, unit.SubTrunc(part.Hi, x), true
			}
			if x.Less(part.Lo) {
				return false, unit.SubTrunc(part.Lo, x), true
			}
		}
		return false, unit.Unit{}, false
	}
	for i := len(s.parts) - 1; i >= 0; i-- {
		part := s.parts[i]
		if part.Lo.Less(x) && x.LessEq(part.Hi) {
			return true, unit.SubTrunc(x, part.Lo), true
		}
		if part.Hi.Less(x) {
			return false, unit.SubTrunc(x, part.Hi), true
		}
	}
	return false, unit.Unit{}, false
}

// cmpAt compares the exact x_k with e: the sign of
// (Point - e)(k+1) + Offset, which is x_k - e scaled by k+1 > 0.
func (p Drift) cmpAt(k int, e unit.Unit) int {
	var diff, scaled, sum apd.Decimal
	mustExact(exact.Sub(&diff, p.Point.Decimal(), e.Decimal()))
	mustExact(exact.Mul(&scaled, &diff, apd.New(int64(k)+1, 0)))
	mustExact(exact.Add(&sum, &scaled, p.Offset.Decimal()))
	return sum.Sign()
}

// contains reports whether the exact x_k lies in s.
func (p Drift) contains(s Set, k int) bool {
	for _, part := range s.parts {
		lo, hi := p.cmpAt(k, part.Lo), p.cmpAt(k, part.Hi)
		if (lo > 0 || (lo == 0 && part.LoClosed)) && (hi < 0 || (hi == 0 && part.HiClosed)) {
			return true
		}
	}
	return false
}

func mustExact(_ apd.Condition, err error) {
	if err != nil {
		panic("interval: drift arithmetic: " + err.Error())
	}
}

// driftTerm is δ at Point + Offset/(k+1), a point that need not be a
// multiple of 10^-unit.Precision.
type driftTerm struct {
	path Drift
	k    int
}

func (t driftTerm) Mass(s Set) unit.Unit { return indicator(t.path.contains(s, t.k)) }

func (t driftTerm) String() string {
	if t.path.Offset.IsZero() {
		return "dirac(" + t.path.Point.String() + ")"
	}
	sign := "+"
	if t.path.Offset.Sign() < 0 {
		sign = ""
	}
	return fmt.Sprintf("dirac(%s%s%s/%d)", t.path.Point, sign, t.path.Offset, t.k+1)
}

// settle returns floor(dist/reach): for k at or past it, dist/(k+1) < reach.
func settle(dist, reach unit.Unit) (int, error) {
	var q apd.Decimal
	if _, err := exact.QuoInteger(&q, dist.Decimal(), reach.Decimal()); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDriftTooSlow, err)
	}
	n, err := q.Int64()
	if err != nil || n > MaxDriftPrefix {
		return 0, fmt.Errorf("%w: %s steps", ErrDriftTooSlow, q.Text('f'))
	}
	return int(n), nil
}

func indicator(in bool) unit.Unit {
	if in {
		return unit.One()
	}
	return unit.Zero()
}
