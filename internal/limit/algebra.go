package limit

import (
	"math"

	"github.com/cockroachdb/apd/v3"

	"github.com/roach88/portmanteau/internal/unit"
)

// wide holds products of 34-digit units and int indices without rounding.
var wide = apd.BaseContext.WithPrecision(96)

var wideOne = apd.New(1, 0)

func intDec(n int) *apd.Decimal { return apd.New(int64(n), 0) }

func mustOp(_ apd.Condition, err error) {
	if err != nil {
		panic("limit: decimal arithmetic: " + err.Error())
	}
}

func sub(x, y *apd.Decimal) *apd.Decimal {
	d := new(apd.Decimal)
	mustOp(wide.Sub(d, x, y))
	return d
}

func add(x, y *apd.Decimal) *apd.Decimal {
	d := new(apd.Decimal)
	mustOp(wide.Add(d, x, y))
	return d
}

func mul(x, y *apd.Decimal) *apd.Decimal {
	d := new(apd.Decimal)
	mustOp(wide.Mul(d, x, y))
	return d
}

func abs(x *apd.Decimal) *apd.Decimal { return new(apd.Decimal).Abs(x) }

// ceilQuo returns ceil(num/den) for num >= 0, den > 0, saturating at
// math.MaxInt.
func ceilQuo(num, den *apd.Decimal) int {
	q := new(apd.Decimal)
	mustOp(wide.Quo(q, num, den))
	c := new(apd.Decimal)
	mustOp(wide.Ceil(c, q))
	n, err := c.Int64()
	if err != nil {
		return math.MaxInt
	}
	return int(n)
}

// frac is the exact value num/den of a sequence term, den > 0. At rounds
// limit + gap/(k+1) to unit.Precision places; frac keeps it rational.
type frac struct {
	num, den *apd.Decimal
}

func unitFrac(u unit.Unit) frac { return frac{num: u.Decimal(), den: wideOne} }

func (x frac) cmp(y frac) int { return mul(x.num, y.den).Cmp(mul(y.num, x.den)) }

func (b Branch) exact(k int) frac {
	if k < len(b.prefix) {
		return unitFrac(b.prefix[k])
	}
	den := intDec(k + 1)
	return frac{num: add(mul(b.limit.Decimal(), den), b.gap.Decimal()), den: den}
}

func (s Sequence) exact(n int) frac {
	if n < len(s.head) {
		return unitFrac(s.head[n])
	}
	m := n - len(s.head)
	return s.cycle[m%len(s.cycle)].exact(m / len(s.cycle))
}

// tailInRange reports whether limit + gap/(k+1) lies in [0,1] at k.
//
// For gap > 0 the bound is gap <= (1-limit)(k+1); for gap < 0 it is
// |gap| <= limit(k+1).
func tailInRange(limit unit.Unit, gap unit.Delta, k int) bool {
	g := gap.Decimal()
	room := limit.Decimal()
	switch gap.Sign() {
	case 0:
		return true
	case 1:
		room = sub(wideOne, room)
	}
	return abs(g).Cmp(mul(room, intDec(k+1))) <= 0
}

// lane is the subsequence j -> branch.At(offset + stride*j).
type lane struct {
	branch Branch
	offset int
	stride int
}

func constLane(c unit.Unit) lane {
	return lane{branch: Constant(c), stride: 1}
}

// settle is the first j whose term is in closed form.
func (l lane) settle() int {
	p := len(l.branch.prefix)
	if l.offset >= p {
		return 0
	}
	return (p - l.offset + l.stride - 1) / l.stride
}

// laneBelow decides whether eventually lo_j <= hi_j and returns a j0 past
// which it holds.
//
// With lo_j = Ll + Gl/(al + cl*j + 1) and hi_j likewise:
//   - Ll > Lh: never.
//   - Ll < Lh: both corrections shrink below δ = Lh-Ll once
//     (|Gl|+|Gh|)/(min(cl,ch)*j) <= δ.
//   - Ll = Lh: cross-multiplying the positive denominators reduces the
//     comparison to A*j + B <= 0 with A = Gl*ch - Gh*cl and
//     B = Gl*(ah+1) - Gh*(al+1).
func laneBelow(lo, hi lane) (int, bool) {
	j0 := max(lo.settle(), hi.settle())

	ll, lh := lo.branch.limit, hi.branch.limit
	gl, gh := lo.branch.gap.Decimal(), hi.branch.gap.Decimal()

	switch ll.Cmp(lh) {
	case 1:
		return 0, false
	case -1:
		spread := add(abs(gl), abs(gh))
		if spread.IsZero() {
			return j0, true
		}
		delta := sub(lh.Decimal(), ll.Decimal())
		need := ceilQuo(spread, mul(delta, intDec(min(lo.stride, hi.stride))))
		return max(j0, need), true
	}

	a := sub(mul(gl, intDec(hi.stride)), mul(gh, intDec(lo.stride)))
	b := sub(mul(gl, intDec(hi.offset+1)), mul(gh, intDec(lo.offset+1)))

	switch a.Sign() {
	case 1:
		return 0, false
	case 0:
		if b.Sign() > 0 {
			return 0, false
		}
		return j0, true
	}
	if b.Sign() <= 0 {
		return j0, true
	}
	negA := new(apd.Decimal).Neg(a)
	need := ceilQuo(b, negA)
	for need < math.MaxInt && add(mul(a, intDec(need)), b).Sign() > 0 {
		need++
	}
	return max(j0, need), true
}

// alignment lays several sequences onto common lanes: index
// n = base + period*j + r reads lanes[s][r] at j for every sequence s.
type alignment struct {
	base   int
	period int
	lanes  [][]lane
}

func align(seqs ...Sequence) alignment {
	al := alignment{period: 1}
	for _, s := range seqs {
		al.base = max(al.base, len(s.head))
		al.period = lcm(al.period, len(s.cycle))
	}
	al.lanes = make([][]lane, len(seqs))
	for i, s := range seqs {
		c := len(s.cycle)
		ls := make([]lane, al.period)
		for r := range ls {
			m := al.base - len(s.head) + r
			ls[r] = lane{
				branch: s.cycle[m%c],
				offset: m / c,
				stride: al.period / c,
			}
		}
		al.lanes[i] = ls
	}
	return al
}

// index converts a lane position back to a sequence index, saturating.
func (al alignment) index(j int) int {
	if j > (math.MaxInt-al.base)/al.period-1 {
		return math.MaxInt
	}
	return al.base + al.period*j
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b int) int { return a / gcd(a, b) * b }
