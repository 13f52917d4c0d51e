package limit

import (
	"math"

	"github.com/roach88/portmanteau/internal/unit"
)

// tightenWindow bounds how far a threshold is walked back towards 0 by
// direct evaluation after the closed-form bound has been found.
const tightenWindow = 4096

// EventuallyAtLeast reports whether there is an n0 with f(n) >= b for all
// n >= n0, and returns such an n0.
func EventuallyAtLeast(f Sequence, b unit.Unit) (int, bool) {
	al := align(f)
	floor := constLane(b)
	n0, ok := eventually(al, func(r int) (int, bool) {
		return laneBelow(floor, al.lanes[0][r])
	})
	if !ok {
		return 0, false
	}
	floorFrac := unitFrac(b)
	return tighten(n0, func(n int) bool { return floorFrac.cmp(f.exact(n)) <= 0 }), true
}

// EventuallyAtMost reports whether there is an n0 with f(n) <= b for all
// n >= n0, and returns such an n0.
func EventuallyAtMost(f Sequence, b unit.Unit) (int, bool) {
	al := align(f)
	ceiling := constLane(b)
	n0, ok := eventually(al, func(r int) (int, bool) {
		return laneBelow(al.lanes[0][r], ceiling)
	})
	if !ok {
		return 0, false
	}
	ceilFrac := unitFrac(b)
	return tighten(n0, func(n int) bool { return f.exact(n).cmp(ceilFrac) <= 0 }), true
}

// EventuallyBelow reports whether there is an n0 with g(n) <= f(n) for all
// n >= n0, and returns such an n0.
func EventuallyBelow(g, f Sequence) (int, bool) {
	al := align(g, f)
	n0, ok := eventually(al, func(r int) (int, bool) {
		return laneBelow(al.lanes[0][r], al.lanes[1][r])
	})
	if !ok {
		return 0, false
	}
	return tighten(n0, func(n int) bool { return g.exact(n).cmp(f.exact(n)) <= 0 }), true
}

// eventually combines the per-lane thresholds into one sequence index.
func eventually(al alignment, lanePred func(r int) (int, bool)) (int, bool) {
	j0 := 0
	for r := 0; r < al.period; r++ {
		j, ok := lanePred(r)
		if !ok {
			return 0, false
		}
		j0 = max(j0, j)
	}
	return al.index(j0), true
}

// tighten walks n0 down while holds(n0-1), at most tightenWindow steps.
// holds must compare exact terms, not the rounded values At returns: every
// index from the result up to the closed-form bound was checked directly.
func tighten(n0 int, holds func(n int) bool) int {
	if n0 == math.MaxInt {
		return n0
	}
	for steps := 0; n0 > 0 && steps < tightenWindow; steps++ {
		if !holds(n0 - 1) {
			break
		}
		n0--
	}
	return n0
}
