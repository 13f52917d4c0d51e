// Package interval is the concrete space portmanteau ships with: the closed
// unit interval [0,1] with its subspace topology, sets that are finite
// unions of intervals, and the measures and paths used by scenarios.
//
// A Set is always canonical: its intervals are sorted, non-empty, pairwise
// disjoint and never touching, so two sets are equal exactly when their
// interval lists are.
package interval

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/portmanteau/internal/unit"
)

// ErrSyntax is returned when a set literal cannot be parsed.
var ErrSyntax = errors.New("invalid set literal")

// Interval is a connected piece of a Set. A point is [x,x].
type Interval struct {
	Lo       unit.Unit
	Hi       unit.Unit
	LoClosed bool
	HiClosed bool
}

func (iv Interval) empty() bool {
	switch iv.Lo.Cmp(iv.Hi) {
	case 1:
		return true
	case 0:
		return !(iv.LoClosed && iv.HiClosed)
	}
	return false
}

// Contains reports whether x lies in the interval.
func (iv Interval) Contains(x unit.Unit) bool {
	lo := iv.Lo.Cmp(x)
	hi := x.Cmp(iv.Hi)
	return (lo < 0 || (lo == 0 && iv.LoClosed)) && (hi < 0 || (hi == 0 && iv.HiClosed))
}

// Length returns Hi - Lo.
func (iv Interval) Length() unit.Unit { return unit.SubTrunc(iv.Hi, iv.Lo) }

func (iv Interval) equal(o Interval) bool {
	return iv.Lo.Equal(o.Lo) && iv.Hi.Equal(o.Hi) &&
		iv.LoClosed == o.LoClosed && iv.HiClosed == o.HiClosed
}

func (iv Interval) String() string {
	if iv.Lo.Equal(iv.Hi) {
		return "{" + iv.Lo.String() + "}"
	}
	left, right := "(", ")"
	if iv.LoClosed {
		left = "["
	}
	if iv.HiClosed {
		right = "]"
	}
	return left + iv.Lo.String() + "," + iv.Hi.String() + right
}

// Set is a finite union of intervals inside [0,1].
// The zero value is the empty set.
type Set struct {
	parts []Interval
}

// NewSet returns the canonical union of the given intervals.
func NewSet(parts ...Interval) Set {
	live := make([]Interval, 0, len(parts))
	for _, p := range parts {
		if !p.empty() {
			live = append(live, p)
		}
	}
	if len(live) == 0 {
		return Set{}
	}
	slices.SortFunc(live, func(a, b Interval) int {
		if c := a.Lo.Cmp(b.Lo); c != 0 {
			return c
		}
		// closed lower end first, so merging keeps it
		switch {
		case a.LoClosed == b.LoClosed:
			return 0
		case a.LoClosed:
			return -1
		}
		return 1
	})

	merged := []Interval{live[0]}
	for _, p := range live[1:] {
		cur := &merged[len(merged)-1]
		c := p.Lo.Cmp(cur.Hi)
		if c > 0 || (c == 0 && !cur.HiClosed && !p.LoClosed) {
			merged = append(merged, p)
			continue
		}
		switch p.Hi.Cmp(cur.Hi) {
		case 1:
			cur.Hi, cur.HiClosed = p.Hi, p.HiClosed
		case 0:
			cur.HiClosed = cur.HiClosed || p.HiClosed
		}
	}
	return Set{parts: merged}
}

// Closed returns [a,b].
func Closed(a, b unit.Unit) Set { return NewSet(Interval{a, b, true, true}) }

// Open returns (a,b).
func Open(a, b unit.Unit) Set { return NewSet(Interval{a, b, false, false}) }

// ClosedOpen returns [a,b).
func ClosedOpen(a, b unit.Unit) Set { return NewSet(Interval{a, b, true, false}) }

// OpenClosed returns (a,b].
func OpenClosed(a, b unit.Unit) Set { return NewSet(Interval{a, b, false, true}) }

// Point returns {x}.
func Point(x unit.Unit) Set { return Closed(x, x) }

// All returns [0,1].
func All() Set { return Closed(unit.Zero(), unit.One()) }

// Union returns the union of the given sets.
func Union(sets ...Set) Set {
	var parts []Interval
	for _, s := range sets {
		parts = append(parts, s.parts...)
	}
	return NewSet(parts...)
}

// Intersect returns a ∩ b.
func Intersect(a, b Set) Set {
	return Union(a.Complement(), b.Complement()).Complement()
}

// Parts returns a copy of the canonical intervals.
func (s Set) Parts() []Interval { return append([]Interval(nil), s.parts...) }

// IsEmpty reports whether s has no points.
func (s Set) IsEmpty() bool { return len(s.parts) == 0 }

// Contains reports whether x ∈ s.
func (s Set) Contains(x unit.Unit) bool {
	for _, p := range s.parts {
		if p.Contains(x) {
			return true
		}
	}
	return false
}

// Equal reports whether s and o contain the same points.
func (s Set) Equal(o Set) bool {
	return slices.EqualFunc(s.parts, o.parts, Interval.equal)
}

// Complement returns [0,1] \ s.
func (s Set) Complement() Set {
	out := make([]Interval, 0, len(s.parts)+1)
	lo, loClosed := unit.Zero(), true
	for _, p := range s.parts {
		out = append(out, Interval{Lo: lo, Hi: p.Lo, LoClosed: loClosed, HiClosed: !p.LoClosed})
		lo, loClosed = p.Hi, !p.HiClosed
	}
	out = append(out, Interval{Lo: lo, Hi: unit.One(), LoClosed: loClosed, HiClosed: true})
	return NewSet(out...)
}

// Interior returns the interior of s relative to [0,1]: endpoints at 0 and 1
// stay closed, every other endpoint opens and isolated points vanish.
func (s Set) Interior() Set {
	out := make([]Interval, len(s.parts))
	for i, p := range s.parts {
		if !p.Lo.IsZero() {
			p.LoClosed = false
		}
		if !p.Hi.IsOne() {
			p.HiClosed = false
		}
		out[i] = p
	}
	return NewSet(out...)
}

// Closure closes every endpoint.
func (s Set) Closure() Set {
	out := make([]Interval, len(s.parts))
	for i, p := range s.parts {
		p.LoClosed, p.HiClosed = true, true
		out[i] = p
	}
	return NewSet(out...)
}

// Frontier returns closure minus interior.
func (s Set) Frontier() Set {
	return Intersect(s.Closure(), s.Interior().Complement())
}

// Length returns the total Lebesgue measure of s.
func (s Set) Length() unit.Unit {
	lengths := make([]unit.Unit, len(s.parts))
	for i, p := range s.parts {
		lengths[i] = p.Length()
	}
	total, err := unit.Sum(lengths...)
	if err != nil {
		panic(fmt.Sprintf("interval: disjoint parts of [0,1] longer than 1: %v", err))
	}
	return total
}

func (s Set) String() string {
	if len(s.parts) == 0 {
		return "empty"
	}
	parts := make([]string, len(s.parts))
	for i, p := range s.parts {
		parts[i] = p.String()
	}
	return strings.Join(parts, " u ")
}

// MarshalText implements encoding.TextMarshaler.
func (s Set) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Set) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Parse reads a set literal: intervals "[a,b]", "(a,b)", "[a,b)", "(a,b]",
// points "{x}", the words "empty" and "all", joined by "u" or "∪". Any
// piece may be a word, so "all u {0.5}" is [0,1] and "empty u (0,1)" is
// (0,1).
func Parse(text string) (Set, error) {
	text = strings.TrimSpace(strings.ReplaceAll(text, "∪", "u"))
	if text == "" {
		return Set{}, nil
	}
	var parts []Interval
	for _, piece := range strings.Split(text, "u") {
		switch piece = strings.TrimSpace(piece); piece {
		case "empty", "∅":
			continue
		case "all":
			parts = append(parts, All().parts...)
			continue
		}
		iv, err := parseInterval(piece)
		if err != nil {
			return Set{}, fmt.Errorf("%w: %q: %w", ErrSyntax, text, err)
		}
		parts = append(parts, iv)
	}
	return NewSet(parts...), nil
}

// MustParse is like Parse but panics on error.
func MustParse(text string) Set {
	s, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return s
}

func parseInterval(piece string) (Interval, error) {
	if len(piece) < 3 {
		return Interval{}, fmt.Errorf("piece %q too short", piece)
	}
	if piece[0] == '{' && piece[len(piece)-1] == '}' {
		x, err := unit.Parse(strings.TrimSpace(piece[1 : len(piece)-1]))
		if err != nil {
			return Interval{}, err
		}
		return Interval{Lo: x, Hi: x, LoClosed: true, HiClosed: true}, nil
	}

	var iv Interval
	switch piece[0] {
	case '[':
		iv.LoClosed = true
	case '(':
	default:
		return Interval{}, fmt.Errorf("piece %q must start with [ ( or {", piece)
	}
	switch piece[len(piece)-1] {
	case ']':
		iv.HiClosed = true
	case ')':
	default:
		return Interval{}, fmt.Errorf("piece %q must end with ] ) or }", piece)
	}

	lo, hi, ok := strings.Cut(piece[1:len(piece)-1], ",")
	if !ok {
		return Interval{}, fmt.Errorf("piece %q needs two endpoints", piece)
	}
	var err error
	if iv.Lo, err = unit.Parse(strings.TrimSpace(lo)); err != nil {
		return Interval{}, err
	}
	if iv.Hi, err = unit.Parse(strings.TrimSpace(hi)); err != nil {
		return Interval{}, err
	}
	if iv.Hi.Less(iv.Lo) {
		return Interval{}, fmt.Errorf("piece %q has lower end above upper end", piece)
	}
	return iv, nil
}
