package interval

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/portmanteau/internal/limit"
	"github.com/roach88/portmanteau/internal/unit"
)

func mustDrift(t *testing.T, x, d string) Drift {
	t.Helper()
	p, err := NewDrift(unit.MustParse(x), unit.MustParseDelta(d))
	require.NoError(t, err)
	return p
}

func TestDriftPoints(t *testing.T) {
	p := mustDrift(t, "0", "1")
	assert.Equal(t, "1", p.At(0).String())
	assert.Equal(t, "0.5", p.At(1).String())
	assert.Equal(t, "0.25", p.At(3).String())
	assert.Equal(t, "drift(0, 1)", p.String())

	_, err := NewDrift(unit.MustParse("0.9"), unit.MustParseDelta("0.5"))
	assert.ErrorIs(t, err, ErrSupport)
}

func TestDriftBranch(t *testing.T) {
	tests := []struct {
		name   string
		x, d   string
		set    string
		limit  string
		prefix []string
	}{
		{"open germ from right", "0", "1", "(0,0.5)", "1", []string{"0", "0"}},
		{"half open germ from right", "0", "1", "[0,0.5)", "1", []string{"0", "0"}},
		{"limit point only", "0", "1", "{0}", "0", nil},
		{"closed set ahead", "0", "1", "[0.5,1]", "0", []string{"1", "1"}},
		{"germ from left", "1", "-0.5", "[0.8,1)", "1", []string{"0", "0"}},
		{"nothing on the left", "0.5", "-0.25", "[0.5,1]", "0", nil},
		{"still point", "0.5", "0", "[0,0.5]", "1", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustDrift(t, tt.x, tt.d)
			b, err := p.Branch(MustParse(tt.set))
			require.NoError(t, err)
			assert.Equal(t, tt.limit, b.Limit().String())
			assert.True(t, b.Gap().IsZero())

			var prefix []string
			for _, v := range b.Prefix() {
				prefix = append(prefix, v.String())
			}
			assert.Equal(t, tt.prefix, prefix)
		})
	}
}

func TestDriftBranchMatchesTerms(t *testing.T) {
	paths := []Drift{
		mustDrift(t, "0", "1"),
		mustDrift(t, "1", "-0.5"),
		mustDrift(t, "0.3", "0.2"),
		mustDrift(t, "0.5", "1E-34"),
		mustDrift(t, "0.5", "-1E-34"),
	}
	sets := []string{"(0,0.5)", "{0}", "[0.5,1]", "(0.5,1]", "[0.8,1)", "(0.3,0.35] u [0.4,0.45)", "all"}

	for _, p := range paths {
		for _, in := range sets {
			s := MustParse(in)
			b, err := p.Branch(s)
			require.NoError(t, err)
			for k := 0; k < 40; k++ {
				want := p.Term(k).Mass(s)
				assert.True(t, want.Equal(b.At(k)), "%s on %s at k=%d: term %s branch %s", p, in, k, want, b.At(k))
			}
		}
	}
}

func TestDriftTermBelowLastPlace(t *testing.T) {
	p := mustDrift(t, "0.5", "1E-34")
	above := MustParse("(0.5,1]")
	b, err := p.Branch(above)
	require.NoError(t, err)

	for k := 0; k < 3; k++ {
		assert.True(t, p.Term(k).Mass(above).IsOne(), "k=%d", k)
		assert.True(t, b.At(k).IsOne(), "k=%d", k)
		assert.True(t, p.Term(k).Mass(Point(p.Point)).IsZero(), "k=%d", k)
	}
	// The rounded position has already collapsed onto the limit point.
	assert.True(t, p.At(2).Equal(p.Point))
	assert.Equal(t, "dirac(0.5+0.0000000000000000000000000000000001/3)", p.Term(2).(fmt.Stringer).String())
}

func TestDriftConvergesOnlyOffFrontier(t *testing.T) {
	p := mustDrift(t, "0", "1")
	limitMass := p.Limit()

	// {0} has the limit point on its frontier: masses stay 0, limit mass is 1.
	point := MustParse("{0}")
	b, err := p.Branch(point)
	require.NoError(t, err)
	seq := limit.MustNew(nil, b)
	assert.True(t, limit.Limsup(seq).IsZero())
	assert.True(t, limitMass.Mass(point).IsOne())

	// [0,0.5) keeps 0 in its interior, so the masses converge to the limit.
	cont := MustParse("[0,0.5)")
	b, err = p.Branch(cont)
	require.NoError(t, err)
	got, ok := limit.Converges(limit.MustNew(nil, b))
	require.True(t, ok)
	assert.True(t, got.Equal(limitMass.Mass(cont)))
}

func TestDriftTooSlow(t *testing.T) {
	p := mustDrift(t, "0", "1")
	_, err := p.Branch(MustParse("(0,0.0000000001)"))
	assert.ErrorIs(t, err, ErrDriftTooSlow)
}
