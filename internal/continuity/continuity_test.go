package continuity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/portmanteau/internal/continuity"
	"github.com/roach88/portmanteau/internal/interval"
	"github.com/roach88/portmanteau/internal/space"
	"github.com/roach88/portmanteau/internal/unit"
)

var top = interval.Space{}

func TestUniformOpenIntervalIsContinuitySet(t *testing.T) {
	m := interval.Uniform{}
	s := interval.MustParse("(0,0.5)")

	assert.Equal(t, "{0} u {0.5}", top.Frontier(s).String())
	assert.True(t, continuity.IsContinuitySet[interval.Set](top, m, s))

	q, err := continuity.Analyze[interval.Set](top, m, s)
	require.NoError(t, err)
	assert.True(t, q.Continuity)
	assert.True(t, q.Collapsed())
	for _, v := range []unit.Unit{q.Interior, q.Set, q.Closure} {
		assert.Equal(t, "0.5", v.String())
	}

	v, err := continuity.InteriorEqualsClosure[interval.Set](top, m, s)
	require.NoError(t, err)
	assert.Equal(t, "0.5", v.String())

	v, err = continuity.EqualsInterior[interval.Set](top, m, s)
	require.NoError(t, err)
	assert.Equal(t, "0.5", v.String())

	v, err = continuity.EqualsClosure[interval.Set](top, m, s)
	require.NoError(t, err)
	assert.Equal(t, "0.5", v.String())
}

func TestDiracCounterexample(t *testing.T) {
	m := interval.Dirac{X: unit.MustParse("0.5")}
	s := interval.MustParse("[0,0.5]")

	assert.False(t, continuity.IsContinuitySet[interval.Set](top, m, s))

	q, err := continuity.Analyze[interval.Set](top, m, s)
	require.NoError(t, err)
	assert.False(t, q.Continuity)
	assert.True(t, q.Interior.IsZero())
	assert.True(t, q.Closure.IsOne())
	assert.True(t, q.Frontier.IsOne())
	assert.False(t, q.Collapsed())

	_, err = continuity.InteriorEqualsClosure[interval.Set](top, m, s)
	assert.ErrorIs(t, err, continuity.ErrNotContinuitySet)
	_, err = continuity.EqualsInterior[interval.Set](top, m, s)
	assert.ErrorIs(t, err, continuity.ErrNotContinuitySet)
	_, err = continuity.EqualsClosure[interval.Set](top, m, s)
	assert.ErrorIs(t, err, continuity.ErrNotContinuitySet)
}

func TestClopenAndEmptyFrontier(t *testing.T) {
	dirac := interval.Dirac{X: unit.MustParse("0.3")}
	for _, in := range []string{"all", "empty"} {
		t.Run(in, func(t *testing.T) {
			s := interval.MustParse(in)
			assert.True(t, continuity.IsContinuitySet[interval.Set](top, dirac, s))
			_, err := continuity.EqualsInterior[interval.Set](top, dirac, s)
			require.NoError(t, err)
		})
	}
}

func TestPredicateNeedsOnlyAMeasure(t *testing.T) {
	// Half of Lebesgue measure: not a probability, still has null frontiers.
	half := space.MeasureFunc[interval.Set](func(s interval.Set) unit.Unit {
		return unit.Mul(unit.MustParse("0.5"), s.Length())
	})
	s := interval.MustParse("[0.2,0.6)")
	assert.True(t, continuity.IsContinuitySet[interval.Set](top, half, s))

	v, err := continuity.EqualsClosure[interval.Set](top, half, s)
	require.NoError(t, err)
	assert.Equal(t, "0.2", v.String())
}

func TestInconsistentMeasure(t *testing.T) {
	// Charges the frontier of [0.2,0.6) but not its closure.
	broken := space.MeasureFunc[interval.Set](func(s interval.Set) unit.Unit {
		if s.Equal(interval.MustParse("{0.2} u {0.6}")) {
			return unit.MustParse("0.1")
		}
		return s.Length()
	})
	_, err := continuity.Analyze[interval.Set](top, broken, interval.MustParse("[0.2,0.6)"))
	assert.ErrorIs(t, err, continuity.ErrInconsistentMeasure)

	// Puts more mass on a set than on its closure.
	swollen := space.MeasureFunc[interval.Set](func(s interval.Set) unit.Unit {
		if s.Equal(interval.MustParse("(0.2,0.6)")) {
			return unit.One()
		}
		return s.Length()
	})
	_, err = continuity.EqualsInterior[interval.Set](top, swollen, interval.MustParse("(0.2,0.6)"))
	assert.ErrorIs(t, err, continuity.ErrInconsistentMeasure)
}

func TestMixtureWithAtomOnFrontier(t *testing.T) {
	uniform := space.MustProbability[interval.Set](top, "uniform", interval.Uniform{})
	atom := space.MustProbability[interval.Set](top, "dirac(0.5)", interval.Dirac{X: unit.MustParse("0.5")})
	mix, err := space.NewMixture(
		space.Component[interval.Set]{Weight: unit.MustParse("0.75"), Measure: uniform},
		space.Component[interval.Set]{Weight: unit.MustParse("0.25"), Measure: atom},
	)
	require.NoError(t, err)

	assert.False(t, continuity.IsContinuitySet[interval.Set](top, mix, interval.MustParse("[0,0.5)")))
	assert.True(t, continuity.IsContinuitySet[interval.Set](top, mix, interval.MustParse("[0,0.4)")))

	q, err := continuity.Analyze[interval.Set](top, mix, interval.MustParse("[0,0.5)"))
	require.NoError(t, err)
	assert.Equal(t, "0.375", q.Interior.String())
	assert.Equal(t, "0.625", q.Closure.String())
	assert.Equal(t, "0.25", q.Frontier.String())
}
