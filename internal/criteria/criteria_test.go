package criteria

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/portmanteau/internal/interval"
	"github.com/roach88/portmanteau/internal/measureseq"
	"github.com/roach88/portmanteau/internal/space"
	"github.com/roach88/portmanteau/internal/unit"
)

var top = interval.Space{}

func sets(in ...string) []interval.Set {
	out := make([]interval.Set, len(in))
	for i, s := range in {
		out[i] = interval.MustParse(s)
	}
	return out
}

func prob(name string, m space.Measure[interval.Set]) space.Probability[interval.Set] {
	return space.MustProbability[interval.Set](top, name, m)
}

func problem(t *testing.T, lim space.Probability[interval.Set], paths ...measureseq.Path[interval.Set]) Problem[interval.Set] {
	t.Helper()
	seq, err := measureseq.New[interval.Set](top, nil, paths...)
	require.NoError(t, err)
	p, err := NewProblem[interval.Set](top, seq, lim, nil)
	require.NoError(t, err)
	return p
}

// blendProblem: μ_k = uniform + (δ_0.9 - uniform)/(k+1), converging to
// uniform in total variation.
func blendProblem(t *testing.T) Problem[interval.Set] {
	uniform := prob("uniform", interval.Uniform{})
	dirac := prob("dirac(0.9)", interval.Dirac{X: unit.MustParse("0.9")})
	return problem(t, uniform, measureseq.NewBlend(dirac, uniform))
}

// driftProblem: μ_k = δ_{1/(k+1)}, converging weakly to δ_0.
func driftProblem(t *testing.T) Problem[interval.Set] {
	drift, err := interval.NewDrift(unit.Zero(), unit.MustParseDelta("1"))
	require.NoError(t, err)
	return problem(t, prob("dirac(0)", interval.Dirac{}), drift)
}

func formats(w Witness[interval.Set]) []string {
	out := make([]string, len(w.Checks))
	for i, c := range w.Checks {
		out[i] = c.Set.String()
	}
	return out
}

func TestNewProblemRejectsInvalidLimit(t *testing.T) {
	seq := measureseq.MustNew[interval.Set](top, nil, measureseq.NewSteady(prob("uniform", interval.Uniform{})))
	_, err := NewProblem[interval.Set](top, seq, space.Probability[interval.Set]{}, nil)
	assert.ErrorIs(t, err, ErrInvalidProblem)
	assert.ErrorIs(t, err, space.ErrNotProbability)

	_, err = NewProblem[interval.Set](nil, seq, prob("uniform", interval.Uniform{}), nil)
	assert.ErrorIs(t, err, ErrInvalidProblem)
}

func TestCover(t *testing.T) {
	got := Cover[interval.Set](top, sets("(0,0.5)", "[0,0.5)"))
	assert.Equal(t, []string{"(0,0.5)", "(0.5,1]", "[0,0.5)"}, formatSets(got))
}

func formatSets(in []interval.Set) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = s.String()
	}
	return out
}

func TestDeriveBlend(t *testing.T) {
	p := blendProblem(t)
	d, err := Derive(p, sets("(0,0.5)", "[0,0.5)"))
	require.NoError(t, err)

	assert.Equal(t, KindLiminf, d.Liminf.Kind)
	assert.Equal(t, []string{"(0,0.5)", "(0.5,1]", "[0,0.5)"}, formats(d.Liminf))
	assert.Equal(t, KindLimsup, d.Limsup.Kind)
	assert.Equal(t, []string{"{0} u [0.5,1]", "[0,0.5]", "[0.5,1]"}, formats(d.Limsup))

	require.Len(t, d.Pointwise.Checks, 2)
	for _, c := range d.Pointwise.Checks {
		assert.Equal(t, "0.5", c.Mass.String())
		assert.Equal(t, "0.5", c.Liminf.String())
		assert.Equal(t, "0.5", c.Limsup.String())
		assert.Equal(t, "converges", c.Steps[len(c.Steps)-1].Rule)
	}

	// The derived pointwise witness agrees with direct evaluation.
	direct, err := CheckPointwise(p, sets("(0,0.5)", "[0,0.5)"))
	require.NoError(t, err)
	assert.True(t, direct.Equivalent(top, d.Pointwise))
}

func TestDriftOneSidedBounds(t *testing.T) {
	p := driftProblem(t)

	lower, err := CheckLiminf(p, sets("(0,0.5)"))
	require.NoError(t, err)
	c := lower.Checks[0]
	assert.True(t, c.Mass.IsZero())
	assert.True(t, c.Liminf.IsOne())

	upper, err := CheckLimsup(p, sets("{0}"))
	require.NoError(t, err)
	c = upper.Checks[0]
	assert.True(t, c.Mass.IsOne())
	assert.True(t, c.Limsup.IsZero())
}

func TestDriftPointwiseOnContinuitySet(t *testing.T) {
	p := driftProblem(t)
	d, err := Derive(p, sets("[0,0.5)"))
	require.NoError(t, err)

	require.Len(t, d.Pointwise.Checks, 1)
	c := d.Pointwise.Checks[0]
	assert.True(t, c.Mass.IsOne())
	assert.True(t, c.Liminf.IsOne())
	assert.True(t, c.Limsup.IsOne())
}

func TestDriftRejectsNonContinuitySets(t *testing.T) {
	p := driftProblem(t)
	for _, in := range []string{"{0}", "(0,0.5)"} {
		t.Run(in, func(t *testing.T) {
			_, err := CheckPointwise(p, sets(in))
			assert.Equal(t, CodeNotContinuitySet, CodeOf(err))
			assert.True(t, IsContractError(err))

			_, err = Derive(p, sets(in))
			assert.Equal(t, CodeNotContinuitySet, CodeOf(err))
		})
	}
}

func TestViolations(t *testing.T) {
	// A sequence parked on δ_0.5 does not converge to the uniform measure.
	p := problem(t, prob("uniform", interval.Uniform{}),
		measureseq.NewSteady(prob("dirac(0.5)", interval.Dirac{X: unit.MustParse("0.5")})))

	_, err := CheckLiminf(p, sets("(0.25,0.75)"))
	require.NoError(t, err)

	_, err = CheckLiminf(p, sets("(0,0.5)"))
	assert.True(t, IsViolation(err))
	assert.False(t, IsContractError(err))

	_, err = CheckLimsup(p, sets("{0.5}"))
	assert.True(t, IsViolation(err))

	_, err = CheckPointwise(p, sets("[0,0.75)"))
	assert.True(t, IsViolation(err))

	_, err = Derive(p, sets("(0,0.5)"))
	assert.True(t, IsViolation(err))
}

func TestContractErrors(t *testing.T) {
	p := blendProblem(t)

	_, err := CheckLiminf(p, sets("[0.2,0.4]"))
	assert.Equal(t, CodeNotOpen, CodeOf(err))
	assert.True(t, IsContractError(err))

	_, err = CheckLimsup(p, sets("(0.2,0.4)"))
	assert.Equal(t, CodeNotClosed, CodeOf(err))

	upper, err := CheckLimsup(p, sets("[0,0.5]"))
	require.NoError(t, err)
	_, err = LimsupFromLiminf(p, upper)
	assert.Equal(t, CodeWrongKind, CodeOf(err))
	_, err = PointwiseFromLiminf(p, upper, sets("(0,0.5)"))
	assert.Equal(t, CodeWrongKind, CodeOf(err))

	lower, err := CheckLiminf(p, sets("(0,0.5)"))
	require.NoError(t, err)
	_, err = LiminfFromLimsup(p, lower)
	assert.Equal(t, CodeWrongKind, CodeOf(err))

	_, err = PointwiseFromLiminf(p, lower, sets("(0,0.5)"))
	assert.Equal(t, CodeUncovered, CodeOf(err))
	var ce *CriterionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "(0,0.5)", ce.Set)
}

func TestRoundTripReproducesWitness(t *testing.T) {
	for name, p := range map[string]Problem[interval.Set]{
		"blend": blendProblem(t),
		"drift": driftProblem(t),
	} {
		t.Run(name, func(t *testing.T) {
			lower, err := CheckLiminf(p, sets("(0.5,1]", "[0,0.5)", "all", "empty"))
			require.NoError(t, err)

			upper, err := LimsupFromLiminf(p, lower)
			require.NoError(t, err)
			back, err := LiminfFromLimsup(p, upper)
			require.NoError(t, err)
			assert.True(t, back.Equivalent(top, lower))

			again, err := LimsupFromLiminf(p, back)
			require.NoError(t, err)
			assert.True(t, again.Equivalent(top, upper))
		})
	}
}

func TestDeriveAtLastDecimalPlace(t *testing.T) {
	uniform := prob("uniform", interval.Uniform{})
	p := problem(t, uniform, measureseq.NewSteady(uniform))

	d, err := Derive(p, sets("(0,1E-34)"))
	require.NoError(t, err)
	require.Len(t, d.Pointwise.Checks, 1)
	assert.Equal(t, "0.0000000000000000000000000000000001", d.Pointwise.Checks[0].Mass.String())

	back, err := LiminfFromLimsup(p, d.Limsup)
	require.NoError(t, err)
	assert.True(t, back.Equivalent(top, d.Liminf))

	// Finer endpoints are refused when the set is read.
	_, err = interval.Parse("(0,1E-40)")
	assert.ErrorIs(t, err, unit.ErrPrecision)
}

func TestDualizeRejectsMassOffLimit(t *testing.T) {
	p := blendProblem(t)
	lower, err := CheckLiminf(p, sets("(0,0.5)"))
	require.NoError(t, err)

	lower.Checks[0].Mass = unit.MustParse("0.4")
	_, err = LimsupFromLiminf(p, lower)
	assert.Equal(t, CodeInconsistentMeasure, CodeOf(err))
}

func TestZeroProblemLogsNowhere(t *testing.T) {
	var p Problem[interval.Set]
	assert.Same(t, discard, p.log())
	assert.NotSame(t, slog.Default(), p.log())

	built := blendProblem(t)
	assert.Same(t, discard, built.Logger)
}

func TestDerivedLimsupMatchesDirectCheck(t *testing.T) {
	p := blendProblem(t)
	opens := sets("(0,0.5)", "(0.25,0.75) u (0.8,1]")

	lower, err := CheckLiminf(p, opens)
	require.NoError(t, err)
	derived, err := LimsupFromLiminf(p, lower)
	require.NoError(t, err)

	closeds := make([]interval.Set, len(opens))
	for i, u := range opens {
		closeds[i] = u.Complement()
	}
	direct, err := CheckLimsup(p, closeds)
	require.NoError(t, err)
	assert.True(t, derived.Equivalent(top, direct))

	rules := make([]string, 0, len(derived.Checks[0].Steps))
	for _, st := range derived.Checks[0].Steps {
		rules = append(rules, st.Rule)
	}
	assert.Equal(t, []string{"complement", "complement-mass", "duality", "cancel"}, rules)
}

func TestPointwiseFromLimsup(t *testing.T) {
	p := driftProblem(t)
	target := sets("[0,0.5)")

	closeds := make([]interval.Set, 0)
	for _, u := range Cover[interval.Set](top, target) {
		closeds = append(closeds, u.Complement())
	}
	upper, err := CheckLimsup(p, closeds)
	require.NoError(t, err)

	point, err := PointwiseFromLimsup(p, upper, target)
	require.NoError(t, err)
	require.Len(t, point.Checks, 1)
	assert.True(t, point.Checks[0].Mass.IsOne())

	_, err = PointwiseFromLimsup(p, point, target)
	assert.Equal(t, CodeWrongKind, CodeOf(err))
}

func TestEncodeAndID(t *testing.T) {
	p := blendProblem(t)
	w, err := CheckLiminf(p, sets("(0,0.5)"))
	require.NoError(t, err)

	obj := Encode[interval.Set](top, w)
	assert.Equal(t, "liminf_open", obj.Get("kind"))
	assert.Equal(t, "1", obj.Get("ir_version"))

	id1, err := ID[interval.Set](top, w)
	require.NoError(t, err)
	id2, err := ID[interval.Set](top, w)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
	assert.Len(t, id1, 64)

	other, err := CheckLiminf(p, sets("(0.5,1]"))
	require.NoError(t, err)
	id3, err := ID[interval.Set](top, other)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id3)

	sum, err := Summarize(obj)
	require.NoError(t, err)
	assert.Equal(t, KindLiminf, sum.Kind)
	assert.Equal(t, []string{"(0,0.5)"}, sum.Sets)
}

func TestSummarizeRejectsUnknownKind(t *testing.T) {
	obj := Encode[interval.Set](top, Witness[interval.Set]{Kind: "bogus"})
	_, err := Summarize(obj)
	assert.Error(t, err)
}

func TestDeriveLogs(t *testing.T) {
	var buf bytes.Buffer
	p := blendProblem(t)
	p.Logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := Derive(p, sets("(0,0.5)"))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "derivation complete")
	assert.Contains(t, buf.String(), "kind=limsup_closed")
}

func TestCriterionErrorMessage(t *testing.T) {
	err := newError(CodeViolated, "(0,0.5)", "μ(U) = %s > %s", "0.5", "0").with("sequence", "0")
	assert.Equal(t, "VIOLATED: μ(U) = 0.5 > 0 (set=(0,0.5))", err.Error())
	assert.Equal(t, "0", err.Details["sequence"])

	bare := newError(CodeWrongKind, "", "want x")
	assert.Equal(t, "WRONG_KIND: want x", bare.Error())
	assert.False(t, IsViolation(nil))
	assert.Equal(t, ErrorCode(""), CodeOf(assert.AnError))
}
