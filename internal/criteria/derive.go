package criteria

import (
	"fmt"

	"github.com/roach88/portmanteau/internal/continuity"
	"github.com/roach88/portmanteau/internal/limit"
	"github.com/roach88/portmanteau/internal/space"
	"github.com/roach88/portmanteau/internal/unit"
)

// LimsupFromLiminf turns a Liminf witness over opens U into a Limsup
// witness over the closed complements Uᶜ.
//
// For F = Uᶜ: μ(F) = 1 - μ(U) and μₙ(F) = 1 - μₙ(U), so by duality
// limsup μₙ(F) = 1 - liminf μₙ(U). The premise μ(U) <= liminf μₙ(U)
// reverses under 1 - ·, and 1 - (1 - x) = x cancels it back onto F.
func LimsupFromLiminf[S any](p Problem[S], w Witness[S]) (Witness[S], error) {
	if w.Kind != KindLiminf {
		return Witness[S]{}, newError(CodeWrongKind, "", "want %s witness, got %s", KindLiminf, w.Kind)
	}
	out := Witness[S]{Kind: KindLimsup, Checks: make([]Check[S], 0, len(w.Checks))}
	for _, c := range w.Checks {
		d, err := dualize(p, c, KindLimsup)
		if err != nil {
			return Witness[S]{}, err
		}
		out.Checks = append(out.Checks, d)
	}
	p.log().Debug("criterion derived", "kind", out.Kind, "from", w.Kind, "sets", len(out.Checks))
	return out, nil
}

// LiminfFromLimsup is the mirror of LimsupFromLiminf: a Limsup witness over
// closeds F becomes a Liminf witness over the open complements Fᶜ.
func LiminfFromLimsup[S any](p Problem[S], w Witness[S]) (Witness[S], error) {
	if w.Kind != KindLimsup {
		return Witness[S]{}, newError(CodeWrongKind, "", "want %s witness, got %s", KindLimsup, w.Kind)
	}
	out := Witness[S]{Kind: KindLiminf, Checks: make([]Check[S], 0, len(w.Checks))}
	for _, c := range w.Checks {
		d, err := dualize(p, c, KindLiminf)
		if err != nil {
			return Witness[S]{}, err
		}
		out.Checks = append(out.Checks, d)
	}
	p.log().Debug("criterion derived", "kind", out.Kind, "from", w.Kind, "sets", len(out.Checks))
	return out, nil
}

// dualize moves one check to the complement of its set. want is the kind
// of the resulting check.
func dualize[S any](p Problem[S], c Check[S], want Kind) (Check[S], error) {
	comp := p.Top.Complement(c.Set)
	name, from := p.Top.Format(comp), p.Top.Format(c.Set)

	shape, shapeRule := p.Top.IsClosed, "closed"
	if want == KindLiminf {
		shape, shapeRule = p.Top.IsOpen, "open"
	}
	if !shape(comp) {
		code := CodeNotClosed
		if want == KindLiminf {
			code = CodeNotOpen
		}
		return Check[S]{}, newError(code, name, "complement of %s is not %s", from, shapeRule)
	}

	if m := p.Limit.Mass(c.Set); !m.Equal(c.Mass) {
		return Check[S]{}, newError(CodeInconsistentMeasure, from,
			"witness records μ = %s, limit gives %s", c.Mass, m)
	}
	f, err := p.masses(c.Set)
	if err != nil {
		return Check[S]{}, err
	}
	d := Check[S]{
		Set:    comp,
		Mass:   p.Limit.ComplementMass(c.Set),
		Liminf: limit.LiminfOfComplement(f),
		Limsup: limit.LimsupOfComplement(f),
	}

	// The collaborators must agree with the complement law.
	if direct := p.Limit.Mass(comp); !direct.Equal(d.Mass) {
		return Check[S]{}, newError(CodeInconsistentMeasure, name,
			"μ(complement) = %s, 1 - μ(%s) = %s", direct, from, d.Mass)
	}
	g, err := p.masses(comp)
	if err != nil {
		return Check[S]{}, err
	}
	if !limit.Liminf(g).Equal(d.Liminf) || !limit.Limsup(g).Equal(d.Limsup) {
		return Check[S]{}, newError(CodeInconsistentMeasure, name,
			"μₙ(complement) is not 1 - μₙ(%s)", from).with("sequence", g.String())
	}

	// Premise restated on the complement, then cancelled:
	//   liminf case: μ(U) <= liminf μₙ(U)  i.e.  1-μ(F) <= 1-limsup μₙ(F)
	//   limsup case: limsup μₙ(F) <= μ(F)  i.e.  1-liminf μₙ(U) <= 1-μ(U)
	var lo, hi unit.Unit
	if want == KindLimsup {
		lo, hi = unit.SubTrunc(unit.One(), d.Mass), unit.SubTrunc(unit.One(), d.Limsup)
	} else {
		lo, hi = unit.SubTrunc(unit.One(), d.Liminf), unit.SubTrunc(unit.One(), d.Mass)
	}
	if !lo.LessEq(hi) {
		return Check[S]{}, newError(CodeViolated, from, "premise fails: %s > %s", lo, hi)
	}
	left, right := unit.SubTrunc(unit.One(), hi), unit.SubTrunc(unit.One(), lo)
	if !left.LessEq(right) {
		return Check[S]{}, newError(CodeInconsistentMeasure, name, "cancellation failed: %s > %s", left, right)
	}

	d.Steps = []Step{
		{Rule: "complement", Detail: fmt.Sprintf("%s = complement of %s is %s", name, from, shapeRule)},
		{Rule: "complement-mass", Detail: fmt.Sprintf("μ = 1 - %s = %s", c.Mass, d.Mass)},
	}
	if want == KindLimsup {
		d.Steps = append(d.Steps,
			Step{Rule: "duality", Detail: fmt.Sprintf("limsup(1 - μₙ) = 1 - %s = %s", c.Liminf, d.Limsup)},
			Step{Rule: "cancel", Detail: fmt.Sprintf("1 - %s <= 1 - %s gives %s <= %s", hi, lo, d.Limsup, d.Mass)},
		)
	} else {
		d.Steps = append(d.Steps,
			Step{Rule: "duality", Detail: fmt.Sprintf("liminf(1 - μₙ) = 1 - %s = %s", c.Limsup, d.Liminf)},
			Step{Rule: "cancel", Detail: fmt.Sprintf("1 - %s <= 1 - %s gives %s <= %s", hi, lo, d.Mass, d.Liminf)},
		)
	}
	return d, nil
}

// Cover returns the open sets a Liminf witness must check before
// PointwiseFromLiminf can handle sets: the interior of each set and the
// complement of its closure, without repeats.
func Cover[S any](top space.Topology[S], sets []S) []S {
	var out []S
	add := func(s S) {
		for _, o := range out {
			if top.Equal(o, s) {
				return
			}
		}
		out = append(out, s)
	}
	for _, s := range sets {
		add(top.Interior(s))
		add(top.Complement(top.Closure(s)))
	}
	return out
}

// PointwiseFromLiminf derives μₙ(S) -> μ(S) for each continuity set S
// from a Liminf witness covering S's interior and closure complement.
//
// The squeeze: μₙ(int S) <= μₙ(S) <= μₙ(cl S) for every n, so
//
//	μ(int S) <= liminf μₙ(int S) <= liminf μₙ(S)
//	limsup μₙ(S) <= limsup μₙ(cl S) <= μ(cl S)
//
// and continuity collapses μ(int S) = μ(S) = μ(cl S), which together with
// liminf <= limsup forces convergence to μ(S).
func PointwiseFromLiminf[S any](p Problem[S], w Witness[S], sets []S) (Witness[S], error) {
	if w.Kind != KindLiminf {
		return Witness[S]{}, newError(CodeWrongKind, "", "want %s witness, got %s", KindLiminf, w.Kind)
	}
	dual, err := LimsupFromLiminf(p, w)
	if err != nil {
		return Witness[S]{}, err
	}

	out := Witness[S]{Kind: KindPointwise, Checks: make([]Check[S], 0, len(sets))}
	for _, s := range sets {
		c, err := squeeze(p, w, dual, s)
		if err != nil {
			return Witness[S]{}, err
		}
		out.Checks = append(out.Checks, c)
	}
	p.log().Debug("criterion derived", "kind", out.Kind, "from", w.Kind, "sets", len(out.Checks))
	return out, nil
}

// PointwiseFromLimsup first derives the Liminf witness over the complements
// and then squeezes.
func PointwiseFromLimsup[S any](p Problem[S], w Witness[S], sets []S) (Witness[S], error) {
	lower, err := LiminfFromLimsup(p, w)
	if err != nil {
		return Witness[S]{}, err
	}
	return PointwiseFromLiminf(p, lower, sets)
}

func squeeze[S any](p Problem[S], lower, upper Witness[S], s S) (Check[S], error) {
	name := p.Top.Format(s)
	q, err := continuity.Analyze[S](p.Top, p.Limit, s)
	if err != nil {
		return Check[S]{}, newError(CodeInconsistentMeasure, name, "%v", err)
	}
	if !q.Continuity {
		return Check[S]{}, newError(CodeNotContinuitySet, name, "μ(frontier) = %s", q.Frontier).
			with("interior", q.Interior.String()).
			with("closure", q.Closure.String())
	}
	atInt, err := continuity.EqualsInterior[S](p.Top, p.Limit, s)
	if err != nil {
		return Check[S]{}, newError(CodeInconsistentMeasure, name, "%v", err)
	}
	atCl, err := continuity.EqualsClosure[S](p.Top, p.Limit, s)
	if err != nil {
		return Check[S]{}, newError(CodeInconsistentMeasure, name, "%v", err)
	}

	interior, closure := p.Top.Interior(s), p.Top.Closure(s)
	lo, ok := lower.Find(p.Top, interior)
	if !ok {
		return Check[S]{}, newError(CodeUncovered, name, "witness does not cover interior %s", p.Top.Format(interior))
	}
	hi, ok := upper.Find(p.Top, closure)
	if !ok {
		return Check[S]{}, newError(CodeUncovered, name,
			"witness does not cover %s, the complement of closure %s",
			p.Top.Format(p.Top.Complement(closure)), p.Top.Format(closure))
	}

	f, err := p.masses(s)
	if err != nil {
		return Check[S]{}, err
	}
	fInt, err := p.masses(interior)
	if err != nil {
		return Check[S]{}, err
	}
	fCl, err := p.masses(closure)
	if err != nil {
		return Check[S]{}, err
	}
	below, err := limit.Dominate(fInt, f)
	if err != nil {
		return Check[S]{}, newError(CodeInconsistentMeasure, name, "μₙ not monotone on interior: %v", err)
	}
	above, err := limit.Dominate(f, fCl)
	if err != nil {
		return Check[S]{}, newError(CodeInconsistentMeasure, name, "μₙ not monotone on closure: %v", err)
	}
	liInt, liS := below.Liminf()
	lsS, lsCl := above.Limsup()

	if !liInt.Equal(lo.Liminf) || !lsCl.Equal(hi.Limsup) {
		return Check[S]{}, newError(CodeInconsistentMeasure, name, "witness values disagree with the sequence")
	}
	if !lo.Mass.LessEq(liS) || !lsS.LessEq(hi.Mass) || !liS.LessEq(lsS) {
		return Check[S]{}, newError(CodeInconsistentMeasure, name, "squeeze chain broken")
	}
	// μ(S) <= liminf <= limsup <= μ(S)
	if !liS.Equal(q.Set) || !lsS.Equal(q.Set) {
		return Check[S]{}, newError(CodeInconsistentMeasure, name,
			"squeeze left liminf %s, limsup %s around μ(S) = %s", liS, lsS, q.Set)
	}

	return Check[S]{
		Set:    s,
		Mass:   q.Set,
		Liminf: liS,
		Limsup: lsS,
		Steps: []Step{
			{Rule: "continuity", Detail: fmt.Sprintf("μ(frontier %s) = 0", name)},
			{Rule: "interior", Detail: fmt.Sprintf("μ(%s) = %s <= liminf μₙ = %s", p.Top.Format(interior), atInt, lo.Liminf)},
			{Rule: "closure", Detail: fmt.Sprintf("limsup μₙ = %s <= μ(%s) = %s", hi.Limsup, p.Top.Format(closure), atCl)},
			{Rule: "transport-liminf", Detail: fmt.Sprintf("μₙ(interior) <= μₙ(S) from n = %d", below.From)},
			{Rule: "transport-limsup", Detail: fmt.Sprintf("μₙ(S) <= μₙ(closure) from n = %d", above.From)},
			{Rule: "squeeze", Detail: fmt.Sprintf("%s <= %s <= %s <= %s", atInt, liS, lsS, atCl)},
			{Rule: "converges", Detail: fmt.Sprintf("μₙ(S) -> %s", q.Set)},
		},
	}, nil
}

// Derivation bundles the witnesses produced by Derive.
type Derivation[S any] struct {
	Liminf    Witness[S]
	Limsup    Witness[S]
	Pointwise Witness[S]
}

// Derive checks the Liminf criterion on Cover(sets), derives the Limsup
// criterion on the complements, and derives Pointwise on sets.
func Derive[S any](p Problem[S], sets []S) (Derivation[S], error) {
	lower, err := CheckLiminf(p, Cover(p.Top, sets))
	if err != nil {
		return Derivation[S]{}, err
	}
	upper, err := LimsupFromLiminf(p, lower)
	if err != nil {
		return Derivation[S]{}, err
	}
	point, err := PointwiseFromLiminf(p, lower, sets)
	if err != nil {
		return Derivation[S]{}, err
	}
	p.log().Info("derivation complete",
		"liminf", len(lower.Checks),
		"limsup", len(upper.Checks),
		"pointwise", len(point.Checks))
	return Derivation[S]{Liminf: lower, Limsup: upper, Pointwise: point}, nil
}
