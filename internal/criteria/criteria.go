// Package criteria checks and derives the three equivalent criteria for
// weak convergence of a measure sequence μₙ to a limit μ:
//
//   - Pointwise: μₙ(S) -> μ(S) for every continuity set S of μ
//   - Liminf: μ(U) <= liminf μₙ(U) for every open U
//   - Limsup: limsup μₙ(F) <= μ(F) for every closed F
//
// No program can range over every open set, so each criterion is checked
// over an explicit family and recorded as a Witness. Derivations transform
// witnesses: a Liminf witness over a family of opens becomes a Limsup
// witness over their complements, and a Liminf witness covering the
// interiors and closure complements of some sets yields a Pointwise
// witness for the continuity sets among them.
//
// Every Check carries the trail of rules that produced it, so a witness
// can be stored and audited without re-running the derivation.
package criteria

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/portmanteau/internal/continuity"
	"github.com/roach88/portmanteau/internal/limit"
	"github.com/roach88/portmanteau/internal/measureseq"
	"github.com/roach88/portmanteau/internal/space"
	"github.com/roach88/portmanteau/internal/unit"
)

// Kind names a criterion.
type Kind string

const (
	KindPointwise Kind = "pointwise"
	KindLiminf    Kind = "liminf_open"
	KindLimsup    Kind = "limsup_closed"
)

// ErrInvalidProblem is returned by NewProblem for incomplete inputs.
var ErrInvalidProblem = errors.New("invalid convergence problem")

// Problem is a measure sequence, its candidate limit and the space they
// live on.
type Problem[S any] struct {
	Top    space.Topology[S]
	Seq    measureseq.Sequence[S]
	Limit  space.Probability[S]
	Logger *slog.Logger
}

// NewProblem checks that the limit is a validated probability. A nil
// logger discards output.
func NewProblem[S any](top space.Topology[S], seq measureseq.Sequence[S], lim space.Probability[S], logger *slog.Logger) (Problem[S], error) {
	if top == nil {
		return Problem[S]{}, fmt.Errorf("%w: nil topology", ErrInvalidProblem)
	}
	if !lim.Valid() {
		return Problem[S]{}, fmt.Errorf("%w: %w", ErrInvalidProblem, space.ErrNotProbability)
	}
	if logger == nil {
		logger = discard
	}
	return Problem[S]{Top: top, Seq: seq, Limit: lim, Logger: logger}, nil
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// log never returns nil; a Problem built without NewProblem stays silent.
func (p Problem[S]) log() *slog.Logger {
	if p.Logger == nil {
		return discard
	}
	return p.Logger
}

// Step is one justification in a check's trail.
type Step struct {
	Rule   string
	Detail string
}

// Check is the evidence for one set: the limit mass and the liminf and
// limsup of the mass sequence, with the rules that established them.
type Check[S any] struct {
	Set    S
	Mass   unit.Unit
	Liminf unit.Unit
	Limsup unit.Unit
	Steps  []Step
}

// Witness is a criterion verified over a family of sets.
type Witness[S any] struct {
	Kind   Kind
	Checks []Check[S]
}

// Sets returns the family the witness covers.
func (w Witness[S]) Sets() []S {
	out := make([]S, len(w.Checks))
	for i, c := range w.Checks {
		out[i] = c.Set
	}
	return out
}

// Find returns the check for s, if the witness covers it.
func (w Witness[S]) Find(top space.Topology[S], s S) (Check[S], bool) {
	for _, c := range w.Checks {
		if top.Equal(c.Set, s) {
			return c, true
		}
	}
	return Check[S]{}, false
}

// Equivalent reports whether w and o state the same criterion over the same
// family with the same values, ignoring how each was justified.
func (w Witness[S]) Equivalent(top space.Topology[S], o Witness[S]) bool {
	if w.Kind != o.Kind || len(w.Checks) != len(o.Checks) {
		return false
	}
	for i, c := range w.Checks {
		d := o.Checks[i]
		if !top.Equal(c.Set, d.Set) || !c.Mass.Equal(d.Mass) ||
			!c.Liminf.Equal(d.Liminf) || !c.Limsup.Equal(d.Limsup) {
			return false
		}
	}
	return true
}

// masses evaluates n -> μₙ(s) and its limit behaviour.
func (p Problem[S]) masses(s S) (limit.Sequence, error) {
	f, err := p.Seq.Masses(s)
	if err != nil {
		return limit.Sequence{}, newError(CodeInconsistentMeasure, p.Top.Format(s), "mass sequence: %v", err)
	}
	return f, nil
}

func (p Problem[S]) observe(s S) (Check[S], limit.Sequence, error) {
	f, err := p.masses(s)
	if err != nil {
		return Check[S]{}, limit.Sequence{}, err
	}
	return Check[S]{
		Set:    s,
		Mass:   p.Limit.Mass(s),
		Liminf: limit.Liminf(f),
		Limsup: limit.Limsup(f),
	}, f, nil
}

// CheckLiminf verifies μ(U) <= liminf μₙ(U) for every U in opens.
func CheckLiminf[S any](p Problem[S], opens []S) (Witness[S], error) {
	w := Witness[S]{Kind: KindLiminf}
	for _, u := range opens {
		name := p.Top.Format(u)
		if !p.Top.IsOpen(u) {
			return Witness[S]{}, newError(CodeNotOpen, name, "liminf criterion needs an open set")
		}
		c, f, err := p.observe(u)
		if err != nil {
			return Witness[S]{}, err
		}
		if !c.Mass.LessEq(c.Liminf) {
			return Witness[S]{}, newError(CodeViolated, name, "μ(U) = %s > liminf μₙ(U) = %s", c.Mass, c.Liminf).
				with("sequence", f.String())
		}
		c.Steps = []Step{
			{Rule: "open", Detail: name + " is open"},
			{Rule: "liminf", Detail: fmt.Sprintf("liminf μₙ(U) = %s over %s", c.Liminf, f)},
			{Rule: "bound", Detail: fmt.Sprintf("μ(U) = %s <= %s", c.Mass, c.Liminf)},
		}
		w.Checks = append(w.Checks, c)
	}
	p.log().Debug("criterion checked", "kind", w.Kind, "sets", len(w.Checks))
	return w, nil
}

// CheckLimsup verifies limsup μₙ(F) <= μ(F) for every F in closeds.
func CheckLimsup[S any](p Problem[S], closeds []S) (Witness[S], error) {
	w := Witness[S]{Kind: KindLimsup}
	for _, fs := range closeds {
		name := p.Top.Format(fs)
		if !p.Top.IsClosed(fs) {
			return Witness[S]{}, newError(CodeNotClosed, name, "limsup criterion needs a closed set")
		}
		c, f, err := p.observe(fs)
		if err != nil {
			return Witness[S]{}, err
		}
		if !c.Limsup.LessEq(c.Mass) {
			return Witness[S]{}, newError(CodeViolated, name, "limsup μₙ(F) = %s > μ(F) = %s", c.Limsup, c.Mass).
				with("sequence", f.String())
		}
		c.Steps = []Step{
			{Rule: "closed", Detail: name + " is closed"},
			{Rule: "limsup", Detail: fmt.Sprintf("limsup μₙ(F) = %s over %s", c.Limsup, f)},
			{Rule: "bound", Detail: fmt.Sprintf("%s <= μ(F) = %s", c.Limsup, c.Mass)},
		}
		w.Checks = append(w.Checks, c)
	}
	p.log().Debug("criterion checked", "kind", w.Kind, "sets", len(w.Checks))
	return w, nil
}

// CheckPointwise verifies μₙ(S) -> μ(S) for every S in sets, each of which
// must be a continuity set of the limit.
func CheckPointwise[S any](p Problem[S], sets []S) (Witness[S], error) {
	w := Witness[S]{Kind: KindPointwise}
	for _, s := range sets {
		name := p.Top.Format(s)
		if !continuity.IsContinuitySet[S](p.Top, p.Limit, s) {
			return Witness[S]{}, newError(CodeNotContinuitySet, name,
				"μ(frontier) = %s", p.Limit.Mass(p.Top.Frontier(s)))
		}
		c, f, err := p.observe(s)
		if err != nil {
			return Witness[S]{}, err
		}
		got, ok := limit.Converges(f)
		if !ok || !got.Equal(c.Mass) {
			return Witness[S]{}, newError(CodeViolated, name,
				"μₙ(S) has liminf %s and limsup %s, μ(S) = %s", c.Liminf, c.Limsup, c.Mass).
				with("sequence", f.String())
		}
		c.Steps = []Step{
			{Rule: "continuity", Detail: fmt.Sprintf("μ(frontier %s) = 0", name)},
			{Rule: "converges", Detail: fmt.Sprintf("μₙ(S) -> %s over %s", got, f)},
		}
		w.Checks = append(w.Checks, c)
	}
	p.log().Debug("criterion checked", "kind", w.Kind, "sets", len(w.Checks))
	return w, nil
}
