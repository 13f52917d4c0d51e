package harness

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/portmanteau/internal/criteria"
	"github.com/roach88/portmanteau/internal/interval"
	"github.com/roach88/portmanteau/internal/measureseq"
	"github.com/roach88/portmanteau/internal/space"
	"github.com/roach88/portmanteau/internal/unit"
)

var top = interval.Space{}

// Model is a scenario turned into concrete collaborators.
type Model struct {
	Problem criteria.Problem[interval.Set]
	Sets    []interval.Set
	Opens   []interval.Set
	Closeds []interval.Set
}

// Build constructs the measures, sequence and set families of a scenario.
func Build(s *Scenario, logger *slog.Logger) (*Model, error) {
	lim, err := buildMeasure(s.Limit)
	if err != nil {
		return nil, fmt.Errorf("limit: %w", err)
	}

	head := make([]space.Probability[interval.Set], len(s.Sequence.Head))
	for i, spec := range s.Sequence.Head {
		if head[i], err = buildMeasure(spec); err != nil {
			return nil, fmt.Errorf("sequence.head[%d]: %w", i, err)
		}
	}
	cycle := make([]measureseq.Path[interval.Set], len(s.Sequence.Cycle))
	for i, spec := range s.Sequence.Cycle {
		if cycle[i], err = buildPath(spec); err != nil {
			return nil, fmt.Errorf("sequence.cycle[%d]: %w", i, err)
		}
	}
	seq, err := measureseq.New[interval.Set](top, head, cycle...)
	if err != nil {
		return nil, fmt.Errorf("sequence: %w", err)
	}

	p, err := criteria.NewProblem[interval.Set](top, seq, lim, logger)
	if err != nil {
		return nil, err
	}
	m := &Model{Problem: p}
	if m.Sets, err = parseSets("sets", s.Sets); err != nil {
		return nil, err
	}
	if m.Opens, err = parseSets("opens", s.Opens); err != nil {
		return nil, err
	}
	if m.Closeds, err = parseSets("closeds", s.Closeds); err != nil {
		return nil, err
	}
	return m, nil
}

func parseSets(field string, in []string) ([]interval.Set, error) {
	out := make([]interval.Set, len(in))
	for i, text := range in {
		s, err := interval.Parse(text)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", field, i, err)
		}
		out[i] = s
	}
	return out, nil
}

func buildMeasure(spec MeasureSpec) (space.Probability[interval.Set], error) {
	var none space.Probability[interval.Set]
	switch spec.Kind {
	case MeasureUniform:
		return space.NewProbability[interval.Set](top, interval.Uniform{}.String(), interval.Uniform{})

	case MeasureUniformOn:
		a, err := unit.Parse(spec.A)
		if err != nil {
			return none, fmt.Errorf("a: %w", err)
		}
		b, err := unit.Parse(spec.B)
		if err != nil {
			return none, fmt.Errorf("b: %w", err)
		}
		m, err := interval.NewUniformOn(a, b)
		if err != nil {
			return none, err
		}
		return space.NewProbability[interval.Set](top, m.String(), m)

	case MeasureDirac:
		x, err := unit.Parse(spec.At)
		if err != nil {
			return none, fmt.Errorf("at: %w", err)
		}
		m := interval.Dirac{X: x}
		return space.NewProbability[interval.Set](top, m.String(), m)

	case MeasureAtoms:
		atoms := make([]interval.Atom, len(spec.Atoms))
		for i, a := range spec.Atoms {
			x, err := unit.Parse(a.At)
			if err != nil {
				return none, fmt.Errorf("atoms[%d].at: %w", i, err)
			}
			w, err := unit.Parse(a.Weight)
			if err != nil {
				return none, fmt.Errorf("atoms[%d].weight: %w", i, err)
			}
			atoms[i] = interval.Atom{At: x, Weight: w}
		}
		m, err := interval.NewAtoms(atoms...)
		if err != nil {
			return none, err
		}
		return space.NewProbability[interval.Set](top, m.String(), m)

	case MeasureMixture:
		parts := make([]space.Component[interval.Set], len(spec.Parts))
		names := make([]string, len(spec.Parts))
		for i, p := range spec.Parts {
			w, err := unit.Parse(p.Weight)
			if err != nil {
				return none, fmt.Errorf("parts[%d].weight: %w", i, err)
			}
			m, err := buildMeasure(p.Measure)
			if err != nil {
				return none, fmt.Errorf("parts[%d].measure: %w", i, err)
			}
			parts[i] = space.Component[interval.Set]{Weight: w, Measure: m}
			names[i] = w.String() + "*" + m.Name()
		}
		m, err := space.NewMixture(parts...)
		if err != nil {
			return none, err
		}
		return space.NewProbability[interval.Set](top, "mixture("+strings.Join(names, ", ")+")", m)
	}
	return none, fmt.Errorf("unknown measure kind %q", spec.Kind)
}

func buildPath(spec PathSpec) (measureseq.Path[interval.Set], error) {
	switch spec.Kind {
	case PathSteady:
		if spec.Measure == nil {
			return nil, fmt.Errorf("steady needs measure")
		}
		m, err := buildMeasure(*spec.Measure)
		if err != nil {
			return nil, fmt.Errorf("measure: %w", err)
		}
		return measureseq.NewSteady(m), nil

	case PathBlend:
		if spec.From == nil || spec.To == nil {
			return nil, fmt.Errorf("blend needs from and to")
		}
		from, err := buildMeasure(*spec.From)
		if err != nil {
			return nil, fmt.Errorf("from: %w", err)
		}
		to, err := buildMeasure(*spec.To)
		if err != nil {
			return nil, fmt.Errorf("to: %w", err)
		}
		return measureseq.NewBlend(from, to), nil

	case PathDrift:
		x, err := unit.Parse(spec.At)
		if err != nil {
			return nil, fmt.Errorf("at: %w", err)
		}
		d, err := unit.ParseDelta(spec.Offset)
		if err != nil {
			return nil, fmt.Errorf("offset: %w", err)
		}
		drift, err := interval.NewDrift(x, d)
		if err != nil {
			return nil, err
		}
		return drift, nil
	}
	return nil, fmt.Errorf("unknown path kind %q", spec.Kind)
}
