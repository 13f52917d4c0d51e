package criteria

import (
	"fmt"

	"github.com/roach88/portmanteau/internal/ir"
	"github.com/roach88/portmanteau/internal/space"
)

// Encode renders a witness in its canonical IR form. Sets are written with
// top.Format and values as canonical decimal strings.
func Encode[S any](top space.Topology[S], w Witness[S]) ir.IRObject {
	checks := make(ir.IRArray, len(w.Checks))
	for i, c := range w.Checks {
		steps := make(ir.IRArray, len(c.Steps))
		for j, st := range c.Steps {
			steps[j] = ir.Object(
				ir.O("rule", ir.IRString(st.Rule)),
				ir.O("detail", ir.IRString(st.Detail)),
			)
		}
		checks[i] = ir.Object(
			ir.O("set", ir.IRString(top.Format(c.Set))),
			ir.O("mass", ir.IRString(c.Mass.String())),
			ir.O("liminf", ir.IRString(c.Liminf.String())),
			ir.O("limsup", ir.IRString(c.Limsup.String())),
			ir.O("steps", steps),
		)
	}
	return ir.Object(
		ir.O("ir_version", ir.IRString(ir.IRVersion)),
		ir.O("kind", ir.IRString(string(w.Kind))),
		ir.O("checks", checks),
	)
}

// ID returns the content-addressed identity of a witness.
func ID[S any](top space.Topology[S], w Witness[S]) (string, error) {
	return ir.WitnessID(Encode(top, w))
}

// Summary is the set-level view of a stored witness.
type Summary struct {
	Kind Kind
	Sets []string
}

// Summarize reads the kind and set names back from an encoded witness.
func Summarize(obj ir.IRObject) (Summary, error) {
	kind := Kind(obj.Get("kind"))
	switch kind {
	case KindPointwise, KindLiminf, KindLimsup:
	default:
		return Summary{}, fmt.Errorf("unknown witness kind %q", kind)
	}
	checks, ok := obj["checks"].(ir.IRArray)
	if !ok {
		return Summary{}, fmt.Errorf("witness has no checks array")
	}
	s := Summary{Kind: kind, Sets: make([]string, 0, len(checks))}
	for i, c := range checks {
		co, ok := c.(ir.IRObject)
		if !ok {
			return Summary{}, fmt.Errorf("checks[%d] is not an object", i)
		}
		s.Sets = append(s.Sets, co.Get("set"))
	}
	return s, nil
}
