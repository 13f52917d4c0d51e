package cli

import (
	"fmt"
	"strings"

	"github.com/roach88/portmanteau/internal/criteria"
	"github.com/roach88/portmanteau/internal/ir"
	"github.com/roach88/portmanteau/internal/store"
)

// CheckView is one set of a witness with its exact values.
type CheckView struct {
	Set    string `json:"set"`
	Mass   string `json:"mass"`
	Liminf string `json:"liminf"`
	Limsup string `json:"limsup"`
}

// WitnessView is a stored witness as shown by verify and trace.
type WitnessView struct {
	Seq    int64       `json:"seq"`
	ID     string      `json:"id"`
	Kind   string      `json:"kind"`
	Checks []CheckView `json:"checks"`
}

// RunView is a stored run with its witnesses.
type RunView struct {
	Seq       int64         `json:"seq"`
	ID        string        `json:"id"`
	Scenario  string        `json:"scenario"`
	Digest    string        `json:"digest"`
	Pass      *bool         `json:"pass,omitempty"`
	Witnesses []WitnessView `json:"witnesses"`
	Errors    []string      `json:"errors,omitempty"`
}

func newWitnessView(w store.Witness) (WitnessView, error) {
	summary, err := criteria.Summarize(w.Payload)
	if err != nil {
		return WitnessView{}, fmt.Errorf("witness %s: %w", w.ID, err)
	}
	checks, _ := w.Payload["checks"].(ir.IRArray)
	view := WitnessView{
		Seq:    w.Seq,
		ID:     w.ID,
		Kind:   string(summary.Kind),
		Checks: make([]CheckView, 0, len(summary.Sets)),
	}
	for i, set := range summary.Sets {
		co, _ := checks[i].(ir.IRObject)
		view.Checks = append(view.Checks, CheckView{
			Set:    set,
			Mass:   co.Get("mass"),
			Liminf: co.Get("liminf"),
			Limsup: co.Get("limsup"),
		})
	}
	return view, nil
}

func newRunView(run store.Run, witnesses []store.Witness) (RunView, error) {
	view := RunView{
		Seq:       run.Seq,
		ID:        run.ID,
		Scenario:  run.Scenario,
		Digest:    run.Digest,
		Witnesses: make([]WitnessView, 0, len(witnesses)),
	}
	for _, w := range witnesses {
		wv, err := newWitnessView(w)
		if err != nil {
			return RunView{}, err
		}
		view.Witnesses = append(view.Witnesses, wv)
	}
	return view, nil
}

// String renders the run as indented text.
func (v RunView) String() string {
	var b strings.Builder
	mark := "•"
	if v.Pass != nil {
		mark = "✓"
		if !*v.Pass {
			mark = "✗"
		}
	}
	fmt.Fprintf(&b, "%s %s (run %s, seq %d)\n", mark, v.Scenario, v.ID, v.Seq)
	fmt.Fprintf(&b, "  digest %s\n", v.Digest)
	for _, w := range v.Witnesses {
		fmt.Fprintf(&b, "  %-13s %s (seq %d)\n", w.Kind, shortID(w.ID), w.Seq)
		for _, c := range w.Checks {
			fmt.Fprintf(&b, "    %-20s μ=%s liminf=%s limsup=%s\n", c.Set, c.Mass, c.Liminf, c.Limsup)
		}
	}
	for _, e := range v.Errors {
		for _, line := range strings.Split(e, "\n") {
			fmt.Fprintf(&b, "  %s\n", line)
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
