package harness

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/portmanteau/internal/ir"
)

// Snapshot renders a result's stored witnesses as canonical JSON. Only the
// set values are kept (kind, set, mass, liminf, limsup); step details and
// ids are left out so wording changes do not churn golden files.
func Snapshot(result *Result) ([]byte, error) {
	witnesses := make(ir.IRArray, len(result.Witnesses))
	for i, w := range result.Witnesses {
		checks, ok := w.Payload["checks"].(ir.IRArray)
		if !ok {
			return nil, fmt.Errorf("witness %s: no checks array", w.ID)
		}
		values := make(ir.IRArray, len(checks))
		for j, c := range checks {
			co, ok := c.(ir.IRObject)
			if !ok {
				return nil, fmt.Errorf("witness %s: checks[%d] is not an object", w.ID, j)
			}
			values[j] = ir.Object(
				ir.O("set", ir.IRString(co.Get("set"))),
				ir.O("mass", ir.IRString(co.Get("mass"))),
				ir.O("liminf", ir.IRString(co.Get("liminf"))),
				ir.O("limsup", ir.IRString(co.Get("limsup"))),
			)
		}
		witnesses[i] = ir.Object(
			ir.O("kind", ir.IRString(w.Kind)),
			ir.O("checks", values),
		)
	}
	return ir.MarshalCanonical(ir.Object(
		ir.O("scenario", ir.IRString(result.Scenario)),
		ir.O("witnesses", witnesses),
	))
}

// RunWithGolden executes a scenario and compares its witnesses against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	snapshot, err := Snapshot(result)
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, snapshot)
	return nil
}
