package harness

import "github.com/roach88/portmanteau/internal/store"

// Result is the outcome of a scenario run.
type Result struct {
	// Scenario is the scenario name.
	Scenario string `json:"scenario"`

	// Source is the scenario file, set when run through RunSuite.
	Source string `json:"source,omitempty"`

	// Pass is true when derivation succeeded and every assertion held.
	Pass bool `json:"pass"`

	// RunID, Digest and Seq identify the ledger run.
	RunID  string `json:"run_id"`
	Digest string `json:"digest"`
	Seq    int64  `json:"seq"`

	// Witnesses are the stored witnesses in ledger order.
	Witnesses []store.Witness `json:"witnesses"`

	// Errors contains derivation and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(scenario string) *Result {
	return &Result{
		Scenario:  scenario,
		Pass:      true,
		Witnesses: []store.Witness{},
		Errors:    []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
