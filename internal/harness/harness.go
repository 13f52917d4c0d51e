package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/portmanteau/internal/criteria"
	"github.com/roach88/portmanteau/internal/interval"
	"github.com/roach88/portmanteau/internal/ir"
	"github.com/roach88/portmanteau/internal/store"
	"github.com/roach88/portmanteau/internal/testutil"
)

// Harness runs scenarios against a ledger.
type Harness struct {
	store  *store.Store
	seq    store.Sequencer
	ids    store.IDGenerator
	logger *slog.Logger
}

// Option configures a run.
type Option func(*Harness)

// WithLogger sets the logger passed to the derivation. The default
// discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) { h.logger = logger }
}

// WithStore records into st instead of a fresh in-memory ledger, stamping
// rows from seq and naming runs with ids.
func WithStore(st *store.Store, seq store.Sequencer, ids store.IDGenerator) Option {
	return func(h *Harness) {
		h.store, h.seq, h.ids = st, seq, ids
	}
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Build the limit, sequence and set families
//  2. Derive Liminf, Limsup and Pointwise witnesses for the target sets
//  3. Check the extra open and closed families directly
//  4. Record every witness in the ledger and read them back
//  5. Evaluate assertions
//
// The returned error reports scenarios that cannot be built or recorded.
// Criterion failures and failed assertions land in Result.Errors.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(h)
	}
	if h.store == nil {
		st, err := store.Open(store.MemoryPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		defer st.Close()
		h.store = st
		h.seq = testutil.NewDeterministicClock()
		h.ids = testutil.NewFixedIDGenerator(scenario.RunID)
	}
	return h.run(context.Background(), scenario)
}

func (h *Harness) run(ctx context.Context, scenario *Scenario) (*Result, error) {
	model, err := Build(scenario, h.logger)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	p := model.Problem
	result := NewResult(scenario.Name)

	var (
		payloads []ir.IRObject
		derived  *criteria.Derivation[interval.Set]
	)
	if len(model.Sets) > 0 {
		d, err := criteria.Derive(p, model.Sets)
		if err != nil {
			result.AddError(fmt.Sprintf("derive: %v", err))
		} else {
			derived = &d
			payloads = append(payloads,
				criteria.Encode[interval.Set](top, d.Liminf),
				criteria.Encode[interval.Set](top, d.Limsup),
				criteria.Encode[interval.Set](top, d.Pointwise))
		}
	}
	if len(model.Opens) > 0 {
		w, err := criteria.CheckLiminf(p, model.Opens)
		if err != nil {
			result.AddError(fmt.Sprintf("opens: %v", err))
		} else {
			payloads = append(payloads, criteria.Encode[interval.Set](top, w))
		}
	}
	if len(model.Closeds) > 0 {
		w, err := criteria.CheckLimsup(p, model.Closeds)
		if err != nil {
			result.AddError(fmt.Sprintf("closeds: %v", err))
		} else {
			payloads = append(payloads, criteria.Encode[interval.Set](top, w))
		}
	}

	digest, err := ir.ScenarioDigest(scenario.IR())
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	run, _, err := h.store.Record(ctx, h.seq, store.Run{
		ID:       h.ids.Generate(),
		Scenario: scenario.Name,
		Digest:   digest,
	}, payloads)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	result.RunID, result.Digest, result.Seq = run.ID, run.Digest, run.Seq

	stored, err := h.store.ReadWitnesses(ctx, run.ID)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	result.Witnesses = stored

	actx := &AssertionContext{Model: model, Derived: derived, Witnesses: stored}
	for _, msg := range EvaluateAssertions(actx, scenario.Assertions) {
		result.AddError(msg)
	}

	h.logger.Info("scenario run",
		"scenario", scenario.Name,
		"run", run.ID,
		"witnesses", len(stored),
		"pass", result.Pass)
	return result, nil
}
