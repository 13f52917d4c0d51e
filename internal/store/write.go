package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/portmanteau/internal/ir"
)

// Run is one recorded verification of a scenario.
type Run struct {
	ID       string
	Scenario string
	Digest   string // ir.ScenarioDigest of the normalized scenario
	Seq      int64
}

// Witness is a stored witness. Payload is the canonical IR encoding and ID
// its ir.WitnessID.
type Witness struct {
	ID      string
	RunID   string
	Kind    string
	Payload ir.IRObject
	Seq     int64
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// insertRun reports whether the row was new. ON CONFLICT(id) DO NOTHING
// leaves an existing run untouched.
func insertRun(ctx context.Context, db execer, run Run) (bool, error) {
	res, err := db.ExecContext(ctx, `
		INSERT INTO runs (id, scenario, digest, seq)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, run.ID, run.Scenario, run.Digest, run.Seq)
	if err != nil {
		return false, fmt.Errorf("insert run: %w", err)
	}
	return affected(res)
}

// insertWitness stores the canonical payload. It reports false when the run
// already holds a witness with this id.
func insertWitness(ctx context.Context, db execer, w Witness) (bool, error) {
	payload, err := ir.MarshalCanonical(w.Payload)
	if err != nil {
		return false, fmt.Errorf("marshal payload: %w", err)
	}
	res, err := db.ExecContext(ctx, `
		INSERT INTO witnesses (id, run_id, kind, payload, seq)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id, id) DO NOTHING
	`, w.ID, w.RunID, w.Kind, string(payload), w.Seq)
	if err != nil {
		return false, fmt.Errorf("insert witness: %w", err)
	}
	return affected(res)
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// Record writes a run and its witnesses in one transaction. Each row is
// stamped from seq; witness ids are computed from the payloads.
//
// Only rows that were actually inserted are returned. When a run with the
// same id is already in the ledger, the stored run comes back with its
// original seq, and payloads it already holds are skipped.
func (s *Store) Record(ctx context.Context, seq Sequencer, run Run, payloads []ir.IRObject) (Run, []Witness, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, nil, fmt.Errorf("record: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	run.Seq = seq.Next()
	fresh, err := insertRun(ctx, tx, run)
	if err != nil {
		return Run{}, nil, fmt.Errorf("record: %w", err)
	}
	if !fresh {
		err := tx.QueryRowContext(ctx, `
			SELECT id, scenario, digest, seq FROM runs WHERE id = ?
		`, run.ID).Scan(&run.ID, &run.Scenario, &run.Digest, &run.Seq)
		if err != nil {
			return Run{}, nil, fmt.Errorf("record: read existing run: %w", err)
		}
	}

	witnesses := make([]Witness, 0, len(payloads))
	for i, p := range payloads {
		id, err := ir.WitnessID(p)
		if err != nil {
			return Run{}, nil, fmt.Errorf("record: witness %d: %w", i, err)
		}
		w := Witness{ID: id, RunID: run.ID, Kind: p.Get("kind"), Payload: p, Seq: seq.Next()}
		ok, err := insertWitness(ctx, tx, w)
		if err != nil {
			return Run{}, nil, fmt.Errorf("record: witness %d: %w", i, err)
		}
		if ok {
			witnesses = append(witnesses, w)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, nil, fmt.Errorf("record: commit: %w", err)
	}
	return run, witnesses, nil
}
