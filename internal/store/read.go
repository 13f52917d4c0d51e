package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/portmanteau/internal/ir"
)

// ErrRunNotFound is returned by ReadRun for an unknown id.
var ErrRunNotFound = errors.New("run not found")

// ReadRun returns a single run by id.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	var r Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, scenario, digest, seq FROM runs WHERE id = ?
	`, id).Scan(&r.ID, &r.Scenario, &r.Digest, &r.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run: %w", err)
	}
	return r, nil
}

// ListRuns returns every run ordered by seq.
// Returns an empty slice (not nil) for an empty ledger.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	return s.queryRuns(ctx, `
		SELECT id, scenario, digest, seq FROM runs
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
}

// RunsForDigest returns the runs recorded for one scenario digest.
func (s *Store) RunsForDigest(ctx context.Context, digest string) ([]Run, error) {
	return s.queryRuns(ctx, `
		SELECT id, scenario, digest, seq FROM runs
		WHERE digest = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, digest)
}

func (s *Store) queryRuns(ctx context.Context, query string, args ...any) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Scenario, &r.Digest, &r.Seq); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadWitnesses returns the witnesses of a run with deterministic ordering:
// ORDER BY seq ASC, id COLLATE BINARY ASC.
//
// Returns an empty slice (not nil) if the run has no witnesses.
func (s *Store) ReadWitnesses(ctx context.Context, runID string) ([]Witness, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, kind, payload, seq
		FROM witnesses
		WHERE run_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query witnesses: %w", err)
	}
	defer rows.Close()

	witnesses := []Witness{}
	for rows.Next() {
		w, err := scanWitness(rows)
		if err != nil {
			return nil, err
		}
		witnesses = append(witnesses, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate witnesses: %w", err)
	}
	return witnesses, nil
}

func scanWitness(rows *sql.Rows) (Witness, error) {
	var (
		w       Witness
		payload string
	)
	if err := rows.Scan(&w.ID, &w.RunID, &w.Kind, &payload, &w.Seq); err != nil {
		return Witness{}, fmt.Errorf("scan witness: %w", err)
	}
	obj, err := ir.ParseObject([]byte(payload))
	if err != nil {
		return Witness{}, fmt.Errorf("witness %s: parse payload: %w", w.ID, err)
	}
	w.Payload = obj
	return w, nil
}
