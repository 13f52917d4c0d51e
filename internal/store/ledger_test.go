package store

import (
	"context"
	"errors"
	"testing"

	"github.com/roach88/portmanteau/internal/ir"
)

func witnessPayload(kind, set string) ir.IRObject {
	return ir.Object(
		ir.O("ir_version", ir.IRString(ir.IRVersion)),
		ir.O("kind", ir.IRString(kind)),
		ir.O("checks", ir.IRArray{ir.Object(
			ir.O("set", ir.IRString(set)),
			ir.O("mass", ir.IRString("0.5")),
		)}),
	)
}

func TestRecord_SameRunTwice(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	clock := NewClock()

	p := witnessPayload("liminf_open", "[0,0.5)")
	first, stored, err := s.Record(ctx, clock, Run{ID: "run-1", Scenario: "blend", Digest: "d1"}, []ir.IRObject{p})
	if err != nil {
		t.Fatalf("first Record() failed: %v", err)
	}
	if first.Seq != 1 || len(stored) != 1 {
		t.Fatalf("first Record() = seq %d, %d witnesses; want 1, 1", first.Seq, len(stored))
	}

	q := witnessPayload("limsup_closed", "[0.5,1]")
	again, added, err := s.Record(ctx, clock, Run{ID: "run-1", Scenario: "other", Digest: "d2"}, []ir.IRObject{p, q})
	if err != nil {
		t.Fatalf("second Record() failed: %v", err)
	}
	if again != first {
		t.Errorf("second Record() run = %+v, want stored %+v", again, first)
	}
	if len(added) != 1 || added[0].Kind != "limsup_closed" {
		t.Errorf("second Record() witnesses = %+v, want only the new limsup_closed", added)
	}

	runs, err := s.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	if len(runs) != 1 || runs[0] != first {
		t.Errorf("ListRuns() = %+v, want [%+v]", runs, first)
	}
	ws, err := s.ReadWitnesses(ctx, "run-1")
	if err != nil {
		t.Fatalf("ReadWitnesses() failed: %v", err)
	}
	if len(ws) != 2 {
		t.Errorf("len(ReadWitnesses()) = %d, want 2", len(ws))
	}
}

func TestRecord_RepeatedPayloadStoredOnce(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	p := witnessPayload("pointwise", "{0}")
	_, stored, err := s.Record(ctx, NewClock(), Run{ID: "run-1", Scenario: "s", Digest: "d"}, []ir.IRObject{p, p})
	if err != nil {
		t.Fatalf("Record() failed: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("len(stored) = %d, want 1", len(stored))
	}

	got, err := s.ReadWitnesses(ctx, "run-1")
	if err != nil {
		t.Fatalf("ReadWitnesses() failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != stored[0].ID || got[0].Seq != 2 {
		t.Errorf("ReadWitnesses() = %+v", got)
	}
	if id := ir.MustWitnessID(got[0].Payload); id != stored[0].ID {
		t.Errorf("payload round trip changed id: %s != %s", id, stored[0].ID)
	}
}

func TestInsertWitness_RequiresRun(t *testing.T) {
	s := openTemp(t)

	p := witnessPayload("pointwise", "{0}")
	_, err := insertWitness(context.Background(), s.db, Witness{ID: "w", RunID: "missing", Kind: "pointwise", Payload: p, Seq: 1})
	if err == nil {
		t.Error("expected foreign key violation, got nil")
	}
}

func TestRecord(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	clock := NewClock()

	payloads := []ir.IRObject{
		witnessPayload("liminf_open", "[0,0.5)"),
		witnessPayload("limsup_closed", "[0.5,1]"),
		witnessPayload("pointwise", "[0,0.5]"),
	}
	run, stored, err := s.Record(ctx, clock, Run{ID: "run-a", Scenario: "blend", Digest: "d1"}, payloads)
	if err != nil {
		t.Fatalf("Record() failed: %v", err)
	}
	if run.Seq != 1 {
		t.Errorf("run.Seq = %d, want 1", run.Seq)
	}
	if len(stored) != 3 {
		t.Fatalf("len(stored) = %d, want 3", len(stored))
	}

	got, err := s.ReadWitnesses(ctx, "run-a")
	if err != nil {
		t.Fatalf("ReadWitnesses() failed: %v", err)
	}
	wantKinds := []string{"liminf_open", "limsup_closed", "pointwise"}
	for i, w := range got {
		if w.Kind != wantKinds[i] {
			t.Errorf("witness %d kind = %q, want %q", i, w.Kind, wantKinds[i])
		}
		if w.Seq != int64(i+2) {
			t.Errorf("witness %d seq = %d, want %d", i, w.Seq, i+2)
		}
		if w.ID != stored[i].ID {
			t.Errorf("witness %d id = %s, want %s", i, w.ID, stored[i].ID)
		}
	}

	last, err := s.LastSeq(ctx)
	if err != nil {
		t.Fatalf("LastSeq() failed: %v", err)
	}
	if last != 4 || clock.Current() != 4 {
		t.Errorf("LastSeq() = %d, clock = %d; want 4", last, clock.Current())
	}
}

func TestRecord_ResumedClockOrdersAfterExisting(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	p := []ir.IRObject{witnessPayload("pointwise", "{0}")}
	if _, _, err := s.Record(ctx, NewClock(), Run{ID: "run-b", Scenario: "s", Digest: "d"}, p); err != nil {
		t.Fatalf("Record() failed: %v", err)
	}

	last, err := s.LastSeq(ctx)
	if err != nil {
		t.Fatalf("LastSeq() failed: %v", err)
	}
	// A later run with a lexically smaller id still lists second.
	if _, _, err := s.Record(ctx, NewClockAt(last), Run{ID: "run-a", Scenario: "s", Digest: "d"}, p); err != nil {
		t.Fatalf("Record() failed: %v", err)
	}

	runs, err := s.RunsForDigest(ctx, "d")
	if err != nil {
		t.Fatalf("RunsForDigest() failed: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "run-b" || runs[1].ID != "run-a" {
		t.Errorf("RunsForDigest() = %+v", runs)
	}
}

func TestReadRun(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	if _, _, err := s.Record(ctx, NewClockAt(6), Run{ID: "run-1", Scenario: "drift", Digest: "d"}, nil); err != nil {
		t.Fatalf("Record() failed: %v", err)
	}
	r, err := s.ReadRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("ReadRun() failed: %v", err)
	}
	if r.Scenario != "drift" || r.Seq != 7 {
		t.Errorf("ReadRun() = %+v", r)
	}

	if _, err := s.ReadRun(ctx, "nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("ReadRun(nope) error = %v, want ErrRunNotFound", err)
	}
}

func TestEmptyLedgerReturnsEmptySlices(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	runs, err := s.ListRuns(ctx)
	if err != nil || runs == nil || len(runs) != 0 {
		t.Errorf("ListRuns() = %v, %v; want empty non-nil", runs, err)
	}
	ws, err := s.ReadWitnesses(ctx, "none")
	if err != nil || ws == nil || len(ws) != 0 {
		t.Errorf("ReadWitnesses() = %v, %v; want empty non-nil", ws, err)
	}
	last, err := s.LastSeq(ctx)
	if err != nil || last != 0 {
		t.Errorf("LastSeq() = %d, %v; want 0", last, err)
	}
}

func TestClock(t *testing.T) {
	c := NewClockAt(10)
	if got := c.Next(); got != 11 {
		t.Errorf("Next() = %d, want 11", got)
	}
	if got := c.Current(); got != 11 {
		t.Errorf("Current() = %d, want 11", got)
	}
}

func TestUUIDv7Generator(t *testing.T) {
	var g IDGenerator = UUIDv7Generator{}
	a, b := g.Generate(), g.Generate()
	if len(a) != 36 || a == b {
		t.Errorf("Generate() = %q, %q", a, b)
	}
}
