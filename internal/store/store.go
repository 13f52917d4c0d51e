package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// MemoryPath opens a private in-memory ledger.
const MemoryPath = ":memory:"

// pragma is one connection setting applied at open.
type pragma struct {
	name  string
	value string
}

var pragmas = []pragma{
	{"journal_mode", "WAL"},
	{"synchronous", "NORMAL"},
	{"busy_timeout", "5000"},
	{"foreign_keys", "ON"},
}

// migrations[i] upgrades a ledger from user_version i to i+1. schema.sql is
// always the version 0 baseline; append here rather than editing it.
var migrations = []string{
	// 1: look up runs of one scenario by digest.
	`CREATE INDEX IF NOT EXISTS idx_runs_digest ON runs(digest)`,
}

var currentSchemaVersion = len(migrations)

// Store is the witness ledger.
type Store struct {
	db *sql.DB
}

// Open creates or opens a ledger at the given path, applying pragmas and
// migrations. Opening an existing ledger again is safe.
//
// With MemoryPath the ledger lives only as long as the Store; the pool is
// pinned to one connection so every query sees the same database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer, and :memory: is per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initialize(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initialize(db *sql.DB) error {
	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	for _, p := range pragmas {
		stmt := fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("pragma %s: %w", p.name, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return migrate(db)
}

// migrate brings user_version up to currentSchemaVersion. Each step commits
// together with its version bump, so an interrupted upgrade resumes cleanly.
func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	for v := version; v < len(migrations); v++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("migration %d: %w", v+1, err)
		}
		if _, err := tx.Exec(migrations[v]); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: %w", v+1, err)
		}
		// PRAGMA does not accept bound parameters.
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", v+1)); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: set user_version: %w", v+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d: commit: %w", v+1, err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// LastSeq returns the highest seq recorded in the ledger, or 0 when empty.
// A Clock resumed at this value keeps new rows ordered after old ones.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	const q = `SELECT MAX(
		(SELECT COALESCE(MAX(seq), 0) FROM runs),
		(SELECT COALESCE(MAX(seq), 0) FROM witnesses))`
	var seq int64
	if err := s.db.QueryRowContext(ctx, q).Scan(&seq); err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq, nil
}

func (s *Store) verifyPragma(name, want string) error {
	var got string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&got); err != nil {
		return fmt.Errorf("query %s: %w", name, err)
	}
	if got != want {
		return fmt.Errorf("%s = %q, want %q", name, got, want)
	}
	return nil
}
