// Package store is the SQLite-backed witness ledger.
//
// A run records one verification of a scenario; each witness derived in
// that run is stored as canonical JSON alongside its content-addressed id.
//
// # Ordering
//
// Every row carries a logical seq from a Clock. Reads are ordered
// ORDER BY seq ASC, id COLLATE BINARY ASC so two replays of the same
// ledger list rows identically.
//
// # Idempotency
//
// Writes use ON CONFLICT DO NOTHING. Re-recording a witness already
// stored for a run is a no-op.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
