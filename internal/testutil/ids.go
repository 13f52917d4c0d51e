package testutil

import (
	"fmt"
	"sync"

	"github.com/roach88/portmanteau/internal/store"
)

// DefaultRunID is the base used when a scenario names no run id.
const DefaultRunID = "test-run"

var _ store.IDGenerator = (*FixedIDGenerator)(nil)

// FixedIDGenerator numbers run ids from a fixed base: base-1, base-2, ...
//
// Thread-safety: safe for concurrent use via internal mutex.
type FixedIDGenerator struct {
	mu   sync.Mutex
	base string
	n    int
}

// NewFixedIDGenerator creates a generator for base. An empty base uses
// DefaultRunID.
func NewFixedIDGenerator(base string) *FixedIDGenerator {
	if base == "" {
		base = DefaultRunID
	}
	return &FixedIDGenerator{base: base}
}

// Generate returns the next id.
func (g *FixedIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.base, g.n)
}
