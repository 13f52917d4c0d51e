// Package testutil holds deterministic stand-ins for the ledger's clock and
// run id generator, so repeated runs of a scenario store identical rows.
package testutil

import (
	"sync"

	"github.com/roach88/portmanteau/internal/store"
)

var _ store.Sequencer = (*DeterministicClock)(nil)

// DeterministicClock is a resettable logical clock.
//
// Unlike store.Clock it can be rewound, so one scenario can be replayed with
// identical seq values.
type DeterministicClock struct {
	mu  sync.Mutex
	seq int64
}

// NewDeterministicClock creates a clock whose first Next returns 1.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Next increments and returns the next sequence number.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the last issued sequence number.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset rewinds the clock to 0.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
