package testutil

import "sync"

// DeterministicClock is the engine.Sequencer used by the conformance
// harness. Every scenario starts from seq 0, so a golden trace records the
// same seq values on every run, and Reset lets one clock serve several
// scenarios in a row.
//
// Safe for concurrent use.
type DeterministicClock struct {
	mu  sync.Mutex
	seq int64
}

// NewDeterministicClock returns a clock whose first Next is 1.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Next stamps the next revision, transition, or event.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current is the last seq handed out, or 0 before the first Next. The
// harness records it after read-only steps, which do not advance the clock.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset rewinds to 0.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}

// AdvanceTo moves the clock forward to seq; it never moves backwards. The
// engine calls it on startup with the highest stored seq.
func (c *DeterministicClock) AdvanceTo(seq int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = max(c.seq, seq)
}
