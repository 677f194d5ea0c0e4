package engine

import "sync/atomic"

// Sequencer issues the seq values stamped on revisions, status changes, and
// events. Implementations must be monotonic and safe for concurrent use.
type Sequencer interface {
	Next() int64
	AdvanceTo(seq int64)
}

// Clock is the monotonic logical clock that stamps every revision, status
// change, and event. Ordering in the store never depends on wall time.
//
// Safe for concurrent use.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last issued sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// AdvanceTo moves the clock forward to at least seq. It never moves the
// clock backwards.
func (c *Clock) AdvanceTo(seq int64) {
	for {
		cur := c.seq.Load()
		if cur >= seq || c.seq.CompareAndSwap(cur, seq) {
			return
		}
	}
}
