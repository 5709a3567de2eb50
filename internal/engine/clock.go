package engine

import "sync/atomic"

// Clock is the monotonic counter behind fresh-name and fresh-label
// allocation. Every issued value is strictly greater than all earlier
// values for the lifetime of the clock, which is what guarantees that two
// unrelated duplication sites can never share a label. A shared label
// would silently merge distinct computations, so this is a correctness
// invariant, not a convenience.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations),
// although the reduction loop itself is single-threaded.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock starting at a specific sequence number.
// Used to resume a replayed reduction at its last known position.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
// Each call returns a unique, strictly increasing value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
