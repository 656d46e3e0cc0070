package engine

import "sync/atomic"

// SeqClock hands out call sequence numbers.
// Implemented by Clock (production) and testutil.DeterministicClock (tests).
type SeqClock interface {
	Next() int64
}

// Clock is a monotonic logical clock for call ordering.
//
// Every call is stamped with a strictly increasing seq from this clock, so
// stored calls order deterministically without wall-clock timestamps.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock that resumes after start.
// Used when reopening a store that already holds calls.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
