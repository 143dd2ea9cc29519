package testutil

import "sync"

// SeqClock is a monotonic logical clock for deterministic traces.
//
// Every lifecycle event recorded by the harness gets its seq from one
// SeqClock, so the same scenario produces byte-identical traces across
// runs and golden files stay stable.
//
// Thread-safety: all methods are safe for concurrent use via internal
// mutex (the harness itself is single-goroutine, but tests reuse
// clocks freely).
type SeqClock struct {
	mu  sync.Mutex
	seq int64
}

// NewSeqClock creates a clock starting at 0. The first call to Next
// returns 1.
func NewSeqClock() *SeqClock {
	return &SeqClock{}
}

// Next increments and returns the next sequence number.
func (c *SeqClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the current sequence number without incrementing.
func (c *SeqClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset resets the clock to 0 for test reuse.
func (c *SeqClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
