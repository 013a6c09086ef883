package testutil

import "sync"

// StepCounter numbers trace steps. The first call to Next returns 1.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type StepCounter struct {
	mu  sync.Mutex
	seq int
}

// Next increments and returns the step number.
func (c *StepCounter) Next() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the last step number handed out.
func (c *StepCounter) Current() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset starts numbering again from 1.
func (c *StepCounter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
