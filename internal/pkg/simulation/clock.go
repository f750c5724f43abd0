// internal/pkg/simulation/clock.go
package simulation

import (
	"sync"
	"time"
)

// Clock is the game's notion of "now". It only moves when the tick driver
// advances it, never from wall-clock reads, so every duration computation in
// the engine is replayable.
type Clock struct {
	mu  sync.RWMutex
	now time.Time
}

// NewClock creates a clock starting at the given simulated timestamp
func NewClock(start time.Time) *Clock {
	return &Clock{now: start.UTC()}
}

// Now returns the current simulated timestamp
func (c *Clock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Advance moves the clock forward by d and returns the new timestamp.
// Negative durations are ignored; the clock is monotonic.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d > 0 {
		c.now = c.now.Add(d)
	}
	return c.now
}

// Set restores the clock to a persisted timestamp. Moves only forward so a
// stale restore cannot rewind simulated time.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.After(c.now) {
		c.now = t.UTC()
	}
}
