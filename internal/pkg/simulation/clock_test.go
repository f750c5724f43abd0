package simulation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClockAdvance(t *testing.T) {
	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewClock(start)

	assert.Equal(t, start, clock.Now())

	got := clock.Advance(time.Hour)
	assert.Equal(t, start.Add(time.Hour), got)
	assert.Equal(t, start.Add(time.Hour), clock.Now())
}

func TestClockIgnoresNegativeAdvance(t *testing.T) {
	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewClock(start)

	clock.Advance(-time.Hour)
	assert.Equal(t, start, clock.Now())
}

func TestClockSetOnlyMovesForward(t *testing.T) {
	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewClock(start)

	clock.Set(start.Add(48 * time.Hour))
	assert.Equal(t, start.Add(48*time.Hour), clock.Now())

	// A stale restore must not rewind the clock
	clock.Set(start.Add(time.Hour))
	assert.Equal(t, start.Add(48*time.Hour), clock.Now())
}
