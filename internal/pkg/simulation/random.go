// internal/pkg/simulation/random.go
package simulation

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// Resolver draws bounded random values for uncertain durations, costs and
// yields. Values follow a PERT-style distribution approximated with a normal
// draw around the expected value and hard-clamped to [min, max]. This is a
// normal approximation, not a true Beta draw; the clamp is part of the
// contract.
type Resolver struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewResolver creates a resolver seeded from wall-clock time
func NewResolver() *Resolver {
	return NewSeededResolver(time.Now().UnixNano())
}

// NewSeededResolver creates a resolver with a fixed seed for replayable runs
func NewSeededResolver(seed int64) *Resolver {
	return &Resolver{rng: rand.New(rand.NewSource(seed))}
}

// Resolve returns a value in [min, max] biased toward the midpoint
func (r *Resolver) Resolve(min, max float64) float64 {
	return r.ResolveWithMode(min, (min+max)/2, max)
}

// ResolveWithMode returns a value in [min, max] biased toward mode.
// Expected value and spread follow the PERT rules:
// expected = (min + 4*mode + max) / 6, stddev = (max - min) / 6.
func (r *Resolver) ResolveWithMode(min, mode, max float64) float64 {
	if min >= max {
		return min
	}

	expected := (min + 4*mode + max) / 6
	stddev := (max - min) / 6

	r.mu.Lock()
	// u1 in (0, 1] keeps the log finite
	u1 := 1 - r.rng.Float64()
	u2 := r.rng.Float64()
	r.mu.Unlock()

	// Box-Muller transform
	z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
	value := expected + z*stddev

	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// RollPercent draws an integer in [1, 100], used for breakdown checks
func (r *Resolver) RollPercent() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(100) + 1
}
