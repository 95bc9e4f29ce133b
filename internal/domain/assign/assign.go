// Package assign picks the two anonymous participants for a battle.
package assign

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Assigner draws battle participants from a model pool. The randomness
// source is injectable so tests can pin the exact A/B assignment. Safe
// for concurrent use; rand.Rand itself is not.
type Assigner struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// Option applies a configuration option to the Assigner.
type Option func(*Assigner)

// WithRand sets the random source. Pass rand.New(rand.NewSource(seed))
// for deterministic assignment.
func WithRand(r *rand.Rand) Option {
	return func(a *Assigner) {
		if r != nil {
			a.rng = r
		}
	}
}

// WithSeed seeds a fresh random source.
func WithSeed(seed int64) Option {
	return func(a *Assigner) {
		a.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // assignment shuffling, not crypto
	}
}

// New constructs an Assigner. Without options it is time-seeded.
func New(opts ...Option) *Assigner {
	a := &Assigner{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // assignment shuffling, not crypto
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Pick draws two distinct models uniformly at random without replacement.
// The first return value backs "Assistant A", the second "Assistant B".
func (a *Assigner) Pick(pool []string) (string, string, error) {
	if len(pool) < 2 {
		return "", "", fmt.Errorf("%w: have %d models, need 2", ErrInsufficientPool, len(pool))
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	i := a.rng.Intn(len(pool))
	j := a.rng.Intn(len(pool) - 1)
	if j >= i {
		j++
	}
	return pool[i], pool[j], nil
}
