// Package keyedlock provides per-key mutual exclusion with a bounded wait.
//
// Directives for different sessions proceed in parallel; directives for
// the same session serialize on its key. Lock acquisition never blocks
// indefinitely: a configured wait bound (or context cancellation) turns
// into a retryable error instead of a hung request.
package keyedlock

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultMaxWait bounds how long Acquire blocks before giving up.
const DefaultMaxWait = 5 * time.Second

// entry is the lock state for one key. refs counts holders plus waiters
// so idle entries can be dropped from the map.
type entry struct {
	ch   chan struct{}
	refs int
}

// Registry hands out per-key locks on demand.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	maxWait time.Duration
}

// Option applies a configuration option to the Registry.
type Option func(*Registry)

// WithMaxWait sets the acquisition wait bound.
func WithMaxWait(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.maxWait = d
		}
	}
}

// NewRegistry creates a Registry with configuration options.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[string]*entry),
		maxWait: DefaultMaxWait,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Acquire takes the exclusive lock for key, waiting up to the registry's
// bound. It returns a release func on success. On timeout or context
// cancellation it returns ErrTimeout; the caller may retry since no state
// has been touched.
func (r *Registry) Acquire(ctx context.Context, key string) (func(), error) {
	r.mu.Lock()
	e, ok := r.entries[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		r.entries[key] = e
	}
	e.refs++
	r.mu.Unlock()

	timer := time.NewTimer(r.maxWait)
	defer timer.Stop()

	select {
	case e.ch <- struct{}{}:
		return func() {
			<-e.ch
			r.unref(key, e)
		}, nil
	case <-timer.C:
		r.unref(key, e)
		return nil, fmt.Errorf("%w: key %q after %s", ErrTimeout, key, r.maxWait)
	case <-ctx.Done():
		r.unref(key, e)
		return nil, fmt.Errorf("%w: key %q: %v", ErrTimeout, key, ctx.Err())
	}
}

// AcquirePair takes both keys in a fixed total order (lexical) so two
// concurrent pair acquisitions can never deadlock. Releasing is a single
// func covering both keys.
func (r *Registry) AcquirePair(ctx context.Context, a, b string) (func(), error) {
	first, second := a, b
	if second < first {
		first, second = second, first
	}
	releaseFirst, err := r.Acquire(ctx, first)
	if err != nil {
		return nil, err
	}
	if first == second {
		return releaseFirst, nil
	}
	releaseSecond, err := r.Acquire(ctx, second)
	if err != nil {
		releaseFirst()
		return nil, err
	}
	return func() {
		releaseSecond()
		releaseFirst()
	}, nil
}

// Size returns the number of keys currently tracked.
func (r *Registry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) unref(key string, e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(r.entries, key)
	}
}
