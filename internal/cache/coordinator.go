package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Producer performs the actual upstream fetch for a key. It is supplied by
// the calling layer and owns its own timeout/retry policy; the coordinator
// never retries it.
type Producer func() ([]byte, error)

// flight is one in-flight fetch. The outcome is written exactly once before
// done is closed, so every attached caller observes the identical result.
type flight struct {
	done  chan struct{}
	value []byte
	meta  Meta
	err   error
}

// Coordinator serializes upstream fetches per key: for a given key, at most
// one producer call is outstanding at any time, and concurrent callers for
// that key await its single outcome rather than issuing duplicate calls.
type Coordinator struct {
	store *Store

	mu      sync.Mutex
	flights map[Key]*flight
}

// NewCoordinator creates a coordinator backed by store.
func NewCoordinator(store *Store) *Coordinator {
	return &Coordinator{
		store:   store,
		flights: make(map[Key]*flight),
	}
}

// Resolve returns the value for key, fetching it with producer when the
// store has no fresh entry.
//
// A fresh entry is returned immediately. Otherwise the caller either joins
// the fetch already in flight for key or starts one; the producer runs
// exactly once per fetch cycle. On producer success the new value is stored
// and returned with zero age. On producer failure a previously stored stale
// value is served with Meta.Stale set; with no previous value the failure
// propagates to every attached caller as ErrUpstreamUnavailable.
//
// ctx bounds only this caller's wait. An expired context abandons the wait
// but never cancels the fetch itself: other callers may still be attached,
// and the completed result populates the store for future ones.
func (c *Coordinator) Resolve(ctx context.Context, key Key, ttl time.Duration, producer Producer) ([]byte, Meta, error) {
	if key.Kind == "" {
		return nil, Meta{}, ErrKeyInvalid
	}

	now := time.Now()
	if e, ok := c.store.Get(key); ok && e.Fresh(now) {
		c.store.recordHit()
		return e.Value, Meta{Age: e.Age(now), TTL: e.TTL}, nil
	}

	// Join-or-create is the one critical section: looking up the in-flight
	// record and registering a new one must be indivisible, or two callers
	// racing on the same stale key would both invoke the producer.
	c.mu.Lock()
	f, joined := c.flights[key]
	if !joined {
		// A racing fetch may have completed between the freshness check
		// and taking the lock; re-check before going upstream again.
		if e, ok := c.store.Get(key); ok && e.Fresh(now) {
			c.mu.Unlock()
			c.store.recordHit()
			return e.Value, Meta{Age: e.Age(now), TTL: e.TTL}, nil
		}
		f = &flight{done: make(chan struct{})}
		c.flights[key] = f
	}
	c.mu.Unlock()

	if joined {
		c.store.recordJoin()
	} else {
		go c.fetch(key, ttl, producer, f)
	}

	select {
	case <-f.done:
		return f.value, f.meta, f.err
	case <-ctx.Done():
		return nil, Meta{}, ctx.Err()
	}
}

// InFlight returns the number of keys currently being fetched.
func (c *Coordinator) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.flights)
}

// fetch runs the producer for one fetch cycle and broadcasts the outcome.
// It runs in its own goroutine, detached from any caller's context, and
// holds no lock while the producer executes. The store write happens before
// the flight is unregistered, so a caller arriving in between sees the
// fresh entry rather than starting a redundant fetch.
func (c *Coordinator) fetch(key Key, ttl time.Duration, producer Producer, f *flight) {
	value, err := producer()
	now := time.Now()

	if err == nil {
		c.store.Put(key, value, ttl, now)
		c.store.recordMiss()
		f.value = value
		f.meta = Meta{TTL: ttl}
	} else {
		c.store.recordUpstreamFailure()
		if prev, ok := c.store.Get(key); ok {
			// Serve the last known good value rather than turning a
			// transient upstream failure into an error for every waiter.
			// The store keeps the stale entry untouched.
			c.store.recordStaleServe()
			f.value = prev.Value
			f.meta = Meta{Age: prev.Age(now), TTL: prev.TTL, Stale: true}
			log.Warn("serving stale value after upstream failure",
				"key", key, "age", f.meta.Age, "error", err)
		} else {
			f.err = fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
			log.Error("upstream fetch failed with no cached fallback",
				"key", key, "error", err)
		}
	}

	c.mu.Lock()
	delete(c.flights, key)
	c.mu.Unlock()

	close(f.done)
}
