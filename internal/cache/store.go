package cache

import (
	"sync"
	"time"
)

// Store is a concurrent key to entry map with per-entry freshness windows.
// Reads take a shared lock; writes are serialized. An entry only exists
// after at least one successful fetch, so absence always means "never
// fetched or invalidated", never "fetched but empty".
type Store struct {
	mu      sync.RWMutex
	entries map[Key]Entry

	statsMu sync.Mutex
	stats   Stats
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		entries: make(map[Key]Entry),
	}
}

// Get returns the entry for key, fresh or stale. The second return value
// is false when the key is absent. Get never mutates the store.
func (s *Store) Get(key Key) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	return e, ok
}

// Put inserts or replaces the entry for key. The entry is written whole;
// a concurrent reader never observes a value without its matching
// StoredAt and TTL.
func (s *Store) Put(key Key, value []byte, ttl time.Duration, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = Entry{
		Value:    value,
		StoredAt: now,
		TTL:      ttl,
	}
}

// Invalidate removes the entry for key. Removing an absent key is a no-op.
func (s *Store) Invalidate(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
}

// InvalidateKind removes every entry of the given resource kind and
// returns how many were removed.
func (s *Store) InvalidateKind(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k := range s.entries {
		if k.Kind == kind {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

// Clear removes all entries and returns how many were removed.
func (s *Store) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := len(s.entries)
	s.entries = make(map[Key]Entry)
	return removed
}

// Len returns the number of stored entries, fresh or stale.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}

// Snapshot returns a consistent point-in-time copy of the counters.
func (s *Store) Snapshot() Stats {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()

	return s.stats
}

// ResetStats zeroes all counters. Intended for administrative use only;
// counters otherwise grow for the lifetime of the process.
func (s *Store) ResetStats() {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()

	s.stats = Stats{}
}

func (s *Store) recordHit() {
	s.statsMu.Lock()
	s.stats.Hits++
	s.statsMu.Unlock()
}

func (s *Store) recordMiss() {
	s.statsMu.Lock()
	s.stats.Misses++
	s.statsMu.Unlock()
}

func (s *Store) recordJoin() {
	s.statsMu.Lock()
	s.stats.Joins++
	s.statsMu.Unlock()
}

func (s *Store) recordUpstreamFailure() {
	s.statsMu.Lock()
	s.stats.UpstreamFailures++
	s.statsMu.Unlock()
}

func (s *Store) recordStaleServe() {
	s.statsMu.Lock()
	s.stats.StaleServes++
	s.statsMu.Unlock()
}
