// Tracks Explorer - Small-Scale Fisheries Vessel Tracking Portal
// Copyright 2026 WorldFish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/WorldFishCenter/tracks-explorer-sub001

// Package cache provides the bounded, adaptive-TTL store that shields the
// dashboard from the flaky telemetry provider.
//
// The store is a best-effort acceleration layer, not a correctness-critical
// one: losing every entry changes performance, never results. Entries carry
// a per-insertion expiry and are removed lazily on lookup; a hard capacity
// ceiling bounds memory under continuous polling, evicting the
// oldest-inserted entry first.
package cache

import (
	"sync"
	"time"

	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/metrics"
)

// entry is one cached payload with its expiry and list links.
// The list is kept in insertion order: head.next is the newest insertion,
// tail.prev the oldest. Lookups do not reorder entries.
type entry struct {
	key        string
	value      interface{}
	insertedAt time.Time
	expiresAt  time.Time
	prev       *entry
	next       *entry
}

// Store is a thread-safe bounded key/value cache with per-entry TTL and
// insertion-order eviction.
//
// Expiry is derived once at insertion and never mutated. An entry at or
// past its expiry is treated as absent and evicted on the next lookup.
type Store struct {
	mu sync.Mutex

	capacity int
	items    map[string]*entry

	// head and tail are sentinel nodes for the insertion-order list.
	head *entry
	tail *entry

	hits   int64
	misses int64

	// now is replaceable for tests.
	now func() time.Time
}

// NewStore creates a Store with the given capacity ceiling.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = 500
	}
	s := &Store{
		capacity: capacity,
		items:    make(map[string]*entry, capacity),
		head:     &entry{},
		tail:     &entry{},
		now:      time.Now,
	}
	s.head.next = s.tail
	s.tail.prev = s.head
	return s
}

// Get retrieves a value by key. Returns the value and true if present and
// not expired. An expired entry is removed and reported as a miss.
func (s *Store) Get(key string) (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items[key]
	if !ok {
		s.misses++
		metrics.CacheMisses.Inc()
		return nil, false
	}

	if !s.now().Before(e.expiresAt) {
		s.remove(e)
		s.misses++
		metrics.CacheMisses.Inc()
		metrics.CacheEvictions.Inc()
		metrics.CacheEntries.Set(float64(len(s.items)))
		return nil, false
	}

	s.hits++
	metrics.CacheHits.Inc()
	return e.value, true
}

// Set stores a value under key with the given TTL, overwriting any existing
// entry. When the store is at capacity, the oldest-inserted entry is evicted
// first. Overwriting counts as a fresh insertion for eviction ordering.
func (s *Store) Set(key string, value interface{}, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	if old, ok := s.items[key]; ok {
		s.remove(old)
	}

	e := &entry{
		key:        key,
		value:      value,
		insertedAt: now,
		expiresAt:  now.Add(ttl),
	}
	s.insert(e)

	for len(s.items) > s.capacity {
		s.evictOldest()
		metrics.CacheEvictions.Inc()
	}

	metrics.CacheEntries.Set(float64(len(s.items)))
}

// Delete removes an entry by key. No-op when absent.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.items[key]; ok {
		s.remove(e)
		metrics.CacheEntries.Set(float64(len(s.items)))
	}
}

// Clear removes all entries.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make(map[string]*entry, s.capacity)
	s.head.next = s.tail
	s.tail.prev = s.head
	metrics.CacheEntries.Set(0)
}

// Sweep removes every expired entry and returns the count removed.
// Expiry is otherwise lazy, so entries that are never looked up again
// would sit in memory until capacity pressure evicts them. A periodic
// sweep reclaims them sooner.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for e := s.tail.prev; e != s.head; {
		prev := e.prev
		if !now.Before(e.expiresAt) {
			s.remove(e)
			metrics.CacheEvictions.Inc()
			removed++
		}
		e = prev
	}
	if removed > 0 {
		metrics.CacheEntries.Set(float64(len(s.items)))
	}
	return removed
}

// Len returns the current number of entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Stats returns hit/miss counters and the current size.
func (s *Store) Stats() (hits, misses int64, size int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits, s.misses, len(s.items)
}

// Internal methods, called with s.mu held.

func (s *Store) insert(e *entry) {
	e.prev = s.head
	e.next = s.head.next
	s.head.next.prev = e
	s.head.next = e
	s.items[e.key] = e
}

func (s *Store) remove(e *entry) {
	e.prev.next = e.next
	e.next.prev = e.prev
	delete(s.items, e.key)
}

func (s *Store) evictOldest() {
	oldest := s.tail.prev
	if oldest == s.head {
		return
	}
	s.remove(oldest)
}
