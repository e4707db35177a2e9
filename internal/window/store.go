// QuakeLens - Earthquake Stream Clustering and Geographic Visualization
// Copyright 2026 QuakeLens Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quakelens/quakelens

// Package window implements the rolling event window: a time-bounded,
// continuously pruned, in-memory collection of recent quake events that
// forms the clustering engine's working set.
//
// The store is never persisted; it is created empty at startup and scoped
// to the process lifetime. Events are owned by the store after insertion
// and handed out only as copies.
package window

import (
	"errors"
	"sync"
	"time"

	"github.com/quakelens/quakelens/internal/quake"
)

// ErrInvalidRetention is returned when a store is created with a
// non-positive retention window.
var ErrInvalidRetention = errors.New("retention window must be positive")

// Store is the rolling window of recent events, ordered by arrival.
//
// The engine serializes access through its processing step, but the store
// carries its own mutex so insert/prune/snapshot remain safe if additional
// producers ever feed it directly.
type Store struct {
	mu        sync.Mutex
	retention time.Duration
	events    []quake.Event
	ids       map[string]struct{}
}

// New creates an empty store retaining events for the given duration.
func New(retention time.Duration) (*Store, error) {
	if retention <= 0 {
		return nil, ErrInvalidRetention
	}
	return &Store{
		retention: retention,
		ids:       make(map[string]struct{}),
	}, nil
}

// Retention returns the configured retention window.
func (s *Store) Retention() time.Duration {
	return s.retention
}

// Insert adds the event if its id is not already present. Inserting a
// duplicate id is a silent no-op: the store keeps the original event and
// its size is unchanged. A malformed event is rejected with
// *quake.InvalidEventError and nothing is inserted.
func (s *Store) Insert(event quake.Event) error {
	if err := event.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[event.ID]; ok {
		return nil
	}
	s.ids[event.ID] = struct{}{}
	s.events = append(s.events, event)
	return nil
}

// Prune removes every event with now - timestamp > retention and returns
// the number removed. An event exactly at the retention boundary is kept.
// Safe to call on an empty store.
func (s *Store) Prune(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.events) == 0 {
		return 0
	}

	kept := s.events[:0]
	removed := 0
	for _, event := range s.events {
		if now.Sub(event.Timestamp) > s.retention {
			delete(s.ids, event.ID)
			removed++
			continue
		}
		kept = append(kept, event)
	}
	s.events = kept
	return removed
}

// Snapshot returns a copy of the current events in arrival order. Callers
// may not mutate the store through the returned slice.
func (s *Store) Snapshot() []quake.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]quake.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Len returns the number of events currently in the window.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// Contains reports whether an event with the given id is in the window.
func (s *Store) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}
