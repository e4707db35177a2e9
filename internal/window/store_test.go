// QuakeLens - Earthquake Stream Clustering and Geographic Visualization
// Copyright 2026 QuakeLens Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quakelens/quakelens

package window

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/quakelens/quakelens/internal/quake"
)

var baseTime = time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

func makeEvent(id string, ts time.Time) quake.Event {
	return quake.Event{
		ID:        id,
		Timestamp: ts,
		Latitude:  35.0,
		Longitude: -118.0,
		Magnitude: 3.0,
	}
}

func TestNewRejectsNonPositiveRetention(t *testing.T) {
	for _, retention := range []time.Duration{0, -time.Minute} {
		if _, err := New(retention); !errors.Is(err, ErrInvalidRetention) {
			t.Errorf("New(%v) error = %v, want ErrInvalidRetention", retention, err)
		}
	}
}

func TestInsertAndSnapshot(t *testing.T) {
	s, err := New(30 * time.Minute)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("ev-%d", i)
		if err := s.Insert(makeEvent(id, baseTime.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("Insert(%s) error = %v", id, err)
		}
	}

	if got := s.Len(); got != 3 {
		t.Errorf("Len() = %d, want 3", got)
	}

	snap := s.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("Snapshot() len = %d, want 3", len(snap))
	}
	// Arrival order is preserved.
	for i, event := range snap {
		want := fmt.Sprintf("ev-%d", i)
		if event.ID != want {
			t.Errorf("Snapshot()[%d].ID = %q, want %q", i, event.ID, want)
		}
	}

	// Mutating the snapshot must not touch the store.
	snap[0].ID = "mutated"
	if !s.Contains("ev-0") {
		t.Error("store mutated through snapshot")
	}
}

func TestInsertDuplicateIsNoOp(t *testing.T) {
	s, _ := New(30 * time.Minute)

	original := makeEvent("dup", baseTime)
	if err := s.Insert(original); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	// Same id, different payload: the original must win.
	altered := makeEvent("dup", baseTime.Add(5*time.Minute))
	altered.Magnitude = 9.9
	if err := s.Insert(altered); err != nil {
		t.Fatalf("duplicate Insert() error = %v, want nil", err)
	}

	if got := s.Len(); got != 1 {
		t.Errorf("Len() = %d, want 1", got)
	}
	snap := s.Snapshot()
	if snap[0].Magnitude != 3.0 {
		t.Errorf("duplicate insert replaced original event: magnitude = %v", snap[0].Magnitude)
	}
}

func TestInsertRejectsInvalidEvent(t *testing.T) {
	s, _ := New(30 * time.Minute)

	bad := makeEvent("bad", baseTime)
	bad.Latitude = 123

	err := s.Insert(bad)
	var invalid *quake.InvalidEventError
	if !errors.As(err, &invalid) {
		t.Fatalf("Insert() error = %T, want *quake.InvalidEventError", err)
	}
	if s.Len() != 0 {
		t.Error("invalid event was inserted")
	}
}

func TestPruneRemovesExpiredKeepsBoundary(t *testing.T) {
	retention := 30 * time.Minute
	s, _ := New(retention)

	expired := makeEvent("expired", baseTime.Add(-retention-time.Second))
	boundary := makeEvent("boundary", baseTime.Add(-retention))
	fresh := makeEvent("fresh", baseTime.Add(-time.Minute))

	for _, event := range []quake.Event{expired, boundary, fresh} {
		if err := s.Insert(event); err != nil {
			t.Fatalf("Insert(%s) error = %v", event.ID, err)
		}
	}

	removed := s.Prune(baseTime)
	if removed != 1 {
		t.Errorf("Prune() removed = %d, want 1", removed)
	}
	if s.Contains("expired") {
		t.Error("expired event still in window")
	}
	if !s.Contains("boundary") {
		t.Error("boundary event was pruned; exact-boundary events must be kept")
	}
	if !s.Contains("fresh") {
		t.Error("fresh event was pruned")
	}
}

func TestPruneEmptyStore(t *testing.T) {
	s, _ := New(time.Minute)
	if removed := s.Prune(baseTime); removed != 0 {
		t.Errorf("Prune() on empty store = %d, want 0", removed)
	}
}

func TestPrunedIDCanBeReinserted(t *testing.T) {
	s, _ := New(time.Minute)

	old := makeEvent("recycle", baseTime.Add(-2*time.Minute))
	if err := s.Insert(old); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	s.Prune(baseTime)
	if s.Contains("recycle") {
		t.Fatal("event not pruned")
	}

	fresh := makeEvent("recycle", baseTime)
	if err := s.Insert(fresh); err != nil {
		t.Fatalf("re-Insert() error = %v", err)
	}
	if !s.Contains("recycle") {
		t.Error("pruned id could not be reinserted")
	}
}
