// QuakeLens - Earthquake Stream Clustering and Geographic Visualization
// Copyright 2026 QuakeLens Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quakelens/quakelens

package engine

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/quakelens/quakelens/internal/cluster"
	"github.com/quakelens/quakelens/internal/quake"
	"github.com/quakelens/quakelens/internal/window"
)

var t0 = time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

// recorder captures broadcast snapshots for assertions.
type recorder struct {
	mu        sync.Mutex
	snapshots []Snapshot
}

func (r *recorder) BroadcastSnapshot(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, s)
}

func (r *recorder) last(t *testing.T) Snapshot {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snapshots) == 0 {
		t.Fatal("no snapshots broadcast")
	}
	return r.snapshots[len(r.snapshots)-1]
}

func newTestProcessor(t *testing.T, now *time.Time) (*Processor, *recorder) {
	t.Helper()

	store, err := window.New(30 * time.Minute)
	if err != nil {
		t.Fatalf("window.New() error = %v", err)
	}
	detector, err := cluster.NewDetector(cluster.Config{
		MaxDistanceKm:  50,
		MaxTimeGap:     30 * time.Minute,
		MinClusterSize: 2,
		RegionMarginKm: 5,
	})
	if err != nil {
		t.Fatalf("cluster.NewDetector() error = %v", err)
	}

	rec := &recorder{}
	p := New(store, detector,
		WithBroadcaster(rec),
		WithClock(func() time.Time { return *now }),
	)
	return p, rec
}

func makeEvent(id string, ts time.Time, lat, lon float64) quake.Event {
	return quake.Event{
		ID:        id,
		Timestamp: ts,
		Latitude:  lat,
		Longitude: lon,
		Magnitude: 3.0,
	}
}

func TestProcessInsertsAndBroadcasts(t *testing.T) {
	now := t0
	p, rec := newTestProcessor(t, &now)

	if err := p.Process(makeEvent("a", t0, 35.0, -118.0)); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if err := p.Process(makeEvent("b", t0.Add(time.Minute), 35.04, -118.0)); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	snap := rec.last(t)
	if len(snap.Events) != 2 {
		t.Errorf("snapshot events = %d, want 2", len(snap.Events))
	}
	if len(snap.Clusters) != 1 {
		t.Errorf("snapshot clusters = %d, want 1", len(snap.Clusters))
	}
	if len(snap.Regions) != 1 {
		t.Errorf("snapshot regions = %d, want 1", len(snap.Regions))
	}
	if !snap.GeneratedAt.Equal(t0) {
		t.Errorf("GeneratedAt = %v, want %v", snap.GeneratedAt, t0)
	}
}

func TestProcessRejectsInvalidEvent(t *testing.T) {
	now := t0
	p, _ := newTestProcessor(t, &now)

	bad := makeEvent("bad", t0, 99.0, 0)
	err := p.Process(bad)

	var invalid *quake.InvalidEventError
	if !errors.As(err, &invalid) {
		t.Fatalf("Process() error = %T, want *quake.InvalidEventError", err)
	}
	if p.WindowLen() != 0 {
		t.Error("invalid event entered the window")
	}
}

func TestProcessDuplicateStillRunsStep(t *testing.T) {
	now := t0
	p, rec := newTestProcessor(t, &now)

	e := makeEvent("dup", t0, 35.0, -118.0)
	if err := p.Process(e); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if err := p.Process(e); err != nil {
		t.Fatalf("duplicate Process() error = %v, want nil", err)
	}

	if p.WindowLen() != 1 {
		t.Errorf("WindowLen() = %d, want 1", p.WindowLen())
	}
	rec.mu.Lock()
	got := len(rec.snapshots)
	rec.mu.Unlock()
	if got != 2 {
		t.Errorf("broadcasts = %d, want 2 (duplicate still triggers a step)", got)
	}
}

func TestSweepExpiresEventsAndDissolvesClusters(t *testing.T) {
	now := t0
	p, rec := newTestProcessor(t, &now)

	if err := p.Process(makeEvent("a", t0, 35.0, -118.0)); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if err := p.Process(makeEvent("b", t0.Add(time.Minute), 35.04, -118.0)); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(rec.last(t).Clusters) != 1 {
		t.Fatal("expected one cluster before sweep")
	}

	// Advance past retention for the first event only.
	now = t0.Add(31 * time.Minute)
	p.Sweep()

	snap := rec.last(t)
	if len(snap.Events) != 1 {
		t.Errorf("events after sweep = %d, want 1", len(snap.Events))
	}
	if len(snap.Clusters) != 0 {
		t.Errorf("clusters after sweep = %d, want 0 (lone survivor below min size)", len(snap.Clusters))
	}
	if len(snap.Regions) != 0 {
		t.Errorf("regions after sweep = %d, want 0", len(snap.Regions))
	}
}

func TestSnapshotReturnsCopies(t *testing.T) {
	now := t0
	p, _ := newTestProcessor(t, &now)

	if err := p.Process(makeEvent("a", t0, 35.0, -118.0)); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if err := p.Process(makeEvent("b", t0, 35.04, -118.0)); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	snap := p.Snapshot()
	if len(snap.Clusters) != 1 {
		t.Fatalf("clusters = %d, want 1", len(snap.Clusters))
	}
	snap.Events[0].ID = "mutated"
	snap.Clusters[0] = cluster.Cluster{}

	again := p.Snapshot()
	if again.Events[0].ID == "mutated" {
		t.Error("snapshot aliases window state")
	}
	if len(again.Clusters) != 1 || len(again.Clusters[0].EventIDs) == 0 {
		t.Error("snapshot aliases cluster state")
	}
}
