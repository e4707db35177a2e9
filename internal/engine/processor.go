// QuakeLens - Earthquake Stream Clustering and Geographic Visualization
// Copyright 2026 QuakeLens Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quakelens/quakelens

// Package engine ties the rolling window, the cluster detector and the
// region generator into a single serialized processing pipeline.
//
// Each arriving event runs one full step: insert, prune, detect, generate
// regions, broadcast. Steps are serialized by a mutex so the published
// snapshot always reflects a consistent window state; a periodic sweep runs
// the same step without an insert so clusters decay even when the feed goes
// quiet.
package engine

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/quakelens/quakelens/internal/cluster"
	"github.com/quakelens/quakelens/internal/logging"
	"github.com/quakelens/quakelens/internal/metrics"
	"github.com/quakelens/quakelens/internal/quake"
	"github.com/quakelens/quakelens/internal/window"
)

// Broadcaster receives the derived state after every processing step.
// The websocket hub implements it; tests substitute a recorder.
type Broadcaster interface {
	BroadcastSnapshot(snapshot Snapshot)
}

// Snapshot is the full derived state after one processing step: the window
// contents plus the clusters and highlight regions computed from them. All
// slices are copies owned by the receiver.
type Snapshot struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Events      []quake.Event     `json:"events"`
	Clusters    []cluster.Cluster `json:"clusters"`
	Regions     []cluster.Region  `json:"regions"`
}

// Processor runs the serialized insert/prune/detect/generate pipeline.
type Processor struct {
	mu          sync.Mutex
	store       *window.Store
	detector    *cluster.Detector
	broadcaster Broadcaster
	now         func() time.Time
	logger      zerolog.Logger

	lastClusters []cluster.Cluster
	lastRegions  []cluster.Region
	lastRun      time.Time
}

// Option configures a Processor.
type Option func(*Processor)

// WithClock overrides the processor's time source. Tests use it to drive
// retention boundaries deterministically.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

// WithBroadcaster attaches a snapshot receiver. Without one, steps still
// run and the results are only available through Snapshot().
func WithBroadcaster(b Broadcaster) Option {
	return func(p *Processor) { p.broadcaster = b }
}

// New creates a processor over the given store and detector.
func New(store *window.Store, detector *cluster.Detector, opts ...Option) *Processor {
	p := &Processor{
		store:    store,
		detector: detector,
		now:      time.Now,
		logger:   logging.With().Str("component", "engine").Logger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process runs one full pipeline step for an arriving event.
//
// A malformed event is counted, logged and dropped without touching the
// window; the error is returned for the caller's accounting but is never
// fatal to the stream. A duplicate id is a silent no-op insert, after which
// the step still runs so pruning and detection stay current.
func (p *Processor) Process(event quake.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	before := p.store.Len()
	if err := p.store.Insert(event); err != nil {
		var invalid *quake.InvalidEventError
		if errors.As(err, &invalid) {
			metrics.EventsDropped.WithLabelValues(invalid.Field).Inc()
			p.logger.Warn().
				Str("event_id", event.ID).
				Str("field", invalid.Field).
				Msg("Dropped invalid event")
			return err
		}
		return err
	}

	if p.store.Len() == before {
		metrics.EventsDuplicate.Inc()
		p.logger.Debug().Str("event_id", event.ID).Msg("Duplicate event ignored")
	} else {
		metrics.EventsIngested.Inc()
	}

	p.step(p.now())
	return nil
}

// Sweep runs a prune/detect/generate step with no insert. The supervisor's
// sweeper service calls it on a timer so expired events leave the window and
// clusters dissolve even when no new events arrive.
func (p *Processor) Sweep() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.step(p.now())
}

// step prunes, reclusters and rebroadcasts. Callers hold p.mu.
func (p *Processor) step(now time.Time) {
	removed := p.store.Prune(now)
	if removed > 0 {
		metrics.EventsPruned.Add(float64(removed))
		p.logger.Debug().Int("removed", removed).Msg("Pruned expired events")
	}

	events := p.store.Snapshot()
	metrics.WindowSize.Set(float64(len(events)))

	start := time.Now()
	clusters, excluded := p.detector.Detect(events)
	metrics.DetectDuration.Observe(time.Since(start).Seconds())

	regions := p.detector.BuildRegions(clusters)

	clustered := 0
	for _, c := range clusters {
		clustered += len(c.EventIDs)
	}
	metrics.Clusters.Set(float64(len(clusters)))
	metrics.ClusteredEvents.Set(float64(clustered))
	metrics.ExcludedEvents.Set(float64(excluded))

	p.lastClusters = clusters
	p.lastRegions = regions
	p.lastRun = now

	p.logger.Debug().
		Int("window", len(events)).
		Int("clusters", len(clusters)).
		Int("clustered_events", clustered).
		Msg("Detection pass complete")

	if p.broadcaster != nil {
		p.broadcaster.BroadcastSnapshot(Snapshot{
			GeneratedAt: now,
			Events:      events,
			Clusters:    clusters,
			Regions:     regions,
		})
	}
}

// Snapshot returns the derived state from the most recent step. The window
// events are copied fresh; clusters and regions are rebuilt as copies so the
// caller cannot alias internal state.
func (p *Processor) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	clusters := make([]cluster.Cluster, len(p.lastClusters))
	copy(clusters, p.lastClusters)
	regions := make([]cluster.Region, len(p.lastRegions))
	copy(regions, p.lastRegions)

	return Snapshot{
		GeneratedAt: p.lastRun,
		Events:      p.store.Snapshot(),
		Clusters:    clusters,
		Regions:     regions,
	}
}

// WindowLen returns the current window size, for readiness reporting.
func (p *Processor) WindowLen() int {
	return p.store.Len()
}
