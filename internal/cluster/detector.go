// QuakeLens - Earthquake Stream Clustering and Geographic Visualization
// Copyright 2026 QuakeLens Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quakelens/quakelens

// Package cluster implements density-based spatiotemporal clustering over
// the rolling event window, and derives one circular highlight region per
// detected cluster.
//
// Two events are direct neighbors when their great-circle distance is
// within MaxDistanceKm AND their timestamps are within MaxTimeGap. Clusters
// are the connected components of this neighbor relation: an event joins a
// cluster through any chain of neighbors, not only by direct proximity to
// every member. Components smaller than MinClusterSize are discarded.
package cluster

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/quakelens/quakelens/internal/geo"
	"github.com/quakelens/quakelens/internal/quake"
)

// ErrInvalidConfig is returned when detector thresholds are misconfigured.
// A zero or negative threshold would produce vacuous or universal clustering
// and always indicates a configuration mistake, so detection never starts.
var ErrInvalidConfig = errors.New("invalid clustering configuration")

// Config holds the detector thresholds. All values come from external
// configuration at startup and are immutable for the detector's lifetime.
type Config struct {
	// MaxDistanceKm is the neighbor distance threshold in kilometers.
	MaxDistanceKm float64

	// MaxTimeGap is the neighbor time-proximity threshold.
	MaxTimeGap time.Duration

	// MinClusterSize is the smallest component emitted as a cluster.
	// The default of 2 is intentional: it demonstrates grouping at the
	// lowest meaningful threshold. Deployments wanting the classic DBSCAN
	// behavior of the upstream feed visualizations raise it to 3.
	MinClusterSize int

	// RegionMarginKm is added to every highlight region radius so member
	// points render strictly inside the circle, not tangent to it.
	RegionMarginKm float64
}

// Validate checks the thresholds, wrapping ErrInvalidConfig on failure.
func (c Config) Validate() error {
	if c.MaxDistanceKm <= 0 {
		return fmt.Errorf("%w: max_distance_km must be positive, got %g", ErrInvalidConfig, c.MaxDistanceKm)
	}
	if c.MaxTimeGap <= 0 {
		return fmt.Errorf("%w: max_time_gap must be positive, got %s", ErrInvalidConfig, c.MaxTimeGap)
	}
	if c.MinClusterSize < 2 {
		return fmt.Errorf("%w: min_cluster_size must be at least 2, got %d", ErrInvalidConfig, c.MinClusterSize)
	}
	if c.RegionMarginKm < 0 {
		return fmt.Errorf("%w: region_margin_km cannot be negative, got %g", ErrInvalidConfig, c.RegionMarginKm)
	}
	return nil
}

// Cluster is one group of related events. Clusters are derived, transient
// values: each detection pass produces a fresh set and the previous set is
// discarded. Members are sorted by timestamp, then id.
type Cluster struct {
	// EventIDs lists member ids in member order.
	EventIDs []string `json:"event_ids"`

	// Events holds the member events themselves, for region generation
	// and rendering.
	Events []quake.Event `json:"events"`
}

// Detector runs density-based clustering passes. It is stateless between
// passes and safe for concurrent use.
type Detector struct {
	config Config
}

// NewDetector creates a detector, failing fast with ErrInvalidConfig before
// any processing if the thresholds are unusable.
func NewDetector(config Config) (*Detector, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Detector{config: config}, nil
}

// Config returns the detector configuration.
func (d *Detector) Config() Config {
	return d.config
}

// Detect partitions the given events into clusters.
//
// The result is deterministic and independent of input order: events are
// sorted by id before the pass, members are sorted by timestamp then id,
// and clusters are sorted by earliest member timestamp then lowest id.
// Events with out-of-domain coordinates are excluded from the pass (never
// clustered, never fatal); the count of exclusions is returned alongside
// the clusters.
func (d *Detector) Detect(events []quake.Event) ([]Cluster, int) {
	if len(events) < d.config.MinClusterSize {
		return nil, countInvalid(events)
	}

	// Work on a sorted copy so the partition cannot depend on arrival order.
	sorted := make([]quake.Event, 0, len(events))
	excluded := 0
	for _, event := range events {
		if !geo.ValidCoordinate(event.Latitude, event.Longitude) {
			excluded++
			continue
		}
		sorted = append(sorted, event)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	uf := newUnionFind(len(sorted))
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if d.related(&sorted[i], &sorted[j]) {
				uf.union(i, j)
			}
		}
	}

	// Group members by component root.
	groups := make(map[int][]quake.Event)
	for i := range sorted {
		root := uf.find(i)
		groups[root] = append(groups[root], sorted[i])
	}

	clusters := make([]Cluster, 0, len(groups))
	for _, members := range groups {
		if len(members) < d.config.MinClusterSize {
			continue
		}
		sort.Slice(members, func(i, j int) bool {
			if !members[i].Timestamp.Equal(members[j].Timestamp) {
				return members[i].Timestamp.Before(members[j].Timestamp)
			}
			return members[i].ID < members[j].ID
		})
		ids := make([]string, len(members))
		for i, m := range members {
			ids[i] = m.ID
		}
		clusters = append(clusters, Cluster{EventIDs: ids, Events: members})
	}

	sort.Slice(clusters, func(i, j int) bool {
		a, b := clusters[i].Events[0], clusters[j].Events[0]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		return a.ID < b.ID
	})

	return clusters, excluded
}

// related reports whether two events are direct neighbors under the
// configured distance and time thresholds. Both events have in-domain
// coordinates by the time this runs, so the distance cannot fail.
func (d *Detector) related(a, b *quake.Event) bool {
	gap := a.Timestamp.Sub(b.Timestamp)
	if gap < 0 {
		gap = -gap
	}
	if gap > d.config.MaxTimeGap {
		return false
	}

	dist, err := geo.Distance(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
	if err != nil {
		return false
	}
	return dist <= d.config.MaxDistanceKm
}

func countInvalid(events []quake.Event) int {
	n := 0
	for _, event := range events {
		if !geo.ValidCoordinate(event.Latitude, event.Longitude) {
			n++
		}
	}
	return n
}

// unionFind is a plain union-find over event indexes, with path compression
// and union by rank.
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent, rank: make([]int, n)}
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	switch {
	case u.rank[ra] < u.rank[rb]:
		u.parent[ra] = rb
	case u.rank[ra] > u.rank[rb]:
		u.parent[rb] = ra
	default:
		u.parent[rb] = ra
		u.rank[ra]++
	}
}
