// QuakeLens - Earthquake Stream Clustering and Geographic Visualization
// Copyright 2026 QuakeLens Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quakelens/quakelens

// Package metrics defines all Prometheus metrics for QuakeLens.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsIngested counts events accepted into the rolling window.
	EventsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quakelens_events_ingested_total",
		Help: "Total number of events accepted into the rolling window",
	})

	// EventsDropped counts events rejected before insertion, by reason.
	EventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quakelens_events_dropped_total",
		Help: "Total number of events dropped before insertion",
	}, []string{"reason"})

	// EventsDuplicate counts duplicate-id inserts absorbed as no-ops.
	EventsDuplicate = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quakelens_events_duplicate_total",
		Help: "Total number of duplicate event ids ignored",
	})

	// WindowSize tracks the number of events currently in the window.
	WindowSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "quakelens_window_events",
		Help: "Number of events currently in the rolling window",
	})

	// EventsPruned counts events expired out of the window.
	EventsPruned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quakelens_events_pruned_total",
		Help: "Total number of events pruned from the rolling window",
	})

	// DetectDuration observes the latency of a full clustering pass.
	DetectDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "quakelens_detect_duration_seconds",
		Help:    "Duration of clustering passes",
		Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
	})

	// Clusters tracks the cluster count of the latest detection pass.
	Clusters = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "quakelens_clusters",
		Help: "Number of clusters in the latest detection pass",
	})

	// ClusteredEvents tracks how many window events belong to some cluster.
	ClusteredEvents = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "quakelens_clustered_events",
		Help: "Number of window events assigned to a cluster",
	})

	// ExcludedEvents tracks events skipped by the detector for bad coordinates.
	ExcludedEvents = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "quakelens_excluded_events",
		Help: "Number of window events excluded from clustering",
	})

	// NATSPublished counts events published to the quake subject.
	NATSPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quakelens_nats_published_total",
		Help: "Total number of events published to NATS",
	})

	// NATSPublishErrors counts failed publish attempts.
	NATSPublishErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quakelens_nats_publish_errors_total",
		Help: "Total number of failed NATS publish attempts",
	})

	// NATSConsumed counts events received from the quake subject.
	NATSConsumed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quakelens_nats_consumed_total",
		Help: "Total number of events consumed from NATS",
	})

	// WebSocketClients tracks connected websocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "quakelens_websocket_clients",
		Help: "Number of connected websocket clients",
	})

	// WebSocketBroadcasts counts snapshot broadcasts to websocket clients.
	WebSocketBroadcasts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quakelens_websocket_broadcasts_total",
		Help: "Total number of snapshot broadcasts",
	})

	// HTTPRequests counts API requests by method, route and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quakelens_http_requests_total",
		Help: "Total HTTP requests processed",
	}, []string{"method", "route", "status"})

	// HTTPDuration observes API request latency by method and route.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quakelens_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// FeedFetches counts USGS feed fetch attempts by outcome.
	FeedFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quakelens_feed_fetches_total",
		Help: "Total USGS feed fetch attempts",
	}, []string{"outcome"})

	// FeedEvents counts events parsed from the feed by disposition.
	FeedEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quakelens_feed_events_total",
		Help: "Total feed events by disposition",
	}, []string{"disposition"})
)
