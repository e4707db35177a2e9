// QuakeLens - Earthquake Stream Clustering and Geographic Visualization
// Copyright 2026 QuakeLens Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quakelens/quakelens

// Package feed polls the USGS GeoJSON earthquake feed, normalizes features
// into quake events, and publishes unseen events to the stream.
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/quakelens/quakelens/internal/metrics"
	"github.com/quakelens/quakelens/internal/quake"
)

// maxFeedBody caps the response size read from the feed. The hourly feed is
// a few hundred KB at most; anything larger is a misbehaving upstream.
const maxFeedBody = 16 << 20

// geoJSON mirrors the USGS summary feed layout. Coordinates are
// [longitude, latitude, depth_km]; time is epoch milliseconds.
type geoJSON struct {
	Features []struct {
		ID         string `json:"id"`
		Properties struct {
			Mag   *float64 `json:"mag"`
			Place string   `json:"place"`
			Time  int64    `json:"time"`
			URL   string   `json:"url"`
		} `json:"properties"`
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// ClientConfig holds feed fetch settings.
type ClientConfig struct {
	URL          string
	Timeout      time.Duration
	MinMagnitude float64
	RatePerSec   float64
}

// Client fetches and parses the USGS feed. A rate limiter keeps polling
// polite regardless of the configured interval, and a circuit breaker stops
// hammering the feed through an upstream outage.
type Client struct {
	config  ClientConfig
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]quake.Event]
}

// NewClient creates a feed client.
func NewClient(cfg ClientConfig) *Client {
	return &Client{
		config:  cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1),
		breaker: gobreaker.NewCircuitBreaker[[]quake.Event](gobreaker.Settings{
			Name:    "usgs-feed",
			Timeout: 60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
	}
}

// Fetch retrieves the feed and returns normalized events, filtered by the
// configured magnitude floor. Features with missing magnitude or malformed
// geometry are skipped, never fatal.
func (c *Client) Fetch(ctx context.Context) ([]quake.Event, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	events, err := c.breaker.Execute(func() ([]quake.Event, error) {
		return c.fetch(ctx)
	})
	if err != nil {
		metrics.FeedFetches.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.FeedFetches.WithLabelValues("ok").Inc()
	return events, nil
}

func (c *Client) fetch(ctx context.Context) ([]quake.Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBody))
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}

	return c.Parse(body)
}

// Parse converts raw feed bytes into events.
func (c *Client) Parse(body []byte) ([]quake.Event, error) {
	var doc geoJSON
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	events := make([]quake.Event, 0, len(doc.Features))
	for _, f := range doc.Features {
		if f.Properties.Mag == nil {
			metrics.FeedEvents.WithLabelValues("skipped").Inc()
			continue
		}
		if len(f.Geometry.Coordinates) < 2 {
			metrics.FeedEvents.WithLabelValues("skipped").Inc()
			continue
		}
		if *f.Properties.Mag < c.config.MinMagnitude {
			metrics.FeedEvents.WithLabelValues("filtered").Inc()
			continue
		}

		event := quake.Event{
			ID:        f.ID,
			Timestamp: time.UnixMilli(f.Properties.Time).UTC(),
			Longitude: f.Geometry.Coordinates[0],
			Latitude:  f.Geometry.Coordinates[1],
			Magnitude: *f.Properties.Mag,
			Place:     f.Properties.Place,
			URL:       f.Properties.URL,
		}
		if len(f.Geometry.Coordinates) >= 3 {
			event.DepthKm = f.Geometry.Coordinates[2]
		}
		if event.ID == "" {
			event.ID = quake.NewEvent(event.Timestamp, event.Latitude, event.Longitude, event.Magnitude).ID
		}

		if err := event.Validate(); err != nil {
			metrics.FeedEvents.WithLabelValues("invalid").Inc()
			continue
		}

		metrics.FeedEvents.WithLabelValues("parsed").Inc()
		events = append(events, event)
	}

	return events, nil
}
