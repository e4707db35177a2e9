// QuakeLens - Earthquake Stream Clustering and Geographic Visualization
// Copyright 2026 QuakeLens Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quakelens/quakelens

// Package quake defines the normalized earthquake event model shared by the
// feed poller, the NATS transport, and the clustering engine.
package quake

import (
	"time"

	"github.com/google/uuid"

	"github.com/quakelens/quakelens/internal/geo"
)

// Subject is the NATS subject quake events are published on.
const Subject = "quake.events"

// Event is one normalized earthquake observation.
//
// ID is the upstream feed identifier when available (stable across repeated
// feed polls, used for deduplication) or a generated UUID otherwise.
// Magnitude, DepthKm, Place and URL are carried for rendering only; the
// clustering metric uses coordinates and timestamp exclusively.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Magnitude float64   `json:"magnitude"`
	DepthKm   float64   `json:"depth_km,omitempty"`
	Place     string    `json:"place,omitempty"`
	URL       string    `json:"url,omitempty"`
}

// NewEvent creates an event with a generated ID and the given observation
// time. Used for events whose upstream source supplies no identifier.
func NewEvent(ts time.Time, lat, lon, mag float64) Event {
	return Event{
		ID:        uuid.New().String(),
		Timestamp: ts.UTC(),
		Latitude:  lat,
		Longitude: lon,
		Magnitude: mag,
	}
}

// InvalidEventError reports a malformed or incomplete event. Events failing
// validation are dropped by the caller; the error is never fatal.
type InvalidEventError struct {
	Field   string
	Message string
}

func (e *InvalidEventError) Error() string {
	return "invalid event: " + e.Field + ": " + e.Message
}

// Validate checks required fields. The returned error is an
// *InvalidEventError naming the first offending field.
func (e *Event) Validate() error {
	if e.ID == "" {
		return &InvalidEventError{Field: "id", Message: "required"}
	}
	if e.Timestamp.IsZero() {
		return &InvalidEventError{Field: "timestamp", Message: "required"}
	}
	if !geo.ValidCoordinate(e.Latitude, e.Longitude) {
		return &InvalidEventError{Field: "coordinates", Message: "latitude/longitude out of range"}
	}
	if e.Magnitude < 0 {
		return &InvalidEventError{Field: "magnitude", Message: "must be non-negative"}
	}
	return nil
}
