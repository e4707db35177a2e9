// QuakeLens - Earthquake Stream Clustering and Geographic Visualization
// Copyright 2026 QuakeLens Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quakelens/quakelens

package quake

import (
	"errors"
	"testing"
	"time"
)

func validEvent() Event {
	return Event{
		ID:        "us7000abcd",
		Timestamp: time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC),
		Latitude:  35.3,
		Longitude: -118.5,
		Magnitude: 4.2,
	}
}

func TestEventValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Event)
		wantField string
	}{
		{"valid", func(e *Event) {}, ""},
		{"missing id", func(e *Event) { e.ID = "" }, "id"},
		{"zero timestamp", func(e *Event) { e.Timestamp = time.Time{} }, "timestamp"},
		{"latitude out of range", func(e *Event) { e.Latitude = 95 }, "coordinates"},
		{"longitude out of range", func(e *Event) { e.Longitude = -200 }, "coordinates"},
		{"negative magnitude", func(e *Event) { e.Magnitude = -1 }, "magnitude"},
		{"zero magnitude ok", func(e *Event) { e.Magnitude = 0 }, ""},
		{"boundary coordinates ok", func(e *Event) { e.Latitude = -90; e.Longitude = 180 }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := validEvent()
			tt.mutate(&event)
			err := event.Validate()

			if tt.wantField == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}

			var invalid *InvalidEventError
			if !errors.As(err, &invalid) {
				t.Fatalf("error type = %T, want *InvalidEventError", err)
			}
			if invalid.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", invalid.Field, tt.wantField)
			}
		})
	}
}

func TestNewEventGeneratesUniqueIDs(t *testing.T) {
	ts := time.Now()
	a := NewEvent(ts, 10, 20, 3.0)
	b := NewEvent(ts, 10, 20, 3.0)

	if a.ID == "" || b.ID == "" {
		t.Fatal("NewEvent() produced empty id")
	}
	if a.ID == b.ID {
		t.Errorf("NewEvent() produced duplicate ids: %s", a.ID)
	}
	if !a.Timestamp.Equal(ts.UTC()) {
		t.Errorf("Timestamp = %v, want %v", a.Timestamp, ts.UTC())
	}
}

func TestSerializerRoundTrip(t *testing.T) {
	s := NewSerializer()
	event := validEvent()
	event.Place = "10km SSW of Somewhere, CA"
	event.DepthKm = 8.4

	data, err := s.Marshal(&event)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	decoded, err := s.Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if decoded.ID != event.ID {
		t.Errorf("ID = %q, want %q", decoded.ID, event.ID)
	}
	if !decoded.Timestamp.Equal(event.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", decoded.Timestamp, event.Timestamp)
	}
	if decoded.Latitude != event.Latitude || decoded.Longitude != event.Longitude {
		t.Errorf("coordinates = (%v, %v), want (%v, %v)",
			decoded.Latitude, decoded.Longitude, event.Latitude, event.Longitude)
	}
	if decoded.Place != event.Place {
		t.Errorf("Place = %q, want %q", decoded.Place, event.Place)
	}
}

func TestSerializerRejectsInvalidEvent(t *testing.T) {
	s := NewSerializer()
	event := validEvent()
	event.Latitude = 200

	if _, err := s.Marshal(&event); err == nil {
		t.Error("Marshal() expected error for invalid event")
	}
}

func TestSerializerRejectsMalformedJSON(t *testing.T) {
	s := NewSerializer()
	if _, err := s.Unmarshal([]byte("{not json")); err == nil {
		t.Error("Unmarshal() expected error for malformed input")
	}
}
