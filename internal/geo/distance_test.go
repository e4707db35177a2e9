// QuakeLens - Earthquake Stream Clustering and Geographic Visualization
// Copyright 2026 QuakeLens Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quakelens/quakelens

package geo

import (
	"errors"
	"math"
	"testing"
)

func TestDistanceKnownPairs(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		wantKm                 float64
		tolKm                  float64
	}{
		{
			name: "identical points",
			lat1: 35.0, lon1: -118.0, lat2: 35.0, lon2: -118.0,
			wantKm: 0, tolKm: 1e-9,
		},
		{
			name: "one degree latitude at equator",
			lat1: 0, lon1: 0, lat2: 1, lon2: 0,
			wantKm: 111.19, tolKm: 0.5,
		},
		{
			name: "los angeles to san francisco",
			lat1: 34.0522, lon1: -118.2437, lat2: 37.7749, lon2: -122.4194,
			wantKm: 559, tolKm: 5,
		},
		{
			name: "antipodal points",
			lat1: 0, lon1: 0, lat2: 0, lon2: 180,
			wantKm: math.Pi * EarthRadiusKm, tolKm: 0.01,
		},
		{
			name: "across the antimeridian",
			lat1: 52.0, lon1: 179.9, lat2: 52.0, lon2: -179.9,
			wantKm: 13.7, tolKm: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Distance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if err != nil {
				t.Fatalf("Distance() error = %v", err)
			}
			if math.Abs(got-tt.wantKm) > tt.tolKm {
				t.Errorf("Distance() = %v km, want %v km (tol %v)", got, tt.wantKm, tt.tolKm)
			}
		})
	}
}

func TestDistanceSymmetry(t *testing.T) {
	d1, err := Distance(34.05, -118.24, 37.77, -122.42)
	if err != nil {
		t.Fatalf("Distance() error = %v", err)
	}
	d2, err := Distance(37.77, -122.42, 34.05, -118.24)
	if err != nil {
		t.Fatalf("Distance() error = %v", err)
	}
	if math.Abs(d1-d2) > 1e-9 {
		t.Errorf("Distance not symmetric: %v vs %v", d1, d2)
	}
}

func TestDistanceInvalidCoordinates(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
	}{
		{"latitude above 90", 91, 0, 0, 0},
		{"latitude below -90", -90.01, 0, 0, 0},
		{"longitude above 180", 0, 180.5, 0, 0},
		{"longitude below -180", 0, -181, 0, 0},
		{"second point invalid", 0, 0, 95, 10},
		{"NaN latitude", math.NaN(), 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Distance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if err == nil {
				t.Fatal("Distance() expected error, got nil")
			}
			var invalid *InvalidCoordinateError
			if !errors.As(err, &invalid) {
				t.Errorf("error type = %T, want *InvalidCoordinateError", err)
			}
		})
	}
}

func TestValidCoordinate(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		want     bool
	}{
		{"origin", 0, 0, true},
		{"north pole", 90, 0, true},
		{"south pole", -90, 0, true},
		{"antimeridian east", 0, 180, true},
		{"antimeridian west", 0, -180, true},
		{"latitude too high", 90.0001, 0, false},
		{"longitude too low", 0, -180.0001, false},
		{"NaN longitude", 0, math.NaN(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidCoordinate(tt.lat, tt.lon); got != tt.want {
				t.Errorf("ValidCoordinate(%v, %v) = %v, want %v", tt.lat, tt.lon, got, tt.want)
			}
		})
	}
}
