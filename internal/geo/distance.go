// QuakeLens - Earthquake Stream Clustering and Geographic Visualization
// Copyright 2026 QuakeLens Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quakelens/quakelens

// Package geo provides great-circle distance computation on a spherical
// earth model. Distances are in kilometers throughout QuakeLens; clustering
// only compares distances against thresholds, so haversine accuracy is
// sufficient.
package geo

import (
	"fmt"
	"math"
)

// EarthRadiusKm is the mean earth radius used for all distance computation.
// Matches the WGS84 mean radius commonly used with the haversine formula.
const EarthRadiusKm = 6371.0088

// InvalidCoordinateError reports a coordinate outside the legal
// latitude/longitude domain.
type InvalidCoordinateError struct {
	Latitude  float64
	Longitude float64
}

func (e *InvalidCoordinateError) Error() string {
	return fmt.Sprintf("coordinate out of range: lat=%g lon=%g", e.Latitude, e.Longitude)
}

// ValidCoordinate reports whether lat/lon are inside the legal domain
// (latitude in [-90,90], longitude in [-180,180]). NaN fails both bounds.
func ValidCoordinate(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Distance returns the great-circle distance in kilometers between two
// coordinates. It is symmetric and zero (within floating-point tolerance)
// iff the coordinates are identical. Coordinates outside the legal domain
// yield an *InvalidCoordinateError.
func Distance(lat1, lon1, lat2, lon2 float64) (float64, error) {
	if !ValidCoordinate(lat1, lon1) {
		return 0, &InvalidCoordinateError{Latitude: lat1, Longitude: lon1}
	}
	if !ValidCoordinate(lat2, lon2) {
		return 0, &InvalidCoordinateError{Latitude: lat2, Longitude: lon2}
	}
	return haversine(lat1, lon1, lat2, lon2), nil
}

// haversine computes the great-circle distance in kilometers for
// coordinates already known to be in domain.
func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180.0
	lon1Rad := lon1 * math.Pi / 180.0
	lat2Rad := lat2 * math.Pi / 180.0
	lon2Rad := lon2 * math.Pi / 180.0

	dLat := lat2Rad - lat1Rad
	dLon := lon2Rad - lon1Rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}
