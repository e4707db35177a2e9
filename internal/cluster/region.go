// QuakeLens - Earthquake Stream Clustering and Geographic Visualization
// Copyright 2026 QuakeLens Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quakelens/quakelens

package cluster

import (
	"github.com/quakelens/quakelens/internal/geo"
)

// Region is one circular map highlight derived from a cluster. Regions are
// transient render artifacts regenerated on every detection pass; they carry
// no identity across passes.
type Region struct {
	// CenterLat/CenterLon is the arithmetic mean of member coordinates.
	// For clusters near the poles or straddling the antimeridian the mean
	// drifts from the true geographic center; at the cluster scales the
	// distance threshold permits, the drift stays within the margin.
	CenterLat float64 `json:"center_lat"`
	CenterLon float64 `json:"center_lon"`

	// RadiusKm is the distance from the center to the farthest member,
	// plus the configured margin. Always positive, even for clusters of
	// coincident events.
	RadiusKm float64 `json:"radius_km"`

	// EventIDs lists the member event ids in cluster member order.
	EventIDs []string `json:"event_ids"`

	// EventCount duplicates len(EventIDs) for rendering convenience.
	EventCount int `json:"event_count"`
}

// BuildRegions derives one highlight region per cluster. Cluster order is
// preserved, so region output is deterministic whenever detection is.
func (d *Detector) BuildRegions(clusters []Cluster) []Region {
	if len(clusters) == 0 {
		return nil
	}
	regions := make([]Region, 0, len(clusters))
	for i := range clusters {
		regions = append(regions, d.buildRegion(&clusters[i]))
	}
	return regions
}

func (d *Detector) buildRegion(c *Cluster) Region {
	var sumLat, sumLon float64
	for _, event := range c.Events {
		sumLat += event.Latitude
		sumLon += event.Longitude
	}
	n := float64(len(c.Events))
	centerLat := sumLat / n
	centerLon := sumLon / n

	var maxKm float64
	for _, event := range c.Events {
		dist, err := geo.Distance(centerLat, centerLon, event.Latitude, event.Longitude)
		if err != nil {
			continue
		}
		if dist > maxKm {
			maxKm = dist
		}
	}

	radius := maxKm + d.config.RegionMarginKm
	if radius <= 0 {
		radius = minRegionRadiusKm
	}

	ids := make([]string, len(c.EventIDs))
	copy(ids, c.EventIDs)

	return Region{
		CenterLat:  centerLat,
		CenterLon:  centerLon,
		RadiusKm:   radius,
		EventIDs:   ids,
		EventCount: len(ids),
	}
}

// minRegionRadiusKm keeps regions visible when every member is at the exact
// same coordinate and no margin is configured.
const minRegionRadiusKm = 1.0
