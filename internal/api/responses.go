// QuakeLens - Earthquake Stream Clustering and Geographic Visualization
// Copyright 2026 QuakeLens Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quakelens/quakelens

// Package api serves the read-only HTTP surface over the clustering engine:
// window contents, clusters, highlight regions, the combined snapshot, the
// websocket upgrade, health probes and Prometheus metrics.
package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/quakelens/quakelens/internal/logging"
	"github.com/quakelens/quakelens/internal/middleware"
)

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().
			Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Msg("failed to encode response")
	}
}

// writeError writes a JSON error envelope carrying the request id.
func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorResponse{
		Error:     msg,
		RequestID: middleware.GetRequestID(r.Context()),
	})
}
