// QuakeLens - Earthquake Stream Clustering and Geographic Visualization
// Copyright 2026 QuakeLens Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quakelens/quakelens

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	gorillaws "github.com/gorilla/websocket"

	"github.com/quakelens/quakelens/internal/engine"
	"github.com/quakelens/quakelens/internal/logging"
	"github.com/quakelens/quakelens/internal/quake"
	"github.com/quakelens/quakelens/internal/websocket"
)

// validate is the shared validator instance for request structs.
var validate = validator.New()

// windowQuery holds the validated query parameters for the window endpoint.
type windowQuery struct {
	Limit        int     `validate:"gte=0,lte=10000"`
	MinMagnitude float64 `validate:"gte=0,lte=12"`
}

// Handlers serves the API over the clustering engine.
type Handlers struct {
	processor *engine.Processor
	hub       *websocket.Hub
	upgrader  gorillaws.Upgrader
	started   time.Time
}

// NewHandlers creates API handlers over the given engine and hub.
func NewHandlers(processor *engine.Processor, hub *websocket.Hub) *Handlers {
	return &Handlers{
		processor: processor,
		hub:       hub,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The API is same-origin behind its own CORS policy; the
			// upgrade accepts any origin the CORS layer let through.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		started: time.Now(),
	}
}

// HealthLive reports process liveness.
func (h *Handlers) HealthLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(h.started).String(),
	})
}

// HealthReady reports readiness. The engine is ready as soon as it exists;
// an empty window is a valid state, not an outage.
func (h *Handlers) HealthReady(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"status":        "ok",
		"window_events": h.processor.WindowLen(),
	})
}

// Window returns the current window events, optionally capped by ?limit
// and filtered by ?min_magnitude.
func (h *Handlers) Window(w http.ResponseWriter, r *http.Request) {
	q, err := parseWindowQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	snapshot := h.processor.Snapshot()

	events := snapshot.Events
	if q.MinMagnitude > 0 {
		filtered := make([]quake.Event, 0, len(events))
		for _, event := range events {
			if event.Magnitude >= q.MinMagnitude {
				filtered = append(filtered, event)
			}
		}
		events = filtered
	}
	if q.Limit > 0 && len(events) > q.Limit {
		events = events[:q.Limit]
	}

	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"generated_at": snapshot.GeneratedAt,
		"count":        len(events),
		"events":       events,
	})
}

// Clusters returns the clusters from the latest detection pass.
func (h *Handlers) Clusters(w http.ResponseWriter, r *http.Request) {
	snapshot := h.processor.Snapshot()
	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"generated_at": snapshot.GeneratedAt,
		"count":        len(snapshot.Clusters),
		"clusters":     snapshot.Clusters,
	})
}

// Regions returns the highlight regions from the latest detection pass.
func (h *Handlers) Regions(w http.ResponseWriter, r *http.Request) {
	snapshot := h.processor.Snapshot()
	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"generated_at": snapshot.GeneratedAt,
		"count":        len(snapshot.Regions),
		"regions":      snapshot.Regions,
	})
}

// Snapshot returns the full derived state: events, clusters and regions.
func (h *Handlers) Snapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, h.processor.Snapshot())
}

// ServeWS upgrades the connection and registers the client with the hub.
// The current snapshot is queued immediately so a fresh client renders
// without waiting for the next event.
func (h *Handlers) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := websocket.NewClient(h.hub, conn)
	h.hub.Register <- client
	client.Start()

	client.Send(websocket.Message{
		Type: websocket.MessageTypeSnapshot,
		Data: h.processor.Snapshot(),
	})
}

func parseWindowQuery(r *http.Request) (*windowQuery, error) {
	q := &windowQuery{}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return nil, &queryError{"limit must be an integer"}
		}
		q.Limit = limit
	}
	if raw := r.URL.Query().Get("min_magnitude"); raw != "" {
		mag, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, &queryError{"min_magnitude must be a number"}
		}
		q.MinMagnitude = mag
	}

	if err := validate.Struct(q); err != nil {
		return nil, &queryError{"query parameters out of range"}
	}
	return q, nil
}

type queryError struct {
	msg string
}

func (e *queryError) Error() string { return e.msg }
