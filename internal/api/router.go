// QuakeLens - Earthquake Stream Clustering and Geographic Visualization
// Copyright 2026 QuakeLens Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quakelens/quakelens

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quakelens/quakelens/internal/config"
	"github.com/quakelens/quakelens/internal/middleware"
)

// NewRouter builds the HTTP router. Global middleware applies to every
// route; rate limiting and request metrics apply only to the /api/v1 group
// so health probes and Prometheus scrapes are never throttled.
func NewRouter(cfg *config.Config, handlers *Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(cfg.Server.Timeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.API.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health/live", handlers.HealthLive)
		r.Get("/health/ready", handlers.HealthReady)

		r.Group(func(r chi.Router) {
			r.Use(httprate.LimitByIP(cfg.API.RateLimitReqs, cfg.API.RateLimitWindow))
			r.Use(middleware.Prometheus)

			r.Get("/window", handlers.Window)
			r.Get("/clusters", handlers.Clusters)
			r.Get("/regions", handlers.Regions)
			r.Get("/snapshot", handlers.Snapshot)
			r.Get("/ws", handlers.ServeWS)
		})
	})

	return r
}

// NewServer builds the http.Server for the router. Write timeout is left
// unset because the websocket endpoint holds its connection open.
func NewServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
