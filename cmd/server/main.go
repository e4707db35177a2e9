// QuakeLens - Earthquake Stream Clustering and Geographic Visualization
// Copyright 2026 QuakeLens Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quakelens/quakelens

// Command server runs the QuakeLens consumer: it subscribes to the quake
// event stream, maintains the rolling window and clustering engine, and
// serves the HTTP/WebSocket API.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/quakelens/quakelens/internal/api"
	"github.com/quakelens/quakelens/internal/cluster"
	"github.com/quakelens/quakelens/internal/config"
	"github.com/quakelens/quakelens/internal/engine"
	"github.com/quakelens/quakelens/internal/logging"
	"github.com/quakelens/quakelens/internal/supervisor"
	"github.com/quakelens/quakelens/internal/supervisor/services"
	"github.com/quakelens/quakelens/internal/websocket"
	"github.com/quakelens/quakelens/internal/window"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("listen", cfg.ServerAddr()).
		Str("nats_url", cfg.NATS.URL).
		Msg("starting quakelens server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
	logging.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	store, err := window.New(cfg.Window.Retention)
	if err != nil {
		return err
	}

	detector, err := cluster.NewDetector(cluster.Config{
		MaxDistanceKm:  cfg.Cluster.MaxDistanceKm,
		MaxTimeGap:     cfg.Cluster.MaxTimeGap,
		MinClusterSize: cfg.Cluster.MinClusterSize,
		RegionMarginKm: cfg.Cluster.RegionMarginKm,
	})
	if err != nil {
		return err
	}

	hub := websocket.NewHub()
	processor := engine.New(store, detector, engine.WithBroadcaster(hub))

	natsEnv, err := initNATS(ctx, cfg)
	if err != nil {
		return err
	}
	defer natsEnv.Close(ctx)

	handlers := api.NewHandlers(processor, hub)
	router := api.NewRouter(cfg, handlers)
	httpServer := api.NewServer(cfg, router)

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddMessagingService(services.NewHubService(hub))
	tree.AddMessagingService(services.NewConsumerService(natsEnv.Subscriber, processor))
	tree.AddMessagingService(services.NewSweeperService(processor, cfg.Window.SweepInterval))
	tree.AddAPIService(services.NewHTTPServerService(httpServer, cfg.Server.Timeout))

	return tree.Serve(ctx)
}
