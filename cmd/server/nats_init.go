// QuakeLens - Earthquake Stream Clustering and Geographic Visualization
// Copyright 2026 QuakeLens Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quakelens/quakelens

package main

import (
	"context"
	"fmt"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/quakelens/quakelens/internal/config"
	"github.com/quakelens/quakelens/internal/eventstream"
	"github.com/quakelens/quakelens/internal/logging"
)

// natsEnvironment bundles the transport pieces the server owns: the
// optional embedded broker, the stream-init connection and the subscriber.
type natsEnvironment struct {
	Embedded   *eventstream.EmbeddedServer
	Subscriber *eventstream.Subscriber
	conn       *natsgo.Conn
}

// initNATS starts the embedded server if configured, ensures the quake
// stream exists, and builds the durable subscriber.
func initNATS(ctx context.Context, cfg *config.Config) (*natsEnvironment, error) {
	env := &natsEnvironment{}

	url := cfg.NATS.URL
	if cfg.NATS.EmbeddedServer {
		embedded, err := eventstream.NewEmbeddedServer(eventstream.ServerConfig{
			Host:              "127.0.0.1",
			Port:              4222,
			StoreDir:          cfg.NATS.StoreDir,
			JetStreamMaxMem:   cfg.NATS.MaxMemory,
			JetStreamMaxStore: cfg.NATS.MaxStore,
		})
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS: %w", err)
		}
		env.Embedded = embedded
		url = embedded.ClientURL()
		logging.Info().Str("url", url).Msg("embedded NATS server ready")
	}

	conn, err := natsgo.Connect(url,
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2*time.Second),
	)
	if err != nil {
		env.Close(ctx)
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	env.conn = conn

	js, err := jetstream.New(conn)
	if err != nil {
		env.Close(ctx)
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	initializer, err := eventstream.NewStreamInitializer(js, eventstream.DefaultStreamConfig())
	if err != nil {
		env.Close(ctx)
		return nil, err
	}
	if _, err := initializer.EnsureStream(ctx); err != nil {
		env.Close(ctx)
		return nil, err
	}

	subscriber, err := eventstream.NewSubscriber(
		eventstream.DefaultSubscriberConfig(url, cfg.NATS.DurableName, cfg.NATS.QueueGroup),
		eventstream.NewLoggerAdapter(),
	)
	if err != nil {
		env.Close(ctx)
		return nil, err
	}
	env.Subscriber = subscriber

	return env, nil
}

// Close releases the transport in reverse construction order.
func (e *natsEnvironment) Close(ctx context.Context) {
	if e.Subscriber != nil {
		if err := e.Subscriber.Close(); err != nil {
			logging.Warn().Err(err).Msg("subscriber close failed")
		}
	}
	if e.conn != nil {
		e.conn.Close()
	}
	if e.Embedded != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Embedded.Shutdown(shutdownCtx); err != nil {
			logging.Warn().Err(err).Msg("embedded NATS shutdown failed")
		}
	}
}
