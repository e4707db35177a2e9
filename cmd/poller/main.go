// QuakeLens - Earthquake Stream Clustering and Geographic Visualization
// Copyright 2026 QuakeLens Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quakelens/quakelens

// Command poller fetches the USGS earthquake feed on an interval and
// publishes unseen events to the quake stream.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/quakelens/quakelens/internal/config"
	"github.com/quakelens/quakelens/internal/eventstream"
	"github.com/quakelens/quakelens/internal/feed"
	"github.com/quakelens/quakelens/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		feedURL      string
		interval     time.Duration
		minMagnitude float64
		once         bool
	)

	cmd := &cobra.Command{
		Use:          "poller",
		Short:        "Poll the USGS earthquake feed and publish events",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			// Flags override loaded configuration when set.
			if cmd.Flags().Changed("feed-url") {
				cfg.Feed.URL = feedURL
			}
			if cmd.Flags().Changed("interval") {
				cfg.Feed.Interval = interval
			}
			if cmd.Flags().Changed("min-magnitude") {
				cfg.Feed.MinMagnitude = minMagnitude
			}

			logging.Init(logging.Config{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
				Caller: cfg.Logging.Caller,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			err = runPoller(ctx, cfg, once)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&feedURL, "feed-url", "", "feed URL override")
	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "poll interval override")
	cmd.Flags().Float64Var(&minMagnitude, "min-magnitude", 0, "minimum magnitude override")
	cmd.Flags().BoolVar(&once, "once", false, "run a single poll and exit")

	return cmd
}

func runPoller(ctx context.Context, cfg *config.Config, once bool) error {
	logging.Info().
		Str("feed_url", cfg.Feed.URL).
		Dur("interval", cfg.Feed.Interval).
		Float64("min_magnitude", cfg.Feed.MinMagnitude).
		Msg("starting quakelens poller")

	publisher, err := eventstream.NewPublisher(
		eventstream.DefaultPublisherConfig(cfg.NATS.URL),
		eventstream.NewLoggerAdapter(),
	)
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logging.Warn().Err(err).Msg("publisher close failed")
		}
	}()

	seen, err := feed.OpenSeenStore(cfg.Feed.SeenDBPath, cfg.Feed.SeenTTL)
	if err != nil {
		return err
	}
	defer func() {
		if err := seen.Close(); err != nil {
			logging.Warn().Err(err).Msg("seen store close failed")
		}
	}()

	client := feed.NewClient(feed.ClientConfig{
		URL:          cfg.Feed.URL,
		Timeout:      cfg.Feed.Timeout,
		MinMagnitude: cfg.Feed.MinMagnitude,
		RatePerSec:   cfg.Feed.RatePerSec,
	})

	poller := feed.NewPoller(client, seen, publisher, cfg.Feed.Interval)
	if once {
		return poller.PollOnce(ctx)
	}
	return poller.Run(ctx)
}
