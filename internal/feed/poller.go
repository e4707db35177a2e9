// QuakeLens - Earthquake Stream Clustering and Geographic Visualization
// Copyright 2026 QuakeLens Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quakelens/quakelens

package feed

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/quakelens/quakelens/internal/logging"
	"github.com/quakelens/quakelens/internal/quake"
)

// EventPublisher is the publishing side of the stream, satisfied by
// eventstream.Publisher.
type EventPublisher interface {
	PublishEvent(event *quake.Event) error
}

// Poller fetches the feed on a fixed interval and publishes events not yet
// seen. An event is marked seen only after a successful publish, so a
// failed publish is retried on the next poll.
type Poller struct {
	client    *Client
	seen      *SeenStore
	publisher EventPublisher
	interval  time.Duration
	logger    zerolog.Logger
}

// NewPoller creates a poller.
func NewPoller(client *Client, seen *SeenStore, publisher EventPublisher, interval time.Duration) *Poller {
	return &Poller{
		client:    client,
		seen:      seen,
		publisher: publisher,
		interval:  interval,
		logger:    logging.With().Str("component", "poller").Logger(),
	}
}

// PollOnce runs a single fetch-and-publish pass.
func (p *Poller) PollOnce(ctx context.Context) error {
	p.poll(ctx)
	return ctx.Err()
}

// Run polls until context cancellation. The first poll happens immediately.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

// poll runs one fetch-and-publish pass. Failures are logged and absorbed;
// the loop keeps running.
func (p *Poller) poll(ctx context.Context) {
	events, err := p.client.Fetch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.Warn().Err(err).Msg("Feed fetch failed")
		return
	}

	published := 0
	for i := range events {
		event := &events[i]

		alreadySeen, err := p.seen.Seen(event.ID)
		if err != nil {
			p.logger.Warn().Err(err).Str("event_id", event.ID).Msg("Seen lookup failed")
			continue
		}
		if alreadySeen {
			continue
		}

		if err := p.publisher.PublishEvent(event); err != nil {
			p.logger.Warn().Err(err).Str("event_id", event.ID).Msg("Publish failed")
			continue
		}

		if err := p.seen.Mark(event.ID); err != nil {
			// The broker's dedup window absorbs the re-publish this causes.
			p.logger.Warn().Err(err).Str("event_id", event.ID).Msg("Seen mark failed")
		}
		published++
	}

	if published > 0 {
		p.logger.Info().
			Int("fetched", len(events)).
			Int("published", published).
			Msg("Poll complete")
	} else {
		p.logger.Debug().Int("fetched", len(events)).Msg("Poll complete, nothing new")
	}
}
