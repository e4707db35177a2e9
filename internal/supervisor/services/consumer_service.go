// QuakeLens - Earthquake Stream Clustering and Geographic Visualization
// Copyright 2026 QuakeLens Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quakelens/quakelens

package services

import (
	"context"

	"github.com/quakelens/quakelens/internal/engine"
	"github.com/quakelens/quakelens/internal/eventstream"
	"github.com/quakelens/quakelens/internal/quake"
)

// ConsumerService feeds events from the NATS stream into the clustering
// engine. Invalid events propagate their validation error so the handler
// can ack-and-drop them instead of redelivering.
type ConsumerService struct {
	subscriber *eventstream.Subscriber
	processor  *engine.Processor
}

// NewConsumerService wraps the subscriber and engine as a supervised
// service.
func NewConsumerService(subscriber *eventstream.Subscriber, processor *engine.Processor) *ConsumerService {
	return &ConsumerService{
		subscriber: subscriber,
		processor:  processor,
	}
}

// Serve implements suture.Service, consuming until context cancellation.
func (s *ConsumerService) Serve(ctx context.Context) error {
	handler := s.subscriber.NewEventHandler().Handle(
		func(ctx context.Context, event *quake.Event) error {
			return s.processor.Process(*event)
		})

	return handler.Run(ctx)
}

// String identifies the service in supervisor logs.
func (s *ConsumerService) String() string {
	return "quake-consumer"
}
