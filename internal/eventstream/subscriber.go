// QuakeLens - Earthquake Stream Clustering and Geographic Visualization
// Copyright 2026 QuakeLens Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quakelens/quakelens

package eventstream

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"

	"github.com/quakelens/quakelens/internal/metrics"
	"github.com/quakelens/quakelens/internal/quake"
)

// Subscriber wraps a durable JetStream subscriber bound to the quake stream.
type Subscriber struct {
	subscriber message.Subscriber
	config     SubscriberConfig
	logger     watermill.LoggerAdapter
}

// NewSubscriber creates a durable queue-group subscriber. Binding to the
// pre-created stream avoids AutoProvision races between server instances.
func NewSubscriber(cfg SubscriberConfig, logger watermill.LoggerAdapter) (*Subscriber, error) {
	if logger == nil {
		logger = NewLoggerAdapter()
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("Subscriber disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("Subscriber reconnected", watermill.LogFields{
				"url": nc.ConnectedUrl(),
			})
		}),
	}

	subOpts := []natsgo.SubOpt{
		natsgo.MaxDeliver(cfg.MaxDeliver),
		natsgo.MaxAckPending(cfg.MaxAckPending),
		natsgo.AckWait(cfg.AckWaitTimeout),
		natsgo.DeliverNew(),
		natsgo.BindStream(cfg.StreamName),
	}

	wmConfig := wmNats.SubscriberConfig{
		URL:              cfg.URL,
		QueueGroupPrefix: cfg.QueueGroup,
		SubscribersCount: cfg.SubscribersCount,
		AckWaitTimeout:   cfg.AckWaitTimeout,
		CloseTimeout:     cfg.CloseTimeout,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:         false,
			AutoProvision:    false,
			AckAsync:         false,
			SubscribeOptions: subOpts,
			DurablePrefix:    cfg.DurableName,
		},
	}

	sub, err := wmNats.NewSubscriber(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill subscriber: %w", err)
	}

	return &Subscriber{
		subscriber: sub,
		config:     cfg,
		logger:     logger,
	}, nil
}

// Subscribe returns the message channel for the given topic. The channel
// closes when the context is canceled or the subscriber is closed.
func (s *Subscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return s.subscriber.Subscribe(ctx, topic)
}

// Close gracefully shuts down the subscriber.
func (s *Subscriber) Close() error {
	return s.subscriber.Close()
}

// EventHandler consumes quake events from the stream, deserializing each
// message and dispatching it to the handler function. Processing errors
// nack the message for redelivery; decode errors ack and drop, since a
// malformed payload can never succeed on retry.
type EventHandler struct {
	subscriber *Subscriber
	serializer *quake.Serializer
	handler    func(ctx context.Context, event *quake.Event) error
	logger     watermill.LoggerAdapter
}

// NewEventHandler creates an event handler over this subscriber.
func (s *Subscriber) NewEventHandler() *EventHandler {
	return &EventHandler{
		subscriber: s,
		serializer: quake.NewSerializer(),
		logger:     s.logger,
	}
}

// Handle sets the event processing function.
func (h *EventHandler) Handle(fn func(ctx context.Context, event *quake.Event) error) *EventHandler {
	h.handler = fn
	return h
}

// Run consumes events until context cancellation.
func (h *EventHandler) Run(ctx context.Context) error {
	messages, err := h.subscriber.Subscribe(ctx, quake.Subject)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", quake.Subject, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			h.processMessage(ctx, msg)
		}
	}
}

func (h *EventHandler) processMessage(ctx context.Context, msg *message.Message) {
	metrics.NATSConsumed.Inc()

	event, err := h.serializer.Unmarshal(msg.Payload)
	if err != nil {
		h.logger.Error("Dropping undecodable message", err, watermill.LogFields{
			"message_uuid": msg.UUID,
		})
		msg.Ack()
		return
	}

	if h.handler == nil {
		msg.Ack()
		return
	}

	if err := h.handler(ctx, event); err != nil {
		var invalid *quake.InvalidEventError
		if errors.As(err, &invalid) {
			// Validation failures are terminal; redelivery cannot fix them.
			h.logger.Error("Dropping invalid event", err, watermill.LogFields{
				"event_id": event.ID,
			})
			msg.Ack()
			return
		}
		h.logger.Error("Event processing failed", err, watermill.LogFields{
			"event_id": event.ID,
		})
		msg.Nack()
		return
	}

	msg.Ack()
}
