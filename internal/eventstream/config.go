// QuakeLens - Earthquake Stream Clustering and Geographic Visualization
// Copyright 2026 QuakeLens Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quakelens/quakelens

// Package eventstream carries quake events over NATS JetStream.
//
// The poller publishes normalized events on the quake subject; the server
// consumes them through a durable queue-group subscriber. JetStream message
// id tracking gives broker-side deduplication on top of the window store's
// own duplicate handling, so a poller restart never floods the consumer with
// repeats.
package eventstream

import (
	"time"
)

// StreamName is the JetStream stream holding quake events.
const StreamName = "QUAKES"

// StreamConfig holds JetStream stream settings.
type StreamConfig struct {
	Name            string
	Subjects        []string
	MaxAge          time.Duration
	MaxBytes        int64
	MaxMsgs         int64
	DuplicateWindow time.Duration
	Replicas        int
}

// DefaultStreamConfig returns stream settings sized for a single-instance
// deployment. MaxAge comfortably exceeds the rolling window so a restarted
// consumer can rebuild its window from the stream.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		Name:            StreamName,
		Subjects:        []string{"quake.>"},
		MaxAge:          24 * time.Hour,
		MaxBytes:        1 << 30,
		MaxMsgs:         1_000_000,
		DuplicateWindow: 2 * time.Minute,
		Replicas:        1,
	}
}

// PublisherConfig holds publisher connection settings.
type PublisherConfig struct {
	URL              string
	MaxReconnects    int
	ReconnectWait    time.Duration
	ReconnectBuffer  int
	EnableTrackMsgID bool
}

// DefaultPublisherConfig returns publisher settings for the given URL.
func DefaultPublisherConfig(url string) PublisherConfig {
	return PublisherConfig{
		URL:              url,
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
		ReconnectBuffer:  8 * 1024 * 1024,
		EnableTrackMsgID: true,
	}
}

// SubscriberConfig holds subscriber connection and consumer settings.
type SubscriberConfig struct {
	URL              string
	StreamName       string
	DurableName      string
	QueueGroup       string
	SubscribersCount int
	MaxReconnects    int
	ReconnectWait    time.Duration
	MaxDeliver       int
	MaxAckPending    int
	AckWaitTimeout   time.Duration
	CloseTimeout     time.Duration
}

// DefaultSubscriberConfig returns subscriber settings for the given URL and
// durable name. SubscribersCount is 1: the engine serializes processing
// anyway, and a single consumer keeps arrival order intact.
func DefaultSubscriberConfig(url, durable, queueGroup string) SubscriberConfig {
	return SubscriberConfig{
		URL:              url,
		StreamName:       StreamName,
		DurableName:      durable,
		QueueGroup:       queueGroup,
		SubscribersCount: 1,
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
		MaxDeliver:       5,
		MaxAckPending:    1024,
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     30 * time.Second,
	}
}
