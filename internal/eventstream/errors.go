// QuakeLens - Earthquake Stream Clustering and Geographic Visualization
// Copyright 2026 QuakeLens Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quakelens/quakelens

package eventstream

import "errors"

var (
	// ErrPublisherClosed is returned by Publish after Close.
	ErrPublisherClosed = errors.New("publisher is closed")

	// ErrCircuitOpen wraps gobreaker rejections so callers can
	// distinguish breaker trips from transport failures.
	ErrCircuitOpen = errors.New("publish circuit breaker open")

	// ErrServerNotReady is returned when the embedded NATS server does not
	// accept connections within its startup timeout.
	ErrServerNotReady = errors.New("NATS server not ready within timeout")
)
