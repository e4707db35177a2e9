// QuakeLens - Earthquake Stream Clustering and Geographic Visualization
// Copyright 2026 QuakeLens Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quakelens/quakelens

package services

import (
	"context"
	"time"

	"github.com/quakelens/quakelens/internal/engine"
)

// SweeperService drives periodic window maintenance so expired events leave
// the window and clusters dissolve while the feed is quiet.
type SweeperService struct {
	processor *engine.Processor
	interval  time.Duration
}

// NewSweeperService wraps the engine's sweep as a supervised service.
func NewSweeperService(processor *engine.Processor, interval time.Duration) *SweeperService {
	return &SweeperService{
		processor: processor,
		interval:  interval,
	}
}

// Serve implements suture.Service.
func (s *SweeperService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.processor.Sweep()
		}
	}
}

// String identifies the service in supervisor logs.
func (s *SweeperService) String() string {
	return "window-sweeper"
}
