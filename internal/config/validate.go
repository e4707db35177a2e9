// QuakeLens - Earthquake Stream Clustering and Geographic Visualization
// Copyright 2026 QuakeLens Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quakelens/quakelens

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks that required configuration is present and usable.
// Errors name the offending setting by its environment variable so operator
// feedback is actionable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateNATS(); err != nil {
		return err
	}
	if err := c.validateFeed(); err != nil {
		return err
	}
	if err := c.validateWindow(); err != nil {
		return err
	}
	if err := c.validateCluster(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", c.Server.Timeout)
	}
	return nil
}

func (c *Config) validateNATS() error {
	if c.NATS.URL == "" {
		return fmt.Errorf("NATS_URL is required")
	}
	if !strings.HasPrefix(c.NATS.URL, "nats://") && !strings.HasPrefix(c.NATS.URL, "tls://") {
		return fmt.Errorf("NATS_URL must start with nats:// or tls://, got %q", c.NATS.URL)
	}
	if c.NATS.DurableName == "" {
		return fmt.Errorf("NATS_DURABLE_NAME is required")
	}
	if c.NATS.EmbeddedServer && c.NATS.StoreDir == "" {
		return fmt.Errorf("NATS_STORE_DIR is required when NATS_EMBEDDED=true")
	}
	return nil
}

func (c *Config) validateFeed() error {
	if c.Feed.URL == "" {
		return fmt.Errorf("FEED_URL is required")
	}
	parsed, err := url.Parse(c.Feed.URL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("FEED_URL must be a valid http(s) URL, got %q", c.Feed.URL)
	}
	if c.Feed.Interval <= 0 {
		return fmt.Errorf("FEED_INTERVAL must be positive, got %s", c.Feed.Interval)
	}
	if c.Feed.Timeout <= 0 {
		return fmt.Errorf("FEED_TIMEOUT must be positive, got %s", c.Feed.Timeout)
	}
	if c.Feed.RatePerSec <= 0 {
		return fmt.Errorf("FEED_RATE_PER_SEC must be positive, got %g", c.Feed.RatePerSec)
	}
	if c.Feed.SeenTTL <= 0 {
		return fmt.Errorf("FEED_SEEN_TTL must be positive, got %s", c.Feed.SeenTTL)
	}
	return nil
}

func (c *Config) validateWindow() error {
	if c.Window.Retention <= 0 {
		return fmt.Errorf("WINDOW_RETENTION must be positive, got %s", c.Window.Retention)
	}
	if c.Window.SweepInterval <= 0 {
		return fmt.Errorf("WINDOW_SWEEP_INTERVAL must be positive, got %s", c.Window.SweepInterval)
	}
	return nil
}

func (c *Config) validateCluster() error {
	if c.Cluster.MaxDistanceKm <= 0 {
		return fmt.Errorf("CLUSTER_MAX_DISTANCE_KM must be positive, got %g", c.Cluster.MaxDistanceKm)
	}
	if c.Cluster.MaxTimeGap <= 0 {
		return fmt.Errorf("CLUSTER_MAX_TIME_GAP must be positive, got %s", c.Cluster.MaxTimeGap)
	}
	if c.Cluster.MinClusterSize < 2 {
		return fmt.Errorf("CLUSTER_MIN_SIZE must be at least 2, got %d", c.Cluster.MinClusterSize)
	}
	if c.Cluster.RegionMarginKm < 0 {
		return fmt.Errorf("CLUSTER_REGION_MARGIN_KM cannot be negative, got %g", c.Cluster.RegionMarginKm)
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.RateLimitReqs <= 0 {
		return fmt.Errorf("API_RATE_LIMIT_REQS must be positive, got %d", c.API.RateLimitReqs)
	}
	if c.API.RateLimitWindow <= 0 {
		return fmt.Errorf("API_RATE_LIMIT_WINDOW must be positive, got %s", c.API.RateLimitWindow)
	}
	if len(c.API.CORSOrigins) == 0 {
		return fmt.Errorf("API_CORS_ORIGINS must list at least one origin")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace/debug/info/warn/error/fatal/panic, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
