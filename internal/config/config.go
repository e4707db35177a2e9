// QuakeLens - Earthquake Stream Clustering and Geographic Visualization
// Copyright 2026 QuakeLens Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/quakelens/quakelens

// Package config defines the QuakeLens configuration model and its layered
// loader (defaults, optional YAML file, environment variables).
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for both the server and the poller.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	NATS    NATSConfig    `koanf:"nats"`
	Feed    FeedConfig    `koanf:"feed"`
	Window  WindowConfig  `koanf:"window"`
	Cluster ClusterConfig `koanf:"cluster"`
	API     APIConfig     `koanf:"api"`
	Logging LoggingConfig `koanf:"logging"`
}

// ServerAddr returns the host:port the HTTP server binds to.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// NATSConfig holds the event stream settings. With EmbeddedServer enabled
// the server binary runs its own JetStream-enabled NATS instance and the
// poller connects to it over the loopback URL.
type NATSConfig struct {
	URL            string `koanf:"url"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	StoreDir       string `koanf:"store_dir"`
	MaxMemory      int64  `koanf:"max_memory"`
	MaxStore       int64  `koanf:"max_store"`
	DurableName    string `koanf:"durable_name"`
	QueueGroup     string `koanf:"queue_group"`
}

// FeedConfig holds the USGS feed poller settings.
type FeedConfig struct {
	URL          string        `koanf:"url"`
	Interval     time.Duration `koanf:"interval"`
	Timeout      time.Duration `koanf:"timeout"`
	MinMagnitude float64       `koanf:"min_magnitude"`
	SeenDBPath   string        `koanf:"seen_db_path"`
	SeenTTL      time.Duration `koanf:"seen_ttl"`
	RatePerSec   float64       `koanf:"rate_per_sec"`
}

// WindowConfig holds the rolling window settings.
type WindowConfig struct {
	Retention     time.Duration `koanf:"retention"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// ClusterConfig holds the detector thresholds.
type ClusterConfig struct {
	MaxDistanceKm  float64       `koanf:"max_distance_km"`
	MaxTimeGap     time.Duration `koanf:"max_time_gap"`
	MinClusterSize int           `koanf:"min_cluster_size"`
	RegionMarginKm float64       `koanf:"region_margin_km"`
}

// APIConfig holds API rate limiting and CORS settings.
type APIConfig struct {
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all defaults applied. Defaults are
// layered first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    4326,
			Timeout: 30 * time.Second,
		},
		NATS: NATSConfig{
			URL:            "nats://127.0.0.1:4222",
			EmbeddedServer: true,
			StoreDir:       "/data/nats/jetstream",
			MaxMemory:      1 << 30,
			MaxStore:       4 << 30,
			DurableName:    "quake-processor",
			QueueGroup:     "processors",
		},
		Feed: FeedConfig{
			URL:          "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/all_hour.geojson",
			Interval:     30 * time.Second,
			Timeout:      15 * time.Second,
			MinMagnitude: 0,
			SeenDBPath:   "/data/quakelens/seen",
			SeenTTL:      2 * time.Hour,
			RatePerSec:   1,
		},
		Window: WindowConfig{
			Retention:     30 * time.Minute,
			SweepInterval: 15 * time.Second,
		},
		Cluster: ClusterConfig{
			MaxDistanceKm:  100,
			MaxTimeGap:     30 * time.Minute,
			MinClusterSize: 2,
			RegionMarginKm: 10,
		},
		API: APIConfig{
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}
