// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/placefeed/config.yaml",
	"/etc/placefeed/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8420,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 20 * time.Second,
		},
		Database: DatabaseConfig{
			Path:      "/data/placefeed.duckdb",
			MaxMemory: "1GB",
			Threads:   0, // runtime.NumCPU()
		},
		Feed: FeedConfig{
			DefaultLimit:      20,
			MaxLimit:          100,
			OverfetchFactor:   3,
			MaxScanBatches:    5,
			MaxDistanceKm:     50,
			IncludeGeographic: true,
			FetchTimeout:      10 * time.Second,
			ViewerContextTTL:  30 * time.Second,
			Weights: ScoreWeights{
				Base:      5,
				Follow:    3,
				Category:  2,
				Proximity: 1,
			},
		},
		Discovery: DiscoveryConfig{
			DefaultLimit:  15,
			MaxLimit:      100,
			MaxDistanceKm: 25,
			Window:        7 * 24 * time.Hour,
			BatchSize:     500,
			FetchTimeout:  10 * time.Second,
		},
		Cache: CacheConfig{
			TTL:        300 * time.Second,
			MaxViewers: 10000,
		},
		Breaker: BreakerConfig{
			MaxRequests:      3,
			Interval:         time.Minute,
			Timeout:          30 * time.Second,
			FailureThreshold: 5,
			CallTimeout:      5 * time.Second,
		},
		Events: EventsConfig{
			NATSURL:       "",
			TopicPrefix:   "placefeed",
			TrackMsgID:    true,
			MaxReconnects: -1,
			ReconnectWait: 2 * time.Second,
		},
		Interactions: InteractionsConfig{
			ViewLogPath:   "",
			ViewedTTL:     30 * 24 * time.Hour,
			QueueSize:     1024,
			RatePerSecond: 10,
			RateBurst:     20,
		},
		Security: SecurityConfig{
			AuthMode:          "jwt",
			JWTIssuer:         "placefeed",
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 300,
			RateLimitWindow:   time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file, and
// the environment, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths are split on commas when they arrive as a single string.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		var parts []string
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	"http_host":          "server.host",
	"http_port":          "server.port",
	"http_read_timeout":  "server.read_timeout",
	"http_write_timeout": "server.write_timeout",
	"shutdown_timeout":   "server.shutdown_timeout",

	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",

	"feed_default_limit":      "feed.default_limit",
	"feed_max_limit":          "feed.max_limit",
	"feed_overfetch_factor":   "feed.overfetch_factor",
	"feed_max_scan_batches":   "feed.max_scan_batches",
	"feed_max_distance_km":    "feed.max_distance_km",
	"feed_include_geographic": "feed.include_geographic",
	"feed_fetch_timeout":      "feed.fetch_timeout",
	"feed_viewer_context_ttl": "feed.viewer_context_ttl",
	"feed_weight_base":        "feed.weights.base",
	"feed_weight_follow":      "feed.weights.follow",
	"feed_weight_category":    "feed.weights.category",
	"feed_weight_proximity":   "feed.weights.proximity",

	"discovery_default_limit":   "discovery.default_limit",
	"discovery_max_limit":       "discovery.max_limit",
	"discovery_max_distance_km": "discovery.max_distance_km",
	"trending_window":           "discovery.window",
	"discovery_batch_size":      "discovery.batch_size",
	"discovery_fetch_timeout":   "discovery.fetch_timeout",

	"feed_cache_ttl":         "cache.ttl",
	"feed_cache_max_viewers": "cache.max_viewers",

	"breaker_max_requests":      "breaker.max_requests",
	"breaker_interval":          "breaker.interval",
	"breaker_timeout":           "breaker.timeout",
	"breaker_failure_threshold": "breaker.failure_threshold",
	"breaker_call_timeout":      "breaker.call_timeout",

	"nats_url":            "events.nats_url",
	"events_topic_prefix": "events.topic_prefix",

	"view_log_path":          "interactions.view_log_path",
	"viewed_ttl":             "interactions.viewed_ttl",
	"viewed_queue_size":      "interactions.queue_size",
	"viewed_rate_per_second": "interactions.rate_per_second",
	"viewed_rate_burst":      "interactions.rate_burst",

	"auth_mode":           "security.auth_mode",
	"jwt_secret":          "security.jwt_secret",
	"jwt_issuer":          "security.jwt_issuer",
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_requests",
	"rate_limit_window":   "security.rate_limit_window",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable name to its koanf path.
// Unmapped names return "" and are skipped.
//
//   - HTTP_PORT -> server.port
//   - FEED_CACHE_TTL -> cache.ttl
//   - TRENDING_WINDOW -> discovery.window
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
