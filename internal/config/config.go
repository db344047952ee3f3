// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package config

import "time"

// Config is the root configuration tree.
type Config struct {
	Server       ServerConfig       `koanf:"server"`
	Database     DatabaseConfig     `koanf:"database"`
	Feed         FeedConfig         `koanf:"feed"`
	Discovery    DiscoveryConfig    `koanf:"discovery"`
	Cache        CacheConfig        `koanf:"cache"`
	Breaker      BreakerConfig      `koanf:"breaker"`
	Events       EventsConfig       `koanf:"events"`
	Interactions InteractionsConfig `koanf:"interactions"`
	Security     SecurityConfig     `koanf:"security"`
	Logging      LoggingConfig      `koanf:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig configures the DuckDB activity store.
type DatabaseConfig struct {
	Path      string `koanf:"path" validate:"required"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads" validate:"min=0"`
}

// ScoreWeights are the additive relevance bonuses.
type ScoreWeights struct {
	Base      int `koanf:"base" validate:"min=0"`
	Follow    int `koanf:"follow" validate:"min=0"`
	Category  int `koanf:"category" validate:"min=0"`
	Proximity int `koanf:"proximity" validate:"min=0"`
}

// FeedConfig tunes the personalized feed ranking.
type FeedConfig struct {
	DefaultLimit      int           `koanf:"default_limit" validate:"min=1"`
	MaxLimit          int           `koanf:"max_limit" validate:"min=1"`
	OverfetchFactor   int           `koanf:"overfetch_factor" validate:"min=1,max=20"`
	MaxScanBatches    int           `koanf:"max_scan_batches" validate:"min=1,max=50"`
	MaxDistanceKm     float64       `koanf:"max_distance_km" validate:"gt=0"`
	IncludeGeographic bool          `koanf:"include_geographic"`
	FetchTimeout      time.Duration `koanf:"fetch_timeout" validate:"gt=0"`
	ViewerContextTTL  time.Duration `koanf:"viewer_context_ttl" validate:"min=0"`
	Weights           ScoreWeights  `koanf:"weights"`
}

// DiscoveryConfig tunes the trending places feed.
type DiscoveryConfig struct {
	DefaultLimit  int           `koanf:"default_limit" validate:"min=1"`
	MaxLimit      int           `koanf:"max_limit" validate:"min=1"`
	MaxDistanceKm float64       `koanf:"max_distance_km" validate:"gt=0"`
	Window        time.Duration `koanf:"window" validate:"gt=0"`
	BatchSize     int           `koanf:"batch_size" validate:"min=1,max=10000"`
	FetchTimeout  time.Duration `koanf:"fetch_timeout" validate:"gt=0"`
}

// CacheConfig tunes the per-viewer feed cache.
type CacheConfig struct {
	TTL        time.Duration `koanf:"ttl" validate:"gt=0"`
	MaxViewers int           `koanf:"max_viewers" validate:"min=1"`
}

// BreakerConfig configures the store circuit breakers.
type BreakerConfig struct {
	MaxRequests      uint32        `koanf:"max_requests" validate:"min=1"`
	Interval         time.Duration `koanf:"interval" validate:"min=0"`
	Timeout          time.Duration `koanf:"timeout" validate:"gt=0"`
	FailureThreshold uint32        `koanf:"failure_threshold" validate:"min=1"`

	// CallTimeout bounds each store call. Zero disables the per-call bound.
	CallTimeout time.Duration `koanf:"call_timeout" validate:"min=0"`
}

// EventsConfig configures interaction event publishing.
type EventsConfig struct {
	// NATSURL selects a NATS JetStream publisher. Empty publishes in-process.
	NATSURL       string        `koanf:"nats_url" validate:"omitempty,url"`
	TopicPrefix   string        `koanf:"topic_prefix" validate:"required"`
	TrackMsgID    bool          `koanf:"track_msg_id"`
	MaxReconnects int           `koanf:"max_reconnects"`
	ReconnectWait time.Duration `koanf:"reconnect_wait" validate:"min=0"`
}

// InteractionsConfig configures likes and viewed tracking.
type InteractionsConfig struct {
	// ViewLogPath is the badger directory for viewed markers. Empty keeps them in memory.
	ViewLogPath   string        `koanf:"view_log_path"`
	ViewedTTL     time.Duration `koanf:"viewed_ttl" validate:"gt=0"`
	QueueSize     int           `koanf:"queue_size" validate:"min=1"`
	RatePerSecond float64       `koanf:"rate_per_second" validate:"gt=0"`
	RateBurst     int           `koanf:"rate_burst" validate:"min=1"`
}

// SecurityConfig configures authentication and HTTP protections.
type SecurityConfig struct {
	AuthMode          string        `koanf:"auth_mode" validate:"oneof=jwt none"`
	JWTSecret         string        `koanf:"jwt_secret"`
	JWTIssuer         string        `koanf:"jwt_issuer"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"min=1"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
}

// LoggingConfig configures the zerolog logger.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}
