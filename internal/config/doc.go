// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

/*
Package config loads Placefeed configuration with koanf.

Sources are layered, later layers winning:

 1. Struct defaults (defaultConfig)
 2. YAML file: CONFIG_PATH, else config.yaml / config.yml / /etc/placefeed/config.yaml
 3. Environment variables mapped explicitly by envTransformFunc

Unmapped environment variables are ignored so the process environment cannot
pollute the configuration tree.

# Environment Variables

Server:
  - HTTP_HOST, HTTP_PORT, HTTP_READ_TIMEOUT, HTTP_WRITE_TIMEOUT, SHUTDOWN_TIMEOUT

Database:
  - DUCKDB_PATH (":memory:" for an ephemeral store), DUCKDB_MAX_MEMORY, DUCKDB_THREADS

Feed ranking:
  - FEED_DEFAULT_LIMIT (20), FEED_MAX_LIMIT (100)
  - FEED_OVERFETCH_FACTOR (3), FEED_MAX_SCAN_BATCHES (5)
  - FEED_MAX_DISTANCE_KM (50), FEED_INCLUDE_GEOGRAPHIC (true)
  - FEED_FETCH_TIMEOUT (10s), FEED_VIEWER_CONTEXT_TTL (30s)
  - FEED_WEIGHT_BASE (5), FEED_WEIGHT_FOLLOW (3), FEED_WEIGHT_CATEGORY (2), FEED_WEIGHT_PROXIMITY (1)

Discovery:
  - DISCOVERY_DEFAULT_LIMIT (15), DISCOVERY_MAX_LIMIT (100)
  - DISCOVERY_MAX_DISTANCE_KM (25), TRENDING_WINDOW (168h)

Cache:
  - FEED_CACHE_TTL (300s), FEED_CACHE_MAX_VIEWERS (10000)

Circuit breaker:
  - BREAKER_MAX_REQUESTS, BREAKER_INTERVAL, BREAKER_TIMEOUT, BREAKER_FAILURE_THRESHOLD

Events and interactions:
  - NATS_URL (empty = in-process channel), EVENTS_TOPIC_PREFIX
  - VIEW_LOG_PATH (empty = in-memory), VIEWED_TTL, VIEWED_QUEUE_SIZE
  - VIEWED_RATE_PER_SECOND, VIEWED_RATE_BURST

Security:
  - AUTH_MODE (jwt, none), JWT_SECRET, JWT_ISSUER
  - CORS_ORIGINS (comma-separated), RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER
*/
package config
