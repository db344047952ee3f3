// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

// Package metrics declares the Prometheus collectors exported at /metrics.
//
// Collectors are package-level promauto values registered with the default
// registry. Call sites use the Record* helpers so label sets stay consistent.
//
// Families:
//
//   - placefeed_http_*: request count, latency, in-flight
//   - placefeed_feed_*: ranking latency, candidates scanned, page sizes
//   - placefeed_discovery_*: trending latency, places emitted
//   - placefeed_feed_cache_*: hits, misses, evictions, refresh outcomes
//   - placefeed_store_*: store call latency and errors by code
//   - placefeed_circuit_breaker_*: breaker state and transitions
//   - placefeed_events_*: published events, viewed marks dropped
package metrics
