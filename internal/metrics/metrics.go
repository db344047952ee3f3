// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "placefeed_http_requests_total",
			Help: "Total HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "placefeed_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "placefeed_http_requests_in_flight",
			Help: "HTTP requests currently being served",
		},
	)

	// Ranking
	FeedRankDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "placefeed_feed_rank_duration_seconds",
			Help:    "Time to build one personalized feed page",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"outcome"},
	)

	FeedCandidatesScanned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "placefeed_feed_candidates_scanned",
			Help:    "Candidate activities read from the store per feed page",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10),
		},
	)

	FeedPageSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "placefeed_feed_page_size",
			Help:    "Entries returned per feed page",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
		},
	)

	// Discovery
	DiscoveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "placefeed_discovery_duration_seconds",
			Help:    "Time to build the trending places list",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"outcome"},
	)

	DiscoveryPlaces = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "placefeed_discovery_places",
			Help:    "Trending places returned per request",
			Buckets: []float64{0, 1, 5, 10, 15, 25, 50, 100},
		},
	)

	// Feed cache
	FeedCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "placefeed_feed_cache_hits_total",
			Help: "Per-viewer feed cache hits",
		},
	)

	FeedCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "placefeed_feed_cache_misses_total",
			Help: "Per-viewer feed cache misses (absent or expired)",
		},
	)

	FeedCacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "placefeed_feed_cache_evictions_total",
			Help: "Feed cache entries removed, by reason",
		},
		[]string{"reason"}, // "expired", "cleared", "capacity"
	)

	FeedCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "placefeed_feed_cache_entries",
			Help: "Viewers with a cached feed",
		},
	)

	FeedRefreshOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "placefeed_feed_refresh_total",
			Help: "Feed refresh outcomes",
		},
		[]string{"outcome"}, // "refreshed", "recovered", "failed", "coalesced"
	)

	FeedFetchesCoalesced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "placefeed_feed_fetches_coalesced_total",
			Help: "Session calls that joined an in-flight fetch instead of issuing one",
		},
	)

	// Stores
	StoreCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "placefeed_store_call_duration_seconds",
			Help:    "Latency of activity, graph and profile store calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"store", "operation"},
	)

	StoreCallErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "placefeed_store_call_errors_total",
			Help: "Failed store calls by classified error code",
		},
		[]string{"store", "operation", "code"},
	)

	// Circuit breakers
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "placefeed_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "placefeed_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Events and interactions
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "placefeed_events_published_total",
			Help: "Events published by topic and result",
		},
		[]string{"topic", "result"},
	)

	ViewedMarksDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "placefeed_viewed_marks_dropped_total",
			Help: "Viewed marks discarded before persistence",
		},
		[]string{"reason"}, // "queue_full", "rate_limited", "store_error"
	)

	ViewedMarksRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "placefeed_viewed_marks_recorded_total",
			Help: "Viewed marks persisted to the view log",
		},
	)
)

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, route, status string, d time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordFeedRank records one ranking call.
func RecordFeedRank(d time.Duration, scanned, returned int, err error) {
	FeedRankDuration.WithLabelValues(outcome(err)).Observe(d.Seconds())
	if err == nil {
		FeedCandidatesScanned.Observe(float64(scanned))
		FeedPageSize.Observe(float64(returned))
	}
}

// RecordDiscovery records one trending computation.
func RecordDiscovery(d time.Duration, places int, err error) {
	DiscoveryDuration.WithLabelValues(outcome(err)).Observe(d.Seconds())
	if err == nil {
		DiscoveryPlaces.Observe(float64(places))
	}
}

// RecordStoreCall records one guarded store call. code is "" on success.
func RecordStoreCall(store, operation, code string, d time.Duration) {
	StoreCallDuration.WithLabelValues(store, operation).Observe(d.Seconds())
	if code != "" {
		StoreCallErrors.WithLabelValues(store, operation, code).Inc()
	}
}

// RecordEventPublished records a publish attempt.
func RecordEventPublished(topic string, err error) {
	EventsPublished.WithLabelValues(topic, outcome(err)).Inc()
}
