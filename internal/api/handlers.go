// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package api

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/placefeed/internal/breaker"
	"github.com/tomtom215/placefeed/internal/discovery"
	"github.com/tomtom215/placefeed/internal/interactions"
	"github.com/tomtom215/placefeed/internal/pagination"
	"github.com/tomtom215/placefeed/internal/ranking"
)

// FeedService ranks one feed page.
type FeedService interface {
	GetUserFeed(ctx context.Context, viewerID string, f ranking.Filters) (*ranking.Page, error)
}

// DiscoveryService computes trending places.
type DiscoveryService interface {
	GetDiscoveryFeed(ctx context.Context, viewerID string, f discovery.Filters) (*discovery.Result, error)
}

// SessionStore hands out per-viewer pagers.
type SessionStore interface {
	Get(viewerID string) *pagination.Pager
}

// InteractionService handles likes and viewed marks.
type InteractionService interface {
	Like(ctx context.Context, viewerID, activityID string) (interactions.Result, error)
	Unlike(ctx context.Context, viewerID, activityID string) (interactions.Result, error)
	MarkViewed(viewerID, activityID string) bool
}

// Store is the store health surface used by readiness.
type Store interface {
	Ping(ctx context.Context) error
	CountActivities(ctx context.Context) (int64, error)
}

// StatsFunc returns a JSON-encodable counter snapshot.
type StatsFunc func() any

// StatsOf adapts a typed Stats method to a StatsFunc.
func StatsOf[T any](f func() T) StatsFunc {
	return func() any { return f() }
}

// Dependencies are the services behind the handlers. Breakers and Stats are
// optional and only feed the readiness report.
type Dependencies struct {
	Feed         FeedService
	Discovery    DiscoveryService
	Sessions     SessionStore
	Interactions InteractionService
	Store        Store
	Breakers     []*breaker.Breaker
	Stats        map[string]StatsFunc
}

// Handler contains dependencies for API handlers
//
// Handler methods are split across files:
//   - handlers_feed.go: feed and session endpoints
//   - handlers_discovery.go: discovery endpoint
//   - handlers_interactions.go: like, unlike and viewed
//   - handlers_health.go: liveness and readiness
type Handler struct {
	deps         Dependencies
	startTime    time.Time
	readyTimeout time.Duration
}

// NewHandler validates deps and creates a Handler.
func NewHandler(deps Dependencies) (*Handler, error) {
	switch {
	case deps.Feed == nil:
		return nil, errors.New("api: feed service is required")
	case deps.Discovery == nil:
		return nil, errors.New("api: discovery service is required")
	case deps.Sessions == nil:
		return nil, errors.New("api: session store is required")
	case deps.Interactions == nil:
		return nil, errors.New("api: interaction service is required")
	case deps.Store == nil:
		return nil, errors.New("api: store is required")
	}
	return &Handler{
		deps:         deps,
		startTime:    time.Now(),
		readyTimeout: 2 * time.Second,
	}, nil
}
