// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package breaker

import (
	"context"

	"github.com/tomtom215/placefeed/internal/activity"
	"github.com/tomtom215/placefeed/internal/geo"
)

// Backend is what a concrete store adapter provides.
type Backend interface {
	activity.Store
	activity.GraphStore
	activity.ProfileStore
	activity.RegionResolver
}

// Stores decorates a Backend with one breaker per store so an unhealthy
// graph store does not trip reads of activities.
type Stores struct {
	backend    Backend
	activities *Breaker
	graph      *Breaker
	profiles   *Breaker
	regions    *Breaker
}

// NewStores wraps backend. base supplies thresholds; names are fixed per store.
func NewStores(backend Backend, base Config) *Stores {
	mk := func(name string) *Breaker {
		c := base
		c.Name = name
		return New(c)
	}
	return &Stores{
		backend:    backend,
		activities: mk("activity"),
		graph:      mk("graph"),
		profiles:   mk("profile"),
		regions:    mk("region"),
	}
}

// QueryActivities implements activity.Store.
func (s *Stores) QueryActivities(ctx context.Context, q activity.Query) ([]activity.Activity, error) {
	return Do(ctx, s.activities, "query", func(ctx context.Context) ([]activity.Activity, error) {
		return s.backend.QueryActivities(ctx, q)
	})
}

// Following implements activity.GraphStore.
func (s *Stores) Following(ctx context.Context, userID string) (activity.FollowSet, error) {
	return Do(ctx, s.graph, "following", func(ctx context.Context) (activity.FollowSet, error) {
		return s.backend.Following(ctx, userID)
	})
}

// Profile implements activity.ProfileStore.
func (s *Stores) Profile(ctx context.Context, userID string) (*activity.Profile, error) {
	return Do(ctx, s.profiles, "profile", func(ctx context.Context) (*activity.Profile, error) {
		return s.backend.Profile(ctx, userID)
	})
}

// ResolveRegion implements activity.RegionResolver.
func (s *Stores) ResolveRegion(ctx context.Context, p geo.Point) (string, error) {
	return Do(ctx, s.regions, "resolve", func(ctx context.Context) (string, error) {
		return s.backend.ResolveRegion(ctx, p)
	})
}

// Breakers returns the per-store breakers for health reporting.
func (s *Stores) Breakers() []*Breaker {
	return []*Breaker{s.activities, s.graph, s.profiles, s.regions}
}
