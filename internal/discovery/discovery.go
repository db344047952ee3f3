// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

// Package discovery ranks places by recent public activity near the viewer.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/placefeed/internal/activity"
	"github.com/tomtom215/placefeed/internal/clock"
	"github.com/tomtom215/placefeed/internal/feederr"
	"github.com/tomtom215/placefeed/internal/geo"
	"github.com/tomtom215/placefeed/internal/metrics"
)

// trendingTypes are the activity types that count toward popularity.
var trendingTypes = []activity.Type{activity.TypePlaceReviewed, activity.TypePlaceVisited}

// Config tunes the discovery engine.
type Config struct {
	DefaultLimit         int           `json:"default_limit"`
	MaxLimit             int           `json:"max_limit"`
	DefaultMaxDistanceKm float64       `json:"default_max_distance_km"`
	Window               time.Duration `json:"window"`
	BatchSize            int           `json:"batch_size"`
	FetchTimeout         time.Duration `json:"fetch_timeout"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() *Config {
	return &Config{
		DefaultLimit:         15,
		MaxLimit:             100,
		DefaultMaxDistanceKm: 25,
		Window:               7 * 24 * time.Hour,
		BatchSize:            500,
		FetchTimeout:         10 * time.Second,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch {
	case c.MaxLimit < 1:
		return fmt.Errorf("max_limit must be positive, got %d", c.MaxLimit)
	case c.DefaultLimit < 1 || c.DefaultLimit > c.MaxLimit:
		return fmt.Errorf("default_limit must be in [1, %d], got %d", c.MaxLimit, c.DefaultLimit)
	case c.DefaultMaxDistanceKm <= 0:
		return fmt.Errorf("default_max_distance_km must be positive, got %f", c.DefaultMaxDistanceKm)
	case c.Window <= 0:
		return fmt.Errorf("window must be positive, got %v", c.Window)
	case c.BatchSize < 1:
		return fmt.Errorf("batch_size must be positive, got %d", c.BatchSize)
	case c.FetchTimeout <= 0:
		return fmt.Errorf("fetch_timeout must be positive, got %v", c.FetchTimeout)
	}
	return nil
}

// Filters are the caller-supplied options. Zero values use the defaults.
type Filters struct {
	Limit         int
	MaxDistanceKm *float64
}

// TrendingPlace is one place in the discovery result.
type TrendingPlace struct {
	PlaceID        string     `json:"place_id"`
	Name           string     `json:"name"`
	ActivityCount  int        `json:"activity_count"`
	LastActivityAt time.Time  `json:"last_activity_at"`
	AvgRating      *float64   `json:"avg_rating,omitempty"`
	Coordinates    *geo.Point `json:"coordinates,omitempty"`
	Categories     []string   `json:"categories"`
	DistanceMeters *float64   `json:"distance_meters,omitempty"`
}

// Result is the discovery response.
type Result struct {
	Places []TrendingPlace `json:"places"`
	Region string          `json:"region"`
}

// Dependencies are the stores the engine reads from. Regions may be nil.
type Dependencies struct {
	Activities activity.Store
	Profiles   activity.ProfileStore
	Regions    activity.RegionResolver
	Clock      clock.Clock
}

// Engine computes trending places. It is safe for concurrent use.
type Engine struct {
	cfg    *Config
	logger zerolog.Logger

	activities activity.Store
	profiles   activity.ProfileStore
	regions    activity.RegionResolver
	clock      clock.Clock

	requestCount  atomic.Int64
	regionFailure atomic.Int64
}

// NewEngine creates a discovery engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, deps Dependencies, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if deps.Activities == nil || deps.Profiles == nil {
		return nil, errors.New("activity and profile stores are required")
	}
	if deps.Clock == nil {
		deps.Clock = clock.System
	}
	c := *cfg
	return &Engine{
		cfg:        &c,
		logger:     logger.With().Str("component", "discovery").Logger(),
		activities: deps.Activities,
		profiles:   deps.Profiles,
		regions:    deps.Regions,
		clock:      deps.Clock,
	}, nil
}

// GetDiscoveryFeed returns the most active places near the viewer within the
// trending window. A viewer without a known location gets the global ranking
// and an empty region.
func (e *Engine) GetDiscoveryFeed(ctx context.Context, viewerID string, f Filters) (*Result, error) {
	start := time.Now()
	e.requestCount.Add(1)

	res, err := e.discover(ctx, viewerID, f)
	places := 0
	if res != nil {
		places = len(res.Places)
	}
	metrics.RecordDiscovery(time.Since(start), places, err)
	if err != nil {
		e.logger.Debug().Err(err).Str("viewer_id", viewerID).Msg("discovery failed")
		return nil, err
	}
	return res, nil
}

func (e *Engine) discover(ctx context.Context, viewerID string, f Filters) (*Result, error) {
	limit := f.Limit
	if limit == 0 {
		limit = e.cfg.DefaultLimit
	}
	if limit < 1 || limit > e.cfg.MaxLimit {
		return nil, feederr.InvalidArgument("limit must be between 1 and %d, got %d", e.cfg.MaxLimit, f.Limit)
	}
	maxKm := e.cfg.DefaultMaxDistanceKm
	if f.MaxDistanceKm != nil {
		if *f.MaxDistanceKm <= 0 {
			return nil, feederr.InvalidArgument("maxDistanceKm must be positive, got %g", *f.MaxDistanceKm)
		}
		maxKm = *f.MaxDistanceKm
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.FetchTimeout)
	defer cancel()

	origin, err := e.viewerLocation(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	groups, err := e.aggregate(ctx, e.clock.Now().Add(-e.cfg.Window))
	if err != nil {
		return nil, err
	}

	places := make([]TrendingPlace, 0, len(groups))
	for _, g := range groups {
		tp := g.place()
		if origin != nil {
			if tp.Coordinates == nil {
				continue
			}
			km := geo.HaversineKm(*origin, *tp.Coordinates)
			if km > maxKm {
				continue
			}
			m := km * 1000
			tp.DistanceMeters = &m
		}
		places = append(places, tp)
	}

	sort.Slice(places, func(i, j int) bool {
		a, b := &places[i], &places[j]
		if a.ActivityCount != b.ActivityCount {
			return a.ActivityCount > b.ActivityCount
		}
		if !a.LastActivityAt.Equal(b.LastActivityAt) {
			return a.LastActivityAt.After(b.LastActivityAt)
		}
		return a.PlaceID < b.PlaceID
	})
	if len(places) > limit {
		places = places[:limit]
	}

	return &Result{Places: places, Region: e.region(ctx, origin)}, nil
}

// viewerLocation returns nil when the viewer is anonymous, has no profile or
// has never reported a location.
func (e *Engine) viewerLocation(ctx context.Context, viewerID string) (*geo.Point, error) {
	if viewerID == "" {
		return nil, nil
	}
	p, err := e.profiles.Profile(ctx, viewerID)
	if err != nil {
		if errors.Is(err, feederr.ErrNotFound) {
			return nil, nil
		}
		return nil, feederr.FromContext(err, "load viewer profile")
	}
	if p == nil || p.LastLocation == nil {
		return nil, nil
	}
	loc := *p.LastLocation
	return &loc, nil
}

// aggregate pages through every trending activity since the cutoff and
// groups them by place.
func (e *Engine) aggregate(ctx context.Context, since time.Time) (map[string]*group, error) {
	groups := make(map[string]*group)
	q := activity.Query{
		Types:      trendingTypes,
		Visibility: activity.VisibilityPublic,
		Since:      since,
		Limit:      e.cfg.BatchSize,
	}
	for {
		rows, err := e.activities.QueryActivities(ctx, q)
		if err != nil {
			return nil, feederr.FromContext(err, "query trending activities")
		}
		for i := range rows {
			a := &rows[i]
			place, ok := a.Place()
			if !ok || place.PlaceID == "" {
				continue
			}
			g, ok := groups[place.PlaceID]
			if !ok {
				g = &group{}
				groups[place.PlaceID] = g
			}
			g.add(a, place)
		}
		if len(rows) < e.cfg.BatchSize {
			return groups, nil
		}
		q.Before = rows[len(rows)-1].Position()
	}
}

func (e *Engine) region(ctx context.Context, origin *geo.Point) string {
	if origin == nil || e.regions == nil {
		return ""
	}
	name, err := e.regions.ResolveRegion(ctx, *origin)
	if err != nil {
		e.regionFailure.Add(1)
		e.logger.Warn().Err(err).Str("point", origin.String()).Msg("region lookup failed")
		return ""
	}
	return name
}

// group accumulates one place's activities.
type group struct {
	latest      activity.Place
	count       int
	last        time.Time
	lastID      string
	ratingSum   float64
	ratingCount int
}

func (g *group) add(a *activity.Activity, p activity.Place) {
	g.count++
	if g.count == 1 || a.CreatedAt.After(g.last) || (a.CreatedAt.Equal(g.last) && a.ID > g.lastID) {
		g.last = a.CreatedAt
		g.lastID = a.ID
		g.latest = p
	}
	if r, ok := a.Rating(); ok {
		g.ratingSum += r
		g.ratingCount++
	}
}

func (g *group) place() TrendingPlace {
	tp := TrendingPlace{
		PlaceID:        g.latest.PlaceID,
		Name:           g.latest.Name,
		ActivityCount:  g.count,
		LastActivityAt: g.last,
		Categories:     g.latest.Categories,
	}
	if tp.Categories == nil {
		tp.Categories = []string{}
	}
	if g.latest.Coordinates != nil {
		c := *g.latest.Coordinates
		tp.Coordinates = &c
	}
	if g.ratingCount > 0 {
		avg := g.ratingSum / float64(g.ratingCount)
		tp.AvgRating = &avg
	}
	return tp
}

// Stats is a snapshot of engine counters.
type Stats struct {
	Requests       int64 `json:"requests"`
	RegionFailures int64 `json:"region_failures"`
}

// Stats returns a snapshot of engine counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Requests:       e.requestCount.Load(),
		RegionFailures: e.regionFailure.Load(),
	}
}
