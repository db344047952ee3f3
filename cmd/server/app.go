// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/placefeed/internal/api"
	"github.com/tomtom215/placefeed/internal/auth"
	"github.com/tomtom215/placefeed/internal/breaker"
	"github.com/tomtom215/placefeed/internal/cache"
	"github.com/tomtom215/placefeed/internal/clock"
	"github.com/tomtom215/placefeed/internal/config"
	"github.com/tomtom215/placefeed/internal/database"
	"github.com/tomtom215/placefeed/internal/discovery"
	"github.com/tomtom215/placefeed/internal/eventprocessor"
	"github.com/tomtom215/placefeed/internal/interactions"
	"github.com/tomtom215/placefeed/internal/logging"
	"github.com/tomtom215/placefeed/internal/pagination"
	"github.com/tomtom215/placefeed/internal/ranking"
	"github.com/tomtom215/placefeed/internal/supervisor"
	"github.com/tomtom215/placefeed/internal/supervisor/services"
)

const (
	sessionPruneInterval = time.Minute
	viewLogGCInterval    = 10 * time.Minute
	slowRequest          = time.Second
)

// app holds the wired components. close releases what the supervisor does
// not own.
type app struct {
	tree    *supervisor.SupervisorTree
	db      *database.DB
	viewLog *interactions.BadgerViewLog
}

func (a *app) close() {
	if a.viewLog != nil {
		if err := a.viewLog.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing view log")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}
}

func rankingConfig(cfg *config.Config) *ranking.Config {
	rc := ranking.DefaultConfig()
	rc.DefaultLimit = cfg.Feed.DefaultLimit
	rc.MaxLimit = cfg.Feed.MaxLimit
	rc.OverfetchFactor = cfg.Feed.OverfetchFactor
	rc.MaxScanBatches = cfg.Feed.MaxScanBatches
	rc.DefaultMaxDistanceKm = cfg.Feed.MaxDistanceKm
	rc.DefaultIncludeGeographic = cfg.Feed.IncludeGeographic
	rc.FetchTimeout = cfg.Feed.FetchTimeout
	rc.ViewerContextTTL = cfg.Feed.ViewerContextTTL
	rc.Weights = ranking.Weights{
		Base:      cfg.Feed.Weights.Base,
		Follow:    cfg.Feed.Weights.Follow,
		Category:  cfg.Feed.Weights.Category,
		Proximity: cfg.Feed.Weights.Proximity,
	}
	return rc
}

func discoveryConfig(cfg *config.Config) *discovery.Config {
	dc := discovery.DefaultConfig()
	dc.DefaultLimit = cfg.Discovery.DefaultLimit
	dc.MaxLimit = cfg.Discovery.MaxLimit
	dc.DefaultMaxDistanceKm = cfg.Discovery.MaxDistanceKm
	dc.Window = cfg.Discovery.Window
	dc.BatchSize = cfg.Discovery.BatchSize
	dc.FetchTimeout = cfg.Discovery.FetchTimeout
	return dc
}

func breakerConfig(cfg *config.Config) breaker.Config {
	return breaker.Config{
		MaxRequests:      cfg.Breaker.MaxRequests,
		Interval:         cfg.Breaker.Interval,
		Timeout:          cfg.Breaker.Timeout,
		FailureThreshold: cfg.Breaker.FailureThreshold,
		CallTimeout:      cfg.Breaker.CallTimeout,
	}
}

func eventsConfig(cfg *config.Config) eventprocessor.Config {
	ec := eventprocessor.DefaultConfig()
	ec.NATSURL = cfg.Events.NATSURL
	ec.TopicPrefix = cfg.Events.TopicPrefix
	ec.TrackMsgID = cfg.Events.TrackMsgID
	ec.MaxReconnects = cfg.Events.MaxReconnects
	ec.ReconnectWait = cfg.Events.ReconnectWait
	return ec
}

func interactionsConfig(cfg *config.Config) interactions.Config {
	ic := interactions.DefaultConfig()
	ic.QueueSize = cfg.Interactions.QueueSize
	ic.RatePerSecond = cfg.Interactions.RatePerSecond
	ic.RateBurst = cfg.Interactions.RateBurst
	return ic
}

// newApp wires every component and registers the long-lived ones with the
// supervisor tree. On error, anything already opened is closed.
//
//nolint:gocyclo // sequential setup steps
func newApp(cfg *config.Config) (a *app, err error) {
	a = &app{}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	if a.db, err = database.New(&cfg.Database); err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	logging.Info().Msg("Database initialized")

	stores := breaker.NewStores(a.db, breakerConfig(cfg))

	logger := logging.Logger()

	rankEngine, err := ranking.NewEngine(rankingConfig(cfg), ranking.Dependencies{
		Activities: stores,
		Graph:      stores,
		Profiles:   stores,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("ranking engine: %w", err)
	}

	discoEngine, err := discovery.NewEngine(discoveryConfig(cfg), discovery.Dependencies{
		Activities: stores,
		Profiles:   stores,
		Regions:    stores,
		Clock:      clock.System,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("discovery engine: %w", err)
	}

	publisher, err := eventprocessor.NewPublisher(eventsConfig(cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("event publisher: %w", err)
	}

	feedCache := cache.NewFeedCache(cache.Config{
		TTL:        cfg.Cache.TTL,
		MaxViewers: cfg.Cache.MaxViewers,
	}, clock.System)

	sessions := pagination.NewSessions(rankEngine, feedCache, logger,
		pagination.InvalidatorFunc(func(_ context.Context, viewerID string) error {
			rankEngine.Invalidate(viewerID)
			return nil
		}),
		publisher,
	)

	if a.viewLog, err = interactions.OpenViewLog(cfg.Interactions.ViewLogPath, cfg.Interactions.ViewedTTL); err != nil {
		return nil, fmt.Errorf("view log: %w", err)
	}

	interactionSvc, err := interactions.NewService(interactionsConfig(cfg), interactions.Dependencies{
		Likes:  a.db,
		Views:  a.viewLog,
		Events: publisher,
		Clock:  clock.System,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("interactions: %w", err)
	}

	var jwtManager *auth.JWTManager
	if cfg.Security.AuthMode == auth.ModeJWT {
		if jwtManager, err = auth.NewJWTManager(&cfg.Security); err != nil {
			return nil, fmt.Errorf("jwt: %w", err)
		}
	}

	handler, err := api.NewHandler(api.Dependencies{
		Feed:         rankEngine,
		Discovery:    discoEngine,
		Sessions:     sessions,
		Interactions: interactionSvc,
		Store:        a.db,
		Breakers:     append(stores.Breakers(), publisher.Breaker()),
		Stats: map[string]api.StatsFunc{
			"ranking":      api.StatsOf(rankEngine.Stats),
			"discovery":    api.StatsOf(discoEngine.Stats),
			"feed_cache":   api.StatsOf(feedCache.Stats),
			"viewed_marks": api.StatsOf(interactionSvc.Stats),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("api handler: %w", err)
	}

	mwConfig := api.DefaultChiMiddlewareConfig()
	mwConfig.CORSAllowedOrigins = cfg.Security.CORSOrigins
	mwConfig.RateLimitRequests = cfg.Security.RateLimitRequests
	mwConfig.RateLimitWindow = cfg.Security.RateLimitWindow

	router := api.NewRouter(handler, api.RouterConfig{
		Middleware:  mwConfig,
		Auth:        auth.NewMiddleware(cfg.Security.AuthMode, jwtManager, api.RespondError),
		SlowRequest: slowRequest,
	})

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	if a.tree, err = supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}); err != nil {
		return nil, fmt.Errorf("supervisor: %w", err)
	}

	viewLog := a.viewLog
	registrations := []struct {
		layer supervisor.Layer
		svc   suture.Service
	}{
		{supervisor.LayerData, feedCache},
		{supervisor.LayerData, services.NewPeriodicService("session-pruner", sessionPruneInterval, func(context.Context) error {
			if n := sessions.Prune(cfg.Cache.TTL); n > 0 {
				logging.Debug().Int("pruned", n).Msg("Pruned idle feed sessions")
			}
			return nil
		}, logger)},
		{supervisor.LayerData, services.NewPeriodicService("view-log-gc", viewLogGCInterval, func(context.Context) error {
			return viewLog.RunGC()
		}, logger)},
		{supervisor.LayerMessaging, interactionSvc},
		{supervisor.LayerMessaging, services.NewCloserService("event-publisher", publisher)},
		{supervisor.LayerAPI, services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout, logger)},
	}
	for _, r := range registrations {
		if _, err = a.tree.Add(r.layer, r.svc); err != nil {
			return nil, err
		}
	}

	return a, nil
}
