// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/placefeed/internal/auth"
	"github.com/tomtom215/placefeed/internal/middleware"
)

// RouterConfig configures NewRouter.
type RouterConfig struct {
	Middleware *ChiMiddlewareConfig
	Auth       *auth.Middleware

	// SlowRequest is the access log threshold for warn-level entries.
	SlowRequest time.Duration
}

// NewRouter builds the chi router.
//
// Global middleware order: request ID, real IP, panic recovery, CORS,
// Prometheus, access log, compression. The /api/v1 group adds rate limiting
// and viewer identification; like and unlike additionally require a viewer.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	mw := NewChiMiddleware(cfg.Middleware)
	slow := cfg.SlowRequest
	if slow <= 0 {
		slow = time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(mw.CORS())
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.AccessLog(slow))
	r.Use(chimiddleware.Compress(5, "application/json"))

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health/live", h.HealthLive)
		r.Get("/health/ready", h.HealthReady)

		r.Group(func(r chi.Router) {
			r.Use(mw.RateLimit())
			if cfg.Auth != nil {
				r.Use(cfg.Auth.Identify)
			}

			r.Get("/feed", h.GetUserFeed)
			r.Get("/feed/session", h.GetSession)
			r.Post("/feed/session/more", h.LoadMore)
			r.Post("/feed/refresh", h.RefreshFeed)
			r.Get("/discovery", h.GetDiscoveryFeed)

			r.Route("/activities/{id}", func(r chi.Router) {
				if cfg.Auth != nil {
					r.Use(cfg.Auth.Require)
				}
				r.Post("/view", h.MarkViewed)
				r.Put("/like", h.LikeActivity)
				r.Delete("/like", h.UnlikeActivity)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusNotFound, &APIResponse{
			Error: &APIError{Code: "NOT_FOUND", Message: "route not found"},
			Meta:  meta(r),
		})
	})
	return r
}
