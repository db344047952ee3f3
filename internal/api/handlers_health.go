// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package api

import (
	"context"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/placefeed/internal/feederr"
)

// HealthStatus is the readiness report.
type HealthStatus struct {
	Status            string            `json:"status"`
	DatabaseConnected bool              `json:"database_connected"`
	Activities        *int64            `json:"activities,omitempty"`
	Breakers          map[string]string `json:"breakers,omitempty"`
	Stats             map[string]any    `json:"stats,omitempty"`
	UptimeSeconds     float64           `json:"uptime_seconds"`
}

// HealthLive reports that the process is serving requests.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondData(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// HealthReady pings the store and reports component counters. An open
// breaker degrades the status but does not fail readiness; the store ping
// does.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.readyTimeout)
	defer cancel()

	status := HealthStatus{
		Status:        "ready",
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	}
	pingErr := h.deps.Store.Ping(ctx)
	status.DatabaseConnected = pingErr == nil
	if pingErr == nil {
		if n, err := h.deps.Store.CountActivities(ctx); err == nil {
			status.Activities = &n
		}
	}

	if len(h.deps.Breakers) > 0 {
		status.Breakers = make(map[string]string, len(h.deps.Breakers))
		for _, b := range h.deps.Breakers {
			state := b.State()
			status.Breakers[b.Name()] = state.String()
			if state == gobreaker.StateOpen {
				status.Status = "degraded"
			}
		}
	}

	if len(h.deps.Stats) > 0 {
		status.Stats = make(map[string]any, len(h.deps.Stats))
		for name, stats := range h.deps.Stats {
			status.Stats[name] = stats()
		}
	}

	if pingErr != nil {
		status.Status = "unavailable"
		respondErrorDetails(w, r, feederr.Unavailable(pingErr, "activity store unreachable"), status)
		return
	}
	respondData(w, r, http.StatusOK, status)
}
