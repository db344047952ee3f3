// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package api

import (
	"net/http"

	"github.com/tomtom215/placefeed/internal/auth"
	"github.com/tomtom215/placefeed/internal/discovery"
)

// GetDiscoveryFeed serves trending places. Anonymous viewers get the global
// ranking.
func (h *Handler) GetDiscoveryFeed(w http.ResponseWriter, r *http.Request) {
	f, err := parseDiscoveryFilters(r.URL.Query())
	if err != nil {
		respondError(w, r, err)
		return
	}
	viewerID, _ := auth.ViewerID(r.Context())

	res, err := h.deps.Discovery.GetDiscoveryFeed(r.Context(), viewerID, f)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if res.Places == nil {
		res.Places = []discovery.TrendingPlace{}
	}
	respondData(w, r, http.StatusOK, res)
}
