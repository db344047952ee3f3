// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/placefeed/internal/activity"
	"github.com/tomtom215/placefeed/internal/auth"
	"github.com/tomtom215/placefeed/internal/feederr"
	"github.com/tomtom215/placefeed/internal/logging"
	"github.com/tomtom215/placefeed/internal/pagination"
	"github.com/tomtom215/placefeed/internal/ranking"
)

// FeedResponse is one page of the ranked feed.
type FeedResponse struct {
	Items   []ranking.Entry `json:"items"`
	HasMore bool            `json:"has_more"`

	// NextCursor is the opaque token for the next page.
	NextCursor string `json:"next_cursor,omitempty"`

	// LastTimestamp is the creation time of the oldest item, for clients that
	// page by timestamp.
	LastTimestamp *time.Time `json:"last_timestamp,omitempty"`
}

// SessionResponse is a session snapshot.
type SessionResponse struct {
	State      pagination.State `json:"state"`
	Items      []ranking.Entry  `json:"items"`
	HasMore    bool             `json:"has_more"`
	NextCursor string           `json:"next_cursor,omitempty"`
	FetchedAt  *time.Time       `json:"fetched_at,omitempty"`
}

// RefreshResponse reports a refresh.
type RefreshResponse struct {
	Outcome pagination.Outcome `json:"outcome"`
	Session *SessionResponse   `json:"session,omitempty"`
	Warning string             `json:"warning,omitempty"`
}

func newFeedResponse(p *ranking.Page) *FeedResponse {
	resp := &FeedResponse{Items: p.Items, HasMore: p.HasMore}
	if resp.Items == nil {
		resp.Items = []ranking.Entry{}
	}
	resp.NextCursor, resp.LastTimestamp = encodeCursor(p.NextCursor)
	return resp
}

func newSessionResponse(s *pagination.Snapshot) *SessionResponse {
	resp := &SessionResponse{State: s.State, Items: s.Items, HasMore: s.HasMore}
	if resp.Items == nil {
		resp.Items = []ranking.Entry{}
	}
	resp.NextCursor, _ = encodeCursor(s.NextCursor)
	if !s.FetchedAt.IsZero() {
		t := s.FetchedAt
		resp.FetchedAt = &t
	}
	return resp
}

func encodeCursor(c *activity.Cursor) (string, *time.Time) {
	if c == nil {
		return "", nil
	}
	t := c.CreatedAt
	return c.Encode(), &t
}

// viewerForFeed returns the viewer or the error appropriate for the filters.
func viewerForFeed(r *http.Request, f *ranking.Filters) (string, error) {
	viewerID, ok := auth.ViewerID(r.Context())
	if ok {
		return viewerID, nil
	}
	if f != nil && f.FriendsOnly {
		return "", feederr.PermissionDenied("friendsOnly requires a signed-in viewer")
	}
	return "", feederr.Unauthenticated("authentication required")
}

// GetUserFeed serves one ranked page.
func (h *Handler) GetUserFeed(w http.ResponseWriter, r *http.Request) {
	f, err := parseFeedFilters(r.URL.Query(), true)
	if err != nil {
		respondError(w, r, err)
		return
	}
	viewerID, err := viewerForFeed(r, &f)
	if err != nil {
		respondError(w, r, err)
		return
	}

	page, err := h.deps.Feed.GetUserFeed(r.Context(), viewerID, f)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, newFeedResponse(page))
}

// GetSession serves the viewer's cached session, loading the first page when
// the cache is empty, expired or holds different filters.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	f, err := parseFeedFilters(r.URL.Query(), false)
	if err != nil {
		respondError(w, r, err)
		return
	}
	viewerID, err := viewerForFeed(r, &f)
	if err != nil {
		respondError(w, r, err)
		return
	}

	snap, err := h.deps.Sessions.Get(viewerID).Load(r.Context(), f)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, newSessionResponse(snap))
}

// LoadMore appends the next page to the session.
func (h *Handler) LoadMore(w http.ResponseWriter, r *http.Request) {
	viewerID, err := viewerForFeed(r, nil)
	if err != nil {
		respondError(w, r, err)
		return
	}

	snap, err := h.deps.Sessions.Get(viewerID).LoadMore(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, newSessionResponse(snap))
}

// RefreshFeed replaces the session with a fresh first page. Without filter
// parameters the session's current filters are kept.
func (h *Handler) RefreshFeed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filters *ranking.Filters
	if hasFeedFilters(q) {
		f, err := parseFeedFilters(q, false)
		if err != nil {
			respondError(w, r, err)
			return
		}
		filters = &f
	}
	viewerID, err := viewerForFeed(r, filters)
	if err != nil {
		respondError(w, r, err)
		return
	}

	res := h.deps.Sessions.Get(viewerID).Refresh(r.Context(), filters)
	if res.Outcome == pagination.Failed {
		respondErrorDetails(w, r, res.Err, map[string]string{"outcome": string(res.Outcome)})
		return
	}

	resp := &RefreshResponse{Outcome: res.Outcome}
	if res.Snapshot != nil {
		resp.Session = newSessionResponse(res.Snapshot)
	}
	if res.Err != nil {
		logging.Ctx(r.Context()).Warn().Err(res.Err).Str("outcome", string(res.Outcome)).Msg("Feed refresh recovered")
		resp.Warning = "feed could not be fully refreshed"
	}
	respondData(w, r, http.StatusOK, resp)
}
