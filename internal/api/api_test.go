// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/placefeed/internal/activity"
	"github.com/tomtom215/placefeed/internal/auth"
	"github.com/tomtom215/placefeed/internal/cache"
	"github.com/tomtom215/placefeed/internal/clock"
	"github.com/tomtom215/placefeed/internal/discovery"
	"github.com/tomtom215/placefeed/internal/feederr"
	"github.com/tomtom215/placefeed/internal/interactions"
	"github.com/tomtom215/placefeed/internal/pagination"
	"github.com/tomtom215/placefeed/internal/ranking"
)

var now = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

// fakeFeed returns queued pages in order, repeating the last one.
type fakeFeed struct {
	mu      sync.Mutex
	pages   []*ranking.Page
	err     error
	calls   []ranking.Filters
	viewers []string
}

func (f *fakeFeed) GetUserFeed(_ context.Context, viewerID string, filters ranking.Filters) (*ranking.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, filters)
	f.viewers = append(f.viewers, viewerID)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.pages) == 0 {
		return &ranking.Page{}, nil
	}
	p := f.pages[0]
	if len(f.pages) > 1 {
		f.pages = f.pages[1:]
	}
	return p, nil
}

func (f *fakeFeed) lastCall() (string, ranking.Filters) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.viewers[len(f.viewers)-1], f.calls[len(f.calls)-1]
}

type fakeDiscovery struct {
	viewer  string
	filters discovery.Filters
	result  *discovery.Result
}

func (d *fakeDiscovery) GetDiscoveryFeed(_ context.Context, viewerID string, f discovery.Filters) (*discovery.Result, error) {
	d.viewer = viewerID
	d.filters = f
	if d.result == nil {
		return &discovery.Result{}, nil
	}
	return d.result, nil
}

type fakeInteractions struct {
	mu     sync.Mutex
	likes  map[string]bool
	viewed []string
	err    error
}

func (i *fakeInteractions) set(viewerID, activityID string, liked bool) (interactions.Result, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.err != nil {
		return interactions.Result{}, i.err
	}
	if i.likes == nil {
		i.likes = make(map[string]bool)
	}
	i.likes[viewerID+"/"+activityID] = liked
	return interactions.Result{Success: true}, nil
}

func (i *fakeInteractions) Like(_ context.Context, viewerID, activityID string) (interactions.Result, error) {
	return i.set(viewerID, activityID, true)
}

func (i *fakeInteractions) Unlike(_ context.Context, viewerID, activityID string) (interactions.Result, error) {
	return i.set(viewerID, activityID, false)
}

func (i *fakeInteractions) MarkViewed(viewerID, activityID string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.viewed = append(i.viewed, viewerID+"/"+activityID)
	return true
}

type fakeStore struct{ err error }

func (s fakeStore) Ping(context.Context) error { return s.err }

func (s fakeStore) CountActivities(context.Context) (int64, error) { return 42, s.err }

type testServer struct {
	feed         *fakeFeed
	discovery    *fakeDiscovery
	interactions *fakeInteractions
	router       http.Handler
}

func newTestServer(t *testing.T, pingErr error) *testServer {
	t.Helper()
	feed := &fakeFeed{}
	disc := &fakeDiscovery{}
	inter := &fakeInteractions{}
	c := cache.NewFeedCache(cache.Config{TTL: time.Minute}, clock.NewFake(now))

	h, err := NewHandler(Dependencies{
		Feed:         feed,
		Discovery:    disc,
		Sessions:     pagination.NewSessions(feed, c, zerolog.Nop()),
		Interactions: inter,
		Store:        fakeStore{err: pingErr},
		Stats: map[string]StatsFunc{
			"cache": StatsOf(c.Stats),
		},
	})
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	router := NewRouter(h, RouterConfig{
		Auth: auth.NewMiddleware(auth.ModeNone, nil, RespondError),
	})
	return &testServer{feed: feed, discovery: disc, interactions: inter, router: router}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    APIMeta         `json:"meta"`
}

func (s *testServer) do(t *testing.T, method, target, viewer string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if viewer != "" {
		req.Header.Set(auth.ViewerHeader, viewer)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, env
}

func entry(id string, at time.Time) ranking.Entry {
	return ranking.Entry{ActivityID: id, AuthorID: "alice", Type: activity.TypeListCreated, CreatedAt: at, Score: 10}
}

func TestGetUserFeed(t *testing.T) {
	s := newTestServer(t, nil)
	next := activity.Cursor{CreatedAt: now.Add(-time.Hour), ID: "a1"}
	s.feed.pages = []*ranking.Page{{
		Items:      []ranking.Entry{entry("a1", next.CreatedAt)},
		HasMore:    true,
		NextCursor: &next,
	}}

	rec, env := s.do(t, http.MethodGet, "/api/v1/feed?limit=5&types=place_added,list_created&includeGeographic=false&maxDistance=12.5", "viewer")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if env.Meta.RequestID == "" {
		t.Error("expected request id in meta")
	}

	var resp FeedResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(resp.Items) != 1 || !resp.HasMore {
		t.Errorf("resp = %+v", resp)
	}
	if resp.NextCursor != next.Encode() {
		t.Errorf("next_cursor = %q, want %q", resp.NextCursor, next.Encode())
	}
	if resp.LastTimestamp == nil || !resp.LastTimestamp.Equal(next.CreatedAt) {
		t.Errorf("last_timestamp = %v", resp.LastTimestamp)
	}

	viewer, f := s.feed.lastCall()
	if viewer != "viewer" {
		t.Errorf("viewer = %q", viewer)
	}
	if f.Limit != 5 || len(f.Types) != 2 || f.IncludeGeographic == nil || *f.IncludeGeographic {
		t.Errorf("filters = %+v", f)
	}
	if f.MaxDistanceKm == nil || *f.MaxDistanceKm != 12.5 {
		t.Errorf("maxDistance = %v", f.MaxDistanceKm)
	}
}

func TestGetUserFeed_Cursor(t *testing.T) {
	s := newTestServer(t, nil)
	c := activity.Cursor{CreatedAt: now.Add(-time.Minute), ID: "a9"}

	rec, _ := s.do(t, http.MethodGet, "/api/v1/feed?cursor="+c.Encode()+"&lastTimestamp=2020-01-01T00:00:00Z", "viewer")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	_, f := s.feed.lastCall()
	if !f.Cursor.CreatedAt.Equal(c.CreatedAt) || f.Cursor.ID != "a9" {
		t.Errorf("cursor = %+v, want %+v", f.Cursor, c)
	}

	rec, _ = s.do(t, http.MethodGet, "/api/v1/feed?lastTimestamp=2026-04-01T11:00:00Z", "viewer")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	_, f = s.feed.lastCall()
	if !f.Cursor.CreatedAt.Equal(now.Add(-time.Hour)) || f.Cursor.ID != "" {
		t.Errorf("cursor from lastTimestamp = %+v", f.Cursor)
	}
}

func TestGetUserFeed_Errors(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		viewer    string
		feedErr   error
		status    int
		code      string
		retryable bool
	}{
		{"anonymous", "/api/v1/feed", "", nil, http.StatusUnauthorized, "UNAUTHENTICATED", false},
		{"anonymous friends only", "/api/v1/feed?friendsOnly=true", "", nil, http.StatusForbidden, "PERMISSION_DENIED", false},
		{"bad limit", "/api/v1/feed?limit=zero", "v", nil, http.StatusBadRequest, "INVALID_ARGUMENT", false},
		{"negative distance", "/api/v1/feed?maxDistance=-1", "v", nil, http.StatusBadRequest, "INVALID_ARGUMENT", false},
		{"unknown type", "/api/v1/feed?types=bogus", "v", nil, http.StatusBadRequest, "INVALID_ARGUMENT", false},
		{"bad cursor", "/api/v1/feed?cursor=%21%21", "v", nil, http.StatusBadRequest, "INVALID_ARGUMENT", false},
		{"bad bool", "/api/v1/feed?friendsOnly=maybe", "v", nil, http.StatusBadRequest, "INVALID_ARGUMENT", false},
		{"no profile", "/api/v1/feed", "v", feederr.NotFound("profile not found"), http.StatusNotFound, "NOT_FOUND", false},
		{"store down", "/api/v1/feed", "v", feederr.Unavailable(errors.New("dial"), "store down"), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", true},
		{"untyped", "/api/v1/feed", "v", errors.New("boom"), http.StatusInternalServerError, "INTERNAL", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, nil)
			s.feed.err = tt.feedErr

			rec, env := s.do(t, http.MethodGet, tt.target, tt.viewer)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
			if env.Success || env.Error == nil {
				t.Fatalf("expected error envelope, got %+v", env)
			}
			if env.Error.Code != tt.code {
				t.Errorf("code = %q, want %q", env.Error.Code, tt.code)
			}
			if env.Error.Retryable != tt.retryable {
				t.Errorf("retryable = %v, want %v", env.Error.Retryable, tt.retryable)
			}
		})
	}
}

func TestUntypedErrorDoesNotLeak(t *testing.T) {
	s := newTestServer(t, nil)
	s.feed.err = errors.New("secret connection string")

	rec, _ := s.do(t, http.MethodGet, "/api/v1/feed", "v")
	if strings.Contains(rec.Body.String(), "secret") {
		t.Errorf("internal error text leaked: %s", rec.Body.String())
	}
}

func TestSessionLoadAndMore(t *testing.T) {
	s := newTestServer(t, nil)
	first := activity.Cursor{CreatedAt: now.Add(-time.Minute), ID: "a1"}
	s.feed.pages = []*ranking.Page{
		{Items: []ranking.Entry{entry("a1", first.CreatedAt)}, HasMore: true, NextCursor: &first},
		{Items: []ranking.Entry{entry("a2", now.Add(-2*time.Minute))}, HasMore: false},
	}

	rec, env := s.do(t, http.MethodGet, "/api/v1/feed/session?limit=1&cursor=ignored", "viewer")
	if rec.Code != http.StatusOK {
		t.Fatalf("session status = %d, body %s", rec.Code, rec.Body.String())
	}
	var snap SessionResponse
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(snap.Items) != 1 || !snap.HasMore || snap.NextCursor != first.Encode() {
		t.Errorf("first snapshot = %+v", snap)
	}
	if _, f := s.feed.lastCall(); !f.Cursor.IsZero() {
		t.Errorf("session load passed a cursor: %+v", f.Cursor)
	}

	// A second load with the same filters is served from the cache.
	s.do(t, http.MethodGet, "/api/v1/feed/session?limit=1", "viewer")
	if got := len(s.feed.calls); got != 1 {
		t.Errorf("fetches after cached load = %d, want 1", got)
	}

	rec, env = s.do(t, http.MethodPost, "/api/v1/feed/session/more", "viewer")
	if rec.Code != http.StatusOK {
		t.Fatalf("more status = %d, body %s", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(snap.Items) != 2 || snap.HasMore {
		t.Errorf("after more = %+v", snap)
	}
	if _, f := s.feed.lastCall(); f.Cursor != first {
		t.Errorf("more cursor = %+v, want %+v", f.Cursor, first)
	}
}

func TestRefresh(t *testing.T) {
	s := newTestServer(t, nil)
	s.feed.pages = []*ranking.Page{{Items: []ranking.Entry{entry("a1", now)}}}

	rec, env := s.do(t, http.MethodPost, "/api/v1/feed/refresh?limit=3", "viewer")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp RefreshResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Outcome != pagination.Refreshed || resp.Session == nil || len(resp.Session.Items) != 1 {
		t.Errorf("refresh = %+v", resp)
	}
	if _, f := s.feed.lastCall(); f.Limit != 3 {
		t.Errorf("limit = %d, want 3", f.Limit)
	}
}

func TestRefresh_Failed(t *testing.T) {
	s := newTestServer(t, nil)
	s.feed.err = feederr.Unavailable(errors.New("dial"), "store down")

	rec, env := s.do(t, http.MethodPost, "/api/v1/feed/refresh", "viewer")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if env.Error == nil || !env.Error.Retryable {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestDiscovery(t *testing.T) {
	s := newTestServer(t, nil)

	rec, env := s.do(t, http.MethodGet, "/api/v1/discovery?limit=4&maxDistance=3", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if s.discovery.viewer != "" {
		t.Errorf("viewer = %q, want anonymous", s.discovery.viewer)
	}
	if s.discovery.filters.Limit != 4 || s.discovery.filters.MaxDistanceKm == nil || *s.discovery.filters.MaxDistanceKm != 3 {
		t.Errorf("filters = %+v", s.discovery.filters)
	}

	var res discovery.Result
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Places == nil {
		t.Error("places should encode as an empty array")
	}

	s.do(t, http.MethodGet, "/api/v1/discovery", "viewer")
	if s.discovery.viewer != "viewer" {
		t.Errorf("viewer = %q", s.discovery.viewer)
	}
}

func TestInteractions(t *testing.T) {
	s := newTestServer(t, nil)

	rec, _ := s.do(t, http.MethodPut, "/api/v1/activities/a1/like", "viewer")
	if rec.Code != http.StatusOK {
		t.Fatalf("like status = %d", rec.Code)
	}
	if !s.interactions.likes["viewer/a1"] {
		t.Error("like not recorded")
	}

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/activities/a1/like", "viewer")
	if rec.Code != http.StatusOK {
		t.Fatalf("unlike status = %d", rec.Code)
	}
	if s.interactions.likes["viewer/a1"] {
		t.Error("unlike not recorded")
	}

	rec, _ = s.do(t, http.MethodPost, "/api/v1/activities/a2/view", "viewer")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("view status = %d", rec.Code)
	}
	if len(s.interactions.viewed) != 1 || s.interactions.viewed[0] != "viewer/a2" {
		t.Errorf("viewed = %v", s.interactions.viewed)
	}

	rec, env := s.do(t, http.MethodPut, "/api/v1/activities/a1/like", "")
	if rec.Code != http.StatusUnauthorized || env.Error == nil || env.Error.Code != "UNAUTHENTICATED" {
		t.Errorf("anonymous like: status %d, error %+v", rec.Code, env.Error)
	}

	s.interactions.err = feederr.NotFound("activity not found")
	rec, _ = s.do(t, http.MethodPut, "/api/v1/activities/missing/like", "viewer")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing activity status = %d", rec.Code)
	}

	rec, _ = s.do(t, http.MethodPut, "/api/v1/activities/"+strings.Repeat("x", maxActivityIDLength+1)+"/like", "viewer")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("long id status = %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	if rec, _ := s.do(t, http.MethodGet, "/api/v1/health/live", ""); rec.Code != http.StatusOK {
		t.Errorf("live = %d", rec.Code)
	}
	rec, env := s.do(t, http.MethodGet, "/api/v1/health/ready", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("ready = %d", rec.Code)
	}
	var status HealthStatus
	if err := json.Unmarshal(env.Data, &status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Status != "ready" || !status.DatabaseConnected {
		t.Errorf("status = %+v", status)
	}
	if status.Activities == nil || *status.Activities != 42 {
		t.Errorf("activities = %v, want 42", status.Activities)
	}
	cacheStats, ok := status.Stats["cache"].(map[string]any)
	if !ok {
		t.Fatalf("stats = %+v, want cache counters", status.Stats)
	}
	if _, ok := cacheStats["entries"]; !ok {
		t.Errorf("cache stats = %+v, want entries", cacheStats)
	}

	down := newTestServer(t, errors.New("connection refused"))
	rec, env = down.do(t, http.MethodGet, "/api/v1/health/ready", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("ready with store down = %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "SERVICE_UNAVAILABLE" {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestRouter_NotFoundAndMetrics(t *testing.T) {
	s := newTestServer(t, nil)

	rec, env := s.do(t, http.MethodGet, "/api/v1/nope", "")
	if rec.Code != http.StatusNotFound || env.Error == nil {
		t.Errorf("unknown route: status %d, env %+v", rec.Code, env)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	mrec := httptest.NewRecorder()
	s.router.ServeHTTP(mrec, req)
	if mrec.Code != http.StatusOK {
		t.Errorf("metrics status = %d", mrec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	mw := NewChiMiddleware(&ChiMiddlewareConfig{RateLimitRequests: 1, RateLimitWindow: time.Minute})
	h := mw.RateLimit()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Errorf("request %d: status = %d, want %d", i, rec.Code, want)
		}
	}

	disabled := NewChiMiddleware(&ChiMiddlewareConfig{RateLimitDisabled: true})
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	if got := disabled.RateLimit()(next); got == nil {
		t.Error("disabled limiter returned nil handler")
	}
}

func TestNewHandler_RequiresDependencies(t *testing.T) {
	if _, err := NewHandler(Dependencies{}); err == nil {
		t.Error("expected error for missing dependencies")
	}
}
