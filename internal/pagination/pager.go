// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package pagination

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/placefeed/internal/activity"
	"github.com/tomtom215/placefeed/internal/cache"
	"github.com/tomtom215/placefeed/internal/metrics"
	"github.com/tomtom215/placefeed/internal/ranking"
)

// FeedFetcher produces ranked pages. *ranking.Engine implements it.
type FeedFetcher interface {
	GetUserFeed(ctx context.Context, viewerID string, f ranking.Filters) (*ranking.Page, error)
}

// Invalidator drops upstream state held for a viewer before a refresh.
type Invalidator interface {
	InvalidateFeed(ctx context.Context, viewerID string) error
}

// InvalidatorFunc adapts a function to Invalidator.
type InvalidatorFunc func(ctx context.Context, viewerID string) error

// InvalidateFeed implements Invalidator.
func (f InvalidatorFunc) InvalidateFeed(ctx context.Context, viewerID string) error {
	return f(ctx, viewerID)
}

// State is the pager state reported in snapshots.
type State string

const (
	StateIdle      State = "idle"
	StateFetching  State = "fetching"
	StateLoaded    State = "loaded"
	StateExhausted State = "exhausted"
)

// Snapshot is a point-in-time view of a session.
type Snapshot struct {
	ViewerID   string           `json:"viewer_id"`
	State      State            `json:"state"`
	Items      []ranking.Entry  `json:"items"`
	HasMore    bool             `json:"has_more"`
	NextCursor *activity.Cursor `json:"next_cursor,omitempty"`
	FetchedAt  time.Time        `json:"fetched_at"`
}

// Outcome classifies a refresh.
type Outcome string

const (
	// Refreshed means the list was replaced with a fresh first page.
	Refreshed Outcome = "refreshed"

	// Recovered means something failed but a usable list is still served:
	// either an upstream invalidation failed, or the fetch failed and the
	// previous list was kept.
	Recovered Outcome = "recovered"

	// Failed means the fetch failed and there was nothing to fall back on.
	Failed Outcome = "failed"

	// Coalesced means a Load or LoadMore was already in flight, so the
	// refresh was not issued and that fetch's session is served instead.
	Coalesced Outcome = "coalesced"
)

// RefreshResult reports what Refresh did.
type RefreshResult struct {
	Outcome  Outcome   `json:"outcome"`
	Snapshot *Snapshot `json:"snapshot,omitempty"`
	Err      error     `json:"-"`
}

// DefaultFetchTimeout bounds one shared fetch, including invalidation.
const DefaultFetchTimeout = 30 * time.Second

// Pager drives one viewer's session. Use Sessions to obtain one.
type Pager struct {
	viewerID     string
	fetcher      FeedFetcher
	cache        *cache.FeedCache
	invalidators []Invalidator
	logger       zerolog.Logger
	fetchTimeout time.Duration

	group    singleflight.Group
	inflight atomic.Int32
	lastUsed atomic.Int64
}

// NewPager creates a pager for viewerID.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewPager(viewerID string, fetcher FeedFetcher, c *cache.FeedCache, logger zerolog.Logger, invalidators ...Invalidator) *Pager {
	return &Pager{
		viewerID:     viewerID,
		fetcher:      fetcher,
		cache:        c,
		invalidators: invalidators,
		logger:       logger.With().Str("component", "pager").Str("viewer_id", viewerID).Logger(),
		fetchTimeout: DefaultFetchTimeout,
	}
}

// ViewerID returns the viewer this pager serves.
func (p *Pager) ViewerID() string {
	return p.viewerID
}

// Snapshot returns the current session without fetching.
func (p *Pager) Snapshot() *Snapshot {
	return p.snapshot(p.cache.Load(p.viewerID))
}

// flightKey is shared by every fetch, so a viewer never has more than one
// outstanding upstream request.
const flightKey = "fetch"

// flight is the result shared by every caller that joined one fetch. refresh
// is set only when the fetch was a Refresh.
type flight struct {
	snap    *Snapshot
	refresh *RefreshResult
}

func (fl *flight) result() (*Snapshot, error) {
	if fl.snap != nil {
		return fl.snap, nil
	}
	if fl.refresh != nil && fl.refresh.Err != nil {
		return nil, fl.refresh.Err
	}
	return nil, errors.New("fetch produced no session")
}

// run executes fn unless a fetch is already in flight, in which case the
// caller waits for that one. fn runs on a context detached from ctx and
// bounded by the fetch timeout, so one caller going away does not fail the
// others. joined reports whether the caller shared another caller's fetch.
func (p *Pager) run(ctx context.Context, fn func(ctx context.Context) (*flight, error)) (fl *flight, joined bool, err error) {
	ran := false
	ch := p.group.DoChan(flightKey, func() (any, error) {
		ran = true
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.fetchTimeout)
		defer cancel()
		return fn(fctx)
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case r := <-ch:
		joined = !ran
		if joined {
			metrics.FeedFetchesCoalesced.Inc()
		}
		if r.Err != nil {
			return nil, joined, r.Err
		}
		return r.Val.(*flight), joined, nil
	}
}

// Load returns the cached session when it was built with f, otherwise it
// fetches and caches the first page. f.Cursor is ignored. A Load that joins
// a fetch for other filters checks the cache once more and fetches again
// if the session still does not match.
func (p *Pager) Load(ctx context.Context, f ranking.Filters) (*Snapshot, error) {
	p.touch()
	f.Cursor = activity.Cursor{}
	for attempt := 0; ; attempt++ {
		if e := p.cache.Load(p.viewerID); e != nil && e.Filters.Key() == f.Key() {
			return p.snapshot(e), nil
		}
		fl, joined, err := p.run(ctx, func(ctx context.Context) (*flight, error) {
			return p.fetchFirstFlight(ctx, f)
		})
		if err != nil {
			return nil, err
		}
		if !joined || attempt > 0 {
			return fl.result()
		}
	}
}

// LoadMore appends the next page. It does nothing when the session is
// exhausted and loads the first page when there is no live session. Calls
// made while any fetch is in flight share that fetch's result.
func (p *Pager) LoadMore(ctx context.Context) (*Snapshot, error) {
	p.touch()
	if e := p.cache.Load(p.viewerID); e != nil && (!e.HasMore || e.Cursor == nil) {
		return p.snapshot(e), nil
	}

	fl, _, err := p.run(ctx, func(ctx context.Context) (*flight, error) {
		// Re-read inside the flight: an earlier fetch may have moved the cursor.
		e := p.cache.Load(p.viewerID)
		switch {
		case e == nil:
			return p.fetchFirstFlight(ctx, ranking.Filters{})
		case !e.HasMore || e.Cursor == nil:
			return &flight{snap: p.snapshot(e)}, nil
		}
		s, err := p.fetchMore(ctx, e)
		if err != nil {
			return nil, err
		}
		return &flight{snap: s}, nil
	})
	if err != nil {
		return nil, err
	}
	return fl.result()
}

func (p *Pager) fetchMore(ctx context.Context, e *cache.Entry) (*Snapshot, error) {
	f := e.Filters.Clone()
	f.Cursor = *e.Cursor
	p.inflight.Add(1)
	page, err := p.fetcher.GetUserFeed(ctx, p.viewerID, f)
	p.inflight.Add(-1)
	if err != nil {
		return nil, err
	}

	updated, err := p.cache.Append(p.viewerID, e.Cursor, cache.Page{
		Items:   page.Items,
		HasMore: page.HasMore,
		Cursor:  page.NextCursor,
	})
	switch {
	case err == nil:
		return p.snapshot(updated), nil
	case errors.Is(err, cache.ErrStaleAppend), errors.Is(err, cache.ErrNoEntry):
		// The session expired or was replaced. Serve whatever is current.
		p.logger.Debug().Err(err).Msg("discarding page fetched for replaced session")
		return p.Snapshot(), nil
	default:
		return nil, fmt.Errorf("append page: %w", err)
	}
}

func (p *Pager) fetchFirstFlight(ctx context.Context, f ranking.Filters) (*flight, error) {
	e, err := p.fetchFirst(ctx, f)
	if err != nil {
		return nil, err
	}
	return &flight{snap: p.snapshot(e)}, nil
}

// fetchFirst fetches the first page and replaces the cached session.
func (p *Pager) fetchFirst(ctx context.Context, f ranking.Filters) (*cache.Entry, error) {
	p.inflight.Add(1)
	page, err := p.fetcher.GetUserFeed(ctx, p.viewerID, f)
	p.inflight.Add(-1)
	if err != nil {
		return nil, err
	}
	p.cache.Save(p.viewerID, cache.Entry{
		Items:   page.Items,
		HasMore: page.HasMore,
		Cursor:  page.NextCursor,
		Filters: f,
	})
	if e := p.cache.Load(p.viewerID); e != nil {
		return e, nil
	}
	// Evicted between save and load; return what was fetched.
	return &cache.Entry{Items: page.Items, HasMore: page.HasMore, Cursor: page.NextCursor, Filters: f}, nil
}

// Refresh invalidates upstream state and replaces the session with a fresh
// first page. With a nil f the filters of the current session are reused.
//
// A Refresh issued while another Refresh is in flight shares its result. One
// issued while a Load or LoadMore is in flight is not run: it reports
// Coalesced with the session that fetch produced.
func (p *Pager) Refresh(ctx context.Context, f *ranking.Filters) RefreshResult {
	p.touch()
	var requested *ranking.Filters
	if f != nil {
		c := f.Clone()
		requested = &c
	}

	fl, _, err := p.run(ctx, func(ctx context.Context) (*flight, error) {
		res := p.refresh(ctx, requested)
		return &flight{snap: res.Snapshot, refresh: &res}, nil
	})

	var res RefreshResult
	switch {
	case err != nil:
		res = p.fallback(err)
	case fl.refresh != nil:
		res = *fl.refresh
	default:
		res = RefreshResult{Outcome: Coalesced, Snapshot: fl.snap}
	}
	metrics.FeedRefreshOutcomes.WithLabelValues(string(res.Outcome)).Inc()
	return res
}

func (p *Pager) refresh(ctx context.Context, f *ranking.Filters) RefreshResult {
	prior := p.cache.Load(p.viewerID)

	var filters ranking.Filters
	switch {
	case f != nil:
		filters = *f
	case prior != nil:
		filters = prior.Filters
	}
	filters.Cursor = activity.Cursor{}

	var invalidateErr error
	for _, inv := range p.invalidators {
		if err := inv.InvalidateFeed(ctx, p.viewerID); err != nil {
			invalidateErr = errors.Join(invalidateErr, err)
		}
	}

	e, err := p.fetchFirst(ctx, filters)
	if err != nil {
		if prior == nil {
			p.logger.Warn().Err(err).Msg("feed refresh failed")
			return RefreshResult{Outcome: Failed, Err: err}
		}
		p.logger.Warn().Err(err).Msg("feed refresh failed, serving previous session")
		return RefreshResult{Outcome: Recovered, Snapshot: p.snapshot(prior), Err: err}
	}
	if invalidateErr != nil {
		p.logger.Warn().Err(invalidateErr).Msg("upstream invalidation failed during refresh")
		return RefreshResult{Outcome: Recovered, Snapshot: p.snapshot(e), Err: invalidateErr}
	}
	return RefreshResult{Outcome: Refreshed, Snapshot: p.snapshot(e)}
}

// fallback reports a refresh whose caller went away or whose shared fetch
// failed: the current session if there is one, otherwise failure.
func (p *Pager) fallback(err error) RefreshResult {
	if e := p.cache.Load(p.viewerID); e != nil {
		return RefreshResult{Outcome: Recovered, Snapshot: p.snapshot(e), Err: err}
	}
	return RefreshResult{Outcome: Failed, Err: err}
}

func (p *Pager) snapshot(e *cache.Entry) *Snapshot {
	s := &Snapshot{ViewerID: p.viewerID, State: StateIdle, Items: []ranking.Entry{}}
	if e != nil {
		s.Items = e.Items
		if s.Items == nil {
			s.Items = []ranking.Entry{}
		}
		s.HasMore = e.HasMore
		s.NextCursor = e.Cursor
		s.FetchedAt = e.FetchedAt
		s.State = StateExhausted
		if e.HasMore {
			s.State = StateLoaded
		}
	}
	if p.inflight.Load() > 0 {
		s.State = StateFetching
	}
	return s
}

func (p *Pager) touch() {
	p.lastUsed.Store(time.Now().UnixNano())
}

func (p *Pager) idleSince() time.Time {
	return time.Unix(0, p.lastUsed.Load())
}
