// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package ranking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/placefeed/internal/activity"
	"github.com/tomtom215/placefeed/internal/feederr"
	"github.com/tomtom215/placefeed/internal/metrics"
)

// Dependencies are the stores the engine reads from.
type Dependencies struct {
	Activities activity.Store
	Graph      activity.GraphStore
	Profiles   activity.ProfileStore
}

// Engine ranks feed pages. It is safe for concurrent use.
type Engine struct {
	cfg    *Config
	logger zerolog.Logger

	activities activity.Store
	graph      activity.GraphStore
	profiles   activity.ProfileStore

	now func() time.Time

	requestCount atomic.Int64
	errorCount   atomic.Int64
	cacheHits    atomic.Int64
	cacheMisses  atomic.Int64

	viewers   map[string]viewerEntry
	viewersMu sync.RWMutex
}

// viewerEntry caches the slow-changing half of a ViewerContext.
// The profile and following set are never mutated once stored.
type viewerEntry struct {
	profile   *activity.Profile
	following activity.FollowSet
	expiresAt time.Time
}

// Stats is a snapshot of engine counters.
type Stats struct {
	Requests          int64 `json:"requests"`
	Errors            int64 `json:"errors"`
	ViewerCacheHits   int64 `json:"viewer_cache_hits"`
	ViewerCacheMisses int64 `json:"viewer_cache_misses"`
	ViewerCacheSize   int   `json:"viewer_cache_size"`
}

// NewEngine creates a ranking engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, deps Dependencies, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if deps.Activities == nil || deps.Graph == nil || deps.Profiles == nil {
		return nil, errors.New("activity, graph and profile stores are required")
	}

	return &Engine{
		cfg:        cfg.Clone(),
		logger:     logger.With().Str("component", "ranking").Logger(),
		activities: deps.Activities,
		graph:      deps.Graph,
		profiles:   deps.Profiles,
		now:        time.Now,
		viewers:    make(map[string]viewerEntry),
	}, nil
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *Config {
	return e.cfg.Clone()
}

// GetUserFeed returns one ranked page of viewerID's feed.
func (e *Engine) GetUserFeed(ctx context.Context, viewerID string, f Filters) (*Page, error) {
	start := time.Now()
	e.requestCount.Add(1)

	page, scanned, err := e.rank(ctx, viewerID, f)
	returned := 0
	if page != nil {
		returned = len(page.Items)
	}
	metrics.RecordFeedRank(time.Since(start), scanned, returned, err)

	if err != nil {
		e.errorCount.Add(1)
		e.logger.Debug().
			Err(err).
			Str("viewer_id", viewerID).
			Str("code", string(feederr.CodeOf(err))).
			Msg("feed ranking failed")
		return nil, err
	}
	return page, nil
}

func (e *Engine) rank(ctx context.Context, viewerID string, f Filters) (*Page, int, error) {
	if viewerID == "" {
		return nil, 0, feederr.InvalidArgument("viewer id is required")
	}
	rf, err := e.resolve(f)
	if err != nil {
		return nil, 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.FetchTimeout)
	defer cancel()

	batch := rf.limit * e.cfg.OverfetchFactor
	if batch <= rf.limit {
		batch = rf.limit + 1
	}
	q := activity.Query{
		Types:      rf.types,
		Visibility: activity.VisibilityPublic,
		Before:     rf.cursor,
		Limit:      batch,
	}

	vc, rows, err := e.fetch(ctx, viewerID, q)
	if err != nil {
		return nil, 0, err
	}
	vc.IncludeGeographic = rf.includeGeographic
	vc.MaxDistanceKm = rf.maxDistanceKm
	vc.Weights = e.cfg.Weights

	// Keep the limit+1 most recent eligible rows. The extra row only proves
	// that another page exists.
	kept := make([]activity.Activity, 0, rf.limit+1)
	scanned := 0
	exhausted := false
	var lastScanned activity.Cursor

scan:
	for round := 1; ; round++ {
		for i := range rows {
			a := &rows[i]
			scanned++
			lastScanned = a.Position()
			if !vc.eligible(a, rf.friendsOnly) {
				continue
			}
			kept = append(kept, *a)
			if len(kept) > rf.limit {
				break scan
			}
		}
		if len(rows) < batch {
			exhausted = true
			break
		}
		if round >= e.cfg.MaxScanBatches {
			break
		}
		q.Before = lastScanned
		rows, err = e.activities.QueryActivities(ctx, q)
		if err != nil {
			return nil, scanned, feederr.FromContext(err, "query activities")
		}
	}

	page := &Page{}
	switch {
	case len(kept) > rf.limit:
		kept = kept[:rf.limit]
		next := kept[len(kept)-1].Position()
		page.HasMore = true
		page.NextCursor = &next
	case !exhausted:
		// Scan budget ran out. Resume after everything already examined.
		page.HasMore = true
		page.NextCursor = &lastScanned
	}

	page.Items = make([]Entry, len(kept))
	for i := range kept {
		page.Items[i] = toEntry(&kept[i], vc)
	}
	sort.Slice(page.Items, func(i, j int) bool {
		return Less(&page.Items[i], &page.Items[j])
	})

	if err := ctx.Err(); err != nil {
		return nil, scanned, feederr.FromContext(err, "rank feed")
	}
	return page, scanned, nil
}

func toEntry(a *activity.Activity, vc *ViewerContext) Entry {
	s := ScoreOf(a, vc)
	e := Entry{
		ActivityID: a.ID,
		AuthorID:   a.AuthorID,
		Type:       a.Type,
		Payload:    a.Payload,
		CreatedAt:  a.CreatedAt,
		Score:      s.Total,
	}
	if s.DistanceKm != nil {
		m := *s.DistanceKm * 1000
		e.DistanceMeters = &m
	}
	return e
}

// fetch reads the viewer context and the first candidate batch in parallel.
// Results are used only after every read has returned.
func (e *Engine) fetch(ctx context.Context, viewerID string, q activity.Query) (*ViewerContext, []activity.Activity, error) {
	var (
		wg        sync.WaitGroup
		profile   *activity.Profile
		following activity.FollowSet
		rows      []activity.Activity
		errs      [3]error
	)

	cached, hit := e.cachedViewer(viewerID)
	if hit {
		profile, following = cached.profile, cached.following
	} else {
		wg.Add(2)
		go func() {
			defer wg.Done()
			profile, errs[0] = e.profiles.Profile(ctx, viewerID)
		}()
		go func() {
			defer wg.Done()
			following, errs[1] = e.graph.Following(ctx, viewerID)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		rows, errs[2] = e.activities.QueryActivities(ctx, q)
	}()
	wg.Wait()

	if errs[0] != nil {
		if errors.Is(errs[0], feederr.ErrNotFound) {
			return nil, nil, feederr.NotFound("viewer %q has no profile", viewerID)
		}
		return nil, nil, feederr.FromContext(errs[0], "load viewer profile")
	}
	if errs[1] != nil {
		return nil, nil, feederr.FromContext(errs[1], "load following")
	}
	if errs[2] != nil {
		return nil, nil, feederr.FromContext(errs[2], "query activities")
	}
	if profile == nil {
		return nil, nil, feederr.NotFound("viewer %q has no profile", viewerID)
	}

	if !hit {
		e.storeViewer(viewerID, profile, following)
	}

	vc := NewViewerContext(profile, following)
	vc.ViewerID = viewerID
	return vc, rows, nil
}

func (e *Engine) cachedViewer(viewerID string) (viewerEntry, bool) {
	if e.cfg.ViewerContextTTL <= 0 {
		return viewerEntry{}, false
	}
	e.viewersMu.RLock()
	entry, ok := e.viewers[viewerID]
	e.viewersMu.RUnlock()

	if !ok || !e.now().Before(entry.expiresAt) {
		e.cacheMisses.Add(1)
		return viewerEntry{}, false
	}
	e.cacheHits.Add(1)
	return entry, true
}

func (e *Engine) storeViewer(viewerID string, p *activity.Profile, following activity.FollowSet) {
	if e.cfg.ViewerContextTTL <= 0 {
		return
	}
	now := e.now()
	e.viewersMu.Lock()
	defer e.viewersMu.Unlock()

	// Sweep expired entries opportunistically so the map stays bounded by
	// the number of recently active viewers.
	for id, entry := range e.viewers {
		if !now.Before(entry.expiresAt) {
			delete(e.viewers, id)
		}
	}
	e.viewers[viewerID] = viewerEntry{
		profile:   p,
		following: following,
		expiresAt: now.Add(e.cfg.ViewerContextTTL),
	}
}

// Invalidate drops cached viewer state so the next call re-reads the profile
// and following set. Call it after follow, unfollow or profile changes.
func (e *Engine) Invalidate(viewerID string) {
	e.viewersMu.Lock()
	delete(e.viewers, viewerID)
	e.viewersMu.Unlock()
}

// Stats returns a snapshot of engine counters.
func (e *Engine) Stats() Stats {
	e.viewersMu.RLock()
	size := len(e.viewers)
	e.viewersMu.RUnlock()
	return Stats{
		Requests:          e.requestCount.Load(),
		Errors:            e.errorCount.Load(),
		ViewerCacheHits:   e.cacheHits.Load(),
		ViewerCacheMisses: e.cacheMisses.Load(),
		ViewerCacheSize:   size,
	}
}
