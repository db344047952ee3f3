// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package cache

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/tomtom215/placefeed/internal/activity"
	"github.com/tomtom215/placefeed/internal/clock"
	"github.com/tomtom215/placefeed/internal/metrics"
	"github.com/tomtom215/placefeed/internal/ranking"
)

// DefaultTTL is used when Config.TTL is zero.
const DefaultTTL = 300 * time.Second

// Eviction reasons, used as metric labels.
const (
	reasonExpired  = "expired"
	reasonCapacity = "capacity"
	reasonCleared  = "cleared"
)

var (
	// ErrNoEntry is returned by Append when the viewer has no live entry.
	ErrNoEntry = errors.New("no cached feed for viewer")

	// ErrStaleAppend is returned by Append when the entry moved since the
	// caller read its cursor.
	ErrStaleAppend = errors.New("cached feed changed since fetch started")
)

// Entry is one viewer's cached session.
type Entry struct {
	Items   []ranking.Entry
	HasMore bool

	// Cursor is where the next page starts. Nil when HasMore is false.
	Cursor *activity.Cursor

	// Filters produced the entry. Compare with Filters.Key.
	Filters ranking.Filters

	FetchedAt time.Time
	TTL       time.Duration
}

// Expired reports whether the entry must no longer be served at now.
func (e *Entry) Expired(now time.Time) bool {
	return now.Sub(e.FetchedAt) > e.TTL
}

func (e Entry) clone() Entry {
	e.Items = slices.Clone(e.Items)
	e.Filters = e.Filters.Clone()
	if e.Cursor != nil {
		c := *e.Cursor
		e.Cursor = &c
	}
	return e
}

// Page is a continuation appended to an entry.
type Page struct {
	Items   []ranking.Entry
	HasMore bool
	Cursor  *activity.Cursor
}

// Config configures a FeedCache.
type Config struct {
	TTL           time.Duration
	MaxViewers    int
	SweepInterval time.Duration
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Saves     int64 `json:"saves"`
	Appends   int64 `json:"appends"`
	Entries   int   `json:"entries"`
}

// FeedCache is a TTL and LRU bound cache of viewer sessions.
type FeedCache struct {
	mu       sync.Mutex
	entries  *lruList
	ttl      time.Duration
	capacity int
	sweep    time.Duration
	clock    clock.Clock
	stats    Stats
}

// NewFeedCache creates a cache. A nil clock uses the wall clock.
func NewFeedCache(cfg Config, clk clock.Clock) *FeedCache {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.MaxViewers <= 0 {
		cfg.MaxViewers = 10000
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if clk == nil {
		clk = clock.System
	}
	return &FeedCache{
		entries:  newLRUList(cfg.MaxViewers),
		ttl:      cfg.TTL,
		capacity: cfg.MaxViewers,
		sweep:    cfg.SweepInterval,
		clock:    clk,
	}
}

// TTL returns the configured time-to-live.
func (c *FeedCache) TTL() time.Duration {
	return c.ttl
}

// Save replaces viewerID's entry. FetchedAt and TTL are set by the cache.
func (c *FeedCache) Save(viewerID string, e Entry) {
	e = e.clone()
	e.FetchedAt = c.clock.Now()
	e.TTL = c.ttl

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries.put(viewerID, e)
	c.stats.Saves++
	for c.entries.len() > c.capacity {
		c.evict(c.entries.oldest(), reasonCapacity)
	}
	metrics.FeedCacheEntries.Set(float64(c.entries.len()))
}

// Load returns a copy of viewerID's entry, or nil when absent or expired.
// Expired entries are evicted.
func (c *FeedCache) Load(viewerID string) *Entry {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.entries.get(viewerID)
	if !ok {
		c.miss()
		return nil
	}
	if n.entry.Expired(now) {
		c.evict(n, reasonExpired)
		c.miss()
		return nil
	}
	c.entries.moveToFront(n)
	c.stats.Hits++
	metrics.FeedCacheHits.Inc()
	e := n.entry.clone()
	return &e
}

// Append adds p to viewerID's entry if the entry is still live and its cursor
// equals from. It returns a copy of the updated entry.
func (c *FeedCache) Append(viewerID string, from *activity.Cursor, p Page) (*Entry, error) {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.entries.get(viewerID)
	if !ok {
		return nil, ErrNoEntry
	}
	if n.entry.Expired(now) {
		c.evict(n, reasonExpired)
		return nil, ErrNoEntry
	}
	if !sameCursor(n.entry.Cursor, from) {
		return nil, ErrStaleAppend
	}

	n.entry.Items = append(slices.Clip(n.entry.Items), p.Items...)
	n.entry.HasMore = p.HasMore
	n.entry.Cursor = nil
	if p.Cursor != nil {
		cur := *p.Cursor
		n.entry.Cursor = &cur
	}
	c.entries.moveToFront(n)
	c.stats.Appends++

	e := n.entry.clone()
	return &e, nil
}

// Clear removes viewerID's entry.
func (c *FeedCache) Clear(viewerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n, ok := c.entries.get(viewerID); ok {
		c.evict(n, reasonCleared)
	}
}

// Sweep evicts every expired entry and returns how many were removed.
func (c *FeedCache) Sweep() int {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	c.entries.each(func(n *lruNode) {
		if n.entry.Expired(now) {
			c.evict(n, reasonExpired)
			removed++
		}
	})
	return removed
}

// Len returns the number of entries, expired or not.
func (c *FeedCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.len()
}

// Stats returns a snapshot of cache counters.
func (c *FeedCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Entries = c.entries.len()
	return s
}

// Serve sweeps expired entries every SweepInterval until ctx is done.
// It satisfies suture.Service.
func (c *FeedCache) Serve(ctx context.Context) error {
	ticker := time.NewTicker(c.sweep)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.Sweep()
		}
	}
}

// String names the janitor in supervisor logs.
func (c *FeedCache) String() string {
	return "feed-cache-janitor"
}

// evict must be called with c.mu held.
func (c *FeedCache) evict(n *lruNode, reason string) {
	if n == nil {
		return
	}
	c.entries.remove(n)
	c.stats.Evictions++
	metrics.FeedCacheEvictions.WithLabelValues(reason).Inc()
	metrics.FeedCacheEntries.Set(float64(c.entries.len()))
}

func (c *FeedCache) miss() {
	c.stats.Misses++
	metrics.FeedCacheMisses.Inc()
}

func sameCursor(a, b *activity.Cursor) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.CreatedAt.Equal(b.CreatedAt) && a.ID == b.ID
}
