// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package pagination

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/placefeed/internal/cache"
)

// DefaultMaxPagers bounds the registry before idle pagers are pruned.
const DefaultMaxPagers = 10000

// Sessions maps viewer ids to pagers sharing one fetcher and cache.
type Sessions struct {
	mu     sync.Mutex
	pagers map[string]*Pager

	fetcher      FeedFetcher
	cache        *cache.FeedCache
	invalidators []Invalidator
	logger       zerolog.Logger
	maxPagers    int
}

// NewSessions creates an empty registry.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewSessions(fetcher FeedFetcher, c *cache.FeedCache, logger zerolog.Logger, invalidators ...Invalidator) *Sessions {
	return &Sessions{
		pagers:       make(map[string]*Pager),
		fetcher:      fetcher,
		cache:        c,
		invalidators: invalidators,
		logger:       logger,
		maxPagers:    DefaultMaxPagers,
	}
}

// Get returns viewerID's pager, creating it on first use.
func (s *Sessions) Get(viewerID string) *Pager {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.pagers[viewerID]; ok {
		return p
	}
	if len(s.pagers) >= s.maxPagers {
		s.pruneLocked(s.cache.TTL())
	}
	p := NewPager(viewerID, s.fetcher, s.cache, s.logger, s.invalidators...)
	p.touch()
	s.pagers[viewerID] = p
	return p
}

// Forget drops viewerID's pager and cached session.
func (s *Sessions) Forget(viewerID string) {
	s.mu.Lock()
	delete(s.pagers, viewerID)
	s.mu.Unlock()
	s.cache.Clear(viewerID)
}

// Len returns the number of registered pagers.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pagers)
}

// Prune drops pagers unused for longer than idle that have no fetch in
// flight, and returns how many were dropped.
func (s *Sessions) Prune(idle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pruneLocked(idle)
}

func (s *Sessions) pruneLocked(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)
	removed := 0
	for id, p := range s.pagers {
		if p.inflight.Load() == 0 && p.idleSince().Before(cutoff) {
			delete(s.pagers, id)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Debug().Int("removed", removed).Msg("pruned idle feed sessions")
	}
	return removed
}
