// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

// Package activitytest provides an in-memory implementation of the activity
// store interfaces for engine tests, with call counters, injectable errors and
// optional latency.
package activitytest

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/placefeed/internal/activity"
	"github.com/tomtom215/placefeed/internal/feederr"
	"github.com/tomtom215/placefeed/internal/geo"
)

// Store is a goroutine-safe in-memory activity, graph and profile store.
type Store struct {
	mu         sync.RWMutex
	activities []activity.Activity
	following  map[string]activity.FollowSet
	profiles   map[string]*activity.Profile
	region     string

	// Injected failures, checked before each call.
	QueryErr     error
	FollowingErr error
	ProfileErr   error
	RegionErr    error

	// Delay is applied to every call and honours ctx cancellation.
	Delay time.Duration

	QueryCalls     atomic.Int32
	FollowingCalls atomic.Int32
	ProfileCalls   atomic.Int32
}

// New returns an empty store.
func New() *Store {
	return &Store{
		following: make(map[string]activity.FollowSet),
		profiles:  make(map[string]*activity.Profile),
	}
}

// Add appends activities. CreatedAt is truncated to microseconds.
func (s *Store) Add(acts ...activity.Activity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range acts {
		a.CreatedAt = activity.TruncateTime(a.CreatedAt)
		if a.Visibility == "" {
			a.Visibility = activity.VisibilityPublic
		}
		s.activities = append(s.activities, a)
	}
}

// Follow records follower -> followee.
func (s *Store) Follow(follower string, followees ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.following[follower]
	if !ok {
		set = activity.NewFollowSet()
		s.following[follower] = set
	}
	for _, f := range followees {
		set[f] = struct{}{}
	}
}

// SetProfile stores p.
func (s *Store) SetProfile(p activity.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.UserID] = &p
}

// SetRegion sets the label returned by ResolveRegion.
func (s *Store) SetRegion(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.region = label
}

func (s *Store) wait(ctx context.Context) error {
	if s.Delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// QueryActivities implements activity.Store.
func (s *Store) QueryActivities(ctx context.Context, q activity.Query) ([]activity.Activity, error) {
	s.QueryCalls.Add(1)
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	if s.QueryErr != nil {
		return nil, s.QueryErr
	}

	s.mu.RLock()
	out := make([]activity.Activity, 0, len(s.activities))
	for i := range s.activities {
		if q.Matches(&s.activities[i]) {
			out = append(out, s.activities[i])
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// Following implements activity.GraphStore.
func (s *Store) Following(ctx context.Context, userID string) (activity.FollowSet, error) {
	s.FollowingCalls.Add(1)
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	if s.FollowingErr != nil {
		return nil, s.FollowingErr
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := activity.NewFollowSet()
	for id := range s.following[userID] {
		out[id] = struct{}{}
	}
	return out, nil
}

// Profile implements activity.ProfileStore.
func (s *Store) Profile(ctx context.Context, userID string) (*activity.Profile, error) {
	s.ProfileCalls.Add(1)
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	if s.ProfileErr != nil {
		return nil, s.ProfileErr
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, feederr.NotFound("no profile for user %q", userID)
	}
	cp := *p
	return &cp, nil
}

// ResolveRegion implements activity.RegionResolver.
func (s *Store) ResolveRegion(ctx context.Context, _ geo.Point) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.RegionErr != nil {
		return "", s.RegionErr
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.region, nil
}
