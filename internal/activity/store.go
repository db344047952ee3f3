// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package activity

import (
	"context"
	"time"

	"github.com/tomtom215/placefeed/internal/geo"
)

// Query selects activities from the store. Results are always ordered by
// (CreatedAt desc, ID desc).
type Query struct {
	// Types restricts results to these types. Empty means all types.
	Types []Type

	// Visibility restricts results; empty means any visibility.
	Visibility Visibility

	// Before, when non-zero, returns only activities strictly after this
	// cursor position in descending order.
	Before Cursor

	// Since, when non-zero, returns only activities with CreatedAt >= Since.
	Since time.Time

	// Limit caps the number of rows. Zero means unbounded.
	Limit int
}

// Matches reports whether a satisfies every filter in q except Limit. Store
// implementations that filter in memory use it so that both adapters agree.
func (q *Query) Matches(a *Activity) bool {
	if q.Visibility != "" && a.Visibility != q.Visibility {
		return false
	}
	if len(q.Types) > 0 {
		found := false
		for _, t := range q.Types {
			if a.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !q.Before.IsZero() && !q.Before.After(a.CreatedAt, a.ID) {
		return false
	}
	if !q.Since.IsZero() && a.CreatedAt.Before(q.Since) {
		return false
	}
	return true
}

// Store reads activities.
type Store interface {
	QueryActivities(ctx context.Context, q Query) ([]Activity, error)
}

// GraphStore reads the social graph.
type GraphStore interface {
	// Following returns the set of users that userID follows.
	Following(ctx context.Context, userID string) (FollowSet, error)
}

// ProfileStore reads viewer profiles. Implementations return an error matching
// feederr.ErrNotFound when no profile exists.
type ProfileStore interface {
	Profile(ctx context.Context, userID string) (*Profile, error)
}

// RegionResolver maps a location to a coarse human-readable label such as
// "Austin, TX". It may fail; callers treat failure as an empty label.
type RegionResolver interface {
	ResolveRegion(ctx context.Context, p geo.Point) (string, error)
}
