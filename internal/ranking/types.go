// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package ranking

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/placefeed/internal/activity"
	"github.com/tomtom215/placefeed/internal/feederr"
)

// Filters are the caller-supplied options for one feed page. Nil pointers and
// zero values fall back to the engine configuration.
type Filters struct {
	Limit             int
	IncludeGeographic *bool
	MaxDistanceKm     *float64
	Types             []activity.Type
	FriendsOnly       bool

	// Cursor resumes after a previous page. Zero starts at the newest activity.
	Cursor activity.Cursor
}

// Clone returns a deep copy of f.
func (f Filters) Clone() Filters {
	f.Types = slices.Clone(f.Types)
	if f.IncludeGeographic != nil {
		v := *f.IncludeGeographic
		f.IncludeGeographic = &v
	}
	if f.MaxDistanceKm != nil {
		v := *f.MaxDistanceKm
		f.MaxDistanceKm = &v
	}
	return f
}

// Key fingerprints everything but Cursor and Limit. Two filter sets with the
// same key select the same candidate stream.
func (f Filters) Key() string {
	var b strings.Builder
	if f.IncludeGeographic != nil {
		b.WriteString("g=")
		b.WriteString(strconv.FormatBool(*f.IncludeGeographic))
	}
	if f.MaxDistanceKm != nil {
		b.WriteString(";d=")
		b.WriteString(strconv.FormatFloat(*f.MaxDistanceKm, 'f', -1, 64))
	}
	if len(f.Types) > 0 {
		types := make([]string, len(f.Types))
		for i, t := range f.Types {
			types[i] = string(t)
		}
		slices.Sort(types)
		types = slices.Compact(types)
		b.WriteString(";t=")
		b.WriteString(strings.Join(types, ","))
	}
	if f.FriendsOnly {
		b.WriteString(";f")
	}
	return b.String()
}

// resolved is Filters after defaults and validation.
type resolved struct {
	limit             int
	includeGeographic bool
	maxDistanceKm     float64
	types             []activity.Type
	friendsOnly       bool
	cursor            activity.Cursor
}

func (e *Engine) resolve(f Filters) (resolved, error) {
	r := resolved{
		limit:             f.Limit,
		includeGeographic: e.cfg.DefaultIncludeGeographic,
		maxDistanceKm:     e.cfg.DefaultMaxDistanceKm,
		friendsOnly:       f.FriendsOnly,
		cursor:            f.Cursor,
	}
	if r.limit == 0 {
		r.limit = e.cfg.DefaultLimit
	}
	if r.limit < 1 || r.limit > e.cfg.MaxLimit {
		return r, feederr.InvalidArgument("limit must be between 1 and %d, got %d", e.cfg.MaxLimit, f.Limit)
	}
	if f.IncludeGeographic != nil {
		r.includeGeographic = *f.IncludeGeographic
	}
	if f.MaxDistanceKm != nil {
		if *f.MaxDistanceKm <= 0 {
			return r, feederr.InvalidArgument("maxDistanceKm must be positive, got %g", *f.MaxDistanceKm)
		}
		r.maxDistanceKm = *f.MaxDistanceKm
	}
	for _, t := range f.Types {
		if !t.Valid() {
			return r, feederr.InvalidArgument("unknown activity type %q", t)
		}
	}
	if len(f.Types) > 0 {
		r.types = slices.Clone(f.Types)
	}
	return r, nil
}

// Entry is one ranked activity on a page.
type Entry struct {
	ActivityID string           `json:"activity_id"`
	AuthorID   string           `json:"author_id"`
	Type       activity.Type    `json:"type"`
	Payload    activity.Payload `json:"payload"`
	CreatedAt  time.Time        `json:"created_at"`
	Score      int              `json:"score"`

	// DistanceMeters is set only when geographic scoring applied to the entry.
	DistanceMeters *float64 `json:"distance_meters,omitempty"`
}

// Position is the keyset position of the underlying activity.
func (e *Entry) Position() activity.Cursor {
	return activity.Cursor{CreatedAt: e.CreatedAt, ID: e.ActivityID}
}

// Page is one ranked feed page.
type Page struct {
	Items   []Entry `json:"items"`
	HasMore bool    `json:"has_more"`

	// NextCursor is nil when HasMore is false.
	NextCursor *activity.Cursor `json:"next_cursor,omitempty"`
}

// Less orders entries by score desc, then CreatedAt desc, then ID desc.
func Less(a, b *Entry) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ActivityID > b.ActivityID
}
