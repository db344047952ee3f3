// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package activity

import (
	"fmt"
	"time"

	"github.com/tomtom215/placefeed/internal/geo"
)

// Type is the activity kind.
type Type string

const (
	TypePlaceAdded    Type = "place_added"
	TypePlaceVisited  Type = "place_visited"
	TypePlaceReviewed Type = "place_reviewed"
	TypeListCreated   Type = "list_created"
	TypeListPurchased Type = "list_purchased"
	TypeUserFollowed  Type = "user_followed"
)

// AllTypes lists every activity type in a stable order.
var AllTypes = []Type{
	TypePlaceAdded,
	TypePlaceVisited,
	TypePlaceReviewed,
	TypeListCreated,
	TypeListPurchased,
	TypeUserFollowed,
}

// Valid reports whether t is one of the known types.
func (t Type) Valid() bool {
	switch t {
	case TypePlaceAdded, TypePlaceVisited, TypePlaceReviewed,
		TypeListCreated, TypeListPurchased, TypeUserFollowed:
		return true
	}
	return false
}

// ParseType converts a wire string into a Type.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown activity type %q", s)
	}
	return t, nil
}

// Visibility controls whether an activity appears in other users' feeds.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Valid reports whether v is public or private.
func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// Activity is one immutable entry in the activity stream. Only Visibility
// changes after creation.
type Activity struct {
	ID         string     `json:"id"`
	AuthorID   string     `json:"author_id"`
	Type       Type       `json:"type"`
	Payload    Payload    `json:"payload"`
	Visibility Visibility `json:"visibility"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Position returns the keyset position of a.
func (a *Activity) Position() Cursor {
	return Cursor{CreatedAt: a.CreatedAt, ID: a.ID}
}

// Place returns the place reference for place_* activities.
func (a *Activity) Place() (Place, bool) {
	switch p := a.Payload.(type) {
	case PlaceAdded:
		return p.Place, true
	case PlaceVisited:
		return p.Place, true
	case PlaceReviewed:
		return p.Place, true
	}
	return Place{}, false
}

// Categories returns the categories attached to the payload, if any.
func (a *Activity) Categories() []string {
	switch p := a.Payload.(type) {
	case PlaceAdded:
		return p.Categories
	case PlaceVisited:
		return p.Categories
	case PlaceReviewed:
		return p.Categories
	case ListCreated:
		return p.Categories
	}
	return nil
}

// Coordinates returns the payload location for place_* activities.
func (a *Activity) Coordinates() (geo.Point, bool) {
	place, ok := a.Place()
	if !ok || place.Coordinates == nil {
		return geo.Point{}, false
	}
	return *place.Coordinates, true
}

// Rating returns the review rating for place_reviewed activities.
func (a *Activity) Rating() (float64, bool) {
	if p, ok := a.Payload.(PlaceReviewed); ok && p.Rating > 0 {
		return p.Rating, true
	}
	return 0, false
}

// TruncateTime normalises t to the microsecond resolution stored by the activity store.
func TruncateTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// FollowStatus is the state of a follow edge.
type FollowStatus string

const FollowActive FollowStatus = "active"

// FollowEdge is a directed follower -> followee relationship.
type FollowEdge struct {
	FollowerID string       `json:"follower_id"`
	FolloweeID string       `json:"followee_id"`
	Status     FollowStatus `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
}

// FollowSet is the set of user IDs a viewer follows.
type FollowSet map[string]struct{}

// NewFollowSet builds a set from ids.
func NewFollowSet(ids ...string) FollowSet {
	s := make(FollowSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Contains reports whether id is followed.
func (s FollowSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// Profile is the viewer state the engines need: preference categories and
// last known location.
type Profile struct {
	UserID       string     `json:"user_id"`
	Categories   []string   `json:"categories"`
	LastLocation *geo.Point `json:"last_location,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
