// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package ranking

import (
	"strings"

	"github.com/tomtom215/placefeed/internal/activity"
	"github.com/tomtom215/placefeed/internal/geo"
)

// ViewerContext is everything about the viewer that scoring depends on.
type ViewerContext struct {
	ViewerID   string
	Following  activity.FollowSet
	Categories map[string]struct{}

	// Location is nil when the viewer has never reported one.
	Location *geo.Point

	IncludeGeographic bool
	MaxDistanceKm     float64
	Weights           Weights
}

// NewViewerContext builds a context from a profile and following set.
// Categories are matched case-insensitively.
func NewViewerContext(p *activity.Profile, following activity.FollowSet) *ViewerContext {
	vc := &ViewerContext{
		Following:  following,
		Categories: make(map[string]struct{}),
	}
	if p != nil {
		vc.ViewerID = p.UserID
		for _, c := range p.Categories {
			vc.Categories[normalizeCategory(c)] = struct{}{}
		}
		if p.LastLocation != nil {
			loc := *p.LastLocation
			vc.Location = &loc
		}
	}
	if vc.Following == nil {
		vc.Following = activity.NewFollowSet()
	}
	return vc
}

func normalizeCategory(c string) string {
	return strings.ToLower(strings.TrimSpace(c))
}

// Score is the breakdown of one activity's score.
type Score struct {
	Total         int
	Followed      bool
	CategoryMatch bool
	Nearby        bool

	// DistanceKm is set when geographic scoring is on and both the viewer and
	// the activity have coordinates.
	DistanceKm *float64
}

// ScoreOf scores a against vc. It has no side effects.
func ScoreOf(a *activity.Activity, vc *ViewerContext) Score {
	w := vc.Weights
	s := Score{Total: w.Base}

	if vc.Following.Contains(a.AuthorID) {
		s.Followed = true
		s.Total += w.Follow
	}

	if len(vc.Categories) > 0 {
		for _, c := range a.Categories() {
			if _, ok := vc.Categories[normalizeCategory(c)]; ok {
				s.CategoryMatch = true
				s.Total += w.Category
				break
			}
		}
	}

	if vc.IncludeGeographic && vc.Location != nil {
		if p, ok := a.Coordinates(); ok {
			d := geo.HaversineKm(*vc.Location, p)
			s.DistanceKm = &d
			if d <= vc.MaxDistanceKm {
				s.Nearby = true
				s.Total += w.Proximity
			}
		}
	}
	return s
}

// eligible reports whether a may appear in vc's feed at all.
func (vc *ViewerContext) eligible(a *activity.Activity, friendsOnly bool) bool {
	if a.AuthorID == vc.ViewerID {
		return false
	}
	if friendsOnly && !vc.Following.Contains(a.AuthorID) {
		return false
	}
	return true
}
