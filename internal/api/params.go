// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package api

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/tomtom215/placefeed/internal/activity"
	"github.com/tomtom215/placefeed/internal/discovery"
	"github.com/tomtom215/placefeed/internal/feederr"
	"github.com/tomtom215/placefeed/internal/ranking"
)

// Query parameter names.
const (
	paramLimit             = "limit"
	paramIncludeGeographic = "includeGeographic"
	paramMaxDistance       = "maxDistance"
	paramTypes             = "types"
	paramFriendsOnly       = "friendsOnly"
	paramCursor            = "cursor"
	paramLastTimestamp     = "lastTimestamp"
)

func parseLimit(q url.Values) (int, error) {
	s := q.Get(paramLimit)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, feederr.InvalidArgument("limit must be a positive integer, got %q", s)
	}
	return n, nil
}

func parseMaxDistance(q url.Values) (*float64, error) {
	s := q.Get(paramMaxDistance)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return nil, feederr.InvalidArgument("maxDistance must be a positive number of kilometers, got %q", s)
	}
	return &v, nil
}

func parseBool(q url.Values, name string) (*bool, error) {
	s := q.Get(name)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return nil, feederr.InvalidArgument("%s must be true or false, got %q", name, s)
	}
	return &v, nil
}

func parseTypes(q url.Values) ([]activity.Type, error) {
	var out []activity.Type
	for _, raw := range q[paramTypes] {
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			t, err := activity.ParseType(s)
			if err != nil {
				return nil, feederr.InvalidArgument("unknown activity type %q", s)
			}
			out = append(out, t)
		}
	}
	return out, nil
}

// parseCursor prefers the opaque cursor over lastTimestamp.
func parseCursor(q url.Values) (activity.Cursor, error) {
	if s := q.Get(paramCursor); s != "" {
		c, err := activity.DecodeCursor(s)
		if err != nil {
			return activity.Cursor{}, feederr.InvalidArgument("invalid cursor")
		}
		return c, nil
	}
	if s := q.Get(paramLastTimestamp); s != "" {
		c, err := activity.ParseTimestamp(s)
		if err != nil {
			return activity.Cursor{}, feederr.InvalidArgument("invalid lastTimestamp %q", s)
		}
		return c, nil
	}
	return activity.Cursor{}, nil
}

// parseFeedFilters reads the ranking filters. withCursor is false for session
// routes, where the session owns the cursor.
func parseFeedFilters(q url.Values, withCursor bool) (ranking.Filters, error) {
	var f ranking.Filters
	var err error

	if f.Limit, err = parseLimit(q); err != nil {
		return f, err
	}
	if f.IncludeGeographic, err = parseBool(q, paramIncludeGeographic); err != nil {
		return f, err
	}
	if f.MaxDistanceKm, err = parseMaxDistance(q); err != nil {
		return f, err
	}
	if f.Types, err = parseTypes(q); err != nil {
		return f, err
	}
	friendsOnly, err := parseBool(q, paramFriendsOnly)
	if err != nil {
		return f, err
	}
	f.FriendsOnly = friendsOnly != nil && *friendsOnly

	if withCursor {
		if f.Cursor, err = parseCursor(q); err != nil {
			return f, err
		}
	}
	return f, nil
}

// hasFeedFilters reports whether any filter parameter was supplied.
func hasFeedFilters(q url.Values) bool {
	for _, name := range []string{paramLimit, paramIncludeGeographic, paramMaxDistance, paramTypes, paramFriendsOnly} {
		if _, ok := q[name]; ok {
			return true
		}
	}
	return false
}

func parseDiscoveryFilters(q url.Values) (discovery.Filters, error) {
	var f discovery.Filters
	var err error
	if f.Limit, err = parseLimit(q); err != nil {
		return f, err
	}
	if f.MaxDistanceKm, err = parseMaxDistance(q); err != nil {
		return f, err
	}
	return f, nil
}
