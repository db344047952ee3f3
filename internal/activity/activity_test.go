// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package activity

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/placefeed/internal/geo"
)

func TestDecodePayloadVariants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		typ   Type
		raw   string
		check func(t *testing.T, p Payload)
	}{
		{
			TypePlaceReviewed,
			`{"place_id":"p1","name":"Cafe","coordinates":{"lat":1.5,"lon":2.5},"categories":["coffee"],"rating":4.5}`,
			func(t *testing.T, p Payload) {
				r, ok := p.(PlaceReviewed)
				if !ok {
					t.Fatalf("got %T, want PlaceReviewed", p)
				}
				if r.PlaceID != "p1" || r.Rating != 4.5 || r.Coordinates == nil || r.Coordinates.Lat != 1.5 {
					t.Errorf("unexpected payload %+v", r)
				}
			},
		},
		{
			TypeListCreated,
			`{"list_id":"l1","title":"Tacos","categories":["mexican"],"place_count":7}`,
			func(t *testing.T, p Payload) {
				l, ok := p.(ListCreated)
				if !ok || l.PlaceCount != 7 || l.Categories[0] != "mexican" {
					t.Errorf("unexpected payload %#v", p)
				}
			},
		},
		{
			TypeUserFollowed,
			`{"followed_user_id":"u2"}`,
			func(t *testing.T, p Payload) {
				if f, ok := p.(UserFollowed); !ok || f.FollowedUserID != "u2" {
					t.Errorf("unexpected payload %#v", p)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			t.Parallel()
			p, err := DecodePayload(tt.typ, []byte(tt.raw))
			if err != nil {
				t.Fatalf("DecodePayload: %v", err)
			}
			if p.ActivityType() != tt.typ {
				t.Errorf("ActivityType = %s, want %s", p.ActivityType(), tt.typ)
			}
			tt.check(t, p)
		})
	}
}

func TestDecodePayloadRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		typ  Type
		raw  string
		want string
	}{
		{"unknown type", Type("place_liked"), `{}`, "unknown activity type"},
		{"malformed json", TypePlaceAdded, `{"place_id":`, "decode place_added"},
		{"missing place id", TypePlaceVisited, `{"name":"x"}`, "place_id is required"},
		{"rating out of range", TypePlaceReviewed, `{"place_id":"p","rating":9}`, "outside 1..5"},
		{"bad coordinates", TypePlaceAdded, `{"place_id":"p","coordinates":{"lat":120,"lon":0}}`, "invalid coordinates"},
		{"negative price", TypeListPurchased, `{"list_id":"l","price_cents":-1}`, "must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := DecodePayload(tt.typ, []byte(tt.raw))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestEncodePayloadTypeMismatch(t *testing.T) {
	t.Parallel()

	_, err := EncodePayload(TypePlaceAdded, UserFollowed{FollowedUserID: "u"})
	if !errors.Is(err, ErrPayloadMismatch) {
		t.Fatalf("err = %v, want ErrPayloadMismatch", err)
	}

	raw, err := EncodePayload(TypePlaceAdded, PlaceAdded{Place: Place{PlaceID: "p9", Name: "Park"}})
	if err != nil {
		t.Fatalf("EncodePayload: %v", err)
	}
	back, err := DecodePayload(TypePlaceAdded, raw)
	if err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if back.(PlaceAdded).Name != "Park" {
		t.Errorf("round trip lost name: %s", raw)
	}
}

func TestActivityAccessors(t *testing.T) {
	t.Parallel()

	pt := &geo.Point{Lat: 30.2672, Lon: -97.7431}
	review := Activity{
		Type:    TypePlaceReviewed,
		Payload: PlaceReviewed{Place: Place{PlaceID: "p", Coordinates: pt, Categories: []string{"bbq"}}, Rating: 5},
	}
	if c, ok := review.Coordinates(); !ok || c != *pt {
		t.Errorf("Coordinates = %v, %v", c, ok)
	}
	if r, ok := review.Rating(); !ok || r != 5 {
		t.Errorf("Rating = %v, %v", r, ok)
	}
	if cats := review.Categories(); len(cats) != 1 || cats[0] != "bbq" {
		t.Errorf("Categories = %v", cats)
	}

	follow := Activity{Type: TypeUserFollowed, Payload: UserFollowed{FollowedUserID: "u"}}
	if _, ok := follow.Coordinates(); ok {
		t.Error("user_followed has no coordinates")
	}
	if _, ok := follow.Place(); ok {
		t.Error("user_followed has no place")
	}
	if _, ok := follow.Rating(); ok {
		t.Error("user_followed has no rating")
	}
}

func TestCursorAfter(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := Cursor{CreatedAt: t0, ID: "m"}

	tests := []struct {
		name string
		at   time.Time
		id   string
		want bool
	}{
		{"older", t0.Add(-time.Microsecond), "z", true},
		{"newer", t0.Add(time.Microsecond), "a", false},
		{"same time lower id", t0, "a", true},
		{"same time same id", t0, "m", false},
		{"same time higher id", t0, "z", false},
	}
	for _, tt := range tests {
		if got := c.After(tt.at, tt.id); got != tt.want {
			t.Errorf("%s: After = %v, want %v", tt.name, got, tt.want)
		}
	}

	bare := Cursor{CreatedAt: t0}
	if bare.After(t0, "a") {
		t.Error("timestamp-only cursor must exclude equal timestamps")
	}
}

func TestCursorEncodeDecode(t *testing.T) {
	t.Parallel()

	c := Cursor{CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 123456000, time.UTC), ID: "act-42"}
	got, err := DecodeCursor(c.Encode())
	if err != nil {
		t.Fatalf("DecodeCursor: %v", err)
	}
	if !got.CreatedAt.Equal(c.CreatedAt) || got.ID != c.ID {
		t.Errorf("got %+v, want %+v", got, c)
	}

	for _, bad := range []string{"!!!", "e30", ""} {
		if _, err := DecodeCursor(bad); !errors.Is(err, ErrInvalidCursor) {
			t.Errorf("DecodeCursor(%q) err = %v", bad, err)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	want := time.Date(2026, 3, 1, 12, 0, 0, 123456000, time.UTC)

	c, err := ParseTimestamp("2026-03-01T12:00:00.123456789Z")
	if err != nil || !c.CreatedAt.Equal(want) {
		t.Errorf("RFC3339 = %v, %v", c.CreatedAt, err)
	}
	c, err = ParseTimestamp("1772366400123456")
	if err != nil || !c.CreatedAt.Equal(want) {
		t.Errorf("micros = %v, %v", c.CreatedAt, err)
	}
	if _, err := ParseTimestamp("yesterday"); !errors.Is(err, ErrInvalidCursor) {
		t.Errorf("expected ErrInvalidCursor, got %v", err)
	}
}

func TestQueryMatches(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	a := &Activity{ID: "a1", Type: TypePlaceVisited, Visibility: VisibilityPublic, CreatedAt: t0}

	tests := []struct {
		name string
		q    Query
		want bool
	}{
		{"empty query", Query{}, true},
		{"type match", Query{Types: []Type{TypePlaceReviewed, TypePlaceVisited}}, true},
		{"type miss", Query{Types: []Type{TypeListCreated}}, false},
		{"private filter", Query{Visibility: VisibilityPrivate}, false},
		{"before cursor", Query{Before: Cursor{CreatedAt: t0.Add(time.Second)}}, true},
		{"at cursor", Query{Before: Cursor{CreatedAt: t0}}, false},
		{"since inclusive", Query{Since: t0}, true},
		{"since excludes older", Query{Since: t0.Add(time.Nanosecond)}, false},
	}
	for _, tt := range tests {
		if got := tt.q.Matches(a); got != tt.want {
			t.Errorf("%s: Matches = %v, want %v", tt.name, got, tt.want)
		}
	}
}
