// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package database

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/placefeed/internal/activity"
	"github.com/tomtom215/placefeed/internal/config"
	"github.com/tomtom215/placefeed/internal/feederr"
	"github.com/tomtom215/placefeed/internal/geo"
	"github.com/tomtom215/placefeed/internal/ranking"
)

var base = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(&config.DatabaseConfig{
		Path:      ":memory:",
		MaxMemory: "512MB",
		Threads:   2,
	})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { closeQuietly(db) })
	return db
}

func mustAppend(t *testing.T, db *DB, a activity.Activity) activity.Activity {
	t.Helper()
	out, err := db.AppendActivity(context.Background(), a)
	if err != nil {
		t.Fatalf("AppendActivity(%s): %v", a.ID, err)
	}
	return out
}

func listAct(id, author string, at time.Time) activity.Activity {
	return activity.Activity{
		ID:        id,
		AuthorID:  author,
		Type:      activity.TypeListCreated,
		Payload:   activity.ListCreated{ListID: "l-" + id, Title: id},
		CreatedAt: at,
	}
}

func TestBuildActivityQuery(t *testing.T) {
	t.Parallel()

	q, args := buildActivityQuery(activity.Query{
		Types:      []activity.Type{activity.TypePlaceVisited, activity.TypePlaceReviewed},
		Visibility: activity.VisibilityPublic,
		Before:     activity.Cursor{CreatedAt: base, ID: "x"},
		Limit:      10,
	})
	for _, want := range []string{
		"visibility = ?",
		"type IN (?, ?)",
		"(created_at < ? OR (created_at = ? AND id < ?))",
		"ORDER BY created_at DESC, id DESC",
		"LIMIT ?",
	} {
		if !strings.Contains(q, want) {
			t.Errorf("query %q missing %q", q, want)
		}
	}
	if len(args) != 7 {
		t.Errorf("args = %v, want 7", args)
	}

	q, args = buildActivityQuery(activity.Query{Before: activity.Cursor{CreatedAt: base}})
	if !strings.Contains(q, "WHERE created_at < ?") || strings.Contains(q, "id < ?") || len(args) != 1 {
		t.Errorf("timestamp-only cursor rendered as %q %v", q, args)
	}
}

func TestQueryActivitiesKeysetPaging(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	// Pairs share a timestamp so the id tie-break is exercised.
	var want []string
	for i := 9; i >= 0; i-- {
		mustAppend(t, db, listAct(fmt.Sprintf("a%d", i), "alice", base.Add(time.Duration(i/2)*time.Minute)))
		want = append(want, fmt.Sprintf("a%d", i))
	}

	var got []string
	q := activity.Query{Limit: 3}
	for pages := 0; pages < 10; pages++ {
		rows, err := db.QueryActivities(ctx, q)
		if err != nil {
			t.Fatal(err)
		}
		for _, a := range rows {
			got = append(got, a.ID)
		}
		if len(rows) < q.Limit {
			break
		}
		q.Before = rows[len(rows)-1].Position()
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("paged order = %v, want %v", got, want)
	}
}

func TestQueryActivitiesFilters(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	cafe := geo.Point{Lat: 48.85, Lon: 2.35}
	mustAppend(t, db, listAct("list", "alice", base))
	mustAppend(t, db, activity.Activity{
		ID:        "review",
		AuthorID:  "bob",
		Type:      activity.TypePlaceReviewed,
		Payload:   activity.PlaceReviewed{Place: activity.Place{PlaceID: "p1", Name: "Cafe", Coordinates: &cafe, Categories: []string{"coffee"}}, Rating: 4},
		CreatedAt: base.Add(-time.Hour),
	})
	mustAppend(t, db, listAct("old", "alice", base.Add(-48*time.Hour)))
	hidden := mustAppend(t, db, listAct("hidden", "alice", base.Add(-time.Minute)))
	if err := db.SetVisibility(ctx, hidden.ID, activity.VisibilityPrivate); err != nil {
		t.Fatal(err)
	}

	rows, err := db.QueryActivities(ctx, activity.Query{Types: []activity.Type{activity.TypePlaceReviewed}})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("type filter returned %d rows", len(rows))
	}
	r, ok := rows[0].Payload.(activity.PlaceReviewed)
	if !ok || r.Rating != 4 || r.Coordinates == nil || r.Coordinates.Lat != 48.85 || r.Categories[0] != "coffee" {
		t.Errorf("payload did not round-trip: %#v", rows[0].Payload)
	}
	if !rows[0].CreatedAt.Equal(base.Add(-time.Hour)) {
		t.Errorf("CreatedAt = %v", rows[0].CreatedAt)
	}

	rows, err = db.QueryActivities(ctx, activity.Query{Visibility: activity.VisibilityPublic, Since: base.Add(-24 * time.Hour)})
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, a := range rows {
		ids = append(ids, a.ID)
	}
	if !reflect.DeepEqual(ids, []string{"list", "review"}) {
		t.Errorf("public since yesterday = %v, want [list review]", ids)
	}
}

func TestAppendActivityValidation(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	a := mustAppend(t, db, activity.Activity{
		AuthorID: "alice",
		Type:     activity.TypeUserFollowed,
		Payload:  activity.UserFollowed{FollowedUserID: "bob"},
	})
	if a.ID == "" || a.CreatedAt.IsZero() || a.Visibility != activity.VisibilityPublic {
		t.Errorf("defaults not applied: %+v", a)
	}
	got, err := db.GetActivity(ctx, a.ID)
	if err != nil || got.AuthorID != "alice" {
		t.Fatalf("GetActivity = %+v, %v", got, err)
	}

	bad := []activity.Activity{
		{AuthorID: "alice", Type: activity.TypePlaceAdded, Payload: activity.UserFollowed{FollowedUserID: "bob"}},
		{AuthorID: "alice", Type: "bogus", Payload: activity.UserFollowed{FollowedUserID: "bob"}},
		{Type: activity.TypeUserFollowed, Payload: activity.UserFollowed{FollowedUserID: "bob"}},
		{ID: a.ID, AuthorID: "alice", Type: activity.TypeUserFollowed, Payload: activity.UserFollowed{FollowedUserID: "carol"}},
	}
	for i, b := range bad {
		if _, err := db.AppendActivity(ctx, b); !errors.Is(err, feederr.ErrInvalidArgument) {
			t.Errorf("case %d: err = %v, want InvalidArgument", i, err)
		}
	}

	if _, err := db.GetActivity(ctx, "missing"); !errors.Is(err, feederr.ErrNotFound) {
		t.Errorf("GetActivity(missing) err = %v", err)
	}
	if err := db.SetVisibility(ctx, "missing", activity.VisibilityPrivate); !errors.Is(err, feederr.ErrNotFound) {
		t.Errorf("SetVisibility(missing) err = %v", err)
	}
}

func TestFollowGraph(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.Follow(ctx, "alice", "alice"); !errors.Is(err, feederr.ErrInvalidArgument) {
		t.Errorf("self follow err = %v", err)
	}
	for _, followee := range []string{"bob", "carol", "bob"} {
		if err := db.Follow(ctx, "alice", followee); err != nil {
			t.Fatalf("Follow(%s): %v", followee, err)
		}
	}

	set, err := db.Following(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(set) != 2 || !set.Contains("bob") || !set.Contains("carol") {
		t.Errorf("following = %v", set)
	}
	edges, err := db.FollowEdges(ctx, "alice")
	if err != nil || len(edges) != 2 || edges[0].Status != activity.FollowActive {
		t.Errorf("edges = %+v, %v", edges, err)
	}

	if err := db.Unfollow(ctx, "alice", "bob"); err != nil {
		t.Fatal(err)
	}
	if err := db.Unfollow(ctx, "alice", "nobody"); err != nil {
		t.Fatal(err)
	}
	set, _ = db.Following(ctx, "alice")
	if set.Contains("bob") || !set.Contains("carol") {
		t.Errorf("after unfollow = %v", set)
	}
	if set, _ := db.Following(ctx, "nobody"); len(set) != 0 {
		t.Errorf("unknown user follows %v", set)
	}
}

func TestProfiles(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.Profile(ctx, "alice"); !errors.Is(err, feederr.ErrNotFound) {
		t.Errorf("missing profile err = %v", err)
	}

	loc := geo.Point{Lat: 40.7, Lon: -74}
	if err := db.UpsertProfile(ctx, activity.Profile{UserID: "alice", Categories: []string{"coffee", "parks"}, LastLocation: &loc}); err != nil {
		t.Fatal(err)
	}
	p, err := db.Profile(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(p.Categories, []string{"coffee", "parks"}) || p.LastLocation == nil || *p.LastLocation != loc {
		t.Errorf("profile = %+v", p)
	}

	if err := db.UpsertProfile(ctx, activity.Profile{UserID: "alice"}); err != nil {
		t.Fatal(err)
	}
	p, err = db.Profile(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Categories) != 0 || p.LastLocation != nil {
		t.Errorf("profile not replaced: %+v", p)
	}

	bad := geo.Point{Lat: 91}
	if err := db.UpsertProfile(ctx, activity.Profile{UserID: "bob", LastLocation: &bad}); !errors.Is(err, feederr.ErrInvalidArgument) {
		t.Errorf("invalid location err = %v", err)
	}
}

func TestLikes(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	pub := mustAppend(t, db, listAct("pub", "alice", base))
	priv := mustAppend(t, db, listAct("priv", "alice", base))
	if err := db.SetVisibility(ctx, priv.ID, activity.VisibilityPrivate); err != nil {
		t.Fatal(err)
	}

	for _, id := range []string{"missing", priv.ID} {
		if err := db.Like(ctx, id, "bob"); !errors.Is(err, feederr.ErrNotFound) {
			t.Errorf("Like(%s) err = %v, want NotFound", id, err)
		}
	}

	for i := 0; i < 2; i++ {
		if err := db.Like(ctx, pub.ID, "bob"); err != nil {
			t.Fatal(err)
		}
	}
	if n, _ := db.LikeCount(ctx, pub.ID); n != 1 {
		t.Errorf("LikeCount = %d after double like, want 1", n)
	}
	for i := 0; i < 2; i++ {
		if err := db.Unlike(ctx, pub.ID, "bob"); err != nil {
			t.Fatal(err)
		}
	}
	if n, _ := db.LikeCount(ctx, pub.ID); n != 0 {
		t.Errorf("LikeCount = %d after unlike, want 0", n)
	}
}

func TestResolveRegion(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	sf := geo.Point{Lat: 37.7749, Lon: -122.4194}
	for _, r := range []Region{
		{Name: "Bay Area", Center: geo.Point{Lat: 37.6, Lon: -122.2}, RadiusKm: 80},
		{Name: "San Francisco", Center: sf, RadiusKm: 12},
	} {
		if err := db.UpsertRegion(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name string
		at   geo.Point
		want string
	}{
		{"inside both picks nearest", geo.Destination(sf, 45, 2), "San Francisco"},
		{"inside outer only", geo.Destination(sf, 135, 40), "Bay Area"},
		{"outside all", geo.Point{Lat: 51.5, Lon: -0.12}, ""},
	}
	for _, tt := range tests {
		got, err := db.ResolveRegion(ctx, tt.at)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("%s: region = %q, want %q", tt.name, got, tt.want)
		}
	}

	if err := db.UpsertRegion(ctx, Region{Name: "", RadiusKm: 1}); !errors.Is(err, feederr.ErrInvalidArgument) {
		t.Errorf("invalid region err = %v", err)
	}
}

func TestPingCountAndMigrations(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.Ping(ctx); err != nil {
		t.Fatal(err)
	}
	if n, err := db.CountActivities(ctx); err != nil || n != 0 {
		t.Fatalf("CountActivities on empty store = %d, %v", n, err)
	}
	mustAppend(t, db, listAct("c1", "alice", base))
	mustAppend(t, db, listAct("c2", "alice", base.Add(time.Minute)))
	if n, err := db.CountActivities(ctx); err != nil || n != 2 {
		t.Errorf("CountActivities = %d, %v, want 2", n, err)
	}

	history, err := db.GetMigrationHistory(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != len(migrations) || history[0].Version != 1 {
		t.Errorf("history = %+v", history)
	}
	// Re-running is a no-op.
	if err := db.runVersionedMigrations(); err != nil {
		t.Fatal(err)
	}

	closeQuietly(db)
	if err := db.Ping(ctx); err == nil {
		t.Error("Ping succeeded on closed database")
	}
}

func TestRankingOverDuckDB(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.UpsertProfile(ctx, activity.Profile{UserID: "viewer"}); err != nil {
		t.Fatal(err)
	}
	if err := db.Follow(ctx, "viewer", "friend"); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 12; i++ {
		author := "stranger"
		if i%3 == 0 {
			author = "friend"
		}
		if i%4 == 0 {
			author = "viewer"
		}
		mustAppend(t, db, listAct(fmt.Sprintf("a%02d", i), author, base.Add(-time.Duration(i)*time.Minute)))
	}

	engine, err := ranking.NewEngine(nil, ranking.Dependencies{Activities: db, Graph: db, Profiles: db}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	seen := make(map[string]bool)
	f := ranking.Filters{Limit: 4}
	for {
		page, err := engine.GetUserFeed(ctx, "viewer", f)
		if err != nil {
			t.Fatal(err)
		}
		for _, it := range page.Items {
			if it.AuthorID == "viewer" || seen[it.ActivityID] {
				t.Fatalf("unexpected item %+v", it)
			}
			seen[it.ActivityID] = true
		}
		if !page.HasMore {
			break
		}
		f.Cursor = *page.NextCursor
	}
	// 12 activities, 3 of them (0, 4, 8) by the viewer.
	if len(seen) != 9 {
		t.Errorf("saw %d activities, want 9", len(seen))
	}
}
