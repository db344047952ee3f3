// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package interactions

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"
)

func openTestViewLog(t *testing.T) *BadgerViewLog {
	t.Helper()
	v, err := OpenViewLog("", time.Hour)
	if err != nil {
		t.Fatalf("OpenViewLog: %v", err)
	}
	t.Cleanup(func() { _ = v.Close() })
	return v
}

func TestViewLogMarkAndRead(t *testing.T) {
	v := openTestViewLog(t)
	ctx := context.Background()
	at := time.Date(2026, 6, 1, 12, 0, 0, 123456000, time.UTC)

	ok, err := v.Viewed(ctx, "alice", "a-1")
	if err != nil || ok {
		t.Fatalf("Viewed before mark = %v, %v; want false, nil", ok, err)
	}

	if err := v.MarkViewed(ctx, "alice", "a-1", at); err != nil {
		t.Fatalf("MarkViewed: %v", err)
	}
	got, ok, err := v.ViewedAt(ctx, "alice", "a-1")
	if err != nil || !ok {
		t.Fatalf("ViewedAt = %v, %v", ok, err)
	}
	if !got.Equal(at) {
		t.Errorf("ViewedAt = %v, want %v", got, at)
	}

	// Markers are per viewer.
	if ok, _ := v.Viewed(ctx, "bob", "a-1"); ok {
		t.Error("bob should not have viewed a-1")
	}
}

func TestViewLogListsByViewer(t *testing.T) {
	v := openTestViewLog(t)
	ctx := context.Background()
	now := time.Now()

	for _, m := range []struct{ viewer, act string }{
		{"alice", "a-2"}, {"alice", "a-1"}, {"alice", "a-3"}, {"alicia", "a-9"}, {"bob", "a-1"},
	} {
		if err := v.MarkViewed(ctx, m.viewer, m.act, now); err != nil {
			t.Fatalf("MarkViewed: %v", err)
		}
	}

	ids, err := v.ViewedActivities(ctx, "alice")
	if err != nil {
		t.Fatalf("ViewedActivities: %v", err)
	}
	sort.Strings(ids)
	want := []string{"a-1", "a-2", "a-3"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}

func TestViewLogClosed(t *testing.T) {
	v, err := OpenViewLog("", time.Hour)
	if err != nil {
		t.Fatalf("OpenViewLog: %v", err)
	}
	if err := v.RunGC(); err != nil {
		t.Errorf("RunGC in memory: %v", err)
	}
	if err := v.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := v.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	err = v.MarkViewed(context.Background(), "alice", "a-1", time.Now())
	if !errors.Is(err, ErrViewLogClosed) {
		t.Errorf("MarkViewed after Close: err = %v, want ErrViewLogClosed", err)
	}
}

func TestOpenViewLogRejectsZeroTTL(t *testing.T) {
	if _, err := OpenViewLog("", 0); err == nil {
		t.Fatal("expected error for zero ttl")
	}
}
