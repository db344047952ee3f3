// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package clock

import (
	"testing"
	"time"
)

func TestFake(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f := NewFake(start)
	f.Advance(90 * time.Second)
	if got := f.Now(); !got.Equal(start.Add(90 * time.Second)) {
		t.Errorf("Now = %v after Advance", got)
	}
	f.Set(start)
	if got := f.Now(); !got.Equal(start) {
		t.Errorf("Now = %v after Set", got)
	}
}

func TestSystem(t *testing.T) {
	t.Parallel()

	before := time.Now()
	if System.Now().Before(before) {
		t.Error("System clock went backwards")
	}
}
