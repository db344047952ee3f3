// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/feed", "200"))
	RecordHTTPRequest("GET", "/api/v1/feed", "200", 12*time.Millisecond)
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/feed", "200"))

	if after-before != 1 {
		t.Errorf("request counter delta = %v, want 1", after-before)
	}
}

func TestRecordStoreCallCountsErrorsOnly(t *testing.T) {
	errs := StoreCallErrors.WithLabelValues("activity", "query", "TIMEOUT")
	before := testutil.ToFloat64(errs)

	RecordStoreCall("activity", "query", "", time.Millisecond)
	if got := testutil.ToFloat64(errs) - before; got != 0 {
		t.Errorf("success incremented errors by %v", got)
	}

	RecordStoreCall("activity", "query", "TIMEOUT", time.Second)
	if got := testutil.ToFloat64(errs) - before; got != 1 {
		t.Errorf("error delta = %v, want 1", got)
	}
}

func TestRecordEventPublished(t *testing.T) {
	ok := EventsPublished.WithLabelValues("activity.liked", "ok")
	failed := EventsPublished.WithLabelValues("activity.liked", "error")
	okBefore, failedBefore := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	RecordEventPublished("activity.liked", nil)
	RecordEventPublished("activity.liked", errors.New("nats down"))

	if testutil.ToFloat64(ok)-okBefore != 1 || testutil.ToFloat64(failed)-failedBefore != 1 {
		t.Error("expected one ok and one error publish")
	}
}

func TestRecordFeedRankCollects(t *testing.T) {
	before := testutil.CollectAndCount(FeedRankDuration)
	RecordFeedRank(5*time.Millisecond, 60, 20, nil)
	RecordFeedRank(5*time.Millisecond, 0, 0, errors.New("timeout"))
	if got := testutil.CollectAndCount(FeedRankDuration); got < before || got == 0 {
		t.Errorf("CollectAndCount = %d", got)
	}
}
