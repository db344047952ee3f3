// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

// Package interactions handles likes and best-effort "viewed" tracking.
//
// Likes are synchronous and idempotent. Viewed marks are fire-and-forget: they
// are throttled per viewer, queued on a bounded channel and persisted by a
// supervised worker. A full queue, a throttled viewer or a failing view log
// drops the mark and increments placefeed_viewed_marks_dropped_total; none of
// these conditions are reported to the caller.
package interactions

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/placefeed/internal/clock"
	"github.com/tomtom215/placefeed/internal/eventprocessor"
	"github.com/tomtom215/placefeed/internal/feederr"
	"github.com/tomtom215/placefeed/internal/metrics"
)

// LikeStore persists likes. Both calls return NotFound for unknown or
// private activities and succeed when there is nothing to change.
type LikeStore interface {
	Like(ctx context.Context, activityID, userID string) error
	Unlike(ctx context.Context, activityID, userID string) error
}

// EventSink receives interaction events. Emission is best-effort.
type EventSink interface {
	Emit(ctx context.Context, t eventprocessor.EventType, viewerID, activityID string) error
}

// Drop reasons.
const (
	dropQueueFull   = "queue_full"
	dropRateLimited = "rate_limited"
	dropStoreError  = "store_error"
)

// Config tunes viewed-mark ingestion.
type Config struct {
	QueueSize     int
	RatePerSecond float64
	RateBurst     int

	// MaxLimiters caps tracked viewers; idle limiters are pruned beyond it.
	MaxLimiters int
	LimiterIdle time.Duration

	// WriteTimeout bounds one view log write.
	WriteTimeout time.Duration
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		QueueSize:     1024,
		RatePerSecond: 10,
		RateBurst:     20,
		MaxLimiters:   10000,
		LimiterIdle:   10 * time.Minute,
		WriteTimeout:  2 * time.Second,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.QueueSize < 1 {
		return fmt.Errorf("queue size must be positive, got %d", c.QueueSize)
	}
	if c.RatePerSecond <= 0 {
		return fmt.Errorf("rate per second must be positive, got %v", c.RatePerSecond)
	}
	if c.RateBurst < 1 {
		return fmt.Errorf("rate burst must be positive, got %d", c.RateBurst)
	}
	if c.MaxLimiters < 1 {
		return fmt.Errorf("max limiters must be positive, got %d", c.MaxLimiters)
	}
	return nil
}

// Result is the outcome of a like or unlike.
type Result struct {
	Success bool `json:"success"`
}

// Stats is a snapshot of viewed-mark counters.
type Stats struct {
	Queued   int64 `json:"queued"`
	Recorded int64 `json:"recorded"`
	Dropped  int64 `json:"dropped"`
	Pending  int   `json:"pending"`
}

type viewMark struct {
	viewerID   string
	activityID string
	at         time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Service implements likes and viewed tracking.
type Service struct {
	cfg    Config
	likes  LikeStore
	views  ViewLog
	events EventSink
	clock  clock.Clock
	logger zerolog.Logger

	queue chan viewMark

	limitersMu sync.Mutex
	limiters   map[string]*limiterEntry

	queued   atomic.Int64
	recorded atomic.Int64
	dropped  atomic.Int64
}

// Dependencies are the collaborators of a Service. Events and Clock are optional.
type Dependencies struct {
	Likes  LikeStore
	Views  ViewLog
	Events EventSink
	Clock  clock.Clock
}

// NewService creates a Service. Call Serve (usually under a supervisor) to
// persist queued viewed marks.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewService(cfg Config, deps Dependencies, logger zerolog.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid interactions config: %w", err)
	}
	if deps.Likes == nil || deps.Views == nil {
		return nil, fmt.Errorf("interactions: like store and view log are required")
	}
	if deps.Clock == nil {
		deps.Clock = clock.System
	}
	if cfg.LimiterIdle <= 0 {
		cfg.LimiterIdle = 10 * time.Minute
	}
	return &Service{
		cfg:      cfg,
		likes:    deps.Likes,
		views:    deps.Views,
		events:   deps.Events,
		clock:    deps.Clock,
		logger:   logger.With().Str("component", "interactions").Logger(),
		queue:    make(chan viewMark, cfg.QueueSize),
		limiters: make(map[string]*limiterEntry),
	}, nil
}

func requireIDs(viewerID, activityID string) error {
	if viewerID == "" {
		return feederr.Unauthenticated("viewer id is required")
	}
	if activityID == "" {
		return feederr.InvalidArgument("activity id is required")
	}
	return nil
}

// Like records viewerID's like of activityID.
func (s *Service) Like(ctx context.Context, viewerID, activityID string) (Result, error) {
	if err := requireIDs(viewerID, activityID); err != nil {
		return Result{}, err
	}
	if err := s.likes.Like(ctx, activityID, viewerID); err != nil {
		return Result{}, err
	}
	s.emit(ctx, eventprocessor.EventActivityLiked, viewerID, activityID)
	return Result{Success: true}, nil
}

// Unlike removes viewerID's like of activityID.
func (s *Service) Unlike(ctx context.Context, viewerID, activityID string) (Result, error) {
	if err := requireIDs(viewerID, activityID); err != nil {
		return Result{}, err
	}
	if err := s.likes.Unlike(ctx, activityID, viewerID); err != nil {
		return Result{}, err
	}
	s.emit(ctx, eventprocessor.EventActivityUnliked, viewerID, activityID)
	return Result{Success: true}, nil
}

// MarkViewed queues a viewed mark and never blocks. It reports whether the
// mark was accepted; callers are expected to ignore the answer.
func (s *Service) MarkViewed(viewerID, activityID string) bool {
	if requireIDs(viewerID, activityID) != nil {
		return false
	}
	now := s.clock.Now()
	if !s.allow(viewerID, now) {
		s.drop(dropRateLimited)
		return false
	}
	select {
	case s.queue <- viewMark{viewerID: viewerID, activityID: activityID, at: now}:
		s.queued.Add(1)
		return true
	default:
		s.drop(dropQueueFull)
		return false
	}
}

func (s *Service) allow(viewerID string, now time.Time) bool {
	s.limitersMu.Lock()
	defer s.limitersMu.Unlock()

	e, ok := s.limiters[viewerID]
	if !ok {
		if len(s.limiters) >= s.cfg.MaxLimiters {
			s.pruneLimiters(now)
		}
		e = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(s.cfg.RatePerSecond), s.cfg.RateBurst)}
		s.limiters[viewerID] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// pruneLimiters must be called with limitersMu held.
func (s *Service) pruneLimiters(now time.Time) {
	for id, e := range s.limiters {
		if now.Sub(e.lastSeen) > s.cfg.LimiterIdle {
			delete(s.limiters, id)
		}
	}
}

func (s *Service) drop(reason string) {
	s.dropped.Add(1)
	metrics.ViewedMarksDropped.WithLabelValues(reason).Inc()
}

func (s *Service) emit(ctx context.Context, t eventprocessor.EventType, viewerID, activityID string) {
	if s.events == nil {
		return
	}
	if err := s.events.Emit(ctx, t, viewerID, activityID); err != nil {
		s.logger.Debug().Err(err).Str("event_type", string(t)).Msg("Interaction event not published")
	}
}

// Serve persists queued viewed marks until ctx is canceled, then drains
// whatever is already queued.
func (s *Service) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			s.drain()
			return ctx.Err()
		case m := <-s.queue:
			s.record(ctx, m)
		}
	}
}

// String names the worker in supervisor logs.
func (s *Service) String() string {
	return "viewed-marks-worker"
}

func (s *Service) drain() {
	ctx := context.Background()
	for {
		select {
		case m := <-s.queue:
			s.record(ctx, m)
		default:
			return
		}
	}
}

func (s *Service) record(ctx context.Context, m viewMark) {
	writeCtx := ctx
	if s.cfg.WriteTimeout > 0 {
		var cancel context.CancelFunc
		writeCtx, cancel = context.WithTimeout(ctx, s.cfg.WriteTimeout)
		defer cancel()
	}

	if err := s.views.MarkViewed(writeCtx, m.viewerID, m.activityID, m.at); err != nil {
		s.drop(dropStoreError)
		s.logger.Warn().Err(err).Str("viewer_id", m.viewerID).Str("activity_id", m.activityID).
			Msg("Viewed mark not persisted")
		return
	}
	s.recorded.Add(1)
	metrics.ViewedMarksRecorded.Inc()
	s.emit(writeCtx, eventprocessor.EventActivityViewed, m.viewerID, m.activityID)
}

// Stats returns a snapshot of the counters.
func (s *Service) Stats() Stats {
	return Stats{
		Queued:   s.queued.Load(),
		Recorded: s.recorded.Load(),
		Dropped:  s.dropped.Load(),
		Pending:  len(s.queue),
	}
}
