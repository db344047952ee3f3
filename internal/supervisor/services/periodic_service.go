// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// PeriodicService runs a maintenance task on a fixed interval, for example
// pruning idle feed sessions or view log garbage collection. Task errors are
// logged and do not stop the loop.
type PeriodicService struct {
	name     string
	interval time.Duration
	task     func(ctx context.Context) error
	logger   zerolog.Logger
}

// NewPeriodicService creates the service. A non-positive interval means one
// minute.
func NewPeriodicService(name string, interval time.Duration, task func(ctx context.Context) error, logger zerolog.Logger) *PeriodicService { //nolint:gocritic // logger passed by value is acceptable for zerolog
	if interval <= 0 {
		interval = time.Minute
	}
	return &PeriodicService{
		name:     name,
		interval: interval,
		task:     task,
		logger:   logger.With().Str("component", name).Logger(),
	}
}

// Serve implements suture.Service.
func (s *PeriodicService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			start := time.Now()
			if err := s.task(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn().Err(err).Msg("Periodic task failed")
				continue
			}
			s.logger.Debug().Dur("duration", time.Since(start)).Msg("Periodic task completed")
		}
	}
}

// String names the service in supervisor logs.
func (s *PeriodicService) String() string {
	return s.name
}
