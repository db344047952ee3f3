// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package services

import (
	"context"
	"fmt"
	"io"
)

// CloserService owns a resource that needs no loop of its own, such as the
// event publisher, and closes it when the supervisor shuts down.
type CloserService struct {
	name   string
	closer io.Closer
}

// NewCloserService wraps closer.
func NewCloserService(name string, closer io.Closer) *CloserService {
	return &CloserService{name: name, closer: closer}
}

// Serve blocks until ctx is canceled, then closes the resource. Close must be
// idempotent because suture may call Serve again after a restart.
func (s *CloserService) Serve(ctx context.Context) error {
	<-ctx.Done()
	if err := s.closer.Close(); err != nil {
		return fmt.Errorf("%s close failed: %w", s.name, err)
	}
	return ctx.Err()
}

// String names the service in supervisor logs.
func (s *CloserService) String() string {
	return s.name
}
