// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tomtom215/placefeed/internal/feederr"
)

// closeQuietly closes a resource and ignores the error. Use it in error paths
// where the Close error is not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}

// isConnectionError reports whether err means the database itself is gone
// rather than the query being wrong.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, sql.ErrConnDone) {
		return true
	}
	msg := err.Error()
	for _, s := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"bad connection",
		"database is closed",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// isConstraintError reports whether err is a DuckDB constraint violation.
func isConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Constraint Error") || strings.Contains(msg, "constraint")
}

// classify turns a driver error into a feed error. Context errors and
// connection loss are retryable; anything else is internal.
func classify(err error, op string) error {
	if err == nil {
		return nil
	}
	var fe *feederr.Error
	if errors.As(err, &fe) {
		return err
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return feederr.Timeout(err, "%s timed out", op)
	case errors.Is(err, context.Canceled), isConnectionError(err):
		return feederr.Unavailable(err, "%s failed", op)
	default:
		return feederr.Internal(fmt.Errorf("%s: %w", op, err), "%s failed", op)
	}
}
