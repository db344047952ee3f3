// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/placefeed/internal/logging"
)

// AccessLog logs one line per request. Requests slower than slow are logged
// at warn, server errors at error, everything else at debug.
func AccessLog(slow time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)
			elapsed := time.Since(start)

			logger := logging.Ctx(r.Context())
			var event *zerolog.Event
			switch {
			case rec.statusCode >= http.StatusInternalServerError:
				event = logger.Error()
			case slow > 0 && elapsed > slow:
				event = logger.Warn().Bool("slow", true)
			default:
				event = logger.Debug()
			}
			event.
				Str("method", r.Method).
				Str("route", routePattern(r)).
				Str("path", r.URL.Path).
				Int("status", rec.statusCode).
				Int("bytes", rec.bytes).
				Dur("duration", elapsed).
				Msg("HTTP request")
		})
	}
}
