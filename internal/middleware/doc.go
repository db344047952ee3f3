// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

// Package middleware provides HTTP middleware shared by the API router:
// request IDs, Prometheus instrumentation and access logging.
//
// All middleware use the func(http.Handler) http.Handler shape so they can be
// mounted with chi's Router.Use. Metrics are labeled by chi route pattern,
// not raw path, so activity IDs in URLs do not explode label cardinality.
package middleware
