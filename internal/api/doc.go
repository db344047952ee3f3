// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

/*
Package api exposes the feed, discovery and interaction operations over HTTP.

Routes (all JSON, wrapped in APIResponse):

	GET    /api/v1/feed                 ranked feed page (stateless, cursor driven)
	GET    /api/v1/discovery            trending places near the viewer
	GET    /api/v1/feed/session         cached session, loads the first page on a miss
	POST   /api/v1/feed/session/more    append the next page to the session
	POST   /api/v1/feed/refresh         replace the session with a fresh first page
	POST   /api/v1/activities/{id}/view mark viewed (202, best-effort)
	PUT    /api/v1/activities/{id}/like like
	DELETE /api/v1/activities/{id}/like unlike
	GET    /api/v1/health/live          liveness
	GET    /api/v1/health/ready         readiness (pings the activity store)
	GET    /metrics                     Prometheus

Feed query parameters: limit, includeGeographic, maxDistance (km), types
(comma separated or repeated), friendsOnly, and either cursor (opaque token
from a previous page) or lastTimestamp (RFC 3339 or Unix microseconds).
Discovery accepts limit and maxDistance.

Errors carry the feederr code, so clients can distinguish retryable
SERVICE_UNAVAILABLE and TIMEOUT from permanent failures.
*/
package api
