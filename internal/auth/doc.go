// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

/*
Package auth identifies the viewer behind each HTTP request.

Token issuance lives elsewhere; this package only verifies. Two modes are
supported (configured via AUTH_MODE):

 1. jwt (default): an HS256 bearer token in the Authorization header. The
    token subject is the viewer ID. Issuer is checked when configured.
 2. none: the X-Viewer-ID header is trusted as-is. Intended for local
    development and tests only.

The middleware never rejects anonymous requests on its own. It stores the
viewer ID (if any) in the request context and leaves the decision to the
handler, because some routes (discovery) serve anonymous viewers while others
(the personalized feed) do not. A token that is present but invalid is always
rejected with UNAUTHENTICATED.

Usage:

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	mw := auth.NewMiddleware(cfg.Security.AuthMode, jwtManager, respondError)
	r.Use(mw.Identify)

	viewerID, ok := auth.ViewerID(r.Context())
*/
package auth
