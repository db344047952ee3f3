// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/tomtom215/placefeed/internal/feederr"
	"github.com/tomtom215/placefeed/internal/logging"
)

// Authentication modes.
const (
	ModeJWT  = "jwt"
	ModeNone = "none"
)

// ViewerHeader carries the viewer ID when the mode is none.
const ViewerHeader = "X-Viewer-ID"

// ErrorResponder writes an error response. The API layer supplies its own so
// auth failures use the same envelope as every other error.
type ErrorResponder func(w http.ResponseWriter, r *http.Request, err error)

// ViewerID returns the authenticated viewer of ctx.
func ViewerID(ctx context.Context) (string, bool) {
	id := logging.ViewerIDFromContext(ctx)
	return id, id != ""
}

// Middleware resolves the viewer of each request.
type Middleware struct {
	mode    string
	jwt     *JWTManager
	respond ErrorResponder
}

// NewMiddleware creates the middleware. jwtManager may be nil when mode is none.
func NewMiddleware(mode string, jwtManager *JWTManager, respond ErrorResponder) *Middleware {
	if respond == nil {
		respond = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusUnauthorized)
		}
	}
	return &Middleware{mode: mode, jwt: jwtManager, respond: respond}
}

// Identify stores the viewer ID in the request context when one is
// presented. Anonymous requests pass through; invalid credentials do not.
func (m *Middleware) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viewerID, err := m.viewerID(r)
		if err != nil {
			logging.Ctx(r.Context()).Debug().Err(err).Msg("Rejected credentials")
			m.respond(w, r, err)
			return
		}
		if viewerID != "" {
			r = r.WithContext(logging.ContextWithViewerID(r.Context(), viewerID))
		}
		next.ServeHTTP(w, r)
	})
}

// Require rejects requests without a viewer. Use after Identify.
func (m *Middleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ViewerID(r.Context()); !ok {
			m.respond(w, r, feederr.Unauthenticated("authentication required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) viewerID(r *http.Request) (string, error) {
	if m.mode == ModeNone {
		return strings.TrimSpace(r.Header.Get(ViewerHeader)), nil
	}

	header := r.Header.Get("Authorization")
	if header == "" {
		return "", nil
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", feederr.Unauthenticated("invalid authorization header")
	}
	if m.jwt == nil {
		return "", feederr.Unauthenticated("token authentication is not configured")
	}
	claims, err := m.jwt.ValidateToken(parts[1])
	if err != nil {
		return "", &feederr.Error{Code: feederr.CodeUnauthenticated, Message: "invalid token", Err: err}
	}
	return claims.Subject, nil
}
