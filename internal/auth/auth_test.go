// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/placefeed/internal/config"
)

const testSecret = "this_is_a_very_long_secret_key_for_testing_purposes_12345"

func newTestManager(t *testing.T) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(&config.SecurityConfig{JWTSecret: testSecret, JWTIssuer: "placefeed"})
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	return m
}

func TestNewJWTManagerRequiresSecret(t *testing.T) {
	if _, err := NewJWTManager(&config.SecurityConfig{}); err == nil {
		t.Error("NewJWTManager() expected error for empty secret")
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	m := newTestManager(t)

	token, err := m.GenerateToken("alice", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.Subject != "alice" {
		t.Errorf("Subject = %q, want alice", claims.Subject)
	}
}

func TestValidateTokenRejects(t *testing.T) {
	m := newTestManager(t)
	other, err := NewJWTManager(&config.SecurityConfig{JWTSecret: strings.Repeat("x", 40), JWTIssuer: "placefeed"})
	if err != nil {
		t.Fatal(err)
	}
	wrongIssuer, err := NewJWTManager(&config.SecurityConfig{JWTSecret: testSecret, JWTIssuer: "someone-else"})
	if err != nil {
		t.Fatal(err)
	}

	expired, _ := m.GenerateToken("alice", -time.Minute)
	foreign, _ := other.GenerateToken("alice", time.Hour)
	issuer, _ := wrongIssuer.GenerateToken("alice", time.Hour)
	noSubject, _ := m.GenerateToken("", time.Hour)
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "alice",
		Issuer:    "placefeed",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := map[string]string{
		"expired":      expired,
		"wrong secret": foreign,
		"wrong issuer": issuer,
		"no subject":   noSubject,
		"alg none":     none,
		"garbage":      "not.a.token",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := m.ValidateToken(token); err == nil {
				t.Error("ValidateToken() expected error")
			}
		})
	}
}

func echoViewer() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := ViewerID(r.Context())
		if !ok {
			id = "anonymous"
		}
		_, _ = w.Write([]byte(id))
	})
}

func TestIdentifyJWT(t *testing.T) {
	m := newTestManager(t)
	mw := NewMiddleware(ModeJWT, m, nil)
	h := mw.Identify(echoViewer())
	token, _ := m.GenerateToken("alice", time.Hour)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid bearer", "Bearer " + token, http.StatusOK, "alice"},
		{"lowercase scheme", "bearer " + token, http.StatusOK, "alice"},
		{"anonymous", "", http.StatusOK, "anonymous"},
		{"bad token", "Bearer nope", http.StatusUnauthorized, ""},
		{"basic scheme", "Basic YWxpY2U6cHc=", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/feed", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestIdentifyModeNoneTrustsHeader(t *testing.T) {
	mw := NewMiddleware(ModeNone, nil, nil)
	h := mw.Identify(echoViewer())

	req := httptest.NewRequest(http.MethodGet, "/feed", nil)
	req.Header.Set(ViewerHeader, " bob ")
	// Bearer tokens are ignored in this mode.
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "bob" {
		t.Errorf("got %d %q, want 200 bob", rec.Code, rec.Body.String())
	}
}

func TestRequire(t *testing.T) {
	mw := NewMiddleware(ModeNone, nil, nil)
	h := mw.Identify(mw.Require(echoViewer()))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/activities/a-1/like", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPut, "/activities/a-1/like", nil)
	req.Header.Set(ViewerHeader, "carol")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("identified status = %d, want 200", rec.Code)
	}
}
