// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/placefeed/internal/feederr"
	"github.com/tomtom215/placefeed/internal/logging"
)

// APIResponse is the envelope for every response.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    APIMeta     `json:"meta"`
}

// APIError describes a failed request.
type APIError struct {
	// Code is a feederr code, for example NOT_FOUND or SERVICE_UNAVAILABLE.
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	Retryable bool        `json:"retryable,omitempty"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func respondJSON(w http.ResponseWriter, status int, response *APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func meta(r *http.Request) APIMeta {
	return APIMeta{
		RequestID: logging.RequestIDFromContext(r.Context()),
		Timestamp: time.Now().UTC(),
	}
}

func respondData(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	respondJSON(w, status, &APIResponse{Success: true, Data: data, Meta: meta(r)})
}

// respondError translates err into an APIError. Errors that are not
// *feederr.Error are reported as INTERNAL without leaking their text.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	respondErrorDetails(w, r, err, nil)
}

func respondErrorDetails(w http.ResponseWriter, r *http.Request, err error, details interface{}) {
	var fe *feederr.Error
	if !errors.As(err, &fe) {
		fe = feederr.Internal(err, "internal error")
	}

	status := fe.HTTPStatus()
	logger := logging.Ctx(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("code", string(fe.Code)).Msg("API error")
	} else {
		logger.Debug().Err(err).Str("code", string(fe.Code)).Msg("API request rejected")
	}

	message := fe.Message
	if message == "" {
		message = http.StatusText(status)
	}
	respondJSON(w, status, &APIResponse{
		Success: false,
		Error: &APIError{
			Code:      string(fe.Code),
			Message:   message,
			Details:   details,
			Retryable: fe.Retryable(),
		},
		Meta: meta(r),
	})
}
