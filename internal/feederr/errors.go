// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

// Package feederr defines the typed errors returned by the feed and discovery
// engines. Every error carries a machine-readable Code and a human message, and
// optionally wraps the underlying cause.
package feederr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable error classification.
type Code string

const (
	CodeInvalidArgument    Code = "INVALID_ARGUMENT"
	CodeNotFound           Code = "NOT_FOUND"
	CodeUnauthenticated    Code = "UNAUTHENTICATED"
	CodePermissionDenied   Code = "PERMISSION_DENIED"
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"
	CodeTimeout            Code = "TIMEOUT"
	CodeInternal           Code = "INTERNAL"
)

// Error is the concrete error type. Compare with errors.Is against the
// sentinel values below, or use CodeOf.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same Code, so errors.Is(err, feederr.ErrNotFound)
// works regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Retryable reports whether the caller may retry the same request.
func (e *Error) Retryable() bool {
	return e.Code == CodeServiceUnavailable || e.Code == CodeTimeout
}

// HTTPStatus maps the code to a response status.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodePermissionDenied:
		return http.StatusForbidden
	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Sentinels for errors.Is comparisons.
var (
	ErrInvalidArgument    = &Error{Code: CodeInvalidArgument}
	ErrNotFound           = &Error{Code: CodeNotFound}
	ErrUnauthenticated    = &Error{Code: CodeUnauthenticated}
	ErrPermissionDenied   = &Error{Code: CodePermissionDenied}
	ErrServiceUnavailable = &Error{Code: CodeServiceUnavailable}
	ErrTimeout            = &Error{Code: CodeTimeout}
)

func newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// InvalidArgument reports a bad filter or request value.
func InvalidArgument(format string, args ...any) *Error {
	return newf(CodeInvalidArgument, format, args...)
}

// NotFound reports a missing viewer profile or activity.
func NotFound(format string, args ...any) *Error {
	return newf(CodeNotFound, format, args...)
}

// Unauthenticated reports a missing or invalid session.
func Unauthenticated(format string, args ...any) *Error {
	return newf(CodeUnauthenticated, format, args...)
}

// PermissionDenied reports an authenticated caller lacking access.
func PermissionDenied(format string, args ...any) *Error {
	return newf(CodePermissionDenied, format, args...)
}

// Unavailable wraps a store or dependency failure.
func Unavailable(err error, format string, args ...any) *Error {
	e := newf(CodeServiceUnavailable, format, args...)
	e.Err = err
	return e
}

// Timeout wraps a deadline overrun.
func Timeout(err error, format string, args ...any) *Error {
	e := newf(CodeTimeout, format, args...)
	e.Err = err
	return e
}

// Internal wraps an unexpected failure.
func Internal(err error, format string, args ...any) *Error {
	e := newf(CodeInternal, format, args...)
	e.Err = err
	return e
}

// CodeOf returns the Code of err, or CodeInternal when err is not an *Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// IsRetryable reports whether err is a retryable *Error.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable()
}

// FromContext classifies a store error. Typed errors pass through, context
// deadline overruns become Timeout, and anything else becomes ServiceUnavailable.
func FromContext(err error, op string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout(err, "%s timed out", op)
	}
	return Unavailable(err, "%s failed", op)
}
