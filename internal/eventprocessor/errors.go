// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package eventprocessor

import "errors"

// ErrPublisherClosed is returned by Publish after Close.
var ErrPublisherClosed = errors.New("publisher is closed")

// ErrInvalidEvent wraps event validation failures.
var ErrInvalidEvent = errors.New("invalid event")

// ErrSubscribeUnsupported is returned by Subscribe on the NATS transport.
var ErrSubscribeUnsupported = errors.New("subscribe is only available on the in-process transport")
