// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

// Package services adapts long-lived components to suture.Service. Each
// wrapper blocks in Serve until its context is canceled and returns ctx.Err()
// after a clean stop.
package services
