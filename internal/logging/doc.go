// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

// Package logging provides the zerolog-based logger shared by every Placefeed component.
//
// A single global logger is configured once from main via Init. Components derive
// child loggers with a "component" field:
//
//	log := logging.WithComponent("ranking")
//	log.Debug().Str("viewer_id", id).Msg("Scoring candidates")
//
// Request-scoped fields (request_id, viewer_id) travel in the context and are
// attached by Ctx:
//
//	logging.Ctx(ctx).Warn().Err(err).Msg("Feed refresh fell back to cached page")
//
// Two adapters bridge libraries that expect other logger interfaces:
//
//   - SlogHandler implements slog.Handler for sutureslog (supervisor events).
//   - WatermillAdapter implements watermill.LoggerAdapter for the event publisher.
//
// # Configuration
//
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: include caller file:line (default: false)
package logging
