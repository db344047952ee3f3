// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

// Package main runs the Placefeed HTTP server.
//
// # Startup Order
//
//  1. Configuration (koanf: defaults, YAML file, environment)
//  2. Logging (zerolog)
//  3. DuckDB activity store, wrapped in per-store circuit breakers
//  4. Ranking and discovery engines
//  5. Event publisher (in-process GoChannel, or NATS JetStream when NATS_URL is set)
//  6. Feed cache and pagination sessions
//  7. Badger view log and the interactions service
//  8. HTTP router and server
//  9. Supervisor tree, which runs every long-lived service
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the root context. The supervisor stops the HTTP
// server with a graceful Shutdown, drains queued viewed marks,
// and closes the publisher. The view log and database close after the tree
// has stopped.
//
// # Example
//
//	export AUTH_MODE=none
//	export DUCKDB_PATH=/data/placefeed.duckdb
//	./placefeed
package main
