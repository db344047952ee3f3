// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core tables.
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

var tableCreationQueries = []string{
	`CREATE TABLE IF NOT EXISTS activities (
		id TEXT PRIMARY KEY,
		author_id TEXT NOT NULL,
		type TEXT NOT NULL,
		payload TEXT NOT NULL,
		visibility TEXT NOT NULL DEFAULT 'public',
		created_at TIMESTAMP NOT NULL,
		place_id TEXT,
		CHECK (visibility IN ('public', 'private'))
	)`,

	`CREATE TABLE IF NOT EXISTS follows (
		follower_id TEXT NOT NULL,
		followee_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		created_at TIMESTAMP NOT NULL,
		PRIMARY KEY (follower_id, followee_id),
		CHECK (follower_id <> followee_id)
	)`,

	`CREATE TABLE IF NOT EXISTS profiles (
		user_id TEXT PRIMARY KEY,
		categories TEXT NOT NULL DEFAULT '[]',
		last_lat DOUBLE,
		last_lon DOUBLE,
		updated_at TIMESTAMP NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS activity_likes (
		activity_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		PRIMARY KEY (activity_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS regions (
		name TEXT PRIMARY KEY,
		lat DOUBLE NOT NULL,
		lon DOUBLE NOT NULL,
		radius_km DOUBLE NOT NULL,
		CHECK (radius_km > 0)
	)`,
}

// createIndexes creates secondary indexes for the keyset and trending scans.
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_activities_keyset ON activities(created_at, id)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_type_vis ON activities(type, visibility, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_author ON activities(author_id)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_place ON activities(place_id)`,
		`CREATE INDEX IF NOT EXISTS idx_follows_followee ON follows(followee_id)`,
	}
	for _, idx := range indexes {
		if _, err := db.conn.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", idx, err)
		}
	}
	return nil
}
