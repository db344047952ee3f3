// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

/*
Package database is the DuckDB adapter for the activity, social graph, profile
and region stores.

# Tables

  - activities: append-only activity log. payload holds the type-specific JSON
    document; place_id is denormalized from it for trending queries.
  - follows: directed follow edges, unique per ordered pair, self-edges rejected.
  - profiles: preference categories (JSON array) and last known location.
  - activity_likes: one row per (activity, user).
  - regions: named circles used to label a coordinate.
  - schema_migrations: applied versioned migrations.

# Keyset Paging

QueryActivities orders by (created_at DESC, id DESC) and resumes strictly after
a cursor with

	created_at < ? OR (created_at = ? AND id < ?)

so pages never overlap or skip rows with equal timestamps. A cursor without an
id resumes strictly before its timestamp.

# Timestamps

All timestamps are stored as TIMESTAMP in UTC with microsecond precision,
matching activity.TruncateTime.

# Usage

	db, err := database.New(&cfg.Database)
	if err != nil {
	    return err
	}
	defer db.Close()

	acts, err := db.QueryActivities(ctx, activity.Query{Visibility: activity.VisibilityPublic, Limit: 60})
*/
package database
