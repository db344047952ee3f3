// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tomtom215/placefeed/internal/activity"
	"github.com/tomtom215/placefeed/internal/feederr"
)

// likeable returns NotFound unless the activity exists and is public.
func (db *DB) likeable(ctx context.Context, activityID string) error {
	var vis string
	err := db.conn.QueryRowContext(ctx, `SELECT visibility FROM activities WHERE id = ?`, activityID).Scan(&vis)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return feederr.NotFound("activity %q not found", activityID)
		}
		return classify(err, "load activity")
	}
	if activity.Visibility(vis) != activity.VisibilityPublic {
		return feederr.NotFound("activity %q not found", activityID)
	}
	return nil
}

// Like records that userID likes activityID. Liking twice is a no-op.
func (db *DB) Like(ctx context.Context, activityID, userID string) error {
	if err := db.likeable(ctx, activityID); err != nil {
		return err
	}
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO activity_likes (activity_id, user_id, created_at) VALUES (?, ?, ?)
		 ON CONFLICT (activity_id, user_id) DO NOTHING`,
		activityID, userID, activity.TruncateTime(db.now()))
	if err != nil {
		return classify(err, "like activity")
	}
	return nil
}

// Unlike removes userID's like. Unliking something not liked is a no-op.
func (db *DB) Unlike(ctx context.Context, activityID, userID string) error {
	if err := db.likeable(ctx, activityID); err != nil {
		return err
	}
	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM activity_likes WHERE activity_id = ? AND user_id = ?`,
		activityID, userID)
	if err != nil {
		return classify(err, "unlike activity")
	}
	return nil
}

// LikeCount returns how many users like activityID.
func (db *DB) LikeCount(ctx context.Context, activityID string) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM activity_likes WHERE activity_id = ?`, activityID).Scan(&n)
	if err != nil {
		return 0, classify(err, "count likes")
	}
	return n, nil
}
