// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package database

import (
	"context"

	"github.com/tomtom215/placefeed/internal/activity"
	"github.com/tomtom215/placefeed/internal/feederr"
)

// Following implements activity.GraphStore.
func (db *DB) Following(ctx context.Context, userID string) (activity.FollowSet, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT followee_id FROM follows WHERE follower_id = ? AND status = ?`,
		userID, string(activity.FollowActive))
	if err != nil {
		return nil, classify(err, "load following")
	}
	defer rows.Close()

	set := activity.NewFollowSet()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, classify(err, "scan following")
		}
		set[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "load following")
	}
	return set, nil
}

// Follow records follower -> followee. Following twice is a no-op.
func (db *DB) Follow(ctx context.Context, followerID, followeeID string) error {
	if followerID == "" || followeeID == "" {
		return feederr.InvalidArgument("follower and followee are required")
	}
	if followerID == followeeID {
		return feederr.InvalidArgument("users cannot follow themselves")
	}
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO follows (follower_id, followee_id, status, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (follower_id, followee_id) DO NOTHING`,
		followerID, followeeID, string(activity.FollowActive), activity.TruncateTime(db.now()))
	if err != nil {
		return classify(err, "follow")
	}
	return nil
}

// Unfollow removes follower -> followee. Removing a missing edge is a no-op.
func (db *DB) Unfollow(ctx context.Context, followerID, followeeID string) error {
	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id = ? AND followee_id = ?`,
		followerID, followeeID)
	if err != nil {
		return classify(err, "unfollow")
	}
	return nil
}

// FollowEdges returns every edge out of followerID, oldest first.
func (db *DB) FollowEdges(ctx context.Context, followerID string) ([]activity.FollowEdge, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT follower_id, followee_id, status, created_at FROM follows
		 WHERE follower_id = ? ORDER BY created_at, followee_id`,
		followerID)
	if err != nil {
		return nil, classify(err, "load follow edges")
	}
	defer rows.Close()

	var edges []activity.FollowEdge
	for rows.Next() {
		var (
			e      activity.FollowEdge
			status string
		)
		if err := rows.Scan(&e.FollowerID, &e.FolloweeID, &status, &e.CreatedAt); err != nil {
			return nil, classify(err, "scan follow edge")
		}
		e.Status = activity.FollowStatus(status)
		e.CreatedAt = activity.TruncateTime(e.CreatedAt)
		edges = append(edges, e)
	}
	return edges, classify(rows.Err(), "load follow edges")
}
