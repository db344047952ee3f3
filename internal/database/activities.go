// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/placefeed/internal/activity"
	"github.com/tomtom215/placefeed/internal/feederr"
)

const activityColumns = `id, author_id, type, payload, visibility, created_at`

// buildActivityQuery renders q as SQL with positional arguments.
func buildActivityQuery(q activity.Query) (string, []any) {
	var (
		where []string
		args  []any
	)
	if q.Visibility != "" {
		where = append(where, "visibility = ?")
		args = append(args, string(q.Visibility))
	}
	if len(q.Types) > 0 {
		ph := make([]string, len(q.Types))
		for i, t := range q.Types {
			ph[i] = "?"
			args = append(args, string(t))
		}
		where = append(where, "type IN ("+strings.Join(ph, ", ")+")")
	}
	if !q.Before.IsZero() {
		if q.Before.ID == "" {
			where = append(where, "created_at < ?")
			args = append(args, q.Before.CreatedAt.UTC())
		} else {
			where = append(where, "(created_at < ? OR (created_at = ? AND id < ?))")
			args = append(args, q.Before.CreatedAt.UTC(), q.Before.CreatedAt.UTC(), q.Before.ID)
		}
	}
	if !q.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, q.Since.UTC())
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(activityColumns)
	b.WriteString(" FROM activities")
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY created_at DESC, id DESC")
	if q.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, q.Limit)
	}
	return b.String(), args
}

// QueryActivities implements activity.Store.
func (db *DB) QueryActivities(ctx context.Context, q activity.Query) ([]activity.Activity, error) {
	query, args := buildActivityQuery(q)
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err, "query activities")
	}
	defer rows.Close()

	out := make([]activity.Activity, 0, q.Limit)
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "query activities")
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanActivity(s scanner) (activity.Activity, error) {
	var (
		a         activity.Activity
		typ, vis  string
		payload   string
		createdAt time.Time
	)
	if err := s.Scan(&a.ID, &a.AuthorID, &typ, &payload, &vis, &createdAt); err != nil {
		return a, classify(err, "scan activity")
	}
	a.Type = activity.Type(typ)
	a.Visibility = activity.Visibility(vis)
	a.CreatedAt = activity.TruncateTime(createdAt)

	p, err := activity.DecodePayload(a.Type, []byte(payload))
	if err != nil {
		return a, feederr.Internal(err, "activity %s has an undecodable payload", a.ID)
	}
	a.Payload = p
	return a, nil
}

// GetActivity returns one activity by id.
func (db *DB) GetActivity(ctx context.Context, id string) (*activity.Activity, error) {
	row := db.conn.QueryRowContext(ctx, "SELECT "+activityColumns+" FROM activities WHERE id = ?", id)
	a, err := scanActivity(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, feederr.NotFound("activity %q not found", id)
		}
		return nil, err
	}
	return &a, nil
}

// AppendActivity validates and stores a. A missing ID is generated, a zero
// CreatedAt becomes now and an empty Visibility becomes public. It returns
// the stored activity.
func (db *DB) AppendActivity(ctx context.Context, a activity.Activity) (activity.Activity, error) {
	if a.AuthorID == "" {
		return a, feederr.InvalidArgument("author_id is required")
	}
	if !a.Type.Valid() {
		return a, feederr.InvalidArgument("unknown activity type %q", a.Type)
	}
	if a.Visibility == "" {
		a.Visibility = activity.VisibilityPublic
	}
	if !a.Visibility.Valid() {
		return a, feederr.InvalidArgument("unknown visibility %q", a.Visibility)
	}
	payload, err := activity.EncodePayload(a.Type, a.Payload)
	if err != nil {
		return a, feederr.InvalidArgument("invalid payload: %v", err)
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = db.now()
	}
	a.CreatedAt = activity.TruncateTime(a.CreatedAt)

	var placeID sql.NullString
	if p, ok := a.Place(); ok {
		placeID = sql.NullString{String: p.PlaceID, Valid: true}
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO activities (id, author_id, type, payload, visibility, created_at, place_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.AuthorID, string(a.Type), string(payload), string(a.Visibility), a.CreatedAt, placeID)
	if err != nil {
		if isConstraintError(err) {
			return a, feederr.InvalidArgument("activity %q already exists", a.ID)
		}
		return a, classify(err, "append activity")
	}
	return a, nil
}

// SetVisibility changes an activity's visibility. It is the only mutation
// allowed on a stored activity.
func (db *DB) SetVisibility(ctx context.Context, id string, v activity.Visibility) error {
	if !v.Valid() {
		return feederr.InvalidArgument("unknown visibility %q", v)
	}
	res, err := db.conn.ExecContext(ctx, `UPDATE activities SET visibility = ? WHERE id = ?`, string(v), id)
	if err != nil {
		return classify(err, "set visibility")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify(err, "set visibility")
	}
	if n == 0 {
		return feederr.NotFound("activity %q not found", id)
	}
	return nil
}

// CountActivities returns the number of stored activities.
func (db *DB) CountActivities(ctx context.Context) (int64, error) {
	var n int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM activities`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count activities: %w", err)
	}
	return n, nil
}
