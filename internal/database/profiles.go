// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/placefeed/internal/activity"
	"github.com/tomtom215/placefeed/internal/feederr"
	"github.com/tomtom215/placefeed/internal/geo"
)

// Profile implements activity.ProfileStore. A missing profile is NotFound.
func (db *DB) Profile(ctx context.Context, userID string) (*activity.Profile, error) {
	var (
		p          activity.Profile
		categories string
		lat, lon   sql.NullFloat64
		updatedAt  time.Time
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT user_id, categories, last_lat, last_lon, updated_at FROM profiles WHERE user_id = ?`,
		userID).Scan(&p.UserID, &categories, &lat, &lon, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, feederr.NotFound("no profile for user %q", userID)
		}
		return nil, classify(err, "load profile")
	}

	if err := json.Unmarshal([]byte(categories), &p.Categories); err != nil {
		return nil, feederr.Internal(err, "profile %s has malformed categories", userID)
	}
	if lat.Valid && lon.Valid {
		p.LastLocation = &geo.Point{Lat: lat.Float64, Lon: lon.Float64}
	}
	p.UpdatedAt = activity.TruncateTime(updatedAt)
	return &p, nil
}

// UpsertProfile creates or replaces a profile. UpdatedAt is set to now.
func (db *DB) UpsertProfile(ctx context.Context, p activity.Profile) error {
	if p.UserID == "" {
		return feederr.InvalidArgument("user_id is required")
	}
	if p.LastLocation != nil && !p.LastLocation.Valid() {
		return feederr.InvalidArgument("invalid location %s", p.LastLocation)
	}
	if p.Categories == nil {
		p.Categories = []string{}
	}
	categories, err := json.Marshal(p.Categories)
	if err != nil {
		return feederr.InvalidArgument("invalid categories: %v", err)
	}

	var lat, lon sql.NullFloat64
	if p.LastLocation != nil {
		lat = sql.NullFloat64{Float64: p.LastLocation.Lat, Valid: true}
		lon = sql.NullFloat64{Float64: p.LastLocation.Lon, Valid: true}
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO profiles (user_id, categories, last_lat, last_lon, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
			categories = excluded.categories,
			last_lat = excluded.last_lat,
			last_lon = excluded.last_lon,
			updated_at = excluded.updated_at`,
		p.UserID, string(categories), lat, lon, activity.TruncateTime(db.now()))
	if err != nil {
		return classify(err, "upsert profile")
	}
	return nil
}
