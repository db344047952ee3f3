// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package database

import (
	"context"

	"github.com/tomtom215/placefeed/internal/feederr"
	"github.com/tomtom215/placefeed/internal/geo"
)

// Region is a named circle in the gazetteer.
type Region struct {
	Name     string    `json:"name"`
	Center   geo.Point `json:"center"`
	RadiusKm float64   `json:"radius_km"`
}

// UpsertRegion adds or replaces a region.
func (db *DB) UpsertRegion(ctx context.Context, r Region) error {
	if r.Name == "" || r.RadiusKm <= 0 || !r.Center.Valid() {
		return feederr.InvalidArgument("region needs a name, a valid center and a positive radius")
	}
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO regions (name, lat, lon, radius_km) VALUES (?, ?, ?, ?)
		 ON CONFLICT (name) DO UPDATE SET lat = excluded.lat, lon = excluded.lon, radius_km = excluded.radius_km`,
		r.Name, r.Center.Lat, r.Center.Lon, r.RadiusKm)
	if err != nil {
		return classify(err, "upsert region")
	}
	return nil
}

// ResolveRegion implements activity.RegionResolver. It returns the name of
// the nearest region whose radius contains p, or "" when none does.
func (db *DB) ResolveRegion(ctx context.Context, p geo.Point) (string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT name, lat, lon, radius_km FROM regions`)
	if err != nil {
		return "", classify(err, "load regions")
	}
	defer rows.Close()

	best := ""
	bestKm := 0.0
	for rows.Next() {
		var r Region
		if err := rows.Scan(&r.Name, &r.Center.Lat, &r.Center.Lon, &r.RadiusKm); err != nil {
			return "", classify(err, "scan region")
		}
		d := geo.HaversineKm(p, r.Center)
		if d > r.RadiusKm {
			continue
		}
		if best == "" || d < bestKm || (d == bestKm && r.Name < best) {
			best, bestKm = r.Name, d
		}
	}
	if err := rows.Err(); err != nil {
		return "", classify(err, "load regions")
	}
	return best, nil
}
