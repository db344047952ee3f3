// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package activity

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// Cursor is a keyset position in (CreatedAt desc, ID desc) order. An empty ID
// means "strictly older than CreatedAt", which is what a bare lastTimestamp
// from a client resolves to.
type Cursor struct {
	CreatedAt time.Time `json:"t"`
	ID        string    `json:"id,omitempty"`
}

// ErrInvalidCursor is returned for cursors that cannot be decoded.
var ErrInvalidCursor = errors.New("invalid cursor")

// IsZero reports whether c is unset.
func (c Cursor) IsZero() bool {
	return c.CreatedAt.IsZero() && c.ID == ""
}

// After reports whether an activity at position (createdAt, id) comes strictly
// after c in descending order, i.e. belongs on a later page.
func (c Cursor) After(createdAt time.Time, id string) bool {
	if createdAt.Before(c.CreatedAt) {
		return true
	}
	if createdAt.Equal(c.CreatedAt) && c.ID != "" {
		return id < c.ID
	}
	return false
}

// Encode returns the opaque base64url token handed to clients.
func (c Cursor) Encode() string {
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeCursor parses a token produced by Encode.
func DecodeCursor(token string) (Cursor, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if c.CreatedAt.IsZero() {
		return Cursor{}, fmt.Errorf("%w: missing timestamp", ErrInvalidCursor)
	}
	c.CreatedAt = TruncateTime(c.CreatedAt)
	return c, nil
}

// ParseTimestamp accepts a lastTimestamp value as RFC 3339 (any precision) or
// integer Unix microseconds.
func ParseTimestamp(s string) (Cursor, error) {
	if us, err := strconv.ParseInt(s, 10, 64); err == nil {
		if us <= 0 {
			return Cursor{}, fmt.Errorf("%w: non-positive timestamp", ErrInvalidCursor)
		}
		return Cursor{CreatedAt: TruncateTime(time.UnixMicro(us))}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	return Cursor{CreatedAt: TruncateTime(t)}, nil
}
