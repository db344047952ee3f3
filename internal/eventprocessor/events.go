// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package eventprocessor

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is the current event schema version.
const SchemaVersion = 1

// EventType names an interaction event. It doubles as the topic suffix.
type EventType string

const (
	EventActivityViewed  EventType = "activity.viewed"
	EventActivityLiked   EventType = "activity.liked"
	EventActivityUnliked EventType = "activity.unliked"
	EventFeedRefreshed   EventType = "feed.refreshed"
)

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	switch t {
	case EventActivityViewed, EventActivityLiked, EventActivityUnliked, EventFeedRefreshed:
		return true
	}
	return false
}

// Event is the envelope carried on every topic.
type Event struct {
	SchemaVersion int       `json:"schema_version"`
	EventID       string    `json:"event_id"`
	Type          EventType `json:"type"`
	ViewerID      string    `json:"viewer_id"`
	ActivityID    string    `json:"activity_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// NewEvent creates an event with a fresh ID.
func NewEvent(t EventType, viewerID, activityID string, at time.Time) *Event {
	return &Event{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		Type:          t,
		ViewerID:      viewerID,
		ActivityID:    activityID,
		OccurredAt:    at.UTC(),
	}
}

// Validate checks the fields every consumer relies on.
func (e *Event) Validate() error {
	if e.EventID == "" {
		return fmt.Errorf("%w: event_id is required", ErrInvalidEvent)
	}
	if !e.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, e.Type)
	}
	if e.ViewerID == "" {
		return fmt.Errorf("%w: viewer_id is required", ErrInvalidEvent)
	}
	if e.Type != EventFeedRefreshed && e.ActivityID == "" {
		return fmt.Errorf("%w: activity_id is required for %s", ErrInvalidEvent, e.Type)
	}
	return nil
}

// Topic returns the full topic for t under prefix.
func Topic(prefix string, t EventType) string {
	if prefix == "" {
		return string(t)
	}
	return prefix + "." + string(t)
}
