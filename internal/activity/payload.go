// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package activity

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/placefeed/internal/geo"
)

// Payload is the type-specific body of an Activity. The set of
// implementations is closed; see the package documentation.
type Payload interface {
	ActivityType() Type
	validate() error
}

// Place identifies the place a place_* activity refers to.
type Place struct {
	PlaceID     string     `json:"place_id"`
	Name        string     `json:"name"`
	Coordinates *geo.Point `json:"coordinates,omitempty"`
	Categories  []string   `json:"categories,omitempty"`
}

func (p Place) validate() error {
	if p.PlaceID == "" {
		return errors.New("place_id is required")
	}
	if p.Coordinates != nil && !p.Coordinates.Valid() {
		return fmt.Errorf("invalid coordinates %s", p.Coordinates)
	}
	return nil
}

// PlaceAdded is recorded when a user adds a place to the catalogue.
type PlaceAdded struct {
	Place
}

// PlaceVisited is recorded when a user checks in at a place.
type PlaceVisited struct {
	Place
	VisitedAt *time.Time `json:"visited_at,omitempty"`
}

// PlaceReviewed carries a 1..5 rating.
type PlaceReviewed struct {
	Place
	Rating float64 `json:"rating"`
	Text   string  `json:"text,omitempty"`
}

// ListCreated is recorded when a user publishes a curated list.
type ListCreated struct {
	ListID     string   `json:"list_id"`
	Title      string   `json:"title"`
	Categories []string `json:"categories,omitempty"`
	PlaceCount int      `json:"place_count"`
}

// ListPurchased is recorded when a user buys another user's list.
type ListPurchased struct {
	ListID     string `json:"list_id"`
	Title      string `json:"title"`
	SellerID   string `json:"seller_id"`
	PriceCents int64  `json:"price_cents"`
}

// UserFollowed is recorded when a user follows another user.
type UserFollowed struct {
	FollowedUserID   string `json:"followed_user_id"`
	FollowedUsername string `json:"followed_username,omitempty"`
}

func (PlaceAdded) ActivityType() Type    { return TypePlaceAdded }
func (PlaceVisited) ActivityType() Type  { return TypePlaceVisited }
func (PlaceReviewed) ActivityType() Type { return TypePlaceReviewed }
func (ListCreated) ActivityType() Type   { return TypeListCreated }
func (ListPurchased) ActivityType() Type { return TypeListPurchased }
func (UserFollowed) ActivityType() Type  { return TypeUserFollowed }

func (p PlaceAdded) validate() error   { return p.Place.validate() }
func (p PlaceVisited) validate() error { return p.Place.validate() }

func (p PlaceReviewed) validate() error {
	if err := p.Place.validate(); err != nil {
		return err
	}
	if p.Rating < 1 || p.Rating > 5 {
		return fmt.Errorf("rating %.2f outside 1..5", p.Rating)
	}
	return nil
}

func (p ListCreated) validate() error {
	if p.ListID == "" {
		return errors.New("list_id is required")
	}
	return nil
}

func (p ListPurchased) validate() error {
	if p.ListID == "" {
		return errors.New("list_id is required")
	}
	if p.PriceCents < 0 {
		return errors.New("price_cents must not be negative")
	}
	return nil
}

func (p UserFollowed) validate() error {
	if p.FollowedUserID == "" {
		return errors.New("followed_user_id is required")
	}
	return nil
}

// ErrPayloadMismatch is returned when a payload does not belong to the declared type.
var ErrPayloadMismatch = errors.New("payload does not match activity type")

// DecodePayload parses raw JSON into the payload struct selected by t.
func DecodePayload(t Type, raw []byte) (Payload, error) {
	var (
		p   Payload
		err error
	)
	switch t {
	case TypePlaceAdded:
		var v PlaceAdded
		err = json.Unmarshal(raw, &v)
		p = v
	case TypePlaceVisited:
		var v PlaceVisited
		err = json.Unmarshal(raw, &v)
		p = v
	case TypePlaceReviewed:
		var v PlaceReviewed
		err = json.Unmarshal(raw, &v)
		p = v
	case TypeListCreated:
		var v ListCreated
		err = json.Unmarshal(raw, &v)
		p = v
	case TypeListPurchased:
		var v ListPurchased
		err = json.Unmarshal(raw, &v)
		p = v
	case TypeUserFollowed:
		var v UserFollowed
		err = json.Unmarshal(raw, &v)
		p = v
	default:
		return nil, fmt.Errorf("unknown activity type %q", t)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", t, err)
	}
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("invalid %s payload: %w", t, err)
	}
	return p, nil
}

// EncodePayload validates p against t and serializes it for storage.
func EncodePayload(t Type, p Payload) ([]byte, error) {
	if p == nil || p.ActivityType() != t {
		return nil, fmt.Errorf("%w: %s", ErrPayloadMismatch, t)
	}
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("invalid %s payload: %w", t, err)
	}
	return json.Marshal(p)
}
