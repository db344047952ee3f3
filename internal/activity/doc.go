// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

// Package activity defines the activity record, its typed payload variants, the
// keyset pagination cursor, and the store interfaces that the ranking and
// discovery engines consume.
//
// # Payloads
//
// An Activity's Type selects exactly one Payload implementation:
//
//	place_added     -> PlaceAdded
//	place_visited   -> PlaceVisited
//	place_reviewed  -> PlaceReviewed
//	list_created    -> ListCreated
//	list_purchased  -> ListPurchased
//	user_followed   -> UserFollowed
//
// Payloads are decoded once at the store boundary by DecodePayload. Downstream
// code switches on the concrete type or uses the accessor helpers (Place,
// Categories, Coordinates) and never inspects raw JSON.
//
// # Cursors
//
// Activities are ordered by (CreatedAt desc, ID desc). A Cursor names a position
// in that order; a query with Before set returns only activities strictly after
// the position, so chained pages never overlap.
package activity
