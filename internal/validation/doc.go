// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

// Package validation wraps go-playground/validator with a process-wide
// singleton, the custom "activity_type" rule, and translation of field errors
// into feederr.InvalidArgument values.
//
//	type discoveryRequest struct {
//	    Limit         int     `query:"limit" validate:"min=1,max=100"`
//	    MaxDistanceKm float64 `query:"maxDistance" validate:"gt=0,lte=20000"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    return verr.AsFeedError()
//	}
//
// Field names in messages come from the `query` tag, then `koanf`, then `json`,
// so users see the parameter name they actually sent.
package validation
