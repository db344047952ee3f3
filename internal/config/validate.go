// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package config

import (
	"errors"
	"fmt"

	"github.com/tomtom215/placefeed/internal/validation"
)

// minJWTSecretLength is the HS256 key size floor.
const minJWTSecretLength = 32

// Validate applies struct rules and the cross-field checks the tags cannot express.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}

	if c.Feed.DefaultLimit > c.Feed.MaxLimit {
		return fmt.Errorf("feed.default_limit (%d) exceeds feed.max_limit (%d)", c.Feed.DefaultLimit, c.Feed.MaxLimit)
	}
	if c.Discovery.DefaultLimit > c.Discovery.MaxLimit {
		return fmt.Errorf("discovery.default_limit (%d) exceeds discovery.max_limit (%d)",
			c.Discovery.DefaultLimit, c.Discovery.MaxLimit)
	}
	if c.Feed.Weights.Base+c.Feed.Weights.Follow+c.Feed.Weights.Category+c.Feed.Weights.Proximity == 0 {
		return errors.New("feed.weights must not all be zero")
	}
	if c.Security.AuthMode == "jwt" && len(c.Security.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters when AUTH_MODE=jwt", minJWTSecretLength)
	}
	return nil
}
