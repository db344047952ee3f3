// Placefeed - Feed Ranking and Place Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/placefeed

package ranking

import (
	"fmt"
	"time"
)

// Weights are the additive score components.
type Weights struct {
	Base      int `json:"base"`
	Follow    int `json:"follow"`
	Category  int `json:"category"`
	Proximity int `json:"proximity"`
}

// Config tunes the engine.
type Config struct {
	DefaultLimit int `json:"default_limit"`
	MaxLimit     int `json:"max_limit"`

	// OverfetchFactor multiplies limit to size each candidate batch.
	OverfetchFactor int `json:"overfetch_factor"`

	// MaxScanBatches bounds how many batches one page may read before it is
	// returned short with HasMore set.
	MaxScanBatches int `json:"max_scan_batches"`

	DefaultMaxDistanceKm     float64 `json:"default_max_distance_km"`
	DefaultIncludeGeographic bool    `json:"default_include_geographic"`

	// FetchTimeout bounds one GetUserFeed call including every store read.
	FetchTimeout time.Duration `json:"fetch_timeout"`

	// ViewerContextTTL caches profile and following set per viewer. Zero disables.
	ViewerContextTTL time.Duration `json:"viewer_context_ttl"`

	Weights Weights `json:"weights"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() *Config {
	return &Config{
		DefaultLimit:             20,
		MaxLimit:                 100,
		OverfetchFactor:          3,
		MaxScanBatches:           5,
		DefaultMaxDistanceKm:     50,
		DefaultIncludeGeographic: true,
		FetchTimeout:             10 * time.Second,
		ViewerContextTTL:         30 * time.Second,
		Weights: Weights{
			Base:      5,
			Follow:    3,
			Category:  2,
			Proximity: 1,
		},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.MaxLimit < 1 {
		return fmt.Errorf("max_limit must be positive, got %d", c.MaxLimit)
	}
	if c.DefaultLimit < 1 || c.DefaultLimit > c.MaxLimit {
		return fmt.Errorf("default_limit must be in [1, %d], got %d", c.MaxLimit, c.DefaultLimit)
	}
	if c.OverfetchFactor < 1 {
		return fmt.Errorf("overfetch_factor must be at least 1, got %d", c.OverfetchFactor)
	}
	if c.MaxScanBatches < 1 {
		return fmt.Errorf("max_scan_batches must be at least 1, got %d", c.MaxScanBatches)
	}
	if c.DefaultMaxDistanceKm <= 0 {
		return fmt.Errorf("default_max_distance_km must be positive, got %f", c.DefaultMaxDistanceKm)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch_timeout must be positive, got %v", c.FetchTimeout)
	}
	if c.ViewerContextTTL < 0 {
		return fmt.Errorf("viewer_context_ttl must not be negative, got %v", c.ViewerContextTTL)
	}
	w := c.Weights
	if w.Base < 0 || w.Follow < 0 || w.Category < 0 || w.Proximity < 0 {
		return fmt.Errorf("weights must not be negative: %+v", w)
	}
	return nil
}

// Clone returns a copy of c.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
