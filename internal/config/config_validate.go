// Tracks Explorer - Small-Scale Fisheries Vessel Tracking Portal
// Copyright 2026 WorldFish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/WorldFishCenter/tracks-explorer-sub001

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for required fields and malformed values.
// The pelagic provider is the system's reason to exist, so its settings are
// hard requirements; fleet credentials are optional (live-location queries
// fail fast at call time when they are missing).
func (c *Config) Validate() error {
	var errs []string

	if c.Pelagic.URL == "" {
		errs = append(errs, "pelagic.url is required (PELAGIC_URL)")
	} else if err := validateURL(c.Pelagic.URL); err != nil {
		errs = append(errs, fmt.Sprintf("pelagic.url: %v", err))
	}
	if c.Pelagic.APISecret == "" {
		errs = append(errs, "pelagic.api_secret is required (PELAGIC_API_SECRET)")
	}
	if c.Pelagic.Timeout <= 0 {
		errs = append(errs, "pelagic.timeout must be positive")
	}
	if c.Pelagic.SpeedUnitThreshold < 0 {
		errs = append(errs, "pelagic.speed_unit_threshold must be non-negative")
	}

	if c.Snapshot.Enabled && c.Snapshot.URL != "" {
		if err := validateURL(c.Snapshot.URL); err != nil {
			errs = append(errs, fmt.Sprintf("snapshot.url: %v", err))
		}
	}

	if c.Fleet.URL != "" {
		if err := validateURL(c.Fleet.URL); err != nil {
			errs = append(errs, fmt.Sprintf("fleet.url: %v", err))
		}
	}

	if c.Cache.Capacity <= 0 {
		errs = append(errs, "cache.capacity must be positive")
	}
	if c.Cache.TTLToday <= 0 || c.Cache.TTLRecent <= 0 || c.Cache.TTLHistoric <= 0 {
		errs = append(errs, "cache TTLs must be positive")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// validateURL checks that a URL is absolute with an http(s) scheme.
func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("malformed URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL must use http or https scheme, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL missing host")
	}
	return nil
}
