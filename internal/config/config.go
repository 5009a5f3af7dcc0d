// Tracks Explorer - Small-Scale Fisheries Vessel Tracking Portal
// Copyright 2026 WorldFish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/WorldFishCenter/tracks-explorer-sub001

// Package config holds all application configuration, loaded with Koanf v2
// from three layered sources:
//
//  1. Defaults: built-in sensible defaults for all optional settings
//  2. Config file: optional YAML file (config.yaml) for persistent settings
//  3. Environment variables: override any setting (highest priority)
//
// Config is immutable after Load() and safe for concurrent read access.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the tracks-explorer backend.
type Config struct {
	Pelagic  PelagicConfig  `koanf:"pelagic"`
	Snapshot SnapshotConfig `koanf:"snapshot"`
	Fleet    FleetConfig    `koanf:"fleet"`
	Cache    CacheConfig    `koanf:"cache"`
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// PelagicConfig holds connection settings for the primary telemetry
// provider: date-bounded CSV point queries, trip metadata, and per-trip
// point recovery.
//
// Environment Variables:
//   - PELAGIC_URL: provider base URL (required)
//   - PELAGIC_API_SECRET: API secret sent as the X-API-SECRET header (required)
//   - PELAGIC_TIMEOUT: point query timeout (default: 15s)
type PelagicConfig struct {
	URL       string `koanf:"url"`
	APISecret string `koanf:"api_secret"`

	// Timeout bounds the primary point query. The provider regularly
	// hangs under load; a hung upstream must never stall the pipeline
	// beyond this budget.
	Timeout time.Duration `koanf:"timeout"`

	// TripsTimeout bounds trip-metadata and per-trip recovery queries.
	TripsTimeout time.Duration `koanf:"trips_timeout"`

	// RateLimitRPS and RateLimitBurst cap the request rate against the
	// provider across all concurrent invocations.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	// SpeedUnitThreshold drives the speed-unit heuristic in the point
	// parser: values below the threshold are assumed to be m/s and are
	// converted to km/h; values at or above are assumed already km/h.
	// The provider has never confirmed a unit contract, so this stays
	// configurable rather than a hard-coded fact.
	SpeedUnitThreshold float64 `koanf:"speed_unit_threshold"`
}

// SnapshotConfig holds settings for the co-located snapshot service used as
// the secondary fallback tier.
type SnapshotConfig struct {
	Enabled bool          `koanf:"enabled"`
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
}

// FleetConfig holds credentials for the authenticated live-location API.
// Credentials are optional: without them live-location queries fail fast
// with a caller-misuse error, but the trip pipeline is unaffected.
//
// Environment Variables:
//   - FLEET_URL, FLEET_USERNAME, FLEET_PASSWORD
type FleetConfig struct {
	URL      string `koanf:"url"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`

	// AuthTimeout bounds the login request; authentication fails fast
	// rather than attempting a doomed request when credentials are absent.
	AuthTimeout time.Duration `koanf:"auth_timeout"`

	// QueryTimeout bounds device-query requests.
	QueryTimeout time.Duration `koanf:"query_timeout"`
}

// CacheConfig holds adaptive cache settings. TTLs are tiered by the recency
// of the requested data window: recent data changes faster than historical
// data, so it is cached for less time.
type CacheConfig struct {
	// Capacity is the hard ceiling on cached entries. Insertion beyond
	// the ceiling evicts the oldest-inserted entry.
	Capacity int `koanf:"capacity"`

	TTLToday    time.Duration `koanf:"ttl_today"`
	TTLRecent   time.Duration `koanf:"ttl_recent"`
	TTLHistoric time.Duration `koanf:"ttl_historic"`
}

// ServerConfig holds HTTP server settings for the dashboard-facing API.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`

	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitReqs requests per RateLimitWindow, per client IP.
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// HasCredentials reports whether fleet login credentials are configured.
func (f FleetConfig) HasCredentials() bool {
	return f.Username != "" && f.Password != ""
}
