// Tracks Explorer - Small-Scale Fisheries Vessel Tracking Portal
// Copyright 2026 WorldFish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/WorldFishCenter/tracks-explorer-sub001

package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Pelagic.URL = "https://analytics.example.com"
	cfg.Pelagic.APISecret = "secret"
	return cfg
}

func TestValidate_ValidConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("Unexpected validation error: %v", err)
	}
}

func TestValidate_MissingPelagic(t *testing.T) {
	cfg := defaultConfig()

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Expected validation error for empty pelagic settings")
	}
	if !strings.Contains(err.Error(), "pelagic.url") {
		t.Errorf("Expected pelagic.url in error, got: %v", err)
	}
	if !strings.Contains(err.Error(), "pelagic.api_secret") {
		t.Errorf("Expected pelagic.api_secret in error, got: %v", err)
	}
}

func TestValidate_BadURLScheme(t *testing.T) {
	cfg := validConfig()
	cfg.Pelagic.URL = "ftp://analytics.example.com"

	if err := cfg.Validate(); err == nil {
		t.Error("Expected validation error for ftp scheme")
	}
}

func TestValidate_FleetCredentialsOptional(t *testing.T) {
	cfg := validConfig()
	cfg.Fleet = FleetConfig{AuthTimeout: 10 * time.Second, QueryTimeout: 15 * time.Second}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Fleet credentials should be optional, got: %v", err)
	}
	if cfg.Fleet.HasCredentials() {
		t.Error("HasCredentials should be false with empty username/password")
	}
}

func TestValidate_CacheBounds(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.Capacity = 0

	if err := cfg.Validate(); err == nil {
		t.Error("Expected validation error for zero cache capacity")
	}
}

func TestValidate_PortRange(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 70000

	if err := cfg.Validate(); err == nil {
		t.Error("Expected validation error for out-of-range port")
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"PELAGIC_URL", "pelagic.url"},
		{"PELAGIC_API_SECRET", "pelagic.api_secret"},
		{"CACHE_TTL_TODAY", "cache.ttl_today"},
		{"SERVER_RATE_LIMIT_REQS", "server.rate_limit_reqs"},
		{"FLEET_PASSWORD", "fleet.password"},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		if got := envTransformFunc(tt.env); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

func TestDefaults(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Pelagic.Timeout != 15*time.Second {
		t.Errorf("Expected 15s pelagic timeout, got %v", cfg.Pelagic.Timeout)
	}
	if cfg.Fleet.AuthTimeout != 10*time.Second {
		t.Errorf("Expected 10s fleet auth timeout, got %v", cfg.Fleet.AuthTimeout)
	}
	if cfg.Cache.TTLToday >= cfg.Cache.TTLRecent || cfg.Cache.TTLRecent >= cfg.Cache.TTLHistoric {
		t.Error("Cache TTLs should increase with data age")
	}
	if cfg.Cache.Capacity != 500 {
		t.Errorf("Expected default capacity 500, got %d", cfg.Cache.Capacity)
	}
}
