// Tracks Explorer - Small-Scale Fisheries Vessel Tracking Portal
// Copyright 2026 WorldFish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/WorldFishCenter/tracks-explorer-sub001

package fleet

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/config"
)

func testFleetConfig(url string) *config.FleetConfig {
	return &config.FleetConfig{
		URL:          url,
		Username:     "observer",
		Password:     "hunter2",
		AuthTimeout:  5 * time.Second,
		QueryTimeout: 5 * time.Second,
	}
}

func loginHandler(logins *atomic.Int64, token string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logins.Add(1)
		if r.URL.Path != "/auth/login" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"token":"` + token + `","refreshToken":"r1"}`))
	}
}

func TestToken_LoginAndReuse(t *testing.T) {
	var logins atomic.Int64
	server := httptest.NewServer(loginHandler(&logins, "tok-1"))
	defer server.Close()

	s := NewSessionManager(testFleetConfig(server.URL))

	for i := 0; i < 3; i++ {
		token, err := s.Token(context.Background())
		if err != nil {
			t.Fatalf("Token failed: %v", err)
		}
		if token != "tok-1" {
			t.Fatalf("Token = %q, want tok-1", token)
		}
	}
	if n := logins.Load(); n != 1 {
		t.Errorf("Expected 1 login for 3 Token calls, got %d", n)
	}
}

func TestToken_MissingCredentialsFailsFast(t *testing.T) {
	var logins atomic.Int64
	server := httptest.NewServer(loginHandler(&logins, "tok-1"))
	defer server.Close()

	cfg := testFleetConfig(server.URL)
	cfg.Password = ""
	s := NewSessionManager(cfg)

	if _, err := s.Token(context.Background()); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("Expected ErrMissingCredentials, got %v", err)
	}
	if n := logins.Load(); n != 0 {
		t.Errorf("Expected no network call on missing credentials, got %d logins", n)
	}
}

func TestToken_ExpiryTriggersRelogin(t *testing.T) {
	var logins atomic.Int64
	server := httptest.NewServer(loginHandler(&logins, "tok-1"))
	defer server.Close()

	s := NewSessionManager(testFleetConfig(server.URL))
	current := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return current }

	if _, err := s.Token(context.Background()); err != nil {
		t.Fatalf("Token failed: %v", err)
	}

	current = current.Add(2 * time.Hour)
	if _, err := s.Token(context.Background()); err != nil {
		t.Fatalf("Token after expiry failed: %v", err)
	}
	if n := logins.Load(); n != 2 {
		t.Errorf("Expected relogin after expiry, got %d logins", n)
	}
}

func TestToken_InvalidateForcesRelogin(t *testing.T) {
	var logins atomic.Int64
	server := httptest.NewServer(loginHandler(&logins, "tok-1"))
	defer server.Close()

	s := NewSessionManager(testFleetConfig(server.URL))
	if _, err := s.Token(context.Background()); err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	s.Invalidate()
	if _, err := s.Token(context.Background()); err != nil {
		t.Fatalf("Token after Invalidate failed: %v", err)
	}
	if n := logins.Load(); n != 2 {
		t.Errorf("Expected 2 logins across an invalidation, got %d", n)
	}
}

func TestLogin_RejectsEmptyToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"refreshToken":"r1"}`))
	}))
	defer server.Close()

	s := NewSessionManager(testFleetConfig(server.URL))
	if _, err := s.Token(context.Background()); err == nil {
		t.Fatal("Expected error when login response carries no token")
	}
}

func TestLogin_SurfacesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	s := NewSessionManager(testFleetConfig(server.URL))
	if _, err := s.Token(context.Background()); err == nil {
		t.Fatal("Expected error on 401 login response")
	}
}
