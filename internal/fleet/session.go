// Tracks Explorer - Small-Scale Fisheries Vessel Tracking Portal
// Copyright 2026 WorldFish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/WorldFishCenter/tracks-explorer-sub001

/*
session.go - Fleet API session manager

Holds the authenticated session state for the fleet live-location API:
login, token caching with expiry, and explicit invalidation so the client
can trigger exactly one re-authentication after an authorization failure.

State machine: Unauthenticated -> login -> Authenticated(expiry). Token()
reuses the cached token until expiry; Invalidate() forces the next Token()
call to log in again. There is deliberately no retry loop here; bounded
retry lives in the client.
*/
package fleet

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/config"
	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/logging"
	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/metrics"
)

// ErrMissingCredentials reports that the fleet API username or password is
// not configured. Authentication fails fast on this; retrying cannot help.
var ErrMissingCredentials = errors.New("fleet: username and password are required")

// defaultSessionTTL bounds token reuse when the provider does not state an
// expiry. Short enough that a server-side revocation is picked up soon.
const defaultSessionTTL = 55 * time.Minute

// expirySkew is subtracted from provider-stated expiries so a token is
// refreshed slightly before the server would reject it.
const expirySkew = 30 * time.Second

type loginResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn,omitempty"`
}

// SessionManager owns the fleet API session state. It is injected into the
// client as a shared instance; all access goes through its methods.
//
// Thread safety: safe for concurrent use. Concurrent Token() calls while
// unauthenticated may each log in; last write wins, which is acceptable
// since every resulting token is valid.
type SessionManager struct {
	baseURL     string
	username    string
	password    string
	authTimeout time.Duration
	client      *http.Client

	mu           sync.Mutex
	token        string
	refreshToken string
	expiresAt    time.Time

	now func() time.Time
}

// NewSessionManager creates a session manager from configuration. No login
// is attempted until the first Token() call.
func NewSessionManager(cfg *config.FleetConfig) *SessionManager {
	return &SessionManager{
		baseURL:     strings.TrimRight(cfg.URL, "/"),
		username:    cfg.Username,
		password:    cfg.Password,
		authTimeout: cfg.AuthTimeout,
		client:      &http.Client{},
		now:         time.Now,
	}
}

// Token returns a valid session token, logging in if none is cached or the
// cached one has expired. Returns ErrMissingCredentials without any network
// call when credentials are absent.
func (s *SessionManager) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.token != "" && s.now().Before(s.expiresAt) {
		token := s.token
		s.mu.Unlock()
		return token, nil
	}
	s.mu.Unlock()

	return s.login(ctx)
}

// Invalidate discards the cached token so the next Token() call logs in
// again. Called by the client when the provider rejects the token.
func (s *SessionManager) Invalidate() {
	s.mu.Lock()
	s.token = ""
	s.refreshToken = ""
	s.expiresAt = time.Time{}
	s.mu.Unlock()
}

// login authenticates against the fleet API and caches the result.
func (s *SessionManager) login(ctx context.Context) (string, error) {
	if s.username == "" || s.password == "" {
		return "", ErrMissingCredentials
	}

	ctx, cancel := context.WithTimeout(ctx, s.authTimeout)
	defer cancel()

	payload, err := json.Marshal(map[string]string{
		"username": s.username,
		"password": s.password,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode login payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/auth/login", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	metrics.RecordUpstreamRequest("fleet", "login", time.Since(start), err)
	if err != nil {
		metrics.FleetLogins.WithLabelValues("failure").Inc()
		return "", fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.FleetLogins.WithLabelValues("failure").Inc()
		return "", fmt.Errorf("login failed with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.FleetLogins.WithLabelValues("failure").Inc()
		return "", fmt.Errorf("failed to read login response: %w", err)
	}

	var lr loginResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		metrics.FleetLogins.WithLabelValues("failure").Inc()
		return "", fmt.Errorf("failed to decode login response: %w", err)
	}
	if lr.Token == "" {
		metrics.FleetLogins.WithLabelValues("failure").Inc()
		return "", errors.New("login response carried no token")
	}

	ttl := defaultSessionTTL
	if lr.ExpiresIn > 0 {
		ttl = time.Duration(lr.ExpiresIn)*time.Second - expirySkew
		if ttl <= 0 {
			ttl = time.Second
		}
	}

	s.mu.Lock()
	s.token = lr.Token
	s.refreshToken = lr.RefreshToken
	s.expiresAt = s.now().Add(ttl)
	s.mu.Unlock()

	metrics.FleetLogins.WithLabelValues("success").Inc()
	logging.Debug().Dur("ttl", ttl).Msg("fleet session established")
	return lr.Token, nil
}
