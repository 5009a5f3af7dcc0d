// Tracks Explorer - Small-Scale Fisheries Vessel Tracking Portal
// Copyright 2026 WorldFish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/WorldFishCenter/tracks-explorer-sub001

/*
client.go - Pelagic telemetry API client

This file provides the HTTP communication layer for the primary telemetry
provider: the date-bounded CSV point query, the trip-metadata query, and the
per-trip point query used by the recovery tier.

Resilience mechanisms:
  - Explicit per-call timeouts (point query ~15s, trip queries ~20s)
  - Shared token-bucket rate limiter across all concurrent invocations
  - A known server-side empty-file defect is mapped to ErrEmptyUpstream
    ("no data") instead of being surfaced as an error
  - Circuit breaker wrapper in circuit_breaker.go

Related files:
  - parser.go: CSV payload parsing
  - circuit_breaker.go: gobreaker wrapper used by the fetch orchestrator
*/
package pelagic

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/config"
	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/logging"
	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/metrics"
)

// ErrEmptyUpstream reports that the provider answered but carried no usable
// point data. This covers both genuinely empty result sets and the known
// server-side empty-file defect; callers treat it as "no data", not failure.
var ErrEmptyUpstream = errors.New("pelagic: upstream returned no data")

// emptyFileSignature is the body fragment the provider emits when its
// export job produced an empty file. A long-standing upstream defect:
// the response arrives with HTTP 200 and this text instead of CSV.
const emptyFileSignature = "Empty or corrupt points file"

// maxErrorBodySize limits how much of a response body is read for error
// reporting, preventing unbounded allocation on large error pages.
const maxErrorBodySize = 64 * 1024 // 64KB

// secretHeader carries the API credential on every provider request.
const secretHeader = "X-API-SECRET"

// TripMeta is one row of the trip-metadata query: just enough to drive the
// per-trip recovery tier.
type TripMeta struct {
	ID       string
	DeviceID string
	Started  time.Time
	Ended    time.Time
}

// Client handles communication with the Pelagic telemetry HTTP API.
//
// Thread safety: safe for concurrent use; each request creates its own
// HTTP request and the rate limiter is shared deliberately so concurrent
// dashboard panels cannot stampede the provider.
type Client struct {
	baseURL      string
	apiSecret    string
	client       *http.Client
	limiter      *rate.Limiter
	timeout      time.Duration
	tripsTimeout time.Duration
}

// NewClient creates a Pelagic API client from configuration.
func NewClient(cfg *config.PelagicConfig) *Client {
	rps := cfg.RateLimitRPS
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = 10
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.URL, "/"),
		apiSecret:    cfg.APISecret,
		client:       &http.Client{},
		limiter:      rate.NewLimiter(rate.Limit(rps), burst),
		timeout:      cfg.Timeout,
		tripsTimeout: cfg.TripsTimeout,
	}
}

// FetchPointsCSV retrieves the raw CSV point payload for a date window and
// device set. Returns ErrEmptyUpstream when the provider has no data for
// the window (including its empty-file defect).
func (c *Client) FetchPointsCSV(ctx context.Context, from, to time.Time, deviceIDs []string) ([]byte, error) {
	params := url.Values{}
	params.Set("start", from.UTC().Format(time.RFC3339))
	params.Set("end", to.UTC().Format(time.RFC3339))
	params.Set("format", "csv")
	if len(deviceIDs) > 0 {
		params.Set("deviceIds", strings.Join(deviceIDs, ","))
	}

	body, err := c.get(ctx, "/v1/points", params, c.timeout, "points")
	if err != nil {
		return nil, err
	}

	if isEmptyPayload(body) {
		return nil, ErrEmptyUpstream
	}
	return body, nil
}

// FetchTripPointsCSV retrieves the raw CSV point payload for a single trip.
// Used by the per-trip recovery tier; one request per trip identifier.
func (c *Client) FetchTripPointsCSV(ctx context.Context, tripID string) ([]byte, error) {
	params := url.Values{}
	params.Set("format", "csv")

	body, err := c.get(ctx, "/v1/trips/"+url.PathEscape(tripID)+"/points", params, c.tripsTimeout, "trip_points")
	if err != nil {
		return nil, err
	}

	if isEmptyPayload(body) {
		return nil, ErrEmptyUpstream
	}
	return body, nil
}

// GetTrips retrieves trip metadata (one row per trip) for a date window and
// device set. The CSV carries at least tripId, deviceId, started, ended.
func (c *Client) GetTrips(ctx context.Context, from, to time.Time, deviceIDs []string) ([]TripMeta, error) {
	params := url.Values{}
	params.Set("start", from.UTC().Format(time.RFC3339))
	params.Set("end", to.UTC().Format(time.RFC3339))
	params.Set("format", "csv")
	if len(deviceIDs) > 0 {
		params.Set("deviceIds", strings.Join(deviceIDs, ","))
	}

	body, err := c.get(ctx, "/v1/trips", params, c.tripsTimeout, "trips")
	if err != nil {
		return nil, err
	}

	return parseTripMeta(body), nil
}

// get performs a rate-limited, timeout-bounded GET against the provider.
func (c *Client) get(ctx context.Context, path string, params url.Values, timeout time.Duration, operation string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(secretHeader, c.apiSecret)

	start := time.Now()
	resp, err := c.client.Do(req)
	metrics.RecordUpstreamRequest("pelagic", operation, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := readBodyForError(resp.Body)
		metrics.UpstreamRequestErrors.WithLabelValues("pelagic", operation).Inc()
		return nil, fmt.Errorf("%s request failed with status %d: %s", operation, resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", operation, err)
	}
	return body, nil
}

// isEmptyPayload reports whether a 200 response carries no usable data:
// blank, header-only would still parse to zero points, but the provider's
// empty-file defect needs recognizing here so it never reads as CSV.
func isEmptyPayload(body []byte) bool {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return true
	}
	return strings.Contains(trimmed, emptyFileSignature)
}

// readBodyForError reads at most maxErrorBodySize of a response body for
// error reporting.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}

// parseTripMeta parses the trip-metadata CSV. Malformed rows are skipped,
// matching the row-level fault tolerance of the point parser.
func parseTripMeta(raw []byte) []TripMeta {
	reader := csv.NewReader(strings.NewReader(string(raw)))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil || len(records) < 2 {
		return nil
	}

	header := records[0]
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}

	trips := make([]TripMeta, 0, len(records)-1)
	for _, row := range records[1:] {
		idIdx, ok := col["Trip"]
		if !ok || idIdx >= len(row) || strings.TrimSpace(row[idIdx]) == "" {
			continue
		}
		meta := TripMeta{ID: strings.TrimSpace(row[idIdx])}
		if i, ok := col["Device"]; ok && i < len(row) {
			meta.DeviceID = strings.TrimSpace(row[i])
		}
		if i, ok := col["Started"]; ok && i < len(row) {
			meta.Started, _ = parseTime(row[i])
		}
		if i, ok := col["Ended"]; ok && i < len(row) {
			meta.Ended, _ = parseTime(row[i])
		}
		trips = append(trips, meta)
	}

	if len(trips) == 0 {
		logging.Debug().Int("rows", len(records)-1).Msg("trip metadata payload yielded no trips")
	}
	return trips
}
