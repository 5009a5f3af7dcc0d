// Tracks Explorer - Small-Scale Fisheries Vessel Tracking Portal
// Copyright 2026 WorldFish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/WorldFishCenter/tracks-explorer-sub001

// Package snapshot implements the secondary fetch tier: a co-located service
// holding a precomputed point snapshot, consulted only when the primary
// telemetry provider returns nothing usable. The snapshot speaks JSON rather
// than the provider's CSV, so records are decoded individually with
// record-level fault isolation.
package snapshot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/config"
	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/logging"
	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/metrics"
	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/models"
)

// record is the wire shape of one snapshot point. Timestamps travel as
// RFC 3339 strings.
type record struct {
	Time      string  `json:"time"`
	DeviceID  string  `json:"deviceId"`
	TripID    string  `json:"tripId"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
	SpeedKmh  float64 `json:"speed"`
	Heading   float64 `json:"heading"`
	Range     float64 `json:"range"`
	Boat      string  `json:"boatName"`
	Community string  `json:"community"`
}

// Client reads from the local point snapshot service.
//
// Thread safety: safe for concurrent use.
type Client struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	enabled bool
}

// NewClient creates a snapshot client from configuration.
func NewClient(cfg *config.SnapshotConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		client:  &http.Client{},
		timeout: cfg.Timeout,
		enabled: cfg.Enabled,
	}
}

// Enabled reports whether the snapshot tier is configured for use.
func (c *Client) Enabled() bool {
	return c.enabled && c.baseURL != ""
}

// GetPoints retrieves snapshot points for a date window and device set.
// Records that fail to decode or carry no device identifier are dropped
// with a debug log; a malformed record never fails the whole response.
func (c *Client) GetPoints(ctx context.Context, from, to time.Time, deviceIDs []string) ([]models.Point, error) {
	params := url.Values{}
	params.Set("start", from.UTC().Format(time.RFC3339))
	params.Set("end", to.UTC().Format(time.RFC3339))
	if len(deviceIDs) > 0 {
		params.Set("deviceIds", strings.Join(deviceIDs, ","))
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reqURL := fmt.Sprintf("%s/points?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	metrics.RecordUpstreamRequest("snapshot", "points", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("snapshot request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.UpstreamRequestErrors.WithLabelValues("snapshot", "points").Inc()
		return nil, fmt.Errorf("snapshot request failed with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot response: %w", err)
	}

	return decodePoints(body), nil
}

// decodePoints turns the snapshot JSON array into points, one record at a
// time so a single bad element cannot poison the rest.
func decodePoints(body []byte) []models.Point {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		logging.Warn().Err(err).Msg("snapshot payload is not a JSON array")
		return nil
	}

	points := make([]models.Point, 0, len(raw))
	dropped := 0
	for i, elem := range raw {
		var rec record
		if err := json.Unmarshal(elem, &rec); err != nil {
			logging.Debug().Int("index", i).Err(err).Msg("skipping undecodable snapshot record")
			dropped++
			continue
		}
		if strings.TrimSpace(rec.DeviceID) == "" {
			logging.Debug().Int("index", i).Msg("skipping snapshot record without device identifier")
			dropped++
			continue
		}
		ts, err := time.Parse(time.RFC3339, rec.Time)
		if err != nil {
			logging.Debug().Int("index", i).Str("time", rec.Time).Msg("skipping snapshot record with unparseable timestamp")
			dropped++
			continue
		}

		points = append(points, models.Point{
			Time:        ts,
			DeviceID:    rec.DeviceID,
			TripID:      rec.TripID,
			Latitude:    rec.Latitude,
			Longitude:   rec.Longitude,
			SpeedKmh:    rec.SpeedKmh,
			Heading:     rec.Heading,
			RangeMeters: rec.Range,
			Boat:        rec.Boat,
			Community:   rec.Community,
		})
	}

	if dropped > 0 {
		logging.Warn().Int("dropped", dropped).Int("kept", len(points)).Msg("snapshot payload contained unusable records")
	}
	return points
}
