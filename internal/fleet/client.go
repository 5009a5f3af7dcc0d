// Tracks Explorer - Small-Scale Fisheries Vessel Tracking Portal
// Copyright 2026 WorldFish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/WorldFishCenter/tracks-explorer-sub001

/*
client.go - Fleet live-location API client

Queries the authenticated fleet API for the latest known position of each
tracked vessel. The provider returns a JSON array of device records with
arbitrarily nested attribute groups; each record is flattened to dotted
keys before field extraction so schema nesting changes do not break us.

Authorization failures are recovered exactly once per call: invalidate the
cached token, log in again, retry the query with the fresh token, and
surface the error if the retry fails too.
*/
package fleet

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/config"
	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/logging"
	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/metrics"
	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/models"
)

// Filter narrows a live-location query. Zero-value fields are omitted from
// the request, so the zero Filter queries the whole fleet.
type Filter struct {
	Customer string `json:"customer,omitempty"`
	Boat     string `json:"boat,omitempty"`
	IMEI     string `json:"imei,omitempty"`
}

// Client queries the fleet live-location API through a shared session.
//
// Thread safety: safe for concurrent use; session state lives in the
// injected SessionManager.
type Client struct {
	baseURL      string
	client       *http.Client
	sessions     *SessionManager
	queryTimeout time.Duration
}

// NewClient creates a fleet client sharing the given session manager.
func NewClient(cfg *config.FleetConfig, sessions *SessionManager) *Client {
	return &Client{
		baseURL:      strings.TrimRight(cfg.URL, "/"),
		client:       &http.Client{},
		sessions:     sessions,
		queryTimeout: cfg.QueryTimeout,
	}
}

// GetLiveLocations queries the latest position of tracked vessels matching
// the filter. On an authorization failure the session is re-established
// once and the query retried once; a second failure is surfaced.
func (c *Client) GetLiveLocations(ctx context.Context, filter Filter) ([]models.LiveLocation, error) {
	token, err := c.sessions.Token(ctx)
	if err != nil {
		return nil, err
	}

	body, status, err := c.query(ctx, token, filter)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		logging.Warn().Int("status", status).Msg("fleet token rejected, re-authenticating once")
		metrics.FleetReauths.Inc()
		c.sessions.Invalidate()

		token, err = c.sessions.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("re-authentication failed: %w", err)
		}
		body, status, err = c.query(ctx, token, filter)
		if err != nil {
			return nil, err
		}
	}

	if status != http.StatusOK {
		metrics.UpstreamRequestErrors.WithLabelValues("fleet", "devices").Inc()
		return nil, fmt.Errorf("device query failed with status %d", status)
	}

	return decodeLocations(body), nil
}

// query performs one device query with the given token. HTTP-level errors
// are returned as errors; the status code is returned separately so the
// caller can distinguish authorization failures.
func (c *Client) query(ctx context.Context, token string, filter Filter) ([]byte, int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	payload, err := json.Marshal(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode device query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/devices/query", bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create device query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := c.client.Do(req)
	metrics.RecordUpstreamRequest("fleet", "devices", time.Since(start), err)
	if err != nil {
		return nil, 0, fmt.Errorf("device query failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read device query response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// decodeLocations turns the device-record array into live locations.
// Records are flattened to dotted keys first; records without a device
// identifier are dropped.
func decodeLocations(body []byte) []models.LiveLocation {
	var raw []map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		logging.Warn().Err(err).Msg("fleet payload is not a JSON array of records")
		return nil
	}

	locations := make([]models.LiveLocation, 0, len(raw))
	dropped := 0
	for i, rec := range raw {
		flat := models.Flatten(rec)

		deviceID := stringField(flat, "device.id", "deviceId", "id")
		if deviceID == "" {
			dropped++
			continue
		}

		loc := models.LiveLocation{
			Index:        intField(flat, "index"),
			DeviceID:     deviceID,
			Boat:         stringField(flat, "boat.name", "boatName", "name"),
			Community:    stringField(flat, "community.name", "community"),
			Timezone:     stringField(flat, "position.timezone", "timezone"),
			Latitude:     floatField(flat, "position.lat", "lat"),
			Longitude:    floatField(flat, "position.lng", "lng"),
			BatteryState: stringField(flat, "battery.state", "batteryState"),
			IMEI:         stringField(flat, "device.imei", "imei"),
		}
		if loc.Index == 0 {
			loc.Index = i
		}
		loc.LastSeen = timeField(flat, "lastSeen", "device.lastSeen")
		loc.LastGPS = timeField(flat, "position.time", "lastGps")

		locations = append(locations, loc)
	}

	if dropped > 0 {
		logging.Warn().Int("dropped", dropped).Int("kept", len(locations)).Msg("fleet payload contained records without device identifiers")
	}
	return locations
}

// stringField returns the first present, non-empty string under any of the
// candidate dotted keys.
func stringField(flat map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := flat[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// floatField returns the first present numeric value under any of the
// candidate dotted keys. JSON numbers decode as float64.
func floatField(flat map[string]interface{}, keys ...string) float64 {
	for _, k := range keys {
		if v, ok := flat[k]; ok {
			if f, ok := v.(float64); ok {
				return f
			}
		}
	}
	return 0
}

func intField(flat map[string]interface{}, keys ...string) int {
	return int(floatField(flat, keys...))
}

// timeField parses the first present RFC 3339 string under any of the
// candidate dotted keys. Unix-seconds numbers are accepted too since the
// provider has shipped both encodings.
func timeField(flat map[string]interface{}, keys ...string) time.Time {
	for _, k := range keys {
		v, ok := flat[k]
		if !ok {
			continue
		}
		switch tv := v.(type) {
		case string:
			if ts, err := time.Parse(time.RFC3339, tv); err == nil {
				return ts
			}
		case float64:
			if tv > 0 {
				return time.Unix(int64(tv), 0).UTC()
			}
		}
	}
	return time.Time{}
}
