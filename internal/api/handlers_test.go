// Tracks Explorer - Small-Scale Fisheries Vessel Tracking Portal
// Copyright 2026 WorldFish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/WorldFishCenter/tracks-explorer-sub001

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/cache"
	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/config"
	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/fleet"
	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/middleware"
	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/models"
	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/pelagic"
	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/service"
)

const testCSV = "Time,Trip,Lat,Lng,Speed (M/S),Heading,Range (Meters),Boat Name,Community,Trip Created,Trip Last Updated\n" +
	"2026-02-10T06:00:00Z,A,-3.630,39.850,5.0,90,0,Mashua,Kilifi,2026-02-10T06:00:00Z,2026-02-10T06:00:00Z\n" +
	"2026-02-10T07:30:00Z,A,-3.650,39.870,3.0,94,5000,Mashua,Kilifi,2026-02-10T06:00:00Z,2026-02-10T07:30:00Z\n" +
	"2026-02-10T09:00:00Z,B,-3.660,39.880,2.0,180,100,Mashua,Kilifi,2026-02-10T09:00:00Z,2026-02-10T09:00:00Z\n"

type stubPrimary struct {
	csv []byte
	err error
}

func (s *stubPrimary) FetchPointsCSV(ctx context.Context, from, to time.Time, deviceIDs []string) ([]byte, error) {
	return s.csv, s.err
}

func (s *stubPrimary) FetchTripPointsCSV(ctx context.Context, tripID string) ([]byte, error) {
	return nil, pelagic.ErrEmptyUpstream
}

func (s *stubPrimary) GetTrips(ctx context.Context, from, to time.Time, deviceIDs []string) ([]pelagic.TripMeta, error) {
	return nil, s.err
}

type stubFleet struct {
	locations []models.LiveLocation
	err       error
}

func (s *stubFleet) GetLiveLocations(ctx context.Context, filter fleet.Filter) ([]models.LiveLocation, error) {
	return s.locations, s.err
}

func newTestServer(t *testing.T, primary service.PointSource, fleetSource service.FleetSource) *httptest.Server {
	t.Helper()

	store := cache.NewStore(100)
	orch := service.NewOrchestrator(primary, nil, pelagic.ParserOptions{})
	svc := service.NewTripService(orch, fleetSource, store, cache.DefaultTTLPolicy())

	monitor := middleware.NewPerformanceMonitor(100)
	handler := NewHandler(svc, store, func() string { return "closed" }, monitor)
	cfg := &config.ServerConfig{
		CORSOrigins:     []string{"*"},
		RateLimitReqs:   1000,
		RateLimitWindow: time.Minute,
	}

	server := httptest.NewServer(NewRouter(handler, cfg, monitor).Setup())
	t.Cleanup(server.Close)
	return server
}

func decodeResponse(t *testing.T, resp *http.Response) APIResponse {
	t.Helper()
	defer resp.Body.Close()
	var envelope APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("Failed to decode response envelope: %v", err)
	}
	return envelope
}

func TestTripsEndpoint(t *testing.T) {
	server := newTestServer(t, &stubPrimary{csv: []byte(testCSV)}, &stubFleet{
		locations: []models.LiveLocation{{DeviceID: "dev-1", Timezone: "Africa/Nairobi"}},
	})

	resp, err := http.Get(server.URL + "/api/v1/trips?from=2026-02-10&to=2026-02-10&devices=dev-1")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Status = %d, want 200", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("Expected X-Request-ID header")
	}

	envelope := decodeResponse(t, resp)
	if !envelope.Success {
		t.Fatalf("Expected success envelope, got error: %+v", envelope.Error)
	}
	if envelope.Meta == nil || envelope.Meta.Count != 2 {
		t.Errorf("Expected meta count 2, got %+v", envelope.Meta)
	}

	raw, _ := json.Marshal(envelope.Data)
	var result []models.Trip
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("Data is not a trip list: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("Expected 2 trips, got %d", len(result))
	}
}

func TestPointsEndpoint(t *testing.T) {
	server := newTestServer(t, &stubPrimary{csv: []byte(testCSV)}, nil)

	resp, err := http.Get(server.URL + "/api/v1/points?from=2026-02-10&to=2026-02-10&devices=dev-1")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	envelope := decodeResponse(t, resp)
	if !envelope.Success {
		t.Fatalf("Expected success, got %+v", envelope.Error)
	}
	if envelope.Meta.Count != 3 {
		t.Errorf("Expected 3 points, got %d", envelope.Meta.Count)
	}
}

func TestPointsEndpoint_InvalidDate(t *testing.T) {
	server := newTestServer(t, &stubPrimary{csv: []byte(testCSV)}, nil)

	resp, err := http.Get(server.URL + "/api/v1/points?from=yesterday&to=2026-02-10")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("Status = %d, want 400", resp.StatusCode)
	}
	envelope := decodeResponse(t, resp)
	if envelope.Success || envelope.Error == nil {
		t.Fatal("Expected error envelope")
	}
	if envelope.Error.Code != ErrCodeValidationFailed {
		t.Errorf("Error code = %q, want %q", envelope.Error.Code, ErrCodeValidationFailed)
	}
}

func TestPointsEndpoint_WindowTooLarge(t *testing.T) {
	server := newTestServer(t, &stubPrimary{csv: []byte(testCSV)}, nil)

	resp, err := http.Get(server.URL + "/api/v1/points?from=2020-01-01&to=2026-02-10")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("Status = %d, want 400", resp.StatusCode)
	}
}

func TestPointsEndpoint_UpstreamExhausted(t *testing.T) {
	server := newTestServer(t, &stubPrimary{err: errors.New("provider down")}, nil)

	resp, err := http.Get(server.URL + "/api/v1/points?devices=dev-1")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("Status = %d, want 502", resp.StatusCode)
	}
	envelope := decodeResponse(t, resp)
	if envelope.Error == nil || envelope.Error.Code != ErrCodeExternalServiceFail {
		t.Errorf("Expected EXTERNAL_SERVICE_FAILED, got %+v", envelope.Error)
	}
}

func TestLiveEndpoint(t *testing.T) {
	server := newTestServer(t, &stubPrimary{csv: []byte(testCSV)}, &stubFleet{
		locations: []models.LiveLocation{{DeviceID: "dev-1", Boat: "Mashua"}},
	})

	resp, err := http.Get(server.URL + "/api/v1/live?boat=Mashua")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	envelope := decodeResponse(t, resp)
	if !envelope.Success || envelope.Meta.Count != 1 {
		t.Errorf("Expected 1 live location, got %+v", envelope)
	}
}

func TestLiveEndpoint_NotConfigured(t *testing.T) {
	server := newTestServer(t, &stubPrimary{csv: []byte(testCSV)}, nil)

	resp, err := http.Get(server.URL + "/api/v1/live")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("Status = %d, want 503", resp.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t, &stubPrimary{csv: []byte(testCSV)}, nil)

	resp, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Status = %d, want 200", resp.StatusCode)
	}
	envelope := decodeResponse(t, resp)
	data, ok := envelope.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Health data is not an object: %T", envelope.Data)
	}
	if data["status"] != "ok" {
		t.Errorf("status = %v, want ok", data["status"])
	}
	if data["pelagic_circuit"] != "closed" {
		t.Errorf("pelagic_circuit = %v, want closed", data["pelagic_circuit"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	server := newTestServer(t, &stubPrimary{csv: []byte(testCSV)}, nil)

	resp, err := http.Get(server.URL + "/metrics")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Status = %d, want 200", resp.StatusCode)
	}
}

func TestStatsEndpoint(t *testing.T) {
	server := newTestServer(t, &stubPrimary{csv: []byte(testCSV)}, nil)

	// Generate some traffic first so the window has samples.
	if _, err := http.Get(server.URL + "/api/v1/points?devices=dev-1"); err != nil {
		t.Fatalf("Priming request failed: %v", err)
	}

	resp, err := http.Get(server.URL + "/api/v1/stats")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	envelope := decodeResponse(t, resp)
	if !envelope.Success {
		t.Fatalf("Expected success, got %+v", envelope.Error)
	}
}

func TestUnknownRoute(t *testing.T) {
	server := newTestServer(t, &stubPrimary{csv: []byte(testCSV)}, nil)

	resp, err := http.Get(server.URL + "/api/v1/nope")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Status = %d, want 404", resp.StatusCode)
	}
}
