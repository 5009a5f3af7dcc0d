// Tracks Explorer - Small-Scale Fisheries Vessel Tracking Portal
// Copyright 2026 WorldFish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/WorldFishCenter/tracks-explorer-sub001

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestPerformanceMonitor_RecordsAndAggregates(t *testing.T) {
	pm := NewPerformanceMonitor(100)

	for i := 0; i < 10; i++ {
		pm.RecordRequest(&RequestMetrics{
			Path:       "/api/v1/trips",
			Method:     http.MethodGet,
			DurationMS: int64(i * 10),
			StatusCode: http.StatusOK,
			Timestamp:  time.Now(),
		})
	}
	pm.RecordRequest(&RequestMetrics{
		Path:       "/api/v1/live",
		Method:     http.MethodGet,
		DurationMS: 5,
		StatusCode: http.StatusOK,
		Timestamp:  time.Now(),
	})

	stats := pm.GetStats()
	if len(stats) != 2 {
		t.Fatalf("Expected stats for 2 endpoints, got %d", len(stats))
	}

	// Busiest endpoint first.
	if stats[0].Path != "GET /api/v1/trips" {
		t.Errorf("Expected trips endpoint first, got %q", stats[0].Path)
	}
	if stats[0].RequestCount != 10 {
		t.Errorf("RequestCount = %d, want 10", stats[0].RequestCount)
	}
	if stats[0].MinDuration != 0 || stats[0].MaxDuration != 90 {
		t.Errorf("Min/Max = %d/%d, want 0/90", stats[0].MinDuration, stats[0].MaxDuration)
	}
	if stats[0].P50Duration > stats[0].P95Duration || stats[0].P95Duration > stats[0].P99Duration {
		t.Errorf("Percentiles not ordered: p50=%d p95=%d p99=%d",
			stats[0].P50Duration, stats[0].P95Duration, stats[0].P99Duration)
	}
}

func TestPerformanceMonitor_SlidingWindow(t *testing.T) {
	pm := NewPerformanceMonitor(5)
	for i := 0; i < 20; i++ {
		pm.RecordRequest(&RequestMetrics{
			Path:       "/api/v1/points",
			Method:     http.MethodGet,
			DurationMS: int64(i),
		})
	}

	stats := pm.GetStats()
	if len(stats) != 1 {
		t.Fatalf("Expected 1 endpoint, got %d", len(stats))
	}
	if stats[0].RequestCount != 5 {
		t.Errorf("Window must cap at 5 samples, got %d", stats[0].RequestCount)
	}
	// Only the most recent samples remain.
	if stats[0].MinDuration != 15 {
		t.Errorf("MinDuration = %d, want 15", stats[0].MinDuration)
	}
}

func TestPerformanceMonitor_Middleware(t *testing.T) {
	pm := NewPerformanceMonitor(10)
	handler := pm.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/trips", nil))

	if rec.Code != http.StatusAccepted {
		t.Errorf("Status = %d, want 202", rec.Code)
	}
	stats := pm.GetStats()
	if len(stats) != 1 || stats[0].RequestCount != 1 {
		t.Errorf("Expected one recorded request, got %+v", stats)
	}
}

func TestPrometheusMetricsMiddleware(t *testing.T) {
	handler := PrometheusMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/live", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("Status = %d, want 418", rec.Code)
	}
}
