// Tracks Explorer - Small-Scale Fisheries Vessel Tracking Portal
// Copyright 2026 WorldFish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/WorldFishCenter/tracks-explorer-sub001

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestResponseWriter_Success(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/trips", nil)

	NewResponseWriter(rec, req).SuccessWithCount([]string{"a", "b"}, 2)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}

	var envelope APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if !envelope.Success || envelope.Error != nil {
		t.Errorf("Expected success envelope, got %+v", envelope)
	}
	if envelope.Meta == nil || envelope.Meta.Count != 2 {
		t.Errorf("Expected count 2 in meta, got %+v", envelope.Meta)
	}
	if envelope.Meta.Timestamp.IsZero() {
		t.Error("Expected timestamp in meta")
	}
}

func TestResponseWriter_Error(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/trips", nil)

	NewResponseWriter(rec, req).BadRequest("bad window")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Status = %d, want 400", rec.Code)
	}

	var envelope APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if envelope.Success {
		t.Error("Expected failure envelope")
	}
	if envelope.Error == nil || envelope.Error.Code != ErrCodeBadRequest {
		t.Errorf("Expected BAD_REQUEST, got %+v", envelope.Error)
	}
	if envelope.Error.Message != "bad window" {
		t.Errorf("Message = %q", envelope.Error.Message)
	}
}

func TestParseRangeQuery_Defaults(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/points", nil)
	q, err := parseRangeQuery(req)
	if err != nil {
		t.Fatalf("parseRangeQuery failed: %v", err)
	}
	window := q.To.Sub(q.From)
	if window < 6*24*time.Hour || window > 8*24*time.Hour {
		t.Errorf("Default window = %v, want about 7 days", window)
	}
	if len(q.DeviceIDs) != 0 {
		t.Errorf("Expected no devices by default, got %v", q.DeviceIDs)
	}
}

func TestParseRangeQuery_BareToDateIsInclusive(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/points?from=2026-02-10&to=2026-02-10", nil)
	q, err := parseRangeQuery(req)
	if err != nil {
		t.Fatalf("parseRangeQuery failed: %v", err)
	}
	if q.To.Hour() != 23 || q.To.Minute() != 59 {
		t.Errorf("Bare to-date must cover the whole day, got %v", q.To)
	}
}

func TestSplitDevices(t *testing.T) {
	if got := splitDevices("dev-1, dev-2,,dev-3,"); len(got) != 3 {
		t.Errorf("splitDevices = %v, want 3 entries", got)
	}
	if got := splitDevices(""); got != nil {
		t.Errorf("splitDevices(\"\") = %v, want nil", got)
	}
}
