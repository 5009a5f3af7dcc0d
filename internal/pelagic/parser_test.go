// Tracks Explorer - Small-Scale Fisheries Vessel Tracking Portal
// Copyright 2026 WorldFish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/WorldFishCenter/tracks-explorer-sub001

package pelagic

import (
	"strings"
	"testing"
	"time"
)

const pointsHeader = "Time,Trip,Lat,Lng,Speed (M/S),Heading,Range (Meters),Boat Name,Community,Trip Created,Trip Last Updated"

func TestParsePoints_EmptyInput(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"whitespace", "   \n"},
		{"header only", pointsHeader + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points := ParsePoints([]byte(tt.raw), "dev-1", ParserOptions{})
			if len(points) != 0 {
				t.Errorf("Expected empty result, got %d points", len(points))
			}
		})
	}
}

func TestParsePoints_ValidRows(t *testing.T) {
	raw := pointsHeader + "\n" +
		"2026-02-10T06:00:00Z,trip-A,-4.95,39.71,2.5,90,0,Mashua,Kilifi,2026-02-10T05:59:00Z,2026-02-10T08:00:00Z\n" +
		"2026-02-10T06:10:00Z,trip-A,-4.96,39.72,3.0,95,1200,Mashua,Kilifi,2026-02-10T05:59:00Z,2026-02-10T08:00:00Z\n"

	points := ParsePoints([]byte(raw), "dev-1", ParserOptions{})

	if len(points) != 2 {
		t.Fatalf("Expected 2 points, got %d", len(points))
	}

	p := points[0]
	if p.DeviceID != "dev-1" {
		t.Errorf("Expected stamped device ID dev-1, got %q", p.DeviceID)
	}
	if p.TripID != "trip-A" {
		t.Errorf("Expected trip-A, got %q", p.TripID)
	}
	if p.Latitude != -4.95 || p.Longitude != 39.71 {
		t.Errorf("Unexpected coordinates: %v, %v", p.Latitude, p.Longitude)
	}
	want := time.Date(2026, 2, 10, 6, 0, 0, 0, time.UTC)
	if !p.Time.Equal(want) {
		t.Errorf("Expected time %v, got %v", want, p.Time)
	}
	if points[1].RangeMeters != 1200 {
		t.Errorf("Expected range 1200, got %v", points[1].RangeMeters)
	}
}

func TestParsePoints_MalformedRowIsolation(t *testing.T) {
	// One malformed row among N valid rows yields exactly N points.
	raw := pointsHeader + "\n" +
		"2026-02-10T06:00:00Z,trip-A,-4.95,39.71,2.5,90,0,Mashua,Kilifi,,\n" +
		"2026-02-10T06:10:00Z,trip-A,not-a-number,39.72,3.0,95,1200,Mashua,Kilifi,,\n" +
		"2026-02-10T06:20:00Z,trip-A,-4.97,39.73,3.1,100,2400,Mashua,Kilifi,,\n"

	points := ParsePoints([]byte(raw), "dev-1", ParserOptions{})

	if len(points) != 2 {
		t.Fatalf("Expected 2 valid points, got %d", len(points))
	}
	for _, p := range points {
		if p.Latitude == 0 {
			t.Error("Malformed row leaked into results")
		}
	}
}

func TestParsePoints_WrongFieldCount(t *testing.T) {
	raw := pointsHeader + "\n" +
		"2026-02-10T06:00:00Z,trip-A,-4.95\n" +
		"2026-02-10T06:10:00Z,trip-A,-4.96,39.72,3.0,95,1200,Mashua,Kilifi,,\n"

	points := ParsePoints([]byte(raw), "dev-1", ParserOptions{})
	if len(points) != 1 {
		t.Fatalf("Expected 1 point, got %d", len(points))
	}
}

func TestParsePoints_UnparseableTime(t *testing.T) {
	raw := pointsHeader + "\n" +
		"soon,trip-A,-4.95,39.71,2.5,90,0,Mashua,Kilifi,,\n"

	if points := ParsePoints([]byte(raw), "dev-1", ParserOptions{}); len(points) != 0 {
		t.Errorf("Expected row with bad time skipped, got %d points", len(points))
	}
}

func TestParsePoints_SpeedUnitHeuristic(t *testing.T) {
	tests := []struct {
		name      string
		rawSpeed  string
		threshold float64
		want      float64
	}{
		{"below threshold converted from m/s", "2.5", 0, 9.0},
		{"above threshold kept as km/h", "55", 0, 55},
		{"at threshold kept as km/h", "50", 0, 50},
		{"custom threshold", "15", 10, 15},
		{"negative clamped", "-3", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := pointsHeader + "\n" +
				"2026-02-10T06:00:00Z,trip-A,-4.95,39.71," + tt.rawSpeed + ",90,0,Mashua,Kilifi,,\n"

			points := ParsePoints([]byte(raw), "dev-1", ParserOptions{SpeedUnitThreshold: tt.threshold})
			if len(points) != 1 {
				t.Fatalf("Expected 1 point, got %d", len(points))
			}
			got := points[0].SpeedKmh
			if got < tt.want-0.0001 || got > tt.want+0.0001 {
				t.Errorf("SpeedKmh = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParsePoints_HeadingNormalized(t *testing.T) {
	raw := pointsHeader + "\n" +
		"2026-02-10T06:00:00Z,trip-A,-4.95,39.71,2.5,365,0,Mashua,Kilifi,,\n" +
		"2026-02-10T06:01:00Z,trip-A,-4.95,39.71,2.5,-10,0,Mashua,Kilifi,,\n"

	points := ParsePoints([]byte(raw), "dev-1", ParserOptions{})
	if len(points) != 2 {
		t.Fatalf("Expected 2 points, got %d", len(points))
	}
	for _, p := range points {
		if p.Heading < 0 || p.Heading >= 360 {
			t.Errorf("Heading %v outside [0,360)", p.Heading)
		}
	}
	if points[0].Heading != 5 {
		t.Errorf("Expected 365 folded to 5, got %v", points[0].Heading)
	}
	if points[1].Heading != 350 {
		t.Errorf("Expected -10 folded to 350, got %v", points[1].Heading)
	}
}

func TestParsePoints_UnknownHeadersRetained(t *testing.T) {
	raw := pointsHeader + ",Battery (%)\n" +
		"2026-02-10T06:00:00Z,trip-A,-4.95,39.71,2.5,90,0,Mashua,Kilifi,,,87\n"

	points := ParsePoints([]byte(raw), "dev-1", ParserOptions{})
	if len(points) != 1 {
		t.Fatalf("Expected 1 point, got %d", len(points))
	}
	if got := points[0].Extra["battery"]; got != "87" {
		t.Errorf("Expected unknown column retained under normalized key, got Extra=%v", points[0].Extra)
	}
}

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Battery (%)", "battery"},
		{"Signal Strength", "signal_strength"},
		{"GPS Fix Count", "gps_fix_count"},
	}
	for _, tt := range tests {
		if got := normalizeHeader(tt.in); got != tt.want {
			t.Errorf("normalizeHeader(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParsePoints_FileOrderPreserved(t *testing.T) {
	raw := pointsHeader + "\n" +
		"2026-02-10T08:00:00Z,trip-A,-4.97,39.73,2.5,90,0,Mashua,Kilifi,,\n" +
		"2026-02-10T06:00:00Z,trip-A,-4.95,39.71,2.5,90,0,Mashua,Kilifi,,\n"

	points := ParsePoints([]byte(raw), "dev-1", ParserOptions{})
	if len(points) != 2 {
		t.Fatalf("Expected 2 points, got %d", len(points))
	}
	// Output is file order, not sorted.
	if !points[0].Time.After(points[1].Time) {
		t.Error("Expected file order preserved (unsorted)")
	}
}

func TestParseTripMeta(t *testing.T) {
	raw := "Trip,Device,Started,Ended\n" +
		"trip-A,dev-1,2026-02-10T06:00:00Z,2026-02-10T08:00:00Z\n" +
		",dev-1,2026-02-10T06:00:00Z,2026-02-10T08:00:00Z\n" + // no trip ID: skipped
		"trip-B,dev-2,2026-02-11T06:00:00Z,2026-02-11T06:30:00Z\n"

	trips := parseTripMeta([]byte(raw))
	if len(trips) != 2 {
		t.Fatalf("Expected 2 trips, got %d", len(trips))
	}
	if trips[0].ID != "trip-A" || trips[0].DeviceID != "dev-1" {
		t.Errorf("Unexpected first trip: %+v", trips[0])
	}
	if strings.TrimSpace(trips[1].ID) != "trip-B" {
		t.Errorf("Unexpected second trip: %+v", trips[1])
	}
}
