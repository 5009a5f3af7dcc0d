// Tracks Explorer - Small-Scale Fisheries Vessel Tracking Portal
// Copyright 2026 WorldFish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/WorldFishCenter/tracks-explorer-sub001

package pelagic

import (
	"encoding/csv"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/logging"
	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/models"
)

// Fixed provider header set, matched exactly (case and format sensitive).
// Headers outside this set are retained under a normalized key in
// Point.Extra rather than dropped, so upstream schema additions survive.
const (
	headerTime        = "Time"
	headerTrip        = "Trip"
	headerLat         = "Lat"
	headerLng         = "Lng"
	headerSpeed       = "Speed (M/S)"
	headerHeading     = "Heading"
	headerRange       = "Range (Meters)"
	headerBoat        = "Boat Name"
	headerCommunity   = "Community"
	headerTripCreated = "Trip Created"
	headerTripUpdated = "Trip Last Updated"
)

// DefaultSpeedUnitThreshold is the cutoff of the speed-unit heuristic.
//
// The provider has never published a unit contract for the speed column.
// Observed payloads mix m/s and km/h: plausible vessel speeds in m/s stay
// well below this value, so anything under it is assumed m/s and converted,
// anything at or above is assumed already km/h. This is a fragile guess
// carried over as an explicit, injectable constant; do not treat the magic
// number as fact without confirming against real upstream samples.
const DefaultSpeedUnitThreshold = 50

// msToKmh converts meters/second to kilometers/hour.
const msToKmh = 3.6

// ParserOptions tunes point parsing.
type ParserOptions struct {
	// SpeedUnitThreshold overrides DefaultSpeedUnitThreshold when > 0.
	SpeedUnitThreshold float64
}

// timeLayouts are the timestamp formats the provider has been seen to emit.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTime tries each known provider timestamp layout.
func parseTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ParsePoints turns a raw CSV payload into typed GPS points, in file order.
//
// The payload carries no device identifier; deviceID is stamped from the
// originating request onto every point. Empty or header-only input yields
// an empty slice, not an error. Malformed rows (wrong field count,
// unparseable time or coordinate) are skipped and logged; parsing always
// continues for the remaining rows.
func ParsePoints(raw []byte, deviceID string, opts ParserOptions) []models.Point {
	threshold := opts.SpeedUnitThreshold
	if threshold <= 0 {
		threshold = DefaultSpeedUnitThreshold
	}

	reader := csv.NewReader(strings.NewReader(string(raw)))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		logging.Warn().Err(err).Msg("point payload is not parseable CSV")
		return nil
	}
	if len(records) < 2 {
		return nil
	}

	header := records[0]
	known := map[string]int{}
	var extraCols []int
	for i, name := range header {
		switch name {
		case headerTime, headerTrip, headerLat, headerLng, headerSpeed,
			headerHeading, headerRange, headerBoat, headerCommunity,
			headerTripCreated, headerTripUpdated:
			known[name] = i
		default:
			extraCols = append(extraCols, i)
		}
	}

	points := make([]models.Point, 0, len(records)-1)
	skipped := 0

	for rowNum, row := range records[1:] {
		if len(row) != len(header) {
			skipped++
			logging.Debug().Int("row", rowNum+2).Int("fields", len(row)).Int("expected", len(header)).Msg("skipping row with wrong field count")
			continue
		}

		ts, ok := parseTime(field(row, known, headerTime))
		if !ok {
			skipped++
			logging.Debug().Int("row", rowNum+2).Str("time", field(row, known, headerTime)).Msg("skipping row with unparseable time")
			continue
		}

		lat, latErr := strconv.ParseFloat(strings.TrimSpace(field(row, known, headerLat)), 64)
		lng, lngErr := strconv.ParseFloat(strings.TrimSpace(field(row, known, headerLng)), 64)
		if latErr != nil || lngErr != nil {
			skipped++
			logging.Debug().Int("row", rowNum+2).Msg("skipping row with non-numeric coordinate")
			continue
		}

		p := models.Point{
			Time:      ts,
			DeviceID:  deviceID,
			TripID:    strings.TrimSpace(field(row, known, headerTrip)),
			Latitude:  lat,
			Longitude: lng,
			SpeedKmh:  normalizeSpeed(parseFloatOrZero(field(row, known, headerSpeed)), threshold),
			Heading:   normalizeHeading(parseFloatOrZero(field(row, known, headerHeading))),
			Boat:      strings.TrimSpace(field(row, known, headerBoat)),
			Community: strings.TrimSpace(field(row, known, headerCommunity)),
		}
		if r := parseFloatOrZero(field(row, known, headerRange)); r > 0 {
			p.RangeMeters = r
		}
		if t, ok := parseTime(field(row, known, headerTripCreated)); ok {
			p.TripCreated = t
		}
		if t, ok := parseTime(field(row, known, headerTripUpdated)); ok {
			p.TripUpdated = t
		}

		for _, i := range extraCols {
			if i < len(row) && row[i] != "" {
				if p.Extra == nil {
					p.Extra = make(map[string]string, len(extraCols))
				}
				p.Extra[normalizeHeader(header[i])] = row[i]
			}
		}

		points = append(points, p)
	}

	if skipped > 0 {
		logging.Warn().Int("skipped", skipped).Int("parsed", len(points)).Str("device", deviceID).Msg("point payload contained malformed rows")
	}

	return points
}

// field returns a named known column from a row, or "".
func field(row []string, known map[string]int, name string) string {
	i, ok := known[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func parseFloatOrZero(value string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return f
}

// normalizeSpeed applies the unit heuristic: values under the threshold are
// taken as m/s and converted to km/h, values at or above as already km/h.
// Negative speeds are clamped to zero.
func normalizeSpeed(speed, threshold float64) float64 {
	if speed < 0 {
		return 0
	}
	if speed < threshold {
		return speed * msToKmh
	}
	return speed
}

// normalizeHeading folds a heading into [0, 360).
func normalizeHeading(heading float64) float64 {
	h := math.Mod(heading, 360)
	if h < 0 {
		h += 360
	}
	return h
}

// normalizeHeader converts an unrecognized provider header to a stable
// Extra key: lowercase, spaces and parentheses collapsed to underscores.
func normalizeHeader(name string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimRight(b.String(), "_")
}
