// Tracks Explorer - Small-Scale Fisheries Vessel Tracking Portal
// Copyright 2026 WorldFish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/WorldFishCenter/tracks-explorer-sub001

// Package models defines the core data types shared across the ingestion
// pipeline: GPS points as delivered by the telemetry provider, trips derived
// from them, and live vessel locations from the authenticated fleet API.
package models

import "time"

// Point is a single GPS telemetry sample for a vessel.
//
// Points arrive from the telemetry provider as CSV rows; the provider payload
// carries no device identifier, so DeviceID is stamped by the caller from the
// originating request. Speed is normalized to km/h during parsing.
type Point struct {
	// Time is the absolute sample timestamp.
	Time time.Time `json:"time"`

	// DeviceID is the owning telemetry unit, carried from the request.
	DeviceID string `json:"deviceId"`

	// TripID groups points belonging to one vessel outing.
	TripID string `json:"tripId"`

	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`

	// SpeedKmh is the vessel speed normalized to km/h.
	SpeedKmh float64 `json:"speed"`

	// Heading is the course over ground in degrees, within [0, 360).
	Heading float64 `json:"heading"`

	// RangeMeters is the cumulative range from trip start.
	RangeMeters float64 `json:"range"`

	Boat      string `json:"boatName"`
	Community string `json:"community"`

	// TripCreated and TripUpdated are trip bookkeeping timestamps carried
	// on every point row by the provider.
	TripCreated time.Time `json:"tripCreated"`
	TripUpdated time.Time `json:"tripUpdated"`

	// Extra holds payload columns that are not part of the fixed header
	// set, keyed by normalized header name. Retained rather than dropped
	// so upstream schema additions survive a round trip.
	Extra map[string]string `json:"extra,omitempty"`
}
