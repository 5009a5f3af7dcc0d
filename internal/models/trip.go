// Tracks Explorer - Small-Scale Fisheries Vessel Tracking Portal
// Copyright 2026 WorldFish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/WorldFishCenter/tracks-explorer-sub001

package models

import "time"

// DistanceFactor converts a trip's straight-cumulative range into a distance
// estimate. The sailed path always exceeds the recorded range, so the factor
// deliberately over-estimates; it is an approximation, not a path integral.
const DistanceFactor = 1.2

// Trip is a derived aggregate summarizing one continuous vessel outing.
//
// Trips are never transmitted by the upstream provider. They are
// reconstructed in memory from the point set on every cache miss and are
// not persisted anywhere.
type Trip struct {
	// ID equals the trip identifier shared by the constituent points.
	ID string `json:"id"`

	DeviceID  string `json:"deviceId"`
	Boat      string `json:"boatName"`
	Community string `json:"community"`

	// StartTime and EndTime are the earliest and latest point times.
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`

	// DurationSeconds is EndTime - StartTime.
	DurationSeconds int64 `json:"durationSeconds"`

	// RangeMeters is the maximum cumulative range observed in the group.
	RangeMeters float64 `json:"rangeMeters"`

	// DistanceMeters is RangeMeters * DistanceFactor.
	DistanceMeters float64 `json:"distanceMeters"`

	Created     time.Time `json:"created"`
	LastUpdated time.Time `json:"lastUpdated"`

	// LastSeen equals EndTime.
	LastSeen time.Time `json:"lastSeen"`

	// Timezone is populated post-hoc from a live-location lookup for the
	// same device; nil when the lookup fails or the device is not live.
	Timezone *string `json:"timezone,omitempty"`
}
