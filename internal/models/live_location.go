// Tracks Explorer - Small-Scale Fisheries Vessel Tracking Portal
// Copyright 2026 WorldFish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/WorldFishCenter/tracks-explorer-sub001

package models

import "time"

// LiveLocation is the most recent known position of a tracked vessel, as
// reported by the authenticated fleet API. It is an independent data model
// from Point/Trip: records come from a different upstream with its own
// schema and are only joined to trips by device identifier.
//
// Records without a device identifier are discarded during parsing; identity
// is mandatory.
type LiveLocation struct {
	// Index is the provider-side row index for the device.
	Index int `json:"index"`

	Boat      string `json:"boatName"`
	Community string `json:"community"`
	Timezone  string `json:"timezone,omitempty"`

	// LastSeen is when the provider last heard from the device at all;
	// LastGPS is the timestamp of the latest position fix.
	LastSeen time.Time `json:"lastSeen"`
	LastGPS  time.Time `json:"lastGps"`

	DeviceID  string  `json:"deviceId"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`

	// BatteryState is optional provider battery telemetry (e.g. "charging").
	BatteryState string `json:"batteryState,omitempty"`

	// IMEI is the optional external vessel identifier.
	IMEI string `json:"imei,omitempty"`
}
