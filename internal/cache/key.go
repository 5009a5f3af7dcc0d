// Tracks Explorer - Small-Scale Fisheries Vessel Tracking Portal
// Copyright 2026 WorldFish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/WorldFishCenter/tracks-explorer-sub001

package cache

import (
	"sort"
	"strings"
	"time"
)

// Operation discriminators keep "points" and "trips" results for the same
// range and device set in distinct entries.
const (
	OpPoints = "points"
	OpTrips  = "trips"
	OpLive   = "live"
)

// Key builds a stable composite cache key from an operation discriminator,
// a query window, and a device-identifier set. Bounds are normalized to
// UTC at full timestamp precision, since callers may query sub-day
// windows; device IDs are sorted, so permuted inputs produce the same key.
func Key(op string, from, to time.Time, deviceIDs []string) string {
	ids := make([]string, len(deviceIDs))
	copy(ids, deviceIDs)
	sort.Strings(ids)

	var b strings.Builder
	b.WriteString(op)
	b.WriteByte(':')
	b.WriteString(from.UTC().Format(time.RFC3339))
	b.WriteByte(':')
	b.WriteString(to.UTC().Format(time.RFC3339))
	b.WriteByte(':')
	b.WriteString(strings.Join(ids, ","))
	return b.String()
}

// TTLPolicy derives a cache TTL from the recency of the requested window.
type TTLPolicy struct {
	Today    time.Duration
	Recent   time.Duration
	Historic time.Duration
}

// DefaultTTLPolicy mirrors the production config defaults.
func DefaultTTLPolicy() TTLPolicy {
	return TTLPolicy{
		Today:    1 * time.Minute,
		Recent:   3 * time.Minute,
		Historic: 10 * time.Minute,
	}
}

// For returns the TTL for a query whose upper bound is to. Windows ending
// today are cached very briefly, windows ending within the last 24 hours
// briefly, and older windows longest: recent data changes faster than
// historical data.
func (p TTLPolicy) For(to, now time.Time) time.Duration {
	nowUTC := now.UTC()
	toUTC := to.UTC()

	if toUTC.Format("2006-01-02") == nowUTC.Format("2006-01-02") {
		return p.Today
	}
	if nowUTC.Sub(toUTC) < 24*time.Hour {
		return p.Recent
	}
	return p.Historic
}
