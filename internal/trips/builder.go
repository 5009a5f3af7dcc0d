// Tracks Explorer - Small-Scale Fisheries Vessel Tracking Portal
// Copyright 2026 WorldFish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/WorldFishCenter/tracks-explorer-sub001

// Package trips reconstructs discrete fishing trips from raw GPS point
// streams. Pure functions, no I/O: trips are recomputed from the point set
// on every cache miss and never persisted.
package trips

import (
	"sort"
	"time"

	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/models"
)

// Build derives one Trip per distinct trip identifier in points.
//
// Points are partitioned by trip identifier, each group sorted by time
// ascending, and the summary derived from the sorted group: start/end from
// the first/last element, range as the maximum observed range, distance as
// range scaled by models.DistanceFactor. A group of size one yields a valid
// zero-duration trip. Trip ownership comes from the group's own device
// identifier when the points carry one, falling back to deviceID.
//
// Points with an empty trip identifier carry no trip membership and are
// ignored. Results are ordered newest trip first.
func Build(points []models.Point, deviceID string) []models.Trip {
	groups := make(map[string][]models.Point)
	for _, p := range points {
		if p.TripID == "" {
			continue
		}
		groups[p.TripID] = append(groups[p.TripID], p)
	}

	result := make([]models.Trip, 0, len(groups))
	for tripID, group := range groups {
		sort.Slice(group, func(i, j int) bool {
			return group[i].Time.Before(group[j].Time)
		})

		first := group[0]
		last := group[len(group)-1]

		maxRange := 0.0
		for _, p := range group {
			if p.RangeMeters > maxRange {
				maxRange = p.RangeMeters
			}
		}

		owner := deviceID
		if first.DeviceID != "" {
			owner = first.DeviceID
		}

		trip := models.Trip{
			ID:              tripID,
			DeviceID:        owner,
			Boat:            first.Boat,
			Community:       first.Community,
			StartTime:       first.Time,
			EndTime:         last.Time,
			DurationSeconds: int64(last.Time.Sub(first.Time) / time.Second),
			RangeMeters:     maxRange,
			DistanceMeters:  maxRange * models.DistanceFactor,
			Created:         first.TripCreated,
			LastUpdated:     last.TripUpdated,
			LastSeen:        last.Time,
		}
		result = append(result, trip)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].StartTime.After(result[j].StartTime)
	})

	return result
}
