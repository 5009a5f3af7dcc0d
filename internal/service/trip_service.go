// Tracks Explorer - Small-Scale Fisheries Vessel Tracking Portal
// Copyright 2026 WorldFish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/WorldFishCenter/tracks-explorer-sub001

/*
trip_service.go - Trip service façade

The public surface the API layer consumes: points, trips, and live
locations for a date range and device set. Composes the fetch
orchestrator, the trip reconstructor, the fleet client, and the adaptive
cache.

Caching: results are cached under composite keys with a TTL derived from
window recency. No single-flight coordination; concurrent misses for the
same key each fetch and the last write wins, which is acceptable for this
workload.
*/
package service

import (
	"context"
	"strings"
	"time"

	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/cache"
	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/fleet"
	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/logging"
	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/models"
	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/trips"
)

// FleetSource is the live-location surface the service consumes,
// satisfied by fleet.Client.
type FleetSource interface {
	GetLiveLocations(ctx context.Context, filter fleet.Filter) ([]models.LiveLocation, error)
}

// TripService answers UI queries for trips, points, and live locations.
//
// Thread safety: safe for concurrent use; the cache store and fleet
// session carry their own synchronization.
type TripService struct {
	orch  *Orchestrator
	fleet FleetSource
	store *cache.Store
	ttl   cache.TTLPolicy

	now func() time.Time
}

// NewTripService wires the service from its collaborators. fleetSource may
// be nil when no fleet API is configured; trips then carry no timezone and
// live-location queries fail.
func NewTripService(orch *Orchestrator, fleetSource FleetSource, store *cache.Store, ttl cache.TTLPolicy) *TripService {
	return &TripService{
		orch:  orch,
		fleet: fleetSource,
		store: store,
		ttl:   ttl,
		now:   time.Now,
	}
}

// GetPoints returns GPS points for the query, from cache when fresh.
func (s *TripService) GetPoints(ctx context.Context, q Query) ([]models.Point, error) {
	key := cache.Key(cache.OpPoints, q.From, q.To, q.DeviceIDs)
	if v, ok := s.store.Get(key); ok {
		if points, ok := v.([]models.Point); ok {
			return points, nil
		}
	}

	points, err := s.orch.FetchPoints(ctx, q)
	if err != nil {
		return nil, err
	}

	s.store.Set(key, points, s.ttl.For(q.To, s.now()))
	return points, nil
}

// GetTrips returns reconstructed trips for the query. Live locations are
// fetched concurrently with the points and joined by device identifier to
// stamp each trip's timezone; a live-location failure degrades to trips
// without timezones rather than failing the call.
func (s *TripService) GetTrips(ctx context.Context, q Query) ([]models.Trip, error) {
	key := cache.Key(cache.OpTrips, q.From, q.To, q.DeviceIDs)
	if v, ok := s.store.Get(key); ok {
		if cached, ok := v.([]models.Trip); ok {
			return cached, nil
		}
	}

	type liveResult struct {
		locations []models.LiveLocation
		err       error
	}
	liveCh := make(chan liveResult, 1)
	go func() {
		if s.fleet == nil {
			liveCh <- liveResult{}
			return
		}
		// Go through the cached path so back-to-back trip queries
		// share one fleet lookup.
		locs, err := s.GetLiveLocations(ctx, fleet.Filter{})
		liveCh <- liveResult{locations: locs, err: err}
	}()

	points, err := s.GetPoints(ctx, q)
	if err != nil {
		<-liveCh
		return nil, err
	}

	result := trips.Build(points, q.stampID())

	live := <-liveCh
	if live.err != nil {
		logging.Warn().Err(live.err).Msg("live-location lookup failed, trips carry no timezone")
	} else {
		stampTimezones(result, live.locations)
	}

	s.store.Set(key, result, s.ttl.For(q.To, s.now()))
	return result, nil
}

// GetLiveLocations returns the latest vessel positions matching the
// filter, cached briefly since positions move.
func (s *TripService) GetLiveLocations(ctx context.Context, filter fleet.Filter) ([]models.LiveLocation, error) {
	if s.fleet == nil {
		return nil, fleet.ErrMissingCredentials
	}

	key := liveKey(filter)
	if v, ok := s.store.Get(key); ok {
		if cached, ok := v.([]models.LiveLocation); ok {
			return cached, nil
		}
	}

	locations, err := s.fleet.GetLiveLocations(ctx, filter)
	if err != nil {
		return nil, err
	}

	s.store.Set(key, locations, s.ttl.Today)
	return locations, nil
}

// stampTimezones joins live locations onto trips by device identifier.
func stampTimezones(result []models.Trip, locations []models.LiveLocation) {
	tzByDevice := make(map[string]string, len(locations))
	for _, loc := range locations {
		if loc.Timezone != "" {
			tzByDevice[loc.DeviceID] = loc.Timezone
		}
	}
	for i := range result {
		if tz, ok := tzByDevice[result[i].DeviceID]; ok {
			result[i].Timezone = &tz
		}
	}
}

// liveKey builds the cache key for a live-location filter. Live queries
// have no date window, so the key is the op discriminator plus the filter
// fields.
func liveKey(filter fleet.Filter) string {
	return strings.Join([]string{cache.OpLive, filter.Customer, filter.Boat, filter.IMEI}, ":")
}
