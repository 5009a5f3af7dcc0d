// Tracks Explorer - Small-Scale Fisheries Vessel Tracking Portal
// Copyright 2026 WorldFish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/WorldFishCenter/tracks-explorer-sub001

/*
orchestrator.go - Fallback fetch orchestration

Walks the point-retrieval tiers in cost order until one yields data:

 1. Primary: one CSV query against the telemetry provider. The provider's
    empty-file defect reads as "no data", not failure.
 2. Snapshot: the co-located precomputed snapshot, if configured.
 3. Per-trip recovery: discover trip identifiers via the trip-metadata
    query, then fetch points one trip at a time and concatenate. Last
    because it costs N requests instead of one.

Traversal is strictly sequential and bounded. An unscoped query (no device
identifiers) has no meaningful fallback scope, so a primary miss there
returns empty immediately.
*/
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/logging"
	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/metrics"
	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/models"
	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/pelagic"
)

// ErrAllTiersFailed reports that every fetch tier errored and no data was
// retrieved. Wrapped errors carry per-tier detail.
var ErrAllTiersFailed = errors.New("all fetch tiers failed")

// Query is a date-bounded, optionally device-scoped point request.
type Query struct {
	From      time.Time
	To        time.Time
	DeviceIDs []string
}

// Scoped reports whether the query names specific devices. Unscoped
// queries are administrative fleet-wide views.
func (q Query) Scoped() bool {
	return len(q.DeviceIDs) > 0
}

// stampID is the device identifier parsed points are attributed to. The
// provider payload carries none, so attribution is only unambiguous for
// single-device queries.
func (q Query) stampID() string {
	if len(q.DeviceIDs) == 1 {
		return q.DeviceIDs[0]
	}
	return ""
}

// PointSource is the primary telemetry provider surface the orchestrator
// consumes, satisfied by pelagic.BreakerClient.
type PointSource interface {
	FetchPointsCSV(ctx context.Context, from, to time.Time, deviceIDs []string) ([]byte, error)
	FetchTripPointsCSV(ctx context.Context, tripID string) ([]byte, error)
	GetTrips(ctx context.Context, from, to time.Time, deviceIDs []string) ([]pelagic.TripMeta, error)
}

// SnapshotSource is the secondary tier, satisfied by snapshot.Client.
type SnapshotSource interface {
	Enabled() bool
	GetPoints(ctx context.Context, from, to time.Time, deviceIDs []string) ([]models.Point, error)
}

// Orchestrator owns the tier walk. It holds no mutable state; all state
// lives in the injected clients.
type Orchestrator struct {
	primary    PointSource
	snapshot   SnapshotSource
	parserOpts pelagic.ParserOptions
}

// NewOrchestrator creates an orchestrator over the given tiers. snapshot
// may be nil when no snapshot service is deployed.
func NewOrchestrator(primary PointSource, snapshot SnapshotSource, parserOpts pelagic.ParserOptions) *Orchestrator {
	return &Orchestrator{
		primary:    primary,
		snapshot:   snapshot,
		parserOpts: parserOpts,
	}
}

// FetchPoints retrieves points for the query, walking the fallback chain.
// It fails only when at least one tier errored and no tier produced data;
// a genuinely empty window returns an empty slice and no error.
func (o *Orchestrator) FetchPoints(ctx context.Context, q Query) ([]models.Point, error) {
	var tierErrs []error

	// Tier 1: primary CSV query.
	points, err := o.fetchPrimary(ctx, q)
	switch {
	case err == nil && len(points) > 0:
		metrics.FetchTierAttempts.WithLabelValues("primary", "hit").Inc()
		return points, nil
	case err == nil || errors.Is(err, pelagic.ErrEmptyUpstream):
		metrics.FetchTierAttempts.WithLabelValues("primary", "empty").Inc()
		logging.Debug().
			Time("from", q.From).Time("to", q.To).
			Msg("primary tier returned no data, falling back")
	default:
		metrics.FetchTierAttempts.WithLabelValues("primary", "error").Inc()
		logging.Warn().Err(err).Str("tier", "primary").Msg("fetch tier failed")
		tierErrs = append(tierErrs, fmt.Errorf("primary: %w", err))
	}

	// Fallback tiers assume a specific device scope. An unscoped query that
	// missed the primary tier is answered with "no data".
	if !q.Scoped() {
		logging.Debug().Msg("unscoped query missed primary tier, returning empty without fallback")
		return nil, nil
	}

	// Tier 2: local snapshot.
	if o.snapshot != nil && o.snapshot.Enabled() {
		points, err = o.snapshot.GetPoints(ctx, q.From, q.To, q.DeviceIDs)
		switch {
		case err != nil:
			metrics.FetchTierAttempts.WithLabelValues("snapshot", "error").Inc()
			logging.Warn().Err(err).Str("tier", "snapshot").Msg("fetch tier failed")
			tierErrs = append(tierErrs, fmt.Errorf("snapshot: %w", err))
		case len(points) > 0:
			metrics.FetchTierAttempts.WithLabelValues("snapshot", "hit").Inc()
			return points, nil
		default:
			metrics.FetchTierAttempts.WithLabelValues("snapshot", "empty").Inc()
			logging.Debug().Msg("snapshot tier returned no data, falling back")
		}
	}

	// Tier 3: per-trip recovery.
	points, err = o.fetchPerTrip(ctx, q)
	switch {
	case err != nil:
		metrics.FetchTierAttempts.WithLabelValues("recovery", "error").Inc()
		logging.Warn().Err(err).Str("tier", "recovery").Msg("fetch tier failed")
		tierErrs = append(tierErrs, fmt.Errorf("recovery: %w", err))
	case len(points) > 0:
		metrics.FetchTierAttempts.WithLabelValues("recovery", "hit").Inc()
		return points, nil
	default:
		metrics.FetchTierAttempts.WithLabelValues("recovery", "empty").Inc()
	}

	if len(tierErrs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrAllTiersFailed, errors.Join(tierErrs...))
	}
	return nil, nil
}

// fetchPrimary runs the single date-bounded CSV query and parses it.
func (o *Orchestrator) fetchPrimary(ctx context.Context, q Query) ([]models.Point, error) {
	raw, err := o.primary.FetchPointsCSV(ctx, q.From, q.To, q.DeviceIDs)
	if err != nil {
		return nil, err
	}
	return pelagic.ParsePoints(raw, q.stampID(), o.parserOpts), nil
}

// fetchPerTrip discovers trips for the window, fetches each trip's points
// individually, and concatenates. A single failing trip fetch is logged
// and skipped so one bad trip cannot empty the whole recovery tier.
func (o *Orchestrator) fetchPerTrip(ctx context.Context, q Query) ([]models.Point, error) {
	metas, err := o.primary.GetTrips(ctx, q.From, q.To, q.DeviceIDs)
	if err != nil {
		return nil, fmt.Errorf("trip discovery: %w", err)
	}
	if len(metas) == 0 {
		return nil, nil
	}

	logging.Info().Int("trips", len(metas)).Msg("recovering points trip by trip")

	var points []models.Point
	failed := 0
	for _, meta := range metas {
		raw, err := o.primary.FetchTripPointsCSV(ctx, meta.ID)
		if err != nil {
			if errors.Is(err, pelagic.ErrEmptyUpstream) {
				continue
			}
			logging.Warn().Err(err).Str("trip_id", meta.ID).Msg("per-trip point fetch failed, skipping trip")
			failed++
			continue
		}

		stamp := meta.DeviceID
		if stamp == "" {
			stamp = q.stampID()
		}
		points = append(points, pelagic.ParsePoints(raw, stamp, o.parserOpts)...)
	}

	if failed == len(metas) {
		return nil, fmt.Errorf("all %d per-trip fetches failed", failed)
	}
	return points, nil
}
