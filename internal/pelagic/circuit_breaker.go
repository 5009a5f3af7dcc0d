// Tracks Explorer - Small-Scale Fisheries Vessel Tracking Portal
// Copyright 2026 WorldFish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/WorldFishCenter/tracks-explorer-sub001

package pelagic

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/config"
	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/logging"
	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/metrics"
)

// BreakerClient wraps Client with a circuit breaker so a dead or slow
// provider stops consuming the timeout budget of every dashboard request.
//
// ErrEmptyUpstream does not count as a failure: "no data" is a valid
// provider answer and must not open the circuit.
//
// DETERMINISM NOTE: the breaker uses real time (via sony/gobreaker) for its
// interval and timeout calculations. Tests should exercise the wrapped
// Client directly rather than waiting out breaker state transitions.
type BreakerClient struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[[]byte]
	name   string
}

// NewBreakerClient creates a Pelagic client protected by a circuit breaker.
// The circuit opens at a 60% failure rate over a minimum of 10 requests and
// waits 2 minutes before probing half-open.
func NewBreakerClient(cfg *config.PelagicConfig) *BreakerClient {
	const cbName = "pelagic-api"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6
			if shouldTrip {
				logging.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] opening circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &BreakerClient{
		client: NewClient(cfg),
		cb:     cb,
		name:   cbName,
	}
}

// execute runs fn through the breaker, recording metrics. ErrEmptyUpstream
// is tunneled around the breaker's failure accounting.
func (b *BreakerClient) execute(fn func() ([]byte, error)) ([]byte, error) {
	var empty bool
	result, err := b.cb.Execute(func() ([]byte, error) {
		body, err := fn()
		if errors.Is(err, ErrEmptyUpstream) {
			empty = true
			return nil, nil
		}
		return body, err
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] request rejected")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		}
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	if empty {
		return nil, ErrEmptyUpstream
	}
	return result, nil
}

// FetchPointsCSV is Client.FetchPointsCSV behind the breaker.
func (b *BreakerClient) FetchPointsCSV(ctx context.Context, from, to time.Time, deviceIDs []string) ([]byte, error) {
	return b.execute(func() ([]byte, error) {
		return b.client.FetchPointsCSV(ctx, from, to, deviceIDs)
	})
}

// FetchTripPointsCSV is Client.FetchTripPointsCSV behind the breaker.
func (b *BreakerClient) FetchTripPointsCSV(ctx context.Context, tripID string) ([]byte, error) {
	return b.execute(func() ([]byte, error) {
		return b.client.FetchTripPointsCSV(ctx, tripID)
	})
}

// GetTrips is Client.GetTrips behind the breaker.
func (b *BreakerClient) GetTrips(ctx context.Context, from, to time.Time, deviceIDs []string) ([]TripMeta, error) {
	var trips []TripMeta
	_, err := b.execute(func() ([]byte, error) {
		var err error
		trips, err = b.client.GetTrips(ctx, from, to, deviceIDs)
		return nil, err
	})
	if err != nil {
		return nil, err
	}
	return trips, nil
}

// State exposes the current breaker state for health reporting.
func (b *BreakerClient) State() gobreaker.State {
	return b.cb.State()
}

// StateString returns the breaker state as a lowercase label.
func (b *BreakerClient) StateString() string {
	return stateToString(b.cb.State())
}

func stateToString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
