// Tracks Explorer - Small-Scale Fisheries Vessel Tracking Portal
// Copyright 2026 WorldFish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/WorldFishCenter/tracks-explorer-sub001

/*
handlers.go - HTTP request handlers

Thin adapters between HTTP and the trip service: parse and validate query
parameters, call the service, translate errors to the response envelope.
No business logic lives here.
*/
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/cache"
	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/fleet"
	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/logging"
	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/middleware"
	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/service"
	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/validation"
)

// BreakerStatus reports the primary provider's circuit state for health
// checks, satisfied by pelagic.BreakerClient via a small adapter.
type BreakerStatus func() string

// Handler holds the dependencies for all HTTP handlers.
type Handler struct {
	svc       *service.TripService
	store     *cache.Store
	breaker   BreakerStatus
	monitor   *middleware.PerformanceMonitor
	startTime time.Time
}

// NewHandler creates the handler set. breaker and monitor may be nil; the
// health and stats endpoints then omit those sections.
func NewHandler(svc *service.TripService, store *cache.Store, breaker BreakerStatus, monitor *middleware.PerformanceMonitor) *Handler {
	return &Handler{
		svc:       svc,
		store:     store,
		breaker:   breaker,
		monitor:   monitor,
		startTime: time.Now(),
	}
}

// Points handles GET /api/v1/points.
func (h *Handler) Points(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	q, err := parseRangeQuery(r)
	if err != nil {
		writeQueryError(rw, err)
		return
	}

	points, err := h.svc.GetPoints(r.Context(), q)
	if err != nil {
		h.writeFetchError(rw, r, err)
		return
	}

	rw.SuccessWithCount(points, len(points))
}

// Trips handles GET /api/v1/trips.
func (h *Handler) Trips(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	q, err := parseRangeQuery(r)
	if err != nil {
		writeQueryError(rw, err)
		return
	}

	result, err := h.svc.GetTrips(r.Context(), q)
	if err != nil {
		h.writeFetchError(rw, r, err)
		return
	}

	rw.SuccessWithCount(result, len(result))
}

// Live handles GET /api/v1/live.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	filter := fleet.Filter{
		Customer: r.URL.Query().Get("customer"),
		Boat:     r.URL.Query().Get("boat"),
		IMEI:     r.URL.Query().Get("imei"),
	}

	locations, err := h.svc.GetLiveLocations(r.Context(), filter)
	if err != nil {
		if errors.Is(err, fleet.ErrMissingCredentials) {
			rw.ServiceUnavailable("Live locations are not configured")
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Msg("live-location query failed")
		rw.UpstreamError("fleet", err)
		return
	}

	rw.SuccessWithCount(locations, len(locations))
}

// Health handles GET /health. Always 200 when the process is serving;
// degraded upstreams show in the payload, not the status code, since the
// fallback chain keeps the service useful while the provider is down.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	hits, misses, size := h.store.Stats()

	payload := map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
		"cache": map[string]interface{}{
			"entries": size,
			"hits":    hits,
			"misses":  misses,
		},
	}
	if h.breaker != nil {
		payload["pelagic_circuit"] = h.breaker()
	}

	WriteSuccess(w, r, payload)
}

// Stats handles GET /api/v1/stats: per-endpoint latency aggregates from
// the in-process sliding window.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.monitor == nil {
		rw.NotFound("Stats collection is not enabled")
		return
	}
	rw.Success(h.monitor.GetStats())
}

// writeQueryError maps parameter problems to a 400 with detail.
func writeQueryError(rw *ResponseWriter, err error) {
	var verr *validation.RequestValidationError
	if errors.As(err, &verr) {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}
	rw.BadRequest(err.Error())
}

// writeFetchError maps service failures to the response envelope. Only an
// exhausted fallback chain reaches here as an error.
func (h *Handler) writeFetchError(rw *ResponseWriter, r *http.Request, err error) {
	logging.Ctx(r.Context()).Error().Err(err).Msg("point retrieval failed")
	if errors.Is(err, service.ErrAllTiersFailed) {
		rw.UpstreamError("pelagic", err)
		return
	}
	rw.InternalError("Failed to retrieve telemetry data")
}
