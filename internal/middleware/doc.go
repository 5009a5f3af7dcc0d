// Tracks Explorer - Small-Scale Fisheries Vessel Tracking Portal
// Copyright 2026 WorldFish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/WorldFishCenter/tracks-explorer-sub001

/*
Package middleware provides HTTP middleware components for the application.

This package implements infrastructure middleware for compression, performance
monitoring, request ID tracking, and Prometheus metrics integration. CORS and
per-IP rate limiting come from the chi ecosystem and are wired directly in the
router.

Key Components:

  - Compression: Gzip compression for point and trip payloads
  - Performance Monitor: Request latency tracking with percentile calculations
  - Request ID: UUID-based request tracking for log correlation
  - Prometheus Metrics: HTTP request/response instrumentation

Middleware Stack:

The router applies middleware outermost first:

	r.Use(middleware.RequestID)          // request tracking
	r.Use(middleware.PrometheusMetrics)  // metrics
	r.Use(perfMon.Middleware)            // latency window
	r.Use(middleware.Compression)        // gzip
	// cors.Handler and httprate.LimitByIP are added alongside

Usage Example - Request ID:

	func handler(w http.ResponseWriter, r *http.Request) {
	    requestID := middleware.GetRequestID(r.Context())
	    logging.Ctx(r.Context()).Info().Msg("processing request")
	    _ = requestID
	}

Thread Safety:

All middleware components are thread-safe:
  - Compression uses a sync.Pool of per-request gzip writers
  - Performance monitor uses sync.RWMutex over its sliding window
  - Request ID uses context.Context (immutable)
  - Prometheus metrics use atomic operations

See Also:

  - internal/api: HTTP handlers wrapped by middleware
  - internal/metrics: Prometheus metrics definitions
*/
package middleware
