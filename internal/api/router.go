// Tracks Explorer - Small-Scale Fisheries Vessel Tracking Portal
// Copyright 2026 WorldFish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/WorldFishCenter/tracks-explorer-sub001

// Package api provides HTTP routing using the chi router.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/config"
	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/middleware"
)

// Router assembles the HTTP surface.
type Router struct {
	handler *Handler
	cfg     *config.ServerConfig
	monitor *middleware.PerformanceMonitor
}

// NewRouter creates a router over the given handler set.
func NewRouter(handler *Handler, cfg *config.ServerConfig, monitor *middleware.PerformanceMonitor) *Router {
	return &Router{
		handler: handler,
		cfg:     cfg,
		monitor: monitor,
	}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	// Applied to ALL routes in order
	r.Use(middleware.RequestID)    // X-Request-ID header plus logging context
	r.Use(chimiddleware.RealIP)    // Extract real IP from X-Forwarded-For
	r.Use(chimiddleware.Recoverer) // Recover from panics
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   router.cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// ========================
	// Operational Endpoints
	// ========================
	// Health and metrics bypass the API rate limit so monitoring keeps
	// working while the API is saturated.
	r.Get("/health", router.handler.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// ========================
	// Data Endpoints
	// ========================
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(router.cfg.RateLimitReqs, router.cfg.RateLimitWindow))
		r.Use(middleware.PrometheusMetrics)
		if router.monitor != nil {
			r.Use(router.monitor.Middleware)
		}
		r.Use(middleware.Compression)

		r.Get("/points", router.handler.Points)
		r.Get("/trips", router.handler.Trips)
		r.Get("/live", router.handler.Live)
		r.Get("/stats", router.handler.Stats)
	})

	return r
}
