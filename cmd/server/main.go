// Tracks Explorer - Small-Scale Fisheries Vessel Tracking Portal
// Copyright 2026 WorldFish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/WorldFishCenter/tracks-explorer-sub001

// Package main is the entry point for the Tracks Explorer backend.
//
// Tracks Explorer serves vessel tracks, reconstructed trips, and live
// locations for small-scale fisheries dashboards. It sits between the
// dashboard and an unreliable telemetry provider, layering caching,
// circuit breaking, and tiered fallbacks so a provider outage degrades
// responses instead of breaking them.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: environment variables and optional config file (Koanf v2)
//  2. Telemetry client: CSV point and trip queries behind a circuit breaker
//  3. Snapshot client: secondary JSON fallback (optional)
//  4. Fleet client: authenticated live-location queries (optional)
//  5. Cache: bounded store with recency-tiered TTLs
//  6. Trip service: fetch orchestration and trip reconstruction
//  7. HTTP server: REST API under /api/v1 plus /health and /metrics
//
// Everything long-lived runs under a suture/v4 supervisor tree with a
// maintenance layer (cache sweeper) and an API layer (HTTP server).
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, config.yaml, built-in defaults.
//
// Required:
//   - PELAGIC_URL: telemetry provider base URL
//   - PELAGIC_API_SECRET: provider API secret (X-API-SECRET header)
//
// Optional fallback and live-location tiers:
//   - SNAPSHOT_ENABLED=true, SNAPSHOT_URL: secondary snapshot service
//   - FLEET_URL, FLEET_USERNAME, FLEET_PASSWORD: live-location API;
//     without credentials, /api/v1/live returns 503 and everything else
//     works normally
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: it stops
// accepting connections, waits up to 10s for in-flight requests, and
// stops the supervisor tree.
//
// # Example Usage
//
//	export PELAGIC_URL=https://telemetry.example.com
//	export PELAGIC_API_SECRET=your-api-secret
//	./tracks-explorer
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/api"
	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/cache"
	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/config"
	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/fleet"
	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/logging"
	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/middleware"
	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/pelagic"
	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/service"
	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/snapshot"
	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/supervisor"
	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/supervisor/services"
)

const performanceWindowSize = 1000

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("pelagic_url", cfg.Pelagic.URL).
		Bool("snapshot_enabled", cfg.Snapshot.Enabled).
		Bool("fleet_configured", cfg.Fleet.HasCredentials()).
		Msg("Configuration loaded")

	// Primary telemetry client behind a circuit breaker
	primary := pelagic.NewBreakerClient(&cfg.Pelagic)

	// Secondary snapshot tier. The client is always constructed; when
	// disabled it reports Enabled()=false and the orchestrator skips it.
	snap := snapshot.NewClient(&cfg.Snapshot)

	// Live-location client, only when credentials are configured
	var fleetSource service.FleetSource
	if cfg.Fleet.HasCredentials() {
		sessions := fleet.NewSessionManager(&cfg.Fleet)
		fleetSource = fleet.NewClient(&cfg.Fleet, sessions)
		logging.Info().Str("fleet_url", cfg.Fleet.URL).Msg("Fleet live-location client enabled")
	} else {
		logging.Info().Msg("Fleet credentials not configured, live-location queries disabled")
	}

	store := cache.NewStore(cfg.Cache.Capacity)
	ttl := cache.TTLPolicy{
		Today:    cfg.Cache.TTLToday,
		Recent:   cfg.Cache.TTLRecent,
		Historic: cfg.Cache.TTLHistoric,
	}

	orch := service.NewOrchestrator(primary, snap, pelagic.ParserOptions{
		SpeedUnitThreshold: cfg.Pelagic.SpeedUnitThreshold,
	})
	svc := service.NewTripService(orch, fleetSource, store, ttl)

	monitor := middleware.NewPerformanceMonitor(performanceWindowSize)
	handler := api.NewHandler(svc, store, primary.StateString, monitor)
	router := api.NewRouter(handler, &cfg.Server, monitor)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       120 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Supervision events log through the zerolog-backed slog adapter
	tree, err := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddMaintenanceService(services.NewCacheSweeperService(store, time.Minute))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Drain until the supervisor has fully stopped
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, s := range unstopped {
		logging.Warn().Str("service", s.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Application stopped gracefully")
}
