// Tracks Explorer - Small-Scale Fisheries Vessel Tracking Portal
// Copyright 2026 WorldFish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/WorldFishCenter/tracks-explorer-sub001

// Package supervisor builds the suture/v4 supervision tree that runs the
// portal's long-lived components.
//
// The tree has a root supervisor with two child layers: a maintenance layer
// for housekeeping loops and an API layer for the HTTP server. Layering
// isolates failures: a panicking sweeper restarts under backoff without
// touching the listener.
//
// Supervision events are logged through sutureslog, bridged into zerolog by
// the logging package's slog adapter so all output lands in one stream.
//
// Service wrappers that adapt concrete components to suture.Service live in
// the services subpackage.
package supervisor
