// Tracks Explorer - Small-Scale Fisheries Vessel Tracking Portal
// Copyright 2026 WorldFish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/WorldFishCenter/tracks-explorer-sub001

// Package services adapts the portal's long-lived components to the
// suture.Service interface so the supervisor tree can run and restart them.
//
// Each wrapper follows the same shape: Serve blocks until the context is
// canceled or the underlying component fails, and String names the service
// for supervisor log messages.
package services
