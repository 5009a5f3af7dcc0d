// Tracks Explorer - Small-Scale Fisheries Vessel Tracking Portal
// Copyright 2026 WorldFish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/WorldFishCenter/tracks-explorer-sub001

package services

import (
	"context"
	"time"

	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/cache"
	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/logging"
)

// defaultSweepInterval keeps sweep overhead negligible while still
// reclaiming expired entries well inside the longest cache TTL.
const defaultSweepInterval = time.Minute

// CacheSweeperService periodically purges expired cache entries.
//
// The cache expires entries lazily on lookup, which leaves entries for
// queries the dashboard never repeats sitting in memory. The sweeper runs
// on a fixed interval and removes everything already past its expiry.
type CacheSweeperService struct {
	store    *cache.Store
	interval time.Duration
	name     string
}

// NewCacheSweeperService creates a sweeper for the given store.
// A non-positive interval falls back to the default.
func NewCacheSweeperService(store *cache.Store, interval time.Duration) *CacheSweeperService {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &CacheSweeperService{
		store:    store,
		interval: interval,
		name:     "cache-sweeper",
	}
}

// Serve implements suture.Service. It sweeps on every tick until the
// context is canceled.
func (c *CacheSweeperService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if removed := c.store.Sweep(); removed > 0 {
				logging.Debug().Int("removed", removed).Msg("Swept expired cache entries")
			}
		}
	}
}

// String implements fmt.Stringer for supervisor log messages.
func (c *CacheSweeperService) String() string {
	return c.name
}
