// Tracks Explorer - Small-Scale Fisheries Vessel Tracking Portal
// Copyright 2026 WorldFish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/WorldFishCenter/tracks-explorer-sub001

package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/service"
	"github.com/WorldFishCenter/tracks-explorer-sub001/internal/validation"
)

// defaultWindowDays is the query window applied when no dates are given:
// a week of fishing activity, which is what the dashboard opens on.
const defaultWindowDays = 7

// maxWindowDays caps the requested window so a single query cannot ask the
// provider for years of points.
const maxWindowDays = 92

// rangeParams is the validated shape of the from/to/devices query string.
type rangeParams struct {
	From    string `validate:"omitempty,flexdate"`
	To      string `validate:"omitempty,flexdate"`
	Devices string `validate:"omitempty,max=2000"`
}

// parseRangeQuery extracts and validates the date window and device set
// from the request. Missing dates default to the last week; a bare date in
// "to" is widened to the end of that day so the day itself is included.
func parseRangeQuery(r *http.Request) (service.Query, error) {
	params := rangeParams{
		From:    r.URL.Query().Get("from"),
		To:      r.URL.Query().Get("to"),
		Devices: r.URL.Query().Get("devices"),
	}
	if verr := validation.ValidateStruct(&params); verr != nil {
		return service.Query{}, verr
	}

	now := time.Now().UTC()
	from := now.AddDate(0, 0, -defaultWindowDays)
	to := now

	if params.From != "" {
		ts, err := validation.ParseFlexDate(params.From)
		if err != nil {
			return service.Query{}, err
		}
		from = ts
	}
	if params.To != "" {
		ts, err := validation.ParseFlexDate(params.To)
		if err != nil {
			return service.Query{}, err
		}
		// A bare date means "through that day".
		if len(params.To) == len("2006-01-02") {
			ts = ts.Add(24*time.Hour - time.Second)
		}
		to = ts
	}

	if to.Before(from) {
		return service.Query{}, fmt.Errorf("to (%s) must not precede from (%s)",
			to.Format(time.RFC3339), from.Format(time.RFC3339))
	}
	if to.Sub(from) > maxWindowDays*24*time.Hour {
		return service.Query{}, fmt.Errorf("window exceeds %d days", maxWindowDays)
	}

	return service.Query{
		From:      from,
		To:        to,
		DeviceIDs: splitDevices(params.Devices),
	}, nil
}

// splitDevices parses the comma-separated device list, dropping empty
// elements so trailing commas are harmless.
func splitDevices(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}
