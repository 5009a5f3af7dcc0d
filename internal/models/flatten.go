// Tracks Explorer - Small-Scale Fisheries Vessel Tracking Portal
// Copyright 2026 WorldFish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/WorldFishCenter/tracks-explorer-sub001

package models

// Flatten collapses a nested JSON object into dotted keys, e.g.
// {"device":{"id":"D1"}} becomes {"device.id":"D1"}.
//
// The fleet API returns device records with arbitrarily nested attribute
// groups; flattening first lets field extraction address values by stable
// dotted paths regardless of nesting depth. Arrays are not descended into;
// an array value is kept as-is under its flattened key.
func Flatten(record map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(record))
	flattenInto(out, "", record)
	return out
}

func flattenInto(out map[string]interface{}, prefix string, value map[string]interface{}) {
	for key, v := range value {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if nested, ok := v.(map[string]interface{}); ok {
			flattenInto(out, full, nested)
			continue
		}
		out[full] = v
	}
}
