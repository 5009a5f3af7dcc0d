// Tracks Explorer - Small-Scale Fisheries Vessel Tracking Portal
// Copyright 2026 WorldFish
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/WorldFishCenter/tracks-explorer-sub001

// Package validation provides struct validation using go-playground/validator v10.
//
// This package wraps the go-playground/validator library to provide a thread-safe
// singleton validator instance with custom validators and user-friendly error
// messages. It integrates with the application's API error format for consistent
// error responses.
//
// # Overview
//
// The package provides:
//   - Thread-safe singleton validator (initialized once, cached struct info)
//   - Custom "flexdate" validator: RFC3339 timestamps or bare YYYY-MM-DD dates
//   - Custom "deviceid" validator: telemetry device identifier shape
//   - Error translation to human-readable messages
//   - APIError conversion matching the application's error format
//
// # Quick Start
//
//	type PointsRequest struct {
//	    From    string `validate:"required,flexdate"`
//	    To      string `validate:"required,flexdate"`
//	    Devices string `validate:"omitempty,max=2000"`
//	}
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//	    req := PointsRequest{
//	        From:    r.URL.Query().Get("from"),
//	        To:      r.URL.Query().Get("to"),
//	        Devices: r.URL.Query().Get("devices"),
//	    }
//
//	    if verr := validation.ValidateStruct(&req); verr != nil {
//	        apiErr := verr.ToAPIError()
//	        respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
//	        return
//	    }
//
//	    // proceed with valid request
//	}
//
// # Common Validation Tags
//
// String validations:
//   - required: Field must not be empty
//   - min=n: Minimum length n characters
//   - max=n: Maximum length n characters
//   - flexdate: RFC3339 timestamp or YYYY-MM-DD date
//   - deviceid: Telemetry device identifier
//
// Numeric validations:
//   - gte=n / lte=n / gt=n / lt=n: Range bounds
//   - min=n / max=n: Minimum and maximum value
//
// Enum validations:
//   - oneof=a b c: Must be one of the specified values
//
// Coordinate validations:
//   - latitude: Valid latitude (-90 to 90)
//   - longitude: Valid longitude (-180 to 180)
//
// # API Error Integration
//
// The ToAPIError method produces errors matching the application format:
//
//	// Single field error
//	{
//	    "code": "VALIDATION_ERROR",
//	    "message": "From must be an RFC3339 timestamp or a YYYY-MM-DD date",
//	    "details": {"field": "From", "tag": "flexdate", "value": "yesterday"}
//	}
//
//	// Multiple field errors
//	{
//	    "code": "VALIDATION_ERROR",
//	    "message": "From: required; To: required",
//	    "details": {
//	        "fields": [
//	            {"field": "From", "tag": "required", "message": "..."},
//	            {"field": "To", "tag": "required", "message": "..."}
//	        ]
//	    }
//	}
//
// # Thread Safety
//
// The singleton validator is initialized once and safe for concurrent use:
//
//	validate := validation.GetValidator()  // Thread-safe
//	err := validation.ValidateStruct(&req) // Thread-safe
//
// # See Also
//
//   - internal/api: Request handlers using validation
//   - github.com/go-playground/validator/v10: Underlying library
package validation
