// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package propertydata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/time/rate"
)

// HTTPClient allows injecting mock HTTP clients for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Geocoder resolves a postal address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, addr Address) (Location, error)
}

// ParcelSource returns the county parcel record at a location.
type ParcelSource interface {
	Parcel(ctx context.Context, loc Location) (ParcelRecord, error)
}

// SoilSource returns the soil survey record at a location. A nil
// record with nil error means the survey has no coverage there.
type SoilSource interface {
	Soil(ctx context.Context, loc Location) (*SoilRecord, error)
}

// UtilitySource reports utility availability at a location.
type UtilitySource interface {
	Utilities(ctx context.Context, loc Location) (*UtilityRecord, error)
}

// EnvironmentSource reports hazard overlays at a location.
type EnvironmentSource interface {
	Environment(ctx context.Context, loc Location) (*EnvironmentRecord, error)
}

// ClientConfig configures one upstream HTTP client.
type ClientConfig struct {
	// BaseURL is the upstream root, without a trailing slash.
	BaseURL string

	// APIKey is sent as a bearer token when non-empty.
	APIKey string

	// HTTPClient is the transport; nil is rejected by constructors so
	// timeouts are always an explicit caller decision.
	HTTPClient HTTPClient

	// Limiter throttles requests to the upstream. Nil means no
	// throttling.
	Limiter *rate.Limiter
}

// userAgent identifies this service to upstreams that require one.
const userAgent = "ParcelFOSS/1.0 (+https://github.com/AleutianAI/ParcelFOSS)"

// getJSON performs a rate-limited GET and decodes the JSON body into
// out. A 404 maps to notFound; other non-OK statuses wrap ErrUpstream.
func getJSON(ctx context.Context, cfg ClientConfig, source, url string, notFound error, out any) error {
	if cfg.Limiter != nil {
		if err := cfg.Limiter.Wait(ctx); err != nil {
			return fmt.Errorf("waiting for %s rate limit: %w", source, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building %s request: %w", source, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	}

	resp, err := cfg.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", source, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return notFound
	case resp.StatusCode != http.StatusOK:
		return upstreamStatus(source, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", source, err)
	}
	return nil
}
