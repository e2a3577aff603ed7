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
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

// defaultGeocodeURL is a Nominatim-compatible public endpoint.
const defaultGeocodeURL = "https://nominatim.openstreetmap.org"

// GeocodeClient resolves postal addresses against a
// Nominatim-compatible search endpoint.
type GeocodeClient struct {
	cfg ClientConfig
}

// NewGeocodeClient creates a geocoder client.
func NewGeocodeClient(cfg ClientConfig) (*GeocodeClient, error) {
	if cfg.HTTPClient == nil {
		return nil, errors.New("geocode client requires an HTTP client")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGeocodeURL
	}
	return &GeocodeClient{cfg: cfg}, nil
}

// nominatimResult is one entry of the search response. Nominatim
// serializes coordinates as strings.
type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode resolves the address to a point, taking the top match.
func (c *GeocodeClient) Geocode(ctx context.Context, addr Address) (Location, error) {
	q := url.Values{}
	q.Set("q", addr.String())
	q.Set("format", "jsonv2")
	q.Set("limit", "1")
	endpoint := c.cfg.BaseURL + "/search?" + q.Encode()

	var results []nominatimResult
	if err := getJSON(ctx, c.cfg, "geocoder", endpoint, ErrAddressNotFound, &results); err != nil {
		return Location{}, err
	}
	if len(results) == 0 {
		return Location{}, fmt.Errorf("%w: %q", ErrAddressNotFound, addr.String())
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return Location{}, fmt.Errorf("parsing geocoder latitude %q: %w", results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return Location{}, fmt.Errorf("parsing geocoder longitude %q: %w", results[0].Lon, err)
	}

	return Location{Lat: lat, Lon: lon, Canonical: results[0].DisplayName}, nil
}
