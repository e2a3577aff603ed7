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
)

// CountyClient reads a county open-data portal: assessor parcels, the
// soil survey overlay, utility district layers, and hazard overlays.
// One client serves all four sources because portals expose them under
// one host and API key.
type CountyClient struct {
	cfg ClientConfig
}

// NewCountyClient creates a county portal client.
func NewCountyClient(cfg ClientConfig) (*CountyClient, error) {
	if cfg.HTTPClient == nil {
		return nil, errors.New("county client requires an HTTP client")
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("county client requires a base URL")
	}
	return &CountyClient{cfg: cfg}, nil
}

func (c *CountyClient) pointQuery(path string, loc Location) string {
	return fmt.Sprintf("%s%s?lat=%.6f&lon=%.6f", c.cfg.BaseURL, path, loc.Lat, loc.Lon)
}

// --- Parcel layer ---

type parcelResponse struct {
	Parcels []parcelAttributes `json:"parcels"`
}

type parcelAttributes struct {
	Pin        string  `json:"pin"`
	AreaSqFt   float64 `json:"area_sq_ft"`
	WidthFt    float64 `json:"width_ft"`
	DepthFt    float64 `json:"depth_ft"`
	Zone       string  `json:"zone"`
	SlopePct   float64 `json:"slope_pct"`
	Structures []struct {
		ID      string  `json:"id"`
		Type    string  `json:"type"`
		X       float64 `json:"x"`
		Y       float64 `json:"y"`
		WidthFt float64 `json:"width_ft"`
		DepthFt float64 `json:"depth_ft"`
	} `json:"structures"`
	Easements []struct {
		ID           string   `json:"id"`
		Type         string   `json:"type"`
		Holder       string   `json:"holder"`
		WidthFt      float64  `json:"width_ft"`
		Edge         string   `json:"edge"`
		Restrictions []string `json:"restrictions"`
		Document     string   `json:"document"`
	} `json:"easements"`
	Septic []struct {
		Kind    string  `json:"kind"`
		X       float64 `json:"x"`
		Y       float64 `json:"y"`
		WidthFt float64 `json:"width_ft"`
		DepthFt float64 `json:"depth_ft"`
	} `json:"septic"`
	Well *struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	} `json:"well"`
}

// Parcel returns the parcel record covering the location.
func (c *CountyClient) Parcel(ctx context.Context, loc Location) (ParcelRecord, error) {
	var resp parcelResponse
	if err := getJSON(ctx, c.cfg, "parcel layer", c.pointQuery("/v1/parcels", loc), ErrParcelNotFound, &resp); err != nil {
		return ParcelRecord{}, err
	}
	if len(resp.Parcels) == 0 {
		return ParcelRecord{}, fmt.Errorf("%w: no parcel at %.6f,%.6f", ErrParcelNotFound, loc.Lat, loc.Lon)
	}

	attrs := resp.Parcels[0]
	rec := ParcelRecord{
		ParcelID: attrs.Pin,
		AreaSqFt: attrs.AreaSqFt,
		WidthFt:  attrs.WidthFt,
		DepthFt:  attrs.DepthFt,
		ZoneCode: attrs.Zone,
		SlopePct: attrs.SlopePct,
	}
	for _, s := range attrs.Structures {
		rec.Structures = append(rec.Structures, StructureRecord{
			ID: s.ID, Type: s.Type,
			X: s.X, Y: s.Y, WidthFt: s.WidthFt, DepthFt: s.DepthFt,
		})
	}
	for _, e := range attrs.Easements {
		rec.Easements = append(rec.Easements, EasementRecord{
			ID: e.ID, Type: e.Type, Holder: e.Holder,
			WidthFt: e.WidthFt, Edge: e.Edge,
			Restrictions:     e.Restrictions,
			RecordedDocument: e.Document,
		})
	}
	for _, s := range attrs.Septic {
		rec.Septic = append(rec.Septic, SepticRecord{
			Kind: s.Kind,
			X:    s.X, Y: s.Y, WidthFt: s.WidthFt, DepthFt: s.DepthFt,
		})
	}
	if attrs.Well != nil {
		rec.HasWell = true
		rec.WellX = attrs.Well.X
		rec.WellY = attrs.Well.Y
	}
	return rec, nil
}

// --- Soil survey layer ---

type soilResponse struct {
	Rating      string   `json:"rating"`
	Limitations []string `json:"limitations"`
}

// Soil returns the soil survey record, or nil when the survey has no
// coverage at the location.
func (c *CountyClient) Soil(ctx context.Context, loc Location) (*SoilRecord, error) {
	var resp soilResponse
	err := getJSON(ctx, c.cfg, "soil survey", c.pointQuery("/v1/soil", loc), errSoilNoCoverage, &resp)
	if errors.Is(err, errSoilNoCoverage) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if resp.Rating == "" {
		return nil, nil
	}
	return &SoilRecord{Rating: resp.Rating, Limitations: resp.Limitations}, nil
}

// errSoilNoCoverage is internal; a 404 from the soil layer means no
// coverage, not a failure.
var errSoilNoCoverage = errors.New("soil survey has no coverage")

// --- Utility district layer ---

type utilityResponse struct {
	SewerAvailable  bool    `json:"sewer_available"`
	SewerDistanceFt float64 `json:"sewer_distance_ft"`
	SewerMandatory  bool    `json:"sewer_connection_mandatory"`
	WaterAvailable  bool    `json:"water_available"`
	GasAvailable    bool    `json:"gas_available"`
}

// Utilities reports district service availability at the location.
func (c *CountyClient) Utilities(ctx context.Context, loc Location) (*UtilityRecord, error) {
	var resp utilityResponse
	err := getJSON(ctx, c.cfg, "utility layer", c.pointQuery("/v1/utilities", loc), errNoUtilityData, &resp)
	if errors.Is(err, errNoUtilityData) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &UtilityRecord{
		SewerAvailable:           resp.SewerAvailable,
		SewerDistanceFt:          resp.SewerDistanceFt,
		SewerConnectionMandatory: resp.SewerMandatory,
		WaterAvailable:           resp.WaterAvailable,
		GasAvailable:             resp.GasAvailable,
	}, nil
}

var errNoUtilityData = errors.New("no utility district data")

// --- Hazard overlay layer ---

type hazardResponse struct {
	Flood *struct {
		Zone string `json:"zone"`
	} `json:"flood"`
	Wetlands []struct {
		X        float64 `json:"x"`
		Y        float64 `json:"y"`
		WidthFt  float64 `json:"width_ft"`
		DepthFt  float64 `json:"depth_ft"`
		BufferFt float64 `json:"buffer_ft"`
	} `json:"wetlands"`
}

// Environment reports flood and wetland overlays at the location, or
// nil when the hazard layers have no coverage.
func (c *CountyClient) Environment(ctx context.Context, loc Location) (*EnvironmentRecord, error) {
	var resp hazardResponse
	err := getJSON(ctx, c.cfg, "hazard layer", c.pointQuery("/v1/hazards", loc), errNoHazardData, &resp)
	if errors.Is(err, errNoHazardData) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rec := &EnvironmentRecord{}
	if resp.Flood != nil {
		rec.FloodZone = true
		rec.FloodZoneCode = resp.Flood.Zone
	}
	for _, w := range resp.Wetlands {
		rec.Wetlands = append(rec.Wetlands, WetlandRecord{
			X: w.X, Y: w.Y,
			WidthFt: w.WidthFt, DepthFt: w.DepthFt,
			BufferFt: w.BufferFt,
		})
	}
	return rec, nil
}

var errNoHazardData = errors.New("no hazard layer data")
