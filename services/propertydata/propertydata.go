// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package propertydata fetches public records for a parcel: geocoding,
// the county parcel record, the soil survey, utility availability, and
// environmental hazard layers.
//
// The package deals in wire-level records with plain string fields;
// mapping onto the evaluator's and classifier's typed models happens
// in the report service. Records from optional sources are pointers:
// nil means the source had no answer, which downstream code treats as
// missing data rather than a clean bill.
package propertydata

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for source outcomes.
var (
	// ErrAddressNotFound means the geocoder had no match.
	ErrAddressNotFound = errors.New("address not found")

	// ErrParcelNotFound means no parcel record covers the location.
	ErrParcelNotFound = errors.New("parcel not found")

	// ErrUpstream wraps unexpected upstream responses.
	ErrUpstream = errors.New("upstream error")
)

// Address is a postal address as entered by the user.
type Address struct {
	Line  string `json:"line"`
	City  string `json:"city"`
	State string `json:"state"`
	Zip   string `json:"zip"`
}

// String renders the address the way the geocoder consumes it.
func (a Address) String() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{a.Line, a.City, a.State, a.Zip} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, ", ")
}

// Location is a geocoded point with the canonical address string the
// geocoder resolved.
type Location struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Canonical string  `json:"canonical"`
}

// StructureRecord is one existing structure from the county's
// building footprint layer. Coordinates are feet from the parcel's
// northwest corner, matching the site model's frame.
type StructureRecord struct {
	ID      string  `json:"id"`
	Type    string  `json:"type"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	WidthFt float64 `json:"width_ft"`
	DepthFt float64 `json:"depth_ft"`
}

// EasementRecord is one recorded easement from the title layer.
type EasementRecord struct {
	ID               string   `json:"id"`
	Type             string   `json:"type"`
	Holder           string   `json:"holder"`
	WidthFt          float64  `json:"width_ft"`
	Edge             string   `json:"edge"`
	Restrictions     []string `json:"restrictions,omitempty"`
	RecordedDocument string   `json:"recorded_document,omitempty"`
}

// SepticRecord is one permitted on-site sewage component from the
// health district layer.
type SepticRecord struct {
	Kind    string  `json:"kind"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	WidthFt float64 `json:"width_ft"`
	DepthFt float64 `json:"depth_ft"`
}

// ParcelRecord is the county assessor and GIS record for one parcel.
type ParcelRecord struct {
	ParcelID   string            `json:"parcel_id"`
	AreaSqFt   float64           `json:"area_sq_ft"`
	WidthFt    float64           `json:"width_ft"`
	DepthFt    float64           `json:"depth_ft"`
	ZoneCode   string            `json:"zone_code"`
	SlopePct   float64           `json:"slope_pct"`
	Structures []StructureRecord `json:"structures,omitempty"`
	Easements  []EasementRecord  `json:"easements,omitempty"`
	Septic     []SepticRecord    `json:"septic,omitempty"`
	WellX      float64           `json:"well_x,omitempty"`
	WellY      float64           `json:"well_y,omitempty"`
	HasWell    bool              `json:"has_well"`
}

// SoilRecord is the soil survey's verdict for the parcel.
type SoilRecord struct {
	Rating      string   `json:"rating"`
	Limitations []string `json:"limitations,omitempty"`
}

// UtilityRecord reports service availability at the parcel.
type UtilityRecord struct {
	SewerAvailable           bool    `json:"sewer_available"`
	SewerDistanceFt          float64 `json:"sewer_distance_ft,omitempty"`
	SewerConnectionMandatory bool    `json:"sewer_connection_mandatory"`
	WaterAvailable           bool    `json:"water_available"`
	GasAvailable             bool    `json:"gas_available"`
}

// WetlandRecord is one mapped wetland polygon clipped to the parcel,
// reduced to its bounding box in parcel coordinates.
type WetlandRecord struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	WidthFt  float64 `json:"width_ft"`
	DepthFt  float64 `json:"depth_ft"`
	BufferFt float64 `json:"buffer_ft"`
}

// EnvironmentRecord aggregates the hazard overlays touching the
// parcel.
type EnvironmentRecord struct {
	FloodZone     bool            `json:"flood_zone"`
	FloodZoneCode string          `json:"flood_zone_code,omitempty"`
	Wetlands      []WetlandRecord `json:"wetlands,omitempty"`
}

// WetlandPresent reports whether any wetland polygon touches the
// parcel.
func (e EnvironmentRecord) WetlandPresent() bool {
	return len(e.Wetlands) > 0
}

// PropertyRecord is everything the sources produced for one address.
//
// Parcel data is mandatory; the record does not exist without it.
// Soil, Utilities, and Environment are nil when their source failed or
// had no coverage, with the source named in Partial.
type PropertyRecord struct {
	Location    Location           `json:"location"`
	Parcel      ParcelRecord       `json:"parcel"`
	Soil        *SoilRecord        `json:"soil,omitempty"`
	Utilities   *UtilityRecord     `json:"utilities,omitempty"`
	Environment *EnvironmentRecord `json:"environment,omitempty"`

	// FetchedAt is when the record was assembled (UTC).
	FetchedAt time.Time `json:"fetched_at"`

	// Partial lists sources that failed, in sorted order. Empty means
	// a complete record.
	Partial []string `json:"partial,omitempty"`
}

// Complete reports whether every optional source answered.
func (r PropertyRecord) Complete() bool {
	return len(r.Partial) == 0
}

// upstreamStatus wraps a non-OK HTTP status from a source.
func upstreamStatus(source, status string) error {
	return fmt.Errorf("%w: %s returned status %s", ErrUpstream, source, status)
}
