// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package siteplan

import "fmt"

// UtilityStatus carries resolved utility availability for the parcel.
// It comes from the utility-lookup collaborator; the engine only reads
// it to phrase notices and derive permits.
type UtilityStatus struct {
	SewerAvailable bool `json:"sewer_available"`

	// SewerDistanceFt is the distance to the nearest sewer main, in
	// feet. Zero when unknown or when no sewer is available.
	SewerDistanceFt float64 `json:"sewer_distance_ft,omitempty"`

	// SewerConnectionMandatory marks parcels inside a mandatory
	// connection zone. Resolved upstream from the jurisdiction's
	// connection distance rule.
	SewerConnectionMandatory bool `json:"sewer_connection_mandatory"`

	WaterAvailable bool `json:"water_available"`
	GasAvailable   bool `json:"gas_available"`
}

// SiteModelParams is the input to NewSiteModel. The feature and
// easement sets come from the data-derivation collaborator once per
// property lookup.
type SiteModelParams struct {
	Features  []SiteFeature
	Easements []Easement

	// FloodZone marks the whole parcel; flood status is never
	// position-dependent.
	FloodZone     bool
	FloodZoneCode string

	// SlopePercent is the parcel's representative slope grade.
	SlopePercent float64

	Utilities UtilityStatus
}

// SiteModel is the validated, read-only representation of a lot's
// existing conditions for the lifetime of a planning session. Build it
// with NewSiteModel; a zero SiteModel is valid and empty.
type SiteModel struct {
	Features  []SiteFeature `json:"features"`
	Easements []Easement    `json:"easements,omitempty"`

	FloodZone     bool    `json:"flood_zone"`
	FloodZoneCode string  `json:"flood_zone_code,omitempty"`
	SlopePercent  float64 `json:"slope_percent"`

	Utilities UtilityStatus `json:"utilities"`
}

// NewSiteModel validates the feature and easement sets and returns the
// immutable model. Violations are construction-time defects: bad data
// from a collaborator should fail the lookup, not ride into
// evaluation.
//
// Enforced invariants:
//   - every feature has a non-empty ID, a known kind, RequiredBuffer
//     >= 0, and non-negative width/height
//   - feature IDs are unique; easement IDs are unique
//   - every easement has exactly one feature projection with the same
//     ID and KindEasement, and every KindEasement feature has a
//     matching easement record
func NewSiteModel(p SiteModelParams) (*SiteModel, error) {
	featureIDs := make(map[string]FeatureKind, len(p.Features))
	for _, f := range p.Features {
		if f.ID == "" {
			return nil, fmt.Errorf("%w: feature with empty id (label %q)", ErrInvalidFeature, f.Label)
		}
		if !f.Kind.Valid() {
			return nil, fmt.Errorf("%w: feature %s kind %q", ErrUnknownKind, f.ID, f.Kind)
		}
		if f.RequiredBuffer < 0 {
			return nil, fmt.Errorf("%w: feature %s required buffer %.1f", ErrInvalidFeature, f.ID, f.RequiredBuffer)
		}
		if f.Width < 0 || f.Height < 0 {
			return nil, fmt.Errorf("%w: feature %s has negative size", ErrInvalidFeature, f.ID)
		}
		if _, ok := featureIDs[f.ID]; ok {
			return nil, fmt.Errorf("%w: feature %s", ErrDuplicateID, f.ID)
		}
		featureIDs[f.ID] = f.Kind
	}

	easementIDs := make(map[string]struct{}, len(p.Easements))
	for _, e := range p.Easements {
		if e.ID == "" {
			return nil, fmt.Errorf("%w: easement with empty id (holder %q)", ErrInvalidFeature, e.Holder)
		}
		if !e.Type.Valid() {
			return nil, fmt.Errorf("%w: easement %s type %q", ErrUnknownKind, e.ID, e.Type)
		}
		if !e.Edge.Valid() {
			return nil, fmt.Errorf("%w: easement %s edge %q", ErrUnknownKind, e.ID, e.Edge)
		}
		if _, ok := easementIDs[e.ID]; ok {
			return nil, fmt.Errorf("%w: easement %s", ErrDuplicateID, e.ID)
		}
		easementIDs[e.ID] = struct{}{}

		kind, ok := featureIDs[e.ID]
		if !ok {
			return nil, fmt.Errorf("%w: easement %s has no feature projection", ErrEasementMismatch, e.ID)
		}
		if kind != KindEasement {
			return nil, fmt.Errorf("%w: feature %s is %s, want %s", ErrEasementMismatch, e.ID, kind, KindEasement)
		}
	}
	for id, kind := range featureIDs {
		if kind != KindEasement {
			continue
		}
		if _, ok := easementIDs[id]; !ok {
			return nil, fmt.Errorf("%w: feature %s has no easement record", ErrEasementMismatch, id)
		}
	}

	return &SiteModel{
		Features:      append([]SiteFeature(nil), p.Features...),
		Easements:     append([]Easement(nil), p.Easements...),
		FloodZone:     p.FloodZone,
		FloodZoneCode: p.FloodZoneCode,
		SlopePercent:  p.SlopePercent,
		Utilities:     p.Utilities,
	}, nil
}

// FeaturesOfKind returns the features with the given kind, in model
// order.
func (m *SiteModel) FeaturesOfKind(kind FeatureKind) []SiteFeature {
	var out []SiteFeature
	for _, f := range m.Features {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

// HasKind reports whether any feature has the given kind.
func (m *SiteModel) HasKind(kind FeatureKind) bool {
	for _, f := range m.Features {
		if f.Kind == kind {
			return true
		}
	}
	return false
}

// EasementByID returns the easement record with the given ID.
func (m *SiteModel) EasementByID(id string) (Easement, bool) {
	for _, e := range m.Easements {
		if e.ID == id {
			return e, true
		}
	}
	return Easement{}, false
}

// ExistingFootprintSqFt sums the footprints of existing structures.
// Only KindStructure counts toward lot coverage; driveways, septic
// components and easements do not.
func (m *SiteModel) ExistingFootprintSqFt() float64 {
	var total float64
	for _, f := range m.Features {
		if f.Kind == KindStructure {
			total += f.Width * f.Height
		}
	}
	return total
}
