// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package siteplan holds the site feature model and the deterministic
// placement engine: constraint evaluation for candidate structures and
// permit derivation for a parcel.
//
// All geometry lives on a local 2D plane measured in feet, anchored at
// the lot's front-left corner with y increasing away from the street.
// Every exported evaluation entry point is a pure function over
// immutable inputs; callers may invoke them concurrently as long as
// each call receives a consistent snapshot.
package siteplan

import (
	"encoding/json"
	"fmt"
)

// FeatureKind identifies what an existing site feature is. The set is
// closed; parsers reject anything outside it rather than defaulting.
type FeatureKind string

const (
	KindStructure   FeatureKind = "structure"
	KindSepticTank  FeatureKind = "septic_tank"
	KindDrainfield  FeatureKind = "drainfield"
	KindReserveArea FeatureKind = "reserve_area"
	KindWell        FeatureKind = "well"
	KindWetland     FeatureKind = "wetland"
	KindDriveway    FeatureKind = "driveway"
	KindEasement    FeatureKind = "easement"
	KindUtilityLine FeatureKind = "utility_line"
)

// Valid reports whether k is one of the known feature kinds.
func (k FeatureKind) Valid() bool {
	switch k {
	case KindStructure, KindSepticTank, KindDrainfield, KindReserveArea,
		KindWell, KindWetland, KindDriveway, KindEasement, KindUtilityLine:
		return true
	}
	return false
}

// ParseFeatureKind converts a wire string into a FeatureKind.
func ParseFeatureKind(s string) (FeatureKind, error) {
	k := FeatureKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: feature kind %q", ErrUnknownKind, s)
	}
	return k, nil
}

func (k *FeatureKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseFeatureKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// SiteFeature is one existing condition on the lot: a building, septic
// component, well, wetland, driveway, easement projection, or buried
// utility line. Features represent recorded/observed conditions and do
// not move during a session.
//
// Wells are commonly recorded as points (zero width and height); the
// rectangle math treats a zero-size rectangle as a point location.
type SiteFeature struct {
	// ID uniquely identifies the feature within one site model.
	ID string `json:"id"`

	// Kind is the closed feature tag.
	Kind FeatureKind `json:"kind"`

	// Label is the human-readable name ("main house", "drainfield").
	Label string `json:"label,omitempty"`

	// X, Y place the feature's front-left corner, in feet.
	X float64 `json:"x"`
	Y float64 `json:"y"`

	// Width runs along x, Height along y, in feet.
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	// RequiredBuffer is the clearance other structures must keep from
	// this feature, in feet. Always >= 0.
	RequiredBuffer float64 `json:"required_buffer"`

	// Editable marks features the caller may reposition in a planning
	// session. Recorded conditions (wetlands, easements) are not.
	Editable bool `json:"editable"`
}

// Rect returns the feature's footprint rectangle.
func (f SiteFeature) Rect() Rect {
	return Rect{X: f.X, Y: f.Y, W: f.Width, H: f.Height}
}

// EasementType classifies the recorded right an easement grants.
type EasementType string

const (
	EasementUtility      EasementType = "utility"
	EasementAccess       EasementType = "access"
	EasementDrainage     EasementType = "drainage"
	EasementConservation EasementType = "conservation"
	EasementScenic       EasementType = "scenic"
)

// Valid reports whether t is a known easement type.
func (t EasementType) Valid() bool {
	switch t {
	case EasementUtility, EasementAccess, EasementDrainage,
		EasementConservation, EasementScenic:
		return true
	}
	return false
}

// LotEdge names which boundary an easement runs along.
type LotEdge string

const (
	EdgeFront    LotEdge = "front"
	EdgeLeft     LotEdge = "left"
	EdgeRight    LotEdge = "right"
	EdgeRear     LotEdge = "rear"
	EdgeInterior LotEdge = "interior"
)

// Valid reports whether e is a known lot edge.
func (e LotEdge) Valid() bool {
	switch e {
	case EdgeFront, EdgeLeft, EdgeRight, EdgeRear, EdgeInterior:
		return true
	}
	return false
}

// Easement is a recorded third-party right over part of the lot. Every
// easement has a geometric projection in the site model: a SiteFeature
// with KindEasement and the same ID. NewSiteModel enforces the
// correlation in both directions.
type Easement struct {
	// ID matches the ID of the easement's SiteFeature projection.
	ID string `json:"id"`

	// Type classifies the recorded right.
	Type EasementType `json:"type"`

	// Holder names the party holding the right.
	Holder string `json:"holder"`

	// Width is the recorded easement width in feet.
	Width float64 `json:"width"`

	// Edge is the boundary the easement runs along.
	Edge LotEdge `json:"edge"`

	// Restrictions are the recorded use restrictions, verbatim.
	Restrictions []string `json:"restrictions,omitempty"`

	// RecordedDocument is the recording reference, when known.
	RecordedDocument string `json:"recorded_document,omitempty"`
}

// StructureType identifies a candidate structure being placed.
type StructureType string

const (
	StructureHouse  StructureType = "house"
	StructureADU    StructureType = "adu"
	StructureDADU   StructureType = "dadu"
	StructureGarage StructureType = "garage"
	StructureShop   StructureType = "shop"
	StructureShed   StructureType = "shed"
	StructurePool   StructureType = "pool"
	StructureBarn   StructureType = "barn"
)

// Valid reports whether t is a known structure type.
func (t StructureType) Valid() bool {
	switch t {
	case StructureHouse, StructureADU, StructureDADU, StructureGarage,
		StructureShop, StructureShed, StructurePool, StructureBarn:
		return true
	}
	return false
}

// Dwelling reports whether the type adds habitable bedrooms. Dwellings
// trigger sewage disposal permits and septic capacity review.
func (t StructureType) Dwelling() bool {
	switch t {
	case StructureHouse, StructureADU, StructureDADU:
		return true
	}
	return false
}

// Accessory reports whether the type uses the accessory side setback
// rather than the primary dwelling side setback.
func (t StructureType) Accessory() bool {
	return t != StructureHouse
}

func (t *StructureType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	st := StructureType(s)
	if !st.Valid() {
		return fmt.Errorf("%w: structure type %q", ErrUnknownKind, s)
	}
	*t = st
	return nil
}

// CandidateStructure is a structure the caller is trying to place. The
// engine treats every evaluation call as a fresh snapshot; candidates
// are mutated only by the caller between calls. Rotation is a display
// concern and is not modeled here.
type CandidateStructure struct {
	ID       string        `json:"id"`
	Type     StructureType `json:"type"`
	Label    string        `json:"label,omitempty"`
	X        float64       `json:"x"`
	Y        float64       `json:"y"`
	Width    float64       `json:"width"`
	Depth    float64       `json:"depth"`
	Bedrooms int           `json:"bedrooms,omitempty"`
	Stories  int           `json:"stories,omitempty"`
}

// Rect returns the candidate's footprint rectangle.
func (c CandidateStructure) Rect() Rect {
	return Rect{X: c.X, Y: c.Y, W: c.Width, H: c.Depth}
}

// Footprint returns the candidate's footprint area in square feet.
func (c CandidateStructure) Footprint() float64 {
	return c.Width * c.Depth
}

// DisplayName prefers the label and falls back to the type tag.
func (c CandidateStructure) DisplayName() string {
	if c.Label != "" {
		return c.Label
	}
	return string(c.Type)
}

// LotDimensions carries the buildable plane's extents in feet.
type LotDimensions struct {
	WidthFt float64 `json:"width_ft"`
	DepthFt float64 `json:"depth_ft"`
}

// AreaSqFt returns the lot area in square feet.
func (l LotDimensions) AreaSqFt() float64 {
	return l.WidthFt * l.DepthFt
}
