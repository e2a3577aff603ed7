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

// Setbacks are the minimum distances from each lot boundary, in feet.
// The side value differs between primary dwellings and accessory
// structures.
type Setbacks struct {
	FrontFt         float64 `json:"front_ft" yaml:"front_ft"`
	SideFt          float64 `json:"side_ft" yaml:"side_ft"`
	SideAccessoryFt float64 `json:"side_accessory_ft" yaml:"side_accessory_ft"`
	RearFt          float64 `json:"rear_ft" yaml:"rear_ft"`
}

// SideFor returns the side setback that applies to the structure type.
func (s Setbacks) SideFor(t StructureType) float64 {
	if t.Accessory() {
		return s.SideAccessoryFt
	}
	return s.SideFt
}

// PlacementRules carries every jurisdiction-tunable value the
// evaluator and permit deriver read. Callers pass it explicitly on
// each call; there is no module-level rule state, so two zones can be
// evaluated side by side with different values.
//
// The two warning margins use different styles on purpose: coverage
// warns at a ratio of the maximum (a coverage limit is itself a
// ratio), while setback proximity warns inside an absolute band (a
// surveyor-meaningful distance). Both are explicit here so a
// jurisdiction can align them.
type PlacementRules struct {
	Setbacks Setbacks `json:"setbacks" yaml:"setbacks"`

	// SetbackWarnFt is the absolute proximity band: a structure clear
	// of a setback line but within this many feet of it draws a
	// warning.
	SetbackWarnFt float64 `json:"setback_warn_ft" yaml:"setback_warn_ft"`

	// MinSeparationFt is the minimum structure-to-structure gap.
	MinSeparationFt float64 `json:"min_separation_ft" yaml:"min_separation_ft"`

	// MaxCoveragePct caps total footprint as a percentage of lot area.
	MaxCoveragePct float64 `json:"max_coverage_pct" yaml:"max_coverage_pct"`

	// CoverageWarnRatio is the fraction of MaxCoveragePct at which the
	// approaching-limit warning fires.
	CoverageWarnRatio float64 `json:"coverage_warn_ratio" yaml:"coverage_warn_ratio"`

	// BuildingPermitSqFt is the footprint at or above which a building
	// permit is required.
	BuildingPermitSqFt float64 `json:"building_permit_sq_ft" yaml:"building_permit_sq_ft"`

	// SteepSlopePct and ModerateSlopePct grade the slope notices.
	SteepSlopePct    float64 `json:"steep_slope_pct" yaml:"steep_slope_pct"`
	ModerateSlopePct float64 `json:"moderate_slope_pct" yaml:"moderate_slope_pct"`
}

// DefaultPlacementRules returns the baseline rule values used when no
// jurisdiction rulebook is loaded. The numbers are typical suburban
// residential values, not any specific code.
func DefaultPlacementRules() PlacementRules {
	return PlacementRules{
		Setbacks: Setbacks{
			FrontFt:         25,
			SideFt:          10,
			SideAccessoryFt: 5,
			RearFt:          20,
		},
		SetbackWarnFt:      5,
		MinSeparationFt:    6,
		MaxCoveragePct:     35,
		CoverageWarnRatio:  0.90,
		BuildingPermitSqFt: 200,
		SteepSlopePct:      15,
		ModerateSlopePct:   8,
	}
}
