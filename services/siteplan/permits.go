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

// PermitType identifies a permit or review process.
type PermitType string

const (
	PermitBuilding      PermitType = "building"
	PermitSepticSystem  PermitType = "on_site_sewage"
	PermitSewerConnect  PermitType = "sewer_connection"
	PermitElectrical    PermitType = "electrical"
	PermitGrading       PermitType = "grading"
	PermitCriticalAreas PermitType = "critical_areas_review"
)

// PermitRequirement is one derived permit with its issuing authority
// and planning estimates. Fee and timeline strings are rough guidance
// for budgeting, not quotes.
type PermitRequirement struct {
	PermitType        PermitType `json:"permit_type"`
	Authority         string     `json:"authority"`
	EstimatedFeeRange string     `json:"estimated_fee_range"`
	TimelineEstimate  string     `json:"timeline_estimate"`
	Required          bool       `json:"required"`

	// TriggeredBy lists what caused the requirement, one entry per
	// triggering structure or site condition.
	TriggeredBy []string `json:"triggered_by"`
}

// permitText holds the fixed authority/fee/timeline strings per type.
var permitText = map[PermitType]PermitRequirement{
	PermitBuilding: {
		Authority:         "City/County Building Department",
		EstimatedFeeRange: "$500-$3,000",
		TimelineEstimate:  "2-8 weeks",
	},
	PermitSepticSystem: {
		Authority:         "County Health Department",
		EstimatedFeeRange: "$800-$2,500",
		TimelineEstimate:  "4-12 weeks",
	},
	PermitSewerConnect: {
		Authority:         "Sewer District / Public Works",
		EstimatedFeeRange: "$2,000-$15,000",
		TimelineEstimate:  "2-6 weeks",
	},
	PermitElectrical: {
		Authority:         "State Electrical Inspector",
		EstimatedFeeRange: "$100-$600",
		TimelineEstimate:  "1-2 weeks",
	},
	PermitGrading: {
		Authority:         "City/County Building Department",
		EstimatedFeeRange: "$300-$1,500",
		TimelineEstimate:  "2-6 weeks",
	},
	PermitCriticalAreas: {
		Authority:         "County Planning / Ecology",
		EstimatedFeeRange: "$1,000-$5,000",
		TimelineEstimate:  "6-16 weeks",
	},
}

// permitOrder fixes the output ordering.
var permitOrder = []PermitType{
	PermitBuilding,
	PermitSepticSystem,
	PermitSewerConnect,
	PermitElectrical,
	PermitGrading,
	PermitCriticalAreas,
}

// DerivePermits derives the permit list for a set of placed
// structures on a site.
//
// # Description
//
// Each rule is independent and additive: a single structure can
// trigger several permits, and a permit triggered by any satisfied
// precondition stays in the list. Rules keyed on site conditions
// alone (slope, wetland, flood zone) fire even for an empty layout,
// so a bare parcel report still names its review processes. The
// result holds one entry per permit type with every trigger recorded,
// in a fixed type order. Deriving again from unchanged inputs yields
// an identical list.
//
// Rules:
//   - footprint at or over rules.BuildingPermitSqFt: building permit
//   - dwelling without public sewer: on-site sewage permit
//   - dwelling with public sewer: sewer connection permit
//   - dwelling, pool, or shop: electrical permit
//   - slope over rules.SteepSlopePct, or any pool: grading permit
//   - wetland on site or flood-zone parcel: critical areas review
func DerivePermits(candidates []CandidateStructure, site *SiteModel, rules PlacementRules) []PermitRequirement {
	if site == nil {
		site = &SiteModel{}
	}
	triggers := make(map[PermitType][]string)
	add := func(t PermitType, reason string) {
		triggers[t] = append(triggers[t], reason)
	}

	for _, c := range candidates {
		name := c.DisplayName()
		if c.Footprint() >= rules.BuildingPermitSqFt {
			add(PermitBuilding, fmt.Sprintf("%s footprint of %.0f sq ft", name, c.Footprint()))
		}
		if c.Type.Dwelling() {
			if site.Utilities.SewerAvailable {
				add(PermitSewerConnect, fmt.Sprintf("new dwelling (%s) with public sewer available", name))
			} else {
				add(PermitSepticSystem, fmt.Sprintf("new dwelling (%s) without public sewer", name))
			}
		}
		if c.Type.Dwelling() || c.Type == StructurePool || c.Type == StructureShop {
			add(PermitElectrical, fmt.Sprintf("electrical service for %s", name))
		}
		if c.Type == StructurePool {
			add(PermitGrading, fmt.Sprintf("pool excavation (%s)", name))
		}
	}

	if site.SlopePercent > rules.SteepSlopePct {
		add(PermitGrading, fmt.Sprintf("site slope of %.1f%%", site.SlopePercent))
	}
	if site.HasKind(KindWetland) {
		add(PermitCriticalAreas, "wetland present on parcel")
	}
	if site.FloodZone {
		add(PermitCriticalAreas, "parcel in mapped flood zone")
	}

	var out []PermitRequirement
	for _, t := range permitOrder {
		reasons, ok := triggers[t]
		if !ok {
			continue
		}
		req := permitText[t]
		req.PermitType = t
		req.Required = true
		req.TriggeredBy = reasons
		out = append(out, req)
	}
	return out
}
