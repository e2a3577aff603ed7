// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rulebook

import (
	"fmt"

	"github.com/AleutianAI/ParcelFOSS/services/actions"
	"github.com/AleutianAI/ParcelFOSS/services/siteplan"
)

const (
	// sqFtPerAcre converts parcel area to acres for density math.
	sqFtPerAcre = 43560.0

	// minLotWarnHeadroom: a lot that clears an area minimum by less
	// than this ratio draws a warn instead of a pass.
	minLotWarnHeadroom = 1.1

	// multiUnitFloor is the unit count below which a density check
	// fails for multi-unit housing.
	multiUnitFloor = 2

	// multiUnitWarnCeiling is the unit count below which a passing
	// density check still warns.
	multiUnitWarnCeiling = 3
)

// Checks evaluates the zone's rule table against one parcel.
//
// # Description
//
// Produces the rule checks the action classifier consumes. Checks
// that depend on parcel area are omitted when the area is unknown
// (zero or negative), so the classifier reports a data gap instead of
// guessing. Zone-level standards that hold regardless of the parcel
// (setback distances, coverage and height caps) always appear, as
// pass entries carrying the standard's text and citation.
//
// # Inputs
//
//   - zoneCode: Zone code, matched case-insensitively.
//   - parcelAreaSqFt: Parcel area; zero or negative means unknown.
//
// # Outputs
//
//   - map[actions.RuleType]actions.RuleCheck: Checks keyed by rule type.
//   - bool: False if the zone code is not in the rulebook.
func (rb *Rulebook) Checks(zoneCode string, parcelAreaSqFt float64) (map[actions.RuleType]actions.RuleCheck, bool) {
	z, ok := rb.Zone(zoneCode)
	if !ok {
		return nil, false
	}
	areaKnown := parcelAreaSqFt > 0
	checks := make(map[actions.RuleType]actions.RuleCheck, 9)
	put := func(c actions.RuleCheck) { checks[c.Type] = c }

	if areaKnown {
		put(areaCheck(actions.RuleMinLotSize, parcelAreaSqFt, z.MinLotSqFt, "zone", z.cite(actions.RuleMinLotSize)))
	}

	put(staticCheck(actions.RuleSetbacks, actions.RulePass,
		fmt.Sprintf("front %.0f ft, side %.0f ft, rear %.0f ft setbacks apply",
			z.Setbacks.FrontFt, z.Setbacks.SideFt, z.Setbacks.RearFt),
		z.cite(actions.RuleSetbacks)))
	put(staticCheck(actions.RuleMaxCoverage, actions.RulePass,
		fmt.Sprintf("total footprint is capped at %.0f%% of the lot", z.MaxCoveragePct),
		z.cite(actions.RuleMaxCoverage)))
	put(staticCheck(actions.RuleMaxHeight, actions.RulePass,
		fmt.Sprintf("structures are limited to %.0f ft", z.MaxHeightFt),
		z.cite(actions.RuleMaxHeight)))

	if z.ADUAllowed {
		put(staticCheck(actions.RuleADUAllowed, actions.RulePass,
			"attached accessory dwelling units are permitted in this zone",
			z.cite(actions.RuleADUAllowed)))
	} else {
		put(staticCheck(actions.RuleADUAllowed, actions.RuleFail,
			"attached accessory dwelling units are not permitted in this zone",
			z.cite(actions.RuleADUAllowed)))
	}

	switch {
	case !z.DADUAllowed:
		put(staticCheck(actions.RuleDADUAllowed, actions.RuleFail,
			"detached accessory dwelling units are not permitted in this zone",
			z.cite(actions.RuleDADUAllowed)))
	case z.DADUMinLotSqFt > 0 && areaKnown:
		put(areaCheck(actions.RuleDADUAllowed, parcelAreaSqFt, z.DADUMinLotSqFt, "detached ADU", z.cite(actions.RuleDADUAllowed)))
	case z.DADUMinLotSqFt > 0:
		// Lot minimum exists but the area is unknown; leave the check
		// out so the classifier reports the gap.
	default:
		put(staticCheck(actions.RuleDADUAllowed, actions.RulePass,
			"detached accessory dwelling units are permitted in this zone",
			z.cite(actions.RuleDADUAllowed)))
	}

	if areaKnown && z.MaxDensityDUPerAcre > 0 {
		put(densityCheck(parcelAreaSqFt, z))
	}

	sub := actions.RuleCheck{
		Type:         actions.RuleSubdivisionMinLot,
		Status:       actions.RulePass,
		Limit:        fmt.Sprintf("%s per new lot", formatSqFt(z.MinNewLotSqFt)),
		NumericLimit: z.MinNewLotSqFt,
		Citation:     z.cite(actions.RuleSubdivisionMinLot),
	}
	if !z.SubdivisionAllowed {
		sub.Status = actions.RuleFail
		sub.Detail = "the zone does not allow further subdivision"
		sub.Limit = ""
		sub.NumericLimit = 0
	}
	put(sub)

	switch {
	case z.SepticMinLotSqFt <= 0:
		put(staticCheck(actions.RuleSepticMinLot, actions.RulePass,
			"no special septic lot minimum applies in this zone",
			z.cite(actions.RuleSepticMinLot)))
	case areaKnown:
		put(areaCheck(actions.RuleSepticMinLot, parcelAreaSqFt, z.SepticMinLotSqFt, "septic", z.cite(actions.RuleSepticMinLot)))
	}

	return checks, true
}

// Placement maps one zone onto the evaluator's placement rules,
// combining the zone's setbacks and coverage cap with the
// jurisdiction-wide defaults. Falls back to the built-in defaults for
// unknown zones, reporting false so callers can log the miss.
func (rb *Rulebook) Placement(zoneCode string) (siteplan.PlacementRules, bool) {
	z, ok := rb.Zone(zoneCode)
	if !ok {
		return siteplan.DefaultPlacementRules(), false
	}
	return siteplan.PlacementRules{
		Setbacks: siteplan.Setbacks{
			FrontFt:         z.Setbacks.FrontFt,
			SideFt:          z.Setbacks.SideFt,
			SideAccessoryFt: z.Setbacks.SideAccessoryFt,
			RearFt:          z.Setbacks.RearFt,
		},
		SetbackWarnFt:      rb.Defaults.SetbackWarnFt,
		MinSeparationFt:    rb.Defaults.MinSeparationFt,
		MaxCoveragePct:     z.MaxCoveragePct,
		CoverageWarnRatio:  rb.Defaults.CoverageWarnRatio,
		BuildingPermitSqFt: rb.Defaults.BuildingPermitSqFt,
		SteepSlopePct:      rb.Defaults.SteepSlopePct,
		ModerateSlopePct:   rb.Defaults.ModerateSlopePct,
	}, true
}

// Category returns the zoning category for a zone code, or
// ZoningUnknown for codes not in the rulebook.
func (rb *Rulebook) Category(zoneCode string) actions.ZoningCategory {
	if z, ok := rb.Zone(zoneCode); ok {
		return z.Category
	}
	return actions.ZoningUnknown
}

// cite looks up the citation for a rule type, empty if the zone has
// none on file.
func (z ZoneRules) cite(t actions.RuleType) string {
	return z.Citations[string(t)]
}

// areaCheck grades a parcel area against an area minimum: fail below
// it, warn within the headroom band, pass otherwise.
func areaCheck(t actions.RuleType, area, min float64, noun, citation string) actions.RuleCheck {
	c := actions.RuleCheck{
		Type:         t,
		Status:       actions.RulePass,
		Value:        formatSqFt(area),
		Limit:        fmt.Sprintf("%s %s minimum", formatSqFt(min), noun),
		NumericLimit: min,
		Citation:     citation,
	}
	switch {
	case area < min:
		c.Status = actions.RuleFail
		c.Detail = fmt.Sprintf("the lot is %s, below the %s %s minimum", formatSqFt(area), formatSqFt(min), noun)
	case area < min*minLotWarnHeadroom:
		c.Status = actions.RuleWarn
		c.Detail = fmt.Sprintf("the lot is %s, within 10%% of the %s %s minimum", formatSqFt(area), formatSqFt(min), noun)
	}
	return c
}

// densityCheck converts the zone's per-acre allowance into a unit
// count for this parcel and grades it against the multi-unit floor.
func densityCheck(area float64, z ZoneRules) actions.RuleCheck {
	units := area / sqFtPerAcre * z.MaxDensityDUPerAcre
	c := actions.RuleCheck{
		Type:     actions.RuleDensity,
		Status:   actions.RulePass,
		Value:    fmt.Sprintf("%.1f units", units),
		Limit:    fmt.Sprintf("%.1f du/acre", z.MaxDensityDUPerAcre),
		Citation: z.cite(actions.RuleDensity),
	}
	switch {
	case units < multiUnitFloor:
		c.Status = actions.RuleFail
		c.Detail = fmt.Sprintf("at %.1f du/acre this parcel supports %.1f units; multi-unit housing needs at least %d",
			z.MaxDensityDUPerAcre, units, multiUnitFloor)
	case units < multiUnitWarnCeiling:
		c.Status = actions.RuleWarn
		c.Detail = fmt.Sprintf("at %.1f du/acre this parcel supports only %.1f units", z.MaxDensityDUPerAcre, units)
	}
	return c
}

func staticCheck(t actions.RuleType, status actions.RuleStatus, detail, citation string) actions.RuleCheck {
	return actions.RuleCheck{Type: t, Status: status, Detail: detail, Citation: citation}
}

func formatSqFt(v float64) string {
	return fmt.Sprintf("%.0f sq ft", v)
}
