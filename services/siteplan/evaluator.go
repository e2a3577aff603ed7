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

import (
	"fmt"
	"strings"
)

// Evaluate runs every placement check for one candidate structure and
// returns the resulting feedback comments in reading order.
//
// # Description
//
// The checks run in a fixed order: boundary setbacks, septic/well
// buffers, wetland buffers, easement encroachment, flood zone, slope,
// structure separation, utility notices, lot coverage, permit-trigger
// notices, and finally the all-clear. All qualifying comments are
// emitted; no check short-circuits another, and nothing is elided
// because a higher-severity comment already exists for the same pair.
// De-duplication happens only in MergeComments, on exact ID match.
//
// Parcel-wide comments (coverage, utility notices) carry no structure
// ID and are emitted identically from every per-candidate call, so a
// merged pass contains each exactly once.
//
// # Inputs
//
//   - candidate: The structure being evaluated.
//   - all: Every candidate in the layout, including candidate itself.
//   - site: Validated existing conditions. Nil is treated as empty.
//   - lot: Lot extents in feet.
//   - rules: Jurisdiction rule values. Pass the rulebook's values or
//     DefaultPlacementRules().
//
// # Outputs
//
//   - []Comment: Feedback for this candidate plus the parcel-wide
//     comments. Deterministic: identical inputs produce an identical
//     slice.
func Evaluate(candidate CandidateStructure, all []CandidateStructure, site *SiteModel, lot LotDimensions, rules PlacementRules) []Comment {
	if site == nil {
		site = &SiteModel{}
	}

	var comments []Comment
	comments = append(comments, setbackComments(candidate, lot, rules)...)
	comments = append(comments, bufferComments(candidate, site)...)
	comments = append(comments, wetlandComments(candidate, site)...)
	comments = append(comments, easementComments(candidate, site)...)
	comments = append(comments, floodComments(candidate, site)...)
	comments = append(comments, slopeComments(candidate, site, rules)...)
	comments = append(comments, separationComments(candidate, all, site, rules)...)
	comments = append(comments, utilityComments(site)...)
	comments = append(comments, coverageComments(all, site, lot, rules)...)
	comments = append(comments, permitNoticeComments(candidate)...)

	if len(BlockingFor(comments, candidate.ID)) == 0 {
		comments = append(comments, Comment{
			ID:          commentID(CategoryPlacement, candidate.ID, ""),
			Category:    CategoryPlacement,
			Severity:    SeveritySuccess,
			Title:       "Placement looks good",
			Message:     fmt.Sprintf("%s clears all setbacks, buffers, and separation requirements at this position.", capitalize(candidate.DisplayName())),
			StructureID: candidate.ID,
		})
	}
	return comments
}

// EvaluateAll evaluates every candidate in the layout and merges the
// per-candidate results into one de-duplicated comment set.
func EvaluateAll(candidates []CandidateStructure, site *SiteModel, lot LotDimensions, rules PlacementRules) []Comment {
	sets := make([][]Comment, 0, len(candidates))
	for _, c := range candidates {
		sets = append(sets, Evaluate(c, candidates, site, lot, rules))
	}
	return MergeComments(sets...)
}

// setbackComments checks the candidate against all four boundary
// setbacks. Crossing a setback line is critical; sitting clear of the
// line but inside the warning band is a warning. The side value
// depends on whether the type is a primary dwelling or accessory.
func setbackComments(c CandidateStructure, lot LotDimensions, rules PlacementRules) []Comment {
	r := c.Rect()
	side := rules.Setbacks.SideFor(c.Type)
	edges := []struct {
		edge     LotEdge
		required float64
		distance float64
	}{
		{EdgeFront, rules.Setbacks.FrontFt, r.Y},
		{EdgeLeft, side, r.X},
		{EdgeRight, side, lot.WidthFt - (r.X + r.W)},
		{EdgeRear, rules.Setbacks.RearFt, lot.DepthFt - (r.Y + r.H)},
	}

	var out []Comment
	for _, e := range edges {
		id := commentID(CategorySetback, c.ID, string(e.edge))
		name := capitalize(c.DisplayName())
		switch {
		case e.distance < e.required:
			msg := fmt.Sprintf("%s sits %.1f ft from the %s property line; the %s setback is %.0f ft.",
				name, e.distance, e.edge, e.edge, e.required)
			if e.distance < 0 {
				msg = fmt.Sprintf("%s extends %.1f ft past the %s property line; the %s setback is %.0f ft.",
					name, -e.distance, e.edge, e.edge, e.required)
			}
			out = append(out, Comment{
				ID:              id,
				Category:        CategorySetback,
				Severity:        SeverityCritical,
				Title:           fmt.Sprintf("%s setback violation", capitalize(string(e.edge))),
				Message:         msg,
				SuggestedAction: fmt.Sprintf("Move the structure at least %.0f ft from the %s property line.", e.required, e.edge),
				StructureID:     c.ID,
			})
		case e.distance < e.required+rules.SetbackWarnFt:
			out = append(out, Comment{
				ID:       id,
				Category: CategorySetback,
				Severity: SeverityWarning,
				Title:    fmt.Sprintf("Close to %s setback", e.edge),
				Message: fmt.Sprintf("%s is %.1f ft from the %s property line, only %.1f ft clear of the %.0f ft setback.",
					name, e.distance, e.edge, e.distance-e.required, e.required),
				SuggestedAction: "Confirm the boundary location with a survey before building this close to the line.",
				StructureID:     c.ID,
			})
		}
	}
	return out
}

// bufferComments checks the candidate against septic component and
// well clearances. Drainfields and wells are critical when violated
// (system damage or contamination risk); tanks and reserve areas warn
// (maintenance access). A dwelling candidate additionally draws a
// septic capacity warning whenever the lot already has a drainfield,
// independent of distance.
func bufferComments(c CandidateStructure, site *SiteModel) []Comment {
	r := c.Rect()
	var out []Comment
	for _, f := range site.Features {
		gap := r.GapDistance(f.Rect())
		violated := r.Overlaps(f.Rect()) || gap < f.RequiredBuffer
		if !violated {
			continue
		}
		label := featureLabel(f)
		switch f.Kind {
		case KindDrainfield:
			out = append(out, Comment{
				ID:              commentID(CategorySeptic, c.ID, f.ID),
				Category:        CategorySeptic,
				Severity:        SeverityCritical,
				Title:           "Drainfield clearance violation",
				Message:         fmt.Sprintf("%s is %.1f ft from the %s; %.0f ft of clearance is required to protect the septic system.", capitalize(c.DisplayName()), gap, label, f.RequiredBuffer),
				SuggestedAction: fmt.Sprintf("Keep at least %.0f ft between the structure and the %s.", f.RequiredBuffer, label),
				StructureID:     c.ID,
			})
		case KindWell:
			out = append(out, Comment{
				ID:              commentID(CategoryWell, c.ID, f.ID),
				Category:        CategoryWell,
				Severity:        SeverityCritical,
				Title:           "Well buffer violation",
				Message:         fmt.Sprintf("%s is %.1f ft from the %s; %.0f ft of separation is required to protect the water source.", capitalize(c.DisplayName()), gap, label, f.RequiredBuffer),
				SuggestedAction: fmt.Sprintf("Keep at least %.0f ft between the structure and the %s.", f.RequiredBuffer, label),
				StructureID:     c.ID,
			})
		case KindSepticTank:
			out = append(out, Comment{
				ID:              commentID(CategorySeptic, c.ID, f.ID),
				Category:        CategorySeptic,
				Severity:        SeverityWarning,
				Title:           "Septic tank access",
				Message:         fmt.Sprintf("%s is %.1f ft from the %s; %.0f ft keeps the tank reachable for pumping and repair.", capitalize(c.DisplayName()), gap, label, f.RequiredBuffer),
				SuggestedAction: "Leave service access to the tank lids and inspection ports.",
				StructureID:     c.ID,
			})
		case KindReserveArea:
			out = append(out, Comment{
				ID:              commentID(CategorySeptic, c.ID, f.ID),
				Category:        CategorySeptic,
				Severity:        SeverityWarning,
				Title:           "Reserve drainfield area",
				Message:         fmt.Sprintf("%s is %.1f ft from the %s; building near the reserve area can disqualify it as a replacement drainfield site.", capitalize(c.DisplayName()), gap, label),
				SuggestedAction: "Keep the reserve area undisturbed and unbuilt.",
				StructureID:     c.ID,
			})
		}
	}

	if c.Type.Dwelling() && site.HasKind(KindDrainfield) {
		out = append(out, Comment{
			ID:              commentID(CategorySepticCapacity, c.ID, ""),
			Category:        CategorySepticCapacity,
			Severity:        SeverityWarning,
			Title:           "Septic capacity review",
			Message:         fmt.Sprintf("Adding living space (%s) on a lot served by an existing drainfield may exceed the septic system's rated bedroom capacity.", c.DisplayName()),
			SuggestedAction: "Have the septic system's bedroom rating verified before adding living space.",
			StructureID:     c.ID,
		})
	}
	return out
}

// wetlandComments checks wetland buffers. Unlike setbacks there is no
// proximity warning band: inside the buffer is critical, outside is
// silent.
func wetlandComments(c CandidateStructure, site *SiteModel) []Comment {
	r := c.Rect()
	var out []Comment
	for _, f := range site.Features {
		if f.Kind != KindWetland {
			continue
		}
		gap := r.GapDistance(f.Rect())
		if !r.Overlaps(f.Rect()) && gap >= f.RequiredBuffer {
			continue
		}
		out = append(out, Comment{
			ID:              commentID(CategoryWetland, c.ID, f.ID),
			Category:        CategoryWetland,
			Severity:        SeverityCritical,
			Title:           "Wetland buffer violation",
			Message:         fmt.Sprintf("%s is %.1f ft from the %s; the %.0f ft wetland buffer is absolute and allows no construction.", capitalize(c.DisplayName()), gap, featureLabel(f), f.RequiredBuffer),
			SuggestedAction: fmt.Sprintf("Relocate the structure at least %.0f ft from the wetland boundary.", f.RequiredBuffer),
			StructureID:     c.ID,
		})
	}
	return out
}

// easementComments flags candidates overlapping a recorded easement's
// geometric projection. Conservation easements are critical; other
// types warn, since some holders allow minor encroachments by
// agreement.
func easementComments(c CandidateStructure, site *SiteModel) []Comment {
	r := c.Rect()
	var out []Comment
	for _, f := range site.Features {
		if f.Kind != KindEasement || !r.Overlaps(f.Rect()) {
			continue
		}
		severity := SeverityWarning
		holder := "the easement holder"
		kind := "easement"
		if e, ok := site.EasementByID(f.ID); ok {
			kind = fmt.Sprintf("%s easement", e.Type)
			if e.Holder != "" {
				holder = e.Holder
			}
			if e.Type == EasementConservation {
				severity = SeverityCritical
			}
		}
		out = append(out, Comment{
			ID:              commentID(CategoryEasementUse, c.ID, f.ID),
			Category:        CategoryEasementUse,
			Severity:        severity,
			Title:           "Structure inside easement",
			Message:         fmt.Sprintf("%s overlaps a recorded %s held by %s; structures inside easements are generally prohibited.", capitalize(c.DisplayName()), kind, holder),
			SuggestedAction: "Move the structure outside the easement or obtain written consent from the holder.",
			StructureID:     c.ID,
		})
	}
	return out
}

// floodComments emits the parcel-wide flood warning once per
// candidate. Flood status does not depend on position inside the lot.
func floodComments(c CandidateStructure, site *SiteModel) []Comment {
	if !site.FloodZone {
		return nil
	}
	msg := "The parcel is in a mapped flood hazard area; new construction requires a floodplain development permit and elevation standards apply."
	if site.FloodZoneCode != "" {
		msg = fmt.Sprintf("The parcel is in mapped flood zone %s; new construction requires a floodplain development permit and elevation standards apply.", site.FloodZoneCode)
	}
	return []Comment{{
		ID:              commentID(CategoryFlood, c.ID, ""),
		Category:        CategoryFlood,
		Severity:        SeverityWarning,
		Title:           "Flood hazard area",
		Message:         msg,
		SuggestedAction: "Obtain an elevation certificate before finalizing the design.",
		StructureID:     c.ID,
	}}
}

// slopeComments grades the parcel slope. Slope never invalidates a
// position; steep grades warn and moderate grades inform.
func slopeComments(c CandidateStructure, site *SiteModel, rules PlacementRules) []Comment {
	switch {
	case site.SlopePercent > rules.SteepSlopePct:
		return []Comment{{
			ID:              commentID(CategorySlope, c.ID, ""),
			Category:        CategorySlope,
			Severity:        SeverityWarning,
			Title:           "Steep slope",
			Message:         fmt.Sprintf("The parcel slopes at %.1f%%; expect engineered foundations, a grading permit, and drainage design.", site.SlopePercent),
			SuggestedAction: "Budget for a geotechnical assessment.",
			StructureID:     c.ID,
		}}
	case site.SlopePercent > rules.ModerateSlopePct:
		return []Comment{{
			ID:          commentID(CategorySlope, c.ID, ""),
			Category:    CategorySlope,
			Severity:    SeverityInfo,
			Title:       "Moderate slope",
			Message:     fmt.Sprintf("The parcel slopes at %.1f%%; minor grading and stepped foundations may be needed.", site.SlopePercent),
			StructureID: c.ID,
		}}
	}
	return nil
}

// separationComments checks pairwise distance against the other
// candidates and against existing structures, using the same
// nearest-rectangle gap as the buffer checks. Overlap is critical;
// a gap under the minimum separation warns.
func separationComments(c CandidateStructure, all []CandidateStructure, site *SiteModel, rules PlacementRules) []Comment {
	r := c.Rect()
	var out []Comment

	appendPair := func(otherID, otherName string, otherRect Rect) {
		if r.Overlaps(otherRect) {
			out = append(out, Comment{
				ID:              commentID(CategorySeparation, c.ID, otherID),
				Category:        CategorySeparation,
				Severity:        SeverityCritical,
				Title:           "Structures overlap",
				Message:         fmt.Sprintf("%s overlaps %s.", capitalize(c.DisplayName()), otherName),
				SuggestedAction: "Separate the footprints before continuing.",
				StructureID:     c.ID,
			})
			return
		}
		if gap := r.GapDistance(otherRect); gap < rules.MinSeparationFt {
			out = append(out, Comment{
				ID:              commentID(CategorySeparation, c.ID, otherID),
				Category:        CategorySeparation,
				Severity:        SeverityWarning,
				Title:           "Structures too close",
				Message:         fmt.Sprintf("%s is %.1f ft from %s; %.0f ft of separation is required for fire and maintenance access.", capitalize(c.DisplayName()), gap, otherName, rules.MinSeparationFt),
				SuggestedAction: fmt.Sprintf("Keep at least %.0f ft between structures.", rules.MinSeparationFt),
				StructureID:     c.ID,
			})
		}
	}

	for _, other := range all {
		if other.ID == c.ID {
			continue
		}
		appendPair(other.ID, other.DisplayName(), other.Rect())
	}
	for _, f := range site.Features {
		if f.Kind != KindStructure {
			continue
		}
		appendPair(f.ID, featureLabel(f), f.Rect())
	}
	return out
}

// utilityComments describes sewer, water, and gas availability. These
// are parcel-wide notices, never blocking, and carry no structure ID
// so the merged set holds each once.
func utilityComments(site *SiteModel) []Comment {
	u := site.Utilities
	var out []Comment

	if u.SewerAvailable {
		msg := "Public sewer is available to this parcel."
		if u.SewerDistanceFt > 0 {
			msg = fmt.Sprintf("Public sewer is available %.0f ft from this parcel.", u.SewerDistanceFt)
		}
		if u.SewerConnectionMandatory {
			msg += " Connection is mandatory for new dwellings."
		}
		out = append(out, Comment{
			ID:       commentID(CategoryUtility, "", "sewer"),
			Category: CategoryUtility,
			Severity: SeveritySuccess,
			Title:    "Sewer available",
			Message:  msg,
		})
	} else {
		out = append(out, Comment{
			ID:       commentID(CategoryUtility, "", "sewer"),
			Category: CategoryUtility,
			Severity: SeverityInfo,
			Title:    "No public sewer",
			Message:  "No public sewer serves this parcel; new dwellings need an on-site septic system.",
		})
	}

	if u.WaterAvailable {
		out = append(out, Comment{
			ID:       commentID(CategoryUtility, "", "water"),
			Category: CategoryUtility,
			Severity: SeveritySuccess,
			Title:    "Water available",
			Message:  "Public water is available to this parcel.",
		})
	} else {
		out = append(out, Comment{
			ID:       commentID(CategoryUtility, "", "water"),
			Category: CategoryUtility,
			Severity: SeverityInfo,
			Title:    "No public water",
			Message:  "No public water serves this parcel; a private well and water-right review will be needed.",
		})
	}

	if u.GasAvailable {
		out = append(out, Comment{
			ID:       commentID(CategoryUtility, "", "gas"),
			Category: CategoryUtility,
			Severity: SeverityInfo,
			Title:    "Natural gas available",
			Message:  "Natural gas service is available to this parcel.",
		})
	}
	return out
}

// coverageComments computes total lot coverage once per evaluation
// pass: every candidate footprint plus every existing structure
// footprint over the lot area. The comment is parcel-wide; its ID
// carries no structure or feature segment, so per-candidate emissions
// collapse to one in the merge.
func coverageComments(all []CandidateStructure, site *SiteModel, lot LotDimensions, rules PlacementRules) []Comment {
	area := lot.AreaSqFt()
	if area <= 0 {
		return nil
	}
	total := site.ExistingFootprintSqFt()
	for _, c := range all {
		total += c.Footprint()
	}
	pct := total / area * 100

	switch {
	case pct > rules.MaxCoveragePct:
		return []Comment{{
			ID:              commentID(CategoryCoverage, "", ""),
			Category:        CategoryCoverage,
			Severity:        SeverityCritical,
			Title:           "Lot coverage exceeded",
			Message:         fmt.Sprintf("Total structure footprint of %.0f sq ft covers %.1f%% of the %.0f sq ft lot; the maximum is %.0f%%.", total, pct, area, rules.MaxCoveragePct),
			SuggestedAction: "Reduce the footprint of one or more structures.",
		}}
	case pct >= rules.MaxCoveragePct*rules.CoverageWarnRatio:
		return []Comment{{
			ID:              commentID(CategoryCoverage, "", ""),
			Category:        CategoryCoverage,
			Severity:        SeverityWarning,
			Title:           "Approaching lot coverage limit",
			Message:         fmt.Sprintf("Total structure footprint covers %.1f%% of the lot, close to the %.0f%% maximum.", pct, rules.MaxCoveragePct),
			SuggestedAction: "Leave margin for future additions before committing to this footprint.",
		}}
	}
	return nil
}

// permitNoticeComments emits the always-informational permit pointers
// for structure types with their own review processes. The permit
// deriver produces the authoritative list; these are inline reminders.
func permitNoticeComments(c CandidateStructure) []Comment {
	note := func(title, msg string) []Comment {
		return []Comment{{
			ID:          commentID(CategoryPermit, c.ID, string(c.Type)),
			Category:    CategoryPermit,
			Severity:    SeverityInfo,
			Title:       title,
			Message:     msg,
			StructureID: c.ID,
		}}
	}
	switch c.Type {
	case StructureADU:
		return note("ADU review required", "Attached accessory dwelling units go through ADU review; size and entrance placement rules apply.")
	case StructureDADU:
		return note("DADU review required", "Detached accessory dwelling units go through ADU review; height and owner-occupancy rules may apply.")
	case StructurePool:
		return note("Pool permits required", "Pools need a barrier/fence inspection and usually a grading permit for the excavation.")
	}
	return nil
}

// featureLabel prefers the feature's label and falls back to a
// readable kind name.
func featureLabel(f SiteFeature) string {
	if f.Label != "" {
		return f.Label
	}
	return strings.ReplaceAll(string(f.Kind), "_", " ")
}

// capitalize upper-cases the first byte for sentence starts.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
