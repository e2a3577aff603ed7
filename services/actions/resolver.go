// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package actions

import (
	"fmt"
	"strings"
)

// subdivisionMargin is the headroom ratio over the strict two-lot
// minimum. A parcel that clears the minimum by less than this margin
// is classified conditional rather than allowed, since easements or
// access tracts routinely shave usable area off a split.
const subdivisionMargin = 1.1

// Classify answers every catalog question for one parcel.
//
// # Description
//
// Classify resolves every catalog action against the supplied parcel
// facts and returns exactly one ActionItem per catalog entry, in
// catalog order. Classification is pure: the same facts always
// produce the same items, and no clock, network, or map-iteration
// input can reorder or reword the output.
//
// Missing data never silently becomes a definitive answer. A nil fact
// group or an absent governing rule yields UNKNOWN with the gap named
// in DataGaps, so callers can tell "not allowed" apart from "not
// enough data".
//
// # Inputs
//   - facts: normalized parcel facts assembled by the report service.
//
// # Outputs
//   - []ActionItem: one classified item per catalog entry, each
//     satisfying ActionItem.Validate.
func Classify(facts PropertyFacts) []ActionItem {
	items := make([]ActionItem, 0, len(catalog))
	for _, e := range catalog {
		items = append(items, classifyEntry(e, facts))
	}
	return items
}

// classifyEntry dispatches to the entry-specific decision function
// where one exists; everything else runs the generic governing-rule
// tree.
func classifyEntry(e catalogEntry, f PropertyFacts) ActionItem {
	switch e.ID {
	case ActionBuildMultiFamily:
		return classifyMultiFamily(e, f)
	case ActionSubdivideLot:
		return classifySubdivide(e, f)
	case ActionAdjustLotLine:
		return classifyLotLine(e, f)
	case ActionConnectSewer:
		return classifySewer(e, f)
	case ActionInstallSeptic:
		return classifySeptic(e, f)
	case ActionFloodZoneBuild:
		return classifyFloodZone(e, f)
	case ActionWetlandConstraints:
		return classifyWetland(e, f)
	case ActionBuildingPermit:
		return classifyBuildingPermit(e, f)
	case ActionEnvironmentalReview:
		return classifyEnvironmentalReview(e, f)
	default:
		return classifyByRules(e, f)
	}
}

// classifyByRules walks the entry's governing rule checks and applies
// the shared precedence: any fail restricts, then any missing rule is
// a data gap, then any warn is conditional, then all-pass allows.
func classifyByRules(e catalogEntry, f PropertyFacts) ActionItem {
	var (
		fails     []RuleCheck
		warns     []RuleCheck
		gaps      []string
		citations []string
		checked   int
	)
	for _, rt := range e.GoverningRules {
		c, ok := f.Check(rt)
		if !ok {
			gaps = append(gaps, fmt.Sprintf("no %s check available for this parcel", rt))
			continue
		}
		checked++
		if c.Citation != "" {
			citations = append(citations, c.Citation)
		}
		switch c.Status {
		case RuleFail:
			fails = append(fails, c)
		case RuleWarn:
			warns = append(warns, c)
		}
	}
	citations = dedupe(citations)

	switch {
	case len(fails) > 0:
		return restrictedItem(e, "Current zoning checks block this action on this parcel.",
			describeAll(fails), citations)
	case len(gaps) > 0:
		return unknownItem(e, gaps)
	case len(warns) > 0:
		return conditionalItem(e, "Feasible once the flagged requirements are addressed.",
			describeAll(warns), citations)
	case checked > 0:
		return allowedItem(e, "All governing zoning checks pass for this parcel.", citations)
	default:
		return unknownItem(e, []string{"no zoning rule data on record for this parcel"})
	}
}

// classifyMultiFamily layers the zoning override on top of the
// generic tree. Single-family zoning is dispositive on its own, no
// matter what the density check says.
func classifyMultiFamily(e catalogEntry, f PropertyFacts) ActionItem {
	if f.Zoning == ZoningResidentialSingle {
		return restrictedItem(e,
			"Single-family zoning does not allow multi-family housing on this parcel.",
			[]string{"zoning category residential_single limits the parcel to one primary dwelling"},
			nil)
	}
	return classifyByRules(e, f)
}

// classifySubdivide applies the resolver's own two-lot area
// precondition on top of the zone's subdivision rule. The rule check
// carries the zone's minimum new-lot size; whether this parcel can
// yield two such lots is decided here.
func classifySubdivide(e catalogEntry, f PropertyFacts) ActionItem {
	check, ok := f.Check(RuleSubdivisionMinLot)
	if !ok {
		return unknownItem(e, []string{"no subdivision_min_lot check available for this parcel"})
	}
	var citations []string
	if check.Citation != "" {
		citations = []string{check.Citation}
	}
	if check.Status == RuleFail {
		return restrictedItem(e, "The zone does not support subdividing this parcel.",
			[]string{check.describe()}, citations)
	}
	if f.ParcelAreaSqFt <= 0 {
		return unknownItem(e, []string{"parcel area is not on record"})
	}
	if check.NumericLimit > 0 && e.MinLotMultiple > 0 {
		needed := e.MinLotMultiple * check.NumericLimit
		switch {
		case f.ParcelAreaSqFt < needed:
			return restrictedItem(e,
				"The parcel is too small to split into conforming lots.",
				[]string{fmt.Sprintf("parcel is %.0f sq ft; two conforming lots require at least %.0f sq ft",
					f.ParcelAreaSqFt, needed)},
				citations)
		case f.ParcelAreaSqFt < needed*subdivisionMargin:
			return conditionalItem(e,
				"The parcel meets the two-lot minimum with little room to spare.",
				[]string{"resulting lots would sit within 10% of the zone minimum; easements or access tracts could leave one lot nonconforming"},
				citations)
		}
	}
	if check.Status == RuleWarn {
		return conditionalItem(e, "Feasible once the flagged requirements are addressed.",
			[]string{check.describe()}, citations)
	}
	return allowedItem(e, "The parcel is large enough to subdivide under the zone minimum.", citations)
}

// classifyLotLine treats a boundary line adjustment as an
// administrative process whenever the parcel record exists.
func classifyLotLine(e catalogEntry, f PropertyFacts) ActionItem {
	if f.ParcelAreaSqFt <= 0 {
		return unknownItem(e, []string{"parcel record is unavailable"})
	}
	return conditionalItem(e,
		"A boundary line adjustment is an administrative process, not a subdivision.",
		[]string{"both resulting lots must still meet the zone's minimum lot size and setbacks"},
		nil)
}

// classifySewer is driven entirely by utility facts.
func classifySewer(e catalogEntry, f PropertyFacts) ActionItem {
	u := f.Utilities
	if u == nil {
		return unknownItem(e, []string{"no utility availability data for this parcel"})
	}
	if !u.SewerAvailable {
		return restrictedItem(e, "No public sewer main currently serves this parcel.",
			[]string{"the sewer district reports no main within connection distance"}, nil)
	}
	summary := "A public sewer main is available to this parcel."
	if u.SewerDistanceFt > 0 {
		summary = fmt.Sprintf("A public sewer main is available roughly %.0f ft from this parcel.", u.SewerDistanceFt)
	}
	if u.SewerConnectionMandatory {
		summary += " Connection is mandatory for new construction."
	}
	return allowedItem(e, summary, nil)
}

// classifySeptic enforces the cross-entry rule first: inside a
// mandatory sewer connection area, new on-site septic is off the
// table regardless of soils. After that, soils and the zone's septic
// minimum lot rule drive the answer.
func classifySeptic(e catalogEntry, f PropertyFacts) ActionItem {
	if u := f.Utilities; u != nil && u.SewerAvailable && u.SewerConnectionMandatory {
		return restrictedItem(e,
			"The parcel is inside a mandatory sewer connection area.",
			[]string{"public sewer is available and connection is mandatory; new on-site septic systems are not approved"},
			nil)
	}
	soil := f.Soil
	if soil == nil {
		return unknownItem(e, []string{"no soil suitability data for this parcel"})
	}
	check, ok := f.Check(RuleSepticMinLot)
	if !ok {
		return unknownItem(e, []string{"no septic_min_lot check available for this parcel"})
	}
	var citations []string
	if check.Citation != "" {
		citations = []string{check.Citation}
	}

	if soil.Rating == SoilUnsuitable {
		return restrictedItem(e, "Soils on this parcel are rated unsuitable for on-site septic.",
			append([]string{"the soil survey rates this parcel unsuitable for a drainfield"}, soil.Limitations...),
			citations)
	}
	if check.Status == RuleFail {
		return restrictedItem(e, "The lot is below the minimum size for an on-site septic system.",
			[]string{check.describe()}, citations)
	}

	var conditions []string
	switch soil.Rating {
	case SoilPoorlySuited:
		conditions = append(conditions, "soils are poorly suited; expect an engineered or alternative system design")
	case SoilModeratelySuited:
		conditions = append(conditions, "soils are moderately suited; a passing perc test is required before design")
	}
	for _, lim := range soil.Limitations {
		conditions = append(conditions, fmt.Sprintf("soil limitation: %s", lim))
	}
	if check.Status == RuleWarn {
		conditions = append(conditions, check.describe())
	}
	if len(conditions) > 0 {
		return conditionalItem(e, "An on-site septic system is possible subject to soil conditions.",
			conditions, citations)
	}
	return allowedItem(e, "Soils and lot size support a conventional on-site septic system.", citations)
}

// classifyFloodZone reports what building inside the mapped flood
// hazard area entails; it never blocks outright.
func classifyFloodZone(e catalogEntry, f PropertyFacts) ActionItem {
	env := f.Environment
	if env == nil {
		return unknownItem(e, []string{"no flood hazard data for this parcel"})
	}
	if !env.FloodZone {
		return allowedItem(e, "The parcel is not in a mapped flood hazard area.", nil)
	}
	where := "a mapped flood hazard area"
	if env.FloodZoneCode != "" {
		where = fmt.Sprintf("flood zone %s", env.FloodZoneCode)
	}
	return conditionalItem(e,
		fmt.Sprintf("The parcel lies in %s; flood construction standards apply.", where),
		[]string{
			"finished floors must be elevated above the base flood elevation",
			"floodplain development review applies before any building permit",
		},
		nil)
}

// classifyWetland mirrors the flood entry for the wetland inventory.
func classifyWetland(e catalogEntry, f PropertyFacts) ActionItem {
	env := f.Environment
	if env == nil {
		return unknownItem(e, []string{"no wetland inventory data for this parcel"})
	}
	if !env.WetlandPresent {
		return allowedItem(e, "No mapped wetlands on or adjacent to the parcel.", nil)
	}
	return conditionalItem(e,
		"A mapped wetland affects this parcel; buffer standards apply.",
		[]string{"no clearing, grading, or structures within the wetland or its buffer without approval"},
		nil)
}

// classifyBuildingPermit describes the permit process rather than a
// yes/no outcome, so it is conditional whenever a zoning record
// exists at all.
func classifyBuildingPermit(e catalogEntry, f PropertyFacts) ActionItem {
	if len(f.RuleChecks) == 0 && !zoningKnown(f.Zoning) {
		return unknownItem(e, []string{"no zoning record located for this parcel"})
	}
	return conditionalItem(e,
		"A building permit is required for most structures; small sheds may be exempt.",
		[]string{"plans must show compliance with setbacks, height, and coverage for the zone"},
		nil)
}

// classifyEnvironmentalReview summarizes which overlays would pull a
// project into critical-areas review.
func classifyEnvironmentalReview(e catalogEntry, f PropertyFacts) ActionItem {
	env := f.Environment
	if env == nil {
		return unknownItem(e, []string{"no environmental overlay data for this parcel"})
	}
	var overlays []string
	if env.FloodZone {
		overlays = append(overlays, "flood hazard")
	}
	if env.WetlandPresent {
		overlays = append(overlays, "wetland")
	}
	if len(overlays) == 0 {
		return allowedItem(e, "No environmental overlays identified; standard review applies.", nil)
	}
	return conditionalItem(e,
		fmt.Sprintf("Environmental review is expected: the parcel carries a %s overlay.",
			strings.Join(overlays, " and ")),
		[]string{"project scope determines whether a full critical areas report is required"},
		nil)
}

func zoningKnown(z ZoningCategory) bool {
	return z != "" && z != ZoningUnknown
}

// newItem seeds an ActionItem with the entry's identity fields.
func newItem(e catalogEntry, status ActionStatus, conf Confidence, summary string) ActionItem {
	return ActionItem{
		ID:         e.ID,
		Category:   e.Category,
		ActionName: e.Name,
		Status:     status,
		Confidence: conf,
		Summary:    summary,
	}
}

func allowedItem(e catalogEntry, summary string, citations []string) ActionItem {
	it := newItem(e, StatusAllowed, ConfidenceHigh, summary)
	it.Citations = citations
	return it
}

func restrictedItem(e catalogEntry, summary string, blocking, citations []string) ActionItem {
	it := newItem(e, StatusRestricted, ConfidenceHigh, summary)
	it.BlockingFactors = blocking
	it.Citations = citations
	return it
}

func conditionalItem(e catalogEntry, summary string, conditions, citations []string) ActionItem {
	it := newItem(e, StatusConditional, ConfidenceMedium, summary)
	it.Conditions = conditions
	it.NextSteps = append([]string(nil), e.NextSteps...)
	it.Citations = citations
	return it
}

func unknownItem(e catalogEntry, gaps []string) ActionItem {
	it := newItem(e, StatusUnknown, ConfidenceLow,
		"Not enough data to classify this action; verify with the county before relying on it.")
	it.DataGaps = gaps
	return it
}

func describeAll(checks []RuleCheck) []string {
	out := make([]string, 0, len(checks))
	for _, c := range checks {
		out = append(out, c.describe())
	}
	return out
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
