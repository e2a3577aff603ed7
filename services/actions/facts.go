// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package actions classifies "can I do X on this property" questions
// into a fixed catalog of deterministic answers.
//
// The resolver consumes already-normalized inputs: zoning rule checks
// tagged pass/warn/fail by the rule-lookup collaborator, parcel
// metrics, and soil/utility/environmental facts from their respective
// lookups. It never performs lookups itself and never throws for
// missing optional data; absence degrades the answer to UNKNOWN with
// named data gaps.
package actions

import "fmt"

// RuleStatus is the externally supplied verdict on one zoning check.
// The resolver trusts it as authoritative for that check.
type RuleStatus string

const (
	RulePass RuleStatus = "pass"
	RuleWarn RuleStatus = "warn"
	RuleFail RuleStatus = "fail"
)

// Valid reports whether s is a known rule status.
func (s RuleStatus) Valid() bool {
	switch s {
	case RulePass, RuleWarn, RuleFail:
		return true
	}
	return false
}

// RuleType names one jurisdiction rule the rulebook can evaluate.
type RuleType string

const (
	RuleMinLotSize        RuleType = "min_lot_size"
	RuleSetbacks          RuleType = "setbacks"
	RuleMaxCoverage       RuleType = "max_coverage"
	RuleMaxHeight         RuleType = "max_height"
	RuleADUAllowed        RuleType = "adu_allowed"
	RuleDADUAllowed       RuleType = "dadu_allowed"
	RuleDensity           RuleType = "density"
	RuleSubdivisionMinLot RuleType = "subdivision_min_lot"
	RuleSepticMinLot      RuleType = "septic_min_lot"
)

// Valid reports whether t is a known rule type.
func (t RuleType) Valid() bool {
	switch t {
	case RuleMinLotSize, RuleSetbacks, RuleMaxCoverage, RuleMaxHeight,
		RuleADUAllowed, RuleDADUAllowed, RuleDensity,
		RuleSubdivisionMinLot, RuleSepticMinLot:
		return true
	}
	return false
}

// RuleCheck is one evaluated zoning rule with its citation.
type RuleCheck struct {
	Type   RuleType   `json:"type"`
	Status RuleStatus `json:"status"`

	// Value is the parcel's actual value, Limit the rule's bound, both
	// already formatted by the rule-lookup collaborator.
	Value string `json:"value,omitempty"`
	Limit string `json:"limit,omitempty"`

	// NumericLimit carries the rule's numeric bound for entries that
	// apply their own lot-size preconditions. Zero means none.
	NumericLimit float64 `json:"numeric_limit,omitempty"`

	// Citation names the code section the check came from.
	Citation string `json:"citation,omitempty"`

	// Detail is the human-readable finding, quoted verbatim into
	// blocking factors and conditions.
	Detail string `json:"detail,omitempty"`
}

// describe returns the check's detail, or a generated fallback.
func (c RuleCheck) describe() string {
	if c.Detail != "" {
		return c.Detail
	}
	if c.Value != "" && c.Limit != "" {
		return fmt.Sprintf("%s: %s against a limit of %s", c.Type, c.Value, c.Limit)
	}
	return fmt.Sprintf("%s check %sed", c.Type, c.Status)
}

// ZoningCategory buckets the parcel's zone for category-level rules.
type ZoningCategory string

const (
	ZoningResidentialSingle ZoningCategory = "residential_single"
	ZoningResidentialMulti  ZoningCategory = "residential_multi"
	ZoningRural             ZoningCategory = "rural"
	ZoningCommercial        ZoningCategory = "commercial"
	ZoningMixed             ZoningCategory = "mixed"
	ZoningUnknown           ZoningCategory = "unknown"
)

// Valid reports whether z is a known zoning category.
func (z ZoningCategory) Valid() bool {
	switch z {
	case ZoningResidentialSingle, ZoningResidentialMulti, ZoningRural,
		ZoningCommercial, ZoningMixed, ZoningUnknown:
		return true
	}
	return false
}

// SoilFacts is the soil lookup's septic suitability result.
type SoilFacts struct {
	// Rating is the suitability bucket: well_suited, moderately_suited,
	// poorly_suited, or unsuitable.
	Rating SoilRating `json:"rating"`

	// Limitations are the reported soil limitations, verbatim.
	Limitations []string `json:"limitations,omitempty"`
}

// SoilRating buckets septic suitability.
type SoilRating string

const (
	SoilWellSuited       SoilRating = "well_suited"
	SoilModeratelySuited SoilRating = "moderately_suited"
	SoilPoorlySuited     SoilRating = "poorly_suited"
	SoilUnsuitable       SoilRating = "unsuitable"
)

// Valid reports whether r is a known soil rating.
func (r SoilRating) Valid() bool {
	switch r {
	case SoilWellSuited, SoilModeratelySuited, SoilPoorlySuited, SoilUnsuitable:
		return true
	}
	return false
}

// UtilityFacts is the utility lookup's availability result.
type UtilityFacts struct {
	SewerAvailable           bool    `json:"sewer_available"`
	SewerDistanceFt          float64 `json:"sewer_distance_ft,omitempty"`
	SewerConnectionMandatory bool    `json:"sewer_connection_mandatory"`
	WaterAvailable           bool    `json:"water_available"`
	GasAvailable             bool    `json:"gas_available"`
}

// EnvironmentFacts is the environmental lookup's flag set.
type EnvironmentFacts struct {
	FloodZone      bool   `json:"flood_zone"`
	FloodZoneCode  string `json:"flood_zone_code,omitempty"`
	WetlandPresent bool   `json:"wetland_present"`
}

// PropertyFacts is the full normalized input to Classify. Nil pointer
// fields mean the corresponding lookup produced no result; the
// resolver degrades those answers to UNKNOWN rather than guessing.
type PropertyFacts struct {
	// ParcelAreaSqFt is the parcel area; zero means unknown.
	ParcelAreaSqFt float64 `json:"parcel_area_sq_ft"`

	// Zoning is the parcel's zoning bucket.
	Zoning ZoningCategory `json:"zoning"`

	// RuleChecks holds the rulebook's evaluated checks by type.
	RuleChecks map[RuleType]RuleCheck `json:"rule_checks,omitempty"`

	Soil        *SoilFacts        `json:"soil,omitempty"`
	Utilities   *UtilityFacts     `json:"utilities,omitempty"`
	Environment *EnvironmentFacts `json:"environment,omitempty"`
}

// Check returns the evaluated rule of the given type, if present.
func (f PropertyFacts) Check(t RuleType) (RuleCheck, bool) {
	c, ok := f.RuleChecks[t]
	return c, ok
}
