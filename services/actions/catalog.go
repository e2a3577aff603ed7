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
	"errors"
	"fmt"
)

// ActionStatus is the deterministic outcome for one catalog action.
type ActionStatus string

const (
	StatusAllowed     ActionStatus = "ALLOWED"
	StatusConditional ActionStatus = "CONDITIONAL"
	StatusRestricted  ActionStatus = "RESTRICTED"
	StatusUnknown     ActionStatus = "UNKNOWN"
)

// Valid reports whether s is a known status.
func (s ActionStatus) Valid() bool {
	switch s {
	case StatusAllowed, StatusConditional, StatusRestricted, StatusUnknown:
		return true
	}
	return false
}

// Confidence grades how solid the classification's inputs were.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// Valid reports whether c is a known confidence level.
func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}

// ActionCategory groups catalog actions for display.
type ActionCategory string

const (
	CategoryResidential    ActionCategory = "residential"
	CategoryAccessory      ActionCategory = "accessory"
	CategoryLand           ActionCategory = "land"
	CategoryUtilities      ActionCategory = "utilities"
	CategoryEnvironmental  ActionCategory = "environmental"
	CategoryAdministrative ActionCategory = "administrative"
)

// Valid reports whether c is a known category.
func (c ActionCategory) Valid() bool {
	switch c {
	case CategoryResidential, CategoryAccessory, CategoryLand,
		CategoryUtilities, CategoryEnvironmental, CategoryAdministrative:
		return true
	}
	return false
}

// ActionItem is one classified answer. Evidence fields are coupled to
// the status: RESTRICTED carries blocking factors, UNKNOWN carries
// data gaps, CONDITIONAL carries conditions or next steps. Validate
// enforces the coupling.
type ActionItem struct {
	ID         string         `json:"id"`
	Category   ActionCategory `json:"category"`
	ActionName string         `json:"action_name"`
	Status     ActionStatus   `json:"status"`
	Confidence Confidence     `json:"confidence"`
	Summary    string         `json:"summary"`

	Conditions      []string `json:"conditions,omitempty"`
	BlockingFactors []string `json:"blocking_factors,omitempty"`
	NextSteps       []string `json:"next_steps,omitempty"`
	Citations       []string `json:"citations,omitempty"`
	DataGaps        []string `json:"data_gaps,omitempty"`
}

// ErrMalformedItem marks an ActionItem violating the status-evidence
// coupling. Such an item is a programming error in the resolver, not a
// runtime condition.
var ErrMalformedItem = errors.New("malformed action item")

// Validate enforces the status-evidence invariants.
func (a ActionItem) Validate() error {
	if a.ID == "" || a.ActionName == "" || a.Summary == "" {
		return fmt.Errorf("%w: %s missing identity fields", ErrMalformedItem, a.ID)
	}
	if !a.Category.Valid() {
		return fmt.Errorf("%w: %s category %q", ErrMalformedItem, a.ID, a.Category)
	}
	if !a.Status.Valid() {
		return fmt.Errorf("%w: %s status %q", ErrMalformedItem, a.ID, a.Status)
	}
	if !a.Confidence.Valid() {
		return fmt.Errorf("%w: %s confidence %q", ErrMalformedItem, a.ID, a.Confidence)
	}
	switch a.Status {
	case StatusRestricted:
		if len(a.BlockingFactors) == 0 {
			return fmt.Errorf("%w: %s is RESTRICTED without blocking factors", ErrMalformedItem, a.ID)
		}
	case StatusUnknown:
		if len(a.DataGaps) == 0 {
			return fmt.Errorf("%w: %s is UNKNOWN without data gaps", ErrMalformedItem, a.ID)
		}
	case StatusConditional:
		if len(a.Conditions) == 0 && len(a.NextSteps) == 0 {
			return fmt.Errorf("%w: %s is CONDITIONAL without conditions or next steps", ErrMalformedItem, a.ID)
		}
	}
	return nil
}

// Catalog action IDs, in fixed catalog order.
const (
	ActionBuildSingleFamily   = "build_single_family"
	ActionBuildMultiFamily    = "build_multi_family"
	ActionAddADU              = "add_adu"
	ActionAddDADU             = "add_dadu"
	ActionBuildGarage         = "build_garage"
	ActionInstallPool         = "install_pool"
	ActionSubdivideLot        = "subdivide_lot"
	ActionAdjustLotLine       = "adjust_lot_line"
	ActionConnectSewer        = "connect_sewer"
	ActionInstallSeptic       = "install_septic"
	ActionFloodZoneBuild      = "flood_zone_build"
	ActionWetlandConstraints  = "wetland_constraints"
	ActionBuildingPermit      = "building_permit"
	ActionEnvironmentalReview = "environmental_review"
)

// catalogEntry is the static definition of one action. The governing
// rule types drive the generic pass/warn/fail tree; entry-specific
// behavior lives in the resolver's decision functions.
type catalogEntry struct {
	ID       string
	Category ActionCategory
	Name     string

	// GoverningRules are the rule types whose checks decide the
	// generic part of the tree. Empty for fact-driven entries.
	GoverningRules []RuleType

	// MinLotMultiple requires ParcelAreaSqFt to be at least this many
	// times the governing minimum lot size. Zero disables the
	// precondition. Only subdivision uses a multiple above one.
	MinLotMultiple float64

	// NextSteps are the fixed next-step templates attached to
	// CONDITIONAL answers for this entry.
	NextSteps []string
}

// catalog is the fixed, jurisdiction-agnostic action list, in output
// order. The resolver returns exactly one item per entry.
var catalog = []catalogEntry{
	{
		ID: ActionBuildSingleFamily, Category: CategoryResidential,
		Name:           "Build a single-family home",
		GoverningRules: []RuleType{RuleMinLotSize, RuleSetbacks, RuleMaxCoverage, RuleMaxHeight},
		NextSteps:      []string{"Submit a site plan for pre-application review."},
	},
	{
		ID: ActionBuildMultiFamily, Category: CategoryResidential,
		Name:           "Build multi-family housing",
		GoverningRules: []RuleType{RuleDensity, RuleMinLotSize},
		NextSteps:      []string{"Confirm the allowed unit count with the planning department."},
	},
	{
		ID: ActionAddADU, Category: CategoryAccessory,
		Name:           "Add an attached ADU",
		GoverningRules: []RuleType{RuleADUAllowed, RuleMaxCoverage},
		NextSteps:      []string{"Review ADU size and entrance requirements before designing."},
	},
	{
		ID: ActionAddDADU, Category: CategoryAccessory,
		Name:           "Add a detached ADU (DADU)",
		GoverningRules: []RuleType{RuleDADUAllowed, RuleSetbacks, RuleMaxHeight},
		NextSteps:      []string{"Verify detached ADU height and owner-occupancy rules."},
	},
	{
		ID: ActionBuildGarage, Category: CategoryAccessory,
		Name:           "Build a garage or shop",
		GoverningRules: []RuleType{RuleSetbacks, RuleMaxCoverage, RuleMaxHeight},
		NextSteps:      []string{"Check accessory structure size limits for the zone."},
	},
	{
		ID: ActionInstallPool, Category: CategoryAccessory,
		Name:           "Install a pool",
		GoverningRules: []RuleType{RuleSetbacks, RuleMaxCoverage},
		NextSteps:      []string{"Plan for barrier fencing and a grading permit."},
	},
	{
		ID: ActionSubdivideLot, Category: CategoryLand,
		Name:           "Subdivide the lot",
		GoverningRules: []RuleType{RuleSubdivisionMinLot},
		MinLotMultiple: 2,
		NextSteps:      []string{"Order a boundary survey.", "Schedule a pre-application meeting for a short plat."},
	},
	{
		ID: ActionAdjustLotLine, Category: CategoryLand,
		Name:      "Adjust a lot line",
		NextSteps: []string{"Order a boundary survey.", "File a boundary line adjustment application with the county."},
	},
	{
		ID: ActionConnectSewer, Category: CategoryUtilities,
		Name:      "Connect to public sewer",
		NextSteps: []string{"Request a sewer availability letter from the district."},
	},
	{
		ID: ActionInstallSeptic, Category: CategoryUtilities,
		Name:           "Install a septic system",
		GoverningRules: []RuleType{RuleSepticMinLot},
		NextSteps:      []string{"Schedule a perc test with the county health department."},
	},
	{
		ID: ActionFloodZoneBuild, Category: CategoryEnvironmental,
		Name:      "Build in a flood zone",
		NextSteps: []string{"Obtain an elevation certificate.", "Apply for a floodplain development permit."},
	},
	{
		ID: ActionWetlandConstraints, Category: CategoryEnvironmental,
		Name:      "Wetland constraints",
		NextSteps: []string{"Commission a wetland delineation study."},
	},
	{
		ID: ActionBuildingPermit, Category: CategoryAdministrative,
		Name:      "Get a building permit",
		NextSteps: []string{"Submit construction drawings and a site plan to the building department."},
	},
	{
		ID: ActionEnvironmentalReview, Category: CategoryAdministrative,
		Name:      "Environmental review",
		NextSteps: []string{"Request a critical areas pre-screen from county planning."},
	},
}

// validateCatalog checks the static catalog definition. A malformed
// entry is a programming error caught at package init and in tests,
// never at classification time.
func validateCatalog() error {
	if len(catalog) != 14 {
		return fmt.Errorf("catalog has %d entries, want 14", len(catalog))
	}
	seen := make(map[string]struct{}, len(catalog))
	for _, e := range catalog {
		if e.ID == "" || e.Name == "" {
			return fmt.Errorf("catalog entry %q missing identity", e.ID)
		}
		if !e.Category.Valid() {
			return fmt.Errorf("catalog entry %s has category %q", e.ID, e.Category)
		}
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("catalog entry %s duplicated", e.ID)
		}
		seen[e.ID] = struct{}{}
		for _, rt := range e.GoverningRules {
			if !rt.Valid() {
				return fmt.Errorf("catalog entry %s governs unknown rule %q", e.ID, rt)
			}
		}
		if e.MinLotMultiple < 0 {
			return fmt.Errorf("catalog entry %s has negative lot multiple", e.ID)
		}
	}
	return nil
}

func init() {
	if err := validateCatalog(); err != nil {
		panic(err)
	}
}
