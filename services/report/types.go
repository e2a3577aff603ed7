// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package report

import (
	"fmt"
	"time"

	"github.com/AleutianAI/ParcelFOSS/pkg/validation"
	"github.com/AleutianAI/ParcelFOSS/services/actions"
	"github.com/AleutianAI/ParcelFOSS/services/propertydata"
	"github.com/AleutianAI/ParcelFOSS/services/siteplan"
)

// ReportRequest is the body for POST /v1/reports.
type ReportRequest struct {
	// Address is the property address to report on.
	Address propertydata.Address `json:"address" binding:"required"`

	// Account is the credit account charged for the report.
	Account string `json:"account" binding:"required"`
}

// Validate checks what binding tags cannot express. The ledger folds
// account case on its own; this only rejects shapes it would refuse.
func (r ReportRequest) Validate() error {
	if _, err := validation.SanitizeAddressLine(r.Address.Line); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if _, err := validation.SanitizeAccount(r.Account); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

// ZoningSummary is the zone's standing rules echoed into a report.
type ZoningSummary struct {
	// ZoneCode is the county's zone designation, normalized.
	ZoneCode string `json:"zone_code"`

	// ZoneName is the rulebook's display name. Empty when the zone is
	// not in the rulebook.
	ZoneName string `json:"zone_name,omitempty"`

	// Category is the coarse bucket fed to the action classifier.
	Category actions.ZoningCategory `json:"category"`

	MinLotSqFt     float64 `json:"min_lot_sq_ft,omitempty"`
	MaxCoveragePct float64 `json:"max_coverage_pct,omitempty"`
	MaxHeightFt    float64 `json:"max_height_ft,omitempty"`

	ADUAllowed         bool `json:"adu_allowed"`
	DADUAllowed        bool `json:"dadu_allowed"`
	SubdivisionAllowed bool `json:"subdivision_allowed"`

	// Known is false when the zone code is absent from the rulebook;
	// numeric fields are zero and action items degrade to UNKNOWN.
	Known bool `json:"known"`
}

// Report is the assembled feasibility report for one property.
type Report struct {
	// RequestID identifies the report; saved reports are fetched by it.
	RequestID string `json:"request_id"`

	Address  propertydata.Address  `json:"address"`
	Location propertydata.Location `json:"location"`

	Parcel ParcelSummary `json:"parcel"`
	Zoning ZoningSummary `json:"zoning"`

	Soil        *propertydata.SoilRecord        `json:"soil,omitempty"`
	Utilities   *propertydata.UtilityRecord     `json:"utilities,omitempty"`
	Environment *propertydata.EnvironmentRecord `json:"environment,omitempty"`

	// Site is the lot's existing conditions in evaluator form, the base
	// layer for placement sessions. Nil when parcel geometry could not
	// be mapped.
	Site *siteplan.SiteModel    `json:"site,omitempty"`
	Lot  siteplan.LotDimensions `json:"lot"`

	// Actions is the classified catalog, in catalog order.
	Actions []actions.ActionItem `json:"actions"`

	// Permits are the site-condition permits (no candidate structures
	// yet); placement sessions derive the full set per layout.
	Permits []siteplan.PermitRequirement `json:"permits,omitempty"`

	// Summary is the optional plain-language narrative.
	Summary string `json:"summary,omitempty"`

	// Partial lists data sources that did not answer.
	Partial []string `json:"partial,omitempty"`

	// RulebookVersion traces the report to the rule table that
	// produced it.
	RulebookVersion string `json:"rulebook_version,omitempty"`

	GeneratedAt    time.Time `json:"generated_at"`
	CreditsCharged int64     `json:"credits_charged"`
}

// ParcelSummary is the assessor record slice a report shows.
type ParcelSummary struct {
	ParcelID string  `json:"parcel_id"`
	AreaSqFt float64 `json:"area_sq_ft"`
	WidthFt  float64 `json:"width_ft"`
	DepthFt  float64 `json:"depth_ft"`
	SlopePct float64 `json:"slope_pct"`
}

// ReportSummary is one row of GET /v1/reports.
type ReportSummary struct {
	RequestID   string    `json:"request_id"`
	Address     string    `json:"address"`
	ZoneCode    string    `json:"zone_code"`
	GeneratedAt time.Time `json:"generated_at"`
	Complete    bool      `json:"complete"`
}

// EvaluateRequest is the body for POST /v1/evaluate: a layout snapshot
// to check. Site is typically the Site field of a prior report.
type EvaluateRequest struct {
	// ZoneCode selects the zone's placement rules. Empty uses the
	// baseline defaults.
	ZoneCode string `json:"zone_code,omitempty"`

	Lot  siteplan.LotDimensions `json:"lot" binding:"required"`
	Site siteplan.SiteModel     `json:"site"`

	Candidates []siteplan.CandidateStructure `json:"candidates" binding:"required,min=1"`
}

// Validate checks what binding tags cannot express.
func (r EvaluateRequest) Validate() error {
	if r.Lot.WidthFt <= 0 || r.Lot.DepthFt <= 0 {
		return fmt.Errorf("%w: lot dimensions must be positive", ErrInvalidRequest)
	}
	seen := make(map[string]struct{}, len(r.Candidates))
	for _, c := range r.Candidates {
		if c.ID == "" {
			return fmt.Errorf("%w: candidate with empty id", ErrInvalidRequest)
		}
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("%w: duplicate candidate id %s", ErrInvalidRequest, c.ID)
		}
		seen[c.ID] = struct{}{}
		if !c.Type.Valid() {
			return fmt.Errorf("%w: candidate %s type %q", ErrInvalidRequest, c.ID, c.Type)
		}
		if c.Width <= 0 || c.Depth <= 0 {
			return fmt.Errorf("%w: candidate %s must have positive size", ErrInvalidRequest, c.ID)
		}
	}
	return nil
}

// EvaluateResponse is the placement feedback for one layout snapshot.
type EvaluateResponse struct {
	Comments []siteplan.Comment           `json:"comments"`
	Permits  []siteplan.PermitRequirement `json:"permits"`

	RulebookVersion string `json:"rulebook_version,omitempty"`
}

// ClassifyRequest is the body for POST /v1/actions/classify. When
// ZoneCode is set, the service computes the zone's rule checks and
// category into the facts before classifying.
type ClassifyRequest struct {
	ZoneCode string                `json:"zone_code,omitempty"`
	Facts    actions.PropertyFacts `json:"facts"`
}

// ClassifyResponse is the classified catalog for the submitted facts.
type ClassifyResponse struct {
	Actions []actions.ActionItem `json:"actions"`

	RulebookVersion string `json:"rulebook_version,omitempty"`
}

// LookupRequest binds the query parameters of GET /v1/parcels/lookup.
type LookupRequest struct {
	Line  string `form:"line" binding:"required"`
	City  string `form:"city"`
	State string `form:"state"`
	Zip   string `form:"zip"`
}

// Address converts the bound query into a postal address.
func (r LookupRequest) Address() propertydata.Address {
	return propertydata.Address{Line: r.Line, City: r.City, State: r.State, Zip: r.Zip}
}

// TopupRequest is the body for POST /v1/credits/topup.
type TopupRequest struct {
	Account string `json:"account" binding:"required"`
	Credits int64  `json:"credits" binding:"required,gt=0"`

	// Reason is recorded on the ledger entry. Empty means "topup".
	Reason string `json:"reason,omitempty"`
}

// CreditsResponse reports an account's balance, with recent entries
// when history was requested.
type CreditsResponse struct {
	Account string `json:"account"`
	Balance int64  `json:"balance"`

	History []LedgerEntry `json:"history,omitempty"`
}

// LedgerEntry is the wire form of one ledger entry.
type LedgerEntry struct {
	ID      string    `json:"id"`
	Delta   int64     `json:"delta"`
	Balance int64     `json:"balance"`
	Reason  string    `json:"reason"`
	At      time.Time `json:"at"`
}

// HealthResponse is the body for GET /v1/health.
type HealthResponse struct {
	Status          string `json:"status"`
	Version         string `json:"version"`
	RulebookVersion string `json:"rulebook_version,omitempty"`
	Zones           int    `json:"zones"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is the error code (optional).
	Code string `json:"code,omitempty"`
}
