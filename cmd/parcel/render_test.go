// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"reflect"
	"testing"
	"time"

	"github.com/AleutianAI/ParcelFOSS/services/actions"
	"github.com/AleutianAI/ParcelFOSS/services/propertydata"
	"github.com/AleutianAI/ParcelFOSS/services/report"
	"github.com/AleutianAI/ParcelFOSS/services/siteplan"
)

func TestEvaluateStats_ClassifiesByWorstSeverity(t *testing.T) {
	candidates := []siteplan.CandidateStructure{
		{ID: "blocked-1", Type: siteplan.StructureADU, Width: 24, Depth: 30},
		{ID: "flagged-1", Type: siteplan.StructureShed, Width: 8, Depth: 10},
		{ID: "clear-1", Type: siteplan.StructureGarage, Width: 20, Depth: 22},
	}
	comments := []siteplan.Comment{
		{Severity: siteplan.SeverityWarning, StructureID: "blocked-1"},
		{Severity: siteplan.SeverityCritical, StructureID: "blocked-1"},
		{Severity: siteplan.SeverityWarning, StructureID: "flagged-1"},
		{Severity: siteplan.SeveritySuccess, StructureID: "clear-1"},
		// Parcel-wide comments never block a candidate.
		{Severity: siteplan.SeverityCritical, StructureID: ""},
	}

	stats := evaluateStats(comments, candidates, 2, 150*time.Millisecond)

	if stats.Structures != 3 {
		t.Errorf("Structures = %d, want 3", stats.Structures)
	}
	if stats.Blocked != 1 || stats.Flagged != 1 || stats.Clear != 1 {
		t.Errorf("standing = %d/%d/%d clear/flagged/blocked, want 1/1/1",
			stats.Clear, stats.Flagged, stats.Blocked)
	}
	if stats.Permits != 2 {
		t.Errorf("Permits = %d, want 2", stats.Permits)
	}
}

func TestEvaluateStats_CriticalAfterWarningStaysBlocked(t *testing.T) {
	candidates := []siteplan.CandidateStructure{{ID: "c1"}}
	comments := []siteplan.Comment{
		{Severity: siteplan.SeverityCritical, StructureID: "c1"},
		{Severity: siteplan.SeverityWarning, StructureID: "c1"},
	}

	stats := evaluateStats(comments, candidates, 0, 0)
	if stats.Blocked != 1 || stats.Flagged != 0 {
		t.Errorf("late warning must not demote a blocked candidate: %+v", stats)
	}
}

func TestCollectDataGaps_DedupesAndSorts(t *testing.T) {
	rep := report.Report{
		Actions: []actions.ActionItem{
			{DataGaps: []string{"soil record unavailable", "zone not in rulebook"}},
			{DataGaps: []string{"soil record unavailable"}},
		},
		Partial: []string{"soil", "utilities"},
	}

	got := collectDataGaps(rep)
	want := []string{
		"county soil record unavailable",
		"county utilities record unavailable",
		"soil record unavailable",
		"zone not in rulebook",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("collectDataGaps() = %v, want %v", got, want)
	}
}

func TestReportHeaderConfig(t *testing.T) {
	rep := report.Report{
		RequestID: "3f1c8a2e-9b47-4d6f-8a21-0c5e7d9b4f13",
		Address: propertydata.Address{
			Line: "482 Salmonberry Ln", City: "Port Orchard", State: "WA",
		},
		Parcel:      report.ParcelSummary{ParcelID: "4027-001-002", AreaSqFt: 21780},
		Zoning:      report.ZoningSummary{ZoneCode: "R-5", ZoneName: "Rural Residential 5"},
		GeneratedAt: time.Date(2025, 11, 3, 9, 30, 0, 0, time.UTC),
	}

	cfg := reportHeaderConfig(rep)

	if cfg.Address != "482 Salmonberry Ln, Port Orchard, WA" {
		t.Errorf("Address = %q", cfg.Address)
	}
	if cfg.Jurisdiction != "Port Orchard, WA" {
		t.Errorf("Jurisdiction = %q", cfg.Jurisdiction)
	}
	if cfg.LotArea != "21780 sq ft (0.50 ac)" {
		t.Errorf("LotArea = %q", cfg.LotArea)
	}
	if cfg.ZoneCode != "R-5" || cfg.ZoneName != "Rural Residential 5" {
		t.Errorf("zone = %q/%q", cfg.ZoneCode, cfg.ZoneName)
	}
	if cfg.GeneratedAt != "2025-11-03 09:30" {
		t.Errorf("GeneratedAt = %q", cfg.GeneratedAt)
	}
}

func TestActionViews_MapsEvidenceFields(t *testing.T) {
	items := []actions.ActionItem{{
		ID:              "build_adu",
		Category:        actions.CategoryAccessory,
		ActionName:      "Build an ADU",
		Status:          actions.StatusConditional,
		Confidence:      actions.ConfidenceMedium,
		Summary:         "Allowed with conditions.",
		Conditions:      []string{"owner occupancy"},
		BlockingFactors: nil,
		NextSteps:       []string{"confirm with the permit desk"},
	}}

	views := actionViews(items)
	if len(views) != 1 {
		t.Fatalf("views = %d, want 1", len(views))
	}
	v := views[0]
	if v.Name != "Build an ADU" || v.Status != "CONDITIONAL" || v.Confidence != "MEDIUM" {
		t.Errorf("view = %+v", v)
	}
	if len(v.Conditions) != 1 || len(v.NextSteps) != 1 || len(v.Blockers) != 0 {
		t.Errorf("evidence lists did not map: %+v", v)
	}
}

func TestCountStructures(t *testing.T) {
	site := &siteplan.SiteModel{Features: []siteplan.SiteFeature{
		{ID: "f1", Kind: siteplan.KindStructure},
		{ID: "f2", Kind: siteplan.KindWell},
		{ID: "f3", Kind: siteplan.KindStructure},
	}}

	if got := countStructures(site); got != 2 {
		t.Errorf("countStructures = %d, want 2", got)
	}
	if got := countStructures(nil); got != 0 {
		t.Errorf("countStructures(nil) = %d, want 0", got)
	}
}
