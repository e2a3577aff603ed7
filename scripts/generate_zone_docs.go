// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// generate_zone_docs generates a markdown reference table from a zone
// rulebook.
//
// Usage:
//
//	go run scripts/generate_zone_docs.go > docs/zone_reference.md
//	go run scripts/generate_zone_docs.go custom_rules.yaml > docs/zone_reference.md
//
// With no argument the embedded default rulebook is rendered, so the
// generated reference always matches what a fresh install serves.
//
// The generated documentation includes:
//   - Zone tables grouped by zoning category
//   - Setback, coverage, and density standards per zone
//   - Accessory dwelling and subdivision allowances
//   - Summary statistics
package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/AleutianAI/ParcelFOSS/services/actions"
	"github.com/AleutianAI/ParcelFOSS/services/rulebook"
)

// zoneGroup is one category's slice of the rulebook.
type zoneGroup struct {
	Name        string
	Description string
	Codes       []string
}

func main() {
	var rb *rulebook.Rulebook
	var err error
	if len(os.Args) > 1 {
		rb, err = rulebook.LoadFile(os.Args[1])
	} else {
		rb, err = rulebook.LoadDefault()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading rulebook: %v\n", err)
		os.Exit(1)
	}

	groups := groupZones(rb)
	generateMarkdown(rb, groups)
}

// groupZones buckets zone codes by their zoning category, keeping the
// rulebook's sorted code order within each bucket.
func groupZones(rb *rulebook.Rulebook) []zoneGroup {
	groupMap := map[actions.ZoningCategory]*zoneGroup{
		actions.ZoningResidentialSingle: {
			Name:        "Single-Family Residential Zones",
			Description: "Zones where the primary use is one dwelling per lot. The ADU and DADU columns control accessory dwellings.",
		},
		actions.ZoningResidentialMulti: {
			Name:        "Multi-Family Residential Zones",
			Description: "Zones with a residential density allowance above one dwelling per lot.",
		},
		actions.ZoningRural: {
			Name:        "Rural Zones",
			Description: "Large-lot zones, typically unsewered; septic minimums matter most here.",
		},
		actions.ZoningCommercial: {
			Name:        "Commercial Zones",
			Description: "Zones where residential construction is restricted or conditional.",
		},
		actions.ZoningMixed: {
			Name:        "Mixed-Use Zones",
			Description: "Zones combining residential and commercial standards.",
		},
	}

	for _, code := range rb.ZoneCodes() {
		z, _ := rb.Zone(code)
		if g, ok := groupMap[z.Category]; ok {
			g.Codes = append(g.Codes, code)
		}
	}

	order := []actions.ZoningCategory{
		actions.ZoningResidentialSingle,
		actions.ZoningResidentialMulti,
		actions.ZoningRural,
		actions.ZoningCommercial,
		actions.ZoningMixed,
	}

	var result []zoneGroup
	for _, key := range order {
		if g, ok := groupMap[key]; ok && len(g.Codes) > 0 {
			result = append(result, *g)
		}
	}
	return result
}

// generateMarkdown outputs the full markdown documentation.
func generateMarkdown(rb *rulebook.Rulebook, groups []zoneGroup) {
	fmt.Println("# Zone Reference")
	fmt.Println()
	fmt.Println("## Overview")
	fmt.Println()
	fmt.Println("This document lists every zone the report server can classify, with the")
	fmt.Println("numeric standards the evaluator and action classifier apply. The default")
	fmt.Println("table is embedded in the binary; operators can overlay it with --rulebook.")
	fmt.Println()
	fmt.Printf("**Rulebook version:** %s\n", rb.Version)
	fmt.Println()
	fmt.Printf("**Generated:** %s\n", time.Now().Format("2006-01-02 15:04:05 UTC"))
	fmt.Println()

	// Statistics
	codes := rb.ZoneCodes()
	aduZones := 0
	daduZones := 0
	subdivisionZones := 0
	citations := 0
	for _, code := range codes {
		z, _ := rb.Zone(code)
		if z.ADUAllowed {
			aduZones++
		}
		if z.DADUAllowed {
			daduZones++
		}
		if z.SubdivisionAllowed {
			subdivisionZones++
		}
		citations += len(z.Citations)
	}

	fmt.Println("## Summary Statistics")
	fmt.Println()
	fmt.Println("| Metric | Count |")
	fmt.Println("|--------|-------|")
	fmt.Printf("| Total Zones | %d |\n", len(codes))
	fmt.Printf("| Zones Allowing ADUs | %d |\n", aduZones)
	fmt.Printf("| Zones Allowing DADUs | %d |\n", daduZones)
	fmt.Printf("| Zones Allowing Subdivision | %d |\n", subdivisionZones)
	fmt.Printf("| Code Citations | %d |\n", citations)
	fmt.Printf("| Zone Categories | %d |\n", len(groups))
	fmt.Println()

	// Table of contents
	fmt.Println("## Table of Contents")
	fmt.Println()
	for i, g := range groups {
		fmt.Printf("%d. [%s](#%s)\n", i+1, g.Name, strings.ToLower(strings.ReplaceAll(g.Name, " ", "-")))
	}
	fmt.Println()

	// Jurisdiction-wide defaults
	d := rb.Defaults
	fmt.Println("## Jurisdiction Defaults")
	fmt.Println()
	fmt.Println("| Standard | Value |")
	fmt.Println("|----------|-------|")
	fmt.Printf("| Setback warning margin | %.0f ft |\n", d.SetbackWarnFt)
	fmt.Printf("| Minimum structure separation | %.0f ft |\n", d.MinSeparationFt)
	fmt.Printf("| Coverage warning threshold | %.0f%% of cap |\n", d.CoverageWarnRatio*100)
	fmt.Printf("| Building permit trigger | %.0f sq ft |\n", d.BuildingPermitSqFt)
	fmt.Printf("| Moderate slope | %.0f%% |\n", d.ModerateSlopePct)
	fmt.Printf("| Steep slope | %.0f%% |\n", d.SteepSlopePct)
	fmt.Println()

	for _, g := range groups {
		fmt.Printf("## %s\n", g.Name)
		fmt.Println()
		fmt.Println(g.Description)
		fmt.Println()
		fmt.Println("| Zone | Name | Min Lot | Coverage | Height | Density | ADU | DADU | Subdivision | Setbacks F/S/R |")
		fmt.Println("|------|------|---------|----------|--------|---------|-----|------|-------------|----------------|")
		for _, code := range g.Codes {
			z, _ := rb.Zone(code)
			fmt.Printf("| %s | %s | %s | %.0f%% | %.0f ft | %s | %s | %s | %s | %.0f/%.0f/%.0f ft |\n",
				code, z.Name,
				formatSqFt(z.MinLotSqFt),
				z.MaxCoveragePct,
				z.MaxHeightFt,
				formatDensity(z.MaxDensityDUPerAcre),
				yesNo(z.ADUAllowed),
				daduCell(z),
				subdivisionCell(z),
				z.Setbacks.FrontFt, z.Setbacks.SideFt, z.Setbacks.RearFt)
		}
		fmt.Println()
	}

	// Citations appendix
	fmt.Println("## Code Citations")
	fmt.Println()
	fmt.Println("Rule classifications quote these sections verbatim.")
	fmt.Println()
	fmt.Println("| Zone | Rule | Citation |")
	fmt.Println("|------|------|----------|")
	for _, code := range codes {
		z, _ := rb.Zone(code)
		for _, rt := range sortedKeys(z.Citations) {
			fmt.Printf("| %s | %s | %s |\n", code, rt, z.Citations[rt])
		}
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// daduCell includes the detached-ADU lot minimum when one applies.
func daduCell(z rulebook.ZoneRules) string {
	if !z.DADUAllowed {
		return "No"
	}
	if z.DADUMinLotSqFt > 0 {
		return fmt.Sprintf("Yes (min %s)", formatSqFt(z.DADUMinLotSqFt))
	}
	return "Yes"
}

// subdivisionCell includes the minimum new lot size when allowed.
func subdivisionCell(z rulebook.ZoneRules) string {
	if !z.SubdivisionAllowed {
		return "No"
	}
	return fmt.Sprintf("Yes (lots >= %s)", formatSqFt(z.MinNewLotSqFt))
}

// formatSqFt renders lot areas in acres once they stop reading well in
// square feet.
func formatSqFt(sqft float64) string {
	const sqftPerAcre = 43560
	if sqft >= sqftPerAcre {
		return fmt.Sprintf("%.2g ac", sqft/sqftPerAcre)
	}
	return fmt.Sprintf("%.0f sq ft", sqft)
}

func formatDensity(duPerAcre float64) string {
	if duPerAcre <= 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.0f DU/ac", duPerAcre)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
