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
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/ParcelFOSS/pkg/ux"
	"github.com/AleutianAI/ParcelFOSS/pkg/validation"
	"github.com/AleutianAI/ParcelFOSS/services/report"
)

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

// runEvaluateCommand checks a layout file against zoning rules.
//
// # Description
//
// Reads the layout snapshot named by --file, sends it to the server's
// evaluate endpoint, and renders the placement comments and permit
// requirements. The zone comes from the file's zone_code unless --zone
// overrides it.
//
// # Inputs
//
//   - cmd: Cobra command (unused)
//   - args: Command arguments (unused)
//
// # Outputs
//
// Prints placement feedback grouped by severity, then the permit list
// and the per-structure standing counts.
//
// # Limitations
//
//   - Exits with code 1 on file, validation, or server errors
func runEvaluateCommand(cmd *cobra.Command, args []string) {
	var req report.EvaluateRequest
	if err := decodeRequestFile(evaluateFile, &req); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if evaluateZone != "" {
		req.ZoneCode = evaluateZone
	}
	if req.ZoneCode != "" {
		code, err := validation.SanitizeZoneCode(req.ZoneCode)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid zone code: %v\n", err)
			os.Exit(1)
		}
		req.ZoneCode = code
	}

	var resp report.EvaluateResponse
	start := time.Now()
	if err := postJSON("/v1/evaluate", req, &resp); err != nil {
		reportRequestFailed(err)
	}
	took := time.Since(start)

	if outputJSON {
		outputJSONValue(resp)
		return
	}

	ui := ux.NewReportUI()
	ui.Comments(commentViews(resp.Comments))
	ui.Permits(permitViews(resp.Permits))
	if standings := structureStandings(resp.Comments, req.Candidates); len(standings) > 0 {
		fmt.Println()
		for _, s := range standings {
			ux.StructureStatus(s.id, standingIcon(s.severity), s.reason)
		}
	}
	ui.Footer(evaluateStats(resp.Comments, req.Candidates, len(resp.Permits), took))
}

// runActionsCommand classifies the action catalog for a facts file.
//
// # Description
//
// Reads the property facts named by --file and asks the server to
// classify the full action catalog against them. With --zone the
// server computes the zone's rule checks into the facts first.
//
// # Inputs
//
//   - cmd: Cobra command (unused)
//   - args: Command arguments (unused)
//
// # Outputs
//
// Prints the classified catalog with status badges and reasons.
//
// # Limitations
//
//   - Exits with code 1 on file, validation, or server errors
func runActionsCommand(cmd *cobra.Command, args []string) {
	var req report.ClassifyRequest
	if err := decodeRequestFile(actionsFile, &req.Facts); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if actionsZone != "" {
		code, err := validation.SanitizeZoneCode(actionsZone)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid zone code: %v\n", err)
			os.Exit(1)
		}
		req.ZoneCode = code
	}

	var resp report.ClassifyResponse
	start := time.Now()
	if err := postJSON("/v1/actions/classify", req, &resp); err != nil {
		reportRequestFailed(err)
	}
	took := time.Since(start)

	if outputJSON {
		outputJSONValue(resp)
		return
	}

	ui := ux.NewReportUI()
	ui.Actions(actionViews(resp.Actions))

	seen := make(map[string]struct{})
	var gaps []string
	for _, item := range resp.Actions {
		for _, gap := range item.DataGaps {
			if _, dup := seen[gap]; dup {
				continue
			}
			seen[gap] = struct{}{}
			gaps = append(gaps, gap)
		}
	}
	sort.Strings(gaps)
	ui.DataGaps(gaps)

	ui.Footer(&ux.ReportStats{Actions: len(resp.Actions), Duration: took})
}
