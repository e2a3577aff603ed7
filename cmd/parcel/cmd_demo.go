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
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/ParcelFOSS/pkg/ux"
	"github.com/AleutianAI/ParcelFOSS/pkg/validation"
	"github.com/AleutianAI/ParcelFOSS/services/propertydata"
	"github.com/AleutianAI/ParcelFOSS/services/report"
	"github.com/AleutianAI/ParcelFOSS/services/rulebook"
	"github.com/AleutianAI/ParcelFOSS/services/sitegen"
)

// defaultDemoAddress is used when no address is given. Any address
// works; the demo county derives a deterministic parcel from it.
const defaultDemoAddress = "482 Salmonberry Ln"

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

// runDemoCommand generates a report for the synthetic demo county.
//
// # Description
//
// Builds the whole pipeline in-process: the embedded default rulebook,
// the seeded demo county as the property source, and an unmetered
// report service. The same address and seed always produce the same
// parcel, so results are reproducible and shareable.
//
// # Inputs
//
//   - cmd: Cobra command (unused)
//   - args: Optional street address words
//
// # Outputs
//
// Prints the rendered report, or the raw JSON with --json.
//
// # Limitations
//
//   - Demo parcels are synthetic; nothing here describes a real county
func runDemoCommand(cmd *cobra.Command, args []string) {
	address := defaultDemoAddress
	if len(args) > 0 {
		address = strings.Join(args, " ")
	}
	line, err := validation.SanitizeAddressLine(address)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid address: %v\n", err)
		os.Exit(1)
	}

	rb, err := rulebook.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load the default rulebook: %v\n", err)
		os.Exit(1)
	}

	fetcher, err := propertydata.NewFetcher(propertydata.FetcherConfig{
		Sources: sitegen.NewDemo(demoSeed).Sources(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build the demo county: %v\n", err)
		os.Exit(1)
	}

	svc, err := report.NewService(report.Config{
		Rules:      report.StaticRules{Rulebook: rb},
		Properties: fetcher,
		// Service logs would interleave with the rendered report.
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build the report service: %v\n", err)
		os.Exit(1)
	}

	req := report.ReportRequest{
		Address: propertydata.Address{Line: line},
		Account: demoAccount,
	}

	start := time.Now()
	rep, err := svc.BuildReport(context.Background(), req)
	took := time.Since(start)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Demo report failed: %v\n", err)
		os.Exit(1)
	}

	if outputJSON {
		outputJSONValue(rep)
		return
	}

	renderReport(ux.NewReportUI(), rep, took)
	ux.Muted(fmt.Sprintf("Synthetic county, seed %d. Same address and seed, same parcel.", demoSeed))
}
