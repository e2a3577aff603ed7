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
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/ParcelFOSS/pkg/ux"
	"github.com/AleutianAI/ParcelFOSS/pkg/validation"
	"github.com/AleutianAI/ParcelFOSS/services/propertydata"
	"github.com/AleutianAI/ParcelFOSS/services/report"
)

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

// runReportCommand generates a feasibility report for one address.
//
// # Description
//
// Joins the positional arguments into the street line, asks the report
// server for a full report, and renders it. Reports are metered: the
// server charges the account named by --account or PARCEL_ACCOUNT.
//
// # Inputs
//
//   - cmd: Cobra command (unused)
//   - args: Street address words
//
// # Outputs
//
// Prints the rendered report, or the raw JSON with --json.
//
// # Limitations
//
//   - Exits with code 1 on any server or validation error
func runReportCommand(cmd *cobra.Command, args []string) {
	line, err := validation.SanitizeAddressLine(strings.Join(args, " "))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid address: %v\n", err)
		os.Exit(1)
	}

	account := getAccount(reportAccount)
	if account == "" {
		fmt.Fprintln(os.Stderr, "No account given. Pass --account or set PARCEL_ACCOUNT.")
		fmt.Fprintln(os.Stderr, "New accounts start empty; add credits with: parcel credits topup <account> --credits 10")
		os.Exit(1)
	}

	req := report.ReportRequest{
		Address: propertydata.Address{
			Line:  line,
			City:  reportCity,
			State: reportState,
			Zip:   reportZip,
		},
		Account: account,
	}

	// No spinner in JSON mode: stdout must stay parseable.
	var spin *ux.Spinner
	if !outputJSON {
		spin = ux.NewSpinner("Pulling county records")
		spin.Start()
	}

	var rep report.Report
	start := time.Now()
	err = postJSON("/v1/reports", req, &rep)
	took := time.Since(start)
	if err != nil {
		if spin != nil {
			spin.Stop()
		}
		reportRequestFailed(err)
	}

	if outputJSON {
		outputJSONValue(rep)
		return
	}
	spin.StopWithSuccess(fmt.Sprintf("Report ready in %s", took.Round(time.Millisecond)))

	renderReport(ux.NewReportUI(), rep, took)
	if rep.Summary != "" {
		ux.Box("Summary", rep.Summary)
	}
}

// reportRequestFailed explains the failure and exits. Credit and zone
// problems get a hint along with the server's message.
func reportRequestFailed(err error) {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status == http.StatusPaymentRequired:
			ux.Error(apiErr.Message)
			ux.Muted("Add credits with: parcel credits topup <account> --credits 10")
		case apiErr.Code == "UNKNOWN_ZONE":
			ux.Error(apiErr.Message)
			ux.Muted("The zone is not in the rulebook; actions would all be UNKNOWN.")
		default:
			ux.Error(apiErr.Message)
		}
		os.Exit(1)
	}
	ux.Error(err.Error())
	ux.Muted("Is a report server running? Try: parcel serve")
	os.Exit(1)
}
