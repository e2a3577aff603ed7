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

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/ParcelFOSS/pkg/ux"
	"github.com/AleutianAI/ParcelFOSS/services/report"
	"github.com/AleutianAI/ParcelFOSS/services/report/tui"
)

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

// runBrowseCommand opens saved reports in the interactive viewer.
//
// # Description
//
// Loads the newest saved reports from the server and hands them to the
// full-screen browser (arrow keys to switch reports, tab to switch
// between overview, actions, and permits). Outside a terminal it
// degrades to a plain listing.
//
// # Inputs
//
//   - cmd: Cobra command (unused)
//   - args: Command arguments (unused)
//
// # Outputs
//
// Runs the viewer until quit, or prints the listing.
//
// # Limitations
//
//   - Needs a server with persistence; in-memory servers forget
//     reports on restart
func runBrowseCommand(cmd *cobra.Command, args []string) {
	var summaries []report.ReportSummary
	if err := getJSON(fmt.Sprintf("/v1/reports?limit=%d", browseLimit), &summaries); err != nil {
		reportRequestFailed(err)
	}
	if len(summaries) == 0 {
		ux.Info("No saved reports yet. Generate one with: parcel report <address>")
		return
	}

	reports := make([]report.Report, 0, len(summaries))
	err := ux.WithSpinner(fmt.Sprintf("Loading %d reports", len(summaries)), func() error {
		for _, s := range summaries {
			var rep report.Report
			if err := getJSON("/v1/reports/"+s.RequestID, &rep); err != nil {
				return err
			}
			reports = append(reports, rep)
		}
		return nil
	})
	if err != nil {
		reportRequestFailed(err)
	}

	if !ux.IsInteractive() {
		listReports(reports)
		return
	}

	model := tui.NewBrowseModel(reports, tui.DefaultBrowseConfig())
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		ux.Error("Viewer failed: " + err.Error())
		os.Exit(1)
	}
}

// listReports is the non-interactive fallback: one line per report.
func listReports(reports []report.Report) {
	for _, rep := range reports {
		fmt.Printf("%s  %-30s  zone=%-8s  actions=%d  %s\n",
			rep.GeneratedAt.Format("2006-01-02 15:04"),
			rep.Address.String(),
			rep.Zoning.ZoneCode,
			len(rep.Actions),
			rep.RequestID)
	}
}
