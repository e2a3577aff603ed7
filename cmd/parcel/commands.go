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
	"github.com/AleutianAI/ParcelFOSS/pkg/ux"
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	serverURL        string // CLI override for the report server base URL
	outputJSON       bool   // Raw JSON output for scripting
	personalityLevel string // UX personality level (full/standard/minimal/machine)

	reportAccount string
	reportCity    string
	reportState   string
	reportZip     string

	evaluateFile string
	evaluateZone string
	actionsFile  string
	actionsZone  string

	demoSeed    int64
	demoAccount string

	servePort      int
	serveRulebook  string
	serveDataDir   string
	serveSeed      int64
	serveUnmetered bool

	browseLimit int

	creditsHistory int
	topupCredits   int64
	topupReason    string
	topupYes       bool

	rootCmd = &cobra.Command{
		Use:   "parcel",
		Short: "A cli for ParcelFOSS property feasibility reports",
		Long: `Parcel checks what you can build on a property: setbacks, lot
coverage, septic clearances, and a classified catalog of actions
(build an ADU, subdivide, drill a well) with plain reasons.

Reports come from a ParcelFOSS report server; run one locally with
"parcel serve" or try "parcel demo" for a synthetic county that needs
no server at all.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Initialize UX personality from flag or environment
			if personalityLevel != "" {
				ux.SetPersonalityLevel(ux.ParsePersonalityLevel(personalityLevel))
			} else {
				ux.InitPersonality()
			}
		},
	}

	// --- Reports ---
	reportCmd = &cobra.Command{
		Use:   "report [street address]",
		Short: "Generate a feasibility report for a property address",
		Args:  cobra.MinimumNArgs(1),
		Run:   runReportCommand, // Defined in cmd_report.go
	}

	browseCmd = &cobra.Command{
		Use:   "browse",
		Short: "Browse saved reports in an interactive viewer",
		Run:   runBrowseCommand, // Defined in cmd_browse.go
	}

	// --- Engine ---
	evaluateCmd = &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a site layout file against zoning rules",
		Long: `Evaluate reads a layout snapshot (lot dimensions, existing site
features, and candidate structures) and returns placement comments
and permit requirements.

The file may be YAML or JSON using the same field names as the
/v1/evaluate API body:

  zone_code: R-5
  lot: {width_ft: 100, depth_ft: 150}
  site:
    slope_percent: 8
    utilities: {sewer_available: true}
    features:
      - {id: house-1, kind: structure, x: 30, y: 25, width: 40, height: 30, required_buffer: 0}
  candidates:
    - {id: adu-1, type: adu, x: 62, y: 110, width: 24, depth: 30}`,
		Run: runEvaluateCommand, // Defined in cmd_evaluate.go
	}

	actionsCmd = &cobra.Command{
		Use:   "actions",
		Short: "Classify the action catalog for a set of property facts",
		Long: `Actions reads property facts (parcel area, zoning bucket, soil,
utilities, environment) and returns the classified action catalog.

The file may be YAML or JSON using the same field names as the
/v1/actions/classify facts body:

  parcel_area_sq_ft: 21780
  zoning: residential_single
  soil: {rating: well_suited}
  utilities: {sewer_available: false}
  environment: {flood_zone: false}

With --zone the server computes the zone's rule checks into the
facts before classifying.`,
		Run: runActionsCommand, // Defined in cmd_evaluate.go
	}

	// --- Demo / Serve ---
	demoCmd = &cobra.Command{
		Use:   "demo [street address]",
		Short: "Generate a report for a synthetic county, no server needed",
		Run:   runDemoCommand, // Defined in cmd_demo.go
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run a local report server",
		Long: `Serve runs the report server in the foreground. Without a data
directory reports and credits are kept in memory; without a county
portal the server answers from the synthetic demo county. For the
production daemon with telemetry and archival, see reportd.`,
		Run: runServeCommand, // Defined in cmd_serve.go
	}

	// --- Credits ---
	creditsCmd = &cobra.Command{
		Use:   "credits [account]",
		Short: "Show an account's credit balance",
		Run:   runCreditsCommand, // Defined in cmd_credits.go
	}
	topupCmd = &cobra.Command{
		Use:   "topup [account]",
		Short: "Add credits to an account",
		Run:   runTopupCommand, // Defined in cmd_credits.go
	}
)

// init runs when the Go program starts
func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&personalityLevel, "personality", "",
		"Output style: full (default), standard, minimal, or machine (scripting)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "",
		"Report server base URL (overrides PARCEL_SERVER_URL)")

	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVarP(&reportAccount, "account", "a", "",
		"Credit account to charge (overrides PARCEL_ACCOUNT)")
	reportCmd.Flags().StringVar(&reportCity, "city", "", "City of the property")
	reportCmd.Flags().StringVar(&reportState, "state", "", "State of the property")
	reportCmd.Flags().StringVar(&reportZip, "zip", "", "ZIP code of the property")
	reportCmd.Flags().BoolVar(&outputJSON, "json", false, "Output the raw report JSON")

	rootCmd.AddCommand(browseCmd)
	browseCmd.Flags().IntVar(&browseLimit, "limit", 20, "Maximum number of saved reports to load")

	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().StringVarP(&evaluateFile, "file", "f", "", "Layout file (YAML or JSON)")
	evaluateCmd.Flags().StringVar(&evaluateZone, "zone", "",
		"Zone code overriding the file's zone_code")
	evaluateCmd.Flags().BoolVar(&outputJSON, "json", false, "Output the raw response JSON")
	evaluateCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(actionsCmd)
	actionsCmd.Flags().StringVarP(&actionsFile, "file", "f", "", "Facts file (YAML or JSON)")
	actionsCmd.Flags().StringVar(&actionsZone, "zone", "",
		"Zone code; the server folds the zone's rule checks into the facts")
	actionsCmd.Flags().BoolVar(&outputJSON, "json", false, "Output the raw response JSON")
	actionsCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(demoCmd)
	demoCmd.Flags().Int64Var(&demoSeed, "seed", 1, "Seed for the synthetic county")
	demoCmd.Flags().StringVarP(&demoAccount, "account", "a", "demo", "Account name used in the report")
	demoCmd.Flags().BoolVar(&outputJSON, "json", false, "Output the raw report JSON")

	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 12310, "Listen port")
	serveCmd.Flags().StringVar(&serveRulebook, "rulebook", "",
		"Rulebook YAML overlay (hot-reloaded on change)")
	serveCmd.Flags().StringVar(&serveDataDir, "data-dir", "",
		"Badger data directory; empty keeps reports and credits in memory")
	serveCmd.Flags().Int64Var(&serveSeed, "seed", 1, "Seed for the synthetic county")
	serveCmd.Flags().BoolVar(&serveUnmetered, "unmetered", false, "Disable credit metering")

	rootCmd.AddCommand(creditsCmd)
	creditsCmd.Flags().IntVar(&creditsHistory, "history", 0,
		"Include the N most recent ledger entries")
	creditsCmd.AddCommand(topupCmd)
	topupCmd.Flags().Int64Var(&topupCredits, "credits", 0, "Credits to add")
	topupCmd.Flags().StringVar(&topupReason, "reason", "cli topup", "Ledger entry note")
	topupCmd.Flags().BoolVarP(&topupYes, "yes", "y", false, "Skip the confirmation prompt")
	topupCmd.MarkFlagRequired("credits")
}
