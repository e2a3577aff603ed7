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
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/AleutianAI/ParcelFOSS/pkg/logging"
	"github.com/AleutianAI/ParcelFOSS/pkg/ux"
	"github.com/AleutianAI/ParcelFOSS/services/ledger"
	"github.com/AleutianAI/ParcelFOSS/services/propertydata"
	"github.com/AleutianAI/ParcelFOSS/services/report"
	"github.com/AleutianAI/ParcelFOSS/services/rulebook"
	"github.com/AleutianAI/ParcelFOSS/services/sitegen"
	"github.com/AleutianAI/ParcelFOSS/services/storage/badgerstore"
)

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

// runServeCommand runs the report server in the foreground.
//
// # Description
//
// Wires the same stack as the reportd daemon, tuned for local use: gin
// release mode, plain-text logs, no telemetry exporters. The county
// portal is taken from PARCEL_COUNTY_URL when set, otherwise the
// seeded demo county answers.
//
// # Inputs
//
//   - cmd: Cobra command (unused)
//   - args: Command arguments (unused)
//
// # Outputs
//
// Blocks serving HTTP until interrupted.
//
// # Limitations
//
//   - For telemetry, archival, and structured JSON logs, run reportd
func runServeCommand(cmd *cobra.Command, args []string) {
	gin.SetMode(gin.ReleaseMode)

	level := logging.LevelInfo
	if raw := os.Getenv("PARCEL_LOG_LEVEL"); raw != "" {
		if parsed, err := logging.ParseLevel(raw); err == nil {
			level = parsed
		}
	}
	logger := logging.New(logging.Config{Level: level, Service: "parcel"})
	slog.SetDefault(logger.Slog())

	var db *badgerstore.DB
	var err error
	if serveDataDir == "" {
		ux.Warning("No --data-dir; reports and credits will not survive a restart")
		db, err = badgerstore.Open(badgerstore.InMemoryConfig())
	} else {
		db, err = badgerstore.Open(badgerstore.DefaultConfig(serveDataDir))
	}
	if err != nil {
		ux.Error("Failed to open the data directory: " + err.Error())
		os.Exit(1)
	}

	rules, err := rulebook.NewStore(serveRulebook)
	if err != nil {
		db.Close()
		ux.Error("Failed to load the rulebook: " + err.Error())
		os.Exit(1)
	}
	watchCtx, stopWatch := context.WithCancel(context.Background())
	go rules.Watch(watchCtx)

	fetcher, err := buildServeFetcher()
	if err != nil {
		stopWatch()
		db.Close()
		ux.Error("Failed to build property sources: " + err.Error())
		os.Exit(1)
	}

	cfg := report.Config{
		Rules:      rules,
		Properties: fetcher,
		Logger:     slog.Default(),
	}
	if serveUnmetered {
		ux.Info("Credit metering disabled")
	} else {
		led, err := ledger.New(db, slog.Default())
		if err != nil {
			stopWatch()
			db.Close()
			ux.Error("Failed to create the ledger: " + err.Error())
			os.Exit(1)
		}
		cfg.Credits = led
	}

	store, err := report.NewStore(db, slog.Default())
	if err != nil {
		stopWatch()
		db.Close()
		ux.Error("Failed to create the report store: " + err.Error())
		os.Exit(1)
	}
	cfg.Store = store

	svc, err := report.NewService(cfg)
	if err != nil {
		stopWatch()
		db.Close()
		ux.Error("Failed to create the report service: " + err.Error())
		os.Exit(1)
	}

	server, err := report.NewServer(report.ServerConfig{
		Port:          servePort,
		EnableMetrics: true,
	}, svc)
	if err != nil {
		stopWatch()
		db.Close()
		ux.Error("Failed to create the server: " + err.Error())
		os.Exit(1)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		stopWatch()
		rules.Close()
		if err := db.Close(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
		os.Exit(0)
	}()

	ux.Success(rootListenMessage())
	if err := server.Run(); err != nil {
		stopWatch()
		db.Close()
		ux.Error("Server stopped: " + err.Error())
		os.Exit(1)
	}
}

// rootListenMessage names the endpoint a first-time user needs.
func rootListenMessage() string {
	base := fmt.Sprintf("http://localhost:%d", servePort)
	return fmt.Sprintf("Serving reports on %s  (try: parcel report %q --server %s)",
		base, defaultDemoAddress, base)
}

// buildServeFetcher mirrors the daemon's property wiring: a real
// county portal when PARCEL_COUNTY_URL is set, the demo county
// otherwise.
func buildServeFetcher() (*propertydata.Fetcher, error) {
	countyURL := os.Getenv("PARCEL_COUNTY_URL")
	if countyURL == "" {
		return propertydata.NewFetcher(propertydata.FetcherConfig{
			Sources: sitegen.NewDemo(serveSeed).Sources(),
		})
	}

	httpClient := &http.Client{Timeout: 15 * time.Second}

	geocoder, err := propertydata.NewGeocodeClient(propertydata.ClientConfig{
		BaseURL:    os.Getenv("PARCEL_GEOCODER_URL"),
		HTTPClient: httpClient,
		// Public Nominatim allows one request per second.
		Limiter: rate.NewLimiter(rate.Limit(1), 1),
	})
	if err != nil {
		return nil, err
	}

	county, err := propertydata.NewCountyClient(propertydata.ClientConfig{
		BaseURL:    countyURL,
		APIKey:     os.Getenv("PARCEL_COUNTY_API_KEY"),
		HTTPClient: httpClient,
		Limiter:    rate.NewLimiter(rate.Limit(5), 5),
	})
	if err != nil {
		return nil, err
	}

	return propertydata.NewFetcher(propertydata.FetcherConfig{
		Sources: propertydata.Sources{
			Geocoder:    geocoder,
			Parcels:     county,
			Soil:        county,
			Utilities:   county,
			Environment: county,
		},
	})
}
