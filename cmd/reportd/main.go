// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command reportd starts the ParcelFOSS report HTTP server.
//
// This is the main entry point for the containerized report service.
// It reads configuration from environment variables and starts the
// server. Without a county portal configured it serves the built-in
// demo county, so a bare `reportd` is fully usable offline.
//
// # Environment Variables
//
//   - PARCEL_PORT: HTTP server port (default: 12310)
//   - PARCEL_DATA_DIR: BadgerDB directory for reports and credits; empty keeps both in memory
//   - PARCEL_RULEBOOK: zone rulebook YAML, hot-reloaded on change (default: embedded rulebook)
//   - PARCEL_COUNTY_URL: county open-data portal root; empty serves the demo county
//   - PARCEL_COUNTY_API_KEY: bearer token for the county portal (optional)
//   - PARCEL_GEOCODER_URL: Nominatim-compatible endpoint (default: public Nominatim)
//   - PARCEL_DEMO_SEED: demo county seed (default: 1)
//   - PARCEL_REPORT_COST: credits charged per report (default: 1)
//   - PARCEL_UNMETERED: "true" disables credit metering
//   - PARCEL_METRICS: "false" removes the /metrics endpoint
//   - PARCEL_TELEMETRY: "false" disables the OpenTelemetry stack
//   - PARCEL_LOG_LEVEL: debug, info, warn, error (default: info)
//   - PARCEL_LOG_DIR: also write JSON logs to this directory (optional)
//   - PARCEL_GCS_BUCKET, PARCEL_GCS_PREFIX, PARCEL_GCS_KEY_FILE: report archive (optional)
//   - OPENAI_API_KEY, OPENAI_BASE_URL, OPENAI_MODEL: report narratives (optional)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OpenTelemetry collector (default: localhost:4317)
//
// # Usage
//
//	# Build
//	go build -o reportd ./cmd/reportd
//
//	# Offline demo county
//	./reportd
//
//	# Against a county portal, with persistence
//	PARCEL_COUNTY_URL=https://data.example.gov PARCEL_DATA_DIR=/var/lib/parcelfoss ./reportd
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"github.com/AleutianAI/ParcelFOSS/pkg/logging"
	"github.com/AleutianAI/ParcelFOSS/services/explain"
	"github.com/AleutianAI/ParcelFOSS/services/ledger"
	"github.com/AleutianAI/ParcelFOSS/services/propertydata"
	"github.com/AleutianAI/ParcelFOSS/services/report"
	"github.com/AleutianAI/ParcelFOSS/services/report/archive"
	"github.com/AleutianAI/ParcelFOSS/services/report/telemetry"
	"github.com/AleutianAI/ParcelFOSS/services/rulebook"
	"github.com/AleutianAI/ParcelFOSS/services/sitegen"
	"github.com/AleutianAI/ParcelFOSS/services/storage/badgerstore"
)

func main() {
	_ = godotenv.Load()

	level := logging.LevelInfo
	if raw := os.Getenv("PARCEL_LOG_LEVEL"); raw != "" {
		parsed, err := logging.ParseLevel(raw)
		if err != nil {
			log.Fatalf("PARCEL_LOG_LEVEL: %v", err)
		}
		level = parsed
	}
	logger := logging.New(logging.Config{
		Level:   level,
		JSON:    true,
		Service: "report-service",
		LogDir:  os.Getenv("PARCEL_LOG_DIR"),
	})
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	if getEnvString("PARCEL_ENV", "development") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Storage first: everything downstream hangs off the open database.
	db, err := openDatabase()
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	rules, err := rulebook.NewStore(os.Getenv("PARCEL_RULEBOOK"))
	if err != nil {
		db.Close()
		log.Fatalf("Failed to load rulebook: %v", err)
	}
	watchCtx, stopWatch := context.WithCancel(context.Background())
	go rules.Watch(watchCtx)

	fetcher, err := buildFetcher()
	if err != nil {
		db.Close()
		log.Fatalf("Failed to build property sources: %v", err)
	}

	cfg := report.Config{
		Rules:      rules,
		Properties: fetcher,
		ReportCost: int64(getEnvInt("PARCEL_REPORT_COST", 0)),
		Summarizer: buildSummarizer(),
		Archive:    buildArchive(),
		Logger:     slog.Default(),
	}

	if getEnvBool("PARCEL_UNMETERED", false) {
		slog.Info("Credit metering disabled")
	} else {
		led, err := ledger.New(db, slog.Default())
		if err != nil {
			db.Close()
			log.Fatalf("Failed to create ledger: %v", err)
		}
		cfg.Credits = led
	}

	store, err := report.NewStore(db, slog.Default())
	if err != nil {
		db.Close()
		log.Fatalf("Failed to create report store: %v", err)
	}
	cfg.Store = store

	svc, err := report.NewService(cfg)
	if err != nil {
		db.Close()
		log.Fatalf("Failed to create report service: %v", err)
	}

	serverCfg := report.ServerConfig{
		Port:          getEnvInt("PARCEL_PORT", 12310),
		EnableMetrics: getEnvBool("PARCEL_METRICS", true),
	}
	if getEnvBool("PARCEL_TELEMETRY", true) {
		serverCfg.Telemetry = telemetry.DefaultConfig()
	}

	server, err := report.NewServer(serverCfg, svc)
	if err != nil {
		db.Close()
		log.Fatalf("Failed to create server: %v", err)
	}

	// Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		slog.Info("Shutting down report server")
		stopWatch()
		rules.Close()
		if err := db.Close(); err != nil {
			slog.Error("Failed to close database", "error", err)
		}
		logger.Close()
		os.Exit(0)
	}()

	slog.Info("Starting report server",
		"port", serverCfg.Port,
		"metrics", serverCfg.EnableMetrics,
		"metered", cfg.Credits != nil,
	)
	if err := server.Run(); err != nil {
		slog.Error("Server error", "error", err)
		db.Close()
		os.Exit(1)
	}
}

// openDatabase opens the report/ledger store. Without PARCEL_DATA_DIR
// everything stays in memory, which is fine for the demo county but
// loses reports and credit balances on restart.
func openDatabase() (*badgerstore.DB, error) {
	dataDir := os.Getenv("PARCEL_DATA_DIR")
	if dataDir == "" {
		slog.Warn("PARCEL_DATA_DIR not set; reports and credits will not survive a restart")
		return badgerstore.Open(badgerstore.InMemoryConfig())
	}
	return badgerstore.Open(badgerstore.DefaultConfig(dataDir))
}

// buildFetcher wires the property record fetcher against the county
// portal, or against the seeded demo county when no portal is
// configured.
func buildFetcher() (*propertydata.Fetcher, error) {
	countyURL := os.Getenv("PARCEL_COUNTY_URL")
	if countyURL == "" {
		seed := int64(getEnvInt("PARCEL_DEMO_SEED", 1))
		slog.Info("No county portal configured, serving the demo county", "seed", seed)
		return propertydata.NewFetcher(propertydata.FetcherConfig{
			Sources: sitegen.NewDemo(seed).Sources(),
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

	slog.Info("County portal configured", "url", countyURL)
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

// buildSummarizer returns the narrative explainer, or nil when no
// backend key is configured. Reports simply ship without the summary.
func buildSummarizer() report.Summarizer {
	explainer, err := explain.NewExplainerFromEnv(slog.Default())
	if err != nil {
		slog.Info("Report narratives disabled", "reason", err)
		return nil
	}
	slog.Info("Report narratives enabled")
	return explainer
}

// buildArchive returns the GCS report archive, or nil when no bucket
// is configured.
func buildArchive() report.Archiver {
	bucket := os.Getenv("PARCEL_GCS_BUCKET")
	if bucket == "" {
		return nil
	}
	arc, err := archive.NewGCSArchive(context.Background(), bucket,
		os.Getenv("PARCEL_GCS_PREFIX"), os.Getenv("PARCEL_GCS_KEY_FILE"), slog.Default())
	if err != nil {
		slog.Warn("Report archive disabled", "error", err)
		return nil
	}
	slog.Info("Report archive enabled", "bucket", bucket)
	return arc
}

// getEnvString returns the environment variable value or a default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvBool returns the environment variable as bool or a default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
