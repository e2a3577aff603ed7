// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command parcel is the ParcelFOSS command line client.
//
// Most commands talk to a running report server (see cmd/reportd) and
// render the results for the terminal. The demo command needs no server
// at all: it generates reports for a synthetic county in-process.
//
// Environment Variables:
//
//	PARCEL_SERVER_URL  - Report server base URL (default http://localhost:12310)
//	PARCEL_ACCOUNT     - Default credit account for metered commands
//	PARCEL_PERSONALITY - Output style: full, standard, minimal, machine
//
// Usage:
//
//	parcel report "482 Salmonberry Ln" --city Port Orchard --state WA
//	parcel evaluate -f layout.yaml
//	parcel actions -f facts.yaml --zone R-5
//	parcel demo --seed 7
//	parcel browse
//	parcel serve --port 12310
package main

import (
	"log"

	"github.com/joho/godotenv"
)

func main() {
	// A .env beside the binary is a convenience, not a requirement.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}
