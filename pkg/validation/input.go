// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation utilities for security-critical operations.
//
// This package contains validators for user-provided inputs that are used in
// store keys, rulebook lookups, or outbound county queries. Using these validators
// prevents injection attacks (key-prefix collisions, log injection, cache poisoning).
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// zoneCodePattern matches valid zoning district codes.
// Allows: uppercase letters, digits, dots (R5.5), hyphens (NC2-40)
// Max length: 12 characters (covers county and municipal designations)
var zoneCodePattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-]{0,11}$`)

// accountPattern matches valid ledger account names.
// Allows: lowercase letters, digits, dots, underscores, hyphens
// Max length: 64 characters
var accountPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._\-]{0,63}$`)

// reportIDPattern matches report request IDs, which are lowercase UUIDs.
var reportIDPattern = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}$`)

// addressCharPattern matches the characters allowed in a street address line:
// letters, digits, spaces, and common address punctuation (#, ., comma,
// apostrophe, slash for fractional house numbers, hyphen).
var addressCharPattern = regexp.MustCompile(`^[A-Za-z0-9 .,'#/\-]+$`)

// maxAddressLen bounds a single address line. Anything longer is not a
// street address.
const maxAddressLen = 120

// ValidateZoneCode validates a zoning district code to prevent rulebook
// lookup abuse.
//
// Valid zone codes:
//   - 1-12 characters
//   - Uppercase letters A-Z
//   - Digits 0-9
//   - Dots (.) for fractional densities like R5.5
//   - Hyphens (-) for height suffixes like NC2-40
//
// Returns an error if the zone code is invalid.
//
// Example:
//
//	if err := validation.ValidateZoneCode(zone); err != nil {
//	    return nil, fmt.Errorf("invalid zone code: %w", err)
//	}
//	// Safe to use as a rulebook key
func ValidateZoneCode(code string) error {
	if code == "" {
		return fmt.Errorf("zone code cannot be empty")
	}

	if !zoneCodePattern.MatchString(code) {
		return fmt.Errorf("invalid zone code format: %q (must be 1-12 uppercase alphanumeric chars, dots, or hyphens)", code)
	}

	return nil
}

// ValidateZoneCodes validates multiple zone codes.
// Returns an error listing all invalid codes if any fail validation.
func ValidateZoneCodes(codes []string) error {
	var invalid []string
	for _, c := range codes {
		if err := ValidateZoneCode(c); err != nil {
			invalid = append(invalid, c)
		}
	}

	if len(invalid) > 0 {
		return fmt.Errorf("invalid zone codes: %v", invalid)
	}
	return nil
}

// SanitizeZoneCode normalizes and validates a zone code.
// Returns the uppercase code if valid, or an error if invalid.
//
// Use this when you need both validation and normalization:
//
//	safeCode, err := validation.SanitizeZoneCode(userInput)
//	if err != nil {
//	    return err
//	}
//	// safeCode is uppercase and validated
func SanitizeZoneCode(code string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if err := ValidateZoneCode(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}

// ValidateAccount validates a ledger account name. Account names become
// Badger key segments (bal/<account>, ent/<account>/...), so a stray "/"
// would let one account shadow another's prefix scan.
//
// Valid accounts:
//   - 1-64 characters
//   - Lowercase letters a-z, digits 0-9
//   - Dots, underscores, hyphens after the first character
func ValidateAccount(account string) error {
	if account == "" {
		return fmt.Errorf("account cannot be empty")
	}

	if !accountPattern.MatchString(account) {
		return fmt.Errorf("invalid account format: %q (must be 1-64 lowercase alphanumeric chars, dots, underscores, or hyphens)", account)
	}

	return nil
}

// SanitizeAccount normalizes and validates an account name.
// Returns the lowercase account if valid, or an error if invalid.
//
// Example:
//
//	safeAccount, err := validation.SanitizeAccount(userInput)
//	if err != nil {
//	    return err
//	}
//	// safeAccount is lowercase and safe as a ledger key segment
func SanitizeAccount(account string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(account))
	if err := ValidateAccount(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}

// ValidateReportID validates a report request ID before it is used as a
// store key (report/<id>). IDs are generated as lowercase UUIDs; anything
// else is rejected without touching the store.
func ValidateReportID(id string) error {
	if id == "" {
		return fmt.Errorf("report id cannot be empty")
	}

	if !reportIDPattern.MatchString(id) {
		return fmt.Errorf("invalid report id format: %q (must be a lowercase UUID)", id)
	}

	return nil
}

// SanitizeAddressLine normalizes and validates a street address line.
// Returns the trimmed line with internal whitespace collapsed, or an
// error if the line is empty, too long, or contains characters that do
// not belong in a street address.
//
// The normalized line is what flows into county lookups and the parcel
// cache key, so "123  Main St" and "123 Main St" resolve to the same
// cached record.
func SanitizeAddressLine(line string) (string, error) {
	normalized := strings.Join(strings.Fields(line), " ")
	if normalized == "" {
		return "", fmt.Errorf("address line cannot be empty")
	}

	if len(normalized) > maxAddressLen {
		return "", fmt.Errorf("address line too long: %d chars (max %d)", len(normalized), maxAddressLen)
	}

	if !addressCharPattern.MatchString(normalized) {
		return "", fmt.Errorf("invalid address line: %q (letters, digits, and address punctuation only)", normalized)
	}

	return normalized, nil
}
