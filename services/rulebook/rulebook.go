// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package rulebook loads zone rule tables and turns them into the
// concrete inputs the rest of the system consumes: per-zone rule
// checks for the action classifier and placement rules for the site
// evaluator.
//
// A default rulebook is embedded in the binary so a fresh install
// works with no configuration. Operators can point the service at an
// external YAML file and edit it live; the Store reloads it on write
// and keeps serving the last good version if an edit fails to parse.
//
// Thread Safety:
//
//	A *Rulebook is immutable after Parse. The Store swaps whole
//	rulebooks atomically and is safe for concurrent use.
package rulebook

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/ParcelFOSS/pkg/validation"
	"github.com/AleutianAI/ParcelFOSS/services/actions"
)

const (
	// MaxRulebookFileSize is the maximum allowed rulebook file size (1MB).
	MaxRulebookFileSize = 1024 * 1024

	// MaxZonesInRulebook caps the zone table size.
	MaxZonesInRulebook = 500
)

// defaultRulebookYAML is the zone table compiled into the binary.
//
//go:embed zones.yaml
var defaultRulebookYAML []byte

var (
	rulebookLoadErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parcel_rulebook_load_errors_total",
		Help: "Total rulebook load or parse errors",
	})

	rulebookZones = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "parcel_rulebook_zones",
		Help: "Zones in the most recently loaded rulebook",
	})
)

// ErrInvalidRulebook marks a rulebook that parsed but failed
// validation.
var ErrInvalidRulebook = errors.New("invalid rulebook")

// rulebookValidate is the validator instance for rulebook structures.
var rulebookValidate = validator.New()

// ZoneSetbacks are the per-zone boundary distances, in feet.
type ZoneSetbacks struct {
	FrontFt         float64 `yaml:"front_ft" validate:"gte=0"`
	SideFt          float64 `yaml:"side_ft" validate:"gte=0"`
	SideAccessoryFt float64 `yaml:"side_accessory_ft" validate:"gte=0"`
	RearFt          float64 `yaml:"rear_ft" validate:"gte=0"`
}

// ZoneRules is one zone's numeric standards plus code citations.
//
// # Fields
//
//   - Name: Display name for the zone code.
//   - Category: Coarse zoning bucket consumed by the action classifier.
//   - MinLotSqFt: Minimum lot area for a primary dwelling.
//   - MaxCoveragePct: Total footprint cap as a percentage of lot area.
//   - MaxHeightFt: Structure height limit.
//   - MaxDensityDUPerAcre: Residential density allowance. Zero means
//     the zone has no residential density allowance at all.
//   - ADUAllowed / DADUAllowed: Whether attached and detached
//     accessory dwellings are permitted.
//   - DADUMinLotSqFt: Minimum lot area for a detached ADU. Zero means
//     no special minimum.
//   - SubdivisionAllowed / MinNewLotSqFt: Whether the zone allows
//     short plats and the minimum size of each resulting lot.
//   - SepticMinLotSqFt: Health-code minimum lot area for a new
//     on-site septic system. Zero means no special minimum.
//   - Setbacks: Boundary distances fed to the site evaluator.
//   - Citations: Code sections keyed by rule type, quoted into
//     classifier output.
type ZoneRules struct {
	Name                string                 `yaml:"name" validate:"required"`
	Category            actions.ZoningCategory `yaml:"category" validate:"required"`
	MinLotSqFt          float64                `yaml:"min_lot_sq_ft" validate:"gt=0"`
	MaxCoveragePct      float64                `yaml:"max_coverage_pct" validate:"gt=0,lte=100"`
	MaxHeightFt         float64                `yaml:"max_height_ft" validate:"gt=0"`
	MaxDensityDUPerAcre float64                `yaml:"max_density_du_per_acre" validate:"gte=0"`
	ADUAllowed          bool                   `yaml:"adu_allowed"`
	DADUAllowed         bool                   `yaml:"dadu_allowed"`
	DADUMinLotSqFt      float64                `yaml:"dadu_min_lot_sq_ft" validate:"gte=0"`
	SubdivisionAllowed  bool                   `yaml:"subdivision_allowed"`
	MinNewLotSqFt       float64                `yaml:"min_new_lot_sq_ft" validate:"gte=0"`
	SepticMinLotSqFt    float64                `yaml:"septic_min_lot_sq_ft" validate:"gte=0"`
	Setbacks            ZoneSetbacks           `yaml:"setbacks"`
	Citations           map[string]string      `yaml:"citations,omitempty"`
}

// Defaults are the jurisdiction-wide values that do not vary by zone.
type Defaults struct {
	SetbackWarnFt      float64 `yaml:"setback_warn_ft" validate:"gte=0"`
	MinSeparationFt    float64 `yaml:"min_separation_ft" validate:"gte=0"`
	CoverageWarnRatio  float64 `yaml:"coverage_warn_ratio" validate:"gt=0,lte=1"`
	BuildingPermitSqFt float64 `yaml:"building_permit_sq_ft" validate:"gte=0"`
	SteepSlopePct      float64 `yaml:"steep_slope_pct" validate:"gte=0"`
	ModerateSlopePct   float64 `yaml:"moderate_slope_pct" validate:"gte=0"`
}

// rulebookYAML is the root structure for YAML deserialization. It uses
// concrete types only; zone entries are validated during parsing.
type rulebookYAML struct {
	Version  string               `yaml:"version"`
	Defaults Defaults             `yaml:"defaults"`
	Zones    map[string]ZoneRules `yaml:"zones"`
}

// Rulebook is an immutable, validated zone rule table.
type Rulebook struct {
	// Version is the operator-assigned table version, echoed in
	// reports so a cached report can be traced to its rule set.
	Version string

	// Defaults are the zone-independent values.
	Defaults Defaults

	// zones is keyed by normalized (uppercase) zone code.
	zones map[string]ZoneRules
}

// Parse parses and validates rulebook YAML.
//
// # Description
//
// Parses the raw bytes into a Rulebook, validating every zone entry.
// Zone codes are normalized to uppercase, so lookups are
// case-insensitive. A rulebook with no zones is rejected: an empty
// table would silently classify every parcel as UNKNOWN.
//
// # Inputs
//
//   - data: Raw YAML bytes.
//
// # Outputs
//
//   - *Rulebook: Validated, immutable rulebook.
//   - error: Non-nil if parsing or validation fails; wraps
//     ErrInvalidRulebook for validation failures.
func Parse(data []byte) (*Rulebook, error) {
	var raw rulebookYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		rulebookLoadErrors.Inc()
		return nil, fmt.Errorf("unmarshaling rulebook: %w", err)
	}
	if len(raw.Zones) == 0 {
		rulebookLoadErrors.Inc()
		return nil, fmt.Errorf("%w: no zones defined", ErrInvalidRulebook)
	}
	if len(raw.Zones) > MaxZonesInRulebook {
		rulebookLoadErrors.Inc()
		return nil, fmt.Errorf("%w: %d zones (max %d)", ErrInvalidRulebook, len(raw.Zones), MaxZonesInRulebook)
	}
	if err := rulebookValidate.Struct(raw.Defaults); err != nil {
		rulebookLoadErrors.Inc()
		return nil, fmt.Errorf("%w: defaults: %v", ErrInvalidRulebook, err)
	}

	codes := make([]string, 0, len(raw.Zones))
	for code := range raw.Zones {
		codes = append(codes, normalizeZoneCode(code))
	}
	if err := validation.ValidateZoneCodes(codes); err != nil {
		rulebookLoadErrors.Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidRulebook, err)
	}

	zones := make(map[string]ZoneRules, len(raw.Zones))
	for code, z := range raw.Zones {
		if err := validateZone(code, z); err != nil {
			rulebookLoadErrors.Inc()
			return nil, err
		}
		zones[normalizeZoneCode(code)] = z
	}

	rb := &Rulebook{
		Version:  raw.Version,
		Defaults: raw.Defaults,
		zones:    zones,
	}
	rulebookZones.Set(float64(len(zones)))
	return rb, nil
}

// validateZone checks one zone entry beyond what struct tags and the
// code-format pass cover.
func validateZone(code string, z ZoneRules) error {
	if err := rulebookValidate.Struct(z); err != nil {
		return fmt.Errorf("%w: zone %s: %v", ErrInvalidRulebook, code, err)
	}
	if !z.Category.Valid() {
		return fmt.Errorf("%w: zone %s has category %q", ErrInvalidRulebook, code, z.Category)
	}
	if z.SubdivisionAllowed && z.MinNewLotSqFt <= 0 {
		return fmt.Errorf("%w: zone %s allows subdivision without a minimum new lot size", ErrInvalidRulebook, code)
	}
	for rt := range z.Citations {
		if !actions.RuleType(rt).Valid() {
			return fmt.Errorf("%w: zone %s cites unknown rule %q", ErrInvalidRulebook, code, rt)
		}
	}
	return nil
}

// LoadDefault parses the embedded rulebook.
func LoadDefault() (*Rulebook, error) {
	rb, err := Parse(defaultRulebookYAML)
	if err != nil {
		return nil, fmt.Errorf("embedded rulebook: %w", err)
	}
	return rb, nil
}

// LoadFile loads a rulebook from an external YAML file.
//
// # Description
//
// Reads and parses an operator-supplied rulebook. The path is resolved
// to an absolute path and the file size is capped before reading.
//
// # Inputs
//
//   - path: Path to a rulebook YAML file.
//
// # Outputs
//
//   - *Rulebook: Validated rulebook.
//   - error: Non-nil if the file is unreadable, oversized, or invalid.
func LoadFile(path string) (*Rulebook, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving rulebook path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat rulebook: %w", err)
	}
	if info.Size() > MaxRulebookFileSize {
		return nil, fmt.Errorf("rulebook file too large: %d bytes (max %d)", info.Size(), MaxRulebookFileSize)
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("reading rulebook: %w", err)
	}
	rb, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("rulebook %s: %w", absPath, err)
	}
	return rb, nil
}

// normalizeZoneCode uppercases and trims a zone code for lookup.
func normalizeZoneCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Zone returns the rules for a zone code, case-insensitively.
func (rb *Rulebook) Zone(code string) (ZoneRules, bool) {
	z, ok := rb.zones[normalizeZoneCode(code)]
	return z, ok
}

// ZoneCodes returns the known zone codes in sorted order.
func (rb *Rulebook) ZoneCodes() []string {
	codes := make([]string, 0, len(rb.zones))
	for code := range rb.zones {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
