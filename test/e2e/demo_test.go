// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package e2e

import (
	"encoding/json"
	"strings"
	"testing"
)

// demoReport is the slice of the report body these tests assert on.
type demoReport struct {
	RequestID string `json:"request_id"`
	Zoning    struct {
		ZoneCode string `json:"zone_code"`
	} `json:"zoning"`
	Lot struct {
		WidthFt float64 `json:"width_ft"`
		DepthFt float64 `json:"depth_ft"`
	} `json:"lot"`
	Actions []struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"actions"`
	CreditsCharged int64 `json:"credits_charged"`
}

// TestDemoReportJSON verifies the offline demo produces a complete
// report without any server.
func TestDemoReportJSON(t *testing.T) {
	stdout, stderr, err := runParcel(t, "demo", "--seed", "1", "--json")
	if err != nil {
		t.Fatalf("demo failed: %v\nstderr:\n%s", err, stderr)
	}

	var rep demoReport
	if err := json.Unmarshal([]byte(stdout), &rep); err != nil {
		t.Fatalf("demo --json did not print valid JSON: %v\nstdout:\n%s", err, stdout)
	}

	if rep.RequestID == "" {
		t.Error("FAIL: report has no request_id")
	}
	if rep.Zoning.ZoneCode == "" {
		t.Error("FAIL: report has no zone code")
	}
	if rep.Lot.WidthFt <= 0 || rep.Lot.DepthFt <= 0 {
		t.Errorf("FAIL: implausible lot dimensions %v x %v", rep.Lot.WidthFt, rep.Lot.DepthFt)
	}
	if len(rep.Actions) != 14 {
		t.Errorf("FAIL: expected the full 14-action catalog, got %d", len(rep.Actions))
	}
	for _, a := range rep.Actions {
		switch a.Status {
		case "ALLOWED", "CONDITIONAL", "RESTRICTED", "UNKNOWN":
		default:
			t.Errorf("FAIL: action %s has invalid status %q", a.ID, a.Status)
		}
	}
	if rep.CreditsCharged != 0 {
		t.Errorf("FAIL: demo reports must be free, charged %d", rep.CreditsCharged)
	}
}

// TestDemoDeterministicParcel verifies the synthetic county's promise:
// same address and seed, same parcel.
func TestDemoDeterministicParcel(t *testing.T) {
	run := func() demoReport {
		stdout, stderr, err := runParcel(t, "demo", "482 Salmonberry Ln", "--seed", "42", "--json")
		if err != nil {
			t.Fatalf("demo failed: %v\nstderr:\n%s", err, stderr)
		}
		var rep demoReport
		if err := json.Unmarshal([]byte(stdout), &rep); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		return rep
	}

	first := run()
	second := run()

	if first.Zoning.ZoneCode != second.Zoning.ZoneCode {
		t.Errorf("FAIL: zone changed between runs: %q vs %q",
			first.Zoning.ZoneCode, second.Zoning.ZoneCode)
	}
	if first.Lot != second.Lot {
		t.Errorf("FAIL: lot changed between runs: %+v vs %+v", first.Lot, second.Lot)
	}
	for i := range first.Actions {
		if first.Actions[i].Status != second.Actions[i].Status {
			t.Errorf("FAIL: action %s classified differently: %s vs %s",
				first.Actions[i].ID, first.Actions[i].Status, second.Actions[i].Status)
		}
	}
}

// TestDemoMachineOutput verifies the scripting-friendly rendering:
// prefixed single-line records, one per action.
func TestDemoMachineOutput(t *testing.T) {
	stdout, stderr, err := runParcel(t, "demo", "--seed", "1", "--personality", "machine")
	if err != nil {
		t.Fatalf("demo failed: %v\nstderr:\n%s", err, stderr)
	}

	if !strings.Contains(stdout, "REPORT_START:") {
		t.Errorf("FAIL: missing REPORT_START marker. Output:\n%s", stdout)
	}
	if !strings.Contains(stdout, "REPORT_END:") {
		t.Errorf("FAIL: missing REPORT_END marker. Output:\n%s", stdout)
	}
	if got := strings.Count(stdout, "ACTION: "); got != 14 {
		t.Errorf("FAIL: expected 14 ACTION lines, got %d. Output:\n%s", got, stdout)
	}
}
