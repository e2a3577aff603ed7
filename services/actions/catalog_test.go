// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package actions

import (
	"errors"
	"testing"
)

func TestValidateCatalog(t *testing.T) {
	if err := validateCatalog(); err != nil {
		t.Fatalf("validateCatalog() = %v, want nil", err)
	}
}

func TestCatalogCoversEveryActionID(t *testing.T) {
	want := []string{
		ActionBuildSingleFamily, ActionBuildMultiFamily, ActionAddADU,
		ActionAddDADU, ActionBuildGarage, ActionInstallPool,
		ActionSubdivideLot, ActionAdjustLotLine, ActionConnectSewer,
		ActionInstallSeptic, ActionFloodZoneBuild, ActionWetlandConstraints,
		ActionBuildingPermit, ActionEnvironmentalReview,
	}
	have := make(map[string]struct{}, len(catalog))
	for _, e := range catalog {
		have[e.ID] = struct{}{}
	}
	for _, id := range want {
		if _, ok := have[id]; !ok {
			t.Errorf("catalog is missing entry %s", id)
		}
	}
}

func TestActionItemValidate(t *testing.T) {
	good := ActionItem{
		ID: ActionBuildGarage, Category: CategoryAccessory,
		ActionName: "Build a garage or shop",
		Status:     StatusAllowed, Confidence: ConfidenceHigh,
		Summary: "All governing zoning checks pass for this parcel.",
	}

	tests := []struct {
		name    string
		mutate  func(*ActionItem)
		wantErr bool
	}{
		{name: "allowed item", mutate: func(a *ActionItem) {}, wantErr: false},
		{
			name: "restricted with factors",
			mutate: func(a *ActionItem) {
				a.Status = StatusRestricted
				a.BlockingFactors = []string{"height limit exceeded"}
			},
			wantErr: false,
		},
		{
			name:    "restricted without factors",
			mutate:  func(a *ActionItem) { a.Status = StatusRestricted },
			wantErr: true,
		},
		{
			name:    "unknown without gaps",
			mutate:  func(a *ActionItem) { a.Status = StatusUnknown },
			wantErr: true,
		},
		{
			name: "unknown with gaps",
			mutate: func(a *ActionItem) {
				a.Status = StatusUnknown
				a.DataGaps = []string{"no zoning record"}
			},
			wantErr: false,
		},
		{
			name:    "conditional without conditions or steps",
			mutate:  func(a *ActionItem) { a.Status = StatusConditional },
			wantErr: true,
		},
		{
			name: "conditional with next steps only",
			mutate: func(a *ActionItem) {
				a.Status = StatusConditional
				a.NextSteps = []string{"Check accessory structure size limits for the zone."}
			},
			wantErr: false,
		},
		{name: "missing summary", mutate: func(a *ActionItem) { a.Summary = "" }, wantErr: true},
		{name: "bad status", mutate: func(a *ActionItem) { a.Status = "MAYBE" }, wantErr: true},
		{name: "bad confidence", mutate: func(a *ActionItem) { a.Confidence = "SURE" }, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			item := good
			tc.mutate(&item)
			err := item.Validate()
			if tc.wantErr {
				if !errors.Is(err, ErrMalformedItem) {
					t.Errorf("Validate() = %v, want ErrMalformedItem", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}
