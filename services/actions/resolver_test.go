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
	"reflect"
	"strings"
	"testing"
)

// passingFacts returns a fully populated fact set on which every
// governing rule passes. Individual tests mutate copies of it.
func passingFacts() PropertyFacts {
	return PropertyFacts{
		ParcelAreaSqFt: 20000,
		Zoning:         ZoningRural,
		RuleChecks: map[RuleType]RuleCheck{
			RuleMinLotSize:        {Type: RuleMinLotSize, Status: RulePass, Value: "20,000 sq ft", Limit: "7,200 sq ft", Citation: "KCC 21A.12.030"},
			RuleSetbacks:          {Type: RuleSetbacks, Status: RulePass, Citation: "KCC 21A.12.030"},
			RuleMaxCoverage:       {Type: RuleMaxCoverage, Status: RulePass, Citation: "KCC 21A.12.030"},
			RuleMaxHeight:         {Type: RuleMaxHeight, Status: RulePass, Citation: "KCC 21A.12.030"},
			RuleADUAllowed:        {Type: RuleADUAllowed, Status: RulePass, Citation: "KCC 21A.08.030"},
			RuleDADUAllowed:       {Type: RuleDADUAllowed, Status: RulePass, Citation: "KCC 21A.08.030"},
			RuleDensity:           {Type: RuleDensity, Status: RulePass, Citation: "KCC 21A.12.040"},
			RuleSubdivisionMinLot: {Type: RuleSubdivisionMinLot, Status: RulePass, NumericLimit: 7200, Citation: "KCC 19A.08.060"},
			RuleSepticMinLot:      {Type: RuleSepticMinLot, Status: RulePass, Citation: "KCBOH 13.04"},
		},
		Soil:        &SoilFacts{Rating: SoilWellSuited},
		Utilities:   &UtilityFacts{SewerAvailable: false},
		Environment: &EnvironmentFacts{},
	}
}

func itemByID(t *testing.T, items []ActionItem, id string) ActionItem {
	t.Helper()
	for _, it := range items {
		if it.ID == id {
			return it
		}
	}
	t.Fatalf("Classify returned no item with id %s", id)
	return ActionItem{}
}

func TestClassifyCatalogOrder(t *testing.T) {
	want := []string{
		ActionBuildSingleFamily, ActionBuildMultiFamily, ActionAddADU,
		ActionAddDADU, ActionBuildGarage, ActionInstallPool,
		ActionSubdivideLot, ActionAdjustLotLine, ActionConnectSewer,
		ActionInstallSeptic, ActionFloodZoneBuild, ActionWetlandConstraints,
		ActionBuildingPermit, ActionEnvironmentalReview,
	}
	items := Classify(passingFacts())
	if len(items) != len(want) {
		t.Fatalf("Classify returned %d items, want %d", len(items), len(want))
	}
	for i, it := range items {
		if it.ID != want[i] {
			t.Errorf("item %d has id %s, want %s", i, it.ID, want[i])
		}
	}
}

func TestClassifyDeterministic(t *testing.T) {
	facts := passingFacts()
	facts.Zoning = ZoningResidentialSingle
	facts.RuleChecks[RuleMaxCoverage] = RuleCheck{Type: RuleMaxCoverage, Status: RuleWarn, Detail: "coverage is near the 35% cap"}
	facts.RuleChecks[RuleMaxHeight] = RuleCheck{Type: RuleMaxHeight, Status: RuleFail, Detail: "proposed height exceeds 35 ft"}
	facts.Environment = &EnvironmentFacts{FloodZone: true, FloodZoneCode: "AE", WetlandPresent: true}

	first := Classify(facts)
	for i := 0; i < 10; i++ {
		if got := Classify(facts); !reflect.DeepEqual(got, first) {
			t.Fatalf("Classify run %d differs from the first run", i)
		}
	}
}

// TestClassifySingleFamilyZoningForcesMultiFamily pins the override:
// residential_single zoning restricts multi-family housing no matter
// what the other inputs say.
func TestClassifySingleFamilyZoningForcesMultiFamily(t *testing.T) {
	variants := map[string]func(*PropertyFacts){
		"all rules pass": func(f *PropertyFacts) {},
		"density rule passes explicitly": func(f *PropertyFacts) {
			f.RuleChecks[RuleDensity] = RuleCheck{Type: RuleDensity, Status: RulePass}
		},
		"no rule data at all": func(f *PropertyFacts) {
			f.RuleChecks = nil
		},
		"no parcel area": func(f *PropertyFacts) {
			f.ParcelAreaSqFt = 0
		},
		"environmental overlays present": func(f *PropertyFacts) {
			f.Environment = &EnvironmentFacts{FloodZone: true, WetlandPresent: true}
		},
	}
	for name, mutate := range variants {
		t.Run(name, func(t *testing.T) {
			facts := passingFacts()
			facts.Zoning = ZoningResidentialSingle
			mutate(&facts)

			it := itemByID(t, Classify(facts), ActionBuildMultiFamily)
			if it.Status != StatusRestricted {
				t.Errorf("multi-family status = %s, want %s", it.Status, StatusRestricted)
			}
			if it.Confidence != ConfidenceHigh {
				t.Errorf("multi-family confidence = %s, want %s", it.Confidence, ConfidenceHigh)
			}
			if len(it.BlockingFactors) == 0 {
				t.Error("restricted multi-family item has no blocking factors")
			}
		})
	}
}

// TestClassifyEmptyFactsAllUnknown checks that missing data never
// turns into a definitive answer: with zero facts every catalog entry
// is UNKNOWN with at least one named gap.
func TestClassifyEmptyFactsAllUnknown(t *testing.T) {
	items := Classify(PropertyFacts{})
	if len(items) != 14 {
		t.Fatalf("Classify returned %d items, want 14", len(items))
	}
	for _, it := range items {
		if it.Status != StatusUnknown {
			t.Errorf("%s status = %s with no facts, want %s", it.ID, it.Status, StatusUnknown)
		}
		if it.Confidence != ConfidenceLow {
			t.Errorf("%s confidence = %s, want %s", it.ID, it.Confidence, ConfidenceLow)
		}
		if len(it.DataGaps) == 0 {
			t.Errorf("%s is UNKNOWN but names no data gaps", it.ID)
		}
	}
}

// TestClassifyEvidenceCoupling runs Classify across mixed fact sets
// and checks the structural contract on every returned item.
func TestClassifyEvidenceCoupling(t *testing.T) {
	sets := map[string]PropertyFacts{
		"empty":   {},
		"passing": passingFacts(),
		"failing": func() PropertyFacts {
			f := passingFacts()
			for rt, c := range f.RuleChecks {
				c.Status = RuleFail
				c.Detail = "limit exceeded"
				f.RuleChecks[rt] = c
			}
			return f
		}(),
		"warning": func() PropertyFacts {
			f := passingFacts()
			for rt, c := range f.RuleChecks {
				c.Status = RuleWarn
				c.Detail = "close to the limit"
				f.RuleChecks[rt] = c
			}
			return f
		}(),
		"overlays and bad soil": func() PropertyFacts {
			f := passingFacts()
			f.Soil = &SoilFacts{Rating: SoilPoorlySuited, Limitations: []string{"seasonal high water table"}}
			f.Environment = &EnvironmentFacts{FloodZone: true, FloodZoneCode: "AE", WetlandPresent: true}
			return f
		}(),
	}
	for name, facts := range sets {
		t.Run(name, func(t *testing.T) {
			for _, it := range Classify(facts) {
				if err := it.Validate(); err != nil {
					t.Errorf("%s: %v", it.ID, err)
				}
				if it.Status == StatusAllowed && (len(it.BlockingFactors) > 0 || len(it.DataGaps) > 0) {
					t.Errorf("%s is ALLOWED but carries blockers or gaps", it.ID)
				}
			}
		})
	}
}

func TestClassifyGenericTree(t *testing.T) {
	t.Run("fail wins over warn and gap", func(t *testing.T) {
		facts := passingFacts()
		facts.RuleChecks[RuleMaxHeight] = RuleCheck{Type: RuleMaxHeight, Status: RuleFail, Detail: "proposed height exceeds 35 ft"}
		facts.RuleChecks[RuleMaxCoverage] = RuleCheck{Type: RuleMaxCoverage, Status: RuleWarn, Detail: "coverage is near the cap"}
		delete(facts.RuleChecks, RuleSetbacks)

		it := itemByID(t, Classify(facts), ActionBuildSingleFamily)
		if it.Status != StatusRestricted {
			t.Fatalf("status = %s, want %s", it.Status, StatusRestricted)
		}
		if len(it.BlockingFactors) != 1 || !strings.Contains(it.BlockingFactors[0], "35 ft") {
			t.Errorf("blocking factors = %v, want the height detail verbatim", it.BlockingFactors)
		}
	})

	t.Run("missing rule is a gap, not a pass", func(t *testing.T) {
		facts := passingFacts()
		delete(facts.RuleChecks, RuleMaxHeight)

		it := itemByID(t, Classify(facts), ActionBuildSingleFamily)
		if it.Status != StatusUnknown {
			t.Fatalf("status = %s, want %s", it.Status, StatusUnknown)
		}
		if len(it.DataGaps) != 1 || !strings.Contains(it.DataGaps[0], "max_height") {
			t.Errorf("data gaps = %v, want the missing rule named", it.DataGaps)
		}
	})

	t.Run("warn is conditional with entry next steps", func(t *testing.T) {
		facts := passingFacts()
		facts.RuleChecks[RuleMaxCoverage] = RuleCheck{Type: RuleMaxCoverage, Status: RuleWarn, Detail: "coverage is near the cap"}

		it := itemByID(t, Classify(facts), ActionBuildSingleFamily)
		if it.Status != StatusConditional {
			t.Fatalf("status = %s, want %s", it.Status, StatusConditional)
		}
		if it.Confidence != ConfidenceMedium {
			t.Errorf("confidence = %s, want %s", it.Confidence, ConfidenceMedium)
		}
		if len(it.Conditions) != 1 || !strings.Contains(it.Conditions[0], "coverage") {
			t.Errorf("conditions = %v, want the warn detail", it.Conditions)
		}
		if len(it.NextSteps) == 0 {
			t.Error("conditional item has no next steps")
		}
	})

	t.Run("all pass dedupes citations", func(t *testing.T) {
		it := itemByID(t, Classify(passingFacts()), ActionBuildSingleFamily)
		if it.Status != StatusAllowed {
			t.Fatalf("status = %s, want %s", it.Status, StatusAllowed)
		}
		if len(it.Citations) != 1 || it.Citations[0] != "KCC 21A.12.030" {
			t.Errorf("citations = %v, want the shared citation once", it.Citations)
		}
	})
}

func TestClassifySubdivide(t *testing.T) {
	// NumericLimit 7200 with a multiple of two needs 14,400 sq ft,
	// conditional below 15,840.
	tests := []struct {
		name       string
		area       float64
		status     RuleStatus
		wantStatus ActionStatus
	}{
		{name: "roomy parcel", area: 20000, status: RulePass, wantStatus: StatusAllowed},
		{name: "marginal parcel", area: 15000, status: RulePass, wantStatus: StatusConditional},
		{name: "parcel too small", area: 12000, status: RulePass, wantStatus: StatusRestricted},
		{name: "area unknown", area: 0, status: RulePass, wantStatus: StatusUnknown},
		{name: "zone forbids subdivision", area: 20000, status: RuleFail, wantStatus: StatusRestricted},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			facts := passingFacts()
			facts.ParcelAreaSqFt = tc.area
			facts.RuleChecks[RuleSubdivisionMinLot] = RuleCheck{
				Type: RuleSubdivisionMinLot, Status: tc.status,
				NumericLimit: 7200, Detail: "short plats require conforming lots",
			}
			it := itemByID(t, Classify(facts), ActionSubdivideLot)
			if it.Status != tc.wantStatus {
				t.Errorf("subdivide status = %s, want %s", it.Status, tc.wantStatus)
			}
		})
	}

	t.Run("no subdivision rule on record", func(t *testing.T) {
		facts := passingFacts()
		delete(facts.RuleChecks, RuleSubdivisionMinLot)
		it := itemByID(t, Classify(facts), ActionSubdivideLot)
		if it.Status != StatusUnknown {
			t.Errorf("subdivide status = %s, want %s", it.Status, StatusUnknown)
		}
	})
}

func TestClassifySeptic(t *testing.T) {
	t.Run("mandatory sewer area overrides good soil", func(t *testing.T) {
		facts := passingFacts()
		facts.Utilities = &UtilityFacts{SewerAvailable: true, SewerConnectionMandatory: true}
		facts.Soil = &SoilFacts{Rating: SoilWellSuited}

		it := itemByID(t, Classify(facts), ActionInstallSeptic)
		if it.Status != StatusRestricted {
			t.Fatalf("septic status = %s, want %s", it.Status, StatusRestricted)
		}
		if len(it.BlockingFactors) == 0 || !strings.Contains(it.BlockingFactors[0], "mandatory") {
			t.Errorf("blocking factors = %v, want the mandatory connection named", it.BlockingFactors)
		}
	})

	ratings := []struct {
		rating     SoilRating
		wantStatus ActionStatus
	}{
		{SoilWellSuited, StatusAllowed},
		{SoilModeratelySuited, StatusConditional},
		{SoilPoorlySuited, StatusConditional},
		{SoilUnsuitable, StatusRestricted},
	}
	for _, tc := range ratings {
		t.Run(string(tc.rating), func(t *testing.T) {
			facts := passingFacts()
			facts.Soil = &SoilFacts{Rating: tc.rating}
			it := itemByID(t, Classify(facts), ActionInstallSeptic)
			if it.Status != tc.wantStatus {
				t.Errorf("septic status for %s soil = %s, want %s", tc.rating, it.Status, tc.wantStatus)
			}
		})
	}

	t.Run("limitations surface as conditions", func(t *testing.T) {
		facts := passingFacts()
		facts.Soil = &SoilFacts{Rating: SoilModeratelySuited, Limitations: []string{"seasonal high water table"}}
		it := itemByID(t, Classify(facts), ActionInstallSeptic)
		if it.Status != StatusConditional {
			t.Fatalf("septic status = %s, want %s", it.Status, StatusConditional)
		}
		var found bool
		for _, c := range it.Conditions {
			if strings.Contains(c, "seasonal high water table") {
				found = true
			}
		}
		if !found {
			t.Errorf("conditions = %v, want the soil limitation included", it.Conditions)
		}
	})

	t.Run("no soil data", func(t *testing.T) {
		facts := passingFacts()
		facts.Soil = nil
		it := itemByID(t, Classify(facts), ActionInstallSeptic)
		if it.Status != StatusUnknown {
			t.Errorf("septic status = %s, want %s", it.Status, StatusUnknown)
		}
	})
}

func TestClassifySewer(t *testing.T) {
	t.Run("no utility data", func(t *testing.T) {
		facts := passingFacts()
		facts.Utilities = nil
		it := itemByID(t, Classify(facts), ActionConnectSewer)
		if it.Status != StatusUnknown {
			t.Errorf("sewer status = %s, want %s", it.Status, StatusUnknown)
		}
	})

	t.Run("no main in reach", func(t *testing.T) {
		it := itemByID(t, Classify(passingFacts()), ActionConnectSewer)
		if it.Status != StatusRestricted {
			t.Errorf("sewer status = %s, want %s", it.Status, StatusRestricted)
		}
	})

	t.Run("available with distance and mandate", func(t *testing.T) {
		facts := passingFacts()
		facts.Utilities = &UtilityFacts{SewerAvailable: true, SewerDistanceFt: 250, SewerConnectionMandatory: true}
		it := itemByID(t, Classify(facts), ActionConnectSewer)
		if it.Status != StatusAllowed {
			t.Fatalf("sewer status = %s, want %s", it.Status, StatusAllowed)
		}
		if !strings.Contains(it.Summary, "250") || !strings.Contains(it.Summary, "mandatory") {
			t.Errorf("summary %q should mention the distance and the mandate", it.Summary)
		}
	})
}

func TestClassifyEnvironmentalEntries(t *testing.T) {
	t.Run("flood zone code in summary", func(t *testing.T) {
		facts := passingFacts()
		facts.Environment = &EnvironmentFacts{FloodZone: true, FloodZoneCode: "AE"}
		it := itemByID(t, Classify(facts), ActionFloodZoneBuild)
		if it.Status != StatusConditional {
			t.Fatalf("flood status = %s, want %s", it.Status, StatusConditional)
		}
		if !strings.Contains(it.Summary, "AE") {
			t.Errorf("summary %q should name the flood zone code", it.Summary)
		}
	})

	t.Run("clear parcel allows flood and wetland entries", func(t *testing.T) {
		items := Classify(passingFacts())
		for _, id := range []string{ActionFloodZoneBuild, ActionWetlandConstraints, ActionEnvironmentalReview} {
			if it := itemByID(t, items, id); it.Status != StatusAllowed {
				t.Errorf("%s status = %s, want %s", id, it.Status, StatusAllowed)
			}
		}
	})

	t.Run("both overlays named in review summary", func(t *testing.T) {
		facts := passingFacts()
		facts.Environment = &EnvironmentFacts{FloodZone: true, WetlandPresent: true}
		it := itemByID(t, Classify(facts), ActionEnvironmentalReview)
		if it.Status != StatusConditional {
			t.Fatalf("review status = %s, want %s", it.Status, StatusConditional)
		}
		if !strings.Contains(it.Summary, "flood hazard and wetland") {
			t.Errorf("summary %q should name both overlays", it.Summary)
		}
	})
}

func BenchmarkClassify(b *testing.B) {
	facts := passingFacts()
	facts.Environment = &EnvironmentFacts{FloodZone: true, FloodZoneCode: "AE", WetlandPresent: true}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Classify(facts)
	}
}
