// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package report

import (
	"fmt"

	"github.com/AleutianAI/ParcelFOSS/services/actions"
	"github.com/AleutianAI/ParcelFOSS/services/propertydata"
	"github.com/AleutianAI/ParcelFOSS/services/rulebook"
	"github.com/AleutianAI/ParcelFOSS/services/siteplan"
)

// Clearance distances attached to mapped features, in feet. Wetland
// buffers come from the hazard layer itself; these cover the layers
// that report geometry without one.
const (
	septicTankBufferFt  = 10
	drainfieldBufferFt  = 20
	reserveAreaBufferFt = 15
	wellBufferFt        = 50
	wetlandBufferFt     = 50
)

// buildSiteModel maps a property record onto the evaluator's site
// model.
//
// # Description
//
// Existing structures, septic components, the well, easement
// projections, and wetland boxes become SiteFeatures with their
// kind's clearance distance. Easements project onto the lot from
// their recorded edge and width; easements on an unmappable edge
// (interior, or an edge the county left blank) are skipped rather
// than guessed. Construction errors surface as ErrInvalidSite: they
// mean the county handed back geometry the engine's invariants
// reject, which fails the mapping, not the report.
func buildSiteModel(rec propertydata.PropertyRecord) (*siteplan.SiteModel, error) {
	lot := siteplan.LotDimensions{WidthFt: rec.Parcel.WidthFt, DepthFt: rec.Parcel.DepthFt}

	var features []siteplan.SiteFeature
	var easements []siteplan.Easement

	for i, s := range rec.Parcel.Structures {
		kind := siteplan.KindStructure
		if s.Type == "driveway" {
			kind = siteplan.KindDriveway
		}
		features = append(features, siteplan.SiteFeature{
			ID:     featureID("str", i, s.ID),
			Kind:   kind,
			Label:  "existing " + s.Type,
			X:      s.X,
			Y:      s.Y,
			Width:  s.WidthFt,
			Height: s.DepthFt,
		})
	}

	for i, s := range rec.Parcel.Septic {
		f := siteplan.SiteFeature{
			ID:     featureID("sep", i, ""),
			X:      s.X,
			Y:      s.Y,
			Width:  s.WidthFt,
			Height: s.DepthFt,
		}
		switch s.Kind {
		case "tank":
			f.Kind = siteplan.KindSepticTank
			f.Label = "septic tank"
			f.RequiredBuffer = septicTankBufferFt
		case "drainfield":
			f.Kind = siteplan.KindDrainfield
			f.Label = "drainfield"
			f.RequiredBuffer = drainfieldBufferFt
		case "reserve":
			f.Kind = siteplan.KindReserveArea
			f.Label = "reserve drainfield area"
			f.RequiredBuffer = reserveAreaBufferFt
		default:
			continue
		}
		features = append(features, f)
	}

	if rec.Parcel.HasWell {
		features = append(features, siteplan.SiteFeature{
			ID:             "well-0",
			Kind:           siteplan.KindWell,
			Label:          "well",
			X:              rec.Parcel.WellX,
			Y:              rec.Parcel.WellY,
			RequiredBuffer: wellBufferFt,
		})
	}

	for i, e := range rec.Parcel.Easements {
		edge := siteplan.LotEdge(e.Edge)
		rect, ok := easementRect(edge, e.WidthFt, lot)
		if !ok {
			continue
		}
		typ := siteplan.EasementType(e.Type)
		if !typ.Valid() {
			continue
		}
		id := featureID("esmt", i, e.ID)
		features = append(features, siteplan.SiteFeature{
			ID:     id,
			Kind:   siteplan.KindEasement,
			Label:  e.Holder + " easement",
			X:      rect.X,
			Y:      rect.Y,
			Width:  rect.W,
			Height: rect.H,
		})
		easements = append(easements, siteplan.Easement{
			ID:               id,
			Type:             typ,
			Holder:           e.Holder,
			Width:            e.WidthFt,
			Edge:             edge,
			Restrictions:     e.Restrictions,
			RecordedDocument: e.RecordedDocument,
		})
	}

	var flood bool
	var floodCode string
	if rec.Environment != nil {
		flood = rec.Environment.FloodZone
		floodCode = rec.Environment.FloodZoneCode
		for i, w := range rec.Environment.Wetlands {
			buffer := w.BufferFt
			if buffer <= 0 {
				buffer = wetlandBufferFt
			}
			features = append(features, siteplan.SiteFeature{
				ID:             featureID("wet", i, ""),
				Kind:           siteplan.KindWetland,
				Label:          "mapped wetland",
				X:              w.X,
				Y:              w.Y,
				Width:          w.WidthFt,
				Height:         w.DepthFt,
				RequiredBuffer: buffer,
			})
		}
	}

	var utilities siteplan.UtilityStatus
	if rec.Utilities != nil {
		utilities = siteplan.UtilityStatus{
			SewerAvailable:           rec.Utilities.SewerAvailable,
			SewerDistanceFt:          rec.Utilities.SewerDistanceFt,
			SewerConnectionMandatory: rec.Utilities.SewerConnectionMandatory,
			WaterAvailable:           rec.Utilities.WaterAvailable,
			GasAvailable:             rec.Utilities.GasAvailable,
		}
	}

	site, err := siteplan.NewSiteModel(siteplan.SiteModelParams{
		Features:      features,
		Easements:     easements,
		FloodZone:     flood,
		FloodZoneCode: floodCode,
		SlopePercent:  rec.Parcel.SlopePct,
		Utilities:     utilities,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSite, err)
	}
	return site, nil
}

// featureID builds a stable feature ID from the layer tag, the index
// within the layer, and the county's own ID when it has one.
func featureID(layer string, i int, countyID string) string {
	if countyID != "" {
		return fmt.Sprintf("%s-%d-%s", layer, i, countyID)
	}
	return fmt.Sprintf("%s-%d", layer, i)
}

// easementRect projects a recorded edge easement onto the lot plane.
// Interior easements carry no usable geometry in the county record.
func easementRect(edge siteplan.LotEdge, widthFt float64, lot siteplan.LotDimensions) (siteplan.Rect, bool) {
	if widthFt <= 0 || lot.WidthFt <= 0 || lot.DepthFt <= 0 {
		return siteplan.Rect{}, false
	}
	switch edge {
	case siteplan.EdgeFront:
		return siteplan.Rect{X: 0, Y: 0, W: lot.WidthFt, H: widthFt}, true
	case siteplan.EdgeRear:
		return siteplan.Rect{X: 0, Y: lot.DepthFt - widthFt, W: lot.WidthFt, H: widthFt}, true
	case siteplan.EdgeLeft:
		return siteplan.Rect{X: 0, Y: 0, W: widthFt, H: lot.DepthFt}, true
	case siteplan.EdgeRight:
		return siteplan.Rect{X: lot.WidthFt - widthFt, Y: 0, W: widthFt, H: lot.DepthFt}, true
	}
	return siteplan.Rect{}, false
}

// buildFacts maps a property record and the current rulebook onto the
// classifier's input. Missing overlays stay nil so the classifier
// degrades them to UNKNOWN instead of guessing.
func buildFacts(rec propertydata.PropertyRecord, rb *rulebook.Rulebook) actions.PropertyFacts {
	facts := actions.PropertyFacts{
		ParcelAreaSqFt: rec.Parcel.AreaSqFt,
		Zoning:         rb.Category(rec.Parcel.ZoneCode),
	}
	if checks, ok := rb.Checks(rec.Parcel.ZoneCode, rec.Parcel.AreaSqFt); ok {
		facts.RuleChecks = checks
	}

	if rec.Soil != nil {
		rating := actions.SoilRating(rec.Soil.Rating)
		if rating.Valid() {
			facts.Soil = &actions.SoilFacts{
				Rating:      rating,
				Limitations: rec.Soil.Limitations,
			}
		}
	}

	if rec.Utilities != nil {
		facts.Utilities = &actions.UtilityFacts{
			SewerAvailable:           rec.Utilities.SewerAvailable,
			SewerDistanceFt:          rec.Utilities.SewerDistanceFt,
			SewerConnectionMandatory: rec.Utilities.SewerConnectionMandatory,
			WaterAvailable:           rec.Utilities.WaterAvailable,
			GasAvailable:             rec.Utilities.GasAvailable,
		}
	}

	if rec.Environment != nil {
		facts.Environment = &actions.EnvironmentFacts{
			FloodZone:      rec.Environment.FloodZone,
			FloodZoneCode:  rec.Environment.FloodZoneCode,
			WetlandPresent: rec.Environment.WetlandPresent(),
		}
	}

	return facts
}

// buildZoningSummary echoes the zone's standing rules into the report.
func buildZoningSummary(zoneCode string, rb *rulebook.Rulebook) ZoningSummary {
	sum := ZoningSummary{
		ZoneCode: zoneCode,
		Category: rb.Category(zoneCode),
	}
	z, ok := rb.Zone(zoneCode)
	if !ok {
		return sum
	}
	sum.ZoneName = z.Name
	sum.MinLotSqFt = z.MinLotSqFt
	sum.MaxCoveragePct = z.MaxCoveragePct
	sum.MaxHeightFt = z.MaxHeightFt
	sum.ADUAllowed = z.ADUAllowed
	sum.DADUAllowed = z.DADUAllowed
	sum.SubdivisionAllowed = z.SubdivisionAllowed
	sum.Known = true
	return sum
}
