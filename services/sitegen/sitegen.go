// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package sitegen produces deterministic demo property data for
// offline use. Demo implements every propertydata source interface,
// so demo mode wires into the same fetcher as live county data and
// the rest of the pipeline cannot tell the difference.
//
// The same address always yields the same parcel: every lookup
// derives a fresh PRNG from the query point, a per-layer tag, and the
// generator seed. That also makes Demo safe for concurrent use, since
// no PRNG state is shared between calls.
package sitegen

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"

	"github.com/AleutianAI/ParcelFOSS/services/propertydata"
)

// Demo generates plausible property records for a fictional county.
type Demo struct {
	seed uint64
}

// NewDemo creates a generator. Two generators with the same seed
// produce identical records for identical addresses.
func NewDemo(seed int64) *Demo {
	return &Demo{seed: uint64(seed)}
}

// Sources returns the generator wired as every upstream source.
func (d *Demo) Sources() propertydata.Sources {
	return propertydata.Sources{
		Geocoder:    d,
		Parcels:     d,
		Soil:        d,
		Utilities:   d,
		Environment: d,
	}
}

// rngFor derives the PRNG for one data layer at one location.
func (d *Demo) rngFor(key, layer string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(key))
	h.Write([]byte{0})
	h.Write([]byte(layer))
	return rand.New(rand.NewSource(int64(h.Sum64() ^ d.seed)))
}

func (d *Demo) locKey(loc propertydata.Location) string {
	return fmt.Sprintf("%.6f,%.6f", loc.Lat, loc.Lon)
}

// Geocode places the address somewhere in the demo county.
func (d *Demo) Geocode(ctx context.Context, addr propertydata.Address) (propertydata.Location, error) {
	q := addr.String()
	if q == "" {
		return propertydata.Location{}, fmt.Errorf("%w: empty address", propertydata.ErrAddressNotFound)
	}
	rng := d.rngFor(q, "geocode")
	return propertydata.Location{
		Lat:       47.30 + rng.Float64()*0.45,
		Lon:       -122.50 + rng.Float64()*0.55,
		Canonical: q,
	}, nil
}

// parcelShape is the zone and footprint every layer agrees on for a
// location. Environment re-derives it so wetlands land inside the
// parcel the parcel layer reports.
type parcelShape struct {
	zone    string
	widthFt float64
	depthFt float64
	rural   bool
}

func (d *Demo) shapeFor(loc propertydata.Location) parcelShape {
	rng := d.rngFor(d.locKey(loc), "shape")

	var s parcelShape
	r := rng.Float64()
	switch {
	case r < 0.35:
		s.zone = "R-4"
		s.widthFt = span(rng, 70, 110)
		s.depthFt = span(rng, 100, 150)
	case r < 0.60:
		s.zone = "R-6"
		s.widthFt = span(rng, 55, 85)
		s.depthFt = span(rng, 95, 125)
	case r < 0.75:
		s.zone = "R-8"
		s.widthFt = span(rng, 45, 70)
		s.depthFt = span(rng, 85, 115)
	case r < 0.90:
		s.zone = "RA-5"
		s.rural = true
		s.widthFt = span(rng, 420, 580)
		s.depthFt = span(rng, 520, 720)
	default:
		s.zone = "NB"
		s.widthFt = span(rng, 50, 90)
		s.depthFt = span(rng, 90, 140)
	}
	return s
}

// Parcel reports a deterministic assessor record for the location.
func (d *Demo) Parcel(ctx context.Context, loc propertydata.Location) (propertydata.ParcelRecord, error) {
	s := d.shapeFor(loc)
	rng := d.rngFor(d.locKey(loc), "parcel")

	rec := propertydata.ParcelRecord{
		ParcelID: fmt.Sprintf("%06d-%04d", rng.Intn(1000000), rng.Intn(10000)),
		AreaSqFt: s.widthFt * s.depthFt,
		WidthFt:  s.widthFt,
		DepthFt:  s.depthFt,
		ZoneCode: s.zone,
		SlopePct: span(rng, 0, 14),
	}

	houseW := span(rng, 26, 40)
	houseD := span(rng, 26, 38)
	houseX := math.Round((s.widthFt - houseW) * (0.3 + rng.Float64()*0.3))
	houseY := span(rng, 28, 45)
	rec.Structures = append(rec.Structures, propertydata.StructureRecord{
		ID: "house", Type: "house",
		X: houseX, Y: houseY, WidthFt: houseW, DepthFt: houseD,
	})
	rec.Structures = append(rec.Structures, propertydata.StructureRecord{
		ID: "driveway", Type: "driveway",
		X: houseX + houseW - 12, Y: 0, WidthFt: 12, DepthFt: houseY,
	})
	garageY := houseY + houseD + 15
	if wantGarage := rng.Float64() < 0.5; wantGarage && garageY+24 <= s.depthFt {
		rec.Structures = append(rec.Structures, propertydata.StructureRecord{
			ID: "garage", Type: "garage",
			X: houseX, Y: garageY, WidthFt: 22, DepthFt: 24,
		})
	}

	if rng.Float64() < 0.3 {
		rec.Easements = append(rec.Easements, propertydata.EasementRecord{
			ID:      "esmt-1",
			Type:    "utility",
			Holder:  "Cascade Power & Light",
			WidthFt: 10,
			Edge:    "rear",
			Restrictions: []string{
				"no permanent structures",
				"maintain access for service vehicles",
			},
			RecordedDocument: fmt.Sprintf("REC %d", 20000101000000+rng.Int63n(59999999999)),
		})
	}

	if s.rural || rng.Float64() < 0.2 {
		fieldW := math.Min(30, s.widthFt*0.35)
		rec.Septic = append(rec.Septic,
			propertydata.SepticRecord{
				Kind:    "tank",
				X:       s.widthFt * 0.15,
				Y:       s.depthFt * 0.55,
				WidthFt: 8,
				DepthFt: 5,
			},
			propertydata.SepticRecord{
				Kind:    "drainfield",
				X:       s.widthFt * 0.10,
				Y:       s.depthFt * 0.68,
				WidthFt: fieldW,
				DepthFt: 20,
			},
			propertydata.SepticRecord{
				Kind:    "reserve",
				X:       s.widthFt * 0.55,
				Y:       s.depthFt * 0.68,
				WidthFt: fieldW,
				DepthFt: 20,
			},
		)
	}
	if s.rural || rng.Float64() < 0.1 {
		rec.HasWell = true
		rec.WellX = s.widthFt * 0.85
		rec.WellY = s.depthFt * 0.12
	}

	return rec, nil
}

// Soil reports a deterministic soil survey rating for the location.
func (d *Demo) Soil(ctx context.Context, loc propertydata.Location) (*propertydata.SoilRecord, error) {
	rng := d.rngFor(d.locKey(loc), "soil")

	r := rng.Float64()
	switch {
	case r < 0.45:
		return &propertydata.SoilRecord{Rating: "well_suited"}, nil
	case r < 0.75:
		return &propertydata.SoilRecord{
			Rating:      "moderately_suited",
			Limitations: []string{"seasonal high water table"},
		}, nil
	case r < 0.90:
		return &propertydata.SoilRecord{
			Rating:      "poorly_suited",
			Limitations: []string{"slow percolation", "shallow depth to hardpan"},
		}, nil
	case r < 0.97:
		return &propertydata.SoilRecord{
			Rating:      "unsuitable",
			Limitations: []string{"high bedrock"},
		}, nil
	default:
		// A sliver of the county has no survey coverage.
		return nil, nil
	}
}

// Utilities reports district availability consistent with the zone.
func (d *Demo) Utilities(ctx context.Context, loc propertydata.Location) (*propertydata.UtilityRecord, error) {
	s := d.shapeFor(loc)
	rng := d.rngFor(d.locKey(loc), "utilities")

	rec := &propertydata.UtilityRecord{}
	if s.rural {
		rec.SewerAvailable = rng.Float64() < 0.1
		if rec.SewerAvailable {
			rec.SewerDistanceFt = span(rng, 500, 2000)
		}
		rec.WaterAvailable = rng.Float64() < 0.4
		rec.GasAvailable = rng.Float64() < 0.15
		return rec, nil
	}

	rec.SewerAvailable = rng.Float64() < 0.9
	if rec.SewerAvailable {
		rec.SewerDistanceFt = span(rng, 50, 300)
		rec.SewerConnectionMandatory = rec.SewerDistanceFt <= 200
	}
	rec.WaterAvailable = true
	rec.GasAvailable = rng.Float64() < 0.75
	return rec, nil
}

// Environment reports hazard overlays, placed inside the parcel the
// parcel layer reports for the same location.
func (d *Demo) Environment(ctx context.Context, loc propertydata.Location) (*propertydata.EnvironmentRecord, error) {
	s := d.shapeFor(loc)
	rng := d.rngFor(d.locKey(loc), "hazard")

	rec := &propertydata.EnvironmentRecord{}
	if rng.Float64() < 0.12 {
		rec.FloodZone = true
		rec.FloodZoneCode = "AE"
	}
	if rng.Float64() < 0.15 {
		rec.Wetlands = append(rec.Wetlands, propertydata.WetlandRecord{
			X:        s.widthFt * 0.55,
			Y:        s.depthFt * 0.75,
			WidthFt:  s.widthFt * 0.30,
			DepthFt:  s.depthFt * 0.18,
			BufferFt: 50,
		})
	}
	return rec, nil
}

// span returns a value in [lo, hi), rounded to whole feet.
func span(rng *rand.Rand, lo, hi float64) float64 {
	return math.Round(lo + rng.Float64()*(hi-lo))
}
