// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package propertydata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	defaultCacheSize = 256
	defaultCacheTTL  = 15 * time.Minute
)

var (
	fetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parcel_property_fetch_total",
		Help: "Property record fetches by outcome (complete, partial, error).",
	}, []string{"outcome"})

	fetchCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parcel_property_fetch_cache_hits_total",
		Help: "Property record fetches served from the in-memory cache.",
	})
)

// Sources bundles the upstream data sources a Fetcher draws from.
// Geocoder and Parcels are required; the rest may be nil, in which
// case their sections of the record are reported as missing.
type Sources struct {
	Geocoder    Geocoder
	Parcels     ParcelSource
	Soil        SoilSource
	Utilities   UtilitySource
	Environment EnvironmentSource
}

// FetcherConfig configures a Fetcher.
type FetcherConfig struct {
	Sources   Sources
	CacheSize int           // assembled records kept in memory; default 256
	CacheTTL  time.Duration // record freshness window; default 15m
	Logger    *slog.Logger  // nil uses slog.Default()
}

// Fetcher assembles complete property records from the upstream
// sources, caching assembled records by the address they were asked
// for.
//
// # Description
//
//	FetchAll geocodes the address, then loads the parcel record and the
//	soil, utility, and hazard overlays for the resulting point. The
//	address and the parcel are mandatory: if either lookup fails, the
//	whole fetch fails. The overlays are best-effort: a failing overlay
//	source leaves its section of the record nil and adds the section
//	name to Partial, so callers can still classify what the remaining
//	data supports.
//
// # Thread Safety
//
//	Fetcher is safe for concurrent use.
type Fetcher struct {
	sources Sources
	ttl     time.Duration
	cache   *lru.Cache[string, PropertyRecord]
	logger  *slog.Logger

	// now is stubbed in tests.
	now func() time.Time
}

// NewFetcher creates a property record fetcher.
//
// # Inputs
//
//	cfg - Fetcher configuration. Sources.Geocoder and Sources.Parcels
//	      must be non-nil.
//
// # Outputs
//
//	*Fetcher - The configured fetcher.
//	error - Non-nil if the configuration is incomplete.
func NewFetcher(cfg FetcherConfig) (*Fetcher, error) {
	if cfg.Sources.Geocoder == nil {
		return nil, errors.New("fetcher requires a geocoder")
	}
	if cfg.Sources.Parcels == nil {
		return nil, errors.New("fetcher requires a parcel source")
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = defaultCacheSize
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	cache, err := lru.New[string, PropertyRecord](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create record cache: %w", err)
	}

	return &Fetcher{
		sources: cfg.Sources,
		ttl:     cfg.CacheTTL,
		cache:   cache,
		logger:  cfg.Logger,
		now:     time.Now,
	}, nil
}

// FetchAll assembles the property record for an address.
func (f *Fetcher) FetchAll(ctx context.Context, addr Address) (PropertyRecord, error) {
	key := strings.ToLower(addr.String())
	if rec, ok := f.cache.Get(key); ok {
		if f.now().Sub(rec.FetchedAt) < f.ttl {
			fetchCacheHits.Inc()
			return rec, nil
		}
		f.cache.Remove(key)
	}

	loc, err := f.sources.Geocoder.Geocode(ctx, addr)
	if err != nil {
		fetchTotal.WithLabelValues("error").Inc()
		return PropertyRecord{}, fmt.Errorf("geocode %q: %w", addr.String(), err)
	}

	parcel, err := f.sources.Parcels.Parcel(ctx, loc)
	if err != nil {
		fetchTotal.WithLabelValues("error").Inc()
		return PropertyRecord{}, fmt.Errorf("parcel lookup at %.6f,%.6f: %w", loc.Lat, loc.Lon, err)
	}

	rec := PropertyRecord{
		Location: loc,
		Parcel:   parcel,
	}

	// Each goroutine writes only its own field of rec; wg.Wait orders
	// those writes before the reads below.
	warn := func(section string, err error) {
		f.logger.Warn("property overlay unavailable",
			"section", section,
			"address", loc.Canonical,
			"error", err)
	}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		if f.sources.Soil == nil {
			return
		}
		soil, err := f.sources.Soil.Soil(ctx, loc)
		if err != nil {
			warn("soil", err)
			return
		}
		rec.Soil = soil
	}()
	go func() {
		defer wg.Done()
		if f.sources.Utilities == nil {
			return
		}
		util, err := f.sources.Utilities.Utilities(ctx, loc)
		if err != nil {
			warn("utilities", err)
			return
		}
		rec.Utilities = util
	}()
	go func() {
		defer wg.Done()
		if f.sources.Environment == nil {
			return
		}
		env, err := f.sources.Environment.Environment(ctx, loc)
		if err != nil {
			warn("environment", err)
			return
		}
		rec.Environment = env
	}()
	wg.Wait()

	// A section is partial whether the source failed, had no coverage,
	// or was never configured. Callers only care that it is absent.
	if rec.Soil == nil {
		rec.Partial = append(rec.Partial, "soil")
	}
	if rec.Utilities == nil {
		rec.Partial = append(rec.Partial, "utilities")
	}
	if rec.Environment == nil {
		rec.Partial = append(rec.Partial, "environment")
	}
	sort.Strings(rec.Partial)
	rec.FetchedAt = f.now().UTC()
	f.cache.Add(key, rec)

	if rec.Complete() {
		fetchTotal.WithLabelValues("complete").Inc()
	} else {
		fetchTotal.WithLabelValues("partial").Inc()
	}
	return rec, nil
}
