// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package report assembles property feasibility reports and serves
// them over HTTP.
//
// The service composes the collaborators around the engine packages:
// the rulebook supplies per-zone rule checks and placement rules, the
// property fetcher supplies records, the classifier and evaluator
// produce the report content, and the ledger meters report generation.
// Persistence, archival, and the narrative summarizer are optional;
// the service degrades without them.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/ParcelFOSS/pkg/validation"
	"github.com/AleutianAI/ParcelFOSS/services/actions"
	"github.com/AleutianAI/ParcelFOSS/services/ledger"
	"github.com/AleutianAI/ParcelFOSS/services/propertydata"
	"github.com/AleutianAI/ParcelFOSS/services/report/observability"
	"github.com/AleutianAI/ParcelFOSS/services/report/telemetry"
	"github.com/AleutianAI/ParcelFOSS/services/rulebook"
	"github.com/AleutianAI/ParcelFOSS/services/siteplan"
)

// DefaultReportCost is the credits charged per generated report when
// config does not override it.
const DefaultReportCost = 1

// RuleSource supplies the current rulebook. A *rulebook.Store
// satisfies it with hot reload; StaticRules pins one table.
type RuleSource interface {
	Current() *rulebook.Rulebook
}

// StaticRules adapts a fixed rulebook to RuleSource for one-shot and
// test use.
type StaticRules struct {
	Rulebook *rulebook.Rulebook
}

// Current returns the pinned rulebook.
func (s StaticRules) Current() *rulebook.Rulebook { return s.Rulebook }

// PropertySource supplies property records. *propertydata.Fetcher
// satisfies it.
type PropertySource interface {
	FetchAll(ctx context.Context, addr propertydata.Address) (propertydata.PropertyRecord, error)
}

// CreditLedger meters report generation. *ledger.Ledger satisfies it.
type CreditLedger interface {
	Balance(ctx context.Context, account string) (int64, error)
	Topup(ctx context.Context, account string, credits int64, reason string) (ledger.Entry, error)
	Charge(ctx context.Context, account string, credits int64, reason string) (ledger.Entry, error)
	History(ctx context.Context, account string, limit int) ([]ledger.Entry, error)
}

// Summarizer produces the optional plain-language narrative.
// *explain.Explainer satisfies it.
type Summarizer interface {
	Explain(ctx context.Context, address string, items []actions.ActionItem) (string, error)
}

// Archiver copies finished reports to long-term storage.
type Archiver interface {
	Archive(ctx context.Context, rep Report) error
}

// Config wires a Service.
type Config struct {
	// Rules and Properties are required.
	Rules      RuleSource
	Properties PropertySource

	// Credits enables metering. Nil runs the service unmetered.
	Credits CreditLedger

	// ReportCost is the credits charged per report when Credits is
	// set. Zero means DefaultReportCost.
	ReportCost int64

	// Store persists reports for GET /v1/reports. Nil disables
	// persistence.
	Store *Store

	// Summarizer adds the narrative summary. Nil omits it.
	Summarizer Summarizer

	// Archive receives finished reports. Nil disables archival.
	Archive Archiver

	Logger *slog.Logger
}

// Service generates reports and answers placement queries.
//
// # Thread Safety
//
//	Service is safe for concurrent use.
type Service struct {
	rules      RuleSource
	properties PropertySource
	credits    CreditLedger
	reportCost int64
	store      *Store
	summarizer Summarizer
	archive    Archiver
	logger     *slog.Logger
	now        func() time.Time
}

// NewService validates the wiring and returns a service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Rules == nil {
		return nil, fmt.Errorf("rule source is required")
	}
	if cfg.Properties == nil {
		return nil, fmt.Errorf("property source is required")
	}
	if cfg.ReportCost < 0 {
		return nil, fmt.Errorf("report cost must not be negative")
	}
	if cfg.ReportCost == 0 {
		cfg.ReportCost = DefaultReportCost
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Service{
		rules:      cfg.Rules,
		properties: cfg.Properties,
		credits:    cfg.Credits,
		reportCost: cfg.ReportCost,
		store:      cfg.Store,
		summarizer: cfg.Summarizer,
		archive:    cfg.Archive,
		logger:     cfg.Logger,
		now:        time.Now,
	}, nil
}

// BuildReport fetches, classifies, and assembles one report.
//
// # Description
//
// The credit charge and the property fetch run concurrently; if the
// fetch fails after the charge landed, the charge is refunded. Missing
// overlays degrade the affected action items to UNKNOWN and are listed
// in Report.Partial; they never abort the report. The summary is
// best-effort. Persistence, when configured, must succeed: a report
// that cannot be saved is refunded and failed.
//
// # Inputs
//
//   - ctx: Request context.
//   - req: Validated report request.
//
// # Outputs
//
//   - Report: The assembled report.
//   - error: Non-nil on fetch, charge, or save failure; wraps
//     ledger.ErrInsufficientCredit when the account cannot pay.
func (s *Service) BuildReport(ctx context.Context, req ReportRequest) (Report, error) {
	requestID := uuid.NewString()
	logger := telemetry.LoggerWithReport(ctx, s.logger, requestID)
	start := s.now()

	var rec propertydata.PropertyRecord
	var charged int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.properties.FetchAll(gctx, req.Address)
		if err != nil {
			return err
		}
		rec = r
		return nil
	})
	if s.credits != nil {
		g.Go(func() error {
			if _, err := s.credits.Charge(gctx, req.Account, s.reportCost, "report "+requestID); err != nil {
				return fmt.Errorf("charge account %s: %w", req.Account, err)
			}
			charged = s.reportCost
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.refund(ctx, req.Account, charged, requestID, logger)
		s.recordOutcome(start, false)
		return Report{}, err
	}

	rb := s.rules.Current()
	facts := buildFacts(rec, rb)
	items := actions.Classify(facts)

	site, err := buildSiteModel(rec)
	if err != nil {
		// The engine rejected the county's geometry; the classifier
		// output stands on its own, so the report ships without the
		// placement layer.
		logger.Warn("site model unavailable", "error", err)
		site = nil
	}
	rules, ok := rb.Placement(rec.Parcel.ZoneCode)
	if !ok {
		rules = siteplan.DefaultPlacementRules()
	}
	permits := siteplan.DerivePermits(nil, site, rules)

	rep := Report{
		RequestID: requestID,
		Address:   req.Address,
		Location:  rec.Location,
		Parcel: ParcelSummary{
			ParcelID: rec.Parcel.ParcelID,
			AreaSqFt: rec.Parcel.AreaSqFt,
			WidthFt:  rec.Parcel.WidthFt,
			DepthFt:  rec.Parcel.DepthFt,
			SlopePct: rec.Parcel.SlopePct,
		},
		Zoning:          buildZoningSummary(rec.Parcel.ZoneCode, rb),
		Soil:            rec.Soil,
		Utilities:       rec.Utilities,
		Environment:     rec.Environment,
		Site:            site,
		Lot:             siteplan.LotDimensions{WidthFt: rec.Parcel.WidthFt, DepthFt: rec.Parcel.DepthFt},
		Actions:         items,
		Permits:         permits,
		Partial:         rec.Partial,
		RulebookVersion: rb.Version,
		GeneratedAt:     s.now().UTC(),
		CreditsCharged:  charged,
	}

	if s.summarizer != nil {
		if summary, err := s.summarizer.Explain(ctx, rec.Location.Canonical, items); err != nil {
			logger.Warn("summary unavailable", "error", err)
		} else {
			rep.Summary = summary
		}
	}

	if s.store != nil {
		if err := s.store.Save(ctx, rep); err != nil {
			logger.Error("report save failed", "error", err)
			s.refund(ctx, req.Account, charged, requestID, logger)
			s.recordOutcome(start, false)
			return Report{}, err
		}
	}
	if s.archive != nil {
		if err := s.archive.Archive(ctx, rep); err != nil {
			logger.Warn("report archive failed", "error", err)
		}
	}

	logger.Info("report generated",
		"address", rec.Location.Canonical,
		"zone", rec.Parcel.ZoneCode,
		"actions", len(items),
		"partial", rec.Partial,
		"credits", charged)

	s.recordOutcome(start, true)
	if m := observability.DefaultMetrics; m != nil {
		statuses := make([]string, len(items))
		for i, it := range items {
			statuses[i] = string(it.Status)
		}
		m.RecordActionStatuses(statuses)
		if len(rep.Partial) > 0 {
			m.RecordPartialReport()
		}
		if charged > 0 {
			m.RecordCharge(charged)
		}
	}
	return rep, nil
}

// refund returns a charge after a failed report. Refund failures are
// logged for operator reconciliation; there is nothing the caller can
// do about them.
func (s *Service) refund(ctx context.Context, account string, credits int64, requestID string, logger *slog.Logger) {
	if s.credits == nil || credits <= 0 {
		return
	}
	if _, err := s.credits.Topup(ctx, account, credits, "refund "+requestID); err != nil {
		logger.Error("refund failed", "account", account, "credits", credits, "error", err)
	}
}

func (s *Service) recordOutcome(start time.Time, success bool) {
	if m := observability.DefaultMetrics; m != nil {
		m.RecordReportDuration(s.now().Sub(start).Seconds(), success)
	}
}

// EvaluatePlacement checks one layout snapshot against the zone's
// placement rules and derives the layout's permit set.
func (s *Service) EvaluatePlacement(ctx context.Context, req EvaluateRequest) (EvaluateResponse, error) {
	rb := s.rules.Current()
	rules := siteplan.DefaultPlacementRules()
	if req.ZoneCode != "" {
		code, err := validation.SanitizeZoneCode(req.ZoneCode)
		if err != nil {
			return EvaluateResponse{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		zoneRules, ok := rb.Placement(code)
		if !ok {
			return EvaluateResponse{}, fmt.Errorf("%w: %s", ErrUnknownZone, code)
		}
		rules = zoneRules
	}

	site, err := siteplan.NewSiteModel(siteplan.SiteModelParams{
		Features:      req.Site.Features,
		Easements:     req.Site.Easements,
		FloodZone:     req.Site.FloodZone,
		FloodZoneCode: req.Site.FloodZoneCode,
		SlopePercent:  req.Site.SlopePercent,
		Utilities:     req.Site.Utilities,
	})
	if err != nil {
		return EvaluateResponse{}, fmt.Errorf("%w: %v", ErrInvalidSite, err)
	}

	return EvaluateResponse{
		Comments:        siteplan.EvaluateAll(req.Candidates, site, req.Lot, rules),
		Permits:         siteplan.DerivePermits(req.Candidates, site, rules),
		RulebookVersion: rb.Version,
	}, nil
}

// ClassifyFacts classifies caller-supplied facts. A zone code, when
// present, replaces the facts' rule checks and zoning category with
// the rulebook's answers for that zone.
func (s *Service) ClassifyFacts(ctx context.Context, req ClassifyRequest) (ClassifyResponse, error) {
	rb := s.rules.Current()
	facts := req.Facts
	if req.ZoneCode != "" {
		code, err := validation.SanitizeZoneCode(req.ZoneCode)
		if err != nil {
			return ClassifyResponse{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		checks, ok := rb.Checks(code, facts.ParcelAreaSqFt)
		if !ok {
			return ClassifyResponse{}, fmt.Errorf("%w: %s", ErrUnknownZone, code)
		}
		facts.RuleChecks = checks
		facts.Zoning = rb.Category(code)
	}
	return ClassifyResponse{
		Actions:         actions.Classify(facts),
		RulebookVersion: rb.Version,
	}, nil
}

// Lookup fetches the raw property record for an address, without
// charging or classifying.
func (s *Service) Lookup(ctx context.Context, addr propertydata.Address) (propertydata.PropertyRecord, error) {
	return s.properties.FetchAll(ctx, addr)
}

// GetReport loads a saved report.
func (s *Service) GetReport(ctx context.Context, id string) (Report, error) {
	if s.store == nil {
		return Report{}, fmt.Errorf("%w: %s", ErrReportNotFound, id)
	}
	return s.store.Get(ctx, id)
}

// ListReports lists saved report summaries, newest first.
func (s *Service) ListReports(ctx context.Context, limit int) ([]ReportSummary, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.List(ctx, limit)
}

// Credits reports an account's balance and, when historyLimit > 0,
// its most recent entries.
func (s *Service) Credits(ctx context.Context, account string, historyLimit int) (CreditsResponse, error) {
	if s.credits == nil {
		return CreditsResponse{}, fmt.Errorf("credit metering is not enabled")
	}
	balance, err := s.credits.Balance(ctx, account)
	if err != nil {
		return CreditsResponse{}, err
	}
	resp := CreditsResponse{Account: account, Balance: balance}
	if historyLimit > 0 {
		entries, err := s.credits.History(ctx, account, historyLimit)
		if err != nil {
			return CreditsResponse{}, err
		}
		for _, e := range entries {
			resp.History = append(resp.History, LedgerEntry{
				ID: e.ID, Delta: e.Delta, Balance: e.Balance, Reason: e.Reason, At: e.At,
			})
		}
	}
	return resp, nil
}

// Topup adds credits to an account.
func (s *Service) Topup(ctx context.Context, req TopupRequest) (CreditsResponse, error) {
	if s.credits == nil {
		return CreditsResponse{}, fmt.Errorf("credit metering is not enabled")
	}
	reason := req.Reason
	if reason == "" {
		reason = "topup"
	}
	entry, err := s.credits.Topup(ctx, req.Account, req.Credits, reason)
	if err != nil {
		return CreditsResponse{}, err
	}
	return CreditsResponse{Account: req.Account, Balance: entry.Balance}, nil
}

// Health reports service liveness plus the loaded rule table.
func (s *Service) Health() HealthResponse {
	rb := s.rules.Current()
	return HealthResponse{
		Status:          "ok",
		Version:         ServiceVersion,
		RulebookVersion: rb.Version,
		Zones:           len(rb.ZoneCodes()),
	}
}
