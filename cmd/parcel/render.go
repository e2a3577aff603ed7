// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/AleutianAI/ParcelFOSS/pkg/ux"
	"github.com/AleutianAI/ParcelFOSS/services/actions"
	"github.com/AleutianAI/ParcelFOSS/services/report"
	"github.com/AleutianAI/ParcelFOSS/services/siteplan"
)

// renderReport writes one report to the terminal UI: header, classified
// actions, site-condition permits, the verify-locally notice, and the
// closing summary.
func renderReport(ui ux.ReportUI, rep report.Report, took time.Duration) {
	ui.Header(reportHeaderConfig(rep))
	ui.Actions(actionViews(rep.Actions))
	ui.Permits(permitViews(rep.Permits))
	ui.DataGaps(collectDataGaps(rep))

	ui.Footer(&ux.ReportStats{
		Structures: countStructures(rep.Site),
		Permits:    len(rep.Permits),
		Actions:    len(rep.Actions),
		Duration:   took,
	})
}

func reportHeaderConfig(rep report.Report) ux.HeaderConfig {
	cfg := ux.HeaderConfig{
		Address:      rep.Address.String(),
		ParcelNumber: rep.Parcel.ParcelID,
		ZoneCode:     rep.Zoning.ZoneCode,
		ZoneName:     rep.Zoning.ZoneName,
		ReportID:     rep.RequestID,
	}
	if rep.Address.City != "" {
		cfg.Jurisdiction = rep.Address.City
		if rep.Address.State != "" {
			cfg.Jurisdiction += ", " + rep.Address.State
		}
	}
	if rep.Parcel.AreaSqFt > 0 {
		cfg.LotArea = fmt.Sprintf("%.0f sq ft (%.2f ac)", rep.Parcel.AreaSqFt, rep.Parcel.AreaSqFt/43560)
	}
	if !rep.GeneratedAt.IsZero() {
		cfg.GeneratedAt = rep.GeneratedAt.Format("2006-01-02 15:04")
	}
	return cfg
}

func actionViews(items []actions.ActionItem) []ux.ActionView {
	views := make([]ux.ActionView, 0, len(items))
	for _, item := range items {
		views = append(views, ux.ActionView{
			Name:       item.ActionName,
			Category:   string(item.Category),
			Status:     string(item.Status),
			Confidence: string(item.Confidence),
			Summary:    item.Summary,
			Conditions: item.Conditions,
			Blockers:   item.BlockingFactors,
			NextSteps:  item.NextSteps,
		})
	}
	return views
}

func permitViews(permits []siteplan.PermitRequirement) []ux.PermitView {
	views := make([]ux.PermitView, 0, len(permits))
	for _, p := range permits {
		views = append(views, ux.PermitView{
			PermitType:  string(p.PermitType),
			Authority:   p.Authority,
			FeeRange:    p.EstimatedFeeRange,
			Timeline:    p.TimelineEstimate,
			TriggeredBy: p.TriggeredBy,
		})
	}
	return views
}

func commentViews(comments []siteplan.Comment) []ux.CommentView {
	views := make([]ux.CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, ux.CommentView{
			Severity:   string(c.Severity),
			Category:   string(c.Category),
			Title:      c.Title,
			Message:    c.Message,
			Citation:   c.Citation,
			Suggestion: c.SuggestedAction,
			Structure:  c.StructureID,
		})
	}
	return views
}

// collectDataGaps merges the per-action data gaps with the sources
// that never answered, deduplicated and sorted for stable output.
func collectDataGaps(rep report.Report) []string {
	seen := make(map[string]struct{})
	var gaps []string
	add := func(gap string) {
		if _, dup := seen[gap]; dup {
			return
		}
		seen[gap] = struct{}{}
		gaps = append(gaps, gap)
	}

	for _, item := range rep.Actions {
		for _, gap := range item.DataGaps {
			add(gap)
		}
	}
	for _, source := range rep.Partial {
		add(fmt.Sprintf("county %s record unavailable", source))
	}

	sort.Strings(gaps)
	return gaps
}

func countStructures(site *siteplan.SiteModel) int {
	if site == nil {
		return 0
	}
	n := 0
	for _, f := range site.Features {
		if f.Kind == siteplan.KindStructure {
			n++
		}
	}
	return n
}

// structureStanding is one candidate's worst placement result. A zero
// severity means the candidate cleared every check.
type structureStanding struct {
	id       string
	severity siteplan.Severity
	reason   string
}

// structureStandings derives one standing per candidate: blocked by
// any critical comment, flagged by any warning, clear otherwise. The
// reason is the title of the first comment at the deciding severity,
// which is the earliest check in evaluation order. Parcel-wide
// comments never count against a candidate.
func structureStandings(comments []siteplan.Comment, candidates []siteplan.CandidateStructure) []structureStanding {
	worst := make(map[string]structureStanding, len(candidates))
	for _, c := range comments {
		if c.StructureID == "" {
			continue
		}
		cur := worst[c.StructureID]
		switch c.Severity {
		case siteplan.SeverityCritical:
			if cur.severity != siteplan.SeverityCritical {
				worst[c.StructureID] = structureStanding{severity: siteplan.SeverityCritical, reason: c.Title}
			}
		case siteplan.SeverityWarning:
			if cur.severity == "" {
				worst[c.StructureID] = structureStanding{severity: siteplan.SeverityWarning, reason: c.Title}
			}
		}
	}

	standings := make([]structureStanding, 0, len(candidates))
	for _, cand := range candidates {
		s := worst[cand.ID]
		s.id = cand.ID
		standings = append(standings, s)
	}
	return standings
}

// standingIcon maps a standing severity to its display glyph.
func standingIcon(severity siteplan.Severity) ux.Icon {
	switch severity {
	case siteplan.SeverityCritical:
		return ux.IconError
	case siteplan.SeverityWarning:
		return ux.IconWarning
	default:
		return ux.IconSuccess
	}
}

// evaluateStats folds the per-structure standings into the footer
// counts.
func evaluateStats(comments []siteplan.Comment, candidates []siteplan.CandidateStructure, permits int, took time.Duration) *ux.ReportStats {
	stats := &ux.ReportStats{
		Structures: len(candidates),
		Permits:    permits,
		Duration:   took,
	}
	for _, s := range structureStandings(comments, candidates) {
		switch s.severity {
		case siteplan.SeverityCritical:
			stats.Blocked++
		case siteplan.SeverityWarning:
			stats.Flagged++
		default:
			stats.Clear++
		}
	}
	return stats
}
