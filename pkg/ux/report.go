// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// HeaderConfig holds the fields shown in a report header.
//
// All values arrive pre-formatted; this package renders strings and
// never reaches into service types.
type HeaderConfig struct {
	// Address is the situs address the report was built for.
	Address string

	// ParcelNumber is the assessor parcel number, already normalized.
	ParcelNumber string

	// Jurisdiction names the permitting authority (county or city).
	Jurisdiction string

	// ZoneCode is the short zoning designation (e.g. "R-5").
	ZoneCode string

	// ZoneName is the human-readable zone name. Optional.
	ZoneName string

	// LotArea is the formatted lot size (e.g. "21780 sq ft (0.50 ac)").
	LotArea string

	// ReportID identifies the stored report. Optional.
	ReportID string

	// GeneratedAt is the formatted generation timestamp. Optional.
	GeneratedAt string
}

// CommentView is one placement feedback comment prepared for display.
//
// Severity is one of "critical", "warning", "info", "success"; unknown
// values render with a neutral icon.
type CommentView struct {
	Severity   string
	Category   string
	Title      string
	Message    string
	Citation   string
	Suggestion string
	Structure  string
}

// PermitView is one permit requirement prepared for display.
type PermitView struct {
	PermitType  string
	Authority   string
	FeeRange    string
	Timeline    string
	TriggeredBy []string
}

// ActionView is one classified action prepared for display.
//
// Status is one of "ALLOWED", "CONDITIONAL", "RESTRICTED", "UNKNOWN";
// Confidence is "HIGH", "MEDIUM", or "LOW".
type ActionView struct {
	Name       string
	Category   string
	Status     string
	Confidence string
	Summary    string
	Conditions []string
	Blockers   []string
	NextSteps  []string
}

// ReportStats accumulates counts shown in the report footer.
type ReportStats struct {
	Structures int
	Clear      int
	Flagged    int
	Blocked    int
	Permits    int
	Actions    int

	// Duration is the wall-clock time spent building the report.
	Duration time.Duration
}

// ReportUI defines the interface for report rendering operations.
// Implementations handle rendering report sections to different outputs.
type ReportUI interface {
	// Header displays the report header with parcel identification.
	Header(config HeaderConfig)

	// Comments displays placement feedback comments grouped by severity.
	Comments(comments []CommentView)

	// Permits displays the derived permit requirements.
	Permits(permits []PermitView)

	// Actions displays classified actions with status and confidence.
	Actions(items []ActionView)

	// DataGaps displays the verify-locally notice for missing records.
	//
	// # Description
	//
	// Called when classification ran against incomplete county data.
	// Every listed gap is a question the local permitting office can
	// answer; the notice tells the user to ask before building.
	DataGaps(gaps []string)

	// Error displays a report error message
	Error(err error)

	// Footer displays the closing summary with counts and timing.
	Footer(stats *ReportStats)
}

// terminalReportUI implements ReportUI for terminal output
type terminalReportUI struct {
	writer      io.Writer
	personality PersonalityLevel
}

// write is a helper that writes formatted output and handles errors.
// Errors are silently ignored as there's no meaningful recovery for terminal output.
func (u *terminalReportUI) write(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(u.writer, format, args...); err != nil {
		// Terminal write errors are non-recoverable; silently ignore
		return
	}
}

// writeln is a helper that writes a line and handles errors.
func (u *terminalReportUI) writeln(args ...interface{}) {
	if _, err := fmt.Fprintln(u.writer, args...); err != nil {
		// Terminal write errors are non-recoverable; silently ignore
		return
	}
}

// NewReportUI creates a new terminal-based ReportUI
func NewReportUI() ReportUI {
	return &terminalReportUI{
		writer:      os.Stdout,
		personality: CurrentLevel(),
	}
}

// NewReportUIWithWriter creates a ReportUI with a custom writer (for testing)
func NewReportUIWithWriter(w io.Writer, personality PersonalityLevel) ReportUI {
	return &terminalReportUI{
		writer:      w,
		personality: personality,
	}
}

// Header displays the report header with parcel identification.
func (u *terminalReportUI) Header(config HeaderConfig) {
	if u.personality == PersonalityMachine {
		u.headerMachine(config)
		return
	}

	if u.personality == PersonalityMinimal {
		u.headerMinimal(config)
		return
	}

	u.headerFull(config)
}

// headerMachine renders the header in machine-readable format.
func (u *terminalReportUI) headerMachine(config HeaderConfig) {
	parts := []string{fmt.Sprintf("address=%q", config.Address)}
	if config.ParcelNumber != "" {
		parts = append(parts, fmt.Sprintf("parcel=%s", config.ParcelNumber))
	}
	if config.ZoneCode != "" {
		parts = append(parts, fmt.Sprintf("zone=%s", config.ZoneCode))
	}
	if config.Jurisdiction != "" {
		parts = append(parts, fmt.Sprintf("jurisdiction=%q", config.Jurisdiction))
	}
	if config.ReportID != "" {
		parts = append(parts, fmt.Sprintf("report=%s", config.ReportID))
	}
	if config.GeneratedAt != "" {
		parts = append(parts, fmt.Sprintf("generated=%q", config.GeneratedAt))
	}
	u.write("REPORT_START: %s\n", strings.Join(parts, " "))
}

// headerMinimal renders the header in minimal format.
func (u *terminalReportUI) headerMinimal(config HeaderConfig) {
	u.write("Report: %s\n", config.Address)
	if config.ParcelNumber != "" {
		u.write("Parcel: %s\n", config.ParcelNumber)
	}
	if config.ZoneCode != "" {
		if config.ZoneName != "" {
			u.write("Zone: %s (%s)\n", config.ZoneCode, config.ZoneName)
		} else {
			u.write("Zone: %s\n", config.ZoneCode)
		}
	}
}

// headerFull renders the header with full styling.
func (u *terminalReportUI) headerFull(config HeaderConfig) {
	var content strings.Builder
	content.WriteString(Styles.Highlight.Render(string(IconParcel) + " Parcel Report"))
	content.WriteString("\n")
	content.WriteString(fmt.Sprintf("Address: %s", Styles.Success.Render(config.Address)))

	if config.ParcelNumber != "" {
		content.WriteString("\n")
		content.WriteString(fmt.Sprintf("Parcel: %s", Styles.Success.Render(config.ParcelNumber)))
	}

	if config.ZoneCode != "" {
		content.WriteString("\n")
		if config.ZoneName != "" {
			content.WriteString(fmt.Sprintf("Zone: %s %s",
				Styles.Success.Render(config.ZoneCode),
				Styles.Muted.Render("("+config.ZoneName+")")))
		} else {
			content.WriteString(fmt.Sprintf("Zone: %s", Styles.Success.Render(config.ZoneCode)))
		}
	}

	// Jurisdiction and lot area share a line when both are present
	if config.Jurisdiction != "" || config.LotArea != "" {
		content.WriteString("\n")
		switch {
		case config.Jurisdiction != "" && config.LotArea != "":
			content.WriteString(fmt.Sprintf("%s | %s", config.Jurisdiction, config.LotArea))
		case config.Jurisdiction != "":
			content.WriteString(config.Jurisdiction)
		default:
			content.WriteString(config.LotArea)
		}
	}

	if config.ReportID != "" {
		content.WriteString("\n")
		id := config.ReportID
		if config.GeneratedAt != "" {
			id += " at " + config.GeneratedAt
		}
		content.WriteString(fmt.Sprintf("Report: %s", Styles.Muted.Render(id)))
	}

	boxStyle := Styles.Box.Width(60)
	u.writeln(boxStyle.Render(content.String()))
	u.writeln()
}

// Comments displays placement feedback comments grouped by severity.
func (u *terminalReportUI) Comments(comments []CommentView) {
	if len(comments) == 0 {
		if u.personality == PersonalityMachine {
			u.writeln("COMMENTS: none")
			return
		}
		if u.personality != PersonalityMinimal {
			u.writeln(Styles.Muted.Render("(No placement feedback)"))
		}
		return
	}

	if u.personality == PersonalityMachine {
		for _, c := range comments {
			u.write("COMMENT: severity=%s category=%s structure=%s %s\n",
				c.Severity, c.Category, c.Structure, c.Title)
		}
		return
	}

	// Render blocking severities first so they are hardest to miss.
	order := []string{"critical", "warning", "info", "success"}
	seen := make(map[string]bool)

	u.writeln()
	if u.personality == PersonalityMinimal {
		u.writeln("Feedback:")
		for _, sev := range order {
			for _, c := range comments {
				if c.Severity != sev {
					continue
				}
				seen[c.Severity] = true
				u.write("  %s %s\n", SeverityIcon(c.Severity), c.Title)
			}
		}
		for _, c := range comments {
			if !seen[c.Severity] {
				u.write("  %s %s\n", SeverityIcon(c.Severity), c.Title)
			}
		}
		return
	}

	u.writeln(Styles.Subtitle.Render("Placement Feedback"))
	render := func(c CommentView) {
		u.write("%s %s", SeverityIcon(c.Severity).Render(), Styles.Bold.Render(c.Title))
		if c.Structure != "" {
			u.write(" %s", Styles.Muted.Render("["+c.Structure+"]"))
		}
		u.writeln()
		if c.Message != "" {
			u.write("  %s\n", c.Message)
		}
		if c.Citation != "" {
			u.write("  %s\n", Styles.Muted.Render(c.Citation))
		}
		if c.Suggestion != "" {
			u.write("  %s %s\n", Styles.Success.Render(string(IconArrow)), c.Suggestion)
		}
	}
	for _, sev := range order {
		for _, c := range comments {
			if c.Severity != sev {
				continue
			}
			seen[c.Severity] = true
			render(c)
		}
	}
	for _, c := range comments {
		if !seen[c.Severity] {
			render(c)
		}
	}
}

// Permits displays the derived permit requirements.
func (u *terminalReportUI) Permits(permits []PermitView) {
	if len(permits) == 0 {
		if u.personality == PersonalityMachine {
			u.writeln("PERMITS: none")
			return
		}
		if u.personality != PersonalityMinimal {
			u.writeln(Styles.Muted.Render("(No permits required)"))
		}
		return
	}

	if u.personality == PersonalityMachine {
		for _, p := range permits {
			u.write("PERMIT: %s authority=%q triggers=%d\n",
				p.PermitType, p.Authority, len(p.TriggeredBy))
		}
		return
	}

	u.writeln()
	if u.personality == PersonalityMinimal {
		u.writeln("Permits:")
		for i, p := range permits {
			u.write("  %d. %s\n", i+1, p.PermitType)
		}
		return
	}

	// Full personality with styled box
	var content strings.Builder
	for i, p := range permits {
		content.WriteString(fmt.Sprintf("%d. %s", i+1, Styles.Bold.Render(p.PermitType)))
		if p.Authority != "" {
			content.WriteString(fmt.Sprintf(" — %s", p.Authority))
		}
		if p.FeeRange != "" || p.Timeline != "" {
			detail := p.FeeRange
			if p.Timeline != "" {
				if detail != "" {
					detail += ", "
				}
				detail += p.Timeline
			}
			content.WriteString("\n   ")
			content.WriteString(Styles.Muted.Render(detail))
		}
		for _, trigger := range p.TriggeredBy {
			content.WriteString("\n   ")
			content.WriteString(Styles.Muted.Render(string(IconBullet) + " " + trigger))
		}
		if i < len(permits)-1 {
			content.WriteString("\n")
		}
	}

	boxStyle := Styles.InfoBox.Width(60)
	titleLine := Styles.Subtitle.Render("Permits")
	u.writeln(boxStyle.Render(titleLine + "\n" + content.String()))
}

// Actions displays classified actions with status and confidence.
func (u *terminalReportUI) Actions(items []ActionView) {
	if len(items) == 0 {
		return
	}

	if u.personality == PersonalityMachine {
		for _, item := range items {
			u.write("ACTION: %s status=%s confidence=%s\n",
				item.Name, item.Status, item.Confidence)
		}
		return
	}

	u.writeln()
	if u.personality == PersonalityMinimal {
		u.writeln("Actions:")
		for _, item := range items {
			u.write("  %-12s %s\n", item.Status, item.Name)
		}
		return
	}

	u.writeln(Styles.Subtitle.Render("What You Can Do Here"))
	for _, item := range items {
		u.write("%s %s %s\n",
			StatusBadge(item.Status),
			Styles.Bold.Render(item.Name),
			Styles.Muted.Render(confidenceMeter(item.Confidence)))
		if item.Summary != "" {
			u.write("  %s\n", item.Summary)
		}
		for _, cond := range item.Conditions {
			u.write("  %s %s\n", Styles.Warning.Render(string(IconBullet)), cond)
		}
		for _, blocker := range item.Blockers {
			u.write("  %s %s\n", Styles.Error.Render(string(IconError)), blocker)
		}
		for _, step := range item.NextSteps {
			u.write("  %s %s\n", Styles.Success.Render(string(IconArrow)), step)
		}
	}
}

// DataGaps displays the verify-locally notice for missing records.
func (u *terminalReportUI) DataGaps(gaps []string) {
	if len(gaps) == 0 {
		return
	}

	if u.personality == PersonalityMachine {
		for _, gap := range gaps {
			u.write("GAP: %s\n", gap)
		}
		return
	}

	u.writeln()
	if u.personality == PersonalityMinimal {
		u.writeln("Verify locally:")
		for _, gap := range gaps {
			u.write("  - %s\n", gap)
		}
		return
	}

	var content strings.Builder
	for i, gap := range gaps {
		content.WriteString(string(IconBullet) + " " + gap)
		if i < len(gaps)-1 {
			content.WriteString("\n")
		}
	}
	content.WriteString("\n")
	content.WriteString(Styles.Muted.Render("Ask the local permitting office before building."))

	boxStyle := Styles.WarningBox.Width(60)
	titleLine := Styles.Warning.Bold(true).Render("Verify Locally")
	u.writeln(boxStyle.Render(titleLine + "\n" + content.String()))
}

// Error displays a report error message
func (u *terminalReportUI) Error(err error) {
	if u.personality == PersonalityMachine {
		u.write("REPORT_ERROR: %v\n", err)
		return
	}
	u.write("%s %s\n", IconError.Render(), Styles.Error.Render(fmt.Sprintf("Report error: %v", err)))
}

// Footer displays the closing summary with counts and timing.
func (u *terminalReportUI) Footer(stats *ReportStats) {
	if stats == nil {
		return
	}

	if u.personality == PersonalityMachine {
		u.write("REPORT_END: structures=%d clear=%d flagged=%d blocked=%d permits=%d actions=%d duration=%s\n",
			stats.Structures, stats.Clear, stats.Flagged, stats.Blocked,
			stats.Permits, stats.Actions, stats.Duration.Round(time.Millisecond))
		return
	}

	// The structure breakdown only exists after a placement evaluation;
	// report footers carry counts and timing alone.
	classified := stats.Clear+stats.Flagged+stats.Blocked > 0

	if u.personality == PersonalityMinimal {
		if classified {
			u.write("\n%d structures: %d clear, %d flagged, %d blocked\n",
				stats.Structures, stats.Clear, stats.Flagged, stats.Blocked)
		}
		return
	}

	var content strings.Builder
	if classified {
		content.WriteString(fmt.Sprintf("Structures: %s clear  %s flagged  %s blocked",
			Styles.Success.Render(fmt.Sprintf("%d", stats.Clear)),
			Styles.Warning.Render(fmt.Sprintf("%d", stats.Flagged)),
			Styles.Error.Render(fmt.Sprintf("%d", stats.Blocked))))
		content.WriteString("\n")
	}
	content.WriteString(fmt.Sprintf("Permits: %d | Actions: %d", stats.Permits, stats.Actions))
	if stats.Duration > 0 {
		content.WriteString("\n")
		content.WriteString(Styles.Muted.Render(fmt.Sprintf("Built in %s", formatDuration(stats.Duration))))
	}

	boxStyle := Styles.Box.Width(60)
	u.writeln()
	u.writeln(boxStyle.Render(content.String()))
	u.writeln(Styles.Muted.Render("Informational only. Confirm with the permitting authority."))
}

// SeverityIcon maps a comment severity to its display icon.
func SeverityIcon(severity string) Icon {
	switch severity {
	case "critical":
		return IconError
	case "warning":
		return IconWarning
	case "success":
		return IconSuccess
	default:
		return IconBullet
	}
}

// StatusBadge renders a colored action status badge.
func StatusBadge(status string) string {
	switch status {
	case "ALLOWED":
		return Styles.Success.Render("[" + status + "]")
	case "CONDITIONAL":
		return Styles.Warning.Render("[" + status + "]")
	case "RESTRICTED":
		return Styles.Error.Render("[" + status + "]")
	default:
		return Styles.Muted.Render("[" + status + "]")
	}
}

// confidenceMeter renders a three-dot confidence indicator.
func confidenceMeter(confidence string) string {
	switch confidence {
	case "HIGH":
		return "●●●"
	case "MEDIUM":
		return "●●○"
	case "LOW":
		return "●○○"
	default:
		return ""
	}
}

// formatDuration renders a duration at human scale: sub-second values
// in milliseconds, longer values in seconds or minutes.
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
}

// defaultReportUI backs the package-level convenience functions.
var defaultReportUI ReportUI

func getDefaultReportUI() ReportUI {
	if defaultReportUI == nil {
		defaultReportUI = NewReportUI()
	}
	return defaultReportUI
}

// ReportHeader displays a report header using the default UI
func ReportHeader(config HeaderConfig) {
	getDefaultReportUI().Header(config)
}

// ReportComments displays comments using the default UI
func ReportComments(comments []CommentView) {
	getDefaultReportUI().Comments(comments)
}

// ReportPermits displays permits using the default UI
func ReportPermits(permits []PermitView) {
	getDefaultReportUI().Permits(permits)
}

// ReportActions displays actions using the default UI
func ReportActions(items []ActionView) {
	getDefaultReportUI().Actions(items)
}

// ReportDataGaps displays the verify-locally notice using the default UI
func ReportDataGaps(gaps []string) {
	getDefaultReportUI().DataGaps(gaps)
}

// ReportError displays a report error using the default UI
func ReportError(err error) {
	getDefaultReportUI().Error(err)
}

// ReportFooter displays the report footer using the default UI
func ReportFooter(stats *ReportStats) {
	getDefaultReportUI().Footer(stats)
}
