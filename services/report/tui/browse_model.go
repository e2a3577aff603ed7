// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tui provides terminal user interface components for browsing reports.
//
// # Description
//
// This package implements the interactive report browser using bubbletea.
// It lets users page through saved feasibility reports, switching between
// the overview, action, and permit sections without re-fetching anything.
//
// # Thread Safety
//
// TUI components are designed for single-threaded use within the bubbletea
// event loop. Do not access TUI state from multiple goroutines.
package tui

import (
	"fmt"
	"strings"

	"github.com/AleutianAI/ParcelFOSS/services/actions"
	"github.com/AleutianAI/ParcelFOSS/services/report"
	"github.com/AleutianAI/ParcelFOSS/services/siteplan"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// View Mode
// =============================================================================

// ViewMode determines which report section is displayed.
type ViewMode int

const (
	// ViewOverview shows parcel, zoning, and site conditions.
	ViewOverview ViewMode = iota

	// ViewActions shows the classified action catalog.
	ViewActions

	// ViewPermits shows derived permit requirements.
	ViewPermits
)

func (v ViewMode) String() string {
	switch v {
	case ViewOverview:
		return "Overview"
	case ViewActions:
		return "Actions"
	case ViewPermits:
		return "Permits"
	default:
		return "Unknown"
	}
}

// =============================================================================
// Config
// =============================================================================

// BrowseConfig configures the report browser TUI.
type BrowseConfig struct {
	// Width overrides terminal width (0 = auto-detect).
	Width int

	// Height overrides terminal height (0 = auto-detect).
	Height int

	// ShowCitations includes rule citations in action detail.
	ShowCitations bool
}

// DefaultBrowseConfig returns sensible defaults.
func DefaultBrowseConfig() BrowseConfig {
	return BrowseConfig{
		ShowCitations: true,
	}
}

// =============================================================================
// Model
// =============================================================================

// BrowseModel is the bubbletea model for interactive report browsing.
//
// # Description
//
// Manages the state of a browsing session: which report is open, which
// section is shown, and the scroll position within it. The model is
// read-only over the reports it is given.
type BrowseModel struct {
	// Configuration
	config BrowseConfig

	// Reports being browsed
	reports []report.Report

	// Current navigation state
	currentReport int
	viewMode      ViewMode

	// Viewport for scrolling
	viewport viewport.Model

	// Terminal dimensions
	width  int
	height int

	// State flags
	ready    bool
	showHelp bool
	quitting bool
}

// NewBrowseModel creates a new report browser model.
//
// # Inputs
//
//   - reports: The reports to browse, newest first.
//   - config: Configuration options.
//
// # Outputs
//
//   - BrowseModel: Ready-to-use model for tea.NewProgram.
func NewBrowseModel(reports []report.Report, config BrowseConfig) BrowseModel {
	return BrowseModel{
		config:   config,
		reports:  reports,
		viewMode: ViewOverview,
	}
}

// Init implements tea.Model.
func (m BrowseModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 3
		footerHeight := 2
		viewportHeight := m.height - headerHeight - footerHeight

		if !m.ready {
			m.viewport = viewport.New(m.width, viewportHeight)
			m.viewport.YPosition = headerHeight
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = viewportHeight
		}

		m.updateViewportContent()

	case tea.KeyMsg:
		// Handle help overlay
		if m.showHelp {
			if msg.String() == "q" || msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}

		// Normal key handling
		switch msg.String() {
		case "?":
			m.showHelp = true

		case "q", "Q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit

		case "left", "h":
			return m.prevReport()

		case "right", "l":
			return m.nextReport()

		case "1":
			m.setViewMode(ViewOverview)

		case "2":
			m.setViewMode(ViewActions)

		case "3":
			m.setViewMode(ViewPermits)

		case "tab":
			m.toggleViewMode()
			m.updateViewportContent()

		case "j", "down":
			m.viewport.LineDown(1)

		case "k", "up":
			m.viewport.LineUp(1)

		case "ctrl+d":
			m.viewport.HalfViewDown()

		case "ctrl+u":
			m.viewport.HalfViewUp()

		case "g", "home":
			m.viewport.GotoTop()

		case "G", "end":
			m.viewport.GotoBottom()
		}
	}

	// Update viewport
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m BrowseModel) View() string {
	if m.quitting {
		return ""
	}

	if !m.ready || len(m.reports) == 0 {
		return "Loading...\n"
	}

	var b strings.Builder

	// Header
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	// Main content
	if m.showHelp {
		b.WriteString(m.renderHelp())
	} else {
		b.WriteString(m.viewport.View())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return b.String()
}

// =============================================================================
// Navigation
// =============================================================================

func (m *BrowseModel) prevReport() (BrowseModel, tea.Cmd) {
	if m.currentReport > 0 {
		m.currentReport--
		m.viewport.GotoTop()
		m.updateViewportContent()
	}
	return *m, nil
}

func (m *BrowseModel) nextReport() (BrowseModel, tea.Cmd) {
	if m.currentReport < len(m.reports)-1 {
		m.currentReport++
		m.viewport.GotoTop()
		m.updateViewportContent()
	}
	return *m, nil
}

func (m *BrowseModel) setViewMode(mode ViewMode) {
	if m.viewMode == mode {
		return
	}
	m.viewMode = mode
	m.viewport.GotoTop()
	m.updateViewportContent()
}

func (m *BrowseModel) toggleViewMode() {
	switch m.viewMode {
	case ViewOverview:
		m.viewMode = ViewActions
	case ViewActions:
		m.viewMode = ViewPermits
	case ViewPermits:
		m.viewMode = ViewOverview
	}
	m.viewport.GotoTop()
}

// =============================================================================
// Viewport Content
// =============================================================================

func (m *BrowseModel) updateViewportContent() {
	if !m.ready {
		return
	}

	var content string
	switch m.viewMode {
	case ViewOverview:
		content = m.renderOverview()
	case ViewActions:
		content = m.renderActions()
	case ViewPermits:
		content = m.renderPermits()
	}

	m.viewport.SetContent(content)
}

// =============================================================================
// Accessors
// =============================================================================

// Current returns the report currently on screen.
func (m BrowseModel) Current() report.Report {
	if len(m.reports) == 0 {
		return report.Report{}
	}
	return m.reports[m.currentReport]
}

// Reports returns all reports loaded into the browser.
func (m BrowseModel) Reports() []report.Report {
	return m.reports
}

// =============================================================================
// Rendering
// =============================================================================

func (m BrowseModel) renderHeader() string {
	rpt := m.Current()

	title := titleStyle.Render("Parcel Report")
	addr := addressStyle.Render(rpt.Address.String())
	position := ""
	if len(m.reports) > 1 {
		position = statsStyle.Render(fmt.Sprintf("  [%d/%d]", m.currentReport+1, len(m.reports)))
	}

	tabs := make([]string, 0, 3)
	for _, mode := range []ViewMode{ViewOverview, ViewActions, ViewPermits} {
		label := fmt.Sprintf("%d:%s", int(mode)+1, mode)
		if mode == m.viewMode {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(label))
		}
	}

	return fmt.Sprintf("%s %s%s\n%s\n", title, addr, position, strings.Join(tabs, "  "))
}

func (m BrowseModel) renderFooter() string {
	hints := "tab: section • ←/→: report • j/k: scroll • ?: help • q: quit"
	pct := fmt.Sprintf("%3.0f%%", m.viewport.ScrollPercent()*100)
	return statsStyle.Render(hints + "  " + pct)
}

func (m BrowseModel) renderOverview() string {
	rpt := m.Current()
	var b strings.Builder

	b.WriteString(sectionStyle.Render("Parcel"))
	b.WriteString("\n")
	writeField(&b, "ID", rpt.Parcel.ParcelID)
	writeField(&b, "Area", fmtArea(rpt.Parcel.AreaSqFt))
	writeField(&b, "Dimensions", fmt.Sprintf("%.0f ft × %.0f ft", rpt.Parcel.WidthFt, rpt.Parcel.DepthFt))
	writeField(&b, "Slope", fmt.Sprintf("%.1f%%", rpt.Parcel.SlopePct))

	b.WriteString("\n")
	zoneTitle := "Zoning — " + rpt.Zoning.ZoneCode
	if rpt.Zoning.ZoneName != "" {
		zoneTitle += " (" + rpt.Zoning.ZoneName + ")"
	}
	b.WriteString(sectionStyle.Render(zoneTitle))
	b.WriteString("\n")
	if rpt.Zoning.Known {
		writeField(&b, "Category", string(rpt.Zoning.Category))
		if rpt.Zoning.MinLotSqFt > 0 {
			writeField(&b, "Min lot", fmtArea(rpt.Zoning.MinLotSqFt))
		}
		if rpt.Zoning.MaxCoveragePct > 0 {
			writeField(&b, "Max coverage", fmt.Sprintf("%.0f%%", rpt.Zoning.MaxCoveragePct))
		}
		if rpt.Zoning.MaxHeightFt > 0 {
			writeField(&b, "Max height", fmt.Sprintf("%.0f ft", rpt.Zoning.MaxHeightFt))
		}
		writeField(&b, "ADU", yesNo(rpt.Zoning.ADUAllowed))
		writeField(&b, "DADU", yesNo(rpt.Zoning.DADUAllowed))
		writeField(&b, "Subdivision", yesNo(rpt.Zoning.SubdivisionAllowed))
	} else {
		b.WriteString(gapStyle.Render("  zone not in rulebook; limits unavailable"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("Soil"))
	b.WriteString("\n")
	if rpt.Soil != nil {
		writeField(&b, "Septic rating", rpt.Soil.Rating)
		for _, lim := range rpt.Soil.Limitations {
			b.WriteString(gapStyle.Render("  • " + lim))
			b.WriteString("\n")
		}
	} else {
		b.WriteString(gapStyle.Render("  no soil survey data"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("Utilities"))
	b.WriteString("\n")
	if rpt.Utilities != nil {
		writeField(&b, "Water", yesNo(rpt.Utilities.WaterAvailable))
		sewer := yesNo(rpt.Utilities.SewerAvailable)
		if rpt.Utilities.SewerAvailable && rpt.Utilities.SewerDistanceFt > 0 {
			sewer += fmt.Sprintf(" (%.0f ft)", rpt.Utilities.SewerDistanceFt)
		}
		writeField(&b, "Sewer", sewer)
		writeField(&b, "Gas", yesNo(rpt.Utilities.GasAvailable))
	} else {
		b.WriteString(gapStyle.Render("  no utility data"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("Environment"))
	b.WriteString("\n")
	if rpt.Environment != nil {
		flood := yesNo(rpt.Environment.FloodZone)
		if rpt.Environment.FloodZone && rpt.Environment.FloodZoneCode != "" {
			flood += " (" + rpt.Environment.FloodZoneCode + ")"
		}
		writeField(&b, "Flood zone", flood)
		writeField(&b, "Wetlands", fmt.Sprintf("%d mapped", len(rpt.Environment.Wetlands)))
	} else {
		b.WriteString(gapStyle.Render("  no environmental data"))
		b.WriteString("\n")
	}

	if len(rpt.Partial) > 0 {
		b.WriteString("\n")
		b.WriteString(gapStyle.Render("Sources without answers: " + strings.Join(rpt.Partial, ", ")))
		b.WriteString("\n")
	}

	return b.String()
}

func (m BrowseModel) renderActions() string {
	rpt := m.Current()
	if len(rpt.Actions) == 0 {
		return gapStyle.Render("No classified actions in this report.\n")
	}

	var b strings.Builder
	for i, item := range rpt.Actions {
		b.WriteString(m.renderAction(item))
		if i < len(rpt.Actions)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m BrowseModel) renderAction(item actions.ActionItem) string {
	var b strings.Builder

	b.WriteString(statusBadge(item.Status))
	b.WriteString(" ")
	b.WriteString(actionNameStyle.Render(item.ActionName))
	b.WriteString(" ")
	b.WriteString(statsStyle.Render(string(item.Confidence)))
	b.WriteString("\n")

	if item.Summary != "" {
		b.WriteString("  " + item.Summary + "\n")
	}
	for _, cond := range item.Conditions {
		b.WriteString(conditionStyle.Render("  • "+cond) + "\n")
	}
	for _, blocker := range item.BlockingFactors {
		b.WriteString(blockerStyle.Render("  ✗ "+blocker) + "\n")
	}
	for _, step := range item.NextSteps {
		b.WriteString(stepStyle.Render("  → "+step) + "\n")
	}
	for _, gap := range item.DataGaps {
		b.WriteString(gapStyle.Render("  ? "+gap) + "\n")
	}
	if m.config.ShowCitations {
		for _, cite := range item.Citations {
			b.WriteString(statsStyle.Render("  "+cite) + "\n")
		}
	}

	return b.String()
}

func (m BrowseModel) renderPermits() string {
	rpt := m.Current()
	if len(rpt.Permits) == 0 {
		return gapStyle.Render("No permits derived from site conditions.\n") +
			statsStyle.Render("Placement sessions derive per-layout permits.\n")
	}

	var b strings.Builder
	for i, p := range rpt.Permits {
		b.WriteString(m.renderPermit(i+1, p))
		if i < len(rpt.Permits)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m BrowseModel) renderPermit(n int, p siteplan.PermitRequirement) string {
	var b strings.Builder

	b.WriteString(actionNameStyle.Render(fmt.Sprintf("%d. %s", n, p.PermitType)))
	b.WriteString("\n")
	if p.Authority != "" {
		writeField(&b, "Authority", p.Authority)
	}
	if p.EstimatedFeeRange != "" {
		writeField(&b, "Est. fee", p.EstimatedFeeRange)
	}
	if p.TimelineEstimate != "" {
		writeField(&b, "Timeline", p.TimelineEstimate)
	}
	for _, trigger := range p.TriggeredBy {
		b.WriteString(statsStyle.Render("  • "+trigger) + "\n")
	}

	return b.String()
}

func (m BrowseModel) renderHelp() string {
	keys := [][2]string{
		{"tab", "cycle section (overview, actions, permits)"},
		{"1/2/3", "jump to section"},
		{"←/h  →/l", "previous / next report"},
		{"j/k", "scroll line"},
		{"ctrl+d/ctrl+u", "scroll half page"},
		{"g/G", "top / bottom"},
		{"?", "toggle this help"},
		{"q", "quit"},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Report Browser Keys"))
	b.WriteString("\n\n")
	for _, k := range keys {
		b.WriteString(fmt.Sprintf("  %s  %s\n",
			helpKeyStyle.Render(fmt.Sprintf("%-14s", k[0])),
			helpDescStyle.Render(k[1])))
	}
	b.WriteString("\n")
	b.WriteString(statsStyle.Render("Press q or ? to close help."))
	return b.String()
}

// =============================================================================
// Formatting Helpers
// =============================================================================

func writeField(b *strings.Builder, label, value string) {
	b.WriteString(fmt.Sprintf("  %s %s\n",
		labelStyle.Render(fmt.Sprintf("%-13s", label+":")),
		value))
}

func fmtArea(sqft float64) string {
	return fmt.Sprintf("%.0f sq ft (%.2f ac)", sqft, sqft/43560)
}

func yesNo(v bool) string {
	if v {
		return stepStyle.Render("yes")
	}
	return blockerStyle.Render("no")
}

func statusBadge(status actions.ActionStatus) string {
	switch status {
	case actions.StatusAllowed:
		return allowedBadge.Render(string(status))
	case actions.StatusConditional:
		return conditionalBadge.Render(string(status))
	case actions.StatusRestricted:
		return restrictedBadge.Render(string(status))
	default:
		return unknownBadge.Render(string(status))
	}
}

// =============================================================================
// Styles
// =============================================================================

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	addressStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("114"))

	statsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("78")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	actionNameStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("252"))

	conditionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	blockerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	stepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	gapStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	activeTabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true).
			Underline(true)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("241"))

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	allowedBadge = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Background(lipgloss.Color("22")).
			Padding(0, 1)

	conditionalBadge = lipgloss.NewStyle().
				Foreground(lipgloss.Color("214")).
				Background(lipgloss.Color("58")).
				Padding(0, 1)

	restrictedBadge = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Background(lipgloss.Color("52")).
			Padding(0, 1)

	unknownBadge = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			Background(lipgloss.Color("238")).
			Padding(0, 1)
)
