// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides rich terminal output styling for the parcel CLI.
package ux

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// ParcelFOSS color palette - field greens and surveyed earth
var (
	// Primary palette (brightest to darkest)
	ColorFernBright  = lipgloss.Color("#5FD68B") // Bright fern - highlights, success
	ColorFernPrimary = lipgloss.Color("#3FBE74") // Primary fern - main brand color
	ColorFernVibrant = lipgloss.Color("#2FA868") // Vibrant fern - interactive elements
	ColorFernMedium  = lipgloss.Color("#2E9B63") // Medium fern - secondary elements
	ColorFernDeep    = lipgloss.Color("#1F8352") // Deep fern - borders, accents
	ColorFernForest  = lipgloss.Color("#176E47") // Forest fern - subtle accents

	// Dark palette (for backgrounds, muted elements)
	ColorLoam    = lipgloss.Color("#3C4A38") // Loam - dark earthy green
	ColorPeat    = lipgloss.Color("#2E3A2B") // Peat - darker backgrounds
	ColorBedrock = lipgloss.Color("#1F2B22") // Bedrock - deep backgrounds
	ColorGranite = lipgloss.Color("#49564A") // Granite - muted text, borders
	ColorDarkest = lipgloss.Color("#101912") // Darkest - near black

	// Semantic colors (keeping standard conventions for clarity)
	ColorSuccess = lipgloss.Color("#5FD68B") // Bright fern for success
	ColorWarning = lipgloss.Color("#F4D03F") // Gold/amber for warnings
	ColorError   = lipgloss.Color("#E74C3C") // Red for errors
	ColorMuted   = lipgloss.Color("#49564A") // Granite for muted text
)

// Styles holds the pre-built lipgloss styles the renderers share. The
// box variants differ only in border color: Box frames neutral
// sections, InfoBox the permit listing, WarningBox the verify-locally
// notice.
var Styles = struct {
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style

	Box        lipgloss.Style
	InfoBox    lipgloss.Style
	WarningBox lipgloss.Style
}{
	Title:     lipgloss.NewStyle().Bold(true).Foreground(ColorFernBright),
	Subtitle:  lipgloss.NewStyle().Foreground(ColorFernPrimary),
	Bold:      lipgloss.NewStyle().Bold(true),
	Muted:     lipgloss.NewStyle().Foreground(ColorGranite),
	Success:   lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning:   lipgloss.NewStyle().Foreground(ColorWarning),
	Error:     lipgloss.NewStyle().Foreground(ColorError),
	Highlight: lipgloss.NewStyle().Foreground(ColorFernBright).Bold(true),

	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorFernDeep).
		Padding(0, 1),
	InfoBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorFernPrimary).
		Padding(0, 1),
	WarningBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorWarning).
		Padding(0, 1),
}

// Icon is a themed status glyph.
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconPending Icon = "○"
	IconArrow   Icon = "→"
	IconBullet  Icon = "•"
	IconParcel  Icon = "⌂"
)

// iconStyles colors the status glyphs; the rest render bare.
var iconStyles = map[Icon]lipgloss.Style{
	IconSuccess: Styles.Success,
	IconWarning: Styles.Warning,
	IconError:   Styles.Error,
	IconPending: Styles.Muted,
}

// Render returns the icon in its status color, or unstyled for the
// structural glyphs (arrow, bullet, parcel).
func (i Icon) Render() string {
	if style, ok := iconStyles[i]; ok {
		return style.Render(string(i))
	}
	return string(i)
}

// statusLine prints one icon-led line in the current personality's
// register. Machine mode collapses to "PREFIX: text", with warnings
// and errors routed to stderr; minimal mode keeps the icon but drops
// the text coloring.
func statusLine(icon Icon, style lipgloss.Style, prefix, text string, stderr bool) {
	switch CurrentLevel() {
	case PersonalityMachine:
		out := os.Stdout
		if stderr {
			out = os.Stderr
		}
		fmt.Fprintf(out, "%s: %s\n", prefix, text)
	case PersonalityMinimal:
		fmt.Printf("%s %s\n", icon.Render(), text)
	default:
		fmt.Printf("%s %s\n", icon.Render(), style.Render(text))
	}
}

// Success prints a success line with the checkmark glyph.
func Success(text string) {
	statusLine(IconSuccess, Styles.Success, "OK", text, false)
}

// Warning prints a warning line; machine mode sends it to stderr.
func Warning(text string) {
	statusLine(IconWarning, Styles.Warning, "WARN", text, true)
}

// Error prints an error line; machine mode sends it to stderr.
func Error(text string) {
	statusLine(IconError, Styles.Error, "ERROR", text, true)
}

// Title prints a styled heading. Machine mode suppresses it: headings
// carry no data.
func Title(text string) {
	if CurrentLevel() == PersonalityMachine {
		return
	}
	fmt.Println(Styles.Title.Render(text))
}

// Info prints a secondary line with a gutter mark; machine mode prints
// the bare text.
func Info(text string) {
	if CurrentLevel() == PersonalityMachine {
		fmt.Println(text)
		return
	}
	fmt.Printf("%s %s\n", Styles.Muted.Render("│"), text)
}

// Muted prints de-emphasized text, and nothing at all in machine mode.
func Muted(text string) {
	if CurrentLevel() == PersonalityMachine {
		return
	}
	fmt.Println(Styles.Muted.Render(text))
}

// Box prints content under a titled rounded border, or "title: content"
// in machine mode.
func Box(title, content string) {
	if CurrentLevel() == PersonalityMachine {
		fmt.Printf("%s: %s\n", title, content)
		return
	}
	fmt.Println(Styles.Box.Width(60).Render(Styles.Title.Render(title) + "\n" + content))
}

// StructureStatus prints one candidate structure's placement standing:
// its id behind the severity glyph, with the deciding reason muted.
// Machine mode emits a tab-separated triple for scripts.
func StructureStatus(structureID string, status Icon, reason string) {
	switch CurrentLevel() {
	case PersonalityMachine:
		fmt.Printf("%s\t%s\t%s\n", status, structureID, reason)
	case PersonalityMinimal:
		fmt.Printf("%s %s\n", status.Render(), structureID)
	default:
		if reason == "" {
			fmt.Printf("%s %s\n", status.Render(), structureID)
			return
		}
		fmt.Printf("%s %s %s\n", status.Render(), structureID, Styles.Muted.Render("("+reason+")"))
	}
}
