// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// PersonalityLevel selects how much decoration command output carries.
// It is process-wide state: commands resolve it once at startup and the
// print helpers in this package consult it on every call.
type PersonalityLevel string

const (
	// PersonalityFull renders color, icons, boxes, and survey theming.
	PersonalityFull PersonalityLevel = "full"

	// PersonalityStandard renders color and icons without the theming.
	PersonalityStandard PersonalityLevel = "standard"

	// PersonalityMinimal renders icons with unstyled text.
	PersonalityMinimal PersonalityLevel = "minimal"

	// PersonalityMachine renders stable plain text for scripts to parse.
	PersonalityMachine PersonalityLevel = "machine"
)

var (
	levelMu      sync.RWMutex
	currentLevel = PersonalityFull
)

// CurrentLevel returns the active personality level.
func CurrentLevel() PersonalityLevel {
	levelMu.RLock()
	defer levelMu.RUnlock()
	return currentLevel
}

// SetPersonalityLevel replaces the active personality level.
func SetPersonalityLevel(level PersonalityLevel) {
	levelMu.Lock()
	defer levelMu.Unlock()
	currentLevel = level
}

// ParsePersonalityLevel maps a flag or environment value to a level.
// Unrecognized values fall back to PersonalityStandard.
func ParsePersonalityLevel(s string) PersonalityLevel {
	switch strings.ToLower(s) {
	case "full", "f":
		return PersonalityFull
	case "standard", "std", "s":
		return PersonalityStandard
	case "minimal", "min", "m":
		return PersonalityMinimal
	case "machine", "quiet", "q":
		return PersonalityMachine
	default:
		return PersonalityStandard
	}
}

// InitPersonality resolves the startup personality. The
// PARCEL_PERSONALITY environment variable wins; otherwise piped output
// gets machine mode and a terminal gets the full treatment.
func InitPersonality() {
	if env := os.Getenv("PARCEL_PERSONALITY"); env != "" {
		SetPersonalityLevel(ParsePersonalityLevel(env))
		return
	}
	if !isTerminal() {
		SetPersonalityLevel(PersonalityMachine)
		return
	}
	SetPersonalityLevel(PersonalityFull)
}

func isTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// IsInteractive reports whether prompts may be shown: an interactive
// personality and a real terminal on stdout.
func IsInteractive() bool {
	return CurrentLevel() != PersonalityMachine && isTerminal()
}
