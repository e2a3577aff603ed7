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
	"os"
	"sync"
	"testing"
)

// =============================================================================
// Level State Tests
// =============================================================================

func TestSetPersonalityLevelRoundTrip(t *testing.T) {
	orig := CurrentLevel()
	t.Cleanup(func() { SetPersonalityLevel(orig) })

	levels := []PersonalityLevel{
		PersonalityFull, PersonalityStandard, PersonalityMinimal, PersonalityMachine,
	}
	for _, level := range levels {
		SetPersonalityLevel(level)
		if got := CurrentLevel(); got != level {
			t.Errorf("CurrentLevel() = %q after SetPersonalityLevel(%q)", got, level)
		}
	}
}

func TestPersonalityLevelSpellings(t *testing.T) {
	// The string values double as the flag and env var spellings.
	if PersonalityFull != "full" || PersonalityStandard != "standard" ||
		PersonalityMinimal != "minimal" || PersonalityMachine != "machine" {
		t.Error("personality level spellings changed; flag parsing depends on them")
	}
}

func TestConcurrentLevelAccess(t *testing.T) {
	orig := CurrentLevel()
	t.Cleanup(func() { SetPersonalityLevel(orig) })

	levels := []PersonalityLevel{
		PersonalityFull, PersonalityStandard, PersonalityMinimal, PersonalityMachine,
	}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				SetPersonalityLevel(levels[(i+j)%len(levels)])
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = CurrentLevel()
			}
		}()
	}
	wg.Wait()
}

// =============================================================================
// ParsePersonalityLevel Tests
// =============================================================================

func TestParsePersonalityLevel(t *testing.T) {
	tests := []struct {
		in   string
		want PersonalityLevel
	}{
		{"full", PersonalityFull},
		{"f", PersonalityFull},
		{"FULL", PersonalityFull},
		{"standard", PersonalityStandard},
		{"std", PersonalityStandard},
		{"s", PersonalityStandard},
		{"minimal", PersonalityMinimal},
		{"min", PersonalityMinimal},
		{"m", PersonalityMinimal},
		{"machine", PersonalityMachine},
		{"quiet", PersonalityMachine},
		{"q", PersonalityMachine},
		{"", PersonalityStandard},
		{"chatty", PersonalityStandard},
	}
	for _, tt := range tests {
		if got := ParsePersonalityLevel(tt.in); got != tt.want {
			t.Errorf("ParsePersonalityLevel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// =============================================================================
// InitPersonality Tests
// =============================================================================

func TestInitPersonalityEnvWins(t *testing.T) {
	orig := CurrentLevel()
	t.Cleanup(func() { SetPersonalityLevel(orig) })

	t.Setenv("PARCEL_PERSONALITY", "minimal")
	InitPersonality()

	if got := CurrentLevel(); got != PersonalityMinimal {
		t.Errorf("CurrentLevel() = %q, want minimal from the environment", got)
	}
}

func TestInitPersonalityEnvMachine(t *testing.T) {
	orig := CurrentLevel()
	t.Cleanup(func() { SetPersonalityLevel(orig) })

	t.Setenv("PARCEL_PERSONALITY", "quiet")
	InitPersonality()

	if got := CurrentLevel(); got != PersonalityMachine {
		t.Errorf("CurrentLevel() = %q, want machine for the quiet alias", got)
	}
}

func TestInitPersonalityNoEnv(t *testing.T) {
	orig := CurrentLevel()
	t.Cleanup(func() { SetPersonalityLevel(orig) })

	os.Unsetenv("PARCEL_PERSONALITY")
	InitPersonality()

	// Under go test stdout is usually a pipe, but key off isTerminal so
	// the assertion also holds when run from an interactive shell.
	want := PersonalityMachine
	if isTerminal() {
		want = PersonalityFull
	}
	if got := CurrentLevel(); got != want {
		t.Errorf("CurrentLevel() = %q, want %q", got, want)
	}
}

// =============================================================================
// IsInteractive Tests
// =============================================================================

func TestIsInteractiveMachineMode(t *testing.T) {
	orig := CurrentLevel()
	t.Cleanup(func() { SetPersonalityLevel(orig) })

	SetPersonalityLevel(PersonalityMachine)
	if IsInteractive() {
		t.Error("IsInteractive() = true in machine mode, want false")
	}
}

func TestIsInteractiveFullModeTracksTerminal(t *testing.T) {
	orig := CurrentLevel()
	t.Cleanup(func() { SetPersonalityLevel(orig) })

	SetPersonalityLevel(PersonalityFull)
	if got, want := IsInteractive(), isTerminal(); got != want {
		t.Errorf("IsInteractive() = %v, want %v (terminal state)", got, want)
	}
}
