// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package siteplan

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity grades a feedback comment.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
	SeveritySuccess  Severity = "success"
)

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityWarning, SeverityInfo, SeveritySuccess:
		return true
	}
	return false
}

// Blocking reports whether the severity blocks a candidate's
// all-clear. Info and success never block.
func (s Severity) Blocking() bool {
	return s == SeverityCritical || s == SeverityWarning
}

func (s *Severity) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	sev := Severity(raw)
	if !sev.Valid() {
		return fmt.Errorf("%w: severity %q", ErrUnknownKind, raw)
	}
	*s = sev
	return nil
}

// CommentCategory names the check family a comment came from.
type CommentCategory string

const (
	CategorySetback        CommentCategory = "setback"
	CategorySeptic         CommentCategory = "septic"
	CategoryWell           CommentCategory = "well"
	CategorySepticCapacity CommentCategory = "septic_capacity"
	CategoryWetland        CommentCategory = "wetland"
	CategoryEasementUse    CommentCategory = "easement"
	CategoryFlood          CommentCategory = "flood"
	CategorySlope          CommentCategory = "slope"
	CategorySeparation     CommentCategory = "separation"
	CategoryUtility        CommentCategory = "utility"
	CategoryCoverage       CommentCategory = "coverage"
	CategoryPermit         CommentCategory = "permit"
	CategoryPlacement      CommentCategory = "placement"
)

// Comment is one piece of placement feedback. Comments are pure data;
// rendering, ordering for display, and grouping are the caller's
// concern.
type Comment struct {
	// ID is deterministic over (category, structure, triggering
	// feature): re-evaluating identical inputs yields identical IDs,
	// and MergeComments de-duplicates on ID alone.
	ID string `json:"id"`

	Category CommentCategory `json:"category"`
	Severity Severity        `json:"severity"`
	Title    string          `json:"title"`
	Message  string          `json:"message"`

	// Citation names the rule source when one applies.
	Citation string `json:"citation,omitempty"`

	// SuggestedAction tells the user what would clear the comment.
	SuggestedAction string `json:"suggested_action,omitempty"`

	// StructureID is the candidate the comment is addressed to. Empty
	// for parcel-wide comments (coverage, utility notices), which are
	// emitted identically from every per-candidate call and collapse
	// in the merge.
	StructureID string `json:"structure_id,omitempty"`
}

// commentID builds the deterministic comment identity. Empty segments
// are kept so that parcel-wide comments collide across per-candidate
// calls on purpose.
func commentID(category CommentCategory, structureID, featureID string) string {
	return strings.Join([]string{string(category), structureID, featureID}, ":")
}

// MergeComments merges per-candidate evaluation results into one
// de-duplicated set. Duplicates are dropped on exact ID match only,
// never on semantic similarity; first occurrence order is preserved.
func MergeComments(sets ...[]Comment) []Comment {
	var merged []Comment
	seen := make(map[string]struct{})
	for _, set := range sets {
		for _, c := range set {
			if _, ok := seen[c.ID]; ok {
				continue
			}
			seen[c.ID] = struct{}{}
			merged = append(merged, c)
		}
	}
	return merged
}

// BlockingFor returns the comments addressed to the given candidate
// that carry a blocking severity.
func BlockingFor(comments []Comment, structureID string) []Comment {
	var out []Comment
	for _, c := range comments {
		if c.StructureID == structureID && c.Severity.Blocking() {
			out = append(out, c)
		}
	}
	return out
}
