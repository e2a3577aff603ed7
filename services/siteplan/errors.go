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

import "errors"

// Model construction errors. These mark construction-time defects in
// the inputs handed to NewSiteModel; evaluation entry points assume a
// validated model and do not re-check.
var (
	// ErrUnknownKind indicates a tag outside the closed enum sets.
	ErrUnknownKind = errors.New("unknown kind")

	// ErrInvalidFeature indicates a feature violating a model
	// invariant (missing ID, negative buffer, negative size).
	ErrInvalidFeature = errors.New("invalid site feature")

	// ErrDuplicateID indicates two features or easements sharing an ID.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrEasementMismatch indicates an easement without a matching
	// geometric feature projection, or the reverse.
	ErrEasementMismatch = errors.New("easement and feature projection mismatch")

	// ErrInvalidLot indicates non-positive lot dimensions.
	ErrInvalidLot = errors.New("invalid lot dimensions")
)
