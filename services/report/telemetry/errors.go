// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import "errors"

var (
	// ErrNilContext rejects Init(nil, ...); exporter setup needs a
	// real context for its connection lifecycle.
	ErrNilContext = errors.New("context must not be nil")

	// ErrUnknownExporter wraps the offending name when a Config
	// selects a trace or metric exporter this package does not build.
	ErrUnknownExporter = errors.New("unknown exporter type")
)
