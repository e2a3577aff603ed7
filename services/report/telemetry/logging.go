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

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// LoggerWithTrace binds the active span's identifiers onto a logger as
// trace_id and span_id fields, so log lines can be joined with traces
// in the collector. A nil logger falls back to slog.Default(); a nil
// context or one without a valid span returns the logger unchanged.
//
// Typical use at the top of a traced operation:
//
//	logger := telemetry.LoggerWithTrace(ctx, s.logger)
//	logger.Info("report build started")
//
// Safe for concurrent use; With returns a child logger.
func LoggerWithTrace(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	if ctx == nil {
		return logger
	}

	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return logger
	}

	return logger.With(
		slog.String("trace_id", sc.TraceID().String()),
		slog.String("span_id", sc.SpanID().String()),
	)
}

// LoggerWithReport adds the report identifier on top of the trace
// fields so one build's log entries can be grepped across the fetch,
// evaluate, and persist stages.
func LoggerWithReport(ctx context.Context, logger *slog.Logger, reportID string) *slog.Logger {
	return LoggerWithTrace(ctx, logger).With(slog.String("report_id", reportID))
}

// LoggerWithAccount adds the billing account identifier on top of the
// trace fields, tying related report requests to one customer.
func LoggerWithAccount(ctx context.Context, logger *slog.Logger, accountID string) *slog.Logger {
	return LoggerWithTrace(ctx, logger).With(slog.String("account_id", accountID))
}
