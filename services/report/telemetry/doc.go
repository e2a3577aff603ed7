// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry wires OpenTelemetry tracing and metrics for the
// report service.
//
// The package takes one position: OpenTelemetry is the abstraction, so
// callers use otel.Tracer() and otel.Meter() directly and never see a
// wrapper interface. Swapping backends is a Config change, not a code
// change.
//
// # Backends
//
// Traces default to OTLP over gRPC against a local collector (Jaeger
// accepts OTLP natively); "stdout" pretty-prints spans for development
// and "none" disables tracing. Metrics default to Prometheus, exposed
// through MetricsHandler for the server's /metrics route next to the
// observability package's promauto counters; "stdout" and "none" work
// the same way as for traces.
//
// # Log correlation
//
// LoggerWithTrace copies trace_id and span_id from the active span
// into slog fields, so a log line in Loki clicks through to its trace.
// LoggerWithReport and LoggerWithAccount layer the report and billing
// identifiers on top for per-request loggers.
//
// # Usage
//
//	shutdown, err := telemetry.Init(ctx, telemetry.DefaultConfig())
//	if err != nil {
//	    return fmt.Errorf("init telemetry: %w", err)
//	}
//	defer shutdown(ctx)
//
// # Environment Variables
//
//   - OTEL_EXPORTER_OTLP_ENDPOINT: collector address (default: localhost:4317)
//   - OTEL_TRACES_EXPORTER: otlp, stdout, or none (default: otlp)
//   - OTEL_METRICS_EXPORTER: prometheus, stdout, or none (default: prometheus)
//   - PARCEL_ENV: deployment environment label (default: development)
package telemetry
