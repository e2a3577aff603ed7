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
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// disabled returns a Config with both exporters off, the baseline for
// tests that only care about one pipeline.
func disabled() Config {
	cfg := DefaultConfig()
	cfg.TraceExporter = "none"
	cfg.MetricExporter = "none"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.ServiceName != "report-service" {
		t.Errorf("ServiceName = %q, want report-service", cfg.ServiceName)
	}
	if cfg.TraceExporter != "otlp" {
		t.Errorf("TraceExporter = %q, want otlp", cfg.TraceExporter)
	}
	if cfg.MetricExporter != "prometheus" {
		t.Errorf("MetricExporter = %q, want prometheus", cfg.MetricExporter)
	}
	if cfg.OTLPEndpoint != "localhost:4317" {
		t.Errorf("OTLPEndpoint = %q, want localhost:4317", cfg.OTLPEndpoint)
	}
	if !cfg.OTLPInsecure {
		t.Error("OTLPInsecure = false, want true for the local collector default")
	}
}

func TestInitNilContext(t *testing.T) {
	_, err := Init(nil, disabled())
	if !errors.Is(err, ErrNilContext) {
		t.Errorf("Init(nil) error = %v, want ErrNilContext", err)
	}
}

func TestInitDisabled(t *testing.T) {
	shutdown, err := Init(context.Background(), disabled())
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if shutdown == nil {
		t.Fatal("Init() returned nil shutdown")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown() error = %v", err)
	}
}

func TestInitUnknownExporter(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"trace", func(c *Config) { c.TraceExporter = "zipkin" }},
		{"metric", func(c *Config) { c.MetricExporter = "statsd" }},
		{"former jaeger alias", func(c *Config) { c.TraceExporter = "jaeger" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := disabled()
			tt.mutate(&cfg)

			_, err := Init(context.Background(), cfg)
			if !errors.Is(err, ErrUnknownExporter) {
				t.Errorf("Init() error = %v, want ErrUnknownExporter", err)
			}
		})
	}
}

func TestInitStdoutTrace(t *testing.T) {
	cfg := disabled()
	cfg.TraceExporter = "stdout"

	shutdown, err := Init(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer shutdown(context.Background())

	if otel.Tracer("test") == nil {
		t.Error("no tracer after Init")
	}
}

func TestInitStdoutMetrics(t *testing.T) {
	cfg := disabled()
	cfg.MetricExporter = "stdout"

	shutdown, err := Init(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer shutdown(context.Background())

	if otel.Meter("test") == nil {
		t.Error("no meter after Init")
	}
}

func TestInitPrometheus(t *testing.T) {
	cfg := disabled()
	cfg.MetricExporter = "prometheus"

	shutdown, err := Init(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer shutdown(context.Background())

	counter, err := otel.Meter("test").Int64Counter("test_counter")
	if err != nil {
		t.Fatalf("creating counter: %v", err)
	}
	counter.Add(context.Background(), 1)

	if MetricsHandler() == nil {
		t.Fatal("MetricsHandler() is nil after prometheus Init")
	}
}

func TestMetricsHandlerServesPrometheusText(t *testing.T) {
	cfg := disabled()
	cfg.MetricExporter = "prometheus"

	shutdown, err := Init(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer shutdown(context.Background())

	counter, err := otel.Meter("test_metrics").Int64Counter("telemetry_test_requests_total")
	if err != nil {
		t.Fatalf("creating counter: %v", err)
	}
	counter.Add(context.Background(), 42)

	rec := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	resp := rec.Result()
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	if !strings.Contains(string(body), "# HELP") && !strings.Contains(string(body), "# TYPE") {
		t.Errorf("body is not prometheus exposition text:\n%.200s", body)
	}
}

func TestMetricsHandlerNilBeforeInit(t *testing.T) {
	metricsHandlerMu.Lock()
	saved := metricsHandler
	metricsHandler = nil
	metricsHandlerMu.Unlock()
	defer func() {
		metricsHandlerMu.Lock()
		metricsHandler = saved
		metricsHandlerMu.Unlock()
	}()

	if MetricsHandler() != nil {
		t.Error("MetricsHandler() non-nil before any prometheus Init")
	}
}

func TestInitSetsPropagator(t *testing.T) {
	shutdown, err := Init(context.Background(), disabled())
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer shutdown(context.Background())

	fields := otel.GetTextMapPropagator().Fields()
	found := false
	for _, f := range fields {
		if f == "traceparent" {
			found = true
		}
	}
	if !found {
		t.Errorf("propagator fields %v missing traceparent", fields)
	}
}

// =============================================================================
// Log Correlation
// =============================================================================

func TestLoggerWithTraceNoSpan(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	LoggerWithTrace(context.Background(), logger).Info("test message")

	if strings.Contains(buf.String(), "trace_id") {
		t.Errorf("trace_id injected without an active span: %s", buf.String())
	}
}

func TestLoggerWithTraceNilArgs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	LoggerWithTrace(nil, logger).Info("nil context")
	if !strings.Contains(buf.String(), "nil context") {
		t.Errorf("nil context lost the logger: %s", buf.String())
	}

	if LoggerWithTrace(context.Background(), nil) == nil {
		t.Error("nil logger should fall back to slog.Default(), not nil")
	}
}

func TestLoggerWithTraceActiveSpan(t *testing.T) {
	traceID := trace.TraceID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10}
	spanID := trace.SpanID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	LoggerWithTrace(ctx, logger).Info("test message")

	out := buf.String()
	if !strings.Contains(out, traceID.String()) {
		t.Errorf("output missing trace id %s: %s", traceID, out)
	}
	if !strings.Contains(out, "span_id") {
		t.Errorf("output missing span_id field: %s", out)
	}
}

func TestLoggerWithReport(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	LoggerWithReport(context.Background(), logger, "rpt-42").Info("test message")

	if !strings.Contains(buf.String(), `"report_id":"rpt-42"`) {
		t.Errorf("output missing report_id: %s", buf.String())
	}
}

func TestLoggerWithAccount(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	LoggerWithAccount(context.Background(), logger, "acct-7").Info("test message")

	if !strings.Contains(buf.String(), `"account_id":"acct-7"`) {
		t.Errorf("output missing account_id: %s", buf.String())
	}
}

func TestGetEnvOr(t *testing.T) {
	if got := getEnvOr("TELEMETRY_TEST_UNSET_VAR", "fallback"); got != "fallback" {
		t.Errorf("getEnvOr() = %q, want fallback", got)
	}

	t.Setenv("TELEMETRY_TEST_VAR", "custom")
	if got := getEnvOr("TELEMETRY_TEST_VAR", "fallback"); got != "custom" {
		t.Errorf("getEnvOr() = %q, want custom", got)
	}
}
