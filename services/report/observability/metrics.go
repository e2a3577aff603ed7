// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides metrics for the report service.
//
// # Description
//
// This package implements Prometheus metrics for monitoring report
// generation. Metrics include:
//   - Request counters (by endpoint, status, error type)
//   - Report assembly latency histograms
//   - Classified action status distribution
//   - Credit charge totals and live placement session gauges
//
// # Integration
//
// Metrics are exposed via /metrics endpoint. Use with Prometheus +
// Grafana for dashboards and alerting.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal
// locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const metricsNamespace = "parcel"

// Subsystem for report service metrics
const reportSubsystem = "report"

// ReportMetrics holds all Prometheus metrics for the report service.
//
// # Description
//
// Provides counters, histograms, and gauges for monitoring report
// generation and placement sessions. Initialize once at startup via
// InitMetrics().
//
// # Thread Safety
//
// All operations are thread-safe.
type ReportMetrics struct {
	// RequestsTotal counts requests by endpoint and status.
	// Labels: endpoint (report, evaluate, classify, lookup, credits),
	// status (success, error)
	RequestsTotal *prometheus.CounterVec

	// ErrorsTotal counts errors by endpoint and type.
	// Labels: endpoint, error_code (validation, payment_required,
	// upstream, not_found, internal)
	ErrorsTotal *prometheus.CounterVec

	// ReportDurationSeconds measures end-to-end report assembly time.
	// Labels: status (success, error)
	ReportDurationSeconds *prometheus.HistogramVec

	// ActionStatusTotal counts classified action items by status.
	// Labels: status (ALLOWED, CONDITIONAL, RESTRICTED, UNKNOWN)
	ActionStatusTotal *prometheus.CounterVec

	// PartialReportsTotal counts reports missing at least one overlay.
	PartialReportsTotal prometheus.Counter

	// CreditsChargedTotal sums credits charged for reports.
	CreditsChargedTotal prometheus.Counter

	// ActiveLiveSessions tracks open placement websocket sessions.
	ActiveLiveSessions prometheus.Gauge

	// LiveSnapshotsTotal counts layout snapshots evaluated over live
	// sessions.
	LiveSnapshotsTotal prometheus.Counter
}

// DefaultMetrics is the singleton instance of ReportMetrics.
// Initialized by InitMetrics().
var DefaultMetrics *ReportMetrics

// InitMetrics initializes the default metrics instance.
//
// # Description
//
// Creates and registers all Prometheus metrics. Should be called once
// at application startup, after Prometheus registry is available.
//
// # Outputs
//
//   - *ReportMetrics: The initialized metrics instance.
//
// # Limitations
//
//   - Panics if called twice (duplicate registration).
func InitMetrics() *ReportMetrics {
	DefaultMetrics = &ReportMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: reportSubsystem,
				Name:      "requests_total",
				Help:      "Total requests by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),

		ErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: reportSubsystem,
				Name:      "errors_total",
				Help:      "Total errors by endpoint and type",
			},
			[]string{"endpoint", "error_code"},
		),

		ReportDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: reportSubsystem,
				Name:      "duration_seconds",
				Help:      "End-to-end report assembly time in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"status"},
		),

		ActionStatusTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: reportSubsystem,
				Name:      "action_status_total",
				Help:      "Classified action items by status",
			},
			[]string{"status"},
		),

		PartialReportsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: reportSubsystem,
				Name:      "partial_total",
				Help:      "Reports generated with at least one overlay missing",
			},
		),

		CreditsChargedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: reportSubsystem,
				Name:      "credits_charged_total",
				Help:      "Credits charged for generated reports",
			},
		),

		ActiveLiveSessions: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: reportSubsystem,
				Name:      "live_sessions",
				Help:      "Open live placement websocket sessions",
			},
		),

		LiveSnapshotsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: reportSubsystem,
				Name:      "live_snapshots_total",
				Help:      "Layout snapshots evaluated over live sessions",
			},
		),
	}

	return DefaultMetrics
}

// ErrorCode represents a categorized error type for metrics.
type ErrorCode string

const (
	// ErrorCodeValidation indicates request validation failure.
	ErrorCodeValidation ErrorCode = "validation"

	// ErrorCodePayment indicates an insufficient credit balance.
	ErrorCodePayment ErrorCode = "payment_required"

	// ErrorCodeUpstream indicates a property data source failure.
	ErrorCodeUpstream ErrorCode = "upstream"

	// ErrorCodeNotFound indicates a missing report or parcel.
	ErrorCodeNotFound ErrorCode = "not_found"

	// ErrorCodeInternal indicates an internal server error.
	ErrorCodeInternal ErrorCode = "internal"
)

// Endpoint represents a service endpoint for metrics labeling.
type Endpoint string

const (
	EndpointReport   Endpoint = "report"
	EndpointEvaluate Endpoint = "evaluate"
	EndpointClassify Endpoint = "classify"
	EndpointLookup   Endpoint = "lookup"
	EndpointCredits  Endpoint = "credits"
	EndpointLive     Endpoint = "live"
)

// RecordRequest records a completed request.
//
// # Inputs
//
//   - endpoint: The endpoint that handled the request.
//   - success: Whether the request completed successfully.
func (m *ReportMetrics) RecordRequest(endpoint Endpoint, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.RequestsTotal.WithLabelValues(string(endpoint), status).Inc()
}

// RecordError records a request error.
//
// # Inputs
//
//   - endpoint: The endpoint where the error occurred.
//   - code: The error type code.
func (m *ReportMetrics) RecordError(endpoint Endpoint, code ErrorCode) {
	m.ErrorsTotal.WithLabelValues(string(endpoint), string(code)).Inc()
}

// RecordReportDuration records end-to-end report assembly time.
//
// # Inputs
//
//   - seconds: Assembly duration in seconds.
//   - success: Whether assembly completed successfully.
func (m *ReportMetrics) RecordReportDuration(seconds float64, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.ReportDurationSeconds.WithLabelValues(status).Observe(seconds)
}

// RecordActionStatuses records the status distribution of one
// classified catalog.
//
// # Inputs
//
//   - statuses: The status string of each classified item.
func (m *ReportMetrics) RecordActionStatuses(statuses []string) {
	for _, s := range statuses {
		m.ActionStatusTotal.WithLabelValues(s).Inc()
	}
}

// RecordPartialReport counts a report with missing overlays.
func (m *ReportMetrics) RecordPartialReport() {
	m.PartialReportsTotal.Inc()
}

// RecordCharge records credits charged for a report.
//
// # Inputs
//
//   - credits: Credits charged.
func (m *ReportMetrics) RecordCharge(credits int64) {
	m.CreditsChargedTotal.Add(float64(credits))
}

// LiveSessionStarted increments the live session gauge.
func (m *ReportMetrics) LiveSessionStarted() {
	m.ActiveLiveSessions.Inc()
}

// LiveSessionEnded decrements the live session gauge.
func (m *ReportMetrics) LiveSessionEnded() {
	m.ActiveLiveSessions.Dec()
}

// RecordLiveSnapshot counts one evaluated layout snapshot.
func (m *ReportMetrics) RecordLiveSnapshot() {
	m.LiveSnapshotsTotal.Inc()
}
