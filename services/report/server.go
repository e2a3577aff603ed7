// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package report

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/AleutianAI/ParcelFOSS/services/report/observability"
	"github.com/AleutianAI/ParcelFOSS/services/report/telemetry"
)

// ServerConfig configures the HTTP server around a Service.
type ServerConfig struct {
	// Port is the listen port. Zero means 12310.
	Port int

	// Telemetry configures tracing and metric export. The zero value
	// disables the OpenTelemetry stack entirely; use
	// telemetry.DefaultConfig() for the development defaults.
	Telemetry telemetry.Config

	// EnableMetrics exposes Prometheus metrics at /metrics.
	EnableMetrics bool
}

// tracingEnabled reports whether the config asks for a trace exporter.
func (c ServerConfig) tracingEnabled() bool {
	return c.Telemetry.TraceExporter != "" && c.Telemetry.TraceExporter != "none"
}

// telemetryEnabled reports whether any part of the OTel stack is on.
func (c ServerConfig) telemetryEnabled() bool {
	return c.Telemetry != (telemetry.Config{})
}

// Server is the HTTP front of a report Service.
//
// # Description
//
// Server owns the Gin engine and the process-wide telemetry wiring:
// OpenTelemetry tracing and metric export via the telemetry package,
// and Prometheus metrics at /metrics when enabled. The engine carries
// the full /v1 route set from RegisterRoutes.
//
// # Thread Safety
//
// Thread-safe after construction. All fields are read-only after
// NewServer returns.
type Server struct {
	config            ServerConfig
	svc               *Service
	router            *gin.Engine
	telemetryShutdown func(context.Context) error
}

// NewServer builds the engine, middleware, and routes around svc.
func NewServer(cfg ServerConfig, svc *Service) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("service is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 12310
	}
	s := &Server{config: cfg, svc: svc}

	if cfg.telemetryEnabled() {
		shutdown, err := telemetry.Init(context.Background(), cfg.Telemetry)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
		}
		s.telemetryShutdown = shutdown
	}

	if cfg.EnableMetrics && observability.DefaultMetrics == nil {
		observability.InitMetrics()
		slog.Info("Initialized Prometheus metrics for report service")
	}

	s.initRouter()
	return s, nil
}

// Run starts the HTTP server and blocks until shutdown or error.
func (s *Server) Run() error {
	defer s.cleanup()

	addr := fmt.Sprintf(":%d", s.config.Port)
	slog.Info("Starting report server", "port", s.config.Port)

	return s.router.Run(addr)
}

// Router returns the underlying Gin engine for testing.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) initRouter() {
	s.router = gin.New()
	s.router.Use(gin.Recovery())
	if s.config.tracingEnabled() {
		s.router.Use(otelgin.Middleware(s.serviceName()))
	}

	if s.config.EnableMetrics {
		s.router.GET("/metrics", gin.WrapH(s.metricsHandler()))
	}

	handlers := NewHandlers(s.svc)
	v1 := s.router.Group("/v1")
	RegisterRoutes(v1, handlers)
}

// metricsHandler prefers the OTel prometheus bridge when the telemetry
// stack registered one; the plain promhttp handler still serves the
// promauto metrics from the observability package either way.
func (s *Server) metricsHandler() http.Handler {
	if h := telemetry.MetricsHandler(); h != nil {
		return h
	}
	return promhttp.Handler()
}

func (s *Server) serviceName() string {
	if s.config.Telemetry.ServiceName != "" {
		return s.config.Telemetry.ServiceName
	}
	return "report-service"
}

func (s *Server) cleanup() {
	if s.telemetryShutdown == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.telemetryShutdown(ctx); err != nil {
		slog.Error("failed to shutdown telemetry", "error", err)
	}
}
