// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// Level Tests
// =============================================================================

func TestLevelString(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(42), "UNKNOWN"},
		{Level(-1), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.level.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"DEBUG", LevelDebug, false},
		{"info", LevelInfo, false},
		{"  info  ", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"Error", LevelError, false},
		{"", LevelInfo, true},
		{"verbose", LevelInfo, true},
		{"trace", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseLevelRoundTrip(t *testing.T) {
	for _, level := range []Level{LevelDebug, LevelInfo, LevelWarn, LevelError} {
		got, err := ParseLevel(level.String())
		if err != nil {
			t.Fatalf("ParseLevel(%q) error = %v", level.String(), err)
		}
		if got != level {
			t.Errorf("ParseLevel(%q) = %v, want %v", level.String(), got, level)
		}
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level Level
		want  slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{LevelError, slog.LevelError},
		{Level(42), slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			if got := tt.level.slogLevel(); got != tt.want {
				t.Errorf("slogLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

// =============================================================================
// Console Sink Tests
// =============================================================================

func TestNewTextConsole(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Writer: &buf, Service: "parcel"})

	logger.Info("report built", "zone", "R-6")

	out := buf.String()
	if !strings.Contains(out, "report built") {
		t.Errorf("output missing message: %q", out)
	}
	if !strings.Contains(out, "zone=R-6") {
		t.Errorf("output missing attribute: %q", out)
	}
	if !strings.Contains(out, "service=parcel") {
		t.Errorf("output missing service attribute: %q", out)
	}
}

func TestNewJSONConsole(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Writer: &buf, JSON: true, Service: "report-service"})

	logger.Warn("soil survey gap", "parcel", "0423049123")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("console output is not JSON: %v\n%s", err, buf.String())
	}
	if record["msg"] != "soil survey gap" {
		t.Errorf("msg = %v, want %q", record["msg"], "soil survey gap")
	}
	if record["level"] != "WARN" {
		t.Errorf("level = %v, want WARN", record["level"])
	}
	if record["parcel"] != "0423049123" {
		t.Errorf("parcel = %v, want 0423049123", record["parcel"])
	}
	if record["service"] != "report-service" {
		t.Errorf("service = %v, want report-service", record["service"])
	}
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		name      string
		level     Level
		wantDebug bool
		wantError bool
	}{
		{"debug level passes everything", LevelDebug, true, true},
		{"info level drops debug", LevelInfo, false, true},
		{"error level drops all but errors", LevelError, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(Config{Level: tt.level, Writer: &buf})

			logger.Debug("debug message")
			logger.Error("error message")

			out := buf.String()
			if got := strings.Contains(out, "debug message"); got != tt.wantDebug {
				t.Errorf("debug visible = %v, want %v", got, tt.wantDebug)
			}
			if got := strings.Contains(out, "error message"); got != tt.wantError {
				t.Errorf("error visible = %v, want %v", got, tt.wantError)
			}
		})
	}
}

func TestWithAddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Writer: &buf})

	child := logger.With("request_id", "req-1")
	child.Info("charging credits")
	child.Info("report stored")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), buf.String())
	}
	for i, line := range lines {
		if !strings.Contains(line, "request_id=req-1") {
			t.Errorf("line %d missing request_id: %q", i, line)
		}
	}

	// The parent must not inherit the child's attributes.
	buf.Reset()
	logger.Info("unrelated")
	if strings.Contains(buf.String(), "request_id") {
		t.Errorf("parent logger picked up child attributes: %q", buf.String())
	}
}

func TestQuietDropsConsole(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Quiet: true, Writer: &buf})

	logger.Error("should vanish")

	if buf.Len() != 0 {
		t.Errorf("quiet logger wrote to console: %q", buf.String())
	}
	if err := logger.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

// =============================================================================
// File Sink Tests
// =============================================================================

func TestFileSink(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	logger := New(Config{Writer: &buf, LogDir: dir, Service: "parcel"})

	logger.Info("report built", "report_id", "abc")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	name := fmt.Sprintf("parcel_%s.log", time.Now().Format("2006-01-02"))
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}

	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &record); err != nil {
		t.Fatalf("file record is not JSON: %v\n%s", err, data)
	}
	if record["msg"] != "report built" {
		t.Errorf("file msg = %v, want %q", record["msg"], "report built")
	}
	if record["report_id"] != "abc" {
		t.Errorf("file report_id = %v, want abc", record["report_id"])
	}

	// The console sink received the same record.
	if !strings.Contains(buf.String(), "report built") {
		t.Errorf("console missing record: %q", buf.String())
	}
}

func TestFileSinkCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	logger := New(Config{Quiet: true, LogDir: dir})

	logger.Info("hello")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("log dir not created: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d files in log dir, want 1", len(entries))
	}
}

func TestFileSinkUnopenable(t *testing.T) {
	// A regular file where the directory should be makes MkdirAll fail.
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0640); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	logger := New(Config{Writer: &buf, LogDir: blocker})

	if !strings.Contains(buf.String(), "file logging disabled") {
		t.Errorf("expected a warning about the file sink, got: %q", buf.String())
	}

	// The logger still works on the console sink alone.
	buf.Reset()
	logger.Info("still logging")
	if !strings.Contains(buf.String(), "still logging") {
		t.Errorf("console sink broken after file failure: %q", buf.String())
	}
	if err := logger.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestCloseIdempotent(t *testing.T) {
	logger := New(Config{Quiet: true, LogDir: t.TempDir()})

	if err := logger.Close(); err != nil {
		t.Fatalf("first Close() error = %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestChildDoesNotOwnFile(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{Quiet: true, LogDir: dir, Service: "parcel"})

	child := logger.With("request_id", "req-2")
	if err := child.Close(); err != nil {
		t.Fatalf("child Close() error = %v", err)
	}

	// The root's file handle survived the child's Close.
	logger.Info("after child close")
	if err := logger.Close(); err != nil {
		t.Fatalf("root Close() error = %v", err)
	}

	name := fmt.Sprintf("parcel_%s.log", time.Now().Format("2006-01-02"))
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "after child close") {
		t.Errorf("record written after child Close missing from file:\n%s", data)
	}
}

// =============================================================================
// Defaults and Helpers
// =============================================================================

func TestDefault(t *testing.T) {
	logger := Default()
	if logger.Slog() == nil {
		t.Fatal("Default() returned logger without slog backend")
	}
	if err := logger.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestSlogHandoff(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Writer: &buf})

	// The underlying slog.Logger is usable directly, e.g. for
	// slog.SetDefault or packages taking *slog.Logger.
	logger.Slog().Info("direct slog call", "key", "value")

	if !strings.Contains(buf.String(), "direct slog call") {
		t.Errorf("slog handoff lost the sink: %q", buf.String())
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	tests := []struct {
		input string
		want  string
	}{
		{"~/.parcelfoss/logs", filepath.Join(home, ".parcelfoss/logs")},
		{"/var/log/parcelfoss", "/var/log/parcelfoss"},
		{"relative/logs", "relative/logs"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := expandPath(tt.input); got != tt.want {
				t.Errorf("expandPath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
