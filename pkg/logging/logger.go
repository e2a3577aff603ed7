// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package logging builds the structured loggers shared by the parcel
// CLI and the reportd daemon.
//
// Both binaries log through slog. This package owns the sink wiring so
// they configure it the same way: a console sink (stderr, text or
// JSON), an optional dated JSON log file, and a level filter driven by
// PARCEL_LOG_LEVEL via ParseLevel.
//
// # Sinks
//
// The console sink writes to stderr so report output on stdout stays
// pipeable. Setting Config.LogDir adds a file sink; files are named
// {service}_{YYYY-MM-DD}.log and always hold JSON, whatever the
// console format is. Config.Quiet drops the console sink for daemon
// setups where stderr goes nowhere.
//
// # Usage
//
//	logger := logging.New(logging.Config{
//	    Level:   logging.LevelInfo,
//	    Service: "report-service",
//	    JSON:    true,
//	    LogDir:  os.Getenv("PARCEL_LOG_DIR"),
//	})
//	defer logger.Close()
//	slog.SetDefault(logger.Slog())
//
// Close flushes and releases the file sink; it is a no-op for loggers
// without one.
//
// # What gets logged
//
// Nothing here redacts. County API keys, owner names, and anything
// else sensitive must be kept out of log attributes by the caller;
// log presence ("api_key_present", true), not values.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// =============================================================================
// Levels
// =============================================================================

// Level is the minimum-severity filter for a Logger.
//
// The four levels map one-to-one onto slog's and order the same way:
// Debug < Info < Warn < Error.
type Level int

const (
	// LevelDebug traces execution detail: individual placement checks,
	// candidate rectangles, cache decisions.
	LevelDebug Level = iota

	// LevelInfo records the events an operator expects to see once per
	// operation: report built, rulebook reloaded, credits charged.
	LevelInfo

	// LevelWarn flags degraded-but-continuing situations: a soil survey
	// gap, an upstream retry, a disabled optional subsystem.
	LevelWarn

	// LevelError records failed operations. The process keeps running;
	// fatal exits are the caller's call.
	LevelError
)

// String returns "DEBUG", "INFO", "WARN", or "ERROR".
// Out-of-range values return "UNKNOWN".
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a level name to its Level, case-insensitively and
// ignoring surrounding whitespace. "warning" is accepted as an alias
// for "warn". This is the inverse of String and is how the binaries
// read PARCEL_LOG_LEVEL.
//
// Returns:
//   - Level: the parsed level (LevelInfo when err is non-nil)
//   - error: non-nil if s names no known level
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// slogLevel bridges Level to the standard library. Unknown values
// degrade to Info rather than silencing anything.
func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// =============================================================================
// Configuration
// =============================================================================

// Config selects the sinks and filter for New.
//
// The zero value is usable: Info and above, text format, stderr only.
type Config struct {
	// Level is the minimum severity that reaches any sink.
	Level Level

	// Service is stamped on every record as the "service" attribute
	// and names the log file. Empty means no attribute and a file
	// named after "parcel".
	Service string

	// LogDir enables the file sink. The directory is created (0750)
	// if missing, and a ~ prefix expands to the home directory. An
	// unopenable file disables the sink with a logged warning rather
	// than failing construction.
	LogDir string

	// JSON switches the console sink from text to JSON. The file sink
	// is JSON regardless.
	JSON bool

	// Quiet drops the console sink. With no LogDir either, the logger
	// discards everything.
	Quiet bool

	// Writer redirects the console sink somewhere other than stderr.
	// Tests use this to capture output; Quiet ignores it.
	Writer io.Writer
}

// =============================================================================
// Logger
// =============================================================================

// Logger is a leveled slog front end over the configured sinks.
//
// Methods are safe for concurrent use. The root logger returned by New
// owns the file sink; children produced by With share the sinks but
// Close only acts on the root.
type Logger struct {
	slog *slog.Logger
	file *os.File
}

// New builds a Logger from cfg.
//
// Construction cannot fail: a broken LogDir downgrades to console-only
// logging with a warning, and a fully silent config (Quiet, no LogDir)
// yields a logger that discards records.
//
// Parameters:
//   - cfg: sink and filter selection (see Config)
//
// Returns:
//   - *Logger: ready to use; Close it if LogDir was set
func New(cfg Config) *Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level.slogLevel()}

	var handlers []slog.Handler
	if !cfg.Quiet {
		out := io.Writer(os.Stderr)
		if cfg.Writer != nil {
			out = cfg.Writer
		}
		if cfg.JSON {
			handlers = append(handlers, slog.NewJSONHandler(out, opts))
		} else {
			handlers = append(handlers, slog.NewTextHandler(out, opts))
		}
	}

	var file *os.File
	var fileErr error
	if cfg.LogDir != "" {
		file, fileErr = openLogFile(cfg.LogDir, cfg.Service)
		if file != nil {
			handlers = append(handlers, slog.NewJSONHandler(file, opts))
		}
	}

	var handler slog.Handler
	switch len(handlers) {
	case 0:
		handler = slog.DiscardHandler
	case 1:
		handler = handlers[0]
	default:
		handler = &multiHandler{handlers: handlers}
	}
	if cfg.Service != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("service", cfg.Service)})
	}

	logger := &Logger{slog: slog.New(handler), file: file}
	if fileErr != nil {
		logger.Warn("file logging disabled", "dir", cfg.LogDir, "error", fileErr)
	}
	return logger
}

// Default returns the CLI's stock logger: Info and above, text on
// stderr, service "parcel". No Close needed.
func Default() *Logger {
	return New(Config{Level: LevelInfo, Service: "parcel"})
}

// Debug logs at Debug level with slog-style key-value attributes.
func (l *Logger) Debug(msg string, args ...any) {
	l.slog.Debug(msg, args...)
}

// Info logs at Info level with slog-style key-value attributes.
func (l *Logger) Info(msg string, args ...any) {
	l.slog.Info(msg, args...)
}

// Warn logs at Warn level with slog-style key-value attributes.
func (l *Logger) Warn(msg string, args ...any) {
	l.slog.Warn(msg, args...)
}

// Error logs at Error level with slog-style key-value attributes.
func (l *Logger) Error(msg string, args ...any) {
	l.slog.Error(msg, args...)
}

// With returns a child logger carrying the extra attributes on every
// record. The child writes to the parent's sinks but does not own the
// file handle; Close the root logger, once, when done.
//
//	reqLogger := logger.With("request_id", id)
//	reqLogger.Info("report build started")
func (l *Logger) With(args ...any) *Logger {
	return &Logger{slog: l.slog.With(args...)}
}

// Slog exposes the underlying slog.Logger, typically to hand to
// slog.SetDefault or to packages that take *slog.Logger directly.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// Close syncs and closes the file sink. Safe to call on loggers
// without one, and safe to call twice; later calls are no-ops.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	file := l.file
	l.file = nil
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("sync log file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	return nil
}

// =============================================================================
// Sink Assembly
// =============================================================================

// openLogFile opens (appending) today's log file under dir.
func openLogFile(dir, service string) (*os.File, error) {
	dir = expandPath(dir)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	if service == "" {
		service = "parcel"
	}
	name := fmt.Sprintf("%s_%s.log", service, time.Now().Format("2006-01-02"))
	file, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return file, nil
}

// multiHandler fans one record out to every sink. Needed because slog
// loggers take exactly one handler and we may have console plus file.
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			if err := handler.Handle(ctx, r); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

// expandPath turns a leading ~ into the home directory so PARCEL_LOG_DIR
// can be written as ~/.parcelfoss/logs.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
