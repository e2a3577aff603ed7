// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rulebook

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var rulebookReloads = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "parcel_rulebook_reloads_total",
	Help: "Total rulebook reloads by outcome",
}, []string{"outcome"})

// Store holds the active rulebook and reloads it when the backing
// file changes.
//
// # Description
//
// The active rulebook is swapped atomically, so readers always see a
// complete, validated table. A reload that fails to parse keeps the
// previous rulebook in service; the error is logged and counted, never
// propagated to request paths.
//
// # Thread Safety
//
// Safe for concurrent use. Watch should only be called once.
type Store struct {
	path    string
	current atomic.Pointer[Rulebook]
	watcher *fsnotify.Watcher
}

// NewStore creates a store seeded from the embedded rulebook, then
// overlaid with the file at path when one is given.
//
// # Inputs
//
//   - path: Optional rulebook file. Empty means embedded only.
//
// # Outputs
//
//   - *Store: Ready store; call Watch in a goroutine for hot reload.
//   - error: Non-nil if the embedded rulebook is unparseable, the
//     file at path is invalid, or the watcher cannot be created.
func NewStore(path string) (*Store, error) {
	rb, err := LoadDefault()
	if err != nil {
		return nil, err
	}
	s := &Store{path: path}
	s.current.Store(rb)

	if path == "" {
		return s, nil
	}
	fileRB, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	s.current.Store(fileRB)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	s.watcher = watcher
	return s, nil
}

// Current returns the active rulebook. Never nil.
func (s *Store) Current() *Rulebook {
	return s.current.Load()
}

// Reload re-reads the backing file and swaps the active rulebook. On
// error the previous rulebook stays in service.
func (s *Store) Reload() error {
	if s.path == "" {
		return nil
	}
	rb, err := LoadFile(s.path)
	if err != nil {
		rulebookReloads.WithLabelValues("error").Inc()
		return err
	}
	s.current.Store(rb)
	rulebookReloads.WithLabelValues("ok").Inc()
	return nil
}

// Watch begins watching the backing file for changes.
//
// # Description
//
// Reloads the rulebook whenever the file is written or recreated.
// Blocks until the context is cancelled. Should be run in a
// goroutine. Returns immediately for a store with no backing file.
//
// # Example
//
//	store, _ := rulebook.NewStore(cfg.RulebookPath)
//	go store.Watch(ctx)
func (s *Store) Watch(ctx context.Context) {
	if s.watcher == nil {
		slog.Debug("No rulebook file configured, hot reload disabled")
		return
	}
	if err := s.watcher.Add(s.path); err != nil {
		slog.Warn("Failed to watch rulebook file",
			"path", s.path,
			"error", err)
		return
	}
	slog.Info("Watching rulebook for changes",
		"path", s.path)

	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			s.handleEvent(event)

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Rulebook watcher error",
				"error", err)

		case <-ctx.Done():
			slog.Debug("Rulebook watcher stopping")
			return
		}
	}
}

// handleEvent processes a single fsnotify event. Editors that replace
// the file on save show up as Create or Rename, not Write.
func (s *Store) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}
	if event.Op&fsnotify.Rename != 0 {
		// Re-add the path; the watch followed the old inode.
		if err := s.watcher.Add(s.path); err != nil {
			slog.Warn("Failed to rewatch rulebook after rename",
				"path", s.path,
				"error", err)
			return
		}
	}
	if err := s.Reload(); err != nil {
		slog.Error("Rulebook reload failed, keeping previous version",
			"path", s.path,
			"error", err)
		return
	}
	rb := s.Current()
	slog.Info("Rulebook reloaded",
		"path", s.path,
		"version", rb.Version,
		"zones", len(rb.ZoneCodes()))
}

// Close stops the watcher. Safe to call on a store with no backing
// file.
func (s *Store) Close() error {
	if s.watcher == nil {
		return nil
	}
	return s.watcher.Close()
}
