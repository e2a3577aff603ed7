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
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/ParcelFOSS/services/storage/badgerstore"
)

// Store persists finished reports. Each report is written under two
// keys: the body by request ID, and a time-ordered index entry so
// listing walks newest first without loading bodies.
type Store struct {
	db     *badgerstore.DB
	logger *slog.Logger
}

// NewStore creates a report store over an open database.
func NewStore(db *badgerstore.DB, logger *slog.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("badger db is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}, nil
}

func reportKey(id string) []byte {
	return []byte("report/" + id)
}

func indexKey(rep Report) []byte {
	return []byte(fmt.Sprintf("report-ts/%020d-%s", rep.GeneratedAt.UnixNano(), rep.RequestID))
}

const indexPrefix = "report-ts/"

// Save writes the report and its index entry in one transaction.
func (s *Store) Save(ctx context.Context, rep Report) error {
	if rep.RequestID == "" {
		return fmt.Errorf("report has no request id")
	}
	body, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("marshal report %s: %w", rep.RequestID, err)
	}
	sum, err := json.Marshal(summarize(rep))
	if err != nil {
		return fmt.Errorf("marshal report summary %s: %w", rep.RequestID, err)
	}

	err = s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		if err := txn.Set(reportKey(rep.RequestID), body); err != nil {
			return err
		}
		return txn.Set(indexKey(rep), sum)
	})
	if err != nil {
		return fmt.Errorf("save report %s: %w", rep.RequestID, err)
	}

	s.logger.Info("report saved",
		"request_id", rep.RequestID,
		"zone", rep.Zoning.ZoneCode,
		"bytes", len(body))
	return nil
}

// Get loads a saved report by request ID.
func (s *Store) Get(ctx context.Context, id string) (Report, error) {
	var rep Report
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get(reportKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rep)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Report{}, fmt.Errorf("%w: %s", ErrReportNotFound, id)
	}
	if err != nil {
		return Report{}, fmt.Errorf("load report %s: %w", id, err)
	}
	return rep, nil
}

// List returns saved report summaries, newest first. limit <= 0 means
// all.
func (s *Store) List(ctx context.Context, limit int) ([]ReportSummary, error) {
	var out []ReportSummary
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(indexPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append([]byte(indexPrefix), 0xFF)
		for it.Seek(seek); it.ValidForPrefix([]byte(indexPrefix)); it.Next() {
			if limit > 0 && len(out) >= limit {
				break
			}
			var sum ReportSummary
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &sum)
			}); err != nil {
				return err
			}
			out = append(out, sum)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return out, nil
}

// summarize reduces a report to its list row.
func summarize(rep Report) ReportSummary {
	return ReportSummary{
		RequestID:   rep.RequestID,
		Address:     rep.Location.Canonical,
		ZoneCode:    rep.Zoning.ZoneCode,
		GeneratedAt: rep.GeneratedAt,
		Complete:    len(rep.Partial) == 0,
	}
}
