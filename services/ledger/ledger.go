// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ledger meters credit-based features, such as plain-language
// report explanations. Accounts move in whole credits; every movement
// writes an immutable entry next to the running balance, in one
// transaction, so a crash can never separate the two.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AleutianAI/ParcelFOSS/pkg/validation"
	"github.com/AleutianAI/ParcelFOSS/services/storage/badgerstore"
)

var (
	// ErrInsufficientCredit means the account balance cannot cover a
	// charge. The balance is left untouched.
	ErrInsufficientCredit = errors.New("insufficient credit")

	// ErrInvalidAmount means a topup or charge of zero or negative
	// credits was requested.
	ErrInvalidAmount = errors.New("credit amount must be positive")

	// ErrInvalidAccount means the account id is empty or not a
	// usable key segment.
	ErrInvalidAccount = errors.New("account id required")
)

var chargeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "parcel_credit_charges_total",
	Help: "Credit charges by outcome (ok, denied).",
}, []string{"outcome"})

// Entry is one movement on an account.
type Entry struct {
	ID      string `json:"id"`
	Account string `json:"account"`

	// Delta is positive for topups, negative for charges.
	Delta int64 `json:"delta"`

	// Balance is the account balance after applying Delta.
	Balance int64 `json:"balance"`

	Reason string    `json:"reason,omitempty"`
	At     time.Time `json:"at"`
}

// Ledger is the credit store.
//
// # Thread Safety
//
//	Ledger is safe for concurrent use. Movements on the same account
//	serialize through transaction conflict retries.
type Ledger struct {
	db     *badgerstore.DB
	logger *slog.Logger

	// now is stubbed in tests.
	now func() time.Time
}

// New creates a ledger on an open store.
func New(db *badgerstore.DB, logger *slog.Logger) (*Ledger, error) {
	if db == nil {
		return nil, errors.New("ledger requires an open database")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{db: db, logger: logger, now: time.Now}, nil
}

func balanceKey(account string) []byte {
	return []byte("bal/" + account)
}

func entryKey(account string, at time.Time, id string) []byte {
	return []byte(fmt.Sprintf("ent/%s/%020d-%s", account, at.UnixNano(), id))
}

func entryPrefix(account string) []byte {
	return []byte("ent/" + account + "/")
}

// normalizeAccount lowercases the account id and rejects anything that
// cannot safely become a key segment.
func normalizeAccount(account string) (string, error) {
	if strings.TrimSpace(account) == "" {
		return "", ErrInvalidAccount
	}
	normalized, err := validation.SanitizeAccount(account)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAccount, err)
	}
	return normalized, nil
}

func readBalance(txn *badger.Txn, account string) (int64, error) {
	item, err := txn.Get(balanceKey(account))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read balance for %s: %w", account, err)
	}

	var balance int64
	err = item.Value(func(val []byte) error {
		balance, err = strconv.ParseInt(string(val), 10, 64)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("decode balance for %s: %w", account, err)
	}
	return balance, nil
}

// Balance returns the current balance. Unknown accounts hold zero.
func (l *Ledger) Balance(ctx context.Context, account string) (int64, error) {
	account, err := normalizeAccount(account)
	if err != nil {
		return 0, err
	}

	var balance int64
	err = l.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		balance, err = readBalance(txn, account)
		return err
	})
	return balance, err
}

// Topup adds credits to an account and returns the written entry.
func (l *Ledger) Topup(ctx context.Context, account string, credits int64, reason string) (Entry, error) {
	if credits <= 0 {
		return Entry{}, fmt.Errorf("%w: topup of %d", ErrInvalidAmount, credits)
	}
	entry, err := l.apply(ctx, account, credits, reason)
	if err != nil {
		return Entry{}, err
	}
	l.logger.Info("credit topup",
		"account", account,
		"credits", credits,
		"balance", entry.Balance)
	return entry, nil
}

// Charge deducts credits from an account and returns the written
// entry. A balance that cannot cover the charge returns
// ErrInsufficientCredit and writes nothing.
func (l *Ledger) Charge(ctx context.Context, account string, credits int64, reason string) (Entry, error) {
	if credits <= 0 {
		return Entry{}, fmt.Errorf("%w: charge of %d", ErrInvalidAmount, credits)
	}
	entry, err := l.apply(ctx, account, -credits, reason)
	if err != nil {
		if errors.Is(err, ErrInsufficientCredit) {
			chargeTotal.WithLabelValues("denied").Inc()
		}
		return Entry{}, err
	}
	chargeTotal.WithLabelValues("ok").Inc()
	return entry, nil
}

// apply moves delta credits on the account. The callers validate the
// amount and encode direction in the sign.
func (l *Ledger) apply(ctx context.Context, account string, delta int64, reason string) (Entry, error) {
	account, err := normalizeAccount(account)
	if err != nil {
		return Entry{}, err
	}

	var entry Entry
	err = l.db.WithTxn(ctx, func(txn *badger.Txn) error {
		balance, err := readBalance(txn, account)
		if err != nil {
			return err
		}
		next := balance + delta
		if next < 0 {
			return fmt.Errorf("%w: account %s holds %d, needs %d", ErrInsufficientCredit, account, balance, -delta)
		}

		entry = Entry{
			ID:      uuid.NewString(),
			Account: account,
			Delta:   delta,
			Balance: next,
			Reason:  reason,
			At:      l.now().UTC(),
		}
		raw, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("encode ledger entry: %w", err)
		}

		if err := txn.Set(balanceKey(account), []byte(strconv.FormatInt(next, 10))); err != nil {
			return err
		}
		return txn.Set(entryKey(account, entry.At, entry.ID), raw)
	})
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// History returns up to limit entries for the account, newest first.
// A non-positive limit returns everything.
func (l *Ledger) History(ctx context.Context, account string, limit int) ([]Entry, error) {
	account, err := normalizeAccount(account)
	if err != nil {
		return nil, err
	}

	prefix := entryPrefix(account)
	var entries []Entry
	err = l.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration starts past the last key of the prefix.
		seek := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(entries) >= limit {
				break
			}
			err := it.Item().Value(func(val []byte) error {
				var e Entry
				if err := json.Unmarshal(val, &e); err != nil {
					return fmt.Errorf("decode ledger entry: %w", err)
				}
				entries = append(entries, e)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
