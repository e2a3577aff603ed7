// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AleutianAI/ParcelFOSS/services/storage/badgerstore"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	db, err := badgerstore.Open(badgerstore.InMemoryConfig())
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	l, err := New(db, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return l
}

func TestBalanceUnknownAccount(t *testing.T) {
	l := newTestLedger(t)

	balance, err := l.Balance(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if balance != 0 {
		t.Errorf("Balance = %d, want 0", balance)
	}
}

func TestTopupAndCharge(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	up, err := l.Topup(ctx, "acct-1", 100, "initial grant")
	if err != nil {
		t.Fatalf("Topup: %v", err)
	}
	if up.Delta != 100 || up.Balance != 100 {
		t.Errorf("Topup entry = delta %d balance %d, want 100/100", up.Delta, up.Balance)
	}
	if up.ID == "" || up.Account != "acct-1" || up.At.IsZero() {
		t.Errorf("Topup entry incomplete: %+v", up)
	}

	ch, err := l.Charge(ctx, "acct-1", 30, "report explanation")
	if err != nil {
		t.Fatalf("Charge: %v", err)
	}
	if ch.Delta != -30 || ch.Balance != 70 {
		t.Errorf("Charge entry = delta %d balance %d, want -30/70", ch.Delta, ch.Balance)
	}

	balance, err := l.Balance(ctx, "acct-1")
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if balance != 70 {
		t.Errorf("Balance = %d, want 70", balance)
	}
}

func TestChargeInsufficient(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	if _, err := l.Topup(ctx, "acct-1", 10, ""); err != nil {
		t.Fatalf("Topup: %v", err)
	}

	_, err := l.Charge(ctx, "acct-1", 30, "")
	if !errors.Is(err, ErrInsufficientCredit) {
		t.Fatalf("Expected ErrInsufficientCredit, got %v", err)
	}

	balance, err := l.Balance(ctx, "acct-1")
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if balance != 10 {
		t.Errorf("Balance = %d after denied charge, want 10", balance)
	}

	history, err := l.History(ctx, "acct-1", 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("History has %d entries after denied charge, want 1", len(history))
	}
}

func TestInvalidAmounts(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	tests := []struct {
		name string
		op   func() error
	}{
		{"zero topup", func() error { _, err := l.Topup(ctx, "a", 0, ""); return err }},
		{"negative topup", func() error { _, err := l.Topup(ctx, "a", -5, ""); return err }},
		{"zero charge", func() error { _, err := l.Charge(ctx, "a", 0, ""); return err }},
		{"negative charge", func() error { _, err := l.Charge(ctx, "a", -5, ""); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.op(); !errors.Is(err, ErrInvalidAmount) {
				t.Errorf("Expected ErrInvalidAmount, got %v", err)
			}
		})
	}

	balance, err := l.Balance(ctx, "a")
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if balance != 0 {
		t.Errorf("Balance = %d after rejected movements, want 0", balance)
	}
}

func TestAccountValidation(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	for _, account := range []string{"", "   ", "a/b"} {
		if _, err := l.Balance(ctx, account); !errors.Is(err, ErrInvalidAccount) {
			t.Errorf("Balance(%q): expected ErrInvalidAccount, got %v", account, err)
		}
		if _, err := l.Topup(ctx, account, 5, ""); !errors.Is(err, ErrInvalidAccount) {
			t.Errorf("Topup(%q): expected ErrInvalidAccount, got %v", account, err)
		}
	}

	// Surrounding whitespace and case fold onto the same account.
	if _, err := l.Topup(ctx, " acct-1 ", 5, ""); err != nil {
		t.Fatalf("Topup: %v", err)
	}
	if _, err := l.Topup(ctx, "ACCT-1", 5, ""); err != nil {
		t.Fatalf("Topup: %v", err)
	}
	balance, err := l.Balance(ctx, "acct-1")
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if balance != 10 {
		t.Errorf("Balance = %d, want 10", balance)
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	step := 0
	l.now = func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Second)
	}

	if _, err := l.Topup(ctx, "acct-1", 100, "grant"); err != nil {
		t.Fatalf("Topup: %v", err)
	}
	if _, err := l.Charge(ctx, "acct-1", 10, "first"); err != nil {
		t.Fatalf("Charge: %v", err)
	}
	if _, err := l.Charge(ctx, "acct-1", 20, "second"); err != nil {
		t.Fatalf("Charge: %v", err)
	}

	history, err := l.History(ctx, "acct-1", 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("History has %d entries, want 3", len(history))
	}
	if history[0].Reason != "second" || history[1].Reason != "first" || history[2].Reason != "grant" {
		t.Errorf("History order = %q, %q, %q; want newest first",
			history[0].Reason, history[1].Reason, history[2].Reason)
	}

	limited, err := l.History(ctx, "acct-1", 2)
	if err != nil {
		t.Fatalf("History(limit 2): %v", err)
	}
	if len(limited) != 2 || limited[0].Reason != "second" {
		t.Errorf("Limited history = %+v, want the 2 newest entries", limited)
	}
}

func TestAccountsIsolated(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	if _, err := l.Topup(ctx, "acct-1", 50, ""); err != nil {
		t.Fatalf("Topup: %v", err)
	}
	if _, err := l.Charge(ctx, "acct-2", 1, ""); !errors.Is(err, ErrInsufficientCredit) {
		t.Errorf("Expected ErrInsufficientCredit on the empty account, got %v", err)
	}

	balance, err := l.Balance(ctx, "acct-1")
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if balance != 50 {
		t.Errorf("Balance = %d, want 50", balance)
	}

	history, err := l.History(ctx, "acct-2", 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("History for acct-2 has %d entries, want 0", len(history))
	}
}
