// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package badgerstore

import (
	"context"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "path is required")
}

func TestConfigDefaults(t *testing.T) {
	t.Run("DefaultConfig is production-shaped", func(t *testing.T) {
		cfg := DefaultConfig("/var/lib/parcel")
		assert.Equal(t, "/var/lib/parcel", cfg.Path)
		assert.True(t, cfg.SyncWrites)
		assert.False(t, cfg.InMemory)
		assert.Equal(t, 5*time.Minute, cfg.GCInterval)
		assert.Equal(t, 0.5, cfg.GCDiscardRatio)
	})

	t.Run("InMemoryConfig is test-shaped", func(t *testing.T) {
		cfg := InMemoryConfig()
		assert.True(t, cfg.InMemory)
		assert.False(t, cfg.SyncWrites)
		assert.Equal(t, time.Duration(0), cfg.GCInterval)
	})
}

func TestInMemoryRoundTrip(t *testing.T) {
	db, err := Open(InMemoryConfig())
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	err = db.WithTxn(ctx, func(txn *badger.Txn) error {
		return txn.Set([]byte("report:r1"), []byte(`{"id":"r1"}`))
	})
	require.NoError(t, err)

	var got string
	err = db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("report:r1"))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			got = string(val)
			return nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, `{"id":"r1"}`, got)
}

func TestPersistAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	cfg := DefaultConfig(dir)
	cfg.GCInterval = 0
	cfg.SyncWrites = false

	db, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, db.WithTxn(ctx, func(txn *badger.Txn) error {
		return txn.Set([]byte("k"), []byte("persisted"))
	}))
	require.NoError(t, db.Close())

	db, err = Open(cfg)
	require.NoError(t, err)
	defer db.Close()

	err = db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("k"))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			assert.Equal(t, "persisted", string(val))
			return nil
		})
	})
	assert.NoError(t, err)
}

func TestWithTxnCancelledContext(t *testing.T) {
	db, err := Open(InMemoryConfig())
	require.NoError(t, err)
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = db.WithTxn(ctx, func(txn *badger.Txn) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)

	err = db.WithReadTxn(ctx, func(txn *badger.Txn) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithTxnRetriesConflict(t *testing.T) {
	db, err := Open(InMemoryConfig())
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.WithTxn(ctx, func(txn *badger.Txn) error {
		return txn.Set([]byte("counter"), []byte("0"))
	}))

	attempts := 0
	err = db.WithTxn(ctx, func(txn *badger.Txn) error {
		attempts++
		if _, err := txn.Get([]byte("counter")); err != nil {
			return err
		}
		if attempts == 1 {
			// Commit a competing write to the key this transaction
			// has read, so its own commit reports a conflict.
			rival := db.NewTransaction(true)
			defer rival.Discard()
			if err := rival.Set([]byte("counter"), []byte("9")); err != nil {
				return err
			}
			if err := rival.Commit(); err != nil {
				return err
			}
		}
		return txn.Set([]byte("counter"), []byte("1"))
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts, "first attempt should conflict, second should land")

	var got string
	err = db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("counter"))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			got = string(val)
			return nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, "1", got)
}

func TestCloseStopsGCRunner(t *testing.T) {
	cfg := DefaultConfig(t.TempDir())
	cfg.SyncWrites = false
	cfg.GCInterval = 10 * time.Millisecond

	db, err := Open(cfg)
	require.NoError(t, err)

	// Let the runner tick at least once, then Close must join it.
	time.Sleep(35 * time.Millisecond)
	require.NoError(t, db.Close())
}
