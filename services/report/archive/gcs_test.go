// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package archive

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/AleutianAI/ParcelFOSS/services/report"
)

// ============================================================================
// NewGCSArchive Tests
// ============================================================================

func TestNewGCSArchive_EmptyBucket(t *testing.T) {
	ctx := context.Background()

	_, err := NewGCSArchive(ctx, "", "reports", "", nil)
	if err == nil {
		t.Fatal("NewGCSArchive with empty bucket should return error")
	}
	if !strings.Contains(err.Error(), "bucket name is required") {
		t.Errorf("Error should mention the missing bucket, got: %v", err)
	}
}

func TestNewGCSArchive_NonExistentSAKeyPath(t *testing.T) {
	ctx := context.Background()

	_, err := NewGCSArchive(ctx, "test-bucket", "reports", "/nonexistent/path/to/key.json", nil)
	if err == nil {
		t.Fatal("NewGCSArchive with non-existent SA key should return error")
	}
	if !strings.Contains(err.Error(), "service account key not found") {
		t.Errorf("Error should mention SA key not found, got: %v", err)
	}
	if !strings.Contains(err.Error(), "/nonexistent/path/to/key.json") {
		t.Errorf("Error should contain the path, got: %v", err)
	}
}

func TestNewGCSArchive_InvalidCredentialsFile(t *testing.T) {
	ctx := context.Background()

	tmpDir := t.TempDir()
	invalidKeyPath := filepath.Join(tmpDir, "invalid_key.json")
	if err := os.WriteFile(invalidKeyPath, []byte("not valid json"), 0644); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}

	_, err := NewGCSArchive(ctx, "test-bucket", "reports", invalidKeyPath, nil)
	if err == nil {
		t.Fatal("NewGCSArchive with invalid credentials file should return error")
	}
	if !strings.Contains(err.Error(), "failed to create GCS storage client") {
		t.Errorf("Error should mention failed to create client, got: %v", err)
	}
}

func TestNewGCSArchive_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The SA key check happens before the client is created, so the
	// error is about the key file, not the canceled context.
	_, err := NewGCSArchive(ctx, "test-bucket", "reports", "/nonexistent/key.json", nil)
	if err == nil {
		t.Fatal("Should still return error for non-existent key")
	}
	if !strings.Contains(err.Error(), "service account key not found") {
		t.Errorf("Expected SA key error, got: %v", err)
	}
}

// ============================================================================
// Archive Tests (error paths that don't require a GCS connection)
// ============================================================================

func TestGCSArchive_Archive_MissingRequestID(t *testing.T) {
	// The request id check runs before any storage access, so a nil
	// storage client never gets touched.
	a := &GCSArchive{
		storageClient: nil,
		bucketName:    "test-bucket",
		prefix:        "reports",
	}

	err := a.Archive(context.Background(), report.Report{})
	if err == nil {
		t.Fatal("Archive with empty request id should return error")
	}
	if !strings.Contains(err.Error(), "report has no request id") {
		t.Errorf("Error should mention the missing request id, got: %v", err)
	}
}

// ============================================================================
// Integration Tests (require real GCS credentials)
// These tests are skipped by default but document how to test with real GCS
// ============================================================================

func TestGCSArchive_Integration(t *testing.T) {
	keyPath := os.Getenv("GCS_TEST_SA_KEY_PATH")
	bucketName := os.Getenv("GCS_TEST_BUCKET_NAME")

	if keyPath == "" || bucketName == "" {
		t.Skip("Skipping integration test: GCS_TEST_SA_KEY_PATH and GCS_TEST_BUCKET_NAME not set")
	}

	ctx := context.Background()
	a, err := NewGCSArchive(ctx, bucketName, "integration-test", keyPath, nil)
	if err != nil {
		t.Fatalf("NewGCSArchive failed: %v", err)
	}
	defer a.Close()

	rep := report.Report{
		RequestID:   "integration-test-report",
		GeneratedAt: time.Now().UTC(),
	}
	if err := a.Archive(ctx, rep); err != nil {
		t.Errorf("Archive failed: %v", err)
	}
}
