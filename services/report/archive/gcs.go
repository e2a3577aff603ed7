// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package archive copies finished reports to long-term object storage.
//
// The local Badger store is the system of record for serving; the
// archive is for retention and offline analysis. Archive failures are
// therefore surfaced to the caller but are safe to treat as warnings.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/AleutianAI/ParcelFOSS/services/report"
)

// GCSArchive writes one JSON object per report to a GCS bucket.
//
// Objects are keyed <prefix>/<yyyy>/<mm>/<dd>/<request_id>.json so a
// lifecycle rule or batch job can work on day partitions.
type GCSArchive struct {
	storageClient *storage.Client
	bucketName    string
	prefix        string
	logger        *slog.Logger
}

// NewGCSArchive creates an archive writer for the given bucket.
//
// # Inputs
//
//   - ctx: Context for client creation.
//   - bucketName: Target bucket; required.
//   - prefix: Object key prefix, may be empty.
//   - saKeyPath: Service account key file. Empty uses application
//     default credentials.
//   - logger: May be nil.
func NewGCSArchive(ctx context.Context, bucketName, prefix, saKeyPath string, logger *slog.Logger) (*GCSArchive, error) {
	if bucketName == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	var opts []option.ClientOption
	if saKeyPath != "" {
		if _, err := os.Stat(saKeyPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("service account key not found at path: %s", saKeyPath)
		}
		opts = append(opts, option.WithCredentialsFile(saKeyPath))
	}

	storageClient, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}

	return &GCSArchive{
		storageClient: storageClient,
		bucketName:    bucketName,
		prefix:        prefix,
		logger:        logger,
	}, nil
}

// Archive uploads one report as a JSON object.
func (a *GCSArchive) Archive(ctx context.Context, rep report.Report) error {
	if rep.RequestID == "" {
		return fmt.Errorf("report has no request id")
	}

	body, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("marshal report %s: %w", rep.RequestID, err)
	}

	objectPath := path.Join(a.prefix, rep.GeneratedAt.Format("2006/01/02"), rep.RequestID+".json")
	obj := a.storageClient.Bucket(a.bucketName).Object(objectPath)
	writer := obj.NewWriter(ctx)
	writer.ContentType = "application/json"
	writer.CacheControl = "no-cache, no-store, must-revalidate"

	if _, err := writer.Write(body); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write report %s to GCS object %s: %w", rep.RequestID, objectPath, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer for %s: %w", objectPath, err)
	}

	a.logger.Info("Report archived",
		"request_id", rep.RequestID,
		"object", fmt.Sprintf("gs://%s/%s", a.bucketName, objectPath),
		"bytes", len(body))
	return nil
}

// Close releases the underlying storage client.
func (a *GCSArchive) Close() error {
	return a.storageClient.Close()
}
