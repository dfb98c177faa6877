/**
 * Storage Manager - unified persistence for outline results
 *
 * Combines the optional PostgreSQL job store with the filesystem JSON sink.
 * Database persistence is skipped entirely when no DATABASE_URL is
 * configured; the JSON sink is always active.
 */

package storage

import (
	"context"
	"fmt"

	"github.com/pagesift/outline-worker/internal/logging"
	"github.com/pagesift/outline-worker/internal/outline"
)

// StorageManager coordinates outline persistence across backends.
type StorageManager struct {
	postgres *PostgresClient
	sink     *FileSink
	logger   *logging.Logger
}

// NewStorageManager wires the configured backends. databaseURL may be empty.
func NewStorageManager(databaseURL string, outputDir string) (*StorageManager, error) {
	sink, err := NewFileSink(outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file sink: %w", err)
	}

	sm := &StorageManager{
		sink:   sink,
		logger: logging.NewLogger("storage"),
	}

	if databaseURL != "" {
		postgres, err := NewPostgresClient(databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL client: %w", err)
		}
		sm.postgres = postgres
	} else {
		sm.logger.Warn("DATABASE_URL not set, job persistence disabled")
	}

	return sm, nil
}

// StoreOutline writes the result to every active backend and returns the
// path of the JSON file.
func (sm *StorageManager) StoreOutline(ctx context.Context, jobID string, sourceFilename string, result *outline.Result) (string, error) {
	path, err := sm.sink.Write(sourceFilename, result)
	if err != nil {
		return "", err
	}

	if sm.postgres != nil {
		if _, err := sm.postgres.StoreOutline(ctx, jobID, result); err != nil {
			return "", err
		}
	}

	sm.logger.Info("Outline stored", "job", jobID, "path", path, "headings", len(result.Outline))
	return path, nil
}

// UpdateJobStatus records job progress when a database is configured.
func (sm *StorageManager) UpdateJobStatus(ctx context.Context, update *JobUpdate) error {
	if sm.postgres == nil {
		return nil
	}
	return sm.postgres.UpdateJobStatus(ctx, update)
}

// Ping verifies backend connectivity.
func (sm *StorageManager) Ping(ctx context.Context) error {
	if sm.postgres == nil {
		return nil
	}
	return sm.postgres.Ping(ctx)
}

// Close releases backend resources.
func (sm *StorageManager) Close() error {
	if sm.postgres == nil {
		return nil
	}
	return sm.postgres.Close()
}
