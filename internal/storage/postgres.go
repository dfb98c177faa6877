/**
 * PostgreSQL client for the outline worker
 *
 * Persists job status and finished document outlines. Schema:
 *   outline.processing_jobs   - one row per job, upserted on status change
 *   outline.document_outlines - one row per completed outline
 */

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/pagesift/outline-worker/internal/outline"
)

// PostgresClient handles database operations
type PostgresClient struct {
	db *sql.DB
}

// JobUpdate represents a job status update
type JobUpdate struct {
	JobID            string
	Status           string
	Filename         string
	PageCount        int
	HeadingCount     int
	ProcessingTimeMs int64
	ErrorCode        string
	ErrorMessage     string
	Metadata         map[string]interface{}
}

// NewPostgresClient creates a new PostgreSQL client
func NewPostgresClient(databaseURL string) (*PostgresClient, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresClient{db: db}, nil
}

// UpdateJobStatus upserts job status in the database. The worker may see a
// job before the API created its row, so the first update creates it.
func (p *PostgresClient) UpdateJobStatus(ctx context.Context, update *JobUpdate) error {
	if update.JobID == "" {
		return fmt.Errorf("job ID is required")
	}

	if update.Status == "" {
		return fmt.Errorf("status is required")
	}

	metadataJSON, err := json.Marshal(update.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		INSERT INTO outline.processing_jobs (
			id, filename, status, page_count, heading_count,
			processing_time_ms, error_code, error_message, metadata,
			created_at, updated_at
		) VALUES (
			$1::uuid, COALESCE(NULLIF($2, ''), 'unknown.pdf'), $3,
			NULLIF($4, 0), NULLIF($5, 0), NULLIF($6, 0),
			NULLIF($7, ''), NULLIF($8, ''),
			COALESCE($9::jsonb, '{}'::jsonb),
			NOW(), NOW()
		)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			page_count = COALESCE(NULLIF(EXCLUDED.page_count, 0), outline.processing_jobs.page_count),
			heading_count = COALESCE(EXCLUDED.heading_count, outline.processing_jobs.heading_count),
			processing_time_ms = COALESCE(NULLIF(EXCLUDED.processing_time_ms, 0), outline.processing_jobs.processing_time_ms),
			error_code = NULLIF(EXCLUDED.error_code, ''),
			error_message = NULLIF(EXCLUDED.error_message, ''),
			metadata = COALESCE(EXCLUDED.metadata, outline.processing_jobs.metadata),
			filename = COALESCE(EXCLUDED.filename, outline.processing_jobs.filename),
			updated_at = NOW()
		RETURNING id
	`

	var returnedID string
	err = p.db.QueryRowContext(
		ctx,
		query,
		update.JobID,
		update.Filename,
		update.Status,
		update.PageCount,
		update.HeadingCount,
		update.ProcessingTimeMs,
		update.ErrorCode,
		update.ErrorMessage,
		metadataJSON,
	).Scan(&returnedID)

	if err != nil {
		return fmt.Errorf("failed to update job status (job=%s, status=%s): %w",
			update.JobID, update.Status, err)
	}

	return nil
}

// StoreOutline persists a finished outline and returns its record ID.
func (p *PostgresClient) StoreOutline(ctx context.Context, jobID string, result *outline.Result) (string, error) {
	if jobID == "" {
		return "", fmt.Errorf("job ID is required")
	}

	outlineJSON, err := json.Marshal(result.Outline)
	if err != nil {
		return "", fmt.Errorf("failed to marshal outline: %w", err)
	}

	recordID := uuid.New().String()
	query := `
		INSERT INTO outline.document_outlines (
			id, job_id, title, outline, created_at
		) VALUES ($1::uuid, $2::uuid, $3, $4::jsonb, NOW())
	`

	if _, err := p.db.ExecContext(ctx, query, recordID, jobID, result.Title, outlineJSON); err != nil {
		return "", fmt.Errorf("failed to store outline: %w", err)
	}

	return recordID, nil
}

// GetOutlineByJobID retrieves the stored outline for a job.
func (p *PostgresClient) GetOutlineByJobID(ctx context.Context, jobID string) (*outline.Result, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job ID is required")
	}

	query := `
		SELECT title, outline
		FROM outline.document_outlines
		WHERE job_id = $1::uuid
		ORDER BY created_at DESC
		LIMIT 1
	`

	var title string
	var outlineJSON []byte
	err := p.db.QueryRowContext(ctx, query, jobID).Scan(&title, &outlineJSON)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("outline not found for job: %s", jobID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get outline: %w", err)
	}

	result := &outline.Result{Title: title, Outline: []outline.Entry{}}
	if len(outlineJSON) > 0 {
		if err := json.Unmarshal(outlineJSON, &result.Outline); err != nil {
			return nil, fmt.Errorf("failed to unmarshal outline: %w", err)
		}
	}

	return result, nil
}

// Ping checks database connectivity
func (p *PostgresClient) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close closes the database connection
func (p *PostgresClient) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}
