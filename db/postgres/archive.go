// Package postgres archives analysis results so completed AI analyses
// survive beyond the request that produced them.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// AnalysisRecord is one archived analysis run.
type AnalysisRecord struct {
	ID           uuid.UUID       `json:"id"`
	JobID        string          `json:"jobId"`
	AnalysisType string          `json:"analysisType"`
	DocumentURL  string          `json:"documentUrl,omitempty"`
	PhotoURLs    []string        `json:"photoUrls,omitempty"`
	Results      json.RawMessage `json:"results"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// Archive persists analysis records to Postgres.
type Archive struct {
	db *sql.DB
}

// Open connects using a lib/pq DSN (postgres://... or key=value form).
func Open(dsn string) (*Archive, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	return &Archive{db: db}, nil
}

// Ping checks database connectivity.
func (a *Archive) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

// Close closes the underlying pool.
func (a *Archive) Close() error {
	return a.db.Close()
}

// SaveAnalysis inserts one analysis record.
func (a *Archive) SaveAnalysis(ctx context.Context, rec AnalysisRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := a.db.ExecContext(ctx, `
		INSERT INTO job_ai_analyses (id, job_id, analysis_type, document_url, photo_urls, analysis_results, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.JobID, rec.AnalysisType, rec.DocumentURL, pq.Array(rec.PhotoURLs), rec.Results, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to archive analysis: %w", err)
	}
	return nil
}

// ListAnalyses returns the archived analyses for a job, newest first.
func (a *Archive) ListAnalyses(ctx context.Context, jobID string) ([]AnalysisRecord, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, job_id, analysis_type, document_url, photo_urls, analysis_results, created_at
		FROM job_ai_analyses
		WHERE job_id = $1
		ORDER BY created_at DESC`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	var out []AnalysisRecord
	for rows.Next() {
		var rec AnalysisRecord
		if err := rows.Scan(&rec.ID, &rec.JobID, &rec.AnalysisType, &rec.DocumentURL,
			pq.Array(&rec.PhotoURLs), &rec.Results, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
