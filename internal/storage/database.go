// Package storage persists generation runs, per-file progress, and records.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	// import db drivers
	_ "github.com/lib/pq"

	"github.com/sevigo/qa-forge/internal/core"
)

// ErrNotFound is returned when a lookup matches no rows.
var ErrNotFound = errors.New("not found")

// Store defines the interface for all database operations.
type Store interface {
	CreateRun(ctx context.Context, run *core.GenerationRun) (int64, error)
	FinishRun(ctx context.Context, runID int64, status string, stats *core.GenerationStats) error
	GetLatestRunForRepo(ctx context.Context, repoName string) (*core.GenerationRun, error)
	ListRuns(ctx context.Context, limit int) ([]core.GenerationRun, error)
	MarkFileProcessed(ctx context.Context, runID int64, filePath, contentHash string, functions, records int) error
	GetProcessedFiles(ctx context.Context, runID int64) (map[string]string, error)
	SaveRecords(ctx context.Context, runID int64, records []core.QARecord) error
	GetRecordsForRun(ctx context.Context, runID int64) ([]core.QARecord, error)
}

type postgresStore struct {
	db *sqlx.DB
}

// NewStore creates a new Store backed by Postgres.
func NewStore(db *sqlx.DB) Store {
	return &postgresStore{db: db}
}

// CreateRun inserts a new run in the "running" state and returns its ID.
func (s *postgresStore) CreateRun(ctx context.Context, run *core.GenerationRun) (int64, error) {
	query := `
		INSERT INTO generation_runs (repo_name, repo_path, head_sha, model, status, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	var id int64
	err := s.db.QueryRowContext(ctx, query,
		run.RepoName, run.RepoPath, run.HeadSHA, run.Model, core.RunStatusRunning, time.Now(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create generation run: %w", err)
	}
	return id, nil
}

// FinishRun records the final status and counters of a run.
func (s *postgresStore) FinishRun(ctx context.Context, runID int64, status string, stats *core.GenerationStats) error {
	query := `
		UPDATE generation_runs
		SET status = $1, files_scanned = $2, functions_found = $3, records_produced = $4, finished_at = $5
		WHERE id = $6`

	res, err := s.db.ExecContext(ctx, query,
		status, stats.FilesScanned, stats.FunctionsFound, stats.RecordsProduced, time.Now(), runID)
	if err != nil {
		return fmt.Errorf("failed to finish run %d: %w", runID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %d: %w", runID, ErrNotFound)
	}
	return nil
}

// GetLatestRunForRepo retrieves the most recent run for a repository.
func (s *postgresStore) GetLatestRunForRepo(ctx context.Context, repoName string) (*core.GenerationRun, error) {
	query := `
		SELECT id, repo_name, repo_path, head_sha, model, status,
		       files_scanned, functions_found, records_produced, started_at, finished_at
		FROM generation_runs
		WHERE repo_name = $1
		ORDER BY started_at DESC
		LIMIT 1`

	var run core.GenerationRun
	if err := s.db.GetContext(ctx, &run, query, repoName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no run found for repository %s: %w", repoName, ErrNotFound)
		}
		return nil, err
	}
	return &run, nil
}

// ListRuns returns the most recent runs across all repositories.
func (s *postgresStore) ListRuns(ctx context.Context, limit int) ([]core.GenerationRun, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT id, repo_name, repo_path, head_sha, model, status,
		       files_scanned, functions_found, records_produced, started_at, finished_at
		FROM generation_runs
		ORDER BY started_at DESC
		LIMIT $1`

	var runs []core.GenerationRun
	if err := s.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// MarkFileProcessed records that a file has been fully processed in a run.
// Re-processing the same file replaces the previous entry.
func (s *postgresStore) MarkFileProcessed(ctx context.Context, runID int64, filePath, contentHash string, functions, records int) error {
	query := `
		INSERT INTO run_files (run_id, file_path, content_hash, functions_found, records_produced, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (run_id, file_path)
		DO UPDATE SET content_hash = EXCLUDED.content_hash,
		              functions_found = EXCLUDED.functions_found,
		              records_produced = EXCLUDED.records_produced,
		              processed_at = EXCLUDED.processed_at`

	_, err := s.db.ExecContext(ctx, query, runID, filePath, contentHash, functions, records, time.Now())
	if err != nil {
		return fmt.Errorf("failed to mark file %s as processed: %w", filePath, err)
	}
	return nil
}

// GetProcessedFiles returns the path-to-hash map of files already processed in
// a run. An unchanged hash means the file can be skipped on resume.
func (s *postgresStore) GetProcessedFiles(ctx context.Context, runID int64) (map[string]string, error) {
	query := `SELECT file_path, content_hash FROM run_files WHERE run_id = $1`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load processed files for run %d: %w", runID, err)
	}
	defer rows.Close()

	processed := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, err
		}
		processed[path] = hash
	}
	return processed, rows.Err()
}

// SaveRecords inserts the generated records of one file in a single transaction.
func (s *postgresStore) SaveRecords(ctx context.Context, runID int64, records []core.QARecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO qa_records (run_id, question, answer, code_snippet, reasoning, file, repo, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	now := time.Now()
	for _, rec := range records {
		if _, err := tx.ExecContext(ctx, query,
			runID, rec.Question, rec.Answer, rec.CodeSnippet, rec.Reasoning, rec.File, rec.Repo, now); err != nil {
			return fmt.Errorf("failed to save record: %w", err)
		}
	}
	return tx.Commit()
}

// GetRecordsForRun loads all records produced by a run, ordered by file path
// and then insertion order. Concurrent workers finish files in arbitrary
// order, so sorting by file keeps the exported dataset deterministic.
func (s *postgresStore) GetRecordsForRun(ctx context.Context, runID int64) ([]core.QARecord, error) {
	query := `
		SELECT question, answer, code_snippet, reasoning, file AS file_path, repo AS repo_name
		FROM qa_records
		WHERE run_id = $1
		ORDER BY file, id`

	var records []core.QARecord
	if err := s.db.SelectContext(ctx, &records, query, runID); err != nil {
		return nil, fmt.Errorf("failed to load records for run %d: %w", runID, err)
	}
	return records, nil
}
