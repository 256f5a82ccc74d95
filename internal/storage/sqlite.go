// Package storage provides the SQLite implementation of RunStore.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/shortlist/internal/models"
)

// SQLiteStore implements RunStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		job_text TEXT NOT NULL,
		query_time_ms INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);

	CREATE TABLE IF NOT EXISTS run_results (
		run_id TEXT NOT NULL,
		rank INTEGER NOT NULL,
		document_id TEXT NOT NULL,
		similarity REAL NOT NULL,
		explanation TEXT,
		has_explanation INTEGER NOT NULL,
		PRIMARY KEY (run_id, rank),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS run_skipped (
		run_id TEXT NOT NULL,
		document_id TEXT NOT NULL,
		stage TEXT NOT NULL,
		reason TEXT NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_skipped_run_id ON run_skipped(run_id);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveReport records a completed screening in one transaction.
func (s *SQLiteStore) SaveReport(ctx context.Context, report *models.ScreeningReport) (*Run, error) {
	run := &Run{
		ID:        uuid.New().String(),
		JobText:   report.JobText,
		CreatedAt: time.Now(),
		QueryTime: report.QueryTime,
		Results:   report.Results,
		Skipped:   report.Skipped,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, job_text, query_time_ms, created_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.JobText, run.QueryTime, run.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	for _, res := range run.Results {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_results (run_id, rank, document_id, similarity, explanation, has_explanation)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID, res.Rank, res.DocumentID, res.Similarity, res.Explanation, res.HasExplanation,
		); err != nil {
			return nil, fmt.Errorf("insert result: %w", err)
		}
	}
	for _, skip := range run.Skipped {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_skipped (run_id, document_id, stage, reason) VALUES (?, ?, ?, ?)`,
			run.ID, skip.DocumentID, skip.Stage, skip.Reason,
		); err != nil {
			return nil, fmt.Errorf("insert skipped: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return run, nil
}

// GetRun returns a run with its full results and skipped list.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	var run Run
	err := s.db.QueryRowContext(ctx,
		`SELECT id, job_text, query_time_ms, created_at FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &run.JobText, &run.QueryTime, &run.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT rank, document_id, similarity, explanation, has_explanation
		 FROM run_results WHERE run_id = ? ORDER BY rank`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var res models.MatchResult
		var explanation sql.NullString
		if err := rows.Scan(&res.Rank, &res.DocumentID, &res.Similarity, &explanation, &res.HasExplanation); err != nil {
			return nil, err
		}
		res.Explanation = explanation.String
		run.Results = append(run.Results, &res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	skipRows, err := s.db.QueryContext(ctx,
		`SELECT document_id, stage, reason FROM run_skipped WHERE run_id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer skipRows.Close()
	for skipRows.Next() {
		var skip models.SkippedDocument
		if err := skipRows.Scan(&skip.DocumentID, &skip.Stage, &skip.Reason); err != nil {
			return nil, err
		}
		run.Skipped = append(run.Skipped, &skip)
	}
	return &run, skipRows.Err()
}

// ListRuns returns run summaries (no results) newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, offset, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, job_text, query_time_ms, created_at FROM runs
		 ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]*Run, 0)
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.JobText, &run.QueryTime, &run.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// CountRuns returns the number of recorded runs.
func (s *SQLiteStore) CountRuns(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&count)
	return count, err
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
