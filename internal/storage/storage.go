// Package storage defines persistence for screening-run history.
package storage

import (
	"context"
	"time"

	"github.com/hyperjump/shortlist/internal/models"
)

// Run is one recorded screening run: the report plus identity and timing.
type Run struct {
	ID        string                    `json:"id"`
	JobText   string                    `json:"job_text"`
	CreatedAt time.Time                 `json:"created_at"`
	QueryTime int64                     `json:"query_time_ms"`
	Results   []*models.MatchResult     `json:"results,omitempty"`
	Skipped   []*models.SkippedDocument `json:"skipped,omitempty"`
}

// RunStore persists screening runs so past screenings can be reviewed.
// This is run history only; the vector index itself is never persisted.
type RunStore interface {
	// SaveReport records a completed screening and returns the stored run.
	SaveReport(ctx context.Context, report *models.ScreeningReport) (*Run, error)
	// GetRun returns a run with its full results and skipped list.
	GetRun(ctx context.Context, id string) (*Run, error)
	// ListRuns returns run summaries (no results) newest first.
	ListRuns(ctx context.Context, offset, limit int) ([]*Run, error)
	CountRuns(ctx context.Context) (int64, error)
	Close() error
}
