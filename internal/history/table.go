// Package history lists past uploads and shows one stored analysis at a time.
package history

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"resumeview/internal/model"
)

// API is the subset of the backend client the table needs.
type API interface {
	ListResumes(ctx context.Context) ([]model.ResumeSummary, error)
	GetResumeDetail(ctx context.Context, id int64) (*model.ResumeDetail, error)
}

// Table is the state of the history view. A failed list load leaves Rows empty and
// LoadErr set; whether to show LoadErr is up to the caller.
type Table struct {
	api API
	log *zap.Logger

	mu        sync.Mutex
	rows      []model.ResumeSummary
	loadErr   error
	detail    *model.ResumeDetail
	detailErr error
}

// Snapshot is a read-only copy of the table state.
type Snapshot struct {
	Rows      []model.ResumeSummary
	LoadErr   error
	Detail    *model.ResumeDetail
	DetailErr error
}

// NewTable returns an empty table.
func NewTable(api API, log *zap.Logger) *Table {
	if log == nil {
		log = zap.NewNop()
	}
	return &Table{api: api, log: log}
}

// Load fetches the summary list. On error the rows are emptied and the error is logged,
// kept in LoadErr and returned.
func (t *Table) Load(ctx context.Context) error {
	rows, err := t.api.ListResumes(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.log.Warn("history_load_failed", zap.Error(err))
		t.rows = nil
		t.loadErr = fmt.Errorf("load resumes: %w", err)
		return t.loadErr
	}
	t.rows = rows
	t.loadErr = nil
	return nil
}

// OpenDetail fetches and shows one resume, replacing any open detail. On error no detail
// is shown and DetailErr is set.
func (t *Table) OpenDetail(ctx context.Context, id int64) error {
	d, err := t.api.GetResumeDetail(ctx, id)

	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.log.Warn("history_detail_failed", zap.Int64("resume_id", id), zap.Error(err))
		t.detail = nil
		t.detailErr = fmt.Errorf("load resume %d: %w", id, err)
		return t.detailErr
	}
	t.detail = d
	t.detailErr = nil
	return nil
}

// Close hides the open detail and clears any detail error.
func (t *Table) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.detail = nil
	t.detailErr = nil
}

// Snapshot returns the current state.
func (t *Table) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	rows := make([]model.ResumeSummary, len(t.rows))
	copy(rows, t.rows)
	return Snapshot{Rows: rows, LoadErr: t.loadErr, Detail: t.detail, DetailErr: t.detailErr}
}
