package postgres

import (
	"context"
	"database/sql"

	"resumeview/internal/model"
	"resumeview/internal/repository"
)

// SubmissionPostgres is a PostgreSQL implementation of repository.SubmissionRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type SubmissionPostgres struct {
	db *sql.DB
}

// NewSubmissionPostgres creates a new SubmissionPostgres repository.
func NewSubmissionPostgres(db *sql.DB) *SubmissionPostgres {
	return &SubmissionPostgres{db: db}
}

var _ repository.SubmissionRepository = (*SubmissionPostgres)(nil)

const submissionColumns = `id, filename, size_bytes, outcome, resume_id, error_message, duration_ms, archive_key, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (*model.Submission, error) {
	var (
		s        model.Submission
		resumeID sql.NullInt64
	)
	if err := row.Scan(
		&s.ID,
		&s.Filename,
		&s.SizeBytes,
		&s.Outcome,
		&resumeID,
		&s.ErrorMessage,
		&s.DurationMS,
		&s.ArchiveKey,
		&s.CreatedAt,
	); err != nil {
		return nil, err
	}
	if resumeID.Valid {
		id := resumeID.Int64
		s.ResumeID = &id
	}
	return &s, nil
}

// Create inserts a new submission row and returns the stored record.
func (r *SubmissionPostgres) Create(ctx context.Context, sub *model.Submission) (*model.Submission, error) {
	const q = `
		INSERT INTO upload_submissions (` + submissionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + submissionColumns

	var resumeID sql.NullInt64
	if sub.ResumeID != nil {
		resumeID = sql.NullInt64{Int64: *sub.ResumeID, Valid: true}
	}
	row := r.db.QueryRowContext(ctx, q,
		sub.ID,
		sub.Filename,
		sub.SizeBytes,
		sub.Outcome,
		resumeID,
		sub.ErrorMessage,
		sub.DurationMS,
		sub.ArchiveKey,
		sub.CreatedAt,
	)
	return scanSubmission(row)
}

// List returns submissions using LIMIT/OFFSET, newest first, and a total count.
func (r *SubmissionPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Submission], error) {
	const qCount = `SELECT COUNT(*) FROM upload_submissions`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + submissionColumns + `
		FROM upload_submissions
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Submission, 0)
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Submission]{
		Items: items,
		Total: total,
	}, nil
}

// Ping checks connectivity.
func (r *SubmissionPostgres) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
