// Package service records what happened to each resume submission: an optional journal
// row in Postgres and an optional archived copy of the PDF in object storage.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"resumeview/internal/model"
	"resumeview/internal/repository"
	"resumeview/internal/storage"
	"resumeview/internal/uploader"
)

var (
	// ErrJournalDisabled is returned by List when no journal database is configured.
	ErrJournalDisabled = errors.New("submission journal is disabled")
	ErrInvalidResumeID = errors.New("resume id must be positive")
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	recordTimeout    = 10 * time.Second
	presignExpiry    = 15 * time.Minute
)

// SubmissionListResult is the service-level DTO for journal listings.
type SubmissionListResult struct {
	Items []model.Submission `json:"data"`
	Total int                `json:"total"`
}

// SubmissionService records finished submissions and exposes what was recorded.
type SubmissionService interface {
	uploader.Recorder

	// List returns recent journal entries, newest first.
	List(ctx context.Context, limit, offset int) (*SubmissionListResult, error)

	// ArchiveURL returns a presigned link to the archived PDF of a resume, or "" when
	// the archive is disabled or holds no copy.
	ArchiveURL(ctx context.Context, resumeID int64) (string, error)

	// Ping checks the journal database when one is configured.
	Ping(ctx context.Context) error
}

type submissionService struct {
	repo    repository.SubmissionRepository
	store   storage.Storage
	metrics *Metrics
	log     *zap.Logger
	now     func() time.Time
}

// NewSubmissionService wires the journal and archive. repo and store may each be nil
// to disable that half.
func NewSubmissionService(repo repository.SubmissionRepository, store storage.Storage, metrics *Metrics, log *zap.Logger) SubmissionService {
	if log == nil {
		log = zap.NewNop()
	}
	return &submissionService{repo: repo, store: store, metrics: metrics, log: log, now: time.Now}
}

// Record archives a successful upload and journals the outcome. Failures here are
// logged and never change the submission's own outcome.
func (s *submissionService) Record(ctx context.Context, o uploader.Outcome) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	sub := &model.Submission{
		ID:         uuid.NewString(),
		DurationMS: o.Duration.Milliseconds(),
		CreatedAt:  s.now().UTC(),
	}
	if o.File != nil {
		sub.Filename = o.File.Name
		sub.SizeBytes = o.File.Size()
	}

	if o.Err == nil && o.Result != nil {
		sub.Outcome = model.OutcomeSuccess
		if o.Result.ID > 0 {
			id := o.Result.ID
			sub.ResumeID = &id
			s.archive(ctx, o.File, id, sub)
		}
	} else {
		sub.Outcome = model.OutcomeFailed
		sub.ErrorMessage = o.Message
	}
	s.metrics.upload(sub.Outcome)

	fields := []zap.Field{
		zap.String("submission_id", sub.ID),
		zap.String("filename", sub.Filename),
		zap.String("outcome", sub.Outcome),
		zap.Int64("duration_ms", sub.DurationMS),
	}
	if sub.Outcome == model.OutcomeFailed {
		s.log.Warn("resume_submission", append(fields, zap.String("error_message", sub.ErrorMessage))...)
	} else {
		s.log.Info("resume_submission", fields...)
	}

	if s.repo == nil {
		return
	}
	if _, err := s.repo.Create(ctx, sub); err != nil {
		s.log.Error("journal_write_failed", zap.String("submission_id", sub.ID), zap.Error(err))
	}
}

func (s *submissionService) archive(ctx context.Context, f *uploader.File, resumeID int64, sub *model.Submission) {
	if s.store == nil || f == nil {
		return
	}
	key := storage.ArchiveKey(resumeID)
	_, err := s.store.Put(ctx, key, bytes.NewReader(f.Data), storage.PutObjectOptions{
		Size:        f.Size(),
		ContentType: "application/pdf",
		Metadata:    map[string]string{"original-filename": f.Name},
	})
	if err != nil {
		s.metrics.archiveFailed()
		s.log.Error("archive_write_failed", zap.String("key", key), zap.Error(err))
		sub.ErrorMessage = fmt.Sprintf("archive: %v", err)
		return
	}
	sub.ArchiveKey = key
}

// List returns journal entries. Limit defaults to 20 and is capped at 100.
func (s *submissionService) List(ctx context.Context, limit, offset int) (*SubmissionListResult, error) {
	if s.repo == nil {
		return nil, ErrJournalDisabled
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &SubmissionListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *submissionService) ArchiveURL(ctx context.Context, resumeID int64) (string, error) {
	if resumeID <= 0 {
		return "", ErrInvalidResumeID
	}
	if s.store == nil {
		return "", nil
	}
	key := storage.ArchiveKey(resumeID)
	if _, err := s.store.Stat(ctx, key); err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("stat archive object: %w", err)
	}
	url, err := s.store.PresignGet(ctx, key, presignExpiry)
	if err != nil {
		return "", fmt.Errorf("presign archive object: %w", err)
	}
	return url, nil
}

func (s *submissionService) Ping(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	return s.repo.Ping(ctx)
}
