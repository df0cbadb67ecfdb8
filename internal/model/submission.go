package model

import "time"

// Submission outcomes recorded in the journal.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

// Submission is the client-side record of one finished upload attempt.
type Submission struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	SizeBytes    int64     `json:"size_bytes"`
	Outcome      string    `json:"outcome"`
	ResumeID     *int64    `json:"resume_id,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	DurationMS   int64     `json:"duration_ms"`
	ArchiveKey   string    `json:"archive_key,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
