// Package model holds the records exchanged with the resume-analysis backend.
// The analysis payloads stay raw JSON: the client displays them but never interprets them.
package model

import "encoding/json"

// UploadResult is the backend's response to an upload.
type UploadResult struct {
	ID            int64           `json:"id,omitempty"`
	Filename      string          `json:"filename"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	Phone         string          `json:"phone,omitempty"`
	ExtractedData json.RawMessage `json:"extracted_data"`
	LLMAnalysis   json.RawMessage `json:"llm_analysis"`
}

// ResumeSummary is one row of the history list.
type ResumeSummary struct {
	ID       int64  `json:"id"`
	Filename string `json:"filename"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
}

// ResumeDetail is a full stored analysis. UploadedAt is kept exactly as the backend sent it.
type ResumeDetail struct {
	ResumeSummary
	UploadedAt    string          `json:"uploaded_at"`
	ExtractedData json.RawMessage `json:"extracted_data"`
	LLMAnalysis   json.RawMessage `json:"llm_analysis"`
}
