// Package repository contains the data access abstractions for the submission journal.
package repository

import (
	"context"

	"resumeview/internal/model"
)

// SubmissionRepository persists the client's own record of upload attempts.
// No business logic here, strictly persistence operations.
type SubmissionRepository interface {
	// Create inserts a submission and returns the stored row.
	Create(ctx context.Context, sub *model.Submission) (*model.Submission, error)

	// List returns the most recent submissions first, with the total row count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Submission], error)

	// Ping verifies the journal database is reachable.
	Ping(ctx context.Context) error
}

// PageQuery holds limit/offset parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic list result wrapper.
type PageResult[T any] struct {
	Items []T
	Total int
}
