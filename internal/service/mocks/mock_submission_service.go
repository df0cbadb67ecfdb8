package mocks

import (
	"context"

	"resumeview/internal/service"
	"resumeview/internal/uploader"

	"github.com/stretchr/testify/mock"
)

type MockSubmissionService struct {
	mock.Mock
}

func (m *MockSubmissionService) Record(ctx context.Context, o uploader.Outcome) {
	m.Called(ctx, o)
}

func (m *MockSubmissionService) List(ctx context.Context, limit, offset int) (*service.SubmissionListResult, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SubmissionListResult), args.Error(1)
}

func (m *MockSubmissionService) ArchiveURL(ctx context.Context, resumeID int64) (string, error) {
	args := m.Called(ctx, resumeID)
	return args.String(0), args.Error(1)
}

func (m *MockSubmissionService) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
