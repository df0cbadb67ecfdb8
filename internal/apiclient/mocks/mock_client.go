package mocks

import (
	"context"
	"io"

	"resumeview/internal/apiclient"
	"resumeview/internal/model"

	"github.com/stretchr/testify/mock"
)

// MockClient stands in for *apiclient.Client in consumers' tests.
// An UploadResume expectation may return a []int as its third value; those percents are
// reported through onProgress before the call returns.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) UploadResume(ctx context.Context, filename string, content io.Reader, onProgress apiclient.ProgressFunc) (*model.UploadResult, error) {
	args := m.Called(ctx, filename, content, onProgress)
	if len(args) > 2 {
		if steps, ok := args.Get(2).([]int); ok && onProgress != nil {
			for _, p := range steps {
				onProgress(p)
			}
		}
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UploadResult), args.Error(1)
}

func (m *MockClient) ListResumes(ctx context.Context) ([]model.ResumeSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ResumeSummary), args.Error(1)
}

func (m *MockClient) GetResumeDetail(ctx context.Context, id int64) (*model.ResumeDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ResumeDetail), args.Error(1)
}

func (m *MockClient) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
