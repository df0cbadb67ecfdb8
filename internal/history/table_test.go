package history

import (
	"context"
	"errors"
	"testing"

	"resumeview/internal/apiclient"
	clientMocks "resumeview/internal/apiclient/mocks"
	"resumeview/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestTable_Load(t *testing.T) {
	ctx := context.Background()
	rows := []model.ResumeSummary{{ID: 2, Filename: "b.pdf"}, {ID: 1, Filename: "a.pdf"}}

	t.Run("success", func(t *testing.T) {
		api := new(clientMocks.MockClient)
		api.On("ListResumes", ctx).Return(rows, nil).Once()
		table := NewTable(api, nil)

		require.NoError(t, table.Load(ctx))

		snap := table.Snapshot()
		assert.Equal(t, rows, snap.Rows)
		assert.NoError(t, snap.LoadErr)
		api.AssertExpectations(t)
	})

	t.Run("failure empties rows and is logged", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		api := new(clientMocks.MockClient)
		api.On("ListResumes", ctx).Return(rows, nil).Once()
		api.On("ListResumes", ctx).Return(nil, &apiclient.NetworkError{Op: "list", Err: errors.New("connection refused")}).Once()
		table := NewTable(api, zap.New(core))

		require.NoError(t, table.Load(ctx))
		err := table.Load(ctx)

		var ne *apiclient.NetworkError
		assert.ErrorAs(t, err, &ne)
		snap := table.Snapshot()
		assert.Empty(t, snap.Rows)
		assert.Equal(t, err, snap.LoadErr)
		assert.Equal(t, 1, logs.FilterMessage("history_load_failed").Len())
	})
}

func TestTable_OpenDetail(t *testing.T) {
	ctx := context.Background()
	detail := &model.ResumeDetail{ResumeSummary: model.ResumeSummary{ID: 1, Filename: "a.pdf"}}

	t.Run("success", func(t *testing.T) {
		api := new(clientMocks.MockClient)
		api.On("GetResumeDetail", ctx, int64(1)).Return(detail, nil).Once()
		table := NewTable(api, nil)

		require.NoError(t, table.OpenDetail(ctx, 1))

		snap := table.Snapshot()
		assert.Same(t, detail, snap.Detail)
		assert.NoError(t, snap.DetailErr)
	})

	t.Run("unknown id yields error state", func(t *testing.T) {
		api := new(clientMocks.MockClient)
		api.On("ListResumes", ctx).Return([]model.ResumeSummary{{ID: 1}}, nil).Once()
		api.On("GetResumeDetail", ctx, int64(1)).Return(detail, nil).Once()
		api.On("GetResumeDetail", ctx, int64(99)).Return(nil, &apiclient.ServerError{Status: 404, Detail: "Resume not found"}).Once()
		table := NewTable(api, nil)

		require.NoError(t, table.Load(ctx))
		require.NoError(t, table.OpenDetail(ctx, 1))
		err := table.OpenDetail(ctx, 99)

		assert.ErrorIs(t, err, apiclient.ErrNotFound)
		snap := table.Snapshot()
		assert.Nil(t, snap.Detail)
		assert.ErrorIs(t, snap.DetailErr, apiclient.ErrNotFound)
		assert.Len(t, snap.Rows, 1)
	})

	t.Run("only one detail open", func(t *testing.T) {
		other := &model.ResumeDetail{ResumeSummary: model.ResumeSummary{ID: 2}}
		api := new(clientMocks.MockClient)
		api.On("GetResumeDetail", ctx, int64(1)).Return(detail, nil).Once()
		api.On("GetResumeDetail", ctx, int64(2)).Return(other, nil).Once()
		table := NewTable(api, nil)

		require.NoError(t, table.OpenDetail(ctx, 1))
		require.NoError(t, table.OpenDetail(ctx, 2))

		assert.Same(t, other, table.Snapshot().Detail)
	})
}

func TestTable_Close(t *testing.T) {
	ctx := context.Background()
	api := new(clientMocks.MockClient)
	api.On("GetResumeDetail", ctx, int64(5)).Return(nil, errors.New("boom")).Once()
	table := NewTable(api, nil)

	_ = table.OpenDetail(ctx, 5)
	require.Error(t, table.Snapshot().DetailErr)

	table.Close()

	snap := table.Snapshot()
	assert.Nil(t, snap.Detail)
	assert.NoError(t, snap.DetailErr)
}
