package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/taskboard/taskboard-api/internal/domain"
	"github.com/taskboard/taskboard-api/internal/store"
)

func newTestTask(t *testing.T, ownerID uuid.UUID) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(ownerID, "test task", "", domain.TaskPriorityMedium, nil)
	require.NoError(t, err)
	return task
}

func TestNewQueryService(t *testing.T) {
	t.Parallel()

	_, err := NewQueryService(nil, nil)
	assert.Error(t, err, "nil repository should be rejected")

	svc, err := NewQueryService(new(MockTaskRepository), nil)
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestQueryServiceGetTask(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("returns the task", func(t *testing.T) {
		ownerID := uuid.New()
		task := newTestTask(t, ownerID)

		mockRepo := new(MockTaskRepository)
		mockRepo.On("GetByID", mock.Anything, task.ID).Return(task, nil)

		svc, err := NewQueryService(mockRepo, nil)
		require.NoError(t, err)

		got, err := svc.GetTask(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, task, got)
		mockRepo.AssertExpectations(t)
	})

	t.Run("maps missing task to sentinel", func(t *testing.T) {
		taskID := uuid.New()

		mockRepo := new(MockTaskRepository)
		mockRepo.On("GetByID", mock.Anything, taskID).Return(nil, store.ErrTaskNotFound)

		svc, err := NewQueryService(mockRepo, nil)
		require.NoError(t, err)

		_, err = svc.GetTask(ctx, taskID)
		assert.ErrorIs(t, err, ErrTaskNotFound)
	})
}

func TestQueryServiceListTasks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("returns page with total", func(t *testing.T) {
		ownerID := uuid.New()
		tasks := []*domain.Task{newTestTask(t, ownerID), newTestTask(t, ownerID)}
		page := store.Page{Number: 2, Size: 2}

		mockRepo := new(MockTaskRepository)
		mockRepo.On("List", mock.Anything, ownerID, store.TaskFilter{}, page).Return(tasks, nil)
		mockRepo.On("Count", mock.Anything, ownerID, store.TaskFilter{}).Return(int64(5), nil)

		svc, err := NewQueryService(mockRepo, nil)
		require.NoError(t, err)

		list, err := svc.ListTasks(ctx, ownerID, store.TaskFilter{}, page)
		require.NoError(t, err)
		assert.Equal(t, tasks, list.Tasks)
		assert.Equal(t, int64(5), list.Total)
		assert.Equal(t, page, list.Page)
		mockRepo.AssertExpectations(t)
	})

	t.Run("normalizes the page before querying", func(t *testing.T) {
		ownerID := uuid.New()
		normalized := store.Page{Number: 1, Size: store.DefaultPageSize}

		mockRepo := new(MockTaskRepository)
		mockRepo.On("List", mock.Anything, ownerID, store.TaskFilter{}, normalized).
			Return([]*domain.Task{}, nil)
		mockRepo.On("Count", mock.Anything, ownerID, store.TaskFilter{}).Return(int64(0), nil)

		svc, err := NewQueryService(mockRepo, nil)
		require.NoError(t, err)

		list, err := svc.ListTasks(ctx, ownerID, store.TaskFilter{}, store.Page{Number: -3, Size: 0})
		require.NoError(t, err)
		assert.Equal(t, normalized, list.Page)
		mockRepo.AssertExpectations(t)
	})

	t.Run("passes filter through unchanged", func(t *testing.T) {
		ownerID := uuid.New()
		status := domain.TaskStatusPending
		from := time.Now().UTC().Add(-24 * time.Hour)
		filter := store.TaskFilter{Status: &status, CreatedFrom: &from, Search: "report"}
		page := store.Page{Number: 1, Size: 10}

		mockRepo := new(MockTaskRepository)
		mockRepo.On("List", mock.Anything, ownerID, filter, page).Return([]*domain.Task{}, nil)
		mockRepo.On("Count", mock.Anything, ownerID, filter).Return(int64(0), nil)

		svc, err := NewQueryService(mockRepo, nil)
		require.NoError(t, err)

		_, err = svc.ListTasks(ctx, ownerID, filter, page)
		require.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("propagates list failure", func(t *testing.T) {
		ownerID := uuid.New()
		dbErr := errors.New("connection refused")

		mockRepo := new(MockTaskRepository)
		mockRepo.On("List", mock.Anything, ownerID, mock.Anything, mock.Anything).Return(nil, dbErr)

		svc, err := NewQueryService(mockRepo, nil)
		require.NoError(t, err)

		_, err = svc.ListTasks(ctx, ownerID, store.TaskFilter{}, store.Page{})
		assert.ErrorIs(t, err, dbErr)
	})
}

func TestQueryServiceGetStats(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	stats := &store.TaskStats{Total: 10, Completed: 4, InProgress: 3, Pending: 3, HighPriority: 2}

	mockRepo := new(MockTaskRepository)
	mockRepo.On("GetStats", mock.Anything).Return(stats, nil)

	svc, err := NewQueryService(mockRepo, nil)
	require.NoError(t, err)

	got, err := svc.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, stats, got)

	// Status counts partition the total in a consistent snapshot
	assert.Equal(t, got.Total, got.Completed+got.InProgress+got.Pending)
}
