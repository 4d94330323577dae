package service

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/taskboard/taskboard-api/internal/domain"
	"github.com/taskboard/taskboard-api/internal/store"
)

// NewTaskRepositoryAdapter creates a new adapter that allows a store.TaskStore
// to be used where a TaskRepository is expected.
func NewTaskRepositoryAdapter(taskStore store.TaskStore, db *sql.DB) TaskRepository {
	return &taskRepositoryAdapter{
		taskStore: taskStore,
		db:        db,
	}
}

// taskRepositoryAdapter adapts a store.TaskStore to the TaskRepository interface
type taskRepositoryAdapter struct {
	taskStore store.TaskStore
	db        *sql.DB
}

// Create implements TaskRepository.Create
func (a *taskRepositoryAdapter) Create(ctx context.Context, task *domain.Task) error {
	return a.taskStore.Create(ctx, task)
}

// GetByID implements TaskRepository.GetByID
func (a *taskRepositoryAdapter) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return a.taskStore.GetByID(ctx, id)
}

// List implements TaskRepository.List
func (a *taskRepositoryAdapter) List(
	ctx context.Context,
	ownerID uuid.UUID,
	filter store.TaskFilter,
	page store.Page,
) ([]*domain.Task, error) {
	return a.taskStore.List(ctx, ownerID, filter, page)
}

// Count implements TaskRepository.Count
func (a *taskRepositoryAdapter) Count(
	ctx context.Context,
	ownerID uuid.UUID,
	filter store.TaskFilter,
) (int64, error) {
	return a.taskStore.Count(ctx, ownerID, filter)
}

// UpdateFields implements TaskRepository.UpdateFields
func (a *taskRepositoryAdapter) UpdateFields(
	ctx context.Context,
	id uuid.UUID,
	update domain.TaskUpdate,
) (*domain.Task, error) {
	return a.taskStore.UpdateFields(ctx, id, update)
}

// Delete implements TaskRepository.Delete
func (a *taskRepositoryAdapter) Delete(ctx context.Context, id uuid.UUID) error {
	return a.taskStore.Delete(ctx, id)
}

// BulkUpdateStatus implements TaskRepository.BulkUpdateStatus
func (a *taskRepositoryAdapter) BulkUpdateStatus(
	ctx context.Context,
	ids []uuid.UUID,
	status domain.TaskStatus,
) ([]*domain.Task, error) {
	return a.taskStore.BulkUpdateStatus(ctx, ids, status)
}

// BulkDelete implements TaskRepository.BulkDelete
func (a *taskRepositoryAdapter) BulkDelete(ctx context.Context, ids []uuid.UUID) (int64, error) {
	return a.taskStore.BulkDelete(ctx, ids)
}

// GetStats implements TaskRepository.GetStats
func (a *taskRepositoryAdapter) GetStats(ctx context.Context) (*store.TaskStats, error) {
	return a.taskStore.GetStats(ctx)
}

// WithTx implements TaskRepository.WithTx
func (a *taskRepositoryAdapter) WithTx(tx *sql.Tx) TaskRepository {
	return &taskRepositoryAdapter{
		taskStore: a.taskStore.WithTx(tx),
		db:        a.db,
	}
}

// DB implements TaskRepository.DB
func (a *taskRepositoryAdapter) DB() *sql.DB {
	return a.db
}
