package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/taskboard/taskboard-api/internal/domain"
)

// TaskFilter is a conjunction of optional predicates applied to task listings.
// Nil or zero fields impose no constraint. The search term matches title or
// description case-insensitively.
type TaskFilter struct {
	Status      *domain.TaskStatus
	Priority    *domain.TaskPriority
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Search      string
}

// Page describes offset-based pagination. Numbering starts at 1;
// skip = (Number-1) * Size.
type Page struct {
	Number int
	Size   int
}

// DefaultPageSize is used when a page size is absent or invalid.
const DefaultPageSize = 10

// Normalize clamps the page to sane values.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	return p
}

// Offset returns the number of rows to skip for this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// TaskStats is a single consistent snapshot of aggregate task counts.
type TaskStats struct {
	Total        int64 `json:"total"`
	Completed    int64 `json:"completed"`
	InProgress   int64 `json:"in_progress"`
	Pending      int64 `json:"pending"`
	HighPriority int64 `json:"high_priority"`
}

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create saves a new task to the store.
	// It handles domain validation internally.
	// Returns validation errors from the domain Task if data is invalid.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// List retrieves the owner's tasks matching the filter, ordered by
	// creation order for stable pagination. Returns an empty slice when
	// nothing matches.
	List(ctx context.Context, ownerID uuid.UUID, filter TaskFilter, page Page) ([]*domain.Task, error)

	// Count returns the number of the owner's tasks matching the filter.
	Count(ctx context.Context, ownerID uuid.UUID, filter TaskFilter) (int64, error)

	// UpdateFields applies a partial update to an existing task, leaving
	// absent fields unchanged, and returns the stored state after the update.
	// Returns ErrTaskNotFound if the task does not exist.
	// Returns validation errors if the resulting task data is invalid.
	UpdateFields(ctx context.Context, id uuid.UUID, update domain.TaskUpdate) (*domain.Task, error)

	// Delete removes a task from the store by its ID.
	// Returns ErrTaskNotFound if the task does not exist.
	// This operation is permanent and cannot be undone.
	Delete(ctx context.Context, id uuid.UUID) error

	// BulkUpdateStatus applies the same status to every given id in one
	// operation and returns the tasks that were updated. IDs without a
	// backing record are silently skipped.
	//
	// IMPORTANT: This method MUST be run within a transaction when the
	// caller also publishes per-task notifications, so the batch commits
	// or rolls back as a unit. Use WithTx together with store.RunInTransaction.
	BulkUpdateStatus(ctx context.Context, ids []uuid.UUID, status domain.TaskStatus) ([]*domain.Task, error)

	// BulkDelete removes every given id in one operation and returns the
	// number of rows deleted. IDs without a backing record are silently
	// skipped.
	BulkDelete(ctx context.Context, ids []uuid.UUID) (int64, error)

	// GetStats returns a consistent snapshot of aggregate counts across
	// all tasks in the store.
	GetStats(ctx context.Context) (*TaskStats, error)

	// WithTx returns a new TaskStore instance that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) TaskStore
}
