package service

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/taskboard/taskboard-api/internal/domain"
	"github.com/taskboard/taskboard-api/internal/events"
	"github.com/taskboard/taskboard-api/internal/store"
)

// TaskRepository defines the repository interface for the service layer.
// This is aligned with store.TaskStore to ensure proper separation of concerns.
type TaskRepository interface {
	// Create saves a new task to the store
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// List retrieves the owner's tasks matching the filter
	List(ctx context.Context, ownerID uuid.UUID, filter store.TaskFilter, page store.Page) ([]*domain.Task, error)

	// Count returns the number of the owner's tasks matching the filter
	Count(ctx context.Context, ownerID uuid.UUID, filter store.TaskFilter) (int64, error)

	// UpdateFields applies a partial update and returns the stored state
	UpdateFields(ctx context.Context, id uuid.UUID, update domain.TaskUpdate) (*domain.Task, error)

	// Delete removes a task by its ID
	Delete(ctx context.Context, id uuid.UUID) error

	// BulkUpdateStatus applies one status to all ids, skipping missing ones
	BulkUpdateStatus(ctx context.Context, ids []uuid.UUID, status domain.TaskStatus) ([]*domain.Task, error)

	// BulkDelete removes all ids, skipping missing ones
	BulkDelete(ctx context.Context, ids []uuid.UUID) (int64, error)

	// GetStats returns a consistent snapshot of aggregate counts
	GetStats(ctx context.Context) (*store.TaskStats, error)

	// WithTx returns a new repository instance that uses the provided transaction.
	// This is used for transactional operations
	WithTx(tx *sql.Tx) TaskRepository

	// DB returns the underlying database connection
	DB() *sql.DB
}

// TaskService coordinates task mutations with status notifications.
// Every mutating operation runs as one unit: the store write and any required
// publish either both take durable effect or neither does.
type TaskService interface {
	// CreateTask creates a new task and publishes its creation notification
	CreateTask(
		ctx context.Context,
		ownerID uuid.UUID,
		title, description string,
		priority domain.TaskPriority,
		dueDate *time.Time,
	) (*domain.Task, error)

	// UpdateTask applies a partial update to a task; a status notification is
	// published only when the status actually changed
	UpdateTask(ctx context.Context, taskID uuid.UUID, update domain.TaskUpdate) (*domain.Task, error)

	// BulkUpdateStatus sets the status on every given task in one unit,
	// publishing one notification per task that existed
	BulkUpdateStatus(ctx context.Context, taskIDs []uuid.UUID, status domain.TaskStatus) ([]*domain.Task, error)

	// DeleteTask removes a task; deletion generates no notification
	DeleteTask(ctx context.Context, taskID uuid.UUID) error

	// BulkDeleteTasks removes every given task, skipping missing ids,
	// and returns the number of tasks deleted
	BulkDeleteTasks(ctx context.Context, taskIDs []uuid.UUID) (int64, error)
}

// taskServiceImpl implements the TaskService interface
type taskServiceImpl struct {
	taskRepo  TaskRepository
	publisher events.Publisher
	logger    *slog.Logger
}

// NewTaskService creates a new TaskService.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(
	taskRepo TaskRepository,
	publisher events.Publisher,
	logger *slog.Logger,
) (TaskService, error) {
	if taskRepo == nil {
		return nil, &TaskServiceError{
			Operation: "create_service",
			Message:   "taskRepo cannot be nil",
		}
	}
	if publisher == nil {
		return nil, &TaskServiceError{
			Operation: "create_service",
			Message:   "publisher cannot be nil",
		}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &taskServiceImpl{
		taskRepo:  taskRepo,
		publisher: publisher,
		logger:    logger.With("component", "task_service"),
	}, nil
}

// CreateTask creates a new task and publishes its creation notification.
// Both happen inside one transaction scope: if the publish fails the insert
// is rolled back, so no task exists whose status was never announced.
func (s *taskServiceImpl) CreateTask(
	ctx context.Context,
	ownerID uuid.UUID,
	title, description string,
	priority domain.TaskPriority,
	dueDate *time.Time,
) (*domain.Task, error) {
	task, err := domain.NewTask(ownerID, title, description, priority, dueDate)
	if err != nil {
		s.logger.Warn("failed to create task object",
			"error", err,
			"owner_id", ownerID)
		return nil, NewTaskServiceError("create_task", "failed to create task object", err)
	}

	err = store.RunInTransaction(ctx, s.taskRepo.DB(), func(ctx context.Context, tx *sql.Tx) error {
		txRepo := s.taskRepo.WithTx(tx)

		if err := txRepo.Create(ctx, task); err != nil {
			s.logger.Error("failed to create task in transaction",
				"error", err,
				"owner_id", ownerID,
				"task_id", task.ID)
			return NewTaskServiceError("create_task", "failed to save task to database", err)
		}

		// A new task always has a status, so creation always notifies.
		event := events.NewTaskStatusEvent(task.ID, task.Status)
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Error("failed to publish creation event, rolling back",
				"error", err,
				"task_id", task.ID,
				"event_id", event.ID)
			return NewTaskServiceError("create_task", "failed to publish status event", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("task created and notification queued",
		"task_id", task.ID,
		"owner_id", ownerID,
		"status", task.Status)
	return task, nil
}

// UpdateTask applies a partial update inside one transaction scope.
// The original status is captured before the update; a notification is
// published only when the status changed, and a publish failure rolls the
// store update back so the persisted status never diverges from what was
// announced.
func (s *taskServiceImpl) UpdateTask(
	ctx context.Context,
	taskID uuid.UUID,
	update domain.TaskUpdate,
) (*domain.Task, error) {
	var updated *domain.Task

	err := store.RunInTransaction(ctx, s.taskRepo.DB(), func(ctx context.Context, tx *sql.Tx) error {
		txRepo := s.taskRepo.WithTx(tx)

		current, err := txRepo.GetByID(ctx, taskID)
		if err != nil {
			s.logger.Warn("failed to retrieve task for update",
				"error", err,
				"task_id", taskID)
			return NewTaskServiceError("update_task", "failed to retrieve task", err)
		}
		originalStatus := current.Status

		updated, err = txRepo.UpdateFields(ctx, taskID, update)
		if err != nil {
			s.logger.Error("failed to update task in transaction",
				"error", err,
				"task_id", taskID)
			return NewTaskServiceError("update_task", "failed to save task update", err)
		}

		if updated.Status == originalStatus {
			return nil
		}

		event := events.NewTaskStatusEvent(updated.ID, updated.Status)
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Error("failed to publish status change event, rolling back",
				"error", err,
				"task_id", taskID,
				"from_status", originalStatus,
				"to_status", updated.Status,
				"event_id", event.ID)
			return NewTaskServiceError("update_task", "failed to publish status event", err)
		}

		s.logger.Info("task status changed",
			"task_id", taskID,
			"from_status", originalStatus,
			"to_status", updated.Status)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// BulkUpdateStatus sets the status on all given tasks as one store operation
// and publishes one event per task that existed, all inside one transaction
// scope. The bulk set is unconditional, so every surviving task notifies even
// if its status did not change. Any single publish failure rolls back the
// entire batch.
func (s *taskServiceImpl) BulkUpdateStatus(
	ctx context.Context,
	taskIDs []uuid.UUID,
	status domain.TaskStatus,
) ([]*domain.Task, error) {
	if !domain.IsValidStatus(status) {
		return nil, NewTaskServiceError("bulk_update_status", "invalid status", domain.ErrInvalidStatus)
	}

	var updated []*domain.Task

	err := store.RunInTransaction(ctx, s.taskRepo.DB(), func(ctx context.Context, tx *sql.Tx) error {
		txRepo := s.taskRepo.WithTx(tx)

		var err error
		updated, err = txRepo.BulkUpdateStatus(ctx, taskIDs, status)
		if err != nil {
			s.logger.Error("failed to bulk update status in transaction",
				"error", err,
				"id_count", len(taskIDs),
				"status", status)
			return NewTaskServiceError("bulk_update_status", "failed to apply bulk status update", err)
		}

		for _, task := range updated {
			event := events.NewTaskStatusEvent(task.ID, task.Status)
			if err := s.publisher.Publish(ctx, event); err != nil {
				s.logger.Error("failed to publish bulk status event, rolling back batch",
					"error", err,
					"task_id", task.ID,
					"status", task.Status,
					"event_id", event.ID)
				return NewTaskServiceError("bulk_update_status", "failed to publish status event", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("bulk status update committed",
		"requested", len(taskIDs),
		"updated", len(updated),
		"status", status)
	return updated, nil
}

// DeleteTask removes a task. Deletion does not generate a status-change
// notification, but the delete still runs in its own transaction so a
// caller disconnect cannot leave partial state.
func (s *taskServiceImpl) DeleteTask(ctx context.Context, taskID uuid.UUID) error {
	err := store.RunInTransaction(ctx, s.taskRepo.DB(), func(ctx context.Context, tx *sql.Tx) error {
		txRepo := s.taskRepo.WithTx(tx)

		if err := txRepo.Delete(ctx, taskID); err != nil {
			s.logger.Warn("failed to delete task",
				"error", err,
				"task_id", taskID)
			return NewTaskServiceError("delete_task", "failed to delete task", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("task deleted", "task_id", taskID)
	return nil
}

// BulkDeleteTasks removes every given task in one transaction, silently
// skipping ids without a backing record. No notifications are generated.
func (s *taskServiceImpl) BulkDeleteTasks(ctx context.Context, taskIDs []uuid.UUID) (int64, error) {
	var deleted int64

	err := store.RunInTransaction(ctx, s.taskRepo.DB(), func(ctx context.Context, tx *sql.Tx) error {
		txRepo := s.taskRepo.WithTx(tx)

		var err error
		deleted, err = txRepo.BulkDelete(ctx, taskIDs)
		if err != nil {
			s.logger.Error("failed to bulk delete tasks",
				"error", err,
				"id_count", len(taskIDs))
			return NewTaskServiceError("bulk_delete", "failed to delete tasks", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("bulk delete committed",
		"requested", len(taskIDs),
		"deleted", deleted)
	return deleted, nil
}
