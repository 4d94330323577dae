package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/taskboard/taskboard-api/internal/domain"
	"github.com/taskboard/taskboard-api/internal/platform/logger"
	"github.com/taskboard/taskboard-api/internal/store"
)

// TaskList is one page of a task listing together with the total match count.
type TaskList struct {
	Tasks []*domain.Task
	Total int64
	Page  store.Page
}

// QueryService provides read-only access to tasks. It never mutates state
// and is safe to call concurrently with writers: reads go straight to the
// store without taking a coordinator transaction.
type QueryService interface {
	// GetTask retrieves a task by its ID
	GetTask(ctx context.Context, taskID uuid.UUID) (*domain.Task, error)

	// ListTasks retrieves the owner's tasks matching the filter, paginated
	// in creation order, along with the total match count
	ListTasks(ctx context.Context, ownerID uuid.UUID, filter store.TaskFilter, page store.Page) (*TaskList, error)

	// GetStats returns a consistent snapshot of aggregate task counts.
	// The snapshot is global across all owners.
	GetStats(ctx context.Context) (*store.TaskStats, error)
}

// queryServiceImpl implements the QueryService interface
type queryServiceImpl struct {
	taskRepo TaskRepository
	logger   *slog.Logger
}

// NewQueryService creates a new QueryService.
// It returns an error if the repository is nil.
func NewQueryService(taskRepo TaskRepository, logger *slog.Logger) (QueryService, error) {
	if taskRepo == nil {
		return nil, &TaskServiceError{
			Operation: "create_service",
			Message:   "taskRepo cannot be nil",
		}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &queryServiceImpl{
		taskRepo: taskRepo,
		logger:   logger.With("component", "query_service"),
	}, nil
}

// GetTask retrieves a task by its ID.
func (s *queryServiceImpl) GetTask(ctx context.Context, taskID uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		log.Debug("failed to retrieve task",
			"error", err,
			"task_id", taskID)
		return nil, NewTaskServiceError("get_task", "failed to retrieve task", err)
	}

	return task, nil
}

// ListTasks retrieves one page of the owner's tasks plus the total count of
// matches so callers can render pagination.
func (s *queryServiceImpl) ListTasks(
	ctx context.Context,
	ownerID uuid.UUID,
	filter store.TaskFilter,
	page store.Page,
) (*TaskList, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	page = page.Normalize()

	tasks, err := s.taskRepo.List(ctx, ownerID, filter, page)
	if err != nil {
		log.Error("failed to list tasks",
			"error", err,
			"owner_id", ownerID)
		return nil, NewTaskServiceError("list_tasks", "failed to list tasks", err)
	}

	total, err := s.taskRepo.Count(ctx, ownerID, filter)
	if err != nil {
		log.Error("failed to count tasks",
			"error", err,
			"owner_id", ownerID)
		return nil, NewTaskServiceError("list_tasks", "failed to count tasks", err)
	}

	return &TaskList{
		Tasks: tasks,
		Total: total,
		Page:  page,
	}, nil
}

// GetStats returns a consistent snapshot of aggregate task counts.
func (s *queryServiceImpl) GetStats(ctx context.Context) (*store.TaskStats, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	stats, err := s.taskRepo.GetStats(ctx)
	if err != nil {
		log.Error("failed to get task stats", "error", err)
		return nil, NewTaskServiceError("get_stats", "failed to get task stats", err)
	}

	return stats, nil
}
