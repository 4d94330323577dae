// Package api provides HTTP handlers for the API.
package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/taskboard/taskboard-api/internal/api/shared"
	"github.com/taskboard/taskboard-api/internal/domain"
	"github.com/taskboard/taskboard-api/internal/platform/logger"
	"github.com/taskboard/taskboard-api/internal/service"
	"github.com/taskboard/taskboard-api/internal/store"
)

// TaskHandler handles task-related HTTP requests.
type TaskHandler struct {
	taskService  service.TaskService
	queryService service.QueryService
	logger       *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(
	taskService service.TaskService,
	queryService service.QueryService,
	logger *slog.Logger,
) *TaskHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for TaskHandler")
	}

	return &TaskHandler{
		taskService:  taskService,
		queryService: queryService,
		logger:       logger.With(slog.String("component", "task_handler")),
	}
}

// Routes mounts the task endpoints on the given router.
func (h *TaskHandler) Routes(r chi.Router) {
	r.Route("/tasks", func(r chi.Router) {
		r.Post("/", h.CreateTask)
		r.Get("/", h.ListTasks)
		r.Get("/stats", h.GetStats)
		r.Post("/batch", h.BatchTasks)
		r.Get("/{id}", h.GetTask)
		r.Patch("/{id}", h.UpdateTask)
		r.Delete("/{id}", h.DeleteTask)
	})
}

// CreateTask handles POST /tasks requests.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		log.Warn("validation error", slog.String("error", err.Error()))
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	// The uuid tag already validated the format
	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid owner ID format")
		return
	}

	task, err := h.taskService.CreateTask(
		r.Context(),
		ownerID,
		req.Title,
		req.Description,
		domain.TaskPriority(req.Priority),
		req.DueDate,
	)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("owner_id", ownerID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, taskToResponse(task))
}

// ListTasks handles GET /tasks requests.
// Supported query parameters: owner (required), status, priority, search,
// from, to (RFC 3339 timestamps on creation time), page, limit.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	ownerID, err := uuid.Parse(r.URL.Query().Get("owner"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid or missing owner parameter")
		return
	}

	filter, err := parseTaskFilter(r)
	if err != nil {
		log.Warn("invalid filter parameter", slog.String("error", err.Error()))
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, GetSafeErrorMessage(err), err)
		return
	}

	page := parsePage(r)

	list, err := h.queryService.ListTasks(r.Context(), ownerID, filter, page)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), "Failed to list tasks", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, listToResponse(list.Tasks, list.Total, list.Page))
}

// GetStats handles GET /tasks/stats requests.
func (h *TaskHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.queryService.GetStats(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), "Failed to get task stats", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}

// GetTask handles GET /tasks/{id} requests.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := h.pathTaskID(w, r)
	if !ok {
		return
	}

	task, err := h.queryService.GetTask(r.Context(), taskID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// UpdateTask handles PATCH /tasks/{id} requests.
// Only fields present in the body are applied; a status change queues a
// notification as part of the same unit of work.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	taskID, ok := h.pathTaskID(w, r)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		log.Warn("validation error",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	update := domain.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
	}
	if req.Status != nil {
		status := domain.TaskStatus(*req.Status)
		update.Status = &status
	}
	if req.Priority != nil {
		priority := domain.TaskPriority(*req.Priority)
		update.Priority = &priority
	}

	task, err := h.taskService.UpdateTask(r.Context(), taskID, update)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// DeleteTask handles DELETE /tasks/{id} requests.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := h.pathTaskID(w, r)
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(r.Context(), taskID); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, DeleteResponse{
		Success: true,
		ID:      taskID.String(),
	})
}

// BatchTasks handles POST /tasks/batch requests.
// The "complete" action sets every listed task to completed and queues one
// notification per task that existed; "delete" removes them without
// notifications. Unknown actions get a 400.
func (h *TaskHandler) BatchTasks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req BatchRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		log.Warn("validation error", slog.String("error", err.Error()))
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	ids := make([]uuid.UUID, 0, len(req.Tasks))
	for _, raw := range req.Tasks {
		id, err := uuid.Parse(raw)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID format")
			return
		}
		ids = append(ids, id)
	}

	var affected int64
	affectedIDs := make([]string, 0, len(ids))

	switch req.Action {
	case BatchActionComplete:
		updated, err := h.taskService.BulkUpdateStatus(r.Context(), ids, domain.TaskStatusCompleted)
		if err != nil {
			shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), "Failed to complete tasks", err)
			return
		}
		affected = int64(len(updated))
		for _, task := range updated {
			affectedIDs = append(affectedIDs, task.ID.String())
		}

	case BatchActionDelete:
		deleted, err := h.taskService.BulkDeleteTasks(r.Context(), ids)
		if err != nil {
			shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), "Failed to delete tasks", err)
			return
		}
		affected = deleted
		for _, id := range ids {
			affectedIDs = append(affectedIDs, id.String())
		}

	default:
		log.Warn("unknown batch action", slog.String("action", req.Action))
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Unknown batch action", domain.ErrUnknownAction)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, BatchResponse{
		Success:  true,
		Affected: affected,
		TaskIDs:  affectedIDs,
	})
}

// pathTaskID extracts and parses the {id} path parameter, writing a 400
// response on failure.
func (h *TaskHandler) pathTaskID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	if raw == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Task ID is required")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID format")
		return uuid.Nil, false
	}

	return id, true
}

// parseTaskFilter builds a typed filter from the listing query parameters.
func parseTaskFilter(r *http.Request) (store.TaskFilter, error) {
	q := r.URL.Query()
	var filter store.TaskFilter

	if raw := q.Get("status"); raw != "" {
		status := domain.TaskStatus(raw)
		if !domain.IsValidStatus(status) {
			return filter, domain.ErrInvalidStatus
		}
		filter.Status = &status
	}

	if raw := q.Get("priority"); raw != "" {
		priority := domain.TaskPriority(raw)
		if !domain.IsValidPriority(priority) {
			return filter, domain.ErrInvalidPriority
		}
		filter.Priority = &priority
	}

	if raw := q.Get("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, domain.NewValidationError("from", "must be an RFC 3339 timestamp", domain.ErrValidation)
		}
		filter.CreatedFrom = &from
	}

	if raw := q.Get("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, domain.NewValidationError("to", "must be an RFC 3339 timestamp", domain.ErrValidation)
		}
		filter.CreatedTo = &to
	}

	filter.Search = q.Get("search")

	return filter, nil
}

// parsePage reads page/limit query parameters, falling back to defaults.
func parsePage(r *http.Request) store.Page {
	q := r.URL.Query()
	page := store.Page{Number: 1, Size: store.DefaultPageSize}

	if raw := q.Get("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			page.Number = n
		}
	}
	if raw := q.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			page.Size = n
		}
	}

	return page.Normalize()
}
