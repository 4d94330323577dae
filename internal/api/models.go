package api

import (
	"time"

	"github.com/taskboard/taskboard-api/internal/domain"
	"github.com/taskboard/taskboard-api/internal/store"
)

// Common request/response structures

// CreateTaskRequest defines the payload for the task creation endpoint.
type CreateTaskRequest struct {
	OwnerID     string     `json:"owner_id"    validate:"required,uuid"`
	Title       string     `json:"title"       validate:"required,min=1,max=500"`
	Description string     `json:"description" validate:"max=5000"`
	Priority    string     `json:"priority"    validate:"required,oneof=low medium high"`
	DueDate     *time.Time `json:"due_date"`
}

// UpdateTaskRequest defines the payload for the partial task update endpoint.
// Absent fields leave the stored value unchanged.
type UpdateTaskRequest struct {
	Title       *string    `json:"title"       validate:"omitempty,min=1,max=500"`
	Description *string    `json:"description" validate:"omitempty,max=5000"`
	Status      *string    `json:"status"      validate:"omitempty,oneof=pending in_progress completed"`
	Priority    *string    `json:"priority"    validate:"omitempty,oneof=low medium high"`
	DueDate     *time.Time `json:"due_date"`
}

// Batch actions accepted by the batch endpoint.
const (
	BatchActionComplete = "complete"
	BatchActionDelete   = "delete"
)

// BatchRequest defines the payload for the bulk task endpoint.
type BatchRequest struct {
	Tasks  []string `json:"tasks"  validate:"required,min=1,dive,uuid"`
	Action string   `json:"action" validate:"required"`
}

// BatchResponse defines the result of a bulk task operation.
type BatchResponse struct {
	Success  bool     `json:"success"`
	Affected int64    `json:"affected"`
	TaskIDs  []string `json:"task_ids"`
}

// TaskResponse represents the response data for a task.
type TaskResponse struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TaskListResponse is the paginated listing envelope.
type TaskListResponse struct {
	Data  []TaskResponse `json:"data"`
	Count int64          `json:"count"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// DeleteResponse confirms a single-task deletion.
type DeleteResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

// taskToResponse converts a domain.Task to a TaskResponse.
func taskToResponse(task *domain.Task) TaskResponse {
	return TaskResponse{
		ID:          task.ID.String(),
		OwnerID:     task.OwnerID.String(),
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		Priority:    string(task.Priority),
		DueDate:     task.DueDate,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

// listToResponse converts a service.TaskList page to the listing envelope.
func listToResponse(tasks []*domain.Task, total int64, page store.Page) TaskListResponse {
	data := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		data = append(data, taskToResponse(task))
	}
	return TaskListResponse{
		Data:  data,
		Count: total,
		Page:  page.Number,
		Limit: page.Size,
	}
}
