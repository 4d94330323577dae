package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/taskboard/taskboard-api/internal/domain"
)

// TaskStatusEvent is the notification pushed onto the work queue whenever a
// task's status changes (or a task is created). The event ID lets downstream
// consumers deduplicate under at-least-once delivery.
type TaskStatusEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// TaskID identifies the task whose status changed
	TaskID uuid.UUID `json:"task_id"`

	// Status is the task's status after the change
	Status domain.TaskStatus `json:"status"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// NewTaskStatusEvent creates a new TaskStatusEvent for the given task and status.
func NewTaskStatusEvent(taskID uuid.UUID, status domain.TaskStatus) *TaskStatusEvent {
	return &TaskStatusEvent{
		ID:        uuid.New(),
		TaskID:    taskID,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
}

// Publisher defines the contract for durably enqueuing status notifications.
// A nil return means the event is durably queued and will be delivered
// at least once to downstream consumers; any error means nothing was queued.
type Publisher interface {
	// Publish appends the event to the queue.
	// Returns an error if the event cannot be durably queued.
	Publish(ctx context.Context, event *TaskStatusEvent) error
}
