package events

import (
	"context"
	"log/slog"
	"sync"
)

// MemoryPublisher is an in-memory implementation of the Publisher interface
// that records published events. It is used by tests and local development
// in place of a real broker, and can be armed to fail to exercise the
// coordinator's rollback path.
type MemoryPublisher struct {
	mu       sync.Mutex
	events   []*TaskStatusEvent
	failWith error
	logger   *slog.Logger
}

// NewMemoryPublisher creates a new instance of MemoryPublisher.
func NewMemoryPublisher(logger *slog.Logger) *MemoryPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryPublisher{
		events: make([]*TaskStatusEvent, 0),
		logger: logger.With("component", "memory_publisher"),
	}
}

// Ensure MemoryPublisher implements the Publisher interface
var _ Publisher = (*MemoryPublisher)(nil)

// Publish records the event, or returns the armed failure without recording.
func (p *MemoryPublisher) Publish(ctx context.Context, event *TaskStatusEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failWith != nil {
		p.logger.Debug("publish failing as armed",
			"task_id", event.TaskID,
			"status", event.Status)
		return p.failWith
	}

	p.events = append(p.events, event)
	p.logger.Debug("event recorded",
		"event_id", event.ID,
		"task_id", event.TaskID,
		"status", event.Status,
		"queue_len", len(p.events))
	return nil
}

// FailWith arms the publisher to return err from every subsequent Publish
// call. Pass nil to disarm.
func (p *MemoryPublisher) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failWith = err
}

// Events returns a copy of the recorded events in publish order.
func (p *MemoryPublisher) Events() []*TaskStatusEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*TaskStatusEvent, len(p.events))
	copy(out, p.events)
	return out
}

// Reset clears all recorded events.
func (p *MemoryPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = p.events[:0]
}
