// Package natsq provides a NATS JetStream implementation of the
// events.Publisher interface. JetStream file storage plus a synchronous
// publish ack give the durable at-least-once guarantee the coordinator
// relies on: a nil return from Publish means the broker has the event.
package natsq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/taskboard/taskboard-api/internal/events"
)

// Config holds NATS publisher configuration.
type Config struct {
	URL     string
	Stream  string
	Subject string
}

// DefaultConfig returns the default NATS publisher configuration.
func DefaultConfig() Config {
	return Config{
		URL:     "nats://localhost:4222",
		Stream:  "TASKS",
		Subject: "tasks.status",
	}
}

// Publisher publishes task status events to a JetStream stream.
type Publisher struct {
	nc      *nats.Conn
	js      jetstream.JetStream
	subject string
	logger  *slog.Logger
}

// Ensure Publisher implements the events.Publisher interface
var _ events.Publisher = (*Publisher)(nil)

// Connect establishes the NATS connection, ensures the stream exists, and
// returns a ready Publisher. The stream uses file storage so acknowledged
// events survive broker restarts.
func Connect(ctx context.Context, cfg Config, logger *slog.Logger) (*Publisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With(slog.String("component", "nats_publisher"))

	nc, err := nats.Connect(cfg.URL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        cfg.Stream,
		Description: "Task status notifications",
		Subjects:    []string{cfg.Subject},
		Retention:   jetstream.WorkQueuePolicy,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create stream: %w", err)
	}

	log.Info("connected to NATS",
		slog.String("url", cfg.URL),
		slog.String("stream", cfg.Stream))

	return &Publisher{
		nc:      nc,
		js:      js,
		subject: cfg.Subject,
		logger:  log,
	}, nil
}

// Publish implements events.Publisher.Publish
// It marshals the event and waits for the JetStream ack, so a nil return
// means the event is durably queued.
func (p *Publisher) Publish(ctx context.Context, event *events.TaskStatusEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal status event: %w", err)
	}

	// The event ID doubles as the message ID for broker-side dedup.
	ack, err := p.js.Publish(ctx, p.subject, data,
		jetstream.WithMsgID(event.ID.String()))
	if err != nil {
		p.logger.Error("failed to publish status event",
			slog.String("error", err.Error()),
			slog.String("task_id", event.TaskID.String()),
			slog.String("status", string(event.Status)))
		return fmt.Errorf("failed to publish status event: %w", err)
	}

	p.logger.Debug("status event published",
		slog.String("event_id", event.ID.String()),
		slog.String("task_id", event.TaskID.String()),
		slog.String("status", string(event.Status)),
		slog.Uint64("sequence", ack.Sequence))
	return nil
}

// Close drains the underlying NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}
