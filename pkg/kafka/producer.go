// Package kafka publishes Batch Task Engine lifecycle events (spec.md §4.6)
// to the configured lifecycle topic. It never consumes — PRIMARY/SECONDARY
// records are read directly from Postgres (internal/repositories/units), so
// this module carries no CDC/ingestion consumer.
package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"

	"github.com/Ramsey-B/meridian/internal/tracing"
	"github.com/Ramsey-B/meridian/pkg/models"
)

// Producer handles task-lifecycle event emission.
type Producer struct {
	writer *kafka.Writer
	logger ectologger.Logger
	topic  string
}

// ProducerConfig holds Kafka producer configuration.
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int
	Compression  string
}

// NewProducer creates a new Kafka producer.
func NewProducer(cfg ProducerConfig, logger ectologger.Logger) *Producer {
	compression := kafka.Snappy
	switch cfg.Compression {
	case "gzip":
		compression = kafka.Gzip
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	case "none":
		compression = 0
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:            compression,
		AllowAutoTopicCreation: true,
	}

	return &Producer{writer: writer, logger: logger, topic: cfg.Topic}
}

// Close closes the producer.
func (p *Producer) Close() error {
	return p.writer.Close()
}

// TaskEvent is one lifecycle transition of a Batch Task Engine task
// (spec.md §4.6): started, progress, completed, stopped, or failed. It
// carries a snapshot of TaskState's counters so a consumer never needs to
// call back into get_task_progress to render a dashboard.
type TaskEvent struct {
	EventType string          `json:"event_type"` // task.started, task.progress, task.completed, task.stopped, task.failed
	TaskID    string          `json:"task_id"`
	Mode      models.TaskMode `json:"mode"`
	Status    models.TaskStatus `json:"status"`
	Step      models.TaskStep  `json:"current_step"`

	Total     int `json:"total"`
	Processed int `json:"processed"`
	Matched   int `json:"matched"`
	Updated   int `json:"updated"`
	Skipped   int `json:"skipped"`
	Errored   int `json:"errored"`

	ErrorMessage string    `json:"error_message,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// PublishTaskEvent publishes a single task-lifecycle event.
func (p *Producer) PublishTaskEvent(ctx context.Context, event TaskEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishTaskEvent")
	defer span.End()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.TaskID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "task_id", Value: []byte(event.TaskID)},
			{Key: "mode", Value: []byte(event.Mode)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.WithContext(ctx).WithError(err).Error("failed to publish task event")
		return err
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"event_type": event.EventType,
		"task_id":    event.TaskID,
		"status":     event.Status,
	}).Debug("published task event")

	return nil
}

// PublishTaskEvents publishes a batch of task-lifecycle events in one
// write, used when a page boundary produces more than one transition
// worth reporting at once.
func (p *Producer) PublishTaskEvents(ctx context.Context, events []TaskEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishTaskEvents")
	defer span.End()

	if len(events) == 0 {
		return nil
	}

	messages := make([]kafka.Message, len(events))
	for i, event := range events {
		if event.Timestamp.IsZero() {
			event.Timestamp = time.Now().UTC()
		}
		data, err := json.Marshal(event)
		if err != nil {
			return err
		}
		messages[i] = kafka.Message{
			Topic: p.topic,
			Key:   []byte(event.TaskID),
			Value: data,
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(event.EventType)},
				{Key: "task_id", Value: []byte(event.TaskID)},
				{Key: "mode", Value: []byte(event.Mode)},
			},
		}
	}

	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"batch_size": len(events)}).Error("failed to publish task events batch")
		return err
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{"batch_size": len(events)}).Debug("published task events batch")
	return nil
}
