// Package events publishes Batch Task Engine lifecycle transitions through
// the Kafka producer (spec.md §4.6's "lifecycle events" surface, SPEC_FULL.md
// §4.6). The Engine calls these at each state change; a nil Emitter is a
// valid no-op configuration for callers that don't wire Kafka.
package events

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/meridian/internal/tracing"
	"github.com/Ramsey-B/meridian/pkg/kafka"
	"github.com/Ramsey-B/meridian/pkg/models"
)

// Emitter publishes task-lifecycle events.
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter.
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{producer: producer, logger: logger}
}

func (e *Emitter) publish(ctx context.Context, eventType string, state models.TaskState) error {
	event := kafka.TaskEvent{
		EventType:    eventType,
		TaskID:       state.TaskID,
		Mode:         state.Mode,
		Status:       state.Status,
		Step:         state.Step,
		Total:        state.Total,
		Processed:    state.Processed,
		Matched:      state.Matched,
		Updated:      state.Updated,
		Skipped:      state.Skipped,
		Errored:      state.Errored,
		ErrorMessage: state.ErrorMessage,
	}
	if err := e.producer.PublishTaskEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"event_type": eventType, "task_id": state.TaskID}).Error("failed to emit task event")
		return err
	}
	return nil
}

// EmitTaskStarted emits task.started when a task transitions into running.
func (e *Emitter) EmitTaskStarted(ctx context.Context, state models.TaskState) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitTaskStarted")
	defer span.End()
	return e.publish(ctx, "task.started", state)
}

// EmitTaskProgress emits task.progress at each page-flush boundary
// (spec.md §4.6's per-page counter update), not per record.
func (e *Emitter) EmitTaskProgress(ctx context.Context, state models.TaskState) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitTaskProgress")
	defer span.End()
	return e.publish(ctx, "task.progress", state)
}

// EmitTaskCompleted emits task.completed when a task reaches its terminal
// completed state.
func (e *Emitter) EmitTaskCompleted(ctx context.Context, state models.TaskState) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitTaskCompleted")
	defer span.End()
	return e.publish(ctx, "task.completed", state)
}

// EmitTaskStopped emits task.stopped when stop_task cancels a running task.
func (e *Emitter) EmitTaskStopped(ctx context.Context, state models.TaskState) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitTaskStopped")
	defer span.End()
	return e.publish(ctx, "task.stopped", state)
}

// EmitTaskFailed emits task.failed when a task aborts with an unrecoverable
// error (state.ErrorMessage carries the cause).
func (e *Emitter) EmitTaskFailed(ctx context.Context, state models.TaskState) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitTaskFailed")
	defer span.End()
	return e.publish(ctx, "task.failed", state)
}
