package task

import (
	"context"
	"sync"

	"github.com/Ramsey-B/meridian/internal/linkageerr"
	"github.com/Ramsey-B/meridian/pkg/models"
)

// Registry is the Batch Task Engine's single source of truth for task
// state and cancellation control. SPEC_FULL.md §4.6 calls for "a single
// explicitly-owned *Registry ... constructed once and passed to whatever
// process embeds this core" — exactly one Registry per PRIMARY source,
// enforcing spec.md §4.6's concurrency budget that at most one task runs
// at a time.
type Registry struct {
	mu      sync.Mutex
	states  map[string]*models.TaskState
	cancels map[string]context.CancelFunc
	running string
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		states:  make(map[string]*models.TaskState),
		cancels: make(map[string]context.CancelFunc),
	}
}

// Start registers a new running task. Returns linkageerr.ErrTaskAlreadyRunning
// if another task is currently running (spec.md §4.6 TASK_ALREADY_RUNNING).
func (r *Registry) Start(state *models.TaskState, cancel context.CancelFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running != "" {
		return linkageerr.ErrTaskAlreadyRunning
	}
	r.states[state.TaskID] = state
	r.cancels[state.TaskID] = cancel
	r.running = state.TaskID
	return nil
}

// Get returns a value copy of a task's state, so callers never race the
// engine's in-place counter updates.
func (r *Registry) Get(taskID string) (models.TaskState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.states[taskID]
	if !ok {
		return models.TaskState{}, linkageerr.ErrUnknownTask
	}
	return *state, nil
}

// Update mutates a task's state under the registry lock. No-op if the
// task_id is unknown.
func (r *Registry) Update(taskID string, mutate func(*models.TaskState)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.states[taskID]
	if !ok {
		return
	}
	mutate(state)
}

// Finish releases the single-running-task slot. Call once a task reaches a
// terminal status (completed/error/stopped); the task's state stays in the
// registry for later get_task_progress reads, only the concurrency slot
// and cancel func are cleared.
func (r *Registry) Finish(taskID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running == taskID {
		r.running = ""
	}
	delete(r.cancels, taskID)
}

// Cancel invokes the running task's CancelFunc (stop_task, spec.md §6).
func (r *Registry) Cancel(taskID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.states[taskID]
	if !ok {
		return linkageerr.ErrUnknownTask
	}
	if state.Status != models.TaskStatusRunning {
		return linkageerr.ErrTaskNotRunning
	}
	cancel, ok := r.cancels[taskID]
	if !ok {
		return linkageerr.ErrTaskNotRunning
	}
	cancel()
	return nil
}

// IsRunning reports whether any task currently holds the single running slot.
func (r *Registry) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running != ""
}
