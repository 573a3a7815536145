package task

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/meridian/internal/linkageerr"
	"github.com/Ramsey-B/meridian/pkg/models"
)

func newRunningState(id string) *models.TaskState {
	return &models.TaskState{
		TaskID:    id,
		Mode:      models.TaskModeFull,
		Status:    models.TaskStatusRunning,
		Step:      models.TaskStepReading,
		StartedAt: time.Now().UTC(),
		Total:     10,
	}
}

func TestRegistry_StartRejectsSecondConcurrentTask(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Start(newRunningState("a"), func() {}))

	err := r.Start(newRunningState("b"), func() {})
	assert.ErrorIs(t, err, linkageerr.ErrTaskAlreadyRunning)
	assert.True(t, r.IsRunning())
}

func TestRegistry_FinishReleasesSlotForNextTask(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Start(newRunningState("a"), func() {}))
	r.Finish("a")

	assert.False(t, r.IsRunning())
	require.NoError(t, r.Start(newRunningState("b"), func() {}))
}

func TestRegistry_GetUnknownTaskErrors(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("missing")
	assert.ErrorIs(t, err, linkageerr.ErrUnknownTask)
}

func TestRegistry_GetReturnsValueCopyNotLiveState(t *testing.T) {
	r := NewRegistry()
	state := newRunningState("a")
	require.NoError(t, r.Start(state, func() {}))

	snapshot, err := r.Get("a")
	require.NoError(t, err)

	r.Update("a", func(s *models.TaskState) { s.Processed = 5 })

	assert.Equal(t, 0, snapshot.Processed, "snapshot taken before Update should be unaffected")
	live, err := r.Get("a")
	require.NoError(t, err)
	assert.Equal(t, 5, live.Processed)
}

func TestRegistry_UpdateUnknownTaskIsNoop(t *testing.T) {
	r := NewRegistry()
	assert.NotPanics(t, func() {
		r.Update("missing", func(s *models.TaskState) { s.Processed = 1 })
	})
}

func TestRegistry_CancelUnknownTaskErrors(t *testing.T) {
	r := NewRegistry()
	err := r.Cancel("missing")
	assert.ErrorIs(t, err, linkageerr.ErrUnknownTask)
}

func TestRegistry_CancelNonRunningTaskErrors(t *testing.T) {
	r := NewRegistry()
	state := newRunningState("a")
	require.NoError(t, r.Start(state, func() {}))
	r.Update("a", func(s *models.TaskState) { s.Status = models.TaskStatusCompleted })

	err := r.Cancel("a")
	assert.ErrorIs(t, err, linkageerr.ErrTaskNotRunning)
}

func TestRegistry_CancelInvokesCancelFunc(t *testing.T) {
	r := NewRegistry()
	state := newRunningState("a")
	_, cancel := context.WithCancel(context.Background())
	called := false
	require.NoError(t, r.Start(state, func() { called = true; cancel() }))

	require.NoError(t, r.Cancel("a"))
	assert.True(t, called)
}

func TestRegistry_CancelAfterFinishErrorsNotRunning(t *testing.T) {
	r := NewRegistry()
	state := newRunningState("a")
	require.NoError(t, r.Start(state, func() {}))
	r.Finish("a")

	err := r.Cancel("a")
	assert.ErrorIs(t, err, linkageerr.ErrTaskNotRunning)
}
