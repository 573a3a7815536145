package task

import (
	"sync"
	"time"

	"github.com/Ramsey-B/meridian/pkg/models"
)

// movingAverage is a fixed-capacity ring buffer averaging per-record
// elapsed time over the most recent N records (spec.md §4.6: "a simple
// moving average of per-record elapsed time over the last 1 000 records").
type movingAverage struct {
	mu     sync.Mutex
	window []time.Duration
	cap    int
	next   int
	filled bool
	sum    time.Duration
}

func newMovingAverage(capacity int) *movingAverage {
	return &movingAverage{window: make([]time.Duration, capacity), cap: capacity}
}

// Add records one per-record elapsed time. The engine calls it once for each
// record of a page, each time with the page's mean, since the worker pool
// computes a page's records concurrently and no single per-record
// wall-clock duration exists.
func (m *movingAverage) Add(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old := m.window[m.next]
	m.window[m.next] = d
	m.sum += d - old
	m.next = (m.next + 1) % m.cap
	if m.next == 0 {
		m.filled = true
	}
}

// Mean returns the current average, or 0 if nothing has been recorded yet.
func (m *movingAverage) Mean() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.next
	if m.filled {
		n = m.cap
	}
	if n == 0 {
		return 0
	}
	return m.sum / time.Duration(n)
}

// avgs holds each running task's moving-average tracker, keyed by task_id.
// Kept out of models.TaskState (the public, serializable shape) since it's
// purely an internal ETA estimator.
type avgRegistry struct {
	mu   sync.Mutex
	byID map[string]*movingAverage
}

func (e *Engine) registerAvg(taskID string, avg *movingAverage) {
	e.avgs.mu.Lock()
	defer e.avgs.mu.Unlock()
	if e.avgs.byID == nil {
		e.avgs.byID = make(map[string]*movingAverage)
	}
	e.avgs.byID[taskID] = avg
}

func (e *Engine) avgFor(taskID string) *movingAverage {
	e.avgs.mu.Lock()
	defer e.avgs.mu.Unlock()
	return e.avgs.byID[taskID]
}

// computeProgress derives the get_task_progress response shape (spec.md
// §4.6, §6) from a task's current state and its ETA tracker.
func computeProgress(state models.TaskState, avg *movingAverage) models.TaskProgress {
	progress := models.TaskProgress{
		TaskID:      state.TaskID,
		Status:      state.Status,
		CurrentStep: state.Step,
		Total:       state.Total,
		Processed:   state.Processed,
		Matched:     state.Matched,
	}

	if state.Total > 0 {
		progress.ProgressPercent = float64(state.Processed) / float64(state.Total) * 100
	}
	if state.Processed > 0 {
		progress.MatchRate = float64(state.Matched) / float64(state.Processed)
	}

	end := time.Now()
	if state.EndedAt != nil {
		end = *state.EndedAt
	}
	progress.ElapsedSeconds = end.Sub(state.StartedAt).Seconds()

	if state.Status == models.TaskStatusRunning && avg != nil {
		remaining := state.Total - state.Processed
		if remaining > 0 {
			if mean := avg.Mean(); mean > 0 {
				progress.EstimatedRemainingSeconds = (mean * time.Duration(remaining)).Seconds()
			}
		}
	}

	return progress
}
