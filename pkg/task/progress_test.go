package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/meridian/pkg/models"
)

func TestMovingAverage_MeanOfPartialWindow(t *testing.T) {
	m := newMovingAverage(5)
	m.Add(10 * time.Millisecond)
	m.Add(20 * time.Millisecond)

	assert.Equal(t, 15*time.Millisecond, m.Mean())
}

func TestMovingAverage_EmptyWindowMeansZero(t *testing.T) {
	m := newMovingAverage(5)
	assert.Equal(t, time.Duration(0), m.Mean())
}

func TestMovingAverage_EvictsOldestPastCapacity(t *testing.T) {
	m := newMovingAverage(3)
	m.Add(10 * time.Millisecond)
	m.Add(10 * time.Millisecond)
	m.Add(10 * time.Millisecond)
	// capacity is 3; this 4th add evicts the first 10ms sample
	m.Add(40 * time.Millisecond)

	assert.Equal(t, 20*time.Millisecond, m.Mean())
}

func TestComputeProgress_PercentAndMatchRate(t *testing.T) {
	state := models.TaskState{
		TaskID:    "a",
		Status:    models.TaskStatusRunning,
		Total:     200,
		Processed: 50,
		Matched:   30,
		StartedAt: time.Now().Add(-10 * time.Second),
	}

	progress := computeProgress(state, nil)

	assert.InDelta(t, 25.0, progress.ProgressPercent, 0.001)
	assert.InDelta(t, 0.6, progress.MatchRate, 0.001)
	assert.InDelta(t, 10.0, progress.ElapsedSeconds, 0.5)
}

func TestComputeProgress_ZeroTotalOrProcessedLeavesRatesZero(t *testing.T) {
	state := models.TaskState{TaskID: "a", Status: models.TaskStatusRunning}
	progress := computeProgress(state, nil)

	assert.Equal(t, 0.0, progress.ProgressPercent)
	assert.Equal(t, 0.0, progress.MatchRate)
}

func TestComputeProgress_EstimatedRemainingUsesMovingAverage(t *testing.T) {
	avg := newMovingAverage(1000)
	avg.Add(2 * time.Second)

	state := models.TaskState{
		TaskID:    "a",
		Status:    models.TaskStatusRunning,
		Total:     10,
		Processed: 5,
		StartedAt: time.Now(),
	}

	progress := computeProgress(state, avg)
	assert.InDelta(t, 10.0, progress.EstimatedRemainingSeconds, 0.001)
}

func TestComputeProgress_NoEstimateWhenNotRunning(t *testing.T) {
	avg := newMovingAverage(1000)
	avg.Add(2 * time.Second)

	state := models.TaskState{
		TaskID:    "a",
		Status:    models.TaskStatusCompleted,
		Total:     10,
		Processed: 5,
		StartedAt: time.Now(),
	}

	progress := computeProgress(state, avg)
	assert.Equal(t, 0.0, progress.EstimatedRemainingSeconds)
}

func TestComputeProgress_NoEstimateWhenNothingRemaining(t *testing.T) {
	avg := newMovingAverage(1000)
	avg.Add(2 * time.Second)

	state := models.TaskState{
		TaskID:    "a",
		Status:    models.TaskStatusRunning,
		Total:     10,
		Processed: 10,
		StartedAt: time.Now(),
	}

	progress := computeProgress(state, avg)
	assert.Equal(t, 0.0, progress.EstimatedRemainingSeconds)
}

func TestComputeProgress_ElapsedUsesEndedAtWhenSet(t *testing.T) {
	started := time.Now().Add(-30 * time.Second)
	ended := started.Add(20 * time.Second)
	state := models.TaskState{
		TaskID:    "a",
		Status:    models.TaskStatusCompleted,
		StartedAt: started,
		EndedAt:   &ended,
	}

	progress := computeProgress(state, nil)
	assert.InDelta(t, 20.0, progress.ElapsedSeconds, 0.001)
}
