package models

import "time"

// TaskState is the per-task state the Batch Task Engine maintains
// (spec.md §4.6).
type TaskState struct {
	TaskID    string     `json:"task_id"`
	Mode      TaskMode   `json:"mode"`
	Status    TaskStatus `json:"status"`
	Step      TaskStep   `json:"current_step"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`

	Total    int `json:"total"`
	Processed int `json:"processed"`
	Matched   int `json:"matched"`
	Updated   int `json:"updated"`
	Skipped   int `json:"skipped"`
	Errored   int `json:"errored"`

	CurrentBatchIndex     int    `json:"current_batch_index"`
	LastProcessedPrimaryID string `json:"last_processed_primary_id"`

	// ErrorMessage carries the human-readable cause when Status is error.
	ErrorMessage string `json:"error_message,omitempty"`
}

// TaskProgress is the response shape for get_task_progress (spec.md §4.6, §6).
type TaskProgress struct {
	TaskID                     string     `json:"task_id"`
	Status                     TaskStatus `json:"status"`
	CurrentStep                TaskStep   `json:"current_step"`
	Total                      int        `json:"total"`
	Processed                  int        `json:"processed"`
	Matched                    int        `json:"matched"`
	ProgressPercent            float64    `json:"progress_percent"`
	MatchRate                  float64    `json:"match_rate"`
	ElapsedSeconds             float64    `json:"elapsed_seconds"`
	EstimatedRemainingSeconds  float64    `json:"estimated_remaining_seconds"`
}
