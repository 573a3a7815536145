// Package linkageerr defines the in-process domain errors returned by the
// Batch Task Engine, Result Store Adapter, and Aggregator contract
// operations (spec.md §6, §7). These are sentinel errors checked with
// errors.Is, not ectoerror/httperror values: the operations they come from
// are Go method calls on task.Engine / linkageresult.Repository /
// association.Repository, not HTTP handlers, so there is no status code to
// attach.
package linkageerr

import "errors"

var (
	// ErrTaskAlreadyRunning is returned by start_match_task when a task is
	// already running for the same PRIMARY source (§4.6 concurrency budget).
	ErrTaskAlreadyRunning = errors.New("TASK_ALREADY_RUNNING")

	// ErrInvalidMode is returned by start_match_task for an unrecognized mode.
	ErrInvalidMode = errors.New("INVALID_MODE")

	// ErrEmptyPrimary is returned by start_match_task when the PRIMARY source
	// has no records to process for the requested mode.
	ErrEmptyPrimary = errors.New("EMPTY_PRIMARY")

	// ErrUnknownTask is returned by get_task_progress/stop_task for an
	// unrecognized task_id.
	ErrUnknownTask = errors.New("UNKNOWN_TASK")

	// ErrTaskNotRunning is returned by stop_task when the task has already
	// reached a terminal state.
	ErrTaskNotRunning = errors.New("TASK_NOT_RUNNING")

	// ErrNotFound is returned by get_result/set_review_status when no record
	// matches the given identity.
	ErrNotFound = errors.New("NOT_FOUND")

	// ErrStaleReview is returned by set_review_status when the compare-and-set
	// on updated_time loses a race with another writer (§5 shared-resource policy).
	ErrStaleReview = errors.New("STALE_REVIEW")

	// ErrInvalidReviewTransition is returned by set_review_status for an
	// unrecognized status value, or for a status value that is not a legal
	// move from the record's current review_status in the review state
	// machine (§3 invariant 5: pending -> approved|rejected; either terminal
	// state may return to pending; no other transition is permitted).
	ErrInvalidReviewTransition = errors.New("INVALID_REVIEW_TRANSITION")

	// ErrAggregationFailed is returned by start_enhanced_association when the
	// server-side pipeline fails.
	ErrAggregationFailed = errors.New("AGGREGATION_FAILED")
)
