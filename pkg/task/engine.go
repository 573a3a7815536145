// Package task implements the Batch Task Engine (spec.md §4.6): the
// incremental/update/full record-linkage runs that page PRIMARY units,
// call the Layered Matcher, and flush one bulk upsert per page to the
// Result Store Adapter. Grounded on ivy/pkg/kafka/consumer.go's
// goroutine + context.CancelFunc + sync.WaitGroup cancellation idiom,
// generalized from a single Kafka consume loop to a resumable paged scan
// with a bounded per-page worker pool.
package task

import (
	"context"
	"errors"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/meridian/config"
	"github.com/Ramsey-B/meridian/internal/linkageerr"
	"github.com/Ramsey-B/meridian/internal/retry"
	"github.com/Ramsey-B/meridian/internal/tracing"
	"github.com/Ramsey-B/meridian/pkg/events"
	"github.com/Ramsey-B/meridian/pkg/graph"
	"github.com/Ramsey-B/meridian/pkg/linkage"
	"github.com/Ramsey-B/meridian/pkg/models"
)

// storeRetryAttempts/storeRetryBase/storeRetryMax implement spec.md §7's
// "transient store errors ... retried with bounded exponential backoff
// (3 attempts)" for the Result Store Adapter calls this engine makes.
const (
	storeRetryAttempts = 3
	storeRetryBase     = 50 * time.Millisecond
	storeRetryMax      = 2 * time.Second
)

// PrimaryReader is the subset of units.PrimaryRepository the Engine needs:
// the id-ascending cursor (Page/PageUnmatched) and the two count forms
// start_match_task snapshots into total (spec.md §4.6 step 1).
type PrimaryReader interface {
	Page(ctx context.Context, afterID string, limit int) ([]models.Unit, error)
	PageUnmatched(ctx context.Context, afterID string, limit int) ([]models.Unit, error)
	Count(ctx context.Context) (int, error)
	CountUnmatched(ctx context.Context) (int, error)
}

// SecondaryFetcher hydrates a matched SECONDARY unit's snapshot fields for
// the LinkageResult the Engine builds after each Match call.
type SecondaryFetcher interface {
	Get(ctx context.Context, secondaryID string) (models.Unit, models.NormalizedUnit, bool, error)
}

// ResultStore is the subset of linkageresult.Repository the Engine needs to
// flush pages and read back a single row when deciding how to handle an
// errored record (spec.md §4.6 step 3).
type ResultStore interface {
	Get(ctx context.Context, primaryID string) (*models.LinkageResult, error)
	UpsertBatch(ctx context.Context, results []models.LinkageResult) (models.UpsertBatchResult, error)
	ClearAll(ctx context.Context) (int64, error)
}

// GraphSeeder supplies the SECONDARY records used to build the Layered
// Matcher's L4 shared-attribute arena eagerly at task start (spec.md Design
// Notes §9), rather than leaving it populated only by whatever L4 happens
// to touch during matching.
type GraphSeeder interface {
	ListRecentForGraph(ctx context.Context, limit int) (graph.SeedBatch, error)
}

// GraphProjector mirrors the L4 shared-attribute arena into Memgraph for
// operator inspection (spec.md Design Notes §9), backed by graph.Client's
// Bolt connection. Optional: nil leaves the in-memory arena as L4's only
// backing store. Best-effort — a projection failure never fails the task.
type GraphProjector interface {
	Project(ctx context.Context, secondaryUnits []models.Unit, edges []graph.SharedAttributePair) error
}

// Engine runs Batch Task Engine tasks against one PRIMARY source.
type Engine struct {
	primary        PrimaryReader
	secondary      SecondaryFetcher
	matcher        *linkage.Matcher
	results        ResultStore
	graphSeeder    GraphSeeder
	graphProjector GraphProjector
	emitter        *events.Emitter
	registry       *Registry
	cfg            config.Config
	logger         ectologger.Logger
	avgs           avgRegistry
}

// NewEngine builds an Engine. emitter may be nil (no lifecycle events
// published); graphSeeder may be nil (L4's arena is then only ever
// populated by whatever the matcher itself indexes); graphProjector may be
// nil (the arena is never mirrored to Memgraph).
func NewEngine(primary PrimaryReader, secondary SecondaryFetcher, matcher *linkage.Matcher, results ResultStore, graphSeeder GraphSeeder, graphProjector GraphProjector, emitter *events.Emitter, registry *Registry, cfg config.Config, logger ectologger.Logger) *Engine {
	return &Engine{
		primary:        primary,
		secondary:      secondary,
		matcher:        matcher,
		results:        results,
		graphSeeder:    graphSeeder,
		graphProjector: graphProjector,
		emitter:        emitter,
		registry:       registry,
		cfg:            cfg,
		logger:         logger,
	}
}

func validMode(mode models.TaskMode) bool {
	switch mode {
	case models.TaskModeIncremental, models.TaskModeUpdate, models.TaskModeFull:
		return true
	}
	return false
}

// Start validates and launches a new task, returning its initial state
// immediately; the scan itself runs in a detached goroutine (spec.md §4.6).
func (e *Engine) Start(ctx context.Context, req models.StartMatchTaskRequest) (models.TaskState, error) {
	ctx, span := tracing.StartSpan(ctx, "task.Engine.Start")
	defer span.End()

	if !validMode(req.Mode) {
		return models.TaskState{}, linkageerr.ErrInvalidMode
	}

	var total int
	var err error
	if req.Mode == models.TaskModeIncremental {
		total, err = e.primary.CountUnmatched(ctx)
	} else {
		total, err = e.primary.Count(ctx)
	}
	if err != nil {
		return models.TaskState{}, err
	}
	if total == 0 {
		return models.TaskState{}, linkageerr.ErrEmptyPrimary
	}

	state := &models.TaskState{
		TaskID:    uuid.NewString(),
		Mode:      req.Mode,
		Status:    models.TaskStatusRunning,
		Step:      models.TaskStepInitializing,
		StartedAt: time.Now().UTC(),
		Total:     total,
	}

	runCtx := context.Background()
	var cancel context.CancelFunc
	if e.cfg.TaskDeadlineSeconds > 0 {
		runCtx, cancel = context.WithTimeout(runCtx, time.Duration(e.cfg.TaskDeadlineSeconds)*time.Second)
	} else {
		runCtx, cancel = context.WithCancel(runCtx)
	}

	if err := e.registry.Start(state, cancel); err != nil {
		cancel()
		return models.TaskState{}, err
	}

	if e.emitter != nil {
		_ = e.emitter.EmitTaskStarted(ctx, *state)
	}

	go e.run(runCtx, state, req)

	return *state, nil
}

// Progress implements get_task_progress (spec.md §4.6, §6).
func (e *Engine) Progress(taskID string) (models.TaskProgress, error) {
	state, err := e.registry.Get(taskID)
	if err != nil {
		return models.TaskProgress{}, err
	}
	return computeProgress(state, e.avgFor(taskID)), nil
}

// Stop implements stop_task (spec.md §6): cancels a running task's context.
// The task itself flushes its in-flight page before transitioning to
// stopped (spec.md §4.6 step 5).
func (e *Engine) Stop(taskID string) error {
	return e.registry.Cancel(taskID)
}

func (e *Engine) run(ctx context.Context, state *models.TaskState, req models.StartMatchTaskRequest) {
	ctx, span := tracing.StartSpan(ctx, "task.Engine.run")
	defer span.End()
	defer e.registry.Finish(state.TaskID)

	avg := newMovingAverage(1000)
	e.registerAvg(state.TaskID, avg)

	batchSize := req.BatchSize
	if batchSize <= 0 {
		batchSize = e.cfg.BatchSize
	}
	workers := e.cfg.WorkersPerPage
	if workers <= 0 {
		workers = 1
	}
	perRecordDeadline := time.Duration(e.cfg.PerRecordDeadlineMs) * time.Millisecond

	clearExisting := req.ClearExisting || req.Mode == models.TaskModeFull
	if clearExisting {
		err := retry.Do(ctx, storeRetryAttempts, storeRetryBase, storeRetryMax, func() error {
			_, err := e.results.ClearAll(ctx)
			return err
		})
		if err != nil {
			e.fail(ctx, state, err)
			return
		}
	}

	if e.graphSeeder != nil {
		batch, err := e.graphSeeder.ListRecentForGraph(ctx, e.cfg.GraphRecentWindowN)
		if err != nil {
			e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"task_id": state.TaskID}).Warn("failed to seed L4 attribute graph, continuing without eager seed")
		} else {
			for _, seed := range batch.Seeds {
				e.matcher.SeedGraph(seed)
			}
			if e.graphProjector != nil {
				if err := e.graphProjector.Project(ctx, batch.Units, e.matcher.GraphEdges()); err != nil {
					e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"task_id": state.TaskID}).Warn("failed to mirror L4 attribute graph to Memgraph, continuing without projection")
				}
			}
		}
	}

	afterID := ""
	for {
		if err := ctx.Err(); err != nil {
			e.finishOnCancel(ctx, state, err)
			return
		}

		e.registry.Update(state.TaskID, func(s *models.TaskState) { s.Step = models.TaskStepReading })

		var page []models.Unit
		var err error
		if req.Mode == models.TaskModeIncremental {
			page, err = e.primary.PageUnmatched(ctx, afterID, batchSize)
		} else {
			page, err = e.primary.Page(ctx, afterID, batchSize)
		}
		if err != nil {
			e.fail(ctx, state, err)
			return
		}
		if len(page) == 0 {
			break
		}

		e.registry.Update(state.TaskID, func(s *models.TaskState) { s.Step = models.TaskStepMatching })

		start := time.Now()
		records := runPage(ctx, page, e.matcher, workers, perRecordDeadline)
		if len(page) > 0 {
			perRecord := time.Since(start) / time.Duration(len(page))
			for range page {
				avg.Add(perRecord)
			}
		}

		e.registry.Update(state.TaskID, func(s *models.TaskState) { s.Step = models.TaskStepFlushing })

		// The page's computed results are flushed even after a cancel; the
		// loop-top ctx check then moves the task to stopped.
		flushCtx := context.WithoutCancel(ctx)
		batch, processed, matched, skipped, errored := e.buildBatch(flushCtx, records)
		var upsertResult models.UpsertBatchResult
		if len(batch) > 0 {
			err = retry.Do(flushCtx, storeRetryAttempts, storeRetryBase, storeRetryMax, func() error {
				var uerr error
				upsertResult, uerr = e.results.UpsertBatch(flushCtx, batch)
				return uerr
			})
			if err != nil {
				e.fail(ctx, state, err)
				return
			}
		}

		lastID := page[len(page)-1].ID
		e.registry.Update(state.TaskID, func(s *models.TaskState) {
			s.Processed += processed
			s.Matched += matched
			s.Skipped += skipped
			s.Errored += errored
			s.Updated += upsertResult.Modified
			s.CurrentBatchIndex++
			s.LastProcessedPrimaryID = lastID
		})
		afterID = lastID

		if e.emitter != nil {
			snapshot, _ := e.registry.Get(state.TaskID)
			_ = e.emitter.EmitTaskProgress(ctx, snapshot)
		}

		if len(page) < batchSize {
			break
		}
	}

	now := time.Now().UTC()
	e.registry.Update(state.TaskID, func(s *models.TaskState) {
		s.Status = models.TaskStatusCompleted
		s.Step = models.TaskStepFinished
		s.EndedAt = &now
	})
	if e.emitter != nil {
		snapshot, _ := e.registry.Get(state.TaskID)
		_ = e.emitter.EmitTaskCompleted(ctx, snapshot)
	}
}

// buildBatch converts one page's match outcomes into LinkageResults,
// honoring spec.md §4.6 step 3's error handling: an errored record leaves
// an existing row unchanged and only creates a none-type placeholder when
// absent.
func (e *Engine) buildBatch(ctx context.Context, records []pageRecord) (batch []models.LinkageResult, processed, matched, skipped, errored int) {
	for _, r := range records {
		if !r.ok {
			skipped++
			continue
		}
		processed++

		if r.errored {
			errored++
			if _, err := e.results.Get(ctx, r.unit.ID); err == nil {
				continue // leave the existing row unchanged
			} else if !errors.Is(err, linkageerr.ErrNotFound) {
				continue // transient read failure: don't risk clobbering an unseen row
			}
			timedOut := linkage.Outcome{
				MatchType: models.MatchTypeNone,
				Explanation: models.MatchExplanation{
					Negative:    []string{"per-record deadline exceeded during matching"},
					FieldScores: map[string]float64{},
				},
			}
			batch = append(batch, e.buildResult(ctx, r.unit, timedOut, "transient error"))
			continue
		}

		if r.outcome.MatchType != models.MatchTypeNone {
			matched++
		}
		batch = append(batch, e.buildResult(ctx, r.unit, r.outcome, ""))
	}
	return batch, processed, matched, skipped, errored
}

func (e *Engine) buildResult(ctx context.Context, primary models.Unit, outcome linkage.Outcome, reviewNotes string) models.LinkageResult {
	result := models.LinkageResult{
		PrimaryID: primary.ID,
		PrimaryUnit: models.PrimaryUnit{
			PrimaryName:                primary.Name,
			PrimaryCreditCode:          primary.CreditCode,
			PrimaryAddress:             primary.Address,
			PrimaryLegalRepresentative: primary.LegalRepresentative,
			PrimarySafetyManager:       primary.SafetyManager,
			PrimaryContactPhone:        primary.ContactPhone,
			PrimaryBuildingID:          primary.BuildingID,
		},
		MatchedID:        outcome.MatchedID,
		MatchType:        outcome.MatchType,
		SimilarityScore:  outcome.SimilarityScore,
		MatchConfidence:  linkage.DeriveConfidence(outcome.MatchType, outcome.SimilarityScore),
		MatchExplanation: outcome.Explanation,
		ReviewNotes:      reviewNotes,
	}

	if outcome.MatchedID != "" {
		if secondary, _, found, err := e.secondary.Get(ctx, outcome.MatchedID); err == nil && found {
			result.MatchedUnit = models.MatchedUnit{
				MatchedName:                secondary.Name,
				MatchedCreditCode:          secondary.CreditCode,
				MatchedAddress:             secondary.Address,
				MatchedLegalRepresentative: secondary.LegalRepresentative,
				MatchedSafetyManager:       secondary.SafetyManager,
				MatchedContactPhone:        secondary.ContactPhone,
			}
		}
	}

	return result
}

func (e *Engine) fail(ctx context.Context, state *models.TaskState, err error) {
	now := time.Now().UTC()
	e.registry.Update(state.TaskID, func(s *models.TaskState) {
		s.Status = models.TaskStatusError
		s.Step = models.TaskStepFailed
		s.EndedAt = &now
		s.ErrorMessage = err.Error()
	})
	e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"task_id": state.TaskID}).Error("task failed")
	if e.emitter != nil {
		snapshot, _ := e.registry.Get(state.TaskID)
		_ = e.emitter.EmitTaskFailed(ctx, snapshot)
	}
}

// finishOnCancel distinguishes an explicit stop_task (context.Canceled,
// transitions to stopped per spec.md §4.6 step 5) from a task-deadline
// timeout (context.DeadlineExceeded, transitions to error).
func (e *Engine) finishOnCancel(ctx context.Context, state *models.TaskState, cause error) {
	now := time.Now().UTC()
	if errors.Is(cause, context.DeadlineExceeded) {
		e.registry.Update(state.TaskID, func(s *models.TaskState) {
			s.Status = models.TaskStatusError
			s.Step = models.TaskStepFailed
			s.EndedAt = &now
			s.ErrorMessage = "task deadline exceeded"
		})
		if e.emitter != nil {
			snapshot, _ := e.registry.Get(state.TaskID)
			_ = e.emitter.EmitTaskFailed(ctx, snapshot)
		}
		return
	}
	e.registry.Update(state.TaskID, func(s *models.TaskState) {
		s.Status = models.TaskStatusStopped
		s.Step = models.TaskStepFinished
		s.EndedAt = &now
	})
	if e.emitter != nil {
		snapshot, _ := e.registry.Get(state.TaskID)
		_ = e.emitter.EmitTaskStopped(ctx, snapshot)
	}
}
