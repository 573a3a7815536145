package task

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/meridian/internal/linkageerr"
	"github.com/Ramsey-B/meridian/pkg/linkage"
	"github.com/Ramsey-B/meridian/pkg/models"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestValidMode(t *testing.T) {
	assert.True(t, validMode(models.TaskModeIncremental))
	assert.True(t, validMode(models.TaskModeUpdate))
	assert.True(t, validMode(models.TaskModeFull))
	assert.False(t, validMode(models.TaskMode("bogus")))
	assert.False(t, validMode(models.TaskMode("")))
}

// fakeSecondaryFetcher hydrates MatchedUnit snapshots from a fixed map.
type fakeSecondaryFetcher struct {
	units map[string]models.Unit
}

func (f fakeSecondaryFetcher) Get(ctx context.Context, id string) (models.Unit, models.NormalizedUnit, bool, error) {
	u, ok := f.units[id]
	if !ok {
		return models.Unit{}, models.NormalizedUnit{}, false, nil
	}
	return u, models.NormalizedUnit{}, true, nil
}

// fakeResultStore is an in-memory ResultStore used to exercise buildBatch's
// errored-record handling without a database.
type fakeResultStore struct {
	byPrimaryID map[string]models.LinkageResult
}

func (f *fakeResultStore) Get(ctx context.Context, primaryID string) (*models.LinkageResult, error) {
	r, ok := f.byPrimaryID[primaryID]
	if !ok {
		return nil, linkageerr.ErrNotFound
	}
	return &r, nil
}

func (f *fakeResultStore) UpsertBatch(ctx context.Context, results []models.LinkageResult) (models.UpsertBatchResult, error) {
	for _, r := range results {
		f.byPrimaryID[r.PrimaryID] = r
	}
	return models.UpsertBatchResult{Modified: len(results)}, nil
}

func (f *fakeResultStore) ClearAll(ctx context.Context) (int64, error) {
	n := int64(len(f.byPrimaryID))
	f.byPrimaryID = map[string]models.LinkageResult{}
	return n, nil
}

func testEngine() (*Engine, *fakeResultStore) {
	store := &fakeResultStore{byPrimaryID: map[string]models.LinkageResult{}}
	e := &Engine{
		secondary: fakeSecondaryFetcher{units: map[string]models.Unit{
			"S1": {ID: "S1", Name: "MATCHED UNIT", CreditCode: "91000000MA1ABCDE0X"},
		}},
		results: store,
		logger:  testLogger(),
	}
	return e, store
}

func TestEngine_BuildResult_HydratesMatchedUnitWhenFound(t *testing.T) {
	e, _ := testEngine()
	outcome := linkage.Outcome{MatchedID: "S1", MatchType: models.MatchTypeExactCreditCode, SimilarityScore: 1.0}

	result := e.buildResult(context.Background(), models.Unit{ID: "P1", Name: "PRIMARY UNIT"}, outcome, "")

	assert.Equal(t, "P1", result.PrimaryID)
	assert.Equal(t, "PRIMARY UNIT", result.PrimaryUnit.PrimaryName)
	assert.Equal(t, "S1", result.MatchedID)
	assert.Equal(t, "MATCHED UNIT", result.MatchedUnit.MatchedName)
	assert.Equal(t, models.MatchTypeExactCreditCode, result.MatchType)
}

func TestEngine_BuildResult_NoneMatchLeavesMatchedUnitEmpty(t *testing.T) {
	e, _ := testEngine()
	outcome := linkage.Outcome{MatchType: models.MatchTypeNone}

	result := e.buildResult(context.Background(), models.Unit{ID: "P1"}, outcome, "")

	assert.Empty(t, result.MatchedID)
	assert.Empty(t, result.MatchedUnit.MatchedName)
}

func TestEngine_BuildBatch_SkipsUnprocessedRecords(t *testing.T) {
	e, _ := testEngine()
	records := []pageRecord{
		{unit: models.Unit{ID: "P1"}, ok: false},
	}

	batch, processed, matched, skipped, errored := e.buildBatch(context.Background(), records)

	assert.Empty(t, batch)
	assert.Equal(t, 0, processed)
	assert.Equal(t, 0, matched)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, 0, errored)
}

func TestEngine_BuildBatch_CountsMatchedAndNoneOutcomes(t *testing.T) {
	e, _ := testEngine()
	records := []pageRecord{
		{unit: models.Unit{ID: "P1"}, ok: true, outcome: linkage.Outcome{MatchType: models.MatchTypeExactCreditCode, MatchedID: "S1"}},
		{unit: models.Unit{ID: "P2"}, ok: true, outcome: linkage.Outcome{MatchType: models.MatchTypeNone}},
	}

	batch, processed, matched, skipped, errored := e.buildBatch(context.Background(), records)

	require.Len(t, batch, 2)
	assert.Equal(t, 2, processed)
	assert.Equal(t, 1, matched)
	assert.Equal(t, 0, skipped)
	assert.Equal(t, 0, errored)
}

func TestEngine_BuildBatch_ErroredRecordWithExistingRowLeavesItUntouched(t *testing.T) {
	e, store := testEngine()
	existing := models.LinkageResult{PrimaryID: "P1", MatchType: models.MatchTypeExactCreditCode, MatchedID: "S1"}
	store.byPrimaryID["P1"] = existing

	records := []pageRecord{{unit: models.Unit{ID: "P1"}, ok: true, errored: true}}
	batch, processed, matched, skipped, errored := e.buildBatch(context.Background(), records)

	assert.Empty(t, batch, "an existing row must not be overwritten by an errored record")
	assert.Equal(t, 1, processed)
	assert.Equal(t, 0, matched)
	assert.Equal(t, 0, skipped)
	assert.Equal(t, 1, errored)
	assert.Equal(t, existing, store.byPrimaryID["P1"])
}

func TestEngine_BuildBatch_ErroredRecordWithNoExistingRowCreatesNonePlaceholder(t *testing.T) {
	e, _ := testEngine()
	records := []pageRecord{{unit: models.Unit{ID: "P2", Name: "NEW UNIT"}, ok: true, errored: true}}

	batch, processed, matched, skipped, errored := e.buildBatch(context.Background(), records)

	require.Len(t, batch, 1)
	assert.Equal(t, models.MatchTypeNone, batch[0].MatchType)
	assert.Equal(t, "transient error", batch[0].ReviewNotes)
	assert.Equal(t, 1, processed)
	assert.Equal(t, 0, matched)
	assert.Equal(t, 0, skipped)
	assert.Equal(t, 1, errored)
}

// erroringResultStore.Get always fails with a non-ErrNotFound error, to
// exercise buildBatch's "don't risk clobbering an unseen row" branch.
type erroringResultStore struct {
	fakeResultStore
}

func (e *erroringResultStore) Get(ctx context.Context, primaryID string) (*models.LinkageResult, error) {
	return nil, errors.New("transient database error")
}

func TestEngine_BuildBatch_ErroredRecordWithUnreadableExistingRowSkipsDefensively(t *testing.T) {
	e := &Engine{
		secondary: fakeSecondaryFetcher{},
		results:   &erroringResultStore{fakeResultStore{byPrimaryID: map[string]models.LinkageResult{}}},
		logger:    testLogger(),
	}
	records := []pageRecord{{unit: models.Unit{ID: "P3"}, ok: true, errored: true}}

	batch, processed, matched, skipped, errored := e.buildBatch(context.Background(), records)

	assert.Empty(t, batch)
	assert.Equal(t, 1, processed)
	assert.Equal(t, 0, matched)
	assert.Equal(t, 0, skipped)
	assert.Equal(t, 1, errored)
}
