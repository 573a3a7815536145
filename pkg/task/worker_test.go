package task

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/meridian/pkg/linkage"
	"github.com/Ramsey-B/meridian/pkg/models"
	"github.com/Ramsey-B/meridian/pkg/normalize"
)

// emptySecondarySource answers every candidate lookup with no rows, so
// Match always falls through to MatchTypeNone without touching a database.
type emptySecondarySource struct{}

func (emptySecondarySource) ByCreditCode(ctx context.Context, creditCode string) ([]string, error) {
	return nil, nil
}
func (emptySecondarySource) ByNameCanonical(ctx context.Context, nameCanonical string) ([]string, error) {
	return nil, nil
}
func (emptySecondarySource) ByNameSlices(ctx context.Context, slices []string, limit int) ([]string, error) {
	return nil, nil
}
func (emptySecondarySource) SearchNameText(ctx context.Context, tokens []string, limit int) ([]string, error) {
	return nil, nil
}
func (emptySecondarySource) ByAddressKeywords(ctx context.Context, keywords []string, limit int) ([]string, error) {
	return nil, nil
}
func (emptySecondarySource) Get(ctx context.Context, id string) (models.Unit, models.NormalizedUnit, bool, error) {
	return models.Unit{}, models.NormalizedUnit{}, false, nil
}

func newNoneMatcher() *linkage.Matcher {
	store := emptySecondarySource{}
	n := normalize.NewNormalizer(normalize.DefaultConfig())
	pf := linkage.NewPrefilter(store, linkage.DefaultPrefilterConfig())
	return linkage.NewMatcher(store, store, pf, nil, n, linkage.DefaultMatcherConfig())
}

func unitsWithIDs(ids ...string) []models.Unit {
	units := make([]models.Unit, len(ids))
	for i, id := range ids {
		units[i] = models.Unit{ID: id, Name: "UNIT " + id}
	}
	return units
}

func TestRunPage_ProcessesEveryUnitInOrder(t *testing.T) {
	matcher := newNoneMatcher()
	units := unitsWithIDs("P1", "P2", "P3")

	results := runPage(context.Background(), units, matcher, 2, 0)

	require.Len(t, results, 3)
	for i, r := range results {
		assert.True(t, r.ok)
		assert.False(t, r.errored)
		assert.Equal(t, units[i].ID, r.unit.ID)
		assert.Equal(t, models.MatchTypeNone, r.outcome.MatchType)
	}
}

func TestRunPage_CancelledContextReturnsFullLengthSliceWithoutHanging(t *testing.T) {
	matcher := newNoneMatcher()
	units := unitsWithIDs("P1", "P2", "P3", "P4", "P5")

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // already cancelled before the fan-out begins

	done := make(chan []pageRecord, 1)
	go func() { done <- runPage(ctx, units, matcher, 1, 0) }()

	select {
	case results := <-done:
		// Cancellation is cooperative (checked between dispatching records, not
		// mid-record), so some units may still have been fed to the worker
		// before the feed loop observed ctx.Done(); only the slice shape is
		// guaranteed, not exactly how many got marked ok.
		require.Len(t, results, 5)
		for _, r := range results {
			if !r.ok {
				assert.Equal(t, linkage.Outcome{}, r.outcome)
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("runPage did not return after the context was cancelled")
	}
}

func TestRunPage_SingleWorkerStillCompletesPage(t *testing.T) {
	matcher := newNoneMatcher()
	units := unitsWithIDs("P1", "P2")

	results := runPage(context.Background(), units, matcher, 1, 0)

	require.Len(t, results, 2)
	assert.True(t, results[0].ok)
	assert.True(t, results[1].ok)
}

func TestRunPage_ZeroOrNegativeWorkersTreatedAsOne(t *testing.T) {
	matcher := newNoneMatcher()
	units := unitsWithIDs("P1")

	results := runPage(context.Background(), units, matcher, 0, 0)

	require.Len(t, results, 1)
	assert.True(t, results[0].ok)
}

func TestRunPage_EmptyPageReturnsEmptySlice(t *testing.T) {
	matcher := newNoneMatcher()
	results := runPage(context.Background(), nil, matcher, 4, 0)
	assert.Empty(t, results)
}

func TestRunPage_PerRecordDeadlineDoesNotFlagFastMatches(t *testing.T) {
	matcher := newNoneMatcher()
	units := unitsWithIDs("P1")

	results := runPage(context.Background(), units, matcher, 1, time.Second)

	require.Len(t, results, 1)
	assert.False(t, results[0].errored)
}
