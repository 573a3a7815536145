package linkageresult

import (
	"strings"
	"testing"

	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/meridian/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestValidReviewStatus(t *testing.T) {
	tests := []struct {
		name   string
		status models.ReviewStatus
		want   bool
	}{
		{"pending", models.ReviewStatusPending, true},
		{"approved", models.ReviewStatusApproved, true},
		{"rejected", models.ReviewStatusRejected, true},
		{"empty", models.ReviewStatus(""), false},
		{"unknown", models.ReviewStatus("archived"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, validReviewStatus(tt.status))
		})
	}
}

func TestValidReviewTransition(t *testing.T) {
	tests := []struct {
		name string
		from models.ReviewStatus
		to   models.ReviewStatus
		want bool
	}{
		{"pending to approved", models.ReviewStatusPending, models.ReviewStatusApproved, true},
		{"pending to rejected", models.ReviewStatusPending, models.ReviewStatusRejected, true},
		{"pending to pending", models.ReviewStatusPending, models.ReviewStatusPending, false},
		{"approved to pending", models.ReviewStatusApproved, models.ReviewStatusPending, true},
		{"rejected to pending", models.ReviewStatusRejected, models.ReviewStatusPending, true},
		{"approved to rejected", models.ReviewStatusApproved, models.ReviewStatusRejected, false},
		{"rejected to approved", models.ReviewStatusRejected, models.ReviewStatusApproved, false},
		{"approved to approved", models.ReviewStatusApproved, models.ReviewStatusApproved, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, validReviewTransition(tt.from, tt.to))
		})
	}
}

func TestColumnList_MatchesResultColumns(t *testing.T) {
	got := columnList()
	assert.Equal(t, strings.Join(resultColumns, ", "), got)
	assert.Contains(t, got, "match_id")
	assert.Contains(t, got, "updated_time")
}

func TestApplyIterPendingFilter_NoFilterYieldsNoPredicates(t *testing.T) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(resultColumns...)
	sb.From("linkage_results")

	where := applyIterPendingFilter(sb, models.IterPendingFilter{})
	assert.Empty(t, where)
}

func TestApplyIterPendingFilter_MatchTypeAndReviewStatus(t *testing.T) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(resultColumns...)
	sb.From("linkage_results")

	where := applyIterPendingFilter(sb, models.IterPendingFilter{
		MatchType:    models.MatchTypeFuzzyPrefiltered,
		ReviewStatus: models.ReviewStatusPending,
	})
	require := assert.New(t)
	require.Len(where, 2)
	sb.Where(where...)
	query, args := sb.Build()
	require.Contains(query, "match_type")
	require.Contains(query, "review_status")
	require.Contains(query, "AND")
	require.Equal([]interface{}{models.MatchTypeFuzzyPrefiltered, models.ReviewStatusPending}, args)
}

func TestApplyIterPendingFilter_NameQueryIsOredAcrossBothNames(t *testing.T) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(resultColumns...)
	sb.From("linkage_results")

	where := applyIterPendingFilter(sb, models.IterPendingFilter{NameQuery: "acme"})
	require := assert.New(t)
	require.Len(where, 1)
	sb.Where(where...)
	query, args := sb.Build()
	require.Contains(query, "ILIKE")
	require.Contains(query, "OR")
	require.Equal([]interface{}{"%acme%", "%acme%"}, args)
}

func TestApplyIterPendingFilter_AllThreeCombineWithAnd(t *testing.T) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(resultColumns...)
	sb.From("linkage_results")

	where := applyIterPendingFilter(sb, models.IterPendingFilter{
		MatchType:    models.MatchTypeExactCreditCode,
		ReviewStatus: models.ReviewStatusApproved,
		NameQuery:    "foo",
	})
	assert.Len(t, where, 3)
}

func TestMatchExplanation_ValueScanRoundTrip(t *testing.T) {
	explanation := models.MatchExplanation{
		Positive:    []string{"credit codes equal"},
		Negative:    nil,
		FieldScores: map[string]float64{"name_core": 1.0},
	}
	raw, err := explanation.Value()
	assert.NoError(t, err)

	b, ok := raw.([]byte)
	assert.True(t, ok)

	var roundTripped models.MatchExplanation
	assert.NoError(t, roundTripped.Scan(b))
	assert.Equal(t, explanation, roundTripped)
}

func TestMatchExplanation_ScanNilIsNoop(t *testing.T) {
	var e models.MatchExplanation
	assert.NoError(t, e.Scan(nil))
	assert.Equal(t, models.MatchExplanation{}, e)
}
