package association

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/meridian/pkg/models"
)

func TestQueryForStrategy_KnownStrategiesBuildWithoutError(t *testing.T) {
	for _, strategy := range []models.AssociationStrategy{
		models.AssociationStrategyBuildingBased,
		models.AssociationStrategyUnitBased,
		models.AssociationStrategyHybrid,
	} {
		query, err := queryForStrategy(strategy)
		require.NoError(t, err)
		assert.Contains(t, query, "ON CONFLICT (association_id)")
		assert.Contains(t, query, "'"+string(strategy)+"'")
	}
}

func TestQueryForStrategy_UnknownStrategyErrors(t *testing.T) {
	_, err := queryForStrategy(models.AssociationStrategy("bogus"))
	assert.Error(t, err)
}

func TestBuildingBasedQuery_JoinsOnSharedBuildingID(t *testing.T) {
	query, err := queryForStrategy(models.AssociationStrategyBuildingBased)
	require.NoError(t, err)
	assert.Contains(t, query, "s.building_id = p.building_id")
}

func TestUnitBasedQuery_MatchesOnLinkageResultOrCanonicalFields(t *testing.T) {
	query, err := queryForStrategy(models.AssociationStrategyUnitBased)
	require.NoError(t, err)
	assert.Contains(t, query, "m.matched_id = s.id")
	assert.Contains(t, query, "s.credit_code_canonical = p.credit_code_canonical")
	assert.Contains(t, query, "s.name_canonical = p.name_canonical")
}

func TestHybridQuery_RanksBuildingBasedMembersFirst(t *testing.T) {
	query, err := queryForStrategy(models.AssociationStrategyHybrid)
	require.NoError(t, err)
	// building-based members carry rank 0, unit-based rank 1; ORDER BY picks
	// rank 0 first when DISTINCT ON collapses duplicate secondary_ids.
	buildingIdx := strings.Index(query, "SELECT 0 AS member_rank")
	unitIdx := strings.Index(query, "SELECT 1 AS member_rank")
	require.GreaterOrEqual(t, buildingIdx, 0)
	require.GreaterOrEqual(t, unitIdx, 0)
	assert.Less(t, buildingIdx, unitIdx)
}

func TestAssociationConfidence_UsesConfiguredThreshold(t *testing.T) {
	query, err := queryForStrategy(models.AssociationStrategyBuildingBased)
	require.NoError(t, err)
	assert.Contains(t, query, "similarity_score >= "+similarityThresholdLiteral)
}

func TestDataQualityScore_WeightsCompletenessAndConsistency(t *testing.T) {
	query, err := queryForStrategy(models.AssociationStrategyBuildingBased)
	require.NoError(t, err)
	assert.Contains(t, query, "0.6 * g.field_completeness + 0.4 * g.field_consistency")
}

func TestAssociatedRecords_OrderedBySimilarityThenInspectionDate(t *testing.T) {
	for _, strategy := range []models.AssociationStrategy{
		models.AssociationStrategyBuildingBased,
		models.AssociationStrategyUnitBased,
		models.AssociationStrategyHybrid,
	} {
		query, err := queryForStrategy(strategy)
		require.NoError(t, err)
		assert.Contains(t, query, "s.updated_time AS inspection_date")
		assert.Contains(t, query, "'inspection_date', inspection_date")
		assert.Contains(t, query, "ORDER BY similarity_score DESC, inspection_date DESC")
	}
}
