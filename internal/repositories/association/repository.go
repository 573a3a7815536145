// Package association is the Enhanced Association Aggregator (spec.md
// §4.7): it groups SECONDARY records around each PRIMARY unit under one
// of three strategies and writes one enhanced_associations row per
// (primary_id, strategy). Grounded on
// original_source/src/matching/enhanced_association_processor.py's
// _execute_enhanced_association_task, translated from a Mongo
// $group/$project/$merge pipeline into an equivalent single Postgres
// statement per strategy — the aggregation MUST run server-side
// (SPEC_FULL.md §4.7 REDESIGN FLAG R1): the Python original's per-group
// Python loop is the documented cause of an OOM incident this package
// does not repeat.
package association

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/meridian/internal/dbx"
	"github.com/Ramsey-B/meridian/internal/tracing"
	"github.com/Ramsey-B/meridian/pkg/models"
)

// Repository runs the three Aggregator strategies and reads/clears their
// output, grounded on linkageresult.Repository's upsert/clear shape.
type Repository struct {
	db     dbx.DB
	logger ectologger.Logger
}

func NewRepository(db dbx.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

// similarityThresholdLiteral is the association_confidence cutoff spec.md
// §4.7 fixes (0.70): members below it don't count toward the mean. Baked
// in as a SQL literal rather than a bound parameter since the aggregation
// query carries no per-call arguments — strategy and threshold are both
// fixed at query-build time, not request time.
const similarityThresholdLiteral = "0.70"

// Run executes one strategy's aggregation pipeline as a single statement
// and upserts every resulting (primary_id, strategy) row. clearExisting
// drops prior rows for this strategy first (start_enhanced_association's
// clear_existing flag, spec.md §6).
func (r *Repository) Run(ctx context.Context, strategy models.AssociationStrategy, clearExisting bool) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "association.Repository.Run")
	defer span.End()

	query, err := queryForStrategy(strategy)
	if err != nil {
		return 0, err
	}

	if clearExisting {
		if _, err := r.db.ExecContext(ctx, `DELETE FROM enhanced_associations WHERE association_strategy = $1`, string(strategy)); err != nil {
			r.logger.WithContext(ctx).WithError(err).Error("failed to clear existing associations before re-run")
			return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to clear existing associations")
		}
	}

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"strategy": strategy}).Error("association aggregation failed")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "association aggregation failed")
	}
	affected, _ := result.RowsAffected()
	return affected, nil
}

// Get reads one PRIMARY unit's association under a strategy.
func (r *Repository) Get(ctx context.Context, primaryID string, strategy models.AssociationStrategy) (models.EnhancedAssociation, bool, error) {
	ctx, span := tracing.StartSpan(ctx, "association.Repository.Get")
	defer span.End()

	var row models.EnhancedAssociation
	err := r.db.GetContext(ctx, &row, `
		SELECT association_id, primary_id,
			primary_name, primary_credit_code, primary_address, primary_legal_representative,
			primary_safety_manager, primary_contact_phone, primary_building_id,
			associated_records, association_strategy, association_confidence, data_quality_score,
			created_time, updated_time
		FROM enhanced_associations
		WHERE primary_id = $1 AND association_strategy = $2
	`, primaryID, string(strategy))
	if err != nil {
		if err.Error() == "sql: no rows in result set" {
			return models.EnhancedAssociation{}, false, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"primary_id": primaryID}).Error("failed to get enhanced association")
		return models.EnhancedAssociation{}, false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get enhanced association")
	}
	return row, true, nil
}

// ClearAll removes every association row, regardless of strategy.
func (r *Repository) ClearAll(ctx context.Context) error {
	ctx, span := tracing.StartSpan(ctx, "association.Repository.ClearAll")
	defer span.End()

	if _, err := r.db.ExecContext(ctx, "DELETE FROM enhanced_associations"); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to clear enhanced associations")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to clear enhanced associations")
	}
	return nil
}

func queryForStrategy(strategy models.AssociationStrategy) (string, error) {
	switch strategy {
	case models.AssociationStrategyBuildingBased:
		return buildAggregationQuery(buildingBasedMembersSQL, string(strategy)), nil
	case models.AssociationStrategyUnitBased:
		return buildAggregationQuery(unitBasedMembersSQL, string(strategy)), nil
	case models.AssociationStrategyHybrid:
		return buildAggregationQuery(hybridMembersSQL, string(strategy)), nil
	default:
		return "", httperror.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unknown association strategy %q", strategy))
	}
}

// buildingBasedMembersSQL groups SECONDARY records sharing a building_id
// with PRIMARY (spec.md §4.7): 1:1 within a building.
const buildingBasedMembersSQL = `
	SELECT
		p.id AS primary_id,
		p.name AS primary_name, p.credit_code AS primary_credit_code, p.address AS primary_address,
		p.legal_representative AS primary_legal_representative, p.safety_manager AS primary_safety_manager,
		p.contact_phone AS primary_contact_phone, p.building_id AS primary_building_id,
		s.id AS secondary_id, s.name, s.credit_code, s.address, s.building_id,
		s.legal_representative, s.safety_manager, s.contact_phone, s.updated_time AS inspection_date,
		COALESCE(lr.match_type, 'none') AS match_type,
		COALESCE(lr.similarity_score, 0) AS similarity_score
	FROM units_primary p
	JOIN units_secondary s ON s.building_id = p.building_id AND p.building_id <> ''
	LEFT JOIN linkage_results lr ON lr.primary_id = p.id AND lr.matched_id = s.id
`

// unitBasedMembersSQL groups every SECONDARY record already matched to
// PRIMARY in linkage_results, plus any SECONDARY record sharing PRIMARY's
// canonical credit code or canonical name (spec.md §4.7).
const unitBasedMembersSQL = `
	SELECT
		p.id AS primary_id,
		p.name AS primary_name, p.credit_code AS primary_credit_code, p.address AS primary_address,
		p.legal_representative AS primary_legal_representative, p.safety_manager AS primary_safety_manager,
		p.contact_phone AS primary_contact_phone, p.building_id AS primary_building_id,
		s.id AS secondary_id, s.name, s.credit_code, s.address, s.building_id,
		s.legal_representative, s.safety_manager, s.contact_phone, s.updated_time AS inspection_date,
		COALESCE(lr.match_type, 'none') AS match_type,
		COALESCE(lr.similarity_score, 0) AS similarity_score
	FROM units_primary p
	JOIN units_secondary s ON (
		EXISTS (
			SELECT 1 FROM linkage_results m
			WHERE m.primary_id = p.id AND m.matched_id = s.id
		)
		OR (p.credit_code_canonical <> '' AND s.credit_code_canonical = p.credit_code_canonical)
		OR (p.name_canonical <> '' AND s.name_canonical = p.name_canonical)
	)
	LEFT JOIN linkage_results lr ON lr.primary_id = p.id AND lr.matched_id = s.id
`

// hybridMembersSQL is the union of both membership rules, de-duplicated
// by (primary_id, secondary_id); where a secondary qualifies under both
// rules, the building-based row (member_rank 0) is the one kept. The
// associated_records order is the same similarity/inspection-date order
// as the other strategies: building-based members are not placed ahead
// of unit-based ones.
const hybridMembersSQL = `
	SELECT DISTINCT ON (primary_id, secondary_id)
		primary_id, primary_name, primary_credit_code, primary_address,
		primary_legal_representative, primary_safety_manager, primary_contact_phone, primary_building_id,
		secondary_id, name, credit_code, address, building_id,
		legal_representative, safety_manager, contact_phone, inspection_date,
		match_type, similarity_score
	FROM (
		SELECT 0 AS member_rank, m.* FROM (` + buildingBasedMembersSQL + `) m
		UNION ALL
		SELECT 1 AS member_rank, m.* FROM (` + unitBasedMembersSQL + `) m
	) ranked
	ORDER BY primary_id, secondary_id, member_rank ASC
`

// buildAggregationQuery wraps a members sub-query (one of the *MembersSQL
// constants above) in the shared GROUP BY / jsonb_agg / upsert shell
// common to all three strategies, matching the Result Store Adapter's
// INSERT ... ON CONFLICT ... DO UPDATE upsert pattern.
//
// association_confidence and data_quality_score follow spec.md §4.7
// verbatim:
//   - confidence = mean(similarity_score) over members scoring >= 0.70,
//     0 for an empty group.
//   - quality = 0.6*completeness + 0.4*consistency, where completeness is
//     the fraction of the 7 logical Unit fields non-empty on PRIMARY, and
//     consistency is the fraction of those fields whose value (after a
//     case/whitespace-normalized comparison) agrees across every member.
//
// associated_records members are ordered by similarity_score DESC, with
// each member's units_secondary.updated_time (its inspection_date) as a
// tie-break so two equally-scored members land in a stable, most-recently
// inspected first order.
func buildAggregationQuery(membersSQL, strategy string) string {
	return `
	WITH members AS (
		` + membersSQL + `
	),
	scored AS (
		SELECT
			*,
			(upper(trim(primary_name)) = upper(trim(name)))                             AS name_agrees,
			(upper(trim(primary_credit_code)) = upper(trim(credit_code)))               AS credit_code_agrees,
			(upper(trim(primary_address)) = upper(trim(address)))                       AS address_agrees,
			(upper(trim(primary_legal_representative)) = upper(trim(legal_representative))) AS legal_representative_agrees,
			(upper(trim(primary_safety_manager)) = upper(trim(safety_manager)))          AS safety_manager_agrees,
			(upper(trim(primary_contact_phone)) = upper(trim(contact_phone)))            AS contact_phone_agrees,
			(primary_building_id = building_id)                                          AS building_id_agrees
		FROM members
	),
	grouped AS (
		SELECT
			primary_id,
			max(primary_name) AS primary_name,
			max(primary_credit_code) AS primary_credit_code,
			max(primary_address) AS primary_address,
			max(primary_legal_representative) AS primary_legal_representative,
			max(primary_safety_manager) AS primary_safety_manager,
			max(primary_contact_phone) AS primary_contact_phone,
			max(primary_building_id) AS primary_building_id,
			jsonb_agg(jsonb_build_object(
				'secondary_id', secondary_id,
				'match_type', match_type,
				'similarity_score', similarity_score,
				'inspection_date', inspection_date,
				'snapshot_fields', jsonb_build_object(
					'name', name, 'credit_code', credit_code, 'address', address,
					'legal_representative', legal_representative,
					'safety_manager', safety_manager, 'contact_phone', contact_phone
				)
			) ORDER BY similarity_score DESC, inspection_date DESC) AS associated_records,
			COALESCE(AVG(similarity_score) FILTER (WHERE similarity_score >= ` + similarityThresholdLiteral + `), 0) AS association_confidence,
			(
				(CASE WHEN max(primary_name) <> '' THEN 1 ELSE 0 END) +
				(CASE WHEN max(primary_credit_code) <> '' THEN 1 ELSE 0 END) +
				(CASE WHEN max(primary_address) <> '' THEN 1 ELSE 0 END) +
				(CASE WHEN max(primary_legal_representative) <> '' THEN 1 ELSE 0 END) +
				(CASE WHEN max(primary_safety_manager) <> '' THEN 1 ELSE 0 END) +
				(CASE WHEN max(primary_contact_phone) <> '' THEN 1 ELSE 0 END) +
				(CASE WHEN max(primary_building_id) <> '' THEN 1 ELSE 0 END)
			) / 7.0 AS field_completeness,
			(
				(CASE WHEN bool_and(name_agrees) THEN 1 ELSE 0 END) +
				(CASE WHEN bool_and(credit_code_agrees) THEN 1 ELSE 0 END) +
				(CASE WHEN bool_and(address_agrees) THEN 1 ELSE 0 END) +
				(CASE WHEN bool_and(legal_representative_agrees) THEN 1 ELSE 0 END) +
				(CASE WHEN bool_and(safety_manager_agrees) THEN 1 ELSE 0 END) +
				(CASE WHEN bool_and(contact_phone_agrees) THEN 1 ELSE 0 END) +
				(CASE WHEN bool_and(building_id_agrees) THEN 1 ELSE 0 END)
			) / 7.0 AS field_consistency
		FROM scored
		GROUP BY primary_id
	)
	INSERT INTO enhanced_associations (
		association_id, primary_id,
		primary_name, primary_credit_code, primary_address, primary_legal_representative,
		primary_safety_manager, primary_contact_phone, primary_building_id,
		associated_records, association_strategy, association_confidence, data_quality_score,
		created_time, updated_time
	)
	SELECT
		encode(sha256(convert_to(g.primary_id || chr(31) || '` + strategy + `', 'UTF8')), 'hex'),
		g.primary_id,
		g.primary_name, g.primary_credit_code, g.primary_address, g.primary_legal_representative,
		g.primary_safety_manager, g.primary_contact_phone, g.primary_building_id,
		g.associated_records, '` + strategy + `', g.association_confidence,
		(0.6 * g.field_completeness + 0.4 * g.field_consistency),
		now(), now()
	FROM grouped g
	ON CONFLICT (association_id) DO UPDATE SET
		associated_records = EXCLUDED.associated_records,
		association_strategy = EXCLUDED.association_strategy,
		association_confidence = EXCLUDED.association_confidence,
		data_quality_score = EXCLUDED.data_quality_score,
		updated_time = now();
`
}
