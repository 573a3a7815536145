// Package linkageresult implements the Result Store Adapter (spec.md §4.5):
// the one durable home for every LinkageResult, one row per PRIMARY unit
// regardless of outcome.
package linkageresult

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/meridian/internal/dbx"
	"github.com/Ramsey-B/meridian/internal/linkageerr"
	"github.com/Ramsey-B/meridian/internal/tracing"
	"github.com/Ramsey-B/meridian/pkg/fingerprint"
	"github.com/Ramsey-B/meridian/pkg/models"
)

// Repository handles linkage_results persistence. The table's actual
// primary key is match_id (deterministic from primary_id + matched_id, see
// pkg/fingerprint.MatchID); primary_id additionally carries the unique
// index spec.md §4.5 requires, since upsert (ON CONFLICT) and Get both look
// records up by primary_id, not match_id.
type Repository struct {
	db     dbx.DB
	logger ectologger.Logger
}

// NewRepository builds a Repository.
func NewRepository(db dbx.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

var resultColumns = []string{
	"match_id", "primary_id",
	"primary_name", "primary_credit_code", "primary_address", "primary_legal_representative", "primary_safety_manager", "primary_contact_phone", "primary_building_id",
	"matched_id",
	"matched_name", "matched_credit_code", "matched_address", "matched_legal_representative", "matched_safety_manager", "matched_contact_phone",
	"match_type", "similarity_score", "match_confidence", "match_explanation",
	"review_status", "review_notes", "reviewer", "review_timestamp",
	"created_time", "updated_time",
}

// Upsert inserts or replaces one LinkageResult keyed by primary_id (spec.md
// §4.5 invariant 1 — re-running a task replaces the prior result for the
// same PRIMARY unit). A single atomic INSERT ... ON CONFLICT ... RETURNING
// statement, the same pattern as
// ivy/internal/repositories/stagedentity/repository.go's UpsertWithOptions.
func (r *Repository) Upsert(ctx context.Context, result models.LinkageResult) (*models.LinkageResult, bool, error) {
	ctx, span := tracing.StartSpan(ctx, "linkageresult.Repository.Upsert")
	defer span.End()
	return r.upsertWith(ctx, r.db, result)
}

// upsertExecutor is the subset of dbx.DB/dbx.Tx a single upsert needs,
// letting UpsertBatch run every row against one shared transaction.
type upsertExecutor interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
}

func (r *Repository) upsertWith(ctx context.Context, exec upsertExecutor, result models.LinkageResult) (*models.LinkageResult, bool, error) {
	log := r.logger.WithContext(ctx).WithFields(map[string]any{"method": "Upsert", "primary_id": result.PrimaryID})

	now := time.Now().UTC()
	result.MatchID = fingerprint.MatchID(result.PrimaryID, result.MatchedID)
	if result.CreatedTime.IsZero() {
		result.CreatedTime = now
	}
	result.UpdatedTime = now
	if result.ReviewStatus == "" {
		result.ReviewStatus = models.ReviewStatusPending
	}

	query := `
		WITH upsert AS (
			INSERT INTO linkage_results (
				match_id, primary_id,
				primary_name, primary_credit_code, primary_address, primary_legal_representative, primary_safety_manager, primary_contact_phone, primary_building_id,
				matched_id,
				matched_name, matched_credit_code, matched_address, matched_legal_representative, matched_safety_manager, matched_contact_phone,
				match_type, similarity_score, match_confidence, match_explanation,
				review_status, review_notes, reviewer, review_timestamp,
				created_time, updated_time
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26
			)
			ON CONFLICT (primary_id) DO UPDATE SET
				match_id = EXCLUDED.match_id,
				primary_name = EXCLUDED.primary_name,
				primary_credit_code = EXCLUDED.primary_credit_code,
				primary_address = EXCLUDED.primary_address,
				primary_legal_representative = EXCLUDED.primary_legal_representative,
				primary_safety_manager = EXCLUDED.primary_safety_manager,
				primary_contact_phone = EXCLUDED.primary_contact_phone,
				primary_building_id = EXCLUDED.primary_building_id,
				matched_id = EXCLUDED.matched_id,
				matched_name = EXCLUDED.matched_name,
				matched_credit_code = EXCLUDED.matched_credit_code,
				matched_address = EXCLUDED.matched_address,
				matched_legal_representative = EXCLUDED.matched_legal_representative,
				matched_safety_manager = EXCLUDED.matched_safety_manager,
				matched_contact_phone = EXCLUDED.matched_contact_phone,
				match_type = EXCLUDED.match_type,
				similarity_score = EXCLUDED.similarity_score,
				match_confidence = EXCLUDED.match_confidence,
				match_explanation = EXCLUDED.match_explanation,
				updated_time = EXCLUDED.updated_time
			RETURNING *, (xmax = 0) AS inserted
		)
		SELECT * FROM upsert
	`

	var row struct {
		models.LinkageResult
		Inserted bool `db:"inserted"`
	}
	err := exec.GetContext(ctx, &row, query,
		result.MatchID, result.PrimaryID,
		result.PrimaryName, result.PrimaryCreditCode, result.PrimaryAddress, result.PrimaryLegalRepresentative, result.PrimarySafetyManager, result.PrimaryContactPhone, result.PrimaryBuildingID,
		result.MatchedID,
		result.MatchedName, result.MatchedCreditCode, result.MatchedAddress, result.MatchedLegalRepresentative, result.MatchedSafetyManager, result.MatchedContactPhone,
		result.MatchType, result.SimilarityScore, result.MatchConfidence, result.MatchExplanation,
		result.ReviewStatus, result.ReviewNotes, result.Reviewer, result.ReviewTimestamp,
		result.CreatedTime, result.UpdatedTime,
	)
	if err != nil {
		log.WithError(err).Error("failed to upsert linkage result")
		return nil, false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert linkage result")
	}

	if row.Inserted {
		log.WithFields(map[string]any{"match_id": row.MatchID}).Info("inserted linkage result")
	} else {
		log.WithFields(map[string]any{"match_id": row.MatchID}).Debug("replaced linkage result")
	}
	return &row.LinkageResult, row.Inserted, nil
}

// UpsertBatch upserts many results, one native operation per record within
// a single transaction (spec.md §4.5: "MUST emit a native batch operation
// (one operation per record)" — not a bulk multi-row INSERT, since each row
// needs its own ON CONFLICT replace-or-insert decision recorded).
func (r *Repository) UpsertBatch(ctx context.Context, results []models.LinkageResult) (models.UpsertBatchResult, error) {
	ctx, span := tracing.StartSpan(ctx, "linkageresult.Repository.UpsertBatch")
	defer span.End()

	var out models.UpsertBatchResult

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to start linkage result batch transaction")
		return out, httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	for _, result := range results {
		_, inserted, err := r.upsertWith(ctx, tx, result)
		if err != nil {
			return out, err
		}
		out.Matched++
		if inserted {
			out.Inserted++
		} else {
			out.Modified++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to commit linkage result batch transaction")
		return models.UpsertBatchResult{}, httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit transaction")
	}
	return out, nil
}

// Get reads one LinkageResult by primary_id.
func (r *Repository) Get(ctx context.Context, primaryID string) (*models.LinkageResult, error) {
	ctx, span := tracing.StartSpan(ctx, "linkageresult.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(resultColumns...)
	sb.From("linkage_results")
	sb.Where(sb.Equal("primary_id", primaryID))

	query, args := sb.Build()
	var result models.LinkageResult
	if err := r.db.GetContext(ctx, &result, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, linkageerr.ErrNotFound
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"primary_id": primaryID}).Error("failed to get linkage result")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get linkage result")
	}
	return &result, nil
}

// GetByMatchID reads one LinkageResult by match_id, the identity
// set_review_status is keyed on (spec.md §6).
func (r *Repository) GetByMatchID(ctx context.Context, matchID string) (*models.LinkageResult, error) {
	ctx, span := tracing.StartSpan(ctx, "linkageresult.Repository.GetByMatchID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(resultColumns...)
	sb.From("linkage_results")
	sb.Where(sb.Equal("match_id", matchID))

	query, args := sb.Build()
	var result models.LinkageResult
	if err := r.db.GetContext(ctx, &result, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, linkageerr.ErrNotFound
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"match_id": matchID}).Error("failed to get linkage result by match_id")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get linkage result")
	}
	return &result, nil
}

// SetReview validates and applies a review-state transition (spec.md §3
// invariant 5), enforcing the per-record compare-and-set on updated_time
// (§5 shared-resource policy): the caller's expectedUpdatedTime must match
// the row's current updated_time or the write is rejected with
// ErrStaleReview so the caller can re-read and retry.
func (r *Repository) SetReview(ctx context.Context, matchID string, status models.ReviewStatus, notes, reviewer string, expectedUpdatedTime time.Time) (*models.LinkageResult, error) {
	ctx, span := tracing.StartSpan(ctx, "linkageresult.Repository.SetReview")
	defer span.End()

	if !validReviewStatus(status) {
		return nil, linkageerr.ErrInvalidReviewTransition
	}

	current, err := r.GetByMatchID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !validReviewTransition(current.ReviewStatus, status) {
		return nil, linkageerr.ErrInvalidReviewTransition
	}

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("linkage_results")
	sb.Set(
		sb.Assign("review_status", status),
		sb.Assign("review_notes", notes),
		sb.Assign("reviewer", reviewer),
		sb.Assign("review_timestamp", now),
		sb.Assign("updated_time", now),
	)
	sb.Where(
		sb.Equal("match_id", matchID),
		sb.Equal("updated_time", expectedUpdatedTime),
	)

	query, args := sb.Build()
	query += " RETURNING " + columnList()
	var result models.LinkageResult
	err = r.db.GetContext(ctx, &result, query, args...)
	if err == nil {
		r.logger.WithContext(ctx).WithFields(map[string]any{"match_id": matchID, "status": status}).Info("applied review transition")
		return &result, nil
	}
	if err.Error() != "sql: no rows in result set" {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"match_id": matchID}).Error("failed to set review status")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to set review status")
	}

	// No row matched (match_id, updated_time): distinguish NOT_FOUND from a
	// lost compare-and-set race.
	if _, getErr := r.GetByMatchID(ctx, matchID); getErr != nil {
		return nil, getErr
	}
	return nil, linkageerr.ErrStaleReview
}

func validReviewStatus(s models.ReviewStatus) bool {
	switch s {
	case models.ReviewStatusPending, models.ReviewStatusApproved, models.ReviewStatusRejected:
		return true
	}
	return false
}

// validReviewTransition enforces the review state machine (spec.md §3
// invariant 5): pending moves only to approved or rejected, and either
// terminal state moves only back to pending. approved<->rejected directly,
// and any self-transition, are not legal moves.
func validReviewTransition(from, to models.ReviewStatus) bool {
	switch from {
	case models.ReviewStatusPending:
		return to == models.ReviewStatusApproved || to == models.ReviewStatusRejected
	case models.ReviewStatusApproved, models.ReviewStatusRejected:
		return to == models.ReviewStatusPending
	}
	return false
}

// ClearAll deletes every LinkageResult, used only by full-mode tasks
// (spec.md §4.5) before they repopulate the store from scratch.
func (r *Repository) ClearAll(ctx context.Context) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "linkageresult.Repository.ClearAll")
	defer span.End()

	result, err := r.db.ExecContext(ctx, "DELETE FROM linkage_results")
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to clear linkage results")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to clear linkage results")
	}
	rows, _ := result.RowsAffected()
	r.logger.WithContext(ctx).WithFields(map[string]any{"count": rows}).Info("cleared linkage results")
	return rows, nil
}

// IterPending returns one page of results honoring filter (spec.md §4.5),
// count-then-select the same way
// ivy/internal/repositories/stagedentity/repository.go's List does.
// Every predicate here runs against an index spec.md §4.5 declares present
// (match_type, review_status, and a name_query ILIKE scan against the
// indexed primary_name/matched_name columns); there is no free-text search
// index, so name_query is a plain ILIKE, not a full-text predicate.
func (r *Repository) IterPending(ctx context.Context, filter models.IterPendingFilter, page, pageSize int) (*models.PaginatedLinkageResults, error) {
	ctx, span := tracing.StartSpan(ctx, "linkageresult.Repository.IterPending")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 500 {
		pageSize = 50
	}
	offset := (page - 1) * pageSize

	countSb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	countSb.Select("COUNT(*)")
	countSb.From("linkage_results")
	countWhere := applyIterPendingFilter(countSb, filter)
	if len(countWhere) > 0 {
		countSb.Where(countWhere...)
	}
	countQuery, countArgs := countSb.Build()
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to count linkage results")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count linkage results")
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(resultColumns...)
	sb.From("linkage_results")
	where := applyIterPendingFilter(sb, filter)
	if len(where) > 0 {
		sb.Where(where...)
	}
	sb.OrderBy("created_time DESC")
	sb.Limit(pageSize).Offset(offset)

	query, args := sb.Build()
	var items []models.LinkageResult
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list linkage results")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list linkage results")
	}

	return &models.PaginatedLinkageResults{
		Items:      items,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

func applyIterPendingFilter(sb *sqlbuilder.SelectBuilder, filter models.IterPendingFilter) []string {
	var where []string
	if filter.MatchType != "" {
		where = append(where, sb.Equal("match_type", filter.MatchType))
	}
	if filter.ReviewStatus != "" {
		where = append(where, sb.Equal("review_status", filter.ReviewStatus))
	}
	if filter.NameQuery != "" {
		like := "%" + filter.NameQuery + "%"
		where = append(where, sb.Or(
			sb.ILike("primary_name", like),
			sb.ILike("matched_name", like),
		))
	}
	return where
}

func columnList() string {
	out := ""
	for i, c := range resultColumns {
		if i > 0 {
			out += ", "
		}
		out += c
	}
	return out
}
