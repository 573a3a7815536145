package units

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/meridian/internal/dbx"
	"github.com/Ramsey-B/meridian/internal/tracing"
	"github.com/Ramsey-B/meridian/pkg/models"
	"github.com/Ramsey-B/meridian/pkg/normalize"
)

// PrimaryRepository reads and writes units_primary. The Batch Task Engine
// is its only reader: PRIMARY records are read in id-ascending order
// (spec.md §5) and the engine resumes a page boundary via
// afterID = last_processed_primary_id.
type PrimaryRepository struct {
	db     dbx.DB
	logger ectologger.Logger
	norm   *normalize.Normalizer
}

func NewPrimaryRepository(db dbx.DB, logger ectologger.Logger, norm *normalize.Normalizer) *PrimaryRepository {
	return &PrimaryRepository{db: db, logger: logger, norm: norm}
}

var primaryColumns = []string{
	"id", "name", "credit_code", "address",
	"legal_representative", "safety_manager", "contact_phone", "building_id",
}

// Page reads up to limit PRIMARY units with id > afterID, ordered by id
// ascending — the monotone read cursor §5 requires (afterID = "" reads
// from the beginning).
func (r *PrimaryRepository) Page(ctx context.Context, afterID string, limit int) ([]models.Unit, error) {
	ctx, span := tracing.StartSpan(ctx, "units.PrimaryRepository.Page")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(primaryColumns...)
	sb.From("units_primary")
	if afterID != "" {
		sb.Where(sb.GreaterThan("id", afterID))
	}
	sb.OrderBy("id").Asc()
	sb.Limit(limit)

	query, args := sb.Build()
	var rows []primaryRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to page primary units")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to page primary units")
	}

	units := make([]models.Unit, len(rows))
	for i, row := range rows {
		units[i] = row.toUnit()
	}
	return units, nil
}

// Count returns the total PRIMARY population, used by the Task Engine to
// decide emptiness (spec.md §6 EMPTY_PRIMARY) before starting a task.
func (r *PrimaryRepository) Count(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "units.PrimaryRepository.Count")
	defer span.End()

	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM units_primary"); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to count primary units")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count primary units")
	}
	return count, nil
}

// CountUnmatched returns the PRIMARY population with no linkage_results row
// yet, the total an incremental-mode task snapshots (spec.md §4.6: mode
// incremental processes "PRIMARY records with no existing LinkageResult").
func (r *PrimaryRepository) CountUnmatched(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "units.PrimaryRepository.CountUnmatched")
	defer span.End()

	query := `
		SELECT COUNT(*) FROM units_primary p
		WHERE NOT EXISTS (SELECT 1 FROM linkage_results lr WHERE lr.primary_id = p.id)
	`
	var count int
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to count unmatched primary units")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count unmatched primary units")
	}
	return count, nil
}

// PageUnmatched is Page's incremental-mode counterpart: it reads only
// PRIMARY units with no linkage_results row yet, still ordered by id
// ascending so the resumption cursor (afterID) behaves identically to Page.
func (r *PrimaryRepository) PageUnmatched(ctx context.Context, afterID string, limit int) ([]models.Unit, error) {
	ctx, span := tracing.StartSpan(ctx, "units.PrimaryRepository.PageUnmatched")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	cols := make([]string, len(primaryColumns))
	for i, c := range primaryColumns {
		cols[i] = "p." + c
	}
	sb.Select(cols...)
	sb.From("units_primary p")
	sb.Where("NOT EXISTS (SELECT 1 FROM linkage_results lr WHERE lr.primary_id = p.id)")
	if afterID != "" {
		sb.Where(sb.GreaterThan("p.id", afterID))
	}
	sb.OrderBy("p.id").Asc()
	sb.Limit(limit)

	query, args := sb.Build()
	var rows []primaryRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to page unmatched primary units")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to page unmatched primary units")
	}

	units := make([]models.Unit, len(rows))
	for i, row := range rows {
		units[i] = row.toUnit()
	}
	return units, nil
}

// Upsert writes one PRIMARY unit, recomputing name_canonical/
// credit_code_canonical so the Aggregator's unit_based strategy (§4.7) can
// join against units_secondary purely server-side.
func (r *PrimaryRepository) Upsert(ctx context.Context, u models.Unit) error {
	ctx, span := tracing.StartSpan(ctx, "units.PrimaryRepository.Upsert")
	defer span.End()

	query := `
		INSERT INTO units_primary (
			id, name, name_canonical, credit_code, credit_code_canonical,
			address, legal_representative, safety_manager, contact_phone,
			building_id, updated_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			name_canonical = EXCLUDED.name_canonical,
			credit_code = EXCLUDED.credit_code,
			credit_code_canonical = EXCLUDED.credit_code_canonical,
			address = EXCLUDED.address,
			legal_representative = EXCLUDED.legal_representative,
			safety_manager = EXCLUDED.safety_manager,
			contact_phone = EXCLUDED.contact_phone,
			building_id = EXCLUDED.building_id,
			updated_time = now()
	`
	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.Name, r.norm.NameCanonical(u.Name), u.CreditCode, normalize.CreditCode(u.CreditCode),
		u.Address, u.LegalRepresentative, u.SafetyManager, u.ContactPhone, u.BuildingID,
	)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": u.ID}).Error("failed to upsert primary unit")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert primary unit")
	}
	return nil
}

type primaryRow struct {
	ID                  string `db:"id"`
	Name                string `db:"name"`
	CreditCode          string `db:"credit_code"`
	Address             string `db:"address"`
	LegalRepresentative string `db:"legal_representative"`
	SafetyManager       string `db:"safety_manager"`
	ContactPhone        string `db:"contact_phone"`
	BuildingID          string `db:"building_id"`
}

func (row primaryRow) toUnit() models.Unit {
	return models.Unit{
		ID:                  row.ID,
		Name:                row.Name,
		CreditCode:          row.CreditCode,
		Address:             row.Address,
		LegalRepresentative: row.LegalRepresentative,
		SafetyManager:       row.SafetyManager,
		ContactPhone:        row.ContactPhone,
		BuildingID:          row.BuildingID,
	}
}
