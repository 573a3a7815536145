// Package units is the Postgres realization of spec.md's "document
// database exposing indexed queries and bulk upserts" (line 7): the
// units_primary/units_secondary tables the Candidate Prefilter, Layered
// Matcher, and Batch Task Engine read against. Grounded on
// ivy/pkg/matching/service.go's entity_match_index query helpers,
// translated from its SQL-anchor ladder to this domain's five-step
// credit-code/name/slice/FTS/address-keyword ladder (spec.md §4.3).
package units

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"
	"github.com/lib/pq"

	"github.com/Ramsey-B/meridian/internal/dbx"
	"github.com/Ramsey-B/meridian/internal/tracing"
	"github.com/Ramsey-B/meridian/pkg/graph"
	"github.com/Ramsey-B/meridian/pkg/models"
	"github.com/Ramsey-B/meridian/pkg/normalize"
)

// SecondaryRepository implements linkage.SecondarySource and
// linkage.SecondaryUnitFetcher against units_secondary. It never returns an
// error for a missing row — the Prefilter/Matcher contract (spec.md §4.3)
// treats an empty result as "no candidates from this step," not a failure.
type SecondaryRepository struct {
	db     dbx.DB
	logger ectologger.Logger
	norm   *normalize.Normalizer
}

// NewSecondaryRepository builds a SecondaryRepository. norm is used only to
// recompute normalized fields on Upsert; reads never renormalize.
func NewSecondaryRepository(db dbx.DB, logger ectologger.Logger, norm *normalize.Normalizer) *SecondaryRepository {
	return &SecondaryRepository{db: db, logger: logger, norm: norm}
}

var secondaryColumns = []string{
	"id", "name", "name_canonical", "name_core",
	"credit_code", "credit_code_canonical",
	"address", "address_keywords",
	"address_province", "address_city", "address_district", "address_detail",
	"legal_representative", "legal_representative_canonical", "safety_manager",
	"contact_phone", "phone_digits",
	"building_id", "extra_fields",
	"created_time", "updated_time",
}

// ByCreditCode implements linkage.SecondarySource step 1.
func (r *SecondaryRepository) ByCreditCode(ctx context.Context, creditCode string) ([]string, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id")
	sb.From("units_secondary")
	sb.Where(sb.Equal("credit_code_canonical", creditCode))
	return r.queryIDs(ctx, sb)
}

// ByNameCanonical implements linkage.SecondarySource step 2.
func (r *SecondaryRepository) ByNameCanonical(ctx context.Context, nameCanonical string) ([]string, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id")
	sb.From("units_secondary")
	sb.Where(sb.Equal("name_canonical", nameCanonical))
	return r.queryIDs(ctx, sb)
}

// ByNameSlices implements linkage.SecondarySource step 3: any row whose
// name_canonical starts with one of the candidate's blocking-key slices.
func (r *SecondaryRepository) ByNameSlices(ctx context.Context, slices []string, limit int) ([]string, error) {
	if len(slices) == 0 {
		return nil, nil
	}
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id")
	sb.From("units_secondary")
	var likes []string
	for _, s := range slices {
		likes = append(likes, sb.Like("name_canonical", s+"%"))
	}
	sb.Where(sb.Or(likes...))
	sb.Limit(limit)
	return r.queryIDs(ctx, sb)
}

// SearchNameText implements linkage.SecondarySource step 4: a trigram-
// similarity scan over name_canonical (the "light text search" spec.md
// §4.3 calls for), backed by units_secondary_name_trgm_idx.
func (r *SecondaryRepository) SearchNameText(ctx context.Context, tokens []string, limit int) ([]string, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	query := `
		SELECT id FROM units_secondary
		WHERE name_canonical % $1
		ORDER BY similarity(name_canonical, $1) DESC
		LIMIT $2
	`
	joined := ""
	for i, t := range tokens {
		if i > 0 {
			joined += " "
		}
		joined += t
	}
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, joined, limit); err != nil {
		r.logger.WithContext(ctx).WithError(err).Debug("SearchNameText query failed")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "SearchNameText query failed")
	}
	return ids, nil
}

// ByAddressKeywords implements linkage.SecondarySource step 5, using the
// GIN index on address_keywords to test array overlap (&&).
func (r *SecondaryRepository) ByAddressKeywords(ctx context.Context, keywords []string, limit int) ([]string, error) {
	if len(keywords) == 0 {
		return nil, nil
	}
	query := `SELECT id FROM units_secondary WHERE address_keywords && $1 LIMIT $2`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, pq.Array(keywords), limit); err != nil {
		r.logger.WithContext(ctx).WithError(err).Debug("ByAddressKeywords query failed")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "ByAddressKeywords query failed")
	}
	return ids, nil
}

// Get implements linkage.SecondaryUnitFetcher, reconstructing both the raw
// Unit and its cached NormalizedUnit from one row.
func (r *SecondaryRepository) Get(ctx context.Context, id string) (models.Unit, models.NormalizedUnit, bool, error) {
	ctx, span := tracing.StartSpan(ctx, "units.SecondaryRepository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(secondaryColumns...)
	sb.From("units_secondary")
	sb.Where(sb.Equal("id", id))
	query, args := sb.Build()

	var row secondaryRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return models.Unit{}, models.NormalizedUnit{}, false, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("failed to get secondary unit")
		return models.Unit{}, models.NormalizedUnit{}, false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get secondary unit")
	}
	return row.toUnit(), row.toNormalized(), true, nil
}

// Upsert writes one SECONDARY unit, recomputing every normalized column
// from Unit fields so reads never need to renormalize (spec.md §4.1's
// normalization is idempotent, so recomputing on every write is safe).
func (r *SecondaryRepository) Upsert(ctx context.Context, u models.Unit) error {
	ctx, span := tracing.StartSpan(ctx, "units.SecondaryRepository.Upsert")
	defer span.End()

	nameCanonical := r.norm.NameCanonical(u.Name)
	_, _, province, city, district, detail, keywords := r.norm.AddressNormalize(u.Address)
	legalRepCanonical := r.norm.PersonName(u.LegalRepresentative)

	query := `
		INSERT INTO units_secondary (
			id, name, name_canonical, name_core,
			credit_code, credit_code_canonical,
			address, address_keywords,
			address_province, address_city, address_district, address_detail,
			legal_representative, legal_representative_canonical, safety_manager,
			contact_phone, phone_digits,
			building_id, updated_time
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, now()
		)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			name_canonical = EXCLUDED.name_canonical,
			name_core = EXCLUDED.name_core,
			credit_code = EXCLUDED.credit_code,
			credit_code_canonical = EXCLUDED.credit_code_canonical,
			address = EXCLUDED.address,
			address_keywords = EXCLUDED.address_keywords,
			address_province = EXCLUDED.address_province,
			address_city = EXCLUDED.address_city,
			address_district = EXCLUDED.address_district,
			address_detail = EXCLUDED.address_detail,
			legal_representative = EXCLUDED.legal_representative,
			legal_representative_canonical = EXCLUDED.legal_representative_canonical,
			safety_manager = EXCLUDED.safety_manager,
			contact_phone = EXCLUDED.contact_phone,
			phone_digits = EXCLUDED.phone_digits,
			building_id = EXCLUDED.building_id,
			updated_time = now()
	`
	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.Name, nameCanonical, r.norm.NameCore(nameCanonical),
		u.CreditCode, normalize.CreditCode(u.CreditCode),
		u.Address, pq.Array(keywords),
		province, city, district, detail,
		u.LegalRepresentative, legalRepCanonical, u.SafetyManager,
		u.ContactPhone, normalize.Phone(u.ContactPhone),
		u.BuildingID,
	)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": u.ID}).Error("failed to upsert secondary unit")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert secondary unit")
	}
	return nil
}

func (r *SecondaryRepository) queryIDs(ctx context.Context, sb *sqlbuilder.SelectBuilder) ([]string, error) {
	query, args := sb.Build()
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Debug("prefilter query failed")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "prefilter query failed")
	}
	return ids, nil
}

// secondaryRow is the scan target for a full-row units_secondary read.
type secondaryRow struct {
	ID                            string         `db:"id"`
	Name                          string         `db:"name"`
	NameCanonical                 string         `db:"name_canonical"`
	NameCore                      string         `db:"name_core"`
	CreditCode                    string         `db:"credit_code"`
	CreditCodeCanonical           string         `db:"credit_code_canonical"`
	Address                       string         `db:"address"`
	AddressKeywords               pq.StringArray `db:"address_keywords"`
	AddressProvince               string         `db:"address_province"`
	AddressCity                   string         `db:"address_city"`
	AddressDistrict               string         `db:"address_district"`
	AddressDetail                 string         `db:"address_detail"`
	LegalRepresentative           string         `db:"legal_representative"`
	LegalRepresentativeCanonical  string         `db:"legal_representative_canonical"`
	SafetyManager                 string         `db:"safety_manager"`
	ContactPhone                  string         `db:"contact_phone"`
	PhoneDigits                   string         `db:"phone_digits"`
	BuildingID                    string         `db:"building_id"`
	ExtraFields                   []byte         `db:"extra_fields"`
	CreatedTime                   any            `db:"created_time"`
	UpdatedTime                   any            `db:"updated_time"`
}

func (row secondaryRow) toUnit() models.Unit {
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

func (row secondaryRow) toNormalized() models.NormalizedUnit {
	return models.NormalizedUnit{
		NameCanonical:   row.NameCanonical,
		NameCore:        row.NameCore,
		AddressKeywords: []string(row.AddressKeywords),
		AddressProvince: row.AddressProvince,
		AddressCity:     row.AddressCity,
		AddressDistrict: row.AddressDistrict,
		AddressDetail:   row.AddressDetail,
		CreditCodeCanon: row.CreditCodeCanonical,
		PhoneDigits:     row.PhoneDigits,
		LegalRepCanon:   row.LegalRepresentativeCanonical,
	}
}

// ListRecentForGraph returns both the shareable attributes and the full
// unit rows of the limit most-recently updated SECONDARY units: the Seeds
// build the L4 shared-attribute arena eagerly at task start (spec.md Design
// Notes §9, config.Config.GraphRecentWindowN), and the Units mirror those
// same records into the Memgraph projection (graph.Projector).
func (r *SecondaryRepository) ListRecentForGraph(ctx context.Context, limit int) (graph.SeedBatch, error) {
	ctx, span := tracing.StartSpan(ctx, "units.SecondaryRepository.ListRecentForGraph")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(secondaryColumns...)
	sb.From("units_secondary")
	sb.OrderBy("updated_time").Desc()
	sb.Limit(limit)
	query, args := sb.Build()

	var rows []secondaryRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list recent secondary units for graph seed")
		return graph.SeedBatch{}, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list recent secondary units for graph seed")
	}

	batch := graph.SeedBatch{
		Seeds: make([]graph.Seed, len(rows)),
		Units: make([]models.Unit, len(rows)),
	}
	for i, row := range rows {
		batch.Seeds[i] = graph.Seed{
			ID:            row.ID,
			PhoneDigits:   row.PhoneDigits,
			LegalRepCanon: row.LegalRepresentativeCanonical,
			AddressDetail: row.AddressDetail,
		}
		batch.Units[i] = row.toUnit()
	}
	return batch, nil
}
