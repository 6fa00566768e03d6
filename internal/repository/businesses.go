package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/plaatsgids/discovery/internal/dto"
	"github.com/plaatsgids/discovery/internal/entity"
)

var (
	// ErrDuplicate indicates a business with the same external identifier
	// already exists. Callers treat this as skip, never as failure.
	ErrDuplicate = errors.New("business already exists")

	// ErrBusinessNotFound is returned when no business matches the lookup.
	ErrBusinessNotFound = errors.New("business not found")
)

// BusinessesRepository describes persistence operations for candidate businesses.
type BusinessesRepository interface {
	Create(ctx context.Context, business *entity.CandidateBusiness) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.CandidateBusiness, error)
	GetByExternalID(ctx context.Context, externalID string) (*entity.CandidateBusiness, error)
	List(ctx context.Context, filter dto.ListFilter) ([]entity.CandidateBusiness, error)
	ListIncomplete(ctx context.Context, locale string, regionID *uuid.UUID, limit int) ([]entity.CandidateBusiness, error)
	UpsertTranslation(ctx context.Context, translation *entity.BusinessTranslation) error
	ListTranslations(ctx context.Context, businessID uuid.UUID) ([]entity.BusinessTranslation, error)
	ModifiedSince(ctx context.Context, since *time.Time) ([]entity.CandidateBusiness, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.BusinessStatus) error
}

// PGXBusinessesRepository implements BusinessesRepository using pgx.
type PGXBusinessesRepository struct {
	pool pgxPool
}

// NewPGXBusinessesRepository wires a pgx backed repository.
func NewPGXBusinessesRepository(pool *pgxpool.Pool) *PGXBusinessesRepository {
	return &PGXBusinessesRepository{pool: pool}
}

var _ pgxPool = (*pgxpool.Pool)(nil)

const businessColumns = `
            id,
            external_id,
            name,
            slug,
            address,
            phone,
            website,
            email,
            latitude,
            longitude,
            opening_hours,
            source,
            status,
            city_id,
            category_id,
            region_id,
            raw,
            created_at,
            updated_at`

// Create inserts a new candidate business. A unique violation on the external
// identifier surfaces as ErrDuplicate; an empty name is rejected before any
// write so the insert stays all-or-nothing.
func (r *PGXBusinessesRepository) Create(ctx context.Context, business *entity.CandidateBusiness) error {
	if business == nil {
		return fmt.Errorf("business payload is nil")
	}
	if strings.TrimSpace(business.Name) == "" {
		return fmt.Errorf("business name must not be empty")
	}

	if business.ID == uuid.Nil {
		business.ID = uuid.New()
	}
	if business.Status == "" {
		business.Status = entity.StatusPending
	}

	raw := business.Raw
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}

	hoursJSON, err := json.Marshal(hoursOrEmpty(business.OpeningHours))
	if err != nil {
		return fmt.Errorf("marshal opening hours: %w", err)
	}

	query := `
        INSERT INTO businesses (
            id,
            external_id,
            name,
            slug,
            address,
            phone,
            website,
            email,
            latitude,
            longitude,
            opening_hours,
            source,
            status,
            city_id,
            category_id,
            region_id,
            raw,
            updated_at
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
            $11::jsonb, $12, $13, $14, $15, $16, $17::jsonb, NOW()
        );
    `

	_, err = r.pool.Exec(ctx, query,
		business.ID,
		business.ExternalID,
		business.Name,
		business.Slug,
		business.Address,
		business.Phone,
		business.Website,
		business.Email,
		business.Latitude,
		business.Longitude,
		string(hoursJSON),
		business.Source,
		business.Status,
		business.CityID,
		business.CategoryID,
		business.RegionID,
		string(raw),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		return fmt.Errorf("insert business: %w", err)
	}

	return nil
}

// GetByID fetches a business by its row identifier.
func (r *PGXBusinessesRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.CandidateBusiness, error) {
	query := `SELECT ` + businessColumns + ` FROM businesses WHERE id = $1`

	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("query business by id: %w", err)
	}
	defer rows.Close()

	businesses, err := scanBusinesses(rows)
	if err != nil {
		return nil, err
	}
	if len(businesses) == 0 {
		return nil, ErrBusinessNotFound
	}
	return &businesses[0], nil
}

// GetByExternalID fetches a business by its stable source identifier.
func (r *PGXBusinessesRepository) GetByExternalID(ctx context.Context, externalID string) (*entity.CandidateBusiness, error) {
	query := `SELECT ` + businessColumns + ` FROM businesses WHERE external_id = $1`

	rows, err := r.pool.Query(ctx, query, externalID)
	if err != nil {
		return nil, fmt.Errorf("query business by external id: %w", err)
	}
	defer rows.Close()

	businesses, err := scanBusinesses(rows)
	if err != nil {
		return nil, err
	}
	if len(businesses) == 0 {
		return nil, ErrBusinessNotFound
	}
	return &businesses[0], nil
}

// List retrieves businesses matching the provided filter, newest first.
func (r *PGXBusinessesRepository) List(ctx context.Context, filter dto.ListFilter) ([]entity.CandidateBusiness, error) {
	baseQuery := strings.Builder{}
	baseQuery.WriteString(`SELECT ` + businessColumns + ` FROM businesses`)

	var (
		clauses []string
		args    []any
		idx     = 1
	)

	if filter.Q != "" {
		pattern := fmt.Sprintf("%%%s%%", filter.Q)
		clauses = append(clauses, fmt.Sprintf("(name ILIKE $%d OR address ILIKE $%d)", idx, idx+1))
		args = append(args, pattern, pattern)
		idx += 2
	}
	if filter.Status != "" {
		clauses = append(clauses, fmt.Sprintf("status = $%d", idx))
		args = append(args, filter.Status)
		idx++
	}
	if filter.Source != "" {
		clauses = append(clauses, fmt.Sprintf("source = $%d", idx))
		args = append(args, filter.Source)
		idx++
	}
	if filter.Category != "" {
		clauses = append(clauses, fmt.Sprintf("category_id = (SELECT id FROM categories WHERE slug = $%d)", idx))
		args = append(args, filter.Category)
		idx++
	}
	if filter.City != "" {
		clauses = append(clauses, fmt.Sprintf("city_id = (SELECT id FROM cities WHERE LOWER(name) = LOWER($%d))", idx))
		args = append(args, filter.City)
		idx++
	}
	if filter.UpdatedSince != nil {
		clauses = append(clauses, fmt.Sprintf("updated_at >= $%d", idx))
		args = append(args, *filter.UpdatedSince)
		idx++
	}

	if len(clauses) > 0 {
		baseQuery.WriteString(" WHERE ")
		baseQuery.WriteString(strings.Join(clauses, " AND "))
	}

	baseQuery.WriteString(" ORDER BY created_at DESC, name ASC")

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}
	offset := (page - 1) * perPage
	baseQuery.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", idx, idx+1))
	args = append(args, perPage, offset)

	rows, err := r.pool.Query(ctx, baseQuery.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}
	defer rows.Close()

	return scanBusinesses(rows)
}

// ListIncomplete selects businesses still missing translated content for the
// given locale, optionally scoped to a region and capped by limit. These are
// the rows the batch export hands to the external transform step.
func (r *PGXBusinessesRepository) ListIncomplete(ctx context.Context, locale string, regionID *uuid.UUID, limit int) ([]entity.CandidateBusiness, error) {
	baseQuery := strings.Builder{}
	baseQuery.WriteString(`SELECT ` + businessColumns + ` FROM businesses b
        WHERE NOT EXISTS (
            SELECT 1 FROM business_translations t
            WHERE t.business_id = b.id AND t.locale = $1 AND t.summary IS NOT NULL
        )`)

	args := []any{locale}
	idx := 2

	if regionID != nil {
		baseQuery.WriteString(fmt.Sprintf(" AND b.region_id = $%d", idx))
		args = append(args, *regionID)
		idx++
	}

	baseQuery.WriteString(" ORDER BY b.created_at ASC")

	if limit > 0 {
		baseQuery.WriteString(fmt.Sprintf(" LIMIT $%d", idx))
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, baseQuery.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list incomplete businesses: %w", err)
	}
	defer rows.Close()

	return scanBusinesses(rows)
}

// UpsertTranslation stores or updates locale-specific content for a business.
// Keyed on (business_id, locale) so the batch import is safe to re-run.
func (r *PGXBusinessesRepository) UpsertTranslation(ctx context.Context, translation *entity.BusinessTranslation) error {
	if translation == nil {
		return fmt.Errorf("translation payload is nil")
	}
	if translation.Locale == "" {
		return fmt.Errorf("translation locale must not be empty")
	}

	query := `
        INSERT INTO business_translations (
            business_id,
            locale,
            summary,
            description,
            updated_at
        ) VALUES ($1, $2, $3, $4, NOW())
        ON CONFLICT (business_id, locale) DO UPDATE SET
            summary = EXCLUDED.summary,
            description = EXCLUDED.description,
            updated_at = NOW();
    `

	_, err := r.pool.Exec(ctx, query,
		translation.BusinessID,
		translation.Locale,
		translation.Summary,
		translation.Description,
	)
	if err != nil {
		return fmt.Errorf("upsert translation: %w", err)
	}

	return nil
}

// ListTranslations returns every locale row for a business.
func (r *PGXBusinessesRepository) ListTranslations(ctx context.Context, businessID uuid.UUID) ([]entity.BusinessTranslation, error) {
	query := `
        SELECT business_id, locale, summary, description, created_at, updated_at
        FROM business_translations
        WHERE business_id = $1
        ORDER BY locale ASC
    `

	rows, err := r.pool.Query(ctx, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("list translations: %w", err)
	}
	defer rows.Close()

	var translations []entity.BusinessTranslation
	for rows.Next() {
		var (
			tr          entity.BusinessTranslation
			summary     sql.NullString
			description sql.NullString
		)
		if err := rows.Scan(&tr.BusinessID, &tr.Locale, &summary, &description, &tr.CreatedAt, &tr.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan translation: %w", err)
		}
		tr.Summary = nullStringToPtr(summary)
		tr.Description = nullStringToPtr(description)
		translations = append(translations, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate translations: %w", err)
	}
	return translations, nil
}

// ModifiedSince selects businesses whose updated_at is after the given
// timestamp. A nil timestamp selects everything, for full differential dumps.
func (r *PGXBusinessesRepository) ModifiedSince(ctx context.Context, since *time.Time) ([]entity.CandidateBusiness, error) {
	baseQuery := `SELECT ` + businessColumns + ` FROM businesses`
	var args []any
	if since != nil {
		baseQuery += " WHERE updated_at > $1"
		args = append(args, *since)
	}
	baseQuery += " ORDER BY updated_at ASC"

	rows, err := r.pool.Query(ctx, baseQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("list modified businesses: %w", err)
	}
	defer rows.Close()

	return scanBusinesses(rows)
}

// UpdateStatus moves a business through the curation lifecycle.
func (r *PGXBusinessesRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.BusinessStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE businesses SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update business status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBusinessNotFound
	}
	return nil
}

func scanBusinesses(rows pgx.Rows) ([]entity.CandidateBusiness, error) {
	var businesses []entity.CandidateBusiness
	for rows.Next() {
		var (
			b          entity.CandidateBusiness
			externalID sql.NullString
			slug       sql.NullString
			address    sql.NullString
			phone      sql.NullString
			website    sql.NullString
			email      sql.NullString
			latitude   sql.NullFloat64
			longitude  sql.NullFloat64
			hoursJSON  []byte
			cityID     *uuid.UUID
			categoryID *uuid.UUID
			regionID   *uuid.UUID
			raw        []byte
		)

		err := rows.Scan(
			&b.ID,
			&externalID,
			&b.Name,
			&slug,
			&address,
			&phone,
			&website,
			&email,
			&latitude,
			&longitude,
			&hoursJSON,
			&b.Source,
			&b.Status,
			&cityID,
			&categoryID,
			&regionID,
			&raw,
			&b.CreatedAt,
			&b.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan business: %w", err)
		}

		b.ExternalID = nullStringToPtr(externalID)
		b.Slug = nullStringToPtr(slug)
		b.Address = nullStringToPtr(address)
		b.Phone = nullStringToPtr(phone)
		b.Website = nullStringToPtr(website)
		b.Email = nullStringToPtr(email)
		if latitude.Valid {
			val := latitude.Float64
			b.Latitude = &val
		}
		if longitude.Valid {
			val := longitude.Float64
			b.Longitude = &val
		}
		if len(hoursJSON) > 0 {
			if err := json.Unmarshal(hoursJSON, &b.OpeningHours); err != nil {
				return nil, fmt.Errorf("unmarshal opening hours: %w", err)
			}
		}
		b.CityID = cityID
		b.CategoryID = categoryID
		b.RegionID = regionID

		if len(raw) > 0 {
			b.Raw = json.RawMessage(raw)
		} else {
			b.Raw = json.RawMessage("{}")
		}

		businesses = append(businesses, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate businesses: %w", err)
	}
	return businesses, nil
}

func hoursOrEmpty(hours map[string]string) map[string]string {
	if hours == nil {
		return map[string]string{}
	}
	return hours
}

func nullStringToPtr(value sql.NullString) *string {
	if value.Valid {
		val := value.String
		return &val
	}
	return nil
}
