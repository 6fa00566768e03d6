package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrCategoryNotFound is returned when no category row matches the slug.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrCityNotFound is returned when no city row matches the lookup.
	ErrCityNotFound = errors.New("city not found")

	// ErrRegionNotFound is returned when no region row matches the name.
	ErrRegionNotFound = errors.New("region not found")
)

// ReferenceRepository reads the category and city vocabulary the pipeline
// embeds into batch context and uses to resolve linkage IDs.
type ReferenceRepository interface {
	CategoryIDBySlug(ctx context.Context, slug string) (uuid.UUID, error)
	CategorySlugs(ctx context.Context) ([]string, error)
	CityIDByName(ctx context.Context, name string) (uuid.UUID, error)
	CityNameByID(ctx context.Context, id uuid.UUID) (string, error)
	CityNames(ctx context.Context) ([]string, error)
	RegionIDByName(ctx context.Context, name string) (uuid.UUID, error)
}

// PGXReferenceRepository implements ReferenceRepository using pgx.
type PGXReferenceRepository struct {
	pool pgxPool
}

// NewPGXReferenceRepository wires a pgx backed reference repository.
func NewPGXReferenceRepository(pool *pgxpool.Pool) *PGXReferenceRepository {
	return &PGXReferenceRepository{pool: pool}
}

// CategoryIDBySlug resolves a category slug to its identifier.
func (r *PGXReferenceRepository) CategoryIDBySlug(ctx context.Context, slug string) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT id FROM categories WHERE slug = $1`, slug).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrCategoryNotFound
		}
		return uuid.Nil, fmt.Errorf("query category by slug: %w", err)
	}
	return id, nil
}

// CategorySlugs lists every known category slug.
func (r *PGXReferenceRepository) CategorySlugs(ctx context.Context) ([]string, error) {
	return r.queryStrings(ctx, `SELECT slug FROM categories ORDER BY slug ASC`)
}

// CityIDByName resolves a city name to its identifier, case-insensitively.
func (r *PGXReferenceRepository) CityIDByName(ctx context.Context, name string) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT id FROM cities WHERE LOWER(name) = LOWER($1)`, name).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrCityNotFound
		}
		return uuid.Nil, fmt.Errorf("query city by name: %w", err)
	}
	return id, nil
}

// CityNameByID resolves a city identifier to its display name.
func (r *PGXReferenceRepository) CityNameByID(ctx context.Context, id uuid.UUID) (string, error) {
	var name string
	err := r.pool.QueryRow(ctx, `SELECT name FROM cities WHERE id = $1`, id).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrCityNotFound
		}
		return "", fmt.Errorf("query city by id: %w", err)
	}
	return name, nil
}

// CityNames lists every known city name.
func (r *PGXReferenceRepository) CityNames(ctx context.Context) ([]string, error) {
	return r.queryStrings(ctx, `SELECT name FROM cities ORDER BY name ASC`)
}

// RegionIDByName resolves a region name to its identifier, case-insensitively.
func (r *PGXReferenceRepository) RegionIDByName(ctx context.Context, name string) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT id FROM regions WHERE LOWER(name) = LOWER($1)`, name).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrRegionNotFound
		}
		return uuid.Nil, fmt.Errorf("query region by name: %w", err)
	}
	return id, nil
}

func (r *PGXReferenceRepository) queryStrings(ctx context.Context, query string) ([]string, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query reference values: %w", err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("scan reference value: %w", err)
		}
		values = append(values, value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reference values: %w", err)
	}
	return values, nil
}
