package handler

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/plaatsgids/discovery/internal/dto"
	"github.com/plaatsgids/discovery/internal/entity"
	"github.com/plaatsgids/discovery/internal/repository"
)

type mockBusinessesRepository struct {
	listFunc func(ctx context.Context, filter dto.ListFilter) ([]entity.CandidateBusiness, error)
}

func (m *mockBusinessesRepository) Create(ctx context.Context, business *entity.CandidateBusiness) error {
	return nil
}

func (m *mockBusinessesRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.CandidateBusiness, error) {
	return nil, repository.ErrBusinessNotFound
}

func (m *mockBusinessesRepository) GetByExternalID(ctx context.Context, externalID string) (*entity.CandidateBusiness, error) {
	return nil, repository.ErrBusinessNotFound
}

func (m *mockBusinessesRepository) List(ctx context.Context, filter dto.ListFilter) ([]entity.CandidateBusiness, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, filter)
	}
	return nil, nil
}

func (m *mockBusinessesRepository) ListIncomplete(ctx context.Context, locale string, regionID *uuid.UUID, limit int) ([]entity.CandidateBusiness, error) {
	return nil, nil
}

func (m *mockBusinessesRepository) UpsertTranslation(ctx context.Context, translation *entity.BusinessTranslation) error {
	return nil
}

func (m *mockBusinessesRepository) ListTranslations(ctx context.Context, businessID uuid.UUID) ([]entity.BusinessTranslation, error) {
	return nil, nil
}

func (m *mockBusinessesRepository) ModifiedSince(ctx context.Context, since *time.Time) ([]entity.CandidateBusiness, error) {
	return nil, nil
}

func (m *mockBusinessesRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.BusinessStatus) error {
	return nil
}

type mockReferenceRepository struct{}

func (m *mockReferenceRepository) CategoryIDBySlug(ctx context.Context, slug string) (uuid.UUID, error) {
	if slug == "bakery" {
		return uuid.New(), nil
	}
	return uuid.Nil, repository.ErrCategoryNotFound
}

func (m *mockReferenceRepository) CategorySlugs(ctx context.Context) ([]string, error) {
	return []string{"bakery"}, nil
}

func (m *mockReferenceRepository) CityIDByName(ctx context.Context, name string) (uuid.UUID, error) {
	if name == "Utrecht" {
		return uuid.New(), nil
	}
	return uuid.Nil, repository.ErrCityNotFound
}

func (m *mockReferenceRepository) CityNameByID(ctx context.Context, id uuid.UUID) (string, error) {
	return "Utrecht", nil
}

func (m *mockReferenceRepository) CityNames(ctx context.Context) ([]string, error) {
	return []string{"Utrecht"}, nil
}

func (m *mockReferenceRepository) RegionIDByName(ctx context.Context, name string) (uuid.UUID, error) {
	return uuid.Nil, repository.ErrRegionNotFound
}
