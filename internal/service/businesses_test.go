package service

import (
	"context"
	"errors"
	"strings"
	"testing"
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
	return errors.New("not implemented")
}

func (m *mockBusinessesRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.CandidateBusiness, error) {
	return nil, repository.ErrBusinessNotFound
}

func (m *mockBusinessesRepository) GetByExternalID(ctx context.Context, externalID string) (*entity.CandidateBusiness, error) {
	return nil, repository.ErrBusinessNotFound
}

func (m *mockBusinessesRepository) List(ctx context.Context, filter dto.ListFilter) ([]entity.CandidateBusiness, error) {
	return m.listFunc(ctx, filter)
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

type mockReferenceRepository struct {
	cityID     uuid.UUID
	categoryID uuid.UUID
	regionID   uuid.UUID
}

func (m *mockReferenceRepository) CategoryIDBySlug(ctx context.Context, slug string) (uuid.UUID, error) {
	if slug == "bakery" {
		return m.categoryID, nil
	}
	return uuid.Nil, repository.ErrCategoryNotFound
}

func (m *mockReferenceRepository) CategorySlugs(ctx context.Context) ([]string, error) {
	return []string{"bakery"}, nil
}

func (m *mockReferenceRepository) CityIDByName(ctx context.Context, name string) (uuid.UUID, error) {
	if name == "Utrecht" {
		return m.cityID, nil
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
	if name == "Overijssel" {
		return m.regionID, nil
	}
	return uuid.Nil, repository.ErrRegionNotFound
}

func TestList_AppliesPaginationDefaults(t *testing.T) {
	var captured dto.ListFilter
	repo := &mockBusinessesRepository{
		listFunc: func(ctx context.Context, filter dto.ListFilter) ([]entity.CandidateBusiness, error) {
			captured = filter
			return nil, nil
		},
	}
	svc := NewBusinessesService(repo, &mockReferenceRepository{})

	if _, err := svc.List(context.Background(), dto.ListFilter{PerPage: 500}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if captured.Page != 1 || captured.PerPage != 100 {
		t.Fatalf("expected page 1 / per_page clamped to 100, got %+v", captured)
	}
}

func TestResolveCrawlLinkage(t *testing.T) {
	refs := &mockReferenceRepository{cityID: uuid.New(), categoryID: uuid.New()}
	svc := NewBusinessesService(&mockBusinessesRepository{}, refs)

	cityID, categoryID, err := svc.ResolveCrawlLinkage(context.Background(), "Utrecht", "bakery")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cityID == nil || *cityID != refs.cityID {
		t.Fatalf("unexpected city id: %v", cityID)
	}
	if categoryID == nil || *categoryID != refs.categoryID {
		t.Fatalf("unexpected category id: %v", categoryID)
	}

	cityID, categoryID, err = svc.ResolveCrawlLinkage(context.Background(), "", "")
	if err != nil || cityID != nil || categoryID != nil {
		t.Fatalf("expected blank slugs to resolve to nothing, got %v %v %v", cityID, categoryID, err)
	}

	if _, _, err := svc.ResolveCrawlLinkage(context.Background(), "Atlantis", ""); !errors.Is(err, repository.ErrCityNotFound) {
		t.Fatalf("expected ErrCityNotFound, got %v", err)
	}
	if _, _, err := svc.ResolveCrawlLinkage(context.Background(), "", "nonexistent"); !errors.Is(err, repository.ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}
}

func TestResolveRegion(t *testing.T) {
	refs := &mockReferenceRepository{regionID: uuid.New()}
	svc := NewBusinessesService(&mockBusinessesRepository{}, refs)

	regionID, err := svc.ResolveRegion(context.Background(), "Overijssel")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if regionID == nil || *regionID != refs.regionID {
		t.Fatalf("unexpected region id: %v", regionID)
	}

	if regionID, err = svc.ResolveRegion(context.Background(), "  "); err != nil || regionID != nil {
		t.Fatalf("expected blank region to resolve to nothing, got %v %v", regionID, err)
	}

	if _, err := svc.ResolveRegion(context.Background(), "Elbonia"); !errors.Is(err, repository.ErrRegionNotFound) {
		t.Fatalf("expected ErrRegionNotFound, got %v", err)
	}
}

func TestParseSeedFile(t *testing.T) {
	input := strings.NewReader(`# seeds voor de gids
https://voorbeeld.nl/bedrijven

https://example.nl/gids
`)
	seeds, err := ParseSeedFile(input)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(seeds) != 2 || seeds[0] != "https://voorbeeld.nl/bedrijven" {
		t.Fatalf("unexpected seeds: %v", seeds)
	}
}

func TestParseSeedFile_Invalid(t *testing.T) {
	cases := map[string]string{
		"empty":        "# alleen commentaar\n",
		"bad scheme":   "ftp://voorbeeld.nl\n",
		"not a url":    "gewoon tekst\n",
		"missing host": "https:///pad\n",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSeedFile(strings.NewReader(input))
			var seedErr SeedFileError
			if !errors.As(err, &seedErr) {
				t.Fatalf("expected SeedFileError, got %v", err)
			}
		})
	}
}
