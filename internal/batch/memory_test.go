package batch

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/plaatsgids/discovery/internal/dto"
	"github.com/plaatsgids/discovery/internal/entity"
	"github.com/plaatsgids/discovery/internal/repository"
)

// memoryRepo is an in-memory BusinessesRepository with the same duplicate and
// validation behavior as the pgx implementation, so pipeline semantics can be
// exercised without a database.
type memoryRepo struct {
	mu           sync.Mutex
	businesses   []entity.CandidateBusiness
	translations map[string]entity.BusinessTranslation
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{translations: make(map[string]entity.BusinessTranslation)}
}

func translationKey(businessID uuid.UUID, locale string) string {
	return businessID.String() + "/" + locale
}

func (m *memoryRepo) Create(ctx context.Context, business *entity.CandidateBusiness) error {
	if business == nil {
		return fmt.Errorf("business payload is nil")
	}
	if strings.TrimSpace(business.Name) == "" {
		return fmt.Errorf("business name must not be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if business.ExternalID != nil {
		for _, existing := range m.businesses {
			if existing.ExternalID != nil && *existing.ExternalID == *business.ExternalID {
				return repository.ErrDuplicate
			}
		}
	}

	if business.ID == uuid.Nil {
		business.ID = uuid.New()
	}
	if business.UpdatedAt.IsZero() {
		business.UpdatedAt = time.Now().UTC()
	}
	m.businesses = append(m.businesses, *business)
	return nil
}

func (m *memoryRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.CandidateBusiness, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.businesses {
		if existing.ID == id {
			copied := existing
			return &copied, nil
		}
	}
	return nil, repository.ErrBusinessNotFound
}

func (m *memoryRepo) GetByExternalID(ctx context.Context, externalID string) (*entity.CandidateBusiness, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.businesses {
		if existing.ExternalID != nil && *existing.ExternalID == externalID {
			copied := existing
			return &copied, nil
		}
	}
	return nil, repository.ErrBusinessNotFound
}

func (m *memoryRepo) List(ctx context.Context, filter dto.ListFilter) ([]entity.CandidateBusiness, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]entity.CandidateBusiness(nil), m.businesses...), nil
}

func (m *memoryRepo) ListIncomplete(ctx context.Context, locale string, regionID *uuid.UUID, limit int) ([]entity.CandidateBusiness, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var incomplete []entity.CandidateBusiness
	for _, business := range m.businesses {
		if _, ok := m.translations[translationKey(business.ID, locale)]; ok {
			continue
		}
		if regionID != nil && (business.RegionID == nil || *business.RegionID != *regionID) {
			continue
		}
		incomplete = append(incomplete, business)
		if limit > 0 && len(incomplete) == limit {
			break
		}
	}
	return incomplete, nil
}

func (m *memoryRepo) UpsertTranslation(ctx context.Context, translation *entity.BusinessTranslation) error {
	if translation == nil {
		return fmt.Errorf("translation payload is nil")
	}
	if translation.Locale == "" {
		return fmt.Errorf("translation locale must not be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Model the foreign key: no translation row without its business.
	known := false
	for _, existing := range m.businesses {
		if existing.ID == translation.BusinessID {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("business %s does not exist", translation.BusinessID)
	}

	stored := *translation
	stored.UpdatedAt = time.Now().UTC()
	m.translations[translationKey(translation.BusinessID, translation.Locale)] = stored
	return nil
}

func (m *memoryRepo) ListTranslations(ctx context.Context, businessID uuid.UUID) ([]entity.BusinessTranslation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var translations []entity.BusinessTranslation
	for _, tr := range m.translations {
		if tr.BusinessID == businessID {
			translations = append(translations, tr)
		}
	}
	sort.Slice(translations, func(i, j int) bool { return translations[i].Locale < translations[j].Locale })
	return translations, nil
}

func (m *memoryRepo) ModifiedSince(ctx context.Context, since *time.Time) ([]entity.CandidateBusiness, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var modified []entity.CandidateBusiness
	for _, business := range m.businesses {
		if since != nil && !business.UpdatedAt.After(*since) {
			continue
		}
		modified = append(modified, business)
	}
	return modified, nil
}

func (m *memoryRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.BusinessStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.businesses {
		if m.businesses[i].ID == id {
			m.businesses[i].Status = status
			m.businesses[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return repository.ErrBusinessNotFound
}

func (m *memoryRepo) translationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.translations)
}

func (m *memoryRepo) businessCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.businesses)
}

type fakeRefs struct {
	categories []string
	cities     []string
}

func (f *fakeRefs) CategoryIDBySlug(ctx context.Context, slug string) (uuid.UUID, error) {
	for _, known := range f.categories {
		if known == slug {
			return uuid.New(), nil
		}
	}
	return uuid.Nil, repository.ErrCategoryNotFound
}

func (f *fakeRefs) CategorySlugs(ctx context.Context) ([]string, error) {
	return f.categories, nil
}

func (f *fakeRefs) CityIDByName(ctx context.Context, name string) (uuid.UUID, error) {
	for _, known := range f.cities {
		if known == name {
			return uuid.New(), nil
		}
	}
	return uuid.Nil, repository.ErrCityNotFound
}

func (f *fakeRefs) CityNameByID(ctx context.Context, id uuid.UUID) (string, error) {
	if len(f.cities) == 0 {
		return "", repository.ErrCityNotFound
	}
	return f.cities[0], nil
}

func (f *fakeRefs) CityNames(ctx context.Context) ([]string, error) {
	return f.cities, nil
}

func (f *fakeRefs) RegionIDByName(ctx context.Context, name string) (uuid.UUID, error) {
	return uuid.Nil, repository.ErrRegionNotFound
}

func translationFor(businessID uuid.UUID, locale string, summary *string) *entity.BusinessTranslation {
	return &entity.BusinessTranslation{BusinessID: businessID, Locale: locale, Summary: summary}
}

func seedBusiness(t interface{ Fatalf(string, ...any) }, repo *memoryRepo, name, externalID string) entity.CandidateBusiness {
	business := entity.CandidateBusiness{
		Name:   name,
		Source: entity.SourceMapData,
		Status: entity.StatusPending,
	}
	if externalID != "" {
		business.ExternalID = &externalID
	}
	if err := repo.Create(context.Background(), &business); err != nil {
		t.Fatalf("seed business %s: %v", name, err)
	}
	return business
}
