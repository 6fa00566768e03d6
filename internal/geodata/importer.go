package geodata

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/plaatsgids/discovery/internal/repository"
)

// ImportSummary reports the outcome of a bulk city import. Duplicates are
// skipped, every other persistence failure is counted, and neither stops the
// run.
type ImportSummary struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Importer runs bulk city imports: query all features for a city, resolve
// category linkage, and create-or-skip each candidate.
type Importer struct {
	normalizer *Normalizer
	businesses repository.BusinessesRepository
	refs       repository.ReferenceRepository
	log        *slog.Logger
}

// NewImporter wires an importer.
func NewImporter(normalizer *Normalizer, businesses repository.BusinessesRepository, refs repository.ReferenceRepository, log *slog.Logger) *Importer {
	if log == nil {
		log = slog.Default()
	}
	return &Importer{normalizer: normalizer, businesses: businesses, refs: refs, log: log}
}

// Import queries every categorized feature within the city and persists each
// as a pending candidate. Existing external identifiers are skipped; features
// whose category slug has no row in storage are skipped as well, since the
// directory cannot place them.
func (im *Importer) Import(ctx context.Context, cityID, regionID uuid.UUID) (ImportSummary, error) {
	var summary ImportSummary

	cityName, err := im.refs.CityNameByID(ctx, cityID)
	if err != nil {
		return summary, err
	}

	candidates, err := im.normalizer.QueryCity(ctx, cityName)
	if err != nil {
		return summary, err
	}

	categoryIDs := make(map[string]*uuid.UUID)

	for _, candidate := range candidates {
		categoryID, ok := categoryIDs[candidate.CategorySlug]
		if !ok {
			resolved, err := im.refs.CategoryIDBySlug(ctx, candidate.CategorySlug)
			switch {
			case errors.Is(err, repository.ErrCategoryNotFound):
				categoryID = nil
			case err != nil:
				return summary, err
			default:
				categoryID = &resolved
			}
			categoryIDs[candidate.CategorySlug] = categoryID
		}
		if categoryID == nil {
			summary.Skipped++
			continue
		}

		business := candidate.Business
		slug := Slugify(business.Name)
		business.Slug = &slug
		business.CityID = &cityID
		business.RegionID = &regionID
		business.CategoryID = categoryID

		err := im.businesses.Create(ctx, &business)
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			summary.Skipped++
		case err != nil:
			summary.Failed++
			im.log.Warn("city import create failed", "name", business.Name, "error", err)
		default:
			summary.Created++
		}
	}

	im.log.Info("city import complete", "city", cityName,
		"created", summary.Created, "skipped", summary.Skipped, "failed", summary.Failed)
	return summary, nil
}
