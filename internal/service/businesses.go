// Package service holds thin orchestration over the repositories: listing
// defaults, slug resolution for crawl requests, and seed-file parsing.
package service

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/plaatsgids/discovery/internal/dto"
	"github.com/plaatsgids/discovery/internal/entity"
	"github.com/plaatsgids/discovery/internal/repository"
)

// BusinessesService exposes read operations for the candidate catalogue and
// resolves crawl request linkage.
type BusinessesService struct {
	repo repository.BusinessesRepository
	refs repository.ReferenceRepository
}

// SeedFileError indicates that a provided seed file is unusable.
type SeedFileError struct {
	Message string
}

// Error implements the error interface.
func (e SeedFileError) Error() string {
	return e.Message
}

// NewBusinessesService creates a new instance of BusinessesService.
func NewBusinessesService(repo repository.BusinessesRepository, refs repository.ReferenceRepository) *BusinessesService {
	return &BusinessesService{repo: repo, refs: refs}
}

// List returns candidate businesses respecting pagination defaults.
func (s *BusinessesService) List(ctx context.Context, filter dto.ListFilter) ([]entity.CandidateBusiness, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}
	return s.repo.List(ctx, filter)
}

// ResolveCrawlLinkage turns the optional city/category slugs of a crawl
// request into row identifiers. Unknown slugs are an operator error and abort
// the request.
func (s *BusinessesService) ResolveCrawlLinkage(ctx context.Context, city, category string) (cityID, categoryID *uuid.UUID, err error) {
	if city = strings.TrimSpace(city); city != "" {
		id, err := s.refs.CityIDByName(ctx, city)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve city %q: %w", city, err)
		}
		cityID = &id
	}
	if category = strings.TrimSpace(category); category != "" {
		id, err := s.refs.CategoryIDBySlug(ctx, category)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve category %q: %w", category, err)
		}
		categoryID = &id
	}
	return cityID, categoryID, nil
}

// ResolveRegion turns an optional region name into a row identifier. A blank
// name means no region scope.
func (s *BusinessesService) ResolveRegion(ctx context.Context, region string) (*uuid.UUID, error) {
	if region = strings.TrimSpace(region); region == "" {
		return nil, nil
	}
	id, err := s.refs.RegionIDByName(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("resolve region %q: %w", region, err)
	}
	return &id, nil
}

// ParseSeedFile reads seed URLs, one per line. Blank lines and lines starting
// with # are ignored; anything else must parse as an absolute http(s) URL.
func ParseSeedFile(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)

	var (
		seeds   []string
		lineNum int
	)
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parsed, err := url.Parse(line)
		if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return nil, SeedFileError{Message: fmt.Sprintf("invalid seed URL on line %d: %s", lineNum, line)}
		}
		seeds = append(seeds, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	if len(seeds) == 0 {
		return nil, SeedFileError{Message: "seed file contains no URLs"}
	}
	return seeds, nil
}
