package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/plaatsgids/discovery/internal/entity"
	"github.com/plaatsgids/discovery/internal/repository"
)

// TranslationResult is one locale row produced by the external transform.
type TranslationResult struct {
	BusinessID  uuid.UUID `json:"business_id"`
	Locale      string    `json:"locale"`
	Summary     *string   `json:"summary,omitempty"`
	Description *string   `json:"description,omitempty"`
}

// DiscoveredBusiness is a business the transform step found that storage does
// not know yet. The external identifier, when present, carries deduplication.
type DiscoveredBusiness struct {
	ExternalID *string `json:"external_id,omitempty"`
	Name       string  `json:"name"`
	Address    *string `json:"address,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Website    *string `json:"website,omitempty"`
	Email      *string `json:"email,omitempty"`
}

// Result is one result file: the batch number it answers plus the entries to
// apply. Either array may be empty.
type Result struct {
	Batch        int                  `json:"batch"`
	Translations []TranslationResult  `json:"translations,omitempty"`
	Businesses   []DiscoveredBusiness `json:"businesses,omitempty"`
}

// ImportSummary counts per-entity outcomes across every processed file.
type ImportSummary struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Importer applies result files back onto storage. Each entity's write is
// all-or-nothing and independent: one failure never blocks the rest of the
// file.
type Importer struct {
	businesses repository.BusinessesRepository
	log        *slog.Logger
}

// NewImporter wires an importer.
func NewImporter(businesses repository.BusinessesRepository, log *slog.Logger) *Importer {
	if log == nil {
		log = slog.Default()
	}
	return &Importer{businesses: businesses, log: log}
}

// Import reads one result file, or every result file in a directory, and
// applies the entries. Translations upsert on (business id, locale) so a
// re-run is safe, and mark the business enriched. Discovered businesses are
// create-or-skip: a blank name
// fails, a known external identifier skips, any other persistence error
// fails. With dryRun set nothing is written and the counts match what a real
// run over the same storage state would report.
func (im *Importer) Import(ctx context.Context, path string, dryRun bool) (ImportSummary, error) {
	var summary ImportSummary

	files, err := resultFiles(path)
	if err != nil {
		return summary, err
	}

	for _, file := range files {
		result, err := readResult(file)
		if err != nil {
			return summary, err
		}

		for _, tr := range result.Translations {
			im.applyTranslation(ctx, tr, dryRun, &summary)
		}
		for _, business := range result.Businesses {
			im.applyBusiness(ctx, business, dryRun, &summary)
		}
	}

	im.log.Info("batch import complete", "files", len(files), "dry_run", dryRun,
		"created", summary.Created, "updated", summary.Updated,
		"skipped", summary.Skipped, "failed", summary.Failed)
	return summary, nil
}

func (im *Importer) applyTranslation(ctx context.Context, tr TranslationResult, dryRun bool, summary *ImportSummary) {
	if tr.BusinessID == uuid.Nil || tr.Locale == "" {
		summary.Failed++
		im.log.Warn("translation result missing identifier or locale", "business_id", tr.BusinessID)
		return
	}
	if dryRun {
		// A real upsert fails when the business row is gone, so the dry run
		// checks existence to report the same count.
		if _, err := im.businesses.GetByID(ctx, tr.BusinessID); err != nil {
			summary.Failed++
			return
		}
		summary.Updated++
		return
	}

	err := im.businesses.UpsertTranslation(ctx, &entity.BusinessTranslation{
		BusinessID:  tr.BusinessID,
		Locale:      tr.Locale,
		Summary:     tr.Summary,
		Description: tr.Description,
	})
	if err != nil {
		summary.Failed++
		im.log.Warn("translation upsert failed", "business_id", tr.BusinessID, "locale", tr.Locale, "error", err)
		return
	}
	if err := im.businesses.UpdateStatus(ctx, tr.BusinessID, entity.StatusEnriched); err != nil {
		im.log.Warn("status advance failed", "business_id", tr.BusinessID, "error", err)
	}
	summary.Updated++
}

func (im *Importer) applyBusiness(ctx context.Context, discovered DiscoveredBusiness, dryRun bool, summary *ImportSummary) {
	if strings.TrimSpace(discovered.Name) == "" {
		summary.Failed++
		im.log.Warn("business result has no name", "external_id", discovered.ExternalID)
		return
	}

	if dryRun {
		if discovered.ExternalID != nil {
			_, err := im.businesses.GetByExternalID(ctx, *discovered.ExternalID)
			switch {
			case err == nil:
				summary.Skipped++
				return
			case !errors.Is(err, repository.ErrBusinessNotFound):
				summary.Failed++
				return
			}
		}
		summary.Created++
		return
	}

	business := &entity.CandidateBusiness{
		ExternalID: discovered.ExternalID,
		Name:       discovered.Name,
		Address:    discovered.Address,
		Phone:      discovered.Phone,
		Website:    discovered.Website,
		Email:      discovered.Email,
		Source:     entity.SourceDiscoveryCrawl,
		Status:     entity.StatusPending,
	}

	err := im.businesses.Create(ctx, business)
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		summary.Skipped++
	case err != nil:
		summary.Failed++
		im.log.Warn("business create failed", "name", discovered.Name, "error", err)
	default:
		summary.Created++
	}
}

// resultFiles resolves the import target to a sorted list of result files.
// Result files are recognized purely by the _result suffix convention.
func resultFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat import target: %w", err)
	}

	if !info.IsDir() {
		return []string{path}, nil
	}

	matches, err := filepath.Glob(filepath.Join(path, "*_result.json"))
	if err != nil {
		return nil, fmt.Errorf("scan result directory: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no result files in %s", path)
	}
	sort.Strings(matches)
	return matches, nil
}

func readResult(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read result file: %w", err)
	}
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode result file %s: %w", filepath.Base(path), err)
	}
	return &result, nil
}
