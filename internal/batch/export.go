// Package batch implements the export → external transform → import pipeline
// for candidate businesses. Export writes numbered, self-contained JSON batch
// files; an external step produces matching result files; import applies them
// with upsert and create-or-skip semantics.
package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/plaatsgids/discovery/internal/entity"
	"github.com/plaatsgids/discovery/internal/repository"
)

const defaultBatchSize = 25

// Context carries the shared vocabulary embedded in every batch file so the
// external transform step needs no further queries.
type Context struct {
	Categories []string `json:"categories"`
	Cities     []string `json:"cities"`
	Locale     string   `json:"locale"`
}

// File is one numbered batch on disk.
type File struct {
	Batch        int                        `json:"batch"`
	TotalBatches int                        `json:"total_batches"`
	Context      Context                    `json:"context"`
	Businesses   []entity.CandidateBusiness `json:"businesses"`
}

// ExportOptions scope one export run.
type ExportOptions struct {
	Dir       string
	Locale    string
	RegionID  *uuid.UUID
	Limit     int
	BatchSize int
}

// ExportSummary reports what an export run wrote.
type ExportSummary struct {
	Batches int `json:"batches"`
	Records int `json:"records"`
}

// Exporter selects incomplete businesses and writes them as batch files.
type Exporter struct {
	businesses repository.BusinessesRepository
	refs       repository.ReferenceRepository
	log        *slog.Logger
}

// NewExporter wires an exporter.
func NewExporter(businesses repository.BusinessesRepository, refs repository.ReferenceRepository, log *slog.Logger) *Exporter {
	if log == nil {
		log = slog.Default()
	}
	return &Exporter{businesses: businesses, refs: refs, log: log}
}

// Export writes businesses missing content for the locale as numbered batch
// files under opts.Dir. The directory always holds a full current snapshot:
// previous batch and result files are removed before anything is written, even
// when the selection comes back empty.
func (e *Exporter) Export(ctx context.Context, opts ExportOptions) (ExportSummary, error) {
	var summary ExportSummary

	if opts.Locale == "" {
		return summary, fmt.Errorf("export locale is required")
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return summary, fmt.Errorf("create batch directory: %w", err)
	}
	if err := clearBatchFiles(opts.Dir); err != nil {
		return summary, err
	}

	businesses, err := e.businesses.ListIncomplete(ctx, opts.Locale, opts.RegionID, opts.Limit)
	if err != nil {
		return summary, err
	}
	if len(businesses) == 0 {
		e.log.Info("batch export selected nothing", "locale", opts.Locale)
		return summary, nil
	}

	batchContext, err := e.buildContext(ctx, opts.Locale)
	if err != nil {
		return summary, err
	}

	total := (len(businesses) + opts.BatchSize - 1) / opts.BatchSize
	for i := 0; i < total; i++ {
		start := i * opts.BatchSize
		end := start + opts.BatchSize
		if end > len(businesses) {
			end = len(businesses)
		}

		file := File{
			Batch:        i + 1,
			TotalBatches: total,
			Context:      batchContext,
			Businesses:   businesses[start:end],
		}
		if err := writeBatchFile(opts.Dir, file); err != nil {
			return summary, err
		}
	}

	summary.Batches = total
	summary.Records = len(businesses)
	e.log.Info("batch export complete", "locale", opts.Locale,
		"batches", summary.Batches, "records", summary.Records)
	return summary, nil
}

// PageFile is one numbered batch of crawled pages awaiting external business
// extraction. Result files produced against it feed the same import step.
type PageFile struct {
	Batch        int                  `json:"batch"`
	TotalBatches int                  `json:"total_batches"`
	CrawlID      string               `json:"crawl_id"`
	Context      Context              `json:"context"`
	Pages        []entity.CrawledPage `json:"pages"`
}

// ExportPages chunks a finished crawl's persisted pages into numbered batch
// files under dir, with the same snapshot semantics as Export.
func (e *Exporter) ExportPages(ctx context.Context, dir, crawlID string, pages []entity.CrawledPage, batchSize int) (ExportSummary, error) {
	var summary ExportSummary

	if crawlID == "" {
		return summary, fmt.Errorf("crawl identifier is required")
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return summary, fmt.Errorf("create batch directory: %w", err)
	}
	if err := clearBatchFiles(dir); err != nil {
		return summary, err
	}
	if len(pages) == 0 {
		e.log.Info("page export selected nothing", "crawl_id", crawlID)
		return summary, nil
	}

	batchContext, err := e.buildContext(ctx, "")
	if err != nil {
		return summary, err
	}

	total := (len(pages) + batchSize - 1) / batchSize
	for i := 0; i < total; i++ {
		start := i * batchSize
		end := start + batchSize
		if end > len(pages) {
			end = len(pages)
		}

		file := PageFile{
			Batch:        i + 1,
			TotalBatches: total,
			CrawlID:      crawlID,
			Context:      batchContext,
			Pages:        pages[start:end],
		}
		data, err := json.MarshalIndent(file, "", "  ")
		if err != nil {
			return summary, fmt.Errorf("encode page batch %d: %w", file.Batch, err)
		}
		path := filepath.Join(dir, batchFileName(file.Batch))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return summary, fmt.Errorf("write page batch file: %w", err)
		}
	}

	summary.Batches = total
	summary.Records = len(pages)
	e.log.Info("page export complete", "crawl_id", crawlID,
		"batches", summary.Batches, "pages", len(pages))
	return summary, nil
}

func (e *Exporter) buildContext(ctx context.Context, locale string) (Context, error) {
	categories, err := e.refs.CategorySlugs(ctx)
	if err != nil {
		return Context{}, err
	}
	cities, err := e.refs.CityNames(ctx)
	if err != nil {
		return Context{}, err
	}
	return Context{Categories: categories, Cities: cities, Locale: locale}, nil
}

func batchFileName(number int) string {
	return fmt.Sprintf("batch-%03d.json", number)
}

func writeBatchFile(dir string, file File) error {
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encode batch %d: %w", file.Batch, err)
	}
	path := filepath.Join(dir, batchFileName(file.Batch))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write batch file: %w", err)
	}
	return nil
}

// clearBatchFiles removes batch inputs and stale result files. Matching both
// keeps a re-export from pairing fresh inputs with results of a previous run.
func clearBatchFiles(dir string) error {
	matches, err := filepath.Glob(filepath.Join(dir, "batch-*.json"))
	if err != nil {
		return fmt.Errorf("scan batch directory: %w", err)
	}
	for _, match := range matches {
		if err := os.Remove(match); err != nil {
			return fmt.Errorf("remove stale batch file: %w", err)
		}
	}
	return nil
}
