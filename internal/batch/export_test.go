package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/plaatsgids/discovery/internal/entity"
)

func TestExporter_WritesNumberedSnapshot(t *testing.T) {
	repo := newMemoryRepo()
	for i := 1; i <= 5; i++ {
		seedBusiness(t, repo, fmt.Sprintf("Bedrijf %d", i), fmt.Sprintf("node/%d", i))
	}
	refs := &fakeRefs{categories: []string{"bakery", "restaurant"}, cities: []string{"Utrecht", "Zwolle"}}

	dir := t.TempDir()
	// Leftovers from a previous run must not survive the new snapshot.
	for _, stale := range []string{"batch-777.json", "batch-001_result.json"} {
		if err := os.WriteFile(filepath.Join(dir, stale), []byte("{}"), 0o644); err != nil {
			t.Fatalf("write stale file: %v", err)
		}
	}

	exporter := NewExporter(repo, refs, nil)
	summary, err := exporter.Export(context.Background(), ExportOptions{
		Dir:       dir,
		Locale:    "nl",
		BatchSize: 2,
	})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if summary.Batches != 3 || summary.Records != 5 {
		t.Fatalf("expected 3 batches / 5 businesses, got %+v", summary)
	}

	entries, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected exactly the 3 fresh batch files, got %v", entries)
	}

	data, err := os.ReadFile(filepath.Join(dir, "batch-001.json"))
	if err != nil {
		t.Fatalf("read first batch: %v", err)
	}
	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		t.Fatalf("decode first batch: %v", err)
	}
	if file.Batch != 1 || file.TotalBatches != 3 {
		t.Fatalf("unexpected batch counters: %+v", file)
	}
	if len(file.Businesses) != 2 {
		t.Fatalf("expected 2 businesses in first batch, got %d", len(file.Businesses))
	}
	if file.Context.Locale != "nl" || len(file.Context.Categories) != 2 || len(file.Context.Cities) != 2 {
		t.Fatalf("batch context not self-contained: %+v", file.Context)
	}

	// Last batch holds the remainder.
	data, err = os.ReadFile(filepath.Join(dir, "batch-003.json"))
	if err != nil {
		t.Fatalf("read last batch: %v", err)
	}
	if err := json.Unmarshal(data, &file); err != nil {
		t.Fatalf("decode last batch: %v", err)
	}
	if len(file.Businesses) != 1 {
		t.Fatalf("expected remainder of 1, got %d", len(file.Businesses))
	}
}

func TestExporter_SkipsTranslatedBusinesses(t *testing.T) {
	repo := newMemoryRepo()
	done := seedBusiness(t, repo, "Vertaald", "node/1")
	seedBusiness(t, repo, "Onvertaald", "node/2")

	summary := "Klaar."
	if err := repo.UpsertTranslation(context.Background(), translationFor(done.ID, "nl", &summary)); err != nil {
		t.Fatalf("seed translation: %v", err)
	}

	exporter := NewExporter(repo, &fakeRefs{}, nil)
	result, err := exporter.Export(context.Background(), ExportOptions{Dir: t.TempDir(), Locale: "nl"})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if result.Records != 1 {
		t.Fatalf("expected only the untranslated business, got %d", result.Records)
	}
}

func TestExporter_EmptySelectionStillClears(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "batch-001.json"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("write stale file: %v", err)
	}

	exporter := NewExporter(newMemoryRepo(), &fakeRefs{}, nil)
	summary, err := exporter.Export(context.Background(), ExportOptions{Dir: dir, Locale: "nl"})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if summary.Batches != 0 {
		t.Fatalf("expected no batches, got %d", summary.Batches)
	}

	entries, _ := filepath.Glob(filepath.Join(dir, "*.json"))
	if len(entries) != 0 {
		t.Fatalf("expected stale files removed, got %v", entries)
	}
}

func TestExporter_ExportPages(t *testing.T) {
	refs := &fakeRefs{categories: []string{"bakery"}, cities: []string{"Utrecht"}}
	exporter := NewExporter(newMemoryRepo(), refs, nil)

	pages := []entity.CrawledPage{
		{Seq: 1, URL: "https://voorbeeld.nl/", Title: "Start"},
		{Seq: 2, URL: "https://voorbeeld.nl/over", Title: "Over ons"},
		{Seq: 3, URL: "https://voorbeeld.nl/contact", Title: "Contact"},
	}

	dir := t.TempDir()
	summary, err := exporter.ExportPages(context.Background(), dir, "crawl-1", pages, 2)
	if err != nil {
		t.Fatalf("export pages: %v", err)
	}
	if summary.Batches != 2 || summary.Records != 3 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	data, err := os.ReadFile(filepath.Join(dir, "batch-002.json"))
	if err != nil {
		t.Fatalf("read second batch: %v", err)
	}
	var file PageFile
	if err := json.Unmarshal(data, &file); err != nil {
		t.Fatalf("decode second batch: %v", err)
	}
	if file.CrawlID != "crawl-1" || len(file.Pages) != 1 {
		t.Fatalf("unexpected page batch: %+v", file)
	}
	if file.Pages[0].URL != "https://voorbeeld.nl/contact" {
		t.Fatalf("pages out of order: %+v", file.Pages)
	}

	if _, err := exporter.ExportPages(context.Background(), dir, "", nil, 2); err == nil {
		t.Fatalf("expected error for missing crawl identifier")
	}
}

func TestExporter_RequiresLocale(t *testing.T) {
	exporter := NewExporter(newMemoryRepo(), &fakeRefs{}, nil)
	if _, err := exporter.Export(context.Background(), ExportOptions{Dir: t.TempDir()}); err == nil {
		t.Fatalf("expected error for missing locale")
	}
}
