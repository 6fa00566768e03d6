package crawl

import (
	"testing"
	"time"

	"github.com/plaatsgids/discovery/internal/entity"
)

func TestStore_RoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())

	job := &entity.CrawlJob{
		ID:           "crawl-abc",
		SeedURLs:     []string{"https://example.nl/directory"},
		AllowedHosts: []string{"example.nl"},
		MaxPages:     10,
		Status:       entity.CrawlStatusActive,
		StartedAt:    time.Now().UTC(),
	}
	if err := store.CreateCrawl(job); err != nil {
		t.Fatalf("create crawl: %v", err)
	}

	meta, err := store.ReadMeta("crawl-abc")
	if err != nil {
		t.Fatalf("read meta: %v", err)
	}
	if meta.ID != job.ID || meta.MaxPages != 10 {
		t.Fatalf("unexpected meta: %+v", meta)
	}

	for seq := 1; seq <= 3; seq++ {
		page := &entity.CrawledPage{Seq: seq, URL: "https://example.nl/p", Text: "inhoud"}
		if err := store.WritePage("crawl-abc", page); err != nil {
			t.Fatalf("write page %d: %v", seq, err)
		}
	}

	count, err := store.CountPages("crawl-abc")
	if err != nil {
		t.Fatalf("count pages: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 pages, got %d", count)
	}

	pages, err := store.ListPages("crawl-abc")
	if err != nil {
		t.Fatalf("list pages: %v", err)
	}
	if len(pages) != 3 || pages[0].Seq != 1 || pages[2].Seq != 3 {
		t.Fatalf("expected pages in sequence order, got %+v", pages)
	}
}

func TestStore_CountPagesMissingCrawl(t *testing.T) {
	store := NewStore(t.TempDir())

	count, err := store.CountPages("nonexistent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected zero pages for missing crawl, got %d", count)
	}
}

func TestStore_CountIgnoresMeta(t *testing.T) {
	store := NewStore(t.TempDir())

	job := &entity.CrawlJob{ID: "crawl-x", StartedAt: time.Now()}
	if err := store.CreateCrawl(job); err != nil {
		t.Fatalf("create crawl: %v", err)
	}

	count, err := store.CountPages("crawl-x")
	if err != nil {
		t.Fatalf("count pages: %v", err)
	}
	if count != 0 {
		t.Fatalf("meta.json must not count as a page, got %d", count)
	}
}
