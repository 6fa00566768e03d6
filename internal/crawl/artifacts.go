package crawl

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/plaatsgids/discovery/internal/entity"
)

// Store keeps per-crawl artifacts on disk: one directory per crawl identifier
// holding meta.json plus one sequentially named JSON file per accepted page.
// The filesystem is the source of truth for progress, because the crawl
// workers may run in a separately supervised process from whoever asks.
type Store struct {
	root string
}

// NewStore creates an artifact store rooted at the given directory.
func NewStore(root string) *Store {
	return &Store{root: root}
}

func (s *Store) crawlDir(crawlID string) string {
	return filepath.Join(s.root, crawlID)
}

// CreateCrawl makes the crawl directory and writes the immutable metadata
// record.
func (s *Store) CreateCrawl(job *entity.CrawlJob) error {
	dir := s.crawlDir(job.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create crawl dir: %w", err)
	}
	return writeJSON(filepath.Join(dir, "meta.json"), job)
}

// ReadMeta loads the crawl metadata record.
func (s *Store) ReadMeta(crawlID string) (*entity.CrawlJob, error) {
	data, err := os.ReadFile(filepath.Join(s.crawlDir(crawlID), "meta.json"))
	if err != nil {
		return nil, fmt.Errorf("read crawl meta: %w", err)
	}
	var job entity.CrawlJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("decode crawl meta: %w", err)
	}
	return &job, nil
}

// WritePage persists one accepted page under its sequence number. Pages are
// append-only; a sequence number is never rewritten.
func (s *Store) WritePage(crawlID string, page *entity.CrawledPage) error {
	name := fmt.Sprintf("page-%04d.json", page.Seq)
	return writeJSON(filepath.Join(s.crawlDir(crawlID), name), page)
}

// CountPages counts persisted page artifacts for a crawl. A missing directory
// means zero pages, not an error: the monitor may poll before the first write.
func (s *Store) CountPages(crawlID string) (int, error) {
	names, err := s.pageFiles(crawlID)
	if err != nil {
		return 0, err
	}
	return len(names), nil
}

// ListPages loads every page artifact in sequence order.
func (s *Store) ListPages(crawlID string) ([]entity.CrawledPage, error) {
	names, err := s.pageFiles(crawlID)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	pages := make([]entity.CrawledPage, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(s.crawlDir(crawlID), name))
		if err != nil {
			return nil, fmt.Errorf("read page artifact: %w", err)
		}
		var page entity.CrawledPage
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, fmt.Errorf("decode page artifact %s: %w", name, err)
		}
		pages = append(pages, page)
	}
	return pages, nil
}

func (s *Store) pageFiles(crawlID string) ([]string, error) {
	entries, err := os.ReadDir(s.crawlDir(crawlID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read crawl dir: %w", err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, "page-") && strings.HasSuffix(name, ".json") {
			names = append(names, name)
		}
	}
	return names, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
