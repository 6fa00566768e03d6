package entity

import (
	"time"

	"github.com/google/uuid"
)

// CrawlStatus is the lifecycle of a discovery crawl job record.
type CrawlStatus string

const (
	CrawlStatusActive  CrawlStatus = "active"
	CrawlStatusCrawled CrawlStatus = "crawled"
)

// CrawlJob is the persisted record for one discovery crawl run. The seed
// configuration is immutable after creation; only the page counter and the
// terminal status change afterwards.
type CrawlJob struct {
	ID           string      `json:"id"`
	SeedURLs     []string    `json:"seed_urls"`
	AllowedHosts []string    `json:"allowed_hosts"`
	MaxPages     int         `json:"max_pages"`
	PagesCrawled int         `json:"pages_crawled"`
	CityID       *uuid.UUID  `json:"city_id,omitempty"`
	CategoryID   *uuid.UUID  `json:"category_id,omitempty"`
	RegionID     *uuid.UUID  `json:"region_id,omitempty"`
	Status       CrawlStatus `json:"status"`
	StartedAt    time.Time   `json:"started_at"`
	FinishedAt   *time.Time  `json:"finished_at,omitempty"`
}

// CrawledPage is one accepted page within a crawl, identified by its sequence
// number. Pages are append-only artifacts and never mutate once written.
type CrawledPage struct {
	Seq             int       `json:"seq"`
	URL             string    `json:"url"`
	Title           string    `json:"title"`
	MetaDescription string    `json:"meta_description,omitempty"`
	Text            string    `json:"text"`
	Headings        []string  `json:"headings,omitempty"`
	Lang            string    `json:"lang,omitempty"`
	ContentLength   int       `json:"content_length"`
	CrawledAt       time.Time `json:"crawled_at"`
}
