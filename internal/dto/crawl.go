package dto

// CrawlRequest is the payload used to start a discovery crawl.
type CrawlRequest struct {
	SeedURLs []string `json:"seed_urls"`
	MaxPages int      `json:"max_pages,omitempty"`
	City     string   `json:"city,omitempty"`
	Category string   `json:"category,omitempty"`
	Region   string   `json:"region,omitempty"`
}

// CrawlStatusResponse reports where an in-flight or finished crawl stands.
type CrawlStatusResponse struct {
	CrawlID      string `json:"crawl_id"`
	Status       string `json:"status"`
	PagesCrawled int    `json:"pages_crawled"`
	MaxPages     int    `json:"max_pages"`
}
