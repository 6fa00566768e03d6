// Package crawl drives bounded discovery crawls over directory websites and
// reconciles their completion into persisted job records.
package crawl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/plaatsgids/discovery/internal/config"
	"github.com/plaatsgids/discovery/internal/entity"
	"github.com/plaatsgids/discovery/internal/extract"
	"github.com/plaatsgids/discovery/internal/repository"
)

const maxBodyBytes = 2 << 20

// Request carries the seed configuration for one discovery crawl.
type Request struct {
	SeedURLs   []string
	MaxPages   int
	CityID     *uuid.UUID
	CategoryID *uuid.UUID
	RegionID   *uuid.UUID
}

// Crawler starts and runs discovery crawls. Start returns the crawl
// identifier synchronously; fetching proceeds in the background. The crawler
// exposes no completion callback, only the Busy query the Monitor polls.
type Crawler struct {
	cfg    config.CrawlConfig
	store  *Store
	jobs   repository.CrawlJobsRepository
	client *http.Client
	log    *slog.Logger

	active atomic.Int32

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	slots    map[string]*semaphore.Weighted
}

// NewCrawler wires a crawler. A nil httpClient gets the configured fetch
// timeout and a bounded redirect policy.
func NewCrawler(cfg config.CrawlConfig, store *Store, jobs repository.CrawlJobsRepository, httpClient *http.Client, log *slog.Logger) *Crawler {
	if log == nil {
		log = slog.Default()
	}
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.FetchTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		}
	}
	return &Crawler{
		cfg:      cfg,
		store:    store,
		jobs:     jobs,
		client:   httpClient,
		log:      log,
		limiters: make(map[string]*rate.Limiter),
		slots:    make(map[string]*semaphore.Weighted),
	}
}

// Busy reports whether any discovery crawl still has active workers.
func (c *Crawler) Busy() bool {
	return c.active.Load() > 0
}

// Start validates the request, persists the job record and the artifact
// metadata, and kicks off the fetch loop. The returned identifier names the
// crawl's artifact directory. Seeds may span multiple hosts; all of them
// become allowed hosts for link discovery.
func (c *Crawler) Start(ctx context.Context, req Request) (string, error) {
	if len(req.SeedURLs) == 0 {
		return "", fmt.Errorf("at least one seed URL is required")
	}
	if req.MaxPages <= 0 {
		req.MaxPages = c.cfg.MaxPages
	}

	var hosts []string
	seen := make(map[string]bool)
	for _, seed := range req.SeedURLs {
		parsed, err := url.Parse(seed)
		if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return "", fmt.Errorf("invalid seed URL %q", seed)
		}
		host := strings.ToLower(parsed.Hostname())
		if !seen[host] {
			seen[host] = true
			hosts = append(hosts, host)
		}
	}

	job := &entity.CrawlJob{
		ID:           uuid.NewString(),
		SeedURLs:     req.SeedURLs,
		AllowedHosts: hosts,
		MaxPages:     req.MaxPages,
		CityID:       req.CityID,
		CategoryID:   req.CategoryID,
		RegionID:     req.RegionID,
		Status:       entity.CrawlStatusActive,
		StartedAt:    time.Now().UTC(),
	}

	if err := c.store.CreateCrawl(job); err != nil {
		return "", err
	}
	if err := c.jobs.Create(ctx, job); err != nil {
		return "", err
	}

	c.active.Add(1)
	go c.run(job)

	c.log.Info("crawl started", "crawl_id", job.ID, "seeds", len(job.SeedURLs), "max_pages", job.MaxPages)
	return job.ID, nil
}

// crawlState is the single mutable context for one crawl. All page-state
// mutation goes through its mutex so no two fetch completions can interleave
// a read-modify-write of the counter or the visited set.
type crawlState struct {
	mu      sync.Mutex
	visited map[string]bool
	pages   int
	max     int
}

func (st *crawlState) markVisited(link string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.visited[link] {
		return false
	}
	st.visited[link] = true
	return true
}

// acceptPage claims the next sequence number if the cap allows another page.
func (st *crawlState) acceptPage() (int, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.pages >= st.max {
		return 0, false
	}
	st.pages++
	return st.pages, true
}

func (st *crawlState) capReached() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.pages >= st.max
}

func (st *crawlState) count() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.pages
}

func (c *Crawler) run(job *entity.CrawlJob) {
	defer c.active.Add(-1)

	ctx := context.Background()
	if c.cfg.HardTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.HardTimeout)
		defer cancel()
	}

	extractor := extract.New(job.AllowedHosts)
	state := &crawlState{visited: make(map[string]bool), max: job.MaxPages}

	queue := make(chan string, 4*job.MaxPages+len(job.SeedURLs))

	// Queued plus in-flight tasks. The worker that drains the count to zero
	// closes the queue. Links are marked visited at enqueue time, never at
	// processing time, so a URL enters the queue at most once.
	var pending atomic.Int32
	for _, seed := range job.SeedURLs {
		if state.markVisited(seed) {
			pending.Add(1)
			queue <- seed
		}
	}
	if pending.Load() == 0 {
		close(queue)
	}

	workers := 2 * c.cfg.PerHost
	if workers < 2 {
		workers = 2
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for link := range queue {
				c.processURL(ctx, job, extractor, state, queue, &pending, link)
			}
		}()
	}
	wg.Wait()

	c.log.Info("crawl finished", "crawl_id", job.ID, "pages", state.count())
}

func (c *Crawler) processURL(ctx context.Context, job *entity.CrawlJob, extractor *extract.Extractor, state *crawlState, queue chan string, pending *atomic.Int32, link string) {
	defer func() {
		if pending.Add(-1) == 0 {
			close(queue)
		}
	}()

	if ctx.Err() != nil || state.capReached() {
		return
	}

	result, err := c.fetch(ctx, extractor, link)
	if err != nil {
		// One dead branch must not abort the crawl.
		c.log.Warn("fetch failed", "crawl_id", job.ID, "url", link, "error", err)
		return
	}

	if !result.Empty {
		seq, ok := state.acceptPage()
		if !ok {
			return
		}
		page := &entity.CrawledPage{
			Seq:             seq,
			URL:             result.Content.URL,
			Title:           result.Content.Title,
			MetaDescription: result.Content.MetaDescription,
			Text:            result.Content.Text,
			Headings:        result.Content.Headings,
			Lang:            result.Content.Lang,
			ContentLength:   result.Content.ContentLength,
			CrawledAt:       time.Now().UTC(),
		}
		if err := c.store.WritePage(job.ID, page); err != nil {
			c.log.Warn("persist page failed", "crawl_id", job.ID, "url", link, "error", err)
			return
		}
		if err := c.jobs.UpdatePageCount(ctx, job.ID, seq); err != nil {
			c.log.Warn("update page count failed", "crawl_id", job.ID, "error", err)
		}
	}

	if state.capReached() {
		return
	}
	for _, next := range result.Links {
		if ctx.Err() != nil {
			return
		}
		if state.markVisited(next) {
			pending.Add(1)
			select {
			case queue <- next:
			default:
				// Frontier full; drop the link rather than block a worker.
				pending.Add(-1)
			}
		}
	}
}

func (c *Crawler) fetch(ctx context.Context, extractor *extract.Extractor, link string) (*extract.Result, error) {
	parsed, err := url.Parse(link)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	host := strings.ToLower(parsed.Hostname())

	if err := c.hostLimiter(host).Wait(ctx); err != nil {
		return nil, err
	}
	slot := c.hostSlot(host)
	if err := slot.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer slot.Release(1)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "html") {
		return nil, fmt.Errorf("unsupported content type %q", contentType)
	}

	return extractor.Extract(io.LimitReader(resp.Body, maxBodyBytes), parsed)
}

func (c *Crawler) hostLimiter(host string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	limiter, ok := c.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(c.cfg.FetchDelay), 1)
		c.limiters[host] = limiter
	}
	return limiter
}

func (c *Crawler) hostSlot(host string) *semaphore.Weighted {
	c.mu.Lock()
	defer c.mu.Unlock()
	slot, ok := c.slots[host]
	if !ok {
		slot = semaphore.NewWeighted(int64(c.cfg.PerHost))
		c.slots[host] = slot
	}
	return slot
}
