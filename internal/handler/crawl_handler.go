package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/plaatsgids/discovery/internal/crawl"
	"github.com/plaatsgids/discovery/internal/dto"
	"github.com/plaatsgids/discovery/internal/repository"
	"github.com/plaatsgids/discovery/internal/service"
)

// CrawlStarter starts discovery crawls.
type CrawlStarter interface {
	Start(ctx context.Context, req crawl.Request) (string, error)
}

// CrawlWatcher tracks a started crawl until completion.
type CrawlWatcher interface {
	Watch(crawlID string)
}

// PageCounter counts persisted page artifacts for a crawl.
type PageCounter interface {
	CountPages(crawlID string) (int, error)
}

// CrawlHandler exposes the crawl start and status endpoints.
type CrawlHandler struct {
	crawler CrawlStarter
	monitor CrawlWatcher
	jobs    repository.CrawlJobsRepository
	pages   PageCounter
	service *service.BusinessesService
}

// NewCrawlHandler creates a new handler instance.
func NewCrawlHandler(crawler CrawlStarter, monitor CrawlWatcher, jobs repository.CrawlJobsRepository, pages PageCounter, svc *service.BusinessesService) *CrawlHandler {
	return &CrawlHandler{crawler: crawler, monitor: monitor, jobs: jobs, pages: pages, service: svc}
}

// Start handles POST /crawls requests.
func (h *CrawlHandler) Start(c echo.Context) error {
	var req dto.CrawlRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	var seeds []string
	for _, seed := range req.SeedURLs {
		if seed = strings.TrimSpace(seed); seed != "" {
			seeds = append(seeds, seed)
		}
	}
	if len(seeds) == 0 {
		return Error(c, http.StatusBadRequest, "seed_urls is required")
	}

	ctx := c.Request().Context()
	cityID, categoryID, err := h.service.ResolveCrawlLinkage(ctx, req.City, req.Category)
	switch {
	case errors.Is(err, repository.ErrCityNotFound):
		return Error(c, http.StatusBadRequest, "unknown city")
	case errors.Is(err, repository.ErrCategoryNotFound):
		return Error(c, http.StatusBadRequest, "unknown category")
	case err != nil:
		return Error(c, http.StatusInternalServerError, "failed to resolve crawl linkage")
	}

	regionID, err := h.service.ResolveRegion(ctx, req.Region)
	switch {
	case errors.Is(err, repository.ErrRegionNotFound):
		return Error(c, http.StatusBadRequest, "unknown region")
	case err != nil:
		return Error(c, http.StatusInternalServerError, "failed to resolve crawl linkage")
	}

	crawlID, err := h.crawler.Start(ctx, crawl.Request{
		SeedURLs:   seeds,
		MaxPages:   req.MaxPages,
		CityID:     cityID,
		CategoryID: categoryID,
		RegionID:   regionID,
	})
	if err != nil {
		return Error(c, http.StatusBadRequest, err.Error())
	}
	h.monitor.Watch(crawlID)

	return Success(c, http.StatusAccepted, "crawl started", map[string]string{"crawl_id": crawlID})
}

// Status handles GET /crawls/:id requests. Pages crawled comes from counting
// artifacts on disk so mid-crawl progress is visible before the next monitor
// tick refreshes the job record.
func (h *CrawlHandler) Status(c echo.Context) error {
	crawlID := c.Param("id")

	job, err := h.jobs.Get(c.Request().Context(), crawlID)
	if errors.Is(err, repository.ErrJobNotFound) {
		return Error(c, http.StatusNotFound, "crawl not found")
	}
	if err != nil {
		return Error(c, http.StatusInternalServerError, "failed to load crawl")
	}

	pages := job.PagesCrawled
	if counted, err := h.pages.CountPages(crawlID); err == nil && counted > pages {
		pages = counted
	}

	return Success(c, http.StatusOK, "crawl status", dto.CrawlStatusResponse{
		CrawlID:      job.ID,
		Status:       string(job.Status),
		PagesCrawled: pages,
		MaxPages:     job.MaxPages,
	})
}
