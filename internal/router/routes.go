package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/plaatsgids/discovery/internal/config"
	"github.com/plaatsgids/discovery/internal/handler"
	middlewarepkg "github.com/plaatsgids/discovery/internal/middleware"
)

// Handlers aggregates HTTP handlers used by the router.
type Handlers struct {
	Crawl      *handler.CrawlHandler
	Businesses *handler.BusinessesHandler
}

// Register wires all HTTP routes for the API.
func Register(e *echo.Echo, cfg *config.Config, handlers Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return handler.Success(c, http.StatusOK, "service healthy", map[string]any{"status": "ok"})
	})

	e.GET("/businesses", handlers.Businesses.List)

	e.POST("/crawls", handlers.Crawl.Start, middlewarepkg.CrawlRateLimiter(cfg.RateLimitCrawlAPI))
	e.GET("/crawls/:id", handlers.Crawl.Status)
}
