package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/plaatsgids/discovery/internal/config"
	"github.com/plaatsgids/discovery/internal/crawl"
	"github.com/plaatsgids/discovery/internal/database"
	"github.com/plaatsgids/discovery/internal/handler"
	middlewarepkg "github.com/plaatsgids/discovery/internal/middleware"
	"github.com/plaatsgids/discovery/internal/repository"
	"github.com/plaatsgids/discovery/internal/router"
	"github.com/plaatsgids/discovery/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, cleanup := config.SetupLogger(cfg.LogFile, slog.LevelInfo)
	defer cleanup()
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer pool.Close()

	businessesRepo := repository.NewPGXBusinessesRepository(pool)
	referenceRepo := repository.NewPGXReferenceRepository(pool)
	jobsRepo := repository.NewPGXCrawlJobsRepository(pool)

	store := crawl.NewStore(cfg.Crawl.DataDir)
	crawler := crawl.NewCrawler(cfg.Crawl, store, jobsRepo, nil, logger)
	monitor := crawl.NewMonitor(cfg.MonitorPollInterval, crawler, store, jobsRepo, logger)
	defer monitor.Close()

	businessesService := service.NewBusinessesService(businessesRepo, referenceRepo)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middlewarepkg.RequestID())
	e.Use(middlewarepkg.Logging(logger))
	e.Use(echoMiddleware.Recover())

	router.Register(e, cfg, router.Handlers{
		Crawl:      handler.NewCrawlHandler(crawler, monitor, jobsRepo, store, businessesService),
		Businesses: handler.NewBusinessesHandler(businessesService),
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- e.Start(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
		return
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
