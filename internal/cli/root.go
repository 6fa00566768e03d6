// Package cli provides the pipeline command-line interface: discovery crawls,
// geodata imports, and the batch export/import/diff steps.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	"github.com/plaatsgids/discovery/internal/config"
	"github.com/plaatsgids/discovery/internal/database"
	"github.com/plaatsgids/discovery/internal/repository"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	cfg    *config.Config
	logger *slog.Logger
	pool   *pgxpool.Pool

	logCleanup func() error
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "pipeline",
	Short:   "Discovery and content pipeline for the business directory",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logger, logCleanup = config.SetupLogger(cfg.LogFile, slog.LevelInfo)
		slog.SetDefault(logger)

		pool, err = database.Connect(context.Background(), cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if pool != nil {
			pool.Close()
		}
		if logCleanup != nil {
			_ = logCleanup()
		}
	},
}

func businessesRepo() repository.BusinessesRepository {
	return repository.NewPGXBusinessesRepository(pool)
}

func referenceRepo() repository.ReferenceRepository {
	return repository.NewPGXReferenceRepository(pool)
}

func crawlJobsRepo() repository.CrawlJobsRepository {
	return repository.NewPGXCrawlJobsRepository(pool)
}

// resolveRegion turns an optional region name into a row identifier. An
// unknown region is an operator error and aborts the command.
func resolveRegion(ctx context.Context, name string) (*uuid.UUID, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}
	id, err := referenceRepo().RegionIDByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("resolve region %q: %w", name, err)
	}
	return &id, nil
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(crawlCmd)
	rootCmd.AddCommand(osmImportCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(translateExportCmd)
	rootCmd.AddCommand(diffExportCmd)
}
