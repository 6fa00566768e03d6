package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/plaatsgids/discovery/internal/entity"
)

// ErrJobNotFound is returned when no crawl job record matches the identifier.
var ErrJobNotFound = errors.New("crawl job not found")

// CrawlJobsRepository persists crawl job records. The seed configuration is
// written once at crawl start; afterwards only the page counter and terminal
// status move.
type CrawlJobsRepository interface {
	Create(ctx context.Context, job *entity.CrawlJob) error
	Get(ctx context.Context, id string) (*entity.CrawlJob, error)
	UpdatePageCount(ctx context.Context, id string, pages int) error
	MarkCrawled(ctx context.Context, id string, pages int, finishedAt time.Time) error
}

// PGXCrawlJobsRepository implements CrawlJobsRepository using pgx.
type PGXCrawlJobsRepository struct {
	pool pgxPool
}

// NewPGXCrawlJobsRepository wires a pgx backed crawl jobs repository.
func NewPGXCrawlJobsRepository(pool *pgxpool.Pool) *PGXCrawlJobsRepository {
	return &PGXCrawlJobsRepository{pool: pool}
}

// Create writes the immutable job record at crawl start.
func (r *PGXCrawlJobsRepository) Create(ctx context.Context, job *entity.CrawlJob) error {
	if job == nil {
		return fmt.Errorf("crawl job payload is nil")
	}
	if job.ID == "" {
		return fmt.Errorf("crawl job id must not be empty")
	}

	query := `
        INSERT INTO crawl_jobs (
            id,
            seed_urls,
            allowed_hosts,
            max_pages,
            pages_crawled,
            city_id,
            category_id,
            region_id,
            status,
            started_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
    `

	_, err := r.pool.Exec(ctx, query,
		job.ID,
		job.SeedURLs,
		job.AllowedHosts,
		job.MaxPages,
		job.PagesCrawled,
		job.CityID,
		job.CategoryID,
		job.RegionID,
		entity.CrawlStatusActive,
		job.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("insert crawl job: %w", err)
	}

	return nil
}

// Get fetches one crawl job record by identifier.
func (r *PGXCrawlJobsRepository) Get(ctx context.Context, id string) (*entity.CrawlJob, error) {
	query := `
        SELECT id, seed_urls, allowed_hosts, max_pages, pages_crawled,
               city_id, category_id, region_id, status, started_at, finished_at
        FROM crawl_jobs
        WHERE id = $1
    `

	var (
		job        entity.CrawlJob
		finishedAt sql.NullTime
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&job.ID,
		&job.SeedURLs,
		&job.AllowedHosts,
		&job.MaxPages,
		&job.PagesCrawled,
		&job.CityID,
		&job.CategoryID,
		&job.RegionID,
		&job.Status,
		&job.StartedAt,
		&finishedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("query crawl job: %w", err)
	}

	if finishedAt.Valid {
		ts := finishedAt.Time
		job.FinishedAt = &ts
	}

	return &job, nil
}

// UpdatePageCount reconciles the persisted page counter mid-crawl.
func (r *PGXCrawlJobsRepository) UpdatePageCount(ctx context.Context, id string, pages int) error {
	tag, err := r.pool.Exec(ctx, `UPDATE crawl_jobs SET pages_crawled = $1 WHERE id = $2`, pages, id)
	if err != nil {
		return fmt.Errorf("update crawl page count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

// MarkCrawled records the terminal state with the final page count. Repeating
// the call leaves the record unchanged apart from the same values.
func (r *PGXCrawlJobsRepository) MarkCrawled(ctx context.Context, id string, pages int, finishedAt time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE crawl_jobs SET status = $1, pages_crawled = $2, finished_at = $3 WHERE id = $4`,
		entity.CrawlStatusCrawled, pages, finishedAt, id,
	)
	if err != nil {
		return fmt.Errorf("mark crawl job crawled: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}
