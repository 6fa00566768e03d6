package crawl

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/plaatsgids/discovery/internal/repository"
)

// Engine is the poll-able liveness query the crawl engine exposes. There is
// no completion callback; reconciliation has to be driven from outside.
type Engine interface {
	Busy() bool
}

// PageCounter counts persisted page artifacts for a crawl identifier.
type PageCounter interface {
	CountPages(crawlID string) (int, error)
}

// Monitor reconciles asynchronous crawl progress into persisted job records.
// It runs one periodic loop over a watch set: progress is recomputed from the
// artifacts on disk each tick, and a crawl is marked terminal exactly once
// after the engine reports no active workers. The loop disarms itself when
// the watch set empties and rearms on the next Watch call.
type Monitor struct {
	interval time.Duration
	engine   Engine
	counter  PageCounter
	jobs     repository.CrawlJobsRepository
	log      *slog.Logger

	mu      sync.Mutex
	watched map[string]bool
	running bool
	stop    chan struct{}
}

// NewMonitor wires a completion monitor.
func NewMonitor(interval time.Duration, engine Engine, counter PageCounter, jobs repository.CrawlJobsRepository, log *slog.Logger) *Monitor {
	if log == nil {
		log = slog.Default()
	}
	return &Monitor{
		interval: interval,
		engine:   engine,
		counter:  counter,
		jobs:     jobs,
		log:      log,
		watched:  make(map[string]bool),
	}
}

// Watch adds a crawl identifier to the watch set. The first watch arms the
// poll timer; watching an already-watched identifier is a no-op.
func (m *Monitor) Watch(crawlID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.watched[crawlID] = true
	if !m.running {
		m.running = true
		m.stop = make(chan struct{})
		go m.loop(m.stop)
	}
}

// Watching reports whether the identifier is currently in the watch set.
func (m *Monitor) Watching(crawlID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.watched[crawlID]
}

// Close stops the poll loop if armed. Watched identifiers are kept; a later
// Watch rearms the loop.
func (m *Monitor) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		close(m.stop)
		m.running = false
	}
}

func (m *Monitor) loop(stop chan struct{}) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if m.Poll(context.Background()) == 0 {
				m.mu.Lock()
				// Disarm only if no Watch slipped in since the poll.
				if len(m.watched) == 0 {
					m.running = false
					m.mu.Unlock()
					return
				}
				m.mu.Unlock()
			}
		}
	}
}

// Poll runs one reconciliation tick over the watch set and returns how many
// identifiers remain watched. While the engine still reports active workers
// only the page count is refreshed; afterwards each watched crawl gets one
// final count, a terminal mark, and removal from the set.
func (m *Monitor) Poll(ctx context.Context) int {
	m.mu.Lock()
	ids := make([]string, 0, len(m.watched))
	for id := range m.watched {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	busy := m.engine.Busy()

	for _, id := range ids {
		pages, err := m.counter.CountPages(id)
		if err != nil {
			m.log.Warn("count crawl artifacts failed", "crawl_id", id, "error", err)
			continue
		}

		if busy {
			m.refresh(ctx, id, pages)
			continue
		}

		m.finalize(ctx, id, pages)
		m.mu.Lock()
		delete(m.watched, id)
		m.mu.Unlock()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.watched)
}

func (m *Monitor) refresh(ctx context.Context, id string, pages int) {
	job, err := m.jobs.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, repository.ErrJobNotFound) {
			m.log.Warn("load crawl job failed", "crawl_id", id, "error", err)
		}
		return
	}
	if job.PagesCrawled == pages {
		return
	}
	if err := m.jobs.UpdatePageCount(ctx, id, pages); err != nil {
		m.log.Warn("update crawl progress failed", "crawl_id", id, "error", err)
	}
}

func (m *Monitor) finalize(ctx context.Context, id string, pages int) {
	err := m.jobs.MarkCrawled(ctx, id, pages, time.Now().UTC())
	switch {
	case errors.Is(err, repository.ErrJobNotFound):
		m.log.Warn("no job record for finished crawl", "crawl_id", id)
	case err != nil:
		m.log.Warn("mark crawl finished failed", "crawl_id", id, "error", err)
	default:
		m.log.Info("crawl marked finished", "crawl_id", id, "pages", pages)
	}
}
