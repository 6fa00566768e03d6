package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/plaatsgids/discovery/internal/crawl"
	"github.com/plaatsgids/discovery/internal/service"
)

var (
	crawlSeedFile string
	crawlCity     string
	crawlCategory string
	crawlRegion   string
	crawlMaxPages int
)

var crawlCmd = &cobra.Command{
	Use:   "crawl [seed-url...]",
	Short: "Run a discovery crawl over one or more seed URLs",
	Long: `Run a discovery crawl and persist the accepted pages as JSON artifacts.

Seed URLs come from the arguments, a seed file (one URL per line, # comments),
or both. The command blocks until the crawl finishes.

Examples:
  pipeline crawl https://voorbeeld.nl/bedrijven
  pipeline crawl --seed-file seeds.txt --city Utrecht --category bakery
  pipeline crawl https://a.nl https://b.nl --max-pages 100`,
	RunE: runCrawl,
}

func init() {
	crawlCmd.Flags().StringVar(&crawlSeedFile, "seed-file", "", "file with seed URLs, one per line")
	crawlCmd.Flags().StringVar(&crawlCity, "city", "", "link discovered candidates to this city")
	crawlCmd.Flags().StringVar(&crawlCategory, "category", "", "link discovered candidates to this category slug")
	crawlCmd.Flags().StringVar(&crawlRegion, "region", "", "link discovered candidates to this region")
	crawlCmd.Flags().IntVar(&crawlMaxPages, "max-pages", 0, "page cap for this crawl (default from config)")
}

func runCrawl(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	seeds := args
	if crawlSeedFile != "" {
		file, err := os.Open(crawlSeedFile)
		if err != nil {
			return fmt.Errorf("open seed file: %w", err)
		}
		fromFile, err := service.ParseSeedFile(file)
		file.Close()
		if err != nil {
			return err
		}
		seeds = append(seeds, fromFile...)
	}
	if len(seeds) == 0 {
		return fmt.Errorf("no seed URLs given: pass them as arguments or via --seed-file")
	}

	refs := referenceRepo()
	svc := service.NewBusinessesService(businessesRepo(), refs)
	cityID, categoryID, err := svc.ResolveCrawlLinkage(ctx, crawlCity, crawlCategory)
	if err != nil {
		return err
	}
	regionID, err := resolveRegion(ctx, crawlRegion)
	if err != nil {
		return err
	}

	jobs := crawlJobsRepo()
	store := crawl.NewStore(cfg.Crawl.DataDir)
	crawler := crawl.NewCrawler(cfg.Crawl, store, jobs, nil, logger)
	monitor := crawl.NewMonitor(cfg.MonitorPollInterval, crawler, store, jobs, logger)
	defer monitor.Close()

	crawlID, err := crawler.Start(ctx, crawl.Request{
		SeedURLs:   seeds,
		MaxPages:   crawlMaxPages,
		CityID:     cityID,
		CategoryID: categoryID,
		RegionID:   regionID,
	})
	if err != nil {
		return fmt.Errorf("start crawl: %w", err)
	}
	monitor.Watch(crawlID)

	fmt.Printf("Crawl %s started with %d seed(s).\n", crawlID, len(seeds))

	// The monitor drops the crawl from its watch set once it has marked the
	// job record terminal.
	for monitor.Watching(crawlID) {
		time.Sleep(250 * time.Millisecond)
	}

	pages, err := store.CountPages(crawlID)
	if err != nil {
		return fmt.Errorf("count pages: %w", err)
	}
	fmt.Printf("Crawl %s finished: %d page(s) persisted under %s.\n", crawlID, pages, cfg.Crawl.DataDir)
	return nil
}
