package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/plaatsgids/discovery/internal/batch"
	"github.com/plaatsgids/discovery/internal/crawl"
)

var (
	exportDir       string
	exportBatchSize int
)

var exportCmd = &cobra.Command{
	Use:   "export <crawl-id>",
	Short: "Export a finished crawl's pages as batch files",
	Long: `Chunk the persisted pages of a crawl into numbered batch files for
external business extraction. The batch directory always holds the current
snapshot; previous batch and result files are cleared first.

Examples:
  pipeline export 2f9f4a1c-... --batch-size 10
  pipeline export 2f9f4a1c-... --dir ./batches`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportDir, "dir", "", "batch directory (default from config)")
	exportCmd.Flags().IntVar(&exportBatchSize, "batch-size", 25, "pages per batch file")
}

func runExport(cmd *cobra.Command, args []string) error {
	crawlID := args[0]

	dir := exportDir
	if dir == "" {
		dir = cfg.BatchDir
	}

	store := crawl.NewStore(cfg.Crawl.DataDir)
	pages, err := store.ListPages(crawlID)
	if err != nil {
		return fmt.Errorf("load crawl pages: %w", err)
	}

	exporter := batch.NewExporter(businessesRepo(), referenceRepo(), logger)
	summary, err := exporter.ExportPages(context.Background(), dir, crawlID, pages, exportBatchSize)
	if err != nil {
		return fmt.Errorf("export pages: %w", err)
	}

	fmt.Printf("Exported %d page(s) as %d batch file(s) to %s.\n", summary.Records, summary.Batches, dir)
	return nil
}
