package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/plaatsgids/discovery/internal/batch"
)

var (
	translateLocale    string
	translateRegion    string
	translateLimit     int
	translateBatchSize int
	translateDir       string
)

var translateExportCmd = &cobra.Command{
	Use:   "translate-export",
	Short: "Export untranslated businesses as numbered batch files",
	Long: `Select businesses that have no translation for the given locale and
write them to the batch directory as numbered batch-NNN.json files. The
directory is a full snapshot: previous batch and result files are cleared
first.

Examples:
  pipeline translate-export --locale nl
  pipeline translate-export --locale en --region "Noord-Holland" --limit 100`,
	RunE: runTranslateExport,
}

func init() {
	translateExportCmd.Flags().StringVar(&translateLocale, "locale", "nl", "target translation locale")
	translateExportCmd.Flags().StringVar(&translateRegion, "region", "", "restrict selection to a region by name")
	translateExportCmd.Flags().IntVar(&translateLimit, "limit", 0, "maximum number of businesses to export (0 = all)")
	translateExportCmd.Flags().IntVar(&translateBatchSize, "batch-size", 25, "businesses per batch file")
	translateExportCmd.Flags().StringVar(&translateDir, "dir", "", "batch directory (defaults to BATCH_DIR)")
}

func runTranslateExport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	dir := translateDir
	if dir == "" {
		dir = cfg.BatchDir
	}

	regionID, err := resolveRegion(ctx, translateRegion)
	if err != nil {
		return err
	}

	exporter := batch.NewExporter(businessesRepo(), referenceRepo(), logger)
	summary, err := exporter.Export(ctx, batch.ExportOptions{
		Dir:       dir,
		Locale:    translateLocale,
		RegionID:  regionID,
		Limit:     translateLimit,
		BatchSize: translateBatchSize,
	})
	if err != nil {
		return fmt.Errorf("export batches: %w", err)
	}

	fmt.Printf("Exported %d businesses in %d batches to %s.\n", summary.Records, summary.Batches, dir)
	return nil
}
