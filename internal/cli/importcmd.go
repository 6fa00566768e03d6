package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/plaatsgids/discovery/internal/batch"
)

var importDryRun bool

var importCmd = &cobra.Command{
	Use:   "import <path>",
	Short: "Apply result files back onto the candidate catalogue",
	Long: `Read one result file, or every *_result.json in a directory, and apply
the entries: translations upsert per (business, locale), discovered businesses
are created or skipped when already known.

With --dry-run nothing is written; the reported counts match a real run.

Examples:
  pipeline import ./batches
  pipeline import ./batches/batch-001_result.json --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "report counts without writing")
}

func runImport(cmd *cobra.Command, args []string) error {
	importer := batch.NewImporter(businessesRepo(), logger)
	summary, err := importer.Import(context.Background(), args[0], importDryRun)
	if err != nil {
		return fmt.Errorf("import results: %w", err)
	}

	mode := ""
	if importDryRun {
		mode = " (dry run)"
	}
	fmt.Printf("Import%s: %d created, %d updated, %d skipped, %d failed.\n",
		mode, summary.Created, summary.Updated, summary.Skipped, summary.Failed)
	return nil
}
