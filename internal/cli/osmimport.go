package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/plaatsgids/discovery/internal/geodata"
)

var (
	osmImportCity   string
	osmImportRegion string
)

var osmImportCmd = &cobra.Command{
	Use:   "osm-import",
	Short: "Import candidate businesses for a city from the geodata backend",
	Long: `Query every categorized feature within a city and create pending
candidate businesses. Features already known by their external identifier are
skipped.

Examples:
  pipeline osm-import --city Utrecht --region "Utrecht"
  pipeline osm-import --city Zwolle --region Overijssel`,
	RunE: runOSMImport,
}

func init() {
	osmImportCmd.Flags().StringVar(&osmImportCity, "city", "", "city to import (required)")
	osmImportCmd.Flags().StringVar(&osmImportRegion, "region", "", "region the city belongs to (required)")
	_ = osmImportCmd.MarkFlagRequired("city")
	_ = osmImportCmd.MarkFlagRequired("region")
}

func runOSMImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	refs := referenceRepo()
	cityID, err := refs.CityIDByName(ctx, osmImportCity)
	if err != nil {
		return fmt.Errorf("resolve city %q: %w", osmImportCity, err)
	}
	regionID, err := refs.RegionIDByName(ctx, osmImportRegion)
	if err != nil {
		return fmt.Errorf("resolve region %q: %w", osmImportRegion, err)
	}

	client := geodata.NewClient(nil, cfg.GeodataURL, cfg.Crawl.UserAgent)
	normalizer := geodata.NewNormalizer(client, logger)
	importer := geodata.NewImporter(normalizer, businessesRepo(), refs, logger)

	summary, err := importer.Import(ctx, cityID, regionID)
	if err != nil {
		return fmt.Errorf("import city: %w", err)
	}

	fmt.Printf("Imported %s: %d created, %d skipped, %d failed.\n",
		osmImportCity, summary.Created, summary.Skipped, summary.Failed)
	return nil
}
