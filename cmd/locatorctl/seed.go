package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/store-locator/internal/catalog"
)

const seedChunk = 500

var seedSkipCheck bool

var seedCmd = &cobra.Command{
	Use:   "seed [stores.json]",
	Short: "Load a JSON store fixture into the catalog",
	Long: `Reads a JSON array of stores and upserts them into the DuckDB catalog by id.
The fixture is checked first; pass --skip-check to load it anyway.`,
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().BoolVar(&seedSkipCheck, "skip-check", false, "load without checking the fixture")
}

func runSeed(cmd *cobra.Command, args []string) error {
	if catalogPath == "" {
		return fmt.Errorf("--db or CATALOG_DSN is required")
	}
	stores, err := loadStores(args[0])
	if err != nil {
		return err
	}
	if !seedSkipCheck {
		if failed := failedPhases(checkStores(stores)); len(failed) > 0 {
			return fmt.Errorf("fixture failed %d checks, run `locatorctl check %s`", len(failed), args[0])
		}
	}

	ctx := cmd.Context()
	db, err := catalog.OpenDuckDB(catalogPath)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.CreateSchema(ctx); err != nil {
		return err
	}

	var bar *progressbar.ProgressBar
	if isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(len(stores),
			progressbar.OptionSetDescription("Seeding stores"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	for start := 0; start < len(stores); start += seedChunk {
		end := min(start+seedChunk, len(stores))
		if err := db.Upsert(ctx, stores[start:end]); err != nil {
			return err
		}
		if bar != nil {
			_ = bar.Add(end - start)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	logger.Info("catalog seeded", "path", catalogPath, "stores", len(stores))
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d stores into %s\n", len(stores), catalogPath)
	return nil
}
