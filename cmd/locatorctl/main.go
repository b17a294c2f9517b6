// Command locatorctl is the operator CLI for the store locator: it seeds the
// store catalog, checks store fixtures, and runs one-off geocoding from the
// shell.
//
// Usage:
//
//	locatorctl seed --db data/stores.duckdb stores.json
//	locatorctl check stores.json
//	locatorctl fixture --out testdata/stores.json --count 500
//	locatorctl geocode "Circle K 236 Le Van Sy, Q3"
//	locatorctl variants "GS25 12 Ly Tu Trong, P. Ben Nghe"
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/store-locator/internal/domain"
	"github.com/couchcryptid/store-locator/internal/observability"
)

var (
	logLevel    string
	aliasesFile string
	catalogPath string
	logger      *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "locatorctl",
	Short:         "Store locator operator tools",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger = observability.NewLogger(logLevel, "text")
		if aliasesFile == "" {
			return nil
		}
		table, err := domain.LoadBrandAliases(aliasesFile)
		if err != nil {
			return err
		}
		domain.SetBrandAliases(table)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&aliasesFile, "brand-aliases", os.Getenv("BRAND_ALIASES_FILE"), "TOML brand alias table")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "db", os.Getenv("CATALOG_DSN"), "DuckDB catalog path")

	rootCmd.AddCommand(seedCmd, checkCmd, fixtureCmd, geocodeCmd, variantsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadStores reads a JSON array of stores.
func loadStores(path string) ([]domain.Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var stores []domain.Store
	if err := json.Unmarshal(data, &stores); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return stores, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
