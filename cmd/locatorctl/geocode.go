package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/store-locator/internal/adapter/nominatim"
	"github.com/couchcryptid/store-locator/internal/adapter/photon"
	"github.com/couchcryptid/store-locator/internal/adapter/upstream"
	"github.com/couchcryptid/store-locator/internal/catalog"
	"github.com/couchcryptid/store-locator/internal/config"
	"github.com/couchcryptid/store-locator/internal/domain"
	"github.com/couchcryptid/store-locator/internal/locator"
	"github.com/couchcryptid/store-locator/internal/observability"
	"github.com/couchcryptid/store-locator/internal/throttle"
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode [address]",
	Short: "Resolve one address and print the resolution as JSON",
	Long: `Runs the same variant ladder and scoring as the service against the
configured providers (NOMINATIM_URL, PHOTON_URL, CONTACT_EMAIL, ...).
Nothing is cached.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		metrics := observability.NewMetrics()
		up := upstream.NewClient(cfg.ProviderTimeout, throttle.NewGate(cfg.ThrottleInterval), cfg.ContactEmail, metrics, logger)
		providers := []domain.Provider{
			nominatim.NewClient(up, cfg.NominatimURL, cfg.CountryCode),
			photon.NewClient(up, cfg.PhotonURL, cfg.CountryCode),
		}

		opts := locator.DefaultOptions()
		opts.Threshold = cfg.ConfidenceThreshold
		loc := locator.New(providers, nil, catalog.NewMemory(nil), nil, opts, metrics, logger)

		res, err := loc.Geocode(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

var variantsCmd = &cobra.Command{
	Use:   "variants [address]",
	Short: "Print the fallback query ladder for an address",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for i, v := range domain.FallbackVariants(strings.Join(args, " ")) {
			fmt.Fprintf(cmd.OutOrStdout(), "%2d  %s\n", i+1, v)
		}
		return nil
	},
}
