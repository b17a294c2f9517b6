package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/store-locator/internal/domain"
)

// phase tracks pass/fail for a check phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// maxReported caps the errors printed per phase.
const maxReported = 20

var checkCmd = &cobra.Command{
	Use:   "check [stores.json]",
	Short: "Check a store fixture before seeding",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stores, err := loadStores(args[0])
		if err != nil {
			return err
		}
		phases := checkStores(stores)
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "=== Store Fixture Check: %d stores ===\n\n", len(stores))
		for _, p := range phases {
			status := "PASS"
			if !p.passed() {
				status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			}
			fmt.Fprintf(out, "  %-24s %s\n", p.name, status)
		}
		for _, p := range failedPhases(phases) {
			fmt.Fprintf(out, "\n--- %s ---\n", p.name)
			for i, e := range p.errors {
				if i == maxReported {
					fmt.Fprintf(out, "  ... and %d more\n", len(p.errors)-maxReported)
					break
				}
				fmt.Fprintf(out, "  %s\n", e)
			}
		}
		if failed := failedPhases(phases); len(failed) > 0 {
			return fmt.Errorf("%d of %d checks failed", len(failed), len(phases))
		}
		return nil
	},
}

// checkStores runs every fixture phase.
func checkStores(stores []domain.Store) []*phase {
	return []*phase{
		checkIdentity(stores),
		checkCoordinates(stores),
		checkHours(stores),
		checkBrands(stores),
	}
}

func failedPhases(phases []*phase) []*phase {
	var out []*phase
	for _, p := range phases {
		if !p.passed() {
			out = append(out, p)
		}
	}
	return out
}

func checkIdentity(stores []domain.Store) *phase {
	p := &phase{name: "Identity"}
	seen := make(map[int64]int, len(stores))
	for i, s := range stores {
		if s.ID <= 0 {
			p.errorf("[%d] id %d: must be positive", i, s.ID)
		}
		if prev, dup := seen[s.ID]; dup {
			p.errorf("[%d] id %d: duplicates entry %d", i, s.ID, prev)
		}
		seen[s.ID] = i
		if s.Name == "" {
			p.errorf("[%d] id %d: empty name", i, s.ID)
		}
	}
	return p
}

func checkCoordinates(stores []domain.Store) *phase {
	p := &phase{name: "Coordinates"}
	for i, s := range stores {
		pos := s.Position()
		switch {
		case !pos.Valid():
			p.errorf("[%d] id %d: %.6f,%.6f out of range", i, s.ID, s.Lat, s.Lon)
		case s.Lat == 0 && s.Lon == 0:
			p.errorf("[%d] id %d: null island", i, s.ID)
		}
	}
	return p
}

func checkHours(stores []domain.Store) *phase {
	p := &phase{name: "Hours"}
	noon := time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, s := range stores {
		if s.Is24h || s.OpenTime == "" || s.CloseTime == "" {
			continue
		}
		if domain.IsOpenNow(s, noon) == nil {
			p.errorf("[%d] id %d: unparseable hours %q-%q", i, s.ID, s.OpenTime, s.CloseTime)
		}
	}
	return p
}

func checkBrands(stores []domain.Store) *phase {
	p := &phase{name: "Brands"}
	for i, s := range stores {
		if s.Brand == "" {
			continue
		}
		if domain.NormalizeBrand(s.Brand) == "" {
			p.errorf("[%d] id %d: brand %q has no alias entry", i, s.ID, s.Brand)
		}
	}
	return p
}
