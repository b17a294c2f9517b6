package domain

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/pelletier/go-toml/v2"
)

// BrandAliases maps a canonical brand key to every spelling the catalog may
// record it under.
type BrandAliases map[string][]string

// DefaultBrandAliases is the built-in chain table.
var DefaultBrandAliases = BrandAliases{
	"CIRCLEK": {"CIRCLEK", "CIRCLE K", "CIRCLE_K", "CIRCLE-K", "Circle K"},
	"GS25":    {"GS25", "GS 25", "Gs25", "GS-25"},
}

var (
	brandsMu sync.RWMutex
	brands   = DefaultBrandAliases
)

// SetBrandAliases replaces the alias table. Pass nil to restore the defaults.
func SetBrandAliases(table BrandAliases) {
	brandsMu.Lock()
	defer brandsMu.Unlock()
	if table == nil {
		brands = DefaultBrandAliases
		return
	}
	brands = table
}

// Aliases returns the catalog spellings for a brand key, or nil when unknown.
func Aliases(key string) []string {
	brandsMu.RLock()
	defer brandsMu.RUnlock()
	return brands[strings.ToUpper(strings.TrimSpace(key))]
}

// BrandKeys returns the known brand keys in sorted order.
func BrandKeys() []string {
	brandsMu.RLock()
	defer brandsMu.RUnlock()
	keys := make([]string, 0, len(brands))
	for k := range brands {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// NormalizeBrand maps free text to a brand key. Spacing, case, hyphens and
// underscores are ignored, and an alias anywhere in the text counts, so
// "gs-25 Nguyen Trai" resolves to GS25. Returns "" when no brand matches.
func NormalizeBrand(raw string) string {
	compact := compactBrand(raw)
	if compact == "" {
		return ""
	}
	if key, ok := lookupBrand(raw); ok {
		return key
	}
	brandsMu.RLock()
	defer brandsMu.RUnlock()
	for _, key := range sortedKeys(brands) {
		for _, alias := range append([]string{key}, brands[key]...) {
			if a := compactBrand(alias); a != "" && strings.Contains(compact, a) {
				return key
			}
		}
	}
	return ""
}

// lookupBrand matches text that is exactly a brand spelling.
func lookupBrand(text string) (string, bool) {
	compact := compactBrand(text)
	if compact == "" {
		return "", false
	}
	brandsMu.RLock()
	defer brandsMu.RUnlock()
	for _, key := range sortedKeys(brands) {
		if compactBrand(key) == compact {
			return key, true
		}
		for _, alias := range brands[key] {
			if compactBrand(alias) == compact {
				return key, true
			}
		}
	}
	return "", false
}

func compactBrand(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func sortedKeys(table BrandAliases) []string {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type brandFile struct {
	Brands map[string][]string `toml:"brands"`
}

// LoadBrandAliases reads an alias table from a TOML file of the form
//
//	[brands]
//	CIRCLEK = ["CIRCLE K", "Circle-K"]
//
// Keys are upper-cased.
func LoadBrandAliases(path string) (BrandAliases, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read brand aliases: %w", err)
	}
	var f brandFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse brand aliases: %w", err)
	}
	if len(f.Brands) == 0 {
		return nil, fmt.Errorf("parse brand aliases: %s has no [brands] entries", path)
	}
	table := make(BrandAliases, len(f.Brands))
	for k, v := range f.Brands {
		table[strings.ToUpper(strings.TrimSpace(k))] = v
	}
	return table, nil
}
