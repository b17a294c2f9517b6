package domain

import (
	"regexp"
	"strings"
)

// buildingWordsRe matches building-type words that geocoders rarely index.
// Longer alternatives come first so "apartment block" wins over "apartment".
var buildingWordsRe = regexp.MustCompile(`(?i)(^|[\s,])(cao ốc|cao oc|tòa nhà|toà nhà|toa nha|chung cư|chung cu|căn hộ|can ho|apartment block|apartment|building|tower)([\s,]|$)`)

var spaceBeforeCommaRe = regexp.MustCompile(`\s+,`)

// ladder is an order-preserving set of query strings. Membership ignores
// case and whitespace differences.
type ladder struct {
	items []string
	seen  map[string]struct{}
}

func (l *ladder) add(v string) {
	v = strings.TrimSpace(whitespaceRe.ReplaceAllString(v, " "))
	v = spaceBeforeCommaRe.ReplaceAllString(v, ",")
	v = repeatedCommaRe.ReplaceAllString(commaRe.ReplaceAllString(v, ", "), ", ")
	v = strings.Trim(v, " ,")
	if v == "" {
		return
	}
	key := strings.ToLower(v)
	if l.seen == nil {
		l.seen = make(map[string]struct{})
	}
	if _, dup := l.seen[key]; dup {
		return
	}
	l.seen[key] = struct{}{}
	l.items = append(l.items, v)
}

// Variants returns the primary rewrites of a query in the order they should
// be tried: locality-ensured text, its accent-stripped form, and the
// normalized text with only the country appended.
func Variants(raw string) []string {
	base := Normalize(raw)
	if base == "" {
		return nil
	}
	full := EnsureLocality(base)
	withCountry := base
	if !mentionsCountry(withCountry) {
		withCountry += ", " + DefaultCountry
	}

	var l ladder
	l.add(full)
	l.add(StripAccents(full))
	l.add(withCountry)
	return l.items
}

// FallbackVariants extends Variants into a ladder of decreasing specificity.
// After each variant it adds the variant without its first part (usually a
// building or shop name), its last four and last three parts, and the
// variant with building-type words removed.
func FallbackVariants(raw string) []string {
	var l ladder
	for _, v := range Variants(raw) {
		l.add(v)

		parts := splitParts(v)
		if len(parts) >= 2 {
			l.add(strings.Join(parts[1:], ", "))
		}
		if len(parts) >= 3 {
			l.add(strings.Join(tail(parts, 4), ", "))
			l.add(strings.Join(tail(parts, 3), ", "))
		}
		l.add(stripBuildingWords(v))
	}
	return l.items
}

func splitParts(v string) []string {
	var parts []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func tail(parts []string, n int) []string {
	if len(parts) <= n {
		return parts
	}
	return parts[len(parts)-n:]
}

func stripBuildingWords(v string) string {
	// Adjacent words share a separator, so one pass can miss the second.
	for range 4 {
		next := buildingWordsRe.ReplaceAllString(v, "${1} ${3}")
		if next == v {
			break
		}
		v = next
	}
	return v
}
