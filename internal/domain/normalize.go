package domain

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// DefaultCity is appended to queries that name a district but no city.
	DefaultCity = "Thanh pho Ho Chi Minh"
	// DefaultCountry is appended to queries that do not name the country.
	DefaultCountry = "Viet Nam"
)

var (
	whitespaceRe    = regexp.MustCompile(`\s+`)
	commaRe         = regexp.MustCompile(`\s*,\s*`)
	repeatedCommaRe = regexp.MustCompile(`(, )+`)

	// Q1, Q.1, q 1 -> Quan 1 and P12, P.12 -> Phuong 12.
	districtAbbrevRe = regexp.MustCompile(`(?i)\bQ\.?\s*(\d+)\b`)
	wardAbbrevRe     = regexp.MustCompile(`(?i)\bP\.?\s*(\d+)\b`)

	cityAbbrevRe = regexp.MustCompile(`(?i)\bTP\.?\s*HCM\b|\bHCM\b|\bSai\s*Gon\b`)

	// The detection patterns run on accent-stripped lowercase text.
	countryMentionRe  = regexp.MustCompile(`\bviet\s*nam\b`)
	cityMentionRe     = regexp.MustCompile(`ho chi minh|\bhcm\b|\bsai\s*gon\b`)
	districtMentionRe = regexp.MustCompile(`\bquan\s*\d+\b`)

	vietnameseD = strings.NewReplacer("đ", "d", "Đ", "D")
)

// StripAccents removes combining marks (and the Vietnamese stroked d, which
// Unicode does not decompose) while keeping the base letters.
func StripAccents(s string) string {
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return vietnameseD.Replace(out)
}

// Normalize canonicalizes raw address text: line breaks become comma
// separators, whitespace collapses, a leading chain-name token is dropped,
// and district/ward abbreviations are expanded. Normalizing already
// normalized text returns it unchanged.
func Normalize(raw string) string {
	raw = strings.TrimSpace(norm.NFC.String(raw))
	if raw == "" {
		return ""
	}

	var parts []string
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}
	q := strings.Join(parts, ", ")
	q = strings.TrimSpace(whitespaceRe.ReplaceAllString(q, " "))
	q = stripBrandPrefix(q)
	q = districtAbbrevRe.ReplaceAllString(q, "Quan $1")
	q = wardAbbrevRe.ReplaceAllString(q, "Phuong $1")
	q = commaRe.ReplaceAllString(q, ", ")
	q = repeatedCommaRe.ReplaceAllString(q, ", ")
	return strings.Trim(q, " ,")
}

// stripBrandPrefix drops leading chain names ("Circle K 12 Ly Tu Trong").
// A chain name followed by a comma is kept: it is a separate address part
// that the fallback ladder removes on its own.
func stripBrandPrefix(q string) string {
	for {
		rest, ok := trimBrandPrefix(q)
		if !ok {
			return q
		}
		q = rest
	}
}

func trimBrandPrefix(q string) (string, bool) {
	const maxBrandWords = 3
	words := 0
	for i, r := range q {
		if r != ' ' {
			continue
		}
		words++
		if words > maxBrandWords {
			return q, false
		}
		prefix := q[:i]
		last, _ := utf8.DecodeLastRuneInString(prefix)
		if !unicode.IsLetter(last) && !unicode.IsDigit(last) {
			continue
		}
		if _, ok := lookupBrand(prefix); ok {
			return strings.TrimSpace(q[i:]), true
		}
	}
	return q, false
}

// EnsureLocality expands city acronyms and appends the default city and
// country when the text does not name them. It is idempotent.
func EnsureLocality(q string) string {
	q = strings.TrimSpace(q)
	if q == "" {
		return ""
	}
	plain := strings.ToLower(StripAccents(q))
	hasCountry := countryMentionRe.MatchString(plain)
	hasCity := cityMentionRe.MatchString(plain)
	hasDistrict := districtMentionRe.MatchString(plain)

	q = cityAbbrevRe.ReplaceAllString(q, DefaultCity)

	if hasDistrict && !hasCity {
		q += ", " + DefaultCity
	}
	if !hasCountry {
		q += ", " + DefaultCountry
	}
	return strings.TrimSpace(q)
}

// mentionsCountry reports whether q names the default country in any spelling.
func mentionsCountry(q string) bool {
	return countryMentionRe.MatchString(strings.ToLower(StripAccents(q)))
}
