// Package domain models store-locator data and the pure address logic behind
// geocode resolution.
//
// # Address Conventions
//
// Queries are free-text Vietnamese addresses, frequently typed without
// diacritics and prefixed with a chain or building name:
//
//	"Circle K 236 Le Van Sy, Q3"     ->  "236 Le Van Sy, Quan 3"
//	"GS25\n12 Ly Tu Trong\nP. Ben Nghe"  ->  "12 Ly Tu Trong, P. Ben Nghe"
//
// District and ward numbers are abbreviated as Q<n> and P<n> and are expanded
// to "Quan <n>" and "Phuong <n>". City acronyms (TP HCM, HCM, Sai Gon) are
// expanded to the full city name. A query that names a district but no city
// gets the default city; a query without the country gets "Viet Nam". See
// [Normalize] and [EnsureLocality].
//
// # Variant Ladder
//
// Geocoders index addresses inconsistently, so each query is tried as a
// sequence of rewrites of decreasing specificity (see [FallbackVariants]):
//
//  1. locality-ensured text
//  2. the same with accents stripped
//  3. normalized text with only the country appended
//
// and, after each of those, the text without its first comma part (usually a
// shop or building name), its last four and last three parts, and the text
// with building-type words ("toa nha", "chung cu", "building") removed.
//
// # Scoring
//
// Candidates are scored by token overlap against the original query after
// transliteration to ASCII. Locality words ("quan", "phuong", "viet", "nam",
// "street") are ignored because every display string contains them. Shared
// house numbers add a bonus of up to 0.15. The best candidate is accepted
// only at or above [DefaultConfidenceThreshold].
//
// # Store Hours
//
// Open and close times are local "HH:MM" values. When the opening time is
// later than the closing time the store runs an overnight shift, e.g.
// 22:00-06:00 is open at 23:30 and at 05:00. See [IsOpenNow].
package domain
