package domain

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/mozillazg/go-unidecode"
)

const (
	// DefaultConfidenceThreshold is the minimum score for accepting a candidate.
	DefaultConfidenceThreshold = 0.18

	// numberBonusWeight scales the house/building number overlap bonus.
	numberBonusWeight = 0.15

	// maxReportedVariants caps the variants listed in a resolution.
	maxReportedVariants = 6
)

// stopWords are locality and administrative terms that appear in nearly every
// display string and would otherwise inflate overlap.
var stopWords = map[string]struct{}{
	"viet": {}, "nam": {}, "vietnam": {}, "thanh": {}, "pho": {}, "tp": {},
	"ho": {}, "chi": {}, "minh": {}, "duong": {}, "street": {}, "road": {},
	"hem": {}, "ngo": {}, "so": {}, "ap": {}, "xa": {}, "phuong": {},
	"quan": {}, "huyen": {}, "city": {}, "ward": {}, "district": {},
}

var (
	nonAlnumRe = regexp.MustCompile(`[^a-z0-9\s]`)
	digitsRe   = regexp.MustCompile(`\d+`)
)

// foldText lowercases, transliterates to ASCII, and replaces punctuation with spaces.
func foldText(s string) string {
	s = strings.ToLower(unidecode.Unidecode(s))
	s = nonAlnumRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(foldText(s)) {
		if len(w) <= 1 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		set[w] = struct{}{}
	}
	return set
}

func numberSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, n := range digitsRe.FindAllString(s, -1) {
		set[n] = struct{}{}
	}
	return set
}

func overlap(a, b map[string]struct{}) int {
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

// Score rates how well a candidate display string matches the query: the
// share of query tokens found in the display, plus a bonus of up to 0.15
// for shared house or building numbers.
func Score(query, display string) float64 {
	q := tokenSet(query)
	d := tokenSet(display)
	if len(q) == 0 || len(d) == 0 {
		return 0
	}
	score := float64(overlap(q, d)) / float64(len(q))

	qn := numberSet(query)
	dn := numberSet(display)
	if len(qn) > 0 && len(dn) > 0 {
		score += numberBonusWeight * float64(overlap(qn, dn)) / float64(len(qn))
	}
	return score
}

type candidateKey struct {
	lat, lon float64
	display  string
}

// Round6 rounds a coordinate to 6 decimals (about 0.11 m).
func Round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// Rank drops candidates without coordinates, collapses duplicates by rounded
// position and display text, scores the survivors against the query, and
// sorts them best first. Ties keep provider-call order.
func Rank(query string, candidates []GeoCandidate) []GeoCandidate {
	seen := make(map[candidateKey]struct{}, len(candidates))
	out := make([]GeoCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Position == nil {
			continue
		}
		k := candidateKey{
			lat:     Round6(c.Position.Lat),
			lon:     Round6(c.Position.Lon),
			display: strings.ToLower(strings.TrimSpace(c.Display)),
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		c.Score = Score(query, c.Display)
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// BuildResolution ranks the candidates gathered for a query and accepts the
// best one when it scores at least threshold. Below the threshold the
// resolution has no location but still reports the best score and the last
// provider error for diagnostics.
func BuildResolution(query string, variants []string, candidates []GeoCandidate, lastErr *UpstreamError, threshold float64) GeoResolution {
	ranked := Rank(query, candidates)
	res := GeoResolution{
		Query:           query,
		Variants:        variants[:min(len(variants), maxReportedVariants)],
		CandidatesCount: len(ranked),
	}
	if len(ranked) == 0 {
		res.Error = lastErr
		return res
	}

	best := ranked[0]
	res.Score = math.Round(best.Score*1e4) / 1e4
	if best.Score < threshold {
		res.Error = lastErr
		return res
	}
	res.Provider = best.Provider
	res.Location = &ResolvedLocation{
		Lat:     best.Position.Lat,
		Lon:     best.Position.Lon,
		Display: best.Display,
	}
	return res
}
