// Package matcher implements the deterministic ranking function that turns
// a list of provider candidates into scored, confidence-bucketed matches.
package matcher

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/mantonx/mediaid/internal/scraper/types"
)

// Confidence is an ordered bucket over the total score: None < Low < Medium
// < High < Exact. Arithmetic on its ordinal is never part of the contract —
// only ordering comparisons (>=) are meaningful to callers.
type Confidence int

const (
	ConfidenceNone Confidence = iota
	ConfidenceLow
	ConfidenceMedium
	ConfidenceHigh
	ConfidenceExact
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceLow:
		return "low"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceHigh:
		return "high"
	case ConfidenceExact:
		return "exact"
	default:
		return "none"
	}
}

// MarshalYAML renders a Confidence as its bucket name rather than its
// ordinal, so config/CLI output reads "medium" instead of "2".
func (c Confidence) MarshalYAML() (interface{}, error) {
	return c.String(), nil
}

// ScoreBreakdown exposes each weighted component for debugging/telemetry;
// their sum is always ScoredMatch.Score.
type ScoreBreakdown struct {
	Title      int
	Year       int
	Type       int
	Provider   int
	Popularity int
}

// ScoredMatch is the ranker's ephemeral output: never persisted, never
// cached, rebuilt fresh on every rank call.
type ScoredMatch struct {
	Info       types.MediaInfo
	Score      int
	Confidence Confidence
	Breakdown  ScoreBreakdown
}

// Matcher scores MediaInfo candidates against a ParsedMedia reference.
type Matcher struct{}

func New() *Matcher {
	return &Matcher{}
}

// Rank scores every candidate and returns them sorted by score descending,
// ties broken by input order (a stable sort) per the ranker's ordering
// guarantee.
func (m *Matcher) Rank(candidates []types.MediaInfo, parsed types.ParsedMedia) []ScoredMatch {
	matches := make([]ScoredMatch, len(candidates))
	for i, c := range candidates {
		matches[i] = m.scoreMatch(c, parsed)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// BestMatch returns the top-ranked candidate iff its confidence is at least
// Medium, nil otherwise.
func (m *Matcher) BestMatch(candidates []types.MediaInfo, parsed types.ParsedMedia) *ScoredMatch {
	ranked := m.Rank(candidates, parsed)
	if len(ranked) == 0 {
		return nil
	}
	if ranked[0].Confidence < ConfidenceMedium {
		return nil
	}
	return &ranked[0]
}

func (m *Matcher) scoreMatch(info types.MediaInfo, parsed types.ParsedMedia) ScoredMatch {
	breakdown := ScoreBreakdown{
		Title:      scoreTitle(info, parsed),
		Year:       scoreYear(info, parsed),
		Type:       scoreType(info, parsed),
		Provider:   scoreProvider(info),
		Popularity: scorePopularity(info),
	}
	total := breakdown.Title + breakdown.Year + breakdown.Type + breakdown.Provider + breakdown.Popularity

	return ScoredMatch{
		Info:       info,
		Score:      total,
		Confidence: calculateConfidence(breakdown.Title, total),
		Breakdown:  breakdown,
	}
}

var nonAlnumSpace = regexp.MustCompile(`[^\p{L}\p{N}\s]`)

// normalizeTitle lowercases, drops non-alphanumeric-non-whitespace
// characters, and collapses whitespace.
func normalizeTitle(s string) string {
	s = strings.ToLower(s)
	s = nonAlnumSpace.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		set[w] = struct{}{}
	}
	return set
}

// stringSimilarity is Jaccard similarity over whitespace-split word sets
// plus a 0.2 substring-containment bonus, clamped to [0, 1].
func stringSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	setA, setB := wordSet(a), wordSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	similarity := float64(intersection) / float64(union)

	if strings.Contains(a, b) || strings.Contains(b, a) {
		similarity += 0.2
	}

	if similarity > 1.0 {
		similarity = 1.0
	}
	if similarity < 0 {
		similarity = 0
	}
	return similarity
}

// scoreTitle takes the max similarity across all of the candidate's titles,
// short-circuiting to the max score on an exact normalized match.
func scoreTitle(info types.MediaInfo, parsed types.ParsedMedia) int {
	normQuery := normalizeTitle(parsed.Title)
	best := 0.0
	for _, t := range info.AllTitles() {
		normT := normalizeTitle(t)
		if normT == normQuery && normQuery != "" {
			return 40
		}
		if sim := stringSimilarity(normT, normQuery); sim > best {
			best = sim
		}
	}
	return int(math.Floor(best * 40))
}

func scoreYear(info types.MediaInfo, parsed types.ParsedMedia) int {
	if info.Year == nil && parsed.Year == nil {
		return 10
	}
	if info.Year == nil || parsed.Year == nil {
		return 5
	}
	diff := *info.Year - *parsed.Year
	if diff < 0 {
		diff = -diff
	}
	switch diff {
	case 0:
		return 20
	case 1:
		return 15
	case 2:
		return 10
	default:
		return 0
	}
}

func scoreType(info types.MediaInfo, parsed types.ParsedMedia) int {
	mediaType, ok := parsed.Hint.ToMediaType()
	if !ok {
		return 10
	}
	if mediaType == info.MediaType {
		return 20
	}
	if mediaType.IsCompatibleWith(info.MediaType) {
		return 15
	}
	return 0
}

func scoreProvider(info types.MediaInfo) int {
	switch {
	case info.Provider == "anilist" && info.MediaType == types.MediaTypeAnime:
		return 10
	case info.Provider == "bangumi" && info.MediaType == types.MediaTypeAnime:
		return 8
	case info.Provider == "tmdb" && info.MediaType == types.MediaTypeMovie:
		return 10
	case info.Provider == "tmdb" && info.MediaType == types.MediaTypeTv:
		return 9
	case info.Provider == "tmdb" && info.MediaType == types.MediaTypeAnime:
		return 5
	default:
		return 5
	}
}

func scorePopularity(info types.MediaInfo) int {
	if info.Popularity == nil {
		return 5
	}
	p := *info.Popularity
	switch {
	case p > 1000:
		return 10
	case p > 100:
		return 7
	case p > 10:
		return 5
	default:
		return 3
	}
}

// calculateConfidence gates on the title component before the total: a
// low title match can never be rescued by year/type/provider/popularity.
func calculateConfidence(titleScore, total int) Confidence {
	if titleScore < 20 {
		return ConfidenceNone
	}
	switch {
	case total >= 90:
		return ConfidenceExact
	case total >= 75:
		return ConfidenceHigh
	case total >= 55:
		return ConfidenceMedium
	case total >= 35:
		return ConfidenceLow
	default:
		return ConfidenceNone
	}
}
