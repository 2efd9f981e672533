// Package parser turns a release-group filename into a types.ParsedMedia by
// applying an ordered, pre-compiled regex pipeline against the file stem.
// Parsing is a deterministic, pure function of the input string: no I/O, no
// error returns, and an empty stem yields an empty ParsedMedia with
// HintUnknown.
package parser

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mantonx/mediaid/internal/scraper/types"
)

// Parser extracts structured media information from filenames.
type Parser struct{}

// New returns a Parser. The type carries no state; patterns are compiled
// once at package init and shared process-wide.
func New() *Parser {
	return &Parser{}
}

// Parse extracts media information from a file path, using only the file
// stem (extension and directory components are ignored).
func (p *Parser) Parse(path string) types.ParsedMedia {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return p.ParseFilename(stem)
}

// ParseFilename parses a filename (or bare stem) string directly.
func (p *Parser) ParseFilename(filename string) types.ParsedMedia {
	result := types.ParsedMedia{
		OriginalTitle: filename,
		Hint:          types.HintUnknown,
	}

	// Leading release group, unless its content is an 8-hex hash or a
	// resolution token.
	var releaseGroupEnd int
	if loc := releaseGroupStartPattern.FindStringSubmatchIndex(filename); loc != nil {
		group := filename[loc[2]:loc[3]]
		if !hashPattern.MatchString(group) && !resolutionPattern.MatchString(group) {
			result.ReleaseGroup = group
			releaseGroupEnd = loc[1]
		}
	}

	if m := resolutionPattern.FindString(filename); m != "" {
		result.Resolution = canonicalUpper(m)
	}
	if m := qualityPattern.FindString(filename); m != "" {
		result.Quality = m
	}
	if m := codecPattern.FindString(filename); m != "" {
		result.Codec = canonicalUpper(m)
	}

	season, episode, titleEndPos := extractEpisodeInfo(filename)
	result.Season = season
	result.Episode = episode

	result.Year = extractYear(filename)

	result.Hint = determineHint(result, filename)

	result.Title = extractTitle(filename, titleEndPos, result, releaseGroupEnd)

	return result
}

// extractEpisodeInfo tries each episode pattern in strict order of
// specificity; the first hit wins and its match start becomes the title
// truncation point.
func extractEpisodeInfo(filename string) (season, episode *int, titleEndPos *int) {
	if loc := seasonEpisodePattern.FindStringSubmatchIndex(filename); loc != nil {
		s := atoiPtr(filename[loc[2]:loc[3]])
		e := atoiPtr(filename[loc[4]:loc[5]])
		pos := loc[0]
		return s, e, &pos
	}
	if loc := seasonXEpisodePattern.FindStringSubmatchIndex(filename); loc != nil {
		s := atoiPtr(filename[loc[2]:loc[3]])
		e := atoiPtr(filename[loc[4]:loc[5]])
		pos := loc[0]
		return s, e, &pos
	}
	if loc := episodeDashPattern.FindStringSubmatchIndex(filename); loc != nil {
		e := atoiPtr(filename[loc[2]:loc[3]])
		pos := loc[0]
		return intPtr(1), e, &pos
	}
	if loc := episodeOnlyPattern.FindStringSubmatchIndex(filename); loc != nil {
		e := atoiPtr(filename[loc[2]:loc[3]])
		pos := loc[0]
		return intPtr(1), e, &pos
	}
	if loc := episodeBracketPattern.FindStringSubmatchIndex(filename); loc != nil {
		e := atoiPtr(filename[loc[2]:loc[3]])
		pos := loc[0]
		return intPtr(1), e, &pos
	}
	return nil, nil, nil
}

// extractYear prefers a parenthesized year; otherwise takes the first bare
// year in range. The range check is redundant with the pattern's (19|20)
// prefix but kept explicit to match the documented contract.
func extractYear(filename string) *int {
	if m := yearInParensPattern.FindString(filename); m != "" {
		if digits := yearInParensDigits.FindString(m); digits != "" {
			if y, err := strconv.Atoi(digits); err == nil && y >= 1900 && y <= 2099 {
				return intPtr(y)
			}
		}
	}
	if loc := yearPattern.FindStringSubmatchIndex(filename); loc != nil {
		digits := filename[loc[2]:loc[3]]
		if y, err := strconv.Atoi(digits); err == nil && y >= 1900 && y <= 2099 {
			return intPtr(y)
		}
	}
	return nil
}

// isCJK reports whether r falls in Hiragana, Katakana, or CJK Unified
// Ideographs — any of which forces an Anime hint.
func isCJK(r rune) bool {
	return (r >= 0x3040 && r <= 0x309F) ||
		(r >= 0x30A0 && r <= 0x30FF) ||
		(r >= 0x4E00 && r <= 0x9FFF)
}

func determineHint(result types.ParsedMedia, filename string) types.MediaHint {
	hasAnimeGroup := result.ReleaseGroup != ""
	hasDashEpisode := episodeDashPattern.MatchString(filename)

	hasCJK := false
	for _, r := range filename {
		if isCJK(r) {
			hasCJK = true
			break
		}
	}

	if hasAnimeGroup && hasDashEpisode {
		return types.HintAnime
	}
	if hasCJK {
		return types.HintAnime
	}
	if result.Season != nil && result.Episode != nil {
		if *result.Season == 1 && hasDashEpisode {
			return types.HintAnime
		}
		return types.HintTvShow
	}
	if result.Year != nil && result.Episode == nil {
		return types.HintMovie
	}
	return types.HintUnknown
}

// extractTitle truncates the stem at the episode marker (or, failing that,
// the year) before stripping brackets, quality tags, and separators —
// truncating first against the untouched stem sidesteps the need to adjust
// the truncation offset for a stripped release-group prefix, since the
// release group always sits inside the truncated prefix too.
func extractTitle(filename string, titleEndPos *int, result types.ParsedMedia, releaseGroupEnd int) string {
	title := filename

	if titleEndPos != nil {
		if *titleEndPos < len(title) {
			title = title[:*titleEndPos]
		}
	} else if result.Year != nil {
		yearParens := "(" + strconv.Itoa(*result.Year) + ")"
		if idx := strings.Index(title, yearParens); idx >= 0 {
			title = title[:idx]
		} else if idx := strings.Index(title, strconv.Itoa(*result.Year)); idx >= 0 {
			title = title[:idx]
		}
	}

	if result.ReleaseGroup != "" && releaseGroupEnd <= len(title) {
		title = title[releaseGroupEnd:]
	}

	title = bracketsPattern.ReplaceAllString(title, " ")
	title = resolutionPattern.ReplaceAllString(title, " ")
	title = qualityPattern.ReplaceAllString(title, " ")
	title = codecPattern.ReplaceAllString(title, " ")

	title = strings.NewReplacer(".", " ", "_", " ", "-", " ").Replace(title)

	fields := strings.Fields(title)
	return strings.Join(fields, " ")
}

func intPtr(v int) *int {
	return &v
}

func atoiPtr(s string) *int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}
