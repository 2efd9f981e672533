// Package types holds the value types shared across the parser, providers,
// cache, and ranker: MediaType, MediaInfo, and the richer MediaMetadata
// family in metadata.go.
package types

import "fmt"

// MediaType is the coarse classification assigned to a candidate once a
// provider has spoken, as opposed to MediaHint which is the parser's guess.
type MediaType int

const (
	MediaTypeUnknown MediaType = iota
	MediaTypeMovie
	MediaTypeTv
	MediaTypeAnime
)

func (t MediaType) String() string {
	switch t {
	case MediaTypeMovie:
		return "movie"
	case MediaTypeTv:
		return "tv"
	case MediaTypeAnime:
		return "anime"
	default:
		return "unknown"
	}
}

// IsCompatibleWith reports whether two media types should receive partial
// ranking credit rather than a hard mismatch. Tv and Anime cross-compatible;
// everything else must match exactly.
func (t MediaType) IsCompatibleWith(other MediaType) bool {
	if t == other {
		return true
	}
	return (t == MediaTypeTv && other == MediaTypeAnime) ||
		(t == MediaTypeAnime && other == MediaTypeTv)
}

// MediaInfo is a lightweight search-result candidate. It is a value type:
// callers should pass and return it by value, never by pointer into shared
// state, so cache snapshots stay immune to downstream mutation.
type MediaInfo struct {
	ID             string
	Title          string
	OriginalTitle  string
	AltTitles      []string
	MediaType      MediaType
	Year           *int
	PosterURL      string
	Overview       string
	Rating         *float64
	Popularity     *float64
	Provider       string
}

// NewMediaInfo builds the minimal required fields; the With* helpers fill in
// the rest, mirroring the builder pattern the upstream result types use.
func NewMediaInfo(id, title, provider string) MediaInfo {
	return MediaInfo{ID: id, Title: title, Provider: provider}
}

func (m MediaInfo) WithType(t MediaType) MediaInfo {
	m.MediaType = t
	return m
}

func (m MediaInfo) WithYear(year *int) MediaInfo {
	m.Year = year
	return m
}

func (m MediaInfo) WithOriginalTitle(title string) MediaInfo {
	m.OriginalTitle = title
	return m
}

func (m MediaInfo) WithPoster(url string) MediaInfo {
	m.PosterURL = url
	return m
}

func (m MediaInfo) WithOverview(overview string) MediaInfo {
	m.Overview = overview
	return m
}

func (m MediaInfo) WithRating(rating *float64) MediaInfo {
	m.Rating = rating
	return m
}

func (m MediaInfo) WithPopularity(popularity *float64) MediaInfo {
	m.Popularity = popularity
	return m
}

func (m MediaInfo) WithAltTitle(title string) MediaInfo {
	if title == "" {
		return m
	}
	m.AltTitles = append(append([]string(nil), m.AltTitles...), title)
	return m
}

// AllTitles yields {Title} ∪ {OriginalTitle?} ∪ AltTitles, order-defined,
// duplicates intentionally not deduped per the ranker's title_score rule
// (taking the max across titles makes deduplication unnecessary work).
func (m MediaInfo) AllTitles() []string {
	titles := make([]string, 0, 2+len(m.AltTitles))
	titles = append(titles, m.Title)
	if m.OriginalTitle != "" {
		titles = append(titles, m.OriginalTitle)
	}
	titles = append(titles, m.AltTitles...)
	return titles
}

func (m MediaInfo) String() string {
	if m.Year != nil {
		return fmt.Sprintf("%s (%d) [%s:%s]", m.Title, *m.Year, m.Provider, m.ID)
	}
	return fmt.Sprintf("%s [%s:%s]", m.Title, m.Provider, m.ID)
}
