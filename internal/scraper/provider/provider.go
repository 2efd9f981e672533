// Package provider defines the MetadataProvider contract every backend
// (TMDB, AniList, Bangumi, and any future source) implements, plus the
// shared HTTP client those backends are built on.
package provider

import (
	"context"

	"github.com/mantonx/mediaid/internal/scraper/types"
)

// SearchOptions narrows a search call: Query is required, the rest are
// hints a provider may use to disambiguate or may ignore entirely.
type SearchOptions struct {
	Query string
	Type  types.MediaType
	Year  *int
	Limit int
}

// MetadataProvider is the contract every metadata backend satisfies. An
// aggregator holds a priority-ordered slice of these and never assumes
// anything about the backend beyond this interface.
type MetadataProvider interface {
	// ID is the provider's stable short name ("tmdb", "anilist", "bangumi"),
	// used as a cache-key and log field, never shown to end users.
	ID() string

	// SupportedTypes lists the MediaType values this provider can search
	// for. The aggregator does not filter on it: every provider is queried,
	// ordered by PriorityFor.
	SupportedTypes() []types.MediaType

	// RequiresAPIKey reports whether this provider needs a configured key
	// to function. The aggregator does not consult it; a provider missing a
	// required key fails its calls, and the aggregator's search logs and
	// skips that failure like any other provider error.
	RequiresAPIKey() bool

	// PriorityFor returns this provider's priority for mediaType: higher
	// values are tried first. A provider that does not serve a type may
	// return 0 for it.
	PriorityFor(mediaType types.MediaType) int

	// Search returns candidates ranked by the provider's own relevance
	// signal, not yet scored by the ranker.
	Search(ctx context.Context, opts SearchOptions) ([]types.MediaInfo, error)

	// GetMetadata fetches the full detail record for one candidate's ID.
	GetMetadata(ctx context.Context, id string, mediaType types.MediaType) (types.MediaMetadata, error)

	// GetEpisode fetches a single episode's details and is never cached by
	// the aggregator.
	GetEpisode(ctx context.Context, seriesID string, season, episode int) (types.EpisodeInfo, error)

	// FindByExternalID looks up a record via a cross-provider id (e.g. an
	// IMDb id reaching into TMDB). idType names the id's namespace
	// ("imdb_id", "tvdb_id", ...); providers that don't support the given
	// namespace return a NotFound ScraperError (see errors.IsNotFound).
	FindByExternalID(ctx context.Context, idType, id string, mediaType types.MediaType) (types.MediaInfo, error)
}
