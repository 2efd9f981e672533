// Package scraper wires the parser, providers, cache, and ranker into the
// Aggregator: the single entry point that turns a filename into a scored,
// optionally-enriched match.
package scraper

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/singleflight"

	"github.com/mantonx/mediaid/internal/scraper/cache"
	scraperrors "github.com/mantonx/mediaid/internal/scraper/errors"
	"github.com/mantonx/mediaid/internal/scraper/matcher"
	"github.com/mantonx/mediaid/internal/scraper/parser"
	"github.com/mantonx/mediaid/internal/scraper/provider"
	"github.com/mantonx/mediaid/internal/scraper/types"
)

// Config governs the aggregator's search and caching behavior.
type Config struct {
	MinConfidence matcher.Confidence
	MaxResults    int
	UseCache      bool
	// Language is accepted from configuration but is not passed to
	// providers: SearchOptions has no language field, so searches run in
	// each provider's default language.
	Language string
}

// DefaultConfig mirrors the original aggregator's defaults: auto-accept at
// Medium confidence, cap result sets at 20.
func DefaultConfig() Config {
	return Config{
		MinConfidence: matcher.ConfidenceMedium,
		MaxResults:    20,
		UseCache:      true,
	}
}

// Result is the outcome of a full scrape: a ranked match, its confidence,
// and (when confidence clears the configured floor) the enriched metadata
// fetched for it.
type Result struct {
	Info       types.MediaInfo      `yaml:"info"`
	Metadata   *types.MediaMetadata `yaml:"metadata,omitempty"`
	Confidence matcher.Confidence   `yaml:"confidence"`
	Score      int                  `yaml:"score"`
	Parsed     types.ParsedMedia    `yaml:"parsed"`
}

// Aggregator holds a priority-ordered provider set behind a shared cache
// and ranker. It is safe for concurrent use.
type Aggregator struct {
	providers []provider.MetadataProvider
	cache     *cache.Cache
	matcher   *matcher.Matcher
	parser    *parser.Parser
	config    Config
	logger    hclog.Logger

	searchGroup singleflight.Group
}

// New builds an Aggregator with no providers registered and a
// default-sized cache; call AddProvider to register backends before
// scraping.
func New(cfg Config, logger hclog.Logger) *Aggregator {
	return NewWithCache(cfg, cache.DefaultConfig(), logger)
}

// NewWithCache is New with an explicit cache sizing/TTL policy, for callers
// (such as cmd/mediaidctl) that load cache limits from configuration.
func NewWithCache(cfg Config, cacheCfg cache.Config, logger hclog.Logger) *Aggregator {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Aggregator{
		cache:   cache.New(cacheCfg, logger.Named("cache")),
		matcher: matcher.New(),
		parser:  parser.New(),
		config:  cfg,
		logger:  logger,
	}
}

// AddProvider registers a backend. Search re-sorts providers by PriorityFor
// the request's media type, so registration order only breaks priority
// ties; FindByExternalID walks providers in registration order.
func (a *Aggregator) AddProvider(p provider.MetadataProvider) {
	a.providers = append(a.providers, p)
}

// Scrape parses path and runs ScrapeParsed against the result.
func (a *Aggregator) Scrape(ctx context.Context, path string) (Result, error) {
	parsed := a.parser.Parse(path)
	return a.ScrapeParsed(ctx, parsed)
}

// ScrapeParsed searches, ranks, and (at or above MinConfidence) enriches a
// pre-parsed filename.
func (a *Aggregator) ScrapeParsed(ctx context.Context, parsed types.ParsedMedia) (Result, error) {
	correlationID := uuid.NewString()
	log := a.logger.With("correlation_id", correlationID)
	log.Info("scraping", "title", parsed.Title, "hint", parsed.Hint.String())

	mediaType, _ := parsed.Hint.ToMediaType()
	candidates, err := a.searchAll(ctx, log, parsed.Title, parsed.Year, mediaType)
	if err != nil {
		return Result{}, err
	}

	ranked := a.matcher.Rank(candidates, parsed)
	if len(ranked) == 0 {
		return Result{}, scraperrors.NotFound("scrape", "no results found for: "+parsed.Title)
	}

	best := ranked[0]
	log.Debug("best match", "title", best.Info.Title, "score", best.Score, "confidence", best.Confidence.String())

	result := Result{
		Info:       best.Info,
		Confidence: best.Confidence,
		Score:      best.Score,
		Parsed:     parsed,
	}

	if best.Confidence >= a.config.MinConfidence {
		metadata, err := a.GetMetadata(ctx, best.Info)
		if err != nil {
			log.Warn("failed to fetch metadata", "error", err)
		} else {
			result.Metadata = &metadata
		}
	}

	return result, nil
}

// Search runs a plain multi-provider search, unranked (each provider's own
// result order, providers ordered by priority), with no ranking applied.
func (a *Aggregator) Search(ctx context.Context, query string, year *int, mediaType types.MediaType) ([]types.MediaInfo, error) {
	return a.searchAll(ctx, a.logger, query, year, mediaType)
}

// SearchRanked runs Search and ranks the results against a synthetic
// ParsedMedia built from the raw query, for callers that have a plain
// search string instead of a filename.
func (a *Aggregator) SearchRanked(ctx context.Context, query string, year *int, mediaType types.MediaType) ([]matcher.ScoredMatch, error) {
	results, err := a.Search(ctx, query, year, mediaType)
	if err != nil {
		return nil, err
	}

	hint := types.HintUnknown
	switch mediaType {
	case types.MediaTypeMovie:
		hint = types.HintMovie
	case types.MediaTypeTv:
		hint = types.HintTvShow
	case types.MediaTypeAnime:
		hint = types.HintAnime
	}

	parsed := types.ParsedMedia{Title: query, OriginalTitle: query, Year: year, Hint: hint}
	return a.matcher.Rank(results, parsed), nil
}

// GetMetadata fetches (and caches) the full metadata record for info,
// dispatching to the provider named in info.Provider.
func (a *Aggregator) GetMetadata(ctx context.Context, info types.MediaInfo) (types.MediaMetadata, error) {
	cacheKey := info.Provider + ":" + info.ID

	if a.config.UseCache {
		if cached, ok := a.cache.GetMetadata(cacheKey); ok {
			return cached, nil
		}
	}

	p, err := a.providerByID(info.Provider)
	if err != nil {
		return types.MediaMetadata{}, err
	}

	metadata, err := p.GetMetadata(ctx, info.ID, info.MediaType)
	if err != nil {
		return types.MediaMetadata{}, err
	}

	if a.config.UseCache {
		a.cache.SetMetadata(cacheKey, metadata)
	}
	return metadata, nil
}

// GetEpisode fetches a single episode from the named provider. Episode
// results are never cached.
func (a *Aggregator) GetEpisode(ctx context.Context, providerID, seriesID string, season, episode int) (types.EpisodeInfo, error) {
	p, err := a.providerByID(providerID)
	if err != nil {
		return types.EpisodeInfo{}, err
	}
	return p.GetEpisode(ctx, seriesID, season, episode)
}

// FindByExternalID asks every registered provider in turn and returns the
// first match. A provider that doesn't recognize idType is expected to
// return a not-found error, which this loop treats as "try the next one."
func (a *Aggregator) FindByExternalID(ctx context.Context, idType, id string, mediaType types.MediaType) (types.MediaInfo, error) {
	for _, p := range a.providers {
		info, err := p.FindByExternalID(ctx, idType, id, mediaType)
		if err == nil {
			return info, nil
		}
	}
	return types.MediaInfo{}, scraperrors.NotFound("find_by_external_id", fmt.Sprintf("no provider resolved %s=%s", idType, id))
}

// ClearCache empties both the search and metadata stores.
func (a *Aggregator) ClearCache() {
	a.cache.Clear()
}

func (a *Aggregator) providerByID(id string) (provider.MetadataProvider, error) {
	for _, p := range a.providers {
		if p.ID() == id {
			return p, nil
		}
	}
	return nil, scraperrors.Config("get_metadata", "provider not found: "+id)
}

// searchAll dispatches to every registered provider, ordered by descending
// priority for mediaType, collapsing duplicate concurrent cache-miss
// fetches for the same (provider, query, year) key via singleflight.
func (a *Aggregator) searchAll(ctx context.Context, log hclog.Logger, query string, year *int, mediaType types.MediaType) ([]types.MediaInfo, error) {
	providers := a.orderedProviders(mediaType)

	opts := provider.SearchOptions{
		Query: query,
		Type:  mediaType,
		Year:  year,
		Limit: a.config.MaxResults,
	}

	var all []types.MediaInfo
	for _, p := range providers {
		results, err := a.searchOneCached(ctx, p, opts, year)
		if err != nil {
			log.Debug("provider search failed", "provider", p.ID(), "error", err)
			continue
		}
		log.Debug("provider returned results", "provider", p.ID(), "count", len(results))
		all = append(all, results...)
	}

	if len(all) == 0 {
		return nil, scraperrors.NotFound("search_all", "no results found for: "+query)
	}
	if a.config.MaxResults > 0 && len(all) > a.config.MaxResults {
		all = all[:a.config.MaxResults]
	}
	return all, nil
}

func (a *Aggregator) searchOneCached(ctx context.Context, p provider.MetadataProvider, opts provider.SearchOptions, year *int) ([]types.MediaInfo, error) {
	cacheKey := searchCacheKey(p.ID(), opts.Query, year)

	if a.config.UseCache {
		if cached, ok := a.cache.GetSearch(cacheKey); ok {
			return cached, nil
		}
	}

	// singleflight collapses concurrent identical cache-miss fetches (e.g.
	// a burst of requests for the same title) into one provider call.
	value, err, _ := a.searchGroup.Do(cacheKey, func() (interface{}, error) {
		results, err := p.Search(ctx, opts)
		if err != nil {
			return nil, err
		}
		if a.config.UseCache {
			a.cache.SetSearch(cacheKey, results)
		}
		return results, nil
	})
	if err != nil {
		return nil, err
	}
	return value.([]types.MediaInfo), nil
}

func searchCacheKey(providerID, query string, year *int) string {
	key := strings.ToLower(query)
	if year != nil {
		return fmt.Sprintf("%s:%s:%d", providerID, key, *year)
	}
	return fmt.Sprintf("%s:%s", providerID, key)
}

// orderedProviders returns every registered provider, sorted by
// descending PriorityFor(mediaType), ties broken by registration order.
// It does not exclude any provider: a low PriorityFor plus the ranker's
// own scoreType handle type mismatches instead.
func (a *Aggregator) orderedProviders(mediaType types.MediaType) []provider.MetadataProvider {
	ordered := make([]provider.MetadataProvider, len(a.providers))
	copy(ordered, a.providers)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].PriorityFor(mediaType) > ordered[j].PriorityFor(mediaType)
	})
	return ordered
}
