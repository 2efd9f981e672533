package tmdb

import (
	"context"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"

	scraperrors "github.com/mantonx/mediaid/internal/scraper/errors"
	"github.com/mantonx/mediaid/internal/scraper/provider"
	"github.com/mantonx/mediaid/internal/scraper/types"
)

const (
	baseURL   = "https://api.themoviedb.org/3"
	imageBase = "https://image.tmdb.org/t/p"
)

// Provider implements provider.MetadataProvider against TMDB. It handles
// Movie and Tv; Anime requests fall through to its Tv search since TMDB
// carries most anime series under its Tv catalog.
type Provider struct {
	client *provider.HTTPClient
	apiKey string
	logger hclog.Logger
}

func New(apiKey string, logger hclog.Logger) *Provider {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Provider{
		client: provider.NewHTTPClient(baseURL, logger.Named("tmdb")),
		apiKey: apiKey,
		logger: logger,
	}
}

func (p *Provider) ID() string { return "tmdb" }

func (p *Provider) SupportedTypes() []types.MediaType {
	return []types.MediaType{types.MediaTypeMovie, types.MediaTypeTv}
}

func (p *Provider) RequiresAPIKey() bool { return true }

func (p *Provider) PriorityFor(mediaType types.MediaType) int {
	switch mediaType {
	case types.MediaTypeMovie:
		return 100
	case types.MediaTypeTv:
		return 90
	case types.MediaTypeAnime:
		return 30
	default:
		return 50
	}
}

func (p *Provider) params(extra map[string]string) map[string]string {
	params := map[string]string{"api_key": p.apiKey}
	for k, v := range extra {
		params[k] = v
	}
	return params
}

func (p *Provider) imageURL(path, size string) string {
	if path == "" {
		return ""
	}
	return imageBase + "/" + size + path
}

func (p *Provider) Search(ctx context.Context, opts provider.SearchOptions) ([]types.MediaInfo, error) {
	var results []types.MediaInfo

	switch opts.Type {
	case types.MediaTypeMovie:
		movies, err := p.searchMovies(ctx, opts)
		if err != nil {
			return nil, err
		}
		results = append(results, movies...)
	case types.MediaTypeTv, types.MediaTypeAnime:
		tv, err := p.searchTV(ctx, opts)
		if err != nil {
			return nil, err
		}
		results = append(results, tv...)
	default:
		if movies, err := p.searchMovies(ctx, opts); err == nil {
			results = append(results, movies...)
		}
		if tv, err := p.searchTV(ctx, opts); err == nil {
			results = append(results, tv...)
		}
	}

	if len(results) == 0 {
		return nil, scraperrors.NotFound("search", "no results found for: "+opts.Query)
	}
	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results, nil
}

func (p *Provider) searchMovies(ctx context.Context, opts provider.SearchOptions) ([]types.MediaInfo, error) {
	params := p.params(map[string]string{"query": opts.Query})
	if opts.Year != nil {
		params["year"] = strconv.Itoa(*opts.Year)
	}

	var resp searchResponse[movieResult]
	if err := p.client.GetWithParams(ctx, "/search/movie", params, &resp); err != nil {
		return nil, err
	}

	out := make([]types.MediaInfo, 0, len(resp.Results))
	for _, m := range resp.Results {
		out = append(out, p.movieToInfo(m))
	}
	return out, nil
}

func (p *Provider) searchTV(ctx context.Context, opts provider.SearchOptions) ([]types.MediaInfo, error) {
	params := p.params(map[string]string{"query": opts.Query})
	if opts.Year != nil {
		params["first_air_date_year"] = strconv.Itoa(*opts.Year)
	}

	var resp searchResponse[tvResult]
	if err := p.client.GetWithParams(ctx, "/search/tv", params, &resp); err != nil {
		return nil, err
	}

	out := make([]types.MediaInfo, 0, len(resp.Results))
	for _, t := range resp.Results {
		out = append(out, p.tvToInfo(t))
	}
	return out, nil
}

func yearFromDate(date string) *int {
	if date == "" {
		return nil
	}
	prefix, _, _ := strings.Cut(date, "-")
	y, err := strconv.Atoi(prefix)
	if err != nil {
		return nil
	}
	return &y
}

func floatPtr(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return &v
}

func (p *Provider) movieToInfo(m movieResult) types.MediaInfo {
	return types.NewMediaInfo(strconv.FormatInt(m.ID, 10), m.Title, "tmdb").
		WithType(types.MediaTypeMovie).
		WithYear(yearFromDate(m.ReleaseDate)).
		WithOriginalTitle(m.OriginalTitle).
		WithPoster(p.imageURL(m.PosterPath, "w500")).
		WithOverview(m.Overview).
		WithRating(floatPtr(m.VoteAverage)).
		WithPopularity(floatPtr(m.Popularity))
}

func (p *Provider) tvToInfo(t tvResult) types.MediaInfo {
	return types.NewMediaInfo(strconv.FormatInt(t.ID, 10), t.Name, "tmdb").
		WithType(types.MediaTypeTv).
		WithYear(yearFromDate(t.FirstAirDate)).
		WithOriginalTitle(t.OriginalName).
		WithPoster(p.imageURL(t.PosterPath, "w500")).
		WithOverview(t.Overview).
		WithRating(floatPtr(t.VoteAverage)).
		WithPopularity(floatPtr(t.Popularity))
}

func (p *Provider) GetMetadata(ctx context.Context, id string, mediaType types.MediaType) (types.MediaMetadata, error) {
	switch mediaType {
	case types.MediaTypeMovie:
		return p.getMovieMetadata(ctx, id)
	case types.MediaTypeTv, types.MediaTypeAnime:
		return p.getTVMetadata(ctx, id)
	default:
		if meta, err := p.getMovieMetadata(ctx, id); err == nil {
			return meta, nil
		}
		return p.getTVMetadata(ctx, id)
	}
}

func (p *Provider) getMovieMetadata(ctx context.Context, id string) (types.MediaMetadata, error) {
	var details movieDetails
	params := p.params(map[string]string{"append_to_response": "external_ids,credits"})
	if err := p.client.GetWithParams(ctx, "/movie/"+id, params, &details); err != nil {
		return types.MediaMetadata{}, err
	}

	year := yearFromDate(details.ReleaseDate)
	genres := make([]string, 0, len(details.Genres))
	for _, g := range details.Genres {
		genres = append(genres, g.Name)
	}
	studios := make([]string, 0, len(details.ProductionCompanies))
	for _, c := range details.ProductionCompanies {
		studios = append(studios, c.Name)
	}

	meta := types.MediaMetadata{
		ID:            strconv.FormatInt(details.ID, 10),
		Title:         details.Title,
		OriginalTitle: details.OriginalTitle,
		MediaType:     types.MediaTypeMovie,
		Tagline:       details.Tagline,
		Overview:      details.Overview,
		ReleaseDate:   details.ReleaseDate,
		Runtime:       details.Runtime,
		Rating:        floatPtr(details.VoteAverage),
		VoteCount:     intPtr(details.VoteCount),
		Genres:        genres,
		Studios:       studios,
		Language:      details.OriginalLanguage,
		Status:        details.Status,
		Images: types.ImageSet{
			Poster:   p.imageURL(details.PosterPath, "w500"),
			Backdrop: p.imageURL(details.BackdropPath, "original"),
		},
		Provider: "tmdb",
	}
	if details.ExternalIDs != nil {
		meta.ExternalIds = types.ExternalIds{Imdb: details.ExternalIDs.ImdbID, Tmdb: meta.ID}
		if details.ExternalIDs.TvdbID != nil {
			meta.ExternalIds.Tvdb = strconv.FormatInt(*details.ExternalIDs.TvdbID, 10)
		}
	} else {
		meta.ExternalIds = types.ExternalIds{Tmdb: meta.ID}
	}
	meta.SortTitle = generateSortTitle(meta.Title, year)

	if details.Credits != nil {
		meta.Cast = p.castToPersons(details.Credits.Cast)
		meta.Crew = p.filterCrew(details.Credits.Crew, "Director", "Writer", "Screenplay")
	}
	return meta, nil
}

func (p *Provider) getTVMetadata(ctx context.Context, id string) (types.MediaMetadata, error) {
	var details tvDetails
	params := p.params(map[string]string{"append_to_response": "external_ids,credits"})
	if err := p.client.GetWithParams(ctx, "/tv/"+id, params, &details); err != nil {
		return types.MediaMetadata{}, err
	}

	year := yearFromDate(details.FirstAirDate)
	genres := make([]string, 0, len(details.Genres))
	for _, g := range details.Genres {
		genres = append(genres, g.Name)
	}
	studios := make([]string, 0, len(details.ProductionCompanies))
	for _, c := range details.ProductionCompanies {
		studios = append(studios, c.Name)
	}
	seasons := make([]types.SeasonInfo, 0, len(details.Seasons))
	for _, s := range details.Seasons {
		seasons = append(seasons, types.SeasonInfo{
			Number:       s.SeasonNumber,
			Name:         s.Name,
			Overview:     s.Overview,
			AirDate:      s.AirDate,
			EpisodeCount: s.EpisodeCount,
			PosterURL:    p.imageURL(s.PosterPath, "w500"),
		})
	}

	var runtime *int
	if len(details.EpisodeRunTime) > 0 {
		runtime = &details.EpisodeRunTime[0]
	}

	meta := types.MediaMetadata{
		ID:            strconv.FormatInt(details.ID, 10),
		Title:         details.Name,
		OriginalTitle: details.OriginalName,
		MediaType:     types.MediaTypeTv,
		Tagline:       details.Tagline,
		Overview:      details.Overview,
		ReleaseDate:   details.FirstAirDate,
		EndDate:       details.LastAirDate,
		Runtime:       runtime,
		Rating:        floatPtr(details.VoteAverage),
		VoteCount:     intPtr(details.VoteCount),
		Genres:        genres,
		Studios:       studios,
		Language:      details.OriginalLanguage,
		Status:        details.Status,
		Images: types.ImageSet{
			Poster:   p.imageURL(details.PosterPath, "w500"),
			Backdrop: p.imageURL(details.BackdropPath, "original"),
		},
		Provider:     "tmdb",
		SeasonCount:  intPtr(details.NumberOfSeasons),
		EpisodeCount: intPtr(details.NumberOfEpisodes),
		Seasons:      seasons,
	}
	if details.ExternalIDs != nil {
		meta.ExternalIds = types.ExternalIds{Imdb: details.ExternalIDs.ImdbID, Tmdb: meta.ID}
		if details.ExternalIDs.TvdbID != nil {
			meta.ExternalIds.Tvdb = strconv.FormatInt(*details.ExternalIDs.TvdbID, 10)
		}
	} else {
		meta.ExternalIds = types.ExternalIds{Tmdb: meta.ID}
	}
	meta.SortTitle = generateSortTitle(meta.Title, year)

	if details.Credits != nil {
		meta.Cast = p.castToPersons(details.Credits.Cast)
		meta.Crew = p.filterCrew(details.Credits.Crew, "Director", "Writer", "Creator", "Executive Producer")
	}
	return meta, nil
}

func (p *Provider) castToPersons(cast []castMember) []types.PersonInfo {
	limit := len(cast)
	if limit > 20 {
		limit = 20
	}
	out := make([]types.PersonInfo, 0, limit)
	for _, c := range cast[:limit] {
		out = append(out, types.PersonInfo{
			ID:       strconv.FormatInt(c.ID, 10),
			Name:     c.Name,
			Role:     c.Character,
			ImageURL: p.imageURL(c.ProfilePath, "w185"),
			Order:    c.Order,
		})
	}
	return out
}

func (p *Provider) filterCrew(crew []crewMember, jobs ...string) []types.PersonInfo {
	wanted := make(map[string]struct{}, len(jobs))
	for _, j := range jobs {
		wanted[j] = struct{}{}
	}
	out := make([]types.PersonInfo, 0)
	for _, c := range crew {
		if _, ok := wanted[c.Job]; !ok {
			continue
		}
		out = append(out, types.PersonInfo{
			ID:       strconv.FormatInt(c.ID, 10),
			Name:     c.Name,
			Role:     c.Job,
			ImageURL: p.imageURL(c.ProfilePath, "w185"),
		})
	}
	return out
}

// generateSortTitle strips a leading English article and appends the year,
// matching the library's shared sort-title convention.
func generateSortTitle(title string, year *int) string {
	sortTitle := title
	for _, article := range []string{"The ", "A ", "An "} {
		if strings.HasPrefix(sortTitle, article) {
			sortTitle = strings.TrimPrefix(sortTitle, article)
			break
		}
	}
	if year != nil {
		return sortTitle + " (" + strconv.Itoa(*year) + ")"
	}
	return sortTitle
}

func (p *Provider) GetEpisode(ctx context.Context, seriesID string, season, episode int) (types.EpisodeInfo, error) {
	endpoint := "/tv/" + seriesID + "/season/" + strconv.Itoa(season) + "/episode/" + strconv.Itoa(episode)
	var ep episodeDetails
	if err := p.client.GetWithParams(ctx, endpoint, p.params(nil), &ep); err != nil {
		return types.EpisodeInfo{}, err
	}
	return types.EpisodeInfo{
		ID:       strconv.FormatInt(ep.ID, 10),
		Title:    ep.Name,
		Season:   ep.SeasonNumber,
		Episode:  ep.EpisodeNumber,
		AirDate:  ep.AirDate,
		Overview: ep.Overview,
		Runtime:  ep.Runtime,
		Rating:   floatPtr(ep.VoteAverage),
		StillURL: p.imageURL(ep.StillPath, "w300"),
		Provider: "tmdb",
	}, nil
}

func (p *Provider) FindByExternalID(ctx context.Context, idType, id string, mediaType types.MediaType) (types.MediaInfo, error) {
	sourceParam, ok := map[string]string{"imdb_id": "imdb_id", "tvdb_id": "tvdb_id"}[idType]
	if !ok {
		return types.MediaInfo{}, scraperrors.NotFound("find_by_external_id", "tmdb does not support id type: "+idType)
	}

	var resp findResponse
	params := p.params(map[string]string{"external_source": sourceParam})
	if err := p.client.GetWithParams(ctx, "/find/"+id, params, &resp); err != nil {
		return types.MediaInfo{}, err
	}

	if len(resp.MovieResults) > 0 {
		return p.movieToInfo(resp.MovieResults[0]), nil
	}
	if len(resp.TvResults) > 0 {
		return p.tvToInfo(resp.TvResults[0]), nil
	}
	return types.MediaInfo{}, scraperrors.NotFound("find_by_external_id", "no match for "+idType+"="+id)
}

func intPtr(v int) *int {
	return &v
}
