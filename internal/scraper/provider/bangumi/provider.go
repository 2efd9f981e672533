package bangumi

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"

	scraperrors "github.com/mantonx/mediaid/internal/scraper/errors"
	"github.com/mantonx/mediaid/internal/scraper/provider"
	"github.com/mantonx/mediaid/internal/scraper/types"
)

const baseURL = "https://api.bgm.tv"

// Provider implements provider.MetadataProvider against Bangumi. It serves
// Anime exclusively, requires no API key, and is particularly strong on
// Chinese-language titles and studio/director crew data mined from its
// free-form infobox.
type Provider struct {
	client *provider.HTTPClient
	logger hclog.Logger
}

func New(logger hclog.Logger) *Provider {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Provider{
		client: provider.NewHTTPClient(baseURL, logger.Named("bangumi")),
		logger: logger,
	}
}

func (p *Provider) ID() string { return "bangumi" }

func (p *Provider) SupportedTypes() []types.MediaType {
	return []types.MediaType{types.MediaTypeAnime}
}

func (p *Provider) RequiresAPIKey() bool { return false }

func (p *Provider) PriorityFor(mediaType types.MediaType) int {
	if mediaType == types.MediaTypeAnime {
		return 80
	}
	return 0
}

func yearFromDates(primary, fallback string) *int {
	date := primary
	if date == "" {
		date = fallback
	}
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

func (p *Provider) subjectToInfo(s subject) types.MediaInfo {
	title := s.NameCN
	if title == "" {
		title = s.Name
	}

	poster := ""
	if s.Images != nil {
		poster = s.Images.Large
		if poster == "" {
			poster = s.Images.Common
		}
	}

	var rating *float64
	if s.Rating != nil {
		rating = s.Rating.Score
	}

	return types.NewMediaInfo(strconv.Itoa(s.ID), title, "bangumi").
		WithType(types.MediaTypeAnime).
		WithYear(yearFromDates(s.Date, s.AirDate)).
		WithOriginalTitle(s.Name).
		WithPoster(poster).
		WithOverview(s.Summary).
		WithRating(rating)
}

// studioKeys/directorKeys are the Chinese and Japanese infobox field names
// Bangumi uses for production studio and director; both languages appear
// depending on how a subject was entered.
var studioKeys = map[string]struct{}{"动画制作": {}, "製作": {}}
var directorKeys = map[string]struct{}{"导演": {}, "監督": {}}

func (p *Provider) subjectToMetadata(s subject) types.MediaMetadata {
	title := s.NameCN
	if title == "" {
		title = s.Name
	}
	releaseDate := s.Date
	if releaseDate == "" {
		releaseDate = s.AirDate
	}

	var studios []string
	var director string
	for _, item := range s.Infobox {
		switch {
		case isInfoboxKey(item.Key, studioKeys):
			if str, ok := item.asString(); ok {
				studios = append(studios, str)
			} else if list, ok := item.asList(); ok {
				studios = append(studios, list...)
			}
		case isInfoboxKey(item.Key, directorKeys):
			if str, ok := item.asString(); ok {
				director = str
			}
		}
	}

	format := "Unknown"
	switch s.SubjectType {
	case subjectTypeAnime:
		format = "TV"
	case subjectTypeMovie:
		format = "Movie"
	}

	genres := make([]string, 0, min(len(s.Tags), 10))
	for i, t := range s.Tags {
		if i >= 10 {
			break
		}
		genres = append(genres, t.Name)
	}

	var ratingScore *float64
	var voteCount *int
	if s.Rating != nil {
		ratingScore = s.Rating.Score
		voteCount = s.Rating.Total
	}

	poster := ""
	if s.Images != nil {
		poster = s.Images.Large
		if poster == "" {
			poster = s.Images.Common
		}
	}

	var crew []types.PersonInfo
	if director != "" {
		crew = []types.PersonInfo{{Name: director, Role: "Director", Order: intPtr(0)}}
	}

	return types.MediaMetadata{
		ID:            strconv.Itoa(s.ID),
		Title:         title,
		OriginalTitle: s.Name,
		SortTitle:     title,
		MediaType:     types.MediaTypeAnime,
		Overview:      s.Summary,
		ReleaseDate:   releaseDate,
		Rating:        ratingScore,
		VoteCount:     voteCount,
		Genres:        genres,
		Studios:       studios,
		Language:      "ja",
		Status:        format,
		Images:        types.ImageSet{Poster: poster},
		ExternalIds:   types.ExternalIds{Bangumi: strconv.Itoa(s.ID)},
		Provider:      "bangumi",
		EpisodeCount:  s.Eps,
		Crew:          crew,
	}
}

func isInfoboxKey(key string, set map[string]struct{}) bool {
	_, ok := set[key]
	return ok
}

// parseDuration handles Bangumi's two observed duration formats: "24:00"
// (minutes:seconds) and "24分" (a bare number followed by a unit suffix).
func parseDuration(duration string) *int {
	if duration == "" {
		return nil
	}
	if idx := strings.Index(duration, ":"); idx >= 0 {
		if minutes, err := strconv.Atoi(duration[:idx]); err == nil {
			return &minutes
		}
		return nil
	}

	digits := strings.Builder{}
	for _, r := range duration {
		if r < '0' || r > '9' {
			break
		}
		digits.WriteRune(r)
	}
	if digits.Len() == 0 {
		return nil
	}
	v, err := strconv.Atoi(digits.String())
	if err != nil {
		return nil
	}
	return &v
}

func (p *Provider) Search(ctx context.Context, opts provider.SearchOptions) ([]types.MediaInfo, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	endpoint := "/search/subject/" + url.PathEscape(opts.Query)
	params := map[string]string{
		"type":          "2",
		"responseGroup": "small",
		"max_results":   strconv.Itoa(limit),
	}

	var resp searchResponse
	if err := p.client.GetWithParams(ctx, endpoint, params, &resp); err != nil {
		return nil, err
	}
	if len(resp.List) == 0 {
		return nil, scraperrors.NotFound("search", "no results found for: "+opts.Query)
	}

	results := make([]types.MediaInfo, 0, len(resp.List))
	for _, s := range resp.List {
		if opts.Year != nil {
			if y := yearFromDates(s.Date, s.AirDate); y == nil || *y != *opts.Year {
				continue
			}
		}
		results = append(results, p.subjectToInfo(s))
	}
	if len(results) == 0 {
		return nil, scraperrors.NotFound("search", "no results found for: "+opts.Query)
	}
	return results, nil
}

func (p *Provider) GetMetadata(ctx context.Context, id string, _ types.MediaType) (types.MediaMetadata, error) {
	var s subject
	if err := p.client.Get(ctx, "/v0/subjects/"+id, &s); err != nil {
		return types.MediaMetadata{}, err
	}
	return p.subjectToMetadata(s), nil
}

func (p *Provider) GetEpisode(ctx context.Context, seriesID string, season, episodeNum int) (types.EpisodeInfo, error) {
	endpoint := "/v0/episodes"
	params := map[string]string{
		"subject_id": seriesID,
		"type":       "0",
		"limit":      "100",
	}

	var resp episodesResponse
	if err := p.client.GetWithParams(ctx, endpoint, params, &resp); err != nil {
		return types.EpisodeInfo{}, err
	}

	var found *episode
	for i := range resp.Data {
		e := &resp.Data[i]
		if e.Ep != nil && int(*e.Ep) == episodeNum {
			found = e
			break
		}
		if int(e.Sort) == episodeNum {
			found = e
			break
		}
	}
	if found == nil {
		return types.EpisodeInfo{}, scraperrors.NotFound("get_episode", "episode not found")
	}

	title := found.NameCN
	if title == "" {
		title = found.Name
	}
	if title == "" {
		title = "Episode " + strconv.Itoa(episodeNum)
	}

	episodeNumber := episodeNum
	if found.Ep != nil {
		episodeNumber = int(*found.Ep)
	} else {
		episodeNumber = int(found.Sort)
	}

	return types.EpisodeInfo{
		ID:             strconv.Itoa(found.ID),
		Title:          title,
		Season:         1,
		Episode:        episodeNumber,
		AbsoluteNumber: intPtr(int(found.Sort)),
		AirDate:        found.Airdate,
		Overview:       found.Desc,
		Runtime:        parseDuration(found.Duration),
		Provider:       "bangumi",
	}, nil
}

func (p *Provider) FindByExternalID(ctx context.Context, idType, id string, mediaType types.MediaType) (types.MediaInfo, error) {
	return types.MediaInfo{}, scraperrors.NotFound("find_by_external_id", "bangumi does not support lookup by external id")
}

func intPtr(v int) *int {
	return &v
}
