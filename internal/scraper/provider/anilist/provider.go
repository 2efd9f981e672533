package anilist

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/hashicorp/go-hclog"

	scraperrors "github.com/mantonx/mediaid/internal/scraper/errors"
	"github.com/mantonx/mediaid/internal/scraper/provider"
	"github.com/mantonx/mediaid/internal/scraper/types"
)

const baseURL = "https://graphql.anilist.co"

var htmlTagPattern = regexp.MustCompile(`<[^>]+>`)

// Provider implements provider.MetadataProvider against AniList. It serves
// Anime exclusively and requires no API key: AniList's GraphQL endpoint is
// open for read access.
type Provider struct {
	client *provider.HTTPClient
	logger hclog.Logger
}

func New(logger hclog.Logger) *Provider {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Provider{
		client: provider.NewHTTPClient(baseURL, logger.Named("anilist")),
		logger: logger,
	}
}

func (p *Provider) ID() string { return "anilist" }

func (p *Provider) SupportedTypes() []types.MediaType {
	return []types.MediaType{types.MediaTypeAnime}
}

func (p *Provider) RequiresAPIKey() bool { return false }

func (p *Provider) PriorityFor(mediaType types.MediaType) int {
	switch mediaType {
	case types.MediaTypeAnime:
		return 100
	case types.MediaTypeTv:
		return 20
	default:
		return 0
	}
}

// query posts the GraphQL request and unwraps the envelope, translating a
// GraphQL-level error into a KindAPI error and a missing data field into
// KindParse.
func (p *Provider) query(ctx context.Context, gqlQuery string, variables interface{}, dataOut interface{}) error {
	req := graphQLRequest{Query: gqlQuery, Variables: variables}

	switch target := dataOut.(type) {
	case *searchData:
		var resp graphQLResponse[searchData]
		if err := p.client.PostJSON(ctx, "", req, &resp); err != nil {
			return err
		}
		if len(resp.Errors) > 0 {
			return scraperrors.API("search", 400, resp.Errors[0].Message)
		}
		if resp.Data == nil {
			return scraperrors.Parse("search", "no data in response")
		}
		*target = *resp.Data
		return nil
	case *mediaData:
		var resp graphQLResponse[mediaData]
		if err := p.client.PostJSON(ctx, "", req, &resp); err != nil {
			return err
		}
		if len(resp.Errors) > 0 {
			return scraperrors.API("get_metadata", 400, resp.Errors[0].Message)
		}
		if resp.Data == nil {
			return scraperrors.Parse("get_metadata", "no data in response")
		}
		*target = *resp.Data
		return nil
	default:
		return scraperrors.Config("query", "unsupported anilist response shape")
	}
}

func fuzzyDateString(d *fuzzyDate) string {
	if d == nil || d.Year == nil {
		return ""
	}
	if d.Month == nil {
		return fmt.Sprintf("%04d", *d.Year)
	}
	if d.Day == nil {
		return fmt.Sprintf("%04d-%02d", *d.Year, *d.Month)
	}
	return fmt.Sprintf("%04d-%02d-%02d", *d.Year, *d.Month, *d.Day)
}

func scoreFromAverage(avg *int) *float64 {
	if avg == nil {
		return nil
	}
	v := float64(*avg) / 10.0
	return &v
}

func popularityFromInt(v *int) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}

func (p *Provider) mediaToInfo(m media) types.MediaInfo {
	displayTitle := m.Title.English
	if displayTitle == "" {
		displayTitle = m.Title.Romaji
	}

	info := types.NewMediaInfo(strconv.Itoa(m.ID), displayTitle, "anilist").
		WithType(types.MediaTypeAnime).
		WithYear(m.SeasonYear).
		WithOriginalTitle(m.Title.Native).
		WithOverview(m.Description).
		WithRating(scoreFromAverage(m.AverageScore)).
		WithPopularity(popularityFromInt(m.Popularity))

	if m.CoverImage != nil {
		poster := m.CoverImage.ExtraLarge
		if poster == "" {
			poster = m.CoverImage.Large
		}
		info = info.WithPoster(poster)
	}

	if m.Title.Romaji != "" {
		info = info.WithAltTitle(m.Title.Romaji)
	}
	for _, syn := range m.Synonyms {
		info = info.WithAltTitle(syn)
	}

	return info
}

func (p *Provider) mediaToMetadata(m media) types.MediaMetadata {
	displayTitle := m.Title.English
	if displayTitle == "" {
		displayTitle = m.Title.Romaji
	}

	poster := ""
	backdrop := m.BannerImage
	if m.CoverImage != nil {
		poster = m.CoverImage.ExtraLarge
		if poster == "" {
			poster = m.CoverImage.Large
		}
	}

	tags := make([]string, 0, len(m.Tags))
	for _, t := range m.Tags {
		rank := 0
		if t.Rank != nil {
			rank = *t.Rank
		}
		if rank >= 60 {
			tags = append(tags, t.Name)
		}
	}

	studioNames := make([]string, 0)
	if m.Studios != nil {
		for _, s := range m.Studios.Nodes {
			if s.IsAnimationStudio {
				studioNames = append(studioNames, s.Name)
			}
		}
	}

	meta := types.MediaMetadata{
		ID:            strconv.Itoa(m.ID),
		Title:         displayTitle,
		OriginalTitle: m.Title.Native,
		SortTitle:     displayTitle,
		MediaType:     types.MediaTypeAnime,
		Overview:      htmlTagPattern.ReplaceAllString(m.Description, ""),
		ReleaseDate:   fuzzyDateString(m.StartDate),
		EndDate:       fuzzyDateString(m.EndDate),
		Runtime:       m.Duration,
		Rating:        scoreFromAverage(m.AverageScore),
		VoteCount:     m.Popularity,
		Genres:        append([]string(nil), m.Genres...),
		Tags:          tags,
		Studios:       studioNames,
		Language:      "ja",
		Status:        m.Status,
		Images:        types.ImageSet{Poster: poster, Backdrop: backdrop},
		ExternalIds:   types.ExternalIds{Anilist: strconv.Itoa(m.ID)},
		Provider:      "anilist",
		EpisodeCount:  m.Episodes,
	}
	if m.IDMal != nil {
		meta.ExternalIds.Mal = strconv.Itoa(*m.IDMal)
	}

	if m.Characters != nil {
		meta.Cast = charactersToCast(m.Characters.Edges)
	}
	if m.Staff != nil {
		meta.Crew = staffToCrew(m.Staff.Edges)
	}

	return meta
}

func charactersToCast(edges []characterEdge) []types.PersonInfo {
	out := make([]types.PersonInfo, 0, len(edges))
	for _, e := range edges {
		if e.Role != "MAIN" && e.Role != "SUPPORTING" {
			continue
		}
		if len(out) >= 20 {
			break
		}

		roleName := e.Node.Name.Full
		name := roleName
		for _, va := range e.VoiceActors {
			if va.Language == "Japanese" {
				name = va.Name.Full
				break
			}
		}

		imageURL := ""
		if e.Node.Image != nil {
			imageURL = e.Node.Image.Large
		}

		out = append(out, types.PersonInfo{
			ID:       strconv.Itoa(e.Node.ID),
			Name:     name,
			Role:     roleName,
			ImageURL: imageURL,
		})
	}
	return out
}

var crewRoles = map[string]struct{}{
	"Director":            {},
	"Original Creator":    {},
	"Series Composition":  {},
	"Music":               {},
}

func staffToCrew(edges []staffEdge) []types.PersonInfo {
	out := make([]types.PersonInfo, 0)
	for _, e := range edges {
		if _, ok := crewRoles[e.Role]; !ok {
			continue
		}
		imageURL := ""
		if e.Node.Image != nil {
			imageURL = e.Node.Image.Large
		}
		out = append(out, types.PersonInfo{
			ID:       strconv.Itoa(e.Node.ID),
			Name:     e.Node.Name.Full,
			Role:     e.Role,
			ImageURL: imageURL,
		})
	}
	return out
}

const searchQuery = `
query ($search: String, $year: Int, $perPage: Int) {
	Page(page: 1, perPage: $perPage) {
		media(search: $search, seasonYear: $year, type: ANIME, sort: SEARCH_MATCH) {
			id
			title { romaji english native }
			status
			description
			seasonYear
			episodes
			duration
			coverImage { large extraLarge }
			bannerImage
			averageScore
			popularity
			genres
			synonyms
			idMal
		}
	}
}`

const metadataQuery = `
query ($id: Int) {
	Media(id: $id, type: ANIME) {
		id
		title { romaji english native }
		status
		description
		season
		seasonYear
		episodes
		duration
		coverImage { large extraLarge }
		bannerImage
		averageScore
		popularity
		genres
		tags { name rank }
		studios { nodes { name isAnimationStudio } }
		startDate { year month day }
		endDate { year month day }
		idMal
		synonyms
		characters(sort: ROLE, perPage: 25) {
			edges {
				node { id name { full } image { large } }
				role
				voiceActors(language: JAPANESE) {
					id name { full } image { large } language
				}
			}
		}
		staff(perPage: 10) {
			edges {
				node { id name { full } image { large } }
				role
			}
		}
	}
}`

const findByMalIDQuery = `
query ($malId: Int) {
	Media(idMal: $malId, type: ANIME) {
		id
		title { romaji english native }
		seasonYear
		coverImage { large extraLarge }
		description
		averageScore
		popularity
		synonyms
		idMal
	}
}`

func (p *Provider) Search(ctx context.Context, opts provider.SearchOptions) ([]types.MediaInfo, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	variables := map[string]interface{}{
		"search":  opts.Query,
		"year":    opts.Year,
		"perPage": limit,
	}

	var data searchData
	if err := p.query(ctx, searchQuery, variables, &data); err != nil {
		return nil, err
	}
	if len(data.Page.Media) == 0 {
		return nil, scraperrors.NotFound("search", "no anime found for: "+opts.Query)
	}

	out := make([]types.MediaInfo, 0, len(data.Page.Media))
	for _, m := range data.Page.Media {
		out = append(out, p.mediaToInfo(m))
	}
	return out, nil
}

func (p *Provider) GetMetadata(ctx context.Context, id string, _ types.MediaType) (types.MediaMetadata, error) {
	animeID, err := strconv.Atoi(id)
	if err != nil {
		return types.MediaMetadata{}, scraperrors.Parse("get_metadata", "invalid anilist id: "+id)
	}

	var data mediaData
	if err := p.query(ctx, metadataQuery, map[string]interface{}{"id": animeID}, &data); err != nil {
		return types.MediaMetadata{}, err
	}
	return p.mediaToMetadata(data.Media), nil
}

func (p *Provider) GetEpisode(ctx context.Context, seriesID string, season, episode int) (types.EpisodeInfo, error) {
	return types.EpisodeInfo{}, scraperrors.NotFound("get_episode", "anilist does not provide individual episode details")
}

func (p *Provider) FindByExternalID(ctx context.Context, idType, id string, mediaType types.MediaType) (types.MediaInfo, error) {
	if idType != "mal_id" {
		return types.MediaInfo{}, scraperrors.NotFound("find_by_external_id", "anilist does not support id type: "+idType)
	}

	malID, err := strconv.Atoi(id)
	if err != nil {
		return types.MediaInfo{}, scraperrors.Parse("find_by_external_id", "invalid mal id: "+id)
	}

	var data mediaData
	if err := p.query(ctx, findByMalIDQuery, map[string]interface{}{"malId": malID}, &data); err != nil {
		return types.MediaInfo{}, err
	}
	return p.mediaToInfo(data.Media), nil
}
