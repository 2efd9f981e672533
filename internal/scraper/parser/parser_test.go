package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mantonx/mediaid/internal/scraper/types"
)

func TestParseMovie(t *testing.T) {
	p := New()
	result := p.Parse("The.Matrix.1999.1080p.BluRay.x264.mkv")

	assert.Equal(t, "The Matrix", result.Title)
	require.NotNil(t, result.Year)
	assert.Equal(t, 1999, *result.Year)
	assert.Nil(t, result.Season)
	assert.Nil(t, result.Episode)
	assert.Equal(t, "1080P", result.Resolution)
	assert.Equal(t, "BluRay", result.Quality)
	assert.Equal(t, "X264", result.Codec)
	assert.Equal(t, types.HintMovie, result.Hint)
}

func TestParseTvShow(t *testing.T) {
	p := New()
	result := p.Parse("Breaking.Bad.S01E01.720p.BluRay.mkv")

	assert.Equal(t, "Breaking Bad", result.Title)
	require.NotNil(t, result.Season)
	require.NotNil(t, result.Episode)
	assert.Equal(t, 1, *result.Season)
	assert.Equal(t, 1, *result.Episode)
	assert.Equal(t, types.HintTvShow, result.Hint)
}

func TestParseAnimeWithGroup(t *testing.T) {
	p := New()
	result := p.Parse("[SubsPlease] Sousou no Frieren - 01 (1080p) [ABCD1234].mkv")

	assert.Contains(t, result.Title, "Frieren")
	require.NotNil(t, result.Episode)
	assert.Equal(t, 1, *result.Episode)
	assert.Equal(t, "SubsPlease", result.ReleaseGroup)
	assert.Equal(t, types.HintAnime, result.Hint)
}

func TestParseAnimeSimple(t *testing.T) {
	p := New()
	result := p.Parse("Sousou no Frieren - 01.mkv")

	assert.Contains(t, result.Title, "Frieren")
	require.NotNil(t, result.Episode)
	assert.Equal(t, 1, *result.Episode)
	assert.Equal(t, types.HintAnime, result.Hint)
}

func TestParseMovieWithParensYear(t *testing.T) {
	p := New()
	result := p.Parse("Inception (2010) 2160p UHD BluRay.mkv")

	assert.Equal(t, "Inception", result.Title)
	require.NotNil(t, result.Year)
	assert.Equal(t, 2010, *result.Year)
	assert.Equal(t, types.HintMovie, result.Hint)
}

func TestParseIsDeterministic(t *testing.T) {
	p := New()
	const name = "Spirited.Away.2001.1080p.BluRay.x265.mkv"

	first := p.Parse(name)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, p.Parse(name))
	}
}

func TestParseEmptyFilename(t *testing.T) {
	p := New()
	result := p.ParseFilename("")

	assert.Equal(t, types.HintUnknown, result.Hint)
	assert.Equal(t, "", result.Title)
	assert.Nil(t, result.Year)
}

func TestSeasonEpisodeRange(t *testing.T) {
	p := New()

	cases := []struct {
		name    string
		season  int
		episode int
	}{
		{"Show.S00E01.mkv", 0, 1},
		{"Show.S09E99.mkv", 9, 99},
		{"Show.S12E345.mkv", 12, 345},
		{"Show.S99E999.mkv", 99, 999},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			result := p.Parse(c.name)
			require.NotNil(t, result.Season)
			require.NotNil(t, result.Episode)
			assert.Equal(t, c.season, *result.Season)
			assert.Equal(t, c.episode, *result.Episode)
		})
	}
}

func TestYearOutOfRangeIsRejected(t *testing.T) {
	p := New()

	result := p.Parse("Some.Movie.1899.Remux.mkv")
	assert.Nil(t, result.Year)

	result = p.Parse("Some.Movie.2100.Remux.mkv")
	assert.Nil(t, result.Year)
}

func TestHashBracketIsNotReleaseGroup(t *testing.T) {
	p := New()
	result := p.Parse("[ABCD1234] Some Movie 2020.mkv")

	assert.Equal(t, "", result.ReleaseGroup)
}

func TestResolutionIsNotMistakenForReleaseGroup(t *testing.T) {
	p := New()
	result := p.Parse("[1080p] Some Movie 2020.mkv")

	assert.Equal(t, "", result.ReleaseGroup)
}

func TestCJKTitleForcesAnime(t *testing.T) {
	p := New()
	result := p.Parse("進撃の巨人 - 01.mkv")

	assert.Equal(t, types.HintAnime, result.Hint)
}
