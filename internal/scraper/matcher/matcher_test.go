package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mantonx/mediaid/internal/scraper/types"
)

func intPtr(v int) *int            { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestRankPrefersExactTitleAndYearMatch(t *testing.T) {
	m := New()
	parsed := types.ParsedMedia{Title: "The Matrix", Year: intPtr(1999), Hint: types.HintMovie}

	candidates := []types.MediaInfo{
		types.NewMediaInfo("1", "The Matrix Reloaded", "tmdb").WithType(types.MediaTypeMovie).WithYear(intPtr(2003)),
		types.NewMediaInfo("2", "The Matrix", "tmdb").WithType(types.MediaTypeMovie).WithYear(intPtr(1999)),
	}

	ranked := m.Rank(candidates, parsed)
	require.Len(t, ranked, 2)
	assert.Equal(t, "2", ranked[0].Info.ID)
	assert.Equal(t, ConfidenceExact, ranked[0].Confidence)
}

func TestRankIsStableOnTies(t *testing.T) {
	m := New()
	parsed := types.ParsedMedia{Title: "Unrelated Query"}

	candidates := []types.MediaInfo{
		types.NewMediaInfo("a", "Zzz", "tmdb"),
		types.NewMediaInfo("b", "Zzz", "tmdb"),
		types.NewMediaInfo("c", "Zzz", "tmdb"),
	}

	ranked := m.Rank(candidates, parsed)
	require.Len(t, ranked, 3)
	assert.Equal(t, "a", ranked[0].Info.ID)
	assert.Equal(t, "b", ranked[1].Info.ID)
	assert.Equal(t, "c", ranked[2].Info.ID)
}

func TestScoreYearBuckets(t *testing.T) {
	info := types.NewMediaInfo("1", "X", "tmdb").WithYear(intPtr(2000))

	cases := []struct {
		name     string
		year     *int
		expected int
	}{
		{"exact", intPtr(2000), 20},
		{"off by one", intPtr(2001), 15},
		{"off by two", intPtr(2002), 10},
		{"off by more", intPtr(2010), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			parsed := types.ParsedMedia{Year: tc.year}
			assert.Equal(t, tc.expected, scoreYear(info, parsed))
		})
	}
}

func TestScoreYearBothNilIsNeutral(t *testing.T) {
	info := types.NewMediaInfo("1", "X", "tmdb")
	assert.Equal(t, 10, scoreYear(info, types.ParsedMedia{}))
}

func TestScoreYearOneNilIsPenalized(t *testing.T) {
	info := types.NewMediaInfo("1", "X", "tmdb").WithYear(intPtr(2000))
	assert.Equal(t, 5, scoreYear(info, types.ParsedMedia{}))
}

func TestScoreTypeExactCompatibleMismatch(t *testing.T) {
	tvInfo := types.NewMediaInfo("1", "X", "tmdb").WithType(types.MediaTypeTv)
	animeInfo := types.NewMediaInfo("2", "X", "tmdb").WithType(types.MediaTypeAnime)
	movieInfo := types.NewMediaInfo("3", "X", "tmdb").WithType(types.MediaTypeMovie)

	tvParsed := types.ParsedMedia{Hint: types.HintTvShow}
	assert.Equal(t, 20, scoreType(tvInfo, tvParsed))
	assert.Equal(t, 15, scoreType(animeInfo, tvParsed))
	assert.Equal(t, 0, scoreType(movieInfo, tvParsed))

	unknownParsed := types.ParsedMedia{Hint: types.HintUnknown}
	assert.Equal(t, 10, scoreType(movieInfo, unknownParsed))
}

func TestScoreProviderAffinity(t *testing.T) {
	assert.Equal(t, 10, scoreProvider(types.NewMediaInfo("1", "X", "anilist").WithType(types.MediaTypeAnime)))
	assert.Equal(t, 8, scoreProvider(types.NewMediaInfo("1", "X", "bangumi").WithType(types.MediaTypeAnime)))
	assert.Equal(t, 10, scoreProvider(types.NewMediaInfo("1", "X", "tmdb").WithType(types.MediaTypeMovie)))
	assert.Equal(t, 9, scoreProvider(types.NewMediaInfo("1", "X", "tmdb").WithType(types.MediaTypeTv)))
	assert.Equal(t, 5, scoreProvider(types.NewMediaInfo("1", "X", "tmdb").WithType(types.MediaTypeAnime)))
}

func TestScorePopularityBuckets(t *testing.T) {
	assert.Equal(t, 10, scorePopularity(types.NewMediaInfo("1", "X", "tmdb").WithPopularity(floatPtr(5000))))
	assert.Equal(t, 7, scorePopularity(types.NewMediaInfo("1", "X", "tmdb").WithPopularity(floatPtr(500))))
	assert.Equal(t, 5, scorePopularity(types.NewMediaInfo("1", "X", "tmdb").WithPopularity(floatPtr(50))))
	assert.Equal(t, 3, scorePopularity(types.NewMediaInfo("1", "X", "tmdb").WithPopularity(floatPtr(1))))
	assert.Equal(t, 5, scorePopularity(types.NewMediaInfo("1", "X", "tmdb")))
}

func TestBestMatchNilBelowMediumConfidence(t *testing.T) {
	m := New()
	parsed := types.ParsedMedia{Title: "Completely Unrelated Thing"}
	candidates := []types.MediaInfo{
		types.NewMediaInfo("1", "Zzz Nothing Alike", "tmdb"),
	}
	assert.Nil(t, m.BestMatch(candidates, parsed))
}

func TestBestMatchReturnsHighConfidenceMatch(t *testing.T) {
	m := New()
	parsed := types.ParsedMedia{Title: "Attack on Titan", Year: intPtr(2013), Hint: types.HintAnime}
	candidates := []types.MediaInfo{
		types.NewMediaInfo("1", "Attack on Titan", "anilist").WithType(types.MediaTypeAnime).WithYear(intPtr(2013)),
	}
	best := m.BestMatch(candidates, parsed)
	require.NotNil(t, best)
	assert.Equal(t, "1", best.Info.ID)
}

func TestStringSimilarityExactMatchIsOne(t *testing.T) {
	assert.Equal(t, 1.0, stringSimilarity("attack on titan", "attack on titan"))
}

func TestStringSimilarityNoOverlapIsZero(t *testing.T) {
	assert.Equal(t, 0.0, stringSimilarity("completely different", "words here"))
}

func TestNormalizeTitleStripsPunctuationAndCase(t *testing.T) {
	assert.Equal(t, "the matrix", normalizeTitle("The Matrix!!!"))
}
