package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mantonx/mediaid/internal/scraper/types"
)

func testConfig() Config {
	return Config{
		SearchCapacity:   2,
		SearchTTL:        50 * time.Millisecond,
		MetadataCapacity: 2,
		MetadataTTL:      50 * time.Millisecond,
	}
}

func TestSearchSetGet(t *testing.T) {
	c := New(testConfig(), nil)
	results := []types.MediaInfo{types.NewMediaInfo("1", "Frieren", "anilist")}

	c.SetSearch("frieren", results)

	got, ok := c.GetSearch("frieren")
	require.True(t, ok)
	assert.Equal(t, results, got)
}

func TestSearchMiss(t *testing.T) {
	c := New(testConfig(), nil)

	_, ok := c.GetSearch("missing")
	assert.False(t, ok)
}

func TestSearchResultIsSnapshotted(t *testing.T) {
	c := New(testConfig(), nil)
	results := []types.MediaInfo{types.NewMediaInfo("1", "Frieren", "anilist")}

	c.SetSearch("frieren", results)
	results[0].Title = "mutated after insert"

	got, ok := c.GetSearch("frieren")
	require.True(t, ok)
	assert.Equal(t, "Frieren", got[0].Title)
}

func TestMetadataExpiry(t *testing.T) {
	c := New(testConfig(), nil)
	c.SetMetadata("1", types.MediaMetadata{ID: "1", Title: "Frieren"})

	_, ok := c.GetMetadata("1")
	require.True(t, ok)

	time.Sleep(80 * time.Millisecond)

	_, ok = c.GetMetadata("1")
	assert.False(t, ok)
}

func TestSearchCapacityEvictsLeastRecentlyUsed(t *testing.T) {
	c := New(testConfig(), nil)

	c.SetSearch("a", []types.MediaInfo{types.NewMediaInfo("a", "A", "tmdb")})
	c.SetSearch("b", []types.MediaInfo{types.NewMediaInfo("b", "B", "tmdb")})

	// Touch "a" so it becomes more recently used than "b".
	_, _ = c.GetSearch("a")

	c.SetSearch("c", []types.MediaInfo{types.NewMediaInfo("c", "C", "tmdb")})

	_, aOk := c.GetSearch("a")
	_, bOk := c.GetSearch("b")
	_, cOk := c.GetSearch("c")

	assert.True(t, aOk)
	assert.False(t, bOk)
	assert.True(t, cOk)

	stats := c.SearchStats()
	assert.Equal(t, 2, stats.Entries)
	assert.Equal(t, 2, stats.Capacity)
}

func TestClearEmptiesBothStores(t *testing.T) {
	c := New(testConfig(), nil)
	c.SetSearch("a", []types.MediaInfo{types.NewMediaInfo("a", "A", "tmdb")})
	c.SetMetadata("a", types.MediaMetadata{ID: "a"})

	c.Clear()

	_, searchOk := c.GetSearch("a")
	_, metaOk := c.GetMetadata("a")
	assert.False(t, searchOk)
	assert.False(t, metaOk)
	assert.Equal(t, 0, c.SearchStats().Entries)
	assert.Equal(t, 0, c.MetadataStats().Entries)
}

func TestConcurrentAccessDoesNotRace(t *testing.T) {
	c := New(DefaultConfig(), nil)
	done := make(chan struct{})

	for i := 0; i < 20; i++ {
		go func(n int) {
			key := string(rune('a' + n%10))
			c.SetSearch(key, []types.MediaInfo{types.NewMediaInfo(key, key, "tmdb")})
			c.GetSearch(key)
			done <- struct{}{}
		}(i)
	}

	for i := 0; i < 20; i++ {
		<-done
	}
}
