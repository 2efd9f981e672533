package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mantonx/mediaid/internal/scraper/matcher"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const validConfig = `
cache:
  search_capacity: 1000
  search_ttl: 1h
  metadata_capacity: 500
  metadata_ttl: 24h
aggregator:
  min_confidence: medium
  max_results: 10
  use_cache: true
  language: en-US
providers:
  tmdb:
    api_key: test-key
  anilist: {}
  bangumi: {}
`

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, validConfig)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.Cache.SearchCapacity)
	assert.Equal(t, "medium", cfg.Aggregator.MinConfidence)
	assert.Equal(t, "test-key", cfg.APIKey("tmdb"))
	assert.Equal(t, "", cfg.APIKey("anilist"))
}

func TestLoadExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("MEDIAID_TEST_TMDB_KEY", "secret-from-env")
	path := writeConfig(t, `
cache:
  search_capacity: 1000
  search_ttl: 1h
  metadata_capacity: 500
  metadata_ttl: 24h
aggregator:
  min_confidence: medium
  max_results: 10
  use_cache: true
providers:
  tmdb:
    api_key: ${MEDIAID_TEST_TMDB_KEY}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "secret-from-env", cfg.APIKey("tmdb"))
}

func TestLoadRejectsUnknownConfidenceBucket(t *testing.T) {
	path := writeConfig(t, `
cache:
  search_capacity: 1000
  search_ttl: 1h
  metadata_capacity: 500
  metadata_ttl: 24h
aggregator:
  min_confidence: superb
  max_results: 10
  use_cache: true
providers: {}
`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsNonPositiveCapacity(t *testing.T) {
	path := writeConfig(t, `
cache:
  search_capacity: 0
  search_ttl: 1h
  metadata_capacity: 500
  metadata_ttl: 24h
aggregator:
  min_confidence: medium
  max_results: 10
  use_cache: true
providers: {}
`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsMaxResultsAboveCap(t *testing.T) {
	path := writeConfig(t, `
cache:
  search_capacity: 1000
  search_ttl: 1h
  metadata_capacity: 500
  metadata_ttl: 24h
aggregator:
  min_confidence: medium
  max_results: 1000
  use_cache: true
providers: {}
`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.Error(t, err)
}

func TestToCacheConfigParsesDurations(t *testing.T) {
	path := writeConfig(t, validConfig)
	cfg, err := Load(path)
	require.NoError(t, err)

	cacheCfg, err := cfg.ToCacheConfig()
	require.NoError(t, err)
	assert.Equal(t, 1000, cacheCfg.SearchCapacity)
	assert.Equal(t, "1h0m0s", cacheCfg.SearchTTL.String())
	assert.Equal(t, "24h0m0s", cacheCfg.MetadataTTL.String())
}

func TestToScraperConfigMapsConfidence(t *testing.T) {
	path := writeConfig(t, validConfig)
	cfg, err := Load(path)
	require.NoError(t, err)

	scraperCfg := cfg.ToScraperConfig()
	assert.Equal(t, matcher.ConfidenceMedium, scraperCfg.MinConfidence)
	assert.Equal(t, 10, scraperCfg.MaxResults)
	assert.True(t, scraperCfg.UseCache)
}

func TestParseConfidenceAllBuckets(t *testing.T) {
	cases := map[string]matcher.Confidence{
		"none":   matcher.ConfidenceNone,
		"low":    matcher.ConfidenceLow,
		"medium": matcher.ConfidenceMedium,
		"high":   matcher.ConfidenceHigh,
		"exact":  matcher.ConfidenceExact,
	}
	for name, want := range cases {
		assert.Equal(t, want, ParseConfidence(name), name)
	}
}
