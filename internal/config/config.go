// Package config loads the single YAML document that governs cmd/mediaidctl
// (cache sizing, aggregator behavior, per-provider API keys), validating it
// against a CUE schema before any of it reaches the scraper core.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/mantonx/mediaid/internal/scraper"
	"github.com/mantonx/mediaid/internal/scraper/cache"
	scraperrors "github.com/mantonx/mediaid/internal/scraper/errors"
	"github.com/mantonx/mediaid/internal/scraper/matcher"
)

// schema is the CUE validation contract for the YAML config document. It
// catches startup misconfiguration (out-of-range capacities or result caps,
// an unknown confidence bucket) before the Aggregator is ever built. TTLs
// are only checked to be strings here; their duration syntax is checked by
// ToCacheConfig.
const schema = `
#Cache: {
	search_capacity:   int & >0
	search_ttl:        string
	metadata_capacity: int & >0
	metadata_ttl:      string
}

#Aggregator: {
	min_confidence: "none" | "low" | "medium" | "high" | "exact"
	max_results:    int & >0 & <=100
	use_cache:      bool
	language?:      string
}

#Provider: {
	api_key?: string
}

cache:      #Cache
aggregator: #Aggregator
providers: [string]: #Provider
`

// CacheConfig mirrors the YAML "cache" section.
type CacheConfig struct {
	SearchCapacity   int    `yaml:"search_capacity"`
	SearchTTL        string `yaml:"search_ttl"`
	MetadataCapacity int    `yaml:"metadata_capacity"`
	MetadataTTL      string `yaml:"metadata_ttl"`
}

// AggregatorConfig mirrors the YAML "aggregator" section.
type AggregatorConfig struct {
	MinConfidence string `yaml:"min_confidence"`
	MaxResults    int    `yaml:"max_results"`
	UseCache      bool   `yaml:"use_cache"`
	Language      string `yaml:"language"`
}

// ProviderConfig mirrors one entry under the YAML "providers" map.
type ProviderConfig struct {
	APIKey string `yaml:"api_key"`
}

// Config is the fully parsed, CUE-validated document.
type Config struct {
	Cache      CacheConfig               `yaml:"cache"`
	Aggregator AggregatorConfig          `yaml:"aggregator"`
	Providers  map[string]ProviderConfig `yaml:"providers"`
}

// Load reads the YAML document at path, expands ${VAR} references against
// the process environment (so api_key: ${TMDB_API_KEY} resolves the way the
// example config in the configuration surface expects), validates the
// result against schema, and decodes it into a Config.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, scraperrors.IO("config.Load", err)
	}

	expanded := os.ExpandEnv(string(raw))

	var generic map[string]interface{}
	if err := yaml.Unmarshal([]byte(expanded), &generic); err != nil {
		return nil, scraperrors.Config("config.Load", "invalid yaml: "+err.Error())
	}

	if err := validate(generic); err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, scraperrors.Config("config.Load", "invalid yaml: "+err.Error())
	}
	return &cfg, nil
}

// validate unifies the decoded document against schema and reports the
// first CUE validation error, if any.
func validate(doc map[string]interface{}) error {
	ctx := cuecontext.New()

	schemaVal := ctx.CompileString(schema)
	if schemaVal.Err() != nil {
		return scraperrors.Config("config.validate", "invalid schema: "+schemaVal.Err().Error())
	}

	docVal := ctx.Encode(doc)
	if docVal.Err() != nil {
		return scraperrors.Config("config.validate", "invalid document: "+docVal.Err().Error())
	}

	unified := schemaVal.Unify(docVal)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return scraperrors.Config("config.validate", err.Error())
	}
	return nil
}

// ParseConfidence maps a YAML confidence bucket name onto matcher.Confidence.
// Schema validation already guarantees name is one of the five buckets.
func ParseConfidence(name string) matcher.Confidence {
	switch strings.ToLower(name) {
	case "none":
		return matcher.ConfidenceNone
	case "low":
		return matcher.ConfidenceLow
	case "medium":
		return matcher.ConfidenceMedium
	case "high":
		return matcher.ConfidenceHigh
	case "exact":
		return matcher.ConfidenceExact
	default:
		return matcher.ConfidenceMedium
	}
}

// ToCacheConfig converts the YAML cache section into cache.Config,
// resolving its TTL strings into time.Duration values.
func (c *Config) ToCacheConfig() (cache.Config, error) {
	searchTTL, err := parseDuration("config.ToCacheConfig", c.Cache.SearchTTL)
	if err != nil {
		return cache.Config{}, err
	}
	metadataTTL, err := parseDuration("config.ToCacheConfig", c.Cache.MetadataTTL)
	if err != nil {
		return cache.Config{}, err
	}
	return cache.Config{
		SearchCapacity:   c.Cache.SearchCapacity,
		SearchTTL:        searchTTL,
		MetadataCapacity: c.Cache.MetadataCapacity,
		MetadataTTL:      metadataTTL,
	}, nil
}

// ToScraperConfig converts the YAML aggregator section into scraper.Config.
func (c *Config) ToScraperConfig() scraper.Config {
	return scraper.Config{
		MinConfidence: ParseConfidence(c.Aggregator.MinConfidence),
		MaxResults:    c.Aggregator.MaxResults,
		UseCache:      c.Aggregator.UseCache,
		Language:      c.Aggregator.Language,
	}
}

// APIKey returns the configured API key for providerID, or "" if the
// provider has no entry in the providers map.
func (c *Config) APIKey(providerID string) string {
	p, ok := c.Providers[providerID]
	if !ok {
		return ""
	}
	return p.APIKey
}

// parseDuration wraps time.ParseDuration with a config-flavored error; the
// CUE schema only checks that the field is a string, so malformed duration
// text (e.g. "1hour") still needs to surface as a config error here.
func parseDuration(op, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, scraperrors.Config(op, fmt.Sprintf("invalid duration %q: %v", value, err))
	}
	return d, nil
}
