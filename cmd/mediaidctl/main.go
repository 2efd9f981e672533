// Command mediaidctl is a thin CLI wrapper around the identification core:
// it owns the one boundary the core itself never crosses (reading a config
// file from disk), builds an Aggregator from it, and prints a scrape result.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
	"gopkg.in/yaml.v3"

	"github.com/mantonx/mediaid/internal/config"
	"github.com/mantonx/mediaid/internal/scraper"
	"github.com/mantonx/mediaid/internal/scraper/provider/anilist"
	"github.com/mantonx/mediaid/internal/scraper/provider/bangumi"
	"github.com/mantonx/mediaid/internal/scraper/provider/tmdb"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to the YAML configuration document")
		logLevel   = flag.String("log-level", "info", "hclog level: trace, debug, info, warn, error")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: mediaidctl [flags] <filename>")
		os.Exit(2)
	}
	filename := flag.Arg(0)

	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "mediaidctl",
		Level: hclog.LevelFromString(*logLevel),
	})

	if err := run(logger, *configPath, filename); err != nil {
		logger.Error("scrape failed", "error", err)
		os.Exit(1)
	}
}

func run(logger hclog.Logger, configPath, filename string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	cacheCfg, err := cfg.ToCacheConfig()
	if err != nil {
		return fmt.Errorf("building cache config: %w", err)
	}

	aggregator := scraper.NewWithCache(cfg.ToScraperConfig(), cacheCfg, logger)
	registerProviders(aggregator, cfg, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := aggregator.Scrape(ctx, filename)
	if err != nil {
		return fmt.Errorf("scraping %q: %w", filename, err)
	}

	out, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// registerProviders wires every provider, regardless of whether an API key
// is configured for it. The aggregator's search path does not check keys;
// it logs and skips a provider whose calls fail, so a provider with no key
// is treated the same way an unreachable network would be.
func registerProviders(aggregator *scraper.Aggregator, cfg *config.Config, logger hclog.Logger) {
	aggregator.AddProvider(tmdb.New(cfg.APIKey("tmdb"), logger))
	aggregator.AddProvider(anilist.New(logger))
	aggregator.AddProvider(bangumi.New(logger))
}
