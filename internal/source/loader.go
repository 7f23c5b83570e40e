package source

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"slices"

	"github.com/lysyi3m/newswire/internal/news"
	"gopkg.in/yaml.v3"
)

// APIKeyPlaceholder is replaced with the query-escaped API key in API
// source URLs.
const APIKeyPlaceholder = "{api_key}"

var defaultSources = []news.SourceConfig{
	{Name: "Finnhub", URL: "https://finnhub.io/api/v1/news?category=general&token=" + APIKeyPlaceholder, Kind: news.KindAPI},
	{Name: "Reuters", URL: "http://feeds.reuters.com/reuters/businessNews", Kind: news.KindRSS},
	{Name: "Financial Times", URL: "https://www.ft.com/?format=rss", Kind: news.KindRSS},
	{Name: "Yahoo Finance", URL: "https://finance.yahoo.com/news/rssindex", Kind: news.KindRSS},
	{Name: "Investing.com", URL: "https://www.investing.com/rss/news_1.rss", Kind: news.KindRSS},
}

type file struct {
	Sources []news.SourceConfig `yaml:"sources"`
}

// Defaults returns a copy of the built-in source table.
func Defaults() []news.SourceConfig {
	return slices.Clone(defaultSources)
}

// Load returns the built-in table when path is empty, otherwise the sources
// listed in the YAML file at path. The returned table is validated.
func Load(path string) ([]news.SourceConfig, error) {
	if path == "" {
		sources := Defaults()
		slog.Debug("Using built-in source table", "count", len(sources))
		return sources, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	sources, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid source table %s: %w", path, err)
	}

	slog.Debug("Source table loaded", "path", path, "count", len(sources))
	return sources, nil
}

func Parse(data []byte) ([]news.SourceConfig, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := Validate(f.Sources); err != nil {
		return nil, err
	}

	return f.Sources, nil
}

func Validate(sources []news.SourceConfig) error {
	if len(sources) == 0 {
		return fmt.Errorf("at least one source is required")
	}

	names := make(map[string]bool, len(sources))
	for i, src := range sources {
		if src.Name == "" {
			return fmt.Errorf("source at index %d: name is required", i)
		}
		if names[src.Name] {
			return fmt.Errorf("source %q: duplicate name", src.Name)
		}
		names[src.Name] = true

		if src.URL == "" {
			return fmt.Errorf("source %q: url is required", src.Name)
		}
		u, err := url.Parse(src.URL)
		if err != nil {
			return fmt.Errorf("source %q: invalid url: %w", src.Name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("source %q: url scheme must be http or https", src.Name)
		}

		if !src.Kind.Valid() {
			return fmt.Errorf("source %q: invalid kind %q", src.Name, src.Kind)
		}
		if src.Timeout < 0 {
			return fmt.Errorf("source %q: timeout must be non-negative", src.Name)
		}
	}

	return nil
}
