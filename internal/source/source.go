// Package source contains the external feed adapters. Each adapter
// normalizes a source-specific payload into canonical Items; the ingestion
// pipeline never sees raw API responses.
package source

import (
	"context"
	"fmt"

	"github.com/napphq/napp/pkg/types"
)

// Source loads normalized items from one external news feed. Implementations
// deduplicate by natural key within a single fetch; merging across sources is
// the caller's job (MergeByNaturalKey).
type Source interface {
	Name() string
	LoadItems(ctx context.Context) ([]types.Item, error)
}

// Trend is one social trend: an authoritative, pre-clustered label plus the
// popular posts currently attached to it.
type Trend struct {
	// Name is the display label (e.g. "#Budget2020").
	Name string

	// Query is the source-native search query for the trend.
	Query string

	// Items are the popular posts for the trend, normalized.
	Items []types.Item
}

// TrendSource loads the current regional trends with their posts.
type TrendSource interface {
	Name() string
	LoadTrends(ctx context.Context) ([]Trend, error)
}

// Config selects and parameterizes one source variant. The set of variants
// is closed; sources are chosen by configuration, not plugin registration.
type Config struct {
	// Type is one of "newsapi", "rss", "file".
	Type string `yaml:"type"`

	// Country is the region to fetch headlines for (newsapi).
	Country string `yaml:"country,omitempty"`

	// APIKey authenticates against the upstream API (newsapi).
	APIKey string `yaml:"api_key,omitempty"`

	// BaseURL overrides the upstream endpoint, mainly for tests (newsapi).
	BaseURL string `yaml:"base_url,omitempty"`

	// Feeds lists RSS/Atom feed URLs (rss).
	Feeds []string `yaml:"feeds,omitempty"`

	// Path points to a recorded API response to replay (file).
	Path string `yaml:"path,omitempty"`
}

// NewFromConfig builds the source variant named by the config.
func NewFromConfig(c Config) (Source, error) {
	switch c.Type {
	case "newsapi":
		return NewNewsAPISource(NewsAPIConfig{
			APIKey:  c.APIKey,
			Country: c.Country,
			BaseURL: c.BaseURL,
		}), nil
	case "rss":
		return NewRSSSource(c.Feeds, c.Country), nil
	case "file":
		return NewFileSource(c.Path), nil
	default:
		return nil, fmt.Errorf("source: unknown source type %q", c.Type)
	}
}

// MergeByNaturalKey merges items from several sources, keeping the last item
// seen for each natural key (multiple sources may report the same URL).
// Order of first appearance is preserved.
func MergeByNaturalKey(batches ...[]types.Item) []types.Item {
	index := make(map[string]int)
	merged := make([]types.Item, 0)
	for _, batch := range batches {
		for _, item := range batch {
			if item.NaturalKey == "" {
				continue
			}
			if i, ok := index[item.NaturalKey]; ok {
				merged[i] = item
				continue
			}
			index[item.NaturalKey] = len(merged)
			merged = append(merged, item)
		}
	}
	return merged
}
