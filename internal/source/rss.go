package source

import (
	"context"
	"fmt"
	"log"

	"github.com/mmcdole/gofeed"

	"github.com/napphq/napp/pkg/types"
)

// RSSSource fetches articles from a list of RSS/Atom feeds. Items are keyed
// by link URL, falling back to the feed GUID when a link is missing.
type RSSSource struct {
	feeds   []string
	country string
	parser  *gofeed.Parser
}

// NewRSSSource creates an RSS source for the given feed URLs.
func NewRSSSource(feeds []string, country string) *RSSSource {
	return &RSSSource{
		feeds:   feeds,
		country: country,
		parser:  gofeed.NewParser(),
	}
}

// Name identifies the source in logs and metrics.
func (s *RSSSource) Name() string { return "rss" }

// LoadItems fetches and parses every configured feed. A single failing feed
// is logged and skipped; the fetch only fails when every feed fails.
func (s *RSSSource) LoadItems(ctx context.Context) ([]types.Item, error) {
	var batches [][]types.Item
	var lastErr error

	for _, feedURL := range s.feeds {
		feed, err := s.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			log.Printf("rss: failed to fetch %s: %v", feedURL, err)
			lastErr = err
			continue
		}
		batches = append(batches, s.convert(feed))
	}

	if len(batches) == 0 && lastErr != nil {
		return nil, fmt.Errorf("rss: all feeds failed: %w", lastErr)
	}
	return MergeByNaturalKey(batches...), nil
}

// convert normalizes one parsed feed into Items.
func (s *RSSSource) convert(feed *gofeed.Feed) []types.Item {
	items := make([]types.Item, 0, len(feed.Items))
	for _, entry := range feed.Items {
		key := entry.Link
		if key == "" {
			key = entry.GUID
		}
		if key == "" || entry.Title == "" {
			continue
		}

		text := entry.Content
		if text == "" {
			text = entry.Description
		}

		item := types.Item{
			Kind:        types.KindArticle,
			NaturalKey:  key,
			Headline:    entry.Title,
			Text:        text,
			Source:      feed.Title,
			CountryCode: s.country,
		}
		if entry.Image != nil {
			item.ImageURL = entry.Image.URL
		}
		if entry.PublishedParsed != nil {
			item.PublishedAt = *entry.PublishedParsed
		} else if entry.UpdatedParsed != nil {
			item.PublishedAt = *entry.UpdatedParsed
		}
		items = append(items, item)
	}
	return items
}
