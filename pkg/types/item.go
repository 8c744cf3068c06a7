package types

import "time"

// ItemKind distinguishes the two ingested payload shapes.
type ItemKind string

const (
	// KindArticle is a news article; its natural key is the article URL.
	KindArticle ItemKind = "article"

	// KindPost is a social-media post; its natural key is the source-native id.
	KindPost ItemKind = "post"
)

// Item is the canonical record for a single ingested news article or social
// post. Source adapters normalize their payloads into this shape before the
// pipeline sees them.
//
// Identity is the natural key: the URL for articles, the source-native id for
// posts. The natural key is unique in storage; re-ingesting the same key
// updates the stored row instead of creating a duplicate.
type Item struct {
	// ID is the surrogate id assigned on first persistence (0 until then).
	ID int64 `json:"id"`

	// Kind is article or post.
	Kind ItemKind `json:"kind"`

	// NaturalKey is the source-stable identifier used for deduplication.
	NaturalKey string `json:"natural_key"`

	// Headline is the article title or post text.
	Headline string `json:"headline"`

	// Text is the body content, when the source provides one.
	Text string `json:"text,omitempty"`

	// Source is the human-readable source label (e.g. "BBC News").
	Source string `json:"source"`

	// CountryCode is the region the item was fetched for (e.g. "gb").
	CountryCode string `json:"country_code,omitempty"`

	// ImageURL is the lead image, when the source provides one.
	ImageURL string `json:"image_url,omitempty"`

	// Author is the post author's handle (posts only).
	Author string `json:"author,omitempty"`

	// Hashtags is a comma-joined hashtag list (posts only).
	Hashtags string `json:"hashtags,omitempty"`

	// CategoryID is nil until the classifier has assigned a category.
	CategoryID *int64 `json:"category_id,omitempty"`

	// EventID is nil until the correlator has assigned an event.
	EventID *int64 `json:"event_id,omitempty"`

	// PublishedAt is the source-reported publish (or scrape) time.
	PublishedAt time.Time `json:"published_at"`

	// CreatedAt is when the row was first stored.
	CreatedAt time.Time `json:"created_at"`
}
