// Package correlator implements the event correlation engine: given an
// item's keyword set and the active window, it decides whether the item
// joins an existing event or founds a new one. Correlation is pure
// computation over in-memory sets — it cannot fail and it never writes;
// the caller persists the decision.
package correlator

import (
	"strings"

	"github.com/napphq/napp/pkg/types"
)

// Flow selects the matching thresholds and naming rules. Trend flows use a
// higher overlap bar because trend keyword sets are aggregated from many
// posts and noisier than a single article's.
type Flow string

const (
	// FlowArticle is the news-article ingestion flow.
	FlowArticle Flow = "article"

	// FlowTrend is the social-trend ingestion flow.
	FlowTrend Flow = "trend"
)

// Config holds the tunable correlation parameters. The zero value gets the
// defaults applied by New.
type Config struct {
	// ArticleMinOverlap is the minimum keyword intersection for an article
	// to join an existing event (default 3).
	ArticleMinOverlap int

	// TrendMinOverlap is the minimum keyword intersection for a trend to
	// join an existing event (default 5).
	TrendMinOverlap int

	// ArticleNameKeywords caps how many keywords seed a new event's name
	// in the article flow (default 5).
	ArticleNameKeywords int

	// TrendNameKeywords caps how many keywords seed a new event's name in
	// the trend flow when no trend name is available (default 10).
	TrendNameKeywords int

	// NameAugmentLimit caps how many newly seen keywords are appended to
	// an event's name on an article-flow match (default 3).
	NameAugmentLimit int
}

func (c *Config) applyDefaults() {
	if c.ArticleMinOverlap <= 0 {
		c.ArticleMinOverlap = 3
	}
	if c.TrendMinOverlap <= 0 {
		c.TrendMinOverlap = 5
	}
	if c.ArticleNameKeywords <= 0 {
		c.ArticleNameKeywords = 5
	}
	if c.TrendNameKeywords <= 0 {
		c.TrendNameKeywords = 10
	}
	if c.NameAugmentLimit <= 0 {
		c.NameAugmentLimit = 3
	}
}

// Options carries the per-item correlation inputs beyond the keyword set.
type Options struct {
	// Flow selects thresholds and naming behavior.
	Flow Flow

	// TrendName is the source-provided trend label, present only for
	// trend-driven ingestion. A trend label is an authoritative,
	// pre-clustered hint: an exact name match short-circuits fuzzy
	// keyword matching.
	TrendName string

	// FallbackText is tokenized as a last resort when the keyword set is
	// empty, so correlation always terminates with an event.
	FallbackText string
}

// Decision is the correlator's output: the event value the caller should
// persist, and what happened to it. The window is not touched; after
// persisting, the caller applies the decision with Window.Upsert.
type Decision struct {
	// Event is the matched-and-updated or freshly created event value.
	Event types.Event

	// Keywords is the item's effective keyword set after fallback
	// tokenization, for callers that log or persist it.
	Keywords types.KeywordSet

	// Created is true when no window event matched and Event is new.
	Created bool

	// Updated is true when a matched event's keywords or name changed and
	// it needs re-persisting. Always true when Created is true.
	Updated bool

	// Overlap is the winning similarity score (0 for exact-name matches
	// and creations).
	Overlap int
}

// Correlator matches keyword sets against the active window. Safe for reuse
// across cycles; it holds no per-cycle state.
type Correlator struct {
	cfg Config
}

// New creates a Correlator, applying defaults for unset config fields.
func New(cfg Config) *Correlator {
	cfg.applyDefaults()
	return &Correlator{cfg: cfg}
}

// Correlate decides which event the given keyword set belongs to.
//
// Matching policy, first match wins:
//  1. exact trend-name match (trend flow only);
//  2. largest keyword overlap at or above the flow's threshold, ties
//     keeping the first event in window order;
//  3. no match: a new event is synthesized.
//
// On a match the event's keyword set becomes the union with the item's.
// The article flow also appends up to NameAugmentLimit previously unseen
// keywords to the event name so names keep evolving as more distinguishing
// terms appear; the trend flow never renames on a keyword match to avoid
// runaway name growth from high-volume polling.
func (c *Correlator) Correlate(w *Window, keywords types.KeywordSet, opts Options) Decision {
	if keywords.Len() == 0 {
		// Degenerate extraction result: fall back to naive tokenization
		// so an event can still be formed.
		keywords = types.NewKeywordSet(strings.Fields(opts.FallbackText)...)
	}

	if opts.TrendName != "" {
		if ev, ok := findByName(w, opts.TrendName); ok {
			return c.update(ev, keywords, opts.Flow)
		}
	}

	if ev, overlap, ok := c.bestOverlap(w, keywords, opts.Flow); ok {
		d := c.update(ev, keywords, opts.Flow)
		d.Overlap = overlap
		return d
	}

	return c.create(keywords, opts)
}

// findByName scans the window for an exact name match.
func findByName(w *Window, name string) (types.Event, bool) {
	for _, ev := range w.Events() {
		if ev.Name == name {
			return ev, true
		}
	}
	return types.Event{}, false
}

// bestOverlap returns the window event with the strictly largest keyword
// overlap, provided that overlap meets the flow's threshold. Equal scores
// keep the first event encountered in window order — a deliberate
// simplicity tradeoff, pinned by tests.
func (c *Correlator) bestOverlap(w *Window, keywords types.KeywordSet, flow Flow) (types.Event, int, bool) {
	min := c.cfg.ArticleMinOverlap
	if flow == FlowTrend {
		min = c.cfg.TrendMinOverlap
	}

	bestIdx := -1
	bestScore := 0
	for i, ev := range w.Events() {
		if score := ev.Keywords.Overlap(keywords); score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	if bestIdx < 0 || bestScore < min {
		return types.Event{}, 0, false
	}
	return w.Events()[bestIdx], bestScore, true
}

// update computes the matched event's next value: keyword union, plus name
// augmentation for the article flow. The input event is not mutated.
func (c *Correlator) update(ev types.Event, keywords types.KeywordSet, flow Flow) Decision {
	fresh := ev.Keywords.Diff(keywords)
	next := ev
	next.Keywords = ev.Keywords.Union(keywords)

	updated := len(fresh) > 0
	if updated && flow == FlowArticle {
		limit := c.cfg.NameAugmentLimit
		if len(fresh) < limit {
			limit = len(fresh)
		}
		next.Name = ev.Name + " " + strings.Join(fresh[:limit], " ")
	}

	return Decision{
		Event:    next,
		Keywords: keywords,
		Updated:  updated,
	}
}

// create synthesizes a new event for a keyword set nothing matched.
func (c *Correlator) create(keywords types.KeywordSet, opts Options) Decision {
	name := opts.TrendName
	if name == "" {
		limit := c.cfg.ArticleNameKeywords
		if opts.Flow == FlowTrend {
			limit = c.cfg.TrendNameKeywords
		}
		sorted := keywords.Sorted()
		if len(sorted) > limit {
			sorted = sorted[:limit]
		}
		name = strings.Join(sorted, " ")
	}

	return Decision{
		Event: types.Event{
			Name:     name,
			Keywords: keywords,
		},
		Keywords: keywords,
		Created:  true,
		Updated:  true,
	}
}
