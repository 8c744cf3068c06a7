package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/napphq/napp/internal/correlator"
	"github.com/napphq/napp/internal/source"
	"github.com/napphq/napp/internal/storage"
	"github.com/napphq/napp/pkg/types"
)

type staticSource struct {
	name  string
	items []types.Item
	err   error
}

func (s staticSource) Name() string { return s.name }

func (s staticSource) LoadItems(ctx context.Context) ([]types.Item, error) {
	return s.items, s.err
}

type staticTrendSource struct {
	trends []source.Trend
	err    error
}

func (s staticTrendSource) Name() string { return "static" }

func (s staticTrendSource) LoadTrends(ctx context.Context) ([]source.Trend, error) {
	return s.trends, s.err
}

func TestNewsCycleOnce(t *testing.T) {
	store := newTestStore(t)
	extractor := stubExtractor{keywords: map[string]types.KeywordSet{
		"Storm batters the coast":       types.NewKeywordSet("storm", "coast", "flooding"),
		"Coastal storm flooding rescue": types.NewKeywordSet("storm", "coast", "flooding", "rescue"),
	}}
	p := NewPipeline(store, stubClassifier{}, extractor, correlator.New(correlator.Config{}), nil)

	loader := NewLoader(LoaderConfig{
		Store:    store,
		Pipeline: p,
		Sources: []source.Source{
			staticSource{name: "a", items: []types.Item{
				article("https://example.com/a", "Storm batters the coast"),
			}},
			staticSource{name: "b", items: []types.Item{
				article("https://example.com/b", "Coastal storm flooding rescue"),
				// Also reported by source a; merged before processing.
				article("https://example.com/a", "Storm batters the coast"),
			}},
			staticSource{name: "broken", err: errors.New("upstream down")},
		},
	})

	ctx := context.Background()
	require.NoError(t, loader.NewsCycleOnce(ctx))

	items, err := store.ListItems(ctx, storage.ListOptions{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, items, 2, "the failing source is skipped, the overlap merged")

	events, err := store.ListEvents(ctx, storage.ListOptions{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, events, 1, "related items from different sources share one event")
}

func TestNewsCycleOnce_SecondRunIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	extractor := stubExtractor{keywords: map[string]types.KeywordSet{
		"Storm batters the coast": types.NewKeywordSet("storm", "coast", "flooding"),
	}}
	p := NewPipeline(store, stubClassifier{}, extractor, correlator.New(correlator.Config{}), nil)

	loader := NewLoader(LoaderConfig{
		Store:    store,
		Pipeline: p,
		Sources: []source.Source{staticSource{name: "a", items: []types.Item{
			article("https://example.com/a", "Storm batters the coast"),
		}}},
	})

	ctx := context.Background()
	require.NoError(t, loader.NewsCycleOnce(ctx))
	require.NoError(t, loader.NewsCycleOnce(ctx))

	items, err := store.ListItems(ctx, storage.ListOptions{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, items, 1)

	events, err := store.ListEvents(ctx, storage.ListOptions{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestTrendCycleOnce(t *testing.T) {
	store := newTestStore(t)
	extractor := stubExtractor{keywords: map[string]types.KeywordSet{
		"storm hits the coast hard": types.NewKeywordSet("storm", "coast"),
	}}
	p := NewPipeline(store, stubClassifier{}, extractor, correlator.New(correlator.Config{}), nil)

	loader := NewLoader(LoaderConfig{
		Store:    store,
		Pipeline: p,
		Trends: staticTrendSource{trends: []source.Trend{
			{Name: "#StormZeta", Items: []types.Item{post("tw:1", "storm hits the coast hard")}},
		}},
	})

	ctx := context.Background()
	require.NoError(t, loader.TrendCycleOnce(ctx))

	events, err := store.ListEvents(ctx, storage.ListOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "#StormZeta", events[0].Name)
}

func TestTrendCycleOnce_ListingFailure(t *testing.T) {
	store := newTestStore(t)
	p := NewPipeline(store, stubClassifier{}, stubExtractor{}, correlator.New(correlator.Config{}), nil)

	loader := NewLoader(LoaderConfig{
		Store:    store,
		Pipeline: p,
		Trends:   staticTrendSource{err: errors.New("gateway down")},
	})

	assert.Error(t, loader.TrendCycleOnce(context.Background()))
}

func TestNewsCycleOnce_CancelledContext(t *testing.T) {
	store := newTestStore(t)
	p := NewPipeline(store, stubClassifier{}, stubExtractor{}, correlator.New(correlator.Config{}), nil)

	loader := NewLoader(LoaderConfig{
		Store:    store,
		Pipeline: p,
		Sources: []source.Source{staticSource{name: "a", items: []types.Item{
			article("https://example.com/a", "Storm batters the coast"),
		}}},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, loader.NewsCycleOnce(ctx))
}
