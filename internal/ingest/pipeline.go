package ingest

import (
	"context"
	"fmt"
	"log"

	"github.com/napphq/napp/internal/correlator"
	"github.com/napphq/napp/internal/metrics"
	"github.com/napphq/napp/internal/nlp"
	"github.com/napphq/napp/internal/storage"
	"github.com/napphq/napp/pkg/types"
)

// Notifier receives event lifecycle notifications produced by ingestion.
// The web layer's websocket hub implements it; a nil notifier disables
// notification.
type Notifier interface {
	EventCreated(ev types.Event)
	EventUpdated(ev types.Event)
}

// Pipeline processes one item at a time: Dedup → Classify → Extract →
// Correlate → Persist. Items within a cycle are strictly sequential because
// each successful correlation mutates the window the next item is matched
// against.
type Pipeline struct {
	store      storage.Store
	gate       *DedupGate
	classifier nlp.CategoryClassifier
	extractor  nlp.KeywordExtractor
	corr       *correlator.Correlator
	notifier   Notifier
}

// NewPipeline wires a pipeline. The classifier and extractor are long-lived
// handles injected once; model loading is expensive and must be amortized
// across cycles. notifier may be nil.
func NewPipeline(store storage.Store, classifier nlp.CategoryClassifier, extractor nlp.KeywordExtractor, corr *correlator.Correlator, notifier Notifier) *Pipeline {
	return &Pipeline{
		store:      store,
		gate:       NewDedupGate(store),
		classifier: classifier,
		extractor:  extractor,
		corr:       corr,
		notifier:   notifier,
	}
}

// ProcessItem runs one item through the pipeline against the given window.
// Duplicates are dropped silently (dropped=true). On success the window is
// updated in place so the next item in the cycle sees the result.
//
// Failures are per-item: an error return must not stop the caller's cycle,
// and the window is only mutated after persistence succeeded, so a failed
// item cannot corrupt it.
func (p *Pipeline) ProcessItem(ctx context.Context, w *correlator.Window, item types.Item, flow correlator.Flow) (dropped bool, err error) {
	dup, err := p.gate.IsDuplicate(ctx, item.NaturalKey)
	if err != nil {
		return false, fmt.Errorf("ingest: dedup probe for %q failed: %w", item.NaturalKey, err)
	}
	if dup {
		metrics.ItemsDuplicate.WithLabelValues(string(flow)).Inc()
		return true, nil
	}

	p.classify(ctx, &item)

	keywords := p.extract(ctx, item.Headline)

	decision := p.corr.Correlate(w, keywords, correlator.Options{
		Flow:         flow,
		FallbackText: item.Headline,
	})

	stored, err := p.persistDecision(ctx, w, decision, flow)
	if err != nil {
		return false, err
	}

	item.EventID = &stored.ID
	if _, err := p.store.SaveItem(ctx, &item); err != nil {
		return false, fmt.Errorf("ingest: failed to save item %q: %w", item.NaturalKey, err)
	}
	metrics.ItemsIngested.WithLabelValues(string(flow)).Inc()
	return false, nil
}

// ProcessTrend runs one social trend through the pipeline: the trend's posts
// contribute a combined keyword set, the trend correlates once (exact name
// match first), and every non-duplicate post is stored against the resulting
// event.
func (p *Pipeline) ProcessTrend(ctx context.Context, w *correlator.Window, trend TrendBatch) error {
	fresh := make([]types.Item, 0, len(trend.Items))
	combined := types.KeywordSet{}
	for _, item := range trend.Items {
		dup, err := p.gate.IsDuplicate(ctx, item.NaturalKey)
		if err != nil {
			return fmt.Errorf("ingest: dedup probe for %q failed: %w", item.NaturalKey, err)
		}
		if dup {
			metrics.ItemsDuplicate.WithLabelValues(string(correlator.FlowTrend)).Inc()
			continue
		}
		p.classify(ctx, &item)
		combined = combined.Union(p.extract(ctx, item.Headline))
		fresh = append(fresh, item)
	}

	decision := p.corr.Correlate(w, combined, correlator.Options{
		Flow:         correlator.FlowTrend,
		TrendName:    trend.Name,
		FallbackText: trend.Name,
	})

	stored, err := p.persistDecision(ctx, w, decision, correlator.FlowTrend)
	if err != nil {
		return err
	}

	for _, item := range fresh {
		item.EventID = &stored.ID
		if _, err := p.store.SaveItem(ctx, &item); err != nil {
			// Per-item failure domain: keep storing the remaining posts.
			log.Printf("ingest: failed to save post %q: %v", item.NaturalKey, err)
			metrics.ItemFailures.WithLabelValues(string(correlator.FlowTrend)).Inc()
			continue
		}
		metrics.ItemsIngested.WithLabelValues(string(correlator.FlowTrend)).Inc()
	}
	return nil
}

// TrendBatch is one trend with its already-normalized posts.
type TrendBatch struct {
	Name  string
	Items []types.Item
}

// classify assigns a category id, leaving the item unclassified when the
// collaborator fails — a missing category is tolerable, a dropped item is
// not.
func (p *Pipeline) classify(ctx context.Context, item *types.Item) {
	id, err := p.classifier.Classify(ctx, item.Headline)
	if err != nil {
		log.Printf("ingest: classify %q failed: %v", item.NaturalKey, err)
		return
	}
	item.CategoryID = &id
}

// extract derives the keyword set, falling back to naive tokenization when
// the extractor fails or returns nothing. The pipeline never hands the
// correlator an empty set for non-blank text.
func (p *Pipeline) extract(ctx context.Context, text string) types.KeywordSet {
	keywords, err := p.extractor.Extract(ctx, text)
	if err != nil {
		log.Printf("ingest: extract failed, using fallback tokens: %v", err)
		return nlp.FallbackTokens(text)
	}
	if keywords.Len() == 0 {
		return nlp.FallbackTokens(text)
	}
	return keywords
}

// persistDecision saves the correlation result when it changed anything and
// replaces the window entry, returning the stored event with a valid id.
func (p *Pipeline) persistDecision(ctx context.Context, w *correlator.Window, decision correlator.Decision, flow correlator.Flow) (*types.Event, error) {
	if !decision.Updated {
		// Matched with nothing new to write; the window entry already has
		// a valid id.
		ev := decision.Event
		return &ev, nil
	}

	stored, err := p.store.SaveEvent(ctx, &decision.Event)
	if err != nil {
		metrics.ItemFailures.WithLabelValues(string(flow)).Inc()
		return nil, fmt.Errorf("ingest: failed to save event %q: %w", decision.Event.Name, err)
	}
	w.Upsert(*stored)

	if decision.Created {
		metrics.EventsCreated.WithLabelValues(string(flow)).Inc()
		if p.notifier != nil {
			p.notifier.EventCreated(*stored)
		}
	} else {
		metrics.EventsMatched.WithLabelValues(string(flow)).Inc()
		if p.notifier != nil {
			p.notifier.EventUpdated(*stored)
		}
	}
	return stored, nil
}
