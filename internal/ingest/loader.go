package ingest

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/napphq/napp/internal/correlator"
	"github.com/napphq/napp/internal/metrics"
	"github.com/napphq/napp/internal/source"
	"github.com/napphq/napp/internal/storage"
	"github.com/napphq/napp/pkg/types"
)

// Loader drives the periodic ingestion cycles. Each flow (news, trends) runs
// its own loop on its own interval; both share the pipeline and the store but
// never a window — each cycle reloads its window from storage so concurrent
// flows converge through persisted state rather than shared memory.
type Loader struct {
	store     storage.Store
	pipeline  *Pipeline
	sources   []source.Source
	trends    source.TrendSource
	retention time.Duration
}

// LoaderConfig carries the loader's collaborators and tuning.
type LoaderConfig struct {
	Store    storage.Store
	Pipeline *Pipeline

	// Sources are the news feeds polled by RunNews. Empty disables the flow.
	Sources []source.Source

	// Trends is the social trend source polled by RunTrends. Nil disables
	// the flow.
	Trends source.TrendSource

	// Retention bounds the active window; events older than this no longer
	// attract matches. Zero means correlator.DefaultRetention.
	Retention time.Duration
}

// NewLoader builds a loader from its config.
func NewLoader(cfg LoaderConfig) *Loader {
	retention := cfg.Retention
	if retention <= 0 {
		retention = correlator.DefaultRetention
	}
	return &Loader{
		store:     cfg.Store,
		pipeline:  cfg.Pipeline,
		sources:   cfg.Sources,
		trends:    cfg.Trends,
		retention: retention,
	}
}

// RunNews polls the news sources every interval until ctx is cancelled. The
// first cycle runs immediately. Cycle failures are logged and counted; the
// loop never stops on them.
func (l *Loader) RunNews(ctx context.Context, interval time.Duration) {
	if len(l.sources) == 0 {
		log.Printf("loader: no news sources configured, news flow disabled")
		return
	}
	l.runEvery(ctx, "news", interval, l.newsCycle)
}

// RunTrends polls the trend source every interval until ctx is cancelled.
func (l *Loader) RunTrends(ctx context.Context, interval time.Duration) {
	if l.trends == nil {
		log.Printf("loader: no trend source configured, trend flow disabled")
		return
	}
	l.runEvery(ctx, "trends", interval, l.trendCycle)
}

// NewsCycleOnce runs a single news cycle, for one-shot invocations.
func (l *Loader) NewsCycleOnce(ctx context.Context) error {
	return l.newsCycle(ctx)
}

// TrendCycleOnce runs a single trend cycle, for one-shot invocations.
func (l *Loader) TrendCycleOnce(ctx context.Context) error {
	return l.trendCycle(ctx)
}

func (l *Loader) runEvery(ctx context.Context, flow string, interval time.Duration, cycle func(context.Context) error) {
	run := func() {
		start := time.Now()
		metrics.CyclesTotal.WithLabelValues(flow).Inc()
		if err := cycle(ctx); err != nil {
			metrics.CycleErrorsTotal.WithLabelValues(flow).Inc()
			log.Printf("loader: %s cycle failed: %v", flow, err)
		}
		metrics.CycleDuration.WithLabelValues(flow).Observe(time.Since(start).Seconds())
	}

	run()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Printf("loader: %s flow stopping: %v", flow, ctx.Err())
			return
		case <-ticker.C:
			run()
		}
	}
}

// newsCycle fetches all configured news sources, merges their items by
// natural key, and runs each through the pipeline against a freshly loaded
// window. A source that fails to fetch contributes nothing to this cycle.
func (l *Loader) newsCycle(ctx context.Context) error {
	cycleID := uuid.NewString()

	batches := make([][]types.Item, 0, len(l.sources))
	for _, src := range l.sources {
		items, err := src.LoadItems(ctx)
		if err != nil {
			// Transient upstream failure: skip this source for the cycle.
			log.Printf("loader: cycle %s: source %s failed: %v", cycleID, src.Name(), err)
			continue
		}
		log.Printf("loader: cycle %s: source %s returned %d items", cycleID, src.Name(), len(items))
		batches = append(batches, items)
	}
	merged := source.MergeByNaturalKey(batches...)

	window, err := correlator.LoadWindow(ctx, l.store, l.retention)
	if err != nil {
		return err
	}

	var stored, dropped, failed int
	for _, item := range merged {
		if err := ctx.Err(); err != nil {
			return err
		}
		wasDup, err := l.pipeline.ProcessItem(ctx, window, item, correlator.FlowArticle)
		if err != nil {
			log.Printf("loader: cycle %s: item %q failed: %v", cycleID, item.NaturalKey, err)
			metrics.ItemFailures.WithLabelValues(string(correlator.FlowArticle)).Inc()
			failed++
			continue
		}
		if wasDup {
			dropped++
			continue
		}
		stored++
	}

	log.Printf("loader: cycle %s: news done, %d stored, %d duplicate, %d failed, window %d events",
		cycleID, stored, dropped, failed, window.Len())
	return nil
}

// trendCycle fetches the current trends and runs each through the pipeline
// against a freshly loaded window.
func (l *Loader) trendCycle(ctx context.Context) error {
	cycleID := uuid.NewString()

	trends, err := l.trends.LoadTrends(ctx)
	if err != nil {
		return err
	}
	log.Printf("loader: cycle %s: source %s returned %d trends", cycleID, l.trends.Name(), len(trends))

	window, err := correlator.LoadWindow(ctx, l.store, l.retention)
	if err != nil {
		return err
	}

	var failed int
	for _, trend := range trends {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch := TrendBatch{Name: trend.Name, Items: trend.Items}
		if err := l.pipeline.ProcessTrend(ctx, window, batch); err != nil {
			log.Printf("loader: cycle %s: trend %q failed: %v", cycleID, trend.Name, err)
			failed++
		}
	}

	log.Printf("loader: cycle %s: trends done, %d processed, %d failed, window %d events",
		cycleID, len(trends)-failed, failed, window.Len())
	return nil
}
