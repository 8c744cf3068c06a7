package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/napphq/napp/internal/config"
	"github.com/napphq/napp/internal/correlator"
	"github.com/napphq/napp/internal/ingest"
	"github.com/napphq/napp/internal/metrics"
	"github.com/napphq/napp/internal/nlp"
	"github.com/napphq/napp/internal/notify"
	"github.com/napphq/napp/internal/source"
	"github.com/napphq/napp/internal/storage"
	"github.com/napphq/napp/internal/storage/postgres"
	"github.com/napphq/napp/internal/storage/sqlite"
	"github.com/napphq/napp/pkg/types"
)

func main() {
	sourcesPath := flag.String("sources", "config/sources.yaml", "Path to the YAML source catalog")
	once := flag.Bool("once", false, "Run one cycle of each configured flow and exit")
	metricsAddr := flag.String("metrics-addr", "127.0.0.1:9091", "Address for the Prometheus metrics endpoint (empty disables)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	catalog, err := config.LoadSources(*sourcesPath)
	if err != nil {
		log.Fatalf("Failed to load source catalog: %v", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := store.SeedCategories(ctx, types.DefaultCategories()); err != nil {
		log.Fatalf("Failed to seed categories: %v", err)
	}

	classifier, extractor := buildNLP(cfg)

	corr := correlator.New(correlator.Config{
		ArticleMinOverlap: cfg.Ingest.ArticleMinOverlap,
		TrendMinOverlap:   cfg.Ingest.TrendMinOverlap,
	})

	// Correlation events are announced through the shared events directory;
	// napp-web picks them up and broadcasts to websocket clients.
	notifier := notify.NewEventWriter(cfg.Storage.DataPath)

	pipeline := ingest.NewPipeline(store, classifier, extractor, corr, notifier)

	var sources []source.Source
	for _, sc := range catalog.Sources {
		src, err := source.NewFromConfig(sc)
		if err != nil {
			log.Fatalf("Failed to build source: %v", err)
		}
		sources = append(sources, src)
	}

	var trendSource source.TrendSource
	if catalog.Trends.BaseURL != "" {
		trendSource = source.NewTrendAPISource(catalog.Trends)
	}

	loader := ingest.NewLoader(ingest.LoaderConfig{
		Store:     store,
		Pipeline:  pipeline,
		Sources:   sources,
		Trends:    trendSource,
		Retention: cfg.Ingest.Retention,
	})

	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr)
	}

	if *once {
		if err := loader.NewsCycleOnce(ctx); err != nil {
			log.Printf("News cycle failed: %v", err)
		}
		if trendSource != nil {
			if err := loader.TrendCycleOnce(ctx); err != nil {
				log.Printf("Trend cycle failed: %v", err)
			}
		}
		return
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		loader.RunNews(ctx, cfg.Ingest.NewsInterval)
	}()
	go func() {
		defer wg.Done()
		loader.RunTrends(ctx, cfg.Ingest.TrendInterval)
	}()

	log.Printf("Loader running: %d news sources, trends=%v", len(sources), trendSource != nil)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")
	cancel()
	wg.Wait()
}

// openStore builds the configured storage backend.
func openStore(cfg *config.Config) (storage.Store, error) {
	if cfg.Storage.StorageEngine == "postgres" {
		return postgres.New(cfg.Storage.PostgresDSN)
	}
	return sqlite.New(cfg.Storage.DataPath + "/napp.db")
}

// buildNLP picks the sidecar collaborators when one is configured and the
// built-in term classifier and headline extractor otherwise.
func buildNLP(cfg *config.Config) (nlp.CategoryClassifier, nlp.KeywordExtractor) {
	if cfg.NLP.ServiceURL != "" {
		client := nlp.NewServiceClient(nlp.ServiceConfig{
			BaseURL:        cfg.NLP.ServiceURL,
			Timeout:        cfg.NLP.RequestTimeout,
			RequestsPerSec: float64(cfg.NLP.RequestsPerSec),
		})
		return client, client
	}
	return nlp.NewTermClassifier(nlp.DefaultTerms(), types.CategoryBusiness), nlp.HeadlineExtractor{}
}

// serveMetrics exposes the Prometheus registry on its own listener so the
// loader can run without the web process.
func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	log.Printf("Metrics listening on http://%s/metrics", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("Metrics server error: %v", err)
	}
}
