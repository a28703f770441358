package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"rss-ingest/pkg/config"
	"rss-ingest/pkg/content"
	"rss-ingest/pkg/dedup"
	"rss-ingest/pkg/fetcher"
	"rss-ingest/pkg/httpclient"
	"rss-ingest/pkg/parser"
	"rss-ingest/pkg/pipeline"
	"rss-ingest/pkg/store"
	"rss-ingest/pkg/writer"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Printf("rss-ingest: %v", err)
		os.Exit(1)
	}

	ctx := context.Background()

	st, err := openStore(ctx, cfg)
	if err != nil {
		log.Printf("rss-ingest: open %s store: %v", cfg.StoreBackend, err)
		os.Exit(1)
	}
	defer st.Close(ctx)

	summary, err := buildPipeline(cfg, st).Run(ctx)
	if err != nil {
		var runErr *pipeline.RunError
		if errors.As(err, &runErr) {
			log.Printf("rss-ingest: run aborted at %s stage: %v", runErr.Stage, runErr.Err)
		} else {
			log.Printf("rss-ingest: run aborted: %v", err)
		}
		os.Exit(1)
	}

	for _, failure := range summary.Failures {
		log.Printf("rss-ingest: failed entry %s: %v", failure.Link, failure.Cause)
	}
	log.Printf("rss-ingest: done: fetched=%d new=%d inserted=%d failed=%d",
		summary.Fetched, summary.New, summary.Inserted, summary.Failed)
}

func buildPipeline(cfg *config.Config, st store.Store) *pipeline.Pipeline {
	feedClient := httpclient.New(httpclient.FeedProfile, cfg.HTTPTimeout)

	var enricher pipeline.Enricher
	if cfg.ExtractContent {
		pageClient := httpclient.New(httpclient.BrowserProfile, cfg.HTTPTimeout)
		enricher = content.NewEnricher(pageClient)
	}

	return pipeline.New(
		fetcher.New(feedClient, cfg.FetchRetries, cfg.FetchBackoff),
		parser.New(),
		dedup.New(st, cfg.FetchRetries, cfg.FetchBackoff),
		writer.New(st, cfg.WriterWorkers),
		enricher,
		cfg.FeedURL,
	)
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendSupabase:
		return store.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseKey, cfg.Table)
	case config.BackendPostgres:
		return store.NewPostgresStore(ctx, cfg.PostgresDSN, cfg.Table)
	case config.BackendMongo:
		return store.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.Table)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
