package pipeline

import (
	"context"
	"fmt"
	"log"

	"rss-ingest/pkg/domain"
	"rss-ingest/pkg/writer"
)

// Stage names reported when a run aborts.
const (
	StageFetch = "fetch"
	StageParse = "parse"
	StageDedup = "dedup"
)

// RunError is a fatal failure that aborted the run at a given stage.
type RunError struct {
	Stage string
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("run aborted at %s stage: %v", e.Stage, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// Fetcher retrieves raw feed bytes.
type Fetcher interface {
	Fetch(ctx context.Context, feedURL string) ([]byte, error)
}

// Parser turns raw bytes into normalized entries.
type Parser interface {
	Parse(raw []byte) ([]domain.FeedEntry, error)
}

// Deduplicator removes entries the store already holds.
type Deduplicator interface {
	FilterNew(ctx context.Context, entries []domain.FeedEntry) ([]domain.FeedEntry, error)
}

// Writer persists the deduplicated entries.
type Writer interface {
	WriteAll(ctx context.Context, entries []domain.FeedEntry) writer.Result
}

// Enricher optionally fills empty entry bodies before they are written.
type Enricher interface {
	Enrich(ctx context.Context, entries []domain.FeedEntry) []domain.FeedEntry
}

// Pipeline runs fetch → parse → dedupe → write in strict sequence for one
// feed URL. Every invocation is independent; the store is the only state.
type Pipeline struct {
	fetcher  Fetcher
	parser   Parser
	dedup    Deduplicator
	writer   Writer
	enricher Enricher // nil disables enrichment
	feedURL  string
}

func New(f Fetcher, p Parser, d Deduplicator, w Writer, e Enricher, feedURL string) *Pipeline {
	return &Pipeline{
		fetcher:  f,
		parser:   p,
		dedup:    d,
		writer:   w,
		enricher: e,
		feedURL:  feedURL,
	}
}

// Run executes one ingestion pass. A fatal failure in fetch, parse, or the
// duplicate check returns a *RunError naming the stage; per-entry insert
// failures are tallied in the summary and do not abort the run.
func (p *Pipeline) Run(ctx context.Context) (domain.Summary, error) {
	var summary domain.Summary

	raw, err := p.fetcher.Fetch(ctx, p.feedURL)
	if err != nil {
		return summary, &RunError{Stage: StageFetch, Err: err}
	}

	entries, err := p.parser.Parse(raw)
	if err != nil {
		return summary, &RunError{Stage: StageParse, Err: err}
	}
	summary.Fetched = len(entries)
	log.Printf("Pipeline: parsed %d entries from %s", len(entries), p.feedURL)

	fresh, err := p.dedup.FilterNew(ctx, entries)
	if err != nil {
		return summary, &RunError{Stage: StageDedup, Err: err}
	}
	summary.New = len(fresh)

	// Enrich only entries that will actually be written.
	if p.enricher != nil {
		fresh = p.enricher.Enrich(ctx, fresh)
	}

	res := p.writer.WriteAll(ctx, fresh)
	summary.Inserted = res.Inserted
	summary.Failed = len(res.Failures)
	summary.Failures = res.Failures

	if res.Duplicates > 0 {
		log.Printf("Pipeline: %d entries were inserted concurrently by another run", res.Duplicates)
	}
	log.Printf("Pipeline: run complete: fetched=%d new=%d inserted=%d failed=%d",
		summary.Fetched, summary.New, summary.Inserted, summary.Failed)

	return summary, nil
}
