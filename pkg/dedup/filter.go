package dedup

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/samber/lo"

	"rss-ingest/pkg/domain"
	"rss-ingest/pkg/retry"
	"rss-ingest/pkg/store"
)

// StoreQueryError reports a duplicate check that could not complete within
// the retry budget. The run must abort rather than risk double writes.
type StoreQueryError struct {
	Cause error
}

func (e *StoreQueryError) Error() string {
	return fmt.Sprintf("duplicate check: %v", e.Cause)
}

func (e *StoreQueryError) Unwrap() error { return e.Cause }

// Filter removes entries whose link the store already holds, using one
// batched existence query per run.
type Filter struct {
	store    store.Store
	attempts int
	backoff  time.Duration
}

func New(st store.Store, attempts int, backoff time.Duration) *Filter {
	return &Filter{
		store:    st,
		attempts: attempts,
		backoff:  backoff,
	}
}

// FilterNew returns the subset of entries not yet persisted, preserving feed
// order. The store query is retried like a fetch; if it still fails the run
// aborts with a *StoreQueryError.
func (f *Filter) FilterNew(ctx context.Context, entries []domain.FeedEntry) ([]domain.FeedEntry, error) {
	if len(entries) == 0 {
		return entries, nil
	}

	links := lo.Map(entries, func(e domain.FeedEntry, _ int) string { return e.Link })

	var existing map[string]bool
	err := retry.Do(ctx, f.attempts, f.backoff, func() error {
		m, qErr := f.store.ExistingLinks(ctx, links)
		if qErr != nil {
			log.Printf("Dedup: existence query failed: %v", qErr)
			return qErr
		}
		existing = m
		return nil
	})
	if err != nil {
		return nil, &StoreQueryError{Cause: err}
	}

	fresh := lo.Filter(entries, func(e domain.FeedEntry, _ int) bool { return !existing[e.Link] })
	log.Printf("Dedup: %d of %d entries already stored, %d new", len(entries)-len(fresh), len(entries), len(fresh))
	return fresh, nil
}
