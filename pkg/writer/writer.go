package writer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"rss-ingest/pkg/domain"
	"rss-ingest/pkg/store"
)

// InsertError reports a single entry the store rejected. It is recorded per
// entry and never aborts the run.
type InsertError struct {
	Link  string
	Cause error
}

func (e *InsertError) Error() string {
	return fmt.Sprintf("insert %s: %v", e.Link, e.Cause)
}

func (e *InsertError) Unwrap() error { return e.Cause }

// Result tallies one write pass.
type Result struct {
	Inserted   int
	Duplicates int // uniqueness rejections, treated as benign no-ops
	Failures   []domain.InsertFailure
}

// Writer inserts new entries one by one, isolating each entry's failure from
// the rest. It is insert-only: no update or delete is ever issued.
type Writer struct {
	store   store.Store
	workers int
}

// New creates a writer with the given worker count. One worker preserves
// feed order; more trade ordering for throughput, which the contract allows.
func New(st store.Store, workers int) *Writer {
	if workers < 1 {
		workers = 1
	}
	return &Writer{store: st, workers: workers}
}

// WriteAll attempts every entry independently. A uniqueness violation means
// a concurrent run got there first and counts as a duplicate, not a failure.
func (w *Writer) WriteAll(ctx context.Context, entries []domain.FeedEntry) Result {
	var res Result
	if len(entries) == 0 {
		return res
	}

	jobs := make(chan domain.FeedEntry, len(entries))
	for _, entry := range entries {
		jobs <- entry
	}
	close(jobs)

	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < w.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range jobs {
				err := w.store.Insert(ctx, entry)

				mu.Lock()
				switch {
				case err == nil:
					res.Inserted++
					log.Printf("Writer: stored %s", entry.Link)
				case errors.Is(err, store.ErrDuplicateLink):
					res.Duplicates++
					log.Printf("Writer: %s already stored, skipping", entry.Link)
				default:
					insErr := &InsertError{Link: entry.Link, Cause: err}
					res.Failures = append(res.Failures, domain.InsertFailure{Link: entry.Link, Cause: insErr})
					log.Printf("Writer: failed to store %s: %v", entry.Link, err)
				}
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	return res
}
