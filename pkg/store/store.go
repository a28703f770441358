package store

import (
	"context"
	"errors"

	"rss-ingest/pkg/domain"
)

// ErrDuplicateLink is returned by Insert when the store already holds a row
// with the entry's link. Callers treat it as "already exists", not a failure.
var ErrDuplicateLink = errors.New("store: duplicate link")

// Store is the remote persistence API the pipeline talks to. Implementations
// must enforce link uniqueness; the pipeline is append-only and never issues
// updates or deletes.
type Store interface {
	// ExistingLinks returns the subset of the given links that are already
	// persisted, as a set. One round-trip regardless of input size.
	ExistingLinks(ctx context.Context, links []string) (map[string]bool, error)

	// Insert durably creates one record. Returns ErrDuplicateLink when a row
	// with the same link exists.
	Insert(ctx context.Context, entry domain.FeedEntry) error

	// Close releases the underlying connection, if any.
	Close(ctx context.Context) error
}
