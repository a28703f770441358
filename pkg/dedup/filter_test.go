package dedup

import (
	"context"
	"errors"
	"testing"

	"rss-ingest/pkg/domain"
)

// mockStore implements store.Store for testing the filter.
type mockStore struct {
	existing   map[string]bool
	queryCalls int
	failFirst  int // number of leading calls that fail
	err        error
}

func (m *mockStore) ExistingLinks(ctx context.Context, links []string) (map[string]bool, error) {
	m.queryCalls++
	if m.queryCalls <= m.failFirst {
		return nil, m.err
	}
	result := make(map[string]bool)
	for _, link := range links {
		if m.existing[link] {
			result[link] = true
		}
	}
	return result, nil
}

func (m *mockStore) Insert(ctx context.Context, entry domain.FeedEntry) error { return nil }

func (m *mockStore) Close(ctx context.Context) error { return nil }

func entriesWithLinks(links ...string) []domain.FeedEntry {
	entries := make([]domain.FeedEntry, len(links))
	for i, link := range links {
		entries[i] = domain.FeedEntry{Title: "t", Link: link}
	}
	return entries
}

func TestFilterNewRemovesStoredEntries(t *testing.T) {
	st := &mockStore{existing: map[string]bool{"https://example.com/old": true}}
	f := New(st, 3, 0)

	fresh, err := f.FilterNew(context.Background(), entriesWithLinks(
		"https://example.com/old",
		"https://example.com/new",
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fresh) != 1 || fresh[0].Link != "https://example.com/new" {
		t.Fatalf("expected only the new entry, got %+v", fresh)
	}
	if st.queryCalls != 1 {
		t.Errorf("expected a single batched query, got %d", st.queryCalls)
	}
}

func TestFilterNewPreservesOrder(t *testing.T) {
	st := &mockStore{existing: map[string]bool{"https://example.com/b": true}}
	f := New(st, 3, 0)

	fresh, err := f.FilterNew(context.Background(), entriesWithLinks(
		"https://example.com/a",
		"https://example.com/b",
		"https://example.com/c",
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fresh) != 2 || fresh[0].Link != "https://example.com/a" || fresh[1].Link != "https://example.com/c" {
		t.Fatalf("feed order not preserved: %+v", fresh)
	}
}

func TestFilterNewRetriesTransientQueryFailure(t *testing.T) {
	st := &mockStore{
		failFirst: 2,
		err:       errors.New("store unreachable"),
	}
	f := New(st, 3, 0)

	fresh, err := f.FilterNew(context.Background(), entriesWithLinks("https://example.com/a"))
	if err != nil {
		t.Fatalf("expected recovery within retry budget, got: %v", err)
	}
	if len(fresh) != 1 {
		t.Errorf("expected 1 entry, got %d", len(fresh))
	}
	if st.queryCalls != 3 {
		t.Errorf("expected 3 query attempts, got %d", st.queryCalls)
	}
}

func TestFilterNewAbortsAfterRetryBudget(t *testing.T) {
	cause := errors.New("store down")
	st := &mockStore{failFirst: 99, err: cause}
	f := New(st, 3, 0)

	_, err := f.FilterNew(context.Background(), entriesWithLinks("https://example.com/a"))

	var queryErr *StoreQueryError
	if !errors.As(err, &queryErr) {
		t.Fatalf("expected *StoreQueryError, got: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected the underlying cause to be wrapped, got: %v", err)
	}
	if st.queryCalls != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", st.queryCalls)
	}
}

func TestFilterNewEmptyInputSkipsQuery(t *testing.T) {
	st := &mockStore{}
	f := New(st, 3, 0)

	fresh, err := f.FilterNew(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fresh) != 0 {
		t.Errorf("expected no entries, got %d", len(fresh))
	}
	if st.queryCalls != 0 {
		t.Errorf("expected no store query for empty input, got %d", st.queryCalls)
	}
}
