package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	supabase "github.com/supabase-community/supabase-go"

	"rss-ingest/pkg/domain"
)

// SupabaseStore persists entries through the Supabase REST API, authenticated
// with the project URL and API key. This is the primary backend.
type SupabaseStore struct {
	client *supabase.Client
	table  string
}

func NewSupabaseStore(projectURL, apiKey, table string) (*SupabaseStore, error) {
	client, err := supabase.NewClient(projectURL, apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("initialize supabase client: %w", err)
	}
	return &SupabaseStore{client: client, table: table}, nil
}

type supabaseRow struct {
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Published time.Time `json:"published"`
	Link      string    `json:"link"`
}

func (s *SupabaseStore) ExistingLinks(ctx context.Context, links []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(links))
	if len(links) == 0 {
		return existing, nil
	}

	data, _, err := s.client.From(s.table).Select("link", "", false).In("link", links).Execute()
	if err != nil {
		return nil, fmt.Errorf("query existing links: %w", err)
	}

	var rows []struct {
		Link string `json:"link"`
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode existing links: %w", err)
	}
	for _, row := range rows {
		existing[row.Link] = true
	}
	return existing, nil
}

func (s *SupabaseStore) Insert(ctx context.Context, entry domain.FeedEntry) error {
	row := supabaseRow{
		Title:     entry.Title,
		Content:   entry.Content,
		Published: entry.Published,
		Link:      entry.Link,
	}

	_, _, err := s.client.From(s.table).Insert(row, false, "", "minimal", "").Execute()
	if err != nil {
		if isDuplicateRESTError(err) {
			return ErrDuplicateLink
		}
		return fmt.Errorf("insert %s: %w", entry.Link, err)
	}
	return nil
}

func (s *SupabaseStore) Close(ctx context.Context) error {
	return nil
}

// isDuplicateRESTError recognizes a unique-constraint rejection in the
// PostgREST error body (SQLSTATE 23505).
func isDuplicateRESTError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "23505") || strings.Contains(msg, "duplicate key")
}
