package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"rss-ingest/pkg/domain"
)

const pgUniqueViolation = "23505"

// PostgresStore talks directly to Postgres over the pgx driver, for setups
// where a database connection string is available instead of a REST API.
type PostgresStore struct {
	db    *sql.DB
	table string
}

func NewPostgresStore(ctx context.Context, dsn, table string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{db: db, table: table}, nil
}

func (s *PostgresStore) ExistingLinks(ctx context.Context, links []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(links))
	if len(links) == 0 {
		return existing, nil
	}

	query := fmt.Sprintf("SELECT link FROM %s WHERE link = ANY($1)", s.table)
	rows, err := s.db.QueryContext(ctx, query, links)
	if err != nil {
		return nil, fmt.Errorf("query existing links: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var link string
		if err := rows.Scan(&link); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		existing[link] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read existing links: %w", err)
	}
	return existing, nil
}

func (s *PostgresStore) Insert(ctx context.Context, entry domain.FeedEntry) error {
	query := fmt.Sprintf(
		"INSERT INTO %s (title, content, published, link) VALUES ($1, $2, $3, $4)",
		s.table,
	)
	_, err := s.db.ExecContext(ctx, query, entry.Title, entry.Content, entry.Published, entry.Link)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrDuplicateLink
		}
		return fmt.Errorf("insert %s: %w", entry.Link, err)
	}
	return nil
}

func (s *PostgresStore) Close(ctx context.Context) error {
	return s.db.Close()
}
