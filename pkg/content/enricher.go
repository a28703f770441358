package content

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"rss-ingest/pkg/domain"
	"rss-ingest/pkg/httpclient"
)

// Enricher fills in the body of entries whose feed omitted one by fetching
// the linked page and extracting its readable text. Best effort: extraction
// failures leave the content empty, they never reject the entry.
type Enricher struct {
	client *httpclient.Client
}

func NewEnricher(client *httpclient.Client) *Enricher {
	return &Enricher{client: client}
}

// Enrich returns the entries with empty bodies filled where possible.
func (e *Enricher) Enrich(ctx context.Context, entries []domain.FeedEntry) []domain.FeedEntry {
	for i := range entries {
		if entries[i].Content != "" {
			continue
		}
		text, err := e.extract(ctx, entries[i].Link)
		if err != nil {
			log.Printf("Enricher: %s: %v", entries[i].Link, err)
			continue
		}
		entries[i].Content = text
	}
	return entries
}

func (e *Enricher) extract(ctx context.Context, link string) (string, error) {
	html, err := e.fetchHTML(ctx, link)
	if err != nil {
		return "", err
	}

	article, err := readability.FromReader(strings.NewReader(html), nil)
	if err == nil {
		if text := strings.TrimSpace(article.TextContent); text != "" {
			return text, nil
		}
	}

	// Fallback: join paragraph text from the raw document.
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse HTML: %w", err)
	}
	var paragraphs []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	return strings.Join(paragraphs, "\n\n"), nil
}

func (e *Enricher) fetchHTML(ctx context.Context, link string) (string, error) {
	resp, err := e.client.Get(ctx, link)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}
	return string(body), nil
}
