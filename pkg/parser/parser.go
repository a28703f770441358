package parser

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"rss-ingest/pkg/domain"
)

// ParseError reports a payload that is not a recognizable feed document, or
// a feed whose entries all fail required-field validation.
type ParseError struct {
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse feed: %v", e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// Parser normalizes raw feed bytes into an ordered slice of FeedEntry.
type Parser struct {
	feedParser *gofeed.Parser
	sanitizer  *bluemonday.Policy
	now        func() time.Time
}

func New() *Parser {
	return &Parser{
		feedParser: gofeed.NewParser(),
		sanitizer:  bluemonday.StrictPolicy(),
		now:        time.Now,
	}
}

// Parse is a single pass over the payload. Entries are emitted in feed order.
// Per-entry policy: no title or no valid http(s) link rejects the entry, a
// missing body is stored as empty text, and a missing or unparseable publish
// date falls back to the current wall-clock time.
func (p *Parser) Parse(raw []byte) ([]domain.FeedEntry, error) {
	feed, err := p.feedParser.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, &ParseError{Cause: err}
	}

	entries := make([]domain.FeedEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		entry, ok := p.normalize(item)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}

	// A well-formed but empty feed is a valid non-error outcome; a feed where
	// nothing survives validation is not.
	if len(feed.Items) > 0 && len(entries) == 0 {
		return nil, &ParseError{Cause: errors.New("no entries survived required-field validation")}
	}

	return entries, nil
}

func (p *Parser) normalize(item *gofeed.Item) (domain.FeedEntry, bool) {
	title := toUTF8(item.Title)
	if title == "" {
		log.Printf("Parser: skipping entry with missing title (link=%q)", item.Link)
		return domain.FeedEntry{}, false
	}

	link := toUTF8(item.Link)
	if !validLink(link) {
		log.Printf("Parser: skipping entry with invalid link %q", item.Link)
		return domain.FeedEntry{}, false
	}

	body := item.Content
	if body == "" {
		body = item.Description
	}
	content := strings.TrimSpace(p.sanitizer.Sanitize(toUTF8(body)))

	published := p.now()
	if item.PublishedParsed != nil {
		published = *item.PublishedParsed
	}

	return domain.FeedEntry{
		Title:     title,
		Content:   content,
		Published: published,
		Link:      link,
	}, true
}

// toUTF8 trims and drops any byte sequences that are not valid UTF-8, so
// non-ASCII text survives the trip to the store intact.
func toUTF8(s string) string {
	return strings.TrimSpace(strings.ToValidUTF8(s, ""))
}

func validLink(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
