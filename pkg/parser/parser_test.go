package parser

import (
	"errors"
	"testing"
	"time"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example Blog</title>
    <link>https://example.com</link>
    <item>
      <title>First post</title>
      <link>https://example.com/first</link>
      <description><![CDATA[<p>Hello <b>world</b></p>]]></description>
      <pubDate>Mon, 02 Jan 2023 15:04:05 GMT</pubDate>
    </item>
    <item>
      <title>Second post</title>
      <link>https://example.com/second</link>
      <pubDate>Tue, 03 Jan 2023 10:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`

func TestParseEmitsEntriesInFeedOrder(t *testing.T) {
	entries, err := New().Parse([]byte(sampleFeed))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Link != "https://example.com/first" || entries[1].Link != "https://example.com/second" {
		t.Errorf("entries out of feed order: %q, %q", entries[0].Link, entries[1].Link)
	}
	if entries[0].Title != "First post" {
		t.Errorf("unexpected title: %q", entries[0].Title)
	}
	want := time.Date(2023, 1, 2, 15, 4, 5, 0, time.UTC)
	if !entries[0].Published.Equal(want) {
		t.Errorf("expected published %v, got %v", want, entries[0].Published)
	}
}

func TestParseSanitizesContent(t *testing.T) {
	entries, err := New().Parse([]byte(sampleFeed))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entries[0].Content != "Hello world" {
		t.Errorf("expected sanitized content %q, got %q", "Hello world", entries[0].Content)
	}
}

func TestParseMissingContentIsEmptyNotRejected(t *testing.T) {
	entries, err := New().Parse([]byte(sampleFeed))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entries[1].Content != "" {
		t.Errorf("expected empty content, got %q", entries[1].Content)
	}
}

func TestParseRejectsEntryWithoutTitle(t *testing.T) {
	feed := `<?xml version="1.0"?>
<rss version="2.0"><channel><title>t</title>
  <item><link>https://example.com/untitled</link></item>
  <item><title>Kept</title><link>https://example.com/kept</link></item>
</channel></rss>`

	entries, err := New().Parse([]byte(feed))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected the untitled entry to be dropped, got %d entries", len(entries))
	}
	if entries[0].Link != "https://example.com/kept" {
		t.Errorf("wrong entry survived: %q", entries[0].Link)
	}
}

func TestParseRejectsNonHTTPLink(t *testing.T) {
	feed := `<?xml version="1.0"?>
<rss version="2.0"><channel><title>t</title>
  <item><title>Bad scheme</title><link>ftp://example.com/file</link></item>
  <item><title>No scheme</title><link>example.com/page</link></item>
  <item><title>Good</title><link>https://example.com/good</link></item>
</channel></rss>`

	entries, err := New().Parse([]byte(feed))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the http(s) entry, got %d entries", len(entries))
	}
	if entries[0].Link != "https://example.com/good" {
		t.Errorf("wrong entry survived: %q", entries[0].Link)
	}
}

func TestParseMissingDateFallsBackToNow(t *testing.T) {
	feed := `<?xml version="1.0"?>
<rss version="2.0"><channel><title>t</title>
  <item><title>Undated</title><link>https://example.com/undated</link></item>
</channel></rss>`

	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	p := New()
	p.now = func() time.Time { return fixed }

	entries, err := p.Parse([]byte(feed))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !entries[0].Published.Equal(fixed) {
		t.Errorf("expected fallback to parse time %v, got %v", fixed, entries[0].Published)
	}
}

func TestParseMalformedDocument(t *testing.T) {
	_, err := New().Parse([]byte("this is not a feed at all"))

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError for malformed input, got: %v", err)
	}
}

func TestParseEmptyFeedIsNotAnError(t *testing.T) {
	feed := `<?xml version="1.0"?>
<rss version="2.0"><channel><title>empty</title></channel></rss>`

	entries, err := New().Parse([]byte(feed))
	if err != nil {
		t.Fatalf("a well-formed empty feed should not error, got: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected 0 entries, got %d", len(entries))
	}
}

func TestParseAllEntriesInvalidIsAnError(t *testing.T) {
	feed := `<?xml version="1.0"?>
<rss version="2.0"><channel><title>t</title>
  <item><link>https://example.com/untitled</link></item>
</channel></rss>`

	_, err := New().Parse([]byte(feed))

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError when nothing survives validation, got: %v", err)
	}
}
