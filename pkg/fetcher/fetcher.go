package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"time"

	"rss-ingest/pkg/httpclient"
	"rss-ingest/pkg/retry"
)

// FetchError reports a feed that could not be retrieved within the retry
// budget. Cause is the last underlying failure.
type FetchError struct {
	URL      string
	Attempts int
	Cause    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: giving up after %d attempt(s): %v", e.URL, e.Attempts, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }

// statusError is a non-200 response. 5xx is transient, 4xx is not.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.code)
}

// Fetcher retrieves raw feed bytes over HTTP. Transient failures (timeouts,
// connection resets, 5xx) are retried with exponential backoff; client errors
// fail immediately.
type Fetcher struct {
	client   *httpclient.Client
	attempts int
	backoff  time.Duration
}

func New(client *httpclient.Client, attempts int, backoff time.Duration) *Fetcher {
	return &Fetcher{
		client:   client,
		attempts: attempts,
		backoff:  backoff,
	}
}

// Fetch returns the feed body or a *FetchError. It performs no side effects
// beyond the network call.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) ([]byte, error) {
	if u, err := url.Parse(feedURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, &FetchError{URL: feedURL, Attempts: 0, Cause: fmt.Errorf("not an absolute URL: %q", feedURL)}
	}

	var body []byte
	attempt := 0
	err := retry.Do(ctx, f.attempts, f.backoff, func() error {
		attempt++
		b, err := f.fetchOnce(ctx, feedURL)
		if err != nil {
			log.Printf("Fetcher: attempt %d/%d for %s failed: %v", attempt, f.attempts, feedURL, err)
			if !isTransient(err) {
				return &retry.Permanent{Err: err}
			}
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, &FetchError{URL: feedURL, Attempts: attempt, Cause: err}
	}

	log.Printf("Fetcher: fetched %d bytes from %s on attempt %d", len(body), feedURL, attempt)
	return body, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, feedURL string) ([]byte, error) {
	resp, err := f.client.Get(ctx, feedURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return body, nil
}

func isTransient(err error) bool {
	var statusErr *statusError
	if errors.As(err, &statusErr) {
		return statusErr.code >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	// Transport-level failures (connection reset, refused, DNS hiccups) are
	// worth another attempt within the budget.
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
