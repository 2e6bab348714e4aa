// Package fetch defines the HTTP fetching contract used by the
// scraper, plus the retry decorator every implementation is wrapped in.
package fetch

import (
	"context"
	"fmt"
	"time"
)

// Request identifies a single page to fetch.
type Request struct {
	URL string
	// UseHeadless is set when the caller wants a rendered DOM rather
	// than the raw response body.
	UseHeadless bool
}

// Response carries the fetched document and transfer metadata.
type Response struct {
	URL          string
	StatusCode   int
	Body         []byte
	Duration     time.Duration
	UsedHeadless bool
}

// Fetcher fetches a URL and returns the document bytes.
// Implementations must be safe for concurrent use.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (Response, error)
}

// Error is returned once every attempt at a URL has been exhausted.
// It never escapes further than the per-department task boundary.
type Error struct {
	URL      string
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
