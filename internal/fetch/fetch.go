// Package fetch provides the page-fetch capability the search pipeline runs
// on: given a search term, produce the final URL and page content, either as
// a live rendered page or as static markup.
package fetch

import (
	"context"
	"errors"

	"github.com/playwright-community/playwright-go"
)

var (
	// ErrChallenge means the anti-bot interstitial never cleared.
	ErrChallenge = errors.New("anti-bot challenge not cleared")
	// ErrBlocked means the site refused the request outright (403).
	ErrBlocked = errors.New("blocked by anti-bot protection")
	// ErrUnavailable means the fetch capability itself is unusable, e.g. the
	// rendering engine failed to start or crashed.
	ErrUnavailable = errors.New("page fetcher unavailable")
)

// Mode discriminates what kind of content a fetch produced.
type Mode int

const (
	// ModeRendered content comes from a live browser page; Result.Page is
	// usable for DOM queries and lazy-loaded content is settled.
	ModeRendered Mode = iota
	// ModeStatic content is the raw HTTP response body; no script ran.
	ModeStatic
)

// Result is one fetched search-results (or redirected product) page.
type Result struct {
	FinalURL string
	HTML     string
	Page     playwright.Page // non-nil only when Mode == ModeRendered
	Mode     Mode
}

// Fetcher fetches the search-results view for a term. Implementations must
// return a typed error instead of partial or garbage content.
type Fetcher interface {
	FetchSearchResults(ctx context.Context, term string) (*Result, error)
	Close() error
}
