// Package crawler walks a single site breadth-first under page, depth, and
// time budgets, producing parsed pages for extraction. It is polite by
// default: robots.txt is honored and fetches go through a per-domain rate
// limiter.
package crawler

import (
	"context"
	"errors"
	"time"
)

// Fatal crawl-start errors. Anything else that goes wrong during a crawl is
// absorbed into per-page failure records.
var (
	// ErrInvalidSeed marks a seed URL that cannot be crawled at all.
	ErrInvalidSeed = errors.New("invalid seed url")
	// ErrSeedDisallowed marks a seed whose path robots.txt forbids.
	ErrSeedDisallowed = errors.New("seed disallowed by robots.txt")
)

// Page is one fetched document.
type Page struct {
	URL          string
	FinalURL     string
	StatusCode   int
	Body         []byte
	Depth        int
	UsedRenderer bool
	FromCache    bool
	Elapsed      time.Duration
}

// Fetcher retrieves a page over plain HTTP.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Page, error)
}

// Renderer retrieves a page through a JavaScript-capable browser.
type Renderer interface {
	Render(ctx context.Context, rawURL string) (Page, error)
	Close(ctx context.Context) error
}

// Detector decides whether a statically fetched page is a script shell that
// needs the renderer.
type Detector interface {
	NeedsRender(page Page) bool
}

// RobotsPolicy answers whether a URL may be fetched.
type RobotsPolicy interface {
	Allowed(ctx context.Context, rawURL string) bool
}
