// Package pagecache provides a read-through store for fetched pages keyed by
// normalized URL, so a URL is never fetched twice within or across runs.
package pagecache

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Entry is one cached fetch result.
type Entry struct {
	URL          string    `json:"url"`
	FinalURL     string    `json:"final_url"`
	StatusCode   int       `json:"status_code"`
	Body         []byte    `json:"body"`
	UsedRenderer bool      `json:"used_renderer"`
	FetchedAt    time.Time `json:"fetched_at"`
	ElapsedMs    int64     `json:"elapsed_ms"`
}

// Store is a read-through page cache. Get returns ok=false on a miss; Put is
// idempotent for the same normalized URL.
type Store interface {
	Get(ctx context.Context, rawURL string) (Entry, bool, error)
	Put(ctx context.Context, rawURL string, entry Entry) error
	Close() error
}

// NormalizeURL standardizes a URL for cache keys and frontier deduplication.
// It lowercases the scheme and host, strips default ports and fragments,
// normalizes the trailing slash, and sorts query parameters.
func NormalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("url %q is not absolute", rawURL)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if u.Scheme == "http" {
		u.Host = strings.TrimSuffix(u.Host, ":80")
	}
	if u.Scheme == "https" {
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	u.Fragment = ""

	if u.Path == "" {
		u.Path = "/"
	} else if u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	q := u.Query()
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// Memory is an in-process Store scoped to a single run.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]Entry)}
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, rawURL string) (Entry, bool, error) {
	key, err := NormalizeURL(rawURL)
	if err != nil {
		return Entry{}, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[key]
	return entry, ok, nil
}

// Put implements Store.
func (m *Memory) Put(_ context.Context, rawURL string, entry Entry) error {
	key, err := NormalizeURL(rawURL)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry
	return nil
}

// Close implements Store.
func (m *Memory) Close() error { return nil }
