package pagecache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS pages (
	url_key       TEXT PRIMARY KEY,
	url           TEXT NOT NULL,
	final_url     TEXT NOT NULL,
	status_code   INTEGER NOT NULL,
	body          BLOB,
	used_renderer INTEGER NOT NULL DEFAULT 0,
	fetched_at    INTEGER NOT NULL,
	elapsed_ms    INTEGER NOT NULL DEFAULT 0
);
`

// SQLite is a Store persisted on disk, shared across runs against the same
// output directory.
type SQLite struct {
	db     *sql.DB
	maxAge time.Duration
}

// OpenSQLite opens (or creates) the cache database at path. Entries older
// than maxAge are treated as misses; maxAge <= 0 disables expiry.
func OpenSQLite(path string, maxAge time.Duration) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}
	return &SQLite{db: db, maxAge: maxAge}, nil
}

// Get implements Store.
func (s *SQLite) Get(ctx context.Context, rawURL string) (Entry, bool, error) {
	key, err := NormalizeURL(rawURL)
	if err != nil {
		return Entry{}, false, err
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT url, final_url, status_code, body, used_renderer, fetched_at, elapsed_ms
		 FROM pages WHERE url_key = ?`, key)

	var entry Entry
	var usedRenderer int
	var fetchedUnix int64
	err = row.Scan(&entry.URL, &entry.FinalURL, &entry.StatusCode, &entry.Body,
		&usedRenderer, &fetchedUnix, &entry.ElapsedMs)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("cache lookup %s: %w", key, err)
	}
	entry.UsedRenderer = usedRenderer != 0
	entry.FetchedAt = time.Unix(fetchedUnix, 0).UTC()
	if s.maxAge > 0 && time.Since(entry.FetchedAt) > s.maxAge {
		return Entry{}, false, nil
	}
	return entry, true, nil
}

// Put implements Store.
func (s *SQLite) Put(ctx context.Context, rawURL string, entry Entry) error {
	key, err := NormalizeURL(rawURL)
	if err != nil {
		return err
	}
	usedRenderer := 0
	if entry.UsedRenderer {
		usedRenderer = 1
	}
	fetchedAt := entry.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now().UTC()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO pages (url_key, url, final_url, status_code, body, used_renderer, fetched_at, elapsed_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(url_key) DO UPDATE SET
			url = excluded.url,
			final_url = excluded.final_url,
			status_code = excluded.status_code,
			body = excluded.body,
			used_renderer = excluded.used_renderer,
			fetched_at = excluded.fetched_at,
			elapsed_ms = excluded.elapsed_ms`,
		key, entry.URL, entry.FinalURL, entry.StatusCode, entry.Body,
		usedRenderer, fetchedAt.Unix(), entry.ElapsedMs)
	if err != nil {
		return fmt.Errorf("cache store %s: %w", key, err)
	}
	return nil
}

// Close implements Store.
func (s *SQLite) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close cache db: %w", err)
	}
	return nil
}
