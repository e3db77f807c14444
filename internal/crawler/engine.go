package crawler

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/oakline/sitetruth/internal/config"
	"github.com/oakline/sitetruth/internal/extract"
	"github.com/oakline/sitetruth/internal/pagecache"
	"github.com/oakline/sitetruth/internal/parser"
	"github.com/oakline/sitetruth/internal/progress"
	"github.com/oakline/sitetruth/internal/ratelimit"
	"github.com/oakline/sitetruth/internal/record"
)

// Engine runs one bounded crawl of a single site and extracts candidates
// from every page it reaches.
type Engine struct {
	cfg      config.CrawlConfig
	fetcher  Fetcher
	renderer Renderer // nil when rendering is off
	detector Detector
	robots   RobotsPolicy
	limiter  *ratelimit.Limiter
	cache    pagecache.Store
	registry *extract.Registry
	emitter  progress.Emitter
	logger   *zap.Logger
	filter   *linkFilter
}

// EngineDeps bundles the collaborators an Engine needs.
type EngineDeps struct {
	Fetcher  Fetcher
	Renderer Renderer
	Detector Detector
	Robots   RobotsPolicy
	Limiter  *ratelimit.Limiter
	Cache    pagecache.Store
	Registry *extract.Registry
	Emitter  progress.Emitter
	Logger   *zap.Logger
}

// NewEngine wires an engine. Renderer may be nil; Emitter defaults to a
// no-op.
func NewEngine(cfg config.CrawlConfig, deps EngineDeps) *Engine {
	emitter := deps.Emitter
	if emitter == nil {
		emitter = progress.NopEmitter{}
	}
	return &Engine{
		cfg:      cfg,
		fetcher:  deps.Fetcher,
		renderer: deps.Renderer,
		detector: deps.Detector,
		robots:   deps.Robots,
		limiter:  deps.Limiter,
		cache:    deps.Cache,
		registry: deps.Registry,
		emitter:  emitter,
		logger:   deps.Logger,
		filter:   newLinkFilter(cfg.SkipExtensions, cfg.SkipPaths),
	}
}

// Result is everything one crawl produced.
type Result struct {
	RunID   uuid.UUID
	Domain  string
	Pool    *extract.Pool
	Summary *record.CrawlSummary
}

// run carries the per-crawl state so the engine itself stays reusable.
type run struct {
	id       uuid.UUID
	domain   string
	frontier *Frontier
	pool     *extract.Pool
	summary  *record.CrawlSummary
	started  atomic.Int64
	mu       sync.Mutex // guards summary
	retry    *RetryPolicy
}

// Run crawls from seedURL until the page, depth, or time budget is spent.
// Only crawl-start failures return an error; per-page failures are recorded
// in the summary and the crawl continues.
func (e *Engine) Run(ctx context.Context, seedURL string) (*Result, error) {
	seed, err := pagecache.NormalizeURL(seedURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}
	parsed, err := url.Parse(seed)
	if err != nil || parsed.Hostname() == "" {
		return nil, fmt.Errorf("%w: no host in %q", ErrInvalidSeed, seedURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme %q", ErrInvalidSeed, parsed.Scheme)
	}
	if !e.robots.Allowed(ctx, seed) {
		return nil, fmt.Errorf("%w: %s", ErrSeedDisallowed, seed)
	}

	r := &run{
		id:       uuid.New(),
		domain:   parsed.Hostname(),
		frontier: NewFrontier(),
		pool:     extract.NewPool(),
		summary:  record.NewCrawlSummary(seed, parsed.Hostname()),
		retry:    NewRetryPolicy(e.cfg.MaxRetries),
	}

	var crawlCtx context.Context
	var cancel context.CancelFunc
	if e.cfg.TimeBudget > 0 {
		crawlCtx, cancel = context.WithTimeout(ctx, e.cfg.TimeBudget)
	} else {
		crawlCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	e.emitter.Emit(progress.Event{
		RunID: r.id, TS: time.Now().UTC(), Stage: progress.StageRunStart, Domain: r.domain,
	})
	start := time.Now()

	r.frontier.Push(seed, 0)
	go func() {
		<-crawlCtx.Done()
		r.frontier.Close()
	}()

	g, workerCtx := errgroup.WithContext(crawlCtx)
	workers := e.cfg.Concurrency
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			e.worker(workerCtx, r)
			return nil
		})
	}
	_ = g.Wait()

	r.summary.ElapsedMs = time.Since(start).Milliseconds()
	e.emitter.Emit(progress.Event{
		RunID: r.id, TS: time.Now().UTC(), Stage: progress.StageRunDone,
		Domain: r.domain, Dur: time.Since(start),
	})
	e.logger.Info("crawl finished",
		zap.String("domain", r.domain),
		zap.Int("pages_attempted", r.summary.PagesAttempted),
		zap.Int("pages_failed", r.summary.PagesFailed),
		zap.Int("candidates", r.pool.Len()),
		zap.Duration("elapsed", time.Since(start)))

	return &Result{RunID: r.id, Domain: r.domain, Pool: r.pool, Summary: r.summary}, nil
}

func (e *Engine) worker(ctx context.Context, r *run) {
	for {
		target, ok := r.frontier.Pop()
		if !ok {
			return
		}
		if e.cfg.MaxPages > 0 && r.started.Add(1) > int64(e.cfg.MaxPages) {
			r.frontier.Done()
			r.frontier.Close()
			return
		}
		e.processPage(ctx, r, target)
		r.frontier.Done()
	}
}

func (e *Engine) processPage(ctx context.Context, r *run, target Target) {
	start := time.Now()
	page, fromCache, err := e.loadPage(ctx, r, target)
	if err != nil {
		e.recordFailure(r, target, page.StatusCode, time.Since(start), err)
		return
	}
	page.Depth = target.Depth
	page.FromCache = fromCache

	doc, err := parser.New(page.Body, page.FinalURL)
	if err != nil {
		e.recordFailure(r, target, page.StatusCode, time.Since(start), fmt.Errorf("parse page: %w", err))
		return
	}

	e.registry.Run(extract.Page{Doc: doc, URL: target.URL, Depth: target.Depth}, r.pool)
	e.enqueueLinks(ctx, r, doc, target.Depth)

	r.mu.Lock()
	r.summary.AddPage(record.PageResult{
		URL:        target.URL,
		Title:      doc.Title(),
		Success:    true,
		StatusCode: page.StatusCode,
		Depth:      target.Depth,
		ElapsedMs:  page.Elapsed.Milliseconds(),
		FromCache:  fromCache,
	}, int64(len(page.Body)))
	r.mu.Unlock()

	stage := progress.StagePageDone
	if fromCache {
		stage = progress.StagePageCache
	}
	e.emitter.Emit(progress.Event{
		RunID: r.id, TS: time.Now().UTC(), Stage: stage, Domain: r.domain,
		URL: target.URL, Depth: target.Depth, Bytes: int64(len(page.Body)),
		StatusClass: progress.ClassifyStatus(page.StatusCode),
		Rendered:    page.UsedRenderer, Dur: time.Since(start),
	})
}

// loadPage returns the page body from cache or network, applying rate
// limiting, retries, and the render fallback. Robots filtering happened at
// enqueue time.
func (e *Engine) loadPage(ctx context.Context, r *run, target Target) (Page, bool, error) {
	if entry, ok, err := e.cache.Get(ctx, target.URL); err == nil && ok {
		return Page{
			URL:          entry.URL,
			FinalURL:     entry.FinalURL,
			StatusCode:   entry.StatusCode,
			Body:         entry.Body,
			UsedRenderer: entry.UsedRenderer,
			Elapsed:      time.Duration(entry.ElapsedMs) * time.Millisecond,
		}, true, nil
	} else if err != nil {
		e.logger.Warn("page cache read failed", zap.String("url", target.URL), zap.Error(err))
	}

	page, err := e.fetchWithRetry(ctx, r, target.URL)
	if err != nil {
		return page, false, err
	}

	if e.renderer != nil && e.detector.NeedsRender(page) {
		rendered, renderErr := e.renderer.Render(ctx, target.URL)
		if renderErr != nil {
			e.logger.Warn("render fallback failed; keeping static body",
				zap.String("url", target.URL), zap.Error(renderErr))
		} else {
			rendered.Elapsed += page.Elapsed
			page = rendered
		}
	}

	if err := e.cache.Put(ctx, target.URL, pagecache.Entry{
		URL:          target.URL,
		FinalURL:     page.FinalURL,
		StatusCode:   page.StatusCode,
		Body:         page.Body,
		UsedRenderer: page.UsedRenderer,
		FetchedAt:    time.Now().UTC(),
		ElapsedMs:    page.Elapsed.Milliseconds(),
	}); err != nil {
		e.logger.Warn("page cache write failed", zap.String("url", target.URL), zap.Error(err))
	}
	return page, false, nil
}

func (e *Engine) fetchWithRetry(ctx context.Context, r *run, rawURL string) (Page, error) {
	var page Page
	var err error
	for attempt := 1; ; attempt++ {
		if waitErr := e.limiter.WaitForURL(ctx, rawURL); waitErr != nil {
			return Page{}, waitErr
		}
		page, err = e.fetcher.Fetch(ctx, rawURL)
		if err == nil {
			return page, nil
		}
		if !r.retry.ShouldRetry(err, attempt) {
			return page, err
		}
		backoff := r.retry.Backoff(attempt)
		e.logger.Debug("retrying fetch",
			zap.String("url", rawURL), zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff), zap.Error(err))
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return Page{}, ctx.Err()
		}
	}
}

// enqueueLinks pushes same-site content links onto the frontier. Asset and
// non-content URLs, and URLs robots.txt disallows, are dropped here without
// consuming a page slot or appearing in the crawl summary.
func (e *Engine) enqueueLinks(ctx context.Context, r *run, doc *parser.Document, depth int) {
	if e.cfg.MaxDepth >= 0 && depth+1 > e.cfg.MaxDepth {
		return
	}
	for _, link := range doc.Links() {
		norm, err := pagecache.NormalizeURL(link)
		if err != nil {
			continue
		}
		if !sameSite(r.domain, norm) {
			continue
		}
		if !e.filter.Allows(norm) {
			continue
		}
		if !e.robots.Allowed(ctx, norm) {
			e.logger.Debug("link disallowed by robots.txt", zap.String("url", norm))
			continue
		}
		r.frontier.Push(norm, depth+1)
	}
}

func (e *Engine) recordFailure(r *run, target Target, statusCode int, elapsed time.Duration, err error) {
	r.mu.Lock()
	r.summary.AddPage(record.PageResult{
		URL:        target.URL,
		Success:    false,
		StatusCode: statusCode,
		Depth:      target.Depth,
		ElapsedMs:  elapsed.Milliseconds(),
	}, 0)
	r.mu.Unlock()

	e.logger.Warn("page failed", zap.String("url", target.URL), zap.Error(err))
	e.emitter.Emit(progress.Event{
		RunID: r.id, TS: time.Now().UTC(), Stage: progress.StagePageFail,
		Domain: r.domain, URL: target.URL, Depth: target.Depth,
		StatusClass: progress.ClassifyStatus(statusCode),
		Dur:         elapsed, Note: err.Error(),
	})
}

// sameSite keeps the crawl on the seed's host, treating the www-prefixed and
// bare forms as the same site.
func sameSite(domain, normURL string) bool {
	parsed, err := url.Parse(normURL)
	if err != nil {
		return false
	}
	host := parsed.Hostname()
	return stripWWW(host) == stripWWW(domain)
}

func stripWWW(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}
