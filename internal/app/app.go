// Package app wires configuration into a runnable extraction pipeline:
// crawl, resolve, write artifacts.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/oakline/sitetruth/internal/config"
	"github.com/oakline/sitetruth/internal/crawler"
	"github.com/oakline/sitetruth/internal/extract"
	"github.com/oakline/sitetruth/internal/pagecache"
	"github.com/oakline/sitetruth/internal/progress"
	"github.com/oakline/sitetruth/internal/ratelimit"
	"github.com/oakline/sitetruth/internal/record"
	"github.com/oakline/sitetruth/internal/resolve"
)

// App owns the long-lived pieces of the pipeline. One App can serve many
// runs; the crawl engine itself is assembled per run so each run carries its
// own user agent.
type App struct {
	cfg      config.Config
	logger   *zap.Logger
	emitter  progress.Emitter
	cache    pagecache.Store
	renderer crawler.Renderer
	registry *extract.Registry
	limiter  *ratelimit.Limiter
	resolver *resolve.Resolver
}

// New builds the pipeline. Headless rendering degrades gracefully: if the
// browser cannot start, the app logs it and continues static-only.
func New(cfg config.Config, logger *zap.Logger, emitter progress.Emitter) (*App, error) {
	if emitter == nil {
		emitter = progress.NopEmitter{}
	}

	var renderer crawler.Renderer
	if cfg.Render.Enabled {
		r, rerr := crawler.NewChromedpRenderer(crawler.RendererConfig{
			Enabled:        true,
			Timeout:        cfg.Render.Timeout,
			MaxConcurrency: cfg.Render.MaxConcurrency,
			UserAgent:      cfg.Crawl.EffectiveUserAgent(""),
		}, logger)
		switch {
		case rerr == nil:
			renderer = r
		case errors.Is(rerr, crawler.ErrRendererDisabled):
		default:
			logger.Warn("headless renderer unavailable; continuing static-only", zap.Error(rerr))
		}
	}

	cache, err := openCache(cfg, logger)
	if err != nil {
		return nil, err
	}

	registry, err := extract.NewRegistry(cfg.Extract, logger)
	if err != nil {
		return nil, fmt.Errorf("build extractors: %w", err)
	}

	return &App{
		cfg:      cfg,
		logger:   logger,
		emitter:  emitter,
		cache:    cache,
		renderer: renderer,
		registry: registry,
		limiter: ratelimit.New(ratelimit.Config{
			RequestsPerSecond: cfg.Crawl.EffectiveDomainRPS(),
			Burst:             1,
		}),
		resolver: resolve.New(cfg.Resolve, logger),
	}, nil
}

// buildEngine assembles the crawl engine for one run. The user agent is
// picked from the configured pool keyed on the seed's domain, so the fetcher
// and the robots policy present the same identity.
func (a *App) buildEngine(seedURL string) (*crawler.Engine, error) {
	domain := ""
	if norm, err := pagecache.NormalizeURL(seedURL); err == nil {
		if parsed, perr := url.Parse(norm); perr == nil {
			domain = parsed.Hostname()
		}
	}
	ua := a.cfg.Crawl.EffectiveUserAgent(domain)

	fetcher, err := crawler.NewCollyFetcher(crawler.FetcherConfig{
		UserAgent:      ua,
		Concurrency:    a.cfg.Crawl.Concurrency,
		RequestTimeout: a.cfg.Crawl.RequestTimeout,
	}, a.logger)
	if err != nil {
		return nil, fmt.Errorf("build fetcher: %w", err)
	}

	return crawler.NewEngine(a.cfg.Crawl, crawler.EngineDeps{
		Fetcher:  fetcher,
		Renderer: a.renderer,
		Detector: crawler.NewShellDetector(a.cfg.Render.MinTextChars),
		Robots:   crawler.NewRobotsPolicy(a.cfg.Crawl.RespectRobots, ua, a.logger),
		Limiter:  a.limiter,
		Cache:    a.cache,
		Registry: a.registry,
		Emitter:  a.emitter,
		Logger:   a.logger,
	}), nil
}

// openCache prefers the durable cross-run cache and falls back to memory
// when the database cannot be opened.
func openCache(cfg config.Config, logger *zap.Logger) (pagecache.Store, error) {
	path := filepath.Join(cfg.Output.Dir, "pagecache.db")
	store, err := pagecache.OpenSQLite(path, cfg.Output.CacheMaxAge)
	if err != nil {
		logger.Warn("page cache unavailable; using in-memory cache",
			zap.String("path", path), zap.Error(err))
		return pagecache.NewMemory(), nil
	}
	logger.Debug("page cache open", zap.String("path", path))
	return store, nil
}

// Close releases the renderer and cache.
func (a *App) Close(ctx context.Context) error {
	var firstErr error
	if a.renderer != nil {
		if err := a.renderer.Close(ctx); err != nil {
			firstErr = err
		}
	}
	if err := a.cache.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Run crawls seedURL, resolves the fields, and writes truth.json,
// crawl.json, and summary.csv under the output directory. The returned
// record mirrors what was written.
func (a *App) Run(ctx context.Context, seedURL string) (*record.TruthRecord, error) {
	engine, err := a.buildEngine(seedURL)
	if err != nil {
		return nil, err
	}
	res, err := engine.Run(ctx, seedURL)
	if err != nil {
		return nil, err
	}

	fields := a.resolver.Resolve(res.Pool)
	rec := record.NewTruthRecord(res.Domain, time.Now().UTC(), res.Summary.PagesSuccess, fields, res.Pool)

	writer, err := record.NewWriter(filepath.Join(a.cfg.Output.Dir, res.Domain), a.logger)
	if err != nil {
		return nil, err
	}
	if err := writer.WriteTruth(rec); err != nil {
		return nil, err
	}
	if err := writer.WriteCrawl(res.Summary); err != nil {
		return nil, err
	}
	if err := writer.WriteSummaryCSV(rec); err != nil {
		return nil, err
	}
	return rec, nil
}
