package crawler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// ErrRendererDisabled indicates rendering is off via configuration.
var ErrRendererDisabled = errors.New("renderer disabled")

// RendererConfig holds the knobs for the headless fallback.
type RendererConfig struct {
	Enabled        bool
	Timeout        time.Duration
	MaxConcurrency int
	UserAgent      string
}

// ChromedpRenderer renders script shells in headless Chrome. One browser
// process is shared; each Render opens a tab, bounded by a semaphore.
type ChromedpRenderer struct {
	allocatorCancel context.CancelFunc
	browserCtx      context.Context
	browserCancel   context.CancelFunc
	logger          *zap.Logger
	sem             chan struct{}
	timeout         time.Duration
	userAgent       string
}

// NewChromedpRenderer starts the browser, or returns ErrRendererDisabled
// when the config turns rendering off.
func NewChromedpRenderer(cfg RendererConfig, logger *zap.Logger) (*ChromedpRenderer, error) {
	if !cfg.Enabled || cfg.MaxConcurrency <= 0 {
		return nil, ErrRendererDisabled
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.UserAgent(cfg.UserAgent),
	)
	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocatorCancel()
		return nil, fmt.Errorf("chromedp warmup: %w", err)
	}

	return &ChromedpRenderer{
		allocatorCancel: allocatorCancel,
		browserCtx:      browserCtx,
		browserCancel:   browserCancel,
		logger:          logger,
		sem:             make(chan struct{}, cfg.MaxConcurrency),
		timeout:         cfg.Timeout,
		userAgent:       cfg.UserAgent,
	}, nil
}

// Close tears down the browser and allocator.
func (r *ChromedpRenderer) Close(context.Context) error {
	if r == nil {
		return nil
	}
	r.browserCancel()
	r.allocatorCancel()
	return nil
}

// Render implements Renderer.
func (r *ChromedpRenderer) Render(ctx context.Context, rawURL string) (Page, error) {
	if r == nil {
		return Page{}, ErrRendererDisabled
	}

	select {
	case r.sem <- struct{}{}:
		defer func() { <-r.sem }()
	case <-ctx.Done():
		return Page{}, fmt.Errorf("acquire render slot: %w", ctx.Err())
	}

	start := time.Now()
	tabCtx, cancelTab := chromedp.NewContext(r.browserCtx)
	defer cancelTab()
	taskCtx, cancelTask := context.WithTimeout(tabCtx, r.timeout)
	defer cancelTask()

	stop := forwardCancel(ctx, cancelTask)
	defer stop()

	meta := &responseMeta{}
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		resp, ok := ev.(*network.EventResponseReceived)
		if !ok || resp.Type != network.ResourceTypeDocument {
			return
		}
		meta.once.Do(func() {
			meta.statusCode = int(resp.Response.Status)
			meta.url = resp.Response.URL
		})
	})

	var html string
	tasks := chromedp.Tasks{
		network.Enable(),
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if err := chromedp.Run(taskCtx, tasks); err != nil {
		return Page{}, fmt.Errorf("chromedp run: %w", err)
	}

	finalURL := meta.url
	if finalURL == "" {
		finalURL = rawURL
	}
	statusCode := meta.statusCode
	if statusCode == 0 {
		statusCode = 200
	}
	r.logger.Debug("rendered page", zap.String("url", rawURL), zap.Duration("elapsed", time.Since(start)))

	return Page{
		URL:          rawURL,
		FinalURL:     finalURL,
		StatusCode:   statusCode,
		Body:         []byte(html),
		UsedRenderer: true,
		Elapsed:      time.Since(start),
	}, nil
}

type responseMeta struct {
	once       sync.Once
	statusCode int
	url        string
}

func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
