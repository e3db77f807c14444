package crawler

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// CollyFetcher implements Fetcher over a shared Colly collector. Each Fetch
// clones the base collector so handlers never leak between requests.
type CollyFetcher struct {
	baseCollector *colly.Collector
	logger        *zap.Logger
}

// FetcherConfig holds the knobs CollyFetcher needs.
type FetcherConfig struct {
	UserAgent      string
	Concurrency    int
	RequestTimeout time.Duration
}

// NewCollyFetcher constructs the base collector with a shared transport.
func NewCollyFetcher(cfg FetcherConfig, logger *zap.Logger) (*CollyFetcher, error) {
	base := colly.NewCollector(
		colly.Async(true),
		colly.UserAgent(cfg.UserAgent),
	)
	base.AllowURLRevisit = true
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   16,
		MaxConnsPerHost:       cfg.Concurrency * 2,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.RequestTimeout,
		ForceAttemptHTTP2:     true,
	})
	base.SetRequestTimeout(cfg.RequestTimeout)

	if err := base.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: cfg.Concurrency,
	}); err != nil {
		return nil, err
	}

	return &CollyFetcher{baseCollector: base, logger: logger}, nil
}

// Fetch retrieves a page. Non-2xx responses come back as a Page with the
// status code set and a StatusError, so the caller can distinguish permanent
// from transient failures.
func (f *CollyFetcher) Fetch(ctx context.Context, rawURL string) (Page, error) {
	collector := f.baseCollector.Clone()
	start := time.Now()

	resultCh := make(chan fetchResult, 1)
	var once sync.Once
	send := func(res fetchResult) {
		once.Do(func() { resultCh <- res })
	}

	collector.OnResponse(func(r *colly.Response) {
		send(fetchResult{page: Page{
			URL:        rawURL,
			FinalURL:   r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       append([]byte{}, r.Body...),
		}})
	})

	collector.OnError(func(r *colly.Response, err error) {
		res := fetchResult{err: err}
		if res.err == nil {
			res.err = errors.New("unknown colly error")
		}
		if r != nil && r.StatusCode > 0 {
			res.page = Page{
				URL:        rawURL,
				FinalURL:   rawURL,
				StatusCode: r.StatusCode,
				Body:       append([]byte{}, r.Body...),
			}
			res.err = &StatusError{Code: r.StatusCode}
		}
		send(res)
	})

	if err := collector.Visit(rawURL); err != nil {
		return Page{}, err
	}
	collector.Wait()

	select {
	case res := <-resultCh:
		if err := ctx.Err(); err != nil {
			return Page{}, err
		}
		res.page.Elapsed = time.Since(start)
		return res.page, res.err
	default:
		return Page{}, errors.New("fetch produced no result")
	}
}

type fetchResult struct {
	page Page
	err  error
}
