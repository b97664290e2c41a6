package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/aluiziolira/go-site-scraper/config"
)

// Page is a successfully fetched document.
type Page struct {
	URL        string // final URL after redirects
	StatusCode int
	Body       []byte
}

// Fetcher retrieves one URL. Errors are FetchError values.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Page, error)
}

// CollyFetcher fetches pages with a colly collector. Link following and de-duplication are
// left to the crawler, so every call visits its URL exactly once.
type CollyFetcher struct {
	collector *colly.Collector
	metrics   *Metrics
}

// NewCollyFetcher builds a fetcher configured from cfg. The limit rule lives on the shared
// backend, so the delay applies across every concurrent fetch to the same host.
func NewCollyFetcher(cfg *config.Config, metrics *Metrics) (*CollyFetcher, error) {
	opts := []colly.CollectorOption{
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	}
	if !cfg.RespectRobotsTxt {
		opts = append(opts, colly.IgnoreRobotsTxt())
	}
	collector := colly.NewCollector(opts...)

	collector.SetRequestTimeout(cfg.Timeout)
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: cfg.MaxConnections,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: cfg.MaxConnections,
		Delay:       cfg.Delay,
	}); err != nil {
		return nil, fmt.Errorf("configure rate limits: %w", err)
	}

	return &CollyFetcher{collector: collector, metrics: metrics}, nil
}

// WithTransport replaces the HTTP transport used for every fetch.
func (f *CollyFetcher) WithTransport(rt http.RoundTripper) {
	f.collector.WithTransport(rt)
}

// Fetch performs a GET for rawURL. Non-success statuses are errors.
func (f *CollyFetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	c := f.collector.Clone()
	c.Context = ctx

	var (
		page       *Page
		statusCode int
	)
	c.OnRequest(func(r *colly.Request) {
		f.metrics.IncRequest("started")
	})
	c.OnResponse(func(r *colly.Response) {
		page = &Page{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       r.Body,
		}
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			statusCode = r.StatusCode
		}
	})

	start := time.Now()
	err := c.Visit(rawURL)
	f.metrics.ObserveDuration(time.Since(start))

	if err != nil {
		f.metrics.IncRequest("failed")
		return nil, FetchError{URL: rawURL, Err: classifyError(err, statusCode)}
	}
	if page == nil {
		f.metrics.IncRequest("failed")
		return nil, FetchError{URL: rawURL, Err: errors.New("no response received")}
	}
	f.metrics.IncRequest("completed")
	return page, nil
}
