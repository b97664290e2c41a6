package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/aluiziolira/go-site-scraper/extractor"
	"github.com/aluiziolira/go-site-scraper/models"
	"github.com/aluiziolira/go-site-scraper/parser"
)

// Sink receives everything a crawl produces.
type Sink interface {
	extractor.RecordSink
	EmitLink(link string) error
	SavePage(rawURL string, body []byte) (string, error)
}

// Crawler drives fetch, discover, and extract cycles over a frontier, with at most
// maxConnections cycles in flight. It enforces no depth or page limit; callers that need
// one must bound the site or cancel the context.
type Crawler struct {
	fetcher        Fetcher
	engine         *extractor.Engine
	metrics        *Metrics
	maxConnections int
}

// NewCrawler creates a crawler. maxConnections below one is treated as one.
func NewCrawler(fetcher Fetcher, engine *extractor.Engine, metrics *Metrics, maxConnections int) *Crawler {
	if maxConnections < 1 {
		maxConnections = 1
	}
	return &Crawler{
		fetcher:        fetcher,
		engine:         engine,
		metrics:        metrics,
		maxConnections: maxConnections,
	}
}

// Run crawls every page reachable from seed on the seed's host, applying patterns to each.
// Per-URL failures are logged and recorded in the result; only an unparsable seed is an
// error. Cancelling ctx stops dispatching new URLs and waits for in-flight ones.
func (c *Crawler) Run(ctx context.Context, seed string, patterns []models.Pattern, sink Sink) (*models.RunResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	scope, err := url.Parse(seed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}
	if !scope.IsAbs() || scope.Host == "" {
		return nil, fmt.Errorf("%w: %q is not absolute", ErrInvalidSeed, seed)
	}

	compiled, patternErrs := c.engine.Compile(patterns)
	c.metrics.AddPatternErrors(len(patternErrs))

	slog.Info("staying within host", slog.String("host", scope.Hostname()))

	stats := newRunStats(time.Now())
	frontier := NewFrontier(scope.String())
	sem := semaphore.NewWeighted(int64(c.maxConnections))
	var wg sync.WaitGroup

dispatch:
	for {
		next, wait, ok := frontier.Next()
		if !ok {
			if wait == nil {
				break
			}
			select {
			case <-wait:
				continue
			case <-ctx.Done():
				break dispatch
			}
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			frontier.Done()
			break
		}

		wg.Add(1)
		go func(target string) {
			defer wg.Done()
			defer frontier.Done()
			defer sem.Release(1)

			c.metrics.TrackInFlight(1)
			defer c.metrics.TrackInFlight(-1)

			c.visit(ctx, scope, target, compiled, frontier, sink, stats)
		}(next)
	}

	wg.Wait()
	if ctx.Err() != nil {
		slog.Warn("crawl interrupted", slog.Int("pending", frontier.Len()), slog.Any("error", ctx.Err()))
	}
	slog.Info("crawl finished", slog.Int("visited", frontier.Visited()))
	return stats.result(time.Now()), nil
}

func (c *Crawler) visit(ctx context.Context, scope *url.URL, target string, compiled []extractor.Compiled, frontier *Frontier, sink Sink, stats *runStats) {
	slog.Info("visiting", slog.String("url", target))

	page, ok := c.fetchPage(ctx, target, stats)
	if !ok {
		return
	}

	if saved, err := sink.SavePage(target, page.Body); err != nil {
		slog.Error("saving page failed", slog.String("url", target), slog.Any("error", err))
	} else if saved != "" {
		slog.Debug("page saved", slog.String("url", target), slog.String("path", saved))
	}

	doc, err := parser.ParseDocument(page.Body)
	if err != nil {
		slog.Error("parse failed", slog.String("url", target), slog.Any("error", err))
		return
	}

	base, err := url.Parse(page.URL)
	if err != nil || page.URL == "" {
		base, _ = url.Parse(target)
	}
	if base != nil && base.Hostname() == scope.Hostname() {
		for _, link := range frontier.Push(parser.ExtractLinks(doc, base)...) {
			stats.addLink()
			c.metrics.IncLinks()
			if err := sink.EmitLink(link); err != nil {
				slog.Error("saving link failed", slog.String("link", link), slog.Any("error", err))
			}
		}
	} else {
		slog.Warn("page left the crawl host, not following its links",
			slog.String("url", target),
			slog.String("final_url", page.URL),
		)
	}

	n, err := c.engine.Apply(page.Body, doc, compiled, sink)
	stats.addRecords(n)
	c.metrics.AddRecords(n)
	if err != nil {
		slog.Error("some records were not saved", slog.String("url", target), slog.Any("error", err))
	}
}

// fetchPage fetches target and accounts for the outcome in stats and metrics.
func (c *Crawler) fetchPage(ctx context.Context, target string, stats *runStats) (*Page, bool) {
	page, err := c.fetcher.Fetch(ctx, target)
	if err != nil {
		category := errorTypeLabel(err)
		stats.fail(target, category)
		c.metrics.IncError(category)
		slog.Error("request error",
			slog.String("url", target),
			slog.String("category", category),
			slog.Any("error", err),
		)
		return nil, false
	}
	stats.addPage()
	c.metrics.IncPages()
	return page, true
}

// runStats accumulates the counters of one run.
type runStats struct {
	start time.Time

	mu           sync.Mutex
	pages        int
	records      int
	links        int
	errorCount   int
	failedURLs   []string
	errorsByType map[string]int
}

func newRunStats(start time.Time) *runStats {
	return &runStats{start: start, errorsByType: make(map[string]int)}
}

func (s *runStats) addPage() {
	s.mu.Lock()
	s.pages++
	s.mu.Unlock()
}

func (s *runStats) addRecords(n int) {
	s.mu.Lock()
	s.records += n
	s.mu.Unlock()
}

func (s *runStats) addLink() {
	s.mu.Lock()
	s.links++
	s.mu.Unlock()
}

func (s *runStats) fail(target, category string) {
	s.mu.Lock()
	s.errorCount++
	s.failedURLs = append(s.failedURLs, target)
	s.errorsByType[category]++
	s.mu.Unlock()
}

func (s *runStats) result(end time.Time) *models.RunResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	failed := make([]string, len(s.failedURLs))
	copy(failed, s.failedURLs)
	byType := make(map[string]int, len(s.errorsByType))
	for k, v := range s.errorsByType {
		byType[k] = v
	}

	return &models.RunResult{
		StartTime:    s.start,
		EndTime:      end,
		PageCount:    s.pages,
		RecordCount:  s.records,
		LinkCount:    s.links,
		ErrorCount:   s.errorCount,
		FailedURLs:   failed,
		ErrorsByType: byType,
	}
}
