// Package scraper runs crawls, single-page scrapes, and selector listings against a site.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aluiziolira/go-site-scraper/config"
	"github.com/aluiziolira/go-site-scraper/extractor"
	"github.com/aluiziolira/go-site-scraper/models"
	"github.com/aluiziolira/go-site-scraper/parser"
	"github.com/aluiziolira/go-site-scraper/pipeline"
)

// Scraper executes the resolved plan of a config. One Scraper can run many times; each run
// gets a fresh timestamp, frontier, and set of output files.
type Scraper struct {
	cfg     *config.Config
	plan    *config.Plan
	fetcher Fetcher
	engine  *extractor.Engine
	Metrics *Metrics

	now func() time.Time
}

// NewScraper validates cfg and builds a scraper with a colly-backed fetcher.
func NewScraper(cfg *config.Config) (*Scraper, error) {
	plan, err := cfg.Resolve()
	if err != nil {
		return nil, err
	}

	engine, err := extractor.NewEngine(cfg.PatternCacheSize)
	if err != nil {
		return nil, err
	}

	metrics := NewMetrics()
	fetcher, err := NewCollyFetcher(cfg, metrics)
	if err != nil {
		return nil, err
	}
	return &Scraper{
		cfg:     cfg,
		plan:    plan,
		fetcher: fetcher,
		engine:  engine,
		Metrics: metrics,
		now:     time.Now,
	}, nil
}

// Plan returns the resolved run plan.
func (s *Scraper) Plan() *config.Plan {
	return s.plan
}

// Run performs one run of the configured mode.
func (s *Scraper) Run(ctx context.Context) (*models.RunResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	start := s.now()
	timestamp := models.RunTimestamp(start)

	p, err := s.newPipeline(timestamp)
	if err != nil {
		return nil, err
	}
	if s.cfg.Verbose {
		p.StartMetricsReporting(10 * time.Second)
	}

	seed := s.plan.Seed.String()
	var result *models.RunResult
	switch s.plan.Mode {
	case config.ModeCrawl:
		crawler := NewCrawler(s.fetcher, s.engine, s.Metrics, s.cfg.MaxConnections)
		result, err = crawler.Run(ctx, seed, s.plan.Patterns, p)
	case config.ModeScrape:
		result = s.scrapePage(ctx, seed, p)
	case config.ModeListSelectors:
		result = s.listSelectors(ctx, seed, p)
	default:
		err = fmt.Errorf("unsupported mode %s", s.plan.Mode)
	}

	closeErr := p.Close()
	if err != nil {
		return nil, errors.Join(err, closeErr)
	}
	if closeErr != nil {
		return result, fmt.Errorf("close outputs: %w", closeErr)
	}

	result.Mode = s.plan.Mode.String()
	result.Timestamp = timestamp
	result.StartTime = start
	result.EndTime = s.now()
	return result, nil
}

func (s *Scraper) newPipeline(timestamp string) (*pipeline.Pipeline, error) {
	var opts pipeline.Options
	switch s.plan.Mode {
	case config.ModeCrawl, config.ModeScrape:
		writer, err := pipeline.NewOutputWriter(s.cfg.OutputFormat, s.cfg.OutputFile)
		if err != nil {
			return nil, err
		}
		opts.Records = writer
		if s.plan.Mode == config.ModeCrawl {
			opts.LinksFile = filepath.Join(s.cfg.ResultsDir, timestamp+"_crawl_results.txt")
			if s.cfg.FullDownload {
				opts.DownloadDir = s.cfg.OutputFolder
			}
		}
	case config.ModeListSelectors:
		opts.SelectorsFile = filepath.Join(s.cfg.ResultsDir, timestamp+"_selectors.txt")
	}
	return pipeline.NewPipeline(opts), nil
}

// scrapePage extracts from the seed page only.
func (s *Scraper) scrapePage(ctx context.Context, seed string, p *pipeline.Pipeline) *models.RunResult {
	stats := newRunStats(s.now())
	crawler := NewCrawler(s.fetcher, s.engine, s.Metrics, 1)

	compiled, patternErrs := s.engine.Compile(s.plan.Patterns)
	s.Metrics.AddPatternErrors(len(patternErrs))

	page, ok := crawler.fetchPage(ctx, seed, stats)
	if !ok {
		return stats.result(s.now())
	}
	slog.Info("page fetched", slog.String("url", seed), slog.Int("bytes", len(page.Body)))

	n, err := s.engine.Apply(page.Body, nil, compiled, p)
	stats.addRecords(n)
	s.Metrics.AddRecords(n)
	if err != nil {
		slog.Error("some records were not saved", slog.String("url", seed), slog.Any("error", err))
	}
	return stats.result(s.now())
}

// listSelectors lists the stylesheet identifiers of the seed page and saves them.
func (s *Scraper) listSelectors(ctx context.Context, seed string, p *pipeline.Pipeline) *models.RunResult {
	stats := newRunStats(s.now())
	crawler := NewCrawler(s.fetcher, s.engine, s.Metrics, 1)

	page, ok := crawler.fetchPage(ctx, seed, stats)
	if !ok {
		return stats.result(s.now())
	}

	doc, err := parser.ParseDocument(page.Body)
	if err != nil {
		slog.Error("parse failed", slog.String("url", seed), slog.Any("error", err))
		return stats.result(s.now())
	}

	selectors := parser.ListSelectors(doc, s.cfg.IncludeDuplicates)
	slog.Info("selectors extracted", slog.Int("count", len(selectors)))
	if err := p.EmitSelectors(selectors); err != nil {
		slog.Error("saving selectors failed", slog.Any("error", err))
	}

	result := stats.result(s.now())
	result.Selectors = selectors
	return result
}
