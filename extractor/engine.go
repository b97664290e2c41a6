// Package extractor applies CSS selectors or regular expressions to fetched pages and emits
// one record per match.
package extractor

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aluiziolira/go-site-scraper/models"
	"github.com/aluiziolira/go-site-scraper/parser"
)

// DefaultCacheSize bounds the compiled-pattern cache when no size is given.
const DefaultCacheSize = 256

// RecordSink receives records as soon as they are produced.
type RecordSink interface {
	EmitRecord(rec models.Record) error
}

// Compiled is a pattern that compiled successfully.
type Compiled struct {
	Pattern models.Pattern
	css     cascadia.Selector
	re      *regexp.Regexp
}

type cacheEntry struct {
	compiled Compiled
	err      error
}

// Engine compiles patterns once and applies them to any number of pages.
// Compilation results, failures included, are cached by pattern.
type Engine struct {
	cache *lru.Cache[models.Pattern, cacheEntry]
}

// NewEngine creates an engine whose cache holds up to cacheSize patterns.
func NewEngine(cacheSize int) (*Engine, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[models.Pattern, cacheEntry](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create pattern cache: %w", err)
	}
	return &Engine{cache: cache}, nil
}

// Compile returns the usable patterns in input order. Invalid patterns are logged,
// skipped, and reported as PatternError values.
func (e *Engine) Compile(patterns []models.Pattern) ([]Compiled, []error) {
	compiled := make([]Compiled, 0, len(patterns))
	var errs []error
	for _, p := range patterns {
		c, err := e.compile(p)
		if err != nil {
			slog.Warn("skipping invalid pattern",
				slog.String("kind", p.Kind.String()),
				slog.String("pattern", p.Expr),
				slog.Any("error", err),
			)
			errs = append(errs, err)
			continue
		}
		compiled = append(compiled, c)
	}
	return compiled, errs
}

func (e *Engine) compile(p models.Pattern) (Compiled, error) {
	if entry, ok := e.cache.Get(p); ok {
		return entry.compiled, entry.err
	}

	entry := cacheEntry{compiled: Compiled{Pattern: p}}
	switch p.Kind {
	case models.PatternCSS:
		sel, err := cascadia.Compile(p.Expr)
		if err != nil {
			entry.err = PatternError{Pattern: p, Err: err}
		} else {
			entry.compiled.css = sel
		}
	case models.PatternRegex:
		re, err := regexp.Compile(p.Expr)
		if err != nil {
			entry.err = PatternError{Pattern: p, Err: err}
		} else {
			entry.compiled.re = re
		}
	default:
		entry.err = PatternError{Pattern: p, Err: fmt.Errorf("unknown pattern kind %d", p.Kind)}
	}

	e.cache.Add(p, entry)
	return entry.compiled, entry.err
}

// Apply runs each compiled pattern against the page and emits one record per match, pattern
// by pattern. CSS patterns match elements of doc in document order and yield their trimmed
// text. Regex patterns match the raw body left to right, non-overlapping, and yield the whole
// match. doc is parsed from body when nil and a CSS pattern needs it.
//
// A sink failure is logged and extraction continues; the failures are returned joined along
// with the number of records the sink accepted.
func (e *Engine) Apply(body []byte, doc *goquery.Document, compiled []Compiled, sink RecordSink) (int, error) {
	var (
		emitted int
		errs    []error
		text    string
		textSet bool
	)

	emit := func(p models.Pattern, content string) {
		if err := sink.EmitRecord(models.Record{Content: content}); err != nil {
			slog.Warn("record write failed",
				slog.String("pattern", p.Expr),
				slog.Any("error", err),
			)
			errs = append(errs, err)
			return
		}
		emitted++
	}

	for _, c := range compiled {
		switch {
		case c.css != nil:
			if doc == nil {
				parsed, err := parser.ParseDocument(body)
				if err != nil {
					return emitted, errors.Join(append(errs, err)...)
				}
				doc = parsed
			}
			for _, node := range doc.FindMatcher(c.css).Nodes {
				emit(c.Pattern, parser.NodeText(node))
			}
		case c.re != nil:
			if !textSet {
				text = string(body)
				textSet = true
			}
			for _, match := range c.re.FindAllString(text, -1) {
				emit(c.Pattern, match)
			}
		}
	}

	return emitted, errors.Join(errs...)
}
