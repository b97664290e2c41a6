package config

import (
	"net/url"
	"strings"

	"github.com/aluiziolira/go-site-scraper/models"
)

// Mode is the kind of work a run performs.
type Mode int

const (
	// ModeCrawl follows same-host links from the seed and extracts from every page.
	ModeCrawl Mode = iota + 1
	// ModeScrape extracts from the seed page only.
	ModeScrape
	// ModeListSelectors lists the CSS identifiers in the seed page's stylesheets.
	ModeListSelectors
)

func (m Mode) String() string {
	switch m {
	case ModeCrawl:
		return "crawl"
	case ModeScrape:
		return "scrape"
	case ModeListSelectors:
		return "list_selectors"
	default:
		return "unknown"
	}
}

// Plan is the resolved form of a Config: one mode, one seed, and typed patterns.
type Plan struct {
	Mode     Mode
	Seed     *url.URL
	Patterns []models.Pattern
}

// Resolve validates the config and selects the run mode.
func (c *Config) Resolve() (*Plan, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var modes []Mode
	if c.Crawl {
		modes = append(modes, ModeCrawl)
	}
	if c.Scrape {
		modes = append(modes, ModeScrape)
	}
	if c.ListSelectors {
		modes = append(modes, ModeListSelectors)
	}
	switch {
	case len(modes) == 0:
		return nil, ErrNoMode
	case len(modes) > 1:
		return nil, ErrConflictingModes
	}

	patterns, err := c.Patterns()
	if err != nil {
		return nil, err
	}
	if modes[0] == ModeScrape && len(patterns) == 0 {
		return nil, ErrNoPatterns
	}

	seed, err := c.SeedURL()
	if err != nil {
		return nil, err
	}

	return &Plan{Mode: modes[0], Seed: seed, Patterns: patterns}, nil
}

// Patterns returns the configured extraction patterns in the order given.
func (c *Config) Patterns() ([]models.Pattern, error) {
	selectors := SplitSelectors(c.Selectors)
	if len(selectors) > 0 && len(c.Regex) > 0 {
		return nil, ErrConflictingPatterns
	}

	patterns := make([]models.Pattern, 0, len(selectors)+len(c.Regex))
	for _, sel := range selectors {
		patterns = append(patterns, models.CSS(sel))
	}
	for _, expr := range c.Regex {
		if expr == "" {
			continue
		}
		patterns = append(patterns, models.Regex(expr))
	}
	return patterns, nil
}

// SplitSelectors splits a comma-separated selector list, dropping blanks.
func SplitSelectors(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
