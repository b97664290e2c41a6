package config

import "errors"

// Configuration errors returned by Validate, Resolve, and ParseInterval.
// Callers match them with errors.Is; every one of them aborts a run before any fetch.
var (
	ErrEmptyBaseURL          = errors.New("base URL cannot be empty")
	ErrInvalidBaseURL        = errors.New("invalid base URL")
	ErrInvalidMaxConnections = errors.New("max connections must be positive")
	ErrInvalidTimeout        = errors.New("timeout must be positive")
	ErrInvalidDelay          = errors.New("delay cannot be negative")
	ErrInvalidOutputFormat   = errors.New("output format must be csv, json, or dual")
	ErrEmptyOutputFile       = errors.New("output file cannot be empty")
	ErrEmptyResultsDir       = errors.New("results directory cannot be empty")
	ErrEmptyUserAgent        = errors.New("user agent cannot be empty")
	ErrInvalidInterval       = errors.New("interval must be HH:MM:SS")

	// ErrNoMode is returned when none of crawl, scrape, or list selectors is requested.
	ErrNoMode = errors.New("no run mode selected: use crawl, scrape, or list selectors")
	// ErrConflictingModes is returned when more than one run mode is requested.
	ErrConflictingModes = errors.New("conflicting run modes: choose one of crawl, scrape, or list selectors")
	// ErrConflictingPatterns is returned when both CSS selectors and regex patterns are given.
	ErrConflictingPatterns = errors.New("conflicting patterns: selectors and regex cannot be used together")
	// ErrNoPatterns is returned when scrape mode has nothing to extract.
	ErrNoPatterns = errors.New("scrape mode requires selectors or regex patterns")
)
