package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds the immutable settings for one scraper run.
type Config struct {
	BaseURL           string        `yaml:"base_url"`
	StartPath         string        `yaml:"start_path"`
	Crawl             bool          `yaml:"crawl"`
	Scrape            bool          `yaml:"scrape"`
	ListSelectors     bool          `yaml:"list_selectors"`
	Selectors         string        `yaml:"use_selectors"` // comma separated
	Regex             []string      `yaml:"use_regex"`
	IncludeDuplicates bool          `yaml:"include_duplicates"`
	FullDownload      bool          `yaml:"full_download"`
	OutputFolder      string        `yaml:"output_folder"`
	MaxConnections    int           `yaml:"max_connections"`
	Interval          string        `yaml:"interval"`
	Timeout           time.Duration `yaml:"timeout"`
	Delay             time.Duration `yaml:"delay"`
	UserAgent         string        `yaml:"user_agent"`
	RespectRobotsTxt  bool          `yaml:"respect_robots_txt"`
	OutputFile        string        `yaml:"output_file"`
	OutputFormat      string        `yaml:"output_format"` // csv, json, or dual
	ResultsDir        string        `yaml:"results_dir"`
	PatternCacheSize  int           `yaml:"pattern_cache_size"`
	Verbose           bool          `yaml:"verbose"`
	MetricsAddr       string        `yaml:"metrics_addr"`
}

// DefaultConfig returns defaults for everything except the base URL and run mode.
func DefaultConfig() *Config {
	return &Config{
		StartPath:        "/",
		OutputFolder:     "downloads",
		MaxConnections:   10,
		Timeout:          10 * time.Second,
		UserAgent:        "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		OutputFile:       "output.json",
		OutputFormat:     "json",
		ResultsDir:       "Results",
		PatternCacheSize: 256,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrEmptyBaseURL
	}
	if _, err := parseBaseURL(c.BaseURL); err != nil {
		return err
	}
	if c.MaxConnections <= 0 {
		return ErrInvalidMaxConnections
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Delay < 0 {
		return ErrInvalidDelay
	}
	if c.OutputFile == "" {
		return ErrEmptyOutputFile
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return ErrInvalidOutputFormat
	}
	if c.ResultsDir == "" {
		return ErrEmptyResultsDir
	}
	if c.UserAgent == "" {
		return ErrEmptyUserAgent
	}
	if c.Interval != "" {
		if _, err := ParseInterval(c.Interval); err != nil {
			return err
		}
	}
	return nil
}

// SeedURL is the base URL resolved against the start path.
func (c *Config) SeedURL() (*url.URL, error) {
	base, err := parseBaseURL(c.BaseURL)
	if err != nil {
		return nil, err
	}
	if c.StartPath == "" {
		return base, nil
	}
	start, err := url.Parse(c.StartPath)
	if err != nil {
		return nil, fmt.Errorf("%w: start path %q: %v", ErrInvalidBaseURL, c.StartPath, err)
	}
	return base.ResolveReference(start), nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if !parsed.IsAbs() || parsed.Host == "" {
		return nil, fmt.Errorf("%w: %q must be absolute with a host", ErrInvalidBaseURL, raw)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidBaseURL, parsed.Scheme)
	}
	return parsed, nil
}
