package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aluiziolira/go-site-scraper/config"
	"github.com/aluiziolira/go-site-scraper/scraper"
)

// NewRootCmd creates the scraper command.
func NewRootCmd() *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "scraper",
		Short: "Crawl a site, scrape pages, or list stylesheet selectors",
		Long: `scraper fetches pages from a single site and extracts content from them.

Exactly one mode is required:
  --crawl           follow every same-host link from the start page and extract from each page
  --scrape          extract from the start page only
  --list_selectors  list the identifiers used in the start page's <style> elements

Extraction uses either CSS selectors (--use_selectors ".a, .b") or regular expressions
(--use_regex, repeatable). Records are appended to the output file as one JSON object per line.

Settings are read from the YAML file given with --config, then SCRAPER_* environment
variables, then flags; later sources win.

Examples:
  scraper -u https://example.com --crawl --use_selectors ".title" --max_connections 4
  scraper -u https://example.com -s /pricing --scrape --use_regex '\$[0-9]+'
  scraper -u https://example.com --list_selectors --include_duplicates
  scraper -c scraper.yaml --interval 01:00:00`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRoot,
	}

	f := cmd.Flags()
	f.StringP("config", "c", "", "YAML configuration file")
	f.StringP("base_url", "u", "", "Base URL of the site (required)")
	f.StringP("start_path", "s", defaults.StartPath, "Path of the start page, resolved against the base URL")

	f.Bool("crawl", false, "Crawl every same-host page reachable from the start page")
	f.Bool("scrape", false, "Extract from the start page only")
	f.Bool("list_selectors", false, "List the identifiers in the start page's <style> elements")

	f.String("use_selectors", "", "Comma separated CSS selectors to extract")
	f.StringArray("use_regex", nil, "Regular expression to extract (repeatable)")
	f.Bool("include_duplicates", false, "Keep repeated identifiers when listing selectors")

	f.Bool("full_download", false, "Save every crawled page to the output folder")
	f.String("output_folder", defaults.OutputFolder, "Directory for downloaded pages")
	f.StringP("output", "o", defaults.OutputFile, "File that records are appended to")
	f.String("format", defaults.OutputFormat, "Record format: json, csv, or dual")
	f.String("results_dir", defaults.ResultsDir, "Directory for link and selector lists")

	f.Int("max_connections", defaults.MaxConnections, "Maximum concurrent fetches")
	f.Duration("timeout", defaults.Timeout, "Timeout for each request")
	f.Duration("delay", defaults.Delay, "Delay between requests to the same host")
	f.String("user_agent", defaults.UserAgent, "User-Agent header sent with every request")
	f.Bool("respect_robots", defaults.RespectRobotsTxt, "Respect robots.txt directives")
	f.Int("pattern_cache_size", defaults.PatternCacheSize, "Number of compiled patterns kept between runs")

	f.String("interval", "", "Repeat the run with this period (HH:MM:SS)")
	f.String("metrics_addr", defaults.MetricsAddr, "Prometheus metrics listen address (e.g. :9090)")
	f.BoolP("verbose", "v", false, "Enable verbose logging")

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runRoot(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	// A bad period must stop the process before anything is fetched.
	var interval time.Duration
	if cfg.Interval != "" {
		if interval, err = config.ParseInterval(cfg.Interval); err != nil {
			return err
		}
	}

	logger, level := newLogger(cfg.Verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	s, err := scraper.NewScraper(cfg)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	plan := s.Plan()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, waiting for in-flight work to finish")
	}()

	metricsServer := startMetricsServer(cfg.MetricsAddr, s.Metrics)
	defer stopMetricsServer(metricsServer)

	slog.Info("starting",
		slog.String("mode", plan.Mode.String()),
		slog.String("seed", plan.Seed.String()),
		slog.Int("patterns", len(plan.Patterns)),
		slog.Int("max_connections", cfg.MaxConnections),
	)

	return runLoop(ctx, interval, func(ctx context.Context) error {
		result, err := s.Run(ctx)
		if err != nil {
			return fmt.Errorf("run failed: %w", err)
		}
		printSummary(cmd.OutOrStdout(), result, cfg)
		return nil
	})
}

// buildConfig layers the config file, SCRAPER_* environment variables, and explicitly set
// flags on top of the defaults.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()

	cfg := config.DefaultConfig()
	path, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	if path != "" {
		loaded, err := config.LoadFile(path)
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) {
				return nil, fmt.Errorf("%w: %s", err, path)
			}
			return nil, err
		}
		cfg = loaded
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	var errs []error
	str := func(name string, dst *string) {
		if flags.Changed(name) {
			v, err := flags.GetString(name)
			errs = append(errs, err)
			*dst = v
		}
	}
	boolean := func(name string, dst *bool) {
		if flags.Changed(name) {
			v, err := flags.GetBool(name)
			errs = append(errs, err)
			*dst = v
		}
	}
	integer := func(name string, dst *int) {
		if flags.Changed(name) {
			v, err := flags.GetInt(name)
			errs = append(errs, err)
			*dst = v
		}
	}
	duration := func(name string, dst *time.Duration) {
		if flags.Changed(name) {
			v, err := flags.GetDuration(name)
			errs = append(errs, err)
			*dst = v
		}
	}

	str("base_url", &cfg.BaseURL)
	str("start_path", &cfg.StartPath)
	boolean("crawl", &cfg.Crawl)
	boolean("scrape", &cfg.Scrape)
	boolean("list_selectors", &cfg.ListSelectors)
	str("use_selectors", &cfg.Selectors)
	if flags.Changed("use_regex") {
		v, err := flags.GetStringArray("use_regex")
		errs = append(errs, err)
		cfg.Regex = v
	}
	boolean("include_duplicates", &cfg.IncludeDuplicates)
	boolean("full_download", &cfg.FullDownload)
	str("output_folder", &cfg.OutputFolder)
	str("output", &cfg.OutputFile)
	str("format", &cfg.OutputFormat)
	str("results_dir", &cfg.ResultsDir)
	integer("max_connections", &cfg.MaxConnections)
	duration("timeout", &cfg.Timeout)
	duration("delay", &cfg.Delay)
	str("user_agent", &cfg.UserAgent)
	boolean("respect_robots", &cfg.RespectRobotsTxt)
	integer("pattern_cache_size", &cfg.PatternCacheSize)
	str("interval", &cfg.Interval)
	str("metrics_addr", &cfg.MetricsAddr)
	boolean("verbose", &cfg.Verbose)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	cfg.OutputFormat = strings.ToLower(cfg.OutputFormat)
	return cfg, nil
}

func applyEnv(cfg *config.Config) error {
	if value, ok := config.EnvString("SCRAPER_BASE_URL"); ok {
		cfg.BaseURL = value
	}
	if value, ok, err := config.EnvInt("SCRAPER_MAX_CONNECTIONS"); err != nil {
		return fmt.Errorf("invalid environment: %w", err)
	} else if ok {
		cfg.MaxConnections = value
	}
	if value, ok := config.EnvString("SCRAPER_OUTPUT"); ok {
		cfg.OutputFile = value
	}
	if value, ok := config.EnvString("SCRAPER_RESULTS_DIR"); ok {
		cfg.ResultsDir = value
	}
	if value, ok := config.EnvString("SCRAPER_INTERVAL"); ok {
		cfg.Interval = value
	}
	if value, ok := config.EnvString("SCRAPER_METRICS_ADDR"); ok {
		cfg.MetricsAddr = value
	}
	return nil
}

// runLoop calls run once, then again every interval until ctx is done. The wait starts
// when a run finishes. A zero interval means a single run.
func runLoop(ctx context.Context, interval time.Duration, run func(context.Context) error) error {
	for {
		if err := run(ctx); err != nil {
			return err
		}
		if interval <= 0 || ctx.Err() != nil {
			return nil
		}

		slog.Info("waiting for next run", slog.Duration("interval", interval))
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}
