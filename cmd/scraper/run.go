package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aluiziolira/go-site-scraper/config"
	"github.com/aluiziolira/go-site-scraper/models"
	"github.com/aluiziolira/go-site-scraper/scraper"
)

func startMetricsServer(addr string, metrics *scraper.Metrics) *http.Server {
	if addr == "" || metrics == nil {
		return nil
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", slog.Any("error", err))
		}
	}()
	slog.Info("metrics server enabled", slog.String("addr", addr))
	return server
}

func stopMetricsServer(server *http.Server) {
	if server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("metrics server shutdown failed", slog.Any("error", err))
	}
}

func printSummary(w io.Writer, result *models.RunResult, cfg *config.Config) {
	separator := "--------------------------------------------------"
	fmt.Fprintln(w, "\n"+separator)
	fmt.Fprintf(w, "Run complete (%s)\n", result.Mode)

	fmt.Fprintf(w, "  Pages visited: %d\n", result.PageCount)
	switch result.Mode {
	case "list_selectors":
		fmt.Fprintf(w, "  Selectors:     %d\n", len(result.Selectors))
		fmt.Fprintf(w, "  Selector file: %s\n", filepath.Join(cfg.ResultsDir, result.Timestamp+"_selectors.txt"))
	default:
		fmt.Fprintf(w, "  Records:       %d\n", result.RecordCount)
		if result.Mode == "crawl" {
			fmt.Fprintf(w, "  Links found:   %d\n", result.LinkCount)
			fmt.Fprintf(w, "  Link file:     %s\n", filepath.Join(cfg.ResultsDir, result.Timestamp+"_crawl_results.txt"))
		}
		fmt.Fprintf(w, "  Output file:   %s\n", cfg.OutputFile)
	}

	fmt.Fprintf(w, "  Errors:        %d\n", result.ErrorCount)
	if len(result.ErrorsByType) > 0 {
		types := make([]string, 0, len(result.ErrorsByType))
		for k := range result.ErrorsByType {
			types = append(types, k)
		}
		sort.Strings(types)
		for _, k := range types {
			fmt.Fprintf(w, "    %-12s %d\n", k+":", result.ErrorsByType[k])
		}
	}
	duration := result.Duration()
	fmt.Fprintf(w, "  Duration:      %v\n", duration.Round(time.Millisecond))
	if duration.Seconds() > 0 && result.PageCount > 0 {
		fmt.Fprintf(w, "  Pages/sec:     %.2f\n", float64(result.PageCount)/duration.Seconds())
	}
	fmt.Fprintln(w, separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
