package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aluiziolira/go-site-scraper/models"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.BaseURL = "https://example.com"
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "empty base url",
			mutate:  func(cfg *Config) { cfg.BaseURL = "" },
			wantErr: ErrEmptyBaseURL,
		},
		{
			name:    "relative base url",
			mutate:  func(cfg *Config) { cfg.BaseURL = "/just/a/path" },
			wantErr: ErrInvalidBaseURL,
		},
		{
			name:    "missing host",
			mutate:  func(cfg *Config) { cfg.BaseURL = "http://" },
			wantErr: ErrInvalidBaseURL,
		},
		{
			name:    "unsupported scheme",
			mutate:  func(cfg *Config) { cfg.BaseURL = "ftp://example.com" },
			wantErr: ErrInvalidBaseURL,
		},
		{
			name:    "zero max connections",
			mutate:  func(cfg *Config) { cfg.MaxConnections = 0 },
			wantErr: ErrInvalidMaxConnections,
		},
		{
			name:    "negative timeout",
			mutate:  func(cfg *Config) { cfg.Timeout = -1 * time.Second },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "bad output format",
			mutate:  func(cfg *Config) { cfg.OutputFormat = "xml" },
			wantErr: ErrInvalidOutputFormat,
		},
		{
			name:    "malformed interval",
			mutate:  func(cfg *Config) { cfg.Interval = "10:00" },
			wantErr: ErrInvalidInterval,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultConfigNeedsOnlyBaseURL(t *testing.T) {
	if err := DefaultConfig().Validate(); !errors.Is(err, ErrEmptyBaseURL) {
		t.Fatalf("default config without base url: got %v", err)
	}
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("default config with base url should validate, got %v", err)
	}
}

func TestResolveModes(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		wantMode Mode
		wantErr  error
	}{
		{name: "no mode", mutate: func(*Config) {}, wantErr: ErrNoMode},
		{
			name:     "crawl without patterns",
			mutate:   func(cfg *Config) { cfg.Crawl = true },
			wantMode: ModeCrawl,
		},
		{
			name: "scrape with selectors",
			mutate: func(cfg *Config) {
				cfg.Scrape = true
				cfg.Selectors = ".title, h1"
			},
			wantMode: ModeScrape,
		},
		{
			name:    "scrape without patterns",
			mutate:  func(cfg *Config) { cfg.Scrape = true },
			wantErr: ErrNoPatterns,
		},
		{
			name:     "list selectors",
			mutate:   func(cfg *Config) { cfg.ListSelectors = true },
			wantMode: ModeListSelectors,
		},
		{
			name: "crawl and scrape",
			mutate: func(cfg *Config) {
				cfg.Crawl = true
				cfg.Scrape = true
			},
			wantErr: ErrConflictingModes,
		},
		{
			name: "selectors and regex",
			mutate: func(cfg *Config) {
				cfg.Scrape = true
				cfg.Selectors = "h1"
				cfg.Regex = []string{`\d+`}
			},
			wantErr: ErrConflictingPatterns,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			plan, err := cfg.Resolve()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Resolve() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() unexpected error: %v", err)
			}
			if plan.Mode != tt.wantMode {
				t.Fatalf("mode = %s, want %s", plan.Mode, tt.wantMode)
			}
		})
	}
}

func TestResolvePatternsAndSeed(t *testing.T) {
	cfg := validConfig()
	cfg.BaseURL = "https://example.com/docs/"
	cfg.StartPath = "intro.html"
	cfg.Scrape = true
	cfg.Regex = []string{`[a-z]+@[a-z]+\.com`, "", `\d{3}`}

	plan, err := cfg.Resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got := plan.Seed.String(); got != "https://example.com/docs/intro.html" {
		t.Fatalf("seed = %q", got)
	}
	want := []models.Pattern{models.Regex(`[a-z]+@[a-z]+\.com`), models.Regex(`\d{3}`)}
	if len(plan.Patterns) != len(want) {
		t.Fatalf("patterns = %v, want %v", plan.Patterns, want)
	}
	for i := range want {
		if plan.Patterns[i] != want[i] {
			t.Fatalf("pattern[%d] = %v, want %v", i, plan.Patterns[i], want[i])
		}
	}
}

func TestSplitSelectors(t *testing.T) {
	got := SplitSelectors(" .title ,, div > p ,")
	if len(got) != 2 || got[0] != ".title" || got[1] != "div > p" {
		t.Fatalf("SplitSelectors = %q", got)
	}
	if got := SplitSelectors("   "); got != nil {
		t.Fatalf("blank input = %q, want nil", got)
	}
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{input: "00:00:30", want: 30 * time.Second},
		{input: "01:30:00", want: 90 * time.Minute},
		{input: "2:0:5", want: 2*time.Hour + 5*time.Second},
		{input: "10:00", wantErr: true},
		{input: "00:00:00:01", wantErr: true},
		{input: "aa:bb:cc", wantErr: true},
		{input: "01:-1:00", wantErr: true},
		{input: "", wantErr: true},
		{input: "2562047:00:00", want: 2562047 * time.Hour},
		{input: "9999999999:00:00", wantErr: true},
		{input: "2562047:47:17", wantErr: true},
		{input: "0:0:9223372036854775807", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseInterval(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInterval) {
					t.Fatalf("ParseInterval(%q) error = %v, want ErrInvalidInterval", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseInterval(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Fatalf("ParseInterval(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scraper.yaml")
	content := `base_url: https://example.com
crawl: true
use_selectors: "h1, .title"
max_connections: 3
timeout: 5s
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BaseURL != "https://example.com" || !cfg.Crawl || cfg.MaxConnections != 3 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Timeout != 5*time.Second {
		t.Fatalf("timeout = %v, want 5s", cfg.Timeout)
	}
	if cfg.OutputFolder != "downloads" {
		t.Fatalf("defaults should survive, output folder = %q", cfg.OutputFolder)
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("got %v, want ErrConfigNotFound", err)
	}
}

func TestEnvInt(t *testing.T) {
	t.Setenv("SCRAPER_TEST_INT", " 7 ")
	n, ok, err := EnvInt("SCRAPER_TEST_INT")
	if err != nil || !ok || n != 7 {
		t.Fatalf("EnvInt = %d, %v, %v", n, ok, err)
	}

	t.Setenv("SCRAPER_TEST_INT", "seven")
	if _, _, err := EnvInt("SCRAPER_TEST_INT"); err == nil {
		t.Fatalf("expected parse error")
	}
}
