package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
// This test ensures that defaults are documented through tests and that changes
// to defaults are intentional (tests will fail if defaults change unexpectedly).
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	// Verify each default value explicitly
	// This serves as living documentation of the defaults
	t.Run("default MaxDepth is 3", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxDepth != 3 {
			t.Errorf("expected MaxDepth to be 3, got %d", cfg.MaxDepth)
		}
	})

	t.Run("default MaxPages is 1000", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxPages != 1000 {
			t.Errorf("expected MaxPages to be 1000, got %d", cfg.MaxPages)
		}
	})

	t.Run("default Concurrency is 10", func(t *testing.T) {
		t.Parallel()
		if cfg.Concurrency != 10 {
			t.Errorf("expected Concurrency to be 10, got %d", cfg.Concurrency)
		}
	})

	t.Run("default BatchSize is 5", func(t *testing.T) {
		t.Parallel()
		if cfg.BatchSize != 5 {
			t.Errorf("expected BatchSize to be 5, got %d", cfg.BatchSize)
		}
	})

	t.Run("default Timeout is 30 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 30*time.Second {
			t.Errorf("expected Timeout to be 30s, got %v", cfg.Timeout)
		}
	})

	t.Run("default CrawlDelay is 500ms", func(t *testing.T) {
		t.Parallel()
		if cfg.CrawlDelay != 500*time.Millisecond {
			t.Errorf("expected CrawlDelay to be 500ms, got %v", cfg.CrawlDelay)
		}
	})

	t.Run("default MaxBodySize is 5MB", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxBodySize != 5*1024*1024 {
			t.Errorf("expected MaxBodySize to be 5MB, got %d", cfg.MaxBodySize)
		}
	})

	t.Run("default Render is false", func(t *testing.T) {
		t.Parallel()
		if cfg.Render {
			t.Error("expected Render to be false")
		}
	})
}

// TestConfigValidate tests the Validate method with various configurations.
// Each test case is designed to test one specific validation rule.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	// validConfig returns a minimal valid configuration.
	// Tests can modify specific fields to test validation rules.
	validConfig := func() *Config {
		return &Config{
			Targets:     []string{"shop.example.com"},
			MaxDepth:    3,
			MaxPages:    100,
			Concurrency: 4,
			BatchSize:   2,
			Timeout:     30 * time.Second,
		}
	}

	t.Run("valid config returns nil", func(t *testing.T) {
		t.Parallel()

		if err := validConfig().Validate(); err != nil {
			t.Errorf("expected nil error for valid config, got %v", err)
		}
	})

	t.Run("missing targets returns ErrNoTarget", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig()
		cfg.Targets = nil
		if err := cfg.Validate(); !errors.Is(err, ErrNoTarget) {
			t.Errorf("expected ErrNoTarget, got %v", err)
		}
	})

	t.Run("negative max depth returns ErrInvalidMaxDepth", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig()
		cfg.MaxDepth = -1
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidMaxDepth) {
			t.Errorf("expected ErrInvalidMaxDepth, got %v", err)
		}
	})

	t.Run("zero max depth is valid", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig()
		cfg.MaxDepth = 0
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected nil error for depth 0, got %v", err)
		}
	})

	t.Run("zero max pages returns ErrInvalidMaxPages", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig()
		cfg.MaxPages = 0
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidMaxPages) {
			t.Errorf("expected ErrInvalidMaxPages, got %v", err)
		}
	})

	t.Run("zero concurrency returns ErrInvalidConcurrency", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig()
		cfg.Concurrency = 0
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidConcurrency) {
			t.Errorf("expected ErrInvalidConcurrency, got %v", err)
		}
	})

	t.Run("zero batch size returns ErrInvalidBatchSize", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig()
		cfg.BatchSize = 0
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidBatchSize) {
			t.Errorf("expected ErrInvalidBatchSize, got %v", err)
		}
	})

	t.Run("zero timeout returns ErrInvalidTimeout", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig()
		cfg.Timeout = 0
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidTimeout) {
			t.Errorf("expected ErrInvalidTimeout, got %v", err)
		}
	})

	t.Run("negative crawl delay returns ErrInvalidCrawlDelay", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig()
		cfg.CrawlDelay = -1 * time.Second
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidCrawlDelay) {
			t.Errorf("expected ErrInvalidCrawlDelay, got %v", err)
		}
	})

	t.Run("negative max body size returns ErrInvalidMaxBodySize", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig()
		cfg.MaxBodySize = -1
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidMaxBodySize) {
			t.Errorf("expected ErrInvalidMaxBodySize, got %v", err)
		}
	})

	t.Run("both report formats returns ErrConflictingReportFormats", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig()
		cfg.JSONReport = true
		cfg.MarkdownReport = true
		if err := cfg.Validate(); !errors.Is(err, ErrConflictingReportFormats) {
			t.Errorf("expected ErrConflictingReportFormats, got %v", err)
		}
	})
}

// TestLoadConfigFile tests loading the YAML site configuration.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("invalid YAML returns error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte("sites: [not a map"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("loads sites and defaults", func(t *testing.T) {
		t.Parallel()

		content := `
defaults:
  depth: 2
  excludePatterns:
    - "/blog/"
sites:
  shop.example.com:
    depth: 4
    productPatterns:
      - "/artikel/"
    cookie: "consent=1"
`
		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cf.Defaults.Depth != 2 {
			t.Errorf("expected default depth 2, got %d", cf.Defaults.Depth)
		}
		site, ok := cf.Sites["shop.example.com"]
		if !ok {
			t.Fatal("expected site entry for shop.example.com")
		}
		if site.Depth != 4 {
			t.Errorf("expected site depth 4, got %d", site.Depth)
		}
		if site.Cookie != "consent=1" {
			t.Errorf("expected cookie 'consent=1', got %q", site.Cookie)
		}
	})
}

// TestFileGetSiteConfig verifies the merge of defaults with per-site overrides.
func TestFileGetSiteConfig(t *testing.T) {
	t.Parallel()

	cf := &File{
		Defaults: SiteConfig{
			Depth:           2,
			ExcludePatterns: []string{"/blog/"},
			Headers:         map[string]string{"Accept-Language": "en"},
		},
		Sites: map[string]SiteConfig{
			"shop.example.com": {
				Depth:           4,
				ProductPatterns: []string{"/artikel/"},
				Headers:         map[string]string{"X-Shop": "1"},
				Render:          true,
			},
		},
	}

	t.Run("known site merges over defaults", func(t *testing.T) {
		t.Parallel()

		got := cf.GetSiteConfig("shop.example.com")
		if got.Depth != 4 {
			t.Errorf("expected depth 4, got %d", got.Depth)
		}
		if len(got.ProductPatterns) != 1 || got.ProductPatterns[0] != "/artikel/" {
			t.Errorf("expected site product patterns, got %v", got.ProductPatterns)
		}
		if len(got.ExcludePatterns) != 1 || got.ExcludePatterns[0] != "/blog/" {
			t.Errorf("expected inherited exclude patterns, got %v", got.ExcludePatterns)
		}
		if got.Headers["Accept-Language"] != "en" || got.Headers["X-Shop"] != "1" {
			t.Errorf("expected merged headers, got %v", got.Headers)
		}
		if !got.Render {
			t.Error("expected Render to be true")
		}
	})

	t.Run("unknown site returns defaults", func(t *testing.T) {
		t.Parallel()

		got := cf.GetSiteConfig("other.example.com")
		if got.Depth != 2 {
			t.Errorf("expected default depth 2, got %d", got.Depth)
		}
		if len(got.ProductPatterns) != 0 {
			t.Errorf("expected no product patterns, got %v", got.ProductPatterns)
		}
	})
}
