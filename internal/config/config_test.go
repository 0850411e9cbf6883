package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestNewConfig tests that the constructor sets sensible defaults.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	if cfg.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", cfg.Timeout, DefaultTimeout)
	}
	if cfg.SitemapWorkers != 10 {
		t.Errorf("SitemapWorkers = %d, want 10", cfg.SitemapWorkers)
	}
	if cfg.CrawlWorkers != 20 {
		t.Errorf("CrawlWorkers = %d, want 20", cfg.CrawlWorkers)
	}
	if cfg.MaxPages != 1000 {
		t.Errorf("MaxPages = %d, want 1000", cfg.MaxPages)
	}
	if cfg.DedupePages {
		t.Error("DedupePages should default to false; duplicates are flagged, not removed")
	}
}

// TestConfigValidate tests configuration validation.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		cfg := NewConfig()
		cfg.Targets = []string{"https://example.com/about"}
		return cfg
	}

	t.Run("valid config passes", func(t *testing.T) {
		t.Parallel()
		if err := valid().Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("missing targets", func(t *testing.T) {
		t.Parallel()
		cfg := valid()
		cfg.Targets = nil
		if err := cfg.Validate(); !errors.Is(err, ErrNoTarget) {
			t.Errorf("expected ErrNoTarget, got %v", err)
		}
	})

	t.Run("non-positive timeout", func(t *testing.T) {
		t.Parallel()
		cfg := valid()
		cfg.Timeout = 0 * time.Second
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidTimeout) {
			t.Errorf("expected ErrInvalidTimeout, got %v", err)
		}
	})

	t.Run("non-positive workers", func(t *testing.T) {
		t.Parallel()
		cfg := valid()
		cfg.CrawlWorkers = 0
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidWorkers) {
			t.Errorf("expected ErrInvalidWorkers, got %v", err)
		}
	})

	t.Run("conflicting report formats", func(t *testing.T) {
		t.Parallel()
		cfg := valid()
		cfg.JSONReport = true
		cfg.MarkdownReport = true
		if err := cfg.Validate(); !errors.Is(err, ErrConflictingReportFormats) {
			t.Errorf("expected ErrConflictingReportFormats, got %v", err)
		}
	})
}

// TestLoadConfigFile tests YAML config file loading.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("loads sites and defaults", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, ".linklens")
		content := `
defaults:
  sitemapPath: wp-sitemap.xml
sites:
  example.com:
    sitemapPath: sitemap_index.xml
    maxPages: 50
    headers:
      Cookie: "session=abc"
`
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		sc := cf.GetSiteConfig("https://example.com")
		if sc.SitemapPath != "sitemap_index.xml" {
			t.Errorf("SitemapPath = %q, want sitemap_index.xml", sc.SitemapPath)
		}
		if sc.MaxPages != 50 {
			t.Errorf("MaxPages = %d, want 50", sc.MaxPages)
		}
		if sc.Headers["Cookie"] != "session=abc" {
			t.Errorf("Headers[Cookie] = %q, want session=abc", sc.Headers["Cookie"])
		}
	})

	t.Run("merging site headers leaves defaults untouched", func(t *testing.T) {
		t.Parallel()

		cf := &File{
			Defaults: SiteConfig{
				Headers: map[string]string{"X-Common": "1"},
			},
			Sites: map[string]SiteConfig{
				"staging.example.com": {
					Headers: map[string]string{"Cookie": "auth=secret"},
				},
			},
		}

		sc := cf.GetSiteConfig("https://staging.example.com")
		if sc.Headers["X-Common"] != "1" || sc.Headers["Cookie"] != "auth=secret" {
			t.Errorf("merged headers = %v", sc.Headers)
		}
		if _, ok := cf.Defaults.Headers["Cookie"]; ok {
			t.Error("site header leaked into Defaults.Headers")
		}

		other := cf.GetSiteConfig("https://other.example.com")
		if _, ok := other.Headers["Cookie"]; ok {
			t.Error("site header leaked into another site's config")
		}
	})

	t.Run("unknown site falls back to defaults", func(t *testing.T) {
		t.Parallel()

		cf := &File{
			Defaults: SiteConfig{SitemapPath: "wp-sitemap.xml"},
			Sites:    map[string]SiteConfig{},
		}

		sc := cf.GetSiteConfig("https://other.example")
		if sc.SitemapPath != "wp-sitemap.xml" {
			t.Errorf("SitemapPath = %q, want wp-sitemap.xml", sc.SitemapPath)
		}
	})

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})
}
