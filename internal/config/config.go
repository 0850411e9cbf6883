package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// The worker widths and page cap match the behavior site owners expect
// from the original internal-links tooling; the timeout is deliberately
// short because a hung request occupies a worker slot for its full
// duration.
const (
	// DefaultTimeout is the per-request timeout. Ten seconds is generous
	// for a healthy site; anything slower is treated as a distinct
	// timeout failure and the page is skipped.
	DefaultTimeout = 10 * time.Second

	// DefaultSitemapWorkers is the fan-out width for fetching child
	// sitemaps from a sitemap index.
	DefaultSitemapWorkers = 10

	// DefaultCrawlWorkers is the fan-out width for fetching and scanning
	// pages. Page fetches dominate run time, so this pool is wider than
	// the sitemap pool.
	DefaultCrawlWorkers = 20

	// DefaultMaxPages caps the number of pages scanned per run.
	// This prevents runaway crawls on very large sites; users can raise
	// it via the --max-pages flag.
	DefaultMaxPages = 1000

	// DefaultSitemapPath is the sitemap index path appended to the base
	// site URL. WordPress serves its index at this fixed path.
	DefaultSitemapPath = "wp-sitemap.xml"

	// DefaultUserAgent identifies LinkLens in HTTP requests.
	// A descriptive User-Agent lets site operators recognize scanner
	// traffic in their logs.
	DefaultUserAgent = "LinkLens/1.0 (+https://github.com/linklens/linklens)"

	// DefaultMaxBodySize limits the response body size to read.
	// 5MB is sufficient for sitemaps and HTML pages while preventing
	// memory exhaustion from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultOutputDir is where per-target CSV reports are written.
	DefaultOutputDir = "."

	// AppName is the application name used for XDG directory paths.
	AppName = "linklens"
)

// Config holds all configuration options for a LinkLens run.
// It is populated from CLI flags and the optional .linklens file and
// passed through the application via dependency injection rather than
// global state.
type Config struct {
	// Sites are the base site URLs whose sitemap indexes are resolved.
	// When empty, sites are derived from the targets (scheme://host of
	// each target URL).
	Sites []string

	// Targets are the URLs whose inbound links are sought.
	Targets []string

	// Timeout is the per-request timeout for every fetch.
	Timeout time.Duration

	// SitemapWorkers bounds the child-sitemap fetch pool.
	SitemapWorkers int

	// CrawlWorkers bounds the page fetch/scan pool.
	CrawlWorkers int

	// MaxPages caps the number of pages scanned per run. Zero means use
	// the default.
	MaxPages int

	// DedupePages collapses page URLs listed by multiple sitemaps.
	// Off by default: duplicates are flagged in the report rather than
	// silently removed, so duplicate match records stay explainable.
	DedupePages bool

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// OutputDir is the directory for per-target CSV reports.
	OutputDir string

	// JSONReport emits the full crawl report as JSON instead of the
	// human-readable summary. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport emits a Markdown run summary instead of the
	// human-readable one. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile writes the run summary to this path instead of stdout.
	ReportFile string

	// ConfigFilePath is an explicit .linklens config file path. When
	// empty, the current directory and then the home directory are
	// searched.
	ConfigFilePath string

	// SiteConfigs holds per-site settings loaded from the config file.
	SiteConfigs *File

	// SaveHistory records the run in the local history database.
	SaveHistory bool

	// DBDir is the directory holding the history database. Defaults to
	// the XDG data directory.
	DBDir string

	// Verbose enables slog.LevelDebug output.
	Verbose bool
}

// NewConfig creates a Config with default values.
//
// Design decision: We use a constructor rather than relying on zero values
// because most defaults are non-zero (timeout, pool widths, page cap).
// The constructor also documents what the defaults are.
func NewConfig() *Config {
	return &Config{
		Timeout:        DefaultTimeout,
		SitemapWorkers: DefaultSitemapWorkers,
		CrawlWorkers:   DefaultCrawlWorkers,
		MaxPages:       DefaultMaxPages,
		UserAgent:      DefaultUserAgent,
		MaxBodySize:    DefaultMaxBodySize,
		OutputDir:      DefaultOutputDir,
		SaveHistory:    true,
		DBDir:          XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for LinkLens.
// On Linux: ~/.local/share/linklens
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for LinkLens.
// On Linux: ~/.config/linklens
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found; fixing one error often makes the
// rest irrelevant.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.SitemapWorkers <= 0 || c.CrawlWorkers <= 0 {
		return ErrInvalidWorkers
	}
	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}
