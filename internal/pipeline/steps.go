package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linklens/linklens/internal/config"
	"github.com/linklens/linklens/internal/fetch"
	"github.com/linklens/linklens/internal/log"
	"github.com/linklens/linklens/internal/model"
	"github.com/linklens/linklens/internal/scanner"
	"github.com/linklens/linklens/internal/sitemap"
)

// DiscoverStep resolves each site's sitemap index and records the
// child sitemap URLs in the report.
//
// Design decision: Discovery is a separate step because:
// 1. Whether any sitemaps exist is itself a reportable outcome
// 2. The collect step can then treat its input as a flat URL list
// 3. Sites without an index fail here, before any crawling starts
type DiscoverStep struct {
	// collector fetches and parses sitemap documents.
	collector *sitemap.Collector

	// sitemapPath is the path of the sitemap index on each site.
	sitemapPath string

	// pathFor overrides sitemapPath per site when set.
	pathFor func(site string) string

	// logger for structured logging.
	logger *slog.Logger
}

// DiscoverStepOption configures a DiscoverStep.
type DiscoverStepOption func(*DiscoverStep)

// WithSitemapPath sets the sitemap index path used for every site.
func WithSitemapPath(path string) DiscoverStepOption {
	return func(s *DiscoverStep) {
		s.sitemapPath = path
	}
}

// WithSitemapPathFunc sets a per-site sitemap index path resolver.
// Sites the function returns "" for fall back to the default path.
func WithSitemapPathFunc(fn func(site string) string) DiscoverStepOption {
	return func(s *DiscoverStep) {
		s.pathFor = fn
	}
}

// WithDiscoverLogger sets a custom logger for the discover step.
func WithDiscoverLogger(logger *slog.Logger) DiscoverStepOption {
	return func(s *DiscoverStep) {
		s.logger = logger
	}
}

// NewDiscoverStep creates a new sitemap discovery step.
func NewDiscoverStep(collector *sitemap.Collector, opts ...DiscoverStepOption) *DiscoverStep {
	s := &DiscoverStep{
		collector:   collector,
		sitemapPath: config.DefaultSitemapPath,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *DiscoverStep) Name() string {
	return "discover_sitemaps"
}

// Do executes the discovery step. A site whose index cannot be
// resolved is logged and tallied; the step only fails when no site
// yields any sitemap, since the rest of the run would be a no-op.
func (s *DiscoverStep) Do(ctx context.Context, report *model.CrawlReport) error {
	var lastErr error
	for _, site := range report.Sites {
		path := s.sitemapPath
		if s.pathFor != nil {
			if p := s.pathFor(site); p != "" {
				path = p
			}
		}

		indexURL, err := sitemap.IndexURL(site, path)
		if err != nil {
			return fmt.Errorf("resolve sitemap index for %s: %w", site, err)
		}

		sitemaps, err := s.collector.Discover(ctx, indexURL)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn("sitemap index discovery failed",
				"site", site,
				"index", indexURL,
				"error", err,
				log.FailureAttrKey, string(fetch.Kind(err)))
			report.RecordFailure(fetch.Kind(err))
			lastErr = err
			continue
		}

		s.logger.Info("sitemap index resolved",
			"site", site,
			"sitemaps", len(sitemaps))
		report.SitemapURLs = append(report.SitemapURLs, sitemaps...)
	}

	if len(report.SitemapURLs) == 0 && lastErr != nil {
		return fmt.Errorf("no sitemap index could be resolved: %w", lastErr)
	}

	return nil
}

// CollectStep fetches the child sitemaps and builds the page URL list
// to crawl. Target pages are crawled like any other sitemap entry, so
// a link from one target's page to another target is still recorded.
type CollectStep struct {
	// collector fetches and parses sitemap documents.
	collector *sitemap.Collector

	// dedupe removes pages listed by more than one sitemap. When
	// false, duplicates are kept and scanned again; the report counts
	// them either way.
	dedupe bool

	// maxPages caps the page list. 0 means no cap.
	maxPages int

	// logger for structured logging.
	logger *slog.Logger
}

// CollectStepOption configures a CollectStep.
type CollectStepOption func(*CollectStep)

// WithDedupe enables removal of duplicate page URLs.
func WithDedupe(dedupe bool) CollectStepOption {
	return func(s *CollectStep) {
		s.dedupe = dedupe
	}
}

// WithCollectMaxPages caps the number of pages to crawl.
func WithCollectMaxPages(n int) CollectStepOption {
	return func(s *CollectStep) {
		s.maxPages = n
	}
}

// WithCollectLogger sets a custom logger for the collect step.
func WithCollectLogger(logger *slog.Logger) CollectStepOption {
	return func(s *CollectStep) {
		s.logger = logger
	}
}

// NewCollectStep creates a new page collection step.
func NewCollectStep(collector *sitemap.Collector, opts ...CollectStepOption) *CollectStep {
	s := &CollectStep{
		collector: collector,
		maxPages:  config.DefaultMaxPages,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *CollectStep) Name() string {
	return "collect_pages"
}

// Do executes the collection step.
func (s *CollectStep) Do(ctx context.Context, report *model.CrawlReport) error {
	res, err := s.collector.Collect(ctx, report.SitemapURLs)
	if err != nil {
		return err
	}

	for kind, count := range res.Failures {
		report.Failures[kind] += count
	}

	seen := make(map[string]bool, len(res.PageURLs))
	pages := make([]string, 0, len(res.PageURLs))
	for _, pageURL := range res.PageURLs {
		normalized := scanner.NormalizeURL(pageURL)
		if seen[normalized] {
			report.DuplicatePages++
			if s.dedupe {
				continue
			}
		}
		seen[normalized] = true
		pages = append(pages, pageURL)
	}

	if s.maxPages > 0 && len(pages) > s.maxPages {
		s.logger.Warn("page list capped",
			"listed", len(pages),
			"cap", s.maxPages)
		pages = pages[:s.maxPages]
	}

	report.PageURLs = pages

	s.logger.Info("pages collected",
		"pages", len(pages),
		"duplicates", report.DuplicatePages,
		"failed_sitemaps", len(res.Failures))

	return nil
}

// ScanStep crawls the collected pages and fills the match table.
type ScanStep struct {
	// scanner crawls and inspects pages.
	scanner *scanner.Scanner

	// logger for structured logging.
	logger *slog.Logger
}

// ScanStepOption configures a ScanStep.
type ScanStepOption func(*ScanStep)

// WithScanLogger sets a custom logger for the scan step.
func WithScanLogger(logger *slog.Logger) ScanStepOption {
	return func(s *ScanStep) {
		s.logger = logger
	}
}

// NewScanStep creates a new page scan step.
func NewScanStep(sc *scanner.Scanner, opts ...ScanStepOption) *ScanStep {
	s := &ScanStep{
		scanner: sc,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ScanStep) Name() string {
	return "scan_pages"
}

// Do executes the scan step.
func (s *ScanStep) Do(ctx context.Context, report *model.CrawlReport) error {
	res, err := s.scanner.Scan(ctx, report.PageURLs)

	// Partial results are kept even on cancellation.
	if res != nil {
		report.PagesCrawled += res.PagesCrawled
		report.PagesWithContent += res.PagesWithContent
		for kind, count := range res.Failures {
			report.Failures[kind] += count
		}
		report.Matches.Merge(res.Matches)
	}

	if err != nil {
		return err
	}

	s.logger.Info("scan complete",
		"pages_crawled", res.PagesCrawled,
		"pages_with_content", res.PagesWithContent,
		"matched_targets", len(report.MatchedTargets()))

	return nil
}
