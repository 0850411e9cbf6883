package scanner

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/linklens/linklens/internal/config"
	"github.com/linklens/linklens/internal/fetch"
	"github.com/linklens/linklens/internal/log"
	"github.com/linklens/linklens/internal/model"
)

// Scanner crawls pages concurrently and checks their content region
// links against the target URLs.
type Scanner struct {
	// client fetches pages.
	client *fetch.Client

	// workers bounds the number of pages fetched at once.
	workers int

	// targets maps normalized target URLs to their original form.
	// Matches are keyed by the original form so output files use the
	// URL exactly as the user supplied it.
	targets map[string]string

	// originals preserves the user-supplied target order.
	originals []string

	// logger reports per-page failures.
	logger *slog.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithWorkers sets the number of concurrent page fetches.
func WithWorkers(n int) Option {
	return func(s *Scanner) {
		s.workers = n
	}
}

// WithLogger sets the logger for per-page failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		s.logger = logger
	}
}

// NewScanner creates a Scanner for the given target URLs.
func NewScanner(client *fetch.Client, targets []string, opts ...Option) *Scanner {
	s := &Scanner{
		client:    client,
		workers:   config.DefaultCrawlWorkers,
		targets:   make(map[string]string, len(targets)),
		originals: targets,
		logger:    slog.Default(),
	}
	for _, t := range targets {
		s.targets[NormalizeURL(t)] = t
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ScanResult holds the aggregated outcome of scanning a page list.
type ScanResult struct {
	// Matches maps every target to the pages linking to it. Targets
	// with no matches keep an empty entry.
	Matches model.MatchTable

	// PagesCrawled is the number of pages attempted.
	PagesCrawled int

	// PagesWithContent is the number of pages with a content region.
	PagesWithContent int

	// Failures counts failed pages by kind.
	Failures map[model.FailureKind]int
}

// ScanPage fetches and inspects a single page. The returned outcome
// always carries the page URL; on failure its Matches table is nil.
func (s *Scanner) ScanPage(ctx context.Context, pageURL string) *model.PageOutcome {
	outcome := &model.PageOutcome{URL: pageURL}

	body, err := s.client.Get(ctx, pageURL)
	if err != nil {
		outcome.Failure = fetch.Kind(err)
		outcome.Err = err
		return outcome
	}

	links, err := ParsePage(pageURL, body)
	if err != nil {
		outcome.Failure = fetch.Kind(err)
		outcome.Err = err
		return outcome
	}

	outcome.LinkCount = len(links)
	outcome.Matches = model.NewMatchTable(s.originals)
	for _, link := range links {
		original, ok := s.targets[link.URL]
		if !ok {
			continue
		}
		outcome.Matches.Append(original, model.MatchRecord{
			SourceURL:  pageURL,
			AnchorText: link.AnchorText,
		})
	}

	return outcome
}

// Scan crawls all pages and aggregates their matches.
//
// Design decision: Workers only fetch and parse; a single collector
// goroutine owns the match table because:
//  1. The table is written once per page, never concurrently
//  2. Workers stay free of shared mutable state
//  3. Tallies and the table stay consistent without a mutex
func (s *Scanner) Scan(ctx context.Context, pageURLs []string) (*ScanResult, error) {
	result := &ScanResult{
		Matches:  model.NewMatchTable(s.originals),
		Failures: make(map[model.FailureKind]int),
	}

	outcomes := make(chan *model.PageOutcome)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for o := range outcomes {
			result.PagesCrawled++
			if !o.OK() {
				result.Failures[o.Failure]++
				continue
			}
			result.PagesWithContent++
			result.Matches.Merge(o.Matches)
		}
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, pageURL := range pageURLs {
		g.Go(func() error {
			o := s.ScanPage(ctx, pageURL)
			if !o.OK() {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				// Pages without a content region are routine (archives,
				// search pages); real fetch failures are not.
				level := slog.LevelWarn
				if o.Failure == model.FailureNoContentRegion {
					level = slog.LevelDebug
				}
				s.logger.Log(ctx, level, "page scan failed",
					"page", pageURL,
					"error", o.Err,
					log.FailureAttrKey, string(o.Failure))
			}
			select {
			case outcomes <- o:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		})
	}

	err := g.Wait()
	close(outcomes)
	<-done

	if err != nil {
		return result, err
	}
	return result, nil
}
