package model

import "time"

// CrawlReport is the aggregate result of one scan run.
// It accumulates state as the pipeline steps execute: sitemap discovery
// fills SitemapURLs, page collection fills PageURLs, and the scan step
// fills the match table and tallies.
type CrawlReport struct {
	// Sites are the base site URLs whose sitemaps were resolved.
	Sites []string `json:"sites"`

	// Targets are the user-supplied target URLs. Every target has an
	// entry in Matches, possibly empty.
	Targets []string `json:"targets"`

	// DateScanned is when the run started.
	DateScanned time.Time `json:"date_scanned"`

	// SitemapURLs are the child sitemap URLs extracted from the sitemap
	// indexes. Empty when no index could be resolved; the run summary
	// must surface that case, since a report with zero sitemaps is
	// otherwise indistinguishable from "no target has inbound links".
	SitemapURLs []string `json:"sitemap_urls"`

	// PageURLs are the crawlable page URLs gathered from all sitemaps,
	// in worker completion order.
	PageURLs []string `json:"page_urls"`

	// DuplicatePages counts page URLs listed by more than one sitemap.
	// Duplicates are scanned twice unless deduplication is enabled; the
	// count is reported either way so duplicate match records are
	// explainable.
	DuplicatePages int `json:"duplicate_pages"`

	// PagesCrawled is the number of pages the scan step processed.
	PagesCrawled int `json:"pages_crawled"`

	// PagesWithContent is the number of crawled pages that had an
	// article/main content region.
	PagesWithContent int `json:"pages_with_content"`

	// Failures tallies non-fatal failures by kind across the whole run.
	Failures map[FailureKind]int `json:"failures,omitempty"`

	// Matches is the match table: target URL to observed backlinks.
	Matches MatchTable `json:"matches"`

	// Elapsed is the total run duration.
	Elapsed time.Duration `json:"elapsed"`

	// TimedOut is true when the run was cancelled before completion;
	// the report then holds partial results.
	TimedOut bool `json:"timed_out,omitempty"`

	// Error holds a fatal pipeline error, if any. Per-page and
	// per-sitemap failures never set this.
	Error error `json:"-"`

	// ErrorMessage mirrors Error for serialization.
	ErrorMessage string `json:"error,omitempty"`

	// PerformedSteps lists the pipeline steps that ran, in order.
	PerformedSteps []string `json:"performed_steps"`
}

// NewCrawlReport creates a report for the given sites and targets with the
// match table pre-initialized.
func NewCrawlReport(sites, targets []string) *CrawlReport {
	return &CrawlReport{
		Sites:       sites,
		Targets:     targets,
		DateScanned: time.Now(),
		Failures:    make(map[FailureKind]int),
		Matches:     NewMatchTable(targets),
	}
}

// RecordFailure increments the tally for a failure kind.
// Call only from a single goroutine (the pipeline or the aggregation
// collector); the map is not synchronized.
func (r *CrawlReport) RecordFailure(kind FailureKind) {
	if kind == FailureNone {
		return
	}
	r.Failures[kind]++
}

// FailureCount returns the total number of recorded failures, excluding
// pages that merely lacked a content region.
func (r *CrawlReport) FailureCount() int {
	var n int
	for kind, c := range r.Failures {
		if kind == FailureNoContentRegion {
			continue
		}
		n += c
	}
	return n
}

// MatchedTargets returns the targets with at least one match record.
// Order is unspecified.
func (r *CrawlReport) MatchedTargets() []string {
	matched := make([]string, 0, len(r.Matches))
	for target, records := range r.Matches {
		if len(records) > 0 {
			matched = append(matched, target)
		}
	}
	return matched
}
