// Package log provides slog handler utilities for LinkLens.
//
// The crawl pipeline swallows per-page and per-sitemap failures by design:
// each one is logged and converted to an empty result so the crawl
// continues. TallyHandler sits in the slog handler chain and counts those
// failures by kind, so the end-of-run summary can report how much of the
// crawl actually failed instead of silently presenting partial results as
// complete ones.
package log
