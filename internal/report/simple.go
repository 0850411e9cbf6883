package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/linklens/linklens/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// verbose enables the full match listing instead of per-target
	// counts only.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with the full match listing.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full report in human-readable format.
func (w *SimpleWriter) Write(report *model.CrawlReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writeMatches(&sb, report)
	w.writeFailures(&sb, report)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         LINKLENS REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Sites:          %s\n", strings.Join(report.Sites, ", ")))
	sb.WriteString(fmt.Sprintf("Scan Date:      %s\n", report.DateScanned.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Elapsed:        %s\n", report.Elapsed.Round(10*time.Millisecond)))

	switch {
	case report.TimedOut:
		sb.WriteString("Status:         TIMED OUT (partial results)\n")
	case report.ErrorMessage != "":
		sb.WriteString(fmt.Sprintf("Status:         ERROR - %s\n", report.ErrorMessage))
	default:
		sb.WriteString("Status:         Complete\n")
	}

	sb.WriteString("\n")
}

// writeSummary writes crawl statistics.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString("--- Crawl Summary ---\n")
	sb.WriteString(fmt.Sprintf("Sitemaps:       %d\n", len(report.SitemapURLs)))
	if len(report.SitemapURLs) == 0 {
		// An empty run and "no backlinks exist" must not look alike.
		sb.WriteString("                WARNING: no sitemaps found; nothing was crawled\n")
	}
	sb.WriteString(fmt.Sprintf("Pages Listed:   %d\n", len(report.PageURLs)))
	sb.WriteString(fmt.Sprintf("Pages Crawled:  %d\n", report.PagesCrawled))
	sb.WriteString(fmt.Sprintf("With Content:   %d\n", report.PagesWithContent))
	if report.DuplicatePages > 0 {
		sb.WriteString(fmt.Sprintf("Duplicates:     %d (pages listed by more than one sitemap)\n", report.DuplicatePages))
	}
	sb.WriteString("\n")
}

// writeMatches writes the per-target match section.
func (w *SimpleWriter) writeMatches(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString("--- Backlinks ---\n")

	for _, target := range report.Targets {
		records := report.Matches[target]
		sb.WriteString(fmt.Sprintf("%s: %d backlink(s)\n", target, len(records)))

		if !w.verbose {
			continue
		}
		for _, rec := range records {
			text := rec.AnchorText
			if text == "" {
				text = "(no anchor text)"
			}
			sb.WriteString(fmt.Sprintf("    %s  [%s]\n", rec.SourceURL, text))
		}
	}

	sb.WriteString("\n")
}

// writeFailures writes the failure tally section.
func (w *SimpleWriter) writeFailures(sb *strings.Builder, report *model.CrawlReport) {
	if len(report.Failures) == 0 {
		return
	}

	sb.WriteString("--- Failures ---\n")

	kinds := make([]string, 0, len(report.Failures))
	for kind := range report.Failures {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)

	for _, kind := range kinds {
		sb.WriteString(fmt.Sprintf("%-20s %d\n", kind, report.Failures[model.FailureKind(kind)]))
	}

	sb.WriteString("\n")
}
