package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/linklens/linklens/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeMatches(md, report)
	w.writeFailures(md, report)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CrawlReport) {
	md.H1("LinkLens Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Sites", "`" + strings.Join(report.Sites, "`, `") + "`"},
			{"Scan Date", report.DateScanned.Format("2006-01-02 15:04:05 MST")},
			{"Pages Crawled", strconv.Itoa(report.PagesCrawled)},
			{"Status", w.getStatusText(report)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.CrawlReport) string {
	if report.TimedOut {
		return "⚠️ Timed Out (partial results)"
	}
	if report.ErrorMessage != "" {
		return "❌ Error - " + report.ErrorMessage
	}
	return "✅ Complete"
}

// writeSummary writes the crawl statistics section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Crawl Summary")
	md.PlainText("")

	if len(report.SitemapURLs) == 0 {
		md.Warning("No sitemaps were found. Nothing was crawled; empty backlink lists below do not mean the links are missing.")
		md.PlainText("")
	}

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Sitemaps", strconv.Itoa(len(report.SitemapURLs))},
			{"Pages Listed", strconv.Itoa(len(report.PageURLs))},
			{"Pages Crawled", strconv.Itoa(report.PagesCrawled)},
			{"Pages With Content", strconv.Itoa(report.PagesWithContent)},
			{"Duplicate Pages", strconv.Itoa(report.DuplicatePages)},
		},
	})
	md.PlainText("")

	// Outcome chart: content pages vs. pages without a region vs. failures.
	noRegion := report.Failures[model.FailureNoContentRegion]
	failed := report.FailureCount()
	if report.PagesCrawled > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Page outcomes"),
			piechart.WithShowData(true),
		)
		chart.LabelAndIntValue("with content", uint64(report.PagesWithContent))
		if noRegion > 0 {
			chart.LabelAndIntValue("no content region", uint64(noRegion))
		}
		if failed > 0 {
			chart.LabelAndIntValue("failed", uint64(failed))
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}
}

// writeMatches writes one section per target with its backlink table.
func (w *MarkdownWriter) writeMatches(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Backlinks")
	md.PlainText("")

	for _, target := range report.Targets {
		records := report.Matches[target]

		md.H3("`" + target + "`")
		md.PlainText("")

		if len(records) == 0 {
			md.PlainText("No backlinks found.")
			md.PlainText("")
			continue
		}

		rows := make([][]string, 0, len(records))
		for _, rec := range records {
			text := rec.AnchorText
			if text == "" {
				text = "_(no anchor text)_"
			}
			rows = append(rows, []string{rec.SourceURL, text})
		}

		md.Table(markdown.TableSet{
			Header: []string{"Source Page", "Anchor Text"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}

// writeFailures writes the failure tally section.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, report *model.CrawlReport) {
	if len(report.Failures) == 0 {
		return
	}

	md.H2("Failures")
	md.PlainText("")

	rows := make([][]string, 0, len(report.Failures))
	for _, kind := range []model.FailureKind{
		model.FailureNetwork,
		model.FailureTimeout,
		model.FailureStatus,
		model.FailureMalformedXML,
		model.FailureParse,
		model.FailureNoContentRegion,
	} {
		if count, ok := report.Failures[kind]; ok {
			rows = append(rows, []string{string(kind), strconv.Itoa(count)})
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Kind", "Count"},
		Rows:   rows,
	})
	md.PlainText("")
}
