package report

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/linklens/linklens/internal/model"
)

// CSVWriter writes one CSV file per matched target into a directory.
// Each file holds two columns, source page URL and anchor text, with
// no header row so the files paste straight into a spreadsheet.
//
// Design decision: One file per target rather than one combined file
// because:
// 1. Each target's backlink list is usually handed to a different owner
// 2. Filenames make the target obvious without opening the file
// 3. Combined views are what the simple and markdown writers are for
type CSVWriter struct {
	// outputDir is the directory files are written into.
	outputDir string

	// logger reports skipped targets.
	logger *slog.Logger
}

// CSVWriterOption configures a CSVWriter.
type CSVWriterOption func(*CSVWriter)

// WithCSVLogger sets the logger used for per-target diagnostics.
func WithCSVLogger(logger *slog.Logger) CSVWriterOption {
	return func(w *CSVWriter) {
		w.logger = logger
	}
}

// NewCSVWriter creates a CSVWriter writing into outputDir.
func NewCSVWriter(outputDir string, opts ...CSVWriterOption) *CSVWriter {
	w := &CSVWriter{
		outputDir: outputDir,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Filename returns the CSV filename for a target URL.
// https://example.com/about becomes results_example.com_about.csv.
func Filename(target string) string {
	return "results_" + sanitizeTarget(target) + ".csv"
}

// sanitizeTarget turns a target URL into a filesystem-safe name.
// The scheme is stripped, path separators and other unsafe characters
// become underscores, and trailing underscores are trimmed.
func sanitizeTarget(target string) string {
	name := strings.TrimSpace(target)
	if i := strings.Index(name, "://"); i >= 0 {
		name = name[i+3:]
	}

	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == '.', r == '-':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}

	return strings.Trim(sb.String(), "_")
}

// Write writes one CSV file per target with at least one match.
// Targets with no matches get no file; the skip is logged so an empty
// result is visible rather than silent. Returns total bytes written.
func (w *CSVWriter) Write(report *model.CrawlReport) (int, error) {
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return 0, fmt.Errorf("create output directory: %w", err)
	}

	var total int
	for _, target := range report.Targets {
		records := report.Matches[target]
		if len(records) == 0 {
			w.logger.Info("no matches for target, skipping file",
				"target", target)
			continue
		}

		n, err := w.writeTarget(target, records)
		total += n
		if err != nil {
			return total, err
		}
	}

	return total, nil
}

// writeTarget writes a single target's CSV file.
func (w *CSVWriter) writeTarget(target string, records []model.MatchRecord) (int, error) {
	path := filepath.Join(w.outputDir, Filename(target))

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	for _, rec := range records {
		if err := cw.Write([]string{rec.SourceURL, rec.AnchorText}); err != nil {
			return 0, fmt.Errorf("write %s: %w", path, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("flush %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}

	w.logger.Info("wrote results file",
		"target", target,
		"file", path,
		"matches", len(records))

	return int(info.Size()), nil
}
