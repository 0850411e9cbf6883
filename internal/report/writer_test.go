package report

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/linklens/linklens/internal/model"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleReport() *model.CrawlReport {
	r := model.NewCrawlReport(
		[]string{"https://example.com"},
		[]string{"https://example.com/about", "https://example.com/pricing"},
	)
	r.DateScanned = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	r.SitemapURLs = []string{"https://example.com/wp-sitemap-posts-post-1.xml"}
	r.PageURLs = []string{"https://example.com/blog/post1", "https://example.com/blog/post2"}
	r.PagesCrawled = 2
	r.PagesWithContent = 2
	r.Matches.Append("https://example.com/about", model.MatchRecord{
		SourceURL:  "https://example.com/blog/post1",
		AnchorText: "About Us",
	})
	return r
}

// TestFilename tests CSV filename derivation from target URLs.
func TestFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		target string
		want   string
	}{
		{
			name:   "path becomes underscore",
			target: "https://example.com/about",
			want:   "results_example.com_about.csv",
		},
		{
			name:   "root URL has no trailing underscore",
			target: "https://example.com/",
			want:   "results_example.com.csv",
		},
		{
			name:   "query characters are replaced",
			target: "https://example.com/page?id=1",
			want:   "results_example.com_page_id_1.csv",
		},
		{
			name:   "nested path",
			target: "https://example.com/docs/getting-started",
			want:   "results_example.com_docs_getting-started.csv",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Filename(tt.target); got != tt.want {
				t.Errorf("Filename(%q) = %q, want %q", tt.target, got, tt.want)
			}
		})
	}
}

// TestCSVWriter tests per-target CSV file output.
func TestCSVWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes one file per matched target", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		w := NewCSVWriter(dir, WithCSVLogger(discard()))

		n, err := w.Write(sampleReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n == 0 {
			t.Error("expected non-zero bytes written")
		}

		data, err := os.ReadFile(filepath.Join(dir, "results_example.com_about.csv"))
		if err != nil {
			t.Fatalf("read results file: %v", err)
		}
		if got := strings.TrimSpace(string(data)); got != "https://example.com/blog/post1,About Us" {
			t.Errorf("file content = %q", got)
		}

		// The unmatched target gets no file.
		if _, err := os.Stat(filepath.Join(dir, "results_example.com_pricing.csv")); !os.IsNotExist(err) {
			t.Error("expected no file for unmatched target")
		}
	})

	t.Run("no header row is written", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		w := NewCSVWriter(dir, WithCSVLogger(discard()))
		if _, err := w.Write(sampleReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(filepath.Join(dir, "results_example.com_about.csv"))
		if err != nil {
			t.Fatalf("read results file: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 1 {
			t.Errorf("got %d lines, want 1 (no header)", len(lines))
		}
	})

	t.Run("anchor text with commas is quoted", func(t *testing.T) {
		t.Parallel()

		r := model.NewCrawlReport(nil, []string{"https://example.com/t"})
		r.Matches.Append("https://example.com/t", model.MatchRecord{
			SourceURL:  "https://example.com/p",
			AnchorText: "read, then decide",
		})

		dir := t.TempDir()
		w := NewCSVWriter(dir, WithCSVLogger(discard()))
		if _, err := w.Write(r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(filepath.Join(dir, "results_example.com_t.csv"))
		if err != nil {
			t.Fatalf("read results file: %v", err)
		}
		if !strings.Contains(string(data), `"read, then decide"`) {
			t.Errorf("expected quoted field, got %q", data)
		}
	})
}

// TestSimpleWriter tests the terminal summary output.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("summarizes matches per target", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		if _, err := w.Write(sampleReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out := buf.String()
		if !strings.Contains(out, "https://example.com/about: 1 backlink(s)") {
			t.Errorf("missing matched target line:\n%s", out)
		}
		if !strings.Contains(out, "https://example.com/pricing: 0 backlink(s)") {
			t.Errorf("missing unmatched target line:\n%s", out)
		}
	})

	t.Run("verbose mode lists sources and anchors", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithVerbose(true))
		if _, err := w.Write(sampleReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "[About Us]") {
			t.Errorf("missing anchor text:\n%s", buf.String())
		}
	})

	t.Run("warns when no sitemaps were found", func(t *testing.T) {
		t.Parallel()

		r := model.NewCrawlReport([]string{"https://example.com"}, []string{"https://example.com/t"})

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		if _, err := w.Write(r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "no sitemaps found") {
			t.Errorf("missing empty-run warning:\n%s", buf.String())
		}
	})
}

// TestMarkdownWriter tests the markdown report output.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewMarkdownWriter(&buf)
	if _, err := w.Write(sampleReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "# LinkLens Report") {
		t.Errorf("missing title:\n%s", out)
	}
	if !strings.Contains(out, "| Source Page | Anchor Text |") {
		t.Errorf("missing backlink table header:\n%s", out)
	}
	if !strings.Contains(out, "No backlinks found.") {
		t.Errorf("missing empty-target section:\n%s", out)
	}
}

// TestJSONWriter tests the JSON report output.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("output round-trips", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithPrettyPrint())
		if _, err := w.Write(sampleReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded model.CrawlReport
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON output: %v", err)
		}
		if decoded.PagesCrawled != 2 {
			t.Errorf("PagesCrawled = %d, want 2", decoded.PagesCrawled)
		}
		if len(decoded.Matches["https://example.com/about"]) != 1 {
			t.Error("matches did not survive the round trip")
		}
	})

	t.Run("unmatched targets keep empty entries in JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)
		if _, err := w.Write(sampleReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), `"https://example.com/pricing":[]`) {
			t.Errorf("unmatched target missing from JSON:\n%s", buf.String())
		}
	})
}

// TestMultiWriter tests fan-out to multiple writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var a, b bytes.Buffer
	mw := NewMultiWriter(NewSimpleWriter(&a), NewJSONWriter(&b))

	if _, err := mw.Write(sampleReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Len() == 0 || b.Len() == 0 {
		t.Error("expected both writers to receive output")
	}
}
