package database

import (
	"context"
	"testing"
	"time"

	"github.com/linklens/linklens/internal/model"
)

func openTestDB(t *testing.T) *HistoryDB {
	t.Helper()

	hdb, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() {
		if err := hdb.Close(); err != nil {
			t.Errorf("close database: %v", err)
		}
	})
	return hdb
}

func testReport(matches int) *model.CrawlReport {
	r := model.NewCrawlReport(
		[]string{"https://example.com"},
		[]string{"https://example.com/about"},
	)
	r.DateScanned = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	r.SitemapURLs = []string{"https://example.com/wp-sitemap-posts-post-1.xml"}
	r.PagesCrawled = 5
	r.PagesWithContent = 4
	for i := 0; i < matches; i++ {
		r.Matches.Append("https://example.com/about", model.MatchRecord{
			SourceURL:  "https://example.com/blog/post1",
			AnchorText: "About Us",
		})
	}
	return r
}

// TestHistoryDBSaveAndGet tests round-tripping a run through the database.
func TestHistoryDBSaveAndGet(t *testing.T) {
	t.Parallel()

	hdb := openTestDB(t)
	ctx := context.Background()

	id, err := hdb.SaveRun(ctx, testReport(2))
	if err != nil {
		t.Fatalf("save run: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero run ID")
	}

	got, err := hdb.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got == nil {
		t.Fatal("run not found")
	}
	if got.PagesCrawled != 5 {
		t.Errorf("PagesCrawled = %d, want 5", got.PagesCrawled)
	}
	if len(got.Matches["https://example.com/about"]) != 2 {
		t.Errorf("matches = %d, want 2", len(got.Matches["https://example.com/about"]))
	}
}

// TestHistoryDBGetMissing tests lookups of absent runs.
func TestHistoryDBGetMissing(t *testing.T) {
	t.Parallel()

	hdb := openTestDB(t)

	got, err := hdb.GetRun(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Error("expected nil for missing run")
	}
}

// TestHistoryDBListRuns tests history listing and filtering.
func TestHistoryDBListRuns(t *testing.T) {
	t.Parallel()

	hdb := openTestDB(t)
	ctx := context.Background()

	first := testReport(1)
	second := testReport(3)
	second.DateScanned = first.DateScanned.Add(time.Hour)

	if _, err := hdb.SaveRun(ctx, first); err != nil {
		t.Fatalf("save first run: %v", err)
	}
	if _, err := hdb.SaveRun(ctx, second); err != nil {
		t.Fatalf("save second run: %v", err)
	}

	runs, err := hdb.ListRuns(ctx, "", 0)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}

	// Newest first.
	if runs[0].TotalMatches != 3 {
		t.Errorf("runs[0].TotalMatches = %d, want 3", runs[0].TotalMatches)
	}
	if runs[0].Sites[0] != "https://example.com" {
		t.Errorf("unexpected sites: %v", runs[0].Sites)
	}

	// Site filter.
	filtered, err := hdb.ListRuns(ctx, "example.com", 1)
	if err != nil {
		t.Fatalf("list filtered runs: %v", err)
	}
	if len(filtered) != 1 {
		t.Errorf("got %d filtered runs, want 1", len(filtered))
	}

	none, err := hdb.ListRuns(ctx, "other.org", 0)
	if err != nil {
		t.Fatalf("list unmatched runs: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("got %d runs for other.org, want 0", len(none))
	}
}

// TestHistoryDBGetLatestRun tests latest-run retrieval.
func TestHistoryDBGetLatestRun(t *testing.T) {
	t.Parallel()

	hdb := openTestDB(t)
	ctx := context.Background()

	empty, err := hdb.GetLatestRun(ctx, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if empty != nil {
		t.Error("expected nil when no runs exist")
	}

	first := testReport(1)
	second := testReport(2)
	second.DateScanned = first.DateScanned.Add(time.Hour)

	if _, err := hdb.SaveRun(ctx, first); err != nil {
		t.Fatalf("save first run: %v", err)
	}
	if _, err := hdb.SaveRun(ctx, second); err != nil {
		t.Fatalf("save second run: %v", err)
	}

	latest, err := hdb.GetLatestRun(ctx, "example.com")
	if err != nil {
		t.Fatalf("get latest run: %v", err)
	}
	if latest == nil {
		t.Fatal("latest run not found")
	}
	if latest.Matches.TotalMatches() != 2 {
		t.Errorf("TotalMatches = %d, want 2", latest.Matches.TotalMatches())
	}
}

// TestHistoryDBMatchesForTarget tests the relational match copy.
func TestHistoryDBMatchesForTarget(t *testing.T) {
	t.Parallel()

	hdb := openTestDB(t)
	ctx := context.Background()

	id, err := hdb.SaveRun(ctx, testReport(2))
	if err != nil {
		t.Fatalf("save run: %v", err)
	}

	records, err := hdb.MatchesForTarget(ctx, id, "https://example.com/about")
	if err != nil {
		t.Fatalf("matches for target: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].AnchorText != "About Us" {
		t.Errorf("AnchorText = %q, want About Us", records[0].AnchorText)
	}

	other, err := hdb.MatchesForTarget(ctx, id, "https://example.com/other")
	if err != nil {
		t.Fatalf("matches for unknown target: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("got %d records for unknown target, want 0", len(other))
	}
}

// TestOpenWithoutCreate tests the mode=rw open path.
func TestOpenWithoutCreate(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.CreateIfNotExists = false

	if _, err := Open(t.TempDir(), opts); err == nil {
		t.Fatal("expected error opening a missing database")
	}
}
