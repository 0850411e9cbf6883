package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/linklens/linklens/internal/database"
	"github.com/linklens/linklens/internal/model"
)

// seedRun records one crawl run in the database under dbDir and returns
// its run ID.
func seedRun(t *testing.T, dbDir string, scanned time.Time, matches map[string][]model.MatchRecord) int64 {
	t.Helper()

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	defer db.Close()

	targets := make([]string, 0, len(matches))
	for target := range matches {
		targets = append(targets, target)
	}

	report := model.NewCrawlReport([]string{"https://example.com"}, targets)
	report.DateScanned = scanned
	report.PagesCrawled = 10
	report.PagesWithContent = 9
	for target, records := range matches {
		report.Matches.Append(target, records...)
	}

	id, err := db.SaveRun(context.Background(), report)
	if err != nil {
		t.Fatalf("save run: %v", err)
	}
	return id
}

// TestHistoryCmd tests listing recorded runs.
func TestHistoryCmd(t *testing.T) {
	t.Parallel()

	t.Run("lists runs newest first", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		seedRun(t, dbDir, time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC), map[string][]model.MatchRecord{
			"https://example.com/about": {
				{SourceURL: "https://example.com/blog/post1", AnchorText: "About Us"},
			},
		})
		seedRun(t, dbDir, time.Date(2026, 8, 15, 9, 0, 0, 0, time.UTC), map[string][]model.MatchRecord{
			"https://example.com/about": {
				{SourceURL: "https://example.com/blog/post1", AnchorText: "About Us"},
				{SourceURL: "https://example.com/blog/post2", AnchorText: "our team"},
			},
		})

		cmd := NewHistoryCmd()
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		cmd.SetErr(&buf)
		cmd.SetArgs([]string{"--db-dir", dbDir})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("history failed: %v", err)
		}

		out := buf.String()
		if !strings.Contains(out, "ID") || !strings.Contains(out, "MATCHES") {
			t.Errorf("missing header in output:\n%s", out)
		}
		if !strings.Contains(out, "2026-08-15") || !strings.Contains(out, "2026-08-01") {
			t.Errorf("missing run rows in output:\n%s", out)
		}
		// Newest run first.
		if idx15, idx01 := strings.Index(out, "2026-08-15"), strings.Index(out, "2026-08-01"); idx15 > idx01 {
			t.Errorf("runs not listed newest first:\n%s", out)
		}
	})

	t.Run("missing database is a helpful error", func(t *testing.T) {
		t.Parallel()

		cmd := NewHistoryCmd()
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		cmd.SetErr(&buf)
		cmd.SetArgs([]string{"--db-dir", t.TempDir()})

		err := cmd.Execute()
		if err == nil {
			t.Fatal("expected error for missing database")
		}
		if !strings.Contains(err.Error(), "no history database") {
			t.Errorf("unexpected error message: %v", err)
		}
	})

	t.Run("empty database says no runs", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		db, err := database.Open(dbDir, database.DefaultOptions())
		if err != nil {
			t.Fatalf("open database: %v", err)
		}
		db.Close()

		cmd := NewHistoryCmd()
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		cmd.SetErr(&buf)
		cmd.SetArgs([]string{"--db-dir", dbDir})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("history failed: %v", err)
		}
		if !strings.Contains(buf.String(), "No runs recorded.") {
			t.Errorf("unexpected output:\n%s", buf.String())
		}
	})
}
