package main

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/linklens/linklens/internal/model"
)

// TestCompareCmd tests diffing backlinks between two recorded runs.
func TestCompareCmd(t *testing.T) {
	t.Parallel()

	t.Run("compares two runs by ID", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		olderID := seedRun(t, dbDir, time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC), map[string][]model.MatchRecord{
			"https://example.com/about": {
				{SourceURL: "https://example.com/blog/post1", AnchorText: "About Us"},
				{SourceURL: "https://example.com/blog/old", AnchorText: "the team"},
			},
		})
		newerID := seedRun(t, dbDir, time.Date(2026, 8, 15, 9, 0, 0, 0, time.UTC), map[string][]model.MatchRecord{
			"https://example.com/about": {
				{SourceURL: "https://example.com/blog/post1", AnchorText: "About Us"},
				{SourceURL: "https://example.com/blog/post2", AnchorText: "our story"},
			},
		})

		cmd := NewCompareCmd()
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		cmd.SetErr(&buf)
		cmd.SetArgs([]string{
			"--db-dir", dbDir,
			fmt.Sprintf("%d", olderID),
			fmt.Sprintf("%d", newerID),
		})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("compare failed: %v", err)
		}

		out := buf.String()
		if !strings.Contains(out, "https://example.com/about (+0)") {
			t.Errorf("missing per-target net change line:\n%s", out)
		}
		if !strings.Contains(out, "+ https://example.com/blog/post2") {
			t.Errorf("missing gained backlink:\n%s", out)
		}
		if !strings.Contains(out, "- https://example.com/blog/old") {
			t.Errorf("missing lost backlink:\n%s", out)
		}
	})

	t.Run("defaults to the two most recent runs", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		seedRun(t, dbDir, time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC), map[string][]model.MatchRecord{
			"https://example.com/about": {},
		})
		seedRun(t, dbDir, time.Date(2026, 8, 15, 9, 0, 0, 0, time.UTC), map[string][]model.MatchRecord{
			"https://example.com/about": {
				{SourceURL: "https://example.com/blog/post1", AnchorText: "About Us"},
			},
		})

		cmd := NewCompareCmd()
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		cmd.SetErr(&buf)
		cmd.SetArgs([]string{"--db-dir", dbDir})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("compare failed: %v", err)
		}

		out := buf.String()
		if !strings.Contains(out, "https://example.com/about (+1)") {
			t.Errorf("missing gained backlink summary:\n%s", out)
		}
	})

	t.Run("identical runs report no changes", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		matches := map[string][]model.MatchRecord{
			"https://example.com/about": {
				{SourceURL: "https://example.com/blog/post1", AnchorText: "About Us"},
			},
		}
		seedRun(t, dbDir, time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC), matches)
		seedRun(t, dbDir, time.Date(2026, 8, 15, 9, 0, 0, 0, time.UTC), matches)

		cmd := NewCompareCmd()
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		cmd.SetErr(&buf)
		cmd.SetArgs([]string{"--db-dir", dbDir})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("compare failed: %v", err)
		}
		if !strings.Contains(buf.String(), "No backlink changes between the two runs.") {
			t.Errorf("unexpected output:\n%s", buf.String())
		}
	})

	t.Run("single run ID is an error", func(t *testing.T) {
		t.Parallel()

		cmd := NewCompareCmd()
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		cmd.SetErr(&buf)
		cmd.SetArgs([]string{"--db-dir", t.TempDir(), "1"})

		if err := cmd.Execute(); err == nil {
			t.Fatal("expected error for a single run ID")
		}
	})
}
