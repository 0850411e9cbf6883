package model

import "testing"

// TestDiffMatchTables tests backlink set comparison between runs.
func TestDiffMatchTables(t *testing.T) {
	t.Parallel()

	target := "https://example.com/about"
	keep := MatchRecord{SourceURL: "https://example.com/p1", AnchorText: "About"}
	lost := MatchRecord{SourceURL: "https://example.com/p2", AnchorText: "About Us"}
	gained := MatchRecord{SourceURL: "https://example.com/p3", AnchorText: "our team"}

	older := NewMatchTable([]string{target})
	older.Append(target, keep, lost)

	newer := NewMatchTable([]string{target})
	newer.Append(target, keep, gained)

	diffs := DiffMatchTables(older, newer, []string{target})
	if len(diffs) != 1 {
		t.Fatalf("got %d diffs, want 1", len(diffs))
	}

	d := diffs[0]
	if !d.Changed() {
		t.Error("expected a change")
	}
	if len(d.Gained) != 1 || d.Gained[0] != gained {
		t.Errorf("Gained = %v, want [%v]", d.Gained, gained)
	}
	if len(d.Lost) != 1 || d.Lost[0] != lost {
		t.Errorf("Lost = %v, want [%v]", d.Lost, lost)
	}

	t.Run("identical tables produce no change", func(t *testing.T) {
		t.Parallel()

		a := NewMatchTable([]string{target})
		a.Append(target, keep)
		b := NewMatchTable([]string{target})
		b.Append(target, keep)

		diffs := DiffMatchTables(a, b, []string{target})
		if diffs[0].Changed() {
			t.Errorf("unexpected change: %+v", diffs[0])
		}
	})

	t.Run("duplicates are compared by multiplicity", func(t *testing.T) {
		t.Parallel()

		a := NewMatchTable([]string{target})
		a.Append(target, keep)
		b := NewMatchTable([]string{target})
		b.Append(target, keep, keep)

		diffs := DiffMatchTables(a, b, []string{target})
		if len(diffs[0].Gained) != 1 {
			t.Errorf("Gained = %d, want 1", len(diffs[0].Gained))
		}
		if len(diffs[0].Lost) != 0 {
			t.Errorf("Lost = %d, want 0", len(diffs[0].Lost))
		}
	})
}
