package model

// TargetDiff describes how one target's backlinks changed between two
// runs.
type TargetDiff struct {
	// Target is the target URL.
	Target string `json:"target"`

	// Gained are records present in the newer run only.
	Gained []MatchRecord `json:"gained,omitempty"`

	// Lost are records present in the older run only.
	Lost []MatchRecord `json:"lost,omitempty"`
}

// Changed reports whether the target gained or lost any backlinks.
func (d *TargetDiff) Changed() bool {
	return len(d.Gained) > 0 || len(d.Lost) > 0
}

// DiffMatchTables compares two match tables and returns one diff per
// target, in the order of the newer run's target list. A record counts
// as the same backlink when both source URL and anchor text match;
// duplicate records are compared by multiplicity.
func DiffMatchTables(older, newer MatchTable, targets []string) []TargetDiff {
	diffs := make([]TargetDiff, 0, len(targets))
	for _, target := range targets {
		diffs = append(diffs, TargetDiff{
			Target: target,
			Gained: subtractRecords(newer[target], older[target]),
			Lost:   subtractRecords(older[target], newer[target]),
		})
	}
	return diffs
}

// subtractRecords returns the records of a that are not in b,
// respecting multiplicity.
func subtractRecords(a, b []MatchRecord) []MatchRecord {
	counts := make(map[MatchRecord]int, len(b))
	for _, rec := range b {
		counts[rec]++
	}

	var out []MatchRecord
	for _, rec := range a {
		if counts[rec] > 0 {
			counts[rec]--
			continue
		}
		out = append(out, rec)
	}
	return out
}
