package model

// MatchRecord records one observed hyperlink from a source page to a
// target URL. Records are created by the page scanner and never mutated
// afterwards.
type MatchRecord struct {
	// SourceURL is the URL of the page that contains the link.
	SourceURL string `json:"source_url"`

	// AnchorText is the visible text of the link, with leading and
	// trailing whitespace stripped and Unicode-normalized (NFC).
	AnchorText string `json:"anchor_text"`
}

// MatchTable maps each target URL to the ordered list of match records
// observed for it. Insertion order across concurrent page scans is not
// guaranteed; the lists carry multiset semantics.
//
// Design decision: The table is pre-initialized with every target mapped
// to an empty list before the crawl begins. This keeps the invariant that
// every user-supplied target has an entry (possibly empty) and removes any
// key-creation race during aggregation.
type MatchTable map[string][]MatchRecord

// NewMatchTable creates a MatchTable with an empty entry for every target.
func NewMatchTable(targets []string) MatchTable {
	t := make(MatchTable, len(targets))
	for _, target := range targets {
		t[target] = []MatchRecord{}
	}
	return t
}

// Append adds records for a target. Unknown targets are ignored; the set
// of targets is fixed at construction time.
func (t MatchTable) Append(target string, records ...MatchRecord) {
	if _, ok := t[target]; !ok {
		return
	}
	t[target] = append(t[target], records...)
}

// Merge folds another table's records into this one, target by target.
// It is intended to be called only from the single aggregation goroutine.
func (t MatchTable) Merge(other MatchTable) {
	for target, records := range other {
		t.Append(target, records...)
	}
}

// TotalMatches returns the number of match records across all targets.
func (t MatchTable) TotalMatches() int {
	var n int
	for _, records := range t {
		n += len(records)
	}
	return n
}

// Targets returns the target URLs in the table. Order is unspecified.
func (t MatchTable) Targets() []string {
	targets := make([]string, 0, len(t))
	for target := range t {
		targets = append(targets, target)
	}
	return targets
}
