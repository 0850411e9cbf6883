package model

// Suggestion records a page that mentions a keyword in its content region
// but does not yet link to the target URL, making it a candidate location
// for a new internal link.
type Suggestion struct {
	// PageURL is the page where the keyword was found.
	PageURL string `json:"page_url"`

	// Keyword is the keyword that matched.
	Keyword string `json:"keyword"`

	// Sentences are the sentences containing the keyword, trimmed.
	Sentences []string `json:"sentences"`
}
