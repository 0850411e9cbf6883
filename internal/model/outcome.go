package model

// FailureKind classifies why a fetch or parse yielded no usable result.
// Every kind feeds the same non-fatal path: the failure is logged, tallied,
// and converted into an empty result so the crawl continues.
type FailureKind string

// Failure kinds, mirroring the error taxonomy of the crawl pipeline.
//
// Design decision: Timeout is a distinct kind rather than a flavor of
// network failure because a timeout bounds worker-slot occupancy; knowing
// how often it fires tells the operator whether the per-request timeout is
// too aggressive for the site being crawled.
const (
	// FailureNone indicates no failure.
	FailureNone FailureKind = ""

	// FailureNetwork is a transport-level error (DNS, connect, reset).
	FailureNetwork FailureKind = "network"

	// FailureTimeout is a per-request deadline expiry.
	FailureTimeout FailureKind = "timeout"

	// FailureStatus is a non-2xx HTTP response.
	FailureStatus FailureKind = "http_status"

	// FailureMalformedXML is a sitemap document that could not be parsed.
	FailureMalformedXML FailureKind = "malformed_xml"

	// FailureParse is an HTML document that could not be parsed.
	FailureParse FailureKind = "html_parse"

	// FailureNoContentRegion is an HTML page without an article/main
	// element. Not an error in the strict sense, but tallied so the run
	// summary can report how many pages were skipped for this reason.
	FailureNoContentRegion FailureKind = "no_content_region"
)

// PageOutcome is the explicit per-page result emitted by scan workers.
//
// Design decision: We represent per-unit outcomes as a result type rather
// than silently substituting empty values, so the diagnostics layer can
// distinguish "page had no matches" from "page could not be fetched".
type PageOutcome struct {
	// URL is the page that was scanned.
	URL string `json:"url"`

	// Failure is FailureNone on success.
	Failure FailureKind `json:"failure,omitempty"`

	// Err holds the underlying error for logging. Nil on success and for
	// FailureNoContentRegion.
	Err error `json:"-"`

	// Matches maps target URLs to the records found on this page.
	// Only targets with at least one match appear here.
	Matches MatchTable `json:"matches,omitempty"`

	// LinkCount is the number of hyperlinks found in the content region.
	LinkCount int `json:"link_count"`
}

// OK reports whether the page was fetched and a content region was found.
func (o *PageOutcome) OK() bool {
	return o.Failure == FailureNone
}
