package scanner

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"

	"github.com/linklens/linklens/internal/fetch"
	"github.com/linklens/linklens/internal/model"
)

// contentSelectors are tried in order to locate the main content
// region of a page. Navigation menus, sidebars, and footers link to
// everything; only editorial links inside the content body count.
var contentSelectors = []string{"article", "main"}

// Link is a hyperlink found inside a page's content region.
type Link struct {
	// URL is the absolute link target, normalized.
	URL string

	// AnchorText is the link's visible text, whitespace-trimmed and
	// NFC-normalized.
	AnchorText string
}

// ParsePage parses an HTML page and returns the links found in its
// content region. The page URL is used to resolve relative hrefs.
//
// Design decision: We scope link extraction to the first <article>
// (falling back to <main>) because:
//  1. WordPress themes wrap post bodies in <article>
//  2. Header and footer links would match targets on every page
//  3. A page without either element has no editorial body to scan
func ParsePage(pageURL string, body []byte) ([]Link, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &fetch.Error{
			Kind: model.FailureParse,
			URL:  pageURL,
			Err:  fmt.Errorf("parse html: %w", err),
		}
	}

	region := findContentRegion(doc)
	if region == nil {
		return nil, &fetch.Error{
			Kind: model.FailureNoContentRegion,
			URL:  pageURL,
			Err:  fmt.Errorf("no content region found"),
		}
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, &fetch.Error{
			Kind: model.FailureParse,
			URL:  pageURL,
			Err:  fmt.Errorf("parse page url: %w", err),
		}
	}

	var links []Link
	region.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}

		resolved := resolveLink(base, href)
		if resolved == "" {
			return
		}

		text := norm.NFC.String(strings.TrimSpace(sel.Text()))
		links = append(links, Link{URL: resolved, AnchorText: text})
	})

	return links, nil
}

// findContentRegion returns the first matching content element, or
// nil when the page has none.
func findContentRegion(doc *goquery.Document) *goquery.Selection {
	for _, selector := range contentSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() > 0 {
			return sel
		}
	}
	return nil
}

// resolveLink resolves an href against the page URL and normalizes it.
// Non-HTTP schemes (mailto:, javascript:, tel:) resolve to "".
func resolveLink(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}

	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}

	return NormalizeURL(abs.String())
}

// NormalizeURL normalizes a URL for comparison against targets.
// The fragment is dropped, scheme and host are lowercased, and a
// trailing slash on a non-root path is removed. Query strings are
// kept; /page?id=1 and /page are different pages.
func NormalizeURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return strings.TrimSpace(rawURL)
	}

	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if len(u.Path) > 1 {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	return u.String()
}
