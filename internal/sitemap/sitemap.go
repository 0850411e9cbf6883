package sitemap

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"

	"github.com/linklens/linklens/internal/fetch"
	"github.com/linklens/linklens/internal/model"
)

// Index represents a sitemap index document.
// WordPress serves one at /wp-sitemap.xml; each entry points to a
// child sitemap listing the actual page URLs.
type Index struct {
	// XMLName matches the <sitemapindex> root element.
	XMLName xml.Name `xml:"sitemapindex"`

	// Sitemaps are the child sitemap references.
	Sitemaps []Entry `xml:"sitemap"`
}

// Entry is a single <sitemap> element inside a sitemap index.
type Entry struct {
	// Loc is the URL of the child sitemap.
	Loc string `xml:"loc"`

	// LastMod is the optional last modification date.
	LastMod string `xml:"lastmod"`
}

// URLSet represents a child sitemap document listing page URLs.
type URLSet struct {
	// XMLName matches the <urlset> root element.
	XMLName xml.Name `xml:"urlset"`

	// URLs are the page entries.
	URLs []URL `xml:"url"`
}

// URL is a single <url> element inside a urlset.
type URL struct {
	// Loc is the page URL.
	Loc string `xml:"loc"`

	// LastMod is the optional last modification date.
	LastMod string `xml:"lastmod"`
}

// ParseIndex parses a sitemap index document.
// Entries with an empty <loc> are dropped.
//
// Design decision: We only accept <sitemapindex> roots here because:
//  1. A site serving a plain <urlset> at the index path needs different
//     handling (the document already lists pages, not sitemaps)
//  2. Callers can fall back to ParseURLSet when this fails
//  3. Mixing both shapes in one parser hides misconfigured sites
func ParseIndex(data []byte) (*Index, error) {
	var idx Index
	if err := xml.Unmarshal(data, &idx); err != nil {
		return nil, &fetch.Error{
			Kind: model.FailureMalformedXML,
			Err:  fmt.Errorf("parse sitemap index: %w", err),
		}
	}
	if idx.XMLName.Local != "sitemapindex" {
		return nil, &fetch.Error{
			Kind: model.FailureMalformedXML,
			Err:  fmt.Errorf("unexpected root element <%s>, want <sitemapindex>", idx.XMLName.Local),
		}
	}

	filtered := make([]Entry, 0, len(idx.Sitemaps))
	for _, e := range idx.Sitemaps {
		e.Loc = strings.TrimSpace(e.Loc)
		if e.Loc == "" {
			continue
		}
		filtered = append(filtered, e)
	}
	idx.Sitemaps = filtered

	return &idx, nil
}

// ParseURLSet parses a child sitemap document.
// Entries with an empty <loc> are dropped.
func ParseURLSet(data []byte) (*URLSet, error) {
	var set URLSet
	if err := xml.Unmarshal(data, &set); err != nil {
		return nil, &fetch.Error{
			Kind: model.FailureMalformedXML,
			Err:  fmt.Errorf("parse sitemap: %w", err),
		}
	}
	if set.XMLName.Local != "urlset" {
		return nil, &fetch.Error{
			Kind: model.FailureMalformedXML,
			Err:  fmt.Errorf("unexpected root element <%s>, want <urlset>", set.XMLName.Local),
		}
	}

	filtered := make([]URL, 0, len(set.URLs))
	for _, u := range set.URLs {
		u.Loc = strings.TrimSpace(u.Loc)
		if u.Loc == "" {
			continue
		}
		filtered = append(filtered, u)
	}
	set.URLs = filtered

	return &set, nil
}

// IndexURL builds the sitemap index URL for a site.
// The site may be given with or without a scheme; https is assumed
// when missing. The path defaults to wp-sitemap.xml for WordPress.
func IndexURL(site, path string) (string, error) {
	site = strings.TrimSpace(site)
	if site == "" {
		return "", fmt.Errorf("empty site")
	}
	if !strings.Contains(site, "://") {
		site = "https://" + site
	}

	u, err := url.Parse(site)
	if err != nil {
		return "", fmt.Errorf("invalid site %q: %w", site, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid site %q: no host", site)
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(path, "/")
	u.RawQuery = ""
	u.Fragment = ""

	return u.String(), nil
}
