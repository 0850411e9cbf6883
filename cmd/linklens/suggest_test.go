package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestSuggestCmdEndToEnd runs the suggest command against a local test
// site. One page mentions the keyword without linking, one already
// links, one never mentions it.
func TestSuggestCmdEndToEnd(t *testing.T) {
	mux := http.NewServeMux()
	var srv *httptest.Server

	mux.HandleFunc("/wp-sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
<sitemap><loc>%s/wp-sitemap-posts-post-1.xml</loc></sitemap>
</sitemapindex>`, srv.URL)
	})
	mux.HandleFunc("/wp-sitemap-posts-post-1.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
<url><loc>%s/blog/candidate</loc></url>
<url><loc>%s/blog/linked</loc></url>
<url><loc>%s/blog/unrelated</loc></url>
</urlset>`, srv.URL, srv.URL, srv.URL)
	})
	mux.HandleFunc("/blog/candidate", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><article>
<p>Our pricing is simple. Contact sales to learn more.</p>
</article></body></html>`)
	})
	mux.HandleFunc("/blog/linked", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><article>
<p>See our <a href="/pricing">pricing</a> page.</p>
</article></body></html>`)
	})
	mux.HandleFunc("/blog/unrelated", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><article><p>Nothing relevant here.</p></article></body></html>`)
	})
	mux.HandleFunc("/pricing", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><article><p>Plans and pricing.</p></article></body></html>`)
	})

	srv = httptest.NewServer(mux)
	defer srv.Close()

	root := NewRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs([]string{
		"suggest",
		"--keyword", "pricing",
		"--site", srv.URL,
		srv.URL + "/pricing",
	})

	if err := root.Execute(); err != nil {
		t.Fatalf("suggest failed: %v\noutput:\n%s", err, buf.String())
	}

	out := buf.String()
	if !strings.Contains(out, srv.URL+"/blog/candidate") {
		t.Errorf("missing candidate page in output:\n%s", out)
	}
	if strings.Contains(out, srv.URL+"/blog/linked\n") {
		t.Errorf("page that already links should not be suggested:\n%s", out)
	}
	if strings.Contains(out, srv.URL+"/blog/unrelated") {
		t.Errorf("page without the keyword should not be suggested:\n%s", out)
	}
	if !strings.Contains(out, "Our pricing is simple.") {
		t.Errorf("missing keyword sentence in output:\n%s", out)
	}
	if !strings.Contains(out, "1 page(s) could link to") {
		t.Errorf("missing summary line:\n%s", out)
	}
}

// TestSuggestCmdRequiresKeyword tests that the keyword flag is required.
func TestSuggestCmdRequiresKeyword(t *testing.T) {
	t.Parallel()

	cmd := NewSuggestCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"https://example.com/pricing"})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error when --keyword is missing")
	}
}
