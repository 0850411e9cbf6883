package scanner

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/linklens/linklens/internal/config"
	"github.com/linklens/linklens/internal/fetch"
	"github.com/linklens/linklens/internal/log"
	"github.com/linklens/linklens/internal/model"
)

// Suggester finds pages where a keyword appears in the content body
// but no link to the target exists yet. Each hit reports the sentences
// mentioning the keyword, so the user can judge where a link fits.
type Suggester struct {
	// client fetches pages.
	client *fetch.Client

	// workers bounds the number of pages fetched at once.
	workers int

	// logger reports per-page failures.
	logger *slog.Logger
}

// SuggesterOption configures a Suggester.
type SuggesterOption func(*Suggester)

// WithSuggesterWorkers sets the number of concurrent page fetches.
func WithSuggesterWorkers(n int) SuggesterOption {
	return func(s *Suggester) {
		s.workers = n
	}
}

// WithSuggesterLogger sets the logger for per-page failures.
func WithSuggesterLogger(logger *slog.Logger) SuggesterOption {
	return func(s *Suggester) {
		s.logger = logger
	}
}

// NewSuggester creates a Suggester using the given fetch client.
func NewSuggester(client *fetch.Client, opts ...SuggesterOption) *Suggester {
	s := &Suggester{
		client:  client,
		workers: config.DefaultCrawlWorkers,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Suggest crawls the pages and returns link placement suggestions for
// the keyword. Pages already linking to the target are skipped; they
// need no new link. Results keep the input page order.
func (s *Suggester) Suggest(ctx context.Context, pageURLs []string, keyword, target string) ([]model.Suggestion, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, fmt.Errorf("empty keyword")
	}

	pattern, err := sentencePattern(keyword)
	if err != nil {
		return nil, fmt.Errorf("build keyword pattern: %w", err)
	}
	normalizedTarget := NormalizeURL(target)

	type item struct {
		index      int
		suggestion *model.Suggestion
	}
	results := make(chan item, len(pageURLs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, pageURL := range pageURLs {
		g.Go(func() error {
			sug, err := s.suggestOne(ctx, pageURL, keyword, normalizedTarget, pattern)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.logger.Warn("suggest scan failed",
					"page", pageURL,
					"error", err,
					log.FailureAttrKey, string(fetch.Kind(err)))
				return nil
			}
			if sug != nil {
				results <- item{index: i, suggestion: sug}
			}
			return nil
		})
	}

	err = g.Wait()
	close(results)

	byIndex := make([]*model.Suggestion, len(pageURLs))
	for it := range results {
		byIndex[it.index] = it.suggestion
	}

	var suggestions []model.Suggestion
	for _, sug := range byIndex {
		if sug != nil {
			suggestions = append(suggestions, *sug)
		}
	}

	if err != nil {
		return suggestions, err
	}
	return suggestions, nil
}

// suggestOne inspects a single page. It returns nil without error when
// the page has no keyword hit or already links to the target.
func (s *Suggester) suggestOne(ctx context.Context, pageURL, keyword, normalizedTarget string, pattern *regexp.Regexp) (*model.Suggestion, error) {
	body, err := s.client.Get(ctx, pageURL)
	if err != nil {
		return nil, err
	}

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
		// No content body to place a link in.
		return nil, nil
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, &fetch.Error{
			Kind: model.FailureParse,
			URL:  pageURL,
			Err:  fmt.Errorf("parse page url: %w", err),
		}
	}

	// Skip pages that already link to the target.
	linked := false
	region.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		if !ok {
			return true
		}
		if resolveLink(base, strings.TrimSpace(href)) == normalizedTarget {
			linked = true
			return false
		}
		return true
	})
	if linked {
		return nil, nil
	}

	sentences := findSentences(region.Text(), pattern)
	if len(sentences) == 0 {
		return nil, nil
	}

	return &model.Suggestion{
		PageURL:   pageURL,
		Keyword:   keyword,
		Sentences: sentences,
	}, nil
}

// sentencePattern builds a case-insensitive pattern matching whole
// sentences that contain the keyword as a whole word, so "pricing"
// does not hit "repricing".
func sentencePattern(keyword string) (*regexp.Regexp, error) {
	return regexp.Compile(`(?i)[^.!?\n]*\b` + regexp.QuoteMeta(keyword) + `\b[^.!?\n]*[.!?]?`)
}

// findSentences extracts the trimmed, deduplicated sentences matching
// the keyword pattern.
func findSentences(text string, pattern *regexp.Regexp) []string {
	seen := make(map[string]bool)
	var sentences []string
	for _, m := range pattern.FindAllString(text, -1) {
		sentence := strings.Join(strings.Fields(m), " ")
		if sentence == "" || seen[sentence] {
			continue
		}
		seen[sentence] = true
		sentences = append(sentences, sentence)
	}
	return sentences
}
