package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/linklens/linklens/internal/config"
	"github.com/linklens/linklens/internal/fetch"
	"github.com/linklens/linklens/internal/model"
	"github.com/linklens/linklens/internal/pipeline"
	"github.com/linklens/linklens/internal/scanner"
	"github.com/linklens/linklens/internal/sitemap"
)

// NewSuggestCmd creates the suggest command.
func NewSuggestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest <target-url>",
		Short: "Suggest pages where a link to the target could be added",
		Long: `Suggest crawls the site and lists pages that mention a keyword in
their content body but do not yet link to the target URL. For each
page the sentences containing the keyword are shown, so you can judge
where the link fits.

Examples:
  # Pages mentioning "pricing" that don't link to the pricing page yet
  linklens suggest --keyword pricing https://example.com/pricing

  # Restrict the crawl to a specific site
  linklens suggest --site blog.example.org --keyword pricing \
    https://example.com/pricing`,
		Args: cobra.ExactArgs(1),
		RunE: runSuggestCmd,
	}

	cmd.Flags().StringP("keyword", "k", "",
		"Keyword to search for in page content (required)")
	cmd.Flags().StringSliceP("site", "s", nil,
		"Base site URL to crawl (repeatable; default: derived from the target)")
	cmd.Flags().String("sitemap-path", "",
		"Sitemap index path on each site (default: wp-sitemap.xml)")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to crawl")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().Int("sitemap-workers", config.DefaultSitemapWorkers,
		"Number of concurrent child sitemap fetches")
	cmd.Flags().Int("crawl-workers", config.DefaultCrawlWorkers,
		"Number of concurrent page fetches")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .linklens in current or home directory)")

	if err := cmd.MarkFlagRequired("keyword"); err != nil {
		panic(err)
	}

	return cmd
}

// runSuggestCmd executes the suggest command.
func runSuggestCmd(cmd *cobra.Command, args []string) error {
	target := strings.TrimSpace(args[0])

	keyword, err := cmd.Flags().GetString("keyword")
	if err != nil {
		return err
	}

	cfg := config.NewConfig()
	cfg.Targets = []string{target}

	cfg.Sites, err = cmd.Flags().GetStringSlice("site")
	if err != nil {
		return err
	}
	if len(cfg.Sites) == 0 {
		cfg.Sites, err = deriveSites(cfg.Targets)
		if err != nil {
			return err
		}
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return err
	}
	cfg.SitemapWorkers, err = cmd.Flags().GetInt("sitemap-workers")
	if err != nil {
		return err
	}
	cfg.CrawlWorkers, err = cmd.Flags().GetInt("crawl-workers")
	if err != nil {
		return err
	}
	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	if configPath := config.FindConfigFile(cfg.ConfigFilePath); configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else {
		if cfg.ConfigFilePath != "" {
			return fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
		}
		cfg.SiteConfigs = &config.File{Sites: make(map[string]config.SiteConfig)}
	}
	if sitemapPath, err := cmd.Flags().GetString("sitemap-path"); err == nil && sitemapPath != "" {
		cfg.SiteConfigs.Defaults.SitemapPath = sitemapPath
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger, _ := setupLogger(getVerboseFlag(cmd))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runSuggest(ctx, cmd, cfg, keyword, target, logger)
}

// runSuggest collects the page list and produces keyword suggestions.
func runSuggest(ctx context.Context, cmd *cobra.Command, cfg *config.Config, keyword, target string, logger *slog.Logger) error {
	client := fetch.NewClient(
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithHeaders(siteHeaders(cfg)),
	)

	collector := sitemap.NewCollector(client,
		sitemap.WithWorkers(cfg.SitemapWorkers),
		sitemap.WithLogger(logger),
	)

	// Reuse the discover and collect steps to build the page list.
	p := pipeline.New(pipeline.WithLogger(logger))
	p.AddSteps(
		pipeline.NewDiscoverStep(collector,
			pipeline.WithDiscoverLogger(logger),
			pipeline.WithSitemapPathFunc(func(site string) string {
				return cfg.SiteConfigs.GetSiteConfig(site).SitemapPath
			}),
		),
		pipeline.NewCollectStep(collector,
			pipeline.WithCollectLogger(logger),
			pipeline.WithCollectMaxPages(cfg.MaxPages),
			pipeline.WithDedupe(true),
		),
	)

	crawlReport := model.NewCrawlReport(cfg.Sites, cfg.Targets)
	if err := p.Execute(ctx, crawlReport); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Searching %d pages for %q...\n\n", len(crawlReport.PageURLs), keyword)

	suggester := scanner.NewSuggester(client,
		scanner.WithSuggesterWorkers(cfg.CrawlWorkers),
		scanner.WithSuggesterLogger(logger),
	)

	suggestions, err := suggester.Suggest(ctx, crawlReport.PageURLs, keyword, target)
	if err != nil {
		return err
	}

	if len(suggestions) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No pages mention %q without already linking to %s.\n", keyword, target)
		return nil
	}

	for _, sug := range suggestions {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", sug.PageURL)
		for _, sentence := range sug.Sentences {
			fmt.Fprintf(cmd.OutOrStdout(), "    %s\n", sentence)
		}
		fmt.Fprintln(cmd.OutOrStdout())
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d page(s) could link to %s.\n", len(suggestions), target)
	return nil
}
