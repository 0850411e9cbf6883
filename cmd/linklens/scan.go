package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/linklens/linklens/internal/config"
	"github.com/linklens/linklens/internal/database"
	"github.com/linklens/linklens/internal/fetch"
	"github.com/linklens/linklens/internal/log"
	"github.com/linklens/linklens/internal/model"
	"github.com/linklens/linklens/internal/pipeline"
	"github.com/linklens/linklens/internal/report"
	"github.com/linklens/linklens/internal/scanner"
	"github.com/linklens/linklens/internal/sitemap"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [target-url...]",
		Short: "Find internal backlinks to the given target URLs",
		Long: `Scan walks each site's sitemap and records every content-region link
pointing at a target URL.

The sites to crawl are derived from the target URLs unless --site is
given. For each target, matches are written to results_<target>.csv in
the output directory (two columns: source page URL, anchor text).
Targets with no backlinks produce no file; the run summary says so.

Examples:
  # Find backlinks to one page (site derived from the target)
  linklens scan https://example.com/about

  # Several targets across two sites
  linklens scan --site example.com --site blog.example.org \
    https://example.com/about https://blog.example.org/pricing

  # Collapse pages listed by more than one sitemap
  linklens scan --dedupe https://example.com/about

  # Machine-readable run summary
  linklens scan --json -o run.json https://example.com/about

Configuration file (.linklens) example:
  defaults:
    sitemapPath: wp-sitemap.xml
  sites:
    staging.example.com:
      sitemapPath: sitemap_index.xml
      headers:
        Cookie: "wordpress_logged_in=..."`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	// Crawl scope flags
	cmd.Flags().StringSliceP("site", "s", nil,
		"Base site URL to crawl (repeatable; default: derived from targets)")
	cmd.Flags().String("sitemap-path", "",
		"Sitemap index path on each site (default: wp-sitemap.xml)")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to crawl per run")
	cmd.Flags().Bool("dedupe", false,
		"Drop pages listed by more than one sitemap instead of flagging them")

	// Fetch behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().Int("sitemap-workers", config.DefaultSitemapWorkers,
		"Number of concurrent child sitemap fetches")
	cmd.Flags().Int("crawl-workers", config.DefaultCrawlWorkers,
		"Number of concurrent page fetches")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .linklens in current or home directory)")

	// Report flags
	cmd.Flags().StringP("output-dir", "d", config.DefaultOutputDir,
		"Directory for per-target CSV result files")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON run summary (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown run summary (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write run summary to specified file path (creates directories if needed)")

	// History flags
	cmd.Flags().Bool("no-save", false,
		"Do not record this run in the local history database")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger, tally := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
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

	return runScan(ctx, cmd, cfg, logger, tally)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.Sites, err = cmd.Flags().GetStringSlice("site")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.SitemapWorkers, err = cmd.Flags().GetInt("sitemap-workers")
	if err != nil {
		return nil, err
	}

	cfg.CrawlWorkers, err = cmd.Flags().GetInt("crawl-workers")
	if err != nil {
		return nil, err
	}

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	cfg.DedupePages, err = cmd.Flags().GetBool("dedupe")
	if err != nil {
		return nil, err
	}

	cfg.OutputDir, err = cmd.Flags().GetString("output-dir")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load site-specific configurations from config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveHistory = !noSave
	cfg.Verbose = getVerboseFlag(cmd)

	// Positional arguments are the target URLs; prompt when absent so
	// the tool works interactively too.
	cfg.Targets = args
	if len(cfg.Targets) == 0 {
		cfg.Targets, err = promptTargets(cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			return nil, err
		}
	}

	// Sites default to the hosts of the targets.
	if len(cfg.Sites) == 0 {
		cfg.Sites, err = deriveSites(cfg.Targets)
		if err != nil {
			return nil, err
		}
	}

	// A sitemap path flag overrides the config file for every site.
	sitemapPath, err := cmd.Flags().GetString("sitemap-path")
	if err != nil {
		return nil, err
	}
	if sitemapPath != "" {
		cfg.SiteConfigs.Defaults.SitemapPath = sitemapPath
	}

	return cfg, nil
}

// promptTargets reads target URLs interactively, one per line, until a
// blank line or EOF. Comma-separated values on one line also work.
func promptTargets(in io.Reader, out io.Writer) ([]string, error) {
	fmt.Fprintln(out, "Enter target URLs (one per line, blank line to finish):")

	var targets []string
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			break
		}
		for _, t := range strings.Split(line, ",") {
			if t = strings.TrimSpace(t); t != "" {
				targets = append(targets, t)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, errors.New("no targets provided")
	}
	return targets, nil
}

// deriveSites extracts the unique scheme://host of each target, in
// first-seen order.
func deriveSites(targets []string) ([]string, error) {
	seen := make(map[string]bool, len(targets))
	var sites []string
	for _, target := range targets {
		u, err := url.Parse(strings.TrimSpace(target))
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("cannot derive site from target %q (need an absolute URL)", target)
		}
		site := u.Scheme + "://" + u.Host
		if !seen[site] {
			seen[site] = true
			sites = append(sites, site)
		}
	}
	return sites, nil
}

// setupLogger creates a structured logger based on verbosity setting.
// The handler is wrapped in a TallyHandler so failure counts logged by
// the workers can be reported at the end of the run.
func setupLogger(verbose bool) (*slog.Logger, *log.TallyHandler) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	tally := log.NewTallyHandler(slog.NewTextHandler(os.Stderr, opts))
	return slog.New(tally), tally
}

// runScan executes the crawl and writes the results.
func runScan(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, tally *log.TallyHandler) error {
	logger.Info("starting scan",
		"sites", cfg.Sites,
		"targets", cfg.Targets,
		"maxPages", cfg.MaxPages,
		"saveHistory", cfg.SaveHistory,
	)

	// Open the history database up front so a broken database fails the
	// run before any crawling happens.
	var db *database.HistoryDB
	if cfg.SaveHistory {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer db.Close()
		logger.Info("history database opened", "dir", cfg.DBDir)
	}

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
	sc := scanner.NewScanner(client, cfg.Targets,
		scanner.WithWorkers(cfg.CrawlWorkers),
		scanner.WithLogger(logger),
	)

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
			pipeline.WithDedupe(cfg.DedupePages),
			pipeline.WithCollectMaxPages(cfg.MaxPages),
		),
		pipeline.NewScanStep(sc, pipeline.WithScanLogger(logger)),
	)

	crawlReport := model.NewCrawlReport(cfg.Sites, cfg.Targets)

	fmt.Fprintf(cmd.OutOrStdout(), "Scanning %s...\n", strings.Join(cfg.Sites, ", "))
	startTime := time.Now()

	execErr := p.Execute(ctx, crawlReport)
	crawlReport.Elapsed = time.Since(startTime)

	if execErr != nil && crawlReport.PagesCrawled == 0 && !crawlReport.TimedOut {
		// Nothing was even crawled; there is no partial result worth
		// writing.
		return execErr
	}
	if execErr != nil {
		logger.Warn("scan ended early, writing partial results", "error", execErr)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Scan completed in %s\n\n", crawlReport.Elapsed.Round(time.Millisecond))

	if total := tally.Total(); total > 0 {
		logger.Debug("logged failure tally", "counts", tally.Snapshot(), "total", total)
	}

	// Per-target CSV files first: they are the primary output.
	csvWriter := report.NewCSVWriter(cfg.OutputDir, report.WithCSVLogger(logger))
	if _, err := csvWriter.Write(crawlReport); err != nil {
		return fmt.Errorf("failed to write CSV results: %w", err)
	}
	for _, target := range crawlReport.Targets {
		if len(crawlReport.Matches[target]) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No backlinks found for %s (no file written)\n", target)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d backlinks)\n",
			filepath.Join(cfg.OutputDir, report.Filename(target)),
			len(crawlReport.Matches[target]))
	}
	fmt.Fprintln(cmd.OutOrStdout())

	if err := outputReport(cmd.OutOrStdout(), cfg, crawlReport); err != nil {
		logger.Error("report output failed", "error", err)
	}

	if db != nil {
		runID, err := db.SaveRun(ctx, crawlReport)
		if err != nil {
			logger.Error("failed to save run to history", "error", err)
		} else {
			logger.Info("run saved to history", "runID", runID)
		}
	}

	return execErr
}

// siteHeaders merges the configured request headers: defaults first,
// then every site entry. With one site this is exactly its headers;
// with several, site entries must not conflict.
func siteHeaders(cfg *config.Config) map[string]string {
	headers := make(map[string]string)
	if cfg.SiteConfigs == nil {
		return headers
	}
	for k, v := range cfg.SiteConfigs.Defaults.Headers {
		headers[k] = v
	}
	for _, site := range cfg.Sites {
		for k, v := range cfg.SiteConfigs.GetSiteConfig(site).Headers {
			headers[k] = v
		}
	}
	return headers
}

// outputReport outputs the run summary in the requested format.
func outputReport(stdout io.Writer, cfg *config.Config, crawlReport *model.CrawlReport) error {
	var output io.Writer = stdout
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(output)
	default:
		w = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	_, err := w.Write(crawlReport)
	return err
}
