package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Netflowar/web-scraper-v2/internal/config"
	"github.com/Netflowar/web-scraper-v2/internal/crawler"
	"github.com/Netflowar/web-scraper-v2/internal/database"
	"github.com/Netflowar/web-scraper-v2/internal/extract"
	"github.com/Netflowar/web-scraper-v2/internal/fetch"
	"github.com/Netflowar/web-scraper-v2/internal/log"
	"github.com/Netflowar/web-scraper-v2/internal/model"
	"github.com/Netflowar/web-scraper-v2/internal/report"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [url...]",
		Short: "Crawl one or more websites and extract their content",
		Long: `Crawl fetches pages breadth-first starting from the given URLs.

It respects robots.txt (fail-open on errors), waits between requests, and
extracts readable text from every fetched page. Per-page failures are
recorded in the report and never abort the run.

Examples:
  # Crawl a site with defaults (10 pages, depth 1)
  webscraper crawl https://example.com

  # Documentation mode: headings, code examples, table of contents
  webscraper crawl --doc https://docs.python.org/3/

  # Stay on the starting domain and go deeper
  webscraper crawl -s -d 2 -l 50 https://example.com

  # Highlight pages mentioning specific topics
  webscraper crawl -k http,server https://example.com

  # Crawl several sites concurrently and write JSON
  webscraper crawl --json out.json https://a.example https://b.example

Configuration file (.webscraper) example:
  defaults:
    maxLinks: 30
  sites:
    docs.python.org:
      docMode: true
      depth: 2`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	// Crawl behavior flags
	cmd.Flags().IntP("max-links", "l", config.DefaultMaxLinks,
		"Maximum number of pages to fetch, counting failures")
	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth,
		"Maximum link hops from the start URL (0 = start URL only)")
	cmd.Flags().Float64P("rate-limit", "r", config.DefaultRateLimit.Seconds(),
		"Minimum seconds between requests (0 disables rate limiting)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Per-request timeout")
	cmd.Flags().BoolP("same-domain", "s", false,
		"Only follow links on the start URL's registrable domain")
	cmd.Flags().Bool("no-robots", false,
		"Skip robots.txt checks")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header to send")

	// Content flags
	cmd.Flags().BoolP("doc", "D", false,
		"Documentation mode: extract headings, code blocks, and TOC")
	cmd.Flags().StringSliceP("keywords", "k", nil,
		"Keywords to highlight in extracted text (comma-separated)")
	cmd.Flags().Bool("keywords-drop", false,
		"Drop text that matches no keyword instead of highlighting matches")
	cmd.Flags().StringSlice("ignore", nil,
		"URL substrings to exclude from link following (comma-separated)")

	// Batch scanning flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent crawls when multiple URLs are given")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .webscraper in current or home directory)")

	// Report flags
	cmd.Flags().StringP("output", "o", "",
		"Write the text report to this file instead of stdout")
	cmd.Flags().BoolP("markdown", "m", false,
		"Render the main report as Markdown instead of plain text")
	cmd.Flags().String("json", "",
		"Also write structured JSON output to this file")
	cmd.Flags().String("links", "",
		"Also write the numbered link list to this file")
	cmd.Flags().Bool("no-db", false,
		"Do not save results to the local database")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	cfg.ApplyModeDefaults()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runCrawl(ctx, cfg, logger)
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

	cfg.MaxLinks, err = cmd.Flags().GetInt("max-links")
	if err != nil {
		return nil, err
	}

	cfg.MaxDepth, err = cmd.Flags().GetInt("depth")
	if err != nil {
		return nil, err
	}

	rateSeconds, err := cmd.Flags().GetFloat64("rate-limit")
	if err != nil {
		return nil, err
	}
	cfg.RateLimit = time.Duration(rateSeconds * float64(time.Second))

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.FilterSameDomain, err = cmd.Flags().GetBool("same-domain")
	if err != nil {
		return nil, err
	}

	noRobots, err := cmd.Flags().GetBool("no-robots")
	if err != nil {
		return nil, err
	}
	cfg.RespectRobots = !noRobots

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.DocMode, err = cmd.Flags().GetBool("doc")
	if err != nil {
		return nil, err
	}

	cfg.Keywords, err = cmd.Flags().GetStringSlice("keywords")
	if err != nil {
		return nil, err
	}

	cfg.KeywordsDrop, err = cmd.Flags().GetBool("keywords-drop")
	if err != nil {
		return nil, err
	}

	cfg.IgnorePatterns, err = cmd.Flags().GetStringSlice("ignore")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load site-specific configurations from config file.
	// An explicitly specified file must exist; an implicit one may not.
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

	cfg.OutputFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.JSONFile, err = cmd.Flags().GetString("json")
	if err != nil {
		return nil, err
	}

	cfg.LinksFile, err = cmd.Flags().GetString("links")
	if err != nil {
		return nil, err
	}

	noDB, err := cmd.Flags().GetBool("no-db")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noDB
	cfg.DBDir = config.XDGDataDir()

	cfg.Verbose = getVerboseFlag(cmd)

	// Positional arguments are the start URLs
	cfg.StartURLs = args

	return cfg, nil
}

// runCrawl executes the crawl for all configured start URLs.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if len(cfg.StartURLs) == 0 {
		return errors.New("no start URL provided (specify one or more URLs as arguments)")
	}

	logger.Info("starting crawl",
		"urls", cfg.StartURLs,
		"maxLinks", cfg.MaxLinks,
		"maxDepth", cfg.MaxDepth,
		"docMode", cfg.DocMode,
	)

	var db *database.CrawlDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer func() { _ = db.Close() }()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	if len(cfg.StartURLs) > 1 && cfg.BatchSize > 1 {
		return runBatchCrawl(ctx, cfg, db, logger)
	}

	return runSequentialCrawl(ctx, cfg, db, logger)
}

// runSequentialCrawl crawls start URLs one at a time.
func runSequentialCrawl(ctx context.Context, cfg *config.Config, db *database.CrawlDB, logger *slog.Logger) error {
	multi := len(cfg.StartURLs) > 1

	for _, startURL := range cfg.StartURLs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		siteCfg := siteConfigFor(cfg, startURL)
		spider := newSpider(siteCfg, logger, true)

		fmt.Printf("Crawling %s...\n", startURL)
		startTime := time.Now()

		result, err := spider.Crawl(ctx, startURL)
		if err != nil && result == nil {
			logger.Error("crawl failed", "url", startURL, "error", err)
			fmt.Fprintf(os.Stderr, "Crawl error for %s: %v\n", startURL, err)
			continue
		}

		fmt.Printf("\nCrawl finished in %s (%d pages, %d failed)\n\n",
			time.Since(startTime).Round(time.Millisecond),
			result.Stats.PagesAttempted,
			result.Stats.PagesFailed,
		)

		if err := outputReport(siteCfg, result, multi); err != nil {
			logger.Error("report failed", "url", startURL, "error", err)
		}

		if err := saveResult(ctx, db, result, logger); err != nil {
			logger.Error("failed to save result", "url", startURL, "error", err)
		}

		if err != nil {
			// Context cancellation: partial results are already written.
			return err
		}
	}

	return nil
}

// runBatchCrawl crawls multiple start URLs concurrently using BatchRunner.
//
// Each site gets its own spider, so the per-site rate limiter stays exact;
// only crawls of different sites overlap.
func runBatchCrawl(ctx context.Context, cfg *config.Config, db *database.CrawlDB, logger *slog.Logger) error {
	fmt.Printf("Starting batch crawl of %d sites (concurrency: %d)...\n\n",
		len(cfg.StartURLs), cfg.BatchSize)

	startTime := time.Now()

	runner := crawler.NewBatchRunner(
		func() *crawler.Spider {
			return newSpider(cfg, logger, false)
		},
		crawler.WithBatchConcurrency(cfg.BatchSize),
		crawler.WithBatchLogger(logger),
	)

	if cfg.SiteConfigs != nil && len(cfg.SiteConfigs.Sites) > 0 {
		logger.Warn("batch mode uses the default site config only; per-site overrides are ignored",
			"siteCount", len(cfg.SiteConfigs.Sites))
		fmt.Fprintf(os.Stderr, "Warning: Site-specific configurations are ignored in batch mode. Use --batch 1 to apply per-site settings.\n\n")
	}

	results, err := runner.Run(ctx, cfg.StartURLs)

	for i, result := range results {
		if result == nil {
			continue
		}

		fmt.Printf("[%d/%d] Crawl completed: %s (%d pages)\n",
			i+1, len(results), result.StartURL, result.Stats.PagesAttempted)

		if werr := outputReport(cfg, result, true); werr != nil {
			logger.Error("report failed", "url", result.StartURL, "error", werr)
		}
		if serr := saveResult(ctx, db, result, logger); serr != nil {
			logger.Error("failed to save result", "url", result.StartURL, "error", serr)
		}
	}

	fmt.Printf("\nBatch crawl completed in %s\n", time.Since(startTime).Round(time.Millisecond))

	return err
}

// siteConfigFor returns a copy of the config with the host's overrides
// from the config file applied.
func siteConfigFor(cfg *config.Config, startURL string) *config.Config {
	site := *cfg

	if cfg.SiteConfigs == nil {
		return &site
	}

	u, err := url.Parse(startURL)
	if err != nil {
		return &site
	}

	cfg.SiteConfigs.GetSiteConfig(u.Hostname()).Apply(&site)
	return &site
}

// newSpider assembles a spider from the config: HTTP client, extractor,
// rate limiter, and robots gate. Progress output is only wired for
// sequential runs; interleaved progress from concurrent crawls is noise.
func newSpider(cfg *config.Config, logger *slog.Logger, progress bool) *crawler.Spider {
	httpClient := &http.Client{Timeout: cfg.Timeout}

	client := fetch.NewClient(httpClient,
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
	)

	textOpts := []extract.TextOption{
		extract.WithKeywords(cfg.Keywords),
		extract.WithKeywordsDrop(cfg.KeywordsDrop),
	}

	var extractor extract.Extractor
	if cfg.DocMode {
		extractor = extract.NewDocExtractor(textOpts...)
	} else {
		extractor = extract.NewTextExtractor(textOpts...)
	}

	opts := []crawler.Option{
		crawler.WithMaxLinks(cfg.MaxLinks),
		crawler.WithMaxDepth(cfg.MaxDepth),
		crawler.WithRateLimiter(crawler.NewRateLimiter(cfg.RateLimit)),
		crawler.WithRobotsGate(crawler.NewRobotsGate(httpClient, cfg.RespectRobots)),
		crawler.WithSameDomainOnly(cfg.FilterSameDomain),
		crawler.WithDocMode(cfg.DocMode),
		crawler.WithIgnorePatterns(cfg.IgnorePatterns),
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithLogger(logger),
	}

	if progress {
		opts = append(opts, crawler.WithProgress(func(done, max int) {
			fmt.Printf("\rProgress: %d/%d pages", done, max)
		}))
	}

	return crawler.NewSpider(client, extractor, opts...)
}

// outputReport writes the result to the configured destinations.
func outputReport(cfg *config.Config, result *model.CrawlResult, multi bool) error {
	var writers []report.Writer

	// Main report: file or stdout, text or markdown
	mainOut := os.Stdout
	if cfg.OutputFile != "" {
		f, err := createOutputFile(outputPathFor(cfg.OutputFile, result.StartURL, multi))
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		mainOut = f
	}

	if cfg.MarkdownReport {
		writers = append(writers, report.NewMarkdownWriter(mainOut))
	} else {
		writers = append(writers, report.NewTextWriter(mainOut))
	}

	if cfg.JSONFile != "" {
		f, err := createOutputFile(outputPathFor(cfg.JSONFile, result.StartURL, multi))
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		writers = append(writers, report.NewJSONWriter(f))
	}

	if cfg.LinksFile != "" {
		f, err := createOutputFile(outputPathFor(cfg.LinksFile, result.StartURL, multi))
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		writers = append(writers, report.NewLinksWriter(f))
	}

	_, err := report.NewMultiWriter(writers...).Write(result)
	return err
}

// outputPathFor derives a per-site output path in batch mode so sites do
// not overwrite each other's reports: report.txt becomes
// report.example.com.txt.
func outputPathFor(path, startURL string, multi bool) string {
	if !multi {
		return path
	}

	u, err := url.Parse(startURL)
	if err != nil || u.Hostname() == "" {
		return path
	}

	ext := filepath.Ext(path)
	host := strings.ReplaceAll(u.Hostname(), ":", "_")
	return strings.TrimSuffix(path, ext) + "." + host + ext
}

// createOutputFile creates an output file, making parent directories as
// needed.
func createOutputFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// saveResult persists a finished run if the database is enabled.
func saveResult(ctx context.Context, db *database.CrawlDB, result *model.CrawlResult, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	runID, err := db.SaveResult(ctx, result)
	if err != nil {
		return err
	}

	logger.Info("saved crawl result", "runID", runID, "url", result.StartURL)
	return nil
}
