package crawler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Netflowar/web-scraper-v2/internal/model"
)

// BatchRunner crawls multiple start URLs concurrently. Each start URL gets
// its own spider, so individual crawls stay strictly sequential while the
// batch as a whole runs up to the concurrency limit.
//
// Design decision: We use a spider factory rather than sharing one spider
// because the visited set and lifecycle state are scoped to a single crawl;
// a fresh spider per start URL means no state leaks between sites.
type BatchRunner struct {
	// spiderFactory creates a new spider for each start URL.
	spiderFactory func() *Spider

	// concurrency is the maximum number of crawls running at once.
	concurrency int

	logger *slog.Logger

	// results stores completed crawl results, indexed like the input.
	// Access is synchronized via mutex.
	results []*model.CrawlResult
	mu      sync.Mutex
}

// BatchOption configures a BatchRunner.
type BatchOption func(*BatchRunner)

// WithBatchLogger sets a custom logger for batch-level events.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchRunner) {
		b.logger = logger
	}
}

// WithBatchConcurrency sets the maximum number of concurrent crawls.
// Default is 4 if not specified.
func WithBatchConcurrency(n int) BatchOption {
	return func(b *BatchRunner) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchRunner creates a BatchRunner. The factory is called once per
// start URL.
func NewBatchRunner(spiderFactory func() *Spider, opts ...BatchOption) *BatchRunner {
	b := &BatchRunner{
		spiderFactory: spiderFactory,
		concurrency:   4,
	}

	for _, opt := range opts {
		opt(b)
	}

	if b.logger == nil {
		b.logger = slog.Default()
	}

	return b
}

// Run crawls all start URLs and returns one result per URL, in input
// order. A crawl that fails still yields its partial result; the error
// return reports cancellation only.
func (b *BatchRunner) Run(ctx context.Context, startURLs []string) ([]*model.CrawlResult, error) {
	b.logger.Info("starting batch crawl",
		"total_sites", len(startURLs),
		"concurrency", b.concurrency,
	)

	startTime := time.Now()
	b.results = make([]*model.CrawlResult, len(startURLs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i, startURL := range startURLs {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			b.logger.Info("crawling site",
				"url", startURL,
				"index", i+1,
				"total", len(startURLs),
			)

			spider := b.spiderFactory()
			result, err := spider.Crawl(ctx, startURL)

			// Store whatever we got; a cancelled crawl still carries
			// the pages gathered before the cancellation.
			b.mu.Lock()
			b.results[i] = result
			b.mu.Unlock()

			if err != nil {
				b.logger.Warn("crawl failed",
					"url", startURL,
					"error", err,
				)
				if ctx.Err() != nil {
					return ctx.Err()
				}
				// A bad start URL should not stop the other sites.
				return nil
			}

			b.logger.Info("crawl completed",
				"url", startURL,
				"pages", result.Stats.PagesAttempted,
			)

			return nil
		})
	}

	err := g.Wait()

	b.logger.Info("batch crawl complete",
		"total_sites", len(startURLs),
		"elapsed", time.Since(startTime),
	)

	return b.results, err
}
