package crawler

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/Netflowar/web-scraper-v2/internal/extract"
	"github.com/Netflowar/web-scraper-v2/internal/fetch"
	"github.com/Netflowar/web-scraper-v2/internal/model"
)

// ProgressFunc is invoked after each page attempt with the number of
// pages attempted so far and the link budget. It is supplied by the
// caller; panics inside it are recovered and never abort the crawl.
type ProgressFunc func(done, max int)

// Spider is the crawl controller. It owns the frontier, the visited set,
// and the result collection; no other component mutates them, so the
// sequential loop needs no locking.
//
// Design decision: We call it "Spider" rather than "Crawler" because it
// distinguishes the component from the package name: crawler.NewSpider()
// reads better than crawler.NewCrawler().
type Spider struct {
	fetcher   fetch.Fetcher
	extractor extract.Extractor
	limiter   *RateLimiter
	robots    *RobotsGate
	logger    *slog.Logger

	// maxLinks bounds how many URLs are dequeued and fetched, counting
	// failures. maxDepth bounds link hops; 0 fetches only the start URL.
	maxLinks int
	maxDepth int

	sameDomainOnly bool
	docMode        bool
	userAgent      string
	ignorePatterns []string
	progress       ProgressFunc

	state model.CrawlState
}

// Option configures a Spider.
type Option func(*Spider)

// WithMaxLinks sets the link budget: the total number of fetch attempts.
func WithMaxLinks(n int) Option {
	return func(s *Spider) { s.maxLinks = n }
}

// WithMaxDepth sets the maximum crawl depth.
// 0 = only the starting page, 1 = starting page plus linked pages, etc.
func WithMaxDepth(depth int) Option {
	return func(s *Spider) { s.maxDepth = depth }
}

// WithRateLimiter sets the limiter applied before every fetch.
func WithRateLimiter(l *RateLimiter) Option {
	return func(s *Spider) { s.limiter = l }
}

// WithRobotsGate sets the robots.txt gate consulted before every fetch.
func WithRobotsGate(g *RobotsGate) Option {
	return func(s *Spider) { s.robots = g }
}

// WithSameDomainOnly restricts link following to the start URL's
// registrable domain.
func WithSameDomainOnly(on bool) Option {
	return func(s *Spider) { s.sameDomainOnly = on }
}

// WithDocMode enables documentation-first link ordering: newly discovered
// links that look like documentation pages are enqueued ahead of the rest.
func WithDocMode(on bool) Option {
	return func(s *Spider) { s.docMode = on }
}

// WithIgnorePatterns excludes discovered links from the frontier. A link
// whose URL contains any pattern (case-insensitive) is never enqueued.
// The start URL is unaffected.
func WithIgnorePatterns(patterns []string) Option {
	return func(s *Spider) { s.ignorePatterns = patterns }
}

// WithUserAgent sets the agent name passed to the robots gate.
func WithUserAgent(ua string) Option {
	return func(s *Spider) { s.userAgent = ua }
}

// WithProgress installs a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(s *Spider) { s.progress = fn }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Spider) { s.logger = logger }
}

// NewSpider creates a Spider with the given fetcher and content extractor.
//
// Design decision: We require the fetcher and extractor as constructor
// arguments rather than options because a spider is useless without them,
// and tests routinely substitute both.
func NewSpider(fetcher fetch.Fetcher, extractor extract.Extractor, opts ...Option) *Spider {
	s := &Spider{
		fetcher:   fetcher,
		extractor: extractor,
		maxLinks:  10,
		maxDepth:  1,
		userAgent: "webscraper",
		state:     model.StateIdle,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.limiter == nil {
		s.limiter = NewRateLimiter(0)
	}
	if s.robots == nil {
		s.robots = NewRobotsGate(nil, false)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// State returns the spider's lifecycle state.
func (s *Spider) State() model.CrawlState {
	return s.state
}

// Crawl runs a depth- and budget-bounded breadth-first traversal from
// startURL and returns everything gathered. Per-page fetch failures are
// recorded and never abort the run; the only error returns are an invalid
// start URL or configuration (before any network activity) and context
// cancellation, which still returns the partial result.
func (s *Spider) Crawl(ctx context.Context, startURL string) (*model.CrawlResult, error) {
	if s.maxLinks <= 0 {
		return nil, fmt.Errorf("invalid link budget %d: must be positive", s.maxLinks)
	}

	start, err := url.Parse(startURL)
	if err != nil || start.Scheme == "" || start.Host == "" {
		return nil, fmt.Errorf("invalid start URL %q", startURL)
	}

	startTime := time.Now()
	normalized := normalizeURL(startURL)

	result := model.NewCrawlResult(normalized)
	s.state = model.StateRunning
	result.State = model.StateRunning

	// Visited holds every URL processed or enqueued. Marking at enqueue
	// time guarantees no URL enters the frontier twice.
	visited := map[string]struct{}{normalized: {}}
	frontier := []model.CrawlTask{{URL: normalized, Depth: 0}}
	result.AddLink(normalized)

	// The start URL scopes the same-domain filter for the whole run;
	// relative hrefs resolve against the page they appear on.
	scope, _ := url.Parse(normalized)
	attempted := 0

	for len(frontier) > 0 && attempted < s.maxLinks {
		select {
		case <-ctx.Done():
			return s.finish(result, model.StateAborted, startTime), ctx.Err()
		default:
		}

		task := frontier[0]
		frontier = frontier[1:]

		// Disallowed URLs are skipped silently and do not count toward
		// the link budget.
		allowed, robotsErr := s.robots.Allowed(ctx, task.URL, s.userAgent)
		if robotsErr != nil {
			s.logger.Debug("robots check failed open", "url", task.URL, "error", robotsErr)
		}
		if !allowed {
			s.logger.Debug("skipping disallowed URL", "url", task.URL)
			continue
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return s.finish(result, model.StateAborted, startTime), err
		}

		attempted++
		page, links := s.fetchPage(ctx, task.URL, scope)
		result.AddPage(page)

		s.logger.Debug("fetched page",
			"url", task.URL,
			"depth", task.Depth,
			"status", page.Status,
			"links", len(links),
		)

		// Enqueue unvisited links while depth and budget allow. The first
		// discoverer wins; later re-discovery updates nothing.
		if task.Depth+1 <= s.maxDepth {
			for _, link := range s.orderLinks(links) {
				if len(visited) >= s.maxLinks {
					break
				}
				norm := normalizeURL(link)
				if _, ok := visited[norm]; ok {
					continue
				}
				if s.ignored(norm) {
					continue
				}
				visited[norm] = struct{}{}
				frontier = append(frontier, model.CrawlTask{URL: norm, Depth: task.Depth + 1})
			}
		}
		for _, link := range links {
			result.AddLink(normalizeURL(link))
		}

		s.reportProgress(attempted)
	}

	return s.finish(result, model.StateCompleted, startTime), nil
}

// fetchPage fetches one URL and extracts its content and links.
// Any transport error or non-2xx status yields a failure record with
// empty content; parse failures yield an empty extraction, not an error.
func (s *Spider) fetchPage(ctx context.Context, pageURL string, scope *url.URL) (*model.PageRecord, []string) {
	resp, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil || !resp.OK() {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		s.logger.Warn("fetch failed", "url", pageURL, "status", status, "error", err)
		return &model.PageRecord{
			URL:        pageURL,
			Status:     model.StatusFailed,
			StatusCode: status,
			LinksFound: []string{},
			FetchedAt:  time.Now(),
		}, nil
	}

	page := &model.PageRecord{
		URL:        pageURL,
		Status:     model.StatusOK,
		StatusCode: resp.StatusCode,
		LinksFound: []string{},
		FetchedAt:  time.Now(),
	}

	doc, err := html.Parse(bytes.NewReader(resp.Body))
	if err != nil {
		// Malformed HTML is an empty extraction, never fatal.
		s.logger.Debug("parse failed", "url", pageURL, "error", err)
		return page, nil
	}

	s.extractor.Extract(doc, resp.Body, pageURL, page)

	base, err := url.Parse(pageURL)
	if err != nil {
		return page, nil
	}
	links := ExtractLinks(doc, base, scope, s.sameDomainOnly)
	page.LinksFound = links
	return page, links
}

// ignored reports whether a URL matches any configured ignore pattern.
func (s *Spider) ignored(rawURL string) bool {
	if len(s.ignorePatterns) == 0 {
		return false
	}
	lower := strings.ToLower(rawURL)
	for _, pattern := range s.ignorePatterns {
		if pattern == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

// orderLinks applies documentation-first ordering in doc mode: links whose
// URL looks like a documentation page move ahead of the rest, each group
// keeping document order. This is a stable partition, not a priority queue.
func (s *Spider) orderLinks(links []string) []string {
	if !s.docMode || len(links) < 2 {
		return links
	}

	ordered := make([]string, 0, len(links))
	rest := make([]string, 0, len(links))
	for _, link := range links {
		if isDocLike(link) {
			ordered = append(ordered, link)
		} else {
			rest = append(rest, link)
		}
	}
	return append(ordered, rest...)
}

// reportProgress invokes the progress callback, isolating the traversal
// loop from anything the callback does.
func (s *Spider) reportProgress(attempted int) {
	if s.progress == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("progress callback panicked", "panic", r)
		}
	}()
	s.progress(attempted, s.maxLinks)
}

// finish seals the result with its terminal state and stats.
func (s *Spider) finish(result *model.CrawlResult, state model.CrawlState, startTime time.Time) *model.CrawlResult {
	s.state = state
	result.State = state
	result.Stats.Duration = time.Since(startTime)
	return result
}

// docHosts are domains that are documentation sites regardless of path.
var docHosts = []string{
	"docs.python.org",
	"readthedocs.io",
	"docs.djangoproject.com",
	"flask.palletsprojects.com",
	"nodejs.org",
	"developer.mozilla.org",
	"docs.oracle.com",
	"docs.microsoft.com",
	"docs.aws.amazon.com",
	"pkg.go.dev",
}

// docPathHints are path fragments that mark documentation pages.
var docPathHints = []string{
	"/docs/", "/doc/", "/documentation/", "/api/",
	"/reference/", "/manual/", "/guide/", "/tutorial/",
}

// isDocLike reports whether a URL looks like a documentation page.
func isDocLike(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	host := strings.ToLower(u.Hostname())
	for _, d := range docHosts {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}

	path := strings.ToLower(u.Path)
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	for _, hint := range docPathHints {
		if strings.Contains(path, hint) {
			return true
		}
	}
	return false
}

// normalizeURL normalizes a URL for deduplication: lowercase scheme and
// host, fragment stripped, empty path rewritten to "/" so that
// http://example.com and http://example.com/ dedup. Normalizing an
// already-normalized URL is a no-op. Unparseable input is returned as-is.
func normalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String()
}
