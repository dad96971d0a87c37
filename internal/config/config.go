package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values. Where the plain and documentation modes
// disagree (link budget, depth, same-domain filtering), the mode-specific
// default is applied in ApplyModeDefaults.
const (
	// DefaultMaxLinks bounds how many URLs one run may dequeue and fetch.
	// 10 keeps a casual run fast; documentation runs default to 20 because
	// doc sites split content across many small pages.
	DefaultMaxLinks = 10

	// DefaultDocMaxLinks is the link budget used in documentation mode.
	DefaultDocMaxLinks = 20

	// DefaultMaxDepth is the number of link hops followed from the start
	// URL. Depth 0 fetches only the start URL itself.
	DefaultMaxDepth = 1

	// DefaultDocMaxDepth is the crawl depth used in documentation mode.
	// Doc sites nest content one level deeper than typical link pages.
	DefaultDocMaxDepth = 2

	// DefaultRateLimit is the minimum interval between any two outbound
	// requests. 1 second is conservative and respectful of server
	// resources.
	DefaultRateLimit = 1 * time.Second

	// DefaultTimeout is the per-request connection timeout.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxBodySize limits the response body size read per page.
	// 5MB is sufficient for any HTML page while preventing memory
	// exhaustion from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultUserAgent identifies the scraper in HTTP requests.
	// A descriptive User-Agent lets site operators identify the traffic.
	DefaultUserAgent = "webscraper/2.0 (+https://github.com/Netflowar/web-scraper-v2)"

	// DefaultBatchSize is the number of concurrent crawls when multiple
	// start URLs are given. Each crawl remains internally sequential so
	// its rate limiter stays exact.
	DefaultBatchSize = 4

	// AppName is the application name used for XDG directory paths.
	AppName = "webscraper"
)

// Config holds all configuration options for a crawl run.
// It is populated from CLI flags and the optional YAML config file and is
// passed through the application by dependency injection rather than
// global state.
type Config struct {
	// StartURLs are the URLs to begin crawling from. At least one is
	// required; more than one enables batch mode.
	StartURLs []string

	// MaxLinks is the maximum number of URLs dequeued and fetched in one
	// run. Every attempt counts against this budget, including fetches
	// that fail. Must be positive.
	MaxLinks int

	// MaxDepth is the maximum number of link hops from the start URL.
	// Zero means only the start URL is fetched.
	MaxDepth int

	// RateLimit is the minimum interval between outbound requests.
	// Zero or negative disables rate limiting.
	RateLimit time.Duration

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// FilterSameDomain restricts link following to URLs whose registrable
	// domain equals the start URL's registrable domain. Subdomains count
	// as the same domain.
	FilterSameDomain bool

	// RespectRobots enables robots.txt checks before each fetch.
	// Robots fetch failures are treated as allow (fail-open).
	RespectRobots bool

	// Keywords filters extracted text. By default matching paragraphs are
	// marked and everything is retained; see KeywordsDrop.
	Keywords []string

	// KeywordsDrop switches keyword filtering from highlight-and-retain
	// to dropping paragraphs that match no keyword. Retention is the
	// default because silently discarding content loses data.
	KeywordsDrop bool

	// IgnorePatterns lists substrings that exclude discovered links from
	// the frontier. A link whose URL contains any pattern is never
	// enqueued. The start URL is always fetched regardless.
	IgnorePatterns []string

	// DocMode enables the documentation extractor: heading hierarchy,
	// code blocks, table of contents, and doc-first link ordering.
	DocMode bool

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// BatchSize is the number of concurrent crawls in batch mode.
	BatchSize int

	// Verbose enables debug-level log output.
	Verbose bool

	// OutputFile is the plain-text report path. Empty writes to stdout.
	OutputFile string

	// JSONFile is the structured JSON output path. Empty disables it.
	JSONFile string

	// MarkdownReport switches the main report to Markdown format.
	MarkdownReport bool

	// LinksFile is the path for the numbered link list. Empty disables it.
	LinksFile string

	// DBDir is the directory for the SQLite results database.
	// Defaults to the XDG data directory.
	DBDir string

	// SaveToDB controls whether finished runs are persisted.
	SaveToDB bool

	// ConfigFilePath is an explicit config file path. If empty, the tool
	// searches for .webscraper in the current and home directories.
	ConfigFilePath string

	// SiteConfigs holds per-site overrides loaded from the config file.
	SiteConfigs *File
}

// NewConfig creates a Config with default values. Many defaults are
// non-zero, so relying on zero values would be error prone; the
// constructor also documents what the defaults are.
func NewConfig() *Config {
	return &Config{
		MaxLinks:      DefaultMaxLinks,
		MaxDepth:      DefaultMaxDepth,
		RateLimit:     DefaultRateLimit,
		Timeout:       DefaultTimeout,
		RespectRobots: true,
		UserAgent:     DefaultUserAgent,
		MaxBodySize:   DefaultMaxBodySize,
		BatchSize:     DefaultBatchSize,
	}
}

// ApplyModeDefaults raises the link budget and depth to the documentation
// defaults when doc mode is on and the caller left them at the plain
// defaults. Explicitly set values are never overridden.
func (c *Config) ApplyModeDefaults() {
	if !c.DocMode {
		return
	}
	if c.MaxLinks == DefaultMaxLinks {
		c.MaxLinks = DefaultDocMaxLinks
	}
	if c.MaxDepth == DefaultMaxDepth {
		c.MaxDepth = DefaultDocMaxDepth
	}
}

// XDGDataDir returns the XDG data directory for the scraper.
// On Linux: ~/.local/share/webscraper
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for the scraper.
// On Linux: ~/.config/webscraper
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns a specific error for the
// first problem found. It runs once after CLI parsing, before any network
// activity, so configuration mistakes fail fast.
func (c *Config) Validate() error {
	if len(c.StartURLs) == 0 {
		return ErrNoStartURL
	}

	for _, raw := range c.StartURLs {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return ErrInvalidStartURL
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return ErrInvalidStartURL
		}
	}

	if c.MaxLinks <= 0 {
		return ErrInvalidMaxLinks
	}

	if c.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	return nil
}
