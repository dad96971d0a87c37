package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Response is the result of fetching one URL. The crawler treats any
// transport error or non-2xx status identically as a fetch failure, so
// the response carries only what the extractors need.
type Response struct {
	// StatusCode is the HTTP status code of the final response.
	StatusCode int

	// Body is the response body, capped at the configured maximum size.
	Body []byte

	// Headers contains the response headers.
	Headers http.Header
}

// OK reports whether the response carries a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Fetcher fetches a URL and returns its response.
// The crawler depends on this interface rather than on Client so tests
// can inject stub transports.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Response, error)
}

// Client is the production Fetcher backed by net/http.
//
// Design decision: We require an external http.Client rather than building
// one internally because:
//  1. Timeout and transport policy belong to the caller
//  2. httptest servers hand out pre-configured clients in tests
type Client struct {
	// httpClient performs the actual requests.
	httpClient *http.Client

	// userAgent is sent with every request.
	userAgent string

	// maxBodySize caps how many bytes of a response body are read.
	maxBodySize int64
}

// Option configures a Client.
type Option func(*Client)

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithMaxBodySize caps the response body size in bytes.
func WithMaxBodySize(size int64) Option {
	return func(c *Client) {
		if size > 0 {
			c.maxBodySize = size
		}
	}
}

// NewClient creates a Client on top of the given http.Client.
// A nil httpClient gets a default with a 10 second timeout.
func NewClient(httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	c := &Client{
		httpClient:  httpClient,
		userAgent:   "webscraper/2.0 (+https://github.com/Netflowar/web-scraper-v2)",
		maxBodySize: 5 * 1024 * 1024,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Fetch performs a GET request for the URL and returns the response.
// A non-nil Response is returned only when a response was received; the
// caller decides what to do with non-2xx statuses.
func (c *Client) Fetch(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request for %s: %w", url, err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", url, err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
		Headers:    resp.Header,
	}, nil
}
