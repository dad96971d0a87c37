package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/temoto/robotstxt"
)

// RobotsGate answers allow/deny for URLs against each origin's robots.txt.
// Policies are fetched lazily on the first query for an origin and cached
// for the remainder of the run; single-run tools need no expiry.
//
// All failure modes fail open: a site whose robots.txt is unreachable or
// malformed is treated as fully permissive. Scraping tools must degrade
// gracefully, not halt, when robots metadata is unavailable.
type RobotsGate struct {
	client  *http.Client
	enabled bool

	// cache maps origin ("scheme://host") to its parsed policy.
	// A nil entry means allow-all for that origin.
	cache map[string]*robotstxt.RobotsData
}

// NewRobotsGate creates a gate using the given HTTP client.
// When enabled is false, Allowed always returns true without fetching.
func NewRobotsGate(client *http.Client, enabled bool) *RobotsGate {
	if client == nil {
		client = http.DefaultClient
	}
	return &RobotsGate{
		client:  client,
		enabled: enabled,
		cache:   make(map[string]*robotstxt.RobotsData),
	}
}

// Allowed reports whether the user agent may fetch the URL.
// The returned error is informational only (for logging): whenever it is
// non-nil the gate has already failed open and allowed is true.
func (g *RobotsGate) Allowed(ctx context.Context, rawURL, userAgent string) (bool, error) {
	if !g.enabled {
		return true, nil
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true, fmt.Errorf("parse URL for robots check: %w", err)
	}

	origin := u.Scheme + "://" + u.Host
	data, cached := g.cache[origin]
	if !cached {
		data, err = g.fetchPolicy(ctx, origin)
		g.cache[origin] = data
		if err != nil {
			return true, err
		}
	}

	if data == nil {
		return true, nil
	}
	return data.TestAgent(u.Path, userAgent), nil
}

// fetchPolicy fetches and parses <origin>/robots.txt.
// Returns (nil, err) on any failure; nil policy means allow-all.
func (g *RobotsGate) fetchPolicy(ctx context.Context, origin string) (*robotstxt.RobotsData, error) {
	robotsURL := origin + "/robots.txt"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create robots request for %s: %w", origin, err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt for %s: %w", origin, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read robots.txt for %s: %w", origin, err)
	}

	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt for %s: %w", origin, err)
	}
	return data, nil
}
