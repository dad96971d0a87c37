package model

import "time"

// CrawlState is the lifecycle state of a crawl run.
type CrawlState string

// Crawl lifecycle states. A crawl moves Idle -> Running and finishes in
// either Completed (frontier exhausted or budget reached) or Aborted
// (context cancelled mid-run, partial results returned).
const (
	StateIdle      CrawlState = "idle"
	StateRunning   CrawlState = "running"
	StateCompleted CrawlState = "completed"
	StateAborted   CrawlState = "aborted"
)

// CrawlStats summarizes a finished run.
type CrawlStats struct {
	// PagesAttempted counts every URL dequeued and fetched, including
	// failures. This is the number bounded by the max-links budget.
	PagesAttempted int `json:"pages_attempted"`

	// PagesFailed counts fetch attempts that ended in a failure record.
	PagesFailed int `json:"pages_failed"`

	// LinksDiscovered counts unique links seen across all pages.
	LinksDiscovered int `json:"links_discovered"`

	// Duration is the wall-clock time of the run.
	Duration time.Duration `json:"duration"`
}

// CrawlResult is the aggregate outcome of a crawl run. It grows
// monotonically while the crawl is running and is read-only once the
// crawler returns it.
type CrawlResult struct {
	// StartURL is the normalized URL the crawl began from.
	StartURL string `json:"start_url"`

	// Links are all unique URLs discovered during the run, in the order
	// they were first seen.
	Links []string `json:"links"`

	// Pages maps each attempted URL to its record.
	Pages map[string]*PageRecord `json:"pages"`

	// State is the terminal state of the run.
	State CrawlState `json:"state"`

	// Stats summarizes the run.
	Stats CrawlStats `json:"stats"`

	linkSeen map[string]struct{}
}

// NewCrawlResult creates an empty result for the given start URL.
func NewCrawlResult(startURL string) *CrawlResult {
	return &CrawlResult{
		StartURL: startURL,
		Links:    make([]string, 0),
		Pages:    make(map[string]*PageRecord),
		State:    StateIdle,
		linkSeen: make(map[string]struct{}),
	}
}

// AddPage records the result of one fetch attempt.
func (r *CrawlResult) AddPage(page *PageRecord) {
	r.Pages[page.URL] = page
	r.Stats.PagesAttempted++
	if page.Failed() {
		r.Stats.PagesFailed++
	}
}

// AddLink records a discovered URL. Re-discovery is a no-op: the first
// discoverer wins and later sightings update nothing.
func (r *CrawlResult) AddLink(link string) {
	if _, ok := r.linkSeen[link]; ok {
		return
	}
	r.linkSeen[link] = struct{}{}
	r.Links = append(r.Links, link)
	r.Stats.LinksDiscovered++
}

// PagesInOrder returns the page records in the order their URLs were
// first discovered. Report writers need a stable order; the Pages map
// does not provide one.
func (r *CrawlResult) PagesInOrder() []*PageRecord {
	pages := make([]*PageRecord, 0, len(r.Pages))
	for _, link := range r.Links {
		if page, ok := r.Pages[link]; ok {
			pages = append(pages, page)
		}
	}
	return pages
}

// HasLink reports whether the URL was already recorded.
func (r *CrawlResult) HasLink(link string) bool {
	_, ok := r.linkSeen[link]
	return ok
}
