package model

import "time"

// PageStatus describes the outcome of fetching a single page.
type PageStatus string

// Page fetch outcomes.
const (
	// StatusOK means the page was fetched with a 2xx response and parsed.
	StatusOK PageStatus = "ok"

	// StatusFailed means the fetch failed: transport error, timeout, or a
	// non-2xx status. The record is kept with empty content so that the
	// failure is visible in the output, but nothing is extracted from it.
	StatusFailed PageStatus = "failed"
)

// CrawlTask is a single pending fetch in the frontier.
// Tasks are immutable once enqueued: the crawler creates one when a new
// link is discovered and consumes it when dequeued.
type CrawlTask struct {
	// URL is the normalized absolute URL to fetch.
	URL string

	// Depth is the number of link hops from the start URL.
	// The start URL has depth 0.
	Depth int
}

// Heading is one h1-h6 element found on a documentation page, in document
// order. ID is the element's anchor id, or a slug derived from the text
// when the element carries no id.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	ID    string `json:"id"`
}

// CodeBlock is one code example found on a documentation page.
type CodeBlock struct {
	// Language is the tag inferred from a language-*/lang-* class name,
	// or "text" when no convention matched.
	Language string `json:"language"`

	// Content is the literal code text.
	Content string `json:"content"`
}

// TOCEntry is one table-of-contents link found on a documentation page.
type TOCEntry struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

// PageRecord holds everything extracted from one crawled URL.
//
// The record is owned exclusively by the crawler's result collection and is
// immutable after creation. Headings, CodeBlocks, and TOC are populated only
// in documentation mode; in plain-text mode they are nil and omitted from
// JSON output.
type PageRecord struct {
	// URL is the normalized URL this record was fetched from.
	URL string `json:"url"`

	// Status reports whether the fetch succeeded.
	Status PageStatus `json:"status"`

	// StatusCode is the HTTP status code, or 0 when the request never
	// produced a response (DNS failure, timeout, refused connection).
	StatusCode int `json:"status_code"`

	// Title is the page title: <title> text, else the first h1 text,
	// else the URL itself. Always serialized, even when empty, so that
	// failed records keep the full field set.
	Title string `json:"title"`

	// TextContent is the extracted plain text with paragraph breaks
	// preserved. Empty for failed fetches, but always serialized.
	TextContent string `json:"text_content"`

	// LinksFound are the absolute outbound links discovered on the page,
	// in document order with duplicates removed.
	LinksFound []string `json:"links_found"`

	// Headings is the h1-h6 hierarchy in document order (doc mode only).
	Headings []Heading `json:"headings,omitempty"`

	// CodeBlocks are the code examples found on the page (doc mode only).
	CodeBlocks []CodeBlock `json:"code_blocks,omitempty"`

	// TOC is the page's table of contents (doc mode only).
	TOC []TOCEntry `json:"toc,omitempty"`

	// FetchedAt records when the fetch attempt was made.
	FetchedAt time.Time `json:"fetched_at"`
}

// Failed reports whether this record represents a failed fetch.
func (p *PageRecord) Failed() bool {
	return p.Status == StatusFailed
}
