package extract

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/Netflowar/web-scraper-v2/internal/model"
)

// KeywordMarker prefixes lines that match a configured keyword.
const KeywordMarker = ">>> "

// skipTags are elements whose subtrees carry no readable content.
var skipTags = map[string]struct{}{
	"script":   {},
	"style":    {},
	"noscript": {},
	"template": {},
	"iframe":   {},
	"nav":      {},
	"header":   {},
	"footer":   {},
	"aside":    {},
	"form":     {},
	"svg":      {},
}

// blockTags are elements that end a line of text.
var blockTags = map[string]struct{}{
	"p": {}, "div": {}, "section": {}, "article": {}, "main": {},
	"h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {},
	"li": {}, "ul": {}, "ol": {}, "dt": {}, "dd": {},
	"pre": {}, "blockquote": {}, "figcaption": {},
	"table": {}, "tr": {}, "br": {}, "hr": {},
}

// TextExtractor produces readable plain text from a page, with optional
// keyword handling.
type TextExtractor struct {
	keywords []string
	// drop discards non-matching lines instead of keeping the whole
	// text with matches highlighted.
	drop bool
}

// TextOption configures a TextExtractor.
type TextOption func(*TextExtractor)

// WithKeywords sets keywords to highlight in the extracted text.
// Matching is case-insensitive. Lines containing a keyword are prefixed
// with KeywordMarker; everything else is kept.
func WithKeywords(keywords []string) TextOption {
	return func(t *TextExtractor) { t.keywords = keywords }
}

// WithKeywordsDrop switches keyword handling from highlight to filter:
// only lines containing a keyword survive.
func WithKeywordsDrop(on bool) TextOption {
	return func(t *TextExtractor) { t.drop = on }
}

// NewTextExtractor creates a plain-text extractor.
func NewTextExtractor(opts ...TextOption) *TextExtractor {
	t := &TextExtractor{}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Extract fills the page record with the document title and its readable
// text. Headings, code blocks, and the table of contents stay empty; those
// belong to DocExtractor.
func (t *TextExtractor) Extract(doc *html.Node, _ []byte, pageURL string, page *model.PageRecord) {
	page.Title = documentTitle(doc, pageURL)
	page.TextContent = t.applyKeywords(extractText(doc))
}

// applyKeywords highlights or filters lines by the configured keywords.
func (t *TextExtractor) applyKeywords(text string) string {
	if len(t.keywords) == 0 || text == "" {
		return text
	}

	lowered := make([]string, len(t.keywords))
	for i, kw := range t.keywords {
		lowered[i] = strings.ToLower(kw)
	}

	var out []string
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		matched := false
		for _, kw := range lowered {
			if strings.Contains(lower, kw) {
				matched = true
				break
			}
		}
		switch {
		case matched:
			out = append(out, KeywordMarker+line)
		case !t.drop:
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// extractText walks the parse tree and produces one line per block element,
// skipping navigation chrome and non-content subtrees.
func extractText(doc *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if _, skip := skipTags[n.Data]; skip {
				return
			}
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode {
			if _, block := blockTags[n.Data]; block {
				sb.WriteString("\n")
			}
		}
	}
	walk(doc)

	var lines []string
	for _, line := range strings.Split(sb.String(), "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// documentTitle returns the page title: the <title> element, falling back
// to the first <h1>, falling back to the URL itself.
func documentTitle(doc *html.Node, pageURL string) string {
	if title := firstElementText(doc, "title"); title != "" {
		return title
	}
	if h1 := firstElementText(doc, "h1"); h1 != "" {
		return h1
	}
	return pageURL
}

// firstElementText returns the collapsed text of the first element with
// the given tag, or "".
func firstElementText(doc *html.Node, tag string) string {
	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == tag {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	if found == nil {
		return ""
	}
	return collapseText(found)
}

// collapseText returns the whitespace-collapsed text content of a node.
func collapseText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
