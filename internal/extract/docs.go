package extract

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"

	"github.com/Netflowar/web-scraper-v2/internal/model"
)

// tocSelector matches the containers documentation generators use for
// their table of contents. Sphinx emits .contents and .toctree-wrapper,
// MkDocs and Docusaurus emit nav/div with a toc class or id.
const tocSelector = "nav.toc, div.toc, nav#toc, div#toc, #table-of-contents, .table-of-contents, .contents, .toctree-wrapper"

// DocExtractor extracts structured documentation content: the heading
// outline, code examples, the table of contents, and the readable body
// text distilled by go-readability.
type DocExtractor struct {
	text *TextExtractor
}

// NewDocExtractor creates a documentation extractor. Keyword options apply
// to the readable body text the same way they do in plain-text mode.
func NewDocExtractor(opts ...TextOption) *DocExtractor {
	return &DocExtractor{text: NewTextExtractor(opts...)}
}

// Extract fills the page record with title, readable text, headings, code
// blocks, and table of contents. A body goquery cannot parse degrades to
// plain-text extraction from the already-parsed tree.
func (d *DocExtractor) Extract(doc *html.Node, body []byte, pageURL string, page *model.PageRecord) {
	page.Title = documentTitle(doc, pageURL)

	gq, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		page.TextContent = d.text.applyKeywords(extractText(doc))
		return
	}

	page.Headings = extractHeadings(gq)
	page.CodeBlocks = extractCodeBlocks(gq)
	page.TOC = extractTOC(gq)
	page.TextContent = d.text.applyKeywords(readableText(body, pageURL, doc))
}

// readableText distills the main article text with go-readability,
// falling back to whole-document text when distillation fails or comes
// back empty.
func readableText(body []byte, pageURL string, doc *html.Node) string {
	parsed, err := url.Parse(pageURL)
	if err == nil {
		parser := readability.NewParser()
		article, err := parser.Parse(bytes.NewReader(body), parsed)
		if err == nil && strings.TrimSpace(article.TextContent) != "" {
			return normalizeLines(article.TextContent)
		}
	}
	return extractText(doc)
}

// normalizeLines collapses whitespace per line and drops blank lines.
func normalizeLines(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// extractHeadings returns all h1..h6 headings in document order. A heading
// without an id attribute gets a slug derived from its text so the table
// of contents can still anchor to it.
func extractHeadings(gq *goquery.Document) []model.Heading {
	var headings []model.Heading
	gq.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		text := strings.Join(strings.Fields(s.Text()), " ")
		if text == "" {
			return
		}

		level := int(goquery.NodeName(s)[1] - '0')
		id, ok := s.Attr("id")
		if !ok || id == "" {
			id = slugify(text)
		}

		headings = append(headings, model.Heading{
			Level: level,
			Text:  text,
			ID:    id,
		})
	})
	return headings
}

// extractCodeBlocks returns all code examples in document order. The
// language comes from class conventions on the <code>, the <pre>, or an
// enclosing highlight div; unknown languages fall back to "text".
func extractCodeBlocks(gq *goquery.Document) []model.CodeBlock {
	var blocks []model.CodeBlock
	gq.Find("pre").Each(func(_ int, s *goquery.Selection) {
		code := s.Find("code").First()
		content := code.Text()
		if code.Length() == 0 {
			content = s.Text()
		}
		content = strings.Trim(content, "\n")
		if strings.TrimSpace(content) == "" {
			return
		}

		blocks = append(blocks, model.CodeBlock{
			Language: codeLanguage(s, code),
			Content:  content,
		})
	})
	return blocks
}

// languagePrefixes are the class prefixes highlighters use to mark the
// language of a code block.
var languagePrefixes = []string{"language-", "lang-", "highlight-"}

// codeLanguage resolves the language of a code block from its class
// attributes: the <code> element first, then the <pre>, then enclosing
// divs (Sphinx wraps blocks in <div class="highlight-python">).
func codeLanguage(pre, code *goquery.Selection) string {
	for _, sel := range []*goquery.Selection{code, pre, pre.Parent(), pre.Parent().Parent()} {
		if sel.Length() == 0 {
			continue
		}
		class, ok := sel.Attr("class")
		if !ok {
			continue
		}
		for _, token := range strings.Fields(class) {
			for _, prefix := range languagePrefixes {
				lang := strings.TrimPrefix(token, prefix)
				if lang != token && lang != "" && lang != "default" {
					return strings.ToLower(lang)
				}
			}
		}
	}
	return "text"
}

// extractTOC returns the page's table of contents. It prefers an explicit
// TOC container; when no generator-emitted container exists it
// synthesizes entries from the headings that carry a real id attribute.
// Headings with only a derived slug are left out: a slug is not an anchor
// the page actually exposes.
func extractTOC(gq *goquery.Document) []model.TOCEntry {
	var toc []model.TOCEntry
	seen := make(map[string]struct{})

	gq.Find(tocSelector).First().Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		text := strings.Join(strings.Fields(a.Text()), " ")
		href, _ := a.Attr("href")
		if text == "" || href == "" {
			return
		}
		key := text + "\x00" + href
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		toc = append(toc, model.TOCEntry{Text: text, Href: href})
	})
	if len(toc) > 0 {
		return toc
	}

	gq.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		text := strings.Join(strings.Fields(s.Text()), " ")
		id, ok := s.Attr("id")
		if text == "" || !ok || id == "" {
			return
		}
		toc = append(toc, model.TOCEntry{Text: text, Href: "#" + id})
	})
	return toc
}

// slugify turns heading text into an anchor slug: lowercase, with runs of
// non-alphanumeric characters collapsed to single hyphens.
func slugify(text string) string {
	var sb strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			sb.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(sb.String(), "-")
}

// interface checks
var (
	_ Extractor = (*TextExtractor)(nil)
	_ Extractor = (*DocExtractor)(nil)
)
