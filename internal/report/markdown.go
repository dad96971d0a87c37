package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"

	"github.com/Netflowar/web-scraper-v2/internal/model"
)

// MarkdownWriter outputs crawl results in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write renders the full crawl report in Markdown format.
func (w *MarkdownWriter) Write(result *model.CrawlResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, result)
	w.writePages(md, result)
	w.writeLinks(md, result)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with crawl information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, result *model.CrawlResult) {
	md.H1("Crawl Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Start URL", "`" + result.StartURL + "`"},
			{"State", string(result.State)},
			{"Pages Attempted", strconv.Itoa(result.Stats.PagesAttempted)},
			{"Failed Fetches", strconv.Itoa(result.Stats.PagesFailed)},
			{"Links Discovered", strconv.Itoa(result.Stats.LinksDiscovered)},
			{"Duration", result.Stats.Duration.Round(time.Millisecond).String()},
		},
	})
	md.PlainText("")

	if result.Stats.PagesFailed > 0 {
		md.Warningf("%d of %d fetch attempts failed.",
			result.Stats.PagesFailed, result.Stats.PagesAttempted)
		md.PlainText("")
	}
}

// writePages writes one section per successfully fetched page.
func (w *MarkdownWriter) writePages(md *markdown.Markdown, result *model.CrawlResult) {
	for _, page := range result.PagesInOrder() {
		if page.Failed() {
			continue
		}

		md.H2(page.Title)
		md.PlainTextf("Source: <%s>", page.URL)
		md.PlainText("")

		if len(page.Headings) > 0 {
			md.H3("Outline")
			items := make([]string, 0, len(page.Headings))
			for _, h := range page.Headings {
				indent := strings.Repeat("  ", h.Level-1)
				items = append(items, fmt.Sprintf("%s%s", indent, h.Text))
			}
			md.BulletList(items...)
			md.PlainText("")
		}

		if len(page.CodeBlocks) > 0 {
			md.H3("Code Examples")
			for _, block := range page.CodeBlocks {
				md.CodeBlocks(markdown.SyntaxHighlight(block.Language), block.Content)
				md.PlainText("")
			}
		}
	}
}

// writeLinks writes the discovered link list.
func (w *MarkdownWriter) writeLinks(md *markdown.Markdown, result *model.CrawlResult) {
	if len(result.Links) == 0 {
		return
	}

	md.H2("Discovered Links")
	items := make([]string, 0, len(result.Links))
	for _, link := range result.Links {
		items = append(items, link)
	}
	md.BulletList(items...)
}
