package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/Netflowar/web-scraper-v2/internal/model"
)

// TextWriter outputs crawl results as a formatted text report: a summary
// box up front, then each page with its header block, table of contents,
// body text, and code examples.
type TextWriter struct {
	baseWriter
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer) *TextWriter {
	return &TextWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write renders the full text report.
func (w *TextWriter) Write(result *model.CrawlResult) (int, error) {
	var sb strings.Builder

	writeSummaryBox(&sb, result)

	for _, page := range result.PagesInOrder() {
		if page.Failed() {
			continue
		}
		writePage(&sb, page)
	}

	return w.output.Write([]byte(sb.String()))
}

// writeSummaryBox renders the banner and statistics that open the report.
func writeSummaryBox(sb *strings.Builder, result *model.CrawlResult) {
	banner := fmt.Sprintf("SCRAPED CONTENT FROM %d PAGES", result.Stats.PagesAttempted)

	fmt.Fprintf(sb, "╔%s╗\n", strings.Repeat("═", 78))
	fmt.Fprintf(sb, "║%s║\n", center(banner, 78))
	fmt.Fprintf(sb, "╚%s╝\n\n", strings.Repeat("═", 78))

	fmt.Fprintf(sb, "┌%s┐\n", center(" SUMMARY ", 76, "─"))
	fmt.Fprintf(sb, "│ %-74s │\n", fmt.Sprintf("Start URL:           %s", result.StartURL))
	fmt.Fprintf(sb, "│ %-74s │\n", fmt.Sprintf("Pages attempted:     %d", result.Stats.PagesAttempted))
	fmt.Fprintf(sb, "│ %-74s │\n", fmt.Sprintf("Failed fetches:      %d", result.Stats.PagesFailed))
	fmt.Fprintf(sb, "│ %-74s │\n", fmt.Sprintf("Links discovered:    %d", result.Stats.LinksDiscovered))
	fmt.Fprintf(sb, "│ %-74s │\n", fmt.Sprintf("Final state:         %s", result.State))
	fmt.Fprintf(sb, "└%s┘\n\n", strings.Repeat("─", 76))

	fmt.Fprintf(sb, "%s\n\n", strings.Repeat("═", 80))
}

// writePage renders one page: header block, table of contents, body text,
// and code examples.
func writePage(sb *strings.Builder, page *model.PageRecord) {
	fmt.Fprintf(sb, "%s\n", strings.Repeat("═", 80))
	fmt.Fprintf(sb, "URL: %s\n", page.URL)
	fmt.Fprintf(sb, "TITLE: %s\n", page.Title)
	fmt.Fprintf(sb, "%s\n\n", strings.Repeat("═", 80))

	if len(page.TOC) > 0 {
		sb.WriteString("TABLE OF CONTENTS\n")
		sb.WriteString("----------------\n")
		for _, entry := range page.TOC {
			fmt.Fprintf(sb, "- %s\n", entry.Text)
		}
		sb.WriteString("\n")
	}

	sb.WriteString(page.TextContent)
	sb.WriteString("\n\n")

	if len(page.CodeBlocks) > 0 {
		sb.WriteString("CODE EXAMPLES\n")
		sb.WriteString("-------------\n\n")
		for i, block := range page.CodeBlocks {
			fmt.Fprintf(sb, "Example %d (%s):\n", i+1, block.Language)
			fmt.Fprintf(sb, "```\n%s\n```\n\n", block.Content)
		}
	}
}

// center pads text to the given width, centered, using the pad string
// (default space) as fill.
func center(text string, width int, pad ...string) string {
	fill := " "
	if len(pad) > 0 {
		fill = pad[0]
	}
	if len([]rune(text)) >= width {
		return text
	}
	total := width - len([]rune(text))
	left := total / 2
	right := total - left
	return strings.Repeat(fill, left) + text + strings.Repeat(fill, right)
}
