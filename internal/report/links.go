package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/Netflowar/web-scraper-v2/internal/model"
)

// LinksWriter outputs only the discovered links as a numbered list, one
// per line, in discovery order.
type LinksWriter struct {
	baseWriter
}

// NewLinksWriter creates a LinksWriter that outputs to the given writer.
func NewLinksWriter(output io.Writer) *LinksWriter {
	return &LinksWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write renders the link list.
func (w *LinksWriter) Write(result *model.CrawlResult) (int, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Links discovered from %s (%d total)\n\n", result.StartURL, len(result.Links))
	for i, link := range result.Links {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, link)
	}
	return w.output.Write([]byte(sb.String()))
}
