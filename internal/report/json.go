package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/Netflowar/web-scraper-v2/internal/model"
)

// JSONWriter outputs crawl results as indented JSON for downstream
// tooling. Pages appear in discovery order, not map order, so two runs
// over the same site produce comparable output.
type JSONWriter struct {
	baseWriter
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer) *JSONWriter {
	return &JSONWriter{
		baseWriter: newBaseWriter(output),
	}
}

// jsonReport is the envelope written around the page records.
type jsonReport struct {
	StartURL    string              `json:"start_url"`
	State       model.CrawlState    `json:"state"`
	GeneratedAt time.Time           `json:"generated_at"`
	Stats       model.CrawlStats    `json:"stats"`
	Links       []string            `json:"links"`
	Pages       []*model.PageRecord `json:"pages"`
}

// Write renders the result as JSON.
func (w *JSONWriter) Write(result *model.CrawlResult) (int, error) {
	data, err := json.MarshalIndent(jsonReport{
		StartURL:    result.StartURL,
		State:       result.State,
		GeneratedAt: time.Now().UTC(),
		Stats:       result.Stats,
		Links:       result.Links,
		Pages:       result.PagesInOrder(),
	}, "", "  ")
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')
	return w.output.Write(data)
}
