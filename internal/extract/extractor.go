package extract

import (
	"golang.org/x/net/html"

	"github.com/Netflowar/web-scraper-v2/internal/model"
)

// Extractor populates a page record from a parsed document. The raw body
// is passed alongside the parse tree because some extractors re-parse it
// with their own tooling. Extraction never fails: a page the extractor
// cannot make sense of simply yields empty content.
type Extractor interface {
	Extract(doc *html.Node, body []byte, pageURL string, page *model.PageRecord)
}
