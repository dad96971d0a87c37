// Package model defines the core data structures used throughout the scraper.
//
// This package contains the following main types:
//   - CrawlTask: A (URL, depth) pair waiting in the frontier
//   - PageRecord: The extracted content of one crawled page
//   - CrawlResult: The aggregate outcome of a crawl run
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (crawler, extract, report, database) need to
// use these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
