// Package report renders crawl results in the supported output formats:
// a formatted text report, JSON page records, a Markdown report, and a
// plain list of discovered links.
//
// All writers share the Writer interface so the CLI can fan one result
// out to several destinations at once via MultiWriter.
package report
