// Package main provides the entry point for the webscraper CLI.
//
// webscraper crawls websites breadth-first and extracts readable content,
// with a documentation mode that captures heading outlines, code examples,
// and tables of contents.
//
// Usage:
//
//	webscraper crawl <url>
//	webscraper crawl --doc <url>
//
// See --help for all available options.
package main

// main is the entry point for webscraper.
func main() {
	Execute()
}
