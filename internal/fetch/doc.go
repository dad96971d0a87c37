// Package fetch provides the HTTP fetching layer for the crawler.
// The crawler consumes it through the narrow Fetcher interface so that
// tests can substitute fake transports.
package fetch
