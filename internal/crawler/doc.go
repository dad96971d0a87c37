// Package crawler implements the crawl controller: a sequential,
// depth- and budget-bounded breadth-first traversal with per-request
// rate limiting and optional robots.txt compliance.
//
// The traversal is deliberately single-threaded. "At least N seconds
// between any two requests" is only easy to guarantee without concurrent
// fetches, so one fetch-parse-extract cycle runs at a time. Batch mode
// runs multiple crawls concurrently, but each crawl keeps its own
// sequential loop and its own rate limiter.
package crawler
