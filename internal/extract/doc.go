// Package extract turns fetched HTML into structured page content.
//
// Two extractors implement the same interface: TextExtractor strips
// boilerplate and produces readable plain text, while DocExtractor
// additionally pulls out the heading outline, code examples, and the
// table of contents that documentation sites carry.
//
// Design decision: We give extraction its own package rather than folding
// it into the crawler because the crawler only decides WHAT to fetch;
// what a page MEANS is a separate concern with its own dependencies
// (goquery, go-readability) and its own tests.
package extract
