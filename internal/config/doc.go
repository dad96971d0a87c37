// Package config provides configuration structures and utilities for the
// scraper. It defines the crawl limits, politeness settings, extraction
// options, and report output preferences.
package config
