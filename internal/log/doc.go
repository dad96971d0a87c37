// Package log provides logging helpers built on log/slog.
//
// Crawlers log values harvested from arbitrary web pages: titles, text
// snippets, long URLs. TrimHandler caps those values so one page cannot
// flood the terminal or the log file with its body text.
package log
