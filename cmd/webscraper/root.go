// Package main provides the entry point for the webscraper CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for webscraper.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webscraper",
		Short: "Polite breadth-first web scraper with a documentation mode",
		Long: `webscraper crawls websites breadth-first, respecting robots.txt and
rate limits, and extracts readable page content.

Documentation mode (--doc) additionally captures heading outlines, code
examples with their languages, and tables of contents, and prioritizes
documentation-looking links during the crawl.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
