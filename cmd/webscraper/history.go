package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Netflowar/web-scraper-v2/internal/config"
	"github.com/Netflowar/web-scraper-v2/internal/database"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past crawl runs stored in the local database",
		Long: `History lists crawl runs saved in the local results database,
newest first.

Examples:
  # Show the 20 most recent runs
  webscraper history

  # Show more runs
  webscraper history -n 100

  # Show the pages stored for run 3
  webscraper history --show 3`,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 20, "Maximum number of runs to list")
	cmd.Flags().Int64("show", 0, "Show the stored pages of a single run by ID")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	showID, err := cmd.Flags().GetInt64("show")
	if err != nil {
		return err
	}

	// Require an existing database; history never creates one.
	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false

	db, err := database.Open(config.XDGDataDir(), opts)
	if err != nil {
		return fmt.Errorf("no crawl history available: %w", err)
	}
	defer func() { _ = db.Close() }()

	if showID > 0 {
		return showRun(cmd, db, showID)
	}

	runs, err := db.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No crawl runs recorded yet.")
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-5s %-20s %-10s %6s %6s %6s  %s\n",
		"ID", "DATE", "STATE", "PAGES", "FAIL", "LINKS", "START URL")
	for _, run := range runs {
		fmt.Fprintf(out, "%-5d %-20s %-10s %6d %6d %6d  %s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.State,
			run.Stats.PagesAttempted,
			run.Stats.PagesFailed,
			run.Stats.LinksDiscovered,
			run.StartURL,
		)
	}

	return nil
}

// showRun prints one stored run and its page records.
func showRun(cmd *cobra.Command, db *database.CrawlDB, runID int64) error {
	run, err := db.GetRun(cmd.Context(), runID)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %d not found", runID)
	}

	pages, err := db.GetPages(cmd.Context(), runID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %d: %s\n", run.ID, run.StartURL)
	fmt.Fprintf(out, "Date:  %s\n", run.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "State: %s\n", run.State)
	fmt.Fprintf(out, "Pages: %d attempted, %d failed; %d links discovered\n\n",
		run.Stats.PagesAttempted, run.Stats.PagesFailed, run.Stats.LinksDiscovered)

	fmt.Fprintf(out, "%-8s %-6s  %s\n", "STATUS", "CODE", "URL")
	for _, page := range pages {
		fmt.Fprintf(out, "%-8s %-6d  %s\n", page.Status, page.StatusCode, page.URL)
	}

	return nil
}
