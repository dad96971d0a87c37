package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/Netflowar/web-scraper-v2/internal/database"
	"github.com/Netflowar/web-scraper-v2/internal/model"
)

func TestNewHistoryCmd(t *testing.T) {
	t.Parallel()

	cmd := NewHistoryCmd()

	if cmd.Use != "history" {
		t.Errorf("expected use %q, got %q", "history", cmd.Use)
	}
	if flag := cmd.Flags().Lookup("limit"); flag == nil || flag.DefValue != "20" {
		t.Errorf("expected limit flag with default 20, got %v", flag)
	}
	if flag := cmd.Flags().Lookup("show"); flag == nil || flag.DefValue != "0" {
		t.Errorf("expected show flag with default 0, got %v", flag)
	}
}

func TestShowRun(t *testing.T) {
	t.Parallel()

	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer func() { _ = db.Close() }()

	result := model.NewCrawlResult("http://example.test/")
	result.State = model.StateCompleted
	result.Stats.Duration = time.Second
	result.AddLink("http://example.test/")
	result.AddPage(&model.PageRecord{
		URL:        "http://example.test/",
		Status:     model.StatusOK,
		StatusCode: 200,
		Title:      "Home",
		LinksFound: []string{},
		FetchedAt:  time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	})
	result.AddPage(&model.PageRecord{
		URL:        "http://example.test/missing",
		Status:     model.StatusFailed,
		StatusCode: 404,
		LinksFound: []string{},
		FetchedAt:  time.Date(2025, 6, 1, 10, 0, 1, 0, time.UTC),
	})

	runID, err := db.SaveResult(context.Background(), result)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	t.Run("prints the run header and its pages", func(t *testing.T) {
		var buf bytes.Buffer
		cmd := &cobra.Command{}
		cmd.SetOut(&buf)
		cmd.SetContext(context.Background())

		if err := showRun(cmd, db, runID); err != nil {
			t.Fatalf("show failed: %v", err)
		}

		out := buf.String()
		for _, want := range []string{
			"http://example.test/",
			"State: completed",
			"http://example.test/missing",
			"404",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, out)
			}
		}
	})

	t.Run("unknown run ID is an error", func(t *testing.T) {
		cmd := &cobra.Command{}
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetContext(context.Background())

		if err := showRun(cmd, db, runID+999); err == nil {
			t.Error("expected error for missing run")
		}
	})
}
