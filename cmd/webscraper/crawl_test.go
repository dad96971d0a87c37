package main

import (
	"testing"
	"time"

	"github.com/Netflowar/web-scraper-v2/internal/config"
)

// TestNewCrawlCmd tests the crawl command creation.
func TestNewCrawlCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCrawlCmd()

	t.Run("has expected flags with defaults", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			flag      string
			shorthand string
			defValue  string
		}{
			{"max-links", "l", "10"},
			{"depth", "d", "1"},
			{"rate-limit", "r", "1"},
			{"timeout", "t", "10s"},
			{"same-domain", "s", "false"},
			{"no-robots", "", "false"},
			{"doc", "D", "false"},
			{"keywords-drop", "", "false"},
			{"batch", "b", "4"},
			{"markdown", "m", "false"},
			{"no-db", "", "false"},
		}

		for _, tt := range tests {
			flag := cmd.Flags().Lookup(tt.flag)
			if flag == nil {
				t.Errorf("expected flag %q", tt.flag)
				continue
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("flag %q: expected shorthand %q, got %q", tt.flag, tt.shorthand, flag.Shorthand)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("flag %q: expected default %q, got %q", tt.flag, tt.defValue, flag.DefValue)
			}
		}
	})
}

func TestBuildConfig(t *testing.T) {
	t.Parallel()

	t.Run("defaults match the config package", func(t *testing.T) {
		t.Parallel()

		cmd := NewCrawlCmd()
		cfg, err := buildConfig(cmd, []string{"https://example.com"})
		if err != nil {
			t.Fatalf("buildConfig failed: %v", err)
		}

		if cfg.MaxLinks != config.DefaultMaxLinks {
			t.Errorf("expected maxLinks %d, got %d", config.DefaultMaxLinks, cfg.MaxLinks)
		}
		if cfg.MaxDepth != config.DefaultMaxDepth {
			t.Errorf("expected maxDepth %d, got %d", config.DefaultMaxDepth, cfg.MaxDepth)
		}
		if cfg.RateLimit != config.DefaultRateLimit {
			t.Errorf("expected rateLimit %s, got %s", config.DefaultRateLimit, cfg.RateLimit)
		}
		if !cfg.RespectRobots {
			t.Error("expected robots checks on by default")
		}
		if len(cfg.StartURLs) != 1 || cfg.StartURLs[0] != "https://example.com" {
			t.Errorf("expected start URL from args, got %v", cfg.StartURLs)
		}
	})

	t.Run("flags override defaults", func(t *testing.T) {
		t.Parallel()

		cmd := NewCrawlCmd()
		if err := cmd.Flags().Set("rate-limit", "0.5"); err != nil {
			t.Fatal(err)
		}
		if err := cmd.Flags().Set("no-robots", "true"); err != nil {
			t.Fatal(err)
		}
		if err := cmd.Flags().Set("doc", "true"); err != nil {
			t.Fatal(err)
		}

		cfg, err := buildConfig(cmd, []string{"https://example.com"})
		if err != nil {
			t.Fatalf("buildConfig failed: %v", err)
		}

		if cfg.RateLimit != 500*time.Millisecond {
			t.Errorf("expected 500ms rate limit, got %s", cfg.RateLimit)
		}
		if cfg.RespectRobots {
			t.Error("expected robots checks disabled")
		}
		if !cfg.DocMode {
			t.Error("expected doc mode enabled")
		}
	})
}

func TestOutputPathFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     string
		startURL string
		multi    bool
		want     string
	}{
		{"single run keeps path", "report.txt", "http://a.test/", false, "report.txt"},
		{"batch run inserts host", "report.txt", "http://a.test/", true, "report.a.test.txt"},
		{"batch run without extension", "report", "http://a.test/", true, "report.a.test"},
		{"unparseable URL keeps path", "report.txt", "://", true, "report.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := outputPathFor(tt.path, tt.startURL, tt.multi); got != tt.want {
				t.Errorf("outputPathFor(%q, %q, %v) = %q, want %q",
					tt.path, tt.startURL, tt.multi, got, tt.want)
			}
		})
	}
}
