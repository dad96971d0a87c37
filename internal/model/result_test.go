package model

import "testing"

func TestCrawlResult(t *testing.T) {
	t.Parallel()

	t.Run("add link keeps first-seen order and deduplicates", func(t *testing.T) {
		t.Parallel()

		result := NewCrawlResult("http://example.test/")
		result.AddLink("http://example.test/a")
		result.AddLink("http://example.test/b")
		result.AddLink("http://example.test/a")

		if len(result.Links) != 2 {
			t.Fatalf("expected 2 links, got %d", len(result.Links))
		}
		if result.Links[0] != "http://example.test/a" || result.Links[1] != "http://example.test/b" {
			t.Errorf("unexpected order: %v", result.Links)
		}
		if result.Stats.LinksDiscovered != 2 {
			t.Errorf("expected 2 discovered, got %d", result.Stats.LinksDiscovered)
		}
		if !result.HasLink("http://example.test/a") {
			t.Error("expected HasLink true for recorded link")
		}
		if result.HasLink("http://example.test/c") {
			t.Error("expected HasLink false for unknown link")
		}
	})

	t.Run("add page tracks attempts and failures", func(t *testing.T) {
		t.Parallel()

		result := NewCrawlResult("http://example.test/")
		result.AddPage(&PageRecord{URL: "http://example.test/", Status: StatusOK})
		result.AddPage(&PageRecord{URL: "http://example.test/a", Status: StatusFailed})

		if result.Stats.PagesAttempted != 2 {
			t.Errorf("expected 2 attempts, got %d", result.Stats.PagesAttempted)
		}
		if result.Stats.PagesFailed != 1 {
			t.Errorf("expected 1 failure, got %d", result.Stats.PagesFailed)
		}
	})

	t.Run("pages in order follows link discovery order", func(t *testing.T) {
		t.Parallel()

		result := NewCrawlResult("http://example.test/")
		result.AddLink("http://example.test/")
		result.AddLink("http://example.test/a")
		result.AddLink("http://example.test/unfetched")

		result.AddPage(&PageRecord{URL: "http://example.test/a", Status: StatusOK})
		result.AddPage(&PageRecord{URL: "http://example.test/", Status: StatusOK})

		pages := result.PagesInOrder()
		if len(pages) != 2 {
			t.Fatalf("expected 2 pages, got %d", len(pages))
		}
		if pages[0].URL != "http://example.test/" || pages[1].URL != "http://example.test/a" {
			t.Errorf("unexpected order: %v, %v", pages[0].URL, pages[1].URL)
		}
	})
}

func TestPageRecordFailed(t *testing.T) {
	t.Parallel()

	if (&PageRecord{Status: StatusOK}).Failed() {
		t.Error("expected ok record not failed")
	}
	if !(&PageRecord{Status: StatusFailed}).Failed() {
		t.Error("expected failed record failed")
	}
}
