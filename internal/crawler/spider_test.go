package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"golang.org/x/net/html"

	"github.com/Netflowar/web-scraper-v2/internal/fetch"
	"github.com/Netflowar/web-scraper-v2/internal/model"
)

// titleExtractor is a minimal extractor for crawl tests. It only records
// that extraction ran.
type titleExtractor struct{}

func (titleExtractor) Extract(_ *html.Node, _ []byte, pageURL string, page *model.PageRecord) {
	page.Title = pageURL
}

// countingHandler wraps a handler and counts requests per path.
type countingHandler struct {
	mu      sync.Mutex
	counts  map[string]int
	handler http.Handler
}

func newCountingHandler(handler http.Handler) *countingHandler {
	return &countingHandler{
		counts:  make(map[string]int),
		handler: handler,
	}
}

func (c *countingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	c.counts[r.URL.Path]++
	c.mu.Unlock()
	c.handler.ServeHTTP(w, r)
}

func (c *countingHandler) count(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[path]
}

// newTestSpider builds a spider against a test server with rate limiting
// and robots checks off unless the options say otherwise.
func newTestSpider(srv *httptest.Server, opts ...Option) *Spider {
	client := fetch.NewClient(srv.Client())
	return NewSpider(client, titleExtractor{}, opts...)
}

func TestSpiderCrawl(t *testing.T) {
	t.Parallel()

	t.Run("stops at link budget counting the start page", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html><body>
				<a href="/a">A</a>
				<a href="/b">B</a>
				<a href="/c">C</a>
			</body></html>`))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		spider := newTestSpider(srv, WithMaxLinks(2), WithMaxDepth(1))
		result, err := spider.Crawl(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("crawl failed: %v", err)
		}

		if result.Stats.PagesAttempted != 2 {
			t.Errorf("expected 2 pages attempted, got %d", result.Stats.PagesAttempted)
		}
		if result.State != model.StateCompleted {
			t.Errorf("expected state completed, got %s", result.State)
		}
	})

	t.Run("relative links resolve against the page they appear on", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html><body><a href="/sub/page.html">sub</a></body></html>`))
		})
		mux.HandleFunc("/sub/page.html", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html><body><a href="other.html">sibling</a></body></html>`))
		})
		counter := newCountingHandler(mux)
		srv := httptest.NewServer(counter)
		defer srv.Close()

		spider := newTestSpider(srv, WithMaxLinks(10), WithMaxDepth(2))
		result, err := spider.Crawl(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("crawl failed: %v", err)
		}

		page := result.Pages[normalizeURL(srv.URL+"/sub/page.html")]
		if page == nil {
			t.Fatal("sub page record missing")
		}
		want := srv.URL + "/sub/other.html"
		if len(page.LinksFound) != 1 || page.LinksFound[0] != want {
			t.Errorf("expected links %v, got %v", []string{want}, page.LinksFound)
		}
		if got := counter.count("/sub/other.html"); got != 1 {
			t.Errorf("expected /sub/other.html fetched once, got %d fetches", got)
		}
	})

	t.Run("links matching ignore patterns are not followed", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html><body>
				<a href="/tag/go">Tag</a>
				<a href="/post/hello">Post</a>
			</body></html>`))
		})
		counter := newCountingHandler(mux)
		srv := httptest.NewServer(counter)
		defer srv.Close()

		spider := newTestSpider(srv,
			WithMaxLinks(10),
			WithMaxDepth(1),
			WithIgnorePatterns([]string{"/tag/"}),
		)
		result, err := spider.Crawl(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("crawl failed: %v", err)
		}

		if got := counter.count("/tag/go"); got != 0 {
			t.Errorf("expected /tag/go never fetched, got %d fetches", got)
		}
		if got := counter.count("/post/hello"); got != 1 {
			t.Errorf("expected /post/hello fetched once, got %d fetches", got)
		}

		// Ignored links are still reported as discovered.
		if !result.HasLink(normalizeURL(srv.URL + "/tag/go")) {
			t.Error("expected ignored link to appear in discovered links")
		}
	})

	t.Run("depth zero fetches only the start page", func(t *testing.T) {
		t.Parallel()

		counter := newCountingHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html><body><a href="/next">Next</a></body></html>`))
		}))
		srv := httptest.NewServer(counter)
		defer srv.Close()

		spider := newTestSpider(srv, WithMaxLinks(10), WithMaxDepth(0))
		result, err := spider.Crawl(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("crawl failed: %v", err)
		}

		if result.Stats.PagesAttempted != 1 {
			t.Errorf("expected 1 page attempted, got %d", result.Stats.PagesAttempted)
		}
		if got := counter.count("/next"); got != 0 {
			t.Errorf("expected /next never fetched, got %d fetches", got)
		}

		// Links on the start page are still reported even though they
		// were not followed.
		page := result.Pages[normalizeURL(srv.URL)]
		if page == nil {
			t.Fatal("start page record missing")
		}
		if len(page.LinksFound) != 1 {
			t.Errorf("expected 1 link found on start page, got %d", len(page.LinksFound))
		}
	})

	t.Run("never fetches the same URL twice", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html><body><a href="/a">A</a><a href="/b">B</a></body></html>`))
		})
		mux.HandleFunc("/a", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html><body><a href="/">Home</a><a href="/b">B</a></body></html>`))
		})
		mux.HandleFunc("/b", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html><body><a href="/a">A</a><a href="/">Home</a></body></html>`))
		})
		counter := newCountingHandler(mux)
		srv := httptest.NewServer(counter)
		defer srv.Close()

		spider := newTestSpider(srv, WithMaxLinks(10), WithMaxDepth(3))
		result, err := spider.Crawl(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("crawl failed: %v", err)
		}

		for _, path := range []string{"/", "/a", "/b"} {
			if got := counter.count(path); got != 1 {
				t.Errorf("expected %s fetched exactly once, got %d", path, got)
			}
		}
		if result.Stats.PagesAttempted != 3 {
			t.Errorf("expected 3 pages attempted, got %d", result.Stats.PagesAttempted)
		}
	})

	t.Run("failed start URL yields one failure record and completes", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		spider := newTestSpider(srv, WithMaxLinks(10), WithMaxDepth(2))
		result, err := spider.Crawl(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("crawl failed: %v", err)
		}

		if result.State != model.StateCompleted {
			t.Errorf("expected state completed, got %s", result.State)
		}
		if result.Stats.PagesAttempted != 1 {
			t.Errorf("expected 1 page attempted, got %d", result.Stats.PagesAttempted)
		}
		if result.Stats.PagesFailed != 1 {
			t.Errorf("expected 1 failed page, got %d", result.Stats.PagesFailed)
		}

		page := result.Pages[normalizeURL(srv.URL)]
		if page == nil {
			t.Fatal("failure record missing")
		}
		if !page.Failed() {
			t.Error("expected page record marked failed")
		}
		if len(page.LinksFound) != 0 {
			t.Errorf("expected empty links on failure record, got %d", len(page.LinksFound))
		}
	})

	t.Run("robots-disallowed pages are skipped without consuming budget", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /secret\n"))
		})
		mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html><body><a href="/secret">S</a><a href="/open">O</a></body></html>`))
		})
		mux.HandleFunc("/open", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html><body>open</body></html>`))
		})
		counter := newCountingHandler(mux)
		srv := httptest.NewServer(counter)
		defer srv.Close()

		spider := newTestSpider(srv,
			WithMaxLinks(10),
			WithMaxDepth(1),
			WithRobotsGate(NewRobotsGate(srv.Client(), true)),
		)
		result, err := spider.Crawl(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("crawl failed: %v", err)
		}

		if got := counter.count("/secret"); got != 0 {
			t.Errorf("expected /secret never fetched, got %d fetches", got)
		}
		if result.Stats.PagesAttempted != 2 {
			t.Errorf("expected 2 pages attempted (start and /open), got %d", result.Stats.PagesAttempted)
		}
	})

	t.Run("cancelled context returns partial result in aborted state", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html><body>ok</body></html>`))
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		spider := newTestSpider(srv, WithMaxLinks(10))
		result, err := spider.Crawl(ctx, srv.URL)
		if err == nil {
			t.Fatal("expected cancellation error")
		}
		if result == nil {
			t.Fatal("expected partial result on cancellation")
		}
		if result.State != model.StateAborted {
			t.Errorf("expected state aborted, got %s", result.State)
		}
	})

	t.Run("panicking progress callback does not abort the crawl", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html><body><a href="/a">A</a></body></html>`))
		}))
		defer srv.Close()

		var calls int
		spider := newTestSpider(srv,
			WithMaxLinks(2),
			WithMaxDepth(1),
			WithProgress(func(done, max int) {
				calls++
				panic("callback exploded")
			}),
		)

		result, err := spider.Crawl(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("crawl failed: %v", err)
		}
		if result.State != model.StateCompleted {
			t.Errorf("expected state completed, got %s", result.State)
		}
		if calls != result.Stats.PagesAttempted {
			t.Errorf("expected %d progress calls, got %d", result.Stats.PagesAttempted, calls)
		}
	})

	t.Run("rejects invalid configuration before any network activity", func(t *testing.T) {
		t.Parallel()

		spider := NewSpider(fetch.NewClient(nil), titleExtractor{}, WithMaxLinks(0))
		if _, err := spider.Crawl(context.Background(), "http://example.test/"); err == nil {
			t.Error("expected error for non-positive link budget")
		}

		spider = NewSpider(fetch.NewClient(nil), titleExtractor{})
		if _, err := spider.Crawl(context.Background(), "not a url"); err == nil {
			t.Error("expected error for invalid start URL")
		}
		if _, err := spider.Crawl(context.Background(), "/relative/path"); err == nil {
			t.Error("expected error for relative start URL")
		}
	})
}

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"strips fragment", "http://example.com/page#section", "http://example.com/page"},
		{"lowercases scheme and host", "HTTP://Example.COM/Page", "http://example.com/Page"},
		{"adds root path", "http://example.com", "http://example.com/"},
		{"keeps query", "http://example.com/p?q=1", "http://example.com/p?q=1"},
		{"preserves path case", "http://example.com/Docs/API", "http://example.com/Docs/API"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := normalizeURL(tt.in)
			if got != tt.want {
				t.Errorf("normalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
			}

			// Normalization must be idempotent.
			if again := normalizeURL(got); again != got {
				t.Errorf("normalizeURL not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestOrderLinks(t *testing.T) {
	t.Parallel()

	t.Run("doc mode moves documentation links first keeping order", func(t *testing.T) {
		t.Parallel()

		spider := NewSpider(fetch.NewClient(nil), titleExtractor{}, WithDocMode(true))

		links := []string{
			"http://example.com/blog/post",
			"http://example.com/docs/intro",
			"http://example.com/about",
			"http://example.com/api/reference",
		}
		got := spider.orderLinks(links)

		want := []string{
			"http://example.com/docs/intro",
			"http://example.com/api/reference",
			"http://example.com/blog/post",
			"http://example.com/about",
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("position %d: got %q, want %q", i, got[i], want[i])
			}
		}
	})

	t.Run("plain mode keeps document order", func(t *testing.T) {
		t.Parallel()

		spider := NewSpider(fetch.NewClient(nil), titleExtractor{})

		links := []string{"http://a.test/docs/", "http://b.test/"}
		got := spider.orderLinks(links)
		if got[0] != links[0] || got[1] != links[1] {
			t.Errorf("expected unchanged order, got %v", got)
		}
	})
}

func TestIsDocLike(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want bool
	}{
		{"https://docs.python.org/3/tutorial", true},
		{"https://requests.readthedocs.io/en/latest/", true},
		{"https://example.com/docs/setup", true},
		{"https://example.com/api", true},
		{"https://example.com/guide", true},
		{"https://example.com/blog/2024", false},
		{"https://example.com/", false},
		{"://bad", false},
	}

	for _, tt := range tests {
		if got := isDocLike(tt.url); got != tt.want {
			t.Errorf("isDocLike(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}
