package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClientFetch(t *testing.T) {
	t.Parallel()

	t.Run("sends the configured user agent", func(t *testing.T) {
		t.Parallel()

		var gotUA string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.Header.Get("User-Agent")
			_, _ = w.Write([]byte("ok"))
		}))
		defer srv.Close()

		client := NewClient(srv.Client(), WithUserAgent("custom-agent/1.0"))
		resp, err := client.Fetch(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}

		if gotUA != "custom-agent/1.0" {
			t.Errorf("expected custom user agent, got %q", gotUA)
		}
		if !resp.OK() {
			t.Errorf("expected 2xx response, got %d", resp.StatusCode)
		}
	})

	t.Run("caps the body at the configured size", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(strings.Repeat("x", 1000)))
		}))
		defer srv.Close()

		client := NewClient(srv.Client(), WithMaxBodySize(64))
		resp, err := client.Fetch(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}

		if len(resp.Body) != 64 {
			t.Errorf("expected 64 byte body, got %d", len(resp.Body))
		}
	})

	t.Run("non-2xx status is a response, not an error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "gone", http.StatusGone)
		}))
		defer srv.Close()

		client := NewClient(srv.Client())
		resp, err := client.Fetch(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if resp.OK() {
			t.Error("expected OK() false for 410")
		}
		if resp.StatusCode != http.StatusGone {
			t.Errorf("expected status 410, got %d", resp.StatusCode)
		}
	})

	t.Run("transport errors are returned", func(t *testing.T) {
		t.Parallel()

		client := NewClient(http.DefaultClient)
		if _, err := client.Fetch(context.Background(), "http://unreachable.invalid/"); err == nil {
			t.Error("expected transport error")
		}
	})

	t.Run("cancelled context aborts the request", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		client := NewClient(srv.Client())
		if _, err := client.Fetch(ctx, srv.URL); err == nil {
			t.Error("expected error for cancelled context")
		}
	})
}

func TestResponseOK(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		want   bool
	}{
		{200, true},
		{204, true},
		{299, true},
		{199, false},
		{301, false},
		{404, false},
		{500, false},
	}

	for _, tt := range tests {
		resp := &Response{StatusCode: tt.status}
		if got := resp.OK(); got != tt.want {
			t.Errorf("OK() for %d = %v, want %v", tt.status, got, tt.want)
		}
	}
}
