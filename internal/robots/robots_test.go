package robots

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestAgent_Allowed(t *testing.T) {
	t.Parallel()

	t.Run("honors disallow rules", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, "User-agent: *\nDisallow: /private/\n")
		})
		srv := httptest.NewServer(mux)
		t.Cleanup(srv.Close)

		a := NewAgent(srv.Client())

		if !a.Allowed(context.Background(), srv.URL+"/products/1") {
			t.Error("expected /products/1 to be allowed")
		}
		if a.Allowed(context.Background(), srv.URL+"/private/page") {
			t.Error("expected /private/page to be disallowed")
		}
	})

	t.Run("matches the configured user agent group", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, "User-agent: EcomCrawler\nDisallow: /\n\nUser-agent: *\nDisallow:\n")
		})
		srv := httptest.NewServer(mux)
		t.Cleanup(srv.Close)

		a := NewAgent(srv.Client(), WithUserAgent("EcomCrawler"))
		if a.Allowed(context.Background(), srv.URL+"/anything") {
			t.Error("expected crawler-specific group to disallow")
		}

		other := NewAgent(srv.Client(), WithUserAgent("OtherBot"))
		if !other.Allowed(context.Background(), srv.URL+"/anything") {
			t.Error("expected wildcard group to allow other agents")
		}
	})

	t.Run("fails open when robots.txt is missing", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.NotFoundHandler())
		t.Cleanup(srv.Close)

		a := NewAgent(srv.Client())
		if !a.Allowed(context.Background(), srv.URL+"/page") {
			t.Error("expected missing robots.txt to allow crawling")
		}
	})

	t.Run("fails open when the host is unreachable", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.NotFoundHandler())
		deadURL := srv.URL
		srv.Close()

		a := NewAgent(nil)
		if !a.Allowed(context.Background(), deadURL+"/page") {
			t.Error("expected unreachable robots.txt to allow crawling")
		}
	})

	t.Run("rejects relative URLs", func(t *testing.T) {
		t.Parallel()

		a := NewAgent(nil)
		if a.Allowed(context.Background(), "/relative/only") {
			t.Error("expected relative URL to be rejected")
		}
	})

	t.Run("caches rules per host", func(t *testing.T) {
		t.Parallel()

		var fetches atomic.Int64
		mux := http.NewServeMux()
		mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, _ *http.Request) {
			fetches.Add(1)
			fmt.Fprint(w, "User-agent: *\nDisallow: /private/\n")
		})
		srv := httptest.NewServer(mux)
		t.Cleanup(srv.Close)

		a := NewAgent(srv.Client())
		for range 5 {
			a.Allowed(context.Background(), srv.URL+"/page")
		}
		if fetches.Load() != 1 {
			t.Errorf("expected 1 robots.txt fetch, got %d", fetches.Load())
		}

		// Purging forces a refetch.
		u := srv.URL[len("http://"):]
		a.Purge(u)
		a.Allowed(context.Background(), srv.URL+"/page")
		if fetches.Load() != 2 {
			t.Errorf("expected refetch after purge, got %d fetches", fetches.Load())
		}
	})
}
