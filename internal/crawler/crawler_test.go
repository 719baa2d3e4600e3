package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vnykmshr/mailsift/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func testConfig() domain.CrawlConfig {
	return domain.CrawlConfig{
		RequestTimeout:  5 * time.Second,
		MaxContactPages: 3,
		UserAgent:       "Mailsift/1.0",
		RespectRobots:   false,
		AllowPrivateIPs: true,
	}
}

func newTestCrawler(cfg domain.CrawlConfig) *Crawler {
	return New(cfg, NewPerHostLimiter(0), testLogger())
}

func addressSet(result domain.CrawlResult) map[string]bool {
	set := make(map[string]bool, len(result.Addresses))
	for _, c := range result.Addresses {
		set[c.Address] = true
	}
	return set
}

func TestCrawl_SeedPageOnly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body>Reach us at sales@acme.io or jobs@acme.io</body></html>`)
	}))
	defer server.Close()

	c := newTestCrawler(testConfig())
	result := c.Crawl(context.Background(), server.URL)

	if len(result.Errors) != 0 {
		t.Fatalf("Unexpected errors: %v", result.Errors)
	}
	if result.PagesVisited != 1 {
		t.Errorf("Expected 1 page visited, got %d", result.PagesVisited)
	}
	set := addressSet(result)
	if !set["sales@acme.io"] || !set["jobs@acme.io"] {
		t.Errorf("Missing expected addresses, got %v", set)
	}
}

func TestCrawl_FollowsContactPages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `<html><body>
			<a href="/contact">Contact us</a>
			<a href="/products">Products</a>
			hello@acme.io
		</body></html>`)
	})
	mux.HandleFunc("/contact", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body>Write to support@acme.io</body></html>`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := newTestCrawler(testConfig())
	result := c.Crawl(context.Background(), server.URL)

	if result.PagesVisited != 2 {
		t.Errorf("Expected 2 pages visited (seed + contact), got %d", result.PagesVisited)
	}
	set := addressSet(result)
	if !set["hello@acme.io"] || !set["support@acme.io"] {
		t.Errorf("Missing expected addresses, got %v", set)
	}
}

func TestCrawl_ContactPageCap(t *testing.T) {
	var anchors strings.Builder
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&anchors, `<a href="/contact-%d">Contact %d</a>`, i, i)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `<html><body>%s</body></html>`, anchors.String())
	})
	for i := 0; i < 10; i++ {
		mux.HandleFunc(fmt.Sprintf("/contact-%d", i), func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `<html><body>nothing here</body></html>`)
		})
	}
	server := httptest.NewServer(mux)
	defer server.Close()

	cfg := testConfig()
	cfg.MaxContactPages = 3
	c := newTestCrawler(cfg)
	result := c.Crawl(context.Background(), server.URL)

	// Seed plus at most MaxContactPages.
	if result.PagesVisited != 4 {
		t.Errorf("Expected 4 pages visited, got %d", result.PagesVisited)
	}
}

func TestCrawl_SeedNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	c := newTestCrawler(testConfig())
	result := c.Crawl(context.Background(), server.URL)

	if len(result.Addresses) != 0 {
		t.Errorf("Expected no addresses, got %v", result.Addresses)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("Expected exactly 1 page error, got %d: %v", len(result.Errors), result.Errors)
	}
	if !strings.Contains(result.Errors[0].Detail, "404") {
		t.Errorf("Expected 404 in error detail, got %q", result.Errors[0].Detail)
	}
	if result.PagesVisited != 1 {
		t.Errorf("Expected 1 page visited, got %d", result.PagesVisited)
	}
}

func TestCrawl_ContactPageFailureIsNonFatal(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `<html><body><a href="/contact">Contact</a> first@acme.io</body></html>`)
	})
	mux.HandleFunc("/contact", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := newTestCrawler(testConfig())
	result := c.Crawl(context.Background(), server.URL)

	if len(result.Errors) != 1 {
		t.Fatalf("Expected 1 page error, got %d: %v", len(result.Errors), result.Errors)
	}
	if !addressSet(result)["first@acme.io"] {
		t.Error("Seed page addresses should survive a failing contact page")
	}
}

func TestCrawl_RefusesForeignHostRedirect(t *testing.T) {
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `leaked@offsite.io`)
	}))
	defer other.Close()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, other.URL, http.StatusFound)
	}))
	defer server.Close()

	c := newTestCrawler(testConfig())
	result := c.Crawl(context.Background(), server.URL)

	if len(result.Addresses) != 0 {
		t.Errorf("Expected no addresses from a foreign redirect, got %v", result.Addresses)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("Expected 1 error for the refused redirect, got %v", result.Errors)
	}
}

func TestCrawl_IgnoresForeignHostContactLinks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body>
			<a href="http://elsewhere.invalid/contact">Contact</a>
		</body></html>`)
	}))
	defer server.Close()

	c := newTestCrawler(testConfig())
	result := c.Crawl(context.Background(), server.URL)

	if result.PagesVisited != 1 {
		t.Errorf("Foreign-host contact link must not be followed, visited %d pages", result.PagesVisited)
	}
}

func TestCrawl_RespectsRobots(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "User-agent: *\nDisallow: /contact\n")
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `<html><body><a href="/contact">Contact</a></body></html>`)
	})
	mux.HandleFunc("/contact", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `secret@acme.io`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	cfg := testConfig()
	cfg.RespectRobots = true
	c := newTestCrawler(cfg)
	result := c.Crawl(context.Background(), server.URL)

	if addressSet(result)["secret@acme.io"] {
		t.Error("Disallowed contact page must not be fetched")
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0].Detail, "robots") {
		t.Errorf("Expected one robots block error, got %v", result.Errors)
	}
}

func TestCrawl_InvalidSeedURL(t *testing.T) {
	c := newTestCrawler(testConfig())
	result := c.Crawl(context.Background(), "ftp://acme.io")

	if len(result.Errors) != 1 {
		t.Fatalf("Expected 1 error for invalid seed, got %v", result.Errors)
	}
	if result.PagesVisited != 0 {
		t.Errorf("Expected no pages visited, got %d", result.PagesVisited)
	}
}
