package robots

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestParse_DisallowRules(t *testing.T) {
	c := New("Mailsift/1.0")
	c.found = true

	robotsTxt := `User-agent: *
Disallow: /admin
Disallow: /private
`
	if err := c.Parse(strings.NewReader(robotsTxt)); err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	tests := []struct {
		path string
		want bool
	}{
		{"/contact", true},
		{"/about", true},
		{"/admin", false},
		{"/admin/users", false},
		{"/private/data", false},
	}
	for _, tt := range tests {
		if got := c.IsAllowed(tt.path); got != tt.want {
			t.Errorf("IsAllowed(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestParse_AllowOverridesDisallow(t *testing.T) {
	c := New("Mailsift/1.0")
	c.found = true

	robotsTxt := `User-agent: *
Disallow: /team
Allow: /team/contact
`
	if err := c.Parse(strings.NewReader(robotsTxt)); err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	if c.IsAllowed("/team") {
		t.Error("Expected /team to be disallowed")
	}
	if !c.IsAllowed("/team/contact") {
		t.Error("Expected /team/contact to be allowed")
	}
}

func TestParse_OtherUserAgentIgnored(t *testing.T) {
	c := New("Mailsift/1.0")
	c.found = true

	robotsTxt := `User-agent: Googlebot
Disallow: /

User-agent: *
Disallow: /admin
`
	if err := c.Parse(strings.NewReader(robotsTxt)); err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	if !c.IsAllowed("/contact") {
		t.Error("Expected /contact to be allowed for our user agent")
	}
	if c.IsAllowed("/admin") {
		t.Error("Expected /admin to be disallowed by the wildcard group")
	}
}

func TestParse_CrawlDelay(t *testing.T) {
	c := New("Mailsift/1.0")

	robotsTxt := `User-agent: *
Crawl-delay: 1.5
`
	if err := c.Parse(strings.NewReader(robotsTxt)); err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if got := c.CrawlDelay(); got != 1500*time.Millisecond {
		t.Errorf("CrawlDelay() = %v, want 1.5s", got)
	}
}

func TestMatchesPath_Wildcards(t *testing.T) {
	tests := []struct {
		path    string
		pattern string
		want    bool
	}{
		{"/page.pdf", "/*.pdf", true},
		{"/docs/file.pdf", "/*.pdf", true},
		{"/page.html", "/*.pdf", false},
		{"/exact", "/exact$", true},
		{"/exactly", "/exact$", false},
		{"/a/b/c", "/a/*/c", true},
	}
	for _, tt := range tests {
		if got := matchesPath(tt.path, tt.pattern); got != tt.want {
			t.Errorf("matchesPath(%q, %q) = %v, want %v", tt.path, tt.pattern, got, tt.want)
		}
	}
}

func TestFetchAndParse_NotFoundAllowsAll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := New("Mailsift/1.0")
	if err := c.FetchAndParse(context.Background(), server.Client(), server.URL); err != nil {
		t.Fatalf("FetchAndParse returned error: %v", err)
	}
	if c.Found() {
		t.Error("Expected Found() to be false for 404")
	}
	if !c.IsAllowed("/anything") {
		t.Error("Expected all paths allowed when robots.txt is missing")
	}
}

func TestFetchAndParse_ServerErrorDisallowsAll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	c := New("Mailsift/1.0")
	if err := c.FetchAndParse(context.Background(), server.Client(), server.URL); err == nil {
		t.Fatal("Expected error for 403 robots.txt")
	}
	if c.IsAllowed("/contact") {
		t.Error("Expected all paths disallowed after 403")
	}
}

func TestFetchAndParse_ParsesServedRules(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			t.Errorf("Unexpected path fetched: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /secret\n"))
	}))
	defer server.Close()

	c := New("Mailsift/1.0")
	if err := c.FetchAndParse(context.Background(), server.Client(), server.URL); err != nil {
		t.Fatalf("FetchAndParse returned error: %v", err)
	}
	if !c.Found() {
		t.Error("Expected Found() to be true")
	}
	if c.IsAllowed("/secret/page") {
		t.Error("Expected /secret/page to be disallowed")
	}
	if !c.IsAllowed("/contact") {
		t.Error("Expected /contact to be allowed")
	}
}
