// Package crawler fetches seed pages and likely contact pages, feeding
// their content to the address extractor.
package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/publicsuffix"

	"github.com/vnykmshr/mailsift/internal/domain"
	"github.com/vnykmshr/mailsift/internal/extractor"
	"github.com/vnykmshr/mailsift/internal/robots"
	"github.com/vnykmshr/mailsift/internal/util"
)

// maxPageSize limits how much of a page body is read for extraction (2MB).
const maxPageSize = 2 * 1024 * 1024

// contactKeywords mark anchors that likely lead to pages listing
// addresses.
var contactKeywords = []string{
	"contact", "about", "team", "staff", "support",
	"people", "leadership", "directory", "management",
}

// Crawler fetches a seed URL plus a bounded set of likely contact pages,
// extracting candidate addresses from each. Safe for concurrent use; the
// only shared mutable state is the per-host rate limiter.
type Crawler struct {
	cfg     domain.CrawlConfig
	client  *http.Client
	limiter domain.HostLimiter
	extract *extractor.Extractor
	logger  *slog.Logger
}

// New creates a site crawler. The limiter is shared across all crawls of
// the session so per-host intervals hold across concurrent workers.
func New(cfg domain.CrawlConfig, limiter domain.HostLimiter, logger *slog.Logger) *Crawler {
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})

	client := &http.Client{
		Timeout: cfg.RequestTimeout,
		Jar:     jar,
		// Redirects must stay on the original host. Anything else is a
		// scope violation and fails the fetch.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("too many redirects")
			}
			if req.URL.Host != via[0].URL.Host {
				return fmt.Errorf("redirect to foreign host %s refused", req.URL.Host)
			}
			return nil
		},
	}

	return &Crawler{
		cfg:     cfg,
		client:  client,
		limiter: limiter,
		extract: extractor.New(),
		logger:  logger,
	}
}

// Crawl fetches the seed URL and up to MaxContactPages discovered contact
// pages, returning the deduplicated addresses found. Per-page failures
// are recorded in the result and never abort the crawl.
func (c *Crawler) Crawl(ctx context.Context, seedURL string) domain.CrawlResult {
	result := domain.CrawlResult{SeedURL: seedURL}

	normalized, err := util.NormalizeSeedURL(seedURL, c.cfg.AllowPrivateIPs)
	if err != nil {
		result.Errors = append(result.Errors, domain.PageError{
			URL:       seedURL,
			Detail:    util.SanitizeDetail(err.Error()),
			Timestamp: time.Now(),
		})
		return result
	}

	seed, err := url.Parse(normalized)
	if err != nil {
		result.Errors = append(result.Errors, domain.PageError{
			URL:       seedURL,
			Detail:    util.SanitizeDetail(err.Error()),
			Timestamp: time.Now(),
		})
		return result
	}

	var checker *robots.Checker
	if c.cfg.RespectRobots {
		checker = robots.New(c.cfg.UserAgent)
		if err := checker.FetchAndParse(ctx, c.client, normalized); err != nil {
			c.logger.Debug("robots.txt fetch", "url", normalized, "error", err)
		}
	}

	seen := make(map[string]struct{})
	addAddresses := func(cands []domain.CandidateAddress) {
		for _, cand := range cands {
			key := strings.ToLower(cand.Address)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			result.Addresses = append(result.Addresses, cand)
		}
	}

	seedBody, ok := c.visit(ctx, normalized, seed.Host, checker, &result)
	if ok {
		addAddresses(c.extract.Extract(seedBody, normalized))
	}

	visited := map[string]bool{normalized: true}
	followed := 0
	for _, link := range c.contactLinks(seedBody, seed) {
		if followed >= c.cfg.MaxContactPages {
			break
		}
		if visited[link] {
			continue
		}
		visited[link] = true
		followed++

		body, ok := c.visit(ctx, link, seed.Host, checker, &result)
		if ok {
			addAddresses(c.extract.Extract(body, link))
		}
	}

	c.logger.Debug("crawl finished",
		"seed_url", seedURL,
		"pages_visited", result.PagesVisited,
		"addresses", len(result.Addresses),
		"errors", len(result.Errors))

	return result
}

// visit rate-limits, fetches and returns one page's body. Failures are
// appended to the result as PageErrors; ok is false when no body is
// available.
func (c *Crawler) visit(ctx context.Context, pageURL, host string, checker *robots.Checker, result *domain.CrawlResult) (body string, ok bool) {
	recordError := func(detail string) {
		result.Errors = append(result.Errors, domain.PageError{
			URL:       pageURL,
			Detail:    util.SanitizeDetail(detail),
			Timestamp: time.Now(),
		})
	}

	if checker != nil && !checker.IsAllowed(pageURL) {
		recordError("blocked by robots.txt")
		return "", false
	}

	if err := c.limiter.Wait(ctx, host); err != nil {
		recordError(fmt.Sprintf("rate limit wait canceled: %v", err))
		return "", false
	}

	body, err := c.fetch(ctx, pageURL)
	result.PagesVisited++
	if err != nil {
		recordError(err.Error())
		return "", false
	}
	return body, true
}

// fetch performs one bounded-timeout GET and returns the page body.
func (c *Crawler) fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching page: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return "", fmt.Errorf("reading body: %w", err)
	}
	return string(data), nil
}

// contactLinks scans anchors for likely contact/about pages on the seed's
// host. Matching is case-insensitive on both the href path and the anchor
// text.
func (c *Crawler) contactLinks(body string, seed *url.URL) []string {
	if body == "" {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil
	}

	var links []string
	found := make(map[string]bool)

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "javascript:") ||
			strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "#") {
			return
		}

		text := strings.ToLower(strings.TrimSpace(sel.Text()))
		hrefLower := strings.ToLower(href)
		if !matchesContactKeyword(hrefLower) && !matchesContactKeyword(text) {
			return
		}

		parsed, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := seed.ResolveReference(parsed)
		if resolved.Host != seed.Host {
			return
		}
		resolved.Fragment = ""

		clean := resolved.String()
		if !found[clean] {
			found[clean] = true
			links = append(links, clean)
		}
	})

	return links
}

func matchesContactKeyword(s string) bool {
	for _, kw := range contactKeywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
