// Package robots provides robots.txt parsing and compliance checking for
// the site crawler.
package robots

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Maximum size of robots.txt to parse (1MB).
const maxRobotsTxtSize = 1 * 1024 * 1024

// Checker holds the parsed rules of one host's robots.txt.
type Checker struct {
	userAgent     string
	disallowPaths []string
	allowPaths    []string
	crawlDelay    time.Duration
	found         bool
}

// New creates a robots.txt checker for the given user agent.
func New(userAgent string) *Checker {
	return &Checker{userAgent: userAgent}
}

// FetchAndParse fetches and parses robots.txt for the seed URL's host.
// A missing robots.txt (404) or a network error allows crawling; other
// 4xx/5xx answers are treated conservatively and disallow everything.
func (c *Checker) FetchAndParse(ctx context.Context, client *http.Client, seedURL string) error {
	parsed, err := url.Parse(seedURL)
	if err != nil {
		return fmt.Errorf("invalid seed URL %s: %w", seedURL, err)
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", parsed.Scheme, parsed.Host)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := client.Do(req)
	if err != nil {
		// Unreachable robots.txt does not block the crawl.
		return nil
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil
	case resp.StatusCode == http.StatusOK:
		c.found = true
		return c.Parse(resp.Body)
	case resp.StatusCode >= 400:
		c.found = true
		c.disallowPaths = append(c.disallowPaths, "/")
		return fmt.Errorf("robots.txt returned status %d - disallowing all paths", resp.StatusCode)
	}
	return nil
}

// Parse reads robots.txt content and records the rules that apply to the
// checker's user agent (or the * wildcard group).
func (c *Checker) Parse(reader io.Reader) error {
	scanner := bufio.NewScanner(io.LimitReader(reader, maxRobotsTxtSize))
	inMatchingGroup := false

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if idx := strings.Index(line, "#"); idx != -1 {
			line = strings.TrimSpace(line[:idx])
			if line == "" {
				continue
			}
		}

		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		field := strings.TrimSpace(strings.ToLower(parts[0]))
		value := strings.TrimSpace(parts[1])

		switch field {
		case "user-agent":
			inMatchingGroup = value == "*" ||
				strings.Contains(strings.ToLower(c.userAgent), strings.ToLower(value))
		case "disallow":
			if inMatchingGroup && value != "" {
				c.disallowPaths = append(c.disallowPaths, value)
			}
		case "allow":
			if inMatchingGroup && value != "" {
				c.allowPaths = append(c.allowPaths, value)
			}
		case "crawl-delay":
			if inMatchingGroup {
				var delay float64
				if _, err := fmt.Sscanf(value, "%f", &delay); err == nil {
					c.crawlDelay = time.Duration(delay * float64(time.Second))
				}
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading robots.txt: %w", err)
	}
	return nil
}

// IsAllowed checks whether the given URL (or path) may be crawled.
func (c *Checker) IsAllowed(rawURL string) bool {
	if !c.found {
		return true
	}
	if len(c.disallowPaths) == 0 && len(c.allowPaths) == 0 {
		return true
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		// Unparseable: be conservative.
		return false
	}
	path := parsed.Path
	if path == "" {
		path = "/"
	}

	// Allow rules win over Disallow rules.
	for _, allow := range c.allowPaths {
		if matchesPath(path, allow) {
			return true
		}
	}
	for _, disallow := range c.disallowPaths {
		if matchesPath(path, disallow) {
			return false
		}
	}
	return true
}

// CrawlDelay returns the crawl delay specified in robots.txt, if any.
func (c *Checker) CrawlDelay() time.Duration {
	return c.crawlDelay
}

// Found returns whether robots.txt was found and parsed.
func (c *Checker) Found() bool {
	return c.found
}

// matchesPath checks a URL path against a robots.txt pattern.
// Supports * wildcards and the $ end anchor.
func matchesPath(urlPath, robotsPath string) bool {
	if robotsPath == "" {
		return false
	}

	if strings.HasSuffix(robotsPath, "$") {
		pattern := strings.TrimSuffix(robotsPath, "$")
		if strings.Contains(pattern, "*") {
			return matchWildcard(urlPath, pattern, true)
		}
		return urlPath == pattern
	}

	if strings.Contains(robotsPath, "*") {
		return matchWildcard(urlPath, robotsPath, false)
	}

	return strings.HasPrefix(urlPath, robotsPath)
}

// matchWildcard matches a path against a pattern with * wildcards.
// exactEnd means the pattern must consume the entire path ($ anchor).
func matchWildcard(urlPath, pattern string, exactEnd bool) bool {
	parts := strings.Split(pattern, "*")

	pos := 0
	for i, part := range parts {
		if part == "" {
			continue
		}
		idx := strings.Index(urlPath[pos:], part)
		if idx == -1 {
			return false
		}
		if i == 0 && idx != 0 {
			return false
		}
		pos += idx + len(part)
	}

	if exactEnd {
		return pos == len(urlPath)
	}
	return true
}
