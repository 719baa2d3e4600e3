// Package extractor finds candidate email addresses in raw page content.
// Extraction is a pure function of the input text: no network calls, no
// shared state.
package extractor

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/vnykmshr/mailsift/internal/domain"
)

// addressPattern is the RFC-5322-derived scanning grammar: local part of
// alphanumerics plus . _ % + -, then a dotted domain whose top-level
// label is at least two alphabetic characters.
var addressPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

// anchoredPattern re-validates a complete candidate string against the
// same grammar.
var anchoredPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

// placeholderDomains are documentation and template domains that never
// identify a real mailbox.
var placeholderDomains = map[string]struct{}{
	"example.com":    {},
	"test.com":       {},
	"domain.com":     {},
	"yoursite.com":   {},
	"yourdomain.com": {},
	"email.com":      {},
	"localhost":      {},
}

// assetSuffixes catch address-shaped strings embedded in asset filenames,
// e.g. retina image names like logo@2x.png.
var assetSuffixes = []string{
	".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg", ".ico", ".css", ".js",
}

// Extractor parses fetched page content into deduplicated candidate
// addresses.
type Extractor struct {
	now func() time.Time
}

// New creates an extractor.
func New() *Extractor {
	return &Extractor{now: time.Now}
}

// Extract scans content and returns the unique plausible addresses found,
// sorted for deterministic output. Deduplication is case-insensitive on
// the full address; the domain part of surfaced addresses is lowercased.
// Malformed input simply yields no matches.
func (e *Extractor) Extract(content, sourceURL string) []domain.CandidateAddress {
	if content == "" {
		return nil
	}

	seen := make(map[string]struct{})
	var out []domain.CandidateAddress
	discoveredAt := e.now()

	for _, match := range addressPattern.FindAllString(content, -1) {
		addr := normalize(match)
		key := strings.ToLower(addr)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if isFalsePositive(key) {
			continue
		}

		out = append(out, domain.CandidateAddress{
			Address:      addr,
			SourceURL:    sourceURL,
			DiscoveredAt: discoveredAt,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// normalize lowercases the domain part, leaving the local part as found.
func normalize(address string) string {
	at := strings.LastIndex(address, "@")
	if at < 0 {
		return address
	}
	return address[:at+1] + strings.ToLower(address[at+1:])
}

// isFalsePositive reports whether a syntactically valid match is a known
// non-mailbox pattern. The input must already be lowercased.
func isFalsePositive(addr string) bool {
	dom := domain.AddressDomain(addr)

	if _, ok := placeholderDomains[dom]; ok {
		return true
	}
	for _, suffix := range assetSuffixes {
		if strings.HasSuffix(dom, suffix) {
			return true
		}
	}
	// Unattended sender addresses are syntactically real but never worth
	// contacting.
	if strings.HasPrefix(addr, "noreply@") || strings.HasPrefix(addr, "no-reply@") {
		return true
	}
	return false
}

// ValidAddress re-checks a complete address against the extraction
// grammar plus the RFC 5321 structural limits. The format stage uses it
// as defense in depth for bulk-imported input that never went through
// extraction.
func ValidAddress(address string) bool {
	if address == "" || len(address) > 254 {
		return false
	}
	if !anchoredPattern.MatchString(address) {
		return false
	}

	at := strings.LastIndex(address, "@")
	local, dom := address[:at], address[at+1:]

	if len(local) > 64 || len(dom) > 253 {
		return false
	}
	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") {
		return false
	}
	if strings.Contains(address, "..") {
		return false
	}
	if strings.HasPrefix(dom, ".") || strings.HasPrefix(dom, "-") {
		return false
	}
	return true
}
