// Package util provides URL checking and error-detail helpers shared by
// the crawler and batch coordinator.
package util

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// SeedURLError represents a seed URL that cannot be crawled.
type SeedURLError struct {
	URL    string
	Reason string
}

func (e *SeedURLError) Error() string {
	return fmt.Sprintf("invalid seed URL %q: %s", e.URL, e.Reason)
}

// NormalizeSeedURL validates a user-supplied seed URL and returns a
// canonical form. A missing scheme defaults to https. It checks:
// - valid URL syntax
// - http or https scheme only
// - non-empty host
// - optional: blocks private/localhost targets unless allowPrivateIPs is set
func NormalizeSeedURL(rawURL string, allowPrivateIPs bool) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", &SeedURLError{URL: rawURL, Reason: "URL cannot be empty"}
	}

	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", &SeedURLError{URL: rawURL, Reason: fmt.Sprintf("invalid URL syntax: %v", err)}
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", &SeedURLError{
			URL:    rawURL,
			Reason: fmt.Sprintf("unsupported scheme %q (only http and https allowed)", parsed.Scheme),
		}
	}

	hostname := parsed.Hostname()
	if hostname == "" {
		return "", &SeedURLError{URL: rawURL, Reason: "missing host"}
	}

	if !allowPrivateIPs {
		if err := checkNotPrivate(hostname); err != nil {
			return "", &SeedURLError{URL: rawURL, Reason: err.Error()}
		}
	}

	parsed.Fragment = ""
	return parsed.String(), nil
}

// checkNotPrivate rejects localhost names and literal private IPs.
// Hostnames that merely resolve to private IPs are allowed through here;
// the fetch itself will fail if the host is unreachable.
func checkNotPrivate(hostname string) error {
	lower := strings.ToLower(hostname)
	if lower == "localhost" || lower == "localhost.localdomain" {
		return fmt.Errorf("localhost is blocked (enable allow_private_ips for internal use)")
	}

	ip := net.ParseIP(hostname)
	if ip == nil {
		return nil
	}
	if isPrivateIP(ip) {
		return fmt.Errorf("private IP %s is blocked (enable allow_private_ips for internal use)", ip)
	}
	return nil
}

// isPrivateIP checks if an IP is private, loopback, or otherwise not routable.
func isPrivateIP(ip net.IP) bool {
	if ip == nil {
		return false
	}
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() {
		return true
	}
	if ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return true
	}
	if ip4 := ip.To4(); ip4 != nil {
		// Carrier-grade NAT (100.64.0.0/10).
		if ip4[0] == 100 && ip4[1] >= 64 && ip4[1] <= 127 {
			return true
		}
		// Multicast and reserved (224.0.0.0/4, 240.0.0.0/4).
		if ip4[0] >= 224 {
			return true
		}
	}
	return false
}
