package util

import (
	"regexp"
	"strings"
)

// ipv4Pattern matches IPv4 addresses with an optional port.
var ipv4Pattern = regexp.MustCompile(`\b(\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})(:\d+)?\b`)

// ipv6Pattern matches bracketed IPv6 addresses with an optional port.
var ipv6Pattern = regexp.MustCompile(`\[([0-9a-fA-F:]+)\](:\d+)?`)

// pathPattern matches file paths deep enough to reveal internal layout.
var pathPattern = regexp.MustCompile(`(/[a-zA-Z0-9._-]+){3,}`)

// SanitizeDetail redacts IP addresses and deep file paths from a failure
// detail before it is recorded into result records. Details end up in
// exports and stored snapshots, so they must not leak resolver addresses
// or local paths.
func SanitizeDetail(detail string) string {
	if detail == "" {
		return ""
	}

	result := ipv4Pattern.ReplaceAllStringFunc(detail, func(match string) string {
		if idx := strings.LastIndex(match, ":"); idx != -1 {
			return "[IP]" + match[idx:]
		}
		return "[IP]"
	})

	result = ipv6Pattern.ReplaceAllStringFunc(result, func(match string) string {
		if idx := strings.LastIndex(match, "]:"); idx != -1 {
			return "[IPv6]:" + match[idx+2:]
		}
		return "[IPv6]"
	})

	return pathPattern.ReplaceAllString(result, "[path]")
}
