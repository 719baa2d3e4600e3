package util

import (
	"strings"
	"testing"
)

func TestNormalizeSeedURL_Valid(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"https passthrough", "https://acme.io/contact", "https://acme.io/contact"},
		{"http passthrough", "http://acme.io", "http://acme.io"},
		{"scheme added", "acme.io", "https://acme.io"},
		{"scheme added with path", "acme.io/about", "https://acme.io/about"},
		{"fragment stripped", "https://acme.io/page#team", "https://acme.io/page"},
		{"whitespace trimmed", "  https://acme.io  ", "https://acme.io"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeSeedURL(tt.in, false)
			if err != nil {
				t.Fatalf("NormalizeSeedURL(%q) returned error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeSeedURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeSeedURL_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		reason string
	}{
		{"empty", "", "empty"},
		{"bad scheme", "ftp://acme.io", "unsupported scheme"},
		{"missing host", "https://", "missing host"},
		{"localhost blocked", "http://localhost:3000", "localhost"},
		{"loopback blocked", "http://127.0.0.1", "private IP"},
		{"private range blocked", "http://192.168.1.10", "private IP"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeSeedURL(tt.in, false)
			if err == nil {
				t.Fatalf("NormalizeSeedURL(%q) expected error", tt.in)
			}
			if !strings.Contains(err.Error(), tt.reason) {
				t.Errorf("Error %q does not mention %q", err.Error(), tt.reason)
			}
		})
	}
}

func TestNormalizeSeedURL_AllowPrivateIPs(t *testing.T) {
	got, err := NormalizeSeedURL("http://192.168.1.10:8080", true)
	if err != nil {
		t.Fatalf("Expected private IP to be allowed, got error: %v", err)
	}
	if got != "http://192.168.1.10:8080" {
		t.Errorf("Unexpected normalized URL: %q", got)
	}
}

func TestSanitizeDetail(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain message", "connection refused", "connection refused"},
		{"ipv4 redacted", "dial tcp 10.0.0.5: connection refused", "dial tcp [IP]: connection refused"},
		{"ipv4 with port", "dial tcp 10.0.0.5:25: timeout", "dial tcp [IP]:25: timeout"},
		{"deep path redacted", "open /etc/mailsift/secrets/config.json failed", "open [path] failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeDetail(tt.in); got != tt.want {
				t.Errorf("SanitizeDetail(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
