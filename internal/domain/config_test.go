package domain

import (
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// Verify non-zero values
	if cfg.Concurrency == 0 {
		t.Error("Expected Concurrency to be non-zero")
	}
	if cfg.RequestTimeout == "" {
		t.Error("Expected RequestTimeout to be set")
	}
	if cfg.DNSResolver == "" {
		t.Error("Expected DNSResolver to be set")
	}
	if cfg.SMTPPort == 0 {
		t.Error("Expected SMTPPort to be non-zero")
	}
	if cfg.UserAgent == "" {
		t.Error("Expected UserAgent to be set")
	}

	// Verify expected defaults
	if cfg.MaxURLs != 50 {
		t.Errorf("Expected MaxURLs 50, got %d", cfg.MaxURLs)
	}
	if cfg.MaxAddresses != 1000 {
		t.Errorf("Expected MaxAddresses 1000, got %d", cfg.MaxAddresses)
	}
	if cfg.BatchSize != 50 {
		t.Errorf("Expected BatchSize 50, got %d", cfg.BatchSize)
	}
	if cfg.MaxContactPages != 3 {
		t.Errorf("Expected MaxContactPages 3, got %d", cfg.MaxContactPages)
	}
	if !cfg.SMTPEnabled {
		t.Error("Expected SMTP probing enabled by default")
	}
	if !cfg.RespectRobots {
		t.Error("Expected robots.txt compliance enabled by default")
	}
	if cfg.AllowPrivateIPs {
		t.Error("Expected private IPs blocked by default")
	}
	if cfg.UserAgent != "Mailsift/1.0" {
		t.Errorf("Expected UserAgent Mailsift/1.0, got %s", cfg.UserAgent)
	}
}
