package domain

import "time"

// Config represents the complete tool configuration as loaded from file,
// environment and flags. Duration fields are strings so the JSON form
// stays human-editable ("2s", "500ms"); parsed copies live in the
// component configs below.
type Config struct {
	Concurrency     int     `json:"concurrency"`
	RequestTimeout  string  `json:"request_timeout"`
	DNSTimeout      string  `json:"dns_timeout"`
	DNSResolver     string  `json:"dns_resolver"`
	SMTPTimeout     string  `json:"smtp_timeout"`
	SMTPPort        int     `json:"smtp_port"`
	SMTPEnabled     bool    `json:"smtp_enabled"`
	SMTPHeloDomain  string  `json:"smtp_helo_domain"`
	SMTPProbeFrom   string  `json:"smtp_probe_from"`
	HostInterval    string  `json:"host_interval"`
	BulkRate        float64 `json:"bulk_rate"`
	MaxContactPages int     `json:"max_contact_pages"`
	MaxURLs         int     `json:"max_urls"`
	MaxAddresses    int     `json:"max_addresses"`
	BatchSize       int     `json:"batch_size"`
	UserAgent       string  `json:"user_agent"`
	RespectRobots   bool    `json:"respect_robots"`
	AllowPrivateIPs bool    `json:"allow_private_ips"`
	DatabasePath    string  `json:"database_path"`
	OutputFile      string  `json:"output_file"`
	Verbose         bool    `json:"verbose"`
}

// CrawlConfig is the parsed configuration consumed by the site crawler.
type CrawlConfig struct {
	RequestTimeout  time.Duration
	HostInterval    time.Duration
	MaxContactPages int
	UserAgent       string
	RespectRobots   bool
	AllowPrivateIPs bool
}

// PipelineConfig is the parsed configuration consumed by the validation
// pipeline.
type PipelineConfig struct {
	DNSTimeout     time.Duration
	DNSResolver    string
	SMTPTimeout    time.Duration
	SMTPPort       int
	SMTPEnabled    bool
	SMTPHeloDomain string
	SMTPProbeFrom  string
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Concurrency:     4,
		RequestTimeout:  "10s",
		DNSTimeout:      "5s",
		DNSResolver:     "8.8.8.8:53",
		SMTPTimeout:     "10s",
		SMTPPort:        25,
		SMTPEnabled:     true,
		SMTPHeloDomain:  "mailsift.local",
		SMTPProbeFrom:   "probe@mailsift.local",
		HostInterval:    "2s",
		BulkRate:        5.0,
		MaxContactPages: 3,
		MaxURLs:         50,
		MaxAddresses:    1000,
		BatchSize:       50,
		UserAgent:       "Mailsift/1.0",
		RespectRobots:   true,
		AllowPrivateIPs: false,
		DatabasePath:    "",
		OutputFile:      "",
		Verbose:         false,
	}
}
