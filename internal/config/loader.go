// Package config handles loading and saving configuration files for the
// email discovery and validation tool.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/vnykmshr/mailsift/internal/domain"
)

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default} syntax
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// Loader handles loading configuration from various sources
type Loader struct{}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadFromFile loads configuration from a JSON file.
// Supports environment variable substitution using ${VAR_NAME} syntax.
// Optional default values can be specified with ${VAR_NAME:-default}.
func (l *Loader) LoadFromFile(path string) (*domain.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w\nCheck if file exists and has read permissions", path, err)
	}

	// Substitute environment variables before parsing JSON
	expandedData, err := substituteEnvVars(string(data))
	if err != nil {
		return nil, fmt.Errorf("environment variable substitution failed: %w", err)
	}

	var config domain.Config
	err = json.Unmarshal([]byte(expandedData), &config)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON in config file: %w\nVerify JSON syntax at %s", err, path)
	}

	return &config, nil
}

// substituteEnvVars replaces ${VAR_NAME} patterns with environment variable values.
// Supports ${VAR_NAME:-default} syntax for default values when env var is not set.
// Returns an error if a required env var (no default) is not set.
// Note: ${VAR:-} with empty default is valid and means "use empty string if VAR is unset".
func substituteEnvVars(content string) (string, error) {
	var missingVars []string

	result := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		// Check if default syntax was used by looking for :- in the match
		// This properly handles ${VAR:-} where default is empty string
		hasDefault := strings.Contains(match, ":-")
		defaultValue := ""
		if hasDefault && len(submatches) > 2 {
			defaultValue = submatches[2]
		}

		// Use LookupEnv to distinguish between unset and empty env vars
		value, isSet := os.LookupEnv(varName)
		if !isSet {
			if hasDefault {
				return defaultValue
			}
			missingVars = append(missingVars, varName)
			return match // Keep original placeholder for error reporting
		}
		return value
	})

	if len(missingVars) > 0 {
		return "", fmt.Errorf("missing required environment variables: %v\nSet these variables or provide defaults using ${VAR:-default} syntax", missingVars)
	}

	return result, nil
}

// SaveToFile saves configuration to a JSON file
func (l *Loader) SaveToFile(config *domain.Config, path string) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	err = os.WriteFile(path, data, 0o600)
	if err != nil {
		return fmt.Errorf("cannot write config file %s: %w\nCheck directory exists and has write permissions", path, err)
	}

	return nil
}

// MergeWithDefaults merges provided config with defaults
func (l *Loader) MergeWithDefaults(config *domain.Config) *domain.Config {
	defaults := domain.DefaultConfig()

	if config.Concurrency == 0 {
		config.Concurrency = defaults.Concurrency
	}
	if config.RequestTimeout == "" {
		config.RequestTimeout = defaults.RequestTimeout
	}
	if config.DNSTimeout == "" {
		config.DNSTimeout = defaults.DNSTimeout
	}
	if config.DNSResolver == "" {
		config.DNSResolver = defaults.DNSResolver
	}
	if config.SMTPTimeout == "" {
		config.SMTPTimeout = defaults.SMTPTimeout
	}
	if config.SMTPPort == 0 {
		config.SMTPPort = defaults.SMTPPort
	}
	if config.SMTPHeloDomain == "" {
		config.SMTPHeloDomain = defaults.SMTPHeloDomain
	}
	if config.SMTPProbeFrom == "" {
		config.SMTPProbeFrom = defaults.SMTPProbeFrom
	}
	if config.HostInterval == "" {
		config.HostInterval = defaults.HostInterval
	}
	if config.BulkRate == 0 {
		config.BulkRate = defaults.BulkRate
	}
	if config.MaxContactPages == 0 {
		config.MaxContactPages = defaults.MaxContactPages
	}
	if config.MaxURLs == 0 {
		config.MaxURLs = defaults.MaxURLs
	}
	if config.MaxAddresses == 0 {
		config.MaxAddresses = defaults.MaxAddresses
	}
	if config.BatchSize == 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.UserAgent == "" {
		config.UserAgent = defaults.UserAgent
	}

	return config
}

// ParseCrawl converts the string-typed config into the crawler's parsed
// form, validating duration syntax.
func ParseCrawl(config *domain.Config) (domain.CrawlConfig, error) {
	requestTimeout, err := parseDuration("request_timeout", config.RequestTimeout)
	if err != nil {
		return domain.CrawlConfig{}, err
	}
	hostInterval, err := parseDuration("host_interval", config.HostInterval)
	if err != nil {
		return domain.CrawlConfig{}, err
	}

	return domain.CrawlConfig{
		RequestTimeout:  requestTimeout,
		HostInterval:    hostInterval,
		MaxContactPages: config.MaxContactPages,
		UserAgent:       config.UserAgent,
		RespectRobots:   config.RespectRobots,
		AllowPrivateIPs: config.AllowPrivateIPs,
	}, nil
}

// ParsePipeline converts the string-typed config into the pipeline's
// parsed form, validating duration syntax.
func ParsePipeline(config *domain.Config) (domain.PipelineConfig, error) {
	dnsTimeout, err := parseDuration("dns_timeout", config.DNSTimeout)
	if err != nil {
		return domain.PipelineConfig{}, err
	}
	smtpTimeout, err := parseDuration("smtp_timeout", config.SMTPTimeout)
	if err != nil {
		return domain.PipelineConfig{}, err
	}

	return domain.PipelineConfig{
		DNSTimeout:     dnsTimeout,
		DNSResolver:    config.DNSResolver,
		SMTPTimeout:    smtpTimeout,
		SMTPPort:       config.SMTPPort,
		SMTPEnabled:    config.SMTPEnabled,
		SMTPHeloDomain: config.SMTPHeloDomain,
		SMTPProbeFrom:  config.SMTPProbeFrom,
	}, nil
}

func parseDuration(field, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, value, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", field, value)
	}
	return d, nil
}
