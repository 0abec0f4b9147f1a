package config

import (
	"encoding/json"
)

// ConfigSanitizer sanitizes sensitive configuration data
type ConfigSanitizer interface {
	// Sanitize removes or redacts sensitive fields
	Sanitize(cfg *Config) *Config
}

// DefaultConfigSanitizer implements ConfigSanitizer
type DefaultConfigSanitizer struct {
	redactionValue string // Value to use for redacted fields
}

// NewDefaultConfigSanitizer creates a new DefaultConfigSanitizer
func NewDefaultConfigSanitizer() ConfigSanitizer {
	return &DefaultConfigSanitizer{
		redactionValue: "***REDACTED***",
	}
}

// NewConfigSanitizer creates a ConfigSanitizer with custom redaction value
func NewConfigSanitizer(redactionValue string) ConfigSanitizer {
	return &DefaultConfigSanitizer{
		redactionValue: redactionValue,
	}
}

// Sanitize removes or redacts sensitive fields from configuration
func (s *DefaultConfigSanitizer) Sanitize(cfg *Config) *Config {
	// Deep copy config to avoid mutating original
	sanitized := s.deepCopy(cfg)

	// Redact database password
	sanitized.Database.Password = s.redactionValue

	// Redact Redis password
	sanitized.Redis.Password = s.redactionValue

	// Redact message broker URL, which may embed credentials
	sanitized.MessageBroker.URL = s.sanitizeURL(sanitized.MessageBroker.URL)

	// Redact database URL, which may embed credentials
	sanitized.Database.URL = s.sanitizeURL(sanitized.Database.URL)

	return sanitized
}

// deepCopy creates a deep copy of Config using JSON serialization
func (s *DefaultConfigSanitizer) deepCopy(cfg *Config) *Config {
	// Use JSON serialization for deep copy
	configJSON, err := json.Marshal(cfg)
	if err != nil {
		// Fallback: return original (should not happen with valid config)
		return cfg
	}

	var configCopy Config
	if err := json.Unmarshal(configJSON, &configCopy); err != nil {
		// Fallback: return original
		return cfg
	}

	return &configCopy
}

// sanitizeURL replaces a whole connection URL (database or message broker)
// with the redaction value. An empty URL is returned unchanged; any
// non-empty URL is redacted, whether or not it carries credentials, since
// the URL is not parsed.
func (s *DefaultConfigSanitizer) sanitizeURL(url string) string {
	if url == "" {
		return url
	}

	if len(url) > 0 {
		return s.redactionValue
	}

	return url
}
