package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	Paperless PaperlessConfig `mapstructure:"paperless"`
	Output    OutputConfig    `mapstructure:"output"`
	Filter    FilterConfig    `mapstructure:"filter"`
	Safety    SafetyConfig    `mapstructure:"safety"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// PaperlessConfig holds Paperless API connection details
type PaperlessConfig struct {
	URL   string `mapstructure:"url"`
	Token string `mapstructure:"token"`
	// TokenPrefix is nil when not configured, so the client default applies
	TokenPrefix *string       `mapstructure:"token_prefix"`
	HeaderName  string        `mapstructure:"header_name"`
	Timeout     time.Duration `mapstructure:"timeout"`
	UserAgent   string        `mapstructure:"user_agent"`
}

// OutputConfig controls how command results are printed
type OutputConfig struct {
	Format string `mapstructure:"format"`
}

// FilterConfig maps preset names to document filter expressions
type FilterConfig map[string]string

// SafetyConfig contains safety-related settings
type SafetyConfig struct {
	ConfirmDelete bool `mapstructure:"confirm_delete"`
	Concurrency   int  `mapstructure:"concurrency"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
