package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load loads the configuration from file and the environment. A .env file in
// the working directory is read first. An explicit configPath must exist;
// otherwise the standard locations are searched and a missing file is not an
// error.
func Load(configPath string) (*Config, error) {
	if err := loadDotEnv(nil); err != nil {
		return nil, err
	}

	v := viper.New()

	// Set default values
	setDefaults(v)
	bindEnv(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".paperctl"))
		}

		// Check /etc
		v.AddConfigPath("/etc/paperctl/")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configPath != "" {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Paperless defaults
	v.SetDefault("paperless.timeout", "10s")
	v.SetDefault("paperless.user_agent", "paperctl")

	// Output defaults
	v.SetDefault("output.format", "table")

	// Safety defaults
	v.SetDefault("safety.confirm_delete", true)
	v.SetDefault("safety.concurrency", 4)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.Paperless.URL == "" {
		return ErrMissingBaseURL
	}
	if u, err := url.Parse(cfg.Paperless.URL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid paperless.url: %s", cfg.Paperless.URL)
	}
	if cfg.Paperless.Timeout < 0 {
		return fmt.Errorf("paperless.timeout must not be negative")
	}

	// Validate logging level
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	if err := ValidateOutputFormat(cfg.Output.Format); err != nil {
		return err
	}

	if cfg.Safety.Concurrency < 1 {
		return fmt.Errorf("safety.concurrency must be at least 1")
	}

	for name, expr := range cfg.Filter {
		if strings.TrimSpace(expr) == "" {
			return fmt.Errorf("filter preset %s has an empty expression", name)
		}
	}

	return nil
}

// ValidateOutputFormat checks an output format name
func ValidateOutputFormat(format string) error {
	switch format {
	case "table", "json", "yaml":
		return nil
	default:
		return fmt.Errorf("invalid output format: %s (must be table, json or yaml)", format)
	}
}
