package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingBaseURL is returned when neither the environment nor the defaults
// name a Paperless instance
var ErrMissingBaseURL = errors.New("paperless base URL is required: set PAPERLESS_BASE_URL or provide a base URL")

// EnvOptions controls how the environment is read
type EnvOptions struct {
	// DotEnv loads .env style files first. Variables already set win.
	DotEnv bool
	// Files defaults to .env in the working directory
	Files []string
}

// bindEnv maps the PAPERLESS_* variables onto paperless.* keys. When a key
// has several names the first non-empty one wins.
func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("paperless.url", "PAPERLESS_BASE_URL", "PAPERLESS_URL")
	_ = v.BindEnv("paperless.token", "PAPERLESS_TOKEN", "PAPERLESS_API_TOKEN")
	_ = v.BindEnv("paperless.token_prefix", "PAPERLESS_TOKEN_PREFIX")
	_ = v.BindEnv("paperless.header_name", "PAPERLESS_AUTH_HEADER")
	_ = v.BindEnv("paperless.timeout", "PAPERLESS_TIMEOUT")
	_ = v.BindEnv("paperless.user_agent", "PAPERLESS_USER_AGENT")
}

func loadDotEnv(files []string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("error loading %s: %w", file, err)
		}
	}
	return nil
}

// LoadEnv reads the Paperless connection settings from the environment.
// Unset variables leave their fields empty.
func LoadEnv(opts EnvOptions) (*PaperlessConfig, error) {
	if opts.DotEnv {
		if err := loadDotEnv(opts.Files); err != nil {
			return nil, err
		}
	}

	v := viper.New()
	bindEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error reading environment: %w", err)
	}
	return &cfg.Paperless, nil
}

// FromEnv merges the environment over defaults. It fails with
// ErrMissingBaseURL when neither supplies a base URL.
func FromEnv(defaults PaperlessConfig, opts EnvOptions) (*PaperlessConfig, error) {
	env, err := LoadEnv(opts)
	if err != nil {
		return nil, err
	}

	cfg := defaults
	cfg.merge(env)
	if cfg.URL == "" {
		return nil, ErrMissingBaseURL
	}
	return &cfg, nil
}

// merge copies every field set in other over c
func (c *PaperlessConfig) merge(other *PaperlessConfig) {
	if other.URL != "" {
		c.URL = other.URL
	}
	if other.Token != "" {
		c.Token = other.Token
	}
	if other.TokenPrefix != nil {
		prefix := *other.TokenPrefix
		c.TokenPrefix = &prefix
	}
	if other.HeaderName != "" {
		c.HeaderName = other.HeaderName
	}
	if other.Timeout > 0 {
		c.Timeout = other.Timeout
	}
	if other.UserAgent != "" {
		c.UserAgent = other.UserAgent
	}
}
