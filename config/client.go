package config

import (
	"github.com/rs/zerolog"

	"github.com/s0up4200/paperctl/paperless"
)

// ClientOptions converts the connection settings into client options
func (c *PaperlessConfig) ClientOptions(logger zerolog.Logger) []paperless.Option {
	opts := []paperless.Option{
		paperless.WithLogger(logger),
	}
	if c.Token != "" {
		opts = append(opts, paperless.WithToken(c.Token))
	}
	if c.TokenPrefix != nil {
		opts = append(opts, paperless.WithTokenPrefix(*c.TokenPrefix))
	}
	if c.HeaderName != "" {
		opts = append(opts, paperless.WithHeaderName(c.HeaderName))
	}
	if c.Timeout > 0 {
		opts = append(opts, paperless.WithTimeout(c.Timeout))
	}
	if c.UserAgent != "" {
		opts = append(opts, paperless.WithUserAgent(c.UserAgent))
	}
	return opts
}

// NewClient creates a Paperless client from the connection settings
func (c *PaperlessConfig) NewClient(logger zerolog.Logger) (*paperless.Client, error) {
	return paperless.NewClient(c.URL, c.ClientOptions(logger)...)
}
