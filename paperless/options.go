package paperless

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultTimeout is the transport-wide request timeout
	DefaultTimeout = 10 * time.Second
	// DefaultUserAgent is sent when no user agent is configured
	DefaultUserAgent = "paperctl"
	// DefaultHeaderName carries the token unless configured otherwise
	DefaultHeaderName = "Authorization"
	// DefaultTokenPrefix is used when a token is set and no prefix was configured
	DefaultTokenPrefix = "Token"
)

// Option configures a Transport or Client.
type Option func(*options)

// options holds configuration options for the Transport.
type options struct {
	token      string
	prefix     string
	prefixSet  bool
	headerName string
	timeout    time.Duration
	userAgent  string
	headers    http.Header
	httpClient *http.Client
	logger     zerolog.Logger
}

func defaultOptions() *options {
	return &options{
		headerName: DefaultHeaderName,
		timeout:    DefaultTimeout,
		userAgent:  DefaultUserAgent,
		headers:    make(http.Header),
		logger:     zerolog.Nop(),
	}
}

// WithToken sets the API token sent with every request.
func WithToken(token string) Option {
	return func(o *options) {
		o.token = token
	}
}

// WithTokenPrefix sets the scheme written before the token. An empty prefix
// sends the bare token.
func WithTokenPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
		o.prefixSet = true
	}
}

// WithHeaderName sets the header that carries the token.
func WithHeaderName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.headerName = name
		}
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithUserAgent sets a custom user agent string.
func WithUserAgent(userAgent string) Option {
	return func(o *options) {
		if userAgent != "" {
			o.userAgent = userAgent
		}
	}
}

// WithHeader adds a header to every request. Per-request headers still win.
func WithHeader(key, value string) Option {
	return func(o *options) {
		o.headers.Set(key, value)
	}
}

// WithHTTPClient replaces the underlying HTTP client. Its Timeout is left
// untouched.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// TokenOption configures SetToken.
type TokenOption func(*tokenOptions)

type tokenOptions struct {
	prefix    string
	prefixSet bool
}

// WithPrefix replaces the token prefix along with the token.
func WithPrefix(prefix string) TokenOption {
	return func(o *tokenOptions) {
		o.prefix = prefix
		o.prefixSet = true
	}
}

// WithoutPrefix removes the token prefix so the bare token is sent.
func WithoutPrefix() TokenOption {
	return WithPrefix("")
}
