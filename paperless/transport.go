package paperless

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/rs/zerolog"
)

// Request describes one call made through the Transport.
type Request struct {
	// Method defaults to GET
	Method string
	// URL is either relative to the base URL or absolute
	URL string
	// Params is serialized with EncodeQuery
	Params any
	// Body is JSON encoded unless it is an io.Reader or []byte
	Body   any
	Header http.Header
	// BaseURL overrides the transport's base URL for this request
	BaseURL string
}

// RequestOption adjusts a Request built by the verb helpers.
type RequestOption func(*Request)

// WithParams sets the query parameters of a request.
func WithParams(params any) RequestOption {
	return func(r *Request) {
		r.Params = params
	}
}

// WithRequestHeader sets a header on a single request. It takes precedence
// over default headers and the injected token.
func WithRequestHeader(key, value string) RequestOption {
	return func(r *Request) {
		if r.Header == nil {
			r.Header = make(http.Header)
		}
		r.Header.Set(key, value)
	}
}

// WithBaseURL resolves a single request against a different base URL.
func WithBaseURL(baseURL string) RequestOption {
	return func(r *Request) {
		r.BaseURL = baseURL
	}
}

// Transport is the single HTTP choke point shared by every resource. It
// injects the token, encodes queries and normalizes failures.
type Transport struct {
	baseURL    string
	httpClient *http.Client
	headerName string
	headers    http.Header
	logger     zerolog.Logger

	mu        sync.RWMutex
	token     string
	prefix    string
	prefixSet bool
}

// NewTransport creates a Transport for the Paperless instance at baseURL.
func NewTransport(baseURL string, opts ...Option) (*Transport, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("%w: base URL is required", ErrInvalidConfig)
	}
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("%w: invalid base URL %q", ErrInvalidConfig, baseURL)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = cleanhttp.DefaultPooledClient()
		httpClient.Timeout = o.timeout
	}

	headers := http.Header{
		"Accept":     {"application/json"},
		"User-Agent": {o.userAgent},
	}
	for k, vs := range o.headers {
		headers[k] = slices.Clone(vs)
	}

	return &Transport{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		headerName: o.headerName,
		headers:    headers,
		logger:     o.logger,
		token:      o.token,
		prefix:     o.prefix,
		prefixSet:  o.prefixSet,
	}, nil
}

// BaseURL returns the base URL requests are resolved against
func (t *Transport) BaseURL() string {
	return t.baseURL
}

// SetToken replaces the active token. An empty token disables auth. The
// prefix only changes when WithPrefix or WithoutPrefix is passed.
func (t *Transport) SetToken(token string, opts ...TokenOption) {
	var o tokenOptions
	for _, opt := range opts {
		opt(&o)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.token = token
	if o.prefixSet {
		t.prefix = o.prefix
		t.prefixSet = true
	}
}

// ClearToken removes the active token so later requests carry no auth header.
func (t *Transport) ClearToken() {
	t.mu.Lock()
	t.token = ""
	t.mu.Unlock()
}

// authValue returns the auth header value for the current token.
func (t *Transport) authValue() (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.token == "" {
		return "", false
	}
	prefix := t.prefix
	if !t.prefixSet {
		prefix = DefaultTokenPrefix
	}
	if prefix == "" {
		return t.token, true
	}
	return prefix + " " + t.token, true
}

// Request performs one call and decodes the response body into out. out may
// be nil to discard the body or *[]byte to receive it raw. Failures are
// returned as *APIError.
func (t *Transport) Request(ctx context.Context, req Request, out any) error {
	resp, err := t.Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := decodeResponse(resp.Body, out); err != nil {
		return &APIError{
			Message:    fmt.Sprintf("failed to decode response: %v", err),
			StatusCode: resp.StatusCode,
			URL:        resp.Request.URL.String(),
			Method:     resp.Request.Method,
			Header:     resp.Header,
			Err:        err,
		}
	}
	return nil
}

// Do performs one call and returns the open response on 2xx. The caller must
// close the body. Failures are returned as *APIError.
func (t *Transport) Do(ctx context.Context, req Request) (*http.Response, error) {
	resp, err := t.do(ctx, req)
	if err != nil {
		return nil, NormalizeError(err)
	}
	return resp, nil
}

func (t *Transport) do(ctx context.Context, req Request) (*http.Response, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	target, err := t.resolveURL(req)
	if err != nil {
		return nil, err
	}

	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for k, vs := range t.headers {
		httpReq.Header[k] = slices.Clone(vs)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	for k, vs := range req.Header {
		httpReq.Header[http.CanonicalHeaderKey(k)] = slices.Clone(vs)
	}
	if value, ok := t.authValue(); ok && httpReq.Header.Get(t.headerName) == "" {
		httpReq.Header.Set(t.headerName, value)
	}

	start := time.Now()
	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		t.logger.Debug().
			Err(err).
			Str("method", method).
			Str("url", target).
			Msg("Paperless API request failed")
		return nil, err
	}

	t.logger.Debug().
		Str("method", method).
		Str("url", target).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Paperless API request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		return nil, &responseError{
			method: method,
			url:    target,
			status: resp.StatusCode,
			body:   data,
			header: resp.Header,
		}
	}

	return resp, nil
}

var absoluteURLPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z\d+\-.]*://`)

// resolveURL joins the request URL to the base URL and appends the query.
func (t *Transport) resolveURL(req Request) (string, error) {
	target := req.URL
	if !absoluteURLPattern.MatchString(target) {
		base := t.baseURL
		if req.BaseURL != "" {
			base = strings.TrimRight(req.BaseURL, "/")
		}
		target = base + "/" + strings.TrimLeft(target, "/")
	}

	q, err := EncodeQuery(req.Params)
	if err != nil {
		return "", err
	}
	if q != "" {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + q
	}
	return target, nil
}

func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case io.Reader:
		return b, "", nil
	case []byte:
		return bytes.NewReader(b), "", nil
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal request body: %w", err)
	}
	return bytes.NewReader(data), "application/json", nil
}

func decodeResponse(body io.Reader, out any) error {
	if out == nil {
		_, err := io.Copy(io.Discard, body)
		return err
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if raw, ok := out.(*[]byte); ok {
		*raw = data
		return nil
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}

// Get performs a GET request.
func (t *Transport) Get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return t.Request(ctx, newRequest(http.MethodGet, path, nil, opts), out)
}

// Post performs a POST request.
func (t *Transport) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return t.Request(ctx, newRequest(http.MethodPost, path, body, opts), out)
}

// Put performs a PUT request.
func (t *Transport) Put(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return t.Request(ctx, newRequest(http.MethodPut, path, body, opts), out)
}

// Patch performs a PATCH request.
func (t *Transport) Patch(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return t.Request(ctx, newRequest(http.MethodPatch, path, body, opts), out)
}

// Delete performs a DELETE request.
func (t *Transport) Delete(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return t.Request(ctx, newRequest(http.MethodDelete, path, nil, opts), out)
}

func newRequest(method, path string, body any, opts []RequestOption) Request {
	req := Request{Method: method, URL: path, Body: body}
	for _, opt := range opts {
		opt(&req)
	}
	return req
}
