package paperless

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	json "github.com/goccy/go-json"
)

// Common errors
var (
	// ErrInvalidConfig indicates invalid client configuration
	ErrInvalidConfig = errors.New("invalid paperless configuration")
	// ErrMissingPathParam indicates a URL template placeholder without a value
	ErrMissingPathParam = errors.New("missing path parameter")
	// ErrNilPathParam indicates a URL template placeholder bound to a nil value
	ErrNilPathParam = errors.New("nil path parameter")
	// ErrIteratorConsumed is yielded when a page iterator is ranged over a second time
	ErrIteratorConsumed = errors.New("paginated iterator already consumed")
)

const unknownErrorMessage = "unknown paperless API error"

// APIError is the normalized form of every failed request, whether the server
// answered with a non-2xx status or the request never completed.
type APIError struct {
	Message    string
	StatusCode int
	URL        string
	Method     string
	Body       []byte
	Data       any
	Header     http.Header
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("paperless API error: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("paperless API error: %s", e.Message)
}

// Unwrap returns the underlying cause
func (e *APIError) Unwrap() error {
	return e.Err
}

// IsNotFound checks if the error indicates a not found response
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsUnauthorized checks if the error indicates an authentication failure
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// responseError carries a non-2xx response out of the transport before it is
// normalized.
type responseError struct {
	method string
	url    string
	status int
	body   []byte
	header http.Header
}

func (e *responseError) Error() string {
	return fmt.Sprintf("request failed with status code %d", e.status)
}

// NormalizeError maps any failure of a request attempt to an *APIError. It
// never returns nil.
func NormalizeError(err error) *APIError {
	if err == nil {
		return &APIError{Message: unknownErrorMessage}
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var respErr *responseError
	if errors.As(err, &respErr) {
		data := decodeErrorBody(respErr.body)
		message := respErr.Error()
		// DRF puts a human readable reason under "detail"
		if m, ok := data.(map[string]any); ok {
			if detail, ok := m["detail"].(string); ok && detail != "" {
				message = detail
			}
		}
		return &APIError{
			Message:    message,
			StatusCode: respErr.status,
			URL:        respErr.url,
			Method:     strings.ToUpper(respErr.method),
			Body:       respErr.body,
			Data:       data,
			Header:     respErr.header,
			Err:        err,
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &APIError{
			Message: urlErr.Err.Error(),
			URL:     urlErr.URL,
			Method:  strings.ToUpper(urlErr.Op),
			Err:     err,
		}
	}

	return &APIError{Message: err.Error(), Err: err}
}

// decodeErrorBody returns the JSON value of body, or the body as a string when
// it is not JSON.
func decodeErrorBody(body []byte) any {
	if len(body) == 0 {
		return nil
	}
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return string(body)
	}
	return data
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is an API error with status 404.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsUnauthorized reports whether err is an API error with status 401 or 403.
func IsUnauthorized(err error) bool {
	code := StatusCode(err)
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

// PathError reports a URL template that could not be filled.
type PathError struct {
	Template string
	Param    string
	Err      error
}

func (e *PathError) Error() string {
	if errors.Is(e.Err, ErrNilPathParam) {
		return fmt.Sprintf("path parameter '%s' is nil", e.Param)
	}
	return fmt.Sprintf("missing path parameter: %s", e.Param)
}

func (e *PathError) Unwrap() error {
	return e.Err
}
