package paperless

import (
	"bytes"
	"context"
	"iter"
	"net/http"
	"sync/atomic"

	json "github.com/goccy/go-json"
)

// Page is the envelope returned by every Paperless list endpoint.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
	// All holds every matching id; only some endpoints send it
	All []int `json:"all,omitempty"`
}

type pageEnvelope[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
	All      []int   `json:"all,omitempty"`
}

// UnmarshalJSON accepts the envelope as well as a bare JSON array, which
// older servers return for some sub-resources.
func (p *Page[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		*p = Page[T]{Count: len(items), Results: items}
		return nil
	}

	var env pageEnvelope[T]
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return err
	}
	*p = Page[T](env)
	return nil
}

// HasNext checks if there is a following page
func (p *Page[T]) HasNext() bool {
	return p.Next != nil && *p.Next != ""
}

// Iterate lazily yields the items of a paginated endpoint, page by page. Only
// one page is requested at a time and the next one only once every item of
// the current page has been consumed. The first error is yielded and ends the
// sequence. The sequence is single-pass: ranging over it again yields
// ErrIteratorConsumed.
//
// Follow-up requests go to the server's next URL as-is; the original Params
// and BaseURL are dropped. A server that never stops sending next loops
// forever.
func Iterate[T any](ctx context.Context, t *Transport, req Request) iter.Seq2[T, error] {
	var used atomic.Bool
	return func(yield func(T, error) bool) {
		var zero T
		if used.Swap(true) {
			yield(zero, ErrIteratorConsumed)
			return
		}

		current := req
		for page := 1; ; page++ {
			var p Page[T]
			if err := t.Request(ctx, current, &p); err != nil {
				yield(zero, err)
				return
			}

			t.logger.Debug().
				Int("page", page).
				Int("count", len(p.Results)).
				Int("total", p.Count).
				Msg("Retrieved page from Paperless")

			for _, item := range p.Results {
				if !yield(item, nil) {
					return
				}
			}

			if !p.HasNext() {
				return
			}
			current = Request{
				Method: req.Method,
				URL:    *p.Next,
				Header: req.Header,
			}
		}
	}
}

// ListAll collects every item of a paginated endpoint, in server order.
func ListAll[T any](ctx context.Context, t *Transport, req Request) ([]T, error) {
	items := make([]T, 0)
	for item, err := range Iterate[T](ctx, t, req) {
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func listRequest(path string, query any) Request {
	return Request{Method: http.MethodGet, URL: path, Params: query}
}
