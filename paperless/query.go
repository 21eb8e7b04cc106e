package paperless

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strings"

	"github.com/google/go-querystring/query"
	"github.com/spf13/cast"
)

// EncodeQuery serializes request parameters into a query string.
//
// params may be url.Values, map[string]string, map[string]any, or a struct
// (or pointer to one) with `url` tags. Keys are sorted. A key with several
// values, or a slice value, is written once with its values joined by commas
// (id__in=1,2,3). Nil values and nil pointers are left out.
func EncodeQuery(params any) (string, error) {
	values, err := queryValues(params)
	if err != nil {
		return "", err
	}
	if len(values) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		vs := values[k]
		if len(vs) == 0 {
			continue
		}
		escaped := make([]string, len(vs))
		for i, v := range vs {
			escaped[i] = url.QueryEscape(v)
		}
		if sb.Len() > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(k))
		sb.WriteByte('=')
		sb.WriteString(strings.Join(escaped, ","))
	}
	return sb.String(), nil
}

func queryValues(params any) (url.Values, error) {
	switch p := params.(type) {
	case nil:
		return nil, nil
	case url.Values:
		return p, nil
	case map[string]string:
		values := make(url.Values, len(p))
		for k, v := range p {
			values.Set(k, v)
		}
		return values, nil
	case map[string]any:
		values := make(url.Values, len(p))
		for k, v := range p {
			if err := addQueryValue(values, k, v); err != nil {
				return nil, err
			}
		}
		return values, nil
	}

	rv := reflect.ValueOf(params)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil, nil
	}
	values, err := query.Values(params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode query parameters: %w", err)
	}
	return values, nil
}

func addQueryValue(values url.Values, key string, v any) error {
	if isNil(v) {
		return nil
	}
	v = indirect(v)

	rv := reflect.ValueOf(v)
	if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Type().Elem().Kind() != reflect.Uint8 {
		for i := range rv.Len() {
			elem := rv.Index(i).Interface()
			if isNil(elem) {
				continue
			}
			s, err := cast.ToStringE(indirect(elem))
			if err != nil {
				return fmt.Errorf("query parameter %s: %w", key, err)
			}
			values.Add(key, s)
		}
		return nil
	}

	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Errorf("query parameter %s: %w", key, err)
	}
	values.Add(key, s)
	return nil
}
