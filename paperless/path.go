package paperless

import (
	"net/url"
	"reflect"
	"regexp"

	"github.com/spf13/cast"
)

// PathParams maps URL template placeholder names to scalar values.
type PathParams map[string]any

var placeholderPattern = regexp.MustCompile(`\{(\w+)\}`)

// BuildPath replaces every {name} placeholder in template with the
// percent-encoded string form of params[name].
//
//	BuildPath("/api/tags/{name}/", PathParams{"name": "foo/bar"}) // "/api/tags/foo%2Fbar/"
//
// A placeholder without a matching key fails with ErrMissingPathParam, one
// bound to nil with ErrNilPathParam. Nothing is substituted on failure.
func BuildPath(template string, params PathParams) (string, error) {
	if params == nil {
		if m := placeholderPattern.FindStringSubmatch(template); m != nil {
			return "", &PathError{Template: template, Param: m[1], Err: ErrMissingPathParam}
		}
		return template, nil
	}

	var firstErr error
	result := placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		if firstErr != nil {
			return match
		}
		key := match[1 : len(match)-1]
		value, ok := params[key]
		if !ok {
			firstErr = &PathError{Template: template, Param: key, Err: ErrMissingPathParam}
			return match
		}
		if isNil(value) {
			firstErr = &PathError{Template: template, Param: key, Err: ErrNilPathParam}
			return match
		}
		s, err := cast.ToStringE(indirect(value))
		if err != nil {
			firstErr = &PathError{Template: template, Param: key, Err: err}
			return match
		}
		return url.PathEscape(s)
	})
	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}

// indirect dereferences pointers so *int and int stringify the same way.
func indirect(v any) any {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	return rv.Interface()
}

// idPath fills the {id} placeholder of a resource template.
func idPath(template string, id int) (string, error) {
	return BuildPath(template, PathParams{"id": id})
}
