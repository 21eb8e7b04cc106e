package paperless

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPath(t *testing.T) {
	id := 7

	tests := []struct {
		name     string
		template string
		params   PathParams
		expected string
	}{
		{
			name:     "integer id",
			template: "/api/documents/{id}/",
			params:   PathParams{"id": 42},
			expected: "/api/documents/42/",
		},
		{
			name:     "escapes reserved characters",
			template: "/api/tags/{name}/",
			params:   PathParams{"name": "foo/bar baz"},
			expected: "/api/tags/foo%2Fbar%20baz/",
		},
		{
			name:     "boolean and float",
			template: "/x/{flag}/{ratio}",
			params:   PathParams{"flag": true, "ratio": 1.5},
			expected: "/x/true/1.5",
		},
		{
			name:     "pointer value",
			template: "/api/documents/{id}/notes/",
			params:   PathParams{"id": &id},
			expected: "/api/documents/7/notes/",
		},
		{
			name:     "no placeholders",
			template: "/api/tasks/",
			params:   nil,
			expected: "/api/tasks/",
		},
		{
			name:     "extra params are ignored",
			template: "/api/users/{id}/",
			params:   PathParams{"id": 3, "unused": "x"},
			expected: "/api/users/3/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildPath(tt.template, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestBuildPathErrors(t *testing.T) {
	tests := []struct {
		name     string
		template string
		params   PathParams
		sentinel error
		message  string
	}{
		{
			name:     "nil params",
			template: "/api/documents/{id}/notes/{note}/",
			params:   nil,
			sentinel: ErrMissingPathParam,
			message:  "missing path parameter: id",
		},
		{
			name:     "absent key",
			template: "/api/documents/{id}/",
			params:   PathParams{"other": 1},
			sentinel: ErrMissingPathParam,
			message:  "missing path parameter: id",
		},
		{
			name:     "nil value",
			template: "/api/documents/{id}/",
			params:   PathParams{"id": nil},
			sentinel: ErrNilPathParam,
			message:  "path parameter 'id' is nil",
		},
		{
			name:     "nil pointer",
			template: "/api/documents/{id}/",
			params:   PathParams{"id": (*int)(nil)},
			sentinel: ErrNilPathParam,
			message:  "path parameter 'id' is nil",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildPath(tt.template, tt.params)
			require.Error(t, err)
			assert.Empty(t, got)
			assert.True(t, errors.Is(err, tt.sentinel))
			assert.Equal(t, tt.message, err.Error())

			var pathErr *PathError
			require.ErrorAs(t, err, &pathErr)
			assert.Equal(t, tt.template, pathErr.Template)
		})
	}
}
