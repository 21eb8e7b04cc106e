package cmd

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores every flag of c and its children to its default so
// commands can be executed repeatedly in one process
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// executeCommand runs the CLI against a Paperless test server
func executeCommand(t *testing.T, server *httptest.Server, stdin string, args ...string) (string, error) {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("PAPERLESS_BASE_URL", server.URL)
	t.Setenv("PAPERLESS_TOKEN", "secret")

	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd) })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append(args, "--log-level", "error"))

	err := rootCmd.Execute()
	return out.String(), err
}

// fakePaperless serves a small library of documents and their related objects
type fakePaperless struct {
	mu      sync.Mutex
	deleted []string
	*http.ServeMux
}

func newFakePaperless(t *testing.T) (*fakePaperless, *httptest.Server) {
	t.Helper()

	f := &fakePaperless{ServeMux: http.NewServeMux()}

	f.HandleFunc("GET /api/{$}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Token secret", r.Header.Get("Authorization"))
		w.Header().Set("X-Version", "2.3.1")
		w.Header().Set("X-Api-Version", "5")
		fmt.Fprint(w, `{}`)
	})
	f.HandleFunc("GET /api/documents/{$}", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"count":3,"next":null,"previous":null,"results":[
			{"id":1,"title":"Electricity Bill","tags":[1],"correspondent":4,"document_type":5,"created":"2024-01-10"},
			{"id":2,"title":"Lease","tags":[2],"correspondent":null,"document_type":null,"created":"2023-06-01"},
			{"id":3,"title":"Gas Bill","tags":[1,2],"correspondent":4,"document_type":5,"created":"2024-02-10"}
		]}`)
	})
	f.HandleFunc("GET /api/tags/{$}", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"count":2,"next":null,"results":[{"id":1,"name":"Inbox"},{"id":2,"name":"Home"}]}`)
	})
	f.HandleFunc("GET /api/correspondents/{$}", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"count":1,"next":null,"results":[{"id":4,"name":"Power Co"}]}`)
	})
	f.HandleFunc("GET /api/document_types/{$}", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"count":1,"next":null,"results":[{"id":5,"name":"Invoice"}]}`)
	})
	f.HandleFunc("DELETE /api/documents/{id}/", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "2" {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"detail":"No Document matches the given query."}`)
			return
		}
		f.mu.Lock()
		f.deleted = append(f.deleted, r.PathValue("id"))
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	f.HandleFunc("GET /api/documents/{id}/download/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		name := "doc-" + r.PathValue("id") + ".pdf"
		if id, _ := strconv.Atoi(r.PathValue("id")); id >= 7 {
			name = "Invoice.pdf"
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
		fmt.Fprintf(w, "%%PDF-%s", r.PathValue("id"))
	})

	server := httptest.NewServer(f)
	t.Cleanup(server.Close)
	return f, server
}

func (f *fakePaperless) deletedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func decodeIDs(t *testing.T, out string) []int {
	t.Helper()
	var docs []struct {
		ID int `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	ids := make([]int, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids
}

func TestDocumentsListTable(t *testing.T) {
	_, server := newFakePaperless(t)

	out, err := executeCommand(t, server, "", "documents", "list")
	require.NoError(t, err)

	assert.Contains(t, out, "Electricity Bill")
	assert.Contains(t, out, "Power Co")
	assert.Contains(t, out, "Invoice")
	assert.Contains(t, out, "Inbox, Home")
	assert.Contains(t, out, "2024-02-10")
}

func TestDocumentsListFilter(t *testing.T) {
	_, server := newFakePaperless(t)

	tests := []struct {
		name   string
		filter string
		want   []int
	}{
		{"by tag", `hasTag("home")`, []int{2, 3}},
		{"by correspondent and title", `from("power co") and contains(Title, "gas")`, []int{3}},
		{"no tags match", `hasNoTags()`, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := executeCommand(t, server, "", "documents", "list", "--filter", tt.filter, "-o", "json")
			require.NoError(t, err)
			assert.Equal(t, tt.want, decodeIDs(t, out))
		})
	}

	_, err := executeCommand(t, server, "", "documents", "list", "--filter", `hasTag(`)
	assert.ErrorContains(t, err, "invalid filter expression")
}

func TestDocumentsListPreset(t *testing.T) {
	_, server := newFakePaperless(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
filter:
  bills: 'isType("invoice") and Created > parseDate("2024-02-01")'
`), 0o600))

	out, err := executeCommand(t, server, "", "--config", path, "documents", "list", "--preset", "bills", "-o", "json")
	require.NoError(t, err)
	assert.Equal(t, []int{3}, decodeIDs(t, out))

	_, err = executeCommand(t, server, "", "--config", path, "documents", "list", "--preset", "missing")
	assert.ErrorContains(t, err, "preset 'missing' not found")
}

func TestDocumentsDelete(t *testing.T) {
	t.Run("declined", func(t *testing.T) {
		fake, server := newFakePaperless(t)

		_, err := executeCommand(t, server, "n\n", "documents", "delete", "1", "3")
		require.NoError(t, err)
		assert.Empty(t, fake.deletedIDs())
	})

	t.Run("collects failures", func(t *testing.T) {
		fake, server := newFakePaperless(t)

		out, err := executeCommand(t, server, "", "documents", "delete", "--no-confirm", "1", "2", "3")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "document 2")
		assert.ElementsMatch(t, []string{"1", "3"}, fake.deletedIDs())
		assert.Contains(t, out, "Deleted document 1")
		assert.Contains(t, out, "Deleted document 3")
	})

	t.Run("invalid id", func(t *testing.T) {
		_, server := newFakePaperless(t)

		_, err := executeCommand(t, server, "", "documents", "delete", "--no-confirm", "abc")
		assert.ErrorContains(t, err, "invalid id 'abc'")
	})
}

func TestDocumentsDownload(t *testing.T) {
	_, server := newFakePaperless(t)
	dir := t.TempDir()

	out, err := executeCommand(t, server, "", "documents", "download", "--dir", dir, "1", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Document 1 saved")

	for _, id := range []string{"1", "3"} {
		data, err := os.ReadFile(filepath.Join(dir, "doc-"+id+".pdf"))
		require.NoError(t, err)
		assert.Equal(t, "%PDF-"+id, string(data))
	}
}

func TestDocumentsDownloadSharedName(t *testing.T) {
	_, server := newFakePaperless(t)
	dir := t.TempDir()

	out, err := executeCommand(t, server, "", "documents", "download", "--dir", dir, "7", "8", "9")
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(out, "saved"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var names, contents []string
	for _, e := range entries {
		names = append(names, e.Name())
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		require.NoError(t, err)
		contents = append(contents, string(data))
	}
	assert.Len(t, names, 3)
	assert.Contains(t, names, "Invoice.pdf")
	assert.ElementsMatch(t, []string{"%PDF-7", "%PDF-8", "%PDF-9"}, contents)
}

func TestFileNamesClaim(t *testing.T) {
	names := &fileNames{used: make(map[string]bool)}

	assert.Equal(t, "Invoice.pdf", names.claim("Invoice.pdf", 1))
	assert.Equal(t, "Invoice-2.pdf", names.claim("Invoice.pdf", 2))
	assert.Equal(t, "Invoice-2-2.pdf", names.claim("Invoice-2.pdf", 2))
	assert.Equal(t, "README", names.claim("README", 3))
	assert.Equal(t, "README-3", names.claim("README", 3))
	assert.Equal(t, "README-3-2", names.claim("README", 3))
}

func TestStatus(t *testing.T) {
	_, server := newFakePaperless(t)

	out, err := executeCommand(t, server, "", "status", "-o", "json")
	require.NoError(t, err)

	var status serverStatus
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Equal(t, server.URL, status.URL)
	assert.Equal(t, "2.3.1", status.Version)
	assert.Equal(t, "5", status.APIVersion)
	assert.Equal(t, 3, status.Documents)
	assert.Equal(t, 2, status.Tags)
	assert.Equal(t, 1, status.Correspondents)
	assert.Equal(t, 1, status.DocumentTypes)

	_, err = executeCommand(t, server, "", "status", "--min-version", "3.0")
	assert.ErrorContains(t, err, "older than required")
}

func TestTagsCreate(t *testing.T) {
	var body map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/tags/{$}", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":9,"name":"Taxes","matching_algorithm":4,"match":"^tax"}`)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	out, err := executeCommand(t, server, "", "tags", "create", "Taxes", "--match", "^tax", "--algorithm", "regex", "--inbox")
	require.NoError(t, err)

	assert.Equal(t, "Taxes", body["name"])
	assert.Equal(t, "^tax", body["match"])
	assert.EqualValues(t, 4, body["matching_algorithm"])
	assert.Equal(t, true, body["is_inbox_tag"])
	assert.NotContains(t, body, "is_insensitive")
	assert.Contains(t, out, "regex")

	_, err = executeCommand(t, server, "", "tags", "create", "Taxes", "--algorithm", "soundex")
	assert.ErrorContains(t, err, "unknown matching algorithm")
}

func TestInvalidOutputFormat(t *testing.T) {
	_, server := newFakePaperless(t)

	_, err := executeCommand(t, server, "", "status", "-o", "xml")
	assert.ErrorContains(t, err, "invalid output format")
}
