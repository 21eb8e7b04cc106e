package paperless

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, opts...)
	require.NoError(t, err)
	return client
}

func TestDocumentsRetrieve(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/documents/42/", r.URL.Path)
		assert.Equal(t, "fields=title", r.URL.RawQuery)
		fmt.Fprint(w, `{"id":42,"title":"Invoice","tags":[1,2],"created":"2024-03-01"}`)
	}))

	doc, err := client.Documents.Retrieve(context.Background(), 42, &DocumentRetrieveQuery{Fields: []string{"title"}})
	require.NoError(t, err)
	assert.Equal(t, 42, doc.ID)
	assert.Equal(t, "Invoice", doc.Title)
	assert.True(t, doc.HasTag(2))
	assert.Equal(t, 2024, doc.CreatedTime().Year())
}

func TestDocumentsList(t *testing.T) {
	tagID := 4
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/documents/", r.URL.Path)
		assert.Equal(t, "page_size=10&query=tax&tags__id__all=4,5", r.URL.RawQuery)
		fmt.Fprint(w, `{"count":1,"next":null,"previous":null,"results":[{"id":1,"title":"Tax"}],"all":[1]}`)
	}))

	page, err := client.Documents.List(context.Background(), &DocumentListQuery{
		ListQuery: ListQuery{PageSize: 10},
		Query:     "tax",
		TagsIDAll: []int{tagID, 5},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Count)
	assert.Equal(t, []int{1}, page.All)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "Tax", page.Results[0].Title)
}

func TestDocumentsNotes(t *testing.T) {
	ctx := context.Background()

	t.Run("add note", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/documents/42/notes/", r.URL.Path)
			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"note":"Hello"}`, string(body))
			fmt.Fprint(w, `[{"id":7,"note":"Hello","user":{"id":1,"username":"admin"}}]`)
		}))

		notes, err := client.Documents.AddNote(ctx, 42, NoteRequest{Note: "Hello"})
		require.NoError(t, err)
		require.Len(t, notes.Results, 1)
		assert.Equal(t, "admin", notes.Results[0].User.Username)
	})

	t.Run("remove note uses query parameter", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			assert.Equal(t, "/api/documents/42/notes/", r.URL.Path)
			assert.Equal(t, "id=7", r.URL.RawQuery)
			fmt.Fprint(w, `[]`)
		}))

		notes, err := client.Documents.RemoveNote(ctx, 42, 7)
		require.NoError(t, err)
		assert.Empty(t, notes.Results)
	})

	t.Run("list notes", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "page=2", r.URL.RawQuery)
			fmt.Fprint(w, `{"count":3,"next":null,"previous":"x","results":[{"id":3,"note":"c"}]}`)
		}))

		notes, err := client.Documents.Notes(ctx, 42, &ListQuery{Page: 2})
		require.NoError(t, err)
		assert.Equal(t, 3, notes.Count)
	})
}

func TestDocumentsUpload(t *testing.T) {
	correspondent := 5
	fromWebUI := false

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/documents/post_document/", r.URL.Path)
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data; boundary="))
		assert.Equal(t, "Token secret", r.Header.Get("Authorization"))
		assert.Positive(t, r.ContentLength)
		assert.Empty(t, r.TransferEncoding)

		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		form := r.MultipartForm
		assert.Equal(t, []string{"Scan"}, form.Value["title"])
		assert.Equal(t, []string{"5"}, form.Value["correspondent"])
		assert.Equal(t, []string{"1", "2"}, form.Value["tags"])
		assert.Equal(t, []string{"false"}, form.Value["from_webui"])
		assert.NotContains(t, form.Value, "document_type")
		assert.NotContains(t, form.Value, "created")

		files := form.File["document"]
		if assert.Len(t, files, 1) {
			assert.Equal(t, "scan.pdf", files[0].Filename)
			f, err := files[0].Open()
			if assert.NoError(t, err) {
				data, _ := io.ReadAll(f)
				f.Close()
				assert.Equal(t, "%PDF-1.7", string(data))
			}
		}

		fmt.Fprint(w, `"4b5c-uuid"`)
	}), WithToken("secret"))

	taskID, err := client.Documents.Upload(context.Background(), UploadOptions{
		Document:      strings.NewReader("%PDF-1.7"),
		FileName:      "/tmp/scan.pdf",
		Title:         "Scan",
		Correspondent: &correspondent,
		Tags:          []int{1, 2},
		FromWebUI:     &fromWebUI,
	})
	require.NoError(t, err)
	assert.Equal(t, "4b5c-uuid", taskID)
}

func TestDocumentsUploadErrors(t *testing.T) {
	t.Run("missing document", func(t *testing.T) {
		client := newTestClient(t, http.NotFoundHandler())
		_, err := client.Documents.Upload(context.Background(), UploadOptions{Title: "x"})
		assert.ErrorIs(t, err, ErrMissingDocument)
	})

	t.Run("server rejects upload", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"document":["This field is required."]}`)
		}))
		_, err := client.Documents.Upload(context.Background(), UploadOptions{
			Document: bytes.NewReader(bytes.Repeat([]byte("x"), 1<<16)),
		})
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	})

	t.Run("unreadable document", func(t *testing.T) {
		var calls int
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
		}))
		_, err := client.Documents.Upload(context.Background(), UploadOptions{
			Document: iotest.ErrReader(errors.New("disk gone")),
		})
		assert.ErrorContains(t, err, "disk gone")
		assert.Zero(t, calls)
	})
}

func TestDocumentsUploadFollowsRedirect(t *testing.T) {
	var bodies []string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/documents/post_document/" {
			http.Redirect(w, r, "/api/v2/documents/post_document/", http.StatusTemporaryRedirect)
			return
		}
		assert.Equal(t, "/api/v2/documents/post_document/", r.URL.Path)
		assert.Positive(t, r.ContentLength)
		if assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			bodies = append(bodies, r.MultipartForm.Value["title"]...)
		}
		fmt.Fprint(w, `"moved-uuid"`)
	}))

	taskID, err := client.Documents.Upload(context.Background(), UploadOptions{
		Document: strings.NewReader("%PDF-1.7"),
		Title:    "Moved",
	})
	require.NoError(t, err)
	assert.Equal(t, "moved-uuid", taskID)
	assert.Equal(t, []string{"Moved"}, bodies)
}

func TestDocumentsDownload(t *testing.T) {
	content := []byte("%PDF-1.7 body")
	var gotQuery string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/documents/42/download/", r.URL.Path)
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="invoice.pdf"`)
		w.Write(content)
	}))
	ctx := context.Background()

	t.Run("buffered", func(t *testing.T) {
		got, err := client.Documents.Download(ctx, 42, nil)
		require.NoError(t, err)
		assert.Empty(t, gotQuery)
		assert.Equal(t, content, got.Data)
		assert.Nil(t, got.Body)
		assert.Equal(t, "application/pdf", got.ContentType)
		assert.Equal(t, "invoice.pdf", got.FileName)
	})

	t.Run("original flag", func(t *testing.T) {
		original := true
		_, err := client.Documents.Download(ctx, 42, &DownloadOptions{Original: &original})
		require.NoError(t, err)
		assert.Equal(t, "original=true", gotQuery)
	})

	t.Run("stream", func(t *testing.T) {
		got, err := client.Documents.Download(ctx, 42, &DownloadOptions{Stream: true})
		require.NoError(t, err)
		require.NotNil(t, got.Body)
		defer got.Body.Close()

		assert.Nil(t, got.Data)
		data, err := io.ReadAll(got.Body)
		require.NoError(t, err)
		assert.Equal(t, content, data)
	})
}

func TestDocumentsSubResources(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/documents/3/history/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "fields=action", r.URL.RawQuery)
		fmt.Fprint(w, `[{"id":1,"action":"create","changes":{"title":[null,"A"]}}]`)
	})
	mux.HandleFunc("POST /api/documents/3/email/", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"addresses":"a@example.com","subject":"Doc","message":"Hi","use_archive_version":true}`, string(body))
		fmt.Fprint(w, `{"message":"Email sent"}`)
	})
	mux.HandleFunc("POST /api/documents/selection_data/", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"documents":[1,2]}`, string(body))
		fmt.Fprint(w, `{"selected_tags":[{"id":4,"document_count":2}]}`)
	})
	mux.HandleFunc("GET /api/documents/3/metadata/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"original_checksum":"abc","original_size":10,"has_archive_version":false}`)
	})
	mux.HandleFunc("GET /api/documents/3/suggestions/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"tags":[1],"correspondents":[],"dates":["2024-01-01"]}`)
	})
	client := newTestClient(t, mux)
	ctx := context.Background()

	history, err := client.Documents.History(ctx, 3, WithParams(map[string]any{"fields": "action"}))
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "create", history[0].Action)

	resp, err := client.Documents.SendByEmail(ctx, 3, EmailRequest{
		Addresses:         "a@example.com",
		Subject:           "Doc",
		Message:           "Hi",
		UseArchiveVersion: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Email sent", resp.Message)

	sel, err := client.Documents.SelectionData(ctx, SelectionDataRequest{Documents: []int{1, 2}})
	require.NoError(t, err)
	require.Len(t, sel.SelectedTags, 1)
	assert.Equal(t, 2, sel.SelectedTags[0].DocumentCount)

	meta, err := client.Documents.Metadata(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "abc", meta.OriginalChecksum)

	sugg, err := client.Documents.Suggestions(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, sugg.Tags)
	assert.Equal(t, []string{"2024-01-01"}, sugg.Dates)
}
