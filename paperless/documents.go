package paperless

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"

	json "github.com/goccy/go-json"
)

const (
	documentsPath     = "/api/documents/"
	documentPath      = "/api/documents/{id}/"
	documentNotesPath = "/api/documents/{id}/notes/"
)

// ErrMissingDocument is returned by Upload when no file content is given
var ErrMissingDocument = errors.New("upload requires document content")

// DocumentsService provides access to /api/documents/.
type DocumentsService struct {
	transport *Transport
}

// List returns a single page of documents. query may be nil.
func (s *DocumentsService) List(ctx context.Context, query *DocumentListQuery) (*Page[Document], error) {
	var page Page[Document]
	if err := s.transport.Request(ctx, listRequest(documentsPath, query), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Iterate lazily walks every document matching query.
func (s *DocumentsService) Iterate(ctx context.Context, query *DocumentListQuery) iter.Seq2[Document, error] {
	return Iterate[Document](ctx, s.transport, listRequest(documentsPath, query))
}

// ListAll collects every document matching query.
func (s *DocumentsService) ListAll(ctx context.Context, query *DocumentListQuery) ([]Document, error) {
	return ListAll[Document](ctx, s.transport, listRequest(documentsPath, query))
}

// Retrieve returns a single document. query may be nil.
func (s *DocumentsService) Retrieve(ctx context.Context, id int, query *DocumentRetrieveQuery) (*Document, error) {
	path, err := idPath(documentPath, id)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := s.transport.Get(ctx, path, &doc, WithParams(query)); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Update replaces a document.
func (s *DocumentsService) Update(ctx context.Context, id int, body *DocumentUpdate) (*Document, error) {
	path, err := idPath(documentPath, id)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := s.transport.Put(ctx, path, body, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// PartialUpdate changes only the fields set in patch.
func (s *DocumentsService) PartialUpdate(ctx context.Context, id int, patch *DocumentPatch) (*Document, error) {
	path, err := idPath(documentPath, id)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := s.transport.Patch(ctx, path, patch, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Remove deletes a document.
func (s *DocumentsService) Remove(ctx context.Context, id int) error {
	path, err := idPath(documentPath, id)
	if err != nil {
		return err
	}
	return s.transport.Delete(ctx, path, nil)
}

// UploadOptions describes a new document for Upload. Nil and zero fields are
// not sent.
type UploadOptions struct {
	// Document is the file content
	Document io.Reader
	// FileName is sent as the part's file name and defaults to "document"
	FileName            string
	Title               string
	Correspondent       *int
	DocumentType        *int
	StoragePath         *int
	Tags                []int
	ArchiveSerialNumber *int
	CustomFields        []int
	FromWebUI           *bool
	// Created is a date or timestamp understood by the server
	Created string
}

// Upload sends a new document for consumption and returns the UUID of the
// consumption task. Use Tasks.Wait to follow it.
func (s *DocumentsService) Upload(ctx context.Context, opts UploadOptions) (string, error) {
	if opts.Document == nil {
		return "", ErrMissingDocument
	}

	// The form is buffered so the request carries a Content-Length; the
	// server does not read chunked multipart bodies.
	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	if err := writeUploadForm(mw, opts); err != nil {
		return "", err
	}

	var raw []byte
	err := s.transport.Post(ctx, "/api/documents/post_document/", &form, &raw,
		WithRequestHeader("Content-Type", mw.FormDataContentType()))
	if err != nil {
		return "", err
	}

	// The server answers with a JSON string; accept a bare one too
	var taskID string
	if err := json.Unmarshal(raw, &taskID); err != nil {
		return string(bytes.TrimSpace(raw)), nil
	}
	return taskID, nil
}

func writeUploadForm(mw *multipart.Writer, opts UploadOptions) error {
	name := opts.FileName
	if name == "" {
		name = "document"
	}
	part, err := mw.CreateFormFile("document", filepath.Base(name))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, opts.Document); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}

	fields := []struct {
		key   string
		value string
		ok    bool
	}{
		{"title", opts.Title, opts.Title != ""},
		{"correspondent", intString(opts.Correspondent), opts.Correspondent != nil},
		{"document_type", intString(opts.DocumentType), opts.DocumentType != nil},
		{"storage_path", intString(opts.StoragePath), opts.StoragePath != nil},
		{"archive_serial_number", intString(opts.ArchiveSerialNumber), opts.ArchiveSerialNumber != nil},
	}
	for _, f := range fields {
		if !f.ok {
			continue
		}
		if err := mw.WriteField(f.key, f.value); err != nil {
			return err
		}
	}
	for _, tag := range opts.Tags {
		if err := mw.WriteField("tags", strconv.Itoa(tag)); err != nil {
			return err
		}
	}
	for _, field := range opts.CustomFields {
		if err := mw.WriteField("custom_fields", strconv.Itoa(field)); err != nil {
			return err
		}
	}
	if opts.FromWebUI != nil {
		if err := mw.WriteField("from_webui", strconv.FormatBool(*opts.FromWebUI)); err != nil {
			return err
		}
	}
	if opts.Created != "" {
		if err := mw.WriteField("created", opts.Created); err != nil {
			return err
		}
	}
	return mw.Close()
}

func intString(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

// DownloadOptions controls Download, Preview and Thumbnail.
type DownloadOptions struct {
	// Original requests the original file instead of the archived PDF. Left
	// unset, the server decides.
	Original *bool
	// Stream returns the open body instead of buffering it
	Stream bool
}

// DocumentContent is a downloaded file. Exactly one of Data and Body is set;
// Body must be closed by the caller.
type DocumentContent struct {
	ContentType string
	FileName    string
	Data        []byte
	Body        io.ReadCloser
}

// Download fetches the file of a document.
func (s *DocumentsService) Download(ctx context.Context, id int, opts *DownloadOptions) (*DocumentContent, error) {
	return s.fetchFile(ctx, "/api/documents/{id}/download/", id, opts)
}

// Preview fetches the file as displayed inline by the web UI.
func (s *DocumentsService) Preview(ctx context.Context, id int, opts *DownloadOptions) (*DocumentContent, error) {
	return s.fetchFile(ctx, "/api/documents/{id}/preview/", id, opts)
}

// Thumbnail fetches the thumbnail image of a document.
func (s *DocumentsService) Thumbnail(ctx context.Context, id int, opts *DownloadOptions) (*DocumentContent, error) {
	return s.fetchFile(ctx, "/api/documents/{id}/thumb/", id, opts)
}

func (s *DocumentsService) fetchFile(ctx context.Context, template string, id int, opts *DownloadOptions) (*DocumentContent, error) {
	if opts == nil {
		opts = &DownloadOptions{}
	}
	path, err := idPath(template, id)
	if err != nil {
		return nil, err
	}

	req := Request{
		Method: http.MethodGet,
		URL:    path,
		Header: http.Header{"Accept": {"*/*"}},
	}
	if opts.Original != nil {
		req.Params = map[string]any{"original": *opts.Original}
	}

	resp, err := s.transport.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	content := &DocumentContent{
		ContentType: resp.Header.Get("Content-Type"),
		FileName:    fileNameFromDisposition(resp.Header.Get("Content-Disposition")),
	}
	if opts.Stream {
		content.Body = resp.Body
		return content, nil
	}

	defer resp.Body.Close()
	content.Data, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, NormalizeError(fmt.Errorf("failed to read document content: %w", err))
	}
	return content, nil
}

func fileNameFromDisposition(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return params["filename"]
}

// Metadata returns checksums, sizes and embedded metadata of the stored
// files.
func (s *DocumentsService) Metadata(ctx context.Context, id int) (*DocumentMetadata, error) {
	path, err := idPath("/api/documents/{id}/metadata/", id)
	if err != nil {
		return nil, err
	}
	var meta DocumentMetadata
	if err := s.transport.Get(ctx, path, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Suggestions returns the classifier's proposals for a document.
func (s *DocumentsService) Suggestions(ctx context.Context, id int) (*Suggestions, error) {
	path, err := idPath("/api/documents/{id}/suggestions/", id)
	if err != nil {
		return nil, err
	}
	var sugg Suggestions
	if err := s.transport.Get(ctx, path, &sugg); err != nil {
		return nil, err
	}
	return &sugg, nil
}

// History returns the audit log of a document. opts may add query parameters.
func (s *DocumentsService) History(ctx context.Context, id int, opts ...RequestOption) ([]AuditLogEntry, error) {
	path, err := idPath("/api/documents/{id}/history/", id)
	if err != nil {
		return nil, err
	}
	entries := make([]AuditLogEntry, 0)
	if err := s.transport.Get(ctx, path, &entries, opts...); err != nil {
		return nil, err
	}
	return entries, nil
}

// Notes returns the notes of a document. query may be nil.
func (s *DocumentsService) Notes(ctx context.Context, id int, query *ListQuery) (*Page[Note], error) {
	path, err := idPath(documentNotesPath, id)
	if err != nil {
		return nil, err
	}
	var page Page[Note]
	if err := s.transport.Get(ctx, path, &page, WithParams(query)); err != nil {
		return nil, err
	}
	return &page, nil
}

// AddNote attaches a note and returns the updated notes.
func (s *DocumentsService) AddNote(ctx context.Context, id int, body NoteRequest) (*Page[Note], error) {
	path, err := idPath(documentNotesPath, id)
	if err != nil {
		return nil, err
	}
	var page Page[Note]
	if err := s.transport.Post(ctx, path, body, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// RemoveNote deletes a note and returns the remaining notes. The note id
// travels as the id query parameter.
func (s *DocumentsService) RemoveNote(ctx context.Context, id, noteID int) (*Page[Note], error) {
	path, err := idPath(documentNotesPath, id)
	if err != nil {
		return nil, err
	}
	var page Page[Note]
	if err := s.transport.Delete(ctx, path, &page, WithParams(map[string]any{"id": noteID})); err != nil {
		return nil, err
	}
	return &page, nil
}

// SendByEmail mails a document through the server's mailer.
func (s *DocumentsService) SendByEmail(ctx context.Context, id int, body EmailRequest) (*EmailResponse, error) {
	path, err := idPath("/api/documents/{id}/email/", id)
	if err != nil {
		return nil, err
	}
	var resp EmailResponse
	if err := s.transport.Post(ctx, path, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SelectionData summarizes the objects used by a set of documents.
func (s *DocumentsService) SelectionData(ctx context.Context, body SelectionDataRequest) (*SelectionData, error) {
	var data SelectionData
	if err := s.transport.Post(ctx, "/api/documents/selection_data/", body, &data); err != nil {
		return nil, err
	}
	return &data, nil
}
