package paperless

import (
	"context"
	"iter"
)

// DocumentsAPI defines the document operations
type DocumentsAPI interface {
	List(ctx context.Context, query *DocumentListQuery) (*Page[Document], error)
	Iterate(ctx context.Context, query *DocumentListQuery) iter.Seq2[Document, error]
	ListAll(ctx context.Context, query *DocumentListQuery) ([]Document, error)
	Retrieve(ctx context.Context, id int, query *DocumentRetrieveQuery) (*Document, error)
	Update(ctx context.Context, id int, body *DocumentUpdate) (*Document, error)
	PartialUpdate(ctx context.Context, id int, patch *DocumentPatch) (*Document, error)
	Remove(ctx context.Context, id int) error

	// Upload sends a new document and returns the consumption task UUID
	Upload(ctx context.Context, opts UploadOptions) (string, error)
	Download(ctx context.Context, id int, opts *DownloadOptions) (*DocumentContent, error)
	Preview(ctx context.Context, id int, opts *DownloadOptions) (*DocumentContent, error)
	Thumbnail(ctx context.Context, id int, opts *DownloadOptions) (*DocumentContent, error)
	Metadata(ctx context.Context, id int) (*DocumentMetadata, error)
	Suggestions(ctx context.Context, id int) (*Suggestions, error)

	History(ctx context.Context, id int, opts ...RequestOption) ([]AuditLogEntry, error)
	Notes(ctx context.Context, id int, query *ListQuery) (*Page[Note], error)
	AddNote(ctx context.Context, id int, body NoteRequest) (*Page[Note], error)
	RemoveNote(ctx context.Context, id, noteID int) (*Page[Note], error)
	SendByEmail(ctx context.Context, id int, body EmailRequest) (*EmailResponse, error)
	SelectionData(ctx context.Context, body SelectionDataRequest) (*SelectionData, error)
}

// ResourceAPI defines the operations shared by tags, correspondents,
// document types and users
type ResourceAPI[T, Q, W, P any] interface {
	List(ctx context.Context, query *Q) (*Page[T], error)
	Iterate(ctx context.Context, query *Q) iter.Seq2[T, error]
	ListAll(ctx context.Context, query *Q) ([]T, error)
	Retrieve(ctx context.Context, id int) (*T, error)
	Create(ctx context.Context, body *W) (*T, error)
	Update(ctx context.Context, id int, body *W) (*T, error)
	PartialUpdate(ctx context.Context, id int, patch *P) (*T, error)
	Remove(ctx context.Context, id int) error
}

// TasksAPI defines the task operations
type TasksAPI interface {
	List(ctx context.Context, query *TaskListQuery) ([]Task, error)
	Retrieve(ctx context.Context, id int, opts ...RequestOption) (*Task, error)
	Acknowledge(ctx context.Context, ids []int, opts ...RequestOption) (*AcknowledgeResponse, error)
	Run(ctx context.Context, body RunTaskRequest, opts ...RequestOption) (*Task, error)
	Wait(ctx context.Context, taskID string, opts WaitOptions) (*Task, error)
}

// AuthAPI defines the token operations
type AuthAPI interface {
	Login(ctx context.Context, creds TokenRequest) (*TokenResponse, error)
	RegenerateProfileToken(ctx context.Context) (string, error)
}

var (
	_ DocumentsAPI                                                    = (*DocumentsService)(nil)
	_ ResourceAPI[Tag, TagListQuery, TagRequest, TagPatch]            = (*TagsService)(nil)
	_ ResourceAPI[Correspondent, NameQuery, NamedRequest, NamedPatch] = (*CorrespondentsService)(nil)
	_ ResourceAPI[DocumentType, NameQuery, NamedRequest, NamedPatch]  = (*DocumentTypesService)(nil)
	_ ResourceAPI[User, UserListQuery, UserRequest, UserPatch]        = (*UsersService)(nil)
	_ TasksAPI                                                        = (*TasksService)(nil)
	_ AuthAPI                                                         = (*AuthService)(nil)
)
