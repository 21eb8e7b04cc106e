package paperless

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// MatchingAlgorithm selects how Paperless auto-assigns a tag, correspondent
// or document type to new documents
type MatchingAlgorithm int

const (
	// MatchNone disables automatic matching
	MatchNone MatchingAlgorithm = iota
	// MatchAny matches if any word is present
	MatchAny
	// MatchAll matches if all words are present
	MatchAll
	// MatchLiteral matches the exact string
	MatchLiteral
	// MatchRegex matches a regular expression
	MatchRegex
	// MatchFuzzy matches approximately
	MatchFuzzy
	// MatchAuto lets the classifier decide
	MatchAuto
)

// String returns the string representation of a MatchingAlgorithm
func (m MatchingAlgorithm) String() string {
	switch m {
	case MatchNone:
		return "none"
	case MatchAny:
		return "any"
	case MatchAll:
		return "all"
	case MatchLiteral:
		return "literal"
	case MatchRegex:
		return "regex"
	case MatchFuzzy:
		return "fuzzy"
	case MatchAuto:
		return "auto"
	default:
		return "unknown"
	}
}

// ParseMatchingAlgorithm converts a name returned by String back to a
// MatchingAlgorithm
func ParseMatchingAlgorithm(name string) (MatchingAlgorithm, error) {
	for m := MatchNone; m <= MatchAuto; m++ {
		if strings.EqualFold(m.String(), name) {
			return m, nil
		}
	}
	return MatchNone, fmt.Errorf("unknown matching algorithm: %s", name)
}

// Matching holds the auto-assignment settings shared by tags, correspondents
// and document types
type Matching struct {
	Match             string            `json:"match"`
	MatchingAlgorithm MatchingAlgorithm `json:"matching_algorithm"`
	IsInsensitive     bool              `json:"is_insensitive"`
}

// ListQuery contains the pagination and ordering parameters every list
// endpoint accepts
type ListQuery struct {
	Page     int    `url:"page,omitempty"`
	PageSize int    `url:"page_size,omitempty"`
	Ordering string `url:"ordering,omitempty"`
}

// NameQuery filters name-based resources
type NameQuery struct {
	ListQuery
	NameContains string `url:"name__icontains,omitempty"`
	NameExact    string `url:"name__iexact,omitempty"`
	NameStarts   string `url:"name__istartswith,omitempty"`
	IDIn         []int  `url:"id__in,omitempty"`
}

// Document represents a Paperless document
type Document struct {
	ID                  int                   `json:"id"`
	Correspondent       *int                  `json:"correspondent"`
	DocumentType        *int                  `json:"document_type"`
	StoragePath         *int                  `json:"storage_path"`
	Title               string                `json:"title"`
	Content             string                `json:"content,omitempty"`
	Tags                []int                 `json:"tags"`
	Created             string                `json:"created"`
	Modified            *time.Time            `json:"modified,omitempty"`
	Added               *time.Time            `json:"added,omitempty"`
	DeletedAt           *time.Time            `json:"deleted_at,omitempty"`
	ArchiveSerialNumber *int                  `json:"archive_serial_number"`
	OriginalFileName    string                `json:"original_file_name,omitempty"`
	ArchivedFileName    *string               `json:"archived_file_name,omitempty"`
	Owner               *int                  `json:"owner"`
	UserCanChange       bool                  `json:"user_can_change"`
	IsSharedByRequester bool                  `json:"is_shared_by_requester"`
	Notes               []Note                `json:"notes,omitempty"`
	CustomFields        []CustomFieldInstance `json:"custom_fields,omitempty"`
	PageCount           *int                  `json:"page_count,omitempty"`
	MimeType            string                `json:"mime_type,omitempty"`
}

// CreatedTime parses Created, which servers send either as a date or as a
// full timestamp. It returns the zero time when the value cannot be parsed.
func (d *Document) CreatedTime() time.Time {
	if d.Created == "" {
		return time.Time{}
	}
	t, err := dateparse.ParseAny(d.Created)
	if err != nil {
		return time.Time{}
	}
	return t
}

// HasTag checks if the document carries the tag id
func (d *Document) HasTag(id int) bool {
	for _, t := range d.Tags {
		if t == id {
			return true
		}
	}
	return false
}

// CustomFieldInstance is a custom field value attached to a document
type CustomFieldInstance struct {
	Field int `json:"field"`
	Value any `json:"value"`
}

// DocumentUpdate is the full replacement body for a document
type DocumentUpdate struct {
	Title               string                `json:"title"`
	Correspondent       *int                  `json:"correspondent"`
	DocumentType        *int                  `json:"document_type"`
	StoragePath         *int                  `json:"storage_path"`
	Tags                []int                 `json:"tags"`
	Created             string                `json:"created,omitempty"`
	ArchiveSerialNumber *int                  `json:"archive_serial_number"`
	Owner               *int                  `json:"owner,omitempty"`
	CustomFields        []CustomFieldInstance `json:"custom_fields,omitempty"`
	RemoveInboxTags     *bool                 `json:"remove_inbox_tags,omitempty"`
}

// DocumentPatch is a partial document update; nil fields are not sent
type DocumentPatch struct {
	Title               *string                `json:"title,omitempty"`
	Correspondent       *int                   `json:"correspondent,omitempty"`
	DocumentType        *int                   `json:"document_type,omitempty"`
	StoragePath         *int                   `json:"storage_path,omitempty"`
	Tags                *[]int                 `json:"tags,omitempty"`
	Created             *string                `json:"created,omitempty"`
	ArchiveSerialNumber *int                   `json:"archive_serial_number,omitempty"`
	Owner               *int                   `json:"owner,omitempty"`
	CustomFields        *[]CustomFieldInstance `json:"custom_fields,omitempty"`
	RemoveInboxTags     *bool                  `json:"remove_inbox_tags,omitempty"`
}

// DocumentListQuery filters the document list
type DocumentListQuery struct {
	ListQuery
	Query                string   `url:"query,omitempty"`
	Search               string   `url:"search,omitempty"`
	TitleContains        string   `url:"title__icontains,omitempty"`
	ContentContains      string   `url:"content__icontains,omitempty"`
	TitleContent         string   `url:"title_content,omitempty"`
	IDIn                 []int    `url:"id__in,omitempty"`
	TagID                *int     `url:"tags__id,omitempty"`
	TagsIDAll            []int    `url:"tags__id__all,omitempty"`
	TagsIDIn             []int    `url:"tags__id__in,omitempty"`
	TagsIDNone           []int    `url:"tags__id__none,omitempty"`
	IsTagged             *bool    `url:"is_tagged,omitempty"`
	IsInInbox            *bool    `url:"is_in_inbox,omitempty"`
	CorrespondentID      *int     `url:"correspondent__id,omitempty"`
	CorrespondentIDIn    []int    `url:"correspondent__id__in,omitempty"`
	DocumentTypeID       *int     `url:"document_type__id,omitempty"`
	DocumentTypeIDIn     []int    `url:"document_type__id__in,omitempty"`
	StoragePathID        *int     `url:"storage_path__id,omitempty"`
	ArchiveSerialNumber  *int     `url:"archive_serial_number,omitempty"`
	CreatedAfter         string   `url:"created__date__gt,omitempty"`
	CreatedBefore        string   `url:"created__date__lt,omitempty"`
	AddedAfter           string   `url:"added__date__gt,omitempty"`
	AddedBefore          string   `url:"added__date__lt,omitempty"`
	TruncateContent      *bool    `url:"truncate_content,omitempty"`
	Fields               []string `url:"fields,omitempty"`
	OriginalFileNameLike string   `url:"original_filename__icontains,omitempty"`
}

// DocumentRetrieveQuery narrows a single document response
type DocumentRetrieveQuery struct {
	Fields    []string `url:"fields,omitempty"`
	FullPerms *bool    `url:"full_perms,omitempty"`
}

// NoteUser is the author of a note
type NoteUser struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// Note represents a note attached to a document
type Note struct {
	ID      int        `json:"id"`
	Note    string     `json:"note"`
	Created *time.Time `json:"created,omitempty"`
	User    *NoteUser  `json:"user,omitempty"`
}

// NoteRequest is the body for adding a note
type NoteRequest struct {
	Note string `json:"note"`
}

// AuditLogEntry is one change in a document's history
type AuditLogEntry struct {
	ID        int            `json:"id"`
	Timestamp *time.Time     `json:"timestamp,omitempty"`
	Action    string         `json:"action"`
	Changes   map[string]any `json:"changes"`
	Actor     *NoteUser      `json:"actor,omitempty"`
}

// EmailRequest is the body for mailing a document
type EmailRequest struct {
	Addresses         string `json:"addresses"`
	Subject           string `json:"subject"`
	Message           string `json:"message"`
	UseArchiveVersion bool   `json:"use_archive_version"`
}

// EmailResponse is returned after mailing a document
type EmailResponse struct {
	Message string `json:"message"`
}

// SelectionDataRequest names the documents to summarize
type SelectionDataRequest struct {
	Documents []int `json:"documents"`
}

// SelectionCount is the number of selected documents using an object
type SelectionCount struct {
	ID            int `json:"id"`
	DocumentCount int `json:"document_count"`
}

// SelectionData summarizes the objects used by a set of documents
type SelectionData struct {
	SelectedCorrespondents []SelectionCount `json:"selected_correspondents"`
	SelectedTags           []SelectionCount `json:"selected_tags"`
	SelectedDocumentTypes  []SelectionCount `json:"selected_document_types"`
	SelectedStoragePaths   []SelectionCount `json:"selected_storage_paths"`
	SelectedCustomFields   []SelectionCount `json:"selected_custom_fields"`
}

// MetadataEntry is one embedded file metadata value
type MetadataEntry struct {
	Namespace string `json:"namespace"`
	Prefix    string `json:"prefix"`
	Key       string `json:"key"`
	Value     string `json:"value"`
}

// DocumentMetadata describes the stored files of a document
type DocumentMetadata struct {
	OriginalChecksum     string          `json:"original_checksum"`
	OriginalSize         int64           `json:"original_size"`
	OriginalMimeType     string          `json:"original_mime_type"`
	MediaFilename        string          `json:"media_filename"`
	HasArchiveVersion    bool            `json:"has_archive_version"`
	OriginalMetadata     []MetadataEntry `json:"original_metadata"`
	ArchiveChecksum      *string         `json:"archive_checksum"`
	ArchiveMediaFilename *string         `json:"archive_media_filename"`
	OriginalFilename     string          `json:"original_filename"`
	ArchiveSize          *int64          `json:"archive_size"`
	ArchiveMetadata      []MetadataEntry `json:"archive_metadata"`
	Lang                 string          `json:"lang"`
}

// Suggestions are the classifier's proposals for a document
type Suggestions struct {
	Correspondents []int    `json:"correspondents"`
	Tags           []int    `json:"tags"`
	DocumentTypes  []int    `json:"document_types"`
	StoragePaths   []int    `json:"storage_paths"`
	Dates          []string `json:"dates"`
}

// Tag represents a Paperless tag
type Tag struct {
	ID   int    `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
	Matching
	Color         string `json:"color"`
	TextColor     string `json:"text_color"`
	IsInboxTag    bool   `json:"is_inbox_tag"`
	DocumentCount int    `json:"document_count"`
	Owner         *int   `json:"owner"`
	UserCanChange bool   `json:"user_can_change"`
}

// TagRequest is the body for creating or replacing a tag
type TagRequest struct {
	Name              string             `json:"name"`
	Color             string             `json:"color,omitempty"`
	Match             string             `json:"match,omitempty"`
	MatchingAlgorithm *MatchingAlgorithm `json:"matching_algorithm,omitempty"`
	IsInsensitive     *bool              `json:"is_insensitive,omitempty"`
	IsInboxTag        *bool              `json:"is_inbox_tag,omitempty"`
	Owner             *int               `json:"owner,omitempty"`
}

// TagPatch is a partial tag update
type TagPatch struct {
	Name              *string            `json:"name,omitempty"`
	Color             *string            `json:"color,omitempty"`
	Match             *string            `json:"match,omitempty"`
	MatchingAlgorithm *MatchingAlgorithm `json:"matching_algorithm,omitempty"`
	IsInsensitive     *bool              `json:"is_insensitive,omitempty"`
	IsInboxTag        *bool              `json:"is_inbox_tag,omitempty"`
	Owner             *int               `json:"owner,omitempty"`
}

// TagListQuery filters the tag list
type TagListQuery struct {
	NameQuery
	IsInboxTag *bool `url:"is_inbox_tag,omitempty"`
}

// Correspondent represents a Paperless correspondent
type Correspondent struct {
	ID   int    `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
	Matching
	DocumentCount      int     `json:"document_count"`
	LastCorrespondence *string `json:"last_correspondence,omitempty"`
	Owner              *int    `json:"owner"`
	UserCanChange      bool    `json:"user_can_change"`
}

// DocumentType represents a Paperless document type
type DocumentType struct {
	ID   int    `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
	Matching
	DocumentCount int  `json:"document_count"`
	Owner         *int `json:"owner"`
	UserCanChange bool `json:"user_can_change"`
}

// NamedRequest is the body for creating or replacing a correspondent or
// document type
type NamedRequest struct {
	Name              string             `json:"name"`
	Match             string             `json:"match,omitempty"`
	MatchingAlgorithm *MatchingAlgorithm `json:"matching_algorithm,omitempty"`
	IsInsensitive     *bool              `json:"is_insensitive,omitempty"`
	Owner             *int               `json:"owner,omitempty"`
}

// NamedPatch is a partial correspondent or document type update
type NamedPatch struct {
	Name              *string            `json:"name,omitempty"`
	Match             *string            `json:"match,omitempty"`
	MatchingAlgorithm *MatchingAlgorithm `json:"matching_algorithm,omitempty"`
	IsInsensitive     *bool              `json:"is_insensitive,omitempty"`
	Owner             *int               `json:"owner,omitempty"`
}

// TaskStatus is the Celery state of a task
type TaskStatus string

const (
	TaskPending TaskStatus = "PENDING"
	TaskStarted TaskStatus = "STARTED"
	TaskSuccess TaskStatus = "SUCCESS"
	TaskFailure TaskStatus = "FAILURE"
	TaskRetry   TaskStatus = "RETRY"
	TaskRevoked TaskStatus = "REVOKED"
)

// IsDone checks if the task reached a final state
func (s TaskStatus) IsDone() bool {
	return s == TaskSuccess || s == TaskFailure || s == TaskRevoked
}

// Task represents a Paperless background task
type Task struct {
	ID              int        `json:"id"`
	TaskID          string     `json:"task_id"`
	TaskName        string     `json:"task_name,omitempty"`
	TaskFileName    *string    `json:"task_file_name"`
	DateCreated     *time.Time `json:"date_created"`
	DateDone        *time.Time `json:"date_done"`
	Type            string     `json:"type"`
	Status          TaskStatus `json:"status"`
	Result          *string    `json:"result"`
	Acknowledged    bool       `json:"acknowledged"`
	RelatedDocument *string    `json:"related_document"`
	Owner           *int       `json:"owner,omitempty"`
}

// TaskListQuery filters the task list
type TaskListQuery struct {
	TaskID       string `url:"task_id,omitempty"`
	Status       string `url:"status,omitempty"`
	Type         string `url:"type,omitempty"`
	TaskName     string `url:"task_name,omitempty"`
	Acknowledged *bool  `url:"acknowledged,omitempty"`
}

// AcknowledgeRequest lists the task ids to mark as seen
type AcknowledgeRequest struct {
	Tasks []int `json:"tasks"`
}

// AcknowledgeResponse reports how many tasks were acknowledged
type AcknowledgeResponse struct {
	Result int `json:"result"`
}

// RunTaskRequest names the background job to start
type RunTaskRequest struct {
	TaskName string `json:"task_name"`
}

// User represents a Paperless user
type User struct {
	ID                   int        `json:"id"`
	Username             string     `json:"username"`
	Email                string     `json:"email"`
	FirstName            string     `json:"first_name"`
	LastName             string     `json:"last_name"`
	DateJoined           *time.Time `json:"date_joined,omitempty"`
	IsStaff              bool       `json:"is_staff"`
	IsActive             bool       `json:"is_active"`
	IsSuperuser          bool       `json:"is_superuser"`
	Groups               []int      `json:"groups"`
	UserPermissions      []string   `json:"user_permissions"`
	InheritedPermissions []string   `json:"inherited_permissions,omitempty"`
	IsMFAEnabled         bool       `json:"is_mfa_enabled"`
}

// GetDisplayName returns the best available display name for the user
func (u *User) GetDisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name != "" {
		return name
	}
	return u.Username
}

// UserRequest is the body for creating or replacing a user
type UserRequest struct {
	Username        string   `json:"username"`
	Email           string   `json:"email,omitempty"`
	Password        string   `json:"password,omitempty"`
	FirstName       string   `json:"first_name,omitempty"`
	LastName        string   `json:"last_name,omitempty"`
	IsStaff         *bool    `json:"is_staff,omitempty"`
	IsActive        *bool    `json:"is_active,omitempty"`
	IsSuperuser     *bool    `json:"is_superuser,omitempty"`
	Groups          []int    `json:"groups,omitempty"`
	UserPermissions []string `json:"user_permissions,omitempty"`
}

// UserPatch is a partial user update
type UserPatch struct {
	Username        *string   `json:"username,omitempty"`
	Email           *string   `json:"email,omitempty"`
	Password        *string   `json:"password,omitempty"`
	FirstName       *string   `json:"first_name,omitempty"`
	LastName        *string   `json:"last_name,omitempty"`
	IsStaff         *bool     `json:"is_staff,omitempty"`
	IsActive        *bool     `json:"is_active,omitempty"`
	IsSuperuser     *bool     `json:"is_superuser,omitempty"`
	Groups          *[]int    `json:"groups,omitempty"`
	UserPermissions *[]string `json:"user_permissions,omitempty"`
}

// UserListQuery filters the user list
type UserListQuery struct {
	ListQuery
	UsernameContains string `url:"username__icontains,omitempty"`
	UsernameExact    string `url:"username__iexact,omitempty"`
}

// TokenRequest holds the credentials exchanged for a token
type TokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	// Code is the TOTP code for accounts with MFA enabled
	Code string `json:"code,omitempty"`
}

// TokenResponse carries an API token
type TokenResponse struct {
	Token string `json:"token"`
}
