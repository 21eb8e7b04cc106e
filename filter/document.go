package filter

import (
	"time"

	"github.com/s0up4200/paperctl/paperless"
)

// Document is the view of a Paperless document that filter expressions see.
// Related objects are resolved to their names.
type Document struct {
	ID               int
	Title            string
	Content          string
	Created          time.Time
	Added            time.Time
	Modified         time.Time
	TagIDs           []int
	TagNames         []string
	Correspondent    string
	DocumentType     string
	ASN              int
	OriginalFileName string
	MimeType         string
	PageCount        int
	NoteCount        int
	Owner            int
}

// Names resolves object ids to names
type Names struct {
	Tags           map[int]string
	Correspondents map[int]string
	DocumentTypes  map[int]string
}

// NewDocument builds the filter view of doc. names may be nil, in which case
// only ids are available.
func NewDocument(doc *paperless.Document, names *Names) Document {
	if names == nil {
		names = &Names{}
	}

	d := Document{
		ID:               doc.ID,
		Title:            doc.Title,
		Content:          doc.Content,
		Created:          doc.CreatedTime(),
		TagIDs:           doc.Tags,
		TagNames:         make([]string, 0, len(doc.Tags)),
		OriginalFileName: doc.OriginalFileName,
		MimeType:         doc.MimeType,
		NoteCount:        len(doc.Notes),
	}
	if doc.Added != nil {
		d.Added = *doc.Added
	}
	if doc.Modified != nil {
		d.Modified = *doc.Modified
	}
	if doc.ArchiveSerialNumber != nil {
		d.ASN = *doc.ArchiveSerialNumber
	}
	if doc.PageCount != nil {
		d.PageCount = *doc.PageCount
	}
	if doc.Owner != nil {
		d.Owner = *doc.Owner
	}
	for _, id := range doc.Tags {
		if name, ok := names.Tags[id]; ok {
			d.TagNames = append(d.TagNames, name)
		}
	}
	if doc.Correspondent != nil {
		d.Correspondent = names.Correspondents[*doc.Correspondent]
	}
	if doc.DocumentType != nil {
		d.DocumentType = names.DocumentTypes[*doc.DocumentType]
	}
	return d
}
