package domain

import "time"

// JobCardNoteType differentiates work logs from status commentary.
type JobCardNoteType string

const (
	NoteTypeWorkLog       JobCardNoteType = "WORK_LOG"
	NoteTypeStatusComment JobCardNoteType = "STATUS_COMMENT"
	NoteTypeSystemEvent   JobCardNoteType = "SYSTEM_EVENT"
)

// JobCardNote captures entries logged against a job card. System-generated
// entries carry a nil AuthorID.
type JobCardNote struct {
	ID          string
	JobCardID   string
	AuthorID    *string
	NoteType    JobCardNoteType
	Body        string
	Attachments []AttachmentReference
	CreatedAt   time.Time
}

// AttachmentReference stores metadata for files attached to a note. The blob
// itself lives in external storage under StorageKey.
type AttachmentReference struct {
	ID            string
	JobCardNoteID string
	StorageKey    string
	FileName      string
	MimeType      string
	SizeBytes     int64
	CreatedAt     time.Time
}
