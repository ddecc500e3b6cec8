package dto

import (
	"time"

	"github.com/spec-kit/jobcard-service/internal/domain"
)

// CreateJobCardRequest payload.
type CreateJobCardRequest struct {
	DepartmentID string                 `json:"department_id" validate:"required"`
	SiteID       *string                `json:"site_id"`
	Title        string                 `json:"title" validate:"required,max=200"`
	Details      string                 `json:"details"`
	Priority     domain.JobCardPriority `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	Tags         []string               `json:"tags"`
	DueAt        *time.Time             `json:"due_at"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status  domain.JobCardStatus `json:"status" validate:"required,oneof=OPEN IN_PROGRESS ON_HOLD COMPLETED CANCELLED"`
	Comment string               `json:"comment"`
}

// UpdatePriorityRequest payload.
type UpdatePriorityRequest struct {
	Priority domain.JobCardPriority `json:"priority" validate:"required,oneof=LOW MEDIUM HIGH URGENT"`
}

// RescheduleRequest payload. A null due date clears the schedule.
type RescheduleRequest struct {
	DueAt *time.Time `json:"due_at"`
}

// ChangeSiteRequest payload. A null site detaches the card from any site.
type ChangeSiteRequest struct {
	SiteID *string `json:"site_id"`
}

// TransferDepartmentRequest payload.
type TransferDepartmentRequest struct {
	DepartmentID string `json:"department_id" validate:"required"`
}

// AssignRequest payload for direct assignment.
type AssignRequest struct {
	AssigneeID string `json:"assignee_id" validate:"required"`
}

// CreateNoteRequest payload. System-event notes cannot be created over the API.
type CreateNoteRequest struct {
	NoteType    domain.JobCardNoteType `json:"note_type" validate:"required,oneof=WORK_LOG STATUS_COMMENT"`
	Body        string                 `json:"body" validate:"required"`
	Attachments []AttachmentRequest    `json:"attachments"`
}

// AttachmentRequest describes attachment metadata supplied with a note. The
// blob itself is uploaded to external storage out of band.
type AttachmentRequest struct {
	StorageKey string `json:"storage_key" validate:"required"`
	FileName   string `json:"file_name" validate:"required"`
	MimeType   string `json:"mime_type"`
	SizeBytes  int64  `json:"size_bytes" validate:"gte=0"`
}

// JobCardSummary response for listings.
type JobCardSummary struct {
	ID           string                 `json:"id"`
	Reference    string                 `json:"reference"`
	DepartmentID string                 `json:"department_id"`
	SiteID       *string                `json:"site_id"`
	AssigneeID   *string                `json:"assignee_id"`
	Title        string                 `json:"title"`
	Status       domain.JobCardStatus   `json:"status"`
	Priority     domain.JobCardPriority `json:"priority"`
	Tags         []string               `json:"tags"`
	DueAt        *time.Time             `json:"due_at"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// JobCardDetailResponse provides the full job card with its notes.
type JobCardDetailResponse struct {
	ID           string                 `json:"id"`
	Reference    string                 `json:"reference"`
	CreatedByID  string                 `json:"created_by_id"`
	DepartmentID string                 `json:"department_id"`
	SiteID       *string                `json:"site_id"`
	AssigneeID   *string                `json:"assignee_id"`
	Title        string                 `json:"title"`
	Details      string                 `json:"details"`
	Status       domain.JobCardStatus   `json:"status"`
	Priority     domain.JobCardPriority `json:"priority"`
	Tags         []string               `json:"tags"`
	DueAt        *time.Time             `json:"due_at"`
	CompletedAt  *time.Time             `json:"completed_at"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
	Notes        []NoteResponse         `json:"notes"`
}

// NoteResponse represents a job card note.
type NoteResponse struct {
	ID          string                 `json:"id"`
	NoteType    domain.JobCardNoteType `json:"note_type"`
	AuthorID    *string                `json:"author_id"`
	Body        string                 `json:"body"`
	Attachments []AttachmentResponse   `json:"attachments"`
	CreatedAt   time.Time              `json:"created_at"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID         string `json:"id"`
	StorageKey string `json:"storage_key"`
	FileName   string `json:"file_name"`
	MimeType   string `json:"mime_type"`
	SizeBytes  int64  `json:"size_bytes"`
}

// HistoryResponse represents one audit trail entry.
type HistoryResponse struct {
	ID          string                   `json:"id"`
	ChangeType  domain.JobCardChangeType `json:"change_type"`
	ChangedByID *string                  `json:"changed_by_id"`
	OldValue    map[string]any           `json:"old_value"`
	NewValue    map[string]any           `json:"new_value"`
	CreatedAt   time.Time                `json:"created_at"`
}
