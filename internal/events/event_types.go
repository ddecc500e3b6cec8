package events

import (
	"time"

	"github.com/spec-kit/jobcard-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventJobCardCreated         EventType = "job_card_created"
	EventJobCardStatusChanged   EventType = "job_card_status_changed"
	EventJobCardPriorityChanged EventType = "job_card_priority_changed"
	EventJobCardAssigned        EventType = "job_card_assigned"
	EventJobCardNoteAdded       EventType = "job_card_note_added"
	EventJobCardOverdue         EventType = "job_card_overdue"
)

// Event represents a domain event emitted by services. ActorID is nil for
// system-generated events such as overdue sweeps.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	JobCardID string    `json:"job_card_id"`
	ActorID   *string   `json:"actor_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// JobCardCreatedPayload payload.
type JobCardCreatedPayload struct {
	Reference    string                 `json:"reference"`
	DepartmentID string                 `json:"department_id"`
	SiteID       *string                `json:"site_id,omitempty"`
	Priority     domain.JobCardPriority `json:"priority"`
	Title        string                 `json:"title"`
}

// JobCardStatusChangedPayload payload.
type JobCardStatusChangedPayload struct {
	OldStatus domain.JobCardStatus `json:"old_status"`
	NewStatus domain.JobCardStatus `json:"new_status"`
	Comment   string               `json:"comment,omitempty"`
}

// JobCardPriorityChangedPayload payload.
type JobCardPriorityChangedPayload struct {
	OldPriority domain.JobCardPriority `json:"old_priority"`
	NewPriority domain.JobCardPriority `json:"new_priority"`
}

// JobCardAssignedPayload payload.
type JobCardAssignedPayload struct {
	AssigneeID         *string `json:"assignee_id,omitempty"`
	PreviousAssigneeID *string `json:"previous_assignee_id,omitempty"`
}

// JobCardNoteAddedPayload payload.
type JobCardNoteAddedPayload struct {
	NoteID      string                 `json:"note_id"`
	NoteType    domain.JobCardNoteType `json:"note_type"`
	AuthorID    string                 `json:"author_id"`
	BodyPreview string                 `json:"body_preview"`
}

// JobCardOverduePayload payload.
type JobCardOverduePayload struct {
	Reference string               `json:"reference"`
	DueAt     time.Time            `json:"due_at"`
	Status    domain.JobCardStatus `json:"status"`
}
