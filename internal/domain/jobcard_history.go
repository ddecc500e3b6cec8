package domain

import "time"

// JobCardChangeType captures what changed in a history entry.
type JobCardChangeType string

const (
	ChangeTypeStatus     JobCardChangeType = "STATUS_CHANGE"
	ChangeTypeAssignee   JobCardChangeType = "ASSIGNEE_CHANGE"
	ChangeTypePriority   JobCardChangeType = "PRIORITY_CHANGE"
	ChangeTypeSite       JobCardChangeType = "SITE_CHANGE"
	ChangeTypeDepartment JobCardChangeType = "DEPARTMENT_CHANGE"
	ChangeTypeDueDate    JobCardChangeType = "DUE_DATE_CHANGE"
)

// JobCardHistory is an immutable audit trail entry. ChangedByID is nil for
// changes applied by background workers.
type JobCardHistory struct {
	ID          string
	JobCardID   string
	ChangedByID *string
	ChangeType  JobCardChangeType
	OldValue    map[string]any
	NewValue    map[string]any
	CreatedAt   time.Time
}
