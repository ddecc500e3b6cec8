package domain

import "time"

// JobCardStatus enumerates lifecycle states for job cards.
type JobCardStatus string

const (
	JobCardStatusOpen       JobCardStatus = "OPEN"
	JobCardStatusInProgress JobCardStatus = "IN_PROGRESS"
	JobCardStatusOnHold     JobCardStatus = "ON_HOLD"
	JobCardStatusCompleted  JobCardStatus = "COMPLETED"
	JobCardStatusCancelled  JobCardStatus = "CANCELLED"
)

// JobCardPriority enumerates scheduling urgency.
type JobCardPriority string

const (
	JobCardPriorityLow    JobCardPriority = "LOW"
	JobCardPriorityMedium JobCardPriority = "MEDIUM"
	JobCardPriorityHigh   JobCardPriority = "HIGH"
	JobCardPriorityUrgent JobCardPriority = "URGENT"
)

// JobCard is the aggregate for field-service work orders.
type JobCard struct {
	ID           string
	Reference    string
	CreatedByID  string
	DepartmentID string
	SiteID       *string
	AssigneeID   *string
	Title        string
	Details      string
	Status       JobCardStatus
	Priority     JobCardPriority
	Tags         []string
	DueAt        *time.Time
	CompletedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
