package domain

import "time"

// Department represents a trade or organizational unit employees belong to.
type Department struct {
	ID          string
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
