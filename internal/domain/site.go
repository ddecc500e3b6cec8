package domain

import "time"

// Site represents a customer location where field work is carried out.
type Site struct {
	ID        string
	Name      string
	Address   string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
