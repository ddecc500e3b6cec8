package domain

import "time"

// EmployeeRole enumerates workforce roles.
type EmployeeRole string

const (
	EmployeeRoleTechnician EmployeeRole = "TECHNICIAN"
	EmployeeRoleSupervisor EmployeeRole = "SUPERVISOR"
	EmployeeRoleAdmin      EmployeeRole = "ADMIN"
)

// Employee models a workforce member who authenticates against the service.
// Email doubles as the login identity carried in token subjects.
type Employee struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         EmployeeRole
	DepartmentID *string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
