package dto

import (
	"time"

	"github.com/spec-kit/jobcard-service/internal/domain"
)

// EmployeeResponse is the wire form of an employee account. The password hash
// never leaves the service.
type EmployeeResponse struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Email        string              `json:"email"`
	Role         domain.EmployeeRole `json:"role"`
	DepartmentID *string             `json:"department_id"`
	Active       bool                `json:"active"`
	CreatedAt    time.Time           `json:"created_at"`
}

// CreateEmployeeRequest payload.
type CreateEmployeeRequest struct {
	Name         string              `json:"name" validate:"required"`
	Email        string              `json:"email" validate:"required,email"`
	Password     string              `json:"password" validate:"required,min=8"`
	Role         domain.EmployeeRole `json:"role" validate:"required,oneof=TECHNICIAN SUPERVISOR ADMIN"`
	DepartmentID *string             `json:"department_id"`
}

// UpdateEmployeeRequest payload.
type UpdateEmployeeRequest struct {
	Name         string              `json:"name" validate:"required"`
	Email        string              `json:"email" validate:"omitempty,email"`
	Role         domain.EmployeeRole `json:"role" validate:"required,oneof=TECHNICIAN SUPERVISOR ADMIN"`
	DepartmentID *string             `json:"department_id"`
	Active       bool                `json:"active"`
}

// CreateDepartmentRequest payload.
type CreateDepartmentRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// UpdateDepartmentRequest payload.
type UpdateDepartmentRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

// DepartmentResponse wire form.
type DepartmentResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateSiteRequest payload.
type CreateSiteRequest struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address"`
}

// UpdateSiteRequest payload.
type UpdateSiteRequest struct {
	Name     string `json:"name" validate:"required"`
	Address  string `json:"address"`
	IsActive bool   `json:"is_active"`
}

// SiteResponse wire form.
type SiteResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
