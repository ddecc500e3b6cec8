package service

import (
	"context"
	"strings"

	"github.com/spec-kit/jobcard-service/internal/auth"
	"github.com/spec-kit/jobcard-service/internal/config"
	"github.com/spec-kit/jobcard-service/internal/domain"
	"github.com/spec-kit/jobcard-service/internal/repository"
	apperrors "github.com/spec-kit/jobcard-service/pkg/util/errorutil"
)

// OrgService manages departments, sites and employee accounts.
type OrgService struct {
	departments repository.DepartmentRepository
	sites       repository.SiteRepository
	employees   repository.EmployeeRepository
	bcryptCost  int
}

// OrgDependencies encapsulates repositories required for org management.
type OrgDependencies struct {
	DepartmentRepo repository.DepartmentRepository
	SiteRepo       repository.SiteRepository
	EmployeeRepo   repository.EmployeeRepository
}

// EmployeeCreateInput describes a new employee account.
type EmployeeCreateInput struct {
	Name         string
	Email        string
	Password     string
	Role         domain.EmployeeRole
	DepartmentID *string
}

// EmployeeUpdateInput describes mutable employee fields.
type EmployeeUpdateInput struct {
	Name         string
	Email        string
	Role         domain.EmployeeRole
	DepartmentID *string
	Active       bool
}

// EmployeeListFilters define listing parameters.
type EmployeeListFilters struct {
	Role         *domain.EmployeeRole
	DepartmentID *string
	Active       *bool
	Limit        int
	Offset       int
}

// NewOrgService constructs the service.
func NewOrgService(cfg config.Config, deps OrgDependencies) *OrgService {
	return &OrgService{
		departments: deps.DepartmentRepo,
		sites:       deps.SiteRepo,
		employees:   deps.EmployeeRepo,
		bcryptCost:  cfg.Auth.BcryptCost,
	}
}

func requireAdmin(actor *domain.Employee) error {
	if actor == nil || actor.Role != domain.EmployeeRoleAdmin {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

// CreateDepartment creates a new department.
func (s *OrgService) CreateDepartment(ctx context.Context, actor *domain.Employee, name, description string) (*domain.Department, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	dept := &domain.Department{
		Name:        name,
		Description: description,
		IsActive:    true,
	}
	if err := s.departments.Create(ctx, dept); err != nil {
		return nil, apperrors.MapError(err)
	}
	return dept, nil
}

// ListDepartments returns departments (optionally inactive).
func (s *OrgService) ListDepartments(ctx context.Context, actor *domain.Employee, includeInactive bool) ([]domain.Department, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.departments.List(ctx, includeInactive)
}

// GetDepartmentByID fetches a department.
func (s *OrgService) GetDepartmentByID(ctx context.Context, actor *domain.Employee, id string) (*domain.Department, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	dept, err := s.departments.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return dept, nil
}

// UpdateDepartment modifies department metadata.
func (s *OrgService) UpdateDepartment(ctx context.Context, actor *domain.Employee, dept *domain.Department) (*domain.Department, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.departments.Update(ctx, dept); err != nil {
		return nil, apperrors.MapError(err)
	}
	return dept, nil
}

// CreateSite registers a work site.
func (s *OrgService) CreateSite(ctx context.Context, actor *domain.Employee, name, address string) (*domain.Site, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	site := &domain.Site{
		Name:     name,
		Address:  address,
		IsActive: true,
	}
	if err := s.sites.Create(ctx, site); err != nil {
		return nil, apperrors.MapError(err)
	}
	return site, nil
}

// ListSites returns sites (optionally inactive).
func (s *OrgService) ListSites(ctx context.Context, actor *domain.Employee, includeInactive bool) ([]domain.Site, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.sites.List(ctx, includeInactive)
}

// GetSiteByID fetches a site.
func (s *OrgService) GetSiteByID(ctx context.Context, actor *domain.Employee, id string) (*domain.Site, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	site, err := s.sites.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return site, nil
}

// UpdateSite modifies site metadata.
func (s *OrgService) UpdateSite(ctx context.Context, actor *domain.Employee, site *domain.Site) (*domain.Site, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.sites.Update(ctx, site); err != nil {
		return nil, apperrors.MapError(err)
	}
	return site, nil
}

// CreateEmployee adds a new employee account.
func (s *OrgService) CreateEmployee(ctx context.Context, actor *domain.Employee, input EmployeeCreateInput) (*domain.Employee, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	exists, err := s.employees.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if exists {
		return nil, apperrors.NewConflict("employee email already exists", map[string]any{"email": email})
	}

	if input.DepartmentID != nil {
		dept, err := s.departments.GetByID(ctx, *input.DepartmentID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if !dept.IsActive {
			return nil, apperrors.NewConflict("department inactive", map[string]any{"department_id": *input.DepartmentID})
		}
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	employee := &domain.Employee{
		Name:         input.Name,
		Email:        email,
		PasswordHash: hash,
		Role:         input.Role,
		DepartmentID: input.DepartmentID,
		Active:       true,
	}
	if err := s.employees.Create(ctx, employee); err != nil {
		return nil, apperrors.MapError(err)
	}
	return employee, nil
}

// ListEmployees lists employees. Admins see everyone; supervisors are scoped
// to their own department.
func (s *OrgService) ListEmployees(ctx context.Context, actor *domain.Employee, filters EmployeeListFilters) ([]domain.Employee, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	switch actor.Role {
	case domain.EmployeeRoleAdmin:
	case domain.EmployeeRoleSupervisor:
		filters.DepartmentID = actor.DepartmentID
	default:
		return nil, apperrors.NewForbidden("supervisor role required")
	}
	repoFilter := repository.EmployeeFilter{
		Role:         filters.Role,
		DepartmentID: filters.DepartmentID,
		Active:       filters.Active,
		Limit:        filters.Limit,
		Offset:       filters.Offset,
	}
	return s.employees.List(ctx, repoFilter)
}

// GetEmployeeByID fetches an employee. Supervisors may only read employees in
// their own department.
func (s *OrgService) GetEmployeeByID(ctx context.Context, actor *domain.Employee, id string) (*domain.Employee, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if actor.Role != domain.EmployeeRoleAdmin && actor.Role != domain.EmployeeRoleSupervisor {
		return nil, apperrors.NewForbidden("supervisor role required")
	}
	employee, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if actor.Role == domain.EmployeeRoleSupervisor {
		if actor.DepartmentID == nil || employee.DepartmentID == nil || *actor.DepartmentID != *employee.DepartmentID {
			return nil, apperrors.NewForbidden("employee outside your department")
		}
	}
	return employee, nil
}

// UpdateEmployee updates account details.
func (s *OrgService) UpdateEmployee(ctx context.Context, actor *domain.Employee, employeeID string, input EmployeeUpdateInput) (*domain.Employee, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	employee, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email != "" && email != employee.Email {
		exists, err := s.employees.ExistsByEmail(ctx, email)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if exists {
			return nil, apperrors.NewConflict("employee email already exists", map[string]any{"email": email})
		}
		employee.Email = email
	}

	if input.DepartmentID != nil {
		dept, err := s.departments.GetByID(ctx, *input.DepartmentID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if !dept.IsActive {
			return nil, apperrors.NewConflict("department inactive", map[string]any{"department_id": *input.DepartmentID})
		}
	}

	employee.Name = input.Name
	employee.Role = input.Role
	employee.DepartmentID = input.DepartmentID
	employee.Active = input.Active

	if err := s.employees.Update(ctx, employee); err != nil {
		return nil, apperrors.MapError(err)
	}
	return employee, nil
}
