package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/jobcard-service/internal/api/dto"
	"github.com/spec-kit/jobcard-service/internal/domain"
	"github.com/spec-kit/jobcard-service/internal/service"
	"github.com/spec-kit/jobcard-service/internal/validation"
	apperrors "github.com/spec-kit/jobcard-service/pkg/util/errorutil"
)

// OrgHandler exposes department, site and employee management endpoints.
type OrgHandler struct {
	org      *service.OrgService
	validate *validation.Validator
}

// NewOrgHandler constructs handler.
func NewOrgHandler(orgService *service.OrgService, validate *validation.Validator) *OrgHandler {
	return &OrgHandler{org: orgService, validate: validate}
}

// CreateDepartment handles POST /org/departments.
func (h *OrgHandler) CreateDepartment(c *fiber.Ctx) error {
	actor, err := requireEmployee(c)
	if err != nil {
		return err
	}
	var req dto.CreateDepartmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.validate.Check(&req); err != nil {
		return err
	}
	dept, err := h.org.CreateDepartment(c.UserContext(), actor, req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": departmentResponse(dept)})
}

// ListDepartments handles GET /org/departments.
func (h *OrgHandler) ListDepartments(c *fiber.Ctx) error {
	actor, err := requireEmployee(c)
	if err != nil {
		return err
	}
	depts, err := h.org.ListDepartments(c.UserContext(), actor, parseBoolQuery(c, "include_inactive", false))
	if err != nil {
		return err
	}
	resp := make([]dto.DepartmentResponse, 0, len(depts))
	for i := range depts {
		resp = append(resp, departmentResponse(&depts[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// GetDepartment handles GET /org/departments/:id.
func (h *OrgHandler) GetDepartment(c *fiber.Ctx) error {
	actor, err := requireEmployee(c)
	if err != nil {
		return err
	}
	dept, err := h.org.GetDepartmentByID(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": departmentResponse(dept)})
}

// UpdateDepartment handles PUT /org/departments/:id.
func (h *OrgHandler) UpdateDepartment(c *fiber.Ctx) error {
	actor, err := requireEmployee(c)
	if err != nil {
		return err
	}
	dept, err := h.org.GetDepartmentByID(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	var req dto.UpdateDepartmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.validate.Check(&req); err != nil {
		return err
	}
	dept.Name = req.Name
	dept.Description = req.Description
	dept.IsActive = req.IsActive
	updated, err := h.org.UpdateDepartment(c.UserContext(), actor, dept)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": departmentResponse(updated)})
}

// CreateSite handles POST /org/sites.
func (h *OrgHandler) CreateSite(c *fiber.Ctx) error {
	actor, err := requireEmployee(c)
	if err != nil {
		return err
	}
	var req dto.CreateSiteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.validate.Check(&req); err != nil {
		return err
	}
	site, err := h.org.CreateSite(c.UserContext(), actor, req.Name, req.Address)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": siteResponse(site)})
}

// ListSites handles GET /org/sites.
func (h *OrgHandler) ListSites(c *fiber.Ctx) error {
	actor, err := requireEmployee(c)
	if err != nil {
		return err
	}
	sites, err := h.org.ListSites(c.UserContext(), actor, parseBoolQuery(c, "include_inactive", false))
	if err != nil {
		return err
	}
	resp := make([]dto.SiteResponse, 0, len(sites))
	for i := range sites {
		resp = append(resp, siteResponse(&sites[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// GetSite handles GET /org/sites/:id.
func (h *OrgHandler) GetSite(c *fiber.Ctx) error {
	actor, err := requireEmployee(c)
	if err != nil {
		return err
	}
	site, err := h.org.GetSiteByID(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": siteResponse(site)})
}

// UpdateSite handles PUT /org/sites/:id.
func (h *OrgHandler) UpdateSite(c *fiber.Ctx) error {
	actor, err := requireEmployee(c)
	if err != nil {
		return err
	}
	site, err := h.org.GetSiteByID(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	var req dto.UpdateSiteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.validate.Check(&req); err != nil {
		return err
	}
	site.Name = req.Name
	site.Address = req.Address
	site.IsActive = req.IsActive
	updated, err := h.org.UpdateSite(c.UserContext(), actor, site)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": siteResponse(updated)})
}

// CreateEmployee handles POST /org/employees.
func (h *OrgHandler) CreateEmployee(c *fiber.Ctx) error {
	actor, err := requireEmployee(c)
	if err != nil {
		return err
	}
	var req dto.CreateEmployeeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.validate.Check(&req); err != nil {
		return err
	}
	employee, err := h.org.CreateEmployee(c.UserContext(), actor, service.EmployeeCreateInput{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		Role:         req.Role,
		DepartmentID: req.DepartmentID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": employeeResponse(employee)})
}

// ListEmployees handles GET /org/employees.
func (h *OrgHandler) ListEmployees(c *fiber.Ctx) error {
	actor, err := requireEmployee(c)
	if err != nil {
		return err
	}
	list, err := h.org.ListEmployees(c.UserContext(), actor, parseEmployeeListFilters(c))
	if err != nil {
		return err
	}
	resp := make([]dto.EmployeeResponse, 0, len(list))
	for i := range list {
		resp = append(resp, employeeResponse(&list[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// GetEmployee handles GET /org/employees/:id.
func (h *OrgHandler) GetEmployee(c *fiber.Ctx) error {
	actor, err := requireEmployee(c)
	if err != nil {
		return err
	}
	employee, err := h.org.GetEmployeeByID(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": employeeResponse(employee)})
}

// UpdateEmployee handles PUT /org/employees/:id.
func (h *OrgHandler) UpdateEmployee(c *fiber.Ctx) error {
	actor, err := requireEmployee(c)
	if err != nil {
		return err
	}
	var req dto.UpdateEmployeeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.validate.Check(&req); err != nil {
		return err
	}
	updated, err := h.org.UpdateEmployee(c.UserContext(), actor, c.Params("id"), service.EmployeeUpdateInput{
		Name:         req.Name,
		Email:        req.Email,
		Role:         req.Role,
		DepartmentID: req.DepartmentID,
		Active:       req.Active,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": employeeResponse(updated)})
}

func parseEmployeeListFilters(c *fiber.Ctx) service.EmployeeListFilters {
	var filters service.EmployeeListFilters
	if roleStr := c.Query("role"); roleStr != "" {
		role := domain.EmployeeRole(roleStr)
		filters.Role = &role
	}
	if deptID := c.Query("department_id"); deptID != "" {
		filters.DepartmentID = &deptID
	}
	if active := c.Query("active"); active != "" {
		val := parseBoolQuery(c, "active", true)
		filters.Active = &val
	}
	page := parseIntQuery(c, "page", 1)
	pageSize := parseIntQuery(c, "page_size", 50)
	filters.Offset = (page - 1) * pageSize
	filters.Limit = pageSize
	return filters
}

func parseBoolQuery(c *fiber.Ctx, key string, defaultVal bool) bool {
	if val := c.Query(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func parseIntQuery(c *fiber.Ctx, key string, defaultVal int) int {
	if val := c.Query(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultVal
}

func departmentResponse(dept *domain.Department) dto.DepartmentResponse {
	return dto.DepartmentResponse{
		ID:          dept.ID,
		Name:        dept.Name,
		Description: dept.Description,
		IsActive:    dept.IsActive,
		CreatedAt:   dept.CreatedAt,
	}
}

func siteResponse(site *domain.Site) dto.SiteResponse {
	return dto.SiteResponse{
		ID:        site.ID,
		Name:      site.Name,
		Address:   site.Address,
		IsActive:  site.IsActive,
		CreatedAt: site.CreatedAt,
	}
}

func employeeResponse(employee *domain.Employee) dto.EmployeeResponse {
	return dto.EmployeeResponse{
		ID:           employee.ID,
		Name:         employee.Name,
		Email:        employee.Email,
		Role:         employee.Role,
		DepartmentID: employee.DepartmentID,
		Active:       employee.Active,
		CreatedAt:    employee.CreatedAt,
	}
}
