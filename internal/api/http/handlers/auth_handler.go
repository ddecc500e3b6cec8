package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/jobcard-service/internal/api/dto"
	"github.com/spec-kit/jobcard-service/internal/auth"
	"github.com/spec-kit/jobcard-service/internal/domain"
	"github.com/spec-kit/jobcard-service/internal/service"
	"github.com/spec-kit/jobcard-service/internal/validation"
	apperrors "github.com/spec-kit/jobcard-service/pkg/util/errorutil"
)

// AuthHandler exposes authentication endpoints for employees.
type AuthHandler struct {
	auth     *service.AuthService
	validate *validation.Validator
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, validate *validation.Validator) *AuthHandler {
	return &AuthHandler{auth: authService, validate: validate}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.validate.Check(&req); err != nil {
		return err
	}

	employee, pair, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		Employee:     employeeResponse(employee),
		AccessToken:  dto.TokenResponse{Token: pair.AccessToken, ExpiresAt: pair.AccessExpiresAt},
		RefreshToken: dto.TokenResponse{Token: pair.RefreshToken, ExpiresAt: pair.RefreshExpiresAt},
	}})
}

// Refresh handles POST /auth/refresh. A valid refresh token mints a fresh
// access token; the old access token may accompany it for subject matching.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.validate.Check(&req); err != nil {
		return err
	}

	token, exp, err := h.auth.Refresh(c.UserContext(), req.AccessToken, req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TokenResponse{Token: token, ExpiresAt: exp}})
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var token string
	if parts := strings.SplitN(c.Get("Authorization"), " ", 2); len(parts) == 2 {
		token = parts[1]
	}
	if err := h.auth.Logout(c.UserContext(), token); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "logged_out"}})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	employee, err := requireEmployee(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": employeeResponse(employee)})
}

// RequestPasswordReset handles POST /auth/password/reset/request.
func (h *AuthHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.validate.Check(&req); err != nil {
		return err
	}

	token, err := h.auth.RequestPasswordReset(c.UserContext(), req.Email)
	if err != nil {
		return err
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"data": fiber.Map{
		"reset_token": token.Token,
		"expires_at":  token.ExpiresAt,
	}})
}

// ConfirmPasswordReset handles POST /auth/password/reset/confirm.
func (h *AuthHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.validate.Check(&req); err != nil {
		return err
	}

	if err := h.auth.ConfirmPasswordReset(c.UserContext(), req.Token, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "password_reset"}})
}

// ChangePassword handles POST /auth/password/change.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	employee, err := requireEmployee(c)
	if err != nil {
		return err
	}
	var req dto.PasswordChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.validate.Check(&req); err != nil {
		return err
	}

	if err := h.auth.ChangePassword(c.UserContext(), employee.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "password_changed"}})
}

func requireEmployee(c *fiber.Ctx) (*domain.Employee, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Employee == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal.Employee, nil
}
