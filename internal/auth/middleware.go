package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/jobcard-service/internal/domain"
	"github.com/spec-kit/jobcard-service/internal/repository"
	apperrors "github.com/spec-kit/jobcard-service/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	Employee *domain.Employee
}

// Middleware validates bearer tokens and loads the employee principal.
type Middleware struct {
	tokens    *TokenManager
	employees repository.EmployeeRepository
}

// NewMiddleware constructs middleware.
func NewMiddleware(tokens *TokenManager, employees repository.EmployeeRepository) *Middleware {
	return &Middleware{tokens: tokens, employees: employees}
}

// Handle enforces authentication for protected routes. Only access tokens
// authorize requests; a refresh token presented here is rejected even though
// it carries a verifiable signature.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}
	if claims.TokenType != TokenTypeAccess {
		return apperrors.NewUnauthorized("access token required")
	}

	employee, err := m.employees.GetByEmail(c.UserContext(), claims.Subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("unknown identity")
		}
		return apperrors.MapError(err)
	}
	if !employee.Active {
		return apperrors.NewForbidden("account disabled")
	}

	c.Locals(principalKey, &Principal{Employee: employee})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated employee.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
