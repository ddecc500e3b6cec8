package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/jobcard-service/internal/auth"
	"github.com/spec-kit/jobcard-service/internal/config"
	"github.com/spec-kit/jobcard-service/internal/domain"
	"github.com/spec-kit/jobcard-service/internal/repository"
	apperrors "github.com/spec-kit/jobcard-service/pkg/util/errorutil"
)

// AuthService coordinates login, token refresh and password flows.
type AuthService struct {
	employees  repository.EmployeeRepository
	resets     repository.PasswordResetRepository
	tokens     *auth.TokenManager
	limiter    *auth.LoginLimiter
	bcryptCost int
	resetTTL   time.Duration
	logger     *zap.Logger
}

// AuthDependencies encapsulates collaborator requirements for auth service.
type AuthDependencies struct {
	EmployeeRepo      repository.EmployeeRepository
	PasswordResetRepo repository.PasswordResetRepository
	LoginLimiter      *auth.LoginLimiter
	Logger            *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		employees:  deps.EmployeeRepo,
		resets:     deps.PasswordResetRepo,
		tokens:     auth.NewTokenManager(cfg.Auth, logger),
		limiter:    deps.LoginLimiter,
		bcryptCost: cfg.Auth.BcryptCost,
		resetTTL:   cfg.Auth.PasswordResetTTL(),
		logger:     logger,
	}
}

// Login authenticates an employee by email and issues an access/refresh pair.
// Failed attempts count against the per-identity budget; a successful login
// resets it.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Employee, *domain.TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if err := s.limiter.Enforce(ctx, email); err != nil {
		return nil, nil, err
	}

	employee, err := s.employees.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, nil, err
	}
	if !employee.Active {
		return nil, nil, apperrors.NewForbidden("account disabled")
	}
	if err := auth.ComparePassword(employee.PasswordHash, password); err != nil {
		return nil, nil, apperrors.NewUnauthorized("invalid credentials")
	}

	s.limiter.Clear(ctx, email)

	pair, err := s.issuePair(employee.Email)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("employee logged in", zap.String("employee_id", employee.ID))
	return employee, pair, nil
}

// Refresh mints a replacement access token. The refresh token must pass full
// validation and carry the refresh marker; the presented access token must be
// stale (signature-agnostic expiry check) and name the same identity.
func (s *AuthService) Refresh(ctx context.Context, accessToken, refreshToken string) (string, time.Time, error) {
	if status := s.tokens.Validate(refreshToken); status != auth.StatusValid {
		return "", time.Time{}, apperrors.NewUnauthorized("invalid refresh token")
	}
	claims, err := s.tokens.ParseToken(refreshToken)
	if err != nil {
		return "", time.Time{}, apperrors.NewUnauthorized("invalid refresh token")
	}
	if claims.TokenType != auth.TokenTypeRefresh {
		return "", time.Time{}, apperrors.NewUnauthorized("refresh token required")
	}

	if accessToken != "" {
		if !s.tokens.IsExpired(accessToken) {
			return "", time.Time{}, apperrors.NewConflict("access token still valid", nil)
		}
		identity, err := s.tokens.ExtractIdentity(accessToken)
		if err != nil {
			return "", time.Time{}, apperrors.NewUnauthorized("invalid access token")
		}
		if identity != claims.Subject {
			return "", time.Time{}, apperrors.NewUnauthorized("token subject mismatch")
		}
	}

	employee, err := s.employees.GetByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", time.Time{}, apperrors.NewUnauthorized("unknown identity")
		}
		return "", time.Time{}, err
	}
	if !employee.Active {
		return "", time.Time{}, apperrors.NewForbidden("account disabled")
	}

	token, exp, err := s.tokens.IssueAccessToken(employee.Email)
	if err != nil {
		return "", time.Time{}, err
	}
	s.logger.Debug("access token refreshed", zap.String("employee_id", employee.ID))
	return token, exp, nil
}

// Logout currently no-ops for the stateless token approach.
func (s *AuthService) Logout(_ context.Context, _ string) error {
	return nil
}

// RequestPasswordReset persists a reset token for the employee email.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*repository.PasswordResetToken, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	employee, err := s.employees.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("employee", map[string]any{"email": email})
		}
		return nil, err
	}
	if !employee.Active {
		return nil, apperrors.NewForbidden("account disabled")
	}

	token := &repository.PasswordResetToken{
		EmployeeID: employee.ID,
		Token:      uuid.NewString(),
		ExpiresAt:  time.Now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

// ConfirmPasswordReset validates the reset token and updates the password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	token, err := s.resets.GetByToken(ctx, tokenStr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("invalid reset token")
		}
		return err
	}
	if token.UsedAt != nil || time.Now().After(token.ExpiresAt) {
		return apperrors.NewUnauthorized("reset token expired or used")
	}

	// Consume first so of two concurrent redemptions only one proceeds to
	// change the password.
	if err := s.resets.Consume(ctx, token.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("reset token expired or used")
		}
		return err
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}

	employee, err := s.employees.GetByID(ctx, token.EmployeeID)
	if err != nil {
		return err
	}
	employee.PasswordHash = hash
	return s.employees.Update(ctx, employee)
}

// ChangePassword verifies the current password before updating to a new hash.
func (s *AuthService) ChangePassword(ctx context.Context, employeeID, currentPassword, newPassword string) error {
	employee, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		return err
	}
	if err := auth.ComparePassword(employee.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	employee.PasswordHash = hash
	return s.employees.Update(ctx, employee)
}

func (s *AuthService) issuePair(identity string) (*domain.TokenPair, error) {
	access, accessExp, err := s.tokens.IssueAccessToken(identity)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.tokens.IssueRefreshToken(identity)
	if err != nil {
		return nil, err
	}
	return &domain.TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}
