package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/jobcard-service/internal/config"
)

// TokenType marks which credential variant a token is. The marker travels in
// the claims and is the only thing distinguishing the two variants on the
// wire; lifetimes are configurable and must never be used to infer the type.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims describes the JWT payload. Subject carries the employee email.
type Claims struct {
	TokenType TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// Status classifies the outcome of validating a token.
type Status int

const (
	StatusValid Status = iota
	StatusExpired
	StatusBadSignature
	StatusMalformed
	StatusUnsupported
	StatusEmpty
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusExpired:
		return "expired"
	case StatusBadSignature:
		return "bad_signature"
	case StatusMalformed:
		return "malformed"
	case StatusUnsupported:
		return "unsupported"
	case StatusEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// TokenManager issues and verifies signed session credentials (JWT,
// HMAC-SHA256). It holds no mutable state beyond the immutable key and is
// safe for unlimited concurrent use.
type TokenManager struct {
	key        SigningKey
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// NewTokenManager builds a manager from auth configuration.
func NewTokenManager(cfg config.AuthConfig, logger *zap.Logger) *TokenManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenManager{
		key:        DeriveSigningKey(cfg.TokenSecret),
		accessTTL:  cfg.AccessTokenTTL(),
		refreshTTL: cfg.RefreshTokenTTL(),
		logger:     logger,
		now:        time.Now,
	}
}

// IssueAccessToken signs a short-lived token for per-request authorization.
func (tm *TokenManager) IssueAccessToken(identity string) (string, time.Time, error) {
	return tm.issue(identity, TokenTypeAccess, tm.accessTTL)
}

// IssueRefreshToken signs a long-lived token good only for minting new access
// tokens.
func (tm *TokenManager) IssueRefreshToken(identity string) (string, time.Time, error) {
	return tm.issue(identity, TokenTypeRefresh, tm.refreshTTL)
}

func (tm *TokenManager) issue(identity string, typ TokenType, ttl time.Duration) (string, time.Time, error) {
	issuedAt := tm.now()
	expiresAt := issuedAt.Add(ttl)
	claims := &Claims{
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(tm.key))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing %s token: %w", typ, err)
	}

	tm.logger.Debug("issued token",
		zap.String("subject", identity),
		zap.String("type", string(typ)),
		zap.Duration("ttl", ttl),
	)
	return signed, expiresAt, nil
}

// Validate classifies a token in a single verification pass. An expired but
// correctly signed token is StatusExpired, never StatusBadSignature, so
// refresh flows can tell "authenticated but stale" from "not authenticated".
func (tm *TokenManager) Validate(tokenStr string) Status {
	status := tm.classify(tokenStr)
	if status != StatusValid {
		tm.logger.Debug("token rejected", zap.String("reason", status.String()))
	}
	return status
}

// IsValid collapses Validate to a boolean for callers that only gate on
// usability. Failure detail stays in the logs, never in the return value.
func (tm *TokenManager) IsValid(tokenStr string) bool {
	return tm.Validate(tokenStr) == StatusValid
}

// IsExpired reports whether the token's validity window is over, without
// verifying the signature. Anything that cannot be decoded, or that carries
// no expiry, counts as expired: unparsable is untrusted, and untrusted is not
// usable.
func (tm *TokenManager) IsExpired(tokenStr string) bool {
	if strings.TrimSpace(tokenStr) == "" {
		return true
	}
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, &claims); err != nil {
		return true
	}
	if claims.ExpiresAt == nil {
		return true
	}
	return !tm.now().Before(claims.ExpiresAt.Time)
}

// ExtractIdentity returns the subject of a token whose signature verifies.
// Expiry is deliberately not checked: the refresh flow reads the identity out
// of an access token it has already established is stale.
func (tm *TokenManager) ExtractIdentity(tokenStr string) (string, error) {
	if strings.TrimSpace(tokenStr) == "" {
		return "", errors.New("empty token")
	}

	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, tm.keyFunc)
	if err != nil {
		return "", fmt.Errorf("extracting identity: %w", err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return "", errors.New("token carries no subject")
	}
	return claims.Subject, nil
}

// ParseToken returns the claims of a fully valid token. Middleware uses this
// to read the subject and type marker in one call.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(tokenStr, &claims, tm.keyFunc, jwt.WithTimeFunc(tm.now))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || !requiredClaimsPresent(&claims) {
		return nil, errors.New("invalid token claims")
	}
	return &claims, nil
}

func (tm *TokenManager) classify(tokenStr string) Status {
	if strings.TrimSpace(tokenStr) == "" {
		return StatusEmpty
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(tokenStr, &claims, tm.keyFunc, jwt.WithTimeFunc(tm.now))
	switch {
	case err == nil:
		if !requiredClaimsPresent(&claims) {
			return StatusMalformed
		}
		return StatusValid
	case errors.Is(err, jwt.ErrTokenMalformed):
		return StatusMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return StatusBadSignature
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return StatusUnsupported
	case errors.Is(err, jwt.ErrTokenExpired):
		// Signature has already been verified by the time expiry is checked.
		if !requiredClaimsPresent(&claims) {
			return StatusMalformed
		}
		return StatusExpired
	default:
		return StatusMalformed
	}
}

// keyFunc hands the parser the signing key after checking the token's
// algorithm. Anything other than HMAC-SHA256 is rejected before signature
// verification.
func (tm *TokenManager) keyFunc(token *jwt.Token) (any, error) {
	if token.Method != jwt.SigningMethodHS256 {
		return nil, fmt.Errorf("unexpected signing method %q", token.Method.Alg())
	}
	return []byte(tm.key), nil
}

func requiredClaimsPresent(claims *Claims) bool {
	if claims.Subject == "" || claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return false
	}
	return claims.TokenType == TokenTypeAccess || claims.TokenType == TokenTypeRefresh
}
