package access

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// RoleProvider resolves the role names held by a principal.
type RoleProvider interface {
	// GetUserRoles returns the roles for the given principal credential.
	GetUserRoles(ctx context.Context, credential string) ([]string, error)
}

// TokenClaims extends JWT standard claims with the principal's roles.
type TokenClaims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

// JWTRoleProvider extracts roles from signed JWT bearer tokens.
//
// Tokens are validated by signature and expiry only; no store lookup is
// involved, so role revocation takes effect at token expiry.
type JWTRoleProvider struct {
	secret []byte
}

// NewJWTRoleProvider creates a role provider verifying tokens with the
// given HMAC secret.
func NewJWTRoleProvider(secret string) *JWTRoleProvider {
	return &JWTRoleProvider{secret: []byte(secret)}
}

// GetUserRoles validates the token and returns its roles claim.
func (p *JWTRoleProvider) GetUserRoles(_ context.Context, credential string) ([]string, error) {
	token, err := jwt.ParseWithClaims(credential, &TokenClaims{}, func(_ *jwt.Token) (any, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return claims.Roles, nil
}

// StaticRoleProvider returns a fixed role set regardless of credential.
// Useful for tests and for trusted internal callers.
type StaticRoleProvider struct {
	Roles []string
}

// GetUserRoles returns the fixed role set.
func (p *StaticRoleProvider) GetUserRoles(_ context.Context, _ string) ([]string, error) {
	return p.Roles, nil
}
