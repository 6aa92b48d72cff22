package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/waabox/sitedeck/internal/domain"
)

// DefaultRole is assigned when the token carries no role claim.
const DefaultRole = "super-admin"

// Claims holds the identity fields read from an access or ID token.
type Claims struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Username string `json:"cognito:username"`
	jwt.RegisteredClaims
}

// ParseClaims decodes token without verifying its signature.
// Signature checks belong to the backend; the client only reads identity fields.
func ParseClaims(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parsing token claims: %w", err)
	}
	return claims, nil
}

// Expired reports whether the token's exp claim is at or before now.
// Tokens without exp never expire.
func (c *Claims) Expired(now time.Time) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return !now.Before(c.ExpiresAt.Time)
}

// User builds the signed-in user. fallbackEmail is used when the token has no email claim.
func (c *Claims) User(fallbackEmail string) domain.User {
	u := domain.User{
		ID:    c.Subject,
		Email: c.Email,
		Name:  c.Name,
		Role:  c.Role,
	}
	if u.Email == "" {
		u.Email = fallbackEmail
	}
	if u.Name == "" {
		u.Name = c.Username
	}
	if u.Role == "" {
		u.Role = DefaultRole
	}
	return u
}
