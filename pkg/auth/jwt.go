package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the access token payload issued by the auth backend.
type Claims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// ClaimsOf decodes the payload of token without verifying its signature.
// Only the backend holds the signing key; the client reads claims to show
// who is logged in and to skip a request it knows will 401.
func ClaimsOf(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("auth: parse token: %w", err)
	}
	return claims, nil
}

// Expired reports whether token's exp claim is at or before now. Tokens
// without exp, or that cannot be parsed, are not considered expired.
func Expired(token string, now time.Time) bool {
	c, err := ClaimsOf(token)
	if err != nil || c.ExpiresAt == nil {
		return false
	}
	return !now.Before(c.ExpiresAt.Time)
}
