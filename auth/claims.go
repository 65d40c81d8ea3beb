package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AuthClaims is the structured view over a validated token
type AuthClaims interface {
	Subject() string
	UserID() string
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims
type JWTClaims struct {
	jwt.RegisteredClaims
	UID string `json:"uid,omitempty"`
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// Expires returns the expiration time, zero if the claim is absent
func (c *JWTClaims) Expires() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// IssuedAt returns the issuance time, zero if the claim is absent
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt == nil {
		return time.Time{}
	}
	return c.RegisteredClaims.IssuedAt.Time
}

// ensureTokenID gives every issued token a unique jti
func ensureTokenID(rc *jwt.RegisteredClaims) {
	if rc.ID == "" {
		rc.ID = uuid.NewString()
	}
}
