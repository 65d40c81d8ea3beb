package auth

import (
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionFromAuthClaims(t *testing.T) {
	userID := uuid.New()
	now := time.Now()

	t.Run("builds a session from jwt claims", func(t *testing.T) {
		claims := &JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   userID.String(),
				Issuer:    "kcnotes",
				Audience:  jwt.ClaimStrings{"kcnotes-api"},
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
			UID: userID.String(),
		}

		session, err := sessionFromAuthClaims(claims)
		require.NoError(t, err)

		assert.Equal(t, userID.String(), session.GetUserID())
		assert.Equal(t, "kcnotes", session.GetIssuer())
		assert.Equal(t, []string{"kcnotes-api"}, session.GetAudience())

		parsed, err := session.GetUserUUID()
		assert.NoError(t, err)
		assert.Equal(t, userID, parsed)
	})

	t.Run("issuer falls back to the subject", func(t *testing.T) {
		claims := &JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject: userID.String(),
			},
		}

		session, err := sessionFromAuthClaims(claims)
		require.NoError(t, err)
		assert.Equal(t, userID.String(), session.GetIssuer())
	})

	t.Run("nil claims", func(t *testing.T) {
		session, err := sessionFromAuthClaims(nil)
		assert.Nil(t, session)
		assert.ErrorIs(t, err, ErrUnableToDecodeSession)
	})
}

func TestSessionObjectString(t *testing.T) {
	s := SessionObject{
		UserID:   "u-1",
		Issuer:   "kcnotes",
		Audience: []string{"api"},
	}

	out := fmt.Sprintf("%v", s)
	assert.Contains(t, out, "user=u-1")
	assert.Contains(t, out, "iss=kcnotes")
	assert.Contains(t, out, "iat=<nil>")
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"sqlite", fmt.Errorf("UNIQUE constraint failed: users.username"), true},
		{"modernc sqlite", fmt.Errorf("constraint failed: UNIQUE constraint failed: users.username (2067)"), true},
		{"postgres", fmt.Errorf(`duplicate key value violates unique constraint "users_username_key"`), true},
		{"other constraint", fmt.Errorf("NOT NULL constraint failed: users.username"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUniqueViolation(tt.err))
		})
	}
}
