package auth

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestGetClaims(t *testing.T) {
	tests := []struct {
		name     string
		setupCtx func() context.Context
		wantOK   bool
	}{
		{
			name: "should return claims when present in context",
			setupCtx: func() context.Context {
				claims := &JWTClaims{
					RegisteredClaims: jwt.RegisteredClaims{
						Subject: "user123",
					},
					UID: "user123",
				}
				return WithClaimsContext(context.Background(), claims)
			},
			wantOK: true,
		},
		{
			name: "should return false when no claims in context",
			setupCtx: func() context.Context {
				return context.Background()
			},
			wantOK: false,
		},
		{
			name: "should return false when context has wrong type",
			setupCtx: func() context.Context {
				return context.WithValue(context.Background(), claimsCtxKey, "not-a-claims-object")
			},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotClaims, gotOK := GetClaims(tt.setupCtx())

			assert.Equal(t, tt.wantOK, gotOK)
			if tt.wantOK {
				assert.Equal(t, "user123", gotClaims.UserID())
			} else {
				assert.Nil(t, gotClaims)
			}
		})
	}
}

func TestUserContext(t *testing.T) {
	user := &User{ID: uuid.New(), Username: "ada"}

	ctx := WithContext(context.Background(), user)

	got, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, user, got)

	_, ok = FromContext(context.Background())
	assert.False(t, ok)
}

func TestGetRouterClaims(t *testing.T) {
	claims := &JWTClaims{UID: "user123"}

	t.Run("reads claims from locals", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.LocalsMock["user"] = claims

		got, ok := GetRouterClaims(ctx, "user")
		assert.True(t, ok)
		assert.Equal(t, "user123", got.UserID())
	})

	t.Run("empty key falls back to the middleware default", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.LocalsMock["user"] = claims

		got, ok := GetRouterClaims(ctx, "")
		assert.True(t, ok)
		assert.Equal(t, "user123", got.UserID())
	})

	t.Run("missing entry", func(t *testing.T) {
		ctx := router.NewMockContext()

		got, ok := GetRouterClaims(ctx, "user")
		assert.False(t, ok)
		assert.Nil(t, got)
	})

	t.Run("entry with the wrong type", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.LocalsMock["user"] = "not-claims"

		got, ok := GetRouterClaims(ctx, "user")
		assert.False(t, ok)
		assert.Nil(t, got)
	})
}
