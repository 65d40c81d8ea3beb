package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// stubRepoManager satisfies the controller's nil check, the handlers under
// test never touch storage directly.
type stubRepoManager struct {
	RepositoryManager
}

// MockAuthenticator implements Authenticator
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Signup(ctx context.Context, username, password string) (string, error) {
	args := m.Called(ctx, username, password)
	return args.String(0), args.Error(1)
}

func (m *MockAuthenticator) Signin(ctx context.Context, username, password string) (string, error) {
	args := m.Called(ctx, username, password)
	return args.String(0), args.Error(1)
}

func (m *MockAuthenticator) UpdatePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	args := m.Called(ctx, userID, currentPassword, newPassword)
	return args.Error(0)
}

func (m *MockAuthenticator) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockAuthenticator) SessionFromToken(token string) (Session, error) {
	args := m.Called(token)
	if s, ok := args.Get(0).(Session); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthenticator) IdentityFromSession(ctx context.Context, session Session) (*User, error) {
	args := m.Called(ctx, session)
	if u, ok := args.Get(0).(*User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func newTestHTTPController(auther Authenticator) *HTTPController {
	return NewHTTPController(&stubRepoManager{}, auther)
}

// seedClaims puts validated claims in locals the way the token gate does
func seedClaims(ctx *router.MockContext, userID uuid.UUID) {
	ctx.LocalsMock["user"] = &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  userID.String(),
			Issuer:   "kcnotes",
			Audience: jwt.ClaimStrings{"kcnotes-api"},
		},
		UID: userID.String(),
	}
}

func errorBodyContains(fragment string) any {
	return mock.MatchedBy(func(body router.ViewContext) bool {
		msg, ok := body["error"].(string)
		return ok && strings.Contains(msg, fragment)
	})
}

func TestHTTPController_Signup(t *testing.T) {
	t.Run("returns 201 with a token", func(t *testing.T) {
		auther := &MockAuthenticator{}
		auther.On("Signup", mock.Anything, "ada", "secret123").Return("tok-abc", nil)

		ctrl := newTestHTTPController(auther)

		ctx := router.NewMockContext()
		ctx.On("Bind", mock.AnythingOfType("*auth.SignupPayload")).
			Run(func(args mock.Arguments) {
				payload := args.Get(0).(*SignupPayload)
				payload.Username = "ada"
				payload.Password = "secret123"
			}).
			Return(nil)
		ctx.On("Context").Return(context.Background())
		ctx.On("JSON", router.StatusCreated, router.ViewContext{"token": "tok-abc"}).Return(nil)

		require.NoError(t, ctrl.Signup(ctx))

		ctx.AssertExpectations(t)
		auther.AssertExpectations(t)
	})

	t.Run("duplicate username is a 400", func(t *testing.T) {
		auther := &MockAuthenticator{}
		auther.On("Signup", mock.Anything, "ada", "secret123").
			Return("", NewDuplicateUserError("ada"))

		ctrl := newTestHTTPController(auther)

		ctx := router.NewMockContext()
		ctx.On("Bind", mock.AnythingOfType("*auth.SignupPayload")).
			Run(func(args mock.Arguments) {
				payload := args.Get(0).(*SignupPayload)
				payload.Username = "ada"
				payload.Password = "secret123"
			}).
			Return(nil)
		ctx.On("Context").Return(context.Background())
		ctx.On("JSON", router.StatusBadRequest, router.ViewContext{
			"error": "User with username 'ada' already exists.",
		}).Return(nil)

		require.NoError(t, ctrl.Signup(ctx))

		ctx.AssertExpectations(t)
	})

	t.Run("payload validation failure is a 400", func(t *testing.T) {
		auther := &MockAuthenticator{}
		ctrl := newTestHTTPController(auther)

		ctx := router.NewMockContext()
		ctx.On("Bind", mock.AnythingOfType("*auth.SignupPayload")).
			Run(func(args mock.Arguments) {
				payload := args.Get(0).(*SignupPayload)
				payload.Password = "secret123" // username missing
			}).
			Return(nil)
		ctx.On("JSON", router.StatusBadRequest, errorBodyContains("username")).Return(nil)

		require.NoError(t, ctrl.Signup(ctx))

		ctx.AssertExpectations(t)
		auther.AssertNotCalled(t, "Signup", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestHTTPController_Signin(t *testing.T) {
	t.Run("returns 200 with a token", func(t *testing.T) {
		auther := &MockAuthenticator{}
		auther.On("Signin", mock.Anything, "ada", "secret123").Return("tok-abc", nil)

		ctrl := newTestHTTPController(auther)

		ctx := router.NewMockContext()
		ctx.On("Bind", mock.AnythingOfType("*auth.SigninPayload")).
			Run(func(args mock.Arguments) {
				payload := args.Get(0).(*SigninPayload)
				payload.Username = "ada"
				payload.Password = "secret123"
			}).
			Return(nil)
		ctx.On("Context").Return(context.Background())
		ctx.On("JSON", router.StatusOK, router.ViewContext{"token": "tok-abc"}).Return(nil)

		require.NoError(t, ctrl.Signin(ctx))

		ctx.AssertExpectations(t)
		auther.AssertExpectations(t)
	})

	t.Run("bad credentials are a 400 with the shared message", func(t *testing.T) {
		auther := &MockAuthenticator{}
		auther.On("Signin", mock.Anything, "ada", "wrong").
			Return("", ErrInvalidCredentials)

		ctrl := newTestHTTPController(auther)

		ctx := router.NewMockContext()
		ctx.On("Bind", mock.AnythingOfType("*auth.SigninPayload")).
			Run(func(args mock.Arguments) {
				payload := args.Get(0).(*SigninPayload)
				payload.Username = "ada"
				payload.Password = "wrong"
			}).
			Return(nil)
		ctx.On("Context").Return(context.Background())
		ctx.On("JSON", router.StatusBadRequest, router.ViewContext{
			"error": "Invalid credentials.",
		}).Return(nil)

		require.NoError(t, ctrl.Signin(ctx))

		ctx.AssertExpectations(t)
	})
}

func TestHTTPController_Me(t *testing.T) {
	t.Run("returns the caller", func(t *testing.T) {
		userID := uuid.New()
		user := &User{ID: userID, Username: "ada"}

		auther := &MockAuthenticator{}
		auther.On("IdentityFromSession", mock.Anything, mock.Anything).Return(user, nil)

		ctrl := newTestHTTPController(auther)

		ctx := router.NewMockContext()
		seedClaims(ctx, userID)
		ctx.On("Context").Return(context.Background())
		ctx.On("JSON", router.StatusOK, router.ViewContext{"user": user}).Return(nil)

		require.NoError(t, ctrl.Me(ctx))

		ctx.AssertExpectations(t)
		auther.AssertExpectations(t)
	})

	t.Run("no claims in locals fails closed with 401", func(t *testing.T) {
		auther := &MockAuthenticator{}
		ctrl := newTestHTTPController(auther)

		ctx := router.NewMockContext()
		ctx.On("JSON", router.StatusUnauthorized, router.ViewContext{
			"error": "Unauthenticated.",
		}).Return(nil)

		require.NoError(t, ctrl.Me(ctx))

		ctx.AssertExpectations(t)
		auther.AssertNotCalled(t, "IdentityFromSession", mock.Anything, mock.Anything)
	})

	t.Run("token for a deleted account fails closed with 401", func(t *testing.T) {
		userID := uuid.New()

		auther := &MockAuthenticator{}
		auther.On("IdentityFromSession", mock.Anything, mock.Anything).
			Return(nil, ErrIdentityNotFound)

		ctrl := newTestHTTPController(auther)

		ctx := router.NewMockContext()
		seedClaims(ctx, userID)
		ctx.On("Context").Return(context.Background())
		ctx.On("JSON", router.StatusUnauthorized, router.ViewContext{
			"error": "Unauthenticated.",
		}).Return(nil)

		require.NoError(t, ctrl.Me(ctx))

		ctx.AssertExpectations(t)
	})
}

func TestHTTPController_Signout(t *testing.T) {
	auther := &MockAuthenticator{}
	ctrl := newTestHTTPController(auther)

	ctx := router.NewMockContext()
	ctx.On("JSON", router.StatusOK, router.ViewContext{"token": nil}).Return(nil)

	require.NoError(t, ctrl.Signout(ctx))

	ctx.AssertExpectations(t)
}

func TestHTTPController_UpdatePassword(t *testing.T) {
	userID := uuid.New()
	user := &User{ID: userID, Username: "ada"}

	setup := func(auther *MockAuthenticator, current, next string) *router.MockContext {
		ctx := router.NewMockContext()
		seedClaims(ctx, userID)
		ctx.On("Context").Return(context.Background())
		ctx.On("Bind", mock.AnythingOfType("*auth.UpdatePasswordPayload")).
			Run(func(args mock.Arguments) {
				payload := args.Get(0).(*UpdatePasswordPayload)
				payload.CurrentPassword = current
				payload.NewPassword = next
			}).
			Return(nil)
		auther.On("IdentityFromSession", mock.Anything, mock.Anything).Return(user, nil)
		return ctx
	}

	t.Run("returns the success message", func(t *testing.T) {
		auther := &MockAuthenticator{}
		ctx := setup(auther, "old-password", "new-password")
		auther.On("UpdatePassword", mock.Anything, userID, "old-password", "new-password").Return(nil)
		ctx.On("JSON", router.StatusOK, router.ViewContext{
			"message": "Password updated successfully.",
		}).Return(nil)

		ctrl := newTestHTTPController(auther)

		require.NoError(t, ctrl.UpdatePassword(ctx))

		ctx.AssertExpectations(t)
		auther.AssertExpectations(t)
	})

	t.Run("missing fields are a 400", func(t *testing.T) {
		auther := &MockAuthenticator{}
		ctx := setup(auther, "", "")
		auther.On("UpdatePassword", mock.Anything, userID, "", "").Return(ErrMissingFields)
		ctx.On("JSON", router.StatusBadRequest, router.ViewContext{
			"error": "Current password and new password are required.",
		}).Return(nil)

		ctrl := newTestHTTPController(auther)

		require.NoError(t, ctrl.UpdatePassword(ctx))

		ctx.AssertExpectations(t)
	})

	t.Run("wrong current password is a 400", func(t *testing.T) {
		auther := &MockAuthenticator{}
		ctx := setup(auther, "not-it", "new-password")
		auther.On("UpdatePassword", mock.Anything, userID, "not-it", "new-password").
			Return(ErrInvalidCurrentPassword)
		ctx.On("JSON", router.StatusBadRequest, router.ViewContext{
			"error": "Current password is incorrect.",
		}).Return(nil)

		ctrl := newTestHTTPController(auther)

		require.NoError(t, ctrl.UpdatePassword(ctx))

		ctx.AssertExpectations(t)
	})
}

func TestHTTPController_Delete(t *testing.T) {
	userID := uuid.New()
	user := &User{ID: userID, Username: "ada"}

	t.Run("returns the success message", func(t *testing.T) {
		auther := &MockAuthenticator{}
		auther.On("IdentityFromSession", mock.Anything, mock.Anything).Return(user, nil)
		auther.On("DeleteAccount", mock.Anything, userID).Return(nil)

		ctrl := newTestHTTPController(auther)

		ctx := router.NewMockContext()
		seedClaims(ctx, userID)
		ctx.On("Context").Return(context.Background())
		ctx.On("JSON", router.StatusOK, router.ViewContext{
			"message": "User and associated notes deleted successfully.",
		}).Return(nil)

		require.NoError(t, ctrl.Delete(ctx))

		ctx.AssertExpectations(t)
		auther.AssertExpectations(t)
	})

	t.Run("storage fault surfaces as 500", func(t *testing.T) {
		auther := &MockAuthenticator{}
		auther.On("IdentityFromSession", mock.Anything, mock.Anything).Return(user, nil)
		auther.On("DeleteAccount", mock.Anything, userID).
			Return(errors.New("write failed", errors.CategoryInternal))

		ctrl := newTestHTTPController(auther)

		ctx := router.NewMockContext()
		seedClaims(ctx, userID)
		ctx.On("Context").Return(context.Background())
		ctx.On("JSON", router.StatusInternalServerError, router.ViewContext{
			"error": "Internal server error",
		}).Return(nil)

		require.NoError(t, ctrl.Delete(ctx))

		ctx.AssertExpectations(t)
	})
}
