package auth

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// RouteRegistrar captures the router methods used by the controller. Both
// root routers and groups satisfy it.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Patch(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Delete(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// HTTPController exposes the credential lifecycle as a JSON API
type HTTPController struct {
	Logger     Logger
	Repo       RepositoryManager
	Auther     Authenticator
	ContextKey string
}

type HTTPControllerOption func(*HTTPController) *HTTPController

func WithControllerLogger(logger Logger) HTTPControllerOption {
	return func(c *HTTPController) *HTTPController {
		c.Logger = logger
		return c
	}
}

func WithControllerContextKey(key string) HTTPControllerOption {
	return func(c *HTTPController) *HTTPController {
		c.ContextKey = key
		return c
	}
}

func NewHTTPController(repo RepositoryManager, auther Authenticator, opts ...HTTPControllerOption) *HTTPController {
	c := &HTTPController{
		Logger:     defLogger{},
		Repo:       repo,
		Auther:     auther,
		ContextKey: "user",
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	return c
}

// RegisterRoutes mounts the lifecycle endpoints. Signup and signin stay
// open, everything else runs behind the token gate.
func (a *HTTPController) RegisterRoutes(group RouteRegistrar, protected router.MiddlewareFunc) {
	group.Post("/signup", a.Signup)
	group.Post("/signin", a.Signin)

	group.Get("/me", a.Me, protected)
	group.Get("/signout", a.Signout, protected)
	group.Patch("/update-password", a.UpdatePassword, protected)
	group.Delete("/delete", a.Delete, protected)
}

// SignupPayload is the registration body
type SignupPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r SignupPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Username,
			validation.Required,
			validation.Length(1, 100),
		),
		validation.Field(
			&r.Password,
			validation.Required,
			validation.Length(1, 100),
		),
	)
}

// SigninPayload is the login body
type SigninPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r SigninPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// UpdatePasswordPayload carries a credential rotation request. Required-ness
// is enforced by the lifecycle manager so both-empty and one-empty collapse
// into the same missing fields error.
type UpdatePasswordPayload struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (a *HTTPController) Signup(ctx router.Context) error {
	payload := new(SignupPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("Signup parse payload", "error", err)
		return a.handleError(ctx, errors.Wrap(err, errors.CategoryBadInput, "unable to parse request body"))
	}

	if err := payload.Validate(); err != nil {
		return a.handleError(ctx, errors.Wrap(err, errors.CategoryValidation, err.Error()))
	}

	token, err := a.Auther.Signup(ctx.Context(), payload.Username, payload.Password)
	if err != nil {
		return a.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, router.ViewContext{
		"token": token,
	})
}

func (a *HTTPController) Signin(ctx router.Context) error {
	payload := new(SigninPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("Signin parse payload", "error", err)
		return a.handleError(ctx, errors.Wrap(err, errors.CategoryBadInput, "unable to parse request body"))
	}

	if err := payload.Validate(); err != nil {
		return a.handleError(ctx, errors.Wrap(err, errors.CategoryValidation, err.Error()))
	}

	token, err := a.Auther.Signin(ctx.Context(), payload.Username, payload.Password)
	if err != nil {
		return a.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, router.ViewContext{
		"token": token,
	})
}

func (a *HTTPController) Me(ctx router.Context) error {
	user, err := a.currentUser(ctx)
	if err != nil {
		return a.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, router.ViewContext{
		"user": user,
	})
}

// Signout is stateless: the client discards the token, the server answers
// with a null token to match.
func (a *HTTPController) Signout(ctx router.Context) error {
	return ctx.JSON(router.StatusOK, router.ViewContext{
		"token": nil,
	})
}

func (a *HTTPController) UpdatePassword(ctx router.Context) error {
	user, err := a.currentUser(ctx)
	if err != nil {
		return a.handleError(ctx, err)
	}

	payload := new(UpdatePasswordPayload)
	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("UpdatePassword parse payload", "error", err)
		return a.handleError(ctx, errors.Wrap(err, errors.CategoryBadInput, "unable to parse request body"))
	}

	if err := a.Auther.UpdatePassword(ctx.Context(), user.ID, payload.CurrentPassword, payload.NewPassword); err != nil {
		return a.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, router.ViewContext{
		"message": "Password updated successfully.",
	})
}

func (a *HTTPController) Delete(ctx router.Context) error {
	user, err := a.currentUser(ctx)
	if err != nil {
		return a.handleError(ctx, err)
	}

	if err := a.Auther.DeleteAccount(ctx.Context(), user.ID); err != nil {
		return a.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, router.ViewContext{
		"message": "User and associated notes deleted successfully.",
	})
}

// currentUser resolves the caller from the claims the token gate stored in
// locals. A missing or undecodable entry means the gate did not run, so we
// fail closed.
func (a *HTTPController) currentUser(ctx router.Context) (*User, error) {
	claims, ok := GetRouterClaims(ctx, a.ContextKey)
	if !ok {
		return nil, ErrUnauthenticated
	}

	session, err := sessionFromAuthClaims(claims)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	user, err := a.Auther.IdentityFromSession(ctx.Context(), session)
	if err != nil {
		// A valid token naming a user that no longer exists is still an
		// authentication failure, not a lookup miss.
		if errors.IsNotFound(err) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}

	return user, nil
}

// handleError maps the error taxonomy onto the wire contract: auth failures
// on protected resources are 401, storage faults are 500, everything else
// the caller can fix is 400.
func (a *HTTPController) handleError(ctx router.Context, err error) error {
	status := router.StatusBadRequest
	message := err.Error()

	var rich *errors.Error
	if errors.As(err, &rich) {
		message = rich.Message
		switch rich.Category {
		case errors.CategoryInternal, errors.CategoryExternal:
			a.Logger.Error("auth controller internal error", "error", err)
			status = router.StatusInternalServerError
			message = "Internal server error"
		case errors.CategoryAuth:
			if rich.Code == errors.CodeUnauthorized {
				status = router.StatusUnauthorized
			}
		}
	}

	return ctx.JSON(status, router.ViewContext{
		"error": message,
	})
}
