package notes

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"

	"github.com/kcnotes/kcnotes/auth"
)

// RouteRegistrar captures the router methods used by the controller. Both
// root routers and groups satisfy it.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Patch(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Delete(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// HTTPController exposes note CRUD as a JSON API. Every route expects the
// token gate to have stored claims in locals.
type HTTPController struct {
	Logger     Logger
	Service    *Service
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

func NewHTTPController(service *Service, opts ...HTTPControllerOption) *HTTPController {
	c := &HTTPController{
		Logger:     defLogger{},
		Service:    service,
		ContextKey: "user",
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Service == nil {
		panic("Missing Service in notes controller...")
	}

	return c
}

// RegisterRoutes mounts the CRUD endpoints, every route runs behind the
// token gate.
func (a *HTTPController) RegisterRoutes(group RouteRegistrar, protected router.MiddlewareFunc) {
	group.Post("/", a.Create, protected)
	group.Get("/", a.List, protected)
	group.Get("/:id", a.Show, protected)
	group.Patch("/:id", a.Update, protected)
	group.Delete("/:id", a.Remove, protected)
}

// NotePayload is the create/update body
type NotePayload struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Validate will run validation rules
func (r NotePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Title,
			validation.Required,
			validation.Length(1, 200),
		),
	)
}

func (a *HTTPController) Create(ctx router.Context) error {
	userID, err := a.callerID(ctx)
	if err != nil {
		return a.handleError(ctx, err)
	}

	payload := new(NotePayload)
	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("Create parse payload", "error", err)
		return a.handleError(ctx, errors.Wrap(err, errors.CategoryBadInput, "unable to parse request body"))
	}

	if err := payload.Validate(); err != nil {
		return a.handleError(ctx, errors.Wrap(err, errors.CategoryValidation, err.Error()))
	}

	note, err := a.Service.Create(ctx.Context(), userID, payload.Title, payload.Content)
	if err != nil {
		return a.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, note)
}

func (a *HTTPController) List(ctx router.Context) error {
	userID, err := a.callerID(ctx)
	if err != nil {
		return a.handleError(ctx, err)
	}

	records, err := a.Service.GetNotes(ctx.Context(), userID)
	if err != nil {
		return a.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, records)
}

func (a *HTTPController) Show(ctx router.Context) error {
	userID, err := a.callerID(ctx)
	if err != nil {
		return a.handleError(ctx, err)
	}

	id, err := a.noteID(ctx)
	if err != nil {
		return a.handleError(ctx, err)
	}

	note, err := a.Service.GetNote(ctx.Context(), userID, id)
	if err != nil {
		return a.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, note)
}

func (a *HTTPController) Update(ctx router.Context) error {
	userID, err := a.callerID(ctx)
	if err != nil {
		return a.handleError(ctx, err)
	}

	id, err := a.noteID(ctx)
	if err != nil {
		return a.handleError(ctx, err)
	}

	payload := new(NotePayload)
	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("Update parse payload", "error", err)
		return a.handleError(ctx, errors.Wrap(err, errors.CategoryBadInput, "unable to parse request body"))
	}

	note, err := a.Service.Update(ctx.Context(), userID, id, payload.Title, payload.Content)
	if err != nil {
		return a.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, note)
}

func (a *HTTPController) Remove(ctx router.Context) error {
	userID, err := a.callerID(ctx)
	if err != nil {
		return a.handleError(ctx, err)
	}

	id, err := a.noteID(ctx)
	if err != nil {
		return a.handleError(ctx, err)
	}

	note, err := a.Service.Delete(ctx.Context(), userID, id)
	if err != nil {
		return a.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, note)
}

// callerID resolves the authenticated user id from the claims the token
// gate stored in locals.
func (a *HTTPController) callerID(ctx router.Context) (uuid.UUID, error) {
	claims, ok := auth.GetRouterClaims(ctx, a.ContextKey)
	if !ok {
		return uuid.Nil, auth.ErrUnauthenticated
	}

	id, err := uuid.Parse(claims.UserID())
	if err != nil {
		return uuid.Nil, auth.ErrUnauthenticated
	}

	return id, nil
}

func (a *HTTPController) noteID(ctx router.Context) (uuid.UUID, error) {
	raw := ctx.Param("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.New("invalid note id", errors.CategoryBadInput).
			WithMetadata(map[string]any{"id": raw})
	}
	return id, nil
}

// handleError maps the error taxonomy onto the wire contract, duplicate
// titles and missing notes come back as 400 with their public message.
func (a *HTTPController) handleError(ctx router.Context, err error) error {
	status := router.StatusBadRequest
	message := err.Error()

	var rich *errors.Error
	if errors.As(err, &rich) {
		message = rich.Message
		switch rich.Category {
		case errors.CategoryInternal, errors.CategoryExternal:
			a.Logger.Error("notes controller internal error", "error", err)
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
