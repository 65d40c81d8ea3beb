package auth

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/kcnotes/kcnotes/middleware/jwtware"
)

// tokenValidatorAdapter bridges the auth TokenValidator to the mirrored
// interface the middleware declares to avoid an import cycle.
type tokenValidatorAdapter struct {
	validator TokenValidator
}

func (a tokenValidatorAdapter) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := a.validator.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// ContextEnricherAdapter adapts jwtware.AuthClaims to auth.AuthClaims and
// stores the claims in the standard context for downstream usage.
func ContextEnricherAdapter(c context.Context, claims jwtware.AuthClaims) context.Context {
	authClaims, ok := claims.(AuthClaims)
	if !ok {
		return c
	}

	return WithClaimsContext(c, authClaims)
}

// RouteAuthenticator wires the token gate into HTTP routes
type RouteAuthenticator struct {
	auth             Authenticator
	validator        TokenValidator
	cfg              Config
	Logger           Logger
	AuthErrorHandler func(c router.Context, err error) error
}

func NewHTTPAuthenticator(auther *Auther, cfg Config) (*RouteAuthenticator, error) {
	a := &RouteAuthenticator{
		cfg:       cfg,
		auth:      auther,
		validator: auther.TokenService(),
		Logger:    defLogger{},
	}

	a.AuthErrorHandler = a.defaultAuthErrHandler

	return a, nil
}

// ProtectedRoute returns the middleware that guards a route group. Every
// request must carry a verifiable token, failure runs errorHandler.
func (a *RouteAuthenticator) ProtectedRoute(errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	if errorHandler == nil {
		errorHandler = a.AuthErrorHandler
	}

	return jwtware.New(jwtware.Config{
		ErrorHandler:    errorHandler,
		TokenValidator:  tokenValidatorAdapter{validator: a.validator},
		AuthScheme:      a.cfg.GetAuthScheme(),
		ContextKey:      a.cfg.GetContextKey(),
		TokenLookup:     a.cfg.GetTokenLookup(),
		ContextEnricher: ContextEnricherAdapter,
	})
}

// MakeClientRouteAuthErrorHandler builds the rejection handler for guarded
// routes. With optional set, a failed token lets the request continue
// anonymously instead of rejecting it.
func (a *RouteAuthenticator) MakeClientRouteAuthErrorHandler(optional bool) func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		var richErr *errors.Error

		if IsTokenExpiredError(err) {
			richErr = ErrTokenExpired
		} else if IsMalformedError(err) {
			richErr = ErrTokenMalformed
		} else {
			richErr = errors.Wrap(err, errors.CategoryAuth, "Invalid authentication token").
				WithCode(errors.CodeUnauthorized)
		}

		if optional {
			a.Logger.Info("Optional auth failed, proceeding", "error", richErr.Message)
			return ctx.Next()
		}

		return a.AuthErrorHandler(ctx, richErr)
	}
}

// defaultAuthErrHandler rejects the request with a JSON 401. The body keeps
// the generic message, the reason only goes to the log.
func (a *RouteAuthenticator) defaultAuthErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryAuth, "An unexpected authentication error").
			WithCode(errors.CodeUnauthorized)
	}

	a.Logger.Info(
		"Authentication rejected",
		"error", richErr.Message,
		"text_code", richErr.TextCode,
		"path", c.OriginalURL(),
	)

	return c.JSON(router.StatusUnauthorized, router.ViewContext{
		"error": ErrUnauthenticated.Message,
	})
}
