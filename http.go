package identity

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-identity/middleware/jwtware"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// TokenResponse is the JSON body returned by a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// LoginRequest carries the credentials posted to the login endpoint.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

var _ LoginPayload = (*LoginRequest)(nil)

func (r LoginRequest) GetIdentifier() string {
	return r.Identifier
}

func (r LoginRequest) GetPassword() string {
	return r.Password
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Identifier, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// RouteAuthenticator wires the Authenticator into HTTP routes. Login issues
// bearer tokens as JSON and ProtectedRoute guards handlers with the JWT
// middleware.
type RouteAuthenticator struct {
	auth         Authenticator
	cfg          Config
	Logger       Logger
	ErrorHandler func(c router.Context, err error) error
}

func NewHTTPAuthenticator(auther Authenticator, cfg Config) (*RouteAuthenticator, error) {
	a := &RouteAuthenticator{
		cfg:    cfg,
		auth:   auther,
		Logger: defLogger{},
	}

	a.ErrorHandler = a.defaultErrHandler

	return a, nil
}

// ProtectedRoute returns middleware that rejects requests without a valid
// bearer token. Claims are stored in the context under the configured key.
func (a *RouteAuthenticator) ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return jwtware.New(jwtware.Config{
			ErrorHandler: errorHandler,
			SigningKey: jwtware.SigningKey{
				Key:    []byte(cfg.GetSigningKey()),
				JWTAlg: cfg.GetSigningMethod(),
			},
			AuthScheme:  cfg.GetAuthScheme(),
			ContextKey:  cfg.GetContextKey(),
			TokenLookup: cfg.GetTokenLookup(),
			Issuer:      cfg.GetIssuer(),
			Audience:    cfg.GetAudience(),
		})
	}
}

// AdminRoute is ProtectedRoute plus a superuser check on the validated claims.
func (a *RouteAuthenticator) AdminRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return jwtware.New(jwtware.Config{
			ErrorHandler: errorHandler,
			SigningKey: jwtware.SigningKey{
				Key:    []byte(cfg.GetSigningKey()),
				JWTAlg: cfg.GetSigningMethod(),
			},
			AuthScheme:       cfg.GetAuthScheme(),
			ContextKey:       cfg.GetContextKey(),
			TokenLookup:      cfg.GetTokenLookup(),
			Issuer:           cfg.GetIssuer(),
			Audience:         cfg.GetAudience(),
			RequireSuperuser: true,
		})
	}
}

// Login authenticates the payload and writes the bearer token response.
func (a *RouteAuthenticator) Login(ctx router.Context, payload LoginPayload) error {
	token, err := a.auth.Login(ctx.Context(), payload.GetIdentifier(), payload.GetPassword())
	if err != nil {
		a.Logger.Error("Login error: %s", err)
		return err
	}

	return ctx.JSON(http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// LoginHandler binds, validates, and authenticates a LoginRequest. Errors
// flow through the configured ErrorHandler so failures stay uniform.
func (a *RouteAuthenticator) LoginHandler(ctx router.Context) error {
	payload := LoginRequest{}
	if err := ctx.Bind(&payload); err != nil {
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryBadInput, "unable to parse login payload").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, errors.Wrap(err, errors.CategoryValidation, "invalid login payload").
			WithCode(errors.CodeBadRequest))
	}

	if err := a.Login(ctx, payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return nil
}

// MakeAuthErrorHandler builds the middleware error callback. When optional
// is true, requests without a valid token continue unauthenticated.
func (a *RouteAuthenticator) MakeAuthErrorHandler(optional bool) func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		if optional {
			a.Logger.Info("Optional auth failed, proceeding", "error", err)
			return ctx.Next()
		}

		richErr := ErrTokenInvalid
		var asErr *errors.Error
		switch {
		case errors.Is(err, jwtware.ErrSuperuserRequired):
			richErr = ErrNotAuthorized
		case errors.As(err, &asErr) && asErr.Category == errors.CategoryAuthz:
			richErr = ErrNotAuthorized
		}

		return a.ErrorHandler(ctx, richErr)
	}
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	a.Logger.Info(
		"Request error handler",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	status := httpStatusFor(richErr)

	return c.JSON(status, router.ViewContext{
		"error": map[string]any{
			"message":   richErr.Message,
			"text_code": richErr.TextCode,
		},
	})
}

func httpStatusFor(err *errors.Error) int {
	if err.Code != 0 {
		return err.Code
	}

	switch err.Category {
	case errors.CategoryAuth:
		return http.StatusUnauthorized
	case errors.CategoryAuthz:
		return http.StatusForbidden
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryConflict:
		return http.StatusConflict
	case errors.CategoryValidation, errors.CategoryBadInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
