package identity

import (
	"net/http"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// ControllerRoutes holds the paths the controller mounts its handlers on
type ControllerRoutes struct {
	Token string
	Me    string
	Users string
}

// IdentityController exposes the identity service over JSON routes. The
// policy helpers gate every record operation before any lookup happens.
type IdentityController struct {
	service *IdentityService
	auth    *RouteAuthenticator
	cfg     Config
	logger  Logger
	Routes  ControllerRoutes
}

type IdentityControllerOption func(*IdentityController)

func WithControllerLogger(logger Logger) IdentityControllerOption {
	return func(c *IdentityController) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithControllerRoutes(routes ControllerRoutes) IdentityControllerOption {
	return func(c *IdentityController) {
		if routes.Token != "" {
			c.Routes.Token = routes.Token
		}
		if routes.Me != "" {
			c.Routes.Me = routes.Me
		}
		if routes.Users != "" {
			c.Routes.Users = routes.Users
		}
	}
}

// NewIdentityController wires the service and the HTTP authenticator
func NewIdentityController(service *IdentityService, auth *RouteAuthenticator, cfg Config, opts ...IdentityControllerOption) *IdentityController {
	controller := &IdentityController{
		service: service,
		auth:    auth,
		cfg:     cfg,
		logger:  defLogger{},
		Routes: ControllerRoutes{
			Token: "/auth/token",
			Me:    "/me",
			Users: "/users",
		},
	}

	for _, opt := range opts {
		opt(controller)
	}

	return controller
}

// RegisterIdentityRoutes mounts the controller on the given router
func RegisterIdentityRoutes[T any](app router.Router[T], controller *IdentityController) {
	protected := controller.auth.ProtectedRoute(
		controller.cfg,
		controller.auth.MakeAuthErrorHandler(false),
	)

	app.Post(controller.Routes.Token, controller.Token).
		SetName("auth.token")

	app.Get(controller.Routes.Me, controller.Me, protected).
		SetName("identity.me")

	app.Post(controller.Routes.Users, controller.Create).
		SetName("identity.create")

	app.Get(controller.Routes.Users, controller.List, protected).
		SetName("identity.list")

	app.Get(controller.Routes.Users+"/:id", controller.Show, protected).
		SetName("identity.show")

	app.Patch(controller.Routes.Users+"/:id", controller.Update, protected).
		SetName("identity.update")

	app.Delete(controller.Routes.Users+"/:id", controller.Delete, protected).
		SetName("identity.delete")
}

// Token issues a bearer token for a valid credential presentation
func (c *IdentityController) Token(ctx router.Context) error {
	return c.auth.LoginHandler(ctx)
}

// Me returns the record behind the presented token
func (c *IdentityController) Me(ctx router.Context) error {
	caller, ok := c.caller(ctx)
	if !ok {
		return c.fail(ctx, ErrTokenInvalid)
	}

	id, err := uuid.Parse(caller.ID())
	if err != nil {
		return c.fail(ctx, ErrTokenInvalid)
	}

	user, err := c.service.GetByID(ctx.Context(), id)
	if err != nil {
		return c.fail(ctx, err)
	}

	return ctx.JSON(http.StatusOK, user)
}

// Create registers a new identity
func (c *IdentityController) Create(ctx router.Context) error {
	msg := RegisterMessage{}
	if err := ctx.Bind(&msg); err != nil {
		return c.fail(ctx, errors.Wrap(err, errors.CategoryBadInput, "unable to parse registration payload").
			WithCode(errors.CodeBadRequest))
	}

	user, err := c.service.Register(ctx.Context(), msg)
	if err != nil {
		return c.fail(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, user)
}

// Show returns a single identity. Policy runs before the lookup so a denied
// caller cannot learn whether the id exists.
func (c *IdentityController) Show(ctx router.Context) error {
	caller, ok := c.caller(ctx)
	if !ok {
		return c.fail(ctx, ErrTokenInvalid)
	}

	rawID := ctx.Param("id")
	if err := RequireView(caller, rawID); err != nil {
		return c.fail(ctx, err)
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		return c.fail(ctx, ErrIdentityNotFound)
	}

	user, err := c.service.GetByID(ctx.Context(), id)
	if err != nil {
		return c.fail(ctx, err)
	}

	return ctx.JSON(http.StatusOK, user)
}

// List enumerates identities, admin only
func (c *IdentityController) List(ctx router.Context) error {
	caller, ok := c.caller(ctx)
	if !ok {
		return c.fail(ctx, ErrTokenInvalid)
	}

	if err := RequireList(caller); err != nil {
		return c.fail(ctx, err)
	}

	skip := ctx.QueryInt("skip", 0)
	limit := ctx.QueryInt("limit", 0)

	users, err := c.service.List(ctx.Context(), skip, limit)
	if err != nil {
		return c.fail(ctx, err)
	}

	return ctx.JSON(http.StatusOK, users)
}

// Update applies a partial patch to an identity
func (c *IdentityController) Update(ctx router.Context) error {
	caller, ok := c.caller(ctx)
	if !ok {
		return c.fail(ctx, ErrTokenInvalid)
	}

	rawID := ctx.Param("id")
	if err := RequireModify(caller, rawID); err != nil {
		return c.fail(ctx, err)
	}

	msg := UpdateMessage{}
	if err := ctx.Bind(&msg); err != nil {
		return c.fail(ctx, errors.Wrap(err, errors.CategoryBadInput, "unable to parse update payload").
			WithCode(errors.CodeBadRequest))
	}

	// only admins may flip account flags
	if (msg.IsActive != nil || msg.IsSuperuser != nil) && !caller.IsSuperuser() {
		return c.fail(ctx, ErrNotAuthorized)
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		return c.fail(ctx, ErrIdentityNotFound)
	}

	user, err := c.service.Update(ctx.Context(), id, msg)
	if err != nil {
		return c.fail(ctx, err)
	}

	return ctx.JSON(http.StatusOK, user)
}

// Delete permanently removes an identity, admin only
func (c *IdentityController) Delete(ctx router.Context) error {
	caller, ok := c.caller(ctx)
	if !ok {
		return c.fail(ctx, ErrTokenInvalid)
	}

	if err := RequireDelete(caller); err != nil {
		return c.fail(ctx, err)
	}

	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.fail(ctx, ErrIdentityNotFound)
	}

	if err := c.service.Delete(ctx.Context(), id); err != nil {
		return c.fail(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

func (c *IdentityController) caller(ctx router.Context) (Identity, bool) {
	claims, ok := GetRouterClaims(ctx, c.cfg.GetContextKey())
	if !ok {
		return nil, false
	}
	return IdentityFromTokenClaims(claims), true
}

func (c *IdentityController) fail(ctx router.Context, err error) error {
	return c.auth.ErrorHandler(ctx, err)
}
