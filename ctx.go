package identity

import (
	"context"

	"github.com/goliatone/go-router"
)

var userCtxKey = &contextKey{"user"}
var claimsCtxKey = &contextKey{"claims"}
var actorCtxKey = &contextKey{"actor"}

type contextKey struct {
	name string
}

// WithContext sets the User in the given context
func WithContext(r context.Context, user *User) context.Context {
	return context.WithValue(r, userCtxKey, user)
}

// FromContext finds the user from the context.
func FromContext(ctx context.Context) (*User, bool) {
	raw, ok := ctx.Value(userCtxKey).(*User)
	return raw, ok
}

// WithClaimsContext sets the AuthClaims in the given context
func WithClaimsContext(r context.Context, claims AuthClaims) context.Context {
	return context.WithValue(r, claimsCtxKey, claims)
}

// GetClaims extracts the AuthClaims from the standard context
func GetClaims(ctx context.Context) (AuthClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(AuthClaims)
	return raw, ok
}

// WithActorContext records who is acting in the given context, for audit
// event attribution downstream.
func WithActorContext(r context.Context, actor ActorRef) context.Context {
	return context.WithValue(r, actorCtxKey, actor)
}

// ActorFromContext extracts the acting identity reference from the context
func ActorFromContext(ctx context.Context) (ActorRef, bool) {
	raw, ok := ctx.Value(actorCtxKey).(ActorRef)
	return raw, ok
}

// GetRouterClaims extracts validated token claims from the router context
func GetRouterClaims(ctx router.Context, key string) (TokenClaims, bool) {
	if key == "" {
		key = "user" // Default key used by JWT middleware
	}
	raw := ctx.Locals(key)
	if raw == nil {
		return nil, false
	}
	claims, ok := raw.(TokenClaims)
	return claims, ok
}

// TokenClaims is the minimal claim surface the HTTP layer needs. Both the
// package AuthClaims and the middleware's validated claims satisfy it.
type TokenClaims interface {
	Subject() string
	UserID() string
	IsSuperuser() bool
}

// IdentityFromTokenClaims lifts validated claims into an Identity suitable
// for the policy helpers. Token claims carry no email.
func IdentityFromTokenClaims(claims TokenClaims) Identity {
	if claims == nil {
		return nil
	}
	return authIdentity{
		id:        claims.UserID(),
		username:  claims.Subject(),
		superuser: claims.IsSuperuser(),
	}
}
