package identity

import (
	"context"

	"github.com/goliatone/go-identity/middleware/jwtware"
)

// ValidationListener aliases the jwtware listener so consumers can use identity helpers directly.
type ValidationListener = jwtware.ValidationListener

// ContextEnricherAdapter stores validated claims and the acting identity in
// the standard context for downstream policy and audit usage.
func ContextEnricherAdapter(c context.Context, claims jwtware.AuthClaims) context.Context {
	if claims == nil {
		return c
	}

	ctxWithActor := WithActorContext(c, ActorRef{
		ID:   claims.UserID(),
		Type: "user",
	})

	if authClaims, ok := claims.(AuthClaims); ok {
		return WithClaimsContext(ctxWithActor, authClaims)
	}

	return ctxWithActor
}

// RegisterValidationListeners appends listeners to a jwtware.Config in a safe, reusable way.
func RegisterValidationListeners(cfg *jwtware.Config, listeners ...ValidationListener) {
	if cfg == nil || len(listeners) == 0 {
		return
	}
	cfg.ValidationListeners = append(cfg.ValidationListeners, listeners...)
}
