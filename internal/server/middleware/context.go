package middleware

import (
	"context"

	"github.com/komunta/komunta/internal/authz"
)

type contextKey string

const ContextKeyActor contextKey = "actor"

// WithActor stores the resolved actor context on the request context.
func WithActor(ctx context.Context, c authz.ActorContext) context.Context {
	return context.WithValue(ctx, ContextKeyActor, c)
}

// ActorFromContext retrieves the actor context set by the Auth middleware.
func ActorFromContext(ctx context.Context) (authz.ActorContext, bool) {
	v, ok := ctx.Value(ContextKeyActor).(authz.ActorContext)
	return v, ok
}
