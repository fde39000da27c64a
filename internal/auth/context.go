package auth

import (
	"context"

	"github.com/MomoCodeByte/final-chekelen/internal/domain"
)

type contextKey struct{}

type session struct {
	actor    domain.Actor
	claims   *Claims
	tokenKey string
}

func withSession(ctx context.Context, s session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// ActorFrom returns the caller resolved by Authenticate.
func ActorFrom(ctx context.Context) (domain.Actor, bool) {
	s, ok := ctx.Value(contextKey{}).(session)
	return s.actor, ok
}

// WithActor attaches an already resolved caller, for handlers invoked outside the middleware.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return withSession(ctx, session{actor: actor})
}
