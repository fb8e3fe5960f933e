package auth

import "context"

type actorKey struct{}

// WithIdentity attaches the authenticated actor to ctx.
func WithIdentity(ctx context.Context, role Role, subject string) context.Context {
	return context.WithValue(ctx, actorKey{}, Actor{Subject: subject, Role: role})
}

// ActorFromContext returns the actor handed to services. An unauthenticated
// context yields the zero Actor, which every Require check rejects.
func ActorFromContext(ctx context.Context) Actor {
	if ctx == nil {
		return Actor{}
	}
	actor, _ := ctx.Value(actorKey{}).(Actor)
	return actor
}
