// Package context carries request-scoped observability values.
package context

import "context"

type requestIDKey struct{}
type actorKey struct{}

type actor struct {
	id   string
	role string
}

// WithRequestID stores the inbound request id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext returns the request id or an empty string.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

// WithActor stores the authenticated user id and role for log enrichment.
func WithActor(ctx context.Context, actorID, role string) context.Context {
	if actorID == "" {
		return ctx
	}
	return context.WithValue(ctx, actorKey{}, actor{id: actorID, role: role})
}

// ActorFromContext returns the actor id and role, empty when anonymous.
func ActorFromContext(ctx context.Context) (string, string) {
	if ctx == nil {
		return "", ""
	}
	if v, ok := ctx.Value(actorKey{}).(actor); ok {
		return v.id, v.role
	}
	return "", ""
}
