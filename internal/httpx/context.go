package httpx

import (
	"context"
	"net/http"
)

type contextKey string

const (
	identityKey  contextKey = "identity"
	requestIDKey contextKey = "requestID"
	accessLogKey contextKey = "accessLog"
)

// Identity is the caller resolved by the auth middleware.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

// ContextWithIdentity returns a new context carrying the resolved identity.
func ContextWithIdentity(ctx context.Context, identity Identity) context.Context {
	if entry, ok := ctx.Value(accessLogKey).(*accessEntry); ok {
		entry.userID = identity.UserID
	}
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFrom retrieves the identity attached to the request, if any.
func IdentityFrom(r *http.Request) (Identity, bool) {
	identity, ok := r.Context().Value(identityKey).(Identity)
	return identity, ok
}

// UserIDFrom retrieves the user ID from the request context.
func UserIDFrom(r *http.Request) string {
	if identity, ok := IdentityFrom(r); ok {
		return identity.UserID
	}
	return ""
}

func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFrom(r *http.Request) string {
	if v, ok := r.Context().Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}
