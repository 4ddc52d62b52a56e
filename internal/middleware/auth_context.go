package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const AuthContextKey contextKey = "auth_context"

// AuthContext holds the authenticated user's identity.
type AuthContext struct {
	UserID  uuid.UUID
	TokenID string // jti
}

// GetAuthContext retrieves the AuthContext from the context.
func GetAuthContext(ctx context.Context) (*AuthContext, bool) {
	val, ok := ctx.Value(AuthContextKey).(*AuthContext)
	return val, ok
}

// WithAuthContext attaches the AuthContext to the context.
func WithAuthContext(ctx context.Context, auth *AuthContext) context.Context {
	return context.WithValue(ctx, AuthContextKey, auth)
}
