package auth

import "context"

type contextKey struct{}

// WithUserID stores the authenticated user id on the context.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

// UserIDFrom retrieves the authenticated user id stored by WithUserID.
// The second return is false for unauthenticated contexts.
func UserIDFrom(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(contextKey{}).(int64)
	return userID, ok
}
