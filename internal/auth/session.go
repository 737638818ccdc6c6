package auth

import "context"

// Session answers "who is signed in" for the current call.
type Session interface {
	CurrentUser(ctx context.Context) (string, bool)
}

type userKey struct{}

// WithUser returns a context carrying the signed-in user id.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// UserFrom returns the user id stored by WithUser.
func UserFrom(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userKey{}).(string)
	return userID, ok && userID != ""
}

// ContextSession reads the signed-in user from the request context.
type ContextSession struct{}

func (ContextSession) CurrentUser(ctx context.Context) (string, bool) {
	return UserFrom(ctx)
}

// StaticSession always reports the same user; an empty id means signed out.
type StaticSession string

func (s StaticSession) CurrentUser(context.Context) (string, bool) {
	return string(s), s != ""
}
