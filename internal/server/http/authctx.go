package httpserver

import (
	"context"

	"github.com/and161185/shopkeeper/internal/model"
)

type ctxKey string

const (
	sessionKey ctxKey = "sk.session"
	userKey    ctxKey = "sk.user"
)

// WithSession stores the validated session in context.
func WithSession(ctx context.Context, s *model.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFromCtx fetches the validated session from context.
func SessionFromCtx(ctx context.Context) (*model.Session, bool) {
	s, ok := ctx.Value(sessionKey).(*model.Session)
	return s, ok
}

// WithUser stores the authenticated user in context.
func WithUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromCtx fetches the authenticated user from context.
func UserFromCtx(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok
}
