// Package guest keeps anonymous carts in a per-session key-value store.
package guest

import (
	"context"
	"errors"
)

// ErrNoSession is returned by Set when the context carries no guest session.
// Get and Remove treat a missing session as an empty cart.
var ErrNoSession = errors.New("guest session is missing")

type sessionKey struct{}

func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

func SessionFromContext(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(sessionKey{}).(string)
	return sessionID, ok && sessionID != ""
}
