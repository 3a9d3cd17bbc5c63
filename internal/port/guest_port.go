package port

import "context"

// GuestStorage is the key-value store behind guest carts, scoped to one browser session.
type GuestStorage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
