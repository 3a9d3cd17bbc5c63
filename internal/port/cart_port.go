package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/nikolayk812/partscart/internal/domain"
)

// CartRepository is the Persisted Cart Store, keyed by (ownerID, productID).
type CartRepository interface {
	GetCart(ctx context.Context, ownerID string) (domain.Cart, error)
	// AddQuantity inserts the line or increments its quantity in one statement.
	AddQuantity(ctx context.Context, ownerID string, productID uuid.UUID, quantity int) error
	// SetQuantity overwrites an existing line and reports whether it existed.
	SetQuantity(ctx context.Context, ownerID string, productID uuid.UUID, quantity int) (bool, error)
	DeleteLine(ctx context.Context, ownerID string, productID uuid.UUID) (bool, error)
	ClearCart(ctx context.Context, ownerID string) error
	// MergeCart replaces the owner's lines with merge(existing) in a single transaction.
	MergeCart(ctx context.Context, ownerID string, merge func(existing []domain.CartLine) []domain.CartLine) error
}
