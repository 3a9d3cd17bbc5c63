package port

import (
	"context"

	"github.com/nikolayk812/partscart/internal/domain"
)

type IdentityProvider interface {
	// CurrentIdentity returns the zero Identity for an anonymous shopper.
	CurrentIdentity(ctx context.Context) (domain.Identity, error)
}
