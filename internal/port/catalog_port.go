package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/nikolayk812/partscart/internal/domain"
)

type CatalogRepository interface {
	// GetProducts resolves ids in one round trip. Unknown or inactive ids are absent from the result.
	GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Product, error)
}
