package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/partscart/internal/db"
	"github.com/nikolayk812/partscart/internal/domain"
	"github.com/nikolayk812/partscart/internal/port"
	"golang.org/x/text/currency"
)

type catalogRepository struct {
	q *db.Queries
}

// NewCatalog is read-only: the cart never writes products.
func NewCatalog(pool *pgxpool.Pool) port.CatalogRepository {
	return &catalogRepository{
		q: db.New(pool),
	}
}

func (r *catalogRepository) GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Product, error) {
	products := make(map[uuid.UUID]domain.Product, len(ids))
	if len(ids) == 0 {
		return products, nil
	}

	rows, err := r.q.GetProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("q.GetProducts: %w", err)
	}

	for _, row := range rows {
		product, err := mapGetProductsRowToDomain(row)
		if err != nil {
			return nil, fmt.Errorf("mapGetProductsRowToDomain: %w", err)
		}
		products[product.ID] = product
	}

	return products, nil
}

func mapGetProductsRowToDomain(row db.GetProductsRow) (domain.Product, error) {
	parsedCurrency, err := currency.ParseISO(row.PriceCurrency)
	if err != nil {
		return domain.Product{}, fmt.Errorf("currency[%s] is not valid: %w", row.PriceCurrency, err)
	}

	return domain.Product{
		ID:                 row.ID,
		SKU:                row.Sku,
		Name:               row.Name,
		Price:              domain.Money{Amount: row.PriceAmount, Currency: parsedCurrency},
		DiscountPercentage: row.DiscountPercentage,
	}, nil
}
