package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/partscart/internal/db"
	"github.com/nikolayk812/partscart/internal/domain"
	"github.com/nikolayk812/partscart/internal/port"
)

type cartRepository struct {
	q    *db.Queries
	pool *pgxpool.Pool
}

func NewCart(pool *pgxpool.Pool) port.CartRepository {
	return &cartRepository{
		q:    db.New(pool),
		pool: pool,
	}
}

func (r *cartRepository) GetCart(ctx context.Context, ownerID string) (domain.Cart, error) {
	if ownerID == "" {
		return domain.Cart{}, fmt.Errorf("ownerID is empty")
	}

	rows, err := r.q.GetCart(ctx, ownerID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("q.GetCart: %w", err)
	}

	return domain.Cart{
		OwnerID: ownerID,
		Lines:   mapGetCartRowsToDomain(rows),
	}, nil
}

func (r *cartRepository) AddQuantity(ctx context.Context, ownerID string, productID uuid.UUID, quantity int) error {
	if ownerID == "" {
		return fmt.Errorf("ownerID is empty")
	}
	if err := validateQuantity(quantity); err != nil {
		return err
	}

	err := r.q.AddQuantity(ctx, db.AddQuantityParams{
		OwnerID:   ownerID,
		ProductID: productID,
		Quantity:  int32(quantity),
	})
	if err != nil {
		if isNumericOutOfRange(err) {
			return fmt.Errorf("q.AddQuantity: %w: %w", domain.ErrInvalidQuantity, err)
		}
		return fmt.Errorf("q.AddQuantity: %w", err)
	}

	return nil
}

func (r *cartRepository) SetQuantity(ctx context.Context, ownerID string, productID uuid.UUID, quantity int) (bool, error) {
	if ownerID == "" {
		return false, fmt.Errorf("ownerID is empty")
	}
	if err := validateQuantity(quantity); err != nil {
		return false, err
	}

	rowsAffected, err := r.q.SetQuantity(ctx, db.SetQuantityParams{
		OwnerID:   ownerID,
		ProductID: productID,
		Quantity:  int32(quantity),
	})
	if err != nil {
		return false, fmt.Errorf("q.SetQuantity: %w", err)
	}

	return rowsAffected > 0, nil
}

func (r *cartRepository) DeleteLine(ctx context.Context, ownerID string, productID uuid.UUID) (bool, error) {
	if ownerID == "" {
		return false, fmt.Errorf("ownerID is empty")
	}

	rowsAffected, err := r.q.DeleteLine(ctx, db.DeleteLineParams{
		OwnerID:   ownerID,
		ProductID: productID,
	})
	if err != nil {
		return false, fmt.Errorf("q.DeleteLine: %w", err)
	}

	return rowsAffected > 0, nil
}

func (r *cartRepository) ClearCart(ctx context.Context, ownerID string) error {
	if ownerID == "" {
		return fmt.Errorf("ownerID is empty")
	}

	if err := r.q.ClearCart(ctx, ownerID); err != nil {
		return fmt.Errorf("q.ClearCart: %w", err)
	}

	return nil
}

// MergeCart serializes on a per-owner advisory lock so concurrent merges and
// the read of existing lines see a consistent cart.
func (r *cartRepository) MergeCart(ctx context.Context, ownerID string, merge func(existing []domain.CartLine) []domain.CartLine) error {
	if ownerID == "" {
		return fmt.Errorf("ownerID is empty")
	}

	_, err := withTx(ctx, r.pool, r.q, func(q *db.Queries) (struct{}, error) {
		if err := q.LockOwner(ctx, ownerID); err != nil {
			return struct{}{}, fmt.Errorf("q.LockOwner: %w", err)
		}

		rows, err := q.GetCart(ctx, ownerID)
		if err != nil {
			return struct{}{}, fmt.Errorf("q.GetCart: %w", err)
		}

		merged := merge(mapGetCartRowsToDomain(rows))

		if err := q.ClearCart(ctx, ownerID); err != nil {
			return struct{}{}, fmt.Errorf("q.ClearCart: %w", err)
		}

		now := time.Now()
		for _, line := range merged {
			if err := validateQuantity(line.Quantity); err != nil {
				return struct{}{}, fmt.Errorf("product[%s]: %w", line.ProductID, err)
			}

			createdAt := line.CreatedAt
			if createdAt.IsZero() {
				createdAt = now
			}

			err := q.InsertLine(ctx, db.InsertLineParams{
				OwnerID:   ownerID,
				ProductID: line.ProductID,
				Quantity:  int32(line.Quantity),
				CreatedAt: createdAt,
			})
			if err != nil {
				return struct{}{}, fmt.Errorf("q.InsertLine: %w", err)
			}
		}

		return struct{}{}, nil
	})
	if err != nil {
		return fmt.Errorf("withTx: %w", err)
	}

	return nil
}

func validateQuantity(quantity int) error {
	if quantity < 1 || quantity > domain.MaxQuantity {
		return domain.ErrInvalidQuantity
	}
	return nil
}

// isNumericOutOfRange reports an increment that pushed quantity past the INT column.
func isNumericOutOfRange(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22003"
}

func mapGetCartRowToDomain(row db.GetCartRow) domain.CartLine {
	return domain.CartLine{
		ProductID: row.ProductID,
		Quantity:  int(row.Quantity),
		CreatedAt: row.CreatedAt,
	}
}

func mapGetCartRowsToDomain(rows []db.GetCartRow) []domain.CartLine {
	var lines []domain.CartLine

	for _, row := range rows {
		lines = append(lines, mapGetCartRowToDomain(row))
	}

	return lines
}
