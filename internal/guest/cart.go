package guest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nikolayk812/partscart/internal/domain"
	"github.com/nikolayk812/partscart/internal/port"
)

const cartKey = "cart"

// CartStore reads and writes the guest cart as one JSON document. Writes from
// two tabs of the same session are last-write-wins.
type CartStore struct {
	storage port.GuestStorage
}

func NewCartStore(storage port.GuestStorage) *CartStore {
	return &CartStore{storage: storage}
}

func (s *CartStore) Load(ctx context.Context) (domain.Cart, error) {
	raw, found, err := s.storage.Get(ctx, cartKey)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("storage.Get: %w", err)
	}
	if !found || raw == "" {
		return domain.Cart{}, nil
	}

	var lines []domain.CartLine
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return domain.Cart{}, fmt.Errorf("json.Unmarshal: %w", err)
	}

	return domain.Cart{Lines: lines}, nil
}

// Save removes the document instead of storing an empty cart.
func (s *CartStore) Save(ctx context.Context, cart domain.Cart) error {
	if cart.IsEmpty() {
		return s.Clear(ctx)
	}

	raw, err := json.Marshal(cart.Lines)
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	if err := s.storage.Set(ctx, cartKey, string(raw)); err != nil {
		return fmt.Errorf("storage.Set: %w", err)
	}

	return nil
}

func (s *CartStore) Clear(ctx context.Context) error {
	if err := s.storage.Remove(ctx, cartKey); err != nil {
		return fmt.Errorf("storage.Remove: %w", err)
	}

	return nil
}
