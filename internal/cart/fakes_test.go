package cart_test

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/partscart/internal/domain"
)

// memoryCarts is an in-memory persisted cart store with failure injection.
type memoryCarts struct {
	mu    sync.Mutex
	carts map[string]domain.Cart
	calls int

	writeErr error
	readErr  error
}

func newMemoryCarts() *memoryCarts {
	return &memoryCarts{carts: make(map[string]domain.Cart)}
}

func (r *memoryCarts) GetCart(_ context.Context, ownerID string) (domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++

	if r.readErr != nil {
		return domain.Cart{}, r.readErr
	}

	cart := r.carts[ownerID]
	return domain.Cart{OwnerID: ownerID, Lines: slices.Clone(cart.Lines)}, nil
}

func (r *memoryCarts) AddQuantity(_ context.Context, ownerID string, productID uuid.UUID, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++

	if r.writeErr != nil {
		return r.writeErr
	}

	cart := r.carts[ownerID]
	if err := cart.Add(productID, quantity, time.Now()); err != nil {
		return err
	}
	r.carts[ownerID] = cart
	return nil
}

func (r *memoryCarts) SetQuantity(_ context.Context, ownerID string, productID uuid.UUID, quantity int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++

	if r.writeErr != nil {
		return false, r.writeErr
	}

	cart := r.carts[ownerID]
	if _, ok := cart.Line(productID); !ok {
		return false, nil
	}
	if err := cart.SetQuantity(productID, quantity); err != nil {
		return false, err
	}
	r.carts[ownerID] = cart
	return true, nil
}

func (r *memoryCarts) DeleteLine(_ context.Context, ownerID string, productID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++

	if r.writeErr != nil {
		return false, r.writeErr
	}

	cart := r.carts[ownerID]
	deleted := cart.Remove(productID)
	r.carts[ownerID] = cart
	return deleted, nil
}

func (r *memoryCarts) ClearCart(_ context.Context, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++

	if r.writeErr != nil {
		return r.writeErr
	}

	delete(r.carts, ownerID)
	return nil
}

func (r *memoryCarts) MergeCart(_ context.Context, ownerID string, merge func([]domain.CartLine) []domain.CartLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++

	merged := merge(slices.Clone(r.carts[ownerID].Lines))
	if r.writeErr != nil {
		return r.writeErr
	}

	r.carts[ownerID] = domain.Cart{OwnerID: ownerID, Lines: merged}
	return nil
}

func (r *memoryCarts) put(ownerID string, lines ...domain.CartLine) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.carts[ownerID] = domain.Cart{OwnerID: ownerID, Lines: lines}
}

func (r *memoryCarts) lines(ownerID string) []domain.CartLine {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.carts[ownerID].Lines)
}

func (r *memoryCarts) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.calls
}

type memoryCatalog struct {
	mu       sync.Mutex
	products map[uuid.UUID]domain.Product
	batches  [][]uuid.UUID
	err      error
}

func newMemoryCatalog(products ...domain.Product) *memoryCatalog {
	c := &memoryCatalog{products: make(map[uuid.UUID]domain.Product)}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

func (c *memoryCatalog) GetProducts(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.batches = append(c.batches, slices.Clone(ids))
	if c.err != nil {
		return nil, c.err
	}

	found := make(map[uuid.UUID]domain.Product)
	for _, id := range ids {
		if p, ok := c.products[id]; ok {
			found[id] = p
		}
	}
	return found, nil
}

func (c *memoryCatalog) batchCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.batches)
}

// switchableIdentity lets a test sign the shopper in and out.
type switchableIdentity struct {
	mu  sync.Mutex
	id  domain.Identity
	err error
}

func (s *switchableIdentity) CurrentIdentity(context.Context) (domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.id, s.err
}

func (s *switchableIdentity) signIn(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.id = domain.Identity{ID: id}
}

func (s *switchableIdentity) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.err = err
}

// hangingIdentity blocks until the operation's deadline.
type hangingIdentity struct{}

func (hangingIdentity) CurrentIdentity(ctx context.Context) (domain.Identity, error) {
	<-ctx.Done()
	return domain.Identity{}, ctx.Err()
}
