package domain

import (
	"math"
	"slices"
	"time"

	"github.com/google/uuid"
)

// MaxQuantity is the largest quantity a single line can hold in any cart store.
const MaxQuantity = math.MaxInt32

// Cart is the set of lines of one shopping session. OwnerID is empty for a guest cart.
type Cart struct {
	OwnerID string
	Lines   []CartLine
}

type CartLine struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`

	CreatedAt time.Time `json:"created_at"`
}

func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

func (c Cart) Line(productID uuid.UUID) (CartLine, bool) {
	idx := c.index(productID)
	if idx < 0 {
		return CartLine{}, false
	}
	return c.Lines[idx], true
}

func (c Cart) ProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(c.Lines))
	for _, line := range c.Lines {
		ids = append(ids, line.ProductID)
	}
	return ids
}

// Add increments the quantity of an existing line or appends a new one.
// The resulting quantity must stay within [1, MaxQuantity].
func (c *Cart) Add(productID uuid.UUID, quantity int, now time.Time) error {
	if quantity < 1 || quantity > MaxQuantity {
		return ErrInvalidQuantity
	}

	if idx := c.index(productID); idx >= 0 {
		if c.Lines[idx].Quantity > MaxQuantity-quantity {
			return ErrInvalidQuantity
		}
		c.Lines[idx].Quantity += quantity
		return nil
	}

	c.Lines = append(c.Lines, CartLine{
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: now,
	})
	return nil
}

// SetQuantity overwrites the quantity of an existing line. A quantity <= 0 removes the line.
func (c *Cart) SetQuantity(productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		c.Remove(productID)
		return nil
	}
	if quantity > MaxQuantity {
		return ErrInvalidQuantity
	}

	idx := c.index(productID)
	if idx < 0 {
		return ErrLineNotFound
	}
	c.Lines[idx].Quantity = quantity
	return nil
}

// Remove reports whether a line was present.
func (c *Cart) Remove(productID uuid.UUID) bool {
	idx := c.index(productID)
	if idx < 0 {
		return false
	}
	c.Lines = slices.Delete(c.Lines, idx, idx+1)
	return true
}

func (c Cart) index(productID uuid.UUID) int {
	return slices.IndexFunc(c.Lines, func(line CartLine) bool {
		return line.ProductID == productID
	})
}
