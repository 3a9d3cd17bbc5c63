package cart

import (
	"fmt"
	"slices"

	"github.com/nikolayk812/partscart/internal/domain"
)

// ReconcilePolicy decides what the signed-in cart holds after a guest signs in.
// It must not return lines with a non-positive quantity or duplicate products.
type ReconcilePolicy func(existing, guest []domain.CartLine) []domain.CartLine

// OverwritePolicy discards the signed-in cart and keeps the guest lines only.
func OverwritePolicy(_, guest []domain.CartLine) []domain.CartLine {
	var merged domain.Cart
	for _, line := range guest {
		addCapped(&merged, line)
	}
	return merged.Lines
}

// UnionPolicy keeps both carts and sums the quantities of products present in both,
// capped at domain.MaxQuantity.
func UnionPolicy(existing, guest []domain.CartLine) []domain.CartLine {
	merged := domain.Cart{Lines: slices.Clone(existing)}
	for _, line := range guest {
		addCapped(&merged, line)
	}
	return merged.Lines
}

// addCapped drops lines with a non-positive quantity and clamps the sum to domain.MaxQuantity.
func addCapped(c *domain.Cart, line domain.CartLine) {
	if line.Quantity < 1 {
		return
	}

	current, _ := c.Line(line.ProductID)
	increment := min(line.Quantity, domain.MaxQuantity-current.Quantity)
	if increment < 1 {
		return
	}

	_ = c.Add(line.ProductID, increment, line.CreatedAt)
}

const (
	PolicyOverwrite = "overwrite"
	PolicyUnion     = "union"
)

func PolicyByName(name string) (ReconcilePolicy, error) {
	switch name {
	case PolicyOverwrite, "":
		return OverwritePolicy, nil
	case PolicyUnion:
		return UnionPolicy, nil
	default:
		return nil, fmt.Errorf("unknown reconcile policy %q", name)
	}
}
