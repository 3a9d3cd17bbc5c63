package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the catalog row a cart line is priced from. Catalog data is trusted
// but clamped when priced: see UnitPrice.
type Product struct {
	ID                 uuid.UUID
	SKU                string
	Name               string
	Price              Money
	DiscountPercentage decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// UnitPrice is the price after discount, with the discount clamped to [0, 100]
// and the list price floored at zero. It is not rounded.
func (p Product) UnitPrice() Money {
	price := decimal.Max(p.Price.Amount, decimal.Zero)
	discount := decimal.Min(decimal.Max(p.DiscountPercentage, decimal.Zero), hundred)

	factor := hundred.Sub(discount).Div(hundred)

	return Money{
		Amount:   price.Mul(factor),
		Currency: p.Price.Currency,
	}
}

// Line is a cart line hydrated with its live catalog row.
type Line struct {
	CartLine
	Product Product
}

func (l Line) Subtotal() Money {
	unit := l.Product.UnitPrice()
	return Money{
		Amount:   unit.Amount.Mul(decimal.NewFromInt(int64(l.Quantity))),
		Currency: unit.Currency,
	}
}
