package domain

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type Money struct {
	Amount   decimal.Decimal
	Currency currency.Unit
}

func ZeroMoney(cur currency.Unit) Money {
	return Money{Amount: decimal.Zero, Currency: cur}
}

// Round rounds the amount to the standard scale of its currency (2 for USD, 0 for JPY).
func (m Money) Round() Money {
	scale, _ := currency.Standard.Rounding(m.Currency)
	return Money{Amount: m.Amount.Round(int32(scale)), Currency: m.Currency}
}

func (m Money) SameCurrency(other Money) bool {
	return m.Currency.String() == other.Currency.String()
}

// StringFixed formats the amount with the currency's standard number of decimals.
func (m Money) StringFixed() string {
	scale, _ := currency.Standard.Rounding(m.Currency)
	return m.Amount.StringFixed(int32(scale))
}
