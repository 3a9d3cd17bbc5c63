package domain

import (
	"fmt"

	"golang.org/x/text/currency"
)

// CartTotal sums the line subtotals and rounds once to the currency scale.
// An empty cart totals zero in fallback.
func CartTotal(lines []Line, fallback currency.Unit) (Money, error) {
	if len(lines) == 0 {
		return ZeroMoney(fallback), nil
	}

	total := ZeroMoney(lines[0].Product.Price.Currency)
	for _, line := range lines {
		subtotal := line.Subtotal()
		if !total.SameCurrency(subtotal) {
			return Money{}, fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, total.Currency, subtotal.Currency)
		}
		total.Amount = total.Amount.Add(subtotal.Amount)
	}

	return total.Round(), nil
}

type Summary struct {
	Lines     []Line
	ItemCount int
	Total     Money

	FreeShipping bool
	// RemainingForFreeShipping is zero when FreeShipping is set or no threshold is configured.
	RemainingForFreeShipping Money
}

// Summarize builds the summary shown next to the cart. A non-positive threshold
// disables the free-shipping computation; otherwise it must be in the total's currency.
func Summarize(lines []Line, fallback currency.Unit, freeShippingThreshold Money) (Summary, error) {
	total, err := CartTotal(lines, fallback)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{
		Lines:                    lines,
		Total:                    total,
		RemainingForFreeShipping: ZeroMoney(total.Currency),
	}
	for _, line := range lines {
		summary.ItemCount += line.Quantity
	}

	if freeShippingThreshold.Amount.IsPositive() {
		if !total.SameCurrency(freeShippingThreshold) {
			return Summary{}, fmt.Errorf("%w: free shipping threshold in %s, total in %s",
				ErrCurrencyMismatch, freeShippingThreshold.Currency, total.Currency)
		}

		if total.Amount.GreaterThanOrEqual(freeShippingThreshold.Amount) {
			summary.FreeShipping = true
		} else {
			summary.RemainingForFreeShipping.Amount = freeShippingThreshold.Amount.Sub(total.Amount)
		}
	}

	return summary, nil
}
