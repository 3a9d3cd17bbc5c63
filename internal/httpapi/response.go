package httpapi

import (
	"github.com/google/uuid"
	"github.com/nikolayk812/partscart/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

type lineResponse struct {
	ProductID uuid.UUID `json:"product_id"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	UnitPrice string    `json:"unit_price"`
	Subtotal  string    `json:"subtotal"`
}

type summaryResponse struct {
	Lines                    []lineResponse `json:"lines"`
	ItemCount                int            `json:"item_count"`
	Total                    string         `json:"total"`
	Currency                 string         `json:"currency"`
	FreeShipping             bool           `json:"free_shipping"`
	RemainingForFreeShipping string         `json:"remaining_for_free_shipping"`
}

func toSummaryResponse(s domain.Summary) summaryResponse {
	lines := make([]lineResponse, 0, len(s.Lines))
	for _, line := range s.Lines {
		lines = append(lines, lineResponse{
			ProductID: line.ProductID,
			SKU:       line.Product.SKU,
			Name:      line.Product.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.Product.UnitPrice().StringFixed(),
			Subtotal:  line.Subtotal().StringFixed(),
		})
	}

	return summaryResponse{
		Lines:                    lines,
		ItemCount:                s.ItemCount,
		Total:                    s.Total.StringFixed(),
		Currency:                 s.Total.Currency.String(),
		FreeShipping:             s.FreeShipping,
		RemainingForFreeShipping: s.RemainingForFreeShipping.StringFixed(),
	}
}
