package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/uwenvati/omotailor/internal/domain"
)

// Policy holds the shipping rules applied to every cart.
type Policy struct {
	FreeShippingThreshold decimal.Decimal
	FlatShippingRate      decimal.Decimal
}

func DefaultPolicy() Policy {
	return Policy{
		FreeShippingThreshold: decimal.NewFromInt(50000),
		FlatShippingRate:      decimal.NewFromInt(5000),
	}
}

// ShippingFor returns zero when subtotal reaches the threshold, the flat rate otherwise.
func (p Policy) ShippingFor(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(p.FreeShippingThreshold) {
		return decimal.Zero
	}
	return p.FlatShippingRate
}

// Summary is the derived view of a cart. It is never stored.
type Summary struct {
	Items        []domain.LineItem `json:"items"`
	Promo        *domain.Promo     `json:"promo"`
	Subtotal     decimal.Decimal   `json:"subtotal"`
	Discount     decimal.Decimal   `json:"discount"`
	Shipping     decimal.Decimal   `json:"shipping"`
	Total        decimal.Decimal   `json:"total"`
	ItemCount    int               `json:"item_count"`
	FreeShipping bool              `json:"free_shipping"`
}

func Subtotal(items []domain.LineItem) decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	return subtotal
}

func ItemCount(items []domain.LineItem) int {
	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	return count
}

func Discount(subtotal decimal.Decimal, promo *domain.Promo) decimal.Decimal {
	if promo == nil {
		return decimal.Zero
	}
	return subtotal.Mul(promo.Discount)
}

// Summarize computes every total for items under promo and policy.
func Summarize(items []domain.LineItem, promo *domain.Promo, policy Policy) Summary {
	subtotal := Subtotal(items)
	discount := Discount(subtotal, promo)
	shipping := policy.ShippingFor(subtotal)

	total := subtotal.Sub(discount).Add(shipping)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Summary{
		Items:        items,
		Promo:        promo,
		Subtotal:     subtotal,
		Discount:     discount,
		Shipping:     shipping,
		Total:        total,
		ItemCount:    ItemCount(items),
		FreeShipping: shipping.IsZero(),
	}
}
