package domain

import "github.com/shopspring/decimal"

// LineKey identifies a line item. At most one line item exists per key.
type LineKey struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

type LineItem struct {
	ProductID string           `json:"id"`
	Name      string           `json:"name"`
	Price     decimal.Decimal  `json:"price"`
	SalePrice *decimal.Decimal `json:"sale_price"`
	Image     string           `json:"image"`
	SKU       string           `json:"sku,omitempty"`
	Size      string           `json:"size"`
	Color     string           `json:"color"`
	Quantity  int              `json:"quantity"`
}

func (i LineItem) Key() LineKey {
	return LineKey{ProductID: i.ProductID, Size: i.Size, Color: i.Color}
}

// EffectivePrice is the sale price when one is set, the list price otherwise.
func (i LineItem) EffectivePrice() decimal.Decimal {
	if i.SalePrice != nil {
		return *i.SalePrice
	}
	return i.Price
}

func (i LineItem) LineTotal() decimal.Decimal {
	return i.EffectivePrice().Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ProductRef is the subset of a catalog product the cart needs to create a line item.
type ProductRef struct {
	ID        string
	Name      string
	Price     decimal.Decimal
	SalePrice *decimal.Decimal
	Image     string
	SKU       string
}

type Promo struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
}
