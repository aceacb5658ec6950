package domain

import "github.com/shopspring/decimal"

type Category string

const (
	CategoryMen    Category = "Men"
	CategoryWomen  Category = "Women"
	CategoryUnisex Category = "Unisex"
)

type Color struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

type Product struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Price       decimal.Decimal  `json:"price"`
	SalePrice   *decimal.Decimal `json:"sale_price,omitempty"`
	Images      []string         `json:"images"`
	SKU         string           `json:"sku"`
	Sizes       []string         `json:"sizes"`
	Colors      []Color          `json:"colors"`
	Category    Category         `json:"category"`
	Description string           `json:"description"`
}

// Ref narrows the product to what a cart line item records.
func (p Product) Ref() ProductRef {
	ref := ProductRef{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price,
		SalePrice: p.SalePrice,
		SKU:       p.SKU,
	}
	if len(p.Images) > 0 {
		ref.Image = p.Images[0]
	}
	return ref
}

func (p Product) HasSize(size string) bool {
	for _, s := range p.Sizes {
		if s == size {
			return true
		}
	}
	return false
}

func (p Product) HasColor(name string) bool {
	for _, c := range p.Colors {
		if c.Name == name {
			return true
		}
	}
	return false
}
