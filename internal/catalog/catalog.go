// Package catalog serves the read-only product data the cart is fed from.
package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/uwenvati/omotailor/internal/domain"
)

var ErrProductNotFound = errors.New("product not found")

// SortOrder names a product listing order. The zero value keeps catalog order.
type SortOrder string

const (
	SortFeatured  SortOrder = ""
	SortPriceAsc  SortOrder = "price_asc"
	SortPriceDesc SortOrder = "price_desc"
)

// ParseSortOrder accepts the empty string, "featured", "price_asc" and "price_desc".
func ParseSortOrder(raw string) (SortOrder, bool) {
	switch SortOrder(raw) {
	case SortFeatured, "featured":
		return SortFeatured, true
	case SortPriceAsc, SortPriceDesc:
		return SortOrder(raw), true
	}
	return "", false
}

// Sort orders products in place by list price. Equal prices keep catalog order.
func Sort(products []domain.Product, order SortOrder) {
	switch order {
	case SortPriceAsc:
		slices.SortStableFunc(products, func(a, b domain.Product) int { return a.Price.Cmp(b.Price) })
	case SortPriceDesc:
		slices.SortStableFunc(products, func(a, b domain.Product) int { return b.Price.Cmp(a.Price) })
	}
}

type Catalog interface {
	// List returns every product in category, or all products when category is empty.
	List(ctx context.Context, category domain.Category) ([]domain.Product, error)
	Get(ctx context.Context, id string) (domain.Product, error)
}

//go:embed products.json
var defaultProducts []byte

// Static is a Catalog over a fixed product table.
type Static struct {
	products []domain.Product
	byID     map[string]int
}

func NewStatic(products []domain.Product) (*Static, error) {
	s := &Static{
		products: products,
		byID:     make(map[string]int, len(products)),
	}
	for i, p := range products {
		if p.ID == "" {
			return nil, fmt.Errorf("product %d has no id", i)
		}
		if _, dup := s.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product id %q", p.ID)
		}
		s.byID[p.ID] = i
	}
	return s, nil
}

// Load builds a Static catalog from a JSON array of products.
func Load(data []byte) (*Static, error) {
	var products []domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return NewStatic(products)
}

// Default returns the built-in storefront catalog.
func Default() (*Static, error) {
	return Load(defaultProducts)
}

func (s *Static) List(_ context.Context, category domain.Category) ([]domain.Product, error) {
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if category == "" || p.Category == category {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Static) Get(_ context.Context, id string) (domain.Product, error) {
	i, ok := s.byID[id]
	if !ok {
		return domain.Product{}, ErrProductNotFound
	}
	return s.products[i], nil
}
