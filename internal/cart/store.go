// Package cart holds the per-session shopping cart: its line items, the active promo code and
// the totals derived from them. State is restored from a storage.Storage on construction and
// written back after every mutation.
package cart

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/uwenvati/omotailor/internal/domain"
	"github.com/uwenvati/omotailor/internal/pricing"
	"github.com/uwenvati/omotailor/internal/storage"
)

type Store struct {
	mu      sync.Mutex
	storage storage.Storage
	promos  *pricing.PromoTable
	policy  pricing.Policy
	logger  *zap.Logger

	items []domain.LineItem
	promo *domain.Promo
}

type Option func(*Store)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

func WithPromoTable(promos *pricing.PromoTable) Option {
	return func(s *Store) { s.promos = promos }
}

func WithPolicy(policy pricing.Policy) Option {
	return func(s *Store) { s.policy = policy }
}

// NewStore builds a store over st and restores any state persisted there. It fails when
// the persisted state cannot be read; malformed state is discarded instead.
func NewStore(ctx context.Context, st storage.Storage, opts ...Option) (*Store, error) {
	s := &Store{
		storage: st,
		promos:  pricing.DefaultPromoTable(),
		policy:  pricing.DefaultPolicy(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.restore(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// AddItem adds quantity units of product in the given size and color. An existing line
// with the same key has its quantity incremented instead of a second line being created.
func (s *Store) AddItem(ctx context.Context, product domain.ProductRef, quantity int, size, color string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := domain.LineKey{ProductID: product.ID, Size: size, Color: color}
	if i := s.indexOf(key); i >= 0 {
		s.items[i].Quantity += quantity
	} else {
		s.items = append(s.items, domain.LineItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			SalePrice: product.SalePrice,
			Image:     product.Image,
			SKU:       product.SKU,
			Size:      size,
			Color:     color,
			Quantity:  quantity,
		})
	}

	s.logger.Debug("item added",
		zap.String("product_id", product.ID),
		zap.String("size", size),
		zap.String("color", color),
		zap.Int("quantity", quantity))
	s.persist(ctx)
}

// RemoveItem deletes the line with key. Absent keys are ignored.
func (s *Store) RemoveItem(ctx context.Context, key domain.LineKey) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(key)
	s.persist(ctx)
}

// UpdateQuantity sets the quantity of the line with key. A quantity below 1 removes it.
func (s *Store) UpdateQuantity(ctx context.Context, key domain.LineKey, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity < 1 {
		s.removeLocked(key)
	} else if i := s.indexOf(key); i >= 0 {
		s.items[i].Quantity = quantity
	}
	s.persist(ctx)
}

// ApplyPromoCode activates code if it is known, replacing any active promo.
// It reports false and leaves the store untouched for unknown codes.
func (s *Store) ApplyPromoCode(ctx context.Context, code string) bool {
	promo, ok := s.promos.Lookup(code)
	if !ok {
		s.logger.Debug("promo code rejected", zap.String("code", code))
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.promo = &promo
	s.logger.Debug("promo code applied", zap.String("code", promo.Code))
	s.persist(ctx)
	return true
}

func (s *Store) RemovePromoCode(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.promo = nil
	s.persist(ctx)
}

// Clear empties the cart and drops the active promo in one step.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clearLocked(ctx)
}

// Checkout passes the current totals to place and empties the cart only if place succeeds.
// No other mutation can interleave between the two. place must not call back into the store.
func (s *Store) Checkout(ctx context.Context, place func(pricing.Summary) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := place(s.summaryLocked()); err != nil {
		return err
	}
	s.clearLocked(ctx)
	return nil
}

// Items returns a copy of the current line items in insertion order.
func (s *Store) Items() []domain.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyItems()
}

func (s *Store) Promo() (domain.Promo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.promo == nil {
		return domain.Promo{}, false
	}
	return *s.promo, true
}

func (s *Store) Subtotal() decimal.Decimal {
	return s.Snapshot().Subtotal
}

func (s *Store) DiscountAmount() decimal.Decimal {
	return s.Snapshot().Discount
}

func (s *Store) ShippingCost() decimal.Decimal {
	return s.Snapshot().Shipping
}

func (s *Store) Total() decimal.Decimal {
	return s.Snapshot().Total
}

func (s *Store) ItemCount() int {
	return s.Snapshot().ItemCount
}

func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items) == 0
}

// Policy returns the shipping policy the store prices with.
func (s *Store) Policy() pricing.Policy {
	return s.policy
}

// Snapshot computes every total from the current state.
func (s *Store) Snapshot() pricing.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summaryLocked()
}

func (s *Store) summaryLocked() pricing.Summary {
	var promo *domain.Promo
	if s.promo != nil {
		p := *s.promo
		promo = &p
	}
	return pricing.Summarize(s.copyItems(), promo, s.policy)
}

func (s *Store) indexOf(key domain.LineKey) int {
	for i, item := range s.items {
		if item.Key() == key {
			return i
		}
	}
	return -1
}

func (s *Store) clearLocked(ctx context.Context) {
	s.items = nil
	s.promo = nil
	s.persist(ctx)
}

func (s *Store) removeLocked(key domain.LineKey) {
	if i := s.indexOf(key); i >= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
	}
}

func (s *Store) copyItems() []domain.LineItem {
	out := make([]domain.LineItem, len(s.items))
	copy(out, s.items)
	return out
}
