package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/uwenvati/omotailor/internal/domain"
	"github.com/uwenvati/omotailor/internal/storage"
)

const (
	ItemsKey = "omotailor_cart"
	PromoKey = "omotailor_promo"
)

// restore loads persisted state. Missing keys mean an empty cart and malformed values are
// logged and discarded. A failed read is returned so the stored cart is never overwritten
// by an empty one.
func (s *Store) restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []domain.LineItem
	found, err := s.load(ctx, ItemsKey, &items)
	if err != nil {
		return err
	}
	if found {
		s.items = nil
		for _, item := range items {
			if item.Quantity < 1 {
				continue
			}
			if i := s.indexOf(item.Key()); i >= 0 {
				s.items[i].Quantity += item.Quantity
				continue
			}
			s.items = append(s.items, item)
		}
	}

	var promo domain.Promo
	found, err = s.load(ctx, PromoKey, &promo)
	if err != nil {
		return err
	}
	if found {
		// Re-validate against the current table so retired codes do not linger.
		if current, ok := s.promos.Lookup(promo.Code); ok {
			s.promo = &current
		} else {
			s.logger.Warn("discarding stored promo code", zap.String("code", promo.Code))
		}
	}
	return nil
}

func (s *Store) load(ctx context.Context, key string, dst any) (bool, error) {
	data, err := s.storage.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read cart state %q: %w", key, err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		s.logger.Warn("discarding malformed cart state", zap.String("key", key), zap.Error(err))
		return false, nil
	}
	return true, nil
}

// persist writes both keys so they share one expiry on backends with a sliding TTL.
func (s *Store) persist(ctx context.Context) {
	s.saveItems(ctx)
	s.savePromo(ctx)
}

func (s *Store) saveItems(ctx context.Context) {
	items := s.items
	if items == nil {
		items = []domain.LineItem{}
	}
	s.save(ctx, ItemsKey, items)
}

func (s *Store) savePromo(ctx context.Context) {
	if s.promo == nil {
		if err := s.storage.Remove(ctx, PromoKey); err != nil {
			s.logger.Error("failed to remove promo state", zap.Error(err))
		}
		return
	}
	s.save(ctx, PromoKey, s.promo)
}

func (s *Store) save(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Error("failed to encode cart state", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.storage.Set(ctx, key, data); err != nil {
		s.logger.Error("failed to persist cart state", zap.String("key", key), zap.Error(err))
	}
}
