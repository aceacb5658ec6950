package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/uwenvati/omotailor/internal/domain"
	"github.com/uwenvati/omotailor/internal/storage"
)

const orderKeyPrefix = "omotailor_order_"

// KVRepository keeps each order as a JSON document under "omotailor_order_<id>".
// The owning session id is stored alongside the public order fields.
type KVRepository struct {
	mu      sync.Mutex
	storage storage.Storage
}

func NewKVRepository(st storage.Storage) *KVRepository {
	return &KVRepository{storage: st}
}

type storedOrder struct {
	*domain.Order
	SessionID string `json:"session_id"`
}

func (r *KVRepository) Create(ctx context.Context, order *domain.Order) error {
	data, err := json.Marshal(storedOrder{Order: order, SessionID: order.SessionID})
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}

	// the existence check and the write must not interleave with another Create
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err = r.storage.Get(ctx, orderKey(order.ID))
	if err == nil {
		return ErrDuplicateOrder
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("check existing order: %w", err)
	}

	if err := r.storage.Set(ctx, orderKey(order.ID), data); err != nil {
		return fmt.Errorf("store order: %w", err)
	}
	return nil
}

func (r *KVRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	data, err := r.storage.Get(ctx, orderKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}

	stored := storedOrder{Order: &domain.Order{}}
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	stored.Order.SessionID = stored.SessionID
	return stored.Order, nil
}

func orderKey(id string) string {
	return orderKeyPrefix + id
}
