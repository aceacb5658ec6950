package orders

import (
	"context"
	"errors"

	"github.com/uwenvati/omotailor/internal/domain"
)

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrDuplicateOrder = errors.New("order with this id already exists")
)

// Repository stores placed orders. Orders are immutable once created.
type Repository interface {
	Create(ctx context.Context, order *domain.Order) error
	Get(ctx context.Context, id string) (*domain.Order, error)
}
