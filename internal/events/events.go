package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/uwenvati/omotailor/internal/domain"
)

const OrderPlacedTopic = "orders.placed"

type OrderPlacedItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type OrderPlaced struct {
	OrderID       string            `json:"order_id"`
	CustomerEmail string            `json:"customer_email"`
	Items         []OrderPlacedItem `json:"items"`
	Total         decimal.Decimal   `json:"total"`
	Currency      string            `json:"currency"`
	PaymentMethod string            `json:"payment_method"`
	PlacedAt      time.Time         `json:"placed_at"`
}

func NewOrderPlaced(order *domain.Order) OrderPlaced {
	items := make([]OrderPlacedItem, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderPlacedItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Size:      item.Size,
			Color:     item.Color,
			Quantity:  item.Quantity,
			UnitPrice: item.EffectivePrice(),
		}
	}
	return OrderPlaced{
		OrderID:       order.ID,
		CustomerEmail: order.Customer.Email,
		Items:         items,
		Total:         order.Total,
		Currency:      "NGN",
		PaymentMethod: order.PaymentMethod,
		PlacedAt:      order.OrderDate,
	}
}

// Publisher announces placed orders to downstream consumers.
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, event OrderPlaced) error
}

// Noop discards every event. Used when no broker is configured.
type Noop struct{}

func (Noop) PublishOrderPlaced(context.Context, OrderPlaced) error { return nil }
