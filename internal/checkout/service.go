// Package checkout turns a cart into a placed order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/uwenvati/omotailor/internal/cart"
	"github.com/uwenvati/omotailor/internal/domain"
	"github.com/uwenvati/omotailor/internal/events"
	"github.com/uwenvati/omotailor/internal/orders"
	"github.com/uwenvati/omotailor/internal/pricing"
)

const (
	DefaultCountry = "Nigeria"

	maxOrderIDAttempts = 5
)

var (
	ErrEmptyCart                = errors.New("cart is empty")
	ErrTermsNotAccepted         = errors.New("terms and conditions must be accepted")
	ErrUnknownShippingMethod    = errors.New("unknown shipping method")
	ErrPaymentMethodUnavailable = errors.New("payment method unavailable")
)

type Service struct {
	orders    orders.Repository
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(repo orders.Repository, publisher events.Publisher, logger *zap.Logger) *Service {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Service{
		orders:    repo,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// PlaceOrder validates req, records the order built from the cart's current contents on
// behalf of sessionID and empties the cart. The cart is left untouched when anything before
// the save fails.
func (s *Service) PlaceOrder(ctx context.Context, sessionID string, store *cart.Store, req Request) (*domain.Order, error) {
	if store.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if err := Validate(req); err != nil {
		return nil, err
	}
	if !req.AcceptTerms {
		return nil, ErrTermsNotAccepted
	}

	shipping, ok := findShipping(req.ShippingMethod)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownShippingMethod, req.ShippingMethod)
	}
	payment, ok := findPayment(req.PaymentMethod)
	if !ok || !payment.Enabled {
		return nil, fmt.Errorf("%w: %q", ErrPaymentMethodUnavailable, req.PaymentMethod)
	}

	var order *domain.Order
	err := store.Checkout(ctx, func(summary pricing.Summary) error {
		if len(summary.Items) == 0 {
			return ErrEmptyCart
		}
		order = s.buildOrder(sessionID, summary, shipping, payment, req)
		return s.create(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	if err := s.publisher.PublishOrderPlaced(ctx, events.NewOrderPlaced(order)); err != nil {
		s.logger.Warn("failed to publish order placed event",
			zap.String("order_id", order.ID),
			zap.Error(err))
	}

	s.logger.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("total", order.Total.String()),
		zap.Int("items", len(order.Items)))
	return order, nil
}

// GetOrder returns the order with id if sessionID placed it. Orders of other sessions are
// reported as not found.
func (s *Service) GetOrder(ctx context.Context, sessionID, id string) (*domain.Order, error) {
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sessionID == "" || order.SessionID != sessionID {
		return nil, orders.ErrOrderNotFound
	}
	return order, nil
}

func (s *Service) buildOrder(sessionID string, summary pricing.Summary, shipping ShippingMethod, payment PaymentMethod, req Request) *domain.Order {
	shippingCost := shipping.Price
	if shipping.ID == ShippingStandard {
		shippingCost = summary.Shipping
	}
	total := summary.Subtotal.Sub(summary.Discount).Add(shippingCost)
	if total.IsNegative() {
		total = decimal.Zero
	}

	order := &domain.Order{
		OrderDate: s.now().UTC(),
		Customer: domain.Customer{
			Name:  strings.TrimSpace(req.FullName),
			Email: strings.TrimSpace(req.Email),
			Phone: strings.TrimSpace(req.Phone),
		},
		ShippingAddress: domain.Address{
			Street:     strings.TrimSpace(req.Address),
			Apartment:  strings.TrimSpace(req.Address2),
			City:       strings.TrimSpace(req.City),
			State:      req.State,
			PostalCode: strings.TrimSpace(req.PostalCode),
			Country:    DefaultCountry,
		},
		Items:          summary.Items,
		Subtotal:       summary.Subtotal,
		Discount:       summary.Discount,
		Shipping:       shippingCost,
		ShippingMethod: shipping.Name,
		Total:          total,
		PaymentMethod:  payment.Name,
		Status:         domain.OrderStatusPendingPayment,
		SessionID:      sessionID,
	}
	if summary.Promo != nil {
		code := summary.Promo.Code
		order.PromoCode = &code
	}
	return order
}

// create saves order, moving its id to the next millisecond while the id is taken.
func (s *Service) create(ctx context.Context, order *domain.Order) error {
	var err error
	for attempt := 0; attempt < maxOrderIDAttempts; attempt++ {
		order.ID = newOrderID(order.OrderDate.Add(time.Duration(attempt) * time.Millisecond))
		err = s.orders.Create(ctx, order)
		if !errors.Is(err, orders.ErrDuplicateOrder) {
			break
		}
		s.logger.Debug("order id taken, retrying", zap.String("order_id", order.ID))
	}
	if err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	return nil
}

func newOrderID(t time.Time) string {
	return "ORD-" + strings.ToUpper(strconv.FormatInt(t.UnixMilli(), 36))
}
