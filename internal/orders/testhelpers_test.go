package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/uwenvati/omotailor/internal/domain"
)

func newTestOrder(id string) *domain.Order {
	promo := "SAVE20"
	return &domain.Order{
		ID:        id,
		OrderDate: time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
		Customer: domain.Customer{
			Name:  "Adaeze Okafor",
			Email: "adaeze@example.com",
			Phone: "+234 803 555 0101",
		},
		ShippingAddress: domain.Address{
			Street:  "12 Admiralty Way",
			City:    "Lekki",
			State:   "Lagos",
			Country: "Nigeria",
		},
		Items: []domain.LineItem{
			{ProductID: "1", Name: "Imperial Agbada Royale", Price: decimal.NewFromInt(75000), Size: "L", Color: "midnight-blue", Quantity: 1},
		},
		Subtotal:       decimal.NewFromInt(75000),
		Discount:       decimal.NewFromInt(15000),
		PromoCode:      &promo,
		Shipping:       decimal.Zero,
		ShippingMethod: "Standard Shipping",
		Total:          decimal.NewFromInt(60000),
		PaymentMethod:  "Bank Transfer",
		Status:         domain.OrderStatusPendingPayment,
		SessionID:      "5f0c6a8e-2b1d-4c3e-9a7f-1d2e3f4a5b6c",
	}
}
