package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "Pending Payment"
	OrderStatusConfirmed      OrderStatus = "Confirmed"
	OrderStatusCancelled      OrderStatus = "Cancelled"
)

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}

type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type Address struct {
	Street     string `json:"street"`
	Apartment  string `json:"apartment"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Order is the record handed off at checkout: the cart contents and totals at the
// moment the order was placed.
type Order struct {
	ID              string          `json:"order_id"`
	OrderDate       time.Time       `json:"order_date"`
	Customer        Customer        `json:"customer_info"`
	ShippingAddress Address         `json:"shipping_address"`
	Items           []LineItem      `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Discount        decimal.Decimal `json:"discount"`
	PromoCode       *string         `json:"promo_code"`
	Shipping        decimal.Decimal `json:"shipping"`
	ShippingMethod  string          `json:"shipping_method"`
	Total           decimal.Decimal `json:"total"`
	PaymentMethod   string          `json:"payment_method"`
	Status          OrderStatus     `json:"status"`

	// SessionID is the browsing session that placed the order. Only that session may read it.
	SessionID string `json:"-"`
}
