package checkout

import "github.com/shopspring/decimal"

type ShippingMethod struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Delivery string          `json:"delivery"`
}

type PaymentMethod struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
}

const (
	ShippingStandard = "standard"
	ShippingExpress  = "express"
	ShippingPriority = "priority"

	PaymentBankTransfer  = "bank-transfer"
	PaymentPayOnDelivery = "pay-on-delivery"
	PaymentCard          = "card"
)

var shippingMethods = []ShippingMethod{
	{ID: ShippingStandard, Name: "Standard Shipping", Price: decimal.NewFromInt(5000), Delivery: "5-7 business days"},
	{ID: ShippingExpress, Name: "Express Shipping", Price: decimal.NewFromInt(15000), Delivery: "2-3 business days"},
	{ID: ShippingPriority, Name: "Priority Overnight", Price: decimal.NewFromInt(30000), Delivery: "Next business day"},
}

var paymentMethods = []PaymentMethod{
	{ID: PaymentBankTransfer, Name: "Bank Transfer", Description: "Pay directly to our bank account", Enabled: true},
	{ID: PaymentPayOnDelivery, Name: "Pay on Delivery", Description: "Pay with cash when you receive your order", Enabled: true},
	{ID: PaymentCard, Name: "Credit/Debit Card", Description: "Coming soon!", Enabled: false},
}

// States lists the delivery regions accepted at checkout.
var States = []string{
	"Abia", "Adamawa", "Akwa Ibom", "Anambra", "Bauchi", "Bayelsa", "Benue", "Borno",
	"Cross River", "Delta", "Ebonyi", "Edo", "Ekiti", "Enugu", "FCT - Abuja", "Gombe",
	"Imo", "Jigawa", "Kaduna", "Kano", "Katsina", "Kebbi", "Kogi", "Kwara", "Lagos",
	"Nasarawa", "Niger", "Ogun", "Ondo", "Osun", "Oyo", "Plateau", "Rivers",
	"Sokoto", "Taraba", "Yobe", "Zamfara",
}

func ShippingMethods() []ShippingMethod {
	out := make([]ShippingMethod, len(shippingMethods))
	copy(out, shippingMethods)
	return out
}

func PaymentMethods() []PaymentMethod {
	out := make([]PaymentMethod, len(paymentMethods))
	copy(out, paymentMethods)
	return out
}

func findShipping(id string) (ShippingMethod, bool) {
	for _, m := range shippingMethods {
		if m.ID == id {
			return m, true
		}
	}
	return ShippingMethod{}, false
}

func findPayment(id string) (PaymentMethod, bool) {
	for _, m := range paymentMethods {
		if m.ID == id {
			return m, true
		}
	}
	return PaymentMethod{}, false
}

func validState(state string) bool {
	for _, s := range States {
		if s == state {
			return true
		}
	}
	return false
}
