package checkout

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// Request is the customer-supplied half of an order.
type Request struct {
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	FullName       string `json:"full_name"`
	Address        string `json:"address"`
	Address2       string `json:"address2"`
	City           string `json:"city"`
	State          string `json:"state"`
	PostalCode     string `json:"postal_code"`
	ShippingMethod string `json:"shipping_method"`
	PaymentMethod  string `json:"payment_method"`
	AcceptTerms    bool   `json:"accept_terms"`
}

// ValidationError maps each rejected field to a human readable reason.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("invalid checkout details: %s", strings.Join(names, ", "))
}

// Validate checks the contact and address fields. Shipping, payment and terms are
// checked separately by PlaceOrder since they have their own errors.
func Validate(req Request) error {
	fields := make(map[string]string)

	email := strings.TrimSpace(req.Email)
	switch {
	case email == "":
		fields["email"] = "Email is required"
	case !emailPattern.MatchString(email):
		fields["email"] = "Please enter a valid email"
	}

	switch {
	case strings.TrimSpace(req.Phone) == "":
		fields["phone"] = "Phone number is required"
	case countDigits(req.Phone) < 10:
		fields["phone"] = "Please enter a valid phone number"
	}

	if strings.TrimSpace(req.FullName) == "" {
		fields["full_name"] = "Full name is required"
	}
	if strings.TrimSpace(req.Address) == "" {
		fields["address"] = "Address is required"
	}
	if strings.TrimSpace(req.City) == "" {
		fields["city"] = "City is required"
	}
	switch {
	case req.State == "":
		fields["state"] = "State is required"
	case !validState(req.State):
		fields["state"] = "Unknown state"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}
