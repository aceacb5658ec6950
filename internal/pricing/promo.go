package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/uwenvati/omotailor/internal/domain"
)

var ErrInvalidDiscount = errors.New("discount must be greater than 0 and at most 1")

// PromoTable is the fixed mapping of promotional codes to discount fractions.
type PromoTable struct {
	codes map[string]decimal.Decimal
}

// DefaultPromoCodes are the codes accepted when no table is configured.
var DefaultPromoCodes = map[string]decimal.Decimal{
	"SAVE10":    decimal.RequireFromString("0.10"),
	"SAVE20":    decimal.RequireFromString("0.20"),
	"WELCOME15": decimal.RequireFromString("0.15"),
}

func NewPromoTable(codes map[string]decimal.Decimal) (*PromoTable, error) {
	t := &PromoTable{codes: make(map[string]decimal.Decimal, len(codes))}
	for code, discount := range codes {
		if !discount.IsPositive() || discount.GreaterThan(decimal.NewFromInt(1)) {
			return nil, fmt.Errorf("promo code %q: %w", code, ErrInvalidDiscount)
		}
		t.codes[Normalize(code)] = discount
	}
	return t, nil
}

func DefaultPromoTable() *PromoTable {
	t, err := NewPromoTable(DefaultPromoCodes)
	if err != nil {
		panic(err)
	}
	return t
}

// Normalize trims surrounding whitespace and upper-cases the code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Lookup reports the promo for code. Unknown codes return false.
func (t *PromoTable) Lookup(code string) (domain.Promo, bool) {
	normalized := Normalize(code)
	if normalized == "" {
		return domain.Promo{}, false
	}
	discount, ok := t.codes[normalized]
	if !ok {
		return domain.Promo{}, false
	}
	return domain.Promo{Code: normalized, Discount: discount}, true
}

// ParsePromoCodes parses "CODE:fraction" pairs separated by commas, e.g. "SAVE10:0.1,VIP:0.3".
func ParsePromoCodes(raw string) (map[string]decimal.Decimal, error) {
	codes := make(map[string]decimal.Decimal)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		code, fraction, ok := strings.Cut(pair, ":")
		if !ok || strings.TrimSpace(code) == "" {
			return nil, fmt.Errorf("malformed promo code entry %q", pair)
		}
		discount, err := decimal.NewFromString(strings.TrimSpace(fraction))
		if err != nil {
			return nil, fmt.Errorf("promo code %q: %w", code, err)
		}
		codes[Normalize(code)] = discount
	}
	return codes, nil
}
