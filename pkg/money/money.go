// Package money computes order totals in decimal arithmetic and converts
// them to the integer minor units payment gateways expect.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when a caller passes an empty currency code.
const DefaultCurrency = "usd"

// zero-decimal currencies charge in whole units
var zeroDecimal = map[string]bool{
	"jpy": true,
	"krw": true,
	"vnd": true,
	"clp": true,
}

// ValidationError reports an invalid monetary input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// LineItem is one priced row of a cart snapshot.
type LineItem struct {
	UnitPrice decimal.Decimal
	Quantity  int64
}

// Money is an amount in major units with its currency code.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// Exponent returns the number of minor-unit digits for the currency.
func Exponent(currency string) int32 {
	if zeroDecimal[normalize(currency)] {
		return 0
	}
	return 2
}

// ComputeTotal sums price*quantity over items.
func ComputeTotal(items []LineItem, currency string) (Money, error) {
	total := decimal.Zero
	for i, item := range items {
		if item.Quantity < 1 {
			return Money{}, &ValidationError{
				Field:  fmt.Sprintf("items[%d].quantity", i),
				Reason: "must be at least 1",
			}
		}
		if item.UnitPrice.IsNegative() {
			return Money{}, &ValidationError{
				Field:  fmt.Sprintf("items[%d].unit_price", i),
				Reason: "must not be negative",
			}
		}
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(item.Quantity)))
	}
	return Money{Amount: total, Currency: normalize(currency)}, nil
}

// MinorUnits converts the amount to integer minor units.
func (m Money) MinorUnits() (int64, error) {
	return ToMinorUnits(m.Amount, m.Currency)
}

// String renders the amount with the currency's fixed number of decimals.
func (m Money) String() string {
	return m.Amount.StringFixedBank(Exponent(m.Currency)) + " " + strings.ToUpper(normalize(m.Currency))
}

// ToMinorUnits shifts amount by the currency exponent, rounding half to even
// exactly once.
func ToMinorUnits(amount decimal.Decimal, currency string) (int64, error) {
	if amount.IsNegative() {
		return 0, &ValidationError{Field: "amount", Reason: "must not be negative"}
	}
	minor := amount.Shift(Exponent(currency)).RoundBank(0)
	if !minor.IsInteger() || minor.GreaterThan(decimal.NewFromInt(maxMinor)) {
		return 0, &ValidationError{Field: "amount", Reason: "out of range"}
	}
	return minor.IntPart(), nil
}

// FromMinorUnits is the inverse of ToMinorUnits.
func FromMinorUnits(minor int64, currency string) decimal.Decimal {
	return decimal.New(minor, -Exponent(currency))
}

// ParsePrice parses a non-negative price with at most the currency's number
// of decimals.
func ParsePrice(s, currency string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, &ValidationError{Field: "price", Reason: "not a number"}
	}
	if err := ValidatePrice(d, currency); err != nil {
		return decimal.Decimal{}, err
	}
	return d, nil
}

// ValidatePrice checks sign and scale of a unit price.
func ValidatePrice(d decimal.Decimal, currency string) error {
	if d.IsNegative() {
		return &ValidationError{Field: "price", Reason: "must not be negative"}
	}
	if !d.Equal(d.Truncate(Exponent(currency))) {
		return &ValidationError{
			Field:  "price",
			Reason: fmt.Sprintf("more than %d decimal places", Exponent(currency)),
		}
	}
	return nil
}

// 2^53 keeps amounts exactly representable for JS clients.
const maxMinor = 1 << 53

func normalize(currency string) string {
	c := strings.ToLower(strings.TrimSpace(currency))
	if c == "" {
		return DefaultCurrency
	}
	return c
}
