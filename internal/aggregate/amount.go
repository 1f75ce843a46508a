package aggregate

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Placeholder is the export's marker for "no value" in the driver-entered
// cash and payment-method columns.
const Placeholder = "-"

// Amount is an optional cash value. The zero value is absent.
type Amount struct {
	Value decimal.Decimal
	Valid bool
}

// OrZero returns the value, or 0 when absent.
func (a Amount) OrZero() decimal.Decimal {
	if !a.Valid {
		return decimal.Zero
	}
	return a.Value
}

// MaxCashExponent bounds the decimal exponent of a cash value, in either
// direction.
const MaxCashExponent = 28

// ParseCash is the single conversion rule for the cash column: the literal
// placeholder and empty cells are absent, anything else must be a decimal
// number. Whitespace around a number is ignored; a padded placeholder is not
// a number.
func ParseCash(raw string) (Amount, error) {
	if raw == "" || raw == Placeholder {
		return Amount{}, nil
	}

	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return Amount{}, fmt.Errorf("cash value %q is not a number", raw)
	}
	if exp := d.Exponent(); exp > MaxCashExponent || exp < -MaxCashExponent {
		return Amount{}, fmt.Errorf("cash value %q is out of range", raw)
	}

	return Amount{Value: d, Valid: true}, nil
}
