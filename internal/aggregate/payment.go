package aggregate

import (
	"sort"
	"strings"

	"github.com/ginjaninja78/fleet-payment-summary/internal/csvparser"
	"github.com/ginjaninja78/fleet-payment-summary/internal/types"
	"github.com/samber/lo"
)

// CashMethod is the payment-method token excluded from method counts; cash is
// reported as an amount instead.
const CashMethod = "cash"

// PaymentPivot holds per-driver counts of each non-cash payment method.
type PaymentPivot struct {
	// Methods is every method observed in the table, sorted.
	Methods []string

	// Counts maps a driver key to its method counts. Keys with no non-cash
	// method are absent.
	Counts map[types.DriverKey]map[string]int
}

// SplitMethods splits a payment-method cell on commas. Tokens are not
// trimmed. The placeholder and empty cells yield no tokens.
func SplitMethods(raw string) []string {
	if raw == "" || raw == Placeholder {
		return nil
	}
	return strings.Split(raw, ",")
}

// CountPaymentMethods explodes the payment-method column into one occurrence
// per token, drops the literal "cash" token, and counts the rest per
// (fleet, contract, driver, method).
func CountPaymentMethods(data *csvparser.CSVData) *PaymentPivot {
	pivot := &PaymentPivot{Counts: make(map[types.DriverKey]map[string]int)}
	methods := make(map[string]struct{})

	for _, row := range data.Rows {
		key, ok := keyOf(row)
		if !ok {
			continue
		}

		for _, token := range SplitMethods(row[types.ColPayment]) {
			if token == CashMethod {
				continue
			}
			counts, exists := pivot.Counts[key]
			if !exists {
				counts = make(map[string]int)
				pivot.Counts[key] = counts
			}
			counts[token]++
			methods[token] = struct{}{}
		}
	}

	pivot.Methods = lo.Keys(methods)
	sort.Strings(pivot.Methods)

	return pivot
}
